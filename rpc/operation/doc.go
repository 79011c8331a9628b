/*
Package operation implements the operations of the rKV client. An operation
represents one request/response exchange with a node: it encodes a typed
request into a wire message, validates and accumulates the responses and
finally converts them into a typed result that is delivered through a Future.

Lifecycle:

 1. A constructor (NewFetch, NewStore, NewStoreBucketProps, ...) validates the
    identifying fields and returns an InvalidArgument error for bad input.
 2. The executor calls Encode once before any I/O.
 3. Every received message is passed to OnResponse. The message code is checked
    against the expected response code: an error response becomes a
    *common.ServerError, any other code is a ProtocolMismatch. Single response
    operations are done after the first message, streaming operations
    (ListKeys) when the server sets the done flag.
 4. Complete converts the accumulated responses exactly once and resolves the
    future. On any failure the executor calls Fail instead.

Operations do no I/O themselves. They are executed by the cluster package:

	op, err := operation.NewFetch(query.NewNamespace("users").Location("alice"), operation.FetchOptions{})
	if err != nil {
		return err
	}
	c.Submit(ctx, op)
	result, err := op.Future().Await(ctx)

The generic FutureOperation[R, T] carries the shared behaviour. R is the
decoded type of one response message and T the result type. Concrete
operations embed it and only provide their encode, decode and convert steps.

Every resolved operation updates the rkv_operations_total counter and the
rkv_operation_duration_seconds histogram (VictoriaMetrics).
*/
package operation
