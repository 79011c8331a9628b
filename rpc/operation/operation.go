package operation

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/pb"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("operation")

// --------------------------------------------------------------------------
// Operation Interface
// --------------------------------------------------------------------------

// Operation is one request/response exchange with a node. The executor calls
// Encode once, sends the message, passes every received message to OnResponse
// until it reports done, and then calls Complete. If anything fails before
// that, the executor calls Fail instead.
type Operation interface {
	// Name returns a short name used in logs and metrics
	Name() string
	// Encode returns the request message. The request is built on the first
	// call, later calls return the same message.
	Encode() (common.WireMessage, error)
	// OnResponse validates and accumulates one received message.
	// A returned error always terminates the exchange.
	OnResponse(msg common.WireMessage) (done bool, err error)
	// Received returns the number of accepted responses
	Received() int
	// Complete converts the accumulated responses and resolves the future
	Complete() error
	// Fail resolves the future with err (no-op if already resolved)
	Fail(err error)
}

// --------------------------------------------------------------------------
// Generic Implementation
// --------------------------------------------------------------------------

// FutureOperation implements Operation for a response type R (one decoded
// response message) and a result type T. Concrete operations embed it and
// provide the encode, decode and convert steps.
type FutureOperation[R any, T any] struct {
	name     string
	reqCode  common.MessageCode
	respCode common.MessageCode

	encode  func() ([]byte, error)
	decode  func(payload []byte) (R, error)
	isDone  func(resp R) bool // nil for single response operations
	convert func(resp []R) (T, error)

	encodeOnce sync.Once
	encoded    common.WireMessage
	encodeErr  error

	raw       []R
	completed atomic.Bool
	future    *Future[T]
	created   time.Time
}

// newFutureOperation creates the generic part of an operation. The expected
// response code is taken from the code table.
func newFutureOperation[R any, T any](
	name string,
	reqCode common.MessageCode,
	encode func() ([]byte, error),
	decode func(payload []byte) (R, error),
	convert func(resp []R) (T, error),
) *FutureOperation[R, T] {
	respCode, ok := common.ResponseCode(reqCode)
	if !ok {
		// Programming error, every operation uses a request code from the table
		panic(fmt.Sprintf("operation %s uses %s which is not a request code", name, reqCode))
	}

	return &FutureOperation[R, T]{
		name:     name,
		reqCode:  reqCode,
		respCode: respCode,
		encode:   encode,
		decode:   decode,
		convert:  convert,
		future:   newFuture[T](),
		created:  time.Now(),
	}
}

// streaming marks the operation as multi response, isDone decides on the last message
func (o *FutureOperation[R, T]) streaming(isDone func(resp R) bool) *FutureOperation[R, T] {
	o.isDone = isDone
	return o
}

func (o *FutureOperation[R, T]) Name() string {
	return o.name
}

func (o *FutureOperation[R, T]) Encode() (common.WireMessage, error) {
	o.encodeOnce.Do(func() {
		payload, err := o.encode()
		if err != nil {
			o.encodeErr = common.WrapError(common.KindMalformedRequest, err, "failed to encode %s", o.name)
			return
		}
		o.encoded = common.NewWireMessage(o.reqCode, payload)
	})
	return o.encoded, o.encodeErr
}

func (o *FutureOperation[R, T]) OnResponse(msg common.WireMessage) (bool, error) {
	switch msg.Code {
	case o.respCode:
		// expected

	case common.MsgErrorResp:
		var resp pb.ErrorResp
		if err := resp.Unmarshal(msg.Payload); err != nil {
			return true, common.WrapError(common.KindDecodeError, err, "failed to decode error response to %s", o.name)
		}
		return true, &common.ServerError{Code: resp.Errcode, Message: string(resp.Errmsg)}

	default:
		return true, common.NewError(common.KindProtocolMismatch, "%s expected %s but received %s", o.name, o.respCode, msg.Code)
	}

	resp, err := o.decode(msg.Payload)
	if err != nil {
		return true, common.WrapError(common.KindDecodeError, err, "failed to decode %s", msg.Code)
	}
	o.raw = append(o.raw, resp)

	if o.isDone == nil {
		return true, nil
	}
	return o.isDone(resp), nil
}

func (o *FutureOperation[R, T]) Received() int {
	return len(o.raw)
}

func (o *FutureOperation[R, T]) Complete() error {
	if !o.completed.CompareAndSwap(false, true) {
		return fmt.Errorf("%s was already completed", o.name)
	}

	result, err := o.convert(o.raw)
	o.raw = nil
	if err != nil {
		err = common.WrapError(common.KindDecodeError, err, "failed to convert %s result", o.name)
	}
	o.finish(result, err)
	return err
}

func (o *FutureOperation[R, T]) Fail(err error) {
	if !o.completed.CompareAndSwap(false, true) {
		Logger.Debugf("Ignoring failure of completed %s: %v", o.name, err)
		return
	}
	var zero T
	o.finish(zero, err)
}

// Future returns the completion handle
func (o *FutureOperation[R, T]) Future() *Future[T] {
	return o.future
}

// Get blocks until the operation is resolved
func (o *FutureOperation[R, T]) Get() (T, error) {
	return o.future.Get()
}

// finish resolves the future and records the outcome
func (o *FutureOperation[R, T]) finish(result T, err error) {
	if !o.future.resolve(result, err) {
		return
	}

	outcome := "ok"
	switch {
	case err == nil:
	case isServerError(err):
		outcome = "server_error"
	default:
		outcome = common.KindOf(err).String()
	}
	metrics.GetOrCreateCounter(fmt.Sprintf(`rkv_operations_total{op=%q,outcome=%q}`, o.name, outcome)).Inc()
	metrics.GetOrCreateHistogram(fmt.Sprintf(`rkv_operation_duration_seconds{op=%q}`, o.name)).UpdateDuration(o.created)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func isServerError(err error) bool {
	_, ok := err.(*common.ServerError)
	return ok
}

// decodeEmpty is the decode step of responses without a payload
func decodeEmpty([]byte) (struct{}, error) {
	return struct{}{}, nil
}

// convertUnit is the convert step of operations without a result
func convertUnit([]struct{}) (struct{}, error) {
	return struct{}{}, nil
}

// single returns the only response of a single response operation
func single[R any](resp []R) (R, error) {
	if len(resp) != 1 {
		var zero R
		return zero, fmt.Errorf("expected exactly one response, got %d", len(resp))
	}
	return resp[0], nil
}

// unmarshaler is implemented by all pointer types of the pb package
type unmarshaler[M any] interface {
	*M
	Unmarshal(b []byte) error
}

// decodePB returns a decode step for the pb message M
func decodePB[M any, PM unmarshaler[M]](payload []byte) (*M, error) {
	m := new(M)
	if err := PM(m).Unmarshal(payload); err != nil {
		return nil, err
	}
	return m, nil
}
