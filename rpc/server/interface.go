package server

import (
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/pb"
)

// Reply sends one response frame on the connection of the request
type Reply func(resp common.WireMessage) error

// IRPCServerAdapter handles a group of request codes
type IRPCServerAdapter interface {
	// Codes returns the request codes handled by the adapter
	Codes() []common.MessageCode

	// Handle answers one request. Failures of the request itself are sent as
	// error responses. A returned error closes the connection.
	Handle(req common.WireMessage, store *Store, reply Reply) error
}

// marshaler is implemented by every pb message
type marshaler interface {
	Marshal() []byte
}

// replyMessage sends m with the given code
func replyMessage(reply Reply, code common.MessageCode, m marshaler) error {
	return reply(common.NewWireMessage(code, m.Marshal()))
}

// replyEmpty sends a response without payload
func replyEmpty(reply Reply, code common.MessageCode) error {
	return reply(common.NewWireMessage(code, nil))
}

// replyError sends an error response
func replyError(reply Reply, msg string) error {
	return replyMessage(reply, common.MsgErrorResp, &pb.ErrorResp{Errmsg: []byte(msg), Errcode: 1})
}
