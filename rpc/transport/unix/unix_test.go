package unix

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValentinKolb/rKV/rpc/common"
)

func startEchoServer(t *testing.T) string {
	t.Helper()

	socket := filepath.Join(t.TempDir(), "rkv.sock")
	server := NewUnixServerTransport()
	server.RegisterHandler(func(req common.WireMessage, reply func(common.WireMessage) error) error {
		switch req.Code {
		case common.MsgPingReq:
			return reply(common.NewWireMessage(common.MsgPingResp, nil))
		case common.MsgListKeysReq:
			// Stream the payload back one byte per frame
			for _, b := range req.Payload {
				if err := reply(common.NewWireMessage(common.MsgListKeysResp, []byte{b})); err != nil {
					return err
				}
			}
			return nil
		default:
			return errors.New("unsupported")
		}
	})

	if _, err := server.Start(common.ServerConfig{
		TimeoutSecond: 5,
		Transport:     common.ServerTransportConfig{Endpoint: socket},
	}); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	t.Cleanup(func() { server.Close() })

	return socket
}

func testClientConfig(endpoint string) common.ClientConfig {
	return common.ClientConfig{
		TimeoutSecond: 5,
		Transport:     common.ClientTransportConfig{Endpoints: []string{endpoint}},
	}
}

func TestUnixTransportExchange(t *testing.T) {
	socket := startEchoServer(t)
	config := testClientConfig(socket)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := NewUnixClientTransport(config).Dial(ctx, socket)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	if conn.Endpoint() != socket {
		t.Errorf("Endpoint() = %q, want %q", conn.Endpoint(), socket)
	}

	t.Run("single response", func(t *testing.T) {
		if err := conn.Send(common.NewWireMessage(common.MsgPingReq, nil)); err != nil {
			t.Fatalf("Send failed: %v", err)
		}
		resp, err := conn.Receive()
		if err != nil {
			t.Fatalf("Receive failed: %v", err)
		}
		if resp.Code != common.MsgPingResp {
			t.Errorf("code = %s, want PingResp", resp.Code)
		}
	})

	t.Run("streamed responses in order", func(t *testing.T) {
		payload := []byte{1, 2, 3, 4}
		if err := conn.Send(common.NewWireMessage(common.MsgListKeysReq, payload)); err != nil {
			t.Fatalf("Send failed: %v", err)
		}
		for i, want := range payload {
			resp, err := conn.Receive()
			if err != nil {
				t.Fatalf("Receive %d failed: %v", i, err)
			}
			if len(resp.Payload) != 1 || resp.Payload[0] != want {
				t.Errorf("response %d = %v, want [%d]", i, resp.Payload, want)
			}
		}
	})
}

func TestUnixTransportServerClosesConnection(t *testing.T) {
	socket := startEchoServer(t)

	conn, err := NewUnixClientTransport(testClientConfig(socket)).Dial(context.Background(), socket)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	// The handler returns an error for this code which closes the connection
	if err := conn.Send(common.NewWireMessage(common.MsgMapRedReq, nil)); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	_, err = conn.Receive()
	if !errors.Is(err, common.ErrIOFault) {
		t.Errorf("expected an IOFault, got %v", err)
	}
}

func TestUnixTransportOversizedRequest(t *testing.T) {
	socket := startEchoServer(t)
	config := testClientConfig(socket)
	config.Transport.MaxFrameSize = 8

	conn, err := NewUnixClientTransport(config).Dial(context.Background(), socket)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	err = conn.Send(common.NewWireMessage(common.MsgPutReq, make([]byte, 64)))
	if !errors.Is(err, common.ErrMalformedRequest) {
		t.Errorf("expected MalformedRequest, got %v", err)
	}
}

func TestUnixTransportDialFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.sock")
	_, err := NewUnixClientTransport(testClientConfig(missing)).Dial(context.Background(), missing)
	if err == nil {
		t.Errorf("expected dial to a missing socket to fail")
	}
}
