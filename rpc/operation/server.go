package operation

import (
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/pb"
)

// --------------------------------------------------------------------------
// Ping
// --------------------------------------------------------------------------

// Ping checks that a node answers
type Ping struct {
	*FutureOperation[struct{}, struct{}]
}

// NewPing creates a new ping operation
func NewPing() *Ping {
	return &Ping{newFutureOperation("ping", common.MsgPingReq,
		func() ([]byte, error) { return nil, nil },
		decodeEmpty,
		convertUnit,
	)}
}

// --------------------------------------------------------------------------
// Server Info
// --------------------------------------------------------------------------

// ServerInfo describes a node
type ServerInfo struct {
	Node          string
	ServerVersion string
}

// FetchServerInfo asks a node for its name and version
type FetchServerInfo struct {
	*FutureOperation[*pb.GetServerInfoResp, ServerInfo]
}

// NewFetchServerInfo creates a new server info operation
func NewFetchServerInfo() *FetchServerInfo {
	return &FetchServerInfo{newFutureOperation("server_info", common.MsgGetServerInfoReq,
		func() ([]byte, error) { return nil, nil },
		decodePB[pb.GetServerInfoResp],
		func(resp []*pb.GetServerInfoResp) (ServerInfo, error) {
			info, err := single(resp)
			if err != nil {
				return ServerInfo{}, err
			}
			return ServerInfo{Node: string(info.Node), ServerVersion: string(info.ServerVersion)}, nil
		},
	)}
}
