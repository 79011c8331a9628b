package operation

import (
	"strings"
	"time"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/pb"
	"github.com/ValentinKolb/rKV/rpc/query"
)

// --------------------------------------------------------------------------
// Search
// --------------------------------------------------------------------------

// SearchOptions are the optional parameters of a search query
type SearchOptions struct {
	Rows         uint32
	Start        uint32
	Sort         string
	Filter       string
	DefaultField string
	// DefaultOp is the operator used between terms ("and" or "or")
	DefaultOp    string
	ReturnFields []string
	Presort      string
}

// Search runs a query against a search index
type Search struct {
	*FutureOperation[*pb.SearchQueryResp, *query.SearchResult]
	Index string
	Query string
}

// NewSearch creates a new search operation
func NewSearch(index, q string, opts SearchOptions) (*Search, error) {
	if index == "" {
		return nil, common.NewError(common.KindInvalidArgument, "index name cannot be empty")
	}
	if strings.TrimSpace(q) == "" {
		return nil, common.NewError(common.KindInvalidArgument, "query cannot be empty")
	}
	if op := strings.ToLower(opts.DefaultOp); op != "" && op != "and" && op != "or" {
		return nil, common.NewError(common.KindInvalidArgument, "unknown default operator %q", opts.DefaultOp)
	}

	req := &pb.SearchQueryReq{
		Q:       []byte(q),
		Index:   []byte(index),
		Sort:    optBytes(opts.Sort),
		Filter:  optBytes(opts.Filter),
		Df:      optBytes(opts.DefaultField),
		Op:      optBytes(strings.ToLower(opts.DefaultOp)),
		Presort: optBytes(opts.Presort),
	}
	if opts.Rows > 0 {
		req.Rows = pb.Uint32(opts.Rows)
	}
	if opts.Start > 0 {
		req.Start = pb.Uint32(opts.Start)
	}
	for _, fl := range opts.ReturnFields {
		req.Fl = append(req.Fl, []byte(fl))
	}

	return &Search{
		FutureOperation: newFutureOperation("search", common.MsgSearchQueryReq,
			func() ([]byte, error) { return req.Marshal(), nil },
			decodePB[pb.SearchQueryResp],
			func(resp []*pb.SearchQueryResp) (*query.SearchResult, error) {
				r, err := single(resp)
				if err != nil {
					return nil, err
				}
				return query.SearchResultFromPB(r), nil
			},
		),
		Index: index,
		Query: q,
	}, nil
}

// --------------------------------------------------------------------------
// Search Index Administration
// --------------------------------------------------------------------------

// StoreIndex creates or updates a search index
type StoreIndex struct {
	*FutureOperation[struct{}, struct{}]
	Index query.YokozunaIndex
}

// NewStoreIndex creates a new store index operation
func NewStoreIndex(index query.YokozunaIndex, timeout time.Duration) (*StoreIndex, error) {
	if index.Name == "" {
		return nil, common.NewError(common.KindInvalidArgument, "index name cannot be empty")
	}

	req := &pb.YokozunaIndexPutReq{Index: index.ToPB(), Timeout: timeoutMs(timeout)}

	return &StoreIndex{
		FutureOperation: newFutureOperation("store_index", common.MsgYokozunaIndexPutReq,
			func() ([]byte, error) { return req.Marshal(), nil },
			decodeEmpty,
			convertUnit,
		),
		Index: index,
	}, nil
}

// FetchIndex reads one search index, or all of them if no name is given
type FetchIndex struct {
	*FutureOperation[*pb.YokozunaIndexGetResp, []query.YokozunaIndex]
	Name string
}

// NewFetchIndex creates a new fetch index operation
func NewFetchIndex(name string) *FetchIndex {
	req := &pb.YokozunaIndexGetReq{Name: optBytes(name)}

	return &FetchIndex{
		FutureOperation: newFutureOperation("fetch_index", common.MsgYokozunaIndexGetReq,
			func() ([]byte, error) { return req.Marshal(), nil },
			decodePB[pb.YokozunaIndexGetResp],
			func(resp []*pb.YokozunaIndexGetResp) ([]query.YokozunaIndex, error) {
				r, err := single(resp)
				if err != nil {
					return nil, err
				}
				indexes := make([]query.YokozunaIndex, 0, len(r.Index))
				for i := range r.Index {
					indexes = append(indexes, query.YokozunaIndexFromPB(&r.Index[i]))
				}
				return indexes, nil
			},
		),
		Name: name,
	}
}

// DeleteIndex removes a search index
type DeleteIndex struct {
	*FutureOperation[struct{}, struct{}]
	Name string
}

// NewDeleteIndex creates a new delete index operation
func NewDeleteIndex(name string) (*DeleteIndex, error) {
	if name == "" {
		return nil, common.NewError(common.KindInvalidArgument, "index name cannot be empty")
	}

	req := &pb.YokozunaIndexDeleteReq{Name: []byte(name)}

	return &DeleteIndex{
		FutureOperation: newFutureOperation("delete_index", common.MsgYokozunaIndexDeleteReq,
			func() ([]byte, error) { return req.Marshal(), nil },
			decodeEmpty,
			convertUnit,
		),
		Name: name,
	}, nil
}
