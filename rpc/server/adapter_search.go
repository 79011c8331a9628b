package server

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/pb"
)

const (
	// DefaultSchema is assigned to indexes created without a schema
	DefaultSchema = "_yz_default"
	// defaultRows is the number of documents returned if the query sets no limit
	defaultRows = 10
)

// NewSearchServerAdapter creates the adapter for search and index requests.
// Documents are the JSON objects stored in buckets whose search_index
// property names the queried index.
func NewSearchServerAdapter() IRPCServerAdapter {
	return &searchServerAdapterImpl{}
}

type searchServerAdapterImpl struct{}

func (adapter *searchServerAdapterImpl) Codes() []common.MessageCode {
	return []common.MessageCode{
		common.MsgSearchQueryReq,
		common.MsgYokozunaIndexPutReq,
		common.MsgYokozunaIndexGetReq,
		common.MsgYokozunaIndexDeleteReq,
	}
}

func (adapter *searchServerAdapterImpl) Handle(req common.WireMessage, store *Store, reply Reply) error {
	switch req.Code {
	case common.MsgSearchQueryReq:
		return adapter.search(req.Payload, store, reply)

	case common.MsgYokozunaIndexPutReq:
		var put pb.YokozunaIndexPutReq
		if err := put.Unmarshal(req.Payload); err != nil {
			return replyError(reply, fmt.Sprintf("invalid index put request: %v", err))
		}
		if len(put.Index.Name) == 0 {
			return replyError(reply, "index name is required")
		}
		if len(put.Index.Schema) == 0 {
			put.Index.Schema = []byte(DefaultSchema)
		}
		if put.Index.NVal == nil {
			put.Index.NVal = pb.Uint32(3)
		}
		store.PutIndex(put.Index)
		return replyEmpty(reply, common.MsgPutResp)

	case common.MsgYokozunaIndexGetReq:
		var get pb.YokozunaIndexGetReq
		if err := get.Unmarshal(req.Payload); err != nil {
			return replyError(reply, fmt.Sprintf("invalid index get request: %v", err))
		}
		if get.Name == nil {
			return replyMessage(reply, common.MsgYokozunaIndexGetResp, &pb.YokozunaIndexGetResp{Index: store.Indexes()})
		}
		index, ok := store.Index(string(get.Name))
		if !ok {
			return replyError(reply, errNotFound.Error())
		}
		return replyMessage(reply, common.MsgYokozunaIndexGetResp, &pb.YokozunaIndexGetResp{Index: []pb.YokozunaIndex{index}})

	case common.MsgYokozunaIndexDeleteReq:
		var del pb.YokozunaIndexDeleteReq
		if err := del.Unmarshal(req.Payload); err != nil {
			return replyError(reply, fmt.Sprintf("invalid index delete request: %v", err))
		}
		if !store.DeleteIndex(string(del.Name)) {
			return replyError(reply, errNotFound.Error())
		}
		return replyEmpty(reply, common.MsgDelResp)

	default:
		return replyError(reply, fmt.Sprintf("search adapter: unsupported message code %s", req.Code))
	}
}

// search evaluates a query of the form "field:value" (a trailing * matches any
// suffix, "*:*" matches every document) against the documents of the index
func (adapter *searchServerAdapterImpl) search(payload []byte, store *Store, reply Reply) error {
	var req pb.SearchQueryReq
	if err := req.Unmarshal(payload); err != nil {
		return replyError(reply, fmt.Sprintf("invalid search request: %v", err))
	}
	index := string(req.Index)
	if _, ok := store.Index(index); !ok {
		return replyError(reply, fmt.Sprintf("no index %s found", index))
	}

	q, err := parseTerm(string(req.Q), string(req.Df))
	if err != nil {
		return replyError(reply, err.Error())
	}
	var filter *term
	if len(req.Filter) > 0 {
		if filter, err = parseTerm(string(req.Filter), string(req.Df)); err != nil {
			return replyError(reply, err.Error())
		}
	}

	var matches []document
	for _, obj := range store.indexed(index) {
		doc := newDocument(obj)
		if q.matches(doc) && (filter == nil || filter.matches(doc)) {
			matches = append(matches, doc)
		}
	}

	if len(req.Sort) > 0 {
		sortDocuments(matches, string(req.Sort))
	}

	// Paginate
	start := 0
	if req.Start != nil {
		start = min(int(*req.Start), len(matches))
	}
	rows := defaultRows
	if req.Rows != nil {
		rows = int(*req.Rows)
	}
	end := min(start+rows, len(matches))

	resp := &pb.SearchQueryResp{NumFound: pb.Uint32(uint32(len(matches)))}
	if len(matches) > 0 {
		resp.MaxScore = pb.Float32(1)
	}
	for _, doc := range matches[start:end] {
		resp.Docs = append(resp.Docs, doc.toPB(req.Fl))
	}
	return replyMessage(reply, common.MsgSearchQueryResp, resp)
}

// --------------------------------------------------------------------------
// Documents
// --------------------------------------------------------------------------

// document maps field names to their values
type document map[string][]string

// newDocument creates the document of an object. Besides the fields of a JSON
// value it carries the _yz_* fields naming the object.
func newDocument(obj indexedObject) document {
	doc := document{
		"_yz_rt": {obj.bucketType},
		"_yz_rb": {obj.bucket},
		"_yz_rk": {obj.key},
		"_yz_id": {obj.bucketType + "/" + obj.bucket + "/" + obj.key},
		"score":  {"1.0"},
	}

	var fields map[string]any
	if err := json.Unmarshal(obj.object.Content.Value, &fields); err != nil {
		return doc
	}
	for name, value := range fields {
		switch v := value.(type) {
		case []any:
			for _, item := range v {
				doc[name] = append(doc[name], fmt.Sprint(item))
			}
		case map[string]any, nil:
			// Nested objects are not indexed
		default:
			doc[name] = []string{fmt.Sprint(v)}
		}
	}
	return doc
}

// toPB converts the document, restricted to fields if not empty
func (d document) toPB(fields [][]byte) pb.SearchDoc {
	names := make([]string, 0, len(d))
	if len(fields) == 0 {
		for name := range d {
			names = append(names, name)
		}
	} else {
		for _, f := range fields {
			names = append(names, string(f))
		}
	}
	sort.Strings(names)

	var doc pb.SearchDoc
	for _, name := range names {
		for _, value := range d[name] {
			doc.Fields = append(doc.Fields, pb.Pair{Key: []byte(name), Value: []byte(value)})
		}
	}
	return doc
}

// sortDocuments sorts by the first value of a field, order is "field [asc|desc]"
func sortDocuments(docs []document, order string) {
	parts := strings.Fields(order)
	if len(parts) == 0 {
		return
	}
	field := parts[0]
	desc := len(parts) > 1 && strings.EqualFold(parts[1], "desc")

	first := func(d document) string {
		if values := d[field]; len(values) > 0 {
			return values[0]
		}
		return ""
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if desc {
			return first(docs[i]) > first(docs[j])
		}
		return first(docs[i]) < first(docs[j])
	})
}

// --------------------------------------------------------------------------
// Query Terms
// --------------------------------------------------------------------------

type term struct {
	field  string
	value  string
	prefix bool
}

// parseTerm parses "field:value", a bare value is matched against defaultField
func parseTerm(q, defaultField string) (*term, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	field, value, found := strings.Cut(q, ":")
	if !found {
		if defaultField == "" {
			return nil, fmt.Errorf("query %q has no field and no default field is set", q)
		}
		field, value = defaultField, q
	}

	t := &term{field: field, value: value}
	if strings.HasSuffix(value, "*") {
		t.prefix = true
		t.value = strings.TrimSuffix(value, "*")
	}
	return t, nil
}

func (t *term) matches(doc document) bool {
	if t.field == "*" {
		return t.prefix && t.value == ""
	}
	for _, v := range doc[t.field] {
		if t.prefix && strings.HasPrefix(v, t.value) || !t.prefix && v == t.value {
			return true
		}
	}
	return false
}
