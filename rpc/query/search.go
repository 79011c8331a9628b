package query

import (
	"github.com/ValentinKolb/rKV/rpc/pb"
)

// SearchDocument is a single search hit. Fields can be multi valued.
type SearchDocument map[string][]string

// First returns the first value of a field
func (d SearchDocument) First(field string) string {
	if vs := d[field]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// SearchResult is the result of a search query
type SearchResult struct {
	Documents []SearchDocument
	MaxScore  float32
	NumFound  uint32
}

// SearchResultFromPB converts the wire representation
func SearchResultFromPB(resp *pb.SearchQueryResp) *SearchResult {
	result := &SearchResult{
		Documents: make([]SearchDocument, 0, len(resp.Docs)),
	}
	if resp.MaxScore != nil {
		result.MaxScore = *resp.MaxScore
	}
	if resp.NumFound != nil {
		result.NumFound = *resp.NumFound
	}
	for _, doc := range resp.Docs {
		d := make(SearchDocument, len(doc.Fields))
		for _, f := range doc.Fields {
			d[string(f.Key)] = append(d[string(f.Key)], string(f.Value))
		}
		result.Documents = append(result.Documents, d)
	}
	return result
}

// YokozunaIndex describes a search index. An empty schema means the default
// schema, a zero NVal the server default.
type YokozunaIndex struct {
	Name   string
	Schema string
	NVal   uint32
}

// ToPB converts the index into its wire representation
func (i YokozunaIndex) ToPB() pb.YokozunaIndex {
	idx := pb.YokozunaIndex{Name: []byte(i.Name)}
	if i.Schema != "" {
		idx.Schema = []byte(i.Schema)
	}
	if i.NVal > 0 {
		idx.NVal = pb.Uint32(i.NVal)
	}
	return idx
}

// YokozunaIndexFromPB converts the wire representation
func YokozunaIndexFromPB(idx *pb.YokozunaIndex) YokozunaIndex {
	i := YokozunaIndex{Name: string(idx.Name), Schema: string(idx.Schema)}
	if idx.NVal != nil {
		i.NVal = *idx.NVal
	}
	return i
}
