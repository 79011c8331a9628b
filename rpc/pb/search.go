package pb

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Search query
// --------------------------------------------------------------------------

// SearchQueryReq is the payload of MsgSearchQueryReq
type SearchQueryReq struct {
	Q       []byte
	Index   []byte
	Rows    *uint32
	Start   *uint32
	Sort    []byte
	Filter  []byte
	Df      []byte
	Op      []byte
	Fl      [][]byte
	Presort []byte
}

func (m *SearchQueryReq) appendTo(b []byte) []byte {
	b = appendBytes(b, 1, m.Q)
	b = appendBytes(b, 2, m.Index)
	b = appendOptUint32(b, 3, m.Rows)
	b = appendOptUint32(b, 4, m.Start)
	b = appendOptBytes(b, 5, m.Sort)
	b = appendOptBytes(b, 6, m.Filter)
	b = appendOptBytes(b, 7, m.Df)
	b = appendOptBytes(b, 8, m.Op)
	for _, fl := range m.Fl {
		b = appendBytes(b, 9, fl)
	}
	return appendOptBytes(b, 10, m.Presort)
}

func (m *SearchQueryReq) Marshal() []byte { return m.appendTo(nil) }

func (m *SearchQueryReq) Unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Q, err = f.bytes()
		case 2:
			m.Index, err = f.bytes()
		case 3:
			m.Rows, err = f.uint32()
		case 4:
			m.Start, err = f.uint32()
		case 5:
			m.Sort, err = f.bytes()
		case 6:
			m.Filter, err = f.bytes()
		case 7:
			m.Df, err = f.bytes()
		case 8:
			m.Op, err = f.bytes()
		case 9:
			var fl []byte
			if fl, err = f.bytes(); err == nil {
				m.Fl = append(m.Fl, fl)
			}
		case 10:
			m.Presort, err = f.bytes()
		}
		return err
	})
}

// SearchDoc is one matching document, a flat list of fields
type SearchDoc struct {
	Fields []Pair
}

func (m *SearchDoc) appendTo(b []byte) []byte {
	for i := range m.Fields {
		b = appendMessage(b, 1, &m.Fields[i])
	}
	return b
}

func (m *SearchDoc) Unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		if f.num != 1 {
			return nil
		}
		p, err := unmarshalPair(f)
		if err != nil {
			return err
		}
		m.Fields = append(m.Fields, p)
		return nil
	})
}

// SearchQueryResp is the answer to MsgSearchQueryReq
type SearchQueryResp struct {
	Docs     []SearchDoc
	MaxScore *float32
	NumFound *uint32
}

func (m *SearchQueryResp) appendTo(b []byte) []byte {
	for i := range m.Docs {
		b = appendMessage(b, 1, &m.Docs[i])
	}
	b = appendOptFloat(b, 2, m.MaxScore)
	return appendOptUint32(b, 3, m.NumFound)
}

func (m *SearchQueryResp) Marshal() []byte { return m.appendTo(nil) }

func (m *SearchQueryResp) Unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			var raw []byte
			if raw, err = f.bytes(); err != nil {
				return err
			}
			var doc SearchDoc
			if err = doc.Unmarshal(raw); err != nil {
				return fmt.Errorf("search doc: %w", err)
			}
			m.Docs = append(m.Docs, doc)
		case 2:
			m.MaxScore, err = f.float()
		case 3:
			m.NumFound, err = f.uint32()
		}
		return err
	})
}

// --------------------------------------------------------------------------
// Search index administration
// --------------------------------------------------------------------------

// YokozunaIndex describes a search index
type YokozunaIndex struct {
	Name   []byte
	Schema []byte
	NVal   *uint32
}

func (m *YokozunaIndex) appendTo(b []byte) []byte {
	b = appendBytes(b, 1, m.Name)
	b = appendOptBytes(b, 2, m.Schema)
	return appendOptUint32(b, 3, m.NVal)
}

func (m *YokozunaIndex) Unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Name, err = f.bytes()
		case 2:
			m.Schema, err = f.bytes()
		case 3:
			m.NVal, err = f.uint32()
		}
		return err
	})
}

// YokozunaIndexPutReq is the payload of MsgYokozunaIndexPutReq
type YokozunaIndexPutReq struct {
	Index   YokozunaIndex
	Timeout *uint32
}

func (m *YokozunaIndexPutReq) appendTo(b []byte) []byte {
	b = appendMessage(b, 1, &m.Index)
	return appendOptUint32(b, 2, m.Timeout)
}

func (m *YokozunaIndexPutReq) Marshal() []byte { return m.appendTo(nil) }

func (m *YokozunaIndexPutReq) Unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			var raw []byte
			if raw, err = f.bytes(); err == nil {
				err = m.Index.Unmarshal(raw)
			}
		case 2:
			m.Timeout, err = f.uint32()
		}
		return err
	})
}

// YokozunaIndexGetReq is the payload of MsgYokozunaIndexGetReq and
// MsgYokozunaIndexDeleteReq. A nil name on a get lists all indexes.
type YokozunaIndexGetReq struct {
	Name []byte
}

func (m *YokozunaIndexGetReq) appendTo(b []byte) []byte {
	return appendOptBytes(b, 1, m.Name)
}

func (m *YokozunaIndexGetReq) Marshal() []byte { return m.appendTo(nil) }

func (m *YokozunaIndexGetReq) Unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		if f.num == 1 {
			m.Name, err = f.bytes()
		}
		return err
	})
}

// YokozunaIndexDeleteReq has the same layout as YokozunaIndexGetReq
type YokozunaIndexDeleteReq = YokozunaIndexGetReq

// YokozunaIndexGetResp is the answer to MsgYokozunaIndexGetReq
type YokozunaIndexGetResp struct {
	Index []YokozunaIndex
}

func (m *YokozunaIndexGetResp) appendTo(b []byte) []byte {
	for i := range m.Index {
		b = appendMessage(b, 1, &m.Index[i])
	}
	return b
}

func (m *YokozunaIndexGetResp) Marshal() []byte { return m.appendTo(nil) }

func (m *YokozunaIndexGetResp) Unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		if f.num != 1 {
			return nil
		}
		raw, err := f.bytes()
		if err != nil {
			return err
		}
		var idx YokozunaIndex
		if err := idx.Unmarshal(raw); err != nil {
			return fmt.Errorf("index: %w", err)
		}
		m.Index = append(m.Index, idx)
		return nil
	})
}
