package pb

import (
	"fmt"
)

// Content is a single sibling of an object
type Content struct {
	Value           []byte
	ContentType     []byte
	Charset         []byte
	ContentEncoding []byte
	Vtag            []byte
	LastMod         *uint32
	LastModUsecs    *uint32
	Usermeta        []Pair
	Indexes         []Pair
	Deleted         *bool
}

func (m *Content) appendTo(b []byte) []byte {
	b = appendBytes(b, 1, m.Value)
	b = appendOptBytes(b, 2, m.ContentType)
	b = appendOptBytes(b, 3, m.Charset)
	b = appendOptBytes(b, 4, m.ContentEncoding)
	b = appendOptBytes(b, 5, m.Vtag)
	b = appendOptUint32(b, 7, m.LastMod)
	b = appendOptUint32(b, 8, m.LastModUsecs)
	for i := range m.Usermeta {
		b = appendMessage(b, 9, &m.Usermeta[i])
	}
	for i := range m.Indexes {
		b = appendMessage(b, 10, &m.Indexes[i])
	}
	return appendOptBool(b, 11, m.Deleted)
}

func (m *Content) Unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Value, err = f.bytes()
		case 2:
			m.ContentType, err = f.bytes()
		case 3:
			m.Charset, err = f.bytes()
		case 4:
			m.ContentEncoding, err = f.bytes()
		case 5:
			m.Vtag, err = f.bytes()
		case 7:
			m.LastMod, err = f.uint32()
		case 8:
			m.LastModUsecs, err = f.uint32()
		case 9, 10:
			var p Pair
			if p, err = unmarshalPair(f); err != nil {
				return err
			}
			if f.num == 9 {
				m.Usermeta = append(m.Usermeta, p)
			} else {
				m.Indexes = append(m.Indexes, p)
			}
		case 11:
			m.Deleted, err = f.bool()
		}
		return err
	})
}

func unmarshalPair(f field) (Pair, error) {
	var p Pair
	raw, err := f.bytes()
	if err != nil {
		return p, err
	}
	if err := p.Unmarshal(raw); err != nil {
		return p, fmt.Errorf("pair: %w", err)
	}
	return p, nil
}

func unmarshalContent(f field) (Content, error) {
	var c Content
	raw, err := f.bytes()
	if err != nil {
		return c, err
	}
	if err := c.Unmarshal(raw); err != nil {
		return c, fmt.Errorf("content: %w", err)
	}
	return c, nil
}

// --------------------------------------------------------------------------
// Fetch
// --------------------------------------------------------------------------

// GetReq is the payload of MsgGetReq
type GetReq struct {
	Bucket        []byte
	Key           []byte
	R             *uint32
	PR            *uint32
	BasicQuorum   *bool
	NotfoundOk    *bool
	IfModified    []byte
	Head          *bool
	DeletedVclock *bool
	Timeout       *uint32
	Type          []byte
}

func (m *GetReq) appendTo(b []byte) []byte {
	b = appendBytes(b, 1, m.Bucket)
	b = appendBytes(b, 2, m.Key)
	b = appendOptUint32(b, 3, m.R)
	b = appendOptUint32(b, 4, m.PR)
	b = appendOptBool(b, 5, m.BasicQuorum)
	b = appendOptBool(b, 6, m.NotfoundOk)
	b = appendOptBytes(b, 7, m.IfModified)
	b = appendOptBool(b, 8, m.Head)
	b = appendOptBool(b, 9, m.DeletedVclock)
	b = appendOptUint32(b, 10, m.Timeout)
	return appendOptBytes(b, 13, m.Type)
}

func (m *GetReq) Marshal() []byte { return m.appendTo(nil) }

func (m *GetReq) Unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Bucket, err = f.bytes()
		case 2:
			m.Key, err = f.bytes()
		case 3:
			m.R, err = f.uint32()
		case 4:
			m.PR, err = f.uint32()
		case 5:
			m.BasicQuorum, err = f.bool()
		case 6:
			m.NotfoundOk, err = f.bool()
		case 7:
			m.IfModified, err = f.bytes()
		case 8:
			m.Head, err = f.bool()
		case 9:
			m.DeletedVclock, err = f.bool()
		case 10:
			m.Timeout, err = f.uint32()
		case 13:
			m.Type, err = f.bytes()
		}
		return err
	})
}

// GetResp is the answer to MsgGetReq. An empty message means not found.
type GetResp struct {
	Content   []Content
	Vclock    []byte
	Unchanged *bool
}

func (m *GetResp) appendTo(b []byte) []byte {
	for i := range m.Content {
		b = appendMessage(b, 1, &m.Content[i])
	}
	b = appendOptBytes(b, 2, m.Vclock)
	return appendOptBool(b, 3, m.Unchanged)
}

func (m *GetResp) Marshal() []byte { return m.appendTo(nil) }

func (m *GetResp) Unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			var c Content
			if c, err = unmarshalContent(f); err == nil {
				m.Content = append(m.Content, c)
			}
		case 2:
			m.Vclock, err = f.bytes()
		case 3:
			m.Unchanged, err = f.bool()
		}
		return err
	})
}

// --------------------------------------------------------------------------
// Store
// --------------------------------------------------------------------------

// PutReq is the payload of MsgPutReq. Key may be nil, the server generates one.
type PutReq struct {
	Bucket        []byte
	Key           []byte
	Vclock        []byte
	Content       Content
	W             *uint32
	DW            *uint32
	ReturnBody    *bool
	PW            *uint32
	IfNotModified *bool
	IfNoneMatch   *bool
	ReturnHead    *bool
	Timeout       *uint32
	Type          []byte
}

func (m *PutReq) appendTo(b []byte) []byte {
	b = appendBytes(b, 1, m.Bucket)
	b = appendOptBytes(b, 2, m.Key)
	b = appendOptBytes(b, 3, m.Vclock)
	b = appendMessage(b, 4, &m.Content)
	b = appendOptUint32(b, 5, m.W)
	b = appendOptUint32(b, 6, m.DW)
	b = appendOptBool(b, 7, m.ReturnBody)
	b = appendOptUint32(b, 8, m.PW)
	b = appendOptBool(b, 9, m.IfNotModified)
	b = appendOptBool(b, 10, m.IfNoneMatch)
	b = appendOptBool(b, 11, m.ReturnHead)
	b = appendOptUint32(b, 12, m.Timeout)
	return appendOptBytes(b, 16, m.Type)
}

func (m *PutReq) Marshal() []byte { return m.appendTo(nil) }

func (m *PutReq) Unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Bucket, err = f.bytes()
		case 2:
			m.Key, err = f.bytes()
		case 3:
			m.Vclock, err = f.bytes()
		case 4:
			m.Content, err = unmarshalContent(f)
		case 5:
			m.W, err = f.uint32()
		case 6:
			m.DW, err = f.uint32()
		case 7:
			m.ReturnBody, err = f.bool()
		case 8:
			m.PW, err = f.uint32()
		case 9:
			m.IfNotModified, err = f.bool()
		case 10:
			m.IfNoneMatch, err = f.bool()
		case 11:
			m.ReturnHead, err = f.bool()
		case 12:
			m.Timeout, err = f.uint32()
		case 16:
			m.Type, err = f.bytes()
		}
		return err
	})
}

// PutResp is the answer to MsgPutReq
type PutResp struct {
	Content []Content
	Vclock  []byte
	Key     []byte
}

func (m *PutResp) appendTo(b []byte) []byte {
	for i := range m.Content {
		b = appendMessage(b, 1, &m.Content[i])
	}
	b = appendOptBytes(b, 2, m.Vclock)
	return appendOptBytes(b, 3, m.Key)
}

func (m *PutResp) Marshal() []byte { return m.appendTo(nil) }

func (m *PutResp) Unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			var c Content
			if c, err = unmarshalContent(f); err == nil {
				m.Content = append(m.Content, c)
			}
		case 2:
			m.Vclock, err = f.bytes()
		case 3:
			m.Key, err = f.bytes()
		}
		return err
	})
}

// --------------------------------------------------------------------------
// Delete
// --------------------------------------------------------------------------

// DelReq is the payload of MsgDelReq
type DelReq struct {
	Bucket  []byte
	Key     []byte
	RW      *uint32
	Vclock  []byte
	R       *uint32
	W       *uint32
	PR      *uint32
	PW      *uint32
	DW      *uint32
	Timeout *uint32
	Type    []byte
}

func (m *DelReq) appendTo(b []byte) []byte {
	b = appendBytes(b, 1, m.Bucket)
	b = appendBytes(b, 2, m.Key)
	b = appendOptUint32(b, 3, m.RW)
	b = appendOptBytes(b, 4, m.Vclock)
	b = appendOptUint32(b, 5, m.R)
	b = appendOptUint32(b, 6, m.W)
	b = appendOptUint32(b, 7, m.PR)
	b = appendOptUint32(b, 8, m.PW)
	b = appendOptUint32(b, 9, m.DW)
	b = appendOptUint32(b, 10, m.Timeout)
	return appendOptBytes(b, 13, m.Type)
}

func (m *DelReq) Marshal() []byte { return m.appendTo(nil) }

func (m *DelReq) Unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Bucket, err = f.bytes()
		case 2:
			m.Key, err = f.bytes()
		case 3:
			m.RW, err = f.uint32()
		case 4:
			m.Vclock, err = f.bytes()
		case 5:
			m.R, err = f.uint32()
		case 6:
			m.W, err = f.uint32()
		case 7:
			m.PR, err = f.uint32()
		case 8:
			m.PW, err = f.uint32()
		case 9:
			m.DW, err = f.uint32()
		case 10:
			m.Timeout, err = f.uint32()
		case 13:
			m.Type, err = f.bytes()
		}
		return err
	})
}

// --------------------------------------------------------------------------
// List keys
// --------------------------------------------------------------------------

// ListKeysReq is the payload of MsgListKeysReq
type ListKeysReq struct {
	Bucket  []byte
	Timeout *uint32
	Type    []byte
}

func (m *ListKeysReq) appendTo(b []byte) []byte {
	b = appendBytes(b, 1, m.Bucket)
	b = appendOptUint32(b, 2, m.Timeout)
	return appendOptBytes(b, 3, m.Type)
}

func (m *ListKeysReq) Marshal() []byte { return m.appendTo(nil) }

func (m *ListKeysReq) Unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Bucket, err = f.bytes()
		case 2:
			m.Timeout, err = f.uint32()
		case 3:
			m.Type, err = f.bytes()
		}
		return err
	})
}

// ListKeysResp is one message of the list keys stream. The last message has
// Done set.
type ListKeysResp struct {
	Keys [][]byte
	Done *bool
}

func (m *ListKeysResp) appendTo(b []byte) []byte {
	for _, k := range m.Keys {
		b = appendBytes(b, 1, k)
	}
	return appendOptBool(b, 2, m.Done)
}

func (m *ListKeysResp) Marshal() []byte { return m.appendTo(nil) }

func (m *ListKeysResp) Unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			var k []byte
			if k, err = f.bytes(); err == nil {
				m.Keys = append(m.Keys, k)
			}
		case 2:
			m.Done, err = f.bool()
		}
		return err
	})
}
