package pb

import (
	"fmt"
)

// --------------------------------------------------------------------------
// General messages
// --------------------------------------------------------------------------

// ErrorResp is the payload of every MsgErrorResp frame
type ErrorResp struct {
	Errmsg  []byte
	Errcode uint32
}

func (m *ErrorResp) appendTo(b []byte) []byte {
	b = appendBytes(b, 1, m.Errmsg)
	v := m.Errcode
	return appendOptUint32(b, 2, &v)
}

func (m *ErrorResp) Marshal() []byte { return m.appendTo(nil) }

func (m *ErrorResp) Unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Errmsg, err = f.bytes()
		case 2:
			var v *uint32
			if v, err = f.uint32(); err == nil {
				m.Errcode = *v
			}
		}
		return err
	})
}

// Pair is a generic key value pair (usermeta, indexes, search fields)
type Pair struct {
	Key   []byte
	Value []byte
}

func (m *Pair) appendTo(b []byte) []byte {
	b = appendBytes(b, 1, m.Key)
	return appendOptBytes(b, 2, m.Value)
}

func (m *Pair) Unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Key, err = f.bytes()
		case 2:
			m.Value, err = f.bytes()
		}
		return err
	})
}

// GetServerInfoResp is the answer to MsgGetServerInfoReq
type GetServerInfoResp struct {
	Node          []byte
	ServerVersion []byte
}

func (m *GetServerInfoResp) appendTo(b []byte) []byte {
	b = appendOptBytes(b, 1, m.Node)
	return appendOptBytes(b, 2, m.ServerVersion)
}

func (m *GetServerInfoResp) Marshal() []byte { return m.appendTo(nil) }

func (m *GetServerInfoResp) Unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Node, err = f.bytes()
		case 2:
			m.ServerVersion, err = f.bytes()
		}
		return err
	})
}

// --------------------------------------------------------------------------
// Bucket properties
// --------------------------------------------------------------------------

// ModFun names an erlang function by module and function name
type ModFun struct {
	Module   []byte
	Function []byte
}

func (m *ModFun) appendTo(b []byte) []byte {
	b = appendBytes(b, 1, m.Module)
	return appendBytes(b, 2, m.Function)
}

func (m *ModFun) Unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Module, err = f.bytes()
		case 2:
			m.Function, err = f.bytes()
		}
		return err
	})
}

// CommitHook is either a ModFun or a named (javascript) function
type CommitHook struct {
	Modfun *ModFun
	Name   []byte
}

func (m *CommitHook) appendTo(b []byte) []byte {
	if m.Modfun != nil {
		b = appendMessage(b, 1, m.Modfun)
	}
	return appendOptBytes(b, 2, m.Name)
}

func (m *CommitHook) Unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			var raw []byte
			if raw, err = f.bytes(); err == nil {
				m.Modfun = &ModFun{}
				err = m.Modfun.Unmarshal(raw)
			}
		case 2:
			m.Name, err = f.bytes()
		}
		return err
	})
}

// BucketProps holds bucket properties. Every field is optional, nil fields are
// not written.
type BucketProps struct {
	NVal          *uint32
	AllowMult     *bool
	LastWriteWins *bool
	Precommit     []CommitHook
	HasPrecommit  *bool
	Postcommit    []CommitHook
	HasPostcommit *bool
	ChashKeyfun   *ModFun
	Linkfun       *ModFun
	OldVclock     *uint32
	YoungVclock   *uint32
	BigVclock     *uint32
	SmallVclock   *uint32
	PR            *uint32
	R             *uint32
	W             *uint32
	PW            *uint32
	DW            *uint32
	RW            *uint32
	BasicQuorum   *bool
	NotfoundOk    *bool
	Backend       []byte
	Search        *bool
	Repl          *uint32
	SearchIndex   []byte
	Datatype      []byte
	Consistent    *bool
}

func (m *BucketProps) appendTo(b []byte) []byte {
	b = appendOptUint32(b, 1, m.NVal)
	b = appendOptBool(b, 2, m.AllowMult)
	b = appendOptBool(b, 3, m.LastWriteWins)
	for i := range m.Precommit {
		b = appendMessage(b, 4, &m.Precommit[i])
	}
	b = appendOptBool(b, 5, m.HasPrecommit)
	for i := range m.Postcommit {
		b = appendMessage(b, 6, &m.Postcommit[i])
	}
	b = appendOptBool(b, 7, m.HasPostcommit)
	if m.ChashKeyfun != nil {
		b = appendMessage(b, 8, m.ChashKeyfun)
	}
	if m.Linkfun != nil {
		b = appendMessage(b, 9, m.Linkfun)
	}
	b = appendOptUint32(b, 10, m.OldVclock)
	b = appendOptUint32(b, 11, m.YoungVclock)
	b = appendOptUint32(b, 12, m.BigVclock)
	b = appendOptUint32(b, 13, m.SmallVclock)
	b = appendOptUint32(b, 14, m.PR)
	b = appendOptUint32(b, 15, m.R)
	b = appendOptUint32(b, 16, m.W)
	b = appendOptUint32(b, 17, m.PW)
	b = appendOptUint32(b, 18, m.DW)
	b = appendOptUint32(b, 19, m.RW)
	b = appendOptBool(b, 20, m.BasicQuorum)
	b = appendOptBool(b, 21, m.NotfoundOk)
	b = appendOptBytes(b, 22, m.Backend)
	b = appendOptBool(b, 23, m.Search)
	b = appendOptUint32(b, 24, m.Repl)
	b = appendOptBytes(b, 25, m.SearchIndex)
	b = appendOptBytes(b, 26, m.Datatype)
	return appendOptBool(b, 27, m.Consistent)
}

func (m *BucketProps) Marshal() []byte { return m.appendTo(nil) }

func (m *BucketProps) Unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.NVal, err = f.uint32()
		case 2:
			m.AllowMult, err = f.bool()
		case 3:
			m.LastWriteWins, err = f.bool()
		case 4, 6:
			var raw []byte
			if raw, err = f.bytes(); err != nil {
				return err
			}
			var hook CommitHook
			if err = hook.Unmarshal(raw); err != nil {
				return fmt.Errorf("commit hook: %w", err)
			}
			if f.num == 4 {
				m.Precommit = append(m.Precommit, hook)
			} else {
				m.Postcommit = append(m.Postcommit, hook)
			}
		case 5:
			m.HasPrecommit, err = f.bool()
		case 7:
			m.HasPostcommit, err = f.bool()
		case 8, 9:
			var raw []byte
			if raw, err = f.bytes(); err != nil {
				return err
			}
			mf := &ModFun{}
			if err = mf.Unmarshal(raw); err != nil {
				return fmt.Errorf("modfun: %w", err)
			}
			if f.num == 8 {
				m.ChashKeyfun = mf
			} else {
				m.Linkfun = mf
			}
		case 10:
			m.OldVclock, err = f.uint32()
		case 11:
			m.YoungVclock, err = f.uint32()
		case 12:
			m.BigVclock, err = f.uint32()
		case 13:
			m.SmallVclock, err = f.uint32()
		case 14:
			m.PR, err = f.uint32()
		case 15:
			m.R, err = f.uint32()
		case 16:
			m.W, err = f.uint32()
		case 17:
			m.PW, err = f.uint32()
		case 18:
			m.DW, err = f.uint32()
		case 19:
			m.RW, err = f.uint32()
		case 20:
			m.BasicQuorum, err = f.bool()
		case 21:
			m.NotfoundOk, err = f.bool()
		case 22:
			m.Backend, err = f.bytes()
		case 23:
			m.Search, err = f.bool()
		case 24:
			m.Repl, err = f.uint32()
		case 25:
			m.SearchIndex, err = f.bytes()
		case 26:
			m.Datatype, err = f.bytes()
		case 27:
			m.Consistent, err = f.bool()
		}
		return err
	})
}

// Merge copies every field that is set in other into m
func (m *BucketProps) Merge(other *BucketProps) {
	if other.NVal != nil {
		m.NVal = other.NVal
	}
	if other.AllowMult != nil {
		m.AllowMult = other.AllowMult
	}
	if other.LastWriteWins != nil {
		m.LastWriteWins = other.LastWriteWins
	}
	if other.HasPrecommit != nil || other.Precommit != nil {
		m.Precommit = other.Precommit
		m.HasPrecommit = other.HasPrecommit
	}
	if other.HasPostcommit != nil || other.Postcommit != nil {
		m.Postcommit = other.Postcommit
		m.HasPostcommit = other.HasPostcommit
	}
	if other.ChashKeyfun != nil {
		m.ChashKeyfun = other.ChashKeyfun
	}
	if other.Linkfun != nil {
		m.Linkfun = other.Linkfun
	}
	if other.OldVclock != nil {
		m.OldVclock = other.OldVclock
	}
	if other.YoungVclock != nil {
		m.YoungVclock = other.YoungVclock
	}
	if other.BigVclock != nil {
		m.BigVclock = other.BigVclock
	}
	if other.SmallVclock != nil {
		m.SmallVclock = other.SmallVclock
	}
	if other.PR != nil {
		m.PR = other.PR
	}
	if other.R != nil {
		m.R = other.R
	}
	if other.W != nil {
		m.W = other.W
	}
	if other.PW != nil {
		m.PW = other.PW
	}
	if other.DW != nil {
		m.DW = other.DW
	}
	if other.RW != nil {
		m.RW = other.RW
	}
	if other.BasicQuorum != nil {
		m.BasicQuorum = other.BasicQuorum
	}
	if other.NotfoundOk != nil {
		m.NotfoundOk = other.NotfoundOk
	}
	if other.Backend != nil {
		m.Backend = other.Backend
	}
	if other.Search != nil {
		m.Search = other.Search
	}
	if other.Repl != nil {
		m.Repl = other.Repl
	}
	if other.SearchIndex != nil {
		m.SearchIndex = other.SearchIndex
	}
	if other.Datatype != nil {
		m.Datatype = other.Datatype
	}
	if other.Consistent != nil {
		m.Consistent = other.Consistent
	}
}

// GetBucketReq is the payload of MsgGetBucketReq and MsgResetBucketReq
type GetBucketReq struct {
	Bucket []byte
	Type   []byte
}

func (m *GetBucketReq) appendTo(b []byte) []byte {
	b = appendBytes(b, 1, m.Bucket)
	return appendOptBytes(b, 2, m.Type)
}

func (m *GetBucketReq) Marshal() []byte { return m.appendTo(nil) }

func (m *GetBucketReq) Unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Bucket, err = f.bytes()
		case 2:
			m.Type, err = f.bytes()
		}
		return err
	})
}

// ResetBucketReq has the same layout as GetBucketReq
type ResetBucketReq = GetBucketReq

// GetBucketResp is the answer to MsgGetBucketReq
type GetBucketResp struct {
	Props BucketProps
}

func (m *GetBucketResp) appendTo(b []byte) []byte {
	return appendMessage(b, 1, &m.Props)
}

func (m *GetBucketResp) Marshal() []byte { return m.appendTo(nil) }

func (m *GetBucketResp) Unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		if f.num != 1 {
			return nil
		}
		raw, err := f.bytes()
		if err != nil {
			return err
		}
		return m.Props.Unmarshal(raw)
	})
}

// SetBucketReq is the payload of MsgSetBucketReq
type SetBucketReq struct {
	Bucket []byte
	Props  BucketProps
	Type   []byte
}

func (m *SetBucketReq) appendTo(b []byte) []byte {
	b = appendBytes(b, 1, m.Bucket)
	b = appendMessage(b, 2, &m.Props)
	return appendOptBytes(b, 3, m.Type)
}

func (m *SetBucketReq) Marshal() []byte { return m.appendTo(nil) }

func (m *SetBucketReq) Unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Bucket, err = f.bytes()
		case 2:
			var raw []byte
			if raw, err = f.bytes(); err == nil {
				err = m.Props.Unmarshal(raw)
			}
		case 3:
			m.Type, err = f.bytes()
		}
		return err
	})
}
