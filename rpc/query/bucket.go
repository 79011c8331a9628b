package query

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/rKV/rpc/pb"
)

// --------------------------------------------------------------------------
// Bucket Properties
// --------------------------------------------------------------------------

// BucketProperties is a sparse set of bucket properties. A nil field is not
// set and is neither sent to nor changed on the server. Hook lists are set if
// they are non nil, an empty non nil list removes all hooks.
//
// Properties are usually built with the With* methods:
//
//	props := query.NewBucketProperties().
//		WithNVal(3).
//		WithAllowMulti(true).
//		WithR(query.QuorumMajority)
type BucketProperties struct {
	NVal          *uint32
	AllowMulti    *bool
	LastWriteWins *bool
	Precommit     []Function
	Postcommit    []Function
	ChashKeyFun   *Function
	LinkFun       *Function
	OldVClock     *uint32
	YoungVClock   *uint32
	BigVClock     *uint32
	SmallVClock   *uint32
	PR            *Quorum
	R             *Quorum
	W             *Quorum
	PW            *Quorum
	DW            *Quorum
	RW            *Quorum
	BasicQuorum   *bool
	NotFoundOk    *bool
	Backend       *string
	LegacySearch  *bool
	SearchIndex   *string
}

// NewBucketProperties returns an empty property set
func NewBucketProperties() *BucketProperties {
	return &BucketProperties{}
}

func (p *BucketProperties) WithNVal(n uint32) *BucketProperties {
	p.NVal = &n
	return p
}

func (p *BucketProperties) WithAllowMulti(v bool) *BucketProperties {
	p.AllowMulti = &v
	return p
}

func (p *BucketProperties) WithLastWriteWins(v bool) *BucketProperties {
	p.LastWriteWins = &v
	return p
}

// WithPrecommitHook appends a precommit hook
func (p *BucketProperties) WithPrecommitHook(f Function) *BucketProperties {
	p.Precommit = append(p.Precommit, f)
	return p
}

// WithPostcommitHook appends a postcommit hook
func (p *BucketProperties) WithPostcommitHook(f Function) *BucketProperties {
	p.Postcommit = append(p.Postcommit, f)
	return p
}

// WithoutHooks removes all pre and postcommit hooks
func (p *BucketProperties) WithoutHooks() *BucketProperties {
	p.Precommit = []Function{}
	p.Postcommit = []Function{}
	return p
}

func (p *BucketProperties) WithChashKeyFunction(f Function) *BucketProperties {
	p.ChashKeyFun = &f
	return p
}

func (p *BucketProperties) WithLinkWalkFunction(f Function) *BucketProperties {
	p.LinkFun = &f
	return p
}

func (p *BucketProperties) WithOldVClock(v uint32) *BucketProperties {
	p.OldVClock = &v
	return p
}

func (p *BucketProperties) WithYoungVClock(v uint32) *BucketProperties {
	p.YoungVClock = &v
	return p
}

func (p *BucketProperties) WithBigVClock(v uint32) *BucketProperties {
	p.BigVClock = &v
	return p
}

func (p *BucketProperties) WithSmallVClock(v uint32) *BucketProperties {
	p.SmallVClock = &v
	return p
}

func (p *BucketProperties) WithPR(q Quorum) *BucketProperties {
	p.PR = &q
	return p
}

func (p *BucketProperties) WithR(q Quorum) *BucketProperties {
	p.R = &q
	return p
}

func (p *BucketProperties) WithW(q Quorum) *BucketProperties {
	p.W = &q
	return p
}

func (p *BucketProperties) WithPW(q Quorum) *BucketProperties {
	p.PW = &q
	return p
}

func (p *BucketProperties) WithDW(q Quorum) *BucketProperties {
	p.DW = &q
	return p
}

func (p *BucketProperties) WithRW(q Quorum) *BucketProperties {
	p.RW = &q
	return p
}

func (p *BucketProperties) WithBasicQuorum(v bool) *BucketProperties {
	p.BasicQuorum = &v
	return p
}

func (p *BucketProperties) WithNotFoundOk(v bool) *BucketProperties {
	p.NotFoundOk = &v
	return p
}

func (p *BucketProperties) WithBackend(name string) *BucketProperties {
	p.Backend = &name
	return p
}

func (p *BucketProperties) WithLegacySearch(v bool) *BucketProperties {
	p.LegacySearch = &v
	return p
}

func (p *BucketProperties) WithSearchIndex(name string) *BucketProperties {
	p.SearchIndex = &name
	return p
}

// IsEmpty reports whether no property is set
func (p *BucketProperties) IsEmpty() bool {
	props := p.ToPB()
	return len(props.Marshal()) == 0
}

// Validate checks the set properties for values the server would reject
func (p *BucketProperties) Validate() error {
	if p.NVal != nil && *p.NVal == 0 {
		return fmt.Errorf("n_val must be positive")
	}
	if p.SearchIndex != nil && *p.SearchIndex == "" {
		return fmt.Errorf("search index name cannot be empty")
	}
	if p.Backend != nil && *p.Backend == "" {
		return fmt.Errorf("backend name cannot be empty")
	}
	for _, hook := range append(append([]Function{}, p.Precommit...), p.Postcommit...) {
		if err := hook.validate(); err != nil {
			return fmt.Errorf("invalid commit hook: %w", err)
		}
	}
	for _, f := range []*Function{p.ChashKeyFun, p.LinkFun} {
		if f == nil {
			continue
		}
		if f.IsNamed() {
			return fmt.Errorf("%s must be a module and function", f)
		}
		if err := f.validate(); err != nil {
			return err
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Conversion
// --------------------------------------------------------------------------

func quorumPtr(q *Quorum) *uint32 {
	if q == nil {
		return nil
	}
	v := uint32(*q)
	return &v
}

func ptrQuorum(v *uint32) *Quorum {
	if v == nil {
		return nil
	}
	q := Quorum(*v)
	return &q
}

func stringBytes(s *string) []byte {
	if s == nil {
		return nil
	}
	return []byte(*s)
}

func bytesString(b []byte) *string {
	if b == nil {
		return nil
	}
	s := string(b)
	return &s
}

// ToPB converts the set properties into their wire representation
func (p *BucketProperties) ToPB() pb.BucketProps {
	props := pb.BucketProps{
		NVal:          p.NVal,
		AllowMult:     p.AllowMulti,
		LastWriteWins: p.LastWriteWins,
		OldVclock:     p.OldVClock,
		YoungVclock:   p.YoungVClock,
		BigVclock:     p.BigVClock,
		SmallVclock:   p.SmallVClock,
		PR:            quorumPtr(p.PR),
		R:             quorumPtr(p.R),
		W:             quorumPtr(p.W),
		PW:            quorumPtr(p.PW),
		DW:            quorumPtr(p.DW),
		RW:            quorumPtr(p.RW),
		BasicQuorum:   p.BasicQuorum,
		NotfoundOk:    p.NotFoundOk,
		Backend:       stringBytes(p.Backend),
		Search:        p.LegacySearch,
		SearchIndex:   stringBytes(p.SearchIndex),
	}

	if p.Precommit != nil {
		props.HasPrecommit = pb.Bool(true)
		for _, f := range p.Precommit {
			props.Precommit = append(props.Precommit, f.toHook())
		}
	}
	if p.Postcommit != nil {
		props.HasPostcommit = pb.Bool(true)
		for _, f := range p.Postcommit {
			props.Postcommit = append(props.Postcommit, f.toHook())
		}
	}
	if p.ChashKeyFun != nil {
		props.ChashKeyfun = p.ChashKeyFun.toModFun()
	}
	if p.LinkFun != nil {
		props.Linkfun = p.LinkFun.toModFun()
	}
	return props
}

// BucketPropertiesFromPB converts the wire representation, keeping presence
func BucketPropertiesFromPB(props *pb.BucketProps) *BucketProperties {
	p := &BucketProperties{
		NVal:          props.NVal,
		AllowMulti:    props.AllowMult,
		LastWriteWins: props.LastWriteWins,
		OldVClock:     props.OldVclock,
		YoungVClock:   props.YoungVclock,
		BigVClock:     props.BigVclock,
		SmallVClock:   props.SmallVclock,
		PR:            ptrQuorum(props.PR),
		R:             ptrQuorum(props.R),
		W:             ptrQuorum(props.W),
		PW:            ptrQuorum(props.PW),
		DW:            ptrQuorum(props.DW),
		RW:            ptrQuorum(props.RW),
		BasicQuorum:   props.BasicQuorum,
		NotFoundOk:    props.NotfoundOk,
		Backend:       bytesString(props.Backend),
		LegacySearch:  props.Search,
		SearchIndex:   bytesString(props.SearchIndex),
	}

	if (props.HasPrecommit != nil && *props.HasPrecommit) || props.Precommit != nil {
		p.Precommit = make([]Function, 0, len(props.Precommit))
		for _, h := range props.Precommit {
			p.Precommit = append(p.Precommit, functionFromHook(h))
		}
	}
	if (props.HasPostcommit != nil && *props.HasPostcommit) || props.Postcommit != nil {
		p.Postcommit = make([]Function, 0, len(props.Postcommit))
		for _, h := range props.Postcommit {
			p.Postcommit = append(p.Postcommit, functionFromHook(h))
		}
	}
	if props.ChashKeyfun != nil {
		f := functionFromModFun(props.ChashKeyfun)
		p.ChashKeyFun = &f
	}
	if props.Linkfun != nil {
		f := functionFromModFun(props.Linkfun)
		p.LinkFun = &f
	}
	return p
}

// String returns a formatted table of all set properties
func (p *BucketProperties) String() string {
	var sb strings.Builder

	addField := func(name string, value any) {
		sb.WriteString(fmt.Sprintf("  %-16s: %v\n", name, value))
	}
	hooks := func(fs []Function) string {
		names := make([]string, len(fs))
		for i, f := range fs {
			names[i] = f.String()
		}
		return "[" + strings.Join(names, ", ") + "]"
	}

	if p.NVal != nil {
		addField("n_val", *p.NVal)
	}
	if p.AllowMulti != nil {
		addField("allow_mult", *p.AllowMulti)
	}
	if p.LastWriteWins != nil {
		addField("last_write_wins", *p.LastWriteWins)
	}
	if p.Precommit != nil {
		addField("precommit", hooks(p.Precommit))
	}
	if p.Postcommit != nil {
		addField("postcommit", hooks(p.Postcommit))
	}
	if p.ChashKeyFun != nil {
		addField("chash_keyfun", p.ChashKeyFun)
	}
	if p.LinkFun != nil {
		addField("linkfun", p.LinkFun)
	}
	if p.OldVClock != nil {
		addField("old_vclock", *p.OldVClock)
	}
	if p.YoungVClock != nil {
		addField("young_vclock", *p.YoungVClock)
	}
	if p.BigVClock != nil {
		addField("big_vclock", *p.BigVClock)
	}
	if p.SmallVClock != nil {
		addField("small_vclock", *p.SmallVClock)
	}
	for _, q := range []struct {
		name string
		v    *Quorum
	}{{"pr", p.PR}, {"r", p.R}, {"w", p.W}, {"pw", p.PW}, {"dw", p.DW}, {"rw", p.RW}} {
		if q.v != nil {
			addField(q.name, *q.v)
		}
	}
	if p.BasicQuorum != nil {
		addField("basic_quorum", *p.BasicQuorum)
	}
	if p.NotFoundOk != nil {
		addField("notfound_ok", *p.NotFoundOk)
	}
	if p.Backend != nil {
		addField("backend", *p.Backend)
	}
	if p.LegacySearch != nil {
		addField("search", *p.LegacySearch)
	}
	if p.SearchIndex != nil {
		addField("search_index", *p.SearchIndex)
	}
	return sb.String()
}
