package query

import (
	"fmt"
	"sort"
	"time"

	"github.com/ValentinKolb/rKV/rpc/pb"
)

// --------------------------------------------------------------------------
// Objects
// --------------------------------------------------------------------------

// Namespace identifies a bucket by bucket type and name. An empty bucket type
// means the default type.
type Namespace struct {
	BucketType string
	Bucket     string
}

// NewNamespace returns the namespace of a bucket of the default type
func NewNamespace(bucket string) Namespace {
	return Namespace{Bucket: bucket}
}

// WithType returns a copy of the namespace using the given bucket type
func (n Namespace) WithType(bucketType string) Namespace {
	n.BucketType = bucketType
	return n
}

// Location returns the location of key within the namespace
func (n Namespace) Location(key string) Location {
	return Location{Namespace: n, Key: key}
}

// TypeName returns the bucket type, "default" if none is set
func (n Namespace) TypeName() string {
	if n.BucketType == "" {
		return "default"
	}
	return n.BucketType
}

// String returns "type/bucket"
func (n Namespace) String() string {
	return fmt.Sprintf("%s/%s", n.TypeName(), n.Bucket)
}

// Location identifies an object by namespace and key
type Location struct {
	Namespace
	Key string
}

// String returns "type/bucket/key"
func (l Location) String() string {
	return fmt.Sprintf("%s/%s", l.Namespace, l.Key)
}

// RiakObject is a single value (sibling) stored under a key
type RiakObject struct {
	Value           []byte
	ContentType     string
	Charset         string
	ContentEncoding string
	VTag            string
	LastModified    time.Time
	Deleted         bool
	// UserMeta holds arbitrary user metadata
	UserMeta map[string]string
	// Indexes maps secondary index names (ending in _bin or _int) to their values
	Indexes map[string][]string
}

// NewRiakObject creates an object with the given value and content type
func NewRiakObject(value []byte, contentType string) *RiakObject {
	return &RiakObject{Value: value, ContentType: contentType}
}

// WithUserMeta sets a user metadata entry
func (o *RiakObject) WithUserMeta(key, value string) *RiakObject {
	if o.UserMeta == nil {
		o.UserMeta = make(map[string]string)
	}
	o.UserMeta[key] = value
	return o
}

// WithIndex adds a value to a secondary index
func (o *RiakObject) WithIndex(name, value string) *RiakObject {
	if o.Indexes == nil {
		o.Indexes = make(map[string][]string)
	}
	o.Indexes[name] = append(o.Indexes[name], value)
	return o
}

// ToPB converts the object into its wire representation. Map entries are
// written in sorted order so the encoding is deterministic.
func (o *RiakObject) ToPB() pb.Content {
	c := pb.Content{
		Value: o.Value,
	}
	if c.Value == nil {
		c.Value = []byte{}
	}
	if o.ContentType != "" {
		c.ContentType = []byte(o.ContentType)
	}
	if o.Charset != "" {
		c.Charset = []byte(o.Charset)
	}
	if o.ContentEncoding != "" {
		c.ContentEncoding = []byte(o.ContentEncoding)
	}

	keys := make([]string, 0, len(o.UserMeta))
	for k := range o.UserMeta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.Usermeta = append(c.Usermeta, pb.Pair{Key: []byte(k), Value: []byte(o.UserMeta[k])})
	}

	names := make([]string, 0, len(o.Indexes))
	for name := range o.Indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range o.Indexes[name] {
			c.Indexes = append(c.Indexes, pb.Pair{Key: []byte(name), Value: []byte(v)})
		}
	}
	return c
}

// RiakObjectFromPB converts a decoded content into an object
func RiakObjectFromPB(c *pb.Content) *RiakObject {
	o := &RiakObject{
		Value:           c.Value,
		ContentType:     string(c.ContentType),
		Charset:         string(c.Charset),
		ContentEncoding: string(c.ContentEncoding),
		VTag:            string(c.Vtag),
		Deleted:         c.Deleted != nil && *c.Deleted,
	}
	if c.LastMod != nil {
		var usecs int64
		if c.LastModUsecs != nil {
			usecs = int64(*c.LastModUsecs)
		}
		o.LastModified = time.Unix(int64(*c.LastMod), usecs*int64(time.Microsecond))
	}
	for _, p := range c.Usermeta {
		o.WithUserMeta(string(p.Key), string(p.Value))
	}
	for _, p := range c.Indexes {
		o.WithIndex(string(p.Key), string(p.Value))
	}
	return o
}

// --------------------------------------------------------------------------
// Results
// --------------------------------------------------------------------------

// FetchResult is the result of a fetch. An object with concurrent writes has
// more than one sibling.
type FetchResult struct {
	Location Location
	Objects  []*RiakObject
	VClock   []byte
	NotFound bool
	// Unchanged is set if a conditional fetch found no modification
	Unchanged bool
}

// Object returns the first sibling or nil if not found
func (r *FetchResult) Object() *RiakObject {
	if len(r.Objects) == 0 {
		return nil
	}
	return r.Objects[0]
}

// HasSiblings reports whether the object has concurrent values
func (r *FetchResult) HasSiblings() bool {
	return len(r.Objects) > 1
}

// StoreResult is the result of a store. Objects is only filled if the body
// was requested. GeneratedKey is set if the server created the key.
type StoreResult struct {
	Location     Location
	Objects      []*RiakObject
	VClock       []byte
	GeneratedKey string
}
