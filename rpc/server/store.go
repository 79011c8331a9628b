package server

import (
	"errors"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/rKV/rpc/pb"
	"github.com/ValentinKolb/rKV/rpc/query"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

// DefaultBucketType is used for requests without a bucket type
const DefaultBucketType = "default"

// Conditional store failures, sent to the client as error responses
var (
	errMatchFound = errors.New("match_found")
	errModified   = errors.New("modified")
	errNotFound   = errors.New("notfound")
)

// --------------------------------------------------------------------------
// Store
// --------------------------------------------------------------------------

// Store is the in-memory data of the development node: the objects and
// properties of every bucket and the search indexes. All methods are safe
// for concurrent use.
type Store struct {
	buckets *xsync.MapOf[string, *bucket]
	indexes *xsync.MapOf[string, pb.YokozunaIndex]
	clock   atomic.Uint64
}

type bucket struct {
	bucketType string
	name       string
	objects    *xsync.MapOf[string, StoredObject]

	mu    sync.RWMutex
	props pb.BucketProps
}

// StoredObject is the single value of a key with its vclock
type StoredObject struct {
	Content pb.Content
	VClock  []byte
}

// PutConditions are the optional preconditions of a write
type PutConditions struct {
	// IfNoneMatch fails the write if the key exists
	IfNoneMatch bool
	// IfNotModified fails the write unless VClock matches the stored vclock
	IfNotModified bool
	VClock        []byte
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		buckets: xsync.NewMapOf[string, *bucket](),
		indexes: xsync.NewMapOf[string, pb.YokozunaIndex](),
	}
}

// --------------------------------------------------------------------------
// Objects
// --------------------------------------------------------------------------

// Get returns the object stored under key
func (s *Store) Get(bucketType, bucketName, key string) (StoredObject, bool) {
	b, ok := s.lookup(bucketType, bucketName)
	if !ok {
		return StoredObject{}, false
	}
	return b.objects.Load(key)
}

// Put stores content under key. An empty key is replaced by a generated one,
// the key used is returned with the stored object.
func (s *Store) Put(bucketType, bucketName, key string, content pb.Content, cond PutConditions) (string, StoredObject, error) {
	if key == "" {
		key = uuid.NewString()
	}

	now := time.Now()
	content.Vtag = []byte(uuid.NewString())
	content.LastMod = pb.Uint32(uint32(now.Unix()))
	content.LastModUsecs = pb.Uint32(uint32(now.Nanosecond() / 1000))
	if content.Value == nil {
		content.Value = []byte{}
	}

	b := s.bucket(bucketType, bucketName)

	var err error
	stored, _ := b.objects.Compute(key, func(old StoredObject, loaded bool) (StoredObject, bool) {
		switch {
		case cond.IfNoneMatch && loaded:
			err = errMatchFound
		case cond.IfNotModified && !loaded:
			err = errNotFound
		case cond.IfNotModified && string(old.VClock) != string(cond.VClock):
			err = errModified
		}
		if err != nil {
			// Keep the current state
			return old, !loaded
		}
		return StoredObject{Content: content, VClock: s.nextVClock()}, false
	})
	if err != nil {
		return key, StoredObject{}, err
	}
	return key, stored, nil
}

// Delete removes key, deleting a missing key is not an error
func (s *Store) Delete(bucketType, bucketName, key string) {
	if b, ok := s.lookup(bucketType, bucketName); ok {
		b.objects.Delete(key)
	}
}

// Keys returns the sorted keys of a bucket
func (s *Store) Keys(bucketType, bucketName string) []string {
	b, ok := s.lookup(bucketType, bucketName)
	if !ok {
		return nil
	}
	keys := make([]string, 0, b.objects.Size())
	b.objects.Range(func(key string, _ StoredObject) bool {
		keys = append(keys, key)
		return true
	})
	sort.Strings(keys)
	return keys
}

// --------------------------------------------------------------------------
// Bucket Properties
// --------------------------------------------------------------------------

// Props returns the properties of a bucket (the defaults if it was never used)
func (s *Store) Props(bucketType, bucketName string) pb.BucketProps {
	b, ok := s.lookup(bucketType, bucketName)
	if !ok {
		return DefaultBucketProps()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.props
}

// SetProps overwrites the properties that are set in props
func (s *Store) SetProps(bucketType, bucketName string, props *pb.BucketProps) {
	b := s.bucket(bucketType, bucketName)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.props.Merge(props)
}

// ResetProps restores the default properties of a bucket
func (s *Store) ResetProps(bucketType, bucketName string) {
	b := s.bucket(bucketType, bucketName)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.props = DefaultBucketProps()
}

// DefaultBucketProps returns the properties of a bucket that was never configured
func DefaultBucketProps() pb.BucketProps {
	defaultQuorum := pb.Uint32(uint32(query.QuorumMajority))
	return pb.BucketProps{
		NVal:          pb.Uint32(3),
		AllowMult:     pb.Bool(false),
		LastWriteWins: pb.Bool(false),
		HasPrecommit:  pb.Bool(false),
		HasPostcommit: pb.Bool(false),
		ChashKeyfun:   &pb.ModFun{Module: []byte("riak_core_util"), Function: []byte("chash_std_keyfun")},
		Linkfun:       &pb.ModFun{Module: []byte("riak_kv_wm_link_walker"), Function: []byte("mapreduce_linkfun")},
		OldVclock:     pb.Uint32(86400),
		YoungVclock:   pb.Uint32(20),
		BigVclock:     pb.Uint32(50),
		SmallVclock:   pb.Uint32(50),
		PR:            pb.Uint32(0),
		R:             defaultQuorum,
		W:             defaultQuorum,
		PW:            pb.Uint32(0),
		DW:            defaultQuorum,
		RW:            defaultQuorum,
		BasicQuorum:   pb.Bool(false),
		NotfoundOk:    pb.Bool(true),
		Search:        pb.Bool(false),
	}
}

// --------------------------------------------------------------------------
// Search Indexes
// --------------------------------------------------------------------------

// PutIndex creates or replaces a search index
func (s *Store) PutIndex(index pb.YokozunaIndex) {
	s.indexes.Store(string(index.Name), index)
}

// Index returns the named search index
func (s *Store) Index(name string) (pb.YokozunaIndex, bool) {
	return s.indexes.Load(name)
}

// Indexes returns all search indexes sorted by name
func (s *Store) Indexes() []pb.YokozunaIndex {
	indexes := make([]pb.YokozunaIndex, 0, s.indexes.Size())
	s.indexes.Range(func(_ string, index pb.YokozunaIndex) bool {
		indexes = append(indexes, index)
		return true
	})
	sort.Slice(indexes, func(i, j int) bool {
		return string(indexes[i].Name) < string(indexes[j].Name)
	})
	return indexes
}

// DeleteIndex removes a search index and reports whether it existed
func (s *Store) DeleteIndex(name string) bool {
	_, ok := s.indexes.LoadAndDelete(name)
	return ok
}

// indexedObject is an object of a bucket associated with a search index
type indexedObject struct {
	bucketType string
	bucket     string
	key        string
	object     StoredObject
}

// indexed returns all objects of the buckets whose search_index property is index
func (s *Store) indexed(index string) []indexedObject {
	var objects []indexedObject
	s.buckets.Range(func(_ string, b *bucket) bool {
		b.mu.RLock()
		searchIndex := string(b.props.SearchIndex)
		b.mu.RUnlock()
		if searchIndex != index {
			return true
		}
		b.objects.Range(func(key string, obj StoredObject) bool {
			objects = append(objects, indexedObject{bucketType: b.bucketType, bucket: b.name, key: key, object: obj})
			return true
		})
		return true
	})
	sort.Slice(objects, func(i, j int) bool {
		if objects[i].bucket != objects[j].bucket {
			return objects[i].bucket < objects[j].bucket
		}
		return objects[i].key < objects[j].key
	})
	return objects
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// bucket returns the bucket, creating it with the default properties if needed
func (s *Store) bucket(bucketType, bucketName string) *bucket {
	b, _ := s.buckets.LoadOrCompute(bucketKey(bucketType, bucketName), func() *bucket {
		return &bucket{
			bucketType: typeOrDefault(bucketType),
			name:       bucketName,
			objects:    xsync.NewMapOf[string, StoredObject](),
			props:      DefaultBucketProps(),
		}
	})
	return b
}

func (s *Store) lookup(bucketType, bucketName string) (*bucket, bool) {
	return s.buckets.Load(bucketKey(bucketType, bucketName))
}

// nextVClock returns a new opaque vclock
func (s *Store) nextVClock() []byte {
	return []byte("vc" + strconv.FormatUint(s.clock.Add(1), 36))
}

func bucketKey(bucketType, bucketName string) string {
	return typeOrDefault(bucketType) + "/" + bucketName
}

func typeOrDefault(bucketType string) string {
	if bucketType == "" {
		return DefaultBucketType
	}
	return bucketType
}
