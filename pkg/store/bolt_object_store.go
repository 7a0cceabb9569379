package store

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/utkarsh5026/sourcevault/pkg/common/logger"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"
)

var objectsBucket = []byte("objects")

// boltRecord is the msgpack value stored under each digest key.
type boltRecord struct {
	// Encoded is the canonical "<kind> <len>\0<payload>" encoding.
	Encoded []byte `msgpack:"e"`

	// Touched is the unix-nano time of the last Put.
	Touched int64 `msgpack:"t"`
}

// BoltObjectStore keeps all objects in one bbolt database file
// (.source/objects.db), keyed by hex digest.
type BoltObjectStore struct {
	db  *bolt.DB
	alg objects.Algorithm
	log *slog.Logger
}

var _ ObjectStore = (*BoltObjectStore)(nil)

// NewBoltObjectStore opens (creating if needed) the repository's object
// database. Compression options are ignored.
func NewBoltObjectStore(repoPath scpath.RepositoryPath, opts ...Option) (*BoltObjectStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(repoPath.SourcePath().String(), 0755); err != nil {
		return nil, newStorageFault("init", "failed to create repository directory", err)
	}

	path := repoPath.SourcePath().ObjectsDBPath().String()
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 10 * time.Second})
	if err != nil {
		return nil, newStorageFault("init", "failed to open object database", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(objectsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, newStorageFault("init", "failed to create objects bucket", err)
	}

	return &BoltObjectStore{
		db:  db,
		alg: o.algorithm,
		log: logger.Component(o.logger, "store").With("backend", "bolt"),
	}, nil
}

// Algorithm returns the digest algorithm
func (s *BoltObjectStore) Algorithm() objects.Algorithm {
	return s.alg
}

// Put implements ObjectStore.
func (s *BoltObjectStore) Put(kind objects.ObjectType, data []byte) (objects.ObjectHash, error) {
	if !kind.IsValid() {
		return "", newInvalidInput("put", fmt.Sprintf("unknown object type %q", kind))
	}

	encoded := objects.Encode(kind, data)
	hash := s.alg.Sum(encoded)
	key := []byte(hash)

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(objectsBucket)
		rec := boltRecord{Encoded: encoded, Touched: time.Now().UnixNano()}

		if existing := b.Get(key); existing != nil {
			// Keep the stored bytes and only refresh the timestamp.
			var old boltRecord
			if err := msgpack.Unmarshal(existing, &old); err == nil {
				rec.Encoded = old.Encoded
			}
		}

		value, err := msgpack.Marshal(&rec)
		if err != nil {
			return err
		}
		return b.Put(key, value)
	})
	if err != nil {
		return "", newStorageFault("put", fmt.Sprintf("failed to write object %s", hash), err)
	}

	s.log.Debug("object written", "hash", hash, "type", kind, "size", len(data))
	return hash, nil
}

// Get implements ObjectStore.
func (s *BoltObjectStore) Get(hash objects.ObjectHash) (objects.ObjectType, []byte, error) {
	hash, err := s.normalize("get", hash)
	if err != nil {
		return "", nil, err
	}

	rec, found, err := s.load(hash)
	if err != nil {
		return "", nil, newIntegrityFault("get", hash, err)
	}
	if !found {
		return "", nil, newNotFound("get", hash)
	}

	return verify(s.alg, "get", hash, rec.Encoded)
}

// Exists implements ObjectStore.
func (s *BoltObjectStore) Exists(hash objects.ObjectHash) bool {
	hash, err := s.normalize("exists", hash)
	if err != nil {
		return false
	}

	found := false
	_ = s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(objectsBucket).Get([]byte(hash)) != nil
		return nil
	})
	return found
}

// TypeOf implements ObjectStore.
func (s *BoltObjectStore) TypeOf(hash objects.ObjectHash) (objects.ObjectType, error) {
	hash, err := s.normalize("type", hash)
	if err != nil {
		return "", err
	}

	rec, found, err := s.load(hash)
	if err != nil {
		return "", newIntegrityFault("type", hash, err)
	}
	if !found {
		return "", newNotFound("type", hash)
	}

	kind, _, _, err := objects.ParseHeader(rec.Encoded)
	if err != nil {
		return "", newIntegrityFault("type", hash, err)
	}
	return kind, nil
}

// FindByPrefix implements ObjectStore.
func (s *BoltObjectStore) FindByPrefix(prefix string) ([]objects.ObjectHash, error) {
	prefix = strings.ToLower(prefix)
	if len(prefix) < objects.MinPrefixLength || len(prefix) > s.alg.HexSize() || !objects.IsHex(prefix) {
		return nil, newInvalidInput("find", fmt.Sprintf("invalid object prefix %q", prefix))
	}

	var matches []objects.ObjectHash
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(objectsBucket).Cursor()
		p := []byte(prefix)
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			matches = append(matches, objects.ObjectHash(k))
		}
		return nil
	})
	if err != nil {
		return nil, newStorageFault("find", "failed to scan objects", err)
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i] < matches[j] })
	return matches, nil
}

// Walk implements ObjectStore. fn runs outside the read transaction so it
// may call Delete.
func (s *BoltObjectStore) Walk(fn func(ObjectInfo) error) error {
	var infos []ObjectInfo
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(objectsBucket).ForEach(func(k, v []byte) error {
			var rec boltRecord
			if err := msgpack.Unmarshal(v, &rec); err != nil {
				// Unreadable records still show up so callers can report them.
				infos = append(infos, ObjectInfo{Hash: objects.ObjectHash(k), Size: int64(len(v))})
				return nil
			}
			infos = append(infos, ObjectInfo{
				Hash:    objects.ObjectHash(k),
				Size:    int64(len(v)),
				ModTime: time.Unix(0, rec.Touched),
			})
			return nil
		})
	})
	if err != nil {
		return newStorageFault("walk", "failed to scan objects", err)
	}

	for _, info := range infos {
		if err := fn(info); err != nil {
			return err
		}
	}
	return nil
}

// Delete implements ObjectStore.
func (s *BoltObjectStore) Delete(hash objects.ObjectHash) (int64, error) {
	hash, err := s.normalize("delete", hash)
	if err != nil {
		return 0, err
	}

	var size int64
	found := false
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(objectsBucket)
		v := b.Get([]byte(hash))
		if v == nil {
			return nil
		}
		found = true
		size = int64(len(v))
		return b.Delete([]byte(hash))
	})
	if err != nil {
		return 0, newStorageFault("delete", fmt.Sprintf("failed to remove object %s", hash), err)
	}
	if !found {
		return 0, newNotFound("delete", hash)
	}

	s.log.Debug("object deleted", "hash", hash, "bytes", size)
	return size, nil
}

// Close implements ObjectStore.
func (s *BoltObjectStore) Close() error {
	return s.db.Close()
}

func (s *BoltObjectStore) load(hash objects.ObjectHash) (boltRecord, bool, error) {
	var rec boltRecord
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(objectsBucket).Get([]byte(hash))
		if v == nil {
			return nil
		}
		found = true
		return msgpack.Unmarshal(v, &rec)
	})
	return rec, found, err
}

func (s *BoltObjectStore) normalize(op string, hash objects.ObjectHash) (objects.ObjectHash, error) {
	hash = objects.ObjectHash(strings.ToLower(hash.String()))
	if err := s.alg.ValidateHash(hash); err != nil {
		return "", newInvalidInput(op, err.Error())
	}
	return hash, nil
}
