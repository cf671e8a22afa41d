// Package store persists product-tree levels to disk.
//
// A level is an ordered sequence of arbitrary-precision integers. Levels are
// written exactly once and read back any number of times; persisting them is
// what bounds peak memory to roughly one level instead of the whole tree.
package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/zeebo/blake3"
)

var (
	// ErrLevelMissing indicates a level that was never (completely) persisted.
	ErrLevelMissing = errors.New("level not persisted")
	// ErrLevelCorrupt indicates a persisted level that fails verification.
	ErrLevelCorrupt = errors.New("level corrupt")
)

// StorageError is the failure of a single level operation. Storage failures
// are fatal to a run, so the error identifies the operation and level for the
// abort message.
type StorageError struct {
	Op    string // "persist" or "load"
	Level int
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store: %s level %d: %v", e.Op, e.Level, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// manifest records what a completely persisted level looks like. It is
// written only after every entry of the level is durable, so a crash
// mid-write leaves the level detectably absent rather than silently
// truncated.
type manifest struct {
	Count int    `cbor:"count"`
	Sum   []byte `cbor:"sum"`
}

// Store is a disk-backed collection of tree levels, keyed by level index.
// Values are stored as big-endian magnitudes; all tree values are positive.
type Store struct {
	db   *leveldb.DB
	path string
}

// Open opens (creating if necessary) a level store rooted at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "open level store %q", path)
	}
	return &Store{db: db, path: path}, nil
}

// Close releases the store, leaving its contents on disk.
func (s *Store) Close() error {
	return errors.WithStack(s.db.Close())
}

// Drop closes the store and removes its on-disk contents. Level files are
// only needed for the duration of one run.
func (s *Store) Drop() error {
	if err := s.db.Close(); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.RemoveAll(s.path))
}

func entryKey(level, i int) []byte {
	key := make([]byte, 9)
	key[0] = 'e'
	binary.BigEndian.PutUint32(key[1:5], uint32(level))
	binary.BigEndian.PutUint32(key[5:9], uint32(i))
	return key
}

func manifestKey(level int) []byte {
	key := make([]byte, 5)
	key[0] = 'm'
	binary.BigEndian.PutUint32(key[1:5], uint32(level))
	return key
}

// sumEntries hashes a level's entries with an unambiguous length framing.
func sumEntries(entries [][]byte) []byte {
	h := blake3.New()
	var length [8]byte
	for _, e := range entries {
		binary.BigEndian.PutUint64(length[:], uint64(len(e)))
		_, _ = h.Write(length[:])
		_, _ = h.Write(e)
	}
	return h.Sum(nil)
}

// PersistLevel durably writes a level's sequence. The entries go out in one
// batch and the manifest in a second write afterwards; a level is readable
// only once its manifest exists.
func (s *Store) PersistLevel(level int, xs []*big.Int) error {
	entries := make([][]byte, len(xs))
	batch := new(leveldb.Batch)
	for i, x := range xs {
		entries[i] = x.Bytes()
		batch.Put(entryKey(level, i), entries[i])
	}
	if err := s.db.Write(batch, nil); err != nil {
		return &StorageError{Op: "persist", Level: level, Err: err}
	}

	m, err := cbor.Marshal(manifest{Count: len(xs), Sum: sumEntries(entries)})
	if err != nil {
		return &StorageError{Op: "persist", Level: level, Err: err}
	}
	if err := s.db.Put(manifestKey(level), m, nil); err != nil {
		return &StorageError{Op: "persist", Level: level, Err: err}
	}
	return nil
}

// LoadLevel reconstructs a persisted level, in order, verifying it against
// the manifest written at persist time. There is no retry: a missing or
// corrupt level aborts the run.
func (s *Store) LoadLevel(level int) ([]*big.Int, error) {
	raw, err := s.db.Get(manifestKey(level), nil)
	if err == leveldb.ErrNotFound {
		return nil, &StorageError{Op: "load", Level: level, Err: ErrLevelMissing}
	}
	if err != nil {
		return nil, &StorageError{Op: "load", Level: level, Err: err}
	}
	var m manifest
	if err := cbor.Unmarshal(raw, &m); err != nil {
		return nil, &StorageError{Op: "load", Level: level, Err: err}
	}

	entries := make([][]byte, m.Count)
	xs := make([]*big.Int, m.Count)
	for i := 0; i < m.Count; i++ {
		e, err := s.db.Get(entryKey(level, i), nil)
		if err == leveldb.ErrNotFound {
			return nil, &StorageError{Op: "load", Level: level, Err: ErrLevelCorrupt}
		}
		if err != nil {
			return nil, &StorageError{Op: "load", Level: level, Err: err}
		}
		entries[i] = e
		xs[i] = new(big.Int).SetBytes(e)
	}
	if !bytes.Equal(sumEntries(entries), m.Sum) {
		return nil, &StorageError{Op: "load", Level: level, Err: ErrLevelCorrupt}
	}
	return xs, nil
}

// LevelCount returns the number of entries in a persisted level without
// loading its values.
func (s *Store) LevelCount(level int) (int, error) {
	raw, err := s.db.Get(manifestKey(level), nil)
	if err == leveldb.ErrNotFound {
		return 0, &StorageError{Op: "load", Level: level, Err: ErrLevelMissing}
	}
	if err != nil {
		return 0, &StorageError{Op: "load", Level: level, Err: err}
	}
	var m manifest
	if err := cbor.Unmarshal(raw, &m); err != nil {
		return 0, &StorageError{Op: "load", Level: level, Err: err}
	}
	return m.Count, nil
}
