// Package rastore persists a fragmented movie's random-access index
// incrementally, so a crash partway through recording does not lose the
// fragments already flushed, using bbolt as a small embedded key-value
// store for crash-durable metadata.
package rastore

import (
	"encoding/binary"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// Entry is one fragment's random-access record for a single track: the
// presentation time of its first sample and the absolute file offset of
// its moof box, the two fields tfra needs per entry.
type Entry struct {
	Time       uint64
	MoofOffset uint64
}

// Store incrementally persists Entry records keyed by track ID and
// fragment sequence number, the same entries the fragmented finalizer
// turns into mfra/tfra from its own in-memory copy.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if absent) a bbolt database at path for use as a
// random-access index store.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("rastore: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func trackBucketName(trackID uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, trackID)
	return b
}

// Append records one fragment's entry for trackID, keyed by its sequence
// number so fragments are recoverable in order after a crash.
func (s *Store) Append(trackID uint32, sequence uint32, e Entry) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(trackBucketName(trackID))
		if err != nil {
			return err
		}
		key := make([]byte, 4)
		binary.BigEndian.PutUint32(key, sequence)
		val := make([]byte, 16)
		binary.BigEndian.PutUint64(val[0:8], e.Time)
		binary.BigEndian.PutUint64(val[8:16], e.MoofOffset)
		return bucket.Put(key, val)
	})
}

// Entries returns trackID's recorded entries in ascending sequence order.
func (s *Store) Entries(trackID uint32) ([]Entry, error) {
	var out []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(trackBucketName(trackID))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, val []byte) error {
			if len(val) < 16 {
				return fmt.Errorf("rastore: corrupt entry for track %d", trackID)
			}
			out = append(out, Entry{
				Time:       binary.BigEndian.Uint64(val[0:8]),
				MoofOffset: binary.BigEndian.Uint64(val[8:16]),
			})
			return nil
		})
	})
	return out, err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
