package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"

	"wingetbridge/internal/config"
	"wingetbridge/pkg/manager"
)

// Entries are keyed by UTC timestamp plus bucket sequence so cursor order
// is chronological. The ids bucket maps entry ids to those keys.
var (
	bucketEntries = []byte("entries")
	bucketIDs     = []byte("ids")
)

// ErrNotFound is returned by Get for an unknown entry id.
var ErrNotFound = errors.New("history entry not found")

// Store is the bbolt-backed operation log.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the history database in the data directory.
func Open() (*Store, error) {
	if err := config.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return OpenAt(config.HistoryPath())
}

// OpenAt opens or creates the history database at dbPath. A second process
// holding the file makes it fail after one second instead of blocking.
func OpenAt(dbPath string) (*Store, error) {
	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.Update(createBuckets); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}
	return &Store{db: db}, nil
}

func createBuckets(tx *bbolt.Tx) error {
	for _, name := range [][]byte{bucketEntries, bucketIDs} {
		if _, err := tx.CreateBucketIfNotExists(name); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record saves an entry. An id that is already taken gets the sequence
// number appended, so entry.ID is unique once Record returns.
func (s *Store) Record(entry *Entry) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		entries, ids := tx.Bucket(bucketEntries), tx.Bucket(bucketIDs)

		seq, err := entries.NextSequence()
		if err != nil {
			return err
		}
		if entry.ID == "" || ids.Get([]byte(entry.ID)) != nil {
			entry.ID = entry.Timestamp.UTC().Format("20060102150405") + "-" + strconv.FormatUint(seq, 10)
		}

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal entry: %w", err)
		}
		key := entryKey(entry.Timestamp, seq)
		if err := entries.Put(key, data); err != nil {
			return fmt.Errorf("failed to save entry: %w", err)
		}
		return ids.Put([]byte(entry.ID), key)
	})
}

func entryKey(ts time.Time, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s-%016x", ts.UTC().Format("20060102T150405.000000000"), seq))
}

// scan walks entries newest first until fn returns false. Malformed
// records are skipped.
func scan(tx *bbolt.Tx, fn func(key []byte, e Entry) bool) {
	c := tx.Bucket(bucketEntries).Cursor()
	for k, v := c.Last(); k != nil; k, v = c.Prev() {
		var e Entry
		if err := json.Unmarshal(v, &e); err != nil {
			continue
		}
		if !fn(k, e) {
			return
		}
	}
}

// List returns up to limit entries, newest first. A limit of zero or less
// returns everything.
func (s *Store) List(limit int) ([]Entry, error) {
	return s.filter(limit, func(Entry) bool { return true })
}

// ForPackage returns up to limit entries about the package id, newest
// first.
func (s *Store) ForPackage(id string, limit int) ([]Entry, error) {
	return s.filter(limit, func(e Entry) bool { return e.Package.ID == id })
}

func (s *Store) filter(limit int, keep func(Entry) bool) ([]Entry, error) {
	var out []Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		scan(tx, func(_ []byte, e Entry) bool {
			if keep(e) {
				out = append(out, e)
			}
			return limit <= 0 || len(out) < limit
		})
		return nil
	})
	return out, err
}

// Get retrieves an entry by id.
func (s *Store) Get(id string) (*Entry, error) {
	var entry *Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		key := tx.Bucket(bucketIDs).Get([]byte(id))
		if key == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		data := tx.Bucket(bucketEntries).Get(key)
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		entry = new(Entry)
		return json.Unmarshal(data, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Last returns the most recent entry, or nil when the log is empty.
func (s *Store) Last() (*Entry, error) {
	entries, err := s.List(1)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return &entries[0], nil
}

// Count returns the total number of entries.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketEntries).Stats().KeyN
		return nil
	})
	return n, err
}

// Clear removes all entries.
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketEntries, bucketIDs} {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, berrors.ErrBucketNotFound) {
				return err
			}
		}
		return createBuckets(tx)
	})
}

// Prune removes entries recorded more than maxAge ago and returns how many
// were deleted.
func (s *Store) Prune(maxAge time.Duration) (int, error) {
	cutoff := entryKey(time.Now().Add(-maxAge), 0)
	deleted := 0

	err := s.db.Update(func(tx *bbolt.Tx) error {
		entries, ids := tx.Bucket(bucketEntries), tx.Bucket(bucketIDs)

		type victim struct{ key, id []byte }
		var victims []victim
		c := entries.Cursor()
		for k, v := c.First(); k != nil && string(k) < string(cutoff); k, v = c.Next() {
			var e Entry
			_ = json.Unmarshal(v, &e) //nolint:errcheck
			victims = append(victims, victim{key: k, id: []byte(e.ID)})
		}

		for _, v := range victims {
			if err := entries.Delete(v.key); err != nil {
				return err
			}
			if len(v.id) > 0 {
				if err := ids.Delete(v.id); err != nil {
					return err
				}
			}
			deleted++
		}
		return nil
	})
	return deleted, err
}

// Recorder returns a callback that stores every result it is given,
// logging instead of failing when the write does not succeed.
func (s *Store) Recorder(log logrus.FieldLogger) func(manager.Result) {
	return func(res manager.Result) {
		if err := s.Record(FromResult(res)); err != nil {
			log.WithError(err).WithField("op", res.ID).Warn("failed to record history")
		}
	}
}
