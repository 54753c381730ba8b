package history

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

var entryPrefix = []byte("entry/")

// Stats summarizes stored sessions.
type Stats struct {
	Sessions int
	Words    int
	Refined  int
	TimedOut int
	First    time.Time
	Last     time.Time
}

// Store is an append-only session log backed by badger.
type Store struct {
	db  *badger.DB
	now func() time.Time
}

// Open opens (creating if needed) the store in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return open(badger.DefaultOptions(dir))
}

// OpenInMemory opens a store that lives only as long as the process.
func OpenInMemory() (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts.WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close flushes and closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append stores entry, assigning an ID and timestamp when unset, and returns
// the stored value.
func (s *Store) Append(ctx context.Context, entry Entry) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}

	value, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, fmt.Errorf("encode history entry: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(entry), value)
	})
	if err != nil {
		return Entry{}, fmt.Errorf("write history entry: %w", err)
	}
	return entry, nil
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	entries := make([]Entry, 0)
	err := s.each(ctx, func(entry Entry) bool {
		entries = append(entries, entry)
		return limit <= 0 || len(entries) < limit
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Stats aggregates every stored entry.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.each(ctx, func(entry Entry) bool {
		stats.Sessions++
		stats.Words += entry.WordCount
		if entry.UsedRefinement {
			stats.Refined++
		}
		if entry.TimedOut {
			stats.TimedOut++
		}
		if stats.Last.IsZero() {
			stats.Last = entry.Timestamp
		}
		stats.First = entry.Timestamp
		return true
	})
	return stats, err
}

// each walks entries newest first until fn returns false.
func (s *Store) each(ctx context.Context, fn func(Entry) bool) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = entryPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte(nil), entryPrefix...), 0xff)
		for it.Seek(seek); it.ValidForPrefix(entryPrefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var entry Entry
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &entry)
			})
			if err != nil {
				return fmt.Errorf("decode history entry %q: %w", it.Item().Key(), err)
			}
			if !fn(entry) {
				return nil
			}
		}
		return nil
	})
}

// entryKey orders entries by timestamp, then ID.
func entryKey(entry Entry) []byte {
	key := make([]byte, 0, len(entryPrefix)+8+1+len(entry.ID))
	key = append(key, entryPrefix...)
	key = binary.BigEndian.AppendUint64(key, uint64(entry.Timestamp.UnixNano()))
	key = append(key, '/')
	return append(key, entry.ID...)
}
