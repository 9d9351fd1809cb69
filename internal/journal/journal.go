// Package journal is an append-only audit trail of repository mutations,
// kept in a badger store under the repository's metadata directory.
package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

// Entries are compressed when the marshaled value exceeds this size.
const compressMin = 1024

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// Entry records one completed operation.
type Entry struct {
	ID       string    `json:"id"`
	Time     time.Time `json:"time"`
	Op       string    `json:"op"`
	Paths    []string  `json:"paths,omitempty"`
	Revision string    `json:"revision,omitempty"`
	Message  string    `json:"message,omitempty"`
	Output   string    `json:"output,omitempty"`
}

// Store persists entries in key order, which is chronological.
type Store struct {
	db     *badger.DB
	logger *zap.Logger
	enc    *zstd.Encoder
	dec    *zstd.Decoder
}

// Open opens (or creates) a journal store at dir.
func Open(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening journal store: %w", err)
	}
	return newStore(db, logger)
}

// OpenInMemory opens a store backed by memory only. Used by tests and by
// callers that want auditing without persistence.
func OpenInMemory(logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening journal store: %w", err)
	}
	return newStore(db, logger)
}

func newStore(db *badger.DB, logger *zap.Logger) (*Store, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		enc.Close()
		db.Close()
		return nil, fmt.Errorf("creating decoder: %w", err)
	}

	return &Store{db: db, logger: logger, enc: enc, dec: dec}, nil
}

func (s *Store) makeKey(e Entry) []byte {
	return []byte(fmt.Sprintf("entry:%020d:%s", e.Time.UnixNano(), e.ID))
}

// Record appends an entry. A missing ID or timestamp is filled in.
func (s *Store) Record(e Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling entry: %w", err)
	}
	if len(data) > compressMin {
		data = s.enc.EncodeAll(data, nil)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.makeKey(e), data)
	})
	if err != nil {
		return fmt.Errorf("recording entry: %w", err)
	}

	s.logger.Debug("journal entry recorded",
		zap.String("id", e.ID),
		zap.String("op", e.Op))
	return nil
}

// List returns entries in chronological order. A positive limit returns only
// the most recent entries.
func (s *Store) List(limit int) ([]Entry, error) {
	var entries []Entry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte("entry:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				data, err := s.maybeDecompress(val)
				if err != nil {
					return err
				}
				var e Entry
				if err := json.Unmarshal(data, &e); err != nil {
					return fmt.Errorf("unmarshaling entry: %w", err)
				}
				entries = append(entries, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

func (s *Store) maybeDecompress(val []byte) ([]byte, error) {
	if len(val) > 4 && bytes.Equal(val[:4], zstdMagic) {
		data, err := s.dec.DecodeAll(val, nil)
		if err != nil {
			return nil, fmt.Errorf("decompressing entry: %w", err)
		}
		return data, nil
	}
	// Value was stored uncompressed. badger hands us memory only valid for
	// the life of the value callback, so copy.
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (s *Store) Close() error {
	s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}
