package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/strata-db/strata/dataflow"
	"github.com/strata-db/strata/internal/logger"
)

// Badger is a materialized-state backend over a badger KV store running in
// in-memory mode. It serves the same lookups as Memory; there is no durable
// mode, the engine does not persist view state.
type Badger struct {
	db     *badger.DB
	logger zerolog.Logger

	mu      sync.RWMutex
	indexed map[int]bool
	open    bool
}

// NewBadger opens an in-memory badger instance indexed on the given columns.
func NewBadger(cols ...int) (*Badger, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening in-memory badger: %w", err)
	}
	b := &Badger{
		db:      db,
		logger:  logger.GetLogger("state"),
		indexed: make(map[int]bool),
		open:    true,
	}
	for _, c := range cols {
		b.indexed[c] = true
	}
	b.logger.Debug().Ints("columns", cols).Msg("opened an in-memory state store")
	return b, nil
}

// Close releases the underlying store.
func (b *Badger) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return ErrNotOpen
	}
	b.open = false
	return b.db.Close()
}

// AddIndex adds an index over col. Must be called before any rows are
// written.
func (b *Badger) AddIndex(col int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.indexed[col] = true
}

func bucketKey(col int, key dataflow.DataValue) ([]byte, error) {
	kb, err := json.Marshal(key)
	if err != nil {
		return nil, err
	}
	return append([]byte(fmt.Sprintf("%d/", col)), kb...), nil
}

// ProcessUpdate applies a record batch to every index bucket it touches.
func (b *Badger) ProcessUpdate(u *dataflow.Update) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return ErrNotOpen
	}
	return b.db.Update(func(txn *badger.Txn) error {
		for _, r := range u.Records {
			for col := range b.indexed {
				if err := applyRecord(txn, col, r); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func applyRecord(txn *badger.Txn, col int, r dataflow.Record) error {
	key, err := bucketKey(col, r.Row[col])
	if err != nil {
		return err
	}

	var rows []dataflow.Row
	item, err := txn.Get(key)
	switch {
	case err == nil:
		err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rows)
		})
		if err != nil {
			return err
		}
	case errors.Is(err, badger.ErrKeyNotFound):
		// empty bucket
	default:
		return err
	}

	if r.Positive {
		rows = append(rows, r.Row)
	} else {
		for i, have := range rows {
			if have.Equal(r.Row) {
				rows = append(rows[:i], rows[i+1:]...)
				break
			}
		}
	}

	if len(rows) == 0 {
		err := txn.Delete(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	}
	val, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return txn.Set(key, val)
}

// Lookup returns the rows whose indexed column col equals key.
func (b *Badger) Lookup(col int, key dataflow.DataValue) ([]dataflow.Row, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.open || !b.indexed[col] {
		return nil, false
	}

	bk, err := bucketKey(col, key)
	if err != nil {
		b.logger.Err(err).Msg("error encoding a lookup key")
		return nil, false
	}

	var rows []dataflow.Row
	err = b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(bk)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rows)
		})
	})
	if err != nil {
		b.logger.Err(err).Int("column", col).Msg("error reading a state bucket")
		return nil, false
	}
	return rows, true
}
