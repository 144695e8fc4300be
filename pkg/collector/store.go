// Package collector is the receiving side of the telemetry pipeline: it
// accepts packed Records over either transport backend, renders them for a
// human, optionally persists them to a Pebble journal, and feeds the
// Prometheus counters.
package collector

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/saworbit/iotrace/pkg/record"
)

// recPrefix keys persisted records; the timestamp component keeps iteration
// in arrival order.
const recPrefix = "rec:"

// Store persists raw packed records in Pebble under time-ordered keys.
type Store struct {
	db *pebble.DB
}

// OpenStore opens (creating if needed) the record store in dir.
func OpenStore(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Append persists one raw packed record.
func (s *Store) Append(raw []byte) error {
	suffix, err := randomSuffix()
	if err != nil {
		return fmt.Errorf("generate record key: %w", err)
	}
	key := []byte(fmt.Sprintf("%s%020d:%s", recPrefix, time.Now().UnixNano(), suffix))

	if err := s.db.Set(key, raw, pebble.NoSync); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// Each decodes every stored record in arrival order and passes it to fn;
// iteration stops on the first error fn returns.
func (s *Store) Each(fn func(*record.Record) error) error {
	upper := append([]byte(recPrefix), 0xff)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(recPrefix),
		UpperBound: upper,
	})
	if err != nil {
		return fmt.Errorf("record iterator: %w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		rec, err := record.Unmarshal(iter.Value())
		if err != nil {
			return fmt.Errorf("decode stored record %s: %w", iter.Key(), err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

func randomSuffix() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf[:]), nil
}
