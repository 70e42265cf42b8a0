// Package pendingswaps tracks per-user unsettled swap order flags.
package pendingswaps

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
)

const (
	defaultDir   = "./wal/pendingswaps"
	segmentLimit = 1000
	maxSegments  = 10

	flagKeyPrefix = "swap_order_"
)

// flagRecord is the WAL payload: the latest record per user wins.
type flagRecord struct {
	UserID  string `json:"user_id"`
	Pending bool   `json:"pending"`
}

// WALStore persists pending-swap flags in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed pending-swap store.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "swap_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init pending swap WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Flag records whether the user currently has an unsettled swap order.
func (s *WALStore) Flag(userID string, pending bool) error {
	if s == nil || s.wal == nil {
		return errors.New("pending swap store is not initialized")
	}
	if userID == "" {
		return errors.New("user id is required")
	}

	payload, err := json.Marshal(flagRecord{UserID: userID, Pending: pending})
	if err != nil {
		return errors.Wrap(err, "marshal pending swap flag")
	}

	key := fmt.Sprintf("%s%s", flagKeyPrefix, userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// HasPendingSwap replays the log and reports the user's latest flag.
func (s *WALStore) HasPendingSwap(ctx context.Context, userID string) (bool, error) {
	if s == nil || s.wal == nil {
		return false, errors.New("pending swap store is not initialized")
	}

	key := fmt.Sprintf("%s%s", flagKeyPrefix, userID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := false
	for idx := uint64(1); idx <= s.wal.CurrentIndex(); idx++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		k, payload, err := s.wal.Get(idx)
		if err != nil || k != key {
			continue
		}

		var rec flagRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return false, errors.Wrap(err, "decode pending swap flag")
		}
		if rec.UserID != userID {
			continue
		}
		pending = rec.Pending
	}

	return pending, nil
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("pending swap store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
