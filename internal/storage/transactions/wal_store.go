// Package transactions persists the append-only on-chain transaction log.
package transactions

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/vadiminshakov/chainfolio/internal/domain"
)

const (
	defaultDir   = "./wal/transactions"
	segmentLimit = 1000
	maxSegments  = 100

	txKeyPrefix = "tx_"
)

// record is the WAL payload: one transaction owned by one user.
type record struct {
	UserID      string             `json:"user_id"`
	Transaction domain.Transaction `json:"transaction"`
}

// WALStore persists transactions in an append-only WAL. Records are never
// rewritten; reads replay the log and compute a fresh view.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed transaction store under the directory.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "tx_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init transaction WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save appends the transaction to the log, minting an ID when absent.
func (s *WALStore) Save(userID string, tx domain.Transaction) error {
	if s == nil || s.wal == nil {
		return errors.New("transaction store is not initialized")
	}
	if userID == "" {
		return errors.New("user id is required")
	}
	if len(tx.Transfers) == 0 {
		return errors.New("transaction has no transfers")
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}

	payload, err := json.Marshal(record{UserID: userID, Transaction: tx})
	if err != nil {
		return errors.Wrap(err, "marshal transaction")
	}

	key := fmt.Sprintf("%s%s_%s", txKeyPrefix, userID, tx.ID)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// FindTransactions replays the log and returns the user's transactions
// involving the asset, ascending by timestamp.
func (s *WALStore) FindTransactions(ctx context.Context, userID string, asset domain.Asset) ([]domain.Transaction, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("transaction store is not initialized")
	}

	userPrefix := fmt.Sprintf("%s%s_", txKeyPrefix, userID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var txs []domain.Transaction
	for idx := uint64(1); idx <= s.wal.CurrentIndex(); idx++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		key, payload, err := s.wal.Get(idx)
		if err != nil {
			continue
		}
		if !strings.HasPrefix(key, userPrefix) {
			continue
		}

		var rec record
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, errors.Wrap(err, "decode transaction record")
		}
		// The prefix scan is only a fast filter: "user1" is a prefix of
		// "user1_a", so ownership is decided by the record itself.
		if rec.UserID != userID {
			continue
		}
		if !rec.Transaction.Involves(asset) {
			continue
		}
		txs = append(txs, rec.Transaction)
	}

	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Timestamp.Before(txs[j].Timestamp)
	})

	return txs, nil
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("transaction store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
