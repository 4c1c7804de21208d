// Package deals owns treasury deals: the state machine, per-deal
// utilisation accounting, audit logging and best-rate arbitration
// against the live treasury rate.
package deals

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fintaar/crossrail/internal/domain"
)

// DurableStore persists deals. Save must be durable before it returns:
// a transition's response is only sent after its write-ahead completes.
type DurableStore interface {
	Save(ctx context.Context, d domain.Deal) error
	LoadAll(ctx context.Context) ([]domain.Deal, error)
}

// FileStore keeps the deal book in a single JSON document, rewritten
// atomically (temp file + rename) on every save.
type FileStore struct {
	mu    sync.Mutex
	path  string
	deals map[string]domain.Deal
}

// NewFileStore opens (or initialises) the deal file at path.
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path, deals: map[string]domain.Deal{}}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read deal store %s: %w", path, err)
	}
	var list []domain.Deal
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("parse deal store %s: %w", path, err)
	}
	for _, d := range list {
		fs.deals[d.DealID] = d
	}
	return fs, nil
}

// Save upserts one deal and flushes the whole book.
func (fs *FileStore) Save(_ context.Context, d domain.Deal) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	prev, hadPrev := fs.deals[d.DealID]
	fs.deals[d.DealID] = d
	if err := fs.flushLocked(); err != nil {
		// roll back the in-memory book so a retry starts clean
		if hadPrev {
			fs.deals[d.DealID] = prev
		} else {
			delete(fs.deals, d.DealID)
		}
		return &domain.PersistenceError{Op: "save deal " + d.DealID, Err: err}
	}
	return nil
}

// LoadAll returns every persisted deal sorted by id.
func (fs *FileStore) LoadAll(_ context.Context) ([]domain.Deal, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	out := make([]domain.Deal, 0, len(fs.deals))
	for _, d := range fs.deals {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DealID < out[j].DealID })
	return out, nil
}

func (fs *FileStore) flushLocked() error {
	list := make([]domain.Deal, 0, len(fs.deals))
	for _, d := range fs.deals {
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].DealID < list[j].DealID })

	raw, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fs.path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(fs.path), ".deals-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), fs.path)
}
