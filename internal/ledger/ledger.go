// Package ledger keeps the append-only, newest-first list of scored attempts
// and mirrors it to one durable slot as a whole snapshot.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/mind-engage/evalify/internal/exam"
	"github.com/mind-engage/evalify/internal/storage"
)

const DefaultSlot = "evalify_results"

// Hook runs after a result has been durably appended. Hook errors are
// logged and never undo the append.
type Hook func(ctx context.Context, r exam.Result) error

type Ledger struct {
	kv   storage.KV
	slot string

	mu      sync.RWMutex
	results []exam.Result
	// records from the slot that did not decode; written back after results
	unreadable []json.RawMessage
	hooks      []Hook
}

func New(kv storage.KV, slot string) *Ledger {
	if slot == "" {
		slot = DefaultSlot
	}
	return &Ledger{kv: kv, slot: slot}
}

// OnAppend registers h. Not safe to call concurrently with Append.
func (l *Ledger) OnAppend(h Hook) { l.hooks = append(l.hooks, h) }

// Load hydrates from the store. A missing slot, a read error or content
// that is not a JSON array all yield an empty ledger. Inside an array each
// record decodes on its own: one that does not is left out of the results
// but kept in the slot on later writes.
func (l *Ledger) Load(ctx context.Context) []exam.Result {
	results, unreadable := l.read(ctx)
	l.mu.Lock()
	l.results = results
	l.unreadable = unreadable
	l.mu.Unlock()
	return l.All()
}

func (l *Ledger) read(ctx context.Context) ([]exam.Result, []json.RawMessage) {
	raw, err := l.kv.Get(ctx, l.slot)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("ledger: read %s: %v; starting empty", l.slot, err)
		return nil, nil
	}
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		log.Printf("ledger: %s is not a result list (%v); starting empty", l.slot, err)
		return nil, nil
	}
	out := make([]exam.Result, 0, len(records))
	var unreadable []json.RawMessage
	for i, rec := range records {
		var r exam.Result
		if err := json.Unmarshal(rec, &r); err != nil {
			log.Printf("ledger: %s record %d skipped: %v", l.slot, i, err)
			unreadable = append(unreadable, rec)
			continue
		}
		out = append(out, r)
	}
	return out, unreadable
}

// Append prepends r and writes the full snapshot. Memory is only updated
// once the write succeeded.
func (l *Ledger) Append(ctx context.Context, r exam.Result) error {
	l.mu.Lock()
	next := make([]exam.Result, 0, len(l.results)+1)
	next = append(next, r)
	next = append(next, l.results...)
	if err := l.write(ctx, next); err != nil {
		l.mu.Unlock()
		return err
	}
	l.results = next
	hooks := l.hooks
	l.mu.Unlock()

	for _, h := range hooks {
		if err := h(ctx, r); err != nil {
			log.Printf("ledger: hook for %s: %v", r.ID, err)
		}
	}
	return nil
}

// Persist replaces the stored snapshot and the in-memory list with results.
// Records that did not decode on Load are still carried.
func (l *Ledger) Persist(ctx context.Context, results []exam.Result) error {
	snapshot := append([]exam.Result(nil), results...)
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.write(ctx, snapshot); err != nil {
		return err
	}
	l.results = snapshot
	return nil
}

// write must be called with l.mu held.
func (l *Ledger) write(ctx context.Context, results []exam.Result) error {
	records := make([]json.RawMessage, 0, len(results)+len(l.unreadable))
	for _, r := range results {
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode result %s: %w", r.ID, err)
		}
		records = append(records, b)
	}
	records = append(records, l.unreadable...)
	b, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := l.kv.Put(ctx, l.slot, b); err != nil {
		return fmt.Errorf("persist ledger %s: %w", l.slot, err)
	}
	return nil
}

// All returns a copy, newest first.
func (l *Ledger) All() []exam.Result {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]exam.Result{}, l.results...)
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.results)
}

// ForLearner filters by email, ignoring case and surrounding space.
func (l *Ledger) ForLearner(email string) []exam.Result {
	want := strings.ToLower(strings.TrimSpace(email))
	out := []exam.Result{}
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, r := range l.results {
		if strings.ToLower(strings.TrimSpace(r.LearnerEmail)) == want {
			out = append(out, r)
		}
	}
	return out
}

func (l *Ledger) Find(id string) (exam.Result, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, r := range l.results {
		if r.ID == id {
			return r, true
		}
	}
	return exam.Result{}, false
}
