// Package catalog holds the normalized tests read from the feed slot.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/mind-engage/evalify/internal/exam"
	"github.com/mind-engage/evalify/internal/formats"
	"github.com/mind-engage/evalify/internal/storage"
)

const DefaultSlot = "teacher_tests"

var ErrTestNotFound = errors.New("test not found")

type Catalog struct {
	kv   storage.KV
	slot string

	mu     sync.RWMutex
	tests  []exam.Test
	issues []formats.Issue
	loaded time.Time
}

func New(kv storage.KV, slot string) *Catalog {
	if slot == "" {
		slot = DefaultSlot
	}
	return &Catalog{kv: kv, slot: slot}
}

// Reload reads and normalizes the feed. A missing or unreadable feed
// leaves an empty catalog; the returned error is informational.
func (c *Catalog) Reload(ctx context.Context) error {
	raw, err := c.kv.Get(ctx, c.slot)
	if errors.Is(err, storage.ErrNotFound) {
		c.set(nil, nil)
		return nil
	}
	if err != nil {
		c.set(nil, nil)
		return fmt.Errorf("read feed %s: %w", c.slot, err)
	}
	recs, err := formats.Decode(ctx, formats.ProfileJSON, bytes.NewReader(raw))
	if err != nil {
		c.set(nil, nil)
		return fmt.Errorf("decode feed %s: %w", c.slot, err)
	}
	tests, issues := formats.NormalizeReport(recs)
	c.set(tests, issues)
	return nil
}

func (c *Catalog) set(tests []exam.Test, issues []formats.Issue) {
	if tests == nil {
		tests = []exam.Test{}
	}
	c.mu.Lock()
	c.tests, c.issues, c.loaded = tests, issues, time.Now()
	c.mu.Unlock()
}

// Replace writes a new raw feed and reloads. The feed must at least be a
// JSON array; its records are normalized leniently.
func (c *Catalog) Replace(ctx context.Context, rawFeed []byte) error {
	if _, err := formats.DecodeJSON(rawFeed); err != nil {
		return err
	}
	if err := c.kv.Put(ctx, c.slot, rawFeed); err != nil {
		return fmt.Errorf("write feed %s: %w", c.slot, err)
	}
	return c.Reload(ctx)
}

// List returns the tests in feed order.
func (c *Catalog) List() []exam.Test {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]exam.Test{}, c.tests...)
}

// Get returns the first test with id; duplicates are not detected.
func (c *Catalog) Get(id string) (exam.Test, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tests {
		if t.ID == id {
			return t, nil
		}
	}
	return exam.Test{}, ErrTestNotFound
}

// Issues are the diagnostics from the last reload.
func (c *Catalog) Issues() []formats.Issue {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]formats.Issue(nil), c.issues...)
}

func (c *Catalog) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// StartRefresh reloads the feed every interval until the returned stop
// function is called. A non-positive interval disables refreshing.
func (c *Catalog) StartRefresh(ctx context.Context, every time.Duration) (stop func(), err error) {
	if every <= 0 {
		return func() {}, nil
	}
	s := gocron.NewScheduler(time.UTC)
	_, err = s.Every(every).Do(func() {
		if err := c.Reload(ctx); err != nil {
			log.Printf("catalog: refresh: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule feed refresh: %w", err)
	}
	s.StartAsync()
	return s.Stop, nil
}
