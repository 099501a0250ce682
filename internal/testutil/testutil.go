// Package testutil provides shared test doubles for use across package
// tests. All dummies implement the corresponding production interfaces so
// components can be exercised without real I/O.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"sitewatch/internal/logging"
	"sitewatch/internal/store"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ─── Store ─────────────────────────────────────────────────────────────

type seqCheck struct {
	result store.CheckResult
	seq    int
}

// MemStore implements store.Store in memory. Ids are real object ids so
// handler-level id validation behaves as with the real store.
type MemStore struct {
	mu         sync.Mutex
	categories []store.Category
	websites   []store.Website
	checks     []seqCheck
	nextSeq    int

	// PingErr, when set, is returned from Ping to simulate a lost store.
	PingErr error
}

func NewMemStore() *MemStore { return &MemStore{} }

func (m *MemStore) InsertCategory(_ context.Context, c *store.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	m.categories = append(m.categories, *c)
	return nil
}

func (m *MemStore) ListCategories(_ context.Context) ([]store.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]store.Category(nil), m.categories...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemStore) CountCategories(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.categories)), nil
}

func (m *MemStore) InsertWebsite(_ context.Context, w *store.Website) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w.ID.IsZero() {
		w.ID = primitive.NewObjectID()
	}
	m.websites = append(m.websites, *w)
	return nil
}

func (m *MemStore) ListWebsites(_ context.Context) ([]store.Website, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]store.Website(nil), m.websites...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemStore) GetWebsite(_ context.Context, id string) (*store.Website, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrInvalidID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.websites {
		if w.ID == oid {
			cp := w
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MemStore) CountWebsites(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.websites)), nil
}

func (m *MemStore) InsertCheckResult(_ context.Context, r *store.CheckResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	r.CreatedAt = time.Now().UTC()
	m.nextSeq++
	m.checks = append(m.checks, seqCheck{result: *r, seq: m.nextSeq})
	return nil
}

func (m *MemStore) ListCheckResults(_ context.Context, websiteID string, limit int64) ([]store.CheckResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	filtered := make([]seqCheck, 0, len(m.checks))
	for _, c := range m.checks {
		if websiteID == "" || c.result.WebsiteID == websiteID {
			filtered = append(filtered, c)
		}
	}
	// Insertion order breaks created_at ties deterministically.
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].seq > filtered[j].seq })

	out := make([]store.CheckResult, 0, len(filtered))
	for _, c := range filtered {
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
		out = append(out, c.result)
	}
	return out, nil
}

func (m *MemStore) Ping(_ context.Context) error { return m.PingErr }

func (m *MemStore) CollectionNames(_ context.Context) ([]string, error) {
	if m.PingErr != nil {
		return nil, m.PingErr
	}
	return []string{"category", "website", "checkresult"}, nil
}
