package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/stores_api/internal/db"
	"github.com/Skotchmaster/stores_api/internal/events"
	"github.com/Skotchmaster/stores_api/internal/models"
	"github.com/Skotchmaster/stores_api/internal/repo"
	"github.com/Skotchmaster/stores_api/internal/revocation"
	"github.com/Skotchmaster/stores_api/internal/tokens"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type memIndex struct {
	mu    sync.Mutex
	items map[uint]models.Item
	err   error
}

func newMemIndex() *memIndex { return &memIndex{items: map[uint]models.Item{}} }

func (x *memIndex) IndexItem(_ context.Context, item models.Item) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.err != nil {
		return x.err
	}
	x.items[item.ID] = item
	return nil
}

func (x *memIndex) DeleteItem(_ context.Context, id uint) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.items, id)
	return nil
}

func (x *memIndex) SearchItems(_ context.Context, _ string, from, size int) (int64, []uint, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.err != nil {
		return 0, nil, x.err
	}
	ids := []uint{}
	for id := range x.items {
		ids = append(ids, id)
	}
	total := int64(len(ids))
	if from >= len(ids) {
		return total, []uint{}, nil
	}
	end := from + size
	if end > len(ids) {
		end = len(ids)
	}
	return total, ids[from:end], nil
}

type failingStore struct{}

func (failingStore) Add(context.Context, string, time.Time) error { return errors.New("down") }
func (failingStore) Contains(context.Context, string) (bool, error) {
	return false, errors.New("down")
}

type env struct {
	auth    *AuthService
	catalog *CatalogService
	repo    *repo.GormRepo
	revoked *revocation.MemoryStore
	issuer  *tokens.Issuer
	cfg     tokens.Config
	events  *recordingPublisher
	index   *memIndex
}

func newEnv(t *testing.T) *env {
	t.Helper()

	gdb, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	r := repo.New(gdb)
	cfg := tokens.Config{AccessSecret: []byte("access"), RefreshSecret: []byte("refresh")}
	issuer := tokens.NewIssuer(cfg)
	revoked := revocation.NewMemoryStore()
	pub := &recordingPublisher{}
	idx := newMemIndex()

	return &env{
		auth:    &AuthService{Users: r, Issuer: issuer, Revoked: revoked, Events: pub},
		catalog: &CatalogService{Repo: r, Search: idx, Events: pub},
		repo:    r,
		revoked: revoked,
		issuer:  issuer,
		cfg:     cfg,
		events:  pub,
		index:   idx,
	}
}

func (e *env) validator() *tokens.Validator {
	return tokens.NewValidator(e.cfg, e.revoked)
}
