// Package apptest provides in-process doubles of the outbound ports for tests.
package apptest

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"item-service/internal/domain/item"
	"item-service/internal/ports/outbound"

	"github.com/google/uuid"
)

// MemoryItemRepository keeps items in a map. Err, when set, is returned by every call.
type MemoryItemRepository struct {
	mu    sync.Mutex
	items map[uuid.UUID]item.Item
	clock time.Time
	Err   error
}

// NewMemoryItemRepository returns an empty repository whose clock advances one
// millisecond per call, so creation order is observable.
func NewMemoryItemRepository() *MemoryItemRepository {
	return &MemoryItemRepository{
		items: make(map[uuid.UUID]item.Item),
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *MemoryItemRepository) tick() time.Time {
	r.clock = r.clock.Add(time.Millisecond)
	return r.clock
}

func (r *MemoryItemRepository) List(ctx context.Context, limit, offset int) ([]*item.Item, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, 0, r.Err
	}

	all := make([]item.Item, 0, len(r.items))
	for _, it := range r.items {
		all = append(all, it)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return bytes.Compare(all[i].ID[:], all[j].ID[:]) > 0
	})

	page := make([]*item.Item, 0)
	for i := offset; i < len(all) && len(page) < limit; i++ {
		it := all[i]
		page = append(page, &it)
	}
	return page, len(all), nil
}

func (r *MemoryItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*item.Item, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, false, r.Err
	}

	it, ok := r.items[id]
	if !ok {
		return nil, false, nil
	}
	return &it, true, nil
}

func (r *MemoryItemRepository) Create(ctx context.Context, in item.Create) (*item.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	it := item.New(in, r.tick())
	r.items[it.ID] = *it
	return it, nil
}

func (r *MemoryItemRepository) Update(ctx context.Context, id uuid.UUID, patch item.Update) (*item.Item, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, false, r.Err
	}

	it, ok := r.items[id]
	if !ok {
		return nil, false, nil
	}
	patch.Apply(&it, r.tick())
	r.items[id] = it
	return &it, true, nil
}

func (r *MemoryItemRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}

	if _, ok := r.items[id]; !ok {
		return false, nil
	}
	delete(r.items, id)
	return true, nil
}

// StaticProber answers every probe with Healthy
type StaticProber struct {
	Healthy bool
}

func (p StaticProber) Probe(ctx context.Context) bool {
	return p.Healthy
}

// RecordingPublisher stores published events. Err, when set, is returned by Publish.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []outbound.Event
	Err    error
	closed bool
}

func (p *RecordingPublisher) Publish(ctx context.Context, event outbound.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *RecordingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Events returns a copy of the published events
func (p *RecordingPublisher) Events() []outbound.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]outbound.Event(nil), p.events...)
}

// Closed reports whether Close was called
func (p *RecordingPublisher) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

var (
	_ outbound.ItemRepository = (*MemoryItemRepository)(nil)
	_ outbound.StoreProber    = StaticProber{}
	_ outbound.Publisher      = (*RecordingPublisher)(nil)
)
