package memory

import (
	"context"
	"sync"

	"philosophers-service/internal/app"
	"philosophers-service/internal/domain"
)

// Locker hands out one mutex per key; entries are dropped once nobody holds them.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*keyLock)}
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, lock)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lock.ch
			l.release(key, lock)
		})
	}, nil
}

func (l *Locker) release(key string, lock *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, key)
	}
}

// BlobStore keeps blobs in a map.
type BlobStore struct {
	mu    sync.RWMutex
	blobs map[string]blob
}

type blob struct {
	contentType string
	data        []byte
}

func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[string]blob)}
}

func (b *BlobStore) Put(_ context.Context, key, contentType string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	b.blobs[key] = blob{contentType: contentType, data: cp}
	return nil
}

func (b *BlobStore) Get(_ context.Context, key string) ([]byte, string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.blobs[key]
	if !ok {
		return nil, "", domain.ErrFileNotFound
	}
	return v.data, v.contentType, nil
}

func (b *BlobStore) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.blobs, key)
	return nil
}

// Len reports the number of stored blobs.
func (b *BlobStore) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.blobs)
}

// Capabilities is a static capability registry, usually filled from configuration.
// Every authenticated user may view games unless ViewersAll is off, in which case
// only listed viewers and managers can.
type Capabilities struct {
	mu         sync.RWMutex
	managers   map[int64]map[int64]bool
	viewers    map[int64]map[int64]bool
	names      map[int64]string
	viewersAll bool
}

func NewCapabilities(viewersAll bool) *Capabilities {
	return &Capabilities{
		managers:   make(map[int64]map[int64]bool),
		viewers:    make(map[int64]map[int64]bool),
		names:      make(map[int64]string),
		viewersAll: viewersAll,
	}
}

func (c *Capabilities) Grant(capability app.Capability, gameID int64, userIDs ...int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	target := c.viewers
	if capability == app.CapabilityManage {
		target = c.managers
	}
	if target[gameID] == nil {
		target[gameID] = make(map[int64]bool)
	}
	for _, id := range userIDs {
		target[gameID][id] = true
	}
}

// SetName registers the display name of a user.
func (c *Capabilities) SetName(userID int64, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[userID] = name
}

func (c *Capabilities) HasCapability(_ context.Context, capability app.Capability, gameID, userID int64) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch capability {
	case app.CapabilityManage:
		return c.managers[gameID][userID], nil
	case app.CapabilityView:
		return c.viewersAll || c.viewers[gameID][userID], nil
	}
	return false, nil
}

func (c *Capabilities) UserName(_ context.Context, userID int64) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.names[userID], nil
}

// EventRecorder keeps published events for inspection.
type EventRecorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

func (r *EventRecorder) Publish(_ context.Context, event domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *EventRecorder) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Event, len(r.events))
	copy(out, r.events)
	return out
}
