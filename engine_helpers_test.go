package adminAuth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/adminAuth/password"
	"github.com/MrEthical07/adminAuth/permission"
	"github.com/google/uuid"
)

const testPassword = "correct-password-123"

type testDirectory struct {
	mu       sync.Mutex
	accounts map[int64]*UserAccount
	nextID   int64

	findCalls   int
	byIDCalls   int
	byUUIDCalls int
	failWith    error
}

func newTestDirectory() *testDirectory {
	return &testDirectory{accounts: make(map[int64]*UserAccount)}
}

func (d *testDirectory) add(t testing.TB, email, phone, pw string, active bool) UserAccount {
	t.Helper()
	h, err := password.NewHasher(password.Config{})
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	salt, err := h.GenerateSalt()
	if err != nil {
		t.Fatalf("salt: %v", err)
	}
	hash, err := h.Hash(salt, pw)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	acc := &UserAccount{
		ID:           d.nextID,
		UUID:         uuid.NewString(),
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Salt:         salt,
		IsActive:     active,
	}
	d.accounts[acc.ID] = acc
	return *acc
}

func (d *testDirectory) get(id int64) UserAccount {
	d.mu.Lock()
	defer d.mu.Unlock()
	return *d.accounts[id]
}

func (d *testDirectory) remove(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.accounts, id)
}

func (d *testDirectory) mutate(id int64, fn func(*UserAccount)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.accounts[id])
}

func (d *testDirectory) FindManyByCredentialString(_ context.Context, login string) ([]UserAccount, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.findCalls++
	if d.failWith != nil {
		return nil, d.failWith
	}
	var out []UserAccount
	for _, a := range d.accounts {
		if a.Email == login || a.Phone == login {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (d *testDirectory) GetByID(_ context.Context, id int64) (UserAccount, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byIDCalls++
	if d.failWith != nil {
		return UserAccount{}, d.failWith
	}
	a, ok := d.accounts[id]
	if !ok {
		return UserAccount{}, ErrAccountNotFound
	}
	return *a, nil
}

func (d *testDirectory) GetByUUID(_ context.Context, id string) (UserAccount, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byUUIDCalls++
	if d.failWith != nil {
		return UserAccount{}, d.failWith
	}
	for _, a := range d.accounts {
		if a.UUID == id {
			return *a, nil
		}
	}
	return UserAccount{}, ErrAccountNotFound
}

func (d *testDirectory) IncrementFailedAttempts(_ context.Context, id int64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.accounts[id]
	if !ok {
		return 0, ErrAccountNotFound
	}
	a.FailedLoginAttempts++
	return a.FailedLoginAttempts, nil
}

func (d *testDirectory) SetLockedOut(_ context.Context, id int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	a.IsLockedOut = true
	return nil
}

type testPermissions struct {
	mu    sync.Mutex
	perms map[int64][]permission.Permission
	calls int
}

func newTestPermissions() *testPermissions {
	return &testPermissions{perms: make(map[int64][]permission.Permission)}
}

func (p *testPermissions) set(id int64, perms ...permission.Permission) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.perms[id] = perms
}

func (p *testPermissions) GetPermissionsForUser(_ context.Context, id int64) ([]permission.Permission, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return append([]permission.Permission(nil), p.perms[id]...), nil
}

type recordingHandler struct {
	mu     sync.Mutex
	events []NotificationEvent
}

func (r *recordingHandler) handle(_ context.Context, event NotificationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingHandler) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Name)
	}
	return out
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEngine struct {
	engine *Engine
	dir    *testDirectory
	perms  *testPermissions
	events *recordingHandler
	clock  *testClock
}

// newTestEngine builds an engine with synchronous notifications, metrics on
// and a controllable clock. mutate may adjust the config and opts the builder
// before Build.
func newTestEngine(t testing.TB, mutate func(*Config), opts ...func(*Builder)) *testEngine {
	t.Helper()

	cfg := validTestConfig()
	cfg.Notifications.Async = false
	cfg.Metrics.Enabled = true
	if mutate != nil {
		mutate(&cfg)
	}

	te := &testEngine{
		dir:    newTestDirectory(),
		perms:  newTestPermissions(),
		events: &recordingHandler{},
		clock:  &testClock{now: time.Now()},
	}

	registry := NewNotificationRegistry(nil)
	registry.SubscribeAll(te.events.handle, AllEvents()...)

	b := New().
		WithConfig(cfg).
		WithUserDirectory(te.dir).
		WithPermissionStore(te.perms).
		WithNotificationRegistry(registry).
		WithClock(te.clock.Now)
	for _, opt := range opts {
		opt(b)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	t.Cleanup(engine.Close)
	te.engine = engine
	return te
}

var errStoreDown = errors.New("store down")
