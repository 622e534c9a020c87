package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
	sets map[string]map[string]struct{}
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string), sets: make(map[string]map[string]struct{})}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
		delete(m.sets, key)
	}
	return nil
}

func (m *mockStore) SAdd(ctx context.Context, key string, ttl time.Duration, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]struct{})
		m.sets[key] = set
	}
	for _, member := range members {
		set[member] = struct{}{}
	}
	return nil
}

func (m *mockStore) SRem(ctx context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, member := range members {
		delete(m.sets[key], member)
	}
	return nil
}

func (m *mockStore) SMembers(ctx context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sets[key]))
	for member := range m.sets[key] {
		out = append(out, member)
	}
	return out, nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return fmt.Sprintf("sess:%s", accessID)
}

func (m *mockStore) UserSessionsKey(userID string) string {
	return fmt.Sprintf("user-sess:%s", userID)
}

func newTestManager() (*Manager, *mockStore) {
	store := newMockStore()
	return &Manager{store: store, keyer: store, ttl: time.Hour}, store
}

func TestManagerCreateAndRevoke(t *testing.T) {
	manager, store := newTestManager()
	ctx := context.Background()
	userID := uuid.New()

	accessID, err := manager.Create(ctx, userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ok, err := manager.HasSession(ctx, accessID)
	if err != nil || !ok {
		t.Fatalf("expected live session, ok=%v err=%v", ok, err)
	}
	if got := store.data[store.AccessSessionKey(accessID)]; got != userID.String() {
		t.Fatalf("expected session to hold user id, got %q", got)
	}

	if err := manager.Revoke(ctx, accessID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err = manager.HasSession(ctx, accessID)
	if err != nil || ok {
		t.Fatalf("expected revoked session, ok=%v err=%v", ok, err)
	}
	if len(store.sets[store.UserSessionsKey(userID.String())]) != 0 {
		t.Fatal("expected revoked access id to leave the user set")
	}
}

func TestManagerRevokeUserDropsAllSessions(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()
	userID := uuid.New()
	other := uuid.New()

	first, _ := manager.Create(ctx, userID)
	second, _ := manager.Create(ctx, userID)
	kept, _ := manager.Create(ctx, other)

	if err := manager.RevokeUser(ctx, userID); err != nil {
		t.Fatalf("revoke user: %v", err)
	}
	for _, id := range []string{first, second} {
		if ok, _ := manager.HasSession(ctx, id); ok {
			t.Fatalf("expected session %s to be revoked", id)
		}
	}
	if ok, _ := manager.HasSession(ctx, kept); !ok {
		t.Fatal("expected other user's session to survive")
	}
}

func TestManagerRejectsBlankInput(t *testing.T) {
	manager, _ := newTestManager()
	if _, err := manager.Create(context.Background(), uuid.Nil); err == nil {
		t.Fatal("expected nil user id to fail")
	}
	if _, err := manager.HasSession(context.Background(), " "); err == nil {
		t.Fatal("expected blank access id to fail")
	}
}
