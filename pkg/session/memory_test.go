package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLiveSession(phone string) *Session {
	now := time.Now()
	return &Session{
		Phone:          phone,
		ConnectionID:   "conn-1",
		DatasetID:      "ds-1",
		DatasetName:    "Vendas",
		SelectedAt:     now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(DefaultTTL),
	}
}

func TestMemoryStore_GetAbsent(t *testing.T) {
	store := NewMemoryStore(DefaultTTL)
	got, err := store.Get(context.Background(), "5511988880000")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_UpsertAndGet(t *testing.T) {
	store := NewMemoryStore(DefaultTTL)
	sess := newLiveSession("5511988880000")

	require.NoError(t, store.Upsert(context.Background(), sess))

	got, err := store.Get(context.Background(), sess.Phone)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ds-1", got.DatasetID)
}

func TestMemoryStore_UpsertReplaces(t *testing.T) {
	store := NewMemoryStore(DefaultTTL)
	sess := newLiveSession("5511988880000")
	require.NoError(t, store.Upsert(context.Background(), sess))

	sess.DatasetID = "ds-2"
	sess.DatasetName = "Financeiro"
	require.NoError(t, store.Upsert(context.Background(), sess))

	got, err := store.Get(context.Background(), sess.Phone)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ds-2", got.DatasetID)
}

func TestMemoryStore_GetExpired(t *testing.T) {
	store := NewMemoryStore(DefaultTTL)
	sess := newLiveSession("5511988880000")
	sess.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, store.Upsert(context.Background(), sess))

	got, err := store.Get(context.Background(), sess.Phone)
	require.NoError(t, err)
	assert.Nil(t, got, "expired session behaves identically to no session")
}

func TestMemoryStore_TouchExtendsExpiry(t *testing.T) {
	store := NewMemoryStore(DefaultTTL)
	sess := newLiveSession("5511988880000")
	sess.ExpiresAt = time.Now().Add(time.Hour)
	require.NoError(t, store.Upsert(context.Background(), sess))

	require.NoError(t, store.Touch(context.Background(), sess.Phone))

	got, err := store.Get(context.Background(), sess.Phone)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.WithinDuration(t, time.Now().Add(DefaultTTL), got.ExpiresAt, 2*time.Second)
}

func TestMemoryStore_TouchExpiredIsNoop(t *testing.T) {
	store := NewMemoryStore(DefaultTTL)
	sess := newLiveSession("5511988880000")
	sess.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, store.Upsert(context.Background(), sess))

	require.NoError(t, store.Touch(context.Background(), sess.Phone))

	got, err := store.Get(context.Background(), sess.Phone)
	require.NoError(t, err)
	assert.Nil(t, got, "touch must not resurrect an expired session")
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore(DefaultTTL)
	sess := newLiveSession("5511988880000")
	require.NoError(t, store.Upsert(context.Background(), sess))

	require.NoError(t, store.Delete(context.Background(), sess.Phone))

	got, err := store.Get(context.Background(), sess.Phone)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_Cleanup(t *testing.T) {
	store := NewMemoryStore(DefaultTTL)
	live := newLiveSession("5511988880001")
	expired := newLiveSession("5511988880002")
	expired.ExpiresAt = time.Now().Add(-time.Minute)

	require.NoError(t, store.Upsert(context.Background(), live))
	require.NoError(t, store.Upsert(context.Background(), expired))

	require.NoError(t, store.Cleanup(context.Background()))

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.sessions, 1)
}

func TestMemoryStore_CloseWithoutRoutine(t *testing.T) {
	store := NewMemoryStore(DefaultTTL)
	assert.NoError(t, store.Close())
}

func TestMemoryStore_CleanupRoutine(t *testing.T) {
	store := NewMemoryStore(DefaultTTL)
	expired := newLiveSession("5511988880002")
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, store.Upsert(context.Background(), expired))

	store.StartCleanupRoutine(10 * time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, store.Close())

	got, err := store.Get(context.Background(), expired.Phone)
	require.NoError(t, err)
	assert.Nil(t, got)
}
