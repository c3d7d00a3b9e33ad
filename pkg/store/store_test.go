// auditcfg/pkg/store/store_test.go

package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rgehrsitz/auditcfg/pkg/config"
	"rgehrsitz/auditcfg/pkg/logging"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}

	store, err := NewRedisStore(context.Background(), s.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return s, store
}

func testSnapshot(t *testing.T) *config.Snapshot {
	snap, err := config.Parse(`[option]
log_level = 'notice'
[rule1]
class = 'ddl, write'
object_type != 'view'
timestamp = '08:00:00-18:00:00'
database = 'postgres'
`)
	require.NoError(t, err)
	return snap
}

func TestPublishAndFetchSnapshot(t *testing.T) {
	s, store := setupMiniredis(t)
	defer s.Close()
	ctx := context.Background()

	snap := testSnapshot(t)
	require.NoError(t, store.PublishSnapshot(ctx, "pgaudit:snapshot", "", snap))

	fetched, err := store.FetchSnapshot(ctx, "pgaudit:snapshot")
	require.NoError(t, err)
	require.NotNil(t, fetched)

	assert.Equal(t, snap.Option, fetched.Option)
	require.Len(t, fetched.Rules, 1)
	assert.Equal(t, snap.Rules[0].Fields, fetched.Rules[0].Fields)
	assert.Equal(t, config.ClassDDL|config.ClassWrite, fetched.Rule("rule1").Field("class").Bitmap)
	assert.Equal(t, "08:00:00", fetched.Rule("rule1").Field("timestamp").Ranges[0].Begin.String())
}

func TestFetchMissingSnapshot(t *testing.T) {
	s, store := setupMiniredis(t)
	defer s.Close()

	snap, err := store.FetchSnapshot(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, snap)
}

func TestFetchCorruptSnapshot(t *testing.T) {
	s, store := setupMiniredis(t)
	defer s.Close()

	require.NoError(t, s.Set("pgaudit:snapshot", "not json"))
	_, err := store.FetchSnapshot(context.Background(), "pgaudit:snapshot")
	assert.Error(t, err)
	assert.True(t, logging.IsType(err, logging.ErrorTypeStore))
}

func TestPublishAnnouncesOnChannel(t *testing.T) {
	s, store := setupMiniredis(t)
	defer s.Close()
	ctx := context.Background()

	pubsub, err := store.Subscribe(ctx, "pgaudit_updates")
	require.NoError(t, err)
	defer pubsub.Close()

	require.NoError(t, store.PublishSnapshot(ctx, "pgaudit:snapshot", "pgaudit_updates", testSnapshot(t)))

	select {
	case msg := <-pubsub.Channel():
		assert.Equal(t, "pgaudit_updates", msg.Channel)
		assert.Equal(t, "pgaudit:snapshot", msg.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("no announcement received")
	}
}

func TestScanSnapshots(t *testing.T) {
	s, store := setupMiniredis(t)
	defer s.Close()
	ctx := context.Background()

	snap := testSnapshot(t)
	for _, key := range []string{"pgaudit:snapshot:db1", "pgaudit:snapshot:db2"} {
		require.NoError(t, store.PublishSnapshot(ctx, key, "", snap))
	}
	require.NoError(t, s.Set("other:key", "x"))

	keys, err := store.ScanSnapshots(ctx, "pgaudit:snapshot:*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"pgaudit:snapshot:db1", "pgaudit:snapshot:db2"}, keys)

	keys, err = store.ScanSnapshots(ctx, "nothing:*")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestNewRedisStoreUnreachable(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	addr := s.Addr()
	s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = NewRedisStore(ctx, addr, "", 0)
	assert.Error(t, err)
	assert.True(t, logging.IsType(err, logging.ErrorTypeStore))
}
