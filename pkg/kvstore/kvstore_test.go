package kvstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/kvstore"
)

type store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

func backends(t *testing.T) map[string]store {
	t.Helper()

	file, err := kvstore.OpenFile(filepath.Join(t.TempDir(), "nested", "session.json"))
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sqlite, err := kvstore.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]store{
		"memory": kvstore.NewMemory(),
		"file":   file,
		"redis":  kvstore.NewRedis(client, "test:"),
		"sqlite": sqlite,
	}
}

func TestStores_Contract(t *testing.T) {
	t.Parallel()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			_, ok, err := s.Get(ctx, "token")
			require.NoError(t, err)
			assert.False(t, ok, "missing key must report ok=false")

			require.NoError(t, s.Set(ctx, "token", "abc"))
			require.NoError(t, s.Set(ctx, "user", `{"id":"1"}`))
			require.NoError(t, s.Set(ctx, "token", "def"))

			v, ok, err := s.Get(ctx, "token")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "def", v)

			require.NoError(t, s.Set(ctx, "empty", ""))
			v, ok, err = s.Get(ctx, "empty")
			require.NoError(t, err)
			assert.True(t, ok, "empty value is still present")
			assert.Empty(t, v)

			require.NoError(t, s.Delete(ctx, "token", "user", "never-set"))
			_, ok, err = s.Get(ctx, "token")
			require.NoError(t, err)
			assert.False(t, ok)
			_, ok, err = s.Get(ctx, "user")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Delete(ctx))
			assert.ErrorIs(t, s.Set(ctx, "", "x"), kvstore.ErrEmptyKey)
		})
	}
}

func TestFile_PersistsAcrossOpen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	first, err := kvstore.OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(context.Background(), "refreshToken", "r1"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := kvstore.OpenFile(path)
	require.NoError(t, err)
	v, ok, err := second.Get(context.Background(), "refreshToken")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "r1", v)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFile_Corrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := kvstore.OpenFile(path)
	assert.ErrorIs(t, err, kvstore.ErrCorruptFile)

	_, err = kvstore.OpenFile("")
	assert.ErrorIs(t, err, kvstore.ErrEmptyPath)
}

func TestRedis_Prefix(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := kvstore.NewRedis(client, "app:")
	require.NoError(t, s.Set(context.Background(), "token", "abc"))

	got, err := mr.Get("app:token")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
	assert.False(t, mr.Exists("token"))
	require.NoError(t, s.Healthcheck(context.Background()))
}

func TestDialRedis(t *testing.T) {
	t.Parallel()

	t.Run("connects", func(t *testing.T) {
		t.Parallel()
		mr := miniredis.RunT(t)
		client, err := kvstore.DialRedis(context.Background(), kvstore.RedisConfig{
			ConnectionURL:  "redis://" + mr.Addr() + "/0",
			RetryAttempts:  2,
			RetryInterval:  10 * time.Millisecond,
			ConnectTimeout: time.Second,
		})
		require.NoError(t, err)
		assert.NoError(t, client.Close())
	})

	t.Run("invalid url", func(t *testing.T) {
		t.Parallel()
		_, err := kvstore.DialRedis(context.Background(), kvstore.RedisConfig{ConnectionURL: "http://nope"})
		assert.ErrorIs(t, err, kvstore.ErrRedisURL)
	})

	t.Run("unreachable", func(t *testing.T) {
		t.Parallel()
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := kvstore.DialRedis(context.Background(), kvstore.RedisConfig{
			ConnectionURL:  "redis://" + addr + "/0",
			RetryAttempts:  2,
			RetryInterval:  10 * time.Millisecond,
			ConnectTimeout: time.Second,
		})
		assert.ErrorIs(t, err, kvstore.ErrRedisNotReady)
	})
}
