package storage_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/evalify/internal/db"
	"github.com/mind-engage/evalify/internal/storage"
)

func openSQLite(t *testing.T) storage.KV {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	h, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return storage.NewSQLKV(h)
}

func stores(t *testing.T) map[string]storage.KV {
	fs, err := storage.NewFSKV(t.TempDir())
	require.NoError(t, err)
	return map[string]storage.KV{
		"memory": storage.NewMemoryKV(),
		"fs":     fs,
		"sql":    openSQLite(t),
	}
}

func TestKV_Contract(t *testing.T) {
	ctx := context.Background()
	for _, name := range []string{"memory", "fs", "sql"} {
		t.Run(name, func(t *testing.T) {
			kv := stores(t)[name]

			_, err := kv.Get(ctx, "evalify_results")
			assert.ErrorIs(t, err, storage.ErrNotFound)

			require.NoError(t, kv.Put(ctx, "evalify_results", []byte(`[1]`)))
			got, err := kv.Get(ctx, "evalify_results")
			require.NoError(t, err)
			assert.Equal(t, `[1]`, string(got))

			require.NoError(t, kv.Put(ctx, "evalify_results", []byte(`[2,1]`)))
			got, err = kv.Get(ctx, "evalify_results")
			require.NoError(t, err)
			assert.Equal(t, `[2,1]`, string(got), "put overwrites the whole slot")

			_, err = kv.Get(ctx, "teacher_tests")
			assert.ErrorIs(t, err, storage.ErrNotFound, "slots are independent")
		})
	}
}

func TestMemoryKV_CopiesValues(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	in := []byte("abc")
	require.NoError(t, kv.Put(ctx, "s", in))
	in[0] = 'x'

	out, err := kv.Get(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))
	out[0] = 'y'

	again, _ := kv.Get(ctx, "s")
	assert.Equal(t, "abc", string(again))
}

func TestFSKV_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	kv, err := storage.NewFSKV(dir)
	require.NoError(t, err)

	require.NoError(t, kv.Put(context.Background(), "evalify_results", []byte("[]")))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "evalify_results.json", entries[0].Name())
}

func TestFSKV_RejectsPathSlots(t *testing.T) {
	kv, err := storage.NewFSKV(t.TempDir())
	require.NoError(t, err)
	for _, slot := range []string{"", "..", "../x", "a/b"} {
		assert.Error(t, kv.Put(context.Background(), slot, []byte("x")), slot)
	}
}

func TestFSStore_RoundTripsUnderBase(t *testing.T) {
	base := t.TempDir()
	bs, err := storage.NewFSStore(base)
	require.NoError(t, err)

	key, err := bs.Put("uploads/s1/answer.png", strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, "uploads/s1/answer.png", key)

	rc, err := bs.Get(key)
	require.NoError(t, err)
	defer rc.Close()
	buf := make([]byte, 3)
	_, err = rc.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "img", string(buf))

	p, err := bs.Path("../../etc/passwd")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p, base+string(filepath.Separator)), p)

	_, err = bs.Put("", strings.NewReader(""))
	assert.ErrorIs(t, err, storage.ErrBadKey)
}
