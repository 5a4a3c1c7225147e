package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/exportable/pkg/record"
	"mercator-hq/exportable/pkg/store"
)

var tankType = record.MustType("tank", []record.Field{
	{Name: "tank_id", Alias: "_id", Kind: record.KindInt, Required: true},
	{Name: "name", Alias: "n", Kind: record.KindString, Default: ""},
	{Name: "tier", Alias: "t", Kind: record.KindInt, Default: 1},
	{Name: "premium", Kind: record.KindBool, Nullable: true},
	{Name: "tags", Kind: record.KindList, Elem: record.KindString},
}, record.WithIndex("tank_id"))

var noteType = record.MustType("note", []record.Field{
	{Name: "text", Kind: record.KindString},
})

func tank(t *testing.T, raw string) *record.Record {
	t.Helper()
	rec, err := tankType.Read(raw)
	require.NoError(t, err)
	return rec
}

// backends returns a fresh instance of every backend.
func backends(t *testing.T) map[string]store.Store {
	t.Helper()
	out := map[string]store.Store{"memory": store.NewMemoryStore()}
	for _, driver := range []string{store.DriverCGO, store.DriverPureGo} {
		s, err := store.NewSQLiteStore(&store.SQLiteConfig{
			Path:         filepath.Join(t.TempDir(), driver+".db"),
			Driver:       driver,
			MaxOpenConns: 5,
			MaxIdleConns: 2,
			WALMode:      true,
			BusyTimeout:  5 * time.Second,
		})
		require.NoError(t, err, driver)
		out["sqlite/"+driver] = s
	}
	for _, s := range out {
		t.Cleanup(func() { s.Close() })
	}
	return out
}

func drain(t *testing.T, recordsCh <-chan *record.Record, errCh <-chan error) ([]*record.Record, error) {
	t.Helper()
	var out []*record.Record
	for rec := range recordsCh {
		out = append(out, rec)
	}
	return out, <-errCh
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			in := tank(t, `{"tank_id": 1, "name": "T-34", "tier": 5, "premium": null, "tags": ["medium", "soviet"]}`)
			require.NoError(t, s.Put(ctx, in))

			got, err := s.Get(ctx, tankType, record.NewKey(1))
			require.NoError(t, err)
			assert.True(t, record.Equal(in, got))
			assert.Equal(t, []any{"medium", "soviet"}, got.Value("tags"))

			body, err := got.DumpJSON(record.ViewDB)
			require.NoError(t, err)
			want, err := in.DumpJSON(record.ViewDB)
			require.NoError(t, err)
			assert.JSONEq(t, string(want), string(body))
		})
	}
}

func TestStore_DefaultsReadBackUnset(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, tank(t, `{"tank_id": 2, "tier": 1}`)))

			got, err := s.Get(ctx, tankType, record.NewKey(2))
			require.NoError(t, err)
			assert.False(t, got.IsSet("tier"))
			assert.Equal(t, int64(1), got.GetInt("tier"))
		})
	}
}

func TestStore_ReplaceKeepsOrder(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, raw := range []string{
				`{"tank_id": 3, "name": "KV-1"}`,
				`{"tank_id": 1, "name": "T-34"}`,
				`{"tank_id": 2, "name": "IS-2"}`,
			} {
				require.NoError(t, s.Put(ctx, tank(t, raw)))
			}
			require.NoError(t, s.Put(ctx, tank(t, `{"tank_id": 3, "name": "KV-2"}`)))

			n, err := s.Count(ctx, tankType)
			require.NoError(t, err)
			assert.Equal(t, int64(3), n)

			recordsCh, errCh := s.Stream(ctx, tankType)
			recs, err := drain(t, recordsCh, errCh)
			require.NoError(t, err)
			names := make([]string, len(recs))
			for i, r := range recs {
				names[i] = r.GetString("name")
			}
			assert.Equal(t, []string{"KV-2", "T-34", "IS-2"}, names)
		})
	}
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, tank(t, `{"tank_id": 1}`)))
			require.NoError(t, s.Delete(ctx, tankType, record.NewKey(1)))

			_, err := s.Get(ctx, tankType, record.NewKey(1))
			assert.ErrorIs(t, err, store.ErrNotFound)

			err = s.Delete(ctx, tankType, record.NewKey(1))
			assert.ErrorIs(t, err, store.ErrNotFound)

			var storageErr *store.StorageError
			require.True(t, errors.As(err, &storageErr))
			assert.Equal(t, "delete", storageErr.Operation)
		})
	}
}

func TestStore_RequiresIdentity(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			note, err := noteType.Read(`{"text": "hello"}`)
			require.NoError(t, err)

			assert.ErrorIs(t, s.Put(ctx, note), record.ErrNoIdentity)
			_, err = s.Get(ctx, noteType, record.NewKey("hello"))
			assert.ErrorIs(t, err, record.ErrNoIdentity)
		})
	}
}

func TestStore_StreamCancelled(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			for i := 1; i <= 300; i++ {
				rec := tankType.New()
				require.NoError(t, rec.Set("tank_id", i))
				require.NoError(t, s.Put(ctx, rec))
			}

			recordsCh, errCh := s.Stream(ctx, tankType)
			<-recordsCh
			cancel()

			got := 1
			for range recordsCh {
				got++
			}
			assert.Less(t, got, 300)
			assert.ErrorIs(t, <-errCh, context.Canceled)
		})
	}
}

func TestStore_TypesAreSeparate(t *testing.T) {
	ctx := context.Background()
	other := record.MustType("other_tank", tankType.Fields(), record.WithIndex("tank_id"))

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, tank(t, `{"tank_id": 1}`)))

			n, err := s.Count(ctx, other)
			require.NoError(t, err)
			assert.Zero(t, n)

			_, err = s.Get(ctx, other, record.NewKey(1))
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	}
}

func TestOpen(t *testing.T) {
	s, err := store.Open(store.BackendMemory, nil)
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, s)

	s, err = store.Open(store.BackendSQLite, &store.SQLiteConfig{Path: filepath.Join(t.TempDir(), "r.db"), Driver: store.DriverPureGo})
	require.NoError(t, err)
	assert.IsType(t, &store.SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = store.Open("postgres", nil)
	assert.Error(t, err)

	_, err = store.NewSQLiteStore(&store.SQLiteConfig{Path: "x.db", Driver: "mysql"})
	assert.Error(t, err)
}
