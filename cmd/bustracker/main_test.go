package main

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bus-tracker/internal/config"
	"bus-tracker/internal/sim"
	"bus-tracker/internal/transit"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestTrackPrintsFeed(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	var out syncBuffer
	err := track(ctx, &out, transit.DefaultRegistry(), "BUS003", sim.Options{
		PositionInterval: 3 * time.Millisecond,
		StatusInterval:   5 * time.Millisecond,
		Seed:             9,
	}, 4*time.Millisecond)
	require.NoError(t, err)

	s := out.String()
	assert.True(t, strings.HasPrefix(s, "Rapid Transit (#"), s)
	assert.Contains(t, s, "Business District -> Shopping Mall")
	assert.Contains(t, s, "next stop Downtown Terminal in 5 min, 25 mph, 2.3 km away")
	assert.Contains(t, s, "  position ")
}

func TestTrackUnknownBus(t *testing.T) {
	var out syncBuffer
	err := track(context.Background(), &out, transit.DefaultRegistry(), "BUS999", sim.Options{}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bus not found")
	assert.Empty(t, out.String())
}

func TestPrintRoutes(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printRoutes(&out, transit.DefaultRegistry().Search(transit.Query{From: "medical"})))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "BUS004")
	assert.Contains(t, lines[1], "$15.00")
}

func TestOpenStoreMemory(t *testing.T) {
	kv, closeStore, err := openStore(context.Background(), &config.Config{StoreBackend: config.BackendMemory})
	require.NoError(t, err)
	defer closeStore()

	require.NoError(t, kv.Set(context.Background(), "k", "v"))
	v, ok, err := kv.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestOpenStoreSQLite(t *testing.T) {
	kv, closeStore, err := openStore(context.Background(), &config.Config{
		StoreBackend:   config.BackendSQLite,
		SQLitePath:     ":memory:",
		StoreNamespace: "test",
	})
	require.NoError(t, err)
	defer closeStore()

	require.NoError(t, kv.Set(context.Background(), "bus-favorites", `["BUS001"]`))
	v, ok, err := kv.Get(context.Background(), "bus-favorites")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `["BUS001"]`, v)
}

func TestSimOptionsUseConfiguredZone(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	opts := simOptions(&config.Config{
		PositionInterval: time.Second,
		StatusInterval:   2 * time.Second,
		RandomSeed:       7,
		Location:         loc,
	})
	assert.Equal(t, time.Second, opts.PositionInterval)
	assert.Equal(t, 2*time.Second, opts.StatusInterval)
	assert.Equal(t, uint64(7), opts.Seed)
	require.NotNil(t, opts.Clock)
	assert.Equal(t, loc, opts.Clock().Location())

	assert.Nil(t, simOptions(&config.Config{}).Clock)
}

func TestLoadConfigWithoutStoreIgnoresIncompletePostgres(t *testing.T) {
	for _, k := range []string{"DATABASE_URL", "PG_DSN", "PGDATABASE", "TZ", "LOG_FORMAT", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	t.Setenv("STORE_BACKEND", "postgres")

	_, err := loadConfig(true)
	require.Error(t, err)

	cfg, err := loadConfig(false)
	require.NoError(t, err)
	assert.Empty(t, cfg.StoreBackend)
}
