package di

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbmdata/go-pricing-comparatif/config"
)

func testConfig() config.Config {
	return config.Config{
		LogLevel: "debug",
		Cache: config.CacheConfig{
			Backend:        "memory",
			TTLShort:       5 * time.Minute,
			TTLMedium:      30 * time.Minute,
			TTLLong:        time.Hour,
			KeyThreshold:   150,
			MemoryCapacity: 1000,
		},
		Comparatif: config.ComparatifConfig{
			DefaultLimit: 100,
			MaxLimit:     200,
			ExportLimit:  999999,
		},
	}
}

func TestNew_BuildsFullGraph(t *testing.T) {
	sqldb, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqldb.Close()

	c, err := New(testConfig(), sqldb, nil)
	require.NoError(t, err)

	assert.NotNil(t, c.Gateway())
	assert.NotNil(t, c.KeyDeriver())
	assert.NotNil(t, c.DB())
	assert.NotNil(t, c.Comparatif())
	assert.NotNil(t, c.Tariffs())
	assert.NotNil(t, c.CachedQuerier())
	assert.NotNil(t, c.Logger())
	assert.Equal(t, "memory", c.Config().Cache.Backend)
}

func TestNew_GatewayCarriesConfiguredTiers(t *testing.T) {
	sqldb, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqldb.Close()

	cfg := testConfig()
	cfg.Cache.TTLShort = time.Minute
	cfg.Cache.TTLMedium = 2 * time.Minute
	cfg.Cache.TTLLong = 3 * time.Minute

	c, err := New(cfg, sqldb, nil)
	require.NoError(t, err)

	ttl := c.Gateway().TTL()
	assert.Equal(t, time.Minute, ttl.Short)
	assert.Equal(t, 2*time.Minute, ttl.Medium)
	assert.Equal(t, 3*time.Minute, ttl.Long)
}

func TestNew_RejectsUnknownBackend(t *testing.T) {
	sqldb, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqldb.Close()

	cfg := testConfig()
	cfg.Cache.Backend = "memcached"

	_, err = New(cfg, sqldb, nil)
	require.Error(t, err)
}

func TestNew_RejectsBadTTLOrdering(t *testing.T) {
	sqldb, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqldb.Close()

	cfg := testConfig()
	cfg.Cache.TTLShort = 2 * time.Hour

	_, err = New(cfg, sqldb, nil)
	require.Error(t, err)
}

func TestNewLogger_FallsBackToInfo(t *testing.T) {
	assert.NotNil(t, NewLogger("nonsense"))
	assert.NotNil(t, NewLogger("warn"))
}
