package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbmdata/go-pricing-comparatif/cache"
	"github.com/cbmdata/go-pricing-comparatif/pkg/testsupport"
)

func newCachedQuerier(t *testing.T, mockCfg Config) (*CachedQuerier, sqlmock.Sqlmock, *testsupport.FakeBackend) {
	t.Helper()
	db, mock := newMockDB(t, mockCfg)
	fb := testsupport.NewFakeBackend()
	gw, err := cache.NewGateway(fb, cache.DefaultTTLPolicy(), testLog)
	require.NoError(t, err)
	return NewCachedQuerier(db, gw, nil), mock, fb
}

func TestCachedQuerier_SecondCallServedFromCache(t *testing.T) {
	cq, mock, fb := newCachedQuerier(t, Config{})
	ctx := context.Background()

	// The store is expected to be hit exactly once.
	mock.ExpectQuery("SELECT qualite").WillReturnRows(
		sqlmock.NewRows([]string{"qualite", "n"}).AddRow("OEM", int64(12)),
	)

	first, err := cq.Query(ctx, "SELECT qualite, COUNT(*) AS n FROM t GROUP BY qualite", nil, time.Minute)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, fb.Len())

	second, err := cq.Query(ctx, "SELECT qualite, COUNT(*) AS n FROM t GROUP BY qualite", nil, time.Minute)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "OEM", second[0]["qualite"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedQuerier_WhitespaceInsensitiveKeys(t *testing.T) {
	cq, mock, _ := newCachedQuerier(t, Config{})
	ctx := context.Background()

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(int64(1)))

	_, err := cq.Query(ctx, "SELECT 1   AS n", nil, time.Minute)
	require.NoError(t, err)

	// Reformatted statement lands on the same entry; no second store hit.
	_, err = cq.Query(ctx, "SELECT 1\n\tAS n", nil, time.Minute)
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedQuerier_ArgsPartitionEntries(t *testing.T) {
	cq, mock, fb := newCachedQuerier(t, Config{})
	ctx := context.Background()

	mock.ExpectQuery("SELECT n").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT n").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(int64(2)))

	_, err := cq.Query(ctx, "SELECT n FROM t WHERE q = $1", []any{"OEM"}, time.Minute)
	require.NoError(t, err)
	_, err = cq.Query(ctx, "SELECT n FROM t WHERE q = $1", []any{"PMQ"}, time.Minute)
	require.NoError(t, err)

	assert.Equal(t, 2, fb.Len(), "different arguments must not collide")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedQuerier_Invalidate(t *testing.T) {
	cq, mock, fb := newCachedQuerier(t, Config{})
	ctx := context.Background()

	mock.ExpectQuery("SELECT n").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(int64(1)))

	_, err := cq.Query(ctx, "SELECT n FROM t", nil, time.Minute)
	require.NoError(t, err)

	n, err := cq.Invalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Zero(t, fb.Len())
}
