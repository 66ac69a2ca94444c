package comparatif

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbmdata/go-pricing-comparatif/cache"
	"github.com/cbmdata/go-pricing-comparatif/pkg/testsupport"
)

type fakeStore struct {
	total    int
	totalErr error
	rows     []map[string]any
	rowsErr  error

	countCalls int
	dataCalls  int
	lastSQL    string
	lastArgs   []any
}

func (f *fakeStore) Query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	f.dataCalls++
	f.lastSQL = query
	f.lastArgs = args
	return f.rows, f.rowsErr
}

func (f *fakeStore) QueryInt(ctx context.Context, query string, args ...any) (int, error) {
	f.countCalls++
	return f.total, f.totalErr
}

func newTestService(t *testing.T, st *fakeStore, fb *testsupport.FakeBackend) *Service {
	t.Helper()
	gw, err := cache.NewGateway(fb, cache.DefaultTTLPolicy(), testLog)
	require.NoError(t, err)
	return NewService(st, gw, nil, DefaultLimits(), testLog)
}

func TestService_MissThenHit(t *testing.T) {
	ctx := context.Background()
	tarifs := []int{2, 7}
	st := &fakeStore{
		total: 2,
		rows: []map[string]any{
			testsupport.PivotRow(100, tarifs, map[int]float64{2: 10, 7: 25}),
			testsupport.PivotRow(101, tarifs, map[int]float64{2: 12, 7: 12}),
		},
	}
	fb := testsupport.NewFakeBackend()
	svc := newTestService(t, st, fb)

	resp, err := svc.GetComparatif(ctx, FilterPayload{Tarifs: tarifs})
	require.NoError(t, err)
	assert.False(t, resp.Meta.Cached)
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, 1, st.countCalls)
	assert.Equal(t, 1, st.dataCalls)

	// The page and its count live under separate entries.
	assert.Equal(t, 2, fb.Len())

	resp, err = svc.GetComparatif(ctx, FilterPayload{Tarifs: tarifs})
	require.NoError(t, err)
	assert.True(t, resp.Meta.Cached)
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Rows, 2)
	require.NotNil(t, resp.Rows[0].Tarifs["7"].Prix)
	assert.Equal(t, 25.0, *resp.Rows[0].Tarifs["7"].Prix)
	assert.Equal(t, 1, st.countCalls, "hit must not touch the store")
	assert.Equal(t, 1, st.dataCalls)
}

func TestService_EquivalentPayloadsShareEntry(t *testing.T) {
	ctx := context.Background()
	st := &fakeStore{
		total: 1,
		rows:  []map[string]any{testsupport.PivotRow(100, []int{2, 7}, map[int]float64{2: 10, 7: 25})},
	}
	svc := newTestService(t, st, testsupport.NewFakeBackend())

	_, err := svc.GetComparatif(ctx, FilterPayload{Tarifs: []int{7, 2}})
	require.NoError(t, err)

	resp, err := svc.GetComparatif(ctx, FilterPayload{Tarifs: []int{2, 7, 7}})
	require.NoError(t, err)
	assert.True(t, resp.Meta.Cached, "tariff order and duplicates must not fragment the cache")
	assert.Equal(t, 1, st.dataCalls)
}

func TestService_ValidationFailure(t *testing.T) {
	ctx := context.Background()
	st := &fakeStore{}
	svc := newTestService(t, st, testsupport.NewFakeBackend())

	_, err := svc.GetComparatif(ctx, FilterPayload{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, st.countCalls, "invalid payloads never reach the store")

	_, err = svc.GetComparatif(ctx, FilterPayload{Tarifs: []int{1, 2, 3, 4}})
	require.ErrorAs(t, err, &verr)
}

func TestService_CountFailurePropagates(t *testing.T) {
	ctx := context.Background()
	st := &fakeStore{totalErr: errors.New("connection reset")}
	svc := newTestService(t, st, testsupport.NewFakeBackend())

	_, err := svc.GetComparatif(ctx, FilterPayload{Tarifs: []int{2}})
	var qerr *StoreQueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, "count", qerr.Op)
	assert.Zero(t, st.dataCalls)
}

func TestService_DataFailurePropagates(t *testing.T) {
	ctx := context.Background()
	st := &fakeStore{total: 5, rowsErr: errors.New("timeout")}
	svc := newTestService(t, st, testsupport.NewFakeBackend())

	_, err := svc.GetComparatif(ctx, FilterPayload{Tarifs: []int{2}})
	var qerr *StoreQueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, "data", qerr.Op)
}

func TestService_ZeroTotalSkipsDataQuery(t *testing.T) {
	ctx := context.Background()
	st := &fakeStore{total: 0}
	svc := newTestService(t, st, testsupport.NewFakeBackend())

	resp, err := svc.GetComparatif(ctx, FilterPayload{Tarifs: []int{2}, Qualite: "NOPE"})
	require.NoError(t, err)
	assert.Zero(t, resp.Total)
	assert.Empty(t, resp.Rows)
	assert.False(t, resp.Meta.HasMore)
	assert.Equal(t, 1, st.countCalls)
	assert.Zero(t, st.dataCalls, "an empty match set needs no page query")
}

func TestService_CacheOutageFailsOpen(t *testing.T) {
	ctx := context.Background()
	st := &fakeStore{
		total: 1,
		rows:  []map[string]any{testsupport.PivotRow(100, []int{2}, map[int]float64{2: 10})},
	}
	fb := testsupport.NewFakeBackend()
	fb.FailReads = true
	fb.FailWrites = true
	svc := newTestService(t, st, fb)

	resp, err := svc.GetComparatif(ctx, FilterPayload{Tarifs: []int{2}})
	require.NoError(t, err, "cache failures must not break the request path")
	assert.Equal(t, 1, resp.Total)
	assert.False(t, resp.Meta.Cached)
}

func TestService_TTLTiers(t *testing.T) {
	ctx := context.Background()
	st := &fakeStore{
		total: 1,
		rows:  []map[string]any{testsupport.PivotRow(100, []int{2}, map[int]float64{2: 10})},
	}
	fb := testsupport.NewFakeBackend()
	svc := newTestService(t, st, fb)
	policy := cache.DefaultTTLPolicy()

	// Unfiltered requests are performance mode: long retention.
	_, err := svc.GetComparatif(ctx, FilterPayload{Tarifs: []int{2}})
	require.NoError(t, err)
	for _, key := range fb.Keys() {
		if len(key) > 6 && key[len(key)-6:] == ":count" {
			assert.Equal(t, policy.Medium, fb.TTLOf(key))
		} else {
			assert.Equal(t, policy.Long, fb.TTLOf(key))
		}
	}

	// Filtered requests use the short tier.
	fb2 := testsupport.NewFakeBackend()
	svc = newTestService(t, st, fb2)
	_, err = svc.GetComparatif(ctx, FilterPayload{Tarifs: []int{2}, CodPro: 100})
	require.NoError(t, err)
	for _, key := range fb2.Keys() {
		if len(key) > 6 && key[len(key)-6:] == ":count" {
			assert.Equal(t, policy.Medium, fb2.TTLOf(key))
		} else {
			assert.Equal(t, policy.Short, fb2.TTLOf(key))
		}
	}
}

func TestService_Invalidate(t *testing.T) {
	ctx := context.Background()
	st := &fakeStore{
		total: 1,
		rows:  []map[string]any{testsupport.PivotRow(100, []int{2}, map[int]float64{2: 10})},
	}
	fb := testsupport.NewFakeBackend()
	svc := newTestService(t, st, fb)

	_, err := svc.GetComparatif(ctx, FilterPayload{Tarifs: []int{2}})
	require.NoError(t, err)
	require.Equal(t, 2, fb.Len())

	n, err := svc.Invalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "page and count entries are both purged")
	assert.Zero(t, fb.Len())

	// Next request recomputes.
	_, err = svc.GetComparatif(ctx, FilterPayload{Tarifs: []int{2}})
	require.NoError(t, err)
	assert.Equal(t, 2, st.dataCalls)
}

func TestService_InvalidatePurgesSlashFilterEntries(t *testing.T) {
	ctx := context.Background()
	st := &fakeStore{
		total: 1,
		rows:  []map[string]any{testsupport.PivotRow(100, []int{2}, map[int]float64{2: 10})},
	}
	fb := testsupport.NewFakeBackend()
	svc := newTestService(t, st, fb)

	// A refint filter with a slash lands verbatim in the inline cache key;
	// invalidation must still catch it.
	_, err := svc.GetComparatif(ctx, FilterPayload{Tarifs: []int{2}, Refint: "A/B"})
	require.NoError(t, err)
	require.Equal(t, 2, fb.Len())

	n, err := svc.Invalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "entries keyed on slash-bearing filters must not survive")
	assert.Zero(t, fb.Len())
}
