package dashboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"nhsdash/internal/dataset"
	"nhsdash/internal/shared/testutil"
)

type MockObserver struct {
	mock.Mock
}

func (m *MockObserver) ObserveRender(ctx context.Context, view string, cached bool, duration time.Duration, err error) {
	m.Called(view, cached, err)
}

func TestRenderer_CachesKnownSelections(t *testing.T) {
	table := fixtureTable(t)
	obs := new(MockObserver)
	obs.On("ObserveRender", ViewSummary, false, nil).Once()
	obs.On("ObserveRender", ViewSummary, true, nil).Once()

	logger, _ := testutil.NewTestLogger(t)
	r := NewRenderer(table, WithObserver(obs), WithLogger(logger))

	first, err := r.Render(context.Background(), ViewSummary, "London")
	require.NoError(t, err)
	second, err := r.Render(context.Background(), ViewSummary, "London")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, r.CacheSize())
	obs.AssertExpectations(t)
}

func TestRenderer_DoesNotCacheUnknownProviders(t *testing.T) {
	r := NewRenderer(fixtureTable(t))

	for i := 0; i < 3; i++ {
		a, err := r.Render(context.Background(), ViewSummary, "Nowhere")
		require.NoError(t, err)
		assert.Equal(t, "Nowhere", a.Provider)
	}
	assert.Zero(t, r.CacheSize())
}

func TestRenderer_UnknownView(t *testing.T) {
	obs := new(MockObserver)
	obs.On("ObserveRender", "tab-x", false, mock.Anything).Once()

	logger, logs := testutil.NewTestLogger(t)
	r := NewRenderer(fixtureTable(t), WithObserver(obs), WithLogger(logger))

	_, err := r.Render(context.Background(), "tab-x", dataset.AllProviders)
	assert.ErrorIs(t, err, ErrUnknownView)
	assert.Zero(t, r.CacheSize())
	assert.True(t, logs.ContainsMessage("render failed"))
	obs.AssertExpectations(t)
}

func TestRenderer_CacheDisabled(t *testing.T) {
	r := NewRenderer(fixtureTable(t), WithCache(false))

	_, err := r.Render(context.Background(), ViewTopTen, dataset.AllProviders)
	require.NoError(t, err)
	assert.Zero(t, r.CacheSize())
}

func TestRenderer_CancelledContext(t *testing.T) {
	r := NewRenderer(fixtureTable(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Render(ctx, ViewSummary, dataset.AllProviders)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderer_Warm(t *testing.T) {
	table := fixtureTable(t)
	r := NewRenderer(table)

	require.NoError(t, r.Warm(context.Background()))
	assert.Equal(t, len(Views())*(len(table.Providers())+1), r.CacheSize())
}

func TestRenderer_ConcurrentRenders(t *testing.T) {
	table := fixtureTable(t)
	r := NewRenderer(table)

	want, err := Render(table, ViewScatter, dataset.AllProviders)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]Artifact, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := r.Render(context.Background(), ViewScatter, dataset.AllProviders)
			assert.NoError(t, err)
			results[i] = a
		}(i)
	}
	wg.Wait()

	for _, a := range results {
		assert.Equal(t, want, a)
	}
	assert.Equal(t, 1, r.CacheSize())
}
