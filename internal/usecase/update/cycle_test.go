package update_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v01dsy/azurewrath/internal/domain/items"
	"github.com/v01dsy/azurewrath/internal/domain/prices"
	"github.com/v01dsy/azurewrath/internal/usecase/update"
)

type fakeCatalog struct {
	items []items.Item
	err   error
}

func (f *fakeCatalog) LoadItems(ctx context.Context) ([]items.Item, error) {
	return f.items, f.err
}

type fakeHistory struct {
	raps map[string]float64

	persisted  []prices.Result
	persistAt  time.Time
	persistErr error
	calls      int
}

func (f *fakeHistory) LatestRaps(ctx context.Context) (map[string]float64, error) {
	return f.raps, nil
}

func (f *fakeHistory) Persist(ctx context.Context, results []prices.Result, cycleTime time.Time) (int, int, error) {
	f.calls++
	if f.persistErr != nil {
		return 0, 0, f.persistErr
	}
	f.persisted = results
	f.persistAt = cycleTime
	sales := 0
	for _, r := range results {
		if r.RapChanged && r.Rap != nil {
			sales++
		}
	}
	return len(results), sales, nil
}

type fakeSource struct {
	obs map[string]prices.Observation
	err error
	got []string
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FetchPrices(ctx context.Context, assetIDs []string) (map[string]prices.Observation, error) {
	f.got = assetIDs
	return f.obs, f.err
}

func TestCycle_Run(t *testing.T) {
	cat := &fakeCatalog{items: []items.Item{
		{ID: "x", AssetID: "1", Name: "X"},
		{ID: "z", AssetID: "3", Name: "Z"},
	}}
	hist := &fakeHistory{raps: map[string]float64{"x": 100, "z": 100}}
	src := &fakeSource{obs: map[string]prices.Observation{
		"1": {AssetID: "1", Rap: f(100), LowestResale: f(90), Collectible: true},
		"3": {AssetID: "3", Rap: f(150), LowestResale: f(140), Collectible: true},
	}}

	c := &update.Cycle{Catalog: cat, History: hist, Source: src}
	sum, err := c.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, src.got, "one adapter call covers the whole catalog")
	assert.Equal(t, 2, sum.Items)
	assert.Equal(t, 2, sum.Snapshots)
	assert.Equal(t, 1, sum.Sales, "only the moved RAP yields a sale")
	assert.False(t, hist.persistAt.IsZero(), "rows stamped with the cycle start time")
}

func TestCycle_SecondIdenticalCycleYieldsNoSale(t *testing.T) {
	cat := &fakeCatalog{items: []items.Item{{ID: "z", AssetID: "3", Name: "Z"}}}
	src := &fakeSource{obs: map[string]prices.Observation{
		"3": {AssetID: "3", Rap: f(150), Collectible: true},
	}}

	// first cycle: prior 100 -> 150
	hist := &fakeHistory{raps: map[string]float64{"z": 100}}
	c := &update.Cycle{Catalog: cat, History: hist, Source: src}
	sum, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Snapshots)
	assert.Equal(t, 1, sum.Sales)

	// second cycle: prior now 150, same observation
	hist.raps = map[string]float64{"z": 150}
	sum, err = c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Snapshots)
	assert.Equal(t, 0, sum.Sales)
}

func TestCycle_EmptyCatalogIsNoOp(t *testing.T) {
	hist := &fakeHistory{}
	c := &update.Cycle{
		Catalog: &fakeCatalog{},
		History: hist,
		Source:  &fakeSource{},
	}

	sum, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.Snapshots)
	assert.Zero(t, hist.calls, "nothing persisted on an empty catalog")
}

func TestCycle_FailedFetchIsNoOp(t *testing.T) {
	hist := &fakeHistory{}
	c := &update.Cycle{
		Catalog: &fakeCatalog{items: []items.Item{{ID: "x", AssetID: "1", Name: "X"}}},
		History: hist,
		Source:  &fakeSource{err: errors.New("upstream on fire")},
	}

	sum, err := c.Run(context.Background())
	require.NoError(t, err, "a dead source degrades the cycle, it does not fail it")
	assert.Zero(t, sum.Results)
	assert.Zero(t, hist.calls)
}

func TestCycle_StoreFailureFailsTheCycle(t *testing.T) {
	boom := errors.New("tx aborted")
	c := &update.Cycle{
		Catalog: &fakeCatalog{items: []items.Item{{ID: "x", AssetID: "1", Name: "X"}}},
		History: &fakeHistory{persistErr: boom},
		Source: &fakeSource{obs: map[string]prices.Observation{
			"1": {AssetID: "1", Price: f(10)},
		}},
	}

	_, err := c.Run(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestCycle_LoadItemsFailureFailsTheCycle(t *testing.T) {
	c := &update.Cycle{
		Catalog: &fakeCatalog{err: errors.New("conn refused")},
		History: &fakeHistory{},
		Source:  &fakeSource{},
	}

	_, err := c.Run(context.Background())
	require.Error(t, err)
}
