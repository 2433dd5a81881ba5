package geocode

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/friend-map/internal/model"
)

var (
	boston    = model.Coordinates{-71.0589, 42.3601}
	cambridge = model.Coordinates{-71.1097, 42.3736}
	fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
)

func newTestResolver(t *testing.T, st *memStore, lookup Lookup, opts ...Option) *Resolver {
	t.Helper()
	opts = append([]Option{WithLookup(lookup), WithClock(func() time.Time { return fixedTime })}, opts...)
	r, err := NewResolver(context.Background(), st, opts...)
	require.NoError(t, err)
	return r
}

func TestResolve_CachesFirstLookup(t *testing.T) {
	st := newMemStore()
	lookup := newFakeLookup(map[string]model.Coordinates{"Boston, MA": boston})
	r := newTestResolver(t, st, lookup)
	ctx := context.Background()

	first := r.Resolve(ctx, "Boston, MA")
	second := r.Resolve(ctx, "Boston, MA")

	assert.Equal(t, boston, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, lookup.calls["Boston, MA"], "second resolve must not hit the lookup")
	assert.Equal(t, 1, st.puts, "cache hit has no side effect")

	entry, ok := r.Cached("Boston, MA")
	require.True(t, ok)
	assert.Equal(t, boston, entry.Coordinates)
	assert.Equal(t, fixedTime.UnixMilli(), entry.Timestamp)
}

func TestResolve_PersistsWholeCache(t *testing.T) {
	st := newMemStore()
	lookup := newFakeLookup(map[string]model.Coordinates{"Boston, MA": boston, "Cambridge, MA": cambridge})
	r := newTestResolver(t, st, lookup)
	ctx := context.Background()

	r.Resolve(ctx, "Boston, MA")
	r.Resolve(ctx, "Cambridge, MA")

	var saved map[string]CacheEntry
	require.NoError(t, json.Unmarshal(st.slots[CacheSlot], &saved))
	assert.Len(t, saved, 2)
	assert.Equal(t, cambridge, saved["Cambridge, MA"].Coordinates)
	assert.Equal(t, 2, st.puts)
}

func TestResolve_NoCandidatesFallsBackWithoutCaching(t *testing.T) {
	st := newMemStore()
	lookup := newFakeLookup(nil)
	r := newTestResolver(t, st, lookup)

	got := r.Resolve(context.Background(), "Atlantis")

	assert.Equal(t, FallbackCoordinates, got)
	assert.True(t, IsFallback(got))
	_, ok := r.Cached("Atlantis")
	assert.False(t, ok)
	assert.Zero(t, st.puts)
}

func TestResolve_LookupErrorFallsBack(t *testing.T) {
	st := newMemStore()
	lookup := newFakeLookup(map[string]model.Coordinates{"Boston, MA": boston})
	lookup.errs["Boston, MA"] = assert.AnError
	r := newTestResolver(t, st, lookup)

	assert.Equal(t, FallbackCoordinates, r.Resolve(context.Background(), "Boston, MA"))
	assert.Zero(t, r.Len())
	assert.Zero(t, st.puts)
}

func TestResolve_RetriesAfterFailure(t *testing.T) {
	st := newMemStore()
	lookup := newFakeLookup(map[string]model.Coordinates{"Boston, MA": boston})
	lookup.errs["Boston, MA"] = assert.AnError
	r := newTestResolver(t, st, lookup)
	ctx := context.Background()

	assert.Equal(t, FallbackCoordinates, r.Resolve(ctx, "Boston, MA"))

	delete(lookup.errs, "Boston, MA")
	assert.Equal(t, boston, r.Resolve(ctx, "Boston, MA"))
	assert.Equal(t, 2, lookup.calls["Boston, MA"], "failed location is looked up again")
}

func TestResolve_PersistFailureKeepsMemoryEntry(t *testing.T) {
	st := newMemStore()
	st.putErr = assert.AnError
	lookup := newFakeLookup(map[string]model.Coordinates{"Boston, MA": boston})
	r := newTestResolver(t, st, lookup)
	ctx := context.Background()

	assert.Equal(t, boston, r.Resolve(ctx, "Boston, MA"))
	assert.Equal(t, boston, r.Resolve(ctx, "Boston, MA"))
	assert.Equal(t, 1, lookup.calls["Boston, MA"])
	assert.Equal(t, 1, r.Len())
}

func TestResolve_ExactKeys(t *testing.T) {
	lookup := newFakeLookup(map[string]model.Coordinates{"Boston, MA": boston, "boston, MA": cambridge})
	r := newTestResolver(t, newMemStore(), lookup)
	ctx := context.Background()

	assert.Equal(t, boston, r.Resolve(ctx, "Boston, MA"))
	assert.Equal(t, cambridge, r.Resolve(ctx, "boston, MA"))
	assert.Equal(t, FallbackCoordinates, r.Resolve(ctx, " Boston, MA"))
	assert.Equal(t, 2, r.Len())
}

func TestNewResolver_LoadsExistingCache(t *testing.T) {
	st := newMemStore()
	st.slots[CacheSlot] = []byte(`{"Boston, MA":{"coordinates":[-71.0589,42.3601],"timestamp":1700000000000}}`)
	lookup := newFakeLookup(nil)
	r := newTestResolver(t, st, lookup)

	assert.Equal(t, boston, r.Resolve(context.Background(), "Boston, MA"))
	assert.Empty(t, lookup.calls)

	entry, ok := r.Cached("Boston, MA")
	require.True(t, ok)
	assert.Equal(t, int64(1700000000000), entry.Timestamp)
}

func TestNewResolver_CustomSlot(t *testing.T) {
	st := newMemStore()
	st.slots["other"] = []byte(`{"Boston, MA":{"coordinates":[-71.0589,42.3601],"timestamp":1}}`)
	r := newTestResolver(t, st, newFakeLookup(nil), WithSlot("other"))
	assert.Equal(t, 1, r.Len())
}

func TestNewResolver_CorruptCacheStartsEmpty(t *testing.T) {
	st := newMemStore()
	st.slots[CacheSlot] = []byte(`not json`)
	r := newTestResolver(t, st, newFakeLookup(nil))
	assert.Zero(t, r.Len())
}

func TestNewResolver_StoreError(t *testing.T) {
	st := newMemStore()
	st.getErr = assert.AnError

	_, err := NewResolver(context.Background(), st, WithLookup(newFakeLookup(nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geocode: load cache")
}

func TestNewResolver_NilStore(t *testing.T) {
	lookup := newFakeLookup(map[string]model.Coordinates{"Boston, MA": boston})
	r, err := NewResolver(context.Background(), nil, WithLookup(lookup))
	require.NoError(t, err)

	assert.Equal(t, boston, r.Resolve(context.Background(), "Boston, MA"))
	assert.Equal(t, 1, r.Len())
}

func TestResolveAll_SequentialInOrder(t *testing.T) {
	lookup := newFakeLookup(map[string]model.Coordinates{"Boston, MA": boston, "Cambridge, MA": cambridge})
	lookup.errs["Nowhere"] = assert.AnError

	var progress [][2]int
	r := newTestResolver(t, newMemStore(), lookup, WithProgress(func(done, total int) {
		progress = append(progress, [2]int{done, total})
	}))

	people := []model.Person{
		{ID: "1", Location: "Boston, MA"},
		{ID: "2", Location: "Nowhere"},
		{ID: "3", Location: "Cambridge, MA"},
		{ID: "4", Location: "Boston, MA"},
	}
	out := r.ResolveAll(context.Background(), people)

	require.Len(t, out, 4)
	ids := []string{out[0].ID, out[1].ID, out[2].ID, out[3].ID}
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids)
	assert.Equal(t, boston, *out[0].Coordinates)
	assert.Equal(t, FallbackCoordinates, *out[1].Coordinates, "one failure does not abort the batch")
	assert.Equal(t, cambridge, *out[2].Coordinates)
	assert.Equal(t, boston, *out[3].Coordinates)

	assert.Equal(t, []string{"Boston, MA", "Nowhere", "Cambridge, MA"}, lookup.order, "repeat served from cache")
	assert.Equal(t, [][2]int{{1, 4}, {2, 4}, {3, 4}, {4, 4}}, progress)

	for _, p := range people {
		assert.Nil(t, p.Coordinates, "input is not mutated")
	}
}

func TestResolveAll_Empty(t *testing.T) {
	r := newTestResolver(t, newMemStore(), newFakeLookup(nil))
	assert.Empty(t, r.ResolveAll(context.Background(), nil))
}

func TestEntries_IsCopy(t *testing.T) {
	lookup := newFakeLookup(map[string]model.Coordinates{"Boston, MA": boston})
	r := newTestResolver(t, newMemStore(), lookup)
	r.Resolve(context.Background(), "Boston, MA")

	entries := r.Entries()
	delete(entries, "Boston, MA")
	assert.Equal(t, 1, r.Len())
}
