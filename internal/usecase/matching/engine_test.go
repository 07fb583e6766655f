package matching

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/lvgames/internal/entity"
	"github.com/eslsoft/lvgames/internal/repository"
	"github.com/eslsoft/lvgames/pkg/rng"
)

type fakeStore struct {
	mu         sync.RWMutex
	data       map[string][]byte
	failWrites bool
	failReads  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (s *fakeStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failReads {
		return nil, errors.New("storage unavailable")
	}
	v, ok := s.data[key]
	if !ok {
		return nil, repository.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *fakeStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return errors.New("quota exceeded")
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return errors.New("quota exceeded")
	}
	delete(s.data, key)
	return nil
}

func (s *fakeStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *fakeStore) seed(t *testing.T, key string, value any) {
	t.Helper()
	raw, err := json.Marshal(value)
	require.NoError(t, err)
	s.data[key] = raw
}

func (s *fakeStore) decode(t *testing.T, key string, dst any) {
	t.Helper()
	raw, ok := s.data[key]
	require.True(t, ok, "key %s not persisted", key)
	require.NoError(t, json.Unmarshal(raw, dst))
}

func testItems(ids ...string) []entity.Item {
	items := make([]entity.Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, entity.Item{
			ID:           id,
			LV:           "lv-" + id,
			Translations: map[entity.Language]string{entity.LanguageEnglish: "en-" + id},
		})
	}
	return items
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestEngine(t *testing.T, store repository.KVStore, boardSize int, items []entity.Item) *Engine {
	t.Helper()
	opts := DefaultOptions("test")
	opts.Defaults.BoardSize = boardSize
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	e := NewEngine(store, quietLogger(), opts, WithRand(rng.Mulberry32(1)), WithClock(func() time.Time { return fixed }))
	e.Load(context.Background(), items)
	return e
}

func lockedEngine(t *testing.T, boardSize int, order ...string) (*Engine, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	store.seed(t, StorageKey("test", keyActiveSet), order)
	return newTestEngine(t, store, boardSize, testItems(order...)), store
}

// distance is how many serves after the cursor id comes up.
func distance(state entity.GameState, id string) int {
	n := len(state.LockedOrder)
	for i, v := range state.LockedOrder {
		if v == id {
			return (i - state.Cursor + n) % n
		}
	}
	return -1
}

func TestBuildLockedSetReturnsUniqueIDsFromPool(t *testing.T) {
	pool := testItems("a", "b", "c", "d", "e", "f", "g")
	inPool := map[string]bool{}
	for _, it := range pool {
		inPool[it.ID] = true
	}
	for seed := uint32(1); seed <= 30; seed++ {
		for n := 0; n <= len(pool); n++ {
			ids := BuildLockedSet(pool, n, nil, rng.Mulberry32(seed))
			require.Len(t, ids, n)
			seen := map[string]bool{}
			for _, id := range ids {
				assert.True(t, inPool[id], "id %s not from pool", id)
				assert.False(t, seen[id], "duplicate id %s", id)
				seen[id] = true
			}
		}
	}
}

func TestBuildLockedSetFullPoolIsPermutation(t *testing.T) {
	pool := testItems("a", "b", "c", "d", "e")
	ids := BuildLockedSet(pool, 5, nil, rng.Mulberry32(3))
	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e"}, ids)
}

func TestBuildLockedSetCapsAtPoolSize(t *testing.T) {
	pool := testItems("a", "b", "c")
	ids := BuildLockedSet(pool, 10, nil, rng.Mulberry32(3))
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids)
}

func TestBuildLockedSetPrefersItemsOutsideRecentSets(t *testing.T) {
	pool := testItems("a", "b", "c", "d", "e")
	recent := [][]string{{"a", "b", "c"}}

	ids := BuildLockedSet(pool, 2, recent, rng.Mulberry32(11))
	assert.ElementsMatch(t, []string{"d", "e"}, ids)

	ids = BuildLockedSet(pool, 4, recent, rng.Mulberry32(11))
	require.Len(t, ids, 4)
	assert.ElementsMatch(t, []string{"d", "e"}, ids[:2])
	for _, id := range ids[2:] {
		assert.Contains(t, []string{"a", "b", "c"}, id)
	}
}

func TestNewMixPersistsAndTracksRecentSets(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(t, store, 2, testItems("a", "b", "c", "d", "e", "f"))
	ctx := context.Background()

	for i := 0; i < DefaultRecentSetsLimit+2; i++ {
		res, err := e.NewMix(ctx, 3)
		require.NoError(t, err)
		assert.Len(t, res.IDs, 3)
		assert.False(t, res.Capped)
	}

	state := e.Snapshot()
	assert.Len(t, state.RecentSets, DefaultRecentSetsLimit)
	assert.Equal(t, state.LockedOrder, state.RecentSets[0])
	assert.Equal(t, 0, state.Cursor)

	var persisted []string
	store.decode(t, StorageKey("test", keyActiveSet), &persisted)
	assert.Equal(t, state.LockedOrder, persisted)
}

func TestNewMixReportsCap(t *testing.T) {
	e := newTestEngine(t, newFakeStore(), 2, testItems("a", "b"))
	res, err := e.NewMix(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, res.Capped)
	assert.Len(t, res.IDs, 2)
}

func TestNewMixWithEmptyDeck(t *testing.T) {
	e := newTestEngine(t, newFakeStore(), 2, nil)
	_, err := e.NewMix(context.Background(), 5)
	assert.ErrorIs(t, err, entity.ErrNoItems)
}

func TestGetChunkServesFromCursorAndAdvances(t *testing.T) {
	e, store := lockedEngine(t, 6, "a", "b", "c")

	chunk := e.GetChunk(context.Background(), 2)
	assert.Equal(t, []string{"a", "b"}, chunk.IDs)
	assert.Equal(t, 0, chunk.Start)
	require.Len(t, chunk.Items, 2)
	assert.Equal(t, "lv-a", chunk.Items[0].LV)
	assert.Equal(t, 2, e.Snapshot().Cursor)

	var cursor int
	store.decode(t, StorageKey("test", keyCursor), &cursor)
	assert.Equal(t, 2, cursor)

	chunk = e.GetChunk(context.Background(), 2)
	assert.Equal(t, []string{"c", "a"}, chunk.IDs)
	assert.Equal(t, 2, chunk.Start)
	assert.Equal(t, 1, e.Snapshot().Cursor)
}

func TestGetChunkCyclesEveryItemOnce(t *testing.T) {
	order := []string{"a", "b", "c", "d", "e"}
	e, _ := lockedEngine(t, 6, order...)
	ctx := context.Background()
	e.GetChunk(ctx, 3)

	served := map[string]int{}
	for i := 0; i < len(order); i++ {
		chunk := e.GetChunk(ctx, 1)
		require.Len(t, chunk.IDs, 1)
		served[chunk.IDs[0]]++
	}
	for _, id := range order {
		assert.Equal(t, 1, served[id], "id %s", id)
	}
}

func TestGetChunkOptions(t *testing.T) {
	e, _ := lockedEngine(t, 6, "a", "b", "c", "d")
	ctx := context.Background()

	chunk := e.GetChunk(ctx, 2, WithoutAdvance())
	assert.Equal(t, []string{"a", "b"}, chunk.IDs)
	assert.Equal(t, 0, e.Snapshot().Cursor)

	chunk = e.GetChunk(ctx, 3, WithStartIndex(3))
	assert.Equal(t, []string{"d", "a", "b"}, chunk.IDs)
	assert.Equal(t, 3, chunk.Start)
	assert.Equal(t, 2, e.Snapshot().Cursor)

	chunk = e.GetChunk(ctx, 10)
	assert.Len(t, chunk.IDs, 4, "count is capped at the locked order length")
}

func TestGetChunkEmptyLockedOrder(t *testing.T) {
	e := newTestEngine(t, newFakeStore(), 6, testItems("a", "b"))
	chunk := e.GetChunk(context.Background(), 3)
	assert.True(t, chunk.Empty())
	assert.Equal(t, 0, chunk.Start)
}

func TestRecordResultBumpsMissedItem(t *testing.T) {
	e, _ := lockedEngine(t, 6, "a", "b", "c")
	ctx := context.Background()
	e.GetChunk(ctx, 2)

	st, err := e.RecordResult(ctx, entity.Item{ID: "b"}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Incorrect)

	state := e.Snapshot()
	assert.Equal(t, 1, state.PriorityChain["b"])
	assert.Equal(t, min(2, DefaultLookaheadTurns*6), distance(state, "b"))
	assert.Equal(t, "c", state.LockedOrder[state.Cursor], "next served item is unchanged")
}

func TestBumpMovesItemAheadOfCursor(t *testing.T) {
	e, _ := lockedEngine(t, 1, "a", "b", "c", "d", "e", "f")
	ctx := context.Background()
	e.GetChunk(ctx, 2)

	require.True(t, e.BumpItemForPriority(ctx, "b"))
	state := e.Snapshot()
	assert.Equal(t, []string{"a", "c", "d", "b", "e", "f"}, state.LockedOrder)
	assert.Equal(t, 1, state.Cursor)

	chunk := e.GetChunk(ctx, 3)
	assert.Equal(t, []string{"c", "d", "b"}, chunk.IDs)
}

func TestBumpWrapsAroundTheEnd(t *testing.T) {
	e, _ := lockedEngine(t, 1, "a", "b", "c", "d")
	ctx := context.Background()
	e.GetChunk(ctx, 3)

	require.True(t, e.BumpItemForPriority(ctx, "a"))
	state := e.Snapshot()
	assert.Equal(t, []string{"b", "a", "c", "d"}, state.LockedOrder)
	assert.Equal(t, 3, state.Cursor)
	assert.Equal(t, 2, distance(state, "a"))

	chunk := e.GetChunk(ctx, 3)
	assert.Equal(t, []string{"d", "b", "a"}, chunk.IDs)
}

func TestBumpKeepsNextServedItem(t *testing.T) {
	order := []string{"a", "b", "c", "d", "e", "f", "g"}
	for board := 1; board <= 4; board++ {
		for start := 0; start < len(order); start++ {
			for _, target := range order {
				e, _ := lockedEngine(t, board, order...)
				ctx := context.Background()
				e.GetChunk(ctx, start, WithStartIndex(0))
				before := e.Snapshot()
				next := before.LockedOrder[before.Cursor]

				require.True(t, e.BumpItemForPriority(ctx, target))
				after := e.Snapshot()
				assert.Len(t, after.LockedOrder, len(order))
				want := min(len(order)-1, DefaultLookaheadTurns*board)
				assert.Equal(t, want, distance(after, target), "board=%d start=%d target=%s", board, start, target)
				if target != next {
					assert.Equal(t, next, after.LockedOrder[after.Cursor], "board=%d start=%d target=%s", board, start, target)
				}
			}
		}
	}
}

func TestBumpNoopCases(t *testing.T) {
	ctx := context.Background()

	single, _ := lockedEngine(t, 6, "a")
	assert.False(t, single.BumpItemForPriority(ctx, "a"))
	assert.Empty(t, single.Snapshot().PriorityChain)

	e, _ := lockedEngine(t, 1, "a", "b", "c", "d")
	assert.False(t, e.BumpItemForPriority(ctx, "zzz"))

	for i := 0; i < DefaultMaxPriorityChain; i++ {
		require.True(t, e.BumpItemForPriority(ctx, "b"))
	}
	before := e.Snapshot()
	assert.Equal(t, DefaultMaxPriorityChain, before.PriorityChain["b"])
	assert.False(t, e.BumpItemForPriority(ctx, "b"))
	assert.Equal(t, before.LockedOrder, e.Snapshot().LockedOrder)
}

func TestCorrectAnswerClearsPriorityChain(t *testing.T) {
	e, _ := lockedEngine(t, 1, "a", "b", "c", "d")
	ctx := context.Background()
	item := entity.Item{ID: "c"}

	_, err := e.RecordResult(ctx, item, false)
	require.NoError(t, err)
	_, err = e.RecordResult(ctx, item, false)
	require.NoError(t, err)
	assert.Equal(t, 2, e.Snapshot().PriorityChain["c"])

	st, err := e.RecordResult(ctx, item, true)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Correct)
	assert.Equal(t, 2, st.Incorrect)
	_, ok := e.Snapshot().PriorityChain["c"]
	assert.False(t, ok)

	_, err = e.RecordResult(ctx, item, false)
	require.NoError(t, err)
	assert.Equal(t, 1, e.Snapshot().PriorityChain["c"])
}

func TestRecordResultWithoutPrioritization(t *testing.T) {
	e, _ := lockedEngine(t, 1, "a", "b", "c", "d")
	ctx := context.Background()
	_, err := e.SetConfig(ctx, entity.GameConfig{Mode: entity.GameModeRandom, Prioritize: true})
	require.NoError(t, err)

	before := e.Snapshot().LockedOrder
	_, err = e.RecordResult(ctx, entity.Item{ID: "a"}, false)
	require.NoError(t, err)
	assert.Equal(t, before, e.Snapshot().LockedOrder)
	assert.Empty(t, e.Snapshot().PriorityChain)
}

func TestRecordResultStampsLastSeenAndPersists(t *testing.T) {
	e, store := lockedEngine(t, 6, "a", "b")
	st, err := e.RecordResult(context.Background(), entity.Item{ID: "a"}, true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), st.LastSeen)

	var persisted entity.Stats
	store.decode(t, StorageKey("test", keyStats), &persisted)
	assert.Equal(t, 1, persisted["a"].Correct)
}

func TestRecordResultRejectsEmptyID(t *testing.T) {
	e, _ := lockedEngine(t, 6, "a")
	_, err := e.RecordResult(context.Background(), entity.Item{}, true)
	assert.ErrorIs(t, err, entity.ErrInvalidItem)
}

func TestRecordResultSurvivesStorageFailure(t *testing.T) {
	e, store := lockedEngine(t, 1, "a", "b", "c")
	store.failWrites = true

	st, err := e.RecordResult(context.Background(), entity.Item{ID: "b"}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Incorrect)

	state := e.Snapshot()
	assert.Equal(t, 1, state.Stats["b"].Incorrect)
	assert.Equal(t, 1, state.PriorityChain["b"])
	assert.False(t, state.Persistent)
}

func TestLoadWithUnreadableStore(t *testing.T) {
	store := newFakeStore()
	store.failReads = true
	e := newTestEngine(t, store, 6, testItems("a", "b"))

	state := e.Snapshot()
	assert.Empty(t, state.LockedOrder)
	assert.False(t, state.Persistent)
	assert.Equal(t, 2, state.DeckSize)
}

func TestLoadSanitizesPersistedState(t *testing.T) {
	store := newFakeStore()
	store.seed(t, StorageKey("test", keyActiveSet), []string{"a", "zzz", "c", "a"})
	store.seed(t, StorageKey("test", keyCursor), 7)
	store.seed(t, StorageKey("test", keyPriorityChain), map[string]int{"zzz": 1, "c": 1, "a": 0})
	store.seed(t, StorageKey("test", keyRecentSets), [][]string{{"zzz"}, {"b", "zzz"}})

	e := newTestEngine(t, store, 6, testItems("a", "b", "c"))
	state := e.Snapshot()
	assert.Equal(t, []string{"a", "c"}, state.LockedOrder)
	assert.Equal(t, 1, state.Cursor)
	assert.Equal(t, map[string]int{"c": 1}, state.PriorityChain)
	assert.Equal(t, [][]string{{"b"}}, state.RecentSets)
}

func TestLoadKeepsMemoryStateOnUndecodableValues(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	items := testItems("a", "b", "c")
	e := newTestEngine(t, store, 2, items)
	_, err := e.NewMix(ctx, 3)
	require.NoError(t, err)
	_, err = e.RecordResult(ctx, items[0], true)
	require.NoError(t, err)
	before := e.Snapshot()

	store.data[StorageKey("test", keyActiveSet)] = []byte(`["a",5]`)
	store.data[StorageKey("test", keyRecentSets)] = []byte(`[["b"],[7]]`)
	store.data[StorageKey("test", keyStats)] = []byte(`{"a":{"correct":"many"}}`)
	e.Load(ctx, items)

	state := e.Snapshot()
	assert.Equal(t, before.LockedOrder, state.LockedOrder)
	assert.Equal(t, before.RecentSets, state.RecentSets)
	assert.Equal(t, 1, state.Stats["a"].Correct)
}

func TestLoadFallsBackOnInvalidConfig(t *testing.T) {
	store := newFakeStore()
	store.seed(t, StorageKey("test", keyConfig), map[string]any{"mode": "sideways"})
	e := newTestEngine(t, store, 6, testItems("a"))
	assert.Equal(t, entity.GameModeLocked, e.Config().Mode)
	assert.Equal(t, 6, e.Config().BoardSize)
}

func TestStateSurvivesReload(t *testing.T) {
	store := newFakeStore()
	items := testItems("a", "b", "c", "d", "e")
	ctx := context.Background()

	first := newTestEngine(t, store, 2, items)
	_, err := first.NewMix(ctx, 4)
	require.NoError(t, err)
	first.GetChunk(ctx, 2)
	_, err = first.RecordResult(ctx, entity.Item{ID: first.Snapshot().LockedOrder[0]}, false)
	require.NoError(t, err)

	second := newTestEngine(t, store, 2, items)
	assert.Equal(t, first.Snapshot(), second.Snapshot())
}

func TestResetClearsState(t *testing.T) {
	e, store := lockedEngine(t, 2, "a", "b", "c")
	ctx := context.Background()
	_, err := e.RecordResult(ctx, entity.Item{ID: "a"}, false)
	require.NoError(t, err)

	e.Reset(ctx)
	state := e.Snapshot()
	assert.Empty(t, state.LockedOrder)
	assert.Empty(t, state.Stats)
	assert.Empty(t, state.PriorityChain)

	keys, err := store.Keys(ctx, KeyPrefix("test"))
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSampleRandomDrawsDistinctDeckItems(t *testing.T) {
	e := newTestEngine(t, nil, 6, testItems("a", "b", "c", "d"))
	chunk := e.SampleRandom(3)
	require.Len(t, chunk.IDs, 3)
	assert.Len(t, map[string]bool{chunk.IDs[0]: true, chunk.IDs[1]: true, chunk.IDs[2]: true}, 3)
	assert.Len(t, e.SampleRandom(10).IDs, 4)
	assert.True(t, e.SampleRandom(0).Empty())
}
