package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WinnyKing57/WinClean-sub000/internal/types"
)

// openTestStore opens a store in a temp directory with a pinned clock.
func openTestStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	current := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }
	return store, &current
}

func TestOpen_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "history.db")

	store, err := Open(path)

	require.NoError(t, err)
	defer store.Close()
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")

	assert.Error(t, err)
}

func TestStore_RecordScan_RoundTrip(t *testing.T) {
	store, clock := openTestStore(t)
	ctx := context.Background()

	first := *clock
	_, err := store.RecordScan(ctx, "/home/user", types.CleaningSummary{TotalActions: 4, TotalBytes: 2048})
	require.NoError(t, err)
	*clock = first.Add(time.Hour)
	id, err := store.RecordScan(ctx, "/var", types.CleaningSummary{TotalActions: 1, TotalBytes: 100})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	scans, err := store.RecentScans(ctx, 10)

	require.NoError(t, err)
	require.Len(t, scans, 2)
	assert.Equal(t, "/var", scans[0].Root)
	assert.Equal(t, "/home/user", scans[1].Root)
	assert.Equal(t, int64(2048), scans[1].TotalBytes)
	assert.Equal(t, 4, scans[1].ActionCount)
	assert.Equal(t, first.Unix(), scans[1].CreatedAt.Unix())
}

func TestStore_RecentScans_AppliesLimit(t *testing.T) {
	store, clock := openTestStore(t)
	ctx := context.Background()

	start := *clock
	for i := 0; i < 3; i++ {
		*clock = start.Add(time.Duration(i) * time.Minute)
		_, err := store.RecordScan(ctx, "/tmp", types.CleaningSummary{})
		require.NoError(t, err)
	}

	scans, err := store.RecentScans(ctx, 2)

	require.NoError(t, err)
	assert.Len(t, scans, 2)
}

func TestStore_RecordCleanings_SharesOneBatch(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	results := []types.CleaningResult{
		{
			Action:     types.CleaningAction{Kind: types.ActionDeleteFile, Target: "/a.log", Category: "logs"},
			Success:    true,
			FreedBytes: 512,
		},
		{
			Action:       types.CleaningAction{Kind: types.ActionClearCache, Target: "/cache", Category: "cache"},
			Success:      false,
			ErrorMessage: "cache directory not found: /cache",
		},
	}

	batchID, err := store.RecordCleanings(ctx, results)

	require.NoError(t, err)
	assert.NotEmpty(t, batchID)

	records, err := store.RecentCleanings(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, batchID, r.BatchID)
	}

	byTarget := map[string]CleaningRecord{}
	for _, r := range records {
		byTarget[r.Target] = r
	}
	assert.True(t, byTarget["/a.log"].Success)
	assert.Equal(t, int64(512), byTarget["/a.log"].FreedBytes)
	assert.Equal(t, types.ActionDeleteFile, byTarget["/a.log"].Kind)
	assert.False(t, byTarget["/cache"].Success)
	assert.Equal(t, "cache directory not found: /cache", byTarget["/cache"].Error)
}

func TestStore_RecordCleanings_EmptyBatch(t *testing.T) {
	store, _ := openTestStore(t)

	batchID, err := store.RecordCleanings(context.Background(), nil)

	assert.NoError(t, err)
	assert.Empty(t, batchID)
	records, err := store.RecentCleanings(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStore_TotalFreed_SumsAllRecords(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	_, err := store.RecordCleanings(ctx, []types.CleaningResult{
		{Action: types.CleaningAction{Kind: types.ActionDeleteFile, Target: "/a"}, Success: true, FreedBytes: 100},
		{Action: types.CleaningAction{Kind: types.ActionDeleteFile, Target: "/b"}, Success: true, FreedBytes: 250},
	})
	require.NoError(t, err)
	_, err = store.RecordCleanings(ctx, []types.CleaningResult{
		{Action: types.CleaningAction{Kind: types.ActionClearCache, Target: "/c"}, Success: true, FreedBytes: 50},
	})
	require.NoError(t, err)

	total, err := store.TotalFreed(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(400), total)
}

func TestStore_TotalFreed_EmptyStoreIsZero(t *testing.T) {
	store, _ := openTestStore(t)

	total, err := store.TotalFreed(context.Background())

	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestStore_Trends_GroupsByDay(t *testing.T) {
	store, clock := openTestStore(t)
	ctx := context.Background()

	day1 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	*clock = day1
	_, err := store.RecordCleanings(ctx, []types.CleaningResult{
		{Action: types.CleaningAction{Kind: types.ActionDeleteFile, Target: "/a"}, Success: true, FreedBytes: 100},
		{Action: types.CleaningAction{Kind: types.ActionDeleteFile, Target: "/b"}, Success: true, FreedBytes: 200},
	})
	require.NoError(t, err)

	*clock = day2
	_, err = store.RecordCleanings(ctx, []types.CleaningResult{
		{Action: types.CleaningAction{Kind: types.ActionClearCache, Target: "/c"}, Success: true, FreedBytes: 50},
	})
	require.NoError(t, err)

	stats, err := store.Trends(ctx, 30)

	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "2024-05-01", stats[0].Day)
	assert.Equal(t, 2, stats[0].Actions)
	assert.Equal(t, int64(300), stats[0].FreedBytes)
	assert.Equal(t, "2024-05-02", stats[1].Day)
	assert.Equal(t, 1, stats[1].Actions)
	assert.Equal(t, int64(50), stats[1].FreedBytes)
}

func TestStore_Trends_WindowExcludesOldRecords(t *testing.T) {
	store, clock := openTestStore(t)
	ctx := context.Background()

	old := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	recent := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	*clock = old
	_, err := store.RecordCleanings(ctx, []types.CleaningResult{
		{Action: types.CleaningAction{Kind: types.ActionDeleteFile, Target: "/old"}, Success: true, FreedBytes: 999},
	})
	require.NoError(t, err)

	*clock = recent
	_, err = store.RecordCleanings(ctx, []types.CleaningResult{
		{Action: types.CleaningAction{Kind: types.ActionDeleteFile, Target: "/new"}, Success: true, FreedBytes: 10},
	})
	require.NoError(t, err)

	stats, err := store.Trends(ctx, 7)

	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "2024-05-01", stats[0].Day)
}

func TestStore_Clear_RemovesEverything(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	_, err := store.RecordScan(ctx, "/home", types.CleaningSummary{TotalActions: 1})
	require.NoError(t, err)
	_, err = store.RecordCleanings(ctx, []types.CleaningResult{
		{Action: types.CleaningAction{Kind: types.ActionDeleteFile, Target: "/x"}, Success: true, FreedBytes: 5},
	})
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx))

	scans, err := store.RecentScans(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, scans)
	total, err := store.TotalFreed(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}
