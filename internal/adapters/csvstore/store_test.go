package csvstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brandvoice/internal/core/domain"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewStore(t.TempDir(), log)
}

func sampleRecords() []domain.VideoRecord {
	return []domain.VideoRecord{
		{
			ID:              "111",
			URL:             "https://www.tiktok.com/@creator/video/111",
			Caption:         "caption, with comma",
			Hashtags:        []string{"one", "two"},
			Stats:           domain.Stats{Views: 100, Likes: 10, Comments: 5, Shares: 2},
			DurationSeconds: 30,
			Transcript:      "some spoken words",
			Source:          domain.SourceExternal,
		},
		{
			ID:     "222",
			URL:    "https://www.tiktok.com/@creator/video/222",
			Source: domain.SourceNone,
		},
	}
}

func TestWriteRun_LoadChannel_Roundtrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	path, err := store.WriteRun(ctx, "creator", sampleRecords())
	require.NoError(t, err)
	assert.FileExists(t, path)

	loaded, err := store.LoadChannel(ctx, "creator")
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "111", loaded[0].ID)
	assert.Equal(t, "caption, with comma", loaded[0].Caption)
	assert.Equal(t, []string{"one", "two"}, loaded[0].Hashtags)
	assert.Equal(t, int64(100), loaded[0].Stats.Views)
	assert.Equal(t, 30, loaded[0].DurationSeconds)
	assert.Equal(t, "some spoken words", loaded[0].Transcript)
	assert.Equal(t, domain.SourceExternal, loaded[0].Source)

	assert.Equal(t, "222", loaded[1].ID)
	assert.Equal(t, domain.SourceNone, loaded[1].Source)
}

func TestLoadChannel_EmptyForUnknownChannel(t *testing.T) {
	store := testStore(t)

	loaded, err := store.LoadChannel(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLoadChannel_ConcatenatesRunsInOrder(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	// Two files with distinct embedded timestamps stand in for two runs.
	write := func(name string, ids ...string) {
		var records []domain.VideoRecord
		for _, id := range ids {
			records = append(records, domain.VideoRecord{ID: id, Source: domain.SourceNone})
		}
		path := filepath.Join(store.OutputDir, name)
		f, err := os.Create(path)
		require.NoError(t, err)
		defer f.Close()
		_, err = f.WriteString("video_id,transcript_source\n")
		require.NoError(t, err)
		for _, r := range records {
			_, err = f.WriteString(r.ID + ",none\n")
			require.NoError(t, err)
		}
	}
	write("creator_20250101_000000.csv", "a", "b")
	write("creator_20250102_000000.csv", "c")

	loaded, err := store.LoadChannel(ctx, "creator")
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, "a", loaded[0].ID)
	assert.Equal(t, "b", loaded[1].ID)
	assert.Equal(t, "c", loaded[2].ID)
}

func TestWriteRun_NeverRewritesEarlierFiles(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	first, err := store.WriteRun(ctx, "creator", sampleRecords()[:1])
	require.NoError(t, err)
	before, err := os.ReadFile(first)
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond) // distinct timestamp in filename
	second, err := store.WriteRun(ctx, "creator", sampleRecords()[1:])
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	after, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	loaded, err := store.LoadChannel(ctx, "creator")
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
}

func TestLoadChannel_PreservesNativeCaptionRows(t *testing.T) {
	store := testStore(t)
	require.NoError(t, os.MkdirAll(store.OutputDir, 0o755))

	// Rows written by caption-capable tooling carry tiktok_captions; the
	// store must round-trip them without remapping the source.
	path := filepath.Join(store.OutputDir, "creator_20250101_000000.csv")
	content := "video_id,transcript,transcript_source\n" +
		"111,native caption text,tiktok_captions\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loaded, err := store.LoadChannel(context.Background(), "creator")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, domain.SourceNative, loaded[0].Source)
	assert.Equal(t, "native caption text", loaded[0].Transcript)
}

func TestLoadChannel_SkipsUnreadableFiles(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	_, err := store.WriteRun(ctx, "creator", sampleRecords()[:1])
	require.NoError(t, err)

	// A stray file matching the glob but without the expected header.
	bad := filepath.Join(store.OutputDir, "creator_garbage.csv")
	require.NoError(t, os.WriteFile(bad, []byte("not,a,real\nheader,at,all\n"), 0o644))

	loaded, err := store.LoadChannel(ctx, "creator")
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}
