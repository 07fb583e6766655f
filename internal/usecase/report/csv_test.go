package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterrepo "github.com/eslsoft/lvgames/internal/adapter/repository"
	"github.com/eslsoft/lvgames/internal/entity"
	"github.com/eslsoft/lvgames/internal/repository"
)

func TestWriteCSV(t *testing.T) {
	results := []entity.SessionResult{{
		Mode:      entity.GameModeLocked,
		Timestamp: time.Date(2024, 5, 1, 14, 30, 0, 0, time.FixedZone("EEST", 3*3600)),
		Correct:   5,
		Total:     6,
		Duration:  95600 * time.Millisecond,
		Detail:    "suns::dog, kaķis::cat",
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, results))
	assert.Equal(t,
		"mode,timestamp,correct,total,time_s,detail\n"+
			"locked,2024-05-01T11:30:00Z,5,6,96,\"suns::dog, kaķis::cat\"\n",
		buf.String())
}

func TestExportCSVFiltersByGame(t *testing.T) {
	ctx := context.Background()
	repo := adapterrepo.NewMemoryResultRepository()
	for _, game := range []string{"match", "forge", "match"} {
		_, err := repo.Save(ctx, &entity.SessionResult{Game: game, Correct: 1, Total: 2})
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	n, err := ExportCSV(ctx, repo, &repository.ListResultQuery{Game: "match"}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 3, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestParseSince(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	got, err := ParseSince("", now)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = ParseSince("48h", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-48*time.Hour), got)

	got, err = ParseSince("2025-02-01T00:00:00Z", now)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)))

	got, err = ParseSince("2025-02-01", now)
	require.NoError(t, err)
	assert.Equal(t, 2025, got.Year())
	assert.Equal(t, time.February, got.Month())
	assert.Equal(t, 1, got.Day())

	_, err = ParseSince("-1h", now)
	assert.Error(t, err)
	_, err = ParseSince("yesterday", now)
	assert.Error(t, err)
}
