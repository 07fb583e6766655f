package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterrepo "github.com/eslsoft/lvgames/internal/adapter/repository"
	"github.com/eslsoft/lvgames/internal/entity"
	"github.com/eslsoft/lvgames/internal/repository"
)

func TestRetentionPrune(t *testing.T) {
	ctx := context.Background()
	repo := adapterrepo.NewMemoryResultRepository()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, age := range []time.Duration{time.Hour, 48 * time.Hour, 30 * 24 * time.Hour} {
		_, err := repo.Save(ctx, &entity.SessionResult{Game: "match", Timestamp: now.Add(-age)})
		require.NoError(t, err)
	}

	logger, _ := test.NewNullLogger()
	job := NewRetention(repo, 24*time.Hour, time.Minute, logger)
	job.clock = func() time.Time { return now }

	removed, err := job.Prune(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	_, total, err := repo.List(ctx, &repository.ListResultQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestRetentionDisabled(t *testing.T) {
	logger, _ := test.NewNullLogger()
	job := NewRetention(adapterrepo.NewMemoryResultRepository(), 0, 0, logger)

	removed, err := job.Prune(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed)
	require.NoError(t, job.Start(context.Background()))
	assert.Nil(t, job.scheduler)
	job.Stop()
}

func TestRetentionStartStop(t *testing.T) {
	logger, _ := test.NewNullLogger()
	job := NewRetention(adapterrepo.NewMemoryResultRepository(), time.Hour, time.Hour, logger)

	require.NoError(t, job.Start(context.Background()))
	assert.NotNil(t, job.scheduler)
	job.Stop()
	assert.Nil(t, job.scheduler)
}
