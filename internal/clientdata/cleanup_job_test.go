package clientdata

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupJobName(t *testing.T) {
	repo, _ := setupTestRepo(t)
	job := NewCleanupJob(repo, zerolog.Nop())

	assert.Equal(t, "cache_cleanup", job.Name())
}

func TestCleanupJobRun(t *testing.T) {
	repo, db := setupTestRepo(t)
	job := NewCleanupJob(repo, zerolog.Nop())

	require.NoError(t, repo.Store("market_bars", "IVV", []int{1}, -time.Hour))
	require.NoError(t, repo.Store("market_bars", "AGG", []int{2}, time.Hour))
	require.NoError(t, repo.Store("volatility_index", "^VIX", []int{3}, -time.Hour))
	require.NoError(t, repo.Store("news_articles", "IYW", []int{4}, time.Hour))

	require.NoError(t, job.Run())

	var count int
	db.QueryRow("SELECT COUNT(*) FROM market_bars").Scan(&count)
	assert.Equal(t, 1, count)
	db.QueryRow("SELECT COUNT(*) FROM volatility_index").Scan(&count)
	assert.Equal(t, 0, count)
	db.QueryRow("SELECT COUNT(*) FROM news_articles").Scan(&count)
	assert.Equal(t, 1, count)
}

func TestCleanupJobRun_EmptyTables(t *testing.T) {
	repo, _ := setupTestRepo(t)
	job := NewCleanupJob(repo, zerolog.Nop())

	require.NoError(t, job.Run())
}
