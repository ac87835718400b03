package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"shortlink-backend/internal/domain"
	"shortlink-backend/internal/repository"
)

// setupStorage spins up a throwaway Postgres and migrates the schema.
func setupStorage(t *testing.T) *PostgresStorage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcpostgres.WithDatabase("shortlink_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2*time.Minute)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Link{}, &domain.AccessCounter{}, &domain.AccessLogEntry{}))

	return New(db, zap.NewNop())
}

func TestPostgres_LinkLifecycle(t *testing.T) {
	store := setupStorage(t)
	ctx := context.Background()

	saved, err := store.UpsertOnCodeConflict(ctx, domain.NewLink("https://example.com/a", "abc123"))
	require.NoError(t, err)
	assert.False(t, saved.CreatedAt.IsZero())

	// idempotent for the same destination
	again, err := store.UpsertOnCodeConflict(ctx, domain.NewLink("https://example.com/a", "abc123"))
	require.NoError(t, err)
	assert.Equal(t, saved.ID, again.ID)

	// the unique index rejects a second destination on the same code
	_, err = store.UpsertOnCodeConflict(ctx, domain.NewLink("https://example.org/b", "abc123"))
	assert.ErrorIs(t, err, repository.ErrCodeExists)

	byCode, err := store.FindByCode(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", byCode.Destination)

	byDest, err := store.FindByDestination(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "abc123", byDest.Code)

	exists, err := store.ExistsByCode(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, exists)

	updated, err := store.UpdateDestination(ctx, "abc123", "https://example.org/b")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/b", updated.Destination)

	require.NoError(t, store.DeleteByCode(ctx, "abc123"))
	assert.ErrorIs(t, store.DeleteByCode(ctx, "abc123"), repository.ErrLinkNotFound)
	_, err = store.FindByCode(ctx, "abc123")
	assert.ErrorIs(t, err, repository.ErrLinkNotFound)
}

func TestPostgres_StatsAtomicUpsert(t *testing.T) {
	store := setupStorage(t)
	ctx := context.Background()

	link, err := store.UpsertOnCodeConflict(ctx, domain.NewLink("https://example.com/a", "abc123"))
	require.NoError(t, err)

	count, err := store.GetCounter(ctx, link.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	for i := int64(1); i <= 3; i++ {
		entry := &domain.AccessLogEntry{
			IPAddress:  "203.0.113.7",
			UserAgent:  "test-agent",
			DeviceType: "desktop",
		}
		require.NoError(t, store.UpsertCounterAndAppendLog(ctx, link.ID, i, entry))
	}

	count, err = store.GetCounter(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	report, err := store.GetReport(ctx, link.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), report.AccessCount)
	require.Len(t, report.Recent, 2)
	for _, entry := range report.Recent {
		assert.Equal(t, "203.0.113.7", entry.IPAddress)
		assert.False(t, entry.AccessedAt.IsZero())
	}
}

func TestPostgres_ReportForUntrackedLink(t *testing.T) {
	store := setupStorage(t)

	report, err := store.GetReport(context.Background(), domain.NewLink("https://example.com/x", "x1y2z3").ID, 10)
	require.NoError(t, err)
	assert.Zero(t, report.AccessCount)
	assert.Empty(t, report.Recent)
}
