package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/elearning-platform/internal/migrations"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
)

func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))

	return storage
}

// testDataFactory создаёт связанные тестовые записи.
type testDataFactory struct {
	t       *testing.T
	storage *Storage
}

func newTestDataFactory(t *testing.T, storage *Storage) *testDataFactory {
	return &testDataFactory{t: t, storage: storage}
}

func (f *testDataFactory) user(email string) *models.User {
	u, err := f.storage.CreateUser(context.Background(), models.User{
		Email: email, Name: "Test User", PasswordHash: "hash", Role: models.RoleUser,
	})
	require.NoError(f.t, err)
	return u
}

func (f *testDataFactory) category(slug string) *models.Category {
	c, err := f.storage.CreateCategory(context.Background(), models.Category{Name: slug, Slug: slug})
	require.NoError(f.t, err)
	return c
}

func (f *testDataFactory) pack(categoryID string, published bool) *models.Pack {
	p, err := f.storage.CreatePack(context.Background(), models.Pack{
		CategoryID:  categoryID,
		Name:        "Full Stack Bootcamp",
		IsPublished: published,
		Plans: []models.Plan{
			{Label: "1 Month", DurationDays: 30, PriceCents: 3000},
			{Label: "3 Months", DurationDays: 90, PriceCents: 8000},
		},
	})
	require.NoError(f.t, err)
	return p
}

func (f *testDataFactory) course(packID string, published bool) *models.Course {
	c, err := f.storage.CreateCourse(context.Background(), models.Course{
		PackID: packID, Title: "Go basics", IsPublished: published, CoachName: "Coach",
	})
	require.NoError(f.t, err)
	return c
}
