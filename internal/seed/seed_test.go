package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/elearning-platform/internal/lib/password"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
	"github.com/magabrotheeeer/elearning-platform/internal/storage/repository"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memRepo хранилище в памяти для проверки идемпотентности.
type memRepo struct {
	seq        int
	users      map[string]*models.User
	categories map[string]*models.Category
	packs      []*models.Pack
	courses    []*models.Course
	lessons    map[string][]*models.Lesson
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:      map[string]*models.User{},
		categories: map[string]*models.Category{},
		lessons:    map[string][]*models.Lesson{},
	}
}

func (m *memRepo) id() string {
	m.seq++
	return fmt.Sprintf("id-%d", m.seq)
}

func (m *memRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("storage.GetUserByEmail: %w", repository.ErrNotFound)
}

func (m *memRepo) CreateUser(_ context.Context, u models.User) (*models.User, error) {
	u.ID = m.id()
	m.users[u.Email] = &u
	return &u, nil
}

func (m *memRepo) UpdateUser(_ context.Context, id string, patch models.UserPatch) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			if patch.Role != nil {
				u.Role = *patch.Role
			}
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memRepo) UpdatePassword(_ context.Context, id, hash string) error {
	for _, u := range m.users {
		if u.ID == id {
			u.PasswordHash = hash
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memRepo) GetCategoryBySlug(_ context.Context, slug string) (*models.Category, error) {
	if c, ok := m.categories[slug]; ok {
		return c, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memRepo) CreateCategory(_ context.Context, c models.Category) (*models.Category, error) {
	c.ID = m.id()
	m.categories[c.Slug] = &c
	return &c, nil
}

func (m *memRepo) ListPacks(context.Context) ([]*models.Pack, error) { return m.packs, nil }

func (m *memRepo) CreatePack(_ context.Context, p models.Pack) (*models.Pack, error) {
	p.ID = m.id()
	m.packs = append(m.packs, &p)
	return &p, nil
}

func (m *memRepo) ListCourses(context.Context) ([]*models.Course, error) { return m.courses, nil }

func (m *memRepo) CreateCourse(_ context.Context, c models.Course) (*models.Course, error) {
	c.ID = m.id()
	m.courses = append(m.courses, &c)
	return &c, nil
}

func (m *memRepo) ListLessons(_ context.Context, courseID string) ([]*models.Lesson, error) {
	return m.lessons[courseID], nil
}

func (m *memRepo) CreateLesson(_ context.Context, l models.Lesson) (*models.Lesson, error) {
	l.ID = m.id()
	m.lessons[l.CourseID] = append(m.lessons[l.CourseID], &l)
	return &l, nil
}

func TestSeeder_Demo_Idempotent(t *testing.T) {
	repo := newMemRepo()
	s := New(repo, newNoopLogger())

	require.NoError(t, s.Demo(context.Background()))
	require.NoError(t, s.Demo(context.Background()))

	assert.Len(t, repo.categories, 3)
	require.Len(t, repo.packs, 2)
	require.Len(t, repo.courses, 2)

	bootcamp := repo.packs[0]
	assert.Equal(t, "Full Stack Bootcamp", bootcamp.Name)
	assert.Equal(t, repo.categories["programming"].ID, bootcamp.CategoryID)
	plan, ok := bootcamp.FindPlan("1 Month")
	require.True(t, ok)
	assert.Equal(t, 30, plan.DurationDays)

	node := repo.courses[0]
	assert.Equal(t, bootcamp.ID, node.PackID)
	assert.Len(t, repo.lessons[node.ID], 2)
	assert.Len(t, repo.lessons[repo.courses[1].ID], 1)
}

func TestSeeder_Admin(t *testing.T) {
	ctx := context.Background()

	t.Run("creates new admin", func(t *testing.T) {
		repo := newMemRepo()
		u, err := New(repo, newNoopLogger()).Admin(ctx, "admin@example.com", "Admin", "Admin123", false)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, u.Role)
		assert.NoError(t, password.CompareHash(u.PasswordHash, "Admin123"))
	})

	t.Run("promotes existing user", func(t *testing.T) {
		repo := newMemRepo()
		existing, _ := repo.CreateUser(ctx, models.User{Email: "u@example.com", Role: models.RoleUser, PasswordHash: "old"})

		u, err := New(repo, newNoopLogger()).Admin(ctx, "u@example.com", "U", "secret1", false)
		require.NoError(t, err)
		assert.Equal(t, existing.ID, u.ID)
		assert.Equal(t, models.RoleAdmin, u.Role)
		assert.Equal(t, "old", repo.users["u@example.com"].PasswordHash)
	})

	t.Run("resets password when asked", func(t *testing.T) {
		repo := newMemRepo()
		_, _ = repo.CreateUser(ctx, models.User{Email: "u@example.com", Role: models.RoleUser, PasswordHash: "old"})

		_, err := New(repo, newNoopLogger()).Admin(ctx, "u@example.com", "U", "secret1", true)
		require.NoError(t, err)
		assert.NoError(t, password.CompareHash(repo.users["u@example.com"].PasswordHash, "secret1"))
	})
}
