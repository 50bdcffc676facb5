package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/elearning-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/password"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
	"github.com/magabrotheeeer/elearning-platform/internal/storage/repository"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) GetUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) ListUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *RepoMock) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

func (m *RepoMock) DeleteUser(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type SubsMock struct {
	mock.Mock
}

func (m *SubsMock) ListForUser(ctx context.Context, userID string) ([]*models.Subscription, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func TestUserService_Profile(t *testing.T) {
	repo, subs := new(RepoMock), new(SubsMock)
	repo.On("GetUser", mock.Anything, "u1").Return(&models.User{ID: "u1"}, nil)
	repo.On("GetUser", mock.Anything, "ghost").Return(nil, repository.ErrNotFound)
	subs.On("ListForUser", mock.Anything, "u1").Return([]*models.Subscription{{ID: "s1"}}, nil)
	svc := NewUserService(repo, subs, newNoopLogger())

	profile, err := svc.Profile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, profile.Subscriptions, 1)

	_, err = svc.Profile(context.Background(), "ghost")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUserService_UpdateProfile(t *testing.T) {
	repo := new(RepoMock)
	repo.On("UpdateUser", mock.Anything, "u1", models.UserPatch{Email: strPtr("new@example.com")}).
		Return(nil, errors.Join(errors.New("storage.UpdateUser"), repository.ErrAlreadyExists)).Once()
	svc := NewUserService(repo, new(SubsMock), newNoopLogger())

	_, err := svc.UpdateProfile(context.Background(), "u1", nil, strPtr(" New@Example.com "))
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	repo.AssertExpectations(t)
}

func TestUserService_ChangePassword(t *testing.T) {
	hash, err := password.GetHash("oldpassword")
	require.NoError(t, err)

	tests := []struct {
		name     string
		current  string
		next     string
		wantKind apperr.Kind
		wantErr  bool
	}{
		{name: "changed", current: "oldpassword", next: "newpassword"},
		{name: "wrong current", current: "nope-nope", next: "newpassword", wantErr: true, wantKind: apperr.KindUnauthorized},
		{name: "too short", current: "oldpassword", next: "123", wantErr: true, wantKind: apperr.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			repo.On("GetUser", mock.Anything, "u1").Return(&models.User{ID: "u1", PasswordHash: hash}, nil)
			repo.On("UpdatePassword", mock.Anything, "u1", mock.AnythingOfType("string")).Return(nil)
			svc := NewUserService(repo, new(SubsMock), newNoopLogger())

			err := svc.ChangePassword(context.Background(), "u1", tt.current, tt.next)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				repo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			repo.AssertCalled(t, "UpdatePassword", mock.Anything, "u1", mock.AnythingOfType("string"))
		})
	}
}

func TestUserService_AdminUpdate(t *testing.T) {
	repo := new(RepoMock)
	patch := models.UserPatch{Role: strPtr("admin")}
	repo.On("UpdateUser", mock.Anything, "u1", patch).Return(&models.User{ID: "u1", Role: "admin"}, nil).Once()
	svc := NewUserService(repo, new(SubsMock), newNoopLogger())

	user, err := svc.AdminUpdate(context.Background(), "u1", patch)
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Role)

	_, err = svc.AdminUpdate(context.Background(), "u1", models.UserPatch{Role: strPtr("root")})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	repo.AssertExpectations(t)
}

func TestUserService_Delete(t *testing.T) {
	repo := new(RepoMock)
	repo.On("DeleteUser", mock.Anything, "ghost").Return(repository.ErrNotFound)
	svc := NewUserService(repo, new(SubsMock), newNoopLogger())

	assert.True(t, apperr.Is(svc.Delete(context.Background(), "ghost"), apperr.KindNotFound))
}
