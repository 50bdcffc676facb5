package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/elearning-platform/internal/lib/metrics"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
	"github.com/magabrotheeeer/elearning-platform/internal/storage/repository"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) GetSubscriptionForUpdate(ctx context.Context, userID, packID string) (*models.Subscription, error) {
	args := m.Called(ctx, userID, packID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *RepoMock) UpsertSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	args := m.Called(ctx, sub)
	if fn, ok := args.Get(0).(func(models.Subscription) *models.Subscription); ok {
		return fn(sub), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *RepoMock) ListSubscriptionsByUser(ctx context.Context, userID string) ([]*models.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *RepoMock) ExpireLapsedSubscriptions(ctx context.Context, userID string, now time.Time) (int64, error) {
	args := m.Called(ctx, userID, now)
	return args.Get(0).(int64), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(repo Repository, now time.Time) (*SubscriptionService, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	svc := NewSubscriptionService(repo, m, newNoopLogger())
	svc.now = func() time.Time { return now }
	return svc, m
}

// returnUpserted отдаёт сохранённую подписку обратно вызывающему.
func returnUpserted(repo *RepoMock) {
	repo.On("UpsertSubscription", mock.Anything, mock.Anything).
		Return(func(sub models.Subscription) *models.Subscription {
			return &sub
		}, nil).Once()
}

func TestSubscriptionService_Extend(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	day := 24 * time.Hour
	plan := models.Plan{Label: "1 Month", DurationDays: 30, PriceCents: 3000}

	tests := []struct {
		name    string
		current *models.Subscription
		findErr error
		wantEnd time.Time
	}{
		{
			name:    "first purchase",
			findErr: repository.ErrNotFound,
			wantEnd: now.Add(30 * day),
		},
		{
			name:    "active renewal stacks",
			current: &models.Subscription{Status: models.SubscriptionActive, CurrentPeriodEnd: now.Add(10 * day)},
			wantEnd: now.Add(40 * day),
		},
		{
			name:    "expired subscription restarts",
			current: &models.Subscription{Status: models.SubscriptionExpired, CurrentPeriodEnd: now.Add(-3 * day)},
			wantEnd: now.Add(30 * day),
		},
		{
			name:    "canceled subscription with future end restarts",
			current: &models.Subscription{Status: models.SubscriptionCanceled, CurrentPeriodEnd: now.Add(5 * day)},
			wantEnd: now.Add(30 * day),
		},
		{
			name:    "active but lapsed restarts",
			current: &models.Subscription{Status: models.SubscriptionActive, CurrentPeriodEnd: now.Add(-time.Hour)},
			wantEnd: now.Add(30 * day),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			if tt.current != nil {
				repo.On("GetSubscriptionForUpdate", mock.Anything, "u1", "p1").Return(tt.current, nil)
			} else {
				repo.On("GetSubscriptionForUpdate", mock.Anything, "u1", "p1").Return(nil, tt.findErr)
			}
			returnUpserted(repo)
			svc, m := newService(repo, now)

			sub, err := svc.Extend(context.Background(), "u1", "p1", plan)
			require.NoError(t, err)
			assert.Equal(t, tt.wantEnd, sub.CurrentPeriodEnd)
			assert.Equal(t, models.SubscriptionActive, sub.Status)
			assert.Equal(t, "1 Month", sub.Plan)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.SubscriptionsExt))
			repo.AssertExpectations(t)
		})
	}
}

func TestSubscriptionService_ExtendErrors(t *testing.T) {
	dbErr := errors.New("db down")
	plan := models.Plan{Label: "1 Month", DurationDays: 30}

	repo := new(RepoMock)
	repo.On("GetSubscriptionForUpdate", mock.Anything, "u1", "p1").Return(nil, dbErr)
	svc, _ := newService(repo, time.Now())

	_, err := svc.Extend(context.Background(), "u1", "p1", plan)
	assert.ErrorIs(t, err, dbErr)
	repo.AssertNotCalled(t, "UpsertSubscription", mock.Anything, mock.Anything)
}

func TestSubscriptionService_ListForUserExpiresFirst(t *testing.T) {
	now := time.Now()
	repo := new(RepoMock)
	expired := []*models.Subscription{{ID: "s1", Status: models.SubscriptionExpired}}

	expireCall := repo.On("ExpireLapsedSubscriptions", mock.Anything, "u1", now).Return(int64(1), nil).Once()
	repo.On("ListSubscriptionsByUser", mock.Anything, "u1").Return(expired, nil).Once().NotBefore(expireCall)
	svc, m := newService(repo, now)

	subs, err := svc.ListForUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, expired, subs)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExpiredOnAccess))
	repo.AssertExpectations(t)
}

func TestSubscriptionService_ExpireLapsedError(t *testing.T) {
	dbErr := errors.New("db down")
	repo := new(RepoMock)
	repo.On("ExpireLapsedSubscriptions", mock.Anything, "u1", mock.Anything).Return(int64(0), dbErr)
	svc, _ := newService(repo, time.Now())

	_, err := svc.ListForUser(context.Background(), "u1")
	assert.ErrorIs(t, err, dbErr)
	repo.AssertNotCalled(t, "ListSubscriptionsByUser", mock.Anything, mock.Anything)
}
