package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/elearning-platform/internal/models"
)

func TestStorage_Users(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()
	factory := newTestDataFactory(t, storage)

	u := factory.user("alice@example.com")
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, models.RoleUser, u.Role)

	_, err := storage.CreateUser(ctx, models.User{Email: "alice@example.com", Name: "Dup", PasswordHash: "x", Role: "user"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = storage.GetUser(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = storage.GetUser(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)

	name := "Alice"
	updated, err := storage.UpdateUser(ctx, u.ID, models.UserPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, "alice@example.com", updated.Email)

	expires := time.Now().Add(time.Hour)
	require.NoError(t, storage.SetResetToken(ctx, u.ID, "token-hash", expires))
	found, err := storage.GetUserByResetToken(ctx, "token-hash", time.Now())
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = storage.GetUserByResetToken(ctx, "token-hash", expires.Add(time.Minute))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, storage.ResetPassword(ctx, u.ID, "new-hash"))
	_, err = storage.GetUserByResetToken(ctx, "token-hash", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, storage.DeleteUser(ctx, u.ID))
	assert.ErrorIs(t, storage.DeleteUser(ctx, u.ID), ErrNotFound)
}

func TestStorage_Catalog(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()
	factory := newTestDataFactory(t, storage)

	cat := factory.category("programming")
	published := factory.pack(cat.ID, true)
	factory.pack(cat.ID, false)

	packs, err := storage.ListPublishedPacksByCategory(ctx, cat.ID)
	require.NoError(t, err)
	require.Len(t, packs, 1)
	assert.Equal(t, published.ID, packs[0].ID)
	require.Len(t, packs[0].Plans, 2)
	plan, ok := packs[0].FindPlan("1 Month")
	require.True(t, ok)
	assert.Equal(t, 30, plan.DurationDays)

	visible := factory.course(published.ID, true)
	factory.course(published.ID, false)
	other := factory.course("", true)

	courses, err := storage.ListPublishedCoursesByPack(ctx, published.ID)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, visible.ID, courses[0].ID)

	require.NoError(t, storage.AssignCourses(ctx, published.ID, []string{other.ID}))
	pack, err := storage.GetPack(ctx, published.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{other.ID}, pack.CourseIDs)

	_, err = storage.CreateLesson(ctx, models.Lesson{CourseID: other.ID, Title: "Second", Position: 2})
	require.NoError(t, err)
	_, err = storage.CreateLesson(ctx, models.Lesson{CourseID: other.ID, Title: "First", Position: 1})
	require.NoError(t, err)
	lessons, err := storage.ListLessons(ctx, other.ID)
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	assert.Equal(t, "First", lessons[0].Title)

	require.NoError(t, storage.DeleteCourse(ctx, other.ID))
	lessons, err = storage.ListLessons(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, lessons)
}

func TestStorage_SubscriptionLifecycle(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()
	factory := newTestDataFactory(t, storage)

	u := factory.user("bob@example.com")
	p := factory.pack(factory.category("fitness").ID, true)
	now := time.Now().UTC().Truncate(time.Microsecond)

	_, err := storage.GetSubscriptionForUpdate(ctx, u.ID, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	sub, err := storage.UpsertSubscription(ctx, models.Subscription{
		UserID: u.ID, PackID: p.ID, Plan: "1 Month", Status: models.SubscriptionActive,
		CurrentPeriodEnd: now.Add(-time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, p.Name, sub.PackName)

	active, err := storage.HasActiveSubscription(ctx, u.ID, p.ID, now)
	require.NoError(t, err)
	assert.False(t, active)

	n, err := storage.ExpireLapsedSubscriptions(ctx, u.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = storage.ExpireLapsedSubscriptions(ctx, u.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	subs, err := storage.ListSubscriptionsByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, models.SubscriptionExpired, subs[0].Status)

	renewed, err := storage.UpsertSubscription(ctx, models.Subscription{
		UserID: u.ID, PackID: p.ID, Plan: "3 Months", Status: models.SubscriptionActive,
		CurrentPeriodEnd: now.Add(90 * 24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, sub.ID, renewed.ID)
	assert.Equal(t, "3 Months", renewed.Plan)

	active, err = storage.HasActiveSubscription(ctx, u.ID, p.ID, now)
	require.NoError(t, err)
	assert.True(t, active)

	ending, err := storage.FindSubscriptionsEndingBetween(ctx, now.Add(89*24*time.Hour), now.Add(91*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, ending, 1)
	assert.Equal(t, "bob@example.com", ending[0].Email)
}

func TestStorage_PurchasesInTransaction(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()
	factory := newTestDataFactory(t, storage)

	u := factory.user("carol@example.com")
	p := factory.pack(factory.category("nutrition").ID, true)

	first, err := storage.CreatePurchase(ctx, models.PackPurchase{UserID: u.ID, PackID: p.ID, PlanLabel: "1 Month", AmountCents: 3000, Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, models.PurchasePending, first.Status)
	require.NoError(t, storage.SetPurchaseOrderID(ctx, first.ID, "ORDER-1"))

	second, err := storage.CreatePurchase(ctx, models.PackPurchase{UserID: u.ID, PackID: p.ID, PlanLabel: "1 Month", AmountCents: 3000, Currency: "USD"})
	require.NoError(t, err)

	err = storage.RunInTx(ctx, func(ctx context.Context) error {
		found, err := storage.FindPurchaseForCapture(ctx, u.ID, p.ID, "ORDER-1")
		require.NoError(t, err)
		assert.Equal(t, first.ID, found.ID)

		found, err = storage.FindPurchaseForCapture(ctx, u.ID, p.ID, "")
		require.NoError(t, err)
		assert.Equal(t, second.ID, found.ID)

		return storage.CompletePurchase(ctx, first.ID, "CAPTURE-1")
	})
	require.NoError(t, err)

	done, err := storage.HasCompletedPurchase(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, done)

	assert.ErrorIs(t, storage.CompletePurchase(ctx, first.ID, "CAPTURE-2"), ErrNotFound)

	n, err := storage.FailPendingPurchases(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := storage.GetPurchase(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseFailed, got.Status)
}

func TestStorage_DeletePackKeepsPurchases(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()
	factory := newTestDataFactory(t, storage)

	u := factory.user("frank@example.com")
	p := factory.pack(factory.category("ledger").ID, true)
	purchase, err := storage.CreatePurchase(ctx, models.PackPurchase{UserID: u.ID, PackID: p.ID, PlanLabel: "1 Month", AmountCents: 3000, Currency: "USD"})
	require.NoError(t, err)
	require.NoError(t, storage.CompletePurchase(ctx, purchase.ID, "CAP-1"))

	assert.ErrorIs(t, storage.DeletePack(ctx, p.ID), ErrInUse)

	got, err := storage.GetPurchase(ctx, purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseCompleted, got.Status)

	income, err := NewDashboard(storage).IncomeSince(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(3000), income)

	_, err = storage.GetPack(ctx, p.ID)
	require.NoError(t, err)

	empty := factory.pack(factory.category("empty").ID, false)
	require.NoError(t, storage.DeletePack(ctx, empty.ID))
}

func TestStorage_CaptureMatchesOnlyItsOrder(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()
	factory := newTestDataFactory(t, storage)

	u := factory.user("erin@example.com")
	p := factory.pack(factory.category("yoga").ID, true)

	checkout := func(orderID string) *models.PackPurchase {
		_, err := storage.FailPendingPurchases(ctx, u.ID, p.ID)
		require.NoError(t, err)
		purchase, err := storage.CreatePurchase(ctx, models.PackPurchase{UserID: u.ID, PackID: p.ID, PlanLabel: "1 Month", AmountCents: 3000, Currency: "USD"})
		require.NoError(t, err)
		require.NoError(t, storage.SetPurchaseOrderID(ctx, purchase.ID, orderID))
		return purchase
	}
	a := checkout("ORDER-A")
	b := checkout("ORDER-B")

	_, err := storage.FindPurchaseForCapture(ctx, u.ID, p.ID, "ORDER-UNKNOWN")
	assert.ErrorIs(t, err, ErrNotFound)

	found, err := storage.FindPurchaseForCapture(ctx, u.ID, p.ID, "ORDER-A")
	require.NoError(t, err)
	assert.Equal(t, a.ID, found.ID)
	assert.Equal(t, models.PurchaseFailed, found.Status)
	require.NoError(t, storage.CompletePurchase(ctx, a.ID, "CAPTURE-A"))

	got, err := storage.GetPurchase(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchasePending, got.Status)

	found, err = storage.FindPurchaseForCapture(ctx, u.ID, p.ID, "ORDER-B")
	require.NoError(t, err)
	assert.Equal(t, b.ID, found.ID)
	require.NoError(t, storage.CompletePurchase(ctx, b.ID, "CAPTURE-B"))

	got, err = storage.GetPurchase(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseCompleted, got.Status)
	assert.Equal(t, "CAPTURE-A", got.PayPalCaptureID)
}

func TestStorage_RunInTxRollback(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()

	err := storage.RunInTx(ctx, func(ctx context.Context) error {
		_, err := storage.CreateCategory(ctx, models.Category{Name: "Temp", Slug: "temp"})
		require.NoError(t, err)
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	_, err = storage.GetCategoryBySlug(ctx, "temp")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorage_MarkEventProcessedConcurrent(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan bool, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted, err := storage.MarkEventProcessed(ctx, "WH-EVENT-1", "PAYMENT.CAPTURE.COMPLETED")
			assert.NoError(t, err)
			results <- inserted
		}()
	}
	wg.Wait()
	close(results)

	inserted := 0
	for ok := range results {
		if ok {
			inserted++
		}
	}
	assert.Equal(t, 1, inserted)
}

func TestStorage_PromotionsAndDashboard(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()
	factory := newTestDataFactory(t, storage)
	now := time.Now()

	_, err := storage.FindActivePromotion(ctx, now)
	assert.ErrorIs(t, err, ErrNotFound)

	past := now.Add(-48 * time.Hour)
	yesterday := now.Add(-24 * time.Hour)
	_, err = storage.CreatePromotion(ctx, models.Promotion{Type: "percentage", Value: 50, ValidFrom: &past, ValidTo: &yesterday})
	require.NoError(t, err)
	current, err := storage.CreatePromotion(ctx, models.Promotion{Type: "fixed", Value: 150, ValidFrom: &past})
	require.NoError(t, err)

	active, err := storage.FindActivePromotion(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, current.ID, active.ID)

	u := factory.user("dave@example.com")
	p := factory.pack(factory.category("dash").ID, true)
	purchase, err := storage.CreatePurchase(ctx, models.PackPurchase{UserID: u.ID, PackID: p.ID, PlanLabel: "1 Month", AmountCents: 2850, Currency: "USD"})
	require.NoError(t, err)
	require.NoError(t, storage.CompletePurchase(ctx, purchase.ID, "CAP"))

	dashboard := NewDashboard(storage)
	users, err := dashboard.TotalUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), users)

	income, err := dashboard.IncomeSince(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(2850), income)

	top, err := dashboard.TopPacks(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, p.ID, top[0].PackID)
	assert.Equal(t, int64(1), top[0].Purchases)

	trend, err := dashboard.DailySignups(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, trend, 1)
	assert.Equal(t, int64(1), trend[0].Value)
}
