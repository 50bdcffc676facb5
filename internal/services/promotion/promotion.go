// Package services управление акциями и расчёт цены со скидкой.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/elearning-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
	"github.com/magabrotheeeer/elearning-platform/internal/storage/repository"
)

type Repository interface {
	FindActivePromotion(ctx context.Context, now time.Time) (*models.Promotion, error)
	ListPromotions(ctx context.Context) ([]*models.Promotion, error)
	GetPromotion(ctx context.Context, id string) (*models.Promotion, error)
	CreatePromotion(ctx context.Context, promo models.Promotion) (*models.Promotion, error)
	UpdatePromotion(ctx context.Context, promo models.Promotion) (*models.Promotion, error)
	DeletePromotion(ctx context.Context, id string) error
}

// Quote цена покупки с учётом действующей акции.
type Quote struct {
	BaseCents  int64
	FinalCents int64
	Promotion  *models.Promotion
}

type PromotionService struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

func NewPromotionService(repo Repository, log *slog.Logger) *PromotionService {
	return &PromotionService{repo: repo, log: log, now: time.Now}
}

// ActiveDiscount возвращает самую новую действующую акцию и её скидку.
// Если акций нет, возвращается NoDiscount и nil.
func (s *PromotionService) ActiveDiscount(ctx context.Context) (*models.Promotion, Discount, error) {
	const op = "services.promotion.ActiveDiscount"
	promo, err := s.repo.FindActivePromotion(ctx, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NoDiscount, nil
	}
	if err != nil {
		return nil, NoDiscount, fmt.Errorf("%s: %w", op, err)
	}
	return promo, DiscountFor(promo), nil
}

// Quote применяет к цене самую новую действующую акцию.
// Акция глобальная: действует на все паки и тарифы.
func (s *PromotionService) Quote(ctx context.Context, priceCents int64) (*Quote, error) {
	promo, discount, err := s.ActiveDiscount(ctx)
	if err != nil {
		return nil, err
	}

	q := &Quote{BaseCents: priceCents, FinalCents: discount.Apply(priceCents), Promotion: promo}
	if promo == nil {
		return q, nil
	}
	s.log.Debug("promotion applied",
		slog.String("promotion_id", promo.ID),
		slog.Int64("base_cents", priceCents),
		slog.Int64("final_cents", q.FinalCents))
	return q, nil
}

func (s *PromotionService) List(ctx context.Context) ([]*models.Promotion, error) {
	promos, err := s.repo.ListPromotions(ctx)
	if err != nil {
		return nil, fmt.Errorf("services.promotion.List: %w", err)
	}
	return promos, nil
}

func (s *PromotionService) Get(ctx context.Context, id string) (*models.Promotion, error) {
	promo, err := s.repo.GetPromotion(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("promotion not found")
	}
	if err != nil {
		return nil, fmt.Errorf("services.promotion.Get: %w", err)
	}
	return promo, nil
}

func (s *PromotionService) Create(ctx context.Context, promo models.Promotion) (*models.Promotion, error) {
	if err := validate(promo); err != nil {
		return nil, err
	}
	created, err := s.repo.CreatePromotion(ctx, promo)
	if err != nil {
		return nil, fmt.Errorf("services.promotion.Create: %w", err)
	}
	s.log.Info("promotion created", slog.String("id", created.ID), slog.String("type", created.Type))
	return created, nil
}

func (s *PromotionService) Update(ctx context.Context, promo models.Promotion) (*models.Promotion, error) {
	if err := validate(promo); err != nil {
		return nil, err
	}
	updated, err := s.repo.UpdatePromotion(ctx, promo)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("promotion not found")
	}
	if err != nil {
		return nil, fmt.Errorf("services.promotion.Update: %w", err)
	}
	return updated, nil
}

func (s *PromotionService) Delete(ctx context.Context, id string) error {
	err := s.repo.DeletePromotion(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("promotion not found")
	}
	if err != nil {
		return fmt.Errorf("services.promotion.Delete: %w", err)
	}
	return nil
}

func validate(p models.Promotion) error {
	if p.Value < 0 {
		return apperr.Validation("promotion value must not be negative")
	}
	if DiscountFor(&p).IsPercentage() && p.Value > 100 {
		return apperr.Validation("percentage promotion must not exceed 100")
	}
	if p.ValidFrom != nil && p.ValidTo != nil && p.ValidTo.Before(*p.ValidFrom) {
		return apperr.Validation("valid_to must not be before valid_from")
	}
	return nil
}
