package reviews

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abhishekwt3/e-commerce-mobile/internal/catalog"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/db"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/models"
	pkgerrors "github.com/abhishekwt3/e-commerce-mobile/pkg/errors"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/logger"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/pagination"
)

const (
	reviewConstraint = "ux_reviews_product_user"
	minRating        = 1
	maxRating        = 5
)

type cacheInvalidator interface {
	Invalidate(ctx context.Context, slugs ...string) error
}

type Service interface {
	List(ctx context.Context, input ListInput) (*ReviewList, error)
	Create(ctx context.Context, input CreateInput) (*catalog.ReviewDTO, error)
}

type ListInput struct {
	Slug   string
	Rating int
	Page   int
	Limit  int
}

type CreateInput struct {
	Slug    string    `json:"-"`
	UserID  uuid.UUID `json:"-"`
	Rating  int       `json:"rating" validate:"required,min=1,max=5"`
	Title   *string   `json:"title" validate:"omitempty,max=200"`
	Comment *string   `json:"comment" validate:"omitempty,max=5000"`
}

// RatingBucket is one row of the star breakdown.
type RatingBucket struct {
	Rating int   `json:"rating"`
	Count  int64 `json:"count"`
}

type Stats struct {
	AverageRating float64        `json:"average_rating"`
	TotalReviews  int64          `json:"total_reviews"`
	Breakdown     []RatingBucket `json:"rating_breakdown"`
}

type ReviewList struct {
	Reviews    []catalog.ReviewDTO `json:"reviews"`
	Stats      Stats               `json:"stats"`
	Pagination pagination.PageInfo `json:"pagination"`
}

type service struct {
	repo  *Repository
	cache cacheInvalidator
	logg  *logger.Logger
}

func NewService(repo *Repository, cache cacheInvalidator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	return &service{repo: repo, cache: cache, logg: logg}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ReviewList, error) {
	if input.Rating != 0 && (input.Rating < minRating || input.Rating > maxRating) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	product, err := s.product(ctx, input.Slug)
	if err != nil {
		return nil, err
	}

	params := pagination.Params{Page: input.Page, Limit: input.Limit}.Normalize(pagination.DefaultLimit)
	rows, total, err := s.repo.ListApproved(ctx, product.ID, input.Rating, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	counts, err := s.repo.RatingCounts(ctx, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rating stats")
	}

	out := make([]catalog.ReviewDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, catalog.ToReviewDTO(row))
	}
	return &ReviewList{
		Reviews:    out,
		Stats:      buildStats(counts),
		Pagination: pagination.NewPageInfo(params, total),
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*catalog.ReviewDTO, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if input.Rating < minRating || input.Rating > maxRating {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	product, err := s.product(ctx, input.Slug)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.Exists(ctx, product.ID, input.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing review")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "you have already reviewed this product")
	}
	verified, err := s.repo.HasDeliveredPurchase(ctx, input.UserID, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check purchase")
	}

	review := models.Review{
		ProductID:          product.ID,
		UserID:             input.UserID,
		Rating:             input.Rating,
		Title:              trimmed(input.Title),
		Comment:            trimmed(input.Comment),
		IsVerifiedPurchase: verified,
		IsApproved:         true,
	}
	if err := s.repo.Create(ctx, &review); err != nil {
		if db.IsUniqueViolation(err, reviewConstraint) || db.IsUniqueViolation(err, "reviews.product_id") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "you have already reviewed this product")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, product.Slug); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "slug", product.Slug), "product cache invalidation failed: "+err.Error())
		}
	}

	saved, err := s.repo.FindByID(ctx, review.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}
	dto := catalog.ToReviewDTO(*saved)
	return &dto, nil
}

func (s *service) product(ctx context.Context, slug string) (*models.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug required")
	}
	product, err := s.repo.FindProduct(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

// buildStats averages over every approved review, rounded to one decimal.
func buildStats(counts []ratingCount) Stats {
	byRating := make(map[int]int64, len(counts))
	var total, sum int64
	for _, c := range counts {
		byRating[c.Rating] = c.Count
		total += c.Count
		sum += int64(c.Rating) * c.Count
	}

	stats := Stats{TotalReviews: total, Breakdown: make([]RatingBucket, 0, maxRating)}
	for rating := maxRating; rating >= minRating; rating-- {
		stats.Breakdown = append(stats.Breakdown, RatingBucket{Rating: rating, Count: byRating[rating]})
	}
	if total > 0 {
		stats.AverageRating = math.Round(float64(sum)/float64(total)*10) / 10
	}
	return stats
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
