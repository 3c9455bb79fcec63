package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/models"
	pkgerrors "github.com/abhishekwt3/e-commerce-mobile/pkg/errors"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/money"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/pagination"
)

const (
	// DefaultPageSize is the browse and search page size.
	DefaultPageSize = 12
	// MinSearchTermLength is the shortest query /search will run.
	MinSearchTermLength = 2

	categoryProductLimit = 10
	suggestionLimit      = 3
)

// Service exposes the read side of the catalog.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductList, error)
	GetProduct(ctx context.Context, slug string) (*ProductDetail, error)
	ListCategories(ctx context.Context, input ListCategoriesInput) (*CategoryList, error)
	Search(ctx context.Context, input SearchInput) (*SearchResult, error)
}

type ListProductsInput struct {
	Category string
	Featured bool
	Search   string
	Sort     string
	Order    string
	Page     int
	PageSize int
}

type ListCategoriesInput struct {
	// ParentID is "" for every category, "null" for roots, else a uuid.
	ParentID        string
	IncludeProducts bool
}

type SearchInput struct {
	Query    string
	Category string
	Brand    string
	MinPrice string
	MaxPrice string
	InStock  bool
	Sort     string
	Order    string
	Page     int
	Limit    int
}

type service struct {
	repo  *Repository
	cache *ProductCache
}

// NewService builds the catalog service. cache may be nil.
func NewService(repo *Repository, cache *ProductCache) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo, cache: cache}, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductList, error) {
	params := pagination.Params{Page: input.Page, Limit: input.PageSize}.Normalize(DefaultPageSize)

	sort := ProductSort(input.Sort)
	switch sort {
	case SortName, SortPrice, SortCreatedAt:
	default:
		sort = SortCreatedAt
	}

	products, total, err := s.repo.ListProducts(ctx, ProductQuery{
		CategorySlug: strings.TrimSpace(input.Category),
		FeaturedOnly: input.Featured,
		Search:       input.Search,
		Sort:         sort,
		Descending:   !strings.EqualFold(input.Order, "asc"),
		Page:         params,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	dtos, err := s.cards(ctx, products)
	if err != nil {
		return nil, err
	}
	return &ProductList{Products: dtos, Pagination: pagination.NewPageInfo(params, total)}, nil
}

func (s *service) GetProduct(ctx context.Context, slug string) (*ProductDetail, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug required")
	}
	return s.cache.GetOrLoad(ctx, slug, func(ctx context.Context) (*ProductDetail, error) {
		return s.loadDetail(ctx, slug)
	})
}

func (s *service) loadDetail(ctx context.Context, slug string) (*ProductDetail, error) {
	product, err := s.repo.FindActiveBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	reviews, err := s.repo.ApprovedReviews(ctx, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reviews")
	}

	rating := RatingSummary{ProductID: product.ID, Count: int64(len(reviews))}
	reviewDTOs := make([]ReviewDTO, 0, len(reviews))
	sum := 0
	for _, review := range reviews {
		sum += review.Rating
		reviewDTOs = append(reviewDTOs, ToReviewDTO(review))
	}
	if len(reviews) > 0 {
		rating.Average = float64(sum) / float64(len(reviews))
	}

	return &ProductDetail{
		ProductDTO: ToProductDTO(*product, rating),
		Reviews:    reviewDTOs,
	}, nil
}

func (s *service) ListCategories(ctx context.Context, input ListCategoriesInput) (*CategoryList, error) {
	var query CategoryQuery
	switch parent := strings.TrimSpace(input.ParentID); parent {
	case "":
	case "null":
		query.RootsOnly = true
	default:
		id, err := uuid.Parse(parent)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "parentId must be a uuid or null")
		}
		query.ParentID = &id
	}

	categories, err := s.repo.ListCategories(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}

	out := make([]CategoryDTO, 0, len(categories))
	for _, category := range categories {
		dto := toCategoryDTO(category)
		if input.IncludeProducts {
			products, count, err := s.repo.CategoryProducts(ctx, category.ID, categoryProductLimit)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list category products")
			}
			dto.Products = make([]CategoryProductDTO, 0, len(products))
			for _, p := range products {
				dto.Products = append(dto.Products, toCategoryProductDTO(p))
			}
			dto.ProductCount = &count
		}
		out = append(out, dto)
	}
	return &CategoryList{Categories: out, Total: len(out)}, nil
}

func (s *service) Search(ctx context.Context, input SearchInput) (*SearchResult, error) {
	params := pagination.Params{Page: input.Page, Limit: input.Limit}.Normalize(DefaultPageSize)
	term := strings.TrimSpace(input.Query)

	sort := SearchSort(input.Sort)
	switch sort {
	case SearchRelevance, SearchPriceAsc, SearchPriceDesc, SearchName, SearchNewest, SearchOldest:
	default:
		sort = SearchRelevance
	}

	result := &SearchResult{
		Products:    []ProductDTO{},
		Suggestions: Suggestions{Categories: []Suggestion{}, Brands: []Suggestion{}},
		Filters: SearchFilters{
			Query:    term,
			Category: input.Category,
			Brand:    input.Brand,
			InStock:  input.InStock,
			Sort:     string(sort),
		},
	}
	if len([]rune(term)) < MinSearchTermLength {
		result.Pagination = pagination.NewPageInfo(pagination.Params{Page: 1, Limit: params.Limit}, 0)
		return result, nil
	}

	query := SearchQuery{
		Term:         term,
		CategorySlug: strings.TrimSpace(input.Category),
		BrandSlug:    strings.TrimSpace(input.Brand),
		InStock:      input.InStock,
		Sort:         sort,
		Descending:   strings.EqualFold(input.Order, "desc"),
		Page:         params,
	}
	var err error
	if query.MinPriceCents, err = parseOptionalPrice("minPrice", input.MinPrice); err != nil {
		return nil, err
	}
	if query.MaxPriceCents, err = parseOptionalPrice("maxPrice", input.MaxPrice); err != nil {
		return nil, err
	}
	result.Filters.MinPrice = money.FormatPtr(query.MinPriceCents)
	result.Filters.MaxPrice = money.FormatPtr(query.MaxPriceCents)

	products, total, err := s.repo.SearchProducts(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search products")
	}
	if result.Products, err = s.cards(ctx, products); err != nil {
		return nil, err
	}

	categories, brands, err := s.repo.Suggestions(ctx, term, suggestionLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load suggestions")
	}
	for _, c := range categories {
		result.Suggestions.Categories = append(result.Suggestions.Categories, Suggestion{Label: c.Name, Value: c.Slug, Type: "category"})
	}
	for _, b := range brands {
		result.Suggestions.Brands = append(result.Suggestions.Brands, Suggestion{Label: b.Name, Value: b.Slug, Type: "brand"})
	}

	result.Pagination = pagination.NewPageInfo(params, total)
	return result, nil
}

func parseOptionalPrice(field, raw string) (*int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	cents, err := money.ParseCents(raw)
	if err != nil || cents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, field+" must be a non-negative amount")
	}
	return &cents, nil
}

func (s *service) cards(ctx context.Context, products []models.Product) ([]ProductDTO, error) {
	ids := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	ratings, err := s.repo.RatingSummaries(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ratings")
	}
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, ToProductDTO(p, ratings[p.ID]))
	}
	return out, nil
}
