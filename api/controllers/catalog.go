package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/abhishekwt3/e-commerce-mobile/api/responses"
	"github.com/abhishekwt3/e-commerce-mobile/api/validators"
	"github.com/abhishekwt3/e-commerce-mobile/internal/catalog"
	pkgerrors "github.com/abhishekwt3/e-commerce-mobile/pkg/errors"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/logger"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/pagination"
)

const (
	maxPage        = 10000
	maxQueryLength = 200
)

// pageParams reads page and the named page size parameter.
func pageParams(r *http.Request, sizeKey string, defaultSize int) (int, int, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, maxPage)
	if err != nil {
		return 0, 0, err
	}
	size, err := validators.ParseQueryInt(r, sizeKey, defaultSize, 1, pagination.MaxLimit)
	if err != nil {
		return 0, 0, err
	}
	return page, size, nil
}

// CatalogProducts lists active products for the storefront grid.
func CatalogProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		page, size, err := pageParams(r, "pageSize", catalog.DefaultPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		featured, err := validators.ParseQueryBool(r, "featured")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListProducts(r.Context(), catalog.ListProductsInput{
			Category: validators.QueryString(r, "category", maxQueryLength),
			Featured: featured,
			Search:   validators.QueryString(r, "search", maxQueryLength),
			Sort:     validators.QueryString(r, "sort", 32),
			Order:    validators.QueryString(r, "order", 8),
			Page:     page,
			PageSize: size,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func CatalogProductDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		detail, err := svc.GetProduct(r.Context(), strings.TrimSpace(chi.URLParam(r, "slug")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"product": detail})
	}
}

// CatalogCategories returns the category tree. parentId=null selects roots.
func CatalogCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		include, err := validators.ParseQueryBool(r, "includeProducts")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListCategories(r.Context(), catalog.ListCategoriesInput{
			ParentID:        validators.QueryString(r, "parentId", 64),
			IncludeProducts: include,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func CatalogSearch(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		page, limit, err := pageParams(r, "limit", catalog.DefaultPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inStock, err := validators.ParseQueryBool(r, "inStock")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Search(r.Context(), catalog.SearchInput{
			Query:    validators.QueryString(r, "q", maxQueryLength),
			Category: validators.QueryString(r, "category", maxQueryLength),
			Brand:    validators.QueryString(r, "brand", maxQueryLength),
			MinPrice: validators.QueryString(r, "minPrice", 32),
			MaxPrice: validators.QueryString(r, "maxPrice", 32),
			InStock:  inStock,
			Sort:     validators.QueryString(r, "sort", 32),
			Order:    validators.QueryString(r, "order", 8),
			Page:     page,
			Limit:    limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
