package dbtest

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/models"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/enums"
)

// Create inserts value or fails the test.
func Create(t *testing.T, db *gorm.DB, value any) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("create %T: %v", value, err)
	}
}

// Category inserts an active category named after slug.
func Category(t *testing.T, db *gorm.DB, slug string) *models.Category {
	t.Helper()
	category := &models.Category{Name: titleCase(slug), Slug: slug, IsActive: true}
	Create(t, db, category)
	return category
}

// Product inserts an active product priced at basePriceCents.
func Product(t *testing.T, db *gorm.DB, categoryID uuid.UUID, slug string, basePriceCents int64, stock int) *models.Product {
	t.Helper()
	sku := strings.ToUpper(slug)
	product := &models.Product{
		Name:           titleCase(slug),
		Slug:           slug,
		SKU:            &sku,
		BasePriceCents: basePriceCents,
		Stock:          stock,
		IsActive:       true,
		CategoryID:     categoryID,
	}
	Create(t, db, product)
	return product
}

// Variant inserts an active variant. A nil price inherits the product price.
func Variant(t *testing.T, db *gorm.DB, productID uuid.UUID, name string, priceCents *int64, stock int) *models.ProductVariant {
	t.Helper()
	variant := &models.ProductVariant{
		ProductID:  productID,
		Name:       name,
		PriceCents: priceCents,
		Stock:      stock,
		IsActive:   true,
	}
	Create(t, db, variant)
	return variant
}

// User inserts an active customer with a placeholder password hash.
func User(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        strings.ToLower(email),
		PasswordHash: "hash",
		FirstName:    "Test",
		LastName:     "Shopper",
		Role:         enums.UserRoleCustomer,
		IsActive:     true,
	}
	Create(t, db, user)
	return user
}

// Cents is a pointer helper for optional prices.
func Cents(v int64) *int64 { return &v }

func titleCase(slug string) string {
	words := strings.Split(strings.ReplaceAll(slug, "_", "-"), "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
