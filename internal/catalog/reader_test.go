package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/dbtest"
	pkgerrors "github.com/abhishekwt3/e-commerce-mobile/pkg/errors"
)

func TestResolvePriceAndStockPrecedence(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	category := dbtest.Category(t, db, "audio")
	product := dbtest.Product(t, db, category.ID, "wireless-headphones", 7999, 3)
	require.NoError(t, db.Model(product).Update("sale_price_cents", 5999).Error)
	priced := dbtest.Variant(t, db, product.ID, "Black", dbtest.Cents(6499), 7)
	inherit := dbtest.Variant(t, db, product.ID, "White", nil, 1)

	reader := NewReader(db)

	resolved, err := reader.Resolve(ctx, product.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5999), resolved.UnitPriceCents())
	assert.Equal(t, 3, resolved.AvailableStock())
	assert.Nil(t, resolved.VariantName())

	resolved, err = reader.Resolve(ctx, product.ID, &priced.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6499), resolved.UnitPriceCents())
	assert.Equal(t, 7, resolved.AvailableStock())
	require.NotNil(t, resolved.VariantName())
	assert.Equal(t, "Black", *resolved.VariantName())

	resolved, err = reader.Resolve(ctx, product.ID, &inherit.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5999), resolved.UnitPriceCents())
	assert.Equal(t, 1, resolved.AvailableStock())
}

func TestResolveRejectsInactiveAndForeignRows(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	category := dbtest.Category(t, db, "audio")
	product := dbtest.Product(t, db, category.ID, "speaker", 2500, 5)
	other := dbtest.Product(t, db, category.ID, "cable", 500, 5)
	foreignVariant := dbtest.Variant(t, db, other.ID, "2m", nil, 5)
	retired := dbtest.Variant(t, db, product.ID, "Old", nil, 5)
	require.NoError(t, db.Model(retired).Update("is_active", false).Error)

	reader := NewReader(db)

	_, err := reader.Resolve(ctx, uuid.New(), nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = reader.Resolve(ctx, product.ID, &foreignVariant.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = reader.Resolve(ctx, product.ID, &retired.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, db.Model(product).Update("is_active", false).Error)
	_, err = reader.Resolve(ctx, product.ID, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestEnsureStock(t *testing.T) {
	db := dbtest.Open(t)
	category := dbtest.Category(t, db, "audio")
	product := dbtest.Product(t, db, category.ID, "earbuds", 4999, 2)

	resolved, err := NewReader(db).Resolve(context.Background(), product.ID, nil)
	require.NoError(t, err)

	require.NoError(t, resolved.EnsureStock(2))

	err = resolved.EnsureStock(3)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	shortage, ok := typed.Details().(StockShortage)
	require.True(t, ok)
	assert.Equal(t, 3, shortage.Requested)
	assert.Equal(t, 2, shortage.Available)
}

func TestResolveForUpdateInsideTransaction(t *testing.T) {
	db := dbtest.Open(t)
	category := dbtest.Category(t, db, "audio")
	product := dbtest.Product(t, db, category.ID, "amp", 19999, 1)
	reader := NewReader(db)

	_, err := reader.ResolveForUpdate(context.Background(), nil, product.ID, nil)
	require.Error(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		resolved, err := reader.ResolveForUpdate(context.Background(), tx, product.ID, nil)
		if err != nil {
			return err
		}
		assert.Equal(t, product.ID, resolved.Product.ID)
		return nil
	})
	require.NoError(t, err)
}
