package cart

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/abhishekwt3/e-commerce-mobile/internal/catalog"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/dbtest"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/models"
	pkgerrors "github.com/abhishekwt3/e-commerce-mobile/pkg/errors"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/logger"
)

type aggregatorFixture struct {
	db         *gorm.DB
	aggregator *Aggregator
	headphones *models.Product
	cable      *models.Product
	black      *models.ProductVariant
	logs       *bytes.Buffer
}

func newAggregatorFixture(t *testing.T) *aggregatorFixture {
	t.Helper()
	db := dbtest.Open(t)
	category := dbtest.Category(t, db, "audio")
	headphones := dbtest.Product(t, db, category.ID, "wireless-headphones", 5999, 10)
	cable := dbtest.Product(t, db, category.ID, "aux-cable", 999, 2)
	black := dbtest.Variant(t, db, headphones.ID, "Black", dbtest.Cents(6499), 3)

	logs := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: logs})
	aggregator, err := NewAggregator(NewRepository(db), catalog.NewReader(db), logg)
	require.NoError(t, err)

	return &aggregatorFixture{
		db:         db,
		aggregator: aggregator,
		headphones: headphones,
		cable:      cable,
		black:      black,
		logs:       logs,
	}
}

func (f *aggregatorFixture) aggregate(t *testing.T, owner Owner, input LinesInput) (*Aggregate, error) {
	t.Helper()
	var out *Aggregate
	err := f.db.Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = f.aggregator.Aggregate(context.Background(), tx, owner, input)
		return err
	})
	return out, err
}

func (f *aggregatorFixture) addLine(t *testing.T, owner Owner, productID uuid.UUID, variantID *uuid.UUID, qty int) models.CartItem {
	t.Helper()
	item := models.CartItem{
		UserID:         owner.UserID,
		GuestSessionID: owner.GuestSessionPtr(),
		ProductID:      productID,
		VariantID:      variantID,
		Quantity:       qty,
	}
	dbtest.Create(t, f.db, &item)
	return item
}

func TestNewAggregatorRequiresDependencies(t *testing.T) {
	_, err := NewAggregator(nil, catalog.NewReader(nil), nil)
	assert.Error(t, err)
	_, err = NewAggregator(NewRepository(nil), nil, nil)
	assert.Error(t, err)
}

func TestAggregateReferenceMode(t *testing.T) {
	f := newAggregatorFixture(t)
	owner := GuestOwner("guest-1700000000000-abcdefghi")
	first := f.addLine(t, owner, f.headphones.ID, nil, 2)
	second := f.addLine(t, owner, f.headphones.ID, &f.black.ID, 1)

	agg, err := f.aggregate(t, owner, ReferenceLines(first.ID, second.ID, first.ID))
	require.NoError(t, err)
	require.Len(t, agg.Lines, 2)

	assert.Equal(t, int64(5999), agg.Lines[0].UnitPriceCents)
	assert.Equal(t, int64(11998), agg.Lines[0].TotalPriceCents)
	assert.Nil(t, agg.Lines[0].VariantName)
	require.NotNil(t, agg.Lines[0].ProductSKU)
	assert.Equal(t, "WIRELESS-HEADPHONES", *agg.Lines[0].ProductSKU)

	assert.Equal(t, int64(6499), agg.Lines[1].UnitPriceCents)
	require.NotNil(t, agg.Lines[1].VariantName)
	assert.Equal(t, "Black", *agg.Lines[1].VariantName)

	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, agg.PurgeIDs)
	assert.Equal(t, 3, agg.ItemCount())
	assert.Len(t, agg.PricingLines(), 2)
}

func TestAggregateReferenceModeRejectsForeignLines(t *testing.T) {
	f := newAggregatorFixture(t)
	mine := GuestOwner("guest-mine")
	theirs := UserOwner(dbtest.User(t, f.db, "other@example.com").ID)
	own := f.addLine(t, mine, f.cable.ID, nil, 1)
	foreign := f.addLine(t, theirs, f.cable.ID, nil, 1)

	_, err := f.aggregate(t, mine, ReferenceLines(own.ID, foreign.ID))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []uuid.UUID{foreign.ID}, details["cart_item_ids"])
}

func TestAggregateInlineModeUsesCatalogPrice(t *testing.T) {
	f := newAggregatorFixture(t)
	quoted := decimal.RequireFromString("1.00")

	agg, err := f.aggregate(t, GuestOwner("guest-inline"), InlineLines(InlineLine{
		ProductID: f.headphones.ID,
		Quantity:  2,
		Price:     &quoted,
		Name:      "Cheap headphones",
	}))
	require.NoError(t, err)
	require.Len(t, agg.Lines, 1)
	assert.Equal(t, int64(5999), agg.Lines[0].UnitPriceCents)
	assert.Equal(t, "Wireless Headphones", agg.Lines[0].ProductName)
	assert.Empty(t, agg.PurgeIDs)
	assert.Contains(t, f.logs.String(), "price differs")
}

func TestAggregateChecksCumulativeStock(t *testing.T) {
	f := newAggregatorFixture(t)

	_, err := f.aggregate(t, GuestOwner("guest-stock"), InlineLines(
		InlineLine{ProductID: f.cable.ID, Quantity: 1},
		InlineLine{ProductID: f.cable.ID, Quantity: 2},
	))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	shortage, ok := pkgerrors.As(err).Details().(catalog.StockShortage)
	require.True(t, ok)
	assert.Equal(t, 3, shortage.Requested)
	assert.Equal(t, 2, shortage.Available)
}

func TestAggregateUsesVariantStock(t *testing.T) {
	f := newAggregatorFixture(t)

	_, err := f.aggregate(t, GuestOwner("guest-variant"), InlineLines(
		InlineLine{ProductID: f.headphones.ID, VariantID: &f.black.ID, Quantity: 4},
	))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
}

func TestAggregateValidation(t *testing.T) {
	f := newAggregatorFixture(t)
	owner := GuestOwner("guest-validation")

	_, err := f.aggregate(t, owner, LinesInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.aggregate(t, owner, InlineLines(InlineLine{ProductID: f.cable.ID, Quantity: 0}))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.aggregate(t, owner, InlineLines(InlineLine{Quantity: 1}))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.aggregate(t, Owner{}, InlineLines(InlineLine{ProductID: f.cable.ID, Quantity: 1}))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.aggregate(t, owner, InlineLines(InlineLine{ProductID: uuid.New(), Quantity: 1}))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.aggregator.Aggregate(context.Background(), nil, owner, ReferenceLines(uuid.New()))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
}
