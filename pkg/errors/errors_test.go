package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{CodeValidation, http.StatusBadRequest, "validation failed", false, true},
		{CodeInsufficientStock, http.StatusBadRequest, "insufficient stock", false, true},
		{CodeUnauthorized, http.StatusUnauthorized, "authentication required", false, false},
		{CodeForbidden, http.StatusForbidden, "access denied", false, false},
		{CodeNotFound, http.StatusNotFound, "resource not found", false, false},
		{CodeConflict, http.StatusConflict, "conflict detected", false, false},
		{CodeStateConflict, http.StatusUnprocessableEntity, "state transition disallowed", false, true},
		{CodeIdempotency, http.StatusConflict, "idempotency key reused", false, true},
		{CodeInternal, http.StatusInternalServerError, "internal server error", true, false},
		{CodeDependency, http.StatusServiceUnavailable, "dependency unavailable", true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			meta := MetadataFor(tt.code)
			assert.Equal(t, tt.status, meta.HTTPStatus)
			assert.Equal(t, tt.publicMsg, meta.PublicMessage)
			assert.Equal(t, tt.retryable, meta.Retryable)
			assert.Equal(t, tt.detailsOK, meta.DetailsAllowed)
		})
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, MetadataFor("SOMETHING_UNKNOWN").HTTPStatus)
}

func TestConstructors(t *testing.T) {
	base := New(CodeValidation, "missing name")
	assert.Equal(t, CodeValidation, base.Code())
	assert.Equal(t, "missing name", base.Message())
	assert.Nil(t, base.Details())
	assert.Equal(t, "VALIDATION_ERROR: missing name", base.Error())

	base.WithDetails(map[string]any{"field": "name"})
	assert.Equal(t, map[string]any{"field": "name"}, base.Details())

	formatted := Newf(CodeValidation, "cart_items[%d].quantity must be positive", 2)
	assert.Equal(t, "cart_items[2].quantity must be positive", formatted.Message())

	cause := stdErrors.New("boom")
	wrapped := Wrapf(CodeDependency, cause, "load %s address", "shipping")
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, CodeDependency, wrapped.Code())
	assert.Equal(t, "load shipping address", wrapped.Message())

	assert.Nil(t, Wrap(CodeConflict, nil, "nothing").Unwrap())
}

func TestNilErrorIsSafe(t *testing.T) {
	var e *Error
	assert.Equal(t, CodeInternal, e.Code())
	assert.Empty(t, e.Message())
	assert.Empty(t, e.Error())
	assert.Nil(t, e.WithDetails("x"))
}

func TestAsAndIsCodeFollowWrappedChain(t *testing.T) {
	inner := New(CodeInsufficientStock, "only 1 left")
	outer := fmt.Errorf("place order: %w", inner)

	require.NotNil(t, As(outer))
	assert.Same(t, inner, As(outer))
	assert.Nil(t, As(nil))
	assert.True(t, IsCode(outer, CodeInsufficientStock))
	assert.False(t, IsCode(outer, CodeNotFound))
	assert.False(t, IsCode(stdErrors.New("plain"), CodeInternal))
}

func TestDumpCapturesChainAndCode(t *testing.T) {
	err := fmt.Errorf("handler: %w", Wrap(CodeDependency, stdErrors.New("dial tcp"), "list orders"))

	d := Dump(err)
	assert.Equal(t, err.Error(), d.TopMessage)
	assert.Equal(t, CodeDependency, d.Code)
	assert.True(t, d.Retryable)
	assert.Len(t, d.Chain, 3)
	assert.Empty(t, d.PGCode)

	fields := d.Fields()
	assert.Equal(t, CodeDependency, fields["error_code"])
	assert.NotContains(t, fields, "pg_code")

	assert.Equal(t, ErrorDump{}, Dump(nil))
}

func TestDumpReadsPostgresDetails(t *testing.T) {
	t.Run("pgx", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_orders_order_number", TableName: "orders"}
		d := Dump(Wrap(CodeConflict, pgErr, "create order"))

		assert.Equal(t, "23505", d.PGCode)
		assert.Equal(t, "ux_orders_order_number", d.PGConstraint)
		fields := d.Fields()
		assert.Equal(t, "orders", fields["pg_table"])
		assert.NotContains(t, fields, "pg_column")
	})

	t.Run("pq", func(t *testing.T) {
		pqErr := &pq.Error{Code: "23503", Constraint: "fk_order_items_order", Detail: "missing order"}
		d := Dump(fmt.Errorf("insert: %w", pqErr))

		assert.Equal(t, "23503", d.PGCode)
		assert.Equal(t, "fk_order_items_order", d.PGConstraint)
		assert.Equal(t, "missing order", d.PGDetail)
		assert.Empty(t, d.Code)
	})
}
