package orders

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/db"
)

const (
	orderNumberPrefix     = "ORD-"
	orderNumberConstraint = "ux_orders_order_number"
	maxOrderNumberTries   = 5

	orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NumberFunc produces candidate order numbers.
type NumberFunc func(now time.Time) string

// NewOrderNumber formats ORD-<last 8 digits of unix millis><4 random chars>.
func NewOrderNumber(now time.Time) string {
	millis := strconv.FormatInt(now.UnixMilli(), 10)
	if len(millis) > 8 {
		millis = millis[len(millis)-8:]
	}
	var b strings.Builder
	b.Grow(len(orderNumberPrefix) + 12)
	b.WriteString(orderNumberPrefix)
	b.WriteString(millis)
	for i := 0; i < 4; i++ {
		b.WriteByte(orderNumberAlphabet[rand.IntN(len(orderNumberAlphabet))])
	}
	return b.String()
}

// isNumberCollision matches the unique index on Postgres and the column form
// sqlite reports.
func isNumberCollision(err error) bool {
	return db.IsUniqueViolation(err, orderNumberConstraint) ||
		db.IsUniqueViolation(err, "orders.order_number")
}
