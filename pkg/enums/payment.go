package enums

// PaymentMethod is how the shopper settles the order. Only cash on delivery
// is collected today; the rest are recorded as pending payments.
type PaymentMethod string

const (
	PaymentMethodCOD          PaymentMethod = "cod"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodWallet       PaymentMethod = "wallet"
)

var paymentMethods = []PaymentMethod{
	PaymentMethodCOD, PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodWallet,
}

func (p PaymentMethod) String() string { return string(p) }
func (p PaymentMethod) IsValid() bool  { return member(p, paymentMethods) }

func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	return parse("payment method", raw, paymentMethods)
}

// PaymentStatus tracks settlement of a single payment row and is mirrored
// onto the order.
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "PENDING"
	PaymentStatusCompleted         PaymentStatus = "COMPLETED"
	PaymentStatusFailed            PaymentStatus = "FAILED"
	PaymentStatusRefunded          PaymentStatus = "REFUNDED"
	PaymentStatusPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

var paymentStatuses = []PaymentStatus{
	PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed,
	PaymentStatusRefunded, PaymentStatusPartiallyRefunded,
}

func (p PaymentStatus) String() string { return string(p) }
func (p PaymentStatus) IsValid() bool  { return member(p, paymentStatuses) }
