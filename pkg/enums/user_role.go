package enums

// UserRole is carried in access tokens and checked by RequireRole.
type UserRole string

const (
	UserRoleCustomer UserRole = "CUSTOMER"
	UserRoleAdmin    UserRole = "ADMIN"
)

func (r UserRole) String() string { return string(r) }
func (r UserRole) IsValid() bool  { return r == UserRoleCustomer || r == UserRoleAdmin }

// AddressType distinguishes shipping and billing entries in the address book.
type AddressType string

const (
	AddressTypeShipping AddressType = "SHIPPING"
	AddressTypeBilling  AddressType = "BILLING"
)

func (a AddressType) String() string { return string(a) }
func (a AddressType) IsValid() bool  { return a == AddressTypeShipping || a == AddressTypeBilling }
