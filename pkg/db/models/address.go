package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/enums"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/types"
)

// Address is a saved postal address of a registered user.
type Address struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	Type       enums.AddressType `gorm:"column:type;not null"`
	FirstName  string            `gorm:"column:first_name;not null"`
	LastName   string            `gorm:"column:last_name;not null"`
	Company    *string           `gorm:"column:company"`
	Address1   string            `gorm:"column:address1;not null"`
	Address2   *string           `gorm:"column:address2"`
	City       string            `gorm:"column:city;not null"`
	State      string            `gorm:"column:state;not null"`
	PostalCode string            `gorm:"column:postal_code;not null"`
	Country    string            `gorm:"column:country;not null"`
	Phone      *string           `gorm:"column:phone"`
	IsDefault  bool              `gorm:"column:is_default;not null"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Address) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// Snapshot copies the address into its JSON form.
func (a Address) Snapshot() types.Address {
	return types.Address{
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Company:    a.Company,
		Address1:   a.Address1,
		Address2:   a.Address2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	}
}
