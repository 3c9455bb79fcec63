package address

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/models"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/enums"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/errors"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error)
	Create(ctx context.Context, userID uuid.UUID, input Input) (*AddressDTO, error)
	Update(ctx context.Context, userID, id uuid.UUID, input Input) (*AddressDTO, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// Input is the body of create and update requests.
type Input struct {
	Type      string `json:"type" validate:"required,oneof=SHIPPING BILLING shipping billing"`
	IsDefault bool   `json:"is_default"`
	types.Address
}

type AddressDTO struct {
	ID        uuid.UUID         `json:"id"`
	Type      enums.AddressType `json:"type"`
	IsDefault bool              `json:"is_default"`
	types.Address
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error) {
	rows, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "list addresses")
	}
	out := make([]AddressDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input Input) (*AddressDTO, error) {
	kind, snap, err := normalize(input)
	if err != nil {
		return nil, err
	}
	row := models.Address{UserID: userID, Type: kind, IsDefault: input.IsDefault}
	apply(&row, snap)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if row.IsDefault {
			if err := repo.ClearDefault(ctx, userID, kind, uuid.Nil); err != nil {
				return errors.Wrap(errors.CodeDependency, err, "clear default address")
			}
		}
		if err := repo.Create(ctx, &row); err != nil {
			return errors.Wrap(errors.CodeDependency, err, "create address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := toDTO(row)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, input Input) (*AddressDTO, error) {
	kind, snap, err := normalize(input)
	if err != nil {
		return nil, err
	}

	var row *models.Address
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err = repo.Find(ctx, userID, id)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New(errors.CodeNotFound, "address not found")
			}
			return errors.Wrap(errors.CodeDependency, err, "load address")
		}
		row.Type = kind
		row.IsDefault = input.IsDefault
		apply(row, snap)
		if row.IsDefault {
			if err := repo.ClearDefault(ctx, userID, kind, row.ID); err != nil {
				return errors.Wrap(errors.CodeDependency, err, "clear default address")
			}
		}
		if err := repo.Save(ctx, row); err != nil {
			return errors.Wrap(errors.CodeDependency, err, "update address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := toDTO(*row)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.repo.Find(ctx, userID, id); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New(errors.CodeNotFound, "address not found")
		}
		return errors.Wrap(errors.CodeDependency, err, "load address")
	}
	used, err := s.repo.ReferencedByOrder(ctx, id)
	if err != nil {
		return errors.Wrap(errors.CodeDependency, err, "check address usage")
	}
	if used {
		return errors.New(errors.CodeConflict, "address is used by an existing order")
	}
	if _, err := s.repo.Delete(ctx, userID, id); err != nil {
		return errors.Wrap(errors.CodeDependency, err, "delete address")
	}
	return nil
}

func normalize(input Input) (enums.AddressType, types.Address, error) {
	kind := enums.AddressType(strings.ToUpper(strings.TrimSpace(input.Type)))
	if !kind.IsValid() {
		return "", types.Address{}, errors.New(errors.CodeValidation, "type must be SHIPPING or BILLING")
	}
	snap := input.Address.Normalize()
	required := []struct{ field, value string }{
		{"first_name", snap.FirstName},
		{"last_name", snap.LastName},
		{"address1", snap.Address1},
		{"city", snap.City},
		{"state", snap.State},
		{"postal_code", snap.PostalCode},
	}
	missing := make([]string, 0)
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.field)
		}
	}
	if len(missing) > 0 {
		return "", types.Address{}, errors.New(errors.CodeValidation, "address is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	return kind, snap, nil
}

func apply(row *models.Address, snap types.Address) {
	row.FirstName = snap.FirstName
	row.LastName = snap.LastName
	row.Company = snap.Company
	row.Address1 = snap.Address1
	row.Address2 = snap.Address2
	row.City = snap.City
	row.State = snap.State
	row.PostalCode = snap.PostalCode
	row.Country = snap.Country
	row.Phone = snap.Phone
}

func toDTO(row models.Address) AddressDTO {
	return AddressDTO{
		ID:        row.ID,
		Type:      row.Type,
		IsDefault: row.IsDefault,
		Address:   row.Snapshot(),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
