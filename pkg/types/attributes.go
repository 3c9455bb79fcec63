package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Attributes holds free-form variant options such as color or size.
type Attributes map[string]string

// Value marshals the map into JSON.
func (a Attributes) Value() (driver.Value, error) {
	if a == nil {
		return "{}", nil
	}
	buf, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// Scan decodes JSONB into the map.
func (a *Attributes) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	raw, ok := toBytes(value)
	if !ok {
		return fmt.Errorf("attributes: unsupported scan type %T", value)
	}

	result := make(Attributes)
	if len(raw) == 0 {
		*a = result
		return nil
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*a = result
	return nil
}
