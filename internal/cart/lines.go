package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LinesMode tells how an order request names its lines.
type LinesMode int

const (
	ModeNone LinesMode = iota
	// ModeReference lists ids of stored cart lines.
	ModeReference
	// ModeInline carries the lines in the request body.
	ModeInline
)

// InlineLine is a client-described line. Price and Name are informational:
// the aggregator prices every line from the catalog.
type InlineLine struct {
	ProductID uuid.UUID        `json:"productId"`
	VariantID *uuid.UUID       `json:"variantId,omitempty"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Name      string           `json:"name,omitempty"`
}

// LinesInput is the cartItems field of an order request. It decodes from
// either a JSON array of cart line ids or a JSON array of inline lines.
type LinesInput struct {
	References []uuid.UUID
	Inline     []InlineLine
}

func ReferenceLines(ids ...uuid.UUID) LinesInput {
	return LinesInput{References: ids}
}

func InlineLines(lines ...InlineLine) LinesInput {
	return LinesInput{Inline: lines}
}

func (in LinesInput) Mode() LinesMode {
	switch {
	case len(in.References) > 0:
		return ModeReference
	case len(in.Inline) > 0:
		return ModeInline
	default:
		return ModeNone
	}
}

func (in LinesInput) Len() int {
	return len(in.References) + len(in.Inline)
}

func (in *LinesInput) UnmarshalJSON(data []byte) error {
	*in = LinesInput{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("cartItems must be an array")
	}
	if len(raw) == 0 {
		return nil
	}

	if first := bytes.TrimSpace(raw[0]); len(first) > 0 && first[0] == '"' {
		ids := make([]uuid.UUID, 0, len(raw))
		for i, item := range raw {
			var id uuid.UUID
			if err := json.Unmarshal(item, &id); err != nil {
				return fmt.Errorf("cartItems[%d] must be a cart item id", i)
			}
			ids = append(ids, id)
		}
		in.References = ids
		return nil
	}

	lines := make([]InlineLine, 0, len(raw))
	for i, item := range raw {
		var line InlineLine
		decoder := json.NewDecoder(bytes.NewReader(item))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&line); err != nil {
			if strings.HasPrefix(err.Error(), "json: unknown field ") {
				return err
			}
			return fmt.Errorf("cartItems[%d] must be a cart line object", i)
		}
		lines = append(lines, line)
	}
	in.Inline = lines
	return nil
}

func (in LinesInput) MarshalJSON() ([]byte, error) {
	if in.Mode() == ModeReference {
		return json.Marshal(in.References)
	}
	if in.Inline == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(in.Inline)
}
