// Package enums holds the closed string sets persisted in the database and
// exchanged over the API.
package enums

import (
	"fmt"
	"slices"
)

func member[T ~string](v T, set []T) bool {
	return slices.Contains(set, v)
}

func parse[T ~string](kind, raw string, set []T) (T, error) {
	if v := T(raw); member(v, set) {
		return v, nil
	}
	return "", fmt.Errorf("invalid %s %q", kind, raw)
}
