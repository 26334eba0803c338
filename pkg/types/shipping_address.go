package types

import "strings"

// ShippingAddress is the immutable snapshot captured at checkout time. Later
// profile edits never touch it.
type ShippingAddress struct {
	Name       string `json:"name"`
	PostalCode string `json:"postal_code"`
	Address    string `json:"address"`
	Phone      string `json:"phone"`
}

// IsComplete reports whether the snapshot carries enough data to ship.
func (s ShippingAddress) IsComplete() bool {
	return strings.TrimSpace(s.Name) != "" &&
		strings.TrimSpace(s.PostalCode) != "" &&
		strings.TrimSpace(s.Address) != ""
}
