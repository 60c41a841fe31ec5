package order

import (
	"encoding/json"
	"strings"
)

// ShippingAddress is the structured form of a checkout address. Clients
// historically submitted the address either as an object or as a
// pre-formatted string; NormalizeAddress folds both variants into one
// canonical persisted form.
type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// Complete reports whether all required address fields are present.
// Phone is optional.
func (a ShippingAddress) Complete() bool {
	return a.FullName != "" && a.Street != "" && a.City != "" &&
		a.State != "" && a.PostalCode != "" && a.Country != ""
}

// String renders the canonical single-line form used for persistence.
func (a ShippingAddress) String() string {
	parts := []string{a.FullName, a.Street, a.City, a.State, a.PostalCode, a.Country}
	if a.Phone != "" {
		parts = append(parts, a.Phone)
	}
	return strings.Join(parts, ", ")
}

// NormalizeAddress accepts the raw JSON value of a customerAddress field,
// which may be either a structured object or an opaque string, and returns
// the canonical string form. A null or absent value normalizes to "".
func NormalizeAddress(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var a ShippingAddress
	if err := json.Unmarshal(raw, &a); err == nil {
		return a.String()
	}

	return ""
}
