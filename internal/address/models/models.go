package models

import "strings"

// PostalCodeLength is the digit count of a normalized postal code.
const PostalCodeLength = 8

// PostalAddress is a resolved address. The remote lookup never supplies Number
// or Complement; callers attach them after resolution.
type PostalAddress struct {
	PostalCode string `json:"postal_code"`
	Street     string `json:"street"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
	Number     string `json:"number,omitempty"`
	Complement string `json:"complement,omitempty"`
}

// WithPremise returns a copy of a carrying the caller-supplied number and complement.
func (a PostalAddress) WithPremise(number, complement string) PostalAddress {
	a.Number = strings.TrimSpace(number)
	a.Complement = strings.TrimSpace(complement)
	return a
}

// LookupPayload is what the remote postal lookup returns for a known code.
type LookupPayload struct {
	PostalCode string
	Street     string
	District   string
	City       string
	State      string
}

// ToAddress builds a fresh PostalAddress keyed by the normalized code.
func (p LookupPayload) ToAddress(normalizedCode string) PostalAddress {
	return PostalAddress{
		PostalCode: normalizedCode,
		Street:     p.Street,
		District:   p.District,
		City:       p.City,
		State:      p.State,
	}
}

// NormalizePostalCode keeps only ASCII digits.
func NormalizePostalCode(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			b.WriteByte(raw[i])
		}
	}
	return b.String()
}

// FormatPostalCode renders NNNNN-NNN for an 8-digit code and returns other input unchanged.
func FormatPostalCode(code string) string {
	if len(code) != PostalCodeLength {
		return code
	}
	return code[:5] + "-" + code[5:]
}
