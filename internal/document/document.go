// Package document validates and formats the two national tax ID schemes a person
// can carry: the 11-digit personal ID and the 14-digit organizational ID.
//
// Every function is pure. Malformed input never produces an error: validation
// reports false and formatting returns the normalized input unchanged.
package document

import (
	"strings"
	"unicode"
)

// Kind selects a document scheme.
type Kind string

const (
	KindPersonal       Kind = "personal"
	KindOrganizational Kind = "organizational"
)

const (
	PersonalLength       = 11
	OrganizationalLength = 14
)

var (
	personalFirstWeights        = []int{10, 9, 8, 7, 6, 5, 4, 3, 2}
	personalSecondWeights       = []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2}
	organizationalFirstWeights  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	organizationalSecondWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// Valid reports whether k is a known scheme.
func (k Kind) Valid() bool {
	return k == KindPersonal || k == KindOrganizational
}

func (k Kind) length() int {
	if k == KindOrganizational {
		return OrganizationalLength
	}
	return PersonalLength
}

// Normalize trims surrounding whitespace and drops punctuation such as
// periods, hyphens and slashes. Letters and digits are kept.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// OnlyDigits keeps the ASCII digits of raw. Used as the uniqueness key of a document.
func OnlyDigits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			b.WriteByte(raw[i])
		}
	}
	return b.String()
}

// IsValidPersonal checks length, repeated digits and both check digits of a personal ID.
func IsValidPersonal(raw string) bool {
	return isValid(Normalize(raw), PersonalLength, personalFirstWeights, personalSecondWeights)
}

// IsValidOrganizational checks length, repeated digits and both check digits of an organizational ID.
func IsValidOrganizational(raw string) bool {
	return isValid(Normalize(raw), OrganizationalLength, organizationalFirstWeights, organizationalSecondWeights)
}

// FormatPersonal renders NNN.NNN.NNN-NN. Input of the wrong length is returned normalized.
func FormatPersonal(raw string) string {
	return mask(Normalize(raw), PersonalLength, personalMask)
}

// FormatOrganizational renders NN.NNN.NNN/NNNN-NN. Input of the wrong length is returned normalized.
func FormatOrganizational(raw string) string {
	return mask(Normalize(raw), OrganizationalLength, organizationalMask)
}

var (
	personalMask       = []string{"", "", "", ".", "", "", ".", "", "", "-", ""}
	organizationalMask = []string{"", "", ".", "", "", ".", "", "", "/", "", "", "", "-", ""}
)

// mask writes separators[i] before the i-th character. Length counts
// characters, not bytes, so a multi-byte letter is never split.
func mask(normalized string, length int, separators []string) string {
	chars := []rune(normalized)
	if len(chars) != length {
		return normalized
	}
	var b strings.Builder
	b.Grow(len(normalized) + 4)
	for i, r := range chars {
		b.WriteString(separators[i])
		b.WriteRune(r)
	}
	return b.String()
}

// IsValid dispatches to the validator of kind. Unknown kinds are never valid.
func IsValid(kind Kind, raw string) bool {
	switch kind {
	case KindPersonal:
		return IsValidPersonal(raw)
	case KindOrganizational:
		return IsValidOrganizational(raw)
	default:
		return false
	}
}

// Format dispatches to the formatter of kind. Unknown kinds return the normalized input.
func Format(kind Kind, raw string) string {
	switch kind {
	case KindPersonal:
		return FormatPersonal(raw)
	case KindOrganizational:
		return FormatOrganizational(raw)
	default:
		return Normalize(raw)
	}
}

// KindForLength guesses the scheme from the digit count of raw.
func KindForLength(raw string) (Kind, bool) {
	switch len(OnlyDigits(raw)) {
	case KindPersonal.length():
		return KindPersonal, true
	case KindOrganizational.length():
		return KindOrganizational, true
	default:
		return "", false
	}
}

func isValid(normalized string, length int, firstWeights, secondWeights []int) bool {
	if len(normalized) != length {
		return false
	}
	digits := make([]int, length)
	for i := 0; i < length; i++ {
		c := normalized[i]
		if c < '0' || c > '9' {
			return false
		}
		digits[i] = int(c - '0')
	}
	if allSame(digits) {
		return false
	}

	body := len(firstWeights)
	first := checkDigit(digits[:body], firstWeights)
	if digits[body] != first {
		return false
	}
	second := checkDigit(digits[:body+1], secondWeights)
	return digits[body+1] == second
}

// checkDigit computes the weighted modulo-11 check digit.
func checkDigit(digits, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += digits[i] * w
	}
	remainder := sum % 11
	if remainder < 2 {
		return 0
	}
	return 11 - remainder
}

func allSame(digits []int) bool {
	for _, d := range digits[1:] {
		if d != digits[0] {
			return false
		}
	}
	return true
}
