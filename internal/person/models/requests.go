package models

import (
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/asaskevich/govalidator"

	"cadastro/internal/document"
	dErrors "cadastro/pkg/domain-errors"
)

const (
	MaxNameLength  = 150
	MaxEmailLength = 255
	MaxPhones      = 5

	DefaultPageSize = 20
	MaxPageSize     = 100
)

const phonePattern = `^\+?[0-9 ()-]{8,20}$`

// AddressInput is the caller-supplied part of an address. Street, district,
// city and state come from the postal lookup.
type AddressInput struct {
	PostalCode string `json:"postal_code"`
	Number     string `json:"number"`
	Complement string `json:"complement"`
}

func (a *AddressInput) normalize() {
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Number = strings.TrimSpace(a.Number)
	a.Complement = strings.TrimSpace(a.Complement)
}

func (a *AddressInput) validate() error {
	if len(a.Number) > 20 {
		return dErrors.New(dErrors.CodeValidation, "address number must be 20 characters or less")
	}
	if len(a.Complement) > 100 {
		return dErrors.New(dErrors.CodeValidation, "address complement must be 100 characters or less")
	}
	if a.PostalCode == "" {
		return dErrors.New(dErrors.CodeValidation, "address postal_code is required")
	}
	return nil
}

type CreatePersonRequest struct {
	Kind     Kind         `json:"kind"`
	Name     string       `json:"name"`
	Document string       `json:"document"`
	Email    string       `json:"email"`
	Phones   []string     `json:"phones"`
	Address  AddressInput `json:"address"`
}

func (r *CreatePersonRequest) Normalize() {
	if r == nil {
		return
	}
	r.Kind = Kind(strings.ToLower(strings.TrimSpace(string(r.Kind))))
	r.Name = strings.TrimSpace(r.Name)
	r.Document = strings.TrimSpace(r.Document)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phones = normalizePhones(r.Phones)
	r.Address.normalize()
}

// Follows validation order: Size -> Required -> Syntax -> Semantic.
func (r *CreatePersonRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}

	if err := validateName(r.Name); err != nil {
		return err
	}
	if len(r.Email) > MaxEmailLength {
		return dErrors.New(dErrors.CodeValidation, "email must be 255 characters or less")
	}
	if len(r.Phones) > MaxPhones {
		return dErrors.New(dErrors.CodeValidation, "at most 5 phones are allowed")
	}

	if r.Kind == "" {
		return dErrors.New(dErrors.CodeValidation, "kind is required")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.Document == "" {
		return dErrors.New(dErrors.CodeValidation, "document is required")
	}
	if err := r.Address.validate(); err != nil {
		return err
	}

	if !r.Kind.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "kind must be 'individual' or 'organization'")
	}
	if err := validateContact(r.Email, r.Phones); err != nil {
		return err
	}

	if !document.IsValid(r.Kind.DocumentKind(), r.Document) {
		return dErrors.New(dErrors.CodeValidation, "document is not a valid "+string(r.Kind.DocumentKind())+" ID")
	}
	return nil
}

// UpdatePersonRequest is a partial update. Nil fields are left unchanged; an
// empty Phones slice clears the list. Kind and document cannot change.
type UpdatePersonRequest struct {
	Name    *string       `json:"name,omitempty"`
	Email   *string       `json:"email,omitempty"`
	Phones  []string      `json:"phones,omitempty"`
	Address *AddressInput `json:"address,omitempty"`
}

func (r *UpdatePersonRequest) Normalize() {
	if r == nil {
		return
	}
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		r.Name = &name
	}
	if r.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*r.Email))
		r.Email = &email
	}
	if r.Phones != nil {
		r.Phones = normalizePhones(r.Phones)
	}
	if r.Address != nil {
		r.Address.normalize()
	}
}

// Follows validation order: Size -> Required -> Syntax -> Semantic.
func (r *UpdatePersonRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Name == nil && r.Email == nil && r.Phones == nil && r.Address == nil {
		return dErrors.New(dErrors.CodeValidation, "at least one field is required")
	}

	if r.Name != nil {
		if err := validateName(*r.Name); err != nil {
			return err
		}
		if *r.Name == "" {
			return dErrors.New(dErrors.CodeValidation, "name cannot be empty")
		}
	}
	email := ""
	if r.Email != nil {
		if len(*r.Email) > MaxEmailLength {
			return dErrors.New(dErrors.CodeValidation, "email must be 255 characters or less")
		}
		email = *r.Email
	}
	if len(r.Phones) > MaxPhones {
		return dErrors.New(dErrors.CodeValidation, "at most 5 phones are allowed")
	}
	if r.Address != nil {
		if err := r.Address.validate(); err != nil {
			return err
		}
	}
	return validateContact(email, r.Phones)
}

func validateName(name string) error {
	if utf8.RuneCountInString(name) > MaxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name must be 150 characters or less")
	}
	return nil
}

func validateContact(email string, phones []string) error {
	if email != "" && !govalidator.IsEmail(email) {
		return dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	for _, phone := range phones {
		if !govalidator.Matches(phone, phonePattern) {
			return dErrors.New(dErrors.CodeValidation, "phone "+phone+" is invalid")
		}
	}
	return nil
}

// normalizePhones trims entries, drops blanks and removes duplicates while
// keeping order. A non-nil input always yields a non-nil result.
func normalizePhones(phones []string) []string {
	if phones == nil {
		return nil
	}
	out := make([]string, 0, len(phones))
	for _, p := range phones {
		p = strings.TrimSpace(p)
		if p == "" || slices.Contains(out, p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// NormalizePage applies defaults and bounds to list paging.
func NormalizePage(page, size int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if size == 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		return 0, 0, dErrors.New(dErrors.CodeValidation, "page must be 1 or greater")
	}
	if size < 1 || size > MaxPageSize {
		return 0, 0, dErrors.New(dErrors.CodeValidation, "size must be between 1 and 100")
	}
	// The store offset is (page-1)*size and must not overflow.
	if page-1 > math.MaxInt/size {
		return 0, 0, dErrors.New(dErrors.CodeValidation, "page is out of range")
	}
	return page, size, nil
}
