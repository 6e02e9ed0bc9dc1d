package models

import (
	"slices"
	"time"

	"github.com/google/uuid"

	addressmodels "cadastro/internal/address/models"
	"cadastro/internal/document"
)

// Kind distinguishes individuals (personal ID) from organizations
// (organizational ID).
type Kind string

const (
	KindIndividual   Kind = "individual"
	KindOrganization Kind = "organization"
)

func (k Kind) IsValid() bool {
	return k == KindIndividual || k == KindOrganization
}

// DocumentKind maps the person kind to the ID scheme it must carry.
func (k Kind) DocumentKind() document.Kind {
	if k == KindOrganization {
		return document.KindOrganizational
	}
	return document.KindPersonal
}

// Person is a registry entry.
//
// Invariants:
//   - Name is non-empty and at most MaxNameLength characters
//   - Document is valid for Kind and stored in its formatted form
//   - Document is unique across persons, compared by digits only
//   - Kind and Document are immutable after creation
type Person struct {
	ID        uuid.UUID                   `json:"id"`
	Kind      Kind                        `json:"kind"`
	Name      string                      `json:"name"`
	Document  string                      `json:"document"`
	Email     string                      `json:"email,omitempty"`
	Phones    []string                    `json:"phones"`
	Address   addressmodels.PostalAddress `json:"address"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

// DocumentDigits is the uniqueness key for the person's document.
func (p *Person) DocumentDigits() string {
	return document.OnlyDigits(p.Document)
}

// Clone returns a deep copy so stores never share slices with callers.
func (p *Person) Clone() *Person {
	if p == nil {
		return nil
	}
	c := *p
	c.Phones = slices.Clone(p.Phones)
	if c.Phones == nil {
		c.Phones = []string{}
	}
	return &c
}

// PersonPage is one page of a List result.
type PersonPage struct {
	Items []*Person `json:"items"`
	Page  int       `json:"page"`
	Size  int       `json:"size"`
	Total int       `json:"total"`
}
