// Package graph holds the person/relationship view of a family tree and
// the stores it is saved to.
package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Person is a node of the tree graph.
type Person struct {
	ID    string  `json:"id" validate:"required"`
	Name  string  `json:"name"`
	Birth *string `json:"birth"`
}

// Relationship is a directed, typed edge between two persons.
type Relationship struct {
	StartID string `json:"start_id" validate:"required"`
	EndID   string `json:"end_id" validate:"required"`
	Type    string `json:"type" validate:"required,reltype"`
}

// Tree is the flat person and relationship lists exchanged with stores and
// the HTTP API.
type Tree struct {
	Persons       []Person       `json:"persons" validate:"dive"`
	Relationships []Relationship `json:"relationships" validate:"dive"`
}

// Empty reports whether t has nothing to store.
func (t Tree) Empty() bool {
	return len(t.Persons) == 0 && len(t.Relationships) == 0
}

// Normalize returns a copy of t with relationship types upper-cased and
// nil lists replaced by empty ones.
func (t Tree) Normalize() Tree {
	out := Tree{
		Persons:       make([]Person, len(t.Persons)),
		Relationships: make([]Relationship, len(t.Relationships)),
	}
	copy(out.Persons, t.Persons)
	for i, r := range t.Relationships {
		r.Type = strings.ToUpper(strings.TrimSpace(r.Type))
		out.Relationships[i] = r
	}
	return out
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("reltype", func(fl validator.FieldLevel) bool {
		return ValidRelType(fl.Field().String())
	})
	return v
}

// InvalidTreeError lists the problems found by Validate.
type InvalidTreeError struct {
	Problems []string
}

func (e *InvalidTreeError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// Validate checks required ids and relationship types.
func (t Tree) Validate() error {
	err := validate.Struct(t)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &InvalidTreeError{}
	for _, fe := range verrs {
		out.Problems = append(out.Problems, formatFieldError(fe))
	}
	return out
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "reltype":
		return fmt.Sprintf("Invalid relationship type: %s", strings.ToUpper(strings.TrimSpace(fmt.Sprint(fe.Value()))))
	case "required":
		return fmt.Sprintf("%s is required", fe.Namespace())
	default:
		return fmt.Sprintf("%s is invalid", fe.Namespace())
	}
}
