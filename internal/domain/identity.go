// Package domain contains entity without transport or lifecycle logic, just meta-data
package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	MaxUserIDLen      = 128
	MaxDisplayNameLen = 64
)

type (
	ConnID string
	UserID string
	Role   string
)

// Two roles take part in a call. Other values are passed through untouched.
const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// Identity is what a client claims about itself when joining a room.
type Identity struct {
	UserID      UserID `json:"userId" validate:"required,max=128"`
	Role        Role   `json:"role" validate:"required,oneof=doctor patient"`
	DisplayName string `json:"displayName" validate:"required,max=64"`
}

var validate = validator.New()

// Validate applies the strict join rules. Joins are only validated when the
// relay runs with strict_join enabled.
func (id Identity) Validate() error {
	if err := validate.Struct(id); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
