package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns the configured request validator. No cross-field total check
// is registered: the stated grand total is authoritative and never
// recomputed from the items.
func New() *validatorv10.Validate {
	return validatorv10.New()
}
