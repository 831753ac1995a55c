package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/spendwise/internal/errs"
)

func TestValidation(t *testing.T) {
	err := fmt.Errorf("creating expense: %w", errs.Validation("amount", "is required"))

	assert.True(t, errs.IsValidation(err))
	assert.False(t, errs.IsRepository(err))
	assert.Equal(t, "creating expense: validation: amount is required", err.Error())
}

func TestRepository(t *testing.T) {
	cause := errors.New("connection refused")
	err := errs.Repository("listing expenses", cause)

	assert.True(t, errs.IsRepository(err))
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, errs.Repository("noop", nil))
}

func TestMalformed(t *testing.T) {
	err := &errs.MalformedDocumentError{Collection: "budgets", ID: "b1", Field: "limit", Reason: "is not a decimal"}

	assert.True(t, errs.IsMalformed(fmt.Errorf("wrapped: %w", err)))
	assert.Contains(t, err.Error(), `field "limit" is not a decimal`)
}
