package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFriendlyMutationMessage(t *testing.T) {
	const dup = "A category with this name already exists. Please choose a different name."
	tests := []struct {
		name string
		msg  string
		want string
	}{
		{"duplicate lower", "duplicate key value", dup},
		{"duplicate mixed case", "Duplicate entry for name", dup},
		{"duplicate inside", "E11000 DUPLICATE key error", dup},
		{"passthrough", "Category is referenced by products", "Category is referenced by products"},
		{"empty", "", MsgUnexpected},
		{"blank", "   ", MsgUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FriendlyMutationMessage("category", tt.msg))
		})
	}
}

func TestErrorMessage_ListViewKinds(t *testing.T) {
	fe := &FetchError{Entity: "categories", Message: "Failed to fetch categories"}
	assert.Equal(t, "Failed to fetch categories", ErrorMessage(fmt.Errorf("load: %w", fe)))

	me := &MutationError{Op: "category.delete", Message: "Category is in use"}
	assert.Equal(t, "Category is in use", ErrorMessage(me))

	le := &LookupError{Lookup: "category names", Err: errors.New("boom")}
	assert.Contains(t, ErrorMessage(le), "category names")
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "", ErrorCode(nil))
	assert.Equal(t, EINVALID, ErrorCode(NewValidationError("op", "name", "is required")))
	assert.Equal(t, ENOTFOUND, ErrorCode(NotFound("op", "category", "1")))
	assert.Equal(t, EINTERNAL, ErrorCode(errors.New("plain")))
}

func TestErrorMessage_HidesInternal(t *testing.T) {
	err := Internal(errors.New("socket closed"), "category.list", "socket closed")
	assert.NotContains(t, ErrorMessage(err), "socket")
}

func TestFieldErrors(t *testing.T) {
	ve := NewValidationError("category.create", "name", "is required")

	assert.Equal(t, map[string]string{"name": "is required"}, FieldErrors(fmt.Errorf("submit: %w", ve)))
	assert.Nil(t, FieldErrors(errors.New("other")))
}

func TestNotFound_Message(t *testing.T) {
	err := NotFound("product.get", "product", "p1")
	assert.Equal(t, `product with ID "p1" not found`, ErrorMessage(err))
	assert.Equal(t, "product.get", ErrorOp(fmt.Errorf("wrapped: %w", err)))
}
