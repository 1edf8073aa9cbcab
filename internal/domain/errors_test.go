package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRejectionError(t *testing.T) {
	err := NewRejectionError("sha256:abc", ErrSignature)

	assert.ErrorIs(t, err, ErrSignature, "errors.Is must see through the wrapper")
	assert.Contains(t, err.Error(), "sha256:abc")

	var rejection *RejectionError
	assert.True(t, errors.As(err, &rejection))
	assert.Equal(t, "sha256:abc", rejection.CID)
}
