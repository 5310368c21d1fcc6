package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("x")))
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("wrap: %w", Conflict("x"))))
	assert.Equal(t, KindAuthentication, KindOf(Authentication("x")))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(Internal("db", errors.New("down"))))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("down")
	err := Internal("find user", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "find user: down", err.Error())
	assert.Equal(t, "Unauthorized", Authentication("Unauthorized").Error())
}
