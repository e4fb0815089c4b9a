package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "", ErrorCode(nil))
	assert.Equal(t, ENOTFOUND, ErrorCode(Errorf(ENOTFOUND, "The post does not exist.")))
	assert.Equal(t, EINTERNAL, ErrorCode(errors.New("database exploded")))

	// Wrapped application errors still surface their code.
	wrapped := fmt.Errorf("loading post: %w", Errorf(EINVALID, "Invalid ID format."))
	assert.Equal(t, EINVALID, ErrorCode(wrapped))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "", ErrorMessage(nil))
	assert.Equal(t, "The post does not exist.", ErrorMessage(Errorf(ENOTFOUND, "The post does not exist.")))
	assert.Equal(t, "An internal error has occurred.", ErrorMessage(errors.New("database exploded")))
}

func TestErrorStatusCode(t *testing.T) {
	assert.Equal(t, 400, ErrorStatusCode(EINVALID))
	assert.Equal(t, 404, ErrorStatusCode(ENOTFOUND))
	assert.Equal(t, 401, ErrorStatusCode(EUNAUTHORIZED))
	assert.Equal(t, 409, ErrorStatusCode(ECONFLICT))
	assert.Equal(t, 500, ErrorStatusCode(EINTERNAL))
	assert.Equal(t, 500, ErrorStatusCode("no_such_code"))
}
