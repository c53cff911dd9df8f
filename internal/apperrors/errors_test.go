package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("bad %s", "input"), KindValidation},
		{"authorization", Authorization("nope"), KindAuthorization},
		{"not found", NotFound("story", "abc"), KindNotFound},
		{"storage", Storage("upload media", errors.New("boom")), KindStorage},
		{"transient", Transient("get story", errors.New("conn reset")), KindTransient},
		{"plain", errors.New("plain"), KindInternal},
		{"wrapped", fmt.Errorf("outer: %w", NotFound("archive", "x")), KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "story abc not found", NotFound("story", "abc").Error())
	assert.Equal(t, "failed to get story: conn reset", Transient("get story", errors.New("conn reset")).Error())
	assert.Equal(t, "bad input", Validation("bad %s", "input").Error())
}

func TestWrapKeepsSentinel(t *testing.T) {
	err := Wrap(KindAuthorization, ErrQuotaExceeded, "used %d of %d bytes", 10, 5)

	assert.True(t, errors.Is(err, ErrQuotaExceeded))
	assert.True(t, IsAuthorization(err))
	assert.Equal(t, "used 10 of 5 bytes", err.Error())
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(Transient("list stories", errors.New("timeout"))))
	assert.False(t, Retryable(Validation("bad")))
	assert.False(t, Retryable(Storage("delete blob", errors.New("denied"))))
	assert.False(t, Retryable(nil))
}

func TestIsHelpersOnNil(t *testing.T) {
	assert.False(t, IsValidation(nil))
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsStorage(nil))
}
