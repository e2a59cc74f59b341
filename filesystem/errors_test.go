package filesystem

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"op and path", NewError(KindNotFound, "open", "/a"), "open /a: no such file or directory"},
		{"op only", NewError(KindInvalid, "statfs", ""), "statfs: invalid argument"},
		{"path only", NewError(KindExists, "", "/b"), "/b: file exists"},
		{"bare", NewError(KindBusy, "", ""), "resource busy"},
		{"wrapped", &Error{Kind: KindAccess, Op: "read", Path: "/c", Err: errors.New("denied by policy")},
			"read /c: permission denied: denied by policy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindOf(t *testing.T) {
	err := fmt.Errorf("lookup failed: %w", NotDir("lookup", "/x/y"))
	assert.Equal(t, KindNotDir, KindOf(err))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(KindIsDir, "read", "/d", nil))

	cause := errors.New("boom")
	err := Wrap(KindIsDir, "read", "/d", cause)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindIsDir, KindOf(err))
}

func TestNotSupportedKindMatchesSentinel(t *testing.T) {
	err := NewError(KindNotSupported, "getxattr", "/")
	assert.ErrorIs(t, err, ErrNotSupported)
	assert.NotErrorIs(t, NotFound("open", "/"), ErrNotSupported)
}

func TestKindString(t *testing.T) {
	for k := range kindNames {
		assert.NotEmpty(t, k.String())
	}
	assert.Equal(t, "unknown", Kind(999).String())
}
