package errors_test

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulvramesh/vac/internal/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    errors.ErrorCode
		message string
		wantStr string
	}{
		{"not_found_error", errors.ErrNotFound, "file not found", "[NOT_FOUND] file not found"},
		{"policy_error", errors.ErrPolicyViolation, "unsafe path", "[POLICY_VIOLATION] unsafe path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.New(tt.code, tt.message)
			assert.Equal(t, tt.code, err.Code)
			assert.NotNil(t, err.Details)
			assert.Equal(t, tt.wantStr, err.Error())
		})
	}
}

func TestWrap(t *testing.T) {
	assert.Nil(t, errors.Wrap(nil, errors.ErrIO, "ignored"))

	base := stderrors.New("disk on fire")
	err := errors.Wrapf(base, errors.ErrIO, "reading %s", "/tmp/x")
	require.NotNil(t, err)
	assert.Equal(t, "[IO] reading /tmp/x: disk on fire", err.Error())
	assert.True(t, stderrors.Is(err, base))
	assert.True(t, stderrors.Is(err, errors.New(errors.ErrIO, "other message")))
	assert.False(t, stderrors.Is(err, errors.New(errors.ErrNotFound, "")))
}

func TestFromIO(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errors.ErrorCode
	}{
		{"not exist", &fs.PathError{Op: "lstat", Path: "/x", Err: fs.ErrNotExist}, errors.ErrNotFound},
		{"permission", &fs.PathError{Op: "open", Path: "/x", Err: fs.ErrPermission}, errors.ErrPermission},
		{"other", fmt.Errorf("boom"), errors.ErrIO},
		{"already coded", errors.New(errors.ErrPolicyViolation, "nope"), errors.ErrPolicyViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.FromIO(tt.err, "/x")
			assert.Equal(t, tt.want, errors.GetErrorCode(err))
			assert.True(t, errors.IsErrorCode(err, tt.want))
		})
	}

	assert.NoError(t, errors.FromIO(nil, "/x"))
	assert.Equal(t, errors.ErrUnknown, errors.GetErrorCode(fmt.Errorf("plain")))
}

func TestReason(t *testing.T) {
	err := errors.FromIO(&fs.PathError{Op: "lstat", Path: "/gone", Err: fs.ErrNotExist}, "/gone")
	assert.Equal(t, "not found: /gone (file does not exist)", errors.Reason(err))

	policy := errors.Wrap(fmt.Errorf("inner"), errors.ErrPolicyViolation, "unsafe path")
	assert.Equal(t, "unsafe path", errors.Reason(policy))
	assert.Equal(t, "", errors.Reason(nil))
	assert.Equal(t, "plain", errors.Reason(fmt.Errorf("plain")))
}
