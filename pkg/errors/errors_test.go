package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *DeviceError
		want string
	}{
		{
			name: "message only",
			err:  &DeviceError{Code: "X", Message: "something broke"},
			want: "something broke",
		},
		{
			name: "with cause",
			err:  &DeviceError{Code: "X", Message: "outer", Cause: errors.New("inner")},
			want: "outer: inner",
		},
		{
			name: "details are sorted",
			err: &DeviceError{
				Code:    "X",
				Message: "failed",
				Details: map[string]string{"b": "2", "a": "1"},
			},
			want: "failed (a: 1) (b: 2)",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestDeviceError_Is(t *testing.T) {
	t.Parallel()

	wrapped := Wrap(ErrDeviceNotConnected, "opening transport")
	assert.True(t, errors.Is(wrapped, ErrDeviceNotConnected))
	assert.False(t, errors.Is(wrapped, ErrAppNotOpen))

	// Wrapping a plain error loses no identity it never had.
	plain := Wrap(errors.New("boom"), "context")
	assert.False(t, errors.Is(plain, ErrDeviceNotConnected))
}

func TestWrap(t *testing.T) {
	t.Parallel()

	t.Run("nil error", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, Wrap(nil, "context"))
	})

	t.Run("preserves code and exit code", func(t *testing.T) {
		t.Parallel()
		err := Wrap(ErrAppNotOpen, "phase %d", 2)

		var de *DeviceError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "APP_NOT_OPEN", de.Code)
		assert.Equal(t, ExitDevice, de.ExitCode)
		assert.Contains(t, de.Message, "phase 2")
	})

	t.Run("plain error becomes general", func(t *testing.T) {
		t.Parallel()
		err := Wrap(fmt.Errorf("io failure"), "reading")

		var de *DeviceError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "GENERAL_ERROR", de.Code)
		assert.Equal(t, ExitGeneral, de.ExitCode)
	})
}

func TestWithDetailsAndSuggestion(t *testing.T) {
	t.Parallel()

	err := WithDetails(ErrTaskInFlight, map[string]string{"task": "get_address"})
	err = WithSuggestion(err, "retry later")

	var de *DeviceError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "TASK_IN_FLIGHT", de.Code)
	assert.Equal(t, "get_address", de.Details["task"])
	assert.Equal(t, "retry later", de.Suggestion)
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitNoDevice, ExitCode(ErrDeviceNotConnected))
	assert.Equal(t, ExitDevice, ExitCode(ErrAppNotOpen))
	assert.Equal(t, ExitBusy, ExitCode(ErrTaskInFlight))
	assert.Equal(t, ExitGeneral, ExitCode(errors.New("plain")))
}

func TestCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "DEVICE_NOT_CONNECTED", Code(ErrDeviceNotConnected))
	assert.Equal(t, "GENERAL_ERROR", Code(errors.New("plain")))
}
