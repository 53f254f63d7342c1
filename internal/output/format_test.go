package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dlerr "github.com/polagate/dotledger/pkg/errors"
)

func TestParseFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatJSON, ParseFormat(" JSON "))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatAuto, ParseFormat("auto"))
	assert.Equal(t, FormatAuto, ParseFormat("garbage"))
}

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	// Explicit formats pass through.
	assert.Equal(t, FormatText, DetectFormat(&buf, FormatText))
	assert.Equal(t, FormatJSON, DetectFormat(&buf, FormatJSON))

	// Non-file writers are never a TTY.
	assert.Equal(t, FormatJSON, DetectFormat(&buf, FormatAuto))
}

func TestFormatter_Print(t *testing.T) {
	t.Parallel()

	t.Run("text string", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		f := NewFormatter(FormatText, &buf)

		require.NoError(t, f.Print("hello"))
		assert.Equal(t, "hello\n", buf.String())
	})

	t.Run("json value", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		f := NewFormatter(FormatJSON, &buf)

		require.NoError(t, f.Print(map[string]string{"k": "v"}))

		var decoded map[string]string
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "v", decoded["k"])
	})
}

func TestFormatError(t *testing.T) {
	t.Parallel()

	t.Run("nil error", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, FormatError(&buf, nil, FormatText))
		assert.Empty(t, buf.String())
	})

	t.Run("structured error as text", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, FormatError(&buf, dlerr.ErrDeviceNotConnected, FormatText))

		out := buf.String()
		assert.Contains(t, out, "no Ledger device connected")
		assert.Contains(t, out, "Suggestion:")
	})

	t.Run("structured error as json", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, FormatError(&buf, dlerr.ErrAppNotOpen, FormatJSON))

		var decoded ErrorOutput
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "APP_NOT_OPEN", decoded.Error.Code)
		assert.Equal(t, dlerr.ExitDevice, decoded.Error.ExitCode)
	})
}
