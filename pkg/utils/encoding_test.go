package utils

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupEncoding(t *testing.T) {
	enc, err := LookupEncoding("")
	require.NoError(t, err)
	assert.True(t, IsUTF8(enc))

	enc, err = LookupEncoding("UTF-8")
	require.NoError(t, err)
	assert.True(t, IsUTF8(enc))

	enc, err = LookupEncoding("latin1")
	require.NoError(t, err)
	assert.False(t, IsUTF8(enc))

	_, err = LookupEncoding("klingon")
	assert.Error(t, err)
}

func TestDecodeReader(t *testing.T) {
	utf8, _ := LookupEncoding("utf-8")
	out, err := io.ReadAll(DecodeReader(strings.NewReader("\ufeffAirTemp"), utf8))
	require.NoError(t, err)
	assert.Equal(t, "AirTemp", string(out), "the byte order mark is dropped")

	latin, _ := LookupEncoding("windows-1252")
	out, err = io.ReadAll(DecodeReader(bytes.NewReader([]byte{'D', 'e', 'g', ' ', 0xB0, 'C'}), latin))
	require.NoError(t, err)
	assert.Equal(t, "Deg °C", string(out))
}

func TestEncodeWriter(t *testing.T) {
	latin, _ := LookupEncoding("windows-1252")

	var buf bytes.Buffer
	w := EncodeWriter(&buf, latin)
	_, err := io.WriteString(w, "°C")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, []byte{0xB0, 'C'}, buf.Bytes())

	buf.Reset()
	utf8, _ := LookupEncoding("utf-8")
	w = EncodeWriter(&buf, utf8)
	_, err = io.WriteString(w, "°C")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, "°C", buf.String())
}
