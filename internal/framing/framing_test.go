package framing

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentLengthRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewContentLengthFraming(nil, &buf, 0)
	require.NoError(t, w.WriteMessage([]byte(`{"hello":"world"}`)))

	r := NewContentLengthFraming(&buf, nil, 0)
	payload, err := r.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `{"hello":"world"}`, string(payload))
}

func TestContentLengthZeroPayload(t *testing.T) {
	src := strings.NewReader("Content-Length: 0\r\n\r\n")
	r := NewContentLengthFraming(src, nil, 0)
	payload, err := r.ReadMessage()
	require.NoError(t, err)
	assert.Empty(t, payload)
}

func TestContentLengthMissingHeader(t *testing.T) {
	src := strings.NewReader("\r\n")
	r := NewContentLengthFraming(src, nil, 0)
	_, err := r.ReadMessage()
	assert.Error(t, err)
}

func TestContentLengthNonNumericHeader(t *testing.T) {
	src := strings.NewReader("Content-Length: abc\r\n\r\n")
	r := NewContentLengthFraming(src, nil, 0)
	_, err := r.ReadMessage()
	assert.Error(t, err)
}

func TestContentLengthExceedsMax(t *testing.T) {
	src := strings.NewReader("Content-Length: 99999999999\r\n\r\n")
	r := NewContentLengthFraming(src, nil, 100)
	_, err := r.ReadMessage()
	assert.Error(t, err)
}

func TestContentLengthExactlyAtMaxSucceeds(t *testing.T) {
	payload := strings.Repeat("x", 100)
	src := strings.NewReader("Content-Length: 100\r\n\r\n" + payload)
	r := NewContentLengthFraming(src, nil, 100)
	got, err := r.ReadMessage()
	require.NoError(t, err)
	assert.Len(t, got, 100)
}

func TestContentLengthOneByteOverMaxFails(t *testing.T) {
	src := strings.NewReader("Content-Length: 101\r\n\r\n" + strings.Repeat("x", 101))
	r := NewContentLengthFraming(src, nil, 100)
	_, err := r.ReadMessage()
	assert.Error(t, err)
}

func TestContentLengthUnknownHeaderIgnored(t *testing.T) {
	payload := `{"a":1}`
	src := strings.NewReader("X-Custom: whatever\r\nContent-Length: " + strconv.Itoa(len(payload)) + "\r\n\r\n" + payload)
	r := NewContentLengthFraming(src, nil, 0)
	got, err := r.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, payload, string(got))
}

func TestContentLengthCleanEOF(t *testing.T) {
	r := NewContentLengthFraming(strings.NewReader(""), nil, 0)
	_, err := r.ReadMessage()
	assert.Error(t, err)
}

func TestDelimiterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewDelimiterFraming(nil, &buf, '\n')
	require.NoError(t, w.WriteMessage([]byte(`{"a":1}`)))
	require.NoError(t, w.WriteMessage([]byte(`{"b":2}`)))

	r := NewDelimiterFraming(&buf, nil, '\n')
	first, err := r.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(first))

	second, err := r.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `{"b":2}`, string(second))
}

func TestDelimiterCleanEOFOnEmptyBuffer(t *testing.T) {
	r := NewDelimiterFraming(strings.NewReader(""), nil, '\n')
	_, err := r.ReadMessage()
	assert.Error(t, err)
}

func TestDelimiterDefaultsToNewline(t *testing.T) {
	r := NewDelimiterFraming(strings.NewReader("abc\n"), nil, 0)
	got, err := r.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}
