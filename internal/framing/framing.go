// Package framing implements the two interchangeable message-framing
// disciplines the MCP wire protocol allows (spec §4.1): Content-Length
// delimited (LSP-style) and single-byte-delimiter framing. Both share the
// same read_message/write_message contract over a plain io.Reader/
// io.Writer pair, so the connection loop and transports above it never
// know which discipline is in play.
//
// Grounded in the teacher's internal/jsonrpc/stdio_transport.go
// (Content-Length header parsing loop) and internal/transport/
// transport_errors.go's structured-error style.
package framing

// file: internal/framing/framing.go

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/mcpcore/mcpcore/internal/mcperr"
)

// DefaultMaxFrameBytes is the default Content-Length cap (spec §4.1).
const DefaultMaxFrameBytes = 16 * 1024 * 1024 // 16 MiB

// Framing reads and writes one message at a time from/to a byte stream.
// Implementations must be safe to call Read repeatedly from one goroutine
// and Write repeatedly (possibly concurrently with Read) from another.
type Framing interface {
	// ReadMessage returns the next message's raw payload bytes, or an
	// error. A wrapped mcperr.ErrEndOfStream signals a clean end of stream.
	ReadMessage() ([]byte, error)
	// WriteMessage writes one message's payload under this framing's
	// envelope.
	WriteMessage(payload []byte) error
}

// ContentLengthFraming implements the LSP-style header-block framing:
// one or more "Key: Value\r\n" header lines terminated by a blank line,
// with a mandatory Content-Length header giving the exact payload size.
type ContentLengthFraming struct {
	r       *bufio.Reader
	w       io.Writer
	writeMu sync.Mutex
	maxSize int64
}

// NewContentLengthFraming wraps r/w with Content-Length framing. maxSize
// <= 0 selects DefaultMaxFrameBytes.
func NewContentLengthFraming(r io.Reader, w io.Writer, maxSize int64) *ContentLengthFraming {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameBytes
	}
	return &ContentLengthFraming{r: bufio.NewReader(r), w: w, maxSize: maxSize}
}

// ReadMessage reads one Content-Length-framed payload.
func (f *ContentLengthFraming) ReadMessage() ([]byte, error) {
	contentLength := -1

	for {
		line, err := f.r.ReadString('\n')
		if err != nil {
			if err == io.EOF && line == "" {
				return nil, mcperr.Wrap(mcperr.ErrEndOfStream, mcperr.CategoryFraming, mcperr.CodeInternalError, "end of stream")
			}
			return nil, mcperr.Wrap(err, mcperr.CategoryFraming, mcperr.CodeInternalError, "reading frame header")
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break // end of header block.
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue // unknown/malformed header line; ignored per spec §4.1.
		}
		if !strings.EqualFold(strings.TrimSpace(key), "Content-Length") {
			continue // unknown headers ignored.
		}

		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return nil, mcperr.Wrap(mcperr.ErrMalformedFrame, mcperr.CategoryFraming, mcperr.CodeParseError,
				fmt.Sprintf("non-numeric Content-Length %q", value))
		}
		contentLength = int(n)
	}

	if contentLength < 0 {
		return nil, mcperr.Wrap(mcperr.ErrMalformedFrame, mcperr.CategoryFraming, mcperr.CodeParseError, "missing Content-Length header")
	}
	if int64(contentLength) > f.maxSize {
		return nil, mcperr.Wrap(mcperr.ErrMalformedFrame, mcperr.CategoryFraming, mcperr.CodeParseError,
			fmt.Sprintf("Content-Length %d exceeds maximum %d", contentLength, f.maxSize))
	}

	payload := make([]byte, contentLength)
	if contentLength > 0 {
		if _, err := io.ReadFull(f.r, payload); err != nil {
			return nil, mcperr.Wrap(err, mcperr.CategoryFraming, mcperr.CodeInternalError, "reading frame payload")
		}
	}
	return payload, nil
}

// WriteMessage writes payload with a Content-Length header, serializing
// concurrent writers so a header is never interleaved with another
// message's payload (spec §5 ordering guarantees).
func (f *ContentLengthFraming) WriteMessage(payload []byte) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(payload))
	if _, err := io.WriteString(f.w, header); err != nil {
		return errors.Wrap(err, "writing frame header")
	}
	if _, err := f.w.Write(payload); err != nil {
		return errors.Wrap(err, "writing frame payload")
	}
	return nil
}

// DelimiterFraming implements one-message-per-line framing: payload runs
// up to (and excluding) a single configurable delimiter byte.
type DelimiterFraming struct {
	r         *bufio.Reader
	w         io.Writer
	writeMu   sync.Mutex
	delimiter byte
}

// NewDelimiterFraming wraps r/w with delimiter framing. delim == 0
// selects '\n'.
func NewDelimiterFraming(r io.Reader, w io.Writer, delim byte) *DelimiterFraming {
	if delim == 0 {
		delim = '\n'
	}
	return &DelimiterFraming{r: bufio.NewReader(r), w: w, delimiter: delim}
}

// ReadMessage reads up to the next delimiter byte, excluding it.
func (f *DelimiterFraming) ReadMessage() ([]byte, error) {
	line, err := f.r.ReadBytes(f.delimiter)
	if err != nil {
		if err == io.EOF {
			if len(line) == 0 {
				return nil, mcperr.Wrap(mcperr.ErrEndOfStream, mcperr.CategoryFraming, mcperr.CodeInternalError, "end of stream")
			}
			// A final message with no trailing delimiter is still a
			// complete message.
			return line, nil
		}
		return nil, mcperr.Wrap(err, mcperr.CategoryFraming, mcperr.CodeInternalError, "reading delimited frame")
	}
	return line[:len(line)-1], nil
}

// WriteMessage appends the delimiter after payload.
func (f *DelimiterFraming) WriteMessage(payload []byte) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	if _, err := f.w.Write(payload); err != nil {
		return errors.Wrap(err, "writing delimited payload")
	}
	if _, err := f.w.Write([]byte{f.delimiter}); err != nil {
		return errors.Wrap(err, "writing frame delimiter")
	}
	return nil
}
