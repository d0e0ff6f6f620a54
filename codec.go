package wireline

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// ErrLineTooLong is returned when a single line exceeds the configured
// maximum length. Once the framing is lost there is no way to resynchronize
// the stream, so the error is unrecoverable.
var ErrLineTooLong = errors.New("line too long")

const readBufferSize = 64 * 1024

// lineCodec frames messages as UTF-8 lines separated by a single newline
// byte. Reads and writes are not synchronized here; the transport's read loop
// is the only reader and the send lock serializes writers.
type lineCodec struct {
	reader *bufio.Reader
	writer *bufio.Writer

	maxLineLength int
}

func newLineCodec(r io.Reader, w io.Writer, maxLineLength int) *lineCodec {
	return &lineCodec{
		reader:        bufio.NewReaderSize(r, readBufferSize),
		writer:        bufio.NewWriter(w),
		maxLineLength: maxLineLength,
	}
}

// ReadLine reads one line from the stream, without its trailing delimiter.
// A final unterminated line before end-of-stream is still returned; io.EOF
// is only reported once no data remains.
func (c *lineCodec) ReadLine() ([]byte, error) {
	var line []byte
	for {
		chunk, err := c.reader.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > c.maxLineLength {
			return nil, ErrLineTooLong
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) && len(line) > 0 {
				return trimLine(line), nil
			}
			return nil, err
		}
		return trimLine(line), nil
	}
}

// WriteLine writes the data followed by a single newline byte and flushes.
func (c *lineCodec) WriteLine(data []byte) error {
	if _, err := c.writer.Write(data); err != nil {
		return err
	}
	if err := c.writer.WriteByte('\n'); err != nil {
		return err
	}
	return c.writer.Flush()
}

// trimLine strips the trailing newline and optional carriage return.
func trimLine(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line
}
