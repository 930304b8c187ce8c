package engine

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// ctxCheckEvery is how many lines are read between cancellation checks.
const ctxCheckEvery = 1024

type multiCloser struct {
	io.Reader
	closers []func() error
}

func (m *multiCloser) Close() error {
	var errs []error
	for _, c := range m.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// openLogFile opens f for reading, decompressing rotated archives.
func openLogFile(f LogFile) (io.ReadCloser, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}

	switch f.Compression {
	case "gz":
		zr, err := gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, err
		}
		return &multiCloser{Reader: zr, closers: []func() error{zr.Close, file.Close}}, nil
	case "zst":
		zd, err := zstd.NewReader(file, zstd.WithDecoderConcurrency(1))
		if err != nil {
			file.Close()
			return nil, err
		}
		return &multiCloser{Reader: zd, closers: []func() error{
			func() error { zd.Close(); return nil },
			file.Close,
		}}, nil
	default:
		return file, nil
	}
}

// readLines calls fn for every non-empty line of r with the line ending
// removed. Lines longer than maxLine bytes are skipped whole; maxLine <= 0
// disables the limit.
func readLines(ctx context.Context, r io.Reader, maxLine int, fn func(line string)) error {
	br := bufio.NewReaderSize(r, 64*1024)

	var (
		buf      []byte
		oversize bool
		lines    int
	)
	for {
		chunk, err := br.ReadSlice('\n')

		if !oversize {
			n := len(chunk)
			if n > 0 && chunk[n-1] == '\n' {
				n--
			}
			if maxLine > 0 && len(buf)+n > maxLine {
				oversize = true
				buf = buf[:0]
			} else {
				buf = append(buf, chunk...)
			}
		}

		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		if !oversize {
			if line := trimEOL(buf); len(line) > 0 {
				fn(string(line))
			}
		}
		buf = buf[:0]
		oversize = false

		if err != nil {
			return nil
		}

		lines++
		if lines%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
}

func trimEOL(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
