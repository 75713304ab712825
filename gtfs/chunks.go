package gtfs

import (
	"context"
	"io"
	"unicode/utf8"

	"github.com/theoremus-urban-solutions/gtfs-io/stream"
)

// DefaultChunkSize is the block size used to read table files.
const DefaultChunkSize = 64 * 1024

// StringChunks splits content into chunks of at most size bytes without
// cutting a UTF-8 sequence.
func StringChunks(content string, size int) *stream.Stream[string] {
	if size < utf8.UTFMax {
		size = utf8.UTFMax
	}
	return stream.New(func() (string, error) {
		if content == "" {
			return "", io.EOF
		}
		n := min(size, len(content))
		if n < len(content) {
			for n > 0 && !utf8.RuneStart(content[n]) {
				n--
			}
		}
		chunk := content[:n]
		content = content[n:]
		return chunk, nil
	})
}

// blockReader reads fixed-size blocks and holds back a trailing partial
// UTF-8 sequence until the next block.
type blockReader struct {
	r     io.Reader
	buf   []byte
	carry []byte
	eof   bool
}

func newBlockReader(r io.Reader, size int) *blockReader {
	if size < utf8.UTFMax {
		size = utf8.UTFMax
	}
	return &blockReader{r: r, buf: make([]byte, size)}
}

func (b *blockReader) next() (string, error) {
	for !b.eof {
		n := copy(b.buf, b.carry)
		m, err := b.r.Read(b.buf[n:])
		data := b.buf[:n+m]
		if err == io.EOF {
			b.eof = true
			b.carry = nil
			if len(data) == 0 {
				break
			}
			return string(data), nil
		}
		if err != nil {
			return "", err
		}
		cut := runeBoundary(data)
		b.carry = append(b.carry[:0], data[cut:]...)
		if cut > 0 {
			return string(data[:cut]), nil
		}
	}
	return "", io.EOF
}

// runeBoundary returns the length of the prefix of p ending on a complete rune.
func runeBoundary(p []byte) int {
	for i := len(p) - 1; i >= 0 && i >= len(p)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(p[i]) {
			continue
		}
		if utf8.FullRune(p[i:]) {
			return len(p)
		}
		return i
	}
	return len(p)
}

// opener opens one table source. It is called on the first pull so a feed
// with many tables does not hold every file open at once.
type opener func() (io.ReadCloser, error)

// ReaderChunks streams r in blocks of size bytes. Closing the stream closes r.
func ReaderChunks(r io.ReadCloser, size int) *stream.Stream[string] {
	return openChunks(func() (io.ReadCloser, error) { return r, nil }, r.Close, size)
}

// unopened, when set, runs if the stream is closed before the first pull.
func openChunks(open opener, unopened func() error, size int) *stream.Stream[string] {
	var (
		rc io.ReadCloser
		br *blockReader
	)
	return stream.NewWithClose(func() (string, error) {
		if br == nil {
			var err error
			if rc, err = open(); err != nil {
				return "", err
			}
			br = newBlockReader(rc, size)
		}
		return br.next()
	}, func() error {
		if rc == nil {
			if unopened != nil {
				return unopened()
			}
			return nil
		}
		return rc.Close()
	})
}

type chunkResult struct {
	chunk string
	err   error
}

// AsyncReaderChunks reads r on a background goroutine, one block ahead of
// the consumer. Closing the stream stops the goroutine and closes r.
func AsyncReaderChunks(r io.ReadCloser, size int) *stream.AsyncStream[string] {
	return openAsyncChunks(func() (io.ReadCloser, error) { return r, nil }, r.Close, size)
}

func openAsyncChunks(open opener, unopened func() error, size int) *stream.AsyncStream[string] {
	results := make(chan chunkResult, 1)
	done := make(chan struct{})
	opened := make(chan io.ReadCloser, 1)
	started := false

	produce := func() {
		defer close(results)
		rc, err := open()
		if err != nil {
			results <- chunkResult{err: err}
			return
		}
		opened <- rc
		br := newBlockReader(rc, size)
		for {
			select {
			case <-done:
				return
			default:
			}
			chunk, err := br.next()
			select {
			case results <- chunkResult{chunk: chunk, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}

	next := func(ctx context.Context) (string, error) {
		if !started {
			started = true
			go produce()
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-results:
			if !ok {
				return "", io.EOF
			}
			return res.chunk, res.err
		}
	}

	closeFn := func() error {
		close(done)
		if !started {
			if unopened != nil {
				return unopened()
			}
			return nil
		}
		// wait for the producer so the source is not closed under a read
		for range results {
		}
		select {
		case rc := <-opened:
			return rc.Close()
		default:
			return nil
		}
	}
	return stream.NewAsync(next, closeFn)
}
