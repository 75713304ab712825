package gtfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/theoremus-urban-solutions/gtfs-io/csvio"
	"github.com/theoremus-urban-solutions/gtfs-io/schema"
	"github.com/theoremus-urban-solutions/gtfs-io/stream"
)

var validate = validator.New()

// ReaderOptions controls how table sources are streamed and decoded.
type ReaderOptions struct {
	// ChunkSize is the block size in bytes, DefaultChunkSize when 0.
	ChunkSize int `yaml:"chunkSize" validate:"omitempty,gte=4"`
	// Concurrency bounds the tables an AsyncFeed loads at once.
	Concurrency int `yaml:"concurrency" validate:"gte=0"`

	Decode csvio.DecodeOptions `yaml:",inline"`
}

func (o ReaderOptions) withDefaults() (ReaderOptions, error) {
	if o.ChunkSize == 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if err := validate.Struct(o); err != nil {
		return o, fmt.Errorf("invalid reader options: %w", err)
	}
	return o, nil
}

// FileContent is a table file held in memory, e.g. "stops.txt".
type FileContent struct {
	Name    string
	Content string
}

type tableSource struct {
	table  schema.Table
	path   string // where the table was found, for logs and errors
	open   opener
	memory *string
}

// Reader turns a feed source into lazy, async or loaded feeds. Every call
// to Feed or AsyncFeed reopens the sources, so a Reader can be read many times.
type Reader struct {
	opts    ReaderOptions
	sources []tableSource // feed order
	closer  io.Closer
}

func newReader(opts ReaderOptions, found map[schema.TableName]tableSource, closer io.Closer) (*Reader, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, err
	}
	r := &Reader{opts: opts, closer: closer}
	for _, t := range schema.All() {
		if src, ok := found[t.Name]; ok {
			src.table = t
			r.sources = append(r.sources, src)
		}
	}
	return r, nil
}

// ReadZip reads a feed archive held in memory.
func ReadZip(data []byte, opts ReaderOptions) (*Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	return newReader(opts, zipSources(zr), nil)
}

// OpenZip opens a feed archive on disk. Close the Reader when done.
func OpenZip(path string, opts ReaderOptions) (*Reader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip %s: %w", path, err)
	}
	return newReader(opts, zipSources(&zr.Reader), zr)
}

// zipSources matches entries by file name, case-insensitively, at the
// archive root or inside a single top-level folder. Root entries win.
func zipSources(zr *zip.Reader) map[schema.TableName]tableSource {
	zr.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())
	found := make(map[schema.TableName]tableSource)
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		dir, base := path.Split(f.Name)
		if strings.Count(dir, "/") > 1 {
			continue
		}
		t, err := schema.LookupFile(base)
		if err != nil {
			continue
		}
		if prev, ok := found[t.Name]; ok && !strings.Contains(prev.path, "/") {
			continue
		}
		found[t.Name] = tableSource{
			path: f.Name,
			open: func() (io.ReadCloser, error) { return f.Open() },
		}
	}
	return found
}

// compressed table extensions, in lookup order after the plain file
var extensions = []string{".gz", ".zst", ".xz"}

// ReadDir reads a feed directory. A table may be stored as <file>.gz,
// <file>.zst or <file>.xz when the plain file is missing.
func ReadDir(dir string, opts ReaderOptions) (*Reader, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed directory: %w", err)
	}
	names := make(map[string]string, len(entries)) // lower-case -> actual
	for _, e := range entries {
		if !e.IsDir() {
			names[strings.ToLower(e.Name())] = e.Name()
		}
	}

	found := make(map[schema.TableName]tableSource)
	for _, t := range schema.All() {
		for _, ext := range append([]string{""}, extensions...) {
			name, ok := names[t.FileName+ext]
			if !ok {
				continue
			}
			p := filepath.Join(dir, name)
			found[t.Name] = tableSource{path: p, open: fileOpener(p, ext)}
			break
		}
	}
	return newReader(opts, found, nil)
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r readCloser) Close() error { return r.close() }

func fileOpener(p, ext string) opener {
	return func() (io.ReadCloser, error) {
		f, err := os.Open(p)
		if err != nil {
			return nil, err
		}
		switch ext {
		case ".gz":
			zr, err := gzip.NewReader(f)
			if err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("%s: %w", p, err)
			}
			return readCloser{zr, func() error { return errors.Join(zr.Close(), f.Close()) }}, nil
		case ".zst":
			zr, err := zstd.NewReader(f)
			if err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("%s: %w", p, err)
			}
			return readCloser{zr, func() error { zr.Close(); return f.Close() }}, nil
		case ".xz":
			xr, err := xz.NewReader(f)
			if err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("%s: %w", p, err)
			}
			return readCloser{xr, f.Close}, nil
		}
		return f, nil
	}
}

// ReadFiles reads table files held in memory. Unknown file names are ignored.
func ReadFiles(files []FileContent, opts ReaderOptions) (*Reader, error) {
	found := make(map[schema.TableName]tableSource)
	for _, f := range files {
		t, err := schema.LookupFile(path.Base(f.Name))
		if err != nil {
			continue
		}
		content := f.Content
		found[t.Name] = tableSource{path: f.Name, memory: &content}
	}
	return newReader(opts, found, nil)
}

// Tables returns the tables found in the source, in feed order.
func (r *Reader) Tables() []schema.TableName {
	out := make([]schema.TableName, len(r.sources))
	for i, src := range r.sources {
		out[i] = src.table.Name
	}
	return out
}

func (r *Reader) chunks(src tableSource) *stream.Stream[string] {
	if src.memory != nil {
		return StringChunks(*src.memory, r.opts.ChunkSize)
	}
	return openChunks(src.open, nil, r.opts.ChunkSize)
}

func (r *Reader) asyncChunks(src tableSource) *stream.AsyncStream[string] {
	if src.memory != nil {
		return stream.Async(StringChunks(*src.memory, r.opts.ChunkSize))
	}
	return openAsyncChunks(src.open, nil, r.opts.ChunkSize)
}

// Feed returns a lazy feed over the source. Tables are opened on first pull.
func (r *Reader) Feed() *LazyFeed {
	feed := NewLazyFeed()
	for _, src := range r.sources {
		feed.tables[src.table.Name] = csvio.Decode(src.table, r.chunks(src), r.opts.Decode)
	}
	return feed
}

// AsyncFeed returns an async feed whose tables are read on background goroutines.
func (r *Reader) AsyncFeed() *AsyncFeed {
	feed := NewAsyncFeed()
	feed.Concurrency = r.opts.Concurrency
	for _, src := range r.sources {
		feed.tables[src.table.Name] = csvio.DecodeAsync(src.table, r.asyncChunks(src), r.opts.Decode)
	}
	return feed
}

// Load reads every table into memory.
func (r *Reader) Load() (*LoadedFeed, error) {
	return r.Feed().Load()
}

// LoadAsync reads every table into memory, several tables at once.
func (r *Reader) LoadAsync(ctx context.Context) (*LoadedFeed, error) {
	return r.AsyncFeed().Load(ctx)
}

// Close releases the underlying archive, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
