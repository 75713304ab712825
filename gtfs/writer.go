package gtfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"golang.org/x/sync/errgroup"

	"github.com/theoremus-urban-solutions/gtfs-io/csvio"
	"github.com/theoremus-urban-solutions/gtfs-io/stream"
)

// Compression of table files written by WriteDir.
type Compression string

const (
	CompressNone Compression = ""
	CompressGzip Compression = "gzip"
	CompressZstd Compression = "zstd"
	CompressXZ   Compression = "xz"
)

// Ext returns the file name suffix for c.
func (c Compression) Ext() string {
	switch c {
	case CompressGzip:
		return ".gz"
	case CompressZstd:
		return ".zst"
	case CompressXZ:
		return ".xz"
	}
	return ""
}

// WriterOptions controls table encoding and, for WriteDir, file compression.
type WriterOptions struct {
	Encode      csvio.EncodeOptions `yaml:",inline"`
	Compression Compression         `yaml:"compression" validate:"omitempty,oneof=gzip zstd xz"`
	// Concurrency bounds the tables WriteDir writes at once, 0 means no limit.
	Concurrency int `yaml:"concurrency" validate:"gte=0"`
}

func (o WriterOptions) validate() error {
	enc, err := o.Encode.WithDefaults()
	if err != nil {
		return err
	}
	o.Encode = enc
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid writer options: %w", err)
	}
	return nil
}

// WriteZip writes every present table of feed as one archive entry.
func WriteZip(w io.Writer, feed *LazyFeed, opts WriterOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}
	zw := zip.NewWriter(w)
	for e := range feed.Tables() {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: e.Table.FileName, Method: zip.Deflate})
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", e.Table.FileName, err)
		}
		if _, err := csvio.WriteTo(fw, csvio.Encode(e.Table, e.Records, opts.Encode)); err != nil {
			_ = feed.Close()
			return &TableError{Table: e.Name, Err: err}
		}
	}
	return zw.Close()
}

// WriteFiles encodes every present table into memory.
func WriteFiles(feed *LazyFeed, opts WriterOptions) ([]FileContent, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	var out []FileContent
	for e := range feed.Tables() {
		var b strings.Builder
		if _, err := csvio.WriteTo(&b, csvio.Encode(e.Table, e.Records, opts.Encode)); err != nil {
			_ = feed.Close()
			return out, &TableError{Table: e.Name, Err: err}
		}
		out = append(out, FileContent{Name: e.Table.FileName, Content: b.String()})
	}
	return out, nil
}

// WriteDir writes every present table to dir, several tables at once. The
// first failure cancels the remaining tables.
func WriteDir(ctx context.Context, dir string, feed *AsyncFeed, opts WriterOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for e := range feed.Tables() {
		p := filepath.Join(dir, e.Table.FileName+opts.Compression.Ext())
		g.Go(func() error {
			blocks := csvio.EncodeAsync(e.Table, e.Records, opts.Encode)
			defer blocks.Close()
			if err := writeFile(ctx, p, opts.Compression, blocks); err != nil {
				return &TableError{Table: e.Name, Err: err}
			}
			return nil
		})
	}
	return g.Wait()
}

func writeFile(ctx context.Context, p string, c Compression, blocks *stream.AsyncStream[string]) (err error) {
	f, err := os.Create(p)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	w, err := compressor(f, c)
	if err != nil {
		return err
	}
	if _, err := csvio.WriteToAsync(ctx, w, blocks); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func compressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressGzip:
		return gzip.NewWriter(w), nil
	case CompressZstd:
		return zstd.NewWriter(w)
	case CompressXZ:
		return xz.NewWriter(w)
	}
	return nopWriteCloser{w}, nil
}
