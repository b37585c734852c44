package governance

import (
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
)

// gzipFile closes both the decompressor and the underlying file.
type gzipFile struct {
	*pgzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	if err := g.Reader.Close(); err != nil {
		_ = g.f.Close()
		return errors.Wrap(err, "close gzip")
	}
	return g.f.Close()
}

// Open opens a catalog document. Paths ending in .gz are decompressed.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog")
	}
	if !strings.HasSuffix(strings.ToLower(path), ".gz") {
		return f, nil
	}
	zr, err := pgzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "gunzip %s", path)
	}
	return &gzipFile{Reader: zr, f: f}, nil
}

// ReadFile returns the whole catalog document at path.
func ReadFile(path string) (string, error) {
	rc, err := Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", errors.Wrap(err, "read catalog")
	}
	return string(data), nil
}
