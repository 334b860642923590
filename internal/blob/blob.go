// Package blob stores uploaded files in a directory under opaque references.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const ext = ".jpg"

// ErrNotFound is returned when a reference names no stored file.
var ErrNotFound = errors.New("blob not found")

// ErrInvalidRef is returned for references this store could not have issued.
var ErrInvalidRef = errors.New("invalid blob reference")

// Store is a directory of blobs named by UUID.
type Store struct {
	dir string
}

// NewStore creates the directory if needed and returns a store rooted there.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Put writes r to a new blob and returns its reference. The file only becomes
// visible once fully written.
func (s *Store) Put(ctx context.Context, r io.Reader) (string, error) {
	ref := uuid.NewString() + ext

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, contextReader{ctx: ctx, r: r}); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing blob: %w", err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, ref)); err != nil {
		return "", fmt.Errorf("storing blob: %w", err)
	}
	return ref, nil
}

// Open returns the blob for ref. The caller closes it.
func (s *Store) Open(ref string) (*os.File, error) {
	path, err := s.path(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("opening blob: %w", err)
	}
	return f, nil
}

// Delete removes the blob for ref. Deleting a missing blob is not an error.
func (s *Store) Delete(ref string) error {
	path, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting blob: %w", err)
	}
	return nil
}

// ValidRef reports whether ref has the shape of a reference issued by Put.
func ValidRef(ref string) bool {
	id, ok := strings.CutSuffix(ref, ext)
	if !ok {
		return false
	}
	parsed, err := uuid.Parse(id)
	return err == nil && parsed.String() == id
}

func (s *Store) path(ref string) (string, error) {
	if !ValidRef(ref) {
		return "", ErrInvalidRef
	}
	return filepath.Join(s.dir, ref), nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
