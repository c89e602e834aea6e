package server

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathEscapesRoot is returned when a request's filename resolves
// outside the configured server root.
var ErrPathEscapesRoot = errors.New("server: path escapes server root")

// Root confines served files to a single directory, the application-level
// restriction spec.md section 1 names as an external collaborator rather
// than core protocol logic. It is grounded on the teacher's
// server/srvconn.go, which resolved a request's filename against a
// configured directory before opening it.
type Root struct {
	dir string
}

// NewRoot returns a Root confined to dir. dir is resolved to an absolute,
// symlink-free path once at startup so later comparisons are exact.
func NewRoot(dir string) (*Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	return &Root{dir: resolved}, nil
}

// Resolve joins name onto the root directory and rejects any result that
// would escape it, whether via ".." segments or (after following
// symlinks) a path that points outside the root entirely.
func (r *Root) Resolve(name string) (string, error) {
	joined := filepath.Join(r.dir, name)
	if joined != r.dir && !strings.HasPrefix(joined, r.dir+string(filepath.Separator)) {
		return "", ErrPathEscapesRoot
	}

	if resolved, err := filepath.EvalSymlinks(joined); err == nil {
		if resolved != r.dir && !strings.HasPrefix(resolved, r.dir+string(filepath.Separator)) {
			return "", ErrPathEscapesRoot
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}

	return joined, nil
}

// Dir returns the confined root directory.
func (r *Root) Dir() string { return r.dir }
