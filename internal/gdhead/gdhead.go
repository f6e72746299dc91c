// Package gdhead locates files inside a Godot project and reads the uid
// Godot stored for them.
package gdhead

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ProjectFile marks the root directory of a Godot project.
const ProjectFile = "project.godot"

// maxHeader bounds how much of a text resource is scanned for its header.
const maxHeader = 4096

// ErrNoProject is returned when no project.godot is found above a path.
var ErrNoProject = errors.New("no " + ProjectFile + " found")

// ErrOutsideProject is returned for files that are not below the project root.
var ErrOutsideProject = errors.New("path is outside the project root")

// Project is a Godot project rooted at a directory.
type Project struct {
	Root string // absolute directory holding project.godot
}

// Open returns a project rooted at dir. The directory must exist.
func Open(dir string) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	st, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", abs)
	}

	return &Project{Root: abs}, nil
}

// Find walks up from start until a directory with project.godot is found.
func Find(start string) (*Project, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return nil, err
	}

	if st, err := os.Stat(abs); err == nil && !st.IsDir() {
		abs = filepath.Dir(abs)
	}

	for dir := abs; ; {
		if _, err := os.Stat(filepath.Join(dir, ProjectFile)); err == nil {
			return &Project{Root: dir}, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, fmt.Errorf("%w above %s", ErrNoProject, start)
		}
		dir = parent
	}
}

// ResPath converts a filesystem path to a res-relative path (no scheme).
func (p *Project) ResPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(p.Root, abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutsideProject, path)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideProject, path)
	}

	return filepath.ToSlash(rel), nil
}

// FilePath converts a res-relative path to a filesystem path.
func (p *Project) FilePath(resPath string) string {
	resPath = strings.TrimPrefix(resPath, "res://")
	return filepath.Join(p.Root, filepath.FromSlash(resPath))
}

// Locate returns the uid Godot recorded for resPath, or "" when none is
// recorded. A missing file yields an error wrapping fs.ErrNotExist.
func (p *Project) Locate(resPath string) (string, error) {
	full := p.FilePath(resPath)
	if _, err := os.Stat(full); err != nil {
		return "", err
	}

	switch strings.ToLower(filepath.Ext(full)) {
	case ".tscn", ".tres":
		return HeaderUID(full)
	}

	uid, err := sidecarUID(full + ".uid")
	if err == nil && uid != "" {
		return uid, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	uid, err = HeaderUID(full + ".import")
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}

	return uid, err
}

// HeaderUID scans the first lines of a text resource, scene or .import file
// for a uid="..." attribute.
func HeaderUID(path string) (uid string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	sc := bufio.NewScanner(io.LimitReader(f, maxHeader))
	for sc.Scan() {
		if v, ok := attr(sc.Text(), "uid"); ok {
			return v, nil
		}
	}

	return "", sc.Err()
}

// sidecarUID reads a Godot 4.4+ <file>.uid sidecar.
func sidecarUID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	uid := strings.TrimSpace(string(data))
	if !strings.HasPrefix(uid, "uid://") {
		return "", nil
	}

	return uid, nil
}

// attr extracts key="value" from a header or key-value line.
func attr(line, key string) (string, bool) {
	for _, marker := range []string{" " + key + "=\"", key + "=\""} {
		i := strings.Index(line, marker)
		if i < 0 {
			continue
		}
		if marker[0] != ' ' && i != 0 {
			continue
		}

		rest := line[i+len(marker):]
		end := strings.IndexByte(rest, '"')
		if end < 0 {
			return "", false
		}

		return rest[:end], true
	}

	return "", false
}
