// Package project finds the workspace root a CLI invocation belongs to.
//
// PRDs and standalone stories are keyed by workspace path, so running
// storywing from a subdirectory must resolve to the same path as running
// it from the root. Detection walks up from the start directory:
//  1. .storywing/ marks an explicit workspace and wins immediately.
//  2. A language manifest (go.mod, package.json, ...) is the next best.
//  3. The .git root is the fallback.
//  4. With no marker at all, the start directory is the workspace.
package project

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// MarkerType is the kind of file that identified a workspace root.
type MarkerType int

const (
	MarkerNone MarkerType = iota
	MarkerStoryWing
	MarkerGoMod
	MarkerPackageJSON
	MarkerCargoToml
	MarkerPomXML
	MarkerPyProjectToml
	MarkerGit
)

func (m MarkerType) String() string {
	switch m {
	case MarkerNone:
		return "none"
	case MarkerStoryWing:
		return ".storywing"
	case MarkerGoMod:
		return "go.mod"
	case MarkerPackageJSON:
		return "package.json"
	case MarkerCargoToml:
		return "Cargo.toml"
	case MarkerPomXML:
		return "pom.xml"
	case MarkerPyProjectToml:
		return "pyproject.toml"
	case MarkerGit:
		return ".git"
	default:
		return "unknown"
	}
}

// Priority orders markers; higher wins.
func (m MarkerType) Priority() int {
	switch m {
	case MarkerStoryWing:
		return 100
	case MarkerGoMod, MarkerPackageJSON, MarkerCargoToml, MarkerPomXML, MarkerPyProjectToml:
		return 50
	case MarkerGit:
		return 10
	default:
		return 0
	}
}

// markers in same-directory precedence order.
var markers = []struct {
	name string
	kind MarkerType
}{
	{".storywing", MarkerStoryWing},
	{"go.mod", MarkerGoMod},
	{"package.json", MarkerPackageJSON},
	{"Cargo.toml", MarkerCargoToml},
	{"pom.xml", MarkerPomXML},
	{"pyproject.toml", MarkerPyProjectToml},
	{".git", MarkerGit},
}

// Context is a detected workspace.
type Context struct {
	RootPath   string
	MarkerType MarkerType
	// GitRoot is the nearest enclosing repository root, or "".
	GitRoot string
}

// IsMonorepo reports whether the root sits below its repository root.
func (c *Context) IsMonorepo() bool {
	return c.GitRoot != "" && c.GitRoot != c.RootPath
}

// RelativeGitPath is RootPath relative to GitRoot, or ".".
func (c *Context) RelativeGitPath() string {
	if !c.IsMonorepo() {
		return "."
	}
	rel, err := filepath.Rel(c.GitRoot, c.RootPath)
	if err != nil {
		return "."
	}
	return rel
}

// Detector finds workspace roots on a filesystem.
type Detector struct {
	fs afero.Fs
	// Home stops the walk; markers in it are ignored since ~/.storywing
	// holds global config, not a workspace.
	Home string
}

// NewDetector returns a Detector over fs. Tests pass afero.NewMemMapFs().
func NewDetector(fs afero.Fs) *Detector {
	return &Detector{fs: fs}
}

// Detect resolves the workspace containing startPath.
func (d *Detector) Detect(startPath string) (*Context, error) {
	start, err := filepath.Abs(startPath)
	if err != nil {
		return nil, err
	}

	best := &Context{RootPath: start, MarkerType: MarkerNone}
	for dir := start; dir != d.Home; {
		for _, m := range markers {
			ok, err := afero.Exists(d.fs, filepath.Join(dir, m.name))
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			if m.kind == MarkerGit && best.GitRoot == "" {
				best.GitRoot = dir
			}
			if m.kind.Priority() > best.MarkerType.Priority() {
				best.RootPath = dir
				best.MarkerType = m.kind
			}
			if m.kind == MarkerStoryWing {
				return best, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return best, nil
}

// Detect resolves startPath on the OS filesystem, stopping at the user's
// home directory.
func Detect(startPath string) (*Context, error) {
	d := NewDetector(afero.NewOsFs())
	d.Home, _ = os.UserHomeDir()
	return d.Detect(startPath)
}
