// Package ignore decides which working-directory paths are left out when a
// directory is staged. Rules come from the .sourceignore file at the
// repository root and follow the usual gitignore syntax.
package ignore

import (
	"bufio"
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
)

// FileName is the ignore file read from the repository root.
const FileName = ".sourceignore"

// Matcher holds the rules of one repository. The .source directory is
// always excluded.
type Matcher struct {
	patterns []Pattern
}

// NewMatcher parses ignore file content.
func NewMatcher(content []byte) *Matcher {
	m := &Matcher{}
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for n := 1; scanner.Scan(); n++ {
		if p, ok := ParseLine(scanner.Text(), n); ok {
			m.patterns = append(m.patterns, p)
		}
	}
	return m
}

// Load reads <root>/.sourceignore. A missing file gives a matcher that
// only excludes .source.
func Load(root scpath.RepositoryPath) (*Matcher, error) {
	data, err := os.ReadFile(filepath.Join(root.String(), FileName))
	if errors.Is(err, fs.ErrNotExist) {
		return &Matcher{}, nil
	}
	if err != nil {
		return nil, err
	}
	return NewMatcher(data), nil
}

// Patterns returns the parsed rules in file order.
func (m *Matcher) Patterns() []Pattern {
	return m.patterns
}

// IsIgnored reports whether the repository-relative slash path is
// excluded. The last matching rule decides.
func (m *Matcher) IsIgnored(rel string, isDir bool) bool {
	if rel == scpath.SourceDir || strings.HasPrefix(rel, scpath.SourceDir+"/") {
		return true
	}
	ignored := false
	for _, p := range m.patterns {
		if p.Matches(rel, isDir) {
			ignored = !p.Negated
		}
	}
	return ignored
}

// Files lists the regular files and symlinks below dir, as sorted
// repository-relative slash paths, skipping ignored entries. Ignored
// directories are not descended into.
func (m *Matcher) Files(root scpath.RepositoryPath, dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root.String(), p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if m.IsIgnored(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
