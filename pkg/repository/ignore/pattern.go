package ignore

import (
	"path"
	"strings"
)

const (
	NegationPrefix  = '!'
	DirectorySuffix = '/'
	RootedPrefix    = '/'
	CommentPrefix   = '#'
)

// Pattern is one rule from an ignore file.
//
// Pattern rules:
//   - Blank lines and lines starting with # are skipped
//   - Trailing spaces are dropped unless escaped with \
//   - ! re-includes paths an earlier rule excluded
//   - a trailing / matches directories only
//   - a leading / (or any / inside the pattern) anchors it to the root
//   - ** matches zero or more directories, * and ? never cross /
//
// Examples:
//
//	*.log        every .log file
//	build/       any directory named build
//	/TODO        TODO at the root only
//	docs/**/*.md markdown anywhere below docs
type Pattern struct {
	Glob       string
	Negated    bool
	DirOnly    bool
	Anchored   bool
	LineNumber int
}

// ParseLine parses one line of an ignore file. ok is false for blank lines
// and comments.
func ParseLine(line string, lineNumber int) (Pattern, bool) {
	line = trimTrailingWhitespace(line)
	if line == "" || line[0] == CommentPrefix {
		return Pattern{}, false
	}

	p := Pattern{LineNumber: lineNumber}
	if line[0] == NegationPrefix {
		p.Negated = true
		line = line[1:]
	} else if strings.HasPrefix(line, `\!`) || strings.HasPrefix(line, `\#`) {
		line = line[1:]
	}
	if before, ok := strings.CutSuffix(line, string(DirectorySuffix)); ok {
		p.DirOnly = true
		line = before
	}
	if after, ok := strings.CutPrefix(line, string(RootedPrefix)); ok {
		p.Anchored = true
		line = after
	} else if strings.Contains(line, "/") {
		p.Anchored = true
	}

	p.Glob = unescape(line)
	if p.Glob == "" {
		return Pattern{}, false
	}
	return p, true
}

// Matches reports whether the slash path rel, relative to the directory
// the ignore file lives in, matches p. Parent directories are not
// considered here; the walker stops descending into excluded directories.
func (p Pattern) Matches(rel string, isDir bool) bool {
	if p.DirOnly && !isDir {
		return false
	}
	if p.Anchored {
		return globMatch(strings.Split(p.Glob, "/"), strings.Split(rel, "/"))
	}
	ok, _ := path.Match(p.Glob, path.Base(rel))
	return ok
}

// globMatch matches path segments against pattern segments, letting "**"
// stand for any number of segments.
func globMatch(pattern, segments []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			for i := 0; i <= len(segments); i++ {
				if globMatch(rest, segments[i:]) {
					return true
				}
			}
			return false
		}
		if len(segments) == 0 {
			return false
		}
		if ok, _ := path.Match(pattern[0], segments[0]); !ok {
			return false
		}
		pattern, segments = pattern[1:], segments[1:]
	}
	return len(segments) == 0
}

// trimTrailingWhitespace removes trailing whitespace unless escaped with a backslash.
func trimTrailingWhitespace(line string) string {
	trimmed := strings.TrimRight(line, " \t")
	if len(trimmed) < len(line) && strings.HasSuffix(trimmed, `\`) {
		return trimmed + line[len(trimmed):len(trimmed)+1]
	}
	return trimmed
}

func unescape(pattern string) string {
	if !strings.ContainsRune(pattern, '\\') {
		return pattern
	}
	var b strings.Builder
	b.Grow(len(pattern))
	escaped := false
	for _, ch := range pattern {
		switch {
		case escaped:
			if strings.ContainsRune("*?[]\\", ch) {
				b.WriteRune('\\')
			}
			b.WriteRune(ch)
			escaped = false
		case ch == '\\':
			escaped = true
		default:
			b.WriteRune(ch)
		}
	}
	return b.String()
}
