package refs

import (
	"fmt"
	"strings"
)

// Well-known reference names and namespaces.
const (
	Head         = "HEAD"
	RefsPrefix   = "refs/"
	HeadsPrefix  = "refs/heads/"
	TagsPrefix   = "refs/tags/"
	symbolicLead = "ref: "
)

// ValidateName checks a full reference name such as "refs/heads/main".
// HEAD is the only accepted name outside refs/.
func ValidateName(name string) error {
	if name == Head {
		return nil
	}
	if !strings.HasPrefix(name, RefsPrefix) || len(name) == len(RefsPrefix) {
		return fmt.Errorf("reference name %q must start with %q", name, RefsPrefix)
	}
	if name == "@" || strings.HasSuffix(name, "/") || strings.HasSuffix(name, ".") {
		return fmt.Errorf("invalid reference name %q", name)
	}

	for _, bad := range []string{" ", "~", "^", ":", "?", "*", "[", "\\", "..", "@{", "//"} {
		if strings.Contains(name, bad) {
			return fmt.Errorf("reference name %q contains %q", name, bad)
		}
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("reference name %q contains a control character", name)
		}
	}
	for _, part := range strings.Split(name, "/") {
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".lock") {
			return fmt.Errorf("invalid component %q in reference name %q", part, name)
		}
	}
	return nil
}

// BranchRef returns the full name of branch, validating it.
func BranchRef(branch string) (string, error) {
	if branch == "" {
		return "", fmt.Errorf("branch name cannot be empty")
	}
	name := HeadsPrefix + branch
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}

// TagRef returns the full name of tag, validating it.
func TagRef(tag string) (string, error) {
	if tag == "" {
		return "", fmt.Errorf("tag name cannot be empty")
	}
	name := TagsPrefix + tag
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}

// IsBranch checks if name is under refs/heads/
func IsBranch(name string) bool {
	return strings.HasPrefix(name, HeadsPrefix)
}

// IsTag checks if name is under refs/tags/
func IsTag(name string) bool {
	return strings.HasPrefix(name, TagsPrefix)
}

// ShortName strips the namespace prefix:
// "refs/heads/main" -> "main", "refs/tags/v1.0.0" -> "v1.0.0".
func ShortName(name string) string {
	for _, prefix := range []string{HeadsPrefix, TagsPrefix, RefsPrefix} {
		if after, ok := strings.CutPrefix(name, prefix); ok {
			return after
		}
	}
	return name
}

// candidates lists the full names a short name may refer to, in lookup
// order.
func candidates(name string) []string {
	if name == Head || strings.HasPrefix(name, RefsPrefix) {
		return []string{name}
	}
	return []string{RefsPrefix + name, TagsPrefix + name, HeadsPrefix + name}
}
