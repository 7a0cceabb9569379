package commit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Person is the author or committer of a commit, or the tagger of a tag.
//
// Serialized as "Name <email> unix-seconds ±HHMM", for example:
//
//	Jane Doe <jane@example.com> 1609459200 +0530
type Person struct {
	Name  string
	Email string
	When  time.Time
}

var personPattern = regexp.MustCompile(`^(.+) <([^>]*)> (-?\d+) ([+-]\d{4})$`)

// NewPerson creates a new Person with validation
func NewPerson(name, email string, when time.Time) (*Person, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}
	if strings.ContainsAny(name, "<>\n") {
		return nil, fmt.Errorf("name %q contains reserved characters", name)
	}
	if email == "" {
		return nil, fmt.Errorf("email cannot be empty")
	}
	if strings.ContainsAny(email, "<>\n") {
		return nil, fmt.Errorf("email %q contains reserved characters", email)
	}

	return &Person{Name: name, Email: email, When: when}, nil
}

// FormatForGit formats person information in Git's standard format.
func (p *Person) FormatForGit() string {
	_, offset := p.When.Zone()

	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}

	return fmt.Sprintf("%s <%s> %d %c%02d%02d",
		p.Name, p.Email, p.When.Unix(), sign, offset/3600, (offset%3600)/60)
}

// ParsePerson parses the output of FormatForGit. The returned time keeps
// the recorded offset as its location.
func ParsePerson(line string) (*Person, error) {
	m := personPattern.FindStringSubmatch(line)
	if m == nil {
		return nil, fmt.Errorf("invalid person format: %q", line)
	}

	ts, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp: %w", err)
	}

	loc, err := ParseTimezone(m[4])
	if err != nil {
		return nil, err
	}

	return &Person{Name: m[1], Email: m[2], When: time.Unix(ts, 0).In(loc)}, nil
}

// ParseTimezone parses an offset such as "+0530" or "-0800".
func ParseTimezone(tz string) (*time.Location, error) {
	if len(tz) != 5 || (tz[0] != '+' && tz[0] != '-') {
		return nil, fmt.Errorf("invalid timezone %q", tz)
	}

	hours, err := strconv.Atoi(tz[1:3])
	if err != nil {
		return nil, fmt.Errorf("invalid timezone hours %q: %w", tz, err)
	}
	minutes, err := strconv.Atoi(tz[3:5])
	if err != nil || minutes >= 60 {
		return nil, fmt.Errorf("invalid timezone minutes %q", tz)
	}

	offset := hours*3600 + minutes*60
	if tz[0] == '-' {
		offset = -offset
	}
	return time.FixedZone(tz, offset), nil
}

// String returns a human-readable representation
func (p *Person) String() string {
	return fmt.Sprintf("%s <%s>", p.Name, p.Email)
}

// Equal compares two people at second precision.
func (p *Person) Equal(other *Person) bool {
	if other == nil {
		return false
	}
	return p.Name == other.Name &&
		p.Email == other.Email &&
		p.When.Unix() == other.When.Unix()
}
