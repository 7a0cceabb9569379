package refs

import (
	"bufio"
	"bytes"
	"fmt"
	"iter"
	"strings"

	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/objects/commit"
)

// LogEntry records one movement of a reference.
//
// On disk each entry is one line:
//
//	<old> <new> Name <email> <unix> <tz>\t<reason>
//
// A zero digest on either side means the ref did not exist.
type LogEntry struct {
	Old    objects.ObjectHash
	New    objects.ObjectHash
	Actor  commit.Person
	Reason string
}

func (e LogEntry) line() string {
	reason := strings.ReplaceAll(e.Reason, "\n", " ")
	return fmt.Sprintf("%s %s %s\t%s\n", e.Old, e.New, e.Actor.FormatForGit(), reason)
}

func parseLogLine(line string) (LogEntry, error) {
	head, reason, _ := strings.Cut(line, "\t")

	oldHex, rest, ok := strings.Cut(head, " ")
	if !ok {
		return LogEntry{}, fmt.Errorf("missing new digest")
	}
	newHex, actor, ok := strings.Cut(rest, " ")
	if !ok {
		return LogEntry{}, fmt.Errorf("missing actor")
	}

	oldHash, err := objects.ParseObjectHash(oldHex)
	if err != nil {
		return LogEntry{}, fmt.Errorf("old digest: %w", err)
	}
	newHash, err := objects.ParseObjectHash(newHex)
	if err != nil {
		return LogEntry{}, fmt.Errorf("new digest: %w", err)
	}
	person, err := commit.ParsePerson(actor)
	if err != nil {
		return LogEntry{}, err
	}

	return LogEntry{Old: oldHash, New: newHash, Actor: *person, Reason: reason}, nil
}

// parseLog decodes a log file in file order (oldest first). Lines that do
// not parse are reported through skip and left out.
func parseLog(data []byte, skip func(lineNo int, err error)) []LogEntry {
	var entries []LogEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := scanner.Text()
		if text == "" {
			continue
		}
		entry, err := parseLogLine(text)
		if err != nil {
			skip(lineNo, err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// Log is the movement history of one reference, newest entry first.
// It is a snapshot; reading it again yields the same entries.
type Log struct {
	name    string
	entries []LogEntry
}

func newLog(name string, oldestFirst []LogEntry) Log {
	entries := make([]LogEntry, len(oldestFirst))
	for i, e := range oldestFirst {
		entries[len(entries)-1-i] = e
	}
	return Log{name: name, entries: entries}
}

// Name returns the full reference name
func (l Log) Name() string {
	return l.name
}

// Len returns the number of entries
func (l Log) Len() int {
	return len(l.entries)
}

// At returns the i-th most recent entry; At(0) is the latest movement.
func (l Log) At(i int) (LogEntry, bool) {
	if i < 0 || i >= len(l.entries) {
		return LogEntry{}, false
	}
	return l.entries[i], true
}

// All iterates newest first.
func (l Log) All() iter.Seq2[int, LogEntry] {
	return func(yield func(int, LogEntry) bool) {
		for i, e := range l.entries {
			if !yield(i, e) {
				return
			}
		}
	}
}

// Entries returns a copy of the entries, newest first.
func (l Log) Entries() []LogEntry {
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
