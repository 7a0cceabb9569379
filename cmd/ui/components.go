package ui

import (
	"fmt"
	"io"
	"strings"
)

// Change is what a command did to one index path.
type Change int

const (
	ChangeStaged Change = iota
	ChangeRemoved
	ChangeRestored
	ChangeConflicted
)

// FormatChange renders a path with the icon and color of its change.
func FormatChange(change Change, path string) string {
	switch change {
	case ChangeStaged:
		return fmt.Sprintf("  %s  %s", StagedStyle.Render(IconStaged), StagedStyle.Render(path))
	case ChangeRemoved:
		return fmt.Sprintf("  %s  %s", RemovedStyle.Render(IconRemoved), RemovedStyle.Render(path))
	case ChangeRestored:
		return fmt.Sprintf("  %s  %s", RestoredStyle.Render(IconRestored), RestoredStyle.Render(path))
	case ChangeConflicted:
		return fmt.Sprintf("  %s  %s", ConflictedStyle.Render(IconConflicted), ConflictedStyle.Render(path))
	default:
		return path
	}
}

// SuccessMessage creates a success message with a checkmark icon
func SuccessMessage(message string, details ...string) string {
	parts := []string{Green(IconCheckmark), Green(message)}
	for _, detail := range details {
		parts = append(parts, Blue(detail))
	}
	return strings.Join(parts, " ")
}

// BranchInfo formats the branch HEAD is attached to.
func BranchInfo(branchName string) string {
	return fmt.Sprintf("%s Branch: %s", Cyan(IconBranch), Blue(branchName))
}

// DetachedInfo formats a detached HEAD.
func DetachedInfo(hash string) string {
	return fmt.Sprintf("%s HEAD detached at %s", Cyan(IconBranch), Yellow(hash))
}

// TagInfo formats a created tag.
func TagInfo(name, target string) string {
	return fmt.Sprintf("%s Tag: %s -> %s", Cyan(IconTag), Blue(name), Yellow(target))
}

// CommitInfo is what log prints for one commit.
type CommitInfo struct {
	Hash    string
	Parents []string
	Author  string
	Date    string
	Message string
}

// FormatCommitDetailed formats a commit with full details in a box
func FormatCommitDetailed(commit CommitInfo) string {
	var content strings.Builder

	fmt.Fprintf(&content, "%s %s\n", Yellow(IconCommit), Yellow(commit.Hash))
	if len(commit.Parents) > 1 {
		fmt.Fprintf(&content, "%s %s\n", Dim("Merge:"), Dim(strings.Join(commit.Parents, " ")))
	}
	fmt.Fprintf(&content, "%s %s\n", Cyan(IconAuthor), Cyan(commit.Author))
	fmt.Fprintf(&content, "%s %s\n\n", Magenta(IconDate), Magenta(commit.Date))
	content.WriteString(strings.TrimRight(commit.Message, "\n"))

	return CommitBox(content.String())
}

// ErrorMessage formats an error message in red
func ErrorMessage(message string) string {
	return Red(message)
}

// WarningMessage formats a warning message in yellow
func WarningMessage(message string) string {
	return Yellow(message)
}

func InfoMessage(message string) string {
	return Blue(message)
}

// Println writes s and a newline to w, ignoring write errors like fmt.Println.
func Println(w io.Writer, s string) {
	fmt.Fprintln(w, s)
}
