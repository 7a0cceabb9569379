package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utkarsh5026/sourcevault/pkg/config"
)

// runCLI executes one srcc invocation inside dir with user and system
// config disabled and a fixed identity.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	a := newApp()
	a.stderr = io.Discard
	a.configOpts = []config.Option{config.WithUserDir(""), config.WithSystemDir("")}

	cmd := newRootCmd(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{
		"-C", dir,
		"-c", "user.name=Test User",
		"-c", "user.email=test@example.com",
	}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, dir, args...)
	require.NoError(t, err, "srcc %s\n%s", strings.Join(args, " "), out)
	return out
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func setupCLIRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	mustRun(t, dir, "init")
	return dir
}

func commitFile(t *testing.T, dir, name, content, message string) string {
	t.Helper()
	writeFile(t, dir, name, content)
	mustRun(t, dir, "add", name)
	mustRun(t, dir, "commit", "-m", message)
	return strings.TrimSpace(mustRun(t, dir, "rev-parse", "HEAD"))
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()

	out := mustRun(t, dir, "init")
	assert.Contains(t, out, "Initialized empty repository")
	assert.Contains(t, out, "branch: main")
	assert.DirExists(t, filepath.Join(dir, ".source"))

	_, err := runCLI(t, dir, "init")
	assert.Error(t, err)
}

func TestInitWithDigestSetting(t *testing.T) {
	dir := t.TempDir()
	out := mustRun(t, dir, "-c", "core.digest=sha256", "init")
	assert.Contains(t, out, "digest: sha256")

	writeFile(t, dir, "a.txt", "a\n")
	hash := strings.TrimSpace(mustRun(t, dir, "hash-object", "a.txt"))
	assert.Len(t, hash, 64)
}

func TestCommandsOutsideRepository(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "ls-files")
	assert.Error(t, err)
}

func TestHashObjectAndCatFile(t *testing.T) {
	dir := setupCLIRepo(t)
	writeFile(t, dir, "hello.txt", "hello\n")

	hash := strings.TrimSpace(mustRun(t, dir, "hash-object", "hello.txt"))
	assert.Equal(t, "ce013625030ba8dba906f756967f9e9ca394464a", hash)

	_, err := runCLI(t, dir, "cat-file", "-t", hash)
	assert.Error(t, err, "hash-object without -w must not store")

	assert.Equal(t, hash, strings.TrimSpace(mustRun(t, dir, "hash-object", "-w", "hello.txt")))
	assert.Equal(t, "blob\n", mustRun(t, dir, "cat-file", "-t", hash))
	assert.Equal(t, "6\n", mustRun(t, dir, "cat-file", "-s", hash))
	assert.Equal(t, "hello\n", mustRun(t, dir, "cat-file", "-p", hash[:8]))

	_, err = runCLI(t, dir, "cat-file", "-t", "-s", hash)
	assert.Error(t, err)
}

func TestAddCommitAndInspect(t *testing.T) {
	dir := setupCLIRepo(t)

	_, err := runCLI(t, dir, "rev-parse", "HEAD")
	assert.Error(t, err, "HEAD is unborn before the first commit")

	writeFile(t, dir, "README.md", "# demo\n")
	writeFile(t, dir, "src/main.go", "package main\n")
	mustRun(t, dir, "add", "README.md", "src/main.go")

	assert.Equal(t, "README.md\nsrc/main.go\n", mustRun(t, dir, "ls-files"))
	assert.Contains(t, mustRun(t, dir, "ls-files", "--stage"), "src/main.go")

	tree := strings.TrimSpace(mustRun(t, dir, "write-tree"))
	out := mustRun(t, dir, "commit", "-m", "Initial import")
	assert.Contains(t, out, "[main ")
	assert.Contains(t, out, "Initial import")

	assert.Equal(t, "commit\n", mustRun(t, dir, "cat-file", "-t", "HEAD"))
	assert.Equal(t, tree+"\n", mustRun(t, dir, "rev-parse", "HEAD^{tree}"))

	listing := mustRun(t, dir, "cat-file", "-p", "HEAD^{tree}")
	assert.Contains(t, listing, "100644 blob ")
	assert.Contains(t, listing, "\tREADME.md\n")
	assert.Contains(t, listing, "040000 tree ")
	assert.Contains(t, listing, "\tsrc\n")

	assert.Contains(t, mustRun(t, dir, "cat-file", "-p", "HEAD"), "Initial import")
	assert.Contains(t, mustRun(t, dir, "log"), "Initial import")
	assert.Contains(t, mustRun(t, dir, "log", "-t"), "Test User")

	_, err = runCLI(t, dir, "commit", "-m", "nothing changed")
	assert.Error(t, err, "a commit with an unchanged tree needs --allow-empty")
	mustRun(t, dir, "commit", "--allow-empty", "-m", "checkpoint")
}

func TestAddRejectsPathOutsideRepository(t *testing.T) {
	dir := setupCLIRepo(t)
	outside := filepath.Join(t.TempDir(), "x.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0644))

	_, err := runCLI(t, dir, "add", outside)
	assert.Error(t, err)
}

func TestRmAndReset(t *testing.T) {
	dir := setupCLIRepo(t)
	commitFile(t, dir, "a.txt", "one\n", "first")

	writeFile(t, dir, "a.txt", "two\n")
	writeFile(t, dir, "b.txt", "new\n")
	mustRun(t, dir, "add", "a.txt", "b.txt")
	staged := mustRun(t, dir, "ls-files", "--stage")

	mustRun(t, dir, "reset", "a.txt", "b.txt")
	assert.Equal(t, "a.txt\n", mustRun(t, dir, "ls-files"))
	assert.NotEqual(t, staged, mustRun(t, dir, "ls-files", "--stage"))

	mustRun(t, dir, "rm", "a.txt")
	assert.Empty(t, mustRun(t, dir, "ls-files"))
	assert.FileExists(t, filepath.Join(dir, "a.txt"))

	_, err := runCLI(t, dir, "rm", "a.txt")
	assert.Error(t, err)
}

func TestBranchSwitchAndRanges(t *testing.T) {
	dir := setupCLIRepo(t)
	base := commitFile(t, dir, "a.txt", "a\n", "base")

	mustRun(t, dir, "branch", "feature")
	list := mustRun(t, dir, "branch")
	assert.Contains(t, list, "feature")
	assert.Contains(t, list, "main")

	mustRun(t, dir, "switch", "feature")
	tip := commitFile(t, dir, "f.txt", "f\n", "feature work")

	assert.Equal(t, tip+"\n", mustRun(t, dir, "rev-list", "main..feature"))
	assert.Equal(t, tip+"\n", mustRun(t, dir, "rev-list", "^main", "feature"))
	assert.ElementsMatch(t, []string{tip, base}, strings.Fields(mustRun(t, dir, "rev-list", "feature")))
	assert.Len(t, strings.Fields(mustRun(t, dir, "rev-list", "-n", "1", "feature")), 1)
	assert.Equal(t, base+"\n", mustRun(t, dir, "rev-parse", "feature~1"))

	mustRun(t, dir, "switch", "main")
	_, err := runCLI(t, dir, "branch", "-d", "feature")
	assert.Error(t, err, "feature is not merged into main")
	mustRun(t, dir, "branch", "-D", "feature")
	assert.NotContains(t, mustRun(t, dir, "branch"), "feature")

	mustRun(t, dir, "switch", "-c", "topic")
	mustRun(t, dir, "branch", "-m", "topic", "renamed")
	assert.Contains(t, mustRun(t, dir, "branch"), "renamed")
}

func TestCheckoutDetach(t *testing.T) {
	dir := setupCLIRepo(t)
	first := commitFile(t, dir, "a.txt", "1\n", "one")
	commitFile(t, dir, "a.txt", "2\n", "two")

	out := mustRun(t, dir, "checkout", "--detach", "HEAD~1")
	assert.Contains(t, out, "HEAD detached at")
	assert.Equal(t, first+"\n", mustRun(t, dir, "rev-parse", "HEAD"))

	mustRun(t, dir, "checkout", "main")
	assert.NotEqual(t, first+"\n", mustRun(t, dir, "rev-parse", "HEAD"))
}

func TestTags(t *testing.T) {
	dir := setupCLIRepo(t)
	head := commitFile(t, dir, "a.txt", "a\n", "release")

	mustRun(t, dir, "tag", "v1")
	mustRun(t, dir, "tag", "-a", "-m", "First release", "v1-annotated", "main")
	assert.Equal(t, "v1\nv1-annotated\n", mustRun(t, dir, "tag"))

	assert.Equal(t, head+"\n", mustRun(t, dir, "rev-parse", "v1"))
	assert.Equal(t, "tag\n", mustRun(t, dir, "cat-file", "-t", "v1-annotated"))
	assert.Equal(t, head+"\n", mustRun(t, dir, "rev-parse", "v1-annotated^{commit}"))

	_, err := runCLI(t, dir, "tag", "-a", "v2")
	assert.Error(t, err, "annotated tags need a message")

	mustRun(t, dir, "tag", "-d", "v1")
	assert.Equal(t, "v1-annotated\n", mustRun(t, dir, "tag"))
}

func TestUpdateRefCompareAndSwap(t *testing.T) {
	dir := setupCLIRepo(t)
	first := commitFile(t, dir, "a.txt", "1\n", "one")
	second := commitFile(t, dir, "a.txt", "2\n", "two")
	zero := strings.Repeat("0", 40)

	mustRun(t, dir, "update-ref", "refs/heads/topic", first, zero)
	_, err := runCLI(t, dir, "update-ref", "refs/heads/topic", second, zero)
	assert.Error(t, err, "a zero old value requires the ref to be absent")

	_, err = runCLI(t, dir, "update-ref", "refs/heads/topic", second, second)
	assert.Error(t, err, "stale expectation")
	assert.Equal(t, first+"\n", mustRun(t, dir, "rev-parse", "topic"))

	mustRun(t, dir, "update-ref", "refs/heads/topic", second, first)
	assert.Equal(t, second+"\n", mustRun(t, dir, "rev-parse", "topic"))

	mustRun(t, dir, "update-ref", "refs/heads/topic", "HEAD~1")
	assert.Equal(t, first+"\n", mustRun(t, dir, "rev-parse", "topic"))

	mustRun(t, dir, "update-ref", "-d", "refs/heads/topic")
	_, err = runCLI(t, dir, "rev-parse", "topic")
	assert.Error(t, err)
}

func TestReflog(t *testing.T) {
	dir := setupCLIRepo(t)
	first := commitFile(t, dir, "a.txt", "1\n", "one")
	commitFile(t, dir, "a.txt", "2\n", "two")

	out := mustRun(t, dir, "reflog")
	assert.Contains(t, out, "HEAD@{0}")
	assert.Contains(t, out, "HEAD@{1}")
	assert.Contains(t, out, "commit (initial): one")

	assert.Contains(t, mustRun(t, dir, "reflog", "main"), "main@{1}")
	assert.Equal(t, first+"\n", mustRun(t, dir, "rev-parse", "main@{1}"))

	mustRun(t, dir, "branch", "empty-log")
	assert.Contains(t, mustRun(t, dir, "reflog", "empty-log"), "empty-log@{0}")
}

func TestGCRemovesUnreachableObjects(t *testing.T) {
	dir := setupCLIRepo(t)
	commitFile(t, dir, "a.txt", "kept\n", "one")

	writeFile(t, dir, "loose.txt", "garbage\n")
	loose := strings.TrimSpace(mustRun(t, dir, "hash-object", "-w", "loose.txt"))

	out := mustRun(t, dir, "gc", "--dry-run", "--grace", "0")
	assert.Contains(t, out, "Dry run")
	assert.Contains(t, out, "Would remove")
	assert.Equal(t, "blob\n", mustRun(t, dir, "cat-file", "-t", loose))

	out = mustRun(t, dir, "gc")
	assert.Contains(t, out, "Within grace")
	assert.Equal(t, "blob\n", mustRun(t, dir, "cat-file", "-t", loose), "default grace keeps fresh objects")

	mustRun(t, dir, "gc", "--grace", "0")
	_, err := runCLI(t, dir, "cat-file", "-t", loose)
	assert.Error(t, err)
	assert.Equal(t, "commit\n", mustRun(t, dir, "cat-file", "-t", "HEAD"))

	_, err = runCLI(t, dir, "gc", "--grace=-1h")
	assert.Error(t, err)
}

func TestGCMetricsFlag(t *testing.T) {
	dir := setupCLIRepo(t)
	commitFile(t, dir, "a.txt", "kept\n", "one")
	writeFile(t, dir, "loose.txt", "garbage\n")
	mustRun(t, dir, "hash-object", "-w", "loose.txt")

	out := mustRun(t, dir, "gc", "--grace", "0", "--metrics")
	assert.Contains(t, out, "sourcevault_gc_objects_removed_total")
	assert.Contains(t, out, `sourcevault_gc_runs_total{outcome="ok"}`)
	assert.Contains(t, out, "sourcevault_gc_duration_seconds_count")

	out = mustRun(t, dir, "gc")
	assert.NotContains(t, out, "sourcevault_gc_runs_total")
}

func TestLogLevelFlags(t *testing.T) {
	dir := setupCLIRepo(t)

	_, err := runCLI(t, dir, "--log-level", "loud", "ls-files")
	assert.Error(t, err)
	_, err = runCLI(t, dir, "--log-format", "xml", "ls-files")
	assert.Error(t, err)

	mustRun(t, dir, "-v", "--log-format", "json", "ls-files")
	_, err = runCLI(t, dir, "-c", "novalue", "ls-files")
	assert.Error(t, err)
}

func TestAddDirectoryHonorsIgnoreFile(t *testing.T) {
	dir := setupCLIRepo(t)
	writeFile(t, dir, ".sourceignore", "*.log\nbuild/\n")
	writeFile(t, dir, "main.go", "package main\n")
	writeFile(t, dir, "debug.log", "noise\n")
	writeFile(t, dir, "build/out.bin", "binary\n")
	writeFile(t, dir, "pkg/lib.go", "package pkg\n")
	writeFile(t, dir, "pkg/trace.log", "noise\n")

	mustRun(t, dir, "add", ".")
	assert.Equal(t, ".sourceignore\nmain.go\npkg/lib.go\n", mustRun(t, dir, "ls-files"))

	mustRun(t, dir, "add", "debug.log")
	assert.Contains(t, mustRun(t, dir, "ls-files"), "debug.log\n", "explicit paths bypass ignore rules")
}
