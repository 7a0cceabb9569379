package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/utkarsh5026/sourcevault/cmd/ui"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/objects/tree"
	"github.com/utkarsh5026/sourcevault/pkg/repository/ignore"
	"github.com/utkarsh5026/sourcevault/pkg/repository/sourcerepo"
)

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>...",
		Short: "Stage file contents in the index",
		Long: `Stage files in the index. Directories are staged recursively, skipping
paths excluded by .sourceignore at the repository root.`,
		Example: `  srcc add README.md
  srcc add src/main.go src/util.go
  srcc add .`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, base, err := a.openWithBase(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			paths, err := expandPaths(repo, base, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, path := range paths {
				if _, err := repo.Index().StageFile(path); err != nil {
					return err
				}
				fmt.Fprintln(out, ui.FormatChange(ui.ChangeStaged, path))
			}
			return nil
		},
	}
}

// expandPaths turns command-line paths into repository-relative files.
// Directories are walked and .sourceignore rules apply to what they
// contain; files named explicitly are always taken.
func expandPaths(repo *sourcerepo.Repository, base string, args []string) ([]string, error) {
	var matcher *ignore.Matcher
	var paths []string
	for _, arg := range args {
		abs := arg
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(base, arg)
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			path, err := relPath(repo, base, arg)
			if err != nil {
				return nil, err
			}
			paths = append(paths, path)
			continue
		}

		if matcher == nil {
			if matcher, err = ignore.Load(repo.Root()); err != nil {
				return nil, err
			}
		}
		files, err := matcher.Files(repo.Root(), abs)
		if err != nil {
			return nil, err
		}
		paths = append(paths, files...)
	}
	return paths, nil
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>...",
		Short: "Remove paths from the index",
		Long: `Remove paths from the index, conflict stages included. Files in the
working directory are left alone.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, base, err := a.openWithBase(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			out := cmd.OutOrStdout()
			for _, arg := range args {
				path, err := relPath(repo, base, arg)
				if err != nil {
					return err
				}
				removed, err := repo.Index().Remove(path)
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("pathspec %q did not match any staged path", path)
				}
				fmt.Fprintln(out, ui.FormatChange(ui.ChangeRemoved, path))
			}
			return nil
		},
	}
}

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <path>...",
		Short: "Reset index entries to their state in HEAD",
		Long: `Reset index entries to the version recorded in HEAD's tree. Paths that
HEAD does not contain are dropped from the index.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, base, err := a.openWithBase(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			root, err := headTree(repo)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, arg := range args {
				path, err := relPath(repo, base, arg)
				if err != nil {
					return err
				}
				entry, err := lookupPath(repo, root, path)
				if err != nil {
					return err
				}
				if entry == nil {
					if _, err := repo.Index().Remove(path); err != nil {
						return err
					}
					fmt.Fprintln(out, ui.FormatChange(ui.ChangeRemoved, path))
					continue
				}
				_, data, err := repo.Objects().Get(entry.Hash)
				if err != nil {
					return err
				}
				if _, err := repo.Index().Stage(path, entry.Mode, data); err != nil {
					return err
				}
				fmt.Fprintln(out, ui.FormatChange(ui.ChangeRestored, path))
			}
			return nil
		},
	}
}

func newLsFilesCmd(a *app) *cobra.Command {
	var stage bool

	cmd := &cobra.Command{
		Use:   "ls-files [--stage]",
		Short: "List index entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.openRepo(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			entries, err := repo.Index().Entries()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !stage {
				seen := make(map[string]bool, len(entries))
				for _, e := range entries {
					if !seen[e.Path] {
						seen[e.Path] = true
						fmt.Fprintln(out, e.Path)
					}
				}
				return nil
			}

			table := ui.NewTable(out, "Mode", "Object", "Stage", "Path")
			for _, e := range entries {
				if err := table.Row(e.Mode.String(), e.Hash.String(), fmt.Sprint(uint8(e.Stage)), e.Path); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}

	cmd.Flags().BoolVarP(&stage, "stage", "s", false, "Show mode, digest and stage of each entry")
	return cmd
}

func newWriteTreeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "write-tree",
		Short: "Write the index as tree objects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.openRepo(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			hash, err := repo.Commits().WriteTree(ctxOf(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func (a *app) openWithBase(cmd *cobra.Command) (*sourcerepo.Repository, string, error) {
	base, err := a.workDir()
	if err != nil {
		return nil, "", err
	}
	repo, err := a.openRepo(cmd)
	if err != nil {
		return nil, "", err
	}
	return repo, base, nil
}

// headTree returns HEAD's root tree, or "" when HEAD is unborn.
func headTree(repo *sourcerepo.Repository) (objects.ObjectHash, error) {
	head, err := repo.Refs().Head()
	if err != nil {
		return "", err
	}
	if head.Commit == "" {
		return "", nil
	}
	c, err := repo.Commits().GetCommit(head.Commit)
	if err != nil {
		return "", err
	}
	return c.Tree, nil
}

// lookupPath finds the non-directory entry for a slash path below root.
// A nil entry means the path is absent.
func lookupPath(repo *sourcerepo.Repository, root objects.ObjectHash, path string) (*tree.TreeEntry, error) {
	if root == "" {
		return nil, nil
	}
	current := root
	parts := strings.Split(path, "/")
	for i, name := range parts {
		_, content, err := repo.Objects().Get(current)
		if err != nil {
			return nil, err
		}
		t, err := tree.Parse(content, repo.Objects().Algorithm())
		if err != nil {
			return nil, err
		}
		entry, ok := t.Lookup(name)
		if !ok {
			return nil, nil
		}
		if i == len(parts)-1 {
			if entry.IsDirectory() {
				return nil, fmt.Errorf("%s is a directory in HEAD", path)
			}
			return entry, nil
		}
		if !entry.IsDirectory() {
			return nil, nil
		}
		current = entry.Hash
	}
	return nil, nil
}
