package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/utkarsh5026/sourcevault/cmd/ui"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/refs"
	"github.com/utkarsh5026/sourcevault/pkg/repository/sourcerepo"
)

func newUpdateRefCmd(a *app) *cobra.Command {
	var del bool
	var reason string

	cmd := &cobra.Command{
		Use:   "update-ref <ref> <new> [<old>]",
		Short: "Move a reference with compare-and-swap",
		Long: `Move <ref> to <new>. When <old> is given the update only happens if the
ref currently holds <old>; an all-zero <old> requires the ref to be absent.
Without <old> the current value is read and used as the expectation.`,
		Example: `  srcc update-ref refs/heads/topic HEAD
  srcc update-ref refs/heads/topic HEAD~1 HEAD
  srcc update-ref -d refs/heads/topic`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.openRepo(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			name := args[0]
			if del {
				if len(args) != 1 {
					return fmt.Errorf("update-ref -d takes only the ref name")
				}
				return repo.Refs().Delete(name, reason)
			}
			if len(args) < 2 {
				return fmt.Errorf("update-ref needs a new value")
			}

			newHash, err := resolveOne(cmd, repo, args[1])
			if err != nil {
				return err
			}

			var expected objects.ObjectHash
			if len(args) == 3 {
				if !objects.ObjectHash(args[2]).IsZero() {
					if expected, err = resolveOne(cmd, repo, args[2]); err != nil {
						return err
					}
				}
			} else if expected, err = currentValue(repo, name); err != nil {
				return err
			}

			return repo.Refs().Update(name, newHash, expected, reason)
		},
	}

	cmd.Flags().BoolVarP(&del, "delete", "d", false, "Delete the reference")
	cmd.Flags().StringVarP(&reason, "message", "m", "update-ref", "Reason recorded in the movement log")
	return cmd
}

// currentValue reads the digest name holds now, "" if it does not exist.
func currentValue(repo *sourcerepo.Repository, name string) (objects.ObjectHash, error) {
	if name == refs.Head {
		head, err := repo.Refs().Head()
		return head.Commit, err
	}
	ref, err := repo.Refs().Read(name)
	if refs.IsNoSuchRef(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return ref.Target, nil
}

func resolveOne(cmd *cobra.Command, repo *sourcerepo.Repository, text string) (objects.ObjectHash, error) {
	res, err := repo.Resolver().Resolve(ctxOf(cmd), text)
	if err != nil {
		return "", err
	}
	hash, ok := res.Hash()
	if !ok {
		return "", fmt.Errorf("%s names a set of commits, not one object", text)
	}
	return hash, nil
}

func newRevParseCmd(a *app) *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "rev-parse <revision>...",
		Short: "Resolve revisions to object digests",
		Example: `  srcc rev-parse HEAD
  srcc rev-parse main~2 v1.0^{tree}
  srcc rev-parse HEAD@{1}`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.openRepo(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			out := cmd.OutOrStdout()
			for _, arg := range args {
				res, err := repo.Resolver().Resolve(ctxOf(cmd), arg)
				if err != nil {
					return err
				}
				for _, h := range res.Hashes() {
					if short {
						fmt.Fprintln(out, h.Short())
					} else {
						fmt.Fprintln(out, h)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "Print abbreviated digests")
	return cmd
}

func newRevListCmd(a *app) *cobra.Command {
	var maxCount int

	cmd := &cobra.Command{
		Use:   "rev-list <revision>...",
		Short: "List commits, newest first",
		Long: `List commits selected by the arguments, newest committer time first.
A single revision lists it and all its ancestors; ranges (A..B, A...B) and
exclusions (^A B) select sets.`,
		Example: `  srcc rev-list HEAD
  srcc rev-list main..feature
  srcc rev-list ^main feature topic`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.openRepo(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			text := strings.Join(args, " ")
			res, err := repo.Resolver().Resolve(ctxOf(cmd), text)
			if err != nil {
				return err
			}

			var hashes []objects.ObjectHash
			if res.IsSet() {
				hashes = res.Hashes()
			} else {
				start, _ := res.Hash()
				history, err := repo.Commits().GetHistory(ctxOf(cmd), start, 0)
				if err != nil {
					return err
				}
				for _, entry := range history {
					hashes = append(hashes, entry.Hash)
				}
			}

			if maxCount > 0 && len(hashes) > maxCount {
				hashes = hashes[:maxCount]
			}
			out := cmd.OutOrStdout()
			for _, h := range hashes {
				fmt.Fprintln(out, h)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&maxCount, "max-count", "n", 0, "Stop after this many commits")
	return cmd
}

func newReflogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reflog [ref]",
		Short: "Show the movement log of a reference",
		Long: `Show where a reference has pointed, newest first. Entry N is what
NAME@{N} resolves to.`,
		Example: `  srcc reflog
  srcc reflog main`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.openRepo(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			name := refs.Head
			if len(args) == 1 && args[0] != refs.Head {
				if name, err = repo.Refs().Expand(args[0]); err != nil {
					return err
				}
			}
			log, err := repo.Refs().LogOf(name)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if log.Len() == 0 {
				fmt.Fprintln(out, ui.WarningMessage("No movements recorded for "+name))
				return nil
			}

			table := ui.NewTable(out, "Entry", "Old", "New", "Actor", "Date", "Reason")
			short := refs.ShortName(name)
			for i, e := range log.All() {
				if err := table.Row(
					fmt.Sprintf("%s@{%d}", short, i),
					logHash(e.Old),
					logHash(e.New),
					e.Actor.Name,
					e.Actor.When.Format(time.DateTime),
					e.Reason,
				); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
}

func logHash(h objects.ObjectHash) string {
	if h.IsZero() {
		return "-"
	}
	return h.Short().String()
}
