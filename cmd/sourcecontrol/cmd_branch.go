package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/utkarsh5026/sourcevault/cmd/ui"
	"github.com/utkarsh5026/sourcevault/pkg/refs/branch"
)

func newBranchCmd(a *app) *cobra.Command {
	var del, forceDelete, force bool
	var rename string

	cmd := &cobra.Command{
		Use:   "branch [name [start-point]]",
		Short: "List, create, rename or delete branches",
		Example: `  srcc branch
  srcc branch feature
  srcc branch hotfix v1.0
  srcc branch -d feature
  srcc branch -m old-name new-name`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.openRepo(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			ctx := ctxOf(cmd)
			branches := repo.Branches()
			out := cmd.OutOrStdout()

			switch {
			case del || forceDelete:
				if len(args) != 1 {
					return fmt.Errorf("branch -d takes exactly one branch name")
				}
				var opts []branch.DeleteOption
				if forceDelete {
					opts = append(opts, branch.WithForceDelete())
				}
				if err := branches.DeleteBranch(ctx, args[0], opts...); err != nil {
					if branch.IsNotMerged(err) {
						return fmt.Errorf("%w (use -D to delete it anyway)", err)
					}
					return err
				}
				fmt.Fprintln(out, ui.SuccessMessage("Deleted branch", args[0]))
				return nil

			case rename != "":
				if len(args) != 1 {
					return fmt.Errorf("branch -m takes the new name as its argument")
				}
				var opts []branch.RenameOption
				if force {
					opts = append(opts, branch.WithForceRename())
				}
				if err := branches.RenameBranch(ctx, rename, args[0], opts...); err != nil {
					return err
				}
				fmt.Fprintln(out, ui.SuccessMessage("Renamed branch", rename, "->", args[0]))
				return nil

			case len(args) > 0:
				var opts []branch.CreateOption
				if len(args) == 2 {
					opts = append(opts, branch.WithStartPoint(args[1]))
				}
				if force {
					opts = append(opts, branch.WithForceCreate())
				}
				info, err := branches.CreateBranch(ctx, args[0], opts...)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, ui.SuccessMessage("Created branch", info.Name, "at", info.Hash.Short().String()))
				return nil
			}

			list, err := branches.ListBranches(ctx)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(out, ui.WarningMessage("No branches yet"))
				return nil
			}
			table := ui.NewTable(out, "", "Branch", "Commit", "Subject")
			for _, b := range list {
				marker := ""
				if b.IsCurrentBranch {
					marker = "*"
				}
				if err := table.Row(marker, b.Name, b.Hash.Short().String(), b.LastCommitSubject); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}

	cmd.Flags().BoolVarP(&del, "delete", "d", false, "Delete a branch merged into HEAD")
	cmd.Flags().BoolVarP(&forceDelete, "force-delete", "D", false, "Delete a branch even if unmerged")
	cmd.Flags().StringVarP(&rename, "move", "m", "", "Rename the given branch to the argument")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing branch")
	return cmd
}

func newTagCmd(a *app) *cobra.Command {
	var annotate, del, force bool
	var message string

	cmd := &cobra.Command{
		Use:   "tag [name [target]]",
		Short: "List, create or delete tags",
		Example: `  srcc tag
  srcc tag v1.0
  srcc tag -a -m "First release" v1.0 main
  srcc tag -d v1.0`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.openRepo(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			branches := repo.Branches()
			out := cmd.OutOrStdout()

			if del {
				if len(args) != 1 {
					return fmt.Errorf("tag -d takes exactly one tag name")
				}
				if err := branches.DeleteTag(args[0]); err != nil {
					return err
				}
				fmt.Fprintln(out, ui.SuccessMessage("Deleted tag", args[0]))
				return nil
			}

			if len(args) > 0 {
				var opts []branch.TagOption
				if len(args) == 2 {
					opts = append(opts, branch.WithTarget(args[1]))
				}
				if annotate || message != "" {
					if message == "" {
						return fmt.Errorf("annotated tags need a message (-m)")
					}
					opts = append(opts, branch.WithMessage(message))
				}
				if force {
					opts = append(opts, branch.WithForceTag())
				}
				info, err := branches.CreateTag(ctxOf(cmd), args[0], opts...)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, ui.TagInfo(info.Name, info.Target.Short().String()))
				return nil
			}

			tags, err := branches.ListTags()
			if err != nil {
				return err
			}
			for _, t := range tags {
				fmt.Fprintln(out, t.Name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&annotate, "annotate", "a", false, "Create an annotated tag object")
	cmd.Flags().StringVarP(&message, "message", "m", "", "Tag message (implies -a)")
	cmd.Flags().BoolVarP(&del, "delete", "d", false, "Delete a tag")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Replace an existing tag")
	return cmd
}

func newSwitchCmd(a *app) *cobra.Command {
	var create bool

	cmd := &cobra.Command{
		Use:   "switch <branch>",
		Short: "Attach HEAD to a branch",
		Long: `Attach HEAD to a branch. Only HEAD moves; the index and working
directory are left as they are.`,
		Example: `  srcc switch main
  srcc switch -c feature`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.openRepo(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			ctx := ctxOf(cmd)
			if create {
				if _, err := repo.Branches().CreateBranch(ctx, args[0], branch.WithSwitch()); err != nil {
					return err
				}
			} else if err := repo.Branches().Switch(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.BranchInfo(args[0]))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&create, "create", "c", false, "Create the branch at HEAD first")
	return cmd
}

func newCheckoutCmd(a *app) *cobra.Command {
	var detach bool

	cmd := &cobra.Command{
		Use:   "checkout [--detach] <revision>",
		Short: "Move HEAD to a branch or detach it at a commit",
		Example: `  srcc checkout main
  srcc checkout --detach HEAD~2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.openRepo(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			ctx := ctxOf(cmd)
			out := cmd.OutOrStdout()
			if !detach {
				exists, err := repo.Branches().BranchExists(args[0])
				if err == nil && exists {
					if err := repo.Branches().Switch(ctx, args[0]); err != nil {
						return err
					}
					fmt.Fprintln(out, ui.BranchInfo(args[0]))
					return nil
				}
			}

			hash, err := repo.Branches().Detach(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, ui.DetachedInfo(hash.Short().String()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&detach, "detach", false, "Detach HEAD even when the revision names a branch")
	return cmd
}
