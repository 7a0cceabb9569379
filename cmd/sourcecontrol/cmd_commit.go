package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/utkarsh5026/sourcevault/cmd/ui"
	"github.com/utkarsh5026/sourcevault/pkg/commitmanager"
	"github.com/utkarsh5026/sourcevault/pkg/graph"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/refs"
)

func newCommitCmd(a *app) *cobra.Command {
	var message string
	var amend, allowEmpty bool

	cmd := &cobra.Command{
		Use:   "commit -m <message>",
		Short: "Record the index as a new commit",
		Long: `Write the index as a tree, create a commit whose parent is HEAD and
move the current branch (or detached HEAD) to it.`,
		Example: `  srcc commit -m "Add parser"
  srcc commit --amend -m "Add parser and tests"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.openRepo(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			result, err := repo.Commits().CreateCommit(ctxOf(cmd), commitmanager.CommitOptions{
				Message:    message,
				Amend:      amend,
				AllowEmpty: allowEmpty,
			})
			if err != nil {
				return err
			}

			where := "detached HEAD"
			if result.Branch != "" {
				where = refs.ShortName(result.Branch)
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.SuccessMessage(
				fmt.Sprintf("[%s %s]", where, result.Hash.Short()), result.Commit.Subject()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Commit message")
	cmd.Flags().BoolVar(&amend, "amend", false, "Replace the tip of the current branch")
	cmd.Flags().BoolVar(&allowEmpty, "allow-empty", false, "Allow a commit that changes nothing")
	cmd.MarkFlagRequired("message")
	return cmd
}

func newLogCmd(a *app) *cobra.Command {
	var limit int
	var useTable bool

	cmd := &cobra.Command{
		Use:   "log [revision]",
		Short: "Show commit history",
		Long: `Show commits reachable from a revision (HEAD by default), newest
committer time first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.openRepo(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			var start objects.ObjectHash
			if len(args) == 1 {
				if start, err = repo.Resolver().ResolveCommit(ctxOf(cmd), args[0]); err != nil {
					return err
				}
			}
			history, err := repo.Commits().GetHistory(ctxOf(cmd), start, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(history) == 0 {
				fmt.Fprintln(out, ui.WarningMessage("No commits yet"))
				return nil
			}
			if useTable {
				return logTable(cmd, history)
			}
			for _, entry := range history {
				fmt.Fprintln(out, ui.FormatCommitDetailed(commitInfo(entry)))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Limit the number of commits to show (0 for all)")
	cmd.Flags().BoolVarP(&useTable, "table", "t", false, "Display commits in table format")
	return cmd
}

func logTable(cmd *cobra.Command, history []graph.LogEntry) error {
	table := ui.NewTable(cmd.OutOrStdout(), "Commit", "Author", "Date", "Message")
	for _, entry := range history {
		info := commitInfo(entry)
		if err := table.Row(entry.Hash.Short().String(), entry.Commit.Author.Name, info.Date, entry.Commit.Subject()); err != nil {
			return err
		}
	}
	return table.Render()
}

func commitInfo(entry graph.LogEntry) ui.CommitInfo {
	c := entry.Commit
	info := ui.CommitInfo{
		Hash:    entry.Hash.String(),
		Author:  fmt.Sprintf("%s <%s>", c.Author.Name, c.Author.Email),
		Date:    c.Committer.When.Format(time.RFC1123Z),
		Message: c.Message,
	}
	for _, p := range c.Parents {
		info.Parents = append(info.Parents, p.Short().String())
	}
	return info
}
