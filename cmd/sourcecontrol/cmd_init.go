package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/utkarsh5026/sourcevault/cmd/ui"
	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
	"github.com/utkarsh5026/sourcevault/pkg/repository/sourcerepo"
)

func newInitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create an empty repository",
		Long: `Create an empty repository in the given directory, or the current one.

The digest algorithm and object backend are fixed at init time and
recorded in .source/config.json.`,
		Example: `  srcc init
  srcc init my-project
  srcc -c core.digest=sha256 -c core.objectbackend=bolt init`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.workDir()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if filepath.IsAbs(args[0]) {
					dir = args[0]
				} else {
					dir = filepath.Join(dir, args[0])
				}
			}
			root, err := scpath.NewRepositoryPath(dir)
			if err != nil {
				return err
			}

			opts, err := a.repoOptions()
			if err != nil {
				return err
			}
			repo, err := sourcerepo.Init(ctxOf(cmd), root, opts...)
			if err != nil {
				return err
			}
			defer repo.Close()

			branch, _ := repo.Branches().CurrentBranch()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.SuccessMessage("Initialized empty repository in", repo.SourceDir().String()))
			fmt.Fprintf(out, "  digest: %s  branch: %s\n", repo.Objects().Algorithm().Name(), branch)
			return nil
		},
	}
	return cmd
}
