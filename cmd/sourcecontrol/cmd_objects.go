package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/objects/tree"
)

func newHashObjectCmd(a *app) *cobra.Command {
	var write bool
	var kind string

	cmd := &cobra.Command{
		Use:   "hash-object [-w] [-t type] <file>",
		Short: "Compute an object digest and optionally store the object",
		Example: `  srcc hash-object README.md
  srcc hash-object -w README.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			objType, err := objects.ParseObjectType(kind)
			if err != nil {
				return err
			}
			repo, err := a.openRepo(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			base, err := a.workDir()
			if err != nil {
				return err
			}
			path := args[0]
			if !filepath.IsAbs(path) {
				path = filepath.Join(base, path)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			var hash objects.ObjectHash
			if write {
				if hash, err = repo.Objects().Put(objType, data); err != nil {
					return err
				}
			} else {
				hash = repo.Objects().Algorithm().HashObject(objType, data)
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Store the object in the object database")
	cmd.Flags().StringVarP(&kind, "type", "t", string(objects.BlobType), "Object type")
	return cmd
}

func newCatFileCmd(a *app) *cobra.Command {
	var showType, showSize, pretty bool

	cmd := &cobra.Command{
		Use:   "cat-file (-t | -s | -p) <revision>",
		Short: "Show the type, size or content of an object",
		Example: `  srcc cat-file -t HEAD
  srcc cat-file -p HEAD^{tree}
  srcc cat-file -s 3b18e512`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modes := 0
			for _, set := range []bool{showType, showSize, pretty} {
				if set {
					modes++
				}
			}
			if modes != 1 {
				return fmt.Errorf("exactly one of -t, -s or -p is required")
			}

			repo, err := a.openRepo(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			res, err := repo.Resolver().Resolve(ctxOf(cmd), args[0])
			if err != nil {
				return err
			}
			hash, ok := res.Hash()
			if !ok {
				return fmt.Errorf("%s names a set of commits, not one object", args[0])
			}
			kind, content, err := repo.Objects().Get(hash)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case showType:
				fmt.Fprintln(out, kind)
			case showSize:
				fmt.Fprintln(out, len(content))
			case kind == objects.TreeType:
				return printTree(out, content, repo.Objects().Algorithm())
			default:
				_, err = out.Write(content)
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showType, "type", "t", false, "Show the object type")
	cmd.Flags().BoolVarP(&showSize, "size", "s", false, "Show the payload size in bytes")
	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "Pretty-print the object")
	return cmd
}

// printTree writes one "mode type digest<TAB>name" line per entry.
func printTree(w io.Writer, content []byte, alg objects.Algorithm) error {
	t, err := tree.Parse(content, alg)
	if err != nil {
		return err
	}
	for _, e := range t.Entries() {
		fmt.Fprintf(w, "%s %s %s\t%s\n", e.Mode, e.Mode.ObjectType(), e.Hash, e.Name)
	}
	return nil
}
