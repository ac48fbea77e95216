package main

import (
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init --sub",
	Short: "create, fetch and check out every subrepo",
	Long: `Create the storage of every subrepo declared in the mapping file, fetch its
upstream branch and check it out. Subrepos whose working tree already has
files are not checked out again.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := current.engine()
		if err != nil {
			return err
		}
		return e.Init(cmd.Context())
	},
}
