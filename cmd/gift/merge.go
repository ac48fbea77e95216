package main

import (
	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge --sub",
	Short: "merge the fetched upstream branch into every subrepo",
	Long: `Merge the fetched upstream branch into the current branch of every subrepo.
The result is not recorded in the parent until "gift commit --sub".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := current.engine()
		if err != nil {
			return err
		}
		return e.Merge(cmd.Context())
	},
}
