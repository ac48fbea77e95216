package main

import (
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch --sub",
	Short: "fetch the upstream branch of every subrepo",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := current.engine()
		if err != nil {
			return err
		}
		return e.Fetch(cmd.Context())
	},
}
