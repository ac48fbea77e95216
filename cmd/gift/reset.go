package main

import (
	"github.com/aviator-co/gift/internal/subrepo"
	"github.com/spf13/cobra"
)

var resetFlags struct {
	Force bool
}

var resetCmd = &cobra.Command{
	Use:   "reset --sub [--force]",
	Short: "reset every subrepo to the commit recorded in HEAD",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := current.engine()
		if err != nil {
			return err
		}
		return e.Reset(cmd.Context(), subrepo.ResetOpts{Force: resetFlags.Force})
	},
}

func init() {
	resetCmd.Flags().BoolVar(
		&resetFlags.Force, "force", false,
		"discard uncommitted changes in subrepos",
	)
}
