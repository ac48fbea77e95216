package main

import (
	"context"
	"strings"

	"github.com/aviator-co/gift/internal/editor"
	"github.com/aviator-co/gift/internal/subrepo"
	"github.com/spf13/cobra"
)

var commitFlags struct {
	// The commit message.
	Message string
	// Open the editor on the message before committing.
	Edit bool
}

var commitCmd = &cobra.Command{
	Use:   "commit --sub [-m <msg>] [-e]",
	Short: "record the HEAD of every subrepo in a new commit",
	Long: `Record the HEAD of every subrepo in a new parent commit. The commit contains
whatever is staged in the parent, the tree of every subrepo at its path and
the updated ledger. Nothing is committed if every subrepo is already
recorded.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := current.engine()
		if err != nil {
			return err
		}
		opts := subrepo.CommitOpts{Message: commitFlags.Message}
		if commitFlags.Edit {
			opts.Edit = func(ctx context.Context, msg string) (string, error) {
				return editor.Launch(ctx, e.Parent(), editor.Config{
					Text:          strings.TrimRight(msg, "\n") + "\n" + commitTemplate,
					CommentPrefix: "#",
				})
			}
		}
		_, err = e.Commit(cmd.Context(), opts)
		return err
	},
}

const commitTemplate = `
# Please enter the commit message for the recorded subrepos. Lines starting
# with '#' will be ignored, and an empty message aborts the commit.
`

func init() {
	commitCmd.Flags().
		StringVarP(&commitFlags.Message, "message", "m", "", "the commit message")
	commitCmd.Flags().
		BoolVarP(&commitFlags.Edit, "edit", "e", false, "edit the commit message")
}
