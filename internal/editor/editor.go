// Package editor lets the user edit a message in their editor, the way git
// does for commit messages.
package editor

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"emperror.dev/errors"
	"github.com/aviator-co/gift/internal/git"
	"github.com/aviator-co/gift/internal/utils/stringutils"
	"github.com/kballard/go-shellquote"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// The text to be edited.
	Text string
	// The file pattern to use when creating the temporary file for the editor.
	TmpFilePattern string
	// Lines starting with CommentPrefix are dropped from the result.
	CommentPrefix string
	// The editor command to be used. If empty, git's editor is used.
	Command string
}

// CommandNoOp is a special command that indicates that no editor should be
// launched and the text should be returned as-is, like git's GIT_EDITOR=:.
const CommandNoOp = ":"

// Launch opens the editor on config.Text and returns the edited text with
// comment lines removed.
func Launch(ctx context.Context, repo *git.Repo, config Config) (string, error) {
	if config.Command == "" {
		config.Command = DefaultCommand(ctx, repo)
	}
	if config.TmpFilePattern == "" {
		config.TmpFilePattern = "gift-message-*"
	}
	if config.Command == CommandNoOp {
		return strip(config.Text, config.CommentPrefix), nil
	}

	tmp, err := os.CreateTemp("", config.TmpFilePattern)
	if err != nil {
		return "", errors.Wrap(err, "failed to create the message file")
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil {
			logrus.WithError(err).Warn("failed to remove temporary file")
		}
	}()
	if _, err := tmp.WriteString(config.Text); err != nil {
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	// Editor commands use shell syntax, e.g. EDITOR="code --wait" or
	// EDITOR="'/path/with spaces/editor'".
	args, err := shellquote.Split(config.Command)
	if err != nil {
		return "", errors.Wrapf(err, "invalid editor command: %q", config.Command)
	}
	if len(args) == 0 {
		return "", errors.Errorf("invalid editor command: %q", config.Command)
	}
	args = append(args, tmp.Name())
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	logrus.WithField("cmd", cmd.String()).Debug("launching editor")
	if err := cmd.Run(); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"cmd": cmd.String(),
			"out": stderr.String(),
		}).Warn("editor exited with error")
		return "", errors.WrapIf(err, "there was a problem with the editor")
	}

	data, err := os.ReadFile(tmp.Name())
	if err != nil {
		return "", err
	}
	return strip(string(data), config.CommentPrefix), nil
}

// DefaultCommand returns the editor git would use.
func DefaultCommand(ctx context.Context, repo *git.Repo) string {
	if repo != nil {
		editor, err := repo.Git(ctx, "var", "GIT_EDITOR")
		if err == nil {
			return editor
		}
		logrus.WithError(err).Warn("failed to determine desired editor from git config")
	}
	// This is the default hard-coded into git
	return "vi"
}

func strip(text, commentPrefix string) string {
	if commentPrefix != "" {
		text = stringutils.RemoveLines(text, commentPrefix)
	}
	return strings.TrimSpace(text) + "\n"
}
