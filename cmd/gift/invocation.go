package main

import (
	"context"
	"os"
	"path/filepath"

	"emperror.dev/errors"
	"github.com/aviator-co/gift/internal/config"
	"github.com/aviator-co/gift/internal/git"
	"github.com/aviator-co/gift/internal/gitopt"
	"github.com/aviator-co/gift/internal/mapping"
	"github.com/aviator-co/gift/internal/subrepo"
	"github.com/sirupsen/logrus"
)

// invocation is what gift knows about the environment it was started in.
type invocation struct {
	parsed *gitopt.Parsed
	// command is the git executable and its leading arguments.
	command []string
	// cwd is the directory git starts in, after applying -C.
	cwd string
	// loc is the repository around cwd, or nil if there is none.
	loc    *git.Location
	layout mapping.Layout
}

// newInvocation discovers the repository and loads the configuration. Not
// being inside a repository is not an error. parsed may be nil if the
// global options could not be parsed.
func newInvocation(ctx context.Context, parsed *gitopt.Parsed) (*invocation, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "failed to determine the working directory")
	}
	if parsed == nil {
		parsed = &gitopt.Parsed{}
	}
	inv := &invocation{
		parsed: parsed,
		cwd:    parsed.Opts.StartDir(wd),
	}
	// git reports resolved paths; compare like with like.
	if real, err := filepath.EvalSymlinks(inv.cwd); err == nil {
		inv.cwd = real
	}
	// The config may name a different git executable, but we need git to
	// find the repository-local config first.
	config.LoadEnv()
	if inv.command, err = config.GitCommand(); err != nil {
		return nil, err
	}
	inv.discover(ctx)

	var configDirs []string
	if inv.loc != nil {
		configDirs = append(configDirs, mapping.DefaultLayout().ConfigDir(inv.loc.GitDir))
	}
	// Note: this only returns an error if config exists and it can't be
	// read/parsed. It doesn't return an error if no config file exists.
	didLoadConfig, err := config.Load(configDirs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	if config.Gift.Debug {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.WithField("gift_version", config.Version).Debug("enabled debug logging")
	}
	if didLoadConfig {
		logrus.Debug("loaded configuration")
	} else {
		logrus.Debug("no configuration found")
	}
	if inv.command, err = config.GitCommand(); err != nil {
		return nil, err
	}
	inv.layout = layoutFromConfig()
	return inv, nil
}

func (inv *invocation) discover(ctx context.Context) {
	loc, err := git.Discover(ctx, git.DiscoverOpts{
		Dir:        inv.cwd,
		GlobalArgs: append(inv.parsed.Opts.LocationArgs(), inv.parsed.Opts.ConfigArgs()...),
		Command:    inv.command,
	})
	if err != nil {
		// If we weren't able to find the Git repo, that probably just means the
		// command isn't being run from inside a repo.
		logrus.WithError(err).Debug("unable to find a git repository")
		inv.loc = nil
		return
	}
	logrus.WithFields(logrus.Fields{
		"git_dir":   loc.GitDir,
		"work_tree": loc.WorkTree,
	}).Debug("found git repository")
	inv.loc = loc
}

func layoutFromConfig() mapping.Layout {
	s := config.Gift.Subrepo
	return mapping.Layout{
		Namespace:     s.Namespace,
		Remote:        s.Remote,
		DefaultBranch: s.DefaultBranch,
		MappingFile:   s.MappingFile,
		LedgerFile:    s.LedgerFile,
		TrackingRef:   s.TrackingRef,
	}
}

// requireWorkTree fails unless gift runs in a working tree of a parent.
func (inv *invocation) requireWorkTree() error {
	if inv.loc == nil {
		return &subrepo.PreconditionError{
			Msg:  "not a git repository (or any of the parent directories): " + inv.cwd,
			Hint: "gift clone --sub <url> <path>",
		}
	}
	if inv.loc.InsideGitDir || inv.loc.WorkTree == "" {
		return &subrepo.PreconditionError{Msg: "--sub can not be used in git-dir:" + inv.loc.GitDir}
	}
	return nil
}

func (inv *invocation) parent() mapping.Parent {
	return mapping.Parent{GitDir: inv.loc.GitDir, WorkTree: inv.loc.WorkTree}
}

// engine opens the subrepo engine for the parent. Status lines go to
// stderr.
func (inv *invocation) engine() (*subrepo.Engine, error) {
	return subrepo.New(subrepo.Opts{
		Parent:     inv.parent(),
		Layout:     inv.layout,
		Command:    inv.command,
		GlobalArgs: inv.parsed.Opts.ConfigArgs(),
		Progress:   os.Stderr,
	})
}
