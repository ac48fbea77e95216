package main

import (
	"context"
	"fmt"
	"io"

	"emperror.dev/errors"
	"github.com/aviator-co/gift/internal/dispatch"
	"github.com/aviator-co/gift/internal/gitopt"
	"github.com/aviator-co/gift/internal/subrepo"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type debugInfo struct {
	Opt             gitopt.Opts        `yaml:"opt"`
	InformativeCmds gitopt.Informative `yaml:"informative_cmds"`
	Cwd             string             `yaml:"evaluated cwd"`
	GitDir          *string            `yaml:"evaluated git_dir"`
	WorkTree        *string            `yaml:"evaluated working_dir"`
	Subrepos        []subrepo.State    `yaml:"subrepos,omitempty"`
	CwdSubrepo      *subrepo.State     `yaml:"cwd subrepo,omitempty"`
}

// debug prints what gift made of its arguments and environment.
func (inv *invocation) debug(ctx context.Context, w io.Writer) error {
	info := debugInfo{
		Opt:             inv.parsed.Opts,
		InformativeCmds: inv.parsed.Informative,
		Cwd:             inv.cwd,
	}
	if inv.loc != nil {
		info.GitDir = &inv.loc.GitDir
		if inv.loc.WorkTree != "" {
			info.WorkTree = &inv.loc.WorkTree
		}
	}
	if inv.inParentWorkTree() {
		if e, err := inv.engine(); err != nil {
			logrus.WithError(err).Warn("failed to read subrepos")
		} else {
			if info.Subrepos, err = e.States(ctx); err != nil {
				logrus.WithError(err).Warn("failed to read subrepo states")
			}
			if st, err := e.StateOf(ctx, inv.cwd); err != nil {
				logrus.WithError(err).Warn("failed to read the state of the current subrepo")
			} else if st.Kind != subrepo.Unconfigured {
				info.CwdSubrepo = &st
			}
		}
	}

	_, _ = fmt.Fprintln(w, dispatch.DebugCommand)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(info); err != nil {
		return errors.Wrap(err, "failed to encode debug info")
	}
	return enc.Close()
}
