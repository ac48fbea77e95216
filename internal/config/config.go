package config

import (
	"os"
	"path/filepath"
	"strings"

	"emperror.dev/errors"
	"github.com/adrg/xdg"
	"github.com/google/shlex"
	"github.com/spf13/viper"
)

type Git struct {
	// Command is the underlying git executable, optionally with leading
	// arguments (e.g., "git --no-optional-locks"). It is split like a shell
	// would split it.
	Command string
}

type Subrepo struct {
	// Namespace names gift's directory inside the parent's git dir and its
	// ref namespace.
	Namespace string
	// Remote is the name of the upstream remote inside each child.
	Remote string
	// DefaultBranch is used when a mapping does not name a branch.
	DefaultBranch string
	// MappingFile and LedgerFile are relative to the parent working tree.
	MappingFile string
	LedgerFile  string
	// TrackingRef is the ref inside each child that mirrors the commit
	// recorded for it in the parent.
	TrackingRef string
}

var Gift = struct {
	Debug   bool
	Git     Git
	Subrepo Subrepo
}{
	Git: Git{
		Command: "git",
	},
	Subrepo: Subrepo{
		Namespace:     "gift",
		Remote:        "origin",
		DefaultBranch: "master",
		MappingFile:   ".gift",
		LedgerFile:    ".gift-refs",
		TrackingRef:   "refs/remotes/super/head",
	},
}

// Load initializes the configuration values.
// It may optionally be called with a list of additional paths to check for the
// config file.
// Returns a boolean indicating whether or not a config file was loaded and an
// error if one occurred.
func Load(paths []string) (bool, error) {
	loaded, err := loadFromFile(paths)
	LoadEnv()
	return loaded, err
}

func loadFromFile(paths []string) (bool, error) {
	config := viper.New()

	// Viper has support for various formats, so it supports json, toml, yaml,
	// and more (https://github.com/spf13/viper#reading-config-files).
	config.SetConfigName("config")

	config.AddConfigPath(filepath.Join(xdg.ConfigHome, "gift"))
	config.AddConfigPath("$HOME/.gift")
	config.AddConfigPath("$GIFT_HOME")
	// Repository-specific configuration (e.g., $REPO/.git/gift/config.yaml).
	for _, path := range paths {
		config.AddConfigPath(path)
	}

	if err := config.ReadInConfig(); err != nil {
		if errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return false, nil
		}
		return false, err
	}

	if err := config.Unmarshal(&Gift); err != nil {
		return true, errors.Wrap(err, "failed to read gift configs")
	}

	return true, nil
}

// LoadEnv applies the GIFT_* environment variables, which take precedence over
// the config file.
func LoadEnv() {
	if cmd := os.Getenv("GIFT_GIT"); cmd != "" {
		Gift.Git.Command = cmd
	}
	switch strings.ToLower(os.Getenv("GIFT_DEBUG")) {
	case "true", "1", "yes", "y", "on":
		Gift.Debug = true
	}
}

// GitCommand returns the configured git executable split into arguments.
func GitCommand() ([]string, error) {
	args, err := shlex.Split(Gift.Git.Command)
	if err != nil {
		return nil, errors.WrapIff(err, "invalid git.command %q", Gift.Git.Command)
	}
	if len(args) == 0 {
		return []string{"git"}, nil
	}
	return args, nil
}
