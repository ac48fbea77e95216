package git

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/aviator-co/gift/internal/utils/executils"
	"github.com/sirupsen/logrus"
)

// DefaultCommand is the underlying engine used when RepoOpts.Command is empty.
var DefaultCommand = []string{"git"}

type RepoOpts struct {
	// Name identifies the repository in log output (e.g., "super" or the
	// path of a subrepo).
	Name string
	// Dir is the working directory of every git invocation. Relative remote
	// URLs are resolved against it.
	Dir string
	// GitDir and WorkTree, if set, are exported as GIT_DIR and GIT_WORK_TREE
	// so that the repository is addressed independent of Dir.
	GitDir   string
	WorkTree string
	// GlobalArgs are placed before the git verb (e.g., "-c", "user.name=x").
	GlobalArgs []string
	// Command is the git executable and any leading arguments.
	Command []string
}

type Repo struct {
	dir        string
	gitDir     string
	workTree   string
	globalArgs []string
	command    []string
	log        logrus.FieldLogger
}

func OpenRepo(opts RepoOpts) *Repo {
	command := opts.Command
	if len(command) == 0 {
		command = DefaultCommand
	}
	name := opts.Name
	if name == "" {
		name = "super"
	}
	return &Repo{
		dir:        opts.Dir,
		gitDir:     opts.GitDir,
		workTree:   opts.WorkTree,
		globalArgs: opts.GlobalArgs,
		command:    command,
		log:        logrus.WithFields(logrus.Fields{"repo": name}),
	}
}

func (r *Repo) Dir() string {
	return r.dir
}

// Env returns the environment variables that address this repository.
func (r *Repo) Env() []string {
	var env []string
	if r.gitDir != "" {
		env = append(env, "GIT_DIR="+r.gitDir)
	}
	if r.workTree != "" {
		env = append(env, "GIT_WORK_TREE="+r.workTree)
	}
	return env
}

func (r *Repo) cmd(ctx context.Context, args []string, env []string) *exec.Cmd {
	full := make([]string, 0, len(r.command)+len(r.globalArgs)+len(args))
	full = append(full, r.command[1:]...)
	full = append(full, r.globalArgs...)
	full = append(full, args...)
	cmd := exec.CommandContext(ctx, r.command[0], full...)
	cmd.Dir = r.dir
	cmd.Env = append(os.Environ(), r.Env()...)
	cmd.Env = append(cmd.Env, env...)
	return cmd
}

// Git runs git with the given arguments and returns the trimmed standard
// output. A non-zero exit is returned as a *CommandError.
func (r *Repo) Git(ctx context.Context, args ...string) (string, error) {
	out, err := r.Run(ctx, &RunOpts{Args: args, ExitError: true})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out.Stdout)), nil
}

type RunOpts struct {
	Args  []string
	Env   []string
	Stdin io.Reader
	// If set, output is streamed here instead of being captured.
	Stdout io.Writer
	Stderr io.Writer
	// If true, return a non-nil error if the command exited with a non-zero
	// exit code.
	ExitError bool
}

type Output struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

func (o Output) Lines() []string {
	s := strings.TrimSpace(string(o.Stdout))
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func (r *Repo) Run(ctx context.Context, opts *RunOpts) (*Output, error) {
	startTime := time.Now()
	cmd := r.cmd(ctx, opts.Args, opts.Env)
	cmd.Stdin = opts.Stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if opts.Stdout != nil {
		cmd.Stdout = opts.Stdout
	}
	cmd.Stderr = &stderr
	if opts.Stderr != nil {
		cmd.Stderr = io.MultiWriter(opts.Stderr, &stderr)
	}
	err := cmd.Run()
	log := r.log.WithField("duration", time.Since(startTime))
	var exitError *exec.ExitError
	if err != nil && !errors.As(err, &exitError) {
		log.Debugf("git %s failed to start: %s", executils.FormatCommandLine(opts.Args), err)
		return nil, &CommandError{Args: opts.Args, ExitCode: -1, Err: err}
	}
	out := &Output{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
	}
	if out.ExitCode != 0 {
		log.Debugf("git %s exited %d: %s",
			executils.FormatCommandLine(opts.Args), out.ExitCode, strings.TrimSpace(stderr.String()))
		if opts.ExitError {
			return nil, &CommandError{
				Args:     opts.Args,
				ExitCode: out.ExitCode,
				Stderr:   stderr.String(),
			}
		}
		return out, nil
	}
	log.Debugf("git %s", executils.FormatCommandLine(opts.Args))
	return out, nil
}

// CurrentBranchName returns the name of the current branch.
// The name is return in "short" format -- i.e., without the "refs/heads/" prefix.
// It returns an empty string if the repository is in a detached-head state.
func (r *Repo) CurrentBranchName(ctx context.Context) (string, error) {
	out, err := r.Run(ctx, &RunOpts{Args: []string{"symbolic-ref", "--quiet", "--short", "HEAD"}})
	if err != nil {
		return "", err
	}
	if out.ExitCode != 0 {
		return "", nil
	}
	return strings.TrimSpace(string(out.Stdout)), nil
}

// SetSymbolicRef points name (usually HEAD) at target.
func (r *Repo) SetSymbolicRef(ctx context.Context, name, target string) error {
	_, err := r.Git(ctx, "symbolic-ref", name, target)
	return err
}

// Config reads a single config value. Unset keys return "" and no error.
func (r *Repo) Config(ctx context.Context, key string) (string, error) {
	out, err := r.Run(ctx, &RunOpts{Args: []string{"config", "--get", key}})
	if err != nil {
		return "", err
	}
	if out.ExitCode == 1 {
		return "", nil
	}
	if out.ExitCode != 0 {
		return "", &CommandError{Args: []string{"config", "--get", key}, ExitCode: out.ExitCode, Stderr: string(out.Stderr)}
	}
	return strings.TrimSpace(string(out.Stdout)), nil
}

func (r *Repo) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.Git(ctx, "config", key, value)
	return err
}
