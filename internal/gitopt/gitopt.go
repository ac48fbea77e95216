// Package gitopt recognizes the global options of git (the options that
// come before the command, as in "git -C dir -c k=v log").
//
// Parsing is informative only: gift always forwards the original arguments
// to git verbatim and only uses the parsed options to find out where the
// repository is and which command is being run.
package gitopt

import (
	"io"
	"path/filepath"
	"strings"

	"emperror.dev/errors"
	"github.com/spf13/pflag"
)

// Opts are the global options that change how (or where) git runs a
// command. Pointers are nil when the option was not given.
type Opts struct {
	Bare bool `yaml:"bare"`
	// ConfKV holds every "-c <key>=<value>", in order.
	ConfKV []string `yaml:"confkv"`
	// ConfigEnv holds every "--config-env=<key>=<envvar>", in order.
	ConfigEnv        []string `yaml:"config_env"`
	ExecPath         *string  `yaml:"exec_path"`
	GitDir           *string  `yaml:"git_dir"`
	Namespace        *string  `yaml:"namespace"`
	NoReplaceObjects bool     `yaml:"no_replace_objects"`
	// Paging is true for -p/--paginate and false for -P/--no-pager. The
	// last one given wins.
	Paging *bool `yaml:"paging"`
	// StartPath holds every "-C <path>", in order. Later relative paths
	// are interpreted relative to the earlier ones.
	StartPath   []string `yaml:"startpath"`
	SuperPrefix *string  `yaml:"super_prefix"`
	WorkTree    *string  `yaml:"work_tree"`

	LiteralPathspecs bool `yaml:"literal_pathspecs"`
	GlobPathspecs    bool `yaml:"glob_pathspecs"`
	NoglobPathspecs  bool `yaml:"noglob_pathspecs"`
	IcasePathspecs   bool `yaml:"icase_pathspecs"`
	NoOptionalLocks  bool `yaml:"no_optional_locks"`
}

// Informative are the options that make git print something and exit
// without running a command.
type Informative struct {
	Version  bool    `yaml:"version,omitempty"`
	Help     bool    `yaml:"help,omitempty"`
	ExecPath bool    `yaml:"exec_path,omitempty"`
	HTMLPath bool    `yaml:"html_path,omitempty"`
	ManPath  bool    `yaml:"man_path,omitempty"`
	InfoPath bool    `yaml:"info_path,omitempty"`
	ListCmds *string `yaml:"list_cmds,omitempty"`
}

// Any reports whether any informative option was given.
func (i Informative) Any() bool {
	return i.Version || i.Help || i.ExecPath || i.HTMLPath || i.ManPath || i.InfoPath || i.ListCmds != nil
}

type Parsed struct {
	Opts        Opts
	Informative Informative
	// Global is the prefix of the arguments that was recognized as global
	// options, as given.
	Global []string
	// Command is the git command ("log", "commit", ...), or "" if there is
	// none.
	Command string
	// Args are the arguments after Command.
	Args []string
}

// execPathQuery is the value --exec-path takes when given without "=<path>".
const execPathQuery = "\x00print"

// Parse splits args (without the program name) into global options, the
// command and its arguments. It returns an error for unknown global
// options or missing option values; callers should forward such arguments
// to git unchanged and let git report the problem.
func Parse(args []string) (*Parsed, error) {
	p := &Parsed{}
	fs := pflag.NewFlagSet("git", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	o := &p.Opts
	fs.StringArrayVarP(&o.StartPath, "start-path", "C", nil, "run as if git was started in <path>")
	fs.StringArrayVarP(&o.ConfKV, "config", "c", nil, "pass a configuration parameter")
	fs.StringArrayVar(&o.ConfigEnv, "config-env", nil, "pass a configuration parameter from the environment")
	fs.Var(&optionalString{dst: &o.GitDir}, "git-dir", "set the path to the repository")
	fs.Var(&optionalString{dst: &o.WorkTree}, "work-tree", "set the path to the working tree")
	fs.Var(&optionalString{dst: &o.Namespace}, "namespace", "set the git namespace")
	fs.Var(&optionalString{dst: &o.SuperPrefix}, "super-prefix", "set a prefix for paths")
	fs.BoolVar(&o.Bare, "bare", false, "treat the repository as a bare repository")
	fs.BoolVar(&o.NoReplaceObjects, "no-replace-objects", false, "do not use replacement refs")
	fs.BoolVar(&o.LiteralPathspecs, "literal-pathspecs", false, "treat pathspecs literally")
	fs.BoolVar(&o.GlobPathspecs, "glob-pathspecs", false, "treat pathspecs as globs")
	fs.BoolVar(&o.NoglobPathspecs, "noglob-pathspecs", false, "treat pathspecs literally")
	fs.BoolVar(&o.IcasePathspecs, "icase-pathspecs", false, "match pathspecs case-insensitively")
	fs.BoolVar(&o.NoOptionalLocks, "no-optional-locks", false, "do not perform optional operations that require locks")

	paginate := fs.VarPF(&pagingValue{dst: &o.Paging, on: true}, "paginate", "p", "pipe output into a pager")
	paginate.NoOptDefVal = "true"
	noPager := fs.VarPF(&pagingValue{dst: &o.Paging, on: false}, "no-pager", "P", "do not pipe output into a pager")
	noPager.NoOptDefVal = "true"

	inf := &p.Informative
	execPath := fs.VarPF(&execPathValue{dst: &o.ExecPath, query: &inf.ExecPath}, "exec-path", "", "path to git's core programs")
	execPath.NoOptDefVal = execPathQuery
	fs.BoolVarP(&inf.Version, "version", "v", false, "print the git version")
	fs.BoolVarP(&inf.Help, "help", "h", false, "print help")
	fs.BoolVar(&inf.HTMLPath, "html-path", false, "print the path of the HTML documentation")
	fs.BoolVar(&inf.ManPath, "man-path", false, "print the manpath")
	fs.BoolVar(&inf.InfoPath, "info-path", false, "print the path of the info files")
	fs.Var(&optionalString{dst: &inf.ListCmds}, "list-cmds", "list commands by group")

	if err := fs.Parse(args); err != nil {
		return nil, errors.WrapIf(err, "failed to parse git options")
	}
	rest := fs.Args()
	p.Global = args[:len(args)-len(rest)]
	if len(rest) > 0 {
		p.Command = rest[0]
		p.Args = rest[1:]
	}
	return p, nil
}

// ConfigArgs returns the -c and --config-env options, ready to be placed in
// front of any git command. These are the options that must reach every
// repository gift operates on (e.g., user.name), unlike -C or --git-dir
// which only locate the parent.
func (o Opts) ConfigArgs() []string {
	var args []string
	for _, kv := range o.ConfKV {
		args = append(args, "-c", kv)
	}
	for _, kv := range o.ConfigEnv {
		args = append(args, "--config-env="+kv)
	}
	return args
}

// StartDir applies the -C options to base, the way git does: each path is
// relative to the previous one and empty paths are ignored.
func (o Opts) StartDir(base string) string {
	dir := base
	for _, p := range o.StartPath {
		if p == "" {
			continue
		}
		if filepath.IsAbs(p) {
			dir = p
		} else {
			dir = filepath.Join(dir, p)
		}
	}
	return filepath.Clean(dir)
}

// LocationArgs returns the options other than -C that change where git
// looks for the repository, in a canonical order. Relative paths in them
// are relative to StartDir.
func (o Opts) LocationArgs() []string {
	var args []string
	if o.GitDir != nil {
		args = append(args, "--git-dir="+*o.GitDir)
	}
	if o.WorkTree != nil {
		args = append(args, "--work-tree="+*o.WorkTree)
	}
	if o.Bare {
		args = append(args, "--bare")
	}
	return args
}

// HasSub reports whether "--sub" is among args. Arguments after "--" are
// paths and never count.
func HasSub(args []string) bool {
	for _, a := range args {
		if a == "--" {
			return false
		}
		if a == "--sub" {
			return true
		}
	}
	return false
}

// WithoutSub returns args with every "--sub" before "--" removed.
func WithoutSub(args []string) []string {
	out := make([]string, 0, len(args))
	for i, a := range args {
		if a == "--" {
			return append(out, args[i:]...)
		}
		if a != "--sub" {
			out = append(out, a)
		}
	}
	return out
}

type optionalString struct {
	dst **string
}

func (v *optionalString) Set(s string) error {
	*v.dst = &s
	return nil
}

func (v *optionalString) String() string {
	if v.dst == nil || *v.dst == nil {
		return ""
	}
	return **v.dst
}

func (v *optionalString) Type() string {
	return "string"
}

type pagingValue struct {
	dst **bool
	on  bool
}

func (v *pagingValue) Set(s string) error {
	if strings.ToLower(s) != "true" {
		return errors.Errorf("unexpected value %q", s)
	}
	on := v.on
	*v.dst = &on
	return nil
}

func (v *pagingValue) String() string {
	return "false"
}

func (v *pagingValue) Type() string {
	return "bool"
}

type execPathValue struct {
	dst   **string
	query *bool
}

func (v *execPathValue) Set(s string) error {
	if s == execPathQuery {
		*v.query = true
		return nil
	}
	*v.dst = &s
	return nil
}

func (v *execPathValue) String() string {
	if v.dst == nil || *v.dst == nil {
		return ""
	}
	return **v.dst
}

func (v *execPathValue) Type() string {
	return "string"
}
