package subrepo

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"emperror.dev/errors"
	"github.com/aviator-co/gift/internal/git"
	"github.com/aviator-co/gift/internal/mapping"
	"github.com/aviator-co/gift/internal/utils/cleanup"
	"github.com/sirupsen/logrus"
)

type CloneOpts struct {
	// Source is "<url>[@<branch>]".
	Source string
	// Path is where the subrepo goes, relative to the parent working tree.
	Path string
	// Message overrides the generated commit message.
	Message string
}

// Clone adds a new subrepo: it appends the mapping, initializes the subrepo
// and records it in a new parent commit. If any step fails, the mapping file
// is restored.
func (e *Engine) Clone(ctx context.Context, opts CloneOpts) (*CommitResult, error) {
	url, branch, err := mapping.SplitURL(opts.Source, e.opts.Layout.DefaultBranch)
	if err != nil {
		return nil, err
	}
	p, err := mapping.CleanPath(opts.Path)
	if err != nil {
		return nil, err
	}
	if _, ok := e.resolver.Mappings.Find(p); ok {
		return nil, preconditionf("", "%s is already a subrepo", p)
	}
	if m, ok := e.resolver.Mappings.Nested(p); ok {
		if strings.HasPrefix(p, m.Path+"/") {
			return nil, preconditionf("", "%s is inside subrepo %s", p, m.Path)
		}
		return nil, preconditionf("", "%s contains subrepo %s", p, m.Path)
	}
	m := mapping.Mapping{Path: p, URL: url, Branch: branch}

	mappingPath := filepath.Join(e.opts.Parent.WorkTree, filepath.FromSlash(e.opts.Layout.MappingFile))
	oldData, err := os.ReadFile(mappingPath)
	existed := err == nil
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.WrapIff(err, "failed to read %s", mappingPath)
	}

	if err := e.mappings.Append(m); err != nil {
		return nil, err
	}
	data, err := e.mappings.Marshal()
	if err != nil {
		return nil, err
	}

	cu := cleanup.New(logrus.WithField("subrepo", p))
	defer cu.Cleanup(ctx)
	cu.Add("restore the mapping file", func(ctx context.Context) error {
		return e.restoreMappingFile(ctx, mappingPath, oldData, existed)
	})
	if err := os.WriteFile(mappingPath, data, 0644); err != nil {
		return nil, errors.WrapIff(err, "failed to write %s", mappingPath)
	}
	if err := e.parent.Add(ctx, git.AddOpts{Paths: []string{e.opts.Layout.MappingFile}}); err != nil {
		return nil, err
	}
	e.resolver.Mappings = e.mappings.Mappings

	sb := e.resolver.Subrepo(m)
	led, err := e.committedLedger(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.initOne(ctx, sb, led); err != nil {
		return nil, errors.WrapIff(err, "failed to init subrepo %s", sb.Path)
	}
	res, err := e.commit(ctx, []*mapping.Subrepo{sb}, CommitOpts{Message: opts.Message})
	if err != nil {
		return nil, err
	}
	cu.Cancel()
	return res, nil
}

func (e *Engine) restoreMappingFile(ctx context.Context, path string, data []byte, existed bool) error {
	if existed {
		if err := os.WriteFile(path, data, 0644); err != nil {
			return errors.WrapIff(err, "failed to write %s", path)
		}
		return e.parent.Add(ctx, git.AddOpts{Paths: []string{e.opts.Layout.MappingFile}})
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.WrapIff(err, "failed to remove %s", path)
	}
	return e.parent.RemoveFromIndex(ctx, e.opts.Layout.MappingFile)
}
