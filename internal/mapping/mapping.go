package mapping

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"emperror.dev/errors"
	giturls "github.com/chainguard-dev/git-urls"
)

// Mapping declares that the child repository at Path (relative to the parent
// working tree, slash-separated) tracks Branch of the repository at URL.
type Mapping struct {
	Path   string
	URL    string
	Branch string
}

// Value is the mapping's serialized right-hand side (<url>@<branch>).
func (m Mapping) Value() string {
	return m.URL + "@" + m.Branch
}

func (m Mapping) String() string {
	return fmt.Sprintf("%s: %s", m.Path, m.Value())
}

// Mappings is an ordered set of mappings, unique by Path, in declaration
// order.
type Mappings []Mapping

// Find returns the mapping declared for exactly the given path.
func (ms Mappings) Find(p string) (Mapping, bool) {
	for _, m := range ms {
		if m.Path == p {
			return m, true
		}
	}
	return Mapping{}, false
}

// Paths returns the mapping paths in declaration order.
func (ms Mappings) Paths() []string {
	paths := make([]string, 0, len(ms))
	for _, m := range ms {
		paths = append(paths, m.Path)
	}
	return paths
}

// Longest returns the mapping whose path is the longest path-prefix of p
// (p itself or one of its parent directories).
func (ms Mappings) Longest(p string) (Mapping, bool) {
	var best Mapping
	found := false
	for _, m := range ms {
		if p != m.Path && !strings.HasPrefix(p, m.Path+"/") {
			continue
		}
		if !found || len(m.Path) > len(best.Path) {
			best, found = m, true
		}
	}
	return best, found
}

// Nested returns a mapping that encloses p or lies inside it. Such mappings
// cannot coexist with one at p: grafting the outer one replaces the inner
// one's tree, and the outer child's storage would contain the inner's.
func (ms Mappings) Nested(p string) (Mapping, bool) {
	for _, m := range ms {
		if strings.HasPrefix(p, m.Path+"/") || strings.HasPrefix(m.Path, p+"/") {
			return m, true
		}
	}
	return Mapping{}, false
}

// CleanPath normalizes a mapping path and rejects paths that cannot name a
// directory inside the parent working tree.
func CleanPath(p string) (string, error) {
	if p == "" {
		return "", errors.New("empty subrepo path")
	}
	if path.IsAbs(p) {
		return "", errors.Errorf("subrepo path %q must be relative", p)
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.Errorf("subrepo path %q is outside of the working tree", p)
	}
	for _, seg := range strings.Split(cleaned, "/") {
		if seg == ".git" {
			return "", errors.Errorf("subrepo path %q must not contain .git", p)
		}
	}
	return cleaned, nil
}

// scheme://userinfo with no path yet: an "@" here separates the user, not a
// branch.
var userinfoOnly = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://[^/]*$`)

// SplitURL splits "<url>[@<branch>]". If no branch is given, defaultBranch is
// returned. Branch names cannot contain ":", which distinguishes them from
// the host part of scp-like URLs (git@host:repo).
func SplitURL(s string, defaultBranch string) (url string, branch string, err error) {
	url, branch = s, defaultBranch
	if i := strings.LastIndex(s, "@"); i > 0 {
		candidate, suffix := s[:i], s[i+1:]
		if !strings.Contains(suffix, ":") && !userinfoOnly.MatchString(candidate) {
			url, branch = candidate, suffix
			if branch == "" {
				return "", "", errors.Errorf("empty branch in %q", s)
			}
		}
	}
	if url == "" {
		return "", "", errors.Errorf("empty url in %q", s)
	}
	if _, err := giturls.Parse(url); err != nil {
		return "", "", errors.WrapIff(err, "invalid url %q", url)
	}
	return url, branch, nil
}
