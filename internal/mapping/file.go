package mapping

import (
	"bytes"
	"fmt"
	"os"

	"emperror.dev/errors"
	"gopkg.in/yaml.v3"
)

const dirsKey = "dirs"

// ParseError is returned for a malformed mapping file.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Msg)
}

// File is a parsed mapping file. It keeps the YAML document so that
// rewriting the file after Append preserves everything gift does not
// interpret (other keys, comments).
type File struct {
	Name     string
	Mappings Mappings
	doc      *yaml.Node
}

// Parse parses the contents of a mapping file:
//
//	dirs:
//	  <path>: <url>@<branch>
//
// A missing "@branch" means defaultBranch. name is only used in errors.
func Parse(name string, data []byte, defaultBranch string) (*File, error) {
	f := &File{Name: name}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{File: name, Msg: err.Error()}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return f, nil
	}
	f.doc = &doc
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return f, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, &ParseError{File: name, Line: root.Line, Msg: "expected a mapping at top level"}
	}
	dirs := lookup(root, dirsKey)
	if dirs == nil || (dirs.Kind == yaml.ScalarNode && dirs.Tag == "!!null") {
		return f, nil
	}
	if dirs.Kind != yaml.MappingNode {
		return nil, &ParseError{File: name, Line: dirs.Line, Msg: `"dirs" must be a mapping of path to <url>@<branch>`}
	}
	for i := 0; i+1 < len(dirs.Content); i += 2 {
		k, v := dirs.Content[i], dirs.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return nil, &ParseError{File: name, Line: k.Line, Msg: "expected <path>: <url>@<branch>"}
		}
		p, err := CleanPath(k.Value)
		if err != nil {
			return nil, &ParseError{File: name, Line: k.Line, Msg: err.Error()}
		}
		if _, dup := f.Mappings.Find(p); dup {
			return nil, &ParseError{File: name, Line: k.Line, Msg: fmt.Sprintf("duplicate subrepo path %q", p)}
		}
		if m, nested := f.Mappings.Nested(p); nested {
			return nil, &ParseError{File: name, Line: k.Line, Msg: fmt.Sprintf("subrepo path %q overlaps %q", p, m.Path)}
		}
		url, branch, err := SplitURL(v.Value, defaultBranch)
		if err != nil {
			return nil, &ParseError{File: name, Line: v.Line, Msg: err.Error()}
		}
		f.Mappings = append(f.Mappings, Mapping{Path: p, URL: url, Branch: branch})
	}
	return f, nil
}

// ReadFile reads and parses a mapping file. A missing file yields an empty
// mapping set.
func ReadFile(path string, defaultBranch string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.WrapIff(err, "failed to read %s", path)
	}
	return Parse(path, data, defaultBranch)
}

// Append adds a new mapping at the end. The path must not be mapped yet.
func (f *File) Append(m Mapping) error {
	p, err := CleanPath(m.Path)
	if err != nil {
		return err
	}
	m.Path = p
	if _, dup := f.Mappings.Find(p); dup {
		return errors.Errorf("%s is already a subrepo", p)
	}
	if other, nested := f.Mappings.Nested(p); nested {
		return errors.Errorf("%s overlaps subrepo %s", p, other.Path)
	}
	dirs := f.dirsNode()
	dirs.Content = append(dirs.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.Path},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.Value()},
	)
	f.Mappings = append(f.Mappings, m)
	return nil
}

// Marshal serializes the file with two-space indentation.
func (f *File) Marshal() ([]byte, error) {
	f.dirsNode()
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f.doc); err != nil {
		return nil, errors.Wrap(err, "failed to encode mapping file")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to encode mapping file")
	}
	return buf.Bytes(), nil
}

// dirsNode returns the "dirs" mapping node, creating the document structure
// as needed.
func (f *File) dirsNode() *yaml.Node {
	if f.doc == nil || len(f.doc.Content) == 0 {
		f.doc = &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{
			{Kind: yaml.MappingNode, Tag: "!!map"},
		}}
	}
	root := f.doc.Content[0]
	if root.Kind != yaml.MappingNode {
		*root = yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}
	dirs := lookup(root, dirsKey)
	if dirs == nil {
		dirs = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: dirsKey},
			dirs,
		)
	}
	if dirs.Kind != yaml.MappingNode {
		*dirs = yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}
	// "dirs: {}" must not keep entries on one line once something is added.
	dirs.Style = 0
	return dirs
}

func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}
