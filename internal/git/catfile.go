package git

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"emperror.dev/errors"
)

type GetRefs struct {
	// The revisions to retrieve.
	Revisions []string
}

type GetRefsItem struct {
	// The revision that was requested (exactly as given in GetRefs.Revisions)
	Revision string
	// The git object ID that the revision resolved to
	Oid string
	// The type of the git object, or "missing"/"ambiguous".
	Type string
	// The contents of the git object
	Contents []byte
}

// Missing reports whether the revision could not be resolved to an object.
func (i *GetRefsItem) Missing() bool {
	return i.Type == "missing" || i.Type == "ambiguous"
}

// GetRefs reads the contents of the specified objects from the repository.
// This corresponds to the `git cat-file --batch` command.
func (r *Repo) GetRefs(ctx context.Context, opts *GetRefs) ([]*GetRefsItem, error) {
	input := new(bytes.Buffer)
	for _, item := range opts.Revisions {
		input.WriteString(item)
		input.WriteString("\n")
	}

	res, err := r.Run(ctx, &RunOpts{
		Args:      []string{"cat-file", "--batch"},
		Stdin:     input,
		ExitError: true,
	})
	if err != nil {
		return nil, err
	}
	output := bufio.NewReader(bytes.NewReader(res.Stdout))
	items := make([]*GetRefsItem, 0, len(opts.Revisions))
	for _, rev := range opts.Revisions {
		// The output *usually* looks like:
		//        <oid> SP <type> SP <size> LF
		//        <contents> LF
		// but it can also be
		//        <rev> SP {missing|ambiguous} LF

		item := GetRefsItem{Revision: rev}
		items = append(items, &item)
		header, err := output.ReadString('\n')
		if err != nil {
			return nil, errors.Wrap(err, "failed to read cat-file output")
		}
		var size int64
		n, _ := fmt.Sscanf(header, "%s %s %d", &item.Oid, &item.Type, &size)
		if n >= 2 && item.Missing() {
			item.Oid = ""
			continue
		}
		if n != 3 {
			return nil, errors.Errorf("failed to parse cat-file header %q", header)
		}

		item.Contents = make([]byte, size)
		if _, err := io.ReadFull(output, item.Contents); err != nil {
			return nil, errors.Wrap(err, "failed to read cat-file output")
		}
		// output includes a newline after the item contents
		lf, err := output.ReadByte()
		if err != nil {
			return nil, errors.Wrap(err, "failed to read cat-file output")
		}
		if lf != '\n' {
			return nil, errors.New("failed to read cat-file output")
		}
	}

	return items, nil
}
