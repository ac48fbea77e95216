package git

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

type LogOpts struct {
	// RevisionRange is the range of the commits specified by the format described in
	// git-log(1).
	RevisionRange []string
	// MaxCount limits the number of commits returned (0 means no limit).
	MaxCount int
}

type CommitInfo struct {
	Hash      string
	ShortHash string
	Subject   string
	Body      string
}

// Log returns a list of commits specified by the range, newest first.
func (r *Repo) Log(ctx context.Context, opts LogOpts) ([]*CommitInfo, error) {
	args := []string{"log", "--format=%H%x00%h%x00%s%x00%b%x00"}
	if opts.MaxCount > 0 {
		args = append(args, "--max-count="+strconv.Itoa(opts.MaxCount))
	}
	args = append(args, opts.RevisionRange...)
	args = append(args, "--")
	res, err := r.Run(ctx, &RunOpts{
		Args:      args,
		ExitError: true,
	})
	if err != nil {
		return nil, err
	}
	r.log.WithFields(logrus.Fields{"range": opts.RevisionRange}).Debug("got git-log")

	rd := bufio.NewReader(bytes.NewBuffer(res.Stdout))
	var ret []*CommitInfo
	for {
		ci, err := readLogEntry(rd)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		ret = append(ret, ci)
	}
	return ret, nil
}

func readLogEntry(rd *bufio.Reader) (*CommitInfo, error) {
	commitHash, err := rd.ReadString('\x00')
	if err != nil {
		return nil, err
	}
	abbrevHash, err := rd.ReadString('\x00')
	if err != nil {
		return nil, err
	}
	subject, err := rd.ReadString('\x00')
	if err != nil {
		return nil, err
	}
	body, err := rd.ReadString('\x00')
	if err != nil {
		return nil, err
	}
	return &CommitInfo{
		Hash:      strings.TrimSpace(trimNUL(commitHash)),
		ShortHash: strings.TrimSpace(trimNUL(abbrevHash)),
		Subject:   trimNUL(subject),
		Body:      trimNUL(body),
	}, nil
}

func trimNUL(s string) string {
	return strings.Trim(s, "\x00")
}
