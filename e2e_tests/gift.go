package e2e_tests

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"emperror.dev/errors"
	"github.com/kr/text"
	"github.com/stretchr/testify/require"
)

var giftCmdPath string

func init() {
	cmd := exec.Command("go", "build", "../cmd/gift")
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		panic(err)
	}
	var err error
	giftCmdPath, err = filepath.Abs("./gift")
	if err != nil {
		panic(err)
	}
}

type GiftOutput struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

func Cmd(t *testing.T, exe string, args ...string) GiftOutput {
	t.Helper()
	cmd := exec.Command(exe, args...)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	var exitError *exec.ExitError
	if err != nil && !errors.As(err, &exitError) {
		t.Fatal(err)
	}

	output := GiftOutput{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	t.Logf("Running gift\n"+
		"args: %v\n"+
		"exit code: %v\n"+
		"stdout:\n"+
		"%s"+
		"stderr:\n"+
		"%s",
		args,
		cmd.ProcessState.ExitCode(),
		text.Indent(stdout.String(), "  "),
		text.Indent(stderr.String(), "  "),
	)
	return output
}

func Gift(t *testing.T, args ...string) GiftOutput {
	t.Helper()
	return Cmd(t, giftCmdPath, args...)
}

func RequireGift(t *testing.T, args ...string) GiftOutput {
	t.Helper()
	output := Gift(t, args...)
	require.Equal(t, 0, output.ExitCode, "gift %s: exited with %v", args, output.ExitCode)
	return output
}

func Chdir(t *testing.T, dir string) {
	t.Helper()
	t.Chdir(dir)
}
