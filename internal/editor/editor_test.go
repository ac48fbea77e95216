package editor_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aviator-co/gift/internal/editor"
	"github.com/stretchr/testify/require"
)

func TestEditor(t *testing.T) {
	res, err := editor.Launch(t.Context(), nil, editor.Config{
		Text:          "Hello world!\n\nBonjour le monde!\n# This is a comment\n",
		CommentPrefix: "#",
		Command:       "true",
	})
	require.NoError(t, err, "failed to launch editor")
	require.Equal(t, "Hello world!\n\nBonjour le monde!\n", res)
}

func TestEditorRewrites(t *testing.T) {
	script := filepath.Join(t.TempDir(), "editor.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nprintf 'edited\\n# still a comment\\n' > \"$1\"\n"), 0755))
	res, err := editor.Launch(t.Context(), nil, editor.Config{
		Text:          "original\n",
		CommentPrefix: "#",
		Command:       script,
	})
	require.NoError(t, err)
	require.Equal(t, "edited\n", res)
}

func TestEditorNoOp(t *testing.T) {
	res, err := editor.Launch(t.Context(), nil, editor.Config{Text: "as is\n", Command: editor.CommandNoOp})
	require.NoError(t, err)
	require.Equal(t, "as is\n", res)
}
