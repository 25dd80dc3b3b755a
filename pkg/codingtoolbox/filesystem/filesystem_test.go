package filesystem

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/germanamz/softhouse/pkg/chats/content"
	"github.com/germanamz/softhouse/pkg/tools/toolbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFS(t *testing.T) (*toolbox.ToolBox, string) {
	t.Helper()

	dir := t.TempDir()

	return New(dir).Tools(), dir
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)

	return string(data)
}

func call(t *testing.T, tb *toolbox.ToolBox, name string, input any) content.ToolResult {
	t.Helper()

	return tb.Call(context.Background(), content.ToolCall{
		ID:        "tc1",
		Name:      name,
		Arguments: mustJSON(t, input),
	})
}

func TestTools_Names(t *testing.T) {
	tb, _ := newTestFS(t)

	var names []string
	for _, tool := range tb.Tools() {
		names = append(names, tool.Name)
		assert.Equal(t, "object", tool.Schema()["type"])
	}

	assert.Equal(t, []string{"create_folder", "write_file", "read_file", "list_dir"}, names)
}

func TestResolve_RelativeToBase(t *testing.T) {
	dir := t.TempDir()
	fs := New(dir)

	abs, err := fs.resolve("./output/app")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "output", "app"), abs)

	abs, err = fs.resolve(filepath.Join(dir, "x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "x"), abs)
}

func TestBase_DefaultsToWorkingDirectory(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	assert.Equal(t, wd, New("").Base())
}

func TestRead(t *testing.T) {
	tb, dir := newTestFS(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "app"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.py"), []byte("from app import create_app\n"), 0o600))

	tests := []struct {
		name    string
		path    string
		want    string
		isError bool
	}{
		{"file", "run.py", "from app import create_app\n", false},
		{"missing", "nope.py", "no such file", true},
		{"directory", "app", "app is a directory; use list_dir", true},
		{"no path", "", "read_file: path is required", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := call(t, tb, "read_file", pathInput{Path: tt.path})
			assert.Equal(t, tt.isError, tr.IsError)
			assert.Contains(t, tr.Content, tt.want)
		})
	}
}

func TestRead_TooLarge(t *testing.T) {
	tb, dir := newTestFS(t)

	f, err := os.Create(filepath.Join(dir, "dump.sql"))
	require.NoError(t, err)
	require.NoError(t, f.Truncate(maxReadSize+1))
	require.NoError(t, f.Close())

	tr := call(t, tb, "read_file", pathInput{Path: "dump.sql"})
	assert.True(t, tr.IsError)
	assert.Contains(t, tr.Content, "over the 10485760 byte limit")
}

func TestList(t *testing.T) {
	tb, dir := newTestFS(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "requirements.txt"), []byte("flask\n"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "tests"), 0o750))

	tr := call(t, tb, "list_dir", pathInput{Path: "."})
	require.False(t, tr.IsError, tr.Content)

	var entries []dirEntry
	require.NoError(t, json.Unmarshal([]byte(tr.Content), &entries))
	assert.ElementsMatch(t, []dirEntry{
		{Name: "requirements.txt", Type: "file", Size: 6},
		{Name: "tests", Type: "dir"},
	}, entries)
}

func TestList_InvalidInput(t *testing.T) {
	tb, _ := newTestFS(t)

	tr := tb.Call(context.Background(), content.ToolCall{Name: "list_dir", Arguments: `{"path": 3}`})
	assert.True(t, tr.IsError)
	assert.Contains(t, tr.Content, "list_dir: invalid input")
}

func TestList_Missing(t *testing.T) {
	tb, _ := newTestFS(t)

	tr := call(t, tb, "list_dir", pathInput{Path: "missing"})

	assert.True(t, tr.IsError)
}
