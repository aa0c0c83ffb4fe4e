package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrealdb/surrealdir/internal/testenv"
)

func writeConfig(t *testing.T, snapshot bool) string {
	t.Helper()
	dir := t.TempDir()
	fixture := filepath.Join(dir, "directory.yaml")
	require.NoError(t, os.WriteFile(fixture, testenv.DirectoryYAML(), 0o600))

	body := fmt.Sprintf("backend: mem\nmemory:\n  fixture: %s\n", fixture)
	if snapshot {
		body += fmt.Sprintf("  snapshot: %s\n", filepath.Join(dir, "directory.cbor"))
	}
	path := filepath.Join(dir, "surrealdir.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(args ...string) (string, error) {
	a := &app{}
	defer a.close()

	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTree(t *testing.T) {
	cfg := writeConfig(t, false)
	out, err := execute("--config", cfg, "tree", "--depth", "1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "13MELB (area:"))
	assert.True(t, strings.HasPrefix(lines[1], "  Library (area:"))
	assert.True(t, strings.HasPrefix(lines[2], "  Student Support (area:"))
}

func TestSearch(t *testing.T) {
	cfg := writeConfig(t, false)
	out, err := execute("--config", cfg, "search", "hous")
	require.NoError(t, err)
	assert.Equal(t, "Student Support > Housing [Ada Lovelace, Housing Officer]\n"+
		"Student Support > Careers > Housing Careers Fair\n", out)
}

func TestFindContact(t *testing.T) {
	cfg := writeConfig(t, false)
	out, err := execute("--config", cfg, "find-contact", "grace")
	require.NoError(t, err)
	assert.Contains(t, out, "Grace Hopper\tStudent Adviser")
}

func TestSnapshotPersistsMutations(t *testing.T) {
	cfg := writeConfig(t, true)
	out, err := execute("--config", cfg, "add-area", "root", "Security", "--note", "gate house")
	require.NoError(t, err)
	assert.Contains(t, out, "\tSecurity")

	out, err = execute("--config", cfg, "children")
	require.NoError(t, err)
	assert.Contains(t, out, "\tSecurity\n")
	assert.Contains(t, out, "\tLibrary\n")
}

func TestRootCannotBeRemoved(t *testing.T) {
	cfg := writeConfig(t, false)
	_, err := execute("--config", cfg, "remove", "root")
	assert.ErrorContains(t, err, "invalid operation")
}

func TestInvalidBackend(t *testing.T) {
	_, err := execute("--backend", "sqlite", "orphans")
	assert.ErrorContains(t, err, "invalid config")
}
