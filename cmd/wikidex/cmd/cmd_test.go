package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wderrors "github.com/Aman-CERP/wikidex/internal/errors"
	"github.com/Aman-CERP/wikidex/internal/store"
)

// isolate keeps user and project config files out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())
}

func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

type fixturePage struct {
	title string
	text  string
}

func writeDump(t *testing.T, name string, pages ...fixturePage) string {
	t.Helper()
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n<mediawiki>\n")
	for i, p := range pages {
		fmt.Fprintf(&b, "<page><title>%s</title><ns>0</ns><id>%d</id><revision><id>%d</id><text>%s</text></revision></page>\n",
			p.title, i+1, 1000+i, p.text)
	}
	b.WriteString("</mediawiki>\n")
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func article(title string) fixturePage {
	return fixturePage{title: title, text: title + " is a landform described at some length in this article."}
}

func firstDump(t *testing.T) string {
	return writeDump(t, "first.xml",
		article("Volcano"),
		article("Glacier"),
		fixturePage{title: "Talk:Volcano", text: "Discussion about the volcano article goes here."},
		article("Desert"),
		fixturePage{title: "Stub", text: "short"},
		article("Canyon"),
		fixturePage{title: "Category:Landforms", text: "A category page listing many landforms."},
		article("Delta"),
	)
}

func build(t *testing.T, extra ...string) (string, string, error) {
	t.Helper()
	args := append([]string{"build"}, extra...)
	return runCmd(t, append(args, "--plain", "--min-body-length", "20", "--workers", "2")...)
}

func TestBuildCmd_MissingArguments(t *testing.T) {
	isolate(t)
	out := filepath.Join(t.TempDir(), "out")

	for _, args := range [][]string{
		{"build"},
		{"build", "en"},
		{"build", "en", "dump.xml"},
	} {
		_, _, err := runCmd(t, args...)
		require.Error(t, err)
		assert.Equal(t, wderrors.ErrCodeMissingArgument, wderrors.GetCode(err))
		assert.True(t, wderrors.IsFatal(err))
	}
	assert.NoDirExists(t, out)
}

func TestBuildCmd_BuildsIndexAndManifest(t *testing.T) {
	// Given: a dump with five articles, two namespaced pages and one stub
	isolate(t)
	dumpPath := firstDump(t)
	out := filepath.Join(t.TempDir(), "out")

	// When: building
	stdout, _, err := build(t, "en", dumpPath, out, "UTF-8")

	// Then: the articles are indexed with ids 1..5
	require.NoError(t, err)
	assert.Contains(t, stdout, "Complete:")

	m, err := store.ReadManifest(out)
	require.NoError(t, err)
	assert.Equal(t, store.BackendBleve, m.Backend)
	assert.Equal(t, "en", m.Language)
	assert.Equal(t, "UTF-8", m.Encoding)
	assert.Equal(t, uint64(5), m.Documents)
	assert.Equal(t, store.DocumentID(1), m.FirstID)
	assert.Equal(t, store.DocumentID(5), m.LastID)
	assert.Equal(t, 1, m.Builds)
}

func TestBuildCmd_WarnsForLanguageWithoutAnalyzer(t *testing.T) {
	// Given: a language with no dedicated analyzer
	isolate(t)
	dumpPath := firstDump(t)
	out := filepath.Join(t.TempDir(), "out")

	// When: building
	_, stderr, err := build(t, "nl", dumpPath, out, "UTF-8")

	// Then: the build succeeds and warns about the fallback analysis
	require.NoError(t, err)
	assert.Contains(t, stderr, "language_without_analyzer")
	assert.Contains(t, stderr, "language=nl")
}

func TestBuildCmd_ExistingIndexNeedsFlag(t *testing.T) {
	isolate(t)
	dumpPath := firstDump(t)
	out := filepath.Join(t.TempDir(), "out")
	_, _, err := build(t, "en", dumpPath, out, "UTF-8")
	require.NoError(t, err)

	// When: building into the same directory again
	_, _, err = build(t, "en", dumpPath, out, "UTF-8")

	// Then: the existing index is protected
	require.Error(t, err)
	assert.Equal(t, wderrors.ErrCodeIndexExists, wderrors.GetCode(err))
}

func TestBuildCmd_AppendContinuesIDs(t *testing.T) {
	// Given: a first build with ids 1..5
	isolate(t)
	out := filepath.Join(t.TempDir(), "out")
	_, _, err := build(t, "en", firstDump(t), out, "UTF-8")
	require.NoError(t, err)

	// When: appending a second dump
	second := writeDump(t, "second.xml", article("Fjord"), article("Lagoon"), article("Mesa"))
	_, _, err = build(t, "en", second, out, "UTF-8", "--append")
	require.NoError(t, err)

	// Then: the new pages continue the id range
	m, err := store.ReadManifest(out)
	require.NoError(t, err)
	assert.Equal(t, store.DocumentID(1), m.FirstID)
	assert.Equal(t, store.DocumentID(8), m.LastID)
	assert.Equal(t, uint64(8), m.Documents)
	assert.Equal(t, 2, m.Builds)

	// And: pages from both builds are searchable
	stdout, _, err := runCmd(t, "search", out, "fjord", "--format", "json")
	require.NoError(t, err)
	var hits []searchHit
	require.NoError(t, json.Unmarshal([]byte(stdout), &hits))
	require.NotEmpty(t, hits)
	assert.Equal(t, "Fjord", hits[0].Title)
	assert.Greater(t, hits[0].ID, uint64(5))
}

func TestBuildCmd_AppendRejectsOtherLanguage(t *testing.T) {
	isolate(t)
	out := filepath.Join(t.TempDir(), "out")
	_, _, err := build(t, "en", firstDump(t), out, "UTF-8")
	require.NoError(t, err)

	_, _, err = build(t, "it", firstDump(t), out, "UTF-8", "--append")
	require.Error(t, err)
	assert.Equal(t, wderrors.ErrCodeConfigInvalid, wderrors.GetCode(err))
}

func TestBuildCmd_ForceRebuilds(t *testing.T) {
	isolate(t)
	out := filepath.Join(t.TempDir(), "out")
	_, _, err := build(t, "en", firstDump(t), out, "UTF-8")
	require.NoError(t, err)

	// When: rebuilding with --force and the sqlite backend
	_, _, err = build(t, "en", firstDump(t), out, "UTF-8", "--force", "--backend", "sqlite")
	require.NoError(t, err)

	// Then: the old index is gone and ids restart
	assert.Equal(t, store.BackendSQLite, store.DetectBackend(out))
	m, err := store.ReadManifest(out)
	require.NoError(t, err)
	assert.Equal(t, store.BackendSQLite, m.Backend)
	assert.Equal(t, store.DocumentID(5), m.LastID)
	assert.Equal(t, 1, m.Builds)
}

func TestBuildCmd_AppendAndForceConflict(t *testing.T) {
	isolate(t)
	_, _, err := build(t, "en", firstDump(t), filepath.Join(t.TempDir(), "out"), "--append", "--force")
	require.Error(t, err)
	assert.Equal(t, wderrors.ErrCodeConfigInvalid, wderrors.GetCode(err))
}

func TestBuildCmd_InvalidFlag(t *testing.T) {
	isolate(t)
	_, _, err := build(t, "en", firstDump(t), filepath.Join(t.TempDir(), "out"), "--queue-capacity", "0")
	require.Error(t, err)
	assert.Equal(t, wderrors.ErrCodeConfigInvalid, wderrors.GetCode(err))
}

func TestBuildCmd_MissingDump(t *testing.T) {
	isolate(t)
	out := filepath.Join(t.TempDir(), "out")

	_, _, err := build(t, "en", filepath.Join(t.TempDir(), "missing.xml.bz2"), out)

	require.Error(t, err)
	assert.Equal(t, wderrors.ErrCodeDumpNotFound, wderrors.GetCode(err))
	assert.False(t, store.Exists(out))
}

func TestBuildCmd_MaxRecordsFromConfigFile(t *testing.T) {
	// Given: a project config capping the build at two records
	isolate(t)
	require.NoError(t, os.WriteFile(".wikidex.yaml", []byte("build:\n  max_records: 2\n"), 0o644))
	out := filepath.Join(t.TempDir(), "out")

	// When: building
	stdout, _, err := build(t, "en", firstDump(t), out, "UTF-8")

	// Then: only two pages are indexed
	require.NoError(t, err)
	assert.Contains(t, stdout, "stopped early")
	m, err := store.ReadManifest(out)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), m.Documents)
}

func TestSearchCmd_TextOutput(t *testing.T) {
	isolate(t)
	out := filepath.Join(t.TempDir(), "out")
	_, _, err := build(t, "en", firstDump(t), out, "UTF-8")
	require.NoError(t, err)

	stdout, _, err := runCmd(t, "search", out, "glacier", "-n", "3")

	require.NoError(t, err)
	assert.Contains(t, stdout, " 1. Glacier (id ")
	assert.NotContains(t, stdout, "Talk:")
}

func TestSearchCmd_NoResults(t *testing.T) {
	isolate(t)
	out := filepath.Join(t.TempDir(), "out")
	_, _, err := build(t, "en", firstDump(t), out, "UTF-8")
	require.NoError(t, err)

	stdout, _, err := runCmd(t, "search", out, "zeppelin")
	require.NoError(t, err)
	assert.Contains(t, stdout, `No pages found for "zeppelin"`)
}

func TestSearchCmd_RequiresIndex(t *testing.T) {
	isolate(t)

	_, _, err := runCmd(t, "search", t.TempDir(), "anything")

	require.Error(t, err)
	assert.Equal(t, wderrors.ErrCodeIndexNotFound, wderrors.GetCode(err))
}

func TestSearchCmd_RejectsUnknownFormat(t *testing.T) {
	isolate(t)
	_, _, err := runCmd(t, "search", t.TempDir(), "q", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestInfoCmd_JSON(t *testing.T) {
	isolate(t)
	out := filepath.Join(t.TempDir(), "out")
	_, _, err := build(t, "en", firstDump(t), out, "UTF-8")
	require.NoError(t, err)

	stdout, _, err := runCmd(t, "info", out, "--json")

	require.NoError(t, err)
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Equal(t, float64(5), info["documents"])
	assert.Equal(t, "bleve", info["backend"])
	assert.Equal(t, float64(5), info["last_id"])
	assert.Greater(t, info["size_bytes"], float64(0))
}

func TestInfoCmd_Text(t *testing.T) {
	isolate(t)
	out := filepath.Join(t.TempDir(), "out")
	_, _, err := build(t, "en", firstDump(t), out, "UTF-8")
	require.NoError(t, err)

	stdout, _, err := runCmd(t, "info", out)

	require.NoError(t, err)
	assert.Contains(t, stdout, "Documents: 5")
	assert.Contains(t, stdout, "IDs:       1..5")
}

func TestServeCmd_RejectsUnknownTransport(t *testing.T) {
	isolate(t)
	_, _, err := runCmd(t, "serve", t.TempDir(), "--transport", "sse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
}

func TestVersionCmd(t *testing.T) {
	stdout, _, err := runCmd(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "wikidex")

	stdout, _, err = runCmd(t, "version", "--json")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"name": "wikidex"`)
}

func TestRootCmd_ListsCommands(t *testing.T) {
	root := NewRootCmd()
	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"build", "search", "info", "serve", "version"} {
		assert.True(t, names[want], want)
	}
}

func TestRootCmd_ProfilesABuild(t *testing.T) {
	// Given: CPU and heap profiles requested for a build
	isolate(t)
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.prof")
	heap := filepath.Join(dir, "heap.prof")

	// When: building
	_, _, err := build(t, "en", firstDump(t), filepath.Join(dir, "out"), "UTF-8",
		"--profile-cpu", cpu, "--profile-mem", heap)

	// Then: both profiles are written
	require.NoError(t, err)
	assert.FileExists(t, cpu)
	assert.FileExists(t, heap)
}

func TestConfigCmd_InitThenShow(t *testing.T) {
	// Given: an empty project directory
	isolate(t)

	// When: writing the project template and showing the merged config
	stdout, _, err := runCmd(t, "config", "init", "--project")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Created .wikidex.yaml")

	stdout, _, err = runCmd(t, "config", "show", "--json")
	require.NoError(t, err)

	// Then: the template's defaults are in effect
	var cfg map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &cfg))
	build := cfg["build"].(map[string]any)
	assert.Equal(t, float64(4000), build["min_body_length"])
	assert.Equal(t, "ISO-8859-1", build["encoding"])

	// And: a second init refuses to overwrite
	_, _, err = runCmd(t, "config", "init", "--project")
	assert.ErrorContains(t, err, "already exists")
}

func TestConfigCmd_Path(t *testing.T) {
	isolate(t)
	stdout, _, err := runCmd(t, "config", "path")
	require.NoError(t, err)
	assert.Contains(t, stdout, filepath.Join("wikidex", "config.yaml"))
}
