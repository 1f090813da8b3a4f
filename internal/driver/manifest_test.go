package driver_test

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"formula"
	"formula/internal/driver"
	"formula/internal/types"
)

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	want := writeFile(t, root, driver.ManifestName, "")
	nested := filepath.Join(root, "content", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	got, ok, err := driver.FindManifest(nested)
	if err != nil || !ok {
		t.Fatalf("FindManifest: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("found %s, want %s", got, want)
	}
}

func TestLoadManifest(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, driver.ManifestName, `
params = ["base"]

[check]
jobs = 3
include = ["content", "extra/more"]

[[namespace]]
kind = "character"
path = "self.modifier"
names = ["fire"]
type = "number"

[[namespace]]
kind = "params"
names = ["hard"]
type = "boolean"
`)
	m, err := driver.LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.Root != root || m.Digest.IsZero() || m.Config.Check.Jobs != 3 {
		t.Fatalf("manifest = %+v", m)
	}
	dirs := m.IncludeDirs()
	if len(dirs) != 2 || dirs[1] != filepath.Join(root, "extra", "more") {
		t.Fatalf("IncludeDirs = %v", dirs)
	}
	ns := m.Config.Namespaces
	if len(ns) != 2 || ns[0].Type != types.Number || ns[1].Type != types.Boolean {
		t.Fatalf("namespaces = %+v", ns)
	}
	if got := ns[0].SplitPath(); !slices.Equal(got, []string{"self", "modifier"}) {
		t.Fatalf("SplitPath = %v", got)
	}
	if ns[1].SplitPath() != nil {
		t.Fatal("empty path must mean the root")
	}

	e := formula.New(m.EngineOptions()...)
	if err := m.Apply(e); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	res, err := e.Compile("character", "self.modifier.fire * 2")
	if err != nil || !res.Ok() {
		t.Fatalf("registered namespace not visible: %v %v", err, res.Err())
	}
	res, err = e.Compile("params", "hard ? base : 0")
	if err != nil || !res.Ok() {
		t.Fatalf("params from manifest not visible: %v %v", err, res.Err())
	}
}

func TestLoadManifestRejects(t *testing.T) {
	tests := map[string]struct {
		content string
		want    string
	}{
		"unknown key": {"[check]\nthreads = 2\n", "unknown key"},
		"negative":    {"[check]\njobs = -1\n", "must not be negative"},
		"bad kind":    {"[[namespace]]\nkind = \"monster\"\nnames = [\"x\"]\ntype = \"number\"\n", "unknown kind"},
		"no names":    {"[[namespace]]\nkind = \"value\"\ntype = \"number\"\n", "names must not be empty"},
		"no type":     {"[[namespace]]\nkind = \"value\"\nnames = [\"x\"]\n", "missing type"},
		"bad type":    {"[[namespace]]\nkind = \"value\"\nnames = [\"x\"]\ntype = \"string\"\n", "unknown type"},
		"broken toml": {"params = [", "failed to parse TOML"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), driver.ManifestName, tt.content)
			_, err := driver.LoadManifest(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestListContentFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, driver.ManifestName, "")
	b := writeFile(t, root, "b.toml", "")
	a := writeFile(t, root, filepath.Join("sub", "a.toml"), "")
	writeFile(t, root, filepath.Join(".hidden", "c.toml"), "")
	writeFile(t, root, "notes.txt", "")

	files, err := driver.ListContentFiles(root, b)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{b, a}
	slices.Sort(want)
	if !slices.Equal(files, want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
}
