package project

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "obx.toml"), `
[package]
name = "demo"
sources = ["src/*.obx"]

[preload]
payloads = ["lib/console.obxd"]
`)
	writeFile(t, filepath.Join(dir, "src", "B.obx"), "MODULE B; END B.")
	writeFile(t, filepath.Join(dir, "src", "A.obx"), "MODULE A; END A.")

	m, err := Load(filepath.Join(dir, "obx.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "demo" {
		t.Fatalf("name %q", m.Name)
	}
	if len(m.Sources) != 2 {
		t.Fatalf("sources %v", m.Sources)
	}
	// Glob results are sorted for deterministic compile order.
	if filepath.Base(m.Sources[0]) != "A.obx" || filepath.Base(m.Sources[1]) != "B.obx" {
		t.Fatalf("sources not sorted: %v", m.Sources)
	}
	if len(m.Preloads) != 1 || filepath.Base(m.Preloads[0]) != "console.obxd" {
		t.Fatalf("preloads %v", m.Preloads)
	}
}

func TestLoadManifestMissingPackage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "obx.toml"), `[preload]
payloads = []
`)
	if _, err := Load(filepath.Join(dir, "obx.toml")); err == nil {
		t.Fatal("missing [package] accepted")
	}
}

func TestLoadManifestMissingName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "obx.toml"), `[package]
sources = []
`)
	if _, err := Load(filepath.Join(dir, "obx.toml")); err == nil {
		t.Fatal("missing name accepted")
	}
}
