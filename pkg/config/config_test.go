package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestSaveLoad_RoundTrip verifies that N saved instances reload unchanged and
// that no null values reach the file.
func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := New(dir)
	cfg.Hosts = map[string]*Instance{
		"default": {URL: "api.instill.tech", Secure: true, Token: "instill_sk_1"},
		"local":   {URL: "localhost:8080"},
		"staging": {URL: "grpcs://staging.instill.tech:443", Secure: true},
	}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if strings.Contains(string(raw), "null") {
		t.Fatalf("persisted config contains null:\n%s", raw)
	}
	if strings.Contains(string(raw), "token: \"\"") {
		t.Fatalf("empty token should be omitted:\n%s", raw)
	}

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(cfg.Hosts, got.Hosts); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSave_FilePermissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "instill")
	cfg := New(dir)
	if err := cfg.SetInstance("local", Instance{URL: "localhost:8080"}); err != nil {
		t.Fatalf("SetInstance: %v", err)
	}
	info, err := os.Stat(cfg.Path())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("file mode = %o, want 600", perm)
	}
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Hosts) != 0 {
		t.Fatalf("expected no hosts, got %v", cfg.Hosts)
	}
	if alias, inst := cfg.Resolve(); alias != "" || inst != nil {
		t.Fatalf("Resolve on empty config = %q, %v", alias, inst)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), nil, 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Hosts == nil {
		t.Fatal("hosts map should be initialised")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not yaml", body: "hosts: [unterminated"},
		{name: "unknown field", body: "hosts:\n  a:\n    url: x\n    colour: red\n"},
		{name: "missing url", body: "hosts:\n  a:\n    token: t\n"},
		{name: "null instance", body: "hosts:\n  a:\n"},
		{name: "bad scheme", body: "hosts:\n  a:\n    url: ftp://x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tt.body), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(dir); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Load err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestValidate_SecureScheme(t *testing.T) {
	cfg := New(t.TempDir())
	cfg.Hosts["cloud"] = &Instance{URL: "https://api.instill.tech"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !cfg.Hosts["cloud"].Secure {
		t.Fatal("https scheme should imply secure")
	}
}

func TestSetToken(t *testing.T) {
	dir := t.TempDir()
	cfg := New(dir)
	if err := cfg.SetInstance("default", Instance{URL: "localhost:8080"}); err != nil {
		t.Fatalf("SetInstance: %v", err)
	}
	if err := cfg.SetToken("default", "instill_sk_new"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	reloaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if inst, _ := reloaded.Instance("default"); inst.Token != "instill_sk_new" {
		t.Fatalf("token not persisted: %+v", inst)
	}
}

func TestSetToken_UnknownAlias(t *testing.T) {
	dir := t.TempDir()
	cfg := New(dir)
	if err := cfg.SetToken("ghost", "tok"); !errors.Is(err, ErrUnknownInstance) {
		t.Fatalf("SetToken err = %v, want ErrUnknownInstance", err)
	}
	if _, err := os.Stat(cfg.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("nothing should be written, stat err = %v", err)
	}
	if len(cfg.Hosts) != 0 {
		t.Fatalf("alias must not be created: %v", cfg.Hosts)
	}
}

// TestFailedSaveKeepsMemory checks that a write error leaves the in-memory
// config as it was before the call.
func TestFailedSaveKeepsMemory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	cfg := New(filepath.Join(blocker, "instill"))
	cfg.Hosts = map[string]*Instance{
		"default": {URL: "localhost:8080", Token: "instill_sk_old"},
	}
	want := map[string]*Instance{
		"default": {URL: "localhost:8080", Token: "instill_sk_old"},
	}

	if err := cfg.SetToken("default", "instill_sk_new"); err == nil {
		t.Fatal("SetToken: expected a save error")
	}
	if err := cfg.SetInstance("default", Instance{URL: "other:1"}); err == nil {
		t.Fatal("SetInstance replace: expected a save error")
	}
	if err := cfg.SetInstance("extra", Instance{URL: "extra:1"}); err == nil {
		t.Fatal("SetInstance add: expected a save error")
	}
	if err := cfg.RemoveInstance("default"); err == nil {
		t.Fatal("RemoveInstance: expected a save error")
	}
	if diff := cmp.Diff(want, cfg.Hosts); diff != "" {
		t.Fatalf("memory changed after failed saves (-want +got):\n%s", diff)
	}
}

func TestRemoveInstance(t *testing.T) {
	cfg := New(t.TempDir())
	_ = cfg.SetInstance("a", Instance{URL: "a:1"})
	_ = cfg.SetInstance("b", Instance{URL: "b:1"})
	if err := cfg.RemoveInstance("a"); err != nil {
		t.Fatalf("RemoveInstance: %v", err)
	}
	if diff := cmp.Diff([]string{"b"}, cfg.Aliases()); diff != "" {
		t.Fatalf("aliases (-want +got):\n%s", diff)
	}
	if err := cfg.RemoveInstance("a"); !errors.Is(err, ErrUnknownInstance) {
		t.Fatalf("second remove err = %v", err)
	}
}

func TestResolve_Precedence(t *testing.T) {
	cfg := New(t.TempDir())
	cfg.Hosts["only"] = &Instance{URL: "only:80"}
	if alias, inst := cfg.Resolve(); alias != "only" || inst.URL != "only:80" {
		t.Fatalf("single alias: got %q %+v", alias, inst)
	}

	cfg.Hosts["other"] = &Instance{URL: "other:80"}
	if alias, inst := cfg.Resolve(); alias != "" || inst != nil {
		t.Fatalf("two aliases without default: got %q %+v", alias, inst)
	}

	cfg.Hosts[DefaultAlias] = &Instance{URL: "default:80"}
	alias, inst := cfg.Resolve()
	if alias != DefaultAlias || inst.URL != "default:80" {
		t.Fatalf("default alias: got %q %+v", alias, inst)
	}

	// Resolve hands out copies.
	inst.URL = "mutated"
	if cfg.Hosts[DefaultAlias].URL != "default:80" {
		t.Fatal("Resolve must not expose the stored instance")
	}
}

func TestDefaultDir(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/instill-test-config")
	if got := DefaultDir(); got != "/tmp/instill-test-config" {
		t.Fatalf("DefaultDir = %q", got)
	}
	t.Setenv(EnvConfigPath, "")
	if got := DefaultDir(); !strings.HasSuffix(got, filepath.Join("", "instill")) {
		t.Fatalf("DefaultDir fallback = %q", got)
	}
}

func TestConcurrentSetToken(t *testing.T) {
	cfg := New(t.TempDir())
	if err := cfg.SetInstance("default", Instance{URL: "localhost:8080"}); err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = cfg.SetToken("default", "tok")
			_ = cfg.Save()
			_ = cfg.Aliases()
		}()
	}
	wg.Wait()
	if inst, _ := cfg.Instance("default"); inst.Token != "tok" {
		t.Fatalf("token = %q", inst.Token)
	}
}
