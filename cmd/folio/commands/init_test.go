package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dnnweb/folio"
	"github.com/dnnweb/folio/chat"
)

func TestRunInitWritesConfig(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	data := scaffoldData{
		SiteName:      "My Site",
		SiteURL:       "https://example.com",
		APIServerURL:  "https://api.example.com",
		SessionSecret: "s3cret",
		ConfigFile:    "folio.yaml",
	}
	if err := runInit(cmd, dir, data, false); err != nil {
		t.Fatalf("runInit: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "folio.yaml"))
	if err != nil {
		t.Fatalf("read folio.yaml: %v", err)
	}
	var cfg folio.SiteConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		t.Fatalf("generated folio.yaml does not parse: %v", err)
	}
	if cfg.Name != "My Site" || cfg.APIServerURL != "https://api.example.com" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if strings.Join(cfg.ChatQuestions, "|") != strings.Join(chat.TemplateQuestions, "|") {
		t.Errorf("chat questions = %q, want the built-in defaults", cfg.ChatQuestions)
	}

	env, err := os.ReadFile(filepath.Join(dir, ".env.example"))
	if err != nil {
		t.Fatalf("read .env.example: %v", err)
	}
	if !strings.Contains(string(env), "SESSION_SECRET=s3cret") {
		t.Errorf(".env.example missing secret:\n%s", env)
	}
}

func TestRunInitSkipsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "folio.yaml")
	if err := os.WriteFile(path, []byte("name: keep\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	if err := runInit(cmd, dir, scaffoldData{SiteName: "New"}, false); err != nil {
		t.Fatalf("runInit: %v", err)
	}
	b, _ := os.ReadFile(path)
	if string(b) != "name: keep\n" {
		t.Errorf("existing file overwritten: %q", b)
	}
	if !strings.Contains(out.String(), "skipped") {
		t.Errorf("expected skip notice, got %q", out.String())
	}
}

func TestToTitle(t *testing.T) {
	tests := map[string]string{
		"my-site": "My Site",
		"folio":   "Folio",
		"":        "",
	}
	for in, want := range tests {
		if got := toTitle(in); got != want {
			t.Errorf("toTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewSecret(t *testing.T) {
	a, b := newSecret(), newSecret()
	if len(a) != 64 || a == b {
		t.Errorf("newSecret() = %q, %q", a, b)
	}
}
