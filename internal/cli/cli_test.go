package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/chatguard/internal/config"
	"github.com/ppiankov/chatguard/internal/model"
)

func TestLoadEnv_MissingFile(t *testing.T) {
	if err := loadEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}
	if err := loadEnv(""); err != nil {
		t.Errorf("empty path should be ignored, got %v", err)
	}
}

func TestLoadEnv_SetsConfigPath(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	want := filepath.Join(dir, "from-env.yaml")
	if err := os.WriteFile(envPath, []byte(config.EnvPath+"="+want+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.EnvPath, "")
	os.Unsetenv(config.EnvPath)

	if err := loadEnv(envPath); err != nil {
		t.Fatalf("loadEnv: %v", err)
	}
	if got := config.ResolvePath(""); got != want {
		t.Errorf("ResolvePath = %q, want %q", got, want)
	}
}

func TestScanInput(t *testing.T) {
	got, err := scanInput(strings.NewReader("ignored"), []string{"hello"})
	if err != nil || got != "hello" {
		t.Errorf("arg input = %q, %v", got, err)
	}

	got, err = scanInput(strings.NewReader("from stdin\n"), nil)
	if err != nil || got != "from stdin" {
		t.Errorf("stdin input = %q, %v", got, err)
	}
}

func TestFormatVerdict(t *testing.T) {
	blocked := model.FilterResult{
		IsBlocked: true,
		RiskScore: 100,
		Patterns:  []model.Tag{model.SingleTag(model.CategoryPhone)},
		Reason:    "no phone numbers",
	}
	out := formatVerdict(blocked, []string{"phone_digits"})
	for _, want := range []string{"BLOCK", "risk=100", "patterns=", "no phone numbers", "rules: phone_digits"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out = formatVerdict(model.Allowed(), nil)
	if !strings.HasPrefix(out, "ALLOW  risk=0") {
		t.Errorf("unexpected allow output: %q", out)
	}
	if strings.Contains(out, "patterns=") {
		t.Errorf("allow output should not list patterns: %q", out)
	}
}

func TestMergeServerFlags(t *testing.T) {
	t.Cleanup(func() {
		serveGRPCPort, serveHTTPPort, serveAuditLog, serveRecordAllowed = 0, 0, "", false
	})

	base := config.Default().Server
	if got := mergeServerFlags(base); got != base {
		t.Errorf("unset flags changed config: %+v", got)
	}

	serveGRPCPort = 6000
	serveHTTPPort = -1
	serveAuditLog = "/tmp/verdicts.jsonl"
	serveRecordAllowed = true
	got := mergeServerFlags(base)
	if got.GRPCPort != 6000 || got.HTTPPort != -1 || got.AuditLog != "/tmp/verdicts.jsonl" || !got.RecordAllowed {
		t.Errorf("flags not applied: %+v", got)
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		log, err := newLogger("debug", format)
		if err != nil {
			t.Fatalf("newLogger(%s): %v", format, err)
		}
		log.Sync()
	}
	if _, err := newLogger("loud", "json"); err == nil {
		t.Error("expected error for invalid level")
	}
	if _, err := newLogger("info", "xml"); err == nil {
		t.Error("expected error for invalid format")
	}
}
