package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/haasonsaas/simpleplugin/internal/host"
)

const testConfigYAML = `
version: 1
admin:
  name: Notch
server:
  players:
    - name: Notch
      operator: true
    - name: Steve
      world: world_nether
      x: 10
      y: 64
      z: -5
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "simpleplugin.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// runCLI executes the root command and returns stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SIMPLEPLUGIN_CONFIG", "")
	var out bytes.Buffer
	cmd := buildRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return out.String(), err
}

func TestBuildRootCmdIncludesSubcommands(t *testing.T) {
	cmd := buildRootCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, name := range []string{"console", "exec", "rules", "render", "records", "config", "version"} {
		if !names[name] {
			t.Fatalf("expected subcommand %q to be registered", name)
		}
	}
}

func TestExec(t *testing.T) {
	path := writeTestConfig(t, testConfigYAML)

	t.Run("console list", func(t *testing.T) {
		out, err := runCLI(t, "", "exec", "--config", path, "/list")
		if err != nil {
			t.Fatalf("exec error = %v", err)
		}
		if !strings.Contains(out, "There are 2 players online: Notch, Steve") {
			t.Fatalf("output = %q", out)
		}
	})

	t.Run("player location", func(t *testing.T) {
		out, err := runCLI(t, "", "exec", "--config", path, "--as", "steve", "where")
		if err != nil {
			t.Fatalf("exec error = %v", err)
		}
		if !strings.Contains(out, "[to Steve]") || !strings.Contains(out, "(10, 64, -5) in the nether") {
			t.Fatalf("output = %q", out)
		}
	})

	t.Run("admin protected", func(t *testing.T) {
		out, err := runCLI(t, "", "exec", "--config", path, "--as", "Steve", "kick", "NOTCH")
		if err == nil || !strings.Contains(err.Error(), "admin_protected") {
			t.Fatalf("expected admin_protected rejection, got %v", err)
		}
		if !strings.Contains(out, "You cannot use this command on the all-powerful Notch!") {
			t.Fatalf("missing rejection message: %q", out)
		}
		if !strings.Contains(out, "[to Notch]") || !strings.Contains(out, "Steve has tried to use /kick on overlord Notch!") {
			t.Fatalf("missing admin notice: %q", out)
		}
	})

	t.Run("unknown sender", func(t *testing.T) {
		if _, err := runCLI(t, "", "exec", "--config", path, "--as", "Herobrine", "list"); err == nil {
			t.Fatalf("expected error for offline sender")
		}
	})
}

func TestRulesJSON(t *testing.T) {
	path := writeTestConfig(t, testConfigYAML+`
commands:
  kick:
    source: admin_only
    aliases: [boot]
`)
	out, err := runCLI(t, "", "rules", "--config", path, "--json")
	if err != nil {
		t.Fatalf("rules error = %v", err)
	}

	var rules []struct {
		Name   string `json:"name"`
		Source string `json:"source"`
		Target string `json:"target"`
	}
	if err := json.Unmarshal([]byte(out), &rules); err != nil {
		t.Fatalf("decode rules: %v\n%s", err, out)
	}
	byName := map[string]string{}
	for _, r := range rules {
		byName[r.Name] = r.Source + "/" + r.Target
	}
	if got := byName["kick"]; got != "ADMIN_ONLY/RESTRICT_ADMIN" {
		t.Fatalf("kick = %q", got)
	}
	if got := byName["boot"]; got != "ADMIN_ONLY/RESTRICT_ADMIN" {
		t.Fatalf("boot = %q", got)
	}
	if _, ok := byName["tell"]; !ok {
		t.Fatalf("builtin alias tell missing")
	}
}

func TestRulesTable(t *testing.T) {
	out, err := runCLI(t, "", "rules")
	if err != nil {
		t.Fatalf("rules error = %v", err)
	}
	if !strings.HasPrefix(out, "NAME") || !strings.Contains(out, "/kick <player> [reason]") {
		t.Fatalf("output = %q", out)
	}
}

func TestRender(t *testing.T) {
	out, err := runCLI(t, "", "render", "--sender", "Steve", "--command", "kick", "@admin(%s) used %c")
	if err != nil {
		t.Fatalf("render error = %v", err)
	}
	if out != "Steve used kick\n" {
		t.Fatalf("output = %q", out)
	}

	out, err = runCLI(t, "", "render", "--raw", "--primary", "error", "oops")
	if err != nil {
		t.Fatalf("render error = %v", err)
	}
	if out != "&coops\n" {
		t.Fatalf("raw output = %q", out)
	}
}

func TestConfigCommands(t *testing.T) {
	good := writeTestConfig(t, testConfigYAML)
	out, err := runCLI(t, "", "config", "validate", good)
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}
	if !strings.Contains(out, "is valid (version 1, 2 players, 0 command overrides)") {
		t.Fatalf("output = %q", out)
	}

	bad := writeTestConfig(t, testConfigYAML+"commands:\n  fly:\n    max_args: 1\n")
	if _, err := runCLI(t, "", "config", "validate", bad); err == nil || !strings.Contains(err.Error(), "fly") {
		t.Fatalf("expected unknown command error, got %v", err)
	}

	if _, err := runCLI(t, "", "config", "validate"); err == nil {
		t.Fatalf("expected error without a path")
	}

	out, err = runCLI(t, "", "config", "schema")
	if err != nil {
		t.Fatalf("schema error = %v", err)
	}
	if !json.Valid([]byte(out)) {
		t.Fatalf("schema output is not JSON")
	}
}

func TestConsoleSession(t *testing.T) {
	path := writeTestConfig(t, testConfigYAML)
	input := strings.Join([]string{
		":as Steve",
		"/list",
		":console",
		"broadcast hi all",
		":join Alex world_the_end",
		":as alex",
		"hello",
		"/fly",
		":bogus",
		":quit",
		"list",
	}, "\n")

	out, err := runCLI(t, input, "console", "--config", path, "--watch=false")
	if err != nil {
		t.Fatalf("console error = %v", err)
	}
	for _, want := range []string{
		"console> ",
		"Steve> ",
		"[to Steve] There are 2 players online: Notch, Steve",
		"[Broadcast] hi all",
		"[to Notch] [Broadcast] hi all",
		"Alex> ",
		"<Alex> hello",
		"Unknown command. Type /help for help.",
		"unknown directive :bogus",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "players online") != 1 {
		t.Errorf("input after :quit should not run:\n%s", out)
	}
}

func TestConsoleChatIsLiteral(t *testing.T) {
	path := writeTestConfig(t, testConfigYAML)
	input := strings.Join([]string{
		":as Steve",
		"50%sure @red /%c",
		":console",
		"100% &cdone @red",
	}, "\n")

	out, err := runCLI(t, input, "console", "--config", path, "--watch=false")
	if err != nil {
		t.Fatalf("console error = %v", err)
	}
	for _, want := range []string{
		"<Steve> 50%sure @red /%c",
		"<The Console> 100% done @red",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Unknown command") {
		t.Errorf("player chat without a prefix ran as a command:\n%s", out)
	}
}

func TestConsolePlayersDirective(t *testing.T) {
	path := writeTestConfig(t, testConfigYAML)
	out, err := runCLI(t, ":players\n", "console", "--config", path, "--watch=false")
	if err != nil {
		t.Fatalf("console error = %v", err)
	}
	if !strings.Contains(out, "Steve at (10, 64, -5) in the nether") {
		t.Fatalf("output = %q", out)
	}
	if !strings.Contains(out, "Notch (admin) at") {
		t.Fatalf("admin not marked: %q", out)
	}
}

func TestRecords(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "records.db")
	path := writeTestConfig(t, testConfigYAML+`
storage:
  driver: sqlite
  dsn: `+dsn+`
`)
	if _, err := runCLI(t, "", "exec", "--config", path, "save"); err != nil {
		t.Fatalf("save error = %v", err)
	}

	t.Run("list", func(t *testing.T) {
		out, err := runCLI(t, "", "records", "--config", path)
		if err != nil {
			t.Fatalf("records error = %v", err)
		}
		if !strings.HasPrefix(out, "NAME") || !strings.Contains(out, "Notch") {
			t.Fatalf("output = %q", out)
		}
		if !strings.Contains(out, "(10, 64, -5) in the nether") {
			t.Fatalf("location missing: %q", out)
		}
	})

	t.Run("limit", func(t *testing.T) {
		out, err := runCLI(t, "", "records", "--config", path, "--limit", "1")
		if err != nil {
			t.Fatalf("records error = %v", err)
		}
		if lines := strings.Count(strings.TrimSpace(out), "\n"); lines != 1 {
			t.Fatalf("expected header plus one record, got %q", out)
		}
	})

	t.Run("by name", func(t *testing.T) {
		out, err := runCLI(t, "", "records", "--config", path, "steve")
		if err != nil {
			t.Fatalf("records error = %v", err)
		}
		if !strings.Contains(out, "Steve") || strings.Contains(out, "Notch") {
			t.Fatalf("output = %q", out)
		}
	})

	t.Run("by uuid", func(t *testing.T) {
		id := host.OfflineID("Steve").String()
		out, err := runCLI(t, "", "records", "--config", path, id)
		if err != nil {
			t.Fatalf("records error = %v", err)
		}
		if !strings.Contains(out, id) || !strings.Contains(out, "Steve") {
			t.Fatalf("output = %q", out)
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, err := runCLI(t, "", "records", "--config", path, "Herobrine"); err == nil {
			t.Fatalf("expected error for unknown player")
		}
	})
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "", "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "simpleplugin dev") {
		t.Fatalf("output = %q", out)
	}
}

func TestEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envPath, []byte("SIMPLEPLUGIN_TEST_ADMIN_NAME=Jeb\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("SIMPLEPLUGIN_TEST_ADMIN_NAME", "")
	os.Unsetenv("SIMPLEPLUGIN_TEST_ADMIN_NAME")
	path := writeTestConfig(t, "version: 1\nadmin:\n  name: ${SIMPLEPLUGIN_TEST_ADMIN_NAME}\n")

	out, err := runCLI(t, "", "render", "--config", path, "--env-file", envPath, "%admin")
	if err != nil {
		t.Fatalf("render error = %v", err)
	}
	if out != "Jeb\n" {
		t.Fatalf("output = %q", out)
	}

	if _, err := runCLI(t, "", "version", "--env-file", filepath.Join(dir, "missing.env")); err == nil {
		t.Fatalf("expected error for explicit missing env file")
	}
}
