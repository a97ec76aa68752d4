package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zulandar/parley/internal/config"
	"github.com/zulandar/parley/internal/conversation"
	"github.com/zulandar/parley/internal/roles"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeConfig writes a sqlite config into a temp dir and returns its path.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "parley.yaml")
	yaml := fmt.Sprintf("database:\n  driver: sqlite\n  path: %s\nlog:\n  level: error\n  format: json\n",
		filepath.Join(dir, "parley.db"))
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(out, "parley dev") {
		t.Errorf("expected output to contain 'parley dev', got: %s", out)
	}
	if !strings.Contains(out, "commit: none") {
		t.Errorf("expected output to contain 'commit: none', got: %s", out)
	}
}

func TestVersionCmdWithCustomValues(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	Version, Commit, Date = "1.0.0", "abc123", "2026-01-01"
	defer func() { Version, Commit, Date = origVersion, origCommit, origDate }()

	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	for _, want := range []string{"parley 1.0.0", "commit: abc123", "built: 2026-01-01"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got: %s", want, out)
		}
	}
}

func TestRootCmdHelp(t *testing.T) {
	out, err := run(t, "--help")
	if err != nil {
		t.Fatalf("help command failed: %v", err)
	}
	for _, want := range []string{"Parley", "version", "db", "serve", "roles", "stats", "archive"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected help output to contain %q, got: %s", want, out)
		}
	}
}

func TestExecute_ReturnsExitCode(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"version"})
	if code := execute(cmd); code != 0 {
		t.Errorf("execute(version) = %d, want 0", code)
	}

	cmd = newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"no-such-command"})
	if code := execute(cmd); code != 1 {
		t.Errorf("execute(unknown) = %d, want 1", code)
	}
}

func TestDBInitCmd_Help(t *testing.T) {
	out, err := run(t, "db", "init", "--help")
	if err != nil {
		t.Fatalf("db init --help failed: %v", err)
	}
	if !strings.Contains(out, "--config") {
		t.Errorf("expected help to mention '--config' flag, got: %s", out)
	}
}

func TestDBInitCmd_MissingConfig(t *testing.T) {
	_, err := run(t, "db", "init", "--config", "/nonexistent/parley.yaml")
	if err == nil {
		t.Fatal("expected error for missing config")
	}
	if !strings.Contains(err.Error(), "load config") {
		t.Errorf("error = %q, want to contain 'load config'", err)
	}
}

func TestDBInitCmd_SQLite(t *testing.T) {
	path := writeConfig(t)
	out, err := run(t, "db", "init", "--config", path)
	if err != nil {
		t.Fatalf("db init failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Migrated 2 tables") {
		t.Errorf("output = %s", out)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(path), "parley.db")); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestRolesCmd_List(t *testing.T) {
	out, err := run(t, "roles")
	if err != nil {
		t.Fatalf("roles failed: %v", err)
	}
	for _, r := range roles.Default().Roles() {
		if !strings.Contains(out, string(r)) {
			t.Errorf("roles output missing %q:\n%s", r, out)
		}
	}
	if !strings.Contains(out, "ROLE") {
		t.Errorf("roles output has no header:\n%s", out)
	}
}

func TestRolesCmd_Show(t *testing.T) {
	out, err := run(t, "roles", "recruiter")
	if err != nil {
		t.Fatalf("roles recruiter failed: %v", err)
	}
	for _, want := range []string{"Role: recruiter", "search_candidates", "candidate_search", "Negotiate Rate"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRolesCmd_Unknown(t *testing.T) {
	_, err := run(t, "roles", "janitor")
	if err == nil || !strings.Contains(err.Error(), "unknown role") {
		t.Fatalf("error = %v, want unknown role", err)
	}
}

func TestStatsAndArchive(t *testing.T) {
	path := writeConfig(t)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	// Seed through the same wiring the commands use.
	a, err := newApp(cfg, new(bytes.Buffer))
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	ctx := context.Background()
	conv, err := a.manager.StartConversation(ctx, "u-1", roles.Recruiter, nil, nil)
	if err != nil {
		t.Fatalf("StartConversation: %v", err)
	}
	if _, err := a.manager.AppendUserMessage(ctx, conv.ID, "u-1", "find candidates", nil); err != nil {
		t.Fatalf("AppendUserMessage: %v", err)
	}
	a.close()

	out, err := run(t, "stats", "--config", path, "--user", "u-1")
	if err != nil {
		t.Fatalf("stats failed: %v\n%s", err, out)
	}
	for _, want := range []string{"user u-1", "Conversations:   1 (1 active, 0 archived)", "Most common role: recruiter"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, "archive", conv.ID, "--config", path)
	if err != nil {
		t.Fatalf("archive failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "archived (1 messages)") {
		t.Errorf("archive output = %s", out)
	}

	out, _ = run(t, "stats", "--config", path)
	if !strings.Contains(out, "all users") || !strings.Contains(out, "0 active, 1 archived") {
		t.Errorf("global stats output = %s", out)
	}

	if _, err := run(t, "archive", "missing", "--config", path); err == nil {
		t.Error("expected error archiving a missing conversation")
	}
}

func TestArchiveCmd_RequiresID(t *testing.T) {
	if _, err := run(t, "archive"); err == nil {
		t.Fatal("expected error without conversation id")
	}
}

func TestServeCmd_Help(t *testing.T) {
	out, err := run(t, "serve", "--help")
	if err != nil {
		t.Fatalf("serve --help failed: %v", err)
	}
	for _, want := range []string{"--config", "--port", "digest"} {
		if !strings.Contains(out, want) {
			t.Errorf("serve help missing %q", want)
		}
	}
}

func TestServeCmd_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("database:\n  driver: oracle\n"), 0644)
	_, err := run(t, "serve", "--config", path)
	if err == nil || !strings.Contains(err.Error(), "not supported") {
		t.Fatalf("error = %v, want unsupported driver", err)
	}
}

func TestPublishersFor(t *testing.T) {
	pubs, err := publishersFor(config.EventsConfig{})
	if err != nil || len(pubs) != 0 {
		t.Fatalf("publishersFor(empty) = %v, %v", pubs, err)
	}
	pubs, err = publishersFor(config.EventsConfig{
		Slack:   config.SlackConfig{BotToken: "xoxb-test", ChannelID: "C1"},
		Discord: config.DiscordConfig{BotToken: "token", ChannelID: "D1"},
	})
	if err != nil {
		t.Fatalf("publishersFor: %v", err)
	}
	if len(pubs) != 2 {
		t.Errorf("len(pubs) = %d, want 2", len(pubs))
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{45230, "45,230"},
		{1234567, "1,234,567"},
		{-1500, "-1,500"},
	}
	for _, tt := range tests {
		if got := formatCount(tt.n); got != tt.want {
			t.Errorf("formatCount(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestPrintStats_Empty(t *testing.T) {
	buf := new(bytes.Buffer)
	printStats(buf, "", &conversation.Statistics{RoleDistribution: map[string]int64{}})
	out := buf.String()
	if !strings.Contains(out, "Most common role: -") {
		t.Errorf("output = %s", out)
	}
	if strings.Contains(out, "Role distribution") {
		t.Errorf("empty distribution printed:\n%s", out)
	}
}

func TestSortedRoles(t *testing.T) {
	got := sortedRoles(map[string]int64{"admin": 1, "recruiter": 3, "candidate": 3})
	want := "candidate,recruiter,admin"
	if strings.Join(got, ",") != want {
		t.Errorf("sortedRoles = %v, want %s", got, want)
	}
}
