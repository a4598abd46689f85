package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sdejongh/filerules/pkg/output"
	"github.com/sdejongh/filerules/pkg/rules"
)

// setupHome points HOME and the XDG directories at a temp dir and creates
// ~/Downloads and ~/Docs
func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, ".local", "share"))

	for _, dir := range []string{"Downloads", "Docs"} {
		if err := os.MkdirAll(filepath.Join(home, dir), 0755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}
	return home
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

func executeContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("%v: error = %v\n%s", args, err, out)
	}
	return out
}

func listRules(t *testing.T) []output.JSONRuleData {
	t.Helper()
	var data []output.JSONRuleData
	out := mustExecute(t, "rules", "list", "-o", "json")
	if err := json.Unmarshal([]byte(out), &data); err != nil {
		t.Fatalf("rules list output is not JSON: %v\n%s", err, out)
	}
	return data
}

func addMoveRule(t *testing.T) rules.Rule {
	t.Helper()
	mustExecute(t, "rules", "add", "~/Downloads", "--title", "Docs",
		"--action", "move", "--target", "~/Docs", "--tag", "File", "--tag", "!Empty")
	data := listRules(t)
	if len(data) != 1 {
		t.Fatalf("got %d rules, want 1", len(data))
	}
	return rules.Rule{ID: data[0].ID, Title: data[0].Title, Events: data[0].Events}
}

func TestRulesAddListRemove(t *testing.T) {
	home := setupHome(t)

	out := mustExecute(t, "rules", "add", "~/Downloads", "--title", "Docs",
		"--action", "move", "--target", "~/Docs", "--tag", "File", "--tag", "!Empty")
	if !strings.Contains(out, "Move File & !Empty to ~/Docs") {
		t.Errorf("add output = %q", out)
	}

	data := listRules(t)
	if len(data) != 1 {
		t.Fatalf("got %d rules, want 1", len(data))
	}
	if data[0].Directory != filepath.Join(home, "Downloads") {
		t.Errorf("Directory = %s, want absolute path", data[0].Directory)
	}
	id := data[0].ID

	mustExecute(t, "rules", "add", "--rule", id, "--action", "trash", "--tag", "Folder")
	data = listRules(t)
	if len(data) != 1 || len(data[0].Events) != 2 || data[0].Events[1].Action != rules.ActionTrash {
		t.Fatalf("rule after appending = %+v", data)
	}

	human := mustExecute(t, "rules", "list")
	if !strings.Contains(human, "2. Trash Folder") {
		t.Errorf("human list = %q", human)
	}

	mustExecute(t, "rules", "remove", id)
	if data := listRules(t); len(data) != 0 {
		t.Errorf("rules after remove = %+v", data)
	}
	if _, err := execute(t, "rules", "remove", id); err == nil {
		t.Error("removing an unknown rule should fail")
	}
}

func TestRulesAdd_Errors(t *testing.T) {
	setupHome(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing directory", []string{"~/Nowhere", "--title", "x"}},
		{"no directory", []string{"--title", "x"}},
		{"no title", []string{"~/Downloads"}},
		{"unknown tag", []string{"~/Downloads", "--title", "x", "--tag", "Sparkly"}},
		{"unknown action", []string{"~/Downloads", "--title", "x", "--action", "shred"}},
		{"relative target", []string{"~/Downloads", "--title", "x", "--target", "Docs"}},
		{"unknown rule", []string{"--rule", "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"rules", "add"}, tt.args...)
			if _, err := execute(t, args...); err == nil {
				t.Errorf("%v should fail", args)
			}
		})
	}

	if data := listRules(t); len(data) != 0 {
		t.Errorf("failed adds must not save rules: %+v", data)
	}
}

func TestOnce(t *testing.T) {
	home := setupHome(t)
	addMoveRule(t)

	src := filepath.Join(home, "Downloads", "report.txt")
	if err := os.WriteFile(src, []byte("q3"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Mkdir(filepath.Join(home, "Downloads", "folder"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	out := mustExecute(t, "once", "-o", "json")
	var report output.JSONPassData
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("once output is not JSON: %v\n%s", err, out)
	}
	if report.Stats.ActedOn != 1 {
		t.Errorf("ActedOn = %d, want 1", report.Stats.ActedOn)
	}
	if _, err := os.Stat(filepath.Join(home, "Docs", "report.txt")); err != nil {
		t.Errorf("file was not moved: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, "Downloads", "folder")); err != nil {
		t.Errorf("folder should not match the rule: %v", err)
	}

	var entries []rules.LogEntry
	logOut := mustExecute(t, "log", "-o", "json")
	if err := json.Unmarshal([]byte(logOut), &entries); err != nil {
		t.Fatalf("log output is not JSON: %v\n%s", err, logOut)
	}
	if len(entries) != 1 || entries[0].SourcePath != src {
		t.Errorf("log entries = %+v", entries)
	}

	human := mustExecute(t, "log")
	if !strings.Contains(human, "Move "+src) {
		t.Errorf("human log = %q", human)
	}
}

func TestOnce_ReportsProblems(t *testing.T) {
	home := setupHome(t)
	mustExecute(t, "rules", "add", "~/Downloads", "--title", "Broken",
		"--action", "copy", "--target", "~/Missing", "--tag", "File")
	if err := os.WriteFile(filepath.Join(home, "Downloads", "a.txt"), []byte("a"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := execute(t, "once")
	if err == nil {
		t.Fatal("once should fail when an action fails")
	}
	if !strings.Contains(out, "Failed:     1 item") {
		t.Errorf("once output = %q", out)
	}
}

func TestOnce_Bandwidth(t *testing.T) {
	home := setupHome(t)
	mustExecute(t, "rules", "add", "~/Downloads", "--title", "Backup",
		"--action", "copy", "--target", "~/Docs", "--tag", "File")
	if err := os.WriteFile(filepath.Join(home, "Downloads", "a.txt"), []byte("a"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := execute(t, "once", "--bandwidth", "fast"); err == nil {
		t.Error("once should reject an invalid bandwidth limit")
	}

	mustExecute(t, "once", "--bandwidth", "1MB")
	if _, err := os.Stat(filepath.Join(home, "Docs", "a.txt")); err != nil {
		t.Errorf("file was not copied: %v", err)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	home := setupHome(t)
	addMoveRule(t)

	src := filepath.Join(home, "Downloads", "notes.txt")
	dst := filepath.Join(home, "Docs", "notes.txt")
	if err := os.WriteFile(src, []byte("n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if _, err := os.Stat(dst); err == nil {
				break
			}
			time.Sleep(10 * time.Millisecond)
		}
		cancel()
	}()

	if _, err := executeContext(t, ctx, "run", "--quiet"); err != nil {
		t.Fatalf("run error = %v", err)
	}

	if _, err := os.Stat(dst); err != nil {
		t.Fatalf("file was not moved: %v", err)
	}
	var entries []rules.LogEntry
	if err := json.Unmarshal([]byte(mustExecute(t, "log", "-o", "json")), &entries); err != nil {
		t.Fatalf("log: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("saved log has %d entries, want 1", len(entries))
	}
}

func TestRulesExportImport(t *testing.T) {
	home := setupHome(t)
	rule := addMoveRule(t)
	exportPath := filepath.Join(home, "rules.yaml")

	mustExecute(t, "rules", "export", "--file", exportPath)
	mustExecute(t, "rules", "remove", rule.ID)

	mustExecute(t, "rules", "import", exportPath)
	data := listRules(t)
	if len(data) != 1 || data[0].ID != rule.ID || data[0].Events[0].Describe() != rule.Events[0].Describe() {
		t.Errorf("imported rules = %+v", data)
	}

	if _, err := execute(t, "rules", "import", "--merge", exportPath); err == nil {
		t.Error("merging a rule that already exists should fail")
	}

	stdout := mustExecute(t, "rules", "export")
	if !strings.Contains(stdout, "title: Docs") {
		t.Errorf("export to stdout = %q", stdout)
	}
}

func TestTags(t *testing.T) {
	setupHome(t)

	out := mustExecute(t, "tags")
	for _, name := range []string{"Image", "Empty", "Larger than 100 MB"} {
		if !strings.Contains(out, name) {
			t.Errorf("tags output missing %q", name)
		}
	}
}

func TestConfigInitShow(t *testing.T) {
	home := setupHome(t)

	out := mustExecute(t, "config", "init")
	path := filepath.Join(home, ".config", "filerules", "config.yaml")
	if !strings.Contains(out, path) {
		t.Errorf("init output = %q, want path %s", out, path)
	}
	if _, err := execute(t, "config", "init"); err == nil {
		t.Error("init should refuse to overwrite without --force")
	}
	mustExecute(t, "config", "init", "--force")

	show := mustExecute(t, "config", "show")
	for _, want := range []string{"Interval: 5s", "Trash Mode: trash", "Log File: (stderr)"} {
		if !strings.Contains(show, want) {
			t.Errorf("show output missing %q:\n%s", want, show)
		}
	}

	custom := filepath.Join(home, "custom.yaml")
	if err := os.WriteFile(custom, []byte("scheduler:\n  interval: 1m\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if show := mustExecute(t, "--config", custom, "config", "show"); !strings.Contains(show, "Interval: 1m0s") {
		t.Errorf("--config should be honored:\n%s", show)
	}
}

func TestVersion(t *testing.T) {
	if out := mustExecute(t, "version", "--short"); strings.TrimSpace(out) != Version {
		t.Errorf("version --short = %q", out)
	}
}
