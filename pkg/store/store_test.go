package store

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sdejongh/filerules/internal/testutil"
	"github.com/sdejongh/filerules/pkg/activity"
	"github.com/sdejongh/filerules/pkg/rules"
	"github.com/sdejongh/filerules/pkg/tags"
)

func sampleRuleMap(t *testing.T) rules.RuleMap {
	t.Helper()
	ids := testutil.NewStubIDGenerator()

	image, _ := tags.Lookup("Image")
	large, _ := tags.Lookup("Larger than 100 MB")
	photos := rules.NewRule("Photos", ids)
	move := rules.NewMove("~/Pictures", false)
	move.SetSelector(tags.NewExpression(image, true))
	move.Selector.Push(large, false)
	photos.AddEvent(move)

	empty, _ := tags.Lookup("Empty")
	cleanup := rules.NewRule("Cleanup", ids)
	trash := rules.NewTrash()
	trash.SetSelector(tags.NewExpression(empty, true))
	cleanup.AddEvent(trash)
	cleanup.AddEvent(rules.NewCopy("/srv/backup", true))

	return rules.RuleMap{"/home/u/Downloads": {photos, cleanup}}
}

func assertSameRules(t *testing.T, got, want rules.RuleMap) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d directories, want %d", len(got), len(want))
	}
	for dir, wantRules := range want {
		gotRules := got[dir]
		if len(gotRules) != len(wantRules) {
			t.Fatalf("%s: got %d rules, want %d", dir, len(gotRules), len(wantRules))
		}
		for i, w := range wantRules {
			g := gotRules[i]
			if g.ID != w.ID || g.Title != w.Title || len(g.Events) != len(w.Events) {
				t.Fatalf("rule %d = %+v, want %+v", i, g, w)
			}
			for j := range w.Events {
				if g.Events[j].Describe() != w.Events[j].Describe() {
					t.Errorf("event %d = %s, want %s", j, g.Events[j].Describe(), w.Events[j].Describe())
				}
				for k, term := range w.Events[j].Selector.Terms() {
					if !g.Events[j].Selector.Terms()[k].Tag.Equal(term.Tag) {
						t.Errorf("event %d term %d differs", j, k)
					}
				}
			}
		}
	}
}

func TestRulesRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	want := sampleRuleMap(t)

	if err := s.SaveRules(want); err != nil {
		t.Fatalf("SaveRules() error = %v", err)
	}
	got, err := s.LoadRules()
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}
	assertSameRules(t, got, want)

	data, err := os.ReadFile(s.RulesPath())
	if err != nil {
		t.Fatalf("read rules file: %v", err)
	}
	if !strings.Contains(string(data), `"version": 1`) {
		t.Errorf("rules file should carry a version:\n%s", data)
	}
}

func TestLoadMissingFiles(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "not-created-yet"))

	m, err := s.LoadRules()
	if err != nil || m == nil || len(m) != 0 {
		t.Errorf("LoadRules() = %v, %v, want empty map", m, err)
	}
	log, err := s.LoadLog()
	if err != nil || log == nil || log.Len() != 0 {
		t.Errorf("LoadLog() = %v, %v, want empty log", log, err)
	}
}

func TestLogRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	log := activity.NewLog(
		rules.LogEntry{ID: "1", Event: rules.NewCopy("~/x", true), Directory: "/d", Rule: "r",
			TargetDir: "/home/u/x", SourcePath: "/d/a", ResultingPath: "/home/u/x/a", Time: at},
		rules.LogEntry{ID: "2", Event: rules.NewTrash(), Directory: "/d", Rule: "r",
			SourcePath: "/d/b", ResultingPath: "/d/b", Time: at.Add(time.Second)},
	)

	if err := s.SaveLog(log); err != nil {
		t.Fatalf("SaveLog() error = %v", err)
	}
	loaded, err := s.LoadLog()
	if err != nil {
		t.Fatalf("LoadLog() error = %v", err)
	}

	got, want := loaded.Entries(), log.Entries()
	if len(got) != len(want) {
		t.Fatalf("loaded %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].TargetDir != want[i].TargetDir ||
			got[i].ResultingPath != want[i].ResultingPath || !got[i].Time.Equal(want[i].Time) ||
			got[i].Event.Describe() != want[i].Event.Describe() {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	for i := 0; i < 3; i++ {
		if err := s.SaveRules(sampleRuleMap(t)); err != nil {
			t.Fatalf("SaveRules() error = %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != rulesFileName {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("data dir = %v, want only %s", names, rulesFileName)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Corrupt", "{not json"},
		{"NewerVersion", `{"version": 99, "rules": {}}`},
		{"UnknownBasis", `{"version": 1, "rules": {"/d": [{"id": "1", "title": "t", "events": [
			{"action": "trash", "selector": {"head": {"included": true,
			"tag": {"name": "x", "description": "", "basis": {"kind": "telepathy"}}}}}]}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(t.TempDir())
			if err := os.WriteFile(s.RulesPath(), []byte(tt.content), 0644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := s.LoadRules(); err == nil {
				t.Error("LoadRules() should fail")
			}
		})
	}
}

func TestExportImportRules(t *testing.T) {
	want := sampleRuleMap(t)

	var buf bytes.Buffer
	if err := ExportRules(&buf, want); err != nil {
		t.Fatalf("ExportRules() error = %v", err)
	}
	text := buf.String()
	for _, fragment := range []string{"version: 1", "/home/u/Downloads:", "action: move", "kind: is_image"} {
		if !strings.Contains(text, fragment) {
			t.Errorf("export should contain %q:\n%s", fragment, text)
		}
	}

	got, err := ImportRules(strings.NewReader(text))
	if err != nil {
		t.Fatalf("ImportRules() error = %v", err)
	}
	assertSameRules(t, got, want)
}

func TestImportRules_Invalid(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		m, err := ImportRules(strings.NewReader(""))
		if err != nil || len(m) != 0 {
			t.Errorf("ImportRules(empty) = %v, %v", m, err)
		}
	})

	t.Run("RelativeTarget", func(t *testing.T) {
		doc := `
version: 1
rules:
  /d:
    - id: "1"
      title: t
      events:
        - action: copy
          selector:
            head:
              included: true
              tag: {name: File, description: f, basis: {kind: type, type: file}}
          placement: {target: relative, overwrite: false}
`
		if _, err := ImportRules(strings.NewReader(doc)); err == nil {
			t.Error("relative target should be rejected")
		}
	})

	t.Run("Malformed", func(t *testing.T) {
		if _, err := ImportRules(strings.NewReader("rules: [")); err == nil {
			t.Error("malformed YAML should be rejected")
		}
	})
}

func TestDefault(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/xdg/data")
	s, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if s.Dir() != filepath.Join("/xdg/data", "filerules") {
		t.Errorf("Dir() = %s", s.Dir())
	}
}
