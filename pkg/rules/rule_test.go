package rules

import (
	"errors"
	"reflect"
	"testing"

	"github.com/sdejongh/filerules/internal/testutil"
	"github.com/sdejongh/filerules/pkg/models"
)

func TestNewRule(t *testing.T) {
	r := NewRule("Downloads", testutil.NewStubIDGenerator())
	if r.ID != "id-1" || r.Title != "Downloads" || len(r.Events) != 0 {
		t.Errorf("NewRule() = %+v", r)
	}

	random := NewRule("x", nil)
	if len(random.ID) != 36 {
		t.Errorf("default generator should produce a UUID, got %q", random.ID)
	}
}

func TestRuleEvents(t *testing.T) {
	r := NewRule("r", testutil.NewStubIDGenerator())
	r.AddEvent(NewCopy("/a", false))
	r.AddEvent(NewMove("/b", false))
	r.AddEvent(NewTrash())

	if err := r.ReplaceEvent(1, NewMove("/c", true)); err != nil {
		t.Fatalf("ReplaceEvent() error = %v", err)
	}
	if r.Events[1].Placement.Target != "/c" {
		t.Errorf("event 1 target = %s, want /c", r.Events[1].Placement.Target)
	}

	if err := r.RemoveEvent(0); err != nil {
		t.Fatalf("RemoveEvent() error = %v", err)
	}
	if len(r.Events) != 2 || r.Events[0].Action != ActionMove || r.Events[1].Action != ActionTrash {
		t.Errorf("events after remove = %v", r.Events)
	}

	for _, i := range []int{-1, 2} {
		if err := r.RemoveEvent(i); err == nil {
			t.Errorf("RemoveEvent(%d) should fail", i)
		}
		if err := r.ReplaceEvent(i, NewTrash()); err == nil {
			t.Errorf("ReplaceEvent(%d) should fail", i)
		}
	}
}

func TestRuleValidate(t *testing.T) {
	r := Rule{ID: "1", Title: ""}
	var verr *models.ValidationError
	if err := r.Validate(); !errors.As(err, &verr) || verr.Field != "title" {
		t.Errorf("Validate() error = %v, want title error", err)
	}

	r.Title = "ok"
	r.AddEvent(Event{Action: ActionCopy})
	if err := r.Validate(); !errors.As(err, &verr) {
		t.Errorf("Validate() error = %v, want event error", err)
	}
}

func TestRuleMap(t *testing.T) {
	ids := testutil.NewStubIDGenerator()
	photos := NewRule("Photos", ids)
	photos.AddEvent(NewMove("~/Pictures", false))
	cleanup := NewRule("Cleanup", ids)
	cleanup.AddEvent(NewTrash())
	docs := NewRule("Docs", ids)
	docs.AddEvent(NewCopy("/srv/docs", true))

	m := RuleMap{
		"/home/u/Downloads": {photos, cleanup},
		"/home/u/Desktop":   {docs},
	}

	t.Run("Directories", func(t *testing.T) {
		want := []string{"/home/u/Desktop", "/home/u/Downloads"}
		if got := m.Directories(); !reflect.DeepEqual(got, want) {
			t.Errorf("Directories() = %v, want %v", got, want)
		}
	})

	t.Run("Clone", func(t *testing.T) {
		clone := m.Clone()
		clone["/home/u/Downloads"][0].Title = "changed"
		clone["/home/u/Downloads"][0].Events[0].Placement.Target = "/elsewhere"
		clone["/new"] = nil

		if m["/home/u/Downloads"][0].Title != "Photos" {
			t.Error("clone shares rules with original")
		}
		if m["/home/u/Downloads"][0].Events[0].Placement.Target != "~/Pictures" {
			t.Error("clone shares events with original")
		}
		if _, ok := m["/new"]; ok {
			t.Error("clone shares the map with original")
		}
	})

	t.Run("Find", func(t *testing.T) {
		dir, i, ok := m.Find(cleanup.ID)
		if !ok || dir != "/home/u/Downloads" || i != 1 {
			t.Errorf("Find() = %s, %d, %v", dir, i, ok)
		}
		if _, _, ok := m.Find("missing"); ok {
			t.Error("Find(missing) should fail")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		if err := m.Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
		bad := RuleMap{"": {docs}}
		if err := bad.Validate(); err == nil {
			t.Error("empty directory should be rejected")
		}
	})

	t.Run("Remove", func(t *testing.T) {
		clone := m.Clone()
		if !clone.Remove(docs.ID) {
			t.Fatal("Remove() = false")
		}
		if _, ok := clone["/home/u/Desktop"]; ok {
			t.Error("directory without rules should be dropped")
		}
		if !clone.Remove(photos.ID) {
			t.Fatal("Remove() = false")
		}
		if len(clone["/home/u/Downloads"]) != 1 || clone["/home/u/Downloads"][0].ID != cleanup.ID {
			t.Errorf("remaining rules = %v", clone["/home/u/Downloads"])
		}
		if clone.Remove("missing") {
			t.Error("Remove(missing) = true")
		}
		if len(m["/home/u/Downloads"]) != 2 {
			t.Error("removing from a clone must not touch the original")
		}
	})
}
