package form

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/replicatedhq/kots-sub006/internal/appconfig"
)

type fakeSaver struct {
	mu     sync.Mutex
	result *SaveResult
	err    error
	saved  [][]appconfig.ConfigGroup
}

func (s *fakeSaver) Save(ctx context.Context, groups []appconfig.ConfigGroup) (*SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, appconfig.CloneGroups(groups))
	return s.result, s.err
}

// TestSaveSuccess tests that a successful save clears stale errors
func TestSaveSuccess(t *testing.T) {
	groups := testGroups()
	groups[0].Items[0].Error = RequiredItemMessage
	groups[0].HasError = true

	e := NewEngine(groups)
	defer e.Close()

	saver := &fakeSaver{result: &SaveResult{Success: true}}
	outcome, err := e.Save(context.Background(), saver)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !outcome.Saved {
		t.Fatal("outcome.Saved = false, want true")
	}
	if outcome.ScrollTarget != "" {
		t.Errorf("ScrollTarget = %q on success, want empty", outcome.ScrollTarget)
	}

	snap := e.Snapshot()
	if snap.Groups[0].Items[0].Error != "" {
		t.Error("required-field error survived a successful save")
	}
	if snap.Groups[0].HasError {
		t.Error("group HasError survived a successful save")
	}
}

// TestSaveRejectedRequiredItems tests the §required-items rejection path
func TestSaveRejectedRequiredItems(t *testing.T) {
	e := NewEngine(testGroups())
	defer e.Close()

	saver := &fakeSaver{result: &SaveResult{
		Success:       false,
		RequiredItems: []string{"host"},
	}}

	outcome, err := e.Save(context.Background(), saver)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if outcome.Saved {
		t.Fatal("outcome.Saved = true for rejected save")
	}

	host := appconfig.FindGroup(e.Snapshot().Groups, "net").FindItem("host")
	if host.Error != RequiredItemMessage {
		t.Errorf("host error = %q, want %q", host.Error, RequiredItemMessage)
	}

	// Scroll target names the first errored group, reported once in the
	// outcome.
	if outcome.ScrollTarget != "net" {
		t.Errorf("ScrollTarget = %q, want net", outcome.ScrollTarget)
	}
}

// TestSaveRejectedValidationErrors tests overlay merging on rejection
func TestSaveRejectedValidationErrors(t *testing.T) {
	e := NewEngine(testGroups())
	defer e.Close()

	saver := &fakeSaver{result: &SaveResult{
		Success: false,
		Error:   "config is invalid",
		ValidationErrors: []appconfig.GroupValidationErrors{{
			Name: "tls",
			ItemErrors: []appconfig.ItemValidationErrors{{
				Name:             "password",
				ValidationErrors: []appconfig.ItemValidationError{{Message: "too short"}},
			}},
		}},
	}}

	outcome, err := e.Save(context.Background(), saver)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if outcome.Error != "config is invalid" {
		t.Errorf("outcome.Error = %q", outcome.Error)
	}

	snap := e.Snapshot()
	password := appconfig.FindGroup(snap.Groups, "tls").FindItem("password")
	if password.ValidationError != "too short" {
		t.Errorf("password validation error = %q, want too short", password.ValidationError)
	}
	if outcome.ScrollTarget != "tls" {
		t.Errorf("ScrollTarget = %q, want tls", outcome.ScrollTarget)
	}
	if !snap.HasUnresolvedErrors {
		t.Error("unresolved-errors flag not set after rejected save")
	}
}

// TestSaveTransportError tests that transport failures leave the tree alone
func TestSaveTransportError(t *testing.T) {
	e := NewEngine(testGroups())
	defer e.Close()

	saver := &fakeSaver{err: errors.New("connection refused")}
	if _, err := e.Save(context.Background(), saver); err == nil {
		t.Fatal("expected transport error to surface")
	}

	snap := e.Snapshot()
	for _, group := range snap.Groups {
		for _, item := range group.Items {
			if item.Error != "" || item.ValidationError != "" {
				t.Errorf("item %s/%s gained an error from a transport failure", group.Name, item.Name)
			}
		}
	}
}

// TestSaveSendsCurrentTree tests that the saver receives the live edits
func TestSaveSendsCurrentTree(t *testing.T) {
	e := NewEngine(testGroups())
	defer e.Close()

	if err := e.ApplyChange("net", "host", []string{"db.internal"}, ""); err != nil {
		t.Fatalf("ApplyChange() error = %v", err)
	}

	saver := &fakeSaver{result: &SaveResult{Success: true}}
	if _, err := e.Save(context.Background(), saver); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	saver.mu.Lock()
	defer saver.mu.Unlock()
	if len(saver.saved) != 1 {
		t.Fatalf("saver called %d times, want 1", len(saver.saved))
	}
	if got := saver.saved[0][0].Items[0].Value; got != "db.internal" {
		t.Errorf("saved value = %q, want db.internal", got)
	}
}
