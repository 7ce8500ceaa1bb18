package form

import (
	"testing"

	"github.com/replicatedhq/kots-sub006/internal/appconfig"
)

func testGroups() []appconfig.ConfigGroup {
	return []appconfig.ConfigGroup{
		{
			Name:  "net",
			Title: "Networking",
			Items: []appconfig.ConfigItem{
				{Name: "host", Type: appconfig.TypeText, Default: "localhost", Required: true},
				{Name: "port", Type: appconfig.TypeText, Default: "8080"},
				{Name: "note", Type: appconfig.TypeLabel, Title: "A label"},
			},
		},
		{
			Name: "tls",
			Items: []appconfig.ConfigItem{
				{Name: "password", Type: appconfig.TypePassword, Default: "changeme"},
				{
					Name: "cert", Type: appconfig.TypeFile, Repeatable: true,
					ValuesByGroup: map[string]map[string]string{"tls": {}},
					CountByGroup:  map[string]int{"tls": 0},
				},
				{
					Name: "bundle", Type: appconfig.TypeSelectOne,
					Items: []appconfig.ConfigItem{{Name: "bundle_small"}, {Name: "bundle_large"}},
				},
			},
		},
	}
}

// TestApplyChangeScalar tests routing a plain value edit
func TestApplyChangeScalar(t *testing.T) {
	e := NewEngine(testGroups())
	defer e.Close()

	if err := e.ApplyChange("net", "host", []string{"db.internal"}, ""); err != nil {
		t.Fatalf("ApplyChange() error = %v", err)
	}

	snap := e.Snapshot()
	if got := snap.Groups[0].Items[0].Value; got != "db.internal" {
		t.Errorf("host value = %q, want db.internal", got)
	}
}

// TestApplyChangeNullSafe tests that an absent value yields an empty value
func TestApplyChangeNullSafe(t *testing.T) {
	e := NewEngine(testGroups())
	defer e.Close()

	if err := e.ApplyChange("net", "host", nil, ""); err != nil {
		t.Fatalf("ApplyChange() error = %v", err)
	}
	if got := e.Snapshot().Groups[0].Items[0].Value; got != "" {
		t.Errorf("host value = %q, want empty", got)
	}
}

// TestApplyChangeClearsRequiredError tests that editing resolves a save complaint
func TestApplyChangeClearsRequiredError(t *testing.T) {
	groups := testGroups()
	groups[0].Items[0].Error = RequiredItemMessage

	e := NewEngine(groups)
	defer e.Close()

	if err := e.ApplyChange("net", "host", []string{"db.internal"}, ""); err != nil {
		t.Fatalf("ApplyChange() error = %v", err)
	}
	if got := e.Snapshot().Groups[0].Items[0].Error; got != "" {
		t.Errorf("host error = %q, want cleared", got)
	}
}

// TestApplyChangeFileBatch tests the multi-file descriptor batch path
func TestApplyChangeFileBatch(t *testing.T) {
	e := NewEngine(testGroups())
	defer e.Close()

	// Seed the bucket with an instance the batch must replace.
	if _, err := e.AddInstance("tls", "cert"); err != nil {
		t.Fatalf("AddInstance() error = %v", err)
	}

	if err := e.ApplyChange("tls", "cert", []string{"Q0VSVA==", "S0VZ"}, ""); err != nil {
		t.Fatalf("ApplyChange() error = %v", err)
	}

	item := e.Snapshot().Groups[1].Items[1]
	bucket := item.ValuesByGroup["tls"]
	if len(bucket) != 2 {
		t.Fatalf("bucket has %d entries, want 2 (old instances cleared)", len(bucket))
	}
	if bucket["Q0VSVA=="] != "Q0VSVA==" || bucket["S0VZ"] != "S0VZ" {
		t.Errorf("bucket not keyed by value tokens: %v", bucket)
	}
	if item.CountByGroup["tls"] != 2 {
		t.Errorf("count = %d, want 2", item.CountByGroup["tls"])
	}
}

// TestApplyChangeFileFilename tests filename capture for single file items
func TestApplyChangeFileFilename(t *testing.T) {
	groups := []appconfig.ConfigGroup{
		{Name: "tls", Items: []appconfig.ConfigItem{{Name: "ca", Type: appconfig.TypeFile}}},
	}
	e := NewEngine(groups)
	defer e.Close()

	if err := e.ApplyChange("tls", "ca", []string{"Q0E="}, "ca.pem"); err != nil {
		t.Fatalf("ApplyChange() error = %v", err)
	}

	item := e.Snapshot().Groups[0].Items[0]
	if item.Value != "Q0E=" || item.Filename != "ca.pem" {
		t.Errorf("got value=%q filename=%q, want Q0E= / ca.pem", item.Value, item.Filename)
	}
}

// TestApplyChangeVariadicText tests keyed writes into a live instance bucket
func TestApplyChangeVariadicText(t *testing.T) {
	groups := []appconfig.ConfigGroup{
		{Name: "hosts", Items: []appconfig.ConfigItem{{
			Name: "endpoint", Type: appconfig.TypeText, Repeatable: true,
			ValuesByGroup: map[string]map[string]string{"hosts": {"endpoint-1": "a.internal"}},
			CountByGroup:  map[string]int{"hosts": 1},
		}}},
	}
	e := NewEngine(groups)
	defer e.Close()

	if err := e.ApplyChange("hosts", "endpoint", []string{"b.internal"}, "endpoint-1"); err != nil {
		t.Fatalf("ApplyChange() error = %v", err)
	}

	item := e.Snapshot().Groups[0].Items[0]
	if got := item.ValuesByGroup["hosts"]["endpoint-1"]; got != "b.internal" {
		t.Errorf("instance value = %q, want b.internal", got)
	}
}

// TestApplyChangeNestedChild tests one-level recursion into container items
func TestApplyChangeNestedChild(t *testing.T) {
	groups := []appconfig.ConfigGroup{
		{Name: "certs", Items: []appconfig.ConfigItem{{
			Name: "bundle", Type: appconfig.TypeFile,
			Items: []appconfig.ConfigItem{
				{Name: "ca", Type: appconfig.TypeFile},
				{Name: "chain", Type: appconfig.TypeFile, Multiple: true},
			},
		}}},
	}
	e := NewEngine(groups)
	defer e.Close()

	t.Run("Single-value child", func(t *testing.T) {
		if err := e.ApplyChange("certs", "ca", []string{"Q0E="}, "ca.pem"); err != nil {
			t.Fatalf("ApplyChange() error = %v", err)
		}
		child := e.Snapshot().Groups[0].Items[0].Items[0]
		if child.Value != "Q0E=" || child.Filename != "ca.pem" {
			t.Errorf("child = %q/%q, want Q0E=/ca.pem", child.Value, child.Filename)
		}
	})

	t.Run("Array-valued child", func(t *testing.T) {
		if err := e.ApplyChange("certs", "chain", []string{"QQ==", "Qg=="}, "chain.pem"); err != nil {
			t.Fatalf("ApplyChange() error = %v", err)
		}
		child := e.Snapshot().Groups[0].Items[0].Items[1]
		if len(child.MultiValue) != 2 {
			t.Fatalf("MultiValue has %d entries, want 2", len(child.MultiValue))
		}
		if len(child.MultiFilename) != 1 || child.MultiFilename[0] != "chain.pem" {
			t.Errorf("MultiFilename = %v, want [chain.pem]", child.MultiFilename)
		}
	})
}

// TestApplyChangeSkipsStructural tests that structural types never receive edits
func TestApplyChangeSkipsStructural(t *testing.T) {
	e := NewEngine(testGroups())
	defer e.Close()

	// "note" exists in the group but is a label, so routing must not find it.
	if err := e.ApplyChange("net", "note", []string{"x"}, ""); err == nil {
		t.Error("expected routing to a label item to fail")
	}
}

// TestApplyChangeUnknownTargets tests routing failures
func TestApplyChangeUnknownTargets(t *testing.T) {
	e := NewEngine(testGroups())
	defer e.Close()

	if err := e.ApplyChange("missing", "host", []string{"x"}, ""); err == nil {
		t.Error("expected unknown group to fail")
	}
	if err := e.ApplyChange("net", "missing", []string{"x"}, ""); err == nil {
		t.Error("expected unknown item to fail")
	}
	// select_one children are options, not editable sub-items.
	if err := e.ApplyChange("tls", "bundle_small", []string{"1"}, ""); err == nil {
		t.Error("expected select_one child routing to fail")
	}
}

// TestVariadicRoundTrip tests the add/remove instance contract
func TestVariadicRoundTrip(t *testing.T) {
	e := NewEngine(testGroups())
	defer e.Close()

	key1, err := e.AddInstance("tls", "cert")
	if err != nil {
		t.Fatalf("AddInstance() error = %v", err)
	}
	key2, err := e.AddInstance("tls", "cert")
	if err != nil {
		t.Fatalf("AddInstance() error = %v", err)
	}
	if key1 == key2 {
		t.Fatalf("instance keys collide: %q", key1)
	}

	item := e.Snapshot().Groups[1].Items[1]
	if item.CountByGroup["tls"] != 2 || len(item.ValuesByGroup["tls"]) != 2 {
		t.Fatalf("after two adds: count=%d bucket=%d, want 2/2",
			item.CountByGroup["tls"], len(item.ValuesByGroup["tls"]))
	}

	if err := e.RemoveInstance("tls", "cert", key1); err != nil {
		t.Fatalf("RemoveInstance() error = %v", err)
	}
	item = e.Snapshot().Groups[1].Items[1]
	if item.CountByGroup["tls"] != 1 || len(item.ValuesByGroup["tls"]) != 1 {
		t.Errorf("after remove: count=%d bucket=%d, want 1/1",
			item.CountByGroup["tls"], len(item.ValuesByGroup["tls"]))
	}
	if _, exists := item.ValuesByGroup["tls"][key1]; exists {
		t.Errorf("removed key %q still present", key1)
	}

	// Removing the last instance leaves the bucket, so the field stays
	// addable.
	if err := e.RemoveInstance("tls", "cert", key2); err != nil {
		t.Fatalf("RemoveInstance() error = %v", err)
	}
	item = e.Snapshot().Groups[1].Items[1]
	if item.ValuesByGroup["tls"] == nil {
		t.Error("bucket removed with last instance; field became unaddable")
	}
	if item.CountByGroup["tls"] != 0 {
		t.Errorf("count = %d, want 0", item.CountByGroup["tls"])
	}

	if _, err := e.AddInstance("tls", "cert"); err != nil {
		t.Errorf("AddInstance() after emptying failed: %v", err)
	}

	// Unknown key is an error, not a silent no-op.
	if err := e.RemoveInstance("tls", "cert", "nope"); err == nil {
		t.Error("expected RemoveInstance with unknown key to fail")
	}
}

// TestSnapshotIsolation tests that snapshots never share state with the engine
func TestSnapshotIsolation(t *testing.T) {
	e := NewEngine(testGroups())
	defer e.Close()

	snap := e.Snapshot()
	snap.Groups[0].Items[0].Value = "tampered"

	if got := e.Snapshot().Groups[0].Items[0].Value; got == "tampered" {
		t.Error("snapshot shares state with the canonical tree")
	}
}

// TestEditBuffer tests focused-edit protection
func TestEditBuffer(t *testing.T) {
	var b EditBuffer

	if !b.SyncFrom("localhost") {
		t.Error("initial sync should adopt the canonical value")
	}
	if b.Value() != "localhost" {
		t.Errorf("buffer = %q, want localhost", b.Value())
	}

	b.Focus()
	b.Set("db.int")
	if b.SyncFrom("db.internal") {
		t.Error("sync must not clobber a focused buffer")
	}
	if b.Value() != "db.int" {
		t.Errorf("buffer = %q, want in-progress db.int", b.Value())
	}
	if !b.Touched() {
		t.Error("buffer should report touched after Set")
	}

	b.Blur()
	if !b.SyncFrom("db.internal") {
		t.Error("sync should apply after blur")
	}
	if b.Value() != "db.internal" {
		t.Errorf("buffer = %q, want db.internal", b.Value())
	}
	if b.Touched() {
		t.Error("buffer should report untouched after canonical sync")
	}
}
