package appconfig

import (
	"reflect"
	"testing"
)

// TestEffectiveValue tests value/default fallback semantics
func TestEffectiveValue(t *testing.T) {
	tests := []struct {
		name string
		item ConfigItem
		want string
	}{
		{"Value set: value wins", ConfigItem{Value: "db.internal", Default: "localhost"}, "db.internal"},
		{"Value empty: default wins", ConfigItem{Default: "localhost"}, "localhost"},
		{"Both empty: empty", ConfigItem{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.EffectiveValue(); got != tt.want {
				t.Errorf("EffectiveValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestIsHidden tests the combined hidden/when predicate
func TestIsHidden(t *testing.T) {
	tests := []struct {
		name string
		item ConfigItem
		want bool
	}{
		{"Visible: no flags", ConfigItem{Name: "host"}, false},
		{"Hidden: explicit flag", ConfigItem{Name: "host", Hidden: true}, true},
		{"Hidden: when false", ConfigItem{Name: "host", When: "false"}, true},
		{"Visible: when true", ConfigItem{Name: "host", When: "true"}, false},
		{"Visible: when arbitrary", ConfigItem{Name: "host", When: "repl{{ ConfigOptionEquals ... }}"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.IsHidden(); got != tt.want {
				t.Errorf("IsHidden() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestBoolValue tests "1"/"0" bool semantics
func TestBoolValue(t *testing.T) {
	tests := []struct {
		name string
		item ConfigItem
		want bool
	}{
		{"True: value 1", ConfigItem{Type: TypeBool, Value: BoolTrue}, true},
		{"False: value 0", ConfigItem{Type: TypeBool, Value: BoolFalse}, false},
		{"True: default 1", ConfigItem{Type: TypeBool, Default: "1"}, true},
		{"False: empty", ConfigItem{Type: TypeBool}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.BoolValue(); got != tt.want {
				t.Errorf("BoolValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestMaskValue tests password default masking
func TestMaskValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Empty stays empty", "", ""},
		{"Three chars, three bullets", "abc", "•••"},
		{"Multibyte counted as runes", "pässword", "••••••••"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaskValue(tt.input)
			if got != tt.want {
				t.Errorf("MaskValue(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if tt.input != "" && got == tt.input {
				t.Errorf("MaskValue(%q) leaked the literal input", tt.input)
			}
		})
	}
}

// TestItemTypeSupported tests the closed type set
func TestItemTypeSupported(t *testing.T) {
	supported := []ItemType{
		TypeText, TypeTextarea, TypeBool, TypePassword, TypeFile,
		TypeSelectOne, TypeSelectMany, TypeLabel, TypeHeading, TypeDropdown,
	}
	for _, typ := range supported {
		if !typ.Supported() {
			t.Errorf("expected %q to be supported", typ)
		}
	}

	for _, typ := range []ItemType{"unknown_type", "", "TEXT", "select"} {
		if typ.Supported() {
			t.Errorf("expected %q to be unsupported", typ)
		}
	}
}

// TestItemTypeStructural tests which types change routing skips
func TestItemTypeStructural(t *testing.T) {
	structural := map[ItemType]bool{
		TypeSelectMany: true,
		TypeLabel:      true,
		TypeHeading:    true,
		TypeText:       false,
		TypeFile:       false,
		TypeSelectOne:  false,
	}
	for typ, want := range structural {
		if got := typ.Structural(); got != want {
			t.Errorf("Structural(%q) = %v, want %v", typ, got, want)
		}
	}
}

// TestCloneIndependence tests that edits to a clone never reach the original
func TestCloneIndependence(t *testing.T) {
	original := ConfigGroup{
		Name: "net",
		Items: []ConfigItem{
			{
				Name:  "host",
				Type:  TypeText,
				Value: "localhost",
				ValuesByGroup: map[string]map[string]string{
					"net": {"host-1": "a"},
				},
				CountByGroup: map[string]int{"net": 1},
				Validation:   &ItemValidation{Regex: &RegexValidator{Pattern: ".+"}},
				Items:        []ConfigItem{{Name: "nested", Type: TypeText}},
			},
		},
	}

	clone := original.Clone()
	clone.Items[0].Value = "changed"
	clone.Items[0].ValuesByGroup["net"]["host-1"] = "b"
	clone.Items[0].CountByGroup["net"] = 9
	clone.Items[0].Validation.Regex.Pattern = "changed"
	clone.Items[0].Items[0].Name = "changed"

	if original.Items[0].Value != "localhost" {
		t.Error("clone shared Value with original")
	}
	if original.Items[0].ValuesByGroup["net"]["host-1"] != "a" {
		t.Error("clone shared ValuesByGroup with original")
	}
	if original.Items[0].CountByGroup["net"] != 1 {
		t.Error("clone shared CountByGroup with original")
	}
	if original.Items[0].Validation.Regex.Pattern != ".+" {
		t.Error("clone shared Validation with original")
	}
	if original.Items[0].Items[0].Name != "nested" {
		t.Error("clone shared nested Items with original")
	}
}

// TestInstanceKeys tests stable enumeration of repeatable instances
func TestInstanceKeys(t *testing.T) {
	item := ConfigItem{
		Name: "cert",
		ValuesByGroup: map[string]map[string]string{
			"tls": {"cert-3": "c", "cert-1": "a", "cert-2": "b"},
		},
	}

	want := []string{"cert-1", "cert-2", "cert-3"}
	for i := 0; i < 5; i++ {
		got := item.InstanceKeys("tls")
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("InstanceKeys() = %v, want %v", got, want)
		}
	}

	if keys := item.InstanceKeys("missing"); keys != nil {
		t.Errorf("InstanceKeys(missing group) = %v, want nil", keys)
	}
}

// TestFindGroupAndItem tests name-based lookup
func TestFindGroupAndItem(t *testing.T) {
	groups := []ConfigGroup{
		{Name: "net", Items: []ConfigItem{{Name: "host"}, {Name: "port"}}},
		{Name: "tls"},
	}

	group := FindGroup(groups, "net")
	if group == nil {
		t.Fatal("FindGroup(net) returned nil")
	}
	if item := group.FindItem("port"); item == nil {
		t.Error("FindItem(port) returned nil")
	}
	if item := group.FindItem("missing"); item != nil {
		t.Errorf("FindItem(missing) = %+v, want nil", item)
	}
	if g := FindGroup(groups, "missing"); g != nil {
		t.Errorf("FindGroup(missing) = %+v, want nil", g)
	}

	// Lookup must return a pointer into the slice so edits stick.
	group.FindItem("host").Value = "db.internal"
	if groups[0].Items[0].Value != "db.internal" {
		t.Error("FindItem did not return a pointer into the tree")
	}
}
