package appconfig

import (
	"reflect"
	"testing"
)

// TestSetOrder tests determinism and monotonicity of affix ordering
func TestSetOrder(t *testing.T) {
	t.Run("No affix yields no explicit order", func(t *testing.T) {
		for _, index := range []int{0, 1, 5, 100} {
			if _, ok := SetOrder(index, ""); ok {
				t.Errorf("SetOrder(%d, \"\") returned an explicit order", index)
			}
		}
	})

	t.Run("Deterministic for identical arguments", func(t *testing.T) {
		first, ok1 := SetOrder(3, "left")
		second, ok2 := SetOrder(3, "left")
		if !ok1 || !ok2 || first != second {
			t.Errorf("SetOrder(3, left) not deterministic: (%d,%v) vs (%d,%v)", first, ok1, second, ok2)
		}
	})

	t.Run("Monotonic in index for fixed affix", func(t *testing.T) {
		prev := -1
		for index := 0; index < 20; index++ {
			order, ok := SetOrder(index, "right")
			if !ok {
				t.Fatalf("SetOrder(%d, right) returned no order", index)
			}
			if order <= prev {
				t.Fatalf("SetOrder not monotonic at index %d: %d <= %d", index, order, prev)
			}
			prev = order
		}
	})
}

// TestGroupVisible tests group-level visibility aggregation
func TestGroupVisible(t *testing.T) {
	tests := []struct {
		name  string
		group ConfigGroup
		want  bool
	}{
		{
			name:  "Hidden: when false",
			group: ConfigGroup{Name: "g", When: "false", Items: []ConfigItem{{Name: "a"}}},
			want:  false,
		},
		{
			name:  "Hidden: no visible items",
			group: ConfigGroup{Name: "g", Items: []ConfigItem{{Name: "a", Hidden: true}, {Name: "b", When: "false"}}},
			want:  false,
		},
		{
			name:  "Hidden: empty group",
			group: ConfigGroup{Name: "g"},
			want:  false,
		},
		{
			name:  "Visible: one item visible",
			group: ConfigGroup{Name: "g", Items: []ConfigItem{{Name: "a", Hidden: true}, {Name: "b"}}},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GroupVisible(DefaultVisibility{}, tt.group); got != tt.want {
				t.Errorf("GroupVisible() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestFilterGroupsIdempotent tests that re-filtering the same tree is stable
func TestFilterGroupsIdempotent(t *testing.T) {
	groups := []ConfigGroup{
		{Name: "net", Items: []ConfigItem{{Name: "host"}}},
		{Name: "hidden", When: "false", Items: []ConfigItem{{Name: "x"}}},
		{Name: "tls", Items: []ConfigItem{{Name: "cert"}, {Name: "key", Hidden: true}}},
	}

	v := DefaultVisibility{}
	first := v.FilterGroups(groups)
	second := v.FilterGroups(groups)

	if !reflect.DeepEqual(first, second) {
		t.Error("FilterGroups is not idempotent over the same tree")
	}

	wantNames := []string{"net", "tls"}
	gotNames := make([]string, len(first))
	for i, g := range first {
		gotNames[i] = g.Name
	}
	if !reflect.DeepEqual(gotNames, wantNames) {
		t.Errorf("FilterGroups() = %v, want %v", gotNames, wantNames)
	}
}

// TestGroupLayout tests grid-vs-block layout selection
func TestGroupLayout(t *testing.T) {
	tests := []struct {
		name  string
		group ConfigGroup
		want  Layout
	}{
		{
			name: "Grid: all items affixed",
			group: ConfigGroup{Items: []ConfigItem{
				{Name: "a", Affix: "left"},
				{Name: "b", Affix: "right"},
			}},
			want: LayoutGrid,
		},
		{
			name: "Block: one item unaffixed",
			group: ConfigGroup{Items: []ConfigItem{
				{Name: "a", Affix: "left"},
				{Name: "b"},
			}},
			want: LayoutBlock,
		},
		{
			name:  "Block: empty group",
			group: ConfigGroup{},
			want:  LayoutBlock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GroupLayout(tt.group); got != tt.want {
				t.Errorf("GroupLayout() = %v, want %v", got, tt.want)
			}
		})
	}
}
