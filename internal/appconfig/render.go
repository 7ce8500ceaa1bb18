package appconfig

// Visibility decides which groups and items conditional-display rules permit.
// It is an injected capability: front ends pass one in explicitly instead of
// reaching for a shared singleton, so the policy can be swapped in tests.
type Visibility interface {
	// IsVisible reports whether the item may be displayed, given the full
	// item set of its group.
	IsVisible(items []ConfigItem, item ConfigItem) bool

	// FilterGroups returns the groups that should be rendered, preserving
	// order.
	FilterGroups(groups []ConfigGroup) []ConfigGroup
}

// DefaultVisibility is the standard policy: an item is visible unless hidden
// or suppressed by its when condition; a group renders only when its own when
// condition allows it and at least one contained item is visible.
type DefaultVisibility struct{}

// IsVisible implements Visibility.
func (DefaultVisibility) IsVisible(items []ConfigItem, item ConfigItem) bool {
	return !item.IsHidden()
}

// FilterGroups implements Visibility.
func (v DefaultVisibility) FilterGroups(groups []ConfigGroup) []ConfigGroup {
	var out []ConfigGroup
	for _, group := range groups {
		if !GroupVisible(v, group) {
			continue
		}
		out = append(out, group)
	}
	return out
}

// GroupVisible reports whether a group should render under the given policy:
// hidden groups never render, and a group with no visible items renders
// nothing so it is suppressed entirely.
func GroupVisible(v Visibility, group ConfigGroup) bool {
	if group.IsHidden() {
		return false
	}
	for _, item := range group.Items {
		if v.IsVisible(group.Items, item) {
			return true
		}
	}
	return false
}

// SetOrder computes the explicit render order for an item. Items without an
// affix get no explicit order and keep natural document order. Affixed items
// get an order value that is deterministic and monotonic in index, so pairs
// of affixed fields render adjacent in the grid regardless of their position
// in the underlying item array.
func SetOrder(index int, affix string) (int, bool) {
	if affix == "" {
		return 0, false
	}
	return index, true
}

// Layout is a group's item-container layout mode.
type Layout string

const (
	// LayoutGrid lays items out on a grid so affix ordering is meaningful.
	LayoutGrid Layout = "grid"

	// LayoutBlock is the plain vertical flow.
	LayoutBlock Layout = "block"
)

// GroupLayout returns grid layout only when every item in the group declares
// a non-empty affix; a single unaffixed item forces block layout.
func GroupLayout(group ConfigGroup) Layout {
	if len(group.Items) == 0 {
		return LayoutBlock
	}
	for _, item := range group.Items {
		if item.Affix == "" {
			return LayoutBlock
		}
	}
	return LayoutGrid
}
