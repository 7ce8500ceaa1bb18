package appconfig

import (
	"sort"
	"strings"
)

// ItemType identifies which renderer and value shape applies to a ConfigItem.
// The set is closed; tags outside it are reported as unsupported rather than
// rejected, so a newer server schema still renders on an older client.
type ItemType string

const (
	TypeText       ItemType = "text"
	TypeTextarea   ItemType = "textarea"
	TypeBool       ItemType = "bool"
	TypePassword   ItemType = "password"
	TypeFile       ItemType = "file"
	TypeSelectOne  ItemType = "select_one"
	TypeSelectMany ItemType = "select_many"
	TypeLabel      ItemType = "label"
	TypeHeading    ItemType = "heading"
	TypeDropdown   ItemType = "dropdown"
)

// Supported reports whether the type is one of the known renderer kinds.
// Unknown tags render the static fallback block instead.
func (t ItemType) Supported() bool {
	switch t {
	case TypeText, TypeTextarea, TypeBool, TypePassword, TypeFile,
		TypeSelectOne, TypeSelectMany, TypeLabel, TypeHeading, TypeDropdown:
		return true
	default:
		return false
	}
}

// Structural reports whether the type carries no directly editable scalar
// value. Change routing skips structural items entirely.
func (t ItemType) Structural() bool {
	return t == TypeSelectMany || t == TypeLabel || t == TypeHeading
}

// BoolTrue and BoolFalse are the wire encodings for bool item values.
const (
	BoolTrue  = "1"
	BoolFalse = "0"
)

// ConfigGroup is one named section of the configuration form.
type ConfigGroup struct {
	Name        string       `json:"name" yaml:"name"`
	Title       string       `json:"title,omitempty" yaml:"title,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	When        string       `json:"when,omitempty" yaml:"when,omitempty"`
	Items       []ConfigItem `json:"items" yaml:"items"`

	// HasError is derived: set when any contained item carries an error.
	HasError bool `json:"hasError,omitempty" yaml:"has_error,omitempty"`
}

// ConfigItem is one schema leaf. Name is the join key used for all change
// routing; within one group item names are unique.
type ConfigItem struct {
	Name        string   `json:"name" yaml:"name"`
	Type        ItemType `json:"type" yaml:"type"`
	Title       string   `json:"title,omitempty" yaml:"title,omitempty"`
	HelpText    string   `json:"help_text,omitempty" yaml:"help_text,omitempty"`
	Default     string   `json:"default,omitempty" yaml:"default,omitempty"`
	Value       string   `json:"value,omitempty" yaml:"value,omitempty"`
	When        string   `json:"when,omitempty" yaml:"when,omitempty"`
	Hidden      bool     `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Required    bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Recommended bool     `json:"recommended,omitempty" yaml:"recommended,omitempty"`
	ReadOnly    bool     `json:"readonly,omitempty" yaml:"readonly,omitempty"`
	Repeatable  bool     `json:"repeatable,omitempty" yaml:"repeatable,omitempty"`

	// Affix opts the item into grid-based adjacent layout; see SetOrder.
	Affix string `json:"affix,omitempty" yaml:"affix,omitempty"`

	// File item fields. Filename carries the uploaded file's original name.
	// Multiple enables array-valued uploads with parallel MultiValue and
	// MultiFilename slices.
	Filename      string   `json:"filename,omitempty" yaml:"filename,omitempty"`
	Multiple      bool     `json:"multiple,omitempty" yaml:"multiple,omitempty"`
	MultiValue    []string `json:"multi_value,omitempty" yaml:"multi_value,omitempty"`
	MultiFilename []string `json:"multi_filename,omitempty" yaml:"multi_filename,omitempty"`

	// Nested child items: options for select_one, sub-items for containers.
	Items []ConfigItem `json:"items,omitempty" yaml:"items,omitempty"`

	// Repeatable state. ValuesByGroup maps group name -> per-instance key ->
	// value; CountByGroup maps group name -> count of live instances.
	ValuesByGroup map[string]map[string]string `json:"valuesByGroup,omitempty" yaml:"values_by_group,omitempty"`
	CountByGroup  map[string]int               `json:"countByGroup,omitempty" yaml:"count_by_group,omitempty"`

	// Validation holds the server-declared value constraints evaluated on
	// every liveconfig pass.
	Validation *ItemValidation `json:"validation,omitempty" yaml:"validation,omitempty"`

	// Error is a required-field violation, set only by the save-response
	// path. ValidationError is a live-validation violation. They surface in
	// different places and are cleared on different events.
	Error           string `json:"error,omitempty" yaml:"error,omitempty"`
	ValidationError string `json:"validationError,omitempty" yaml:"validation_error,omitempty"`
}

// ItemValidation declares value constraints for one item.
type ItemValidation struct {
	Regex *RegexValidator `json:"regex,omitempty" yaml:"regex,omitempty"`
}

// RegexValidator requires an item value to match Pattern. Message is the
// user-facing text surfaced when the value does not match.
type RegexValidator struct {
	Pattern string `json:"pattern" yaml:"pattern"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// ItemValidationError is one live-validation failure message.
type ItemValidationError struct {
	Message string `json:"message" yaml:"message"`
}

// ItemValidationErrors collects the failures for one item, joined by name.
type ItemValidationErrors struct {
	Name             string                `json:"name" yaml:"name"`
	ValidationErrors []ItemValidationError `json:"validation_errors" yaml:"validation_errors"`
}

// GroupValidationErrors is the per-group overlay returned by the liveconfig
// collaborator. It is merged onto the tree by name matching and never
// persisted independently.
type GroupValidationErrors struct {
	Name       string                 `json:"name" yaml:"name"`
	ItemErrors []ItemValidationErrors `json:"item_errors" yaml:"item_errors"`
}

// EffectiveValue returns the item's current value, falling back to the
// default when no value has been set.
func (i *ConfigItem) EffectiveValue() string {
	if i.Value != "" {
		return i.Value
	}
	return i.Default
}

// IsHidden reports whether the item is excluded from display, either
// explicitly or via its when condition.
func (i *ConfigItem) IsHidden() bool {
	return i.Hidden || i.When == "false"
}

// BoolValue interprets the item's effective value under bool semantics.
func (i *ConfigItem) BoolValue() bool {
	return i.EffectiveValue() == BoolTrue
}

// HasInstances reports whether the item holds a repeatable bucket for the
// named group.
func (i *ConfigItem) HasInstances(groupName string) bool {
	if i.ValuesByGroup == nil {
		return false
	}
	_, ok := i.ValuesByGroup[groupName]
	return ok
}

// InstanceKeys returns the per-instance keys for the named group in stable
// sorted order. Repeatable renderers enumerate instances in this order.
func (i *ConfigItem) InstanceKeys(groupName string) []string {
	bucket := i.ValuesByGroup[groupName]
	if len(bucket) == 0 {
		return nil
	}
	keys := make([]string, 0, len(bucket))
	for k := range bucket {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsHidden reports whether the group is excluded from display by its when
// condition. Groups with no visible items are additionally suppressed by the
// Visibility policy.
func (g *ConfigGroup) IsHidden() bool {
	return g.When == "false"
}

// FindItem returns a pointer to the named item within the group, or nil.
func (g *ConfigGroup) FindItem(name string) *ConfigItem {
	for idx := range g.Items {
		if g.Items[idx].Name == name {
			return &g.Items[idx]
		}
	}
	return nil
}

// FindGroup returns a pointer to the named group within the slice, or nil.
func FindGroup(groups []ConfigGroup, name string) *ConfigGroup {
	for idx := range groups {
		if groups[idx].Name == name {
			return &groups[idx]
		}
	}
	return nil
}

// MaskValue returns a mask string of the same rune length as s, for use as a
// placeholder. Password defaults must never be displayed literally.
func MaskValue(s string) string {
	if s == "" {
		return ""
	}
	return strings.Repeat("•", len([]rune(s)))
}

// Clone returns a deep copy of the item. Edits operate on copies so that a
// changed tree never shares mutable state with the previous one.
func (i *ConfigItem) Clone() ConfigItem {
	out := *i
	if i.MultiValue != nil {
		out.MultiValue = append([]string(nil), i.MultiValue...)
	}
	if i.MultiFilename != nil {
		out.MultiFilename = append([]string(nil), i.MultiFilename...)
	}
	if i.Items != nil {
		out.Items = make([]ConfigItem, len(i.Items))
		for idx := range i.Items {
			out.Items[idx] = i.Items[idx].Clone()
		}
	}
	if i.ValuesByGroup != nil {
		out.ValuesByGroup = make(map[string]map[string]string, len(i.ValuesByGroup))
		for group, bucket := range i.ValuesByGroup {
			copied := make(map[string]string, len(bucket))
			for k, v := range bucket {
				copied[k] = v
			}
			out.ValuesByGroup[group] = copied
		}
	}
	if i.CountByGroup != nil {
		out.CountByGroup = make(map[string]int, len(i.CountByGroup))
		for group, count := range i.CountByGroup {
			out.CountByGroup[group] = count
		}
	}
	if i.Validation != nil {
		validation := *i.Validation
		if i.Validation.Regex != nil {
			regex := *i.Validation.Regex
			validation.Regex = &regex
		}
		out.Validation = &validation
	}
	return out
}

// Clone returns a deep copy of the group.
func (g *ConfigGroup) Clone() ConfigGroup {
	out := *g
	out.Items = make([]ConfigItem, len(g.Items))
	for idx := range g.Items {
		out.Items[idx] = g.Items[idx].Clone()
	}
	return out
}

// CloneGroups returns a deep copy of the whole tree.
func CloneGroups(groups []ConfigGroup) []ConfigGroup {
	if groups == nil {
		return nil
	}
	out := make([]ConfigGroup, len(groups))
	for idx := range groups {
		out[idx] = groups[idx].Clone()
	}
	return out
}
