// Package appconfig defines the schema tree for an application's
// configuration form and the pure rules that govern how it renders.
//
// A config screen is described by an ordered list of ConfigGroup values, each
// holding an ordered list of ConfigItem values. The tree is produced by the
// admin console backend and edited locally; every rule in this package is a
// pure function of the tree so the same schema always renders the same way.
//
// # Schema Tree
//
// Groups and items are joined by name: item names are unique within their
// group, and for repeatable items the per-instance keys inside one group's
// ValuesByGroup bucket are unique. ValidateGroups checks both invariants
// after deserializing a server payload.
//
// # Item Types
//
// Item types form a closed set (text, textarea, bool, password, file,
// select_one, select_many, label, heading, dropdown). A tag outside the set
// is not an error: it renders as an explicit "unsupported type" fallback so
// newer server schemas degrade gracefully on older clients.
//
// # Visibility and Ordering
//
// Conditional display is driven by the string-encoded When field ("false"
// hides a group or item) plus the Hidden flag. The Visibility interface is an
// injected capability so front ends can swap the policy without touching the
// tree. SetOrder computes the explicit ordering for affixed items; items
// without an affix keep natural document order.
//
// # Passwords
//
// Password defaults are never displayed literally. MaskValue produces a
// same-length mask string for use as a placeholder.
package appconfig
