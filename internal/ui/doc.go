// Package ui provides the interactive terminal form editor.
//
// This package renders a config tree as a navigable form using the Bubble Tea
// framework. It is a thin presentation layer: all editing semantics live in
// the form engine, and the model here only translates key presses into change
// intents and snapshots into rows.
//
// # Architecture
//
// The editor follows the Model-View-Update pattern:
//   - FormModel holds the latest engine snapshot plus cursor/editing state
//   - Update routes key presses into the engine (ApplyChange, AddInstance,
//     RemoveInstance, Save) and folds engine snapshots back in
//   - View flattens the visible groups into styled rows
//
// The engine validates edits against the console on its own debounce
// schedule; results arrive asynchronously as SnapshotMsg values sent into
// the program loop.
//
// # Key Bindings
//
//	↑/k, ↓/j   move between fields
//	enter      edit the focused field (toggle for bool/select)
//	space      toggle a bool, cycle a select_one or dropdown option
//	+          add a repeatable-field instance
//	-          remove the focused instance
//	ctrl+s     save to the console
//	q, ctrl+c  quit
//
// # Usage Example
//
//	validator := &form.ClientValidator{Client: client, AppSlug: slug, Sequence: seq}
//	saver := &form.ClientSaver{Client: client, AppSlug: slug, Sequence: seq}
//
//	if err := ui.Run(groups, validator, saver, 300*time.Millisecond); err != nil {
//	    log.Fatal(err)
//	}
package ui
