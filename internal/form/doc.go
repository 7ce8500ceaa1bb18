// Package form implements the headless orchestrator for a configuration
// form: the single owner of the canonical schema tree.
//
// Front ends (CLI, TUI, or anything else) never mutate the tree directly.
// They emit intent — "this item in this group changed to this value", "add an
// instance", "remove this key" — and read immutable snapshots back. Every
// edit produces a new tree by copy-on-write, so a snapshot handed to a
// renderer is never changed underneath it.
//
// # Live Validation
//
// Edits schedule a debounced round trip to an injected Validator. Rapid
// successive edits inside the debounce window collapse into one request
// carrying the latest tree. Each dispatch carries a monotonically increasing
// token and cancels the previous in-flight request; a response is applied
// only while no newer request has been dispatched, so an out-of-order
// response can never overwrite newer local edits.
//
// Validation transport errors are swallowed (logged, not surfaced) apart
// from cancellation, which is expected whenever a newer edit supersedes a
// request. This favours availability: the form keeps rendering the last
// known validation state.
//
// # Passwords
//
// The engine remembers the last password values the user typed and
// re-inserts them after merging a validation response, so a server that
// strips password values can never cause a masked default to leak into an
// editable field.
//
// # Saving
//
// Save runs through an injected Saver. A rejected save marks each missing
// required item with a required-field error and reports the first errored
// group as the scroll-to target, exactly once per attempt. Editing an item
// clears its required-field error immediately.
package form
