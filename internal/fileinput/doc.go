// Package fileinput reads batches of files for file-type config items.
//
// Each file in a batch is an independent fallible task. The batch joins on a
// barrier that yields one Result per file, so callers can tell "3 succeeded,
// 1 failed" apart from "all failed" instead of inspecting a single shared
// error flag after the count is reached.
//
// File contents are base64-encoded, matching the value encoding the console
// API expects for file items.
package fileinput
