package fileinput

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Result is the outcome of reading one file in a batch. Exactly one of
// Data/Err is meaningful; Name is always set to the file's base name.
type Result struct {
	// Name is the original filename (base name, no directory).
	Name string

	// Data is the base64-encoded file content.
	Data string

	// Err is the read failure, nil on success.
	Err error
}

// Descriptor is a successfully read file, as consumed by the form engine's
// file-batch change path.
type Descriptor struct {
	Name string
	Data string
}

// ReadAll reads every path concurrently and returns one Result per input, in
// input order. A failed read never blocks or suppresses the other reads.
// Cancelling ctx abandons reads that have not started and marks their
// results with ctx's error.
func ReadAll(ctx context.Context, paths []string) []Result {
	results := make([]Result, len(paths))

	var wg sync.WaitGroup
	for idx, path := range paths {
		wg.Add(1)
		go func(idx int, path string) {
			defer wg.Done()
			results[idx] = readOne(ctx, path)
		}(idx, path)
	}
	wg.Wait()

	return results
}

func readOne(ctx context.Context, path string) Result {
	name := filepath.Base(path)

	if err := ctx.Err(); err != nil {
		return Result{Name: name, Err: fmt.Errorf("read cancelled: %w", err)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Name: name, Err: fmt.Errorf("failed to read %s: %w", path, err)}
	}

	return Result{Name: name, Data: base64.StdEncoding.EncodeToString(data)}
}

// Successes extracts the descriptors for the files that read cleanly.
func Successes(results []Result) []Descriptor {
	var out []Descriptor
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		out = append(out, Descriptor{Name: r.Name, Data: r.Data})
	}
	return out
}

// Failures extracts the errors from a batch, in input order.
func Failures(results []Result) []error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}
