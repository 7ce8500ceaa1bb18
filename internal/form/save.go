package form

import (
	"context"
	"fmt"

	"github.com/replicatedhq/kots-sub006/internal/appconfig"
)

// SaveOutcome reports what a save attempt did to the form.
type SaveOutcome struct {
	// Saved is true when the tree was persisted.
	Saved bool

	// Error carries the backend's message for a rejected save, if any.
	Error string

	// RequiredItems lists the item names the backend reported missing.
	RequiredItems []string

	// ScrollTarget names the first errored group after a rejected save, for
	// hash-based scroll-to-error navigation. Empty when the save succeeded.
	// Reported exactly once per attempt.
	ScrollTarget string
}

// Save persists the current tree through the saver. A rejected save marks
// the reported required items on the tree and computes the scroll target;
// transport failures are returned as errors with the tree untouched.
func (e *Engine) Save(ctx context.Context, saver Saver) (*SaveOutcome, error) {
	e.mu.Lock()
	snapshot := appconfig.CloneGroups(e.groups)
	e.mu.Unlock()

	result, err := saver.Save(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("save failed: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if result.Success {
		// A fresh successful save clears stale required-field errors.
		for gi := range e.groups {
			for ii := range e.groups[gi].Items {
				e.groups[gi].Items[ii].Error = ""
			}
		}
		applyValidationOverlay(e.groups, nil)
		return &SaveOutcome{Saved: true}, nil
	}

	for _, name := range result.RequiredItems {
		markRequired(e.groups, name)
	}
	applyValidationOverlay(e.groups, result.ValidationErrors)
	e.hasUnresolvedErrors = treeHasValidationErrors(e.groups)

	return &SaveOutcome{
		Saved:         false,
		Error:         result.Error,
		RequiredItems: result.RequiredItems,
		ScrollTarget:  firstErroredGroup(e.groups),
	}, nil
}

// markRequired sets the required-field error on every item matching name.
// Required items are reported by item name only, so the first matching group
// wins; names are unique per group by invariant.
func markRequired(groups []appconfig.ConfigGroup, name string) {
	for gi := range groups {
		if item := groups[gi].FindItem(name); item != nil {
			item.Error = RequiredItemMessage
			groups[gi].HasError = true
			return
		}
	}
}

// firstErroredGroup returns the name of the first group carrying any error,
// in tree order.
func firstErroredGroup(groups []appconfig.ConfigGroup) string {
	for gi := range groups {
		for ii := range groups[gi].Items {
			if groups[gi].Items[ii].Error != "" || groups[gi].Items[ii].ValidationError != "" {
				return groups[gi].Name
			}
		}
	}
	return ""
}
