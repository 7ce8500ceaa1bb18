package form

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/replicatedhq/kots-sub006/internal/appconfig"
	"github.com/replicatedhq/kots-sub006/internal/logging"
)

// scheduleValidationLocked coalesces rapid edits into one validation round
// trip: every edit resets the quiet-period timer, so the request that fires
// carries the tree state as of the latest edit. Caller holds e.mu.
func (e *Engine) scheduleValidationLocked() {
	if e.validator == nil {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.debounce, e.fireValidation)
}

// fireValidation dispatches one validation request. A previous in-flight
// request is cancelled first, and the new request carries a token so a late
// response from an older request can never overwrite newer local edits.
func (e *Engine) fireValidation() {
	e.mu.Lock()

	if e.cancelInFlight != nil {
		e.cancelInFlight()
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancelInFlight = cancel

	e.requestSeq++
	token := e.requestSeq
	snapshot := appconfig.CloneGroups(e.groups)
	validator := e.validator

	e.mu.Unlock()

	go func() {
		result, err := validator.Validate(ctx, snapshot)
		if err != nil {
			// Cancellation is routine: a newer edit superseded this request.
			// Other failures leave the last known validation state in place
			// rather than blocking the form.
			if ctx.Err() != nil {
				logging.Debug("Validation request superseded", zap.Uint64("token", token))
			} else {
				logging.Warn("Validation request failed", zap.Uint64("token", token), zap.Error(err))
			}
			return
		}
		e.applyLiveResult(token, result)
	}()
}

// Validate runs one immediate, synchronous validation pass, bypassing the
// debounce. Used by front ends that want an explicit "check now".
func (e *Engine) Validate(ctx context.Context) error {
	e.mu.Lock()
	if e.validator == nil {
		e.mu.Unlock()
		return nil
	}
	e.requestSeq++
	token := e.requestSeq
	snapshot := appconfig.CloneGroups(e.groups)
	validator := e.validator
	e.mu.Unlock()

	result, err := validator.Validate(ctx, snapshot)
	if err != nil {
		return err
	}
	e.applyLiveResult(token, result)
	return nil
}

// applyLiveResult merges a validation response into the canonical tree,
// unless a newer request has been dispatched since this one.
func (e *Engine) applyLiveResult(token uint64, result *LiveResult) {
	e.mu.Lock()

	if token != e.requestSeq || token <= e.appliedSeq {
		current := e.requestSeq
		e.mu.Unlock()
		logStaleResponse(token, current)
		return
	}
	e.appliedSeq = token

	e.mergeLocked(result)
	snapshot := e.snapshotLocked()
	onUpdate := e.onUpdate

	e.mu.Unlock()

	if onUpdate != nil {
		onUpdate(snapshot)
	}
}

// mergeLocked applies the server's recomputed tree and validation overlay.
// Caller holds e.mu.
func (e *Engine) mergeLocked(result *LiveResult) {
	previous := e.groups
	merged := appconfig.CloneGroups(result.ConfigGroups)

	for gi := range merged {
		group := &merged[gi]
		prevGroup := appconfig.FindGroup(previous, group.Name)

		for ii := range group.Items {
			item := &group.Items[ii]

			// The server never echoes secrets back. Re-insert the last
			// password value the user typed so the masked default can never
			// replace a real edit.
			if item.Type == appconfig.TypePassword {
				if saved, ok := e.passwords[group.Name][item.Name]; ok {
					item.Value = saved
				}
			}

			// Required-field errors belong to the save path; the liveconfig
			// response knows nothing about them, so carry them over.
			if prevGroup != nil {
				if prevItem := prevGroup.FindItem(item.Name); prevItem != nil {
					item.Error = prevItem.Error
				}
			}

			// The overlay below re-establishes current validation errors.
			item.ValidationError = ""
		}
	}

	applyValidationOverlay(merged, result.ValidationErrors)
	e.groups = merged
	e.hasUnresolvedErrors = treeHasValidationErrors(merged)
}

// applyValidationOverlay writes the per-item validation messages onto the
// tree by (group, item) name matching and derives each group's HasError.
func applyValidationOverlay(groups []appconfig.ConfigGroup, overlay []appconfig.GroupValidationErrors) {
	for _, groupErrors := range overlay {
		group := appconfig.FindGroup(groups, groupErrors.Name)
		if group == nil {
			continue
		}
		for _, itemErrors := range groupErrors.ItemErrors {
			item := group.FindItem(itemErrors.Name)
			if item == nil || len(itemErrors.ValidationErrors) == 0 {
				continue
			}
			item.ValidationError = itemErrors.ValidationErrors[0].Message
		}
	}

	for gi := range groups {
		group := &groups[gi]
		group.HasError = false
		for ii := range group.Items {
			if group.Items[ii].ValidationError != "" || group.Items[ii].Error != "" {
				group.HasError = true
				break
			}
		}
	}
}
