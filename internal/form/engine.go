package form

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/replicatedhq/kots-sub006/internal/appconfig"
	"github.com/replicatedhq/kots-sub006/internal/logging"
)

// DefaultDebounce is the quiet period between an edit and the validation
// round trip it schedules.
const DefaultDebounce = 300 * time.Millisecond

// RequiredItemMessage is the error text attached to items a save attempt
// reported as missing.
const RequiredItemMessage = "This item is required"

// LiveResult is a validator's recomputed tree plus validation overlay.
type LiveResult struct {
	ConfigGroups     []appconfig.ConfigGroup
	ValidationErrors []appconfig.GroupValidationErrors
}

// Validator recomputes visibility, values and validation errors for a full
// edited tree. Implementations must honour ctx: the engine cancels a
// superseded request before dispatching the next one.
type Validator interface {
	Validate(ctx context.Context, groups []appconfig.ConfigGroup) (*LiveResult, error)
}

// SaveResult is a saver's verdict on a tree.
type SaveResult struct {
	Success          bool
	RequiredItems    []string
	Error            string
	ValidationErrors []appconfig.GroupValidationErrors
}

// Saver persists a tree.
type Saver interface {
	Save(ctx context.Context, groups []appconfig.ConfigGroup) (*SaveResult, error)
}

// Snapshot is a read-only view of the form state handed to renderers.
type Snapshot struct {
	Groups              []appconfig.ConfigGroup
	HasUnresolvedErrors bool
}

// Engine owns the canonical schema tree for one configuration form.
// All methods are safe for concurrent use.
type Engine struct {
	mu     sync.Mutex
	groups []appconfig.ConfigGroup

	visibility appconfig.Visibility
	validator  Validator
	debounce   time.Duration
	onUpdate   func(Snapshot)

	// Debounce and in-flight request state
	timer          *time.Timer
	requestSeq     uint64
	appliedSeq     uint64
	cancelInFlight context.CancelFunc

	// Last password values the user typed, keyed by group then item.
	// Re-inserted after every validation merge.
	passwords map[string]map[string]string

	hasUnresolvedErrors bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithValidator sets the live-validation collaborator. Without one, edits
// are applied locally and no round trips are scheduled.
func WithValidator(v Validator) Option {
	return func(e *Engine) { e.validator = v }
}

// WithVisibility replaces the default visibility policy.
func WithVisibility(v appconfig.Visibility) Option {
	return func(e *Engine) { e.visibility = v }
}

// WithDebounce overrides the debounce quiet period.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) { e.debounce = d }
}

// WithOnUpdate registers a callback invoked with a fresh snapshot whenever a
// validation response is merged. Called from the engine's own goroutine;
// implementations must not call back into the engine synchronously.
func WithOnUpdate(fn func(Snapshot)) Option {
	return func(e *Engine) { e.onUpdate = fn }
}

// NewEngine creates an engine owning a deep copy of the given tree.
func NewEngine(groups []appconfig.ConfigGroup, opts ...Option) *Engine {
	e := &Engine{
		groups:     appconfig.CloneGroups(groups),
		visibility: appconfig.DefaultVisibility{},
		debounce:   DefaultDebounce,
		passwords:  make(map[string]map[string]string),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.rememberPasswords(e.groups)
	return e
}

// Snapshot returns a deep copy of the current form state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Groups:              appconfig.CloneGroups(e.groups),
		HasUnresolvedErrors: e.hasUnresolvedErrors,
	}
}

// VisibleGroups returns the groups the current visibility policy permits.
func (e *Engine) VisibleGroups() []appconfig.ConfigGroup {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visibility.FilterGroups(appconfig.CloneGroups(e.groups))
}

// ApplyChange routes one value change to the (groupName, itemName) pair and
// schedules a debounced validation round trip. values carries the new
// value(s); data is the auxiliary payload (a filename for file items, the
// instance key for variadic text items).
func (e *Engine) ApplyChange(groupName, itemName string, values []string, data string) error {
	e.mu.Lock()

	group := appconfig.FindGroup(e.groups, groupName)
	if group == nil {
		e.mu.Unlock()
		return fmt.Errorf("unknown group %q", groupName)
	}

	applied := false
	for idx := range group.Items {
		item := &group.Items[idx]
		if item.Type.Structural() {
			continue
		}

		if item.Name == itemName {
			e.applyToItem(group.Name, item, values, data)
			applied = true
			break
		}

		// One level of nesting: containers other than select_one may hold
		// the target as a child item.
		if len(item.Items) > 0 && item.Type != appconfig.TypeSelectOne {
			if child := findChild(item, itemName); child != nil {
				applyToChild(child, values, data)
				applied = true
				break
			}
		}
	}

	if !applied {
		e.mu.Unlock()
		return fmt.Errorf("unknown item %q in group %q", itemName, groupName)
	}

	e.scheduleValidationLocked()
	e.mu.Unlock()
	return nil
}

// applyToItem mutates one top-level item per the change-routing rules.
// Caller holds e.mu.
func (e *Engine) applyToItem(groupName string, item *appconfig.ConfigItem, values []string, data string) {
	if item.Type == appconfig.TypeFile && item.ValuesByGroup != nil {
		// File-descriptor batch: rebuild the group's bucket keyed by each
		// file's value token.
		bucket := make(map[string]string, len(values))
		for _, v := range values {
			bucket[v] = v
		}
		item.ValuesByGroup[groupName] = bucket
		if item.CountByGroup == nil {
			item.CountByGroup = make(map[string]int)
		}
		item.CountByGroup[groupName] = len(bucket)
		item.Error = ""
		return
	}

	first := ""
	if len(values) > 0 {
		first = values[0]
	}
	item.Value = first

	if item.Type == appconfig.TypeFile {
		item.Filename = data
	}

	// Variadic text/textarea: a live bucket for this group means the change
	// targets the instance keyed by the auxiliary data.
	if bucket, ok := item.ValuesByGroup[groupName]; ok && data != "" {
		bucket[data] = first
	}

	if item.Type == appconfig.TypePassword {
		e.rememberPassword(groupName, item.Name, first)
	}

	// A fresh edit resolves the save attempt's required-field complaint.
	item.Error = ""
}

func findChild(item *appconfig.ConfigItem, name string) *appconfig.ConfigItem {
	for idx := range item.Items {
		if item.Items[idx].Name == name {
			return &item.Items[idx]
		}
	}
	return nil
}

// applyToChild handles the nested-item path, including array-valued children
// with parallel multi_filename bookkeeping.
func applyToChild(child *appconfig.ConfigItem, values []string, data string) {
	if child.Multiple {
		child.MultiValue = append([]string(nil), values...)
		if data != "" {
			child.MultiFilename = append([]string(nil), data)
		}
		child.Error = ""
		return
	}

	if len(values) > 0 {
		child.Value = values[0]
	} else {
		child.Value = ""
	}
	if data != "" {
		child.Filename = data
	}
	child.Error = ""
}

// AddInstance adds one instance to a repeatable item and schedules
// revalidation. The new instance's key is returned so the UI can focus it.
func (e *Engine) AddInstance(groupName, itemName string) (string, error) {
	e.mu.Lock()

	item, err := e.findItemLocked(groupName, itemName)
	if err != nil {
		e.mu.Unlock()
		return "", err
	}

	if item.ValuesByGroup == nil {
		item.ValuesByGroup = make(map[string]map[string]string)
	}
	if item.CountByGroup == nil {
		item.CountByGroup = make(map[string]int)
	}

	bucket, ok := item.ValuesByGroup[groupName]
	if !ok {
		bucket = make(map[string]string)
		item.ValuesByGroup[groupName] = bucket
	}

	// Keys are synthetic and only need uniqueness within the bucket.
	key := ""
	for n := len(bucket) + 1; ; n++ {
		key = fmt.Sprintf("%s-%d", itemName, n)
		if _, exists := bucket[key]; !exists {
			break
		}
	}
	bucket[key] = ""
	item.CountByGroup[groupName]++

	e.scheduleValidationLocked()
	e.mu.Unlock()
	return key, nil
}

// RemoveInstance deletes exactly the keyed instance and schedules
// revalidation. Removing the last instance leaves an empty bucket behind so
// the field stays addable; it never becomes unaddable.
func (e *Engine) RemoveInstance(groupName, itemName, key string) error {
	e.mu.Lock()

	item, err := e.findItemLocked(groupName, itemName)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	bucket, ok := item.ValuesByGroup[groupName]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("item %q has no instances for group %q", itemName, groupName)
	}
	if _, exists := bucket[key]; !exists {
		e.mu.Unlock()
		return fmt.Errorf("item %q has no instance %q", itemName, key)
	}

	delete(bucket, key)
	if item.CountByGroup[groupName] > 0 {
		item.CountByGroup[groupName]--
	}

	e.scheduleValidationLocked()
	e.mu.Unlock()
	return nil
}

func (e *Engine) findItemLocked(groupName, itemName string) (*appconfig.ConfigItem, error) {
	group := appconfig.FindGroup(e.groups, groupName)
	if group == nil {
		return nil, fmt.Errorf("unknown group %q", groupName)
	}
	item := group.FindItem(itemName)
	if item == nil {
		return nil, fmt.Errorf("unknown item %q in group %q", itemName, groupName)
	}
	return item, nil
}

// Reset replaces the canonical tree wholesale, e.g. when a new sequence is
// loaded. Pending debounce timers and in-flight requests are discarded.
func (e *Engine) Reset(groups []appconfig.ConfigGroup) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if e.cancelInFlight != nil {
		e.cancelInFlight()
		e.cancelInFlight = nil
	}

	e.groups = appconfig.CloneGroups(groups)
	e.passwords = make(map[string]map[string]string)
	e.rememberPasswords(e.groups)
	e.hasUnresolvedErrors = treeHasValidationErrors(e.groups)
}

// Close stops the debounce timer and cancels any in-flight request.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if e.cancelInFlight != nil {
		e.cancelInFlight()
		e.cancelInFlight = nil
	}
}

func (e *Engine) rememberPasswords(groups []appconfig.ConfigGroup) {
	for gi := range groups {
		for ii := range groups[gi].Items {
			item := &groups[gi].Items[ii]
			if item.Type == appconfig.TypePassword && item.Value != "" {
				e.rememberPassword(groups[gi].Name, item.Name, item.Value)
			}
		}
	}
}

func (e *Engine) rememberPassword(groupName, itemName, value string) {
	bucket, ok := e.passwords[groupName]
	if !ok {
		bucket = make(map[string]string)
		e.passwords[groupName] = bucket
	}
	bucket[itemName] = value
}

func treeHasValidationErrors(groups []appconfig.ConfigGroup) bool {
	for gi := range groups {
		for ii := range groups[gi].Items {
			if groups[gi].Items[ii].ValidationError != "" {
				return true
			}
		}
	}
	return false
}

func logStaleResponse(token, current uint64) {
	logging.Warn("Discarding stale validation response",
		zap.Uint64("token", token),
		zap.Uint64("current", current),
	)
}
