package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/replicatedhq/kots-sub006/internal/appconfig"
	"github.com/replicatedhq/kots-sub006/internal/form"
)

// SnapshotMsg carries a fresh engine snapshot into the program loop. The
// engine's update callback sends these from its own goroutine.
type SnapshotMsg struct {
	Snapshot form.Snapshot
}

type saveDoneMsg struct {
	outcome *form.SaveOutcome
	err     error
}

// fieldRef addresses one focusable row in the flattened form.
type fieldRef struct {
	groupName   string
	itemName    string
	instanceKey string // set for variadic instance rows
	addSlot     bool   // synthetic "add instance" row for repeatable items
}

// formKeyMap defines key bindings for the form screen
type formKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Edit   key.Binding
	Toggle key.Binding
	Add    key.Binding
	Remove key.Binding
	Save   key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k formKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Edit, k.Toggle, k.Save, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k formKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Edit, k.Toggle},
		{k.Add, k.Remove, k.Save, k.Quit},
	}
}

// FormModel renders an engine snapshot as a navigable form and routes key
// presses back into the engine as change intents.
type FormModel struct {
	Engine *form.Engine
	Saver  form.Saver

	// Current engine state
	Snapshot form.Snapshot

	// Flattened focusable rows, rebuilt on every snapshot
	Fields []fieldRef
	Cursor int

	// Inline editing state. The buffer holds the pending value and refuses
	// canonical syncs while an edit is open, so a validation refresh never
	// clobbers in-progress keystrokes.
	Editing bool
	Input   textinput.Model
	Buffer  form.EditBuffer

	// Save feedback
	Saving     bool
	SaveBanner string
	SaveFailed bool

	// UI state
	Width  int
	Height int

	visibility appconfig.DefaultVisibility

	Help help.Model
	Keys formKeyMap
}

// NewFormModel creates a form over a running engine.
func NewFormModel(engine *form.Engine, saver form.Saver) FormModel {
	input := textinput.New()
	input.CharLimit = 0
	input.Width = 50

	keys := formKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Edit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "edit"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle/cycle"),
		),
		Add: key.NewBinding(
			key.WithKeys("+"),
			key.WithHelp("+", "add instance"),
		),
		Remove: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "remove instance"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}

	m := FormModel{
		Engine:   engine,
		Saver:    saver,
		Snapshot: engine.Snapshot(),
		Input:    input,
		Help:     help.New(),
		Keys:     keys,
	}
	m.rebuildFields()
	return m
}

// Init implements tea.Model
func (m FormModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case SnapshotMsg:
		m.Snapshot = msg.Snapshot
		m.rebuildFields()
		m.syncBufferFromSnapshot()
		return m, nil

	case saveDoneMsg:
		m.Saving = false
		if msg.err != nil {
			m.SaveFailed = true
			m.SaveBanner = fmt.Sprintf("Save failed: %v", msg.err)
			return m, nil
		}
		if msg.outcome.Saved {
			m.SaveFailed = false
			m.SaveBanner = "Configuration saved"
		} else {
			m.SaveFailed = true
			m.SaveBanner = "Save rejected: fix the highlighted items"
			m.Snapshot = m.Engine.Snapshot()
			m.rebuildFields()
			m.scrollToGroup(msg.outcome.ScrollTarget)
		}
		return m, nil

	case tea.KeyMsg:
		if m.Editing {
			return m.updateEditing(msg)
		}
		return m.updateNavigation(msg)
	}

	return m, nil
}

// updateEditing handles keys while a field editor is open.
func (m FormModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Editing = false
		m.Input.Blur()
		m.Buffer.Blur()
		return m, nil

	case "enter":
		field := m.Fields[m.Cursor]
		value := m.Input.Value()
		m.Editing = false
		m.Input.Blur()
		m.Buffer.Set(value)
		m.Buffer.Blur()
		_ = m.Engine.ApplyChange(field.groupName, field.itemName, []string{value}, field.instanceKey)
		m.Snapshot = m.Engine.Snapshot()
		m.rebuildFields()
		return m, nil
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	m.Buffer.Set(m.Input.Value())
	return m, cmd
}

// updateNavigation handles keys in browse mode.
func (m FormModel) updateNavigation(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}
		return m, nil

	case key.Matches(msg, m.Keys.Down):
		if m.Cursor < len(m.Fields)-1 {
			m.Cursor++
		}
		return m, nil

	case key.Matches(msg, m.Keys.Save):
		if m.Saving {
			return m, nil
		}
		m.Saving = true
		m.SaveBanner = ""
		engine, saver := m.Engine, m.Saver
		return m, func() tea.Msg {
			outcome, err := engine.Save(context.Background(), saver)
			return saveDoneMsg{outcome: outcome, err: err}
		}

	case key.Matches(msg, m.Keys.Edit):
		return m.beginEdit()

	case key.Matches(msg, m.Keys.Toggle):
		return m.toggleField()

	case key.Matches(msg, m.Keys.Add):
		field := m.currentField()
		if field == nil {
			return m, nil
		}
		if item := m.lookupItem(*field); item != nil && item.Repeatable {
			_, _ = m.Engine.AddInstance(field.groupName, field.itemName)
			m.Snapshot = m.Engine.Snapshot()
			m.rebuildFields()
		}
		return m, nil

	case key.Matches(msg, m.Keys.Remove):
		field := m.currentField()
		if field == nil || field.instanceKey == "" {
			return m, nil
		}
		_ = m.Engine.RemoveInstance(field.groupName, field.itemName, field.instanceKey)
		m.Snapshot = m.Engine.Snapshot()
		m.rebuildFields()
		if m.Cursor >= len(m.Fields) && m.Cursor > 0 {
			m.Cursor--
		}
		return m, nil
	}

	return m, nil
}

// beginEdit opens the inline editor for the focused field.
func (m FormModel) beginEdit() (tea.Model, tea.Cmd) {
	field := m.currentField()
	if field == nil {
		return m, nil
	}
	if field.addSlot {
		_, _ = m.Engine.AddInstance(field.groupName, field.itemName)
		m.Snapshot = m.Engine.Snapshot()
		m.rebuildFields()
		return m, nil
	}

	item := m.lookupItem(*field)
	if item == nil {
		return m, nil
	}

	switch item.Type {
	case appconfig.TypeBool, appconfig.TypeSelectOne:
		return m.toggleField()
	case appconfig.TypeDropdown:
		// A dropdown with declared options cycles; without any it degrades
		// to free text.
		if len(item.Items) > 0 {
			return m.toggleField()
		}
	}

	initial := m.displayRawValue(*field, item)
	m.Buffer.Focus()
	m.Buffer.Set(initial)
	m.Input.SetValue(initial)
	if item.Type == appconfig.TypePassword {
		m.Input.EchoMode = textinput.EchoPassword
		m.Input.EchoCharacter = '•'
	} else {
		m.Input.EchoMode = textinput.EchoNormal
	}
	m.Input.CursorEnd()
	m.Input.Focus()
	m.Editing = true
	return m, textinput.Blink
}

// toggleField flips a bool or cycles a select_one option.
func (m FormModel) toggleField() (tea.Model, tea.Cmd) {
	field := m.currentField()
	if field == nil || field.addSlot {
		return m, nil
	}
	item := m.lookupItem(*field)
	if item == nil {
		return m, nil
	}

	switch item.Type {
	case appconfig.TypeBool:
		next := appconfig.BoolTrue
		if item.BoolValue() {
			next = appconfig.BoolFalse
		}
		_ = m.Engine.ApplyChange(field.groupName, field.itemName, []string{next}, "")

	case appconfig.TypeSelectOne, appconfig.TypeDropdown:
		if len(item.Items) == 0 {
			return m, nil
		}
		current := item.EffectiveValue()
		nextIdx := 0
		for i, child := range item.Items {
			if child.Name == current {
				nextIdx = (i + 1) % len(item.Items)
				break
			}
		}
		_ = m.Engine.ApplyChange(field.groupName, field.itemName, []string{item.Items[nextIdx].Name}, "")

	default:
		return m, nil
	}

	m.Snapshot = m.Engine.Snapshot()
	m.rebuildFields()
	return m, nil
}

// rebuildFields re-flattens the visible, editable rows from the snapshot.
func (m *FormModel) rebuildFields() {
	m.Fields = m.Fields[:0]

	for _, group := range m.visibility.FilterGroups(m.Snapshot.Groups) {
		for _, item := range group.Items {
			if !m.visibility.IsVisible(group.Items, item) {
				continue
			}
			if !item.Type.Supported() || item.Type.Structural() || item.ReadOnly {
				continue
			}

			if item.Repeatable {
				for _, instanceKey := range item.InstanceKeys(group.Name) {
					m.Fields = append(m.Fields, fieldRef{
						groupName:   group.Name,
						itemName:    item.Name,
						instanceKey: instanceKey,
					})
				}
				// The add slot is unconditional: a fresh item with no bucket
				// yet must still be able to gain its first instance.
				m.Fields = append(m.Fields, fieldRef{
					groupName: group.Name,
					itemName:  item.Name,
					addSlot:   true,
				})
				continue
			}

			m.Fields = append(m.Fields, fieldRef{groupName: group.Name, itemName: item.Name})
		}
	}

	if m.Cursor >= len(m.Fields) {
		m.Cursor = len(m.Fields) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

func (m FormModel) currentField() *fieldRef {
	if len(m.Fields) == 0 || m.Cursor >= len(m.Fields) {
		return nil
	}
	return &m.Fields[m.Cursor]
}

func (m FormModel) lookupItem(field fieldRef) *appconfig.ConfigItem {
	group := appconfig.FindGroup(m.Snapshot.Groups, field.groupName)
	if group == nil {
		return nil
	}
	return group.FindItem(field.itemName)
}

// syncBufferFromSnapshot folds the focused field's canonical value into the
// edit buffer and editor. The buffer refuses the sync while an edit is open,
// which is what keeps an asynchronous validation merge from overwriting the
// user's keystrokes.
func (m *FormModel) syncBufferFromSnapshot() {
	field := m.currentField()
	if field == nil || field.addSlot {
		return
	}
	item := m.lookupItem(*field)
	if item == nil {
		return
	}
	if m.Buffer.SyncFrom(m.displayRawValue(*field, item)) {
		m.Input.SetValue(m.Buffer.Value())
	}
}

// scrollToGroup moves the cursor to the first field of the named group.
func (m *FormModel) scrollToGroup(groupName string) {
	if groupName == "" {
		return
	}
	for i, field := range m.Fields {
		if field.groupName == groupName {
			m.Cursor = i
			return
		}
	}
}

// displayRawValue is the unmasked value used to seed the inline editor.
func (m FormModel) displayRawValue(field fieldRef, item *appconfig.ConfigItem) string {
	if field.instanceKey != "" {
		return item.ValuesByGroup[field.groupName][field.instanceKey]
	}
	return item.EffectiveValue()
}

// View implements tea.Model
func (m FormModel) View() string {
	var b strings.Builder

	if m.SaveBanner != "" {
		if m.SaveFailed {
			b.WriteString(ErrorBannerStyle.Render(m.SaveBanner))
		} else {
			b.WriteString(SuccessBannerStyle.Render(m.SaveBanner))
		}
		b.WriteString("\n\n")
	}

	fieldIdx := 0
	for _, group := range m.visibility.FilterGroups(m.Snapshot.Groups) {
		b.WriteString(RenderGroupTitle(groupTitle(group)))
		b.WriteString("\n")
		if group.Description != "" {
			b.WriteString(SubtitleStyle.Render(group.Description))
			b.WriteString("\n")
		}

		for _, item := range group.Items {
			if !m.visibility.IsVisible(group.Items, item) {
				continue
			}
			fieldIdx = m.renderItem(&b, group, item, fieldIdx)
		}
		b.WriteString("\n")
	}

	footer := m.Help.View(m.Keys)
	if m.Saving {
		footer = "saving… " + footer
	} else if m.Snapshot.HasUnresolvedErrors {
		footer = "validation errors present " + footer
	}

	return RenderApplicationContainer(b.String(), footer, m.Width, m.Height)
}

// renderItem writes one item's rows and returns the next focusable index.
func (m FormModel) renderItem(b *strings.Builder, group appconfig.ConfigGroup, item appconfig.ConfigItem, fieldIdx int) int {
	// Unknown type tags render a static fallback block and take no focus.
	// They are never an error: a newer server schema still renders here.
	if !item.Type.Supported() {
		b.WriteString(SubtitleStyle.Render("  " + itemTitle(item)))
		b.WriteString("\n")
		b.WriteString(UnsupportedStyle.Render("unsupported item type: " + string(item.Type)))
		b.WriteString("\n")
		return fieldIdx
	}

	// Structural rows render but take no focus.
	if item.Type.Structural() || item.ReadOnly {
		label := itemTitle(item)
		if item.Type == appconfig.TypeHeading {
			b.WriteString(TitleStyle.Render(label))
		} else {
			b.WriteString(SubtitleStyle.Render("  " + label))
		}
		b.WriteString("\n")
		return fieldIdx
	}

	if item.Repeatable {
		keys := item.InstanceKeys(group.Name)
		for _, instanceKey := range keys {
			focused := fieldIdx == m.Cursor
			value := item.ValuesByGroup[group.Name][instanceKey]
			b.WriteString(m.renderRow(focused, itemTitle(item)+" ["+instanceKey+"]", value, item))
			fieldIdx++
		}
		focused := fieldIdx == m.Cursor
		b.WriteString(RenderFieldLabel("+ add "+itemTitle(item), focused))
		b.WriteString("\n")
		fieldIdx++
		return fieldIdx
	}

	focused := fieldIdx == m.Cursor
	b.WriteString(m.renderRow(focused, itemTitle(item), item.EffectiveValue(), item))
	fieldIdx++

	if item.ValidationError != "" {
		b.WriteString(ValidationErrorStyle.Render("✗ " + item.ValidationError))
		b.WriteString("\n")
	}
	if item.Error != "" {
		b.WriteString(ValidationErrorStyle.Render("✗ " + item.Error))
		b.WriteString("\n")
	}

	return fieldIdx
}

// renderRow renders a single focusable field row.
func (m FormModel) renderRow(focused bool, label, value string, item appconfig.ConfigItem) string {
	if focused && m.Editing {
		return RenderFieldLabel(label+": ", true) + m.Input.View() + "\n"
	}

	display := m.displayValue(value, item)
	marker := ""
	if item.Required {
		marker = RequiredStyle.Render(" (required)")
	} else if item.Recommended {
		marker = RecommendedStyle.Render(" (recommended)")
	}

	return RenderFieldLabel(label+": "+display, focused) + marker + "\n"
}

// displayValue formats a value for read-only display.
func (m FormModel) displayValue(value string, item appconfig.ConfigItem) string {
	switch item.Type {
	case appconfig.TypeBool:
		if item.BoolValue() {
			return "[x]"
		}
		return "[ ]"

	case appconfig.TypePassword:
		if value == "" {
			return "(not set)"
		}
		return appconfig.MaskValue(value)

	case appconfig.TypeFile:
		if item.Filename != "" {
			return item.Filename
		}
		if value == "" {
			return "(no file)"
		}
		return fmt.Sprintf("(%d bytes, base64)", len(value))
	}

	if value == "" {
		return "(empty)"
	}
	return value
}

func groupTitle(group appconfig.ConfigGroup) string {
	if group.Title != "" {
		return group.Title
	}
	return group.Name
}

func itemTitle(item appconfig.ConfigItem) string {
	if item.Title != "" {
		return item.Title
	}
	return item.Name
}
