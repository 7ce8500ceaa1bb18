package config

import "time"

// Registry represents the entire user configuration file.
// This stores user-defined metadata for admin consoles and application preferences.
type Registry struct {
	Version     int                 `yaml:"version"`
	Consoles    map[string]*Console `yaml:"consoles,omitempty"` // Keyed by console name
	Preferences *Preferences        `yaml:"preferences,omitempty"`
}

// Console represents user-defined metadata for a single admin console.
// This is keyed by a user-chosen name in the Registry.
type Console struct {
	URL      string              `yaml:"url"`                 // Console API base URL
	Username string              `yaml:"username,omitempty"`  // Default username for this console
	LastSeen time.Time           `yaml:"last_seen,omitempty"` // Last successful connection time
	Apps     map[string]*AppMeta `yaml:"apps,omitempty"`      // Application metadata (keyed by app slug)
}

// AppMeta represents user-defined metadata for a single application on a console.
// This is purely client-side information - the console itself doesn't store it.
type AppMeta struct {
	Nickname     string    `yaml:"nickname,omitempty"`      // User-friendly name
	LastSequence int64     `yaml:"last_sequence,omitempty"` // Last edited config sequence
	LastSaved    time.Time `yaml:"last_saved,omitempty"`    // Last successful save time
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultConsole string `yaml:"default_console,omitempty"` // Console used when none is named
	LiveValidation bool   `yaml:"live_validation"`           // Enable debounced validation while editing
	DebounceMillis int    `yaml:"debounce_millis"`           // Edit-to-validation quiet period in milliseconds
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:  1,
		Consoles: make(map[string]*Console),
		Preferences: &Preferences{
			LiveValidation: true,
			DebounceMillis: 300,
		},
	}
}

// GetConsole retrieves console metadata by name.
// Returns nil if the console doesn't exist in the registry.
func (r *Registry) GetConsole(name string) *Console {
	return r.Consoles[name]
}

// EnsureConsole ensures a console entry exists in the registry.
// If the console doesn't exist, creates a new entry with default values.
// Returns the console entry (existing or newly created).
func (r *Registry) EnsureConsole(name string) *Console {
	if r.Consoles == nil {
		r.Consoles = make(map[string]*Console)
	}

	if console, exists := r.Consoles[name]; exists {
		return console
	}

	console := &Console{
		Apps: make(map[string]*AppMeta),
	}
	r.Consoles[name] = console
	return console
}

// UpdateConsoleLastSeen updates the last seen timestamp and URL for a console.
func (r *Registry) UpdateConsoleLastSeen(name, url string) {
	console := r.EnsureConsole(name)
	console.LastSeen = time.Now()
	console.URL = url
}

// SetConsoleAuth sets the default username for a console.
// Passwords are never stored; they are prompted when needed.
func (r *Registry) SetConsoleAuth(name, username string) {
	console := r.EnsureConsole(name)
	console.Username = username
}

// RecordSave updates the app metadata after a successful save.
func (r *Registry) RecordSave(consoleName, appSlug string, sequence int64) {
	console := r.EnsureConsole(consoleName)

	if console.Apps == nil {
		console.Apps = make(map[string]*AppMeta)
	}

	app, exists := console.Apps[appSlug]
	if !exists {
		app = &AppMeta{}
		console.Apps[appSlug] = app
	}
	app.LastSequence = sequence
	app.LastSaved = time.Now()
}

// SetAppNickname sets a user-friendly nickname for an app on a console.
func (r *Registry) SetAppNickname(consoleName, appSlug, nickname string) {
	console := r.EnsureConsole(consoleName)

	if console.Apps == nil {
		console.Apps = make(map[string]*AppMeta)
	}
	if app, exists := console.Apps[appSlug]; exists {
		app.Nickname = nickname
		return
	}
	console.Apps[appSlug] = &AppMeta{Nickname: nickname}
}

// DefaultConsole resolves the console to use when the caller names none:
// the configured default, or the only registered console, or "".
func (r *Registry) DefaultConsole() string {
	if r.Preferences != nil && r.Preferences.DefaultConsole != "" {
		return r.Preferences.DefaultConsole
	}
	if len(r.Consoles) == 1 {
		for name := range r.Consoles {
			return name
		}
	}
	return ""
}
