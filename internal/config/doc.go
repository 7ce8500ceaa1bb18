// Package config provides user configuration management for the kotsconfig tool.
//
// This package manages a YAML-based configuration file that stores user-defined
// metadata for admin consoles, including console URLs, default usernames, and
// application preferences. The configuration follows OS-specific conventions
// for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/kotsconfig/config.yaml or $HOME/.config/kotsconfig/config.yaml
//   - macOS: $HOME/.config/kotsconfig/config.yaml
//   - Windows: %LOCALAPPDATA%\kotsconfig\config.yaml
//
// # Security
//
// IMPORTANT: This package NEVER stores sensitive credentials such as console
// passwords. These are always prompted from the user when needed.
//
// # Usage Example
//
//	// Load the global registry
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Register a console
//	registry.UpdateConsoleLastSeen("prod", "https://console.internal:3000")
//	registry.SetConsoleAuth("prod", "admin")
//
//	// Save changes atomically
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
