// Package config loads Harbor's client configuration.
//
// # Configuration Discovery
//
// Load follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/harbor/config.toml
//  3. If the file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or empty, use defaults
//
// # TOML Format
//
//	gateway = "127.0.0.1:7488"        # host:port, http(s):// or ws(s)://
//	status_poll_seconds = 5
//	update_check_hours = 3
//	activity_page_size = 50
//	release_url = "https://api.github.com/repos/five82/harbor/releases/latest"
//	settings_source = "service"        # or "local"
//	notifications = true
//	log_level = "info"
//	log_file = "~/.local/state/harbor/harbor.log"
//	prefs_file = "~/.config/harbor/prefs.toml"
//
// Every field is optional. String values are trimmed and paths are
// tilde-expanded. Non-positive numbers keep the default.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than
// os.ErrNotExist, TOML parse errors and an unknown settings_source. A missing
// file is not an error.
package config
