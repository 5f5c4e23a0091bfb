// Package app provides the orchestration layer for the Harbor client.
//
// # Overview
//
// This package wires together configuration, logging, the service gateway,
// the four state stores and the UI. It is the composition root: every store
// is created exactly once here and handed to its consumers, so no package
// keeps process-wide singletons.
//
// # Architecture
//
//  1. Load ~/.config/harbor/config.toml and apply command-line overrides
//  2. Send logs to the configured log file while the TUI owns the terminal
//  3. Dial the Harbor service (HTTP or WebSocket, chosen by address scheme)
//  4. Build the rules, activity, service and update stores on one api.Client
//  5. Start the stores in the background (initial loads, status polling,
//     update schedule)
//  6. Run the TUI until the user quits or the context is cancelled
//  7. Dispose every store and close the gateway
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> LoadConfig()     config.toml + overrides
//	       ├─────> Build()          gateway.Dial, api.NewClient, stores
//	       ├─────> StartStores()    background loads and loops
//	       ├─────> ui.Run()         TUI (blocks)
//	       └─────> Close()          Dispose stores, close gateway
//
// # Update Settings
//
// The update store persists its opt-in flag and last notified version
// through update.Settings. With settings_source = "service" (the default)
// the api.Client stores them in the service; with "local" they live in the
// prefs file.
//
// # Error Handling
//
// Configuration, logging and gateway setup errors are returned from Run.
// Store failures after startup never stop the application; they surface in
// store snapshots and UI toasts.
package app
