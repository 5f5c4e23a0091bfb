// Package ui renders Harbor's terminal interface with Bubble Tea.
//
// The model reads snapshots from the rules, activity, service and update
// stores on every tick and turns key presses into store operations. Store
// writes run as commands; their outcome comes back as a toast.
package ui
