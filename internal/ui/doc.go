// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for upload runs:
//  1. [FolderListView] : Browse and select a local collection folder
//  2. [ConfirmView] : Preview the pending work set before committing
//  3. [UploadView] : Monitor real-time transfer progress
//  4. [ResultView] : Display the run summary and recorded failures
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View
// pattern. Progress updates flow through a channel from the UploadEngine,
// providing non-blocking status reporting during transfers.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
