// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The single view is a resolution task monitor: it polls the task manager on
// a fixed tick, renders a progress bar over processed tracks, and maps the
// stop keybinding onto a cooperative stop request. The view keeps polling
// through the stopping state so the user watches the worker drain rather
// than the screen freezing.
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Keyboard bindings (s to stop, q to quit) are displayed via charmbracelet/bubbles/help.
package ui
