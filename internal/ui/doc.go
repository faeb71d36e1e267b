// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// A single screen reflects one [tasks.Session]:
//  1. Header : phase and connection status from [tasks.View.StatusLine]
//  2. Paths : configured search paths, annotated with the last scan result
//  3. Progress : a bar driven by "<current>/<total>" events while a download runs
//  4. Log : the session's status lines, always scrolled to the newest
//  5. Notice : a modal for outcomes that must be acknowledged before anything else
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// The stream supervisor runs outside the program and writes into the session; the model waits on
// [tasks.Session.Changes] and re-reads the snapshot, so rendering never blocks event delivery.
//
// Requests (scan, download, save, webhook test) run as commands and report back through the
// session's Complete* methods, which apply the outcome under the session lock.
package ui
