// Package tasks reconciles the server's push events and the user's actions into one observable state.
//
// # Components
//
//  1. [Controller] : task phase (Idle, Running, Finished, Error) and action gating
//     - Begin moves to Running for a download and resets progress
//     - Finish runs once per status "finished" event
//     - Reject returns to Idle when the server refuses a download
//     - Lost moves a running task to Error when the stream drops, re-enabling actions
//  2. [ProgressModel] : "<current>/<total>" counters, last write wins
//  3. [LogSink] : fixed-capacity ring of timestamped status lines, oldest evicted first
//
// # Session
//
// [Session] owns one of each component and is the only thing that mutates them.
// Stream events enter through [Session.Dispatch]; request outcomes through the
// Begin*/Complete* pairs. A single mutex serializes both paths, so a response is applied
// atomically with respect to the next stream event.
//
// Rendering surfaces read [Session.Snapshot], a pure [View] projection, and wait on
// [Session.Changes] for coalesced change notifications.
package tasks
