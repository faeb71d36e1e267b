// Package models defines the data exchanged between the client and the task server.
//
//   - [StreamEvent] : one frame of the push channel, discriminated by [EventType]
//   - [ProgressState] : current/total counters reported by progress events
//   - [ConfigDocument] : the configuration payload submitted to POST /config
//   - [ScanResult] : one per-path entry of a POST /scan response
//
// [ConfigDocument] is nested in Go and flattened on the wire to the keys the server reads
// (schedule_enabled, schedule_interval_minutes, include_errors, ...).
package models
