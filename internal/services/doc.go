// Package services talks to the task server's request/response endpoints.
//
// # Clients
//
//   - [ActionClient] : POST /scan, POST /download, POST /test-webhook
//   - [ConfigSyncClient] : POST /config
//
// Both sit on [APIService], which performs one exchange and returns the raw [APIResponse].
// Rendering surfaces depend on the [Actions] and [ConfigSaver] interfaces so tests can swap
// in fakes.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrAPIRequest] : the request could not be sent or its body read
//   - [shared.ServerRejection] : any non-2xx answer; the message is the server's text verbatim,
//     read from an "error" field, a "message" field, or a plain-text body
//
// A download's acceptance only means the task started. Progress, log lines and the
// "finished" status arrive through the stream package.
package services
