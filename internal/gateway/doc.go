// Package gateway is the command gateway used by every Harbor store.
//
// # Overview
//
// The Harbor service exposes named request/response operations ("get_rules",
// "start_service", "get_activity_logs", ...). A Gateway sends one operation
// with a JSON payload and decodes the JSON result. Stores never talk to a
// transport directly; they go through api.Client, which is built on top of a
// Gateway, so tests can substitute an in-memory fake.
//
// # Transports
//
//   - HTTPGateway: POST /invoke/<command> with the payload as the body. A
//     status of 400 or above is a rejection; the body is expected to be
//     {"error": "..."} and becomes an *Error.
//   - WSGateway: a single WebSocket connection carrying
//     {"id", "command", "payload"} requests and {"id", "result", "error"}
//     responses. Responses are matched to callers by id.
//
// Dial chooses the transport from the address scheme.
//
// # Errors
//
// Rejections reported by the service are *Error values; everything else
// (connection refused, timeouts, decode failures) is a wrapped transport
// error. Message turns either kind into the string the UI displays.
//
// # Timeouts
//
// HTTPGateway applies a 5 second client timeout. WSGateway calls are bounded
// only by the caller's context.
package gateway
