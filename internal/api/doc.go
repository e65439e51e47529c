// Package api implements the HTTP REST API and the live audit stream.
//
// This package provides:
//   - /api/v1/users routes for login, logout, account CRUD and the audit query
//   - bearer token authentication middleware
//   - an Auditor-only WebSocket hub that relays session events as they happen
//   - middleware for request IDs, logging, panic recovery, CORS and body limits
//
// Handlers translate service errors by kind (see package apperr):
// NotFound is 404, Unauthorized and Invalid are 401, ValidationFailed is
// 400 and anything untagged is logged and returned as 500. A failed login
// is always 400 "Username or password is incorrect", whatever the cause.
package api
