// Package api implements the HTTP REST API and WebSocket server for Inkwell Core.
//
// This package provides:
//   - Account endpoints: register, login, refresh, logout, profile
//   - Blog, comment and like endpoints with role-based access
//   - Admin endpoints for users, audit history and metrics
//   - WebSocket hub broadcasting blog, comment and like events
//   - Middleware stack (request ID, logging, recovery, CORS, rate limit)
//
// # Access control
//
// Protected routes run an explicit Pipeline before the handler:
//
//	Authenticate -> Authorize(roles) -> handler
//
// Each Step returns an Outcome: Continue with an enriched context, or Halt
// with an *APIError that the runner renders as the error envelope. No later
// step or handler runs after a Halt. Authenticate only verifies the bearer
// access token; Authorize re-reads the caller's role from the user store on
// every request, so a role change or account deletion applies immediately.
//
// # Responses
//
// Success bodies use {"success": true, "message": ..., "data": ...}.
// Failures use {"code": "<Kind>", "message": ...} where Kind is one of
// AuthenticationError, AuthorizationError, NotFound, ValidationError,
// BadRequest, Conflict, PayloadTooLarge, TooManyRequests or ServerError.
//
// # Graceful Degradation
//
// MQTT, InfluxDB, Redis and the banner bucket are optional. Without MQTT or
// InfluxDB events and telemetry are skipped; without Redis the rate limiter
// runs in process; without a bucket, banner uploads fail with ServerError.
package api
