// Package api provides the HTTP surface of the control relay.
//
// The api package implements:
//   - WebSocket upgrade for classroom clients
//   - Operator endpoints for the roster and the control token
//   - Prometheus metrics
//   - Static file serving for the browser client
//
// Endpoints:
//
// Classroom:
//   - GET /ws - WebSocket connection for students and teachers
//
// Operator:
//   - GET /api/health - Liveness check
//   - GET /api/roster - Students, teacher count and active controller
//   - POST /api/control - Grant control: {"targetId": "<participant id>"}
//   - DELETE /api/control - Revoke control
//
// Observability:
//   - GET /metrics - Prometheus exposition
//
// Operator grants go through the same event loop as GRANT_CONTROL frames,
// so teachers see the same CONTROL_GRANTED / STUDENT_LIST traffic either
// way. An unknown target answers 404 and a teacher target 409; in both
// cases any previous controller has already been revoked.
//
// Request/Response Format:
//
// All /api endpoints accept and return JSON. Errors are returned as
// {"error": "<message>"}.
package api
