// Package metrics exposes Prometheus instrumentation for the control relay.
//
// Collectors are package-level and registered once with Register. The
// Record* helpers are safe to call before Register; unregistered collectors
// still count, they are just not exported on /metrics.
//
// Exported series:
//   - relay_connections: open WebSocket connections
//   - relay_participants{role}: joined participants by role
//   - relay_frames_received_total{type}: inbound frames by message type
//   - relay_frames_dropped_total{reason}: inbound frames that produced no effect
//   - relay_frames_sent_total: outbound frames queued to a client
//   - relay_sends_skipped_total: outbound frames skipped for a closed or stalled client
//   - relay_control_changes_total{action}: granted, revoked, disconnected
package metrics
