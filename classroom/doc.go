// Package classroom implements the connection registry and control
// arbitration at the heart of the relay.
//
// A classroom has any number of students and teachers. Students take turns
// driving a shared game: at most one of them holds the control token at a
// time, and only that student's GAME_ACTION frames reach the teachers.
// Teachers see a STUDENT_LIST roster every time membership or control
// changes, and can pass the token around with GRANT_CONTROL and
// REVOKE_CONTROL.
//
// Core Types:
//
// Registry maps connection ids to joined Participants. Arbiter holds the
// control token. Router owns both, decodes frames into the closed Inbound
// union and routes them. Connection is the small interface the transport
// implements so the router can write back to clients.
//
// Message Protocol:
//
// Frames are JSON objects with a "type" discriminator:
//   - JOIN_STUDENT {name?}, JOIN_TEACHER {}
//   - GRANT_CONTROL {targetId}, REVOKE_CONTROL {}
//   - GAME_STATE_UPDATE {targetId, ...}: relayed verbatim to targetId
//   - GAME_ACTION {...}: relayed verbatim to all teachers, controller only
//
// The router answers with CONTROL_GRANTED, CONTROL_REVOKED and
// STUDENT_LIST {list: [{id, name, isActive}]}. Malformed and unknown frames
// are dropped without a reply.
//
// Concurrency:
//
// Nothing in this package locks. The transport hub calls the Router from a
// single goroutine, so every mutation is serialized with every other.
package classroom
