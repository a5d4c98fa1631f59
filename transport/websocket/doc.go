// Package websocket provides the WebSocket transport for the control relay.
//
// The websocket package implements:
//   - Connection acceptance and id assignment
//   - Inbound frame delivery to the classroom router
//   - Non-blocking outbound delivery with per-client queues
//   - Keepalive pings and disconnect detection
//   - Serialized operator access to the router
//
// Architecture:
//
// The package uses a hub-and-spoke model. A central Hub owns the
// classroom.Router and runs a single event loop; every connect, inbound
// frame, disconnect and operator call is an event on that loop, so the
// router never sees two events at once. Each Client runs a read pump that
// forwards frames to the hub and a write pump that drains its send queue.
//
// Message Protocol:
//
// Each WebSocket text message carries exactly one JSON frame. The hub does
// not inspect frames; see package classroom for the message set.
//
// Usage:
//
//	router := classroom.NewRouter(logger)
//	hub := websocket.NewHub(router, logger, websocket.Options{})
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", hub.ServeWS)
//
// Connection Lifecycle:
//
// 1. Client connects and is assigned a UUID
// 2. Connection registered with hub (no participant yet)
// 3. Client sends JOIN_STUDENT or JOIN_TEACHER
// 4. Frames are routed by the classroom router
// 5. Read error or close triggers unregister and router.Disconnect
//
// Backpressure:
//
// Sends never block the event loop. A frame for a closed client is skipped;
// a client whose send queue is full is closed and leaves through step 5.
package websocket
