package classroom

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/wricardo/mcp-training/controlrelay/metrics"
)

// Roster is an operator view of the classroom.
type Roster struct {
	Students           []RosterEntry `json:"students"`
	TeacherCount       int           `json:"teacher_count"`
	ActiveControllerID ParticipantID `json:"active_controller_id,omitempty"`
}

// Router owns the registry and arbiter and applies inbound messages to
// them. It is not safe for concurrent use: every call must come from the
// same event loop.
type Router struct {
	registry *Registry
	arbiter  *Arbiter
	log      zerolog.Logger
	now      func() time.Time
}

// NewRouter creates a router with empty state.
func NewRouter(logger zerolog.Logger) *Router {
	registry := NewRegistry()
	return &Router{
		registry: registry,
		arbiter:  NewArbiter(registry),
		log:      logger,
		now:      time.Now,
	}
}

// HandleFrame decodes raw and dispatches it on behalf of conn. Decoding
// failures are logged and the frame is discarded.
func (r *Router) HandleFrame(conn Connection, raw []byte) {
	msg, err := Decode(raw)
	if err != nil {
		metrics.RecordFrameDropped(metrics.ReasonMalformed)
		r.log.Warn().Err(err).Str("conn", string(conn.ID())).Msg("Discarding frame")
		return
	}
	r.Dispatch(conn, msg)
}

// Dispatch applies a decoded message sent by conn.
func (r *Router) Dispatch(conn Connection, msg Inbound) {
	id := conn.ID()
	if _, ok := msg.(Unknown); !ok {
		metrics.RecordFrameReceived(string(msg.Type()))
	}

	switch m := msg.(type) {
	case JoinStudent:
		r.join(conn, m.Name, RoleStudent)
		return
	case JoinTeacher:
		r.join(conn, TeacherName, RoleTeacher)
		return
	case Unknown:
		metrics.RecordFrameReceived("UNKNOWN")
		metrics.RecordFrameDropped(metrics.ReasonUnknownType)
		r.log.Debug().Str("conn", string(id)).Str("type", m.Tag).Msg("Ignoring unknown message type")
		return
	}

	sender, joined := r.registry.Get(id)
	if !joined {
		metrics.RecordFrameDropped(metrics.ReasonNotJoined)
		r.log.Debug().Str("conn", string(id)).Str("type", string(msg.Type())).Msg("Ignoring message before join")
		return
	}

	switch m := msg.(type) {
	case GrantControl:
		if err := r.GrantControl(m.TargetID); err != nil {
			r.log.Info().Err(err).Str("from", string(sender.ID)).Str("target", string(m.TargetID)).Msg("Grant had no target")
		}

	case RevokeControl:
		r.RevokeControl()

	case GameStateUpdate:
		target, ok := r.registry.Get(m.TargetID)
		if !ok {
			metrics.RecordFrameDropped(metrics.ReasonStaleTarget)
			return
		}
		send(target, m.Raw)

	case GameAction:
		if !r.arbiter.IsActive(sender.ID) {
			metrics.RecordFrameDropped(metrics.ReasonUnauthorized)
			return
		}
		r.broadcastToTeachers(m.Raw)
	}
}

// Disconnect removes the participant for id, releasing control if it held
// it. Connections that never joined leave no trace.
func (r *Router) Disconnect(id ParticipantID) {
	r.arbiter.OnDisconnect(id)
	p, ok := r.registry.Get(id)
	if !ok {
		return
	}
	r.registry.Remove(id)
	r.updateGauges()

	r.log.Info().Str("id", string(id)).Str("name", p.Name).Str("role", string(p.Role)).Msg("Participant left")
	r.broadcastStudentList()
}

// GrantControl hands control to target and broadcasts the roster once.
// ErrUnknownTarget and ErrNotStudent report a grant that only revoked.
func (r *Router) GrantControl(target ParticipantID) error {
	changed, err := r.arbiter.Grant(target)
	if changed {
		r.broadcastStudentList()
	}
	if err != nil {
		return err
	}
	if p, ok := r.registry.Get(target); ok {
		r.log.Info().Str("id", string(p.ID)).Str("name", p.Name).Msg("Control granted")
	}
	return nil
}

// RevokeControl clears control. It reports false, and sends nothing, when
// no one held it.
func (r *Router) RevokeControl() bool {
	if !r.arbiter.Revoke() {
		return false
	}
	r.log.Info().Msg("Control revoked")
	r.broadcastStudentList()
	return true
}

// Roster returns a snapshot of the current students and controller.
func (r *Router) Roster() Roster {
	active, _ := r.arbiter.Active()
	return Roster{
		Students:           r.studentList(),
		TeacherCount:       r.registry.Count(RoleTeacher),
		ActiveControllerID: active,
	}
}

// Participant looks up a joined participant.
func (r *Router) Participant(id ParticipantID) (*Participant, bool) {
	return r.registry.Get(id)
}

func (r *Router) join(conn Connection, name string, role Role) {
	id := conn.ID()
	if existing, ok := r.registry.Get(id); ok && existing.Role != role {
		metrics.RecordFrameDropped(metrics.ReasonRoleLocked)
		r.log.Warn().Str("id", string(id)).Str("role", string(existing.Role)).Str("requested", string(role)).Msg("Ignoring role change")
		return
	}

	if role == RoleStudent && name == "" {
		name = fallbackStudentName(id)
	}

	r.registry.Add(NewParticipant(conn, name, role, r.now()))
	r.updateGauges()

	r.log.Info().Str("id", string(id)).Str("name", name).Str("role", string(role)).Msg("Participant joined")
	r.broadcastStudentList()
}

func (r *Router) studentList() []RosterEntry {
	students := r.registry.ListByRole(RoleStudent)
	list := make([]RosterEntry, 0, len(students))
	for _, s := range students {
		list = append(list, RosterEntry{
			ID:       s.ID,
			Name:     s.Name,
			IsActive: r.arbiter.IsActive(s.ID),
		})
	}
	return list
}

func (r *Router) broadcastStudentList() {
	frame, err := EncodeStudentList(r.studentList())
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to encode student list")
		return
	}
	r.broadcastToTeachers(frame)
}

func (r *Router) broadcastToTeachers(frame []byte) {
	for _, teacher := range r.registry.ListByRole(RoleTeacher) {
		send(teacher, frame)
	}
}

func (r *Router) updateGauges() {
	metrics.SetParticipants(string(RoleStudent), r.registry.Count(RoleStudent))
	metrics.SetParticipants(string(RoleTeacher), r.registry.Count(RoleTeacher))
}

func send(p *Participant, frame []byte) {
	if p.send(frame) {
		metrics.RecordFrameSent()
		return
	}
	metrics.RecordSendSkipped()
}

// IsGrantRejection reports whether err came from a grant whose target was
// not a connected student.
func IsGrantRejection(err error) bool {
	return errors.Is(err, ErrUnknownTarget) || errors.Is(err, ErrNotStudent)
}
