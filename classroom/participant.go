package classroom

import "time"

// ParticipantID identifies a connection for its whole lifetime.
type ParticipantID string

// Role is fixed when a connection joins.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// TeacherName is the display name given to every teacher.
const TeacherName = "Teacher"

// Connection is the transport side of a participant. Send must not block
// and reports false when the frame was skipped because the connection is
// closed or closing.
type Connection interface {
	ID() ParticipantID
	Send(frame []byte) bool
}

// Participant is a joined connection.
type Participant struct {
	ID       ParticipantID
	Name     string
	Role     Role
	JoinedAt time.Time

	conn Connection
	seq  uint64
}

// NewParticipant builds a participant bound to conn.
func NewParticipant(conn Connection, name string, role Role, joinedAt time.Time) *Participant {
	return &Participant{
		ID:       conn.ID(),
		Name:     name,
		Role:     role,
		JoinedAt: joinedAt,
		conn:     conn,
	}
}

// send writes frame to the participant's connection, if it has one.
func (p *Participant) send(frame []byte) bool {
	if p == nil || p.conn == nil {
		return false
	}
	return p.conn.Send(frame)
}

// fallbackStudentName derives a display name from the connection id.
func fallbackStudentName(id ParticipantID) string {
	short := string(id)
	if len(short) > 4 {
		short = short[:4]
	}
	return "Student " + short
}
