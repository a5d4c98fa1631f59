package classroom

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id     ParticipantID
	frames [][]byte
	closed bool
}

func newConn(id string) *fakeConn {
	return &fakeConn{id: ParticipantID(id)}
}

func (c *fakeConn) ID() ParticipantID { return c.id }

func (c *fakeConn) Send(frame []byte) bool {
	if c.closed {
		return false
	}
	c.frames = append(c.frames, append([]byte(nil), frame...))
	return true
}

func (c *fakeConn) reset() { c.frames = nil }

// types returns the "type" field of every frame received so far.
func (c *fakeConn) types(t *testing.T) []string {
	t.Helper()
	result := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		var env struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(f, &env))
		result = append(result, env.Type)
	}
	return result
}

// lastRoster decodes the most recent STUDENT_LIST frame.
func (c *fakeConn) lastRoster(t *testing.T) []RosterEntry {
	t.Helper()
	for i := len(c.frames) - 1; i >= 0; i-- {
		var list StudentList
		require.NoError(t, json.Unmarshal(c.frames[i], &list))
		if list.Type == TypeStudentList {
			return list.List
		}
	}
	t.Fatalf("no %s frame received by %s", TypeStudentList, c.id)
	return nil
}

func newTestRouter() *Router {
	return NewRouter(zerolog.Nop())
}

func frame(t *testing.T, v map[string]any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func joinStudent(t *testing.T, r *Router, c *fakeConn, name string) {
	t.Helper()
	msg := map[string]any{"type": "JOIN_STUDENT"}
	if name != "" {
		msg["name"] = name
	}
	r.HandleFrame(c, frame(t, msg))
}

func joinTeacher(t *testing.T, r *Router, c *fakeConn) {
	t.Helper()
	r.HandleFrame(c, frame(t, map[string]any{"type": "JOIN_TEACHER"}))
}

func grant(t *testing.T, r *Router, from *fakeConn, target string) {
	t.Helper()
	r.HandleFrame(from, frame(t, map[string]any{"type": "GRANT_CONTROL", "targetId": target}))
}
