package classroom

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAddGetRemove(t *testing.T) {
	reg := NewRegistry()
	p := NewParticipant(newConn("s1"), "Ada", RoleStudent, time.Now())

	reg.Add(p)

	got, ok := reg.Get("s1")
	require.True(t, ok)
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, 1, reg.Len())

	assert.True(t, reg.Remove("s1"))
	_, ok = reg.Get("s1")
	assert.False(t, ok)

	// Removing twice is a no-op.
	assert.False(t, reg.Remove("s1"))
	assert.Equal(t, 0, reg.Len())
}

func TestRegistryListByRole(t *testing.T) {
	reg := NewRegistry()
	now := time.Now()
	reg.Add(NewParticipant(newConn("s1"), "Ada", RoleStudent, now))
	reg.Add(NewParticipant(newConn("t1"), TeacherName, RoleTeacher, now))
	reg.Add(NewParticipant(newConn("s2"), "Bo", RoleStudent, now))
	reg.Add(NewParticipant(newConn("s3"), "Cy", RoleStudent, now))

	students := reg.ListByRole(RoleStudent)
	require.Len(t, students, 3)
	assert.Equal(t, []ParticipantID{"s1", "s2", "s3"}, ids(students))

	teachers := reg.ListByRole(RoleTeacher)
	require.Len(t, teachers, 1)
	assert.Equal(t, ParticipantID("t1"), teachers[0].ID)

	assert.Equal(t, 3, reg.Count(RoleStudent))
	assert.Equal(t, 1, reg.Count(RoleTeacher))
}

func TestRegistryOverwriteKeepsJoinOrder(t *testing.T) {
	reg := NewRegistry()
	now := time.Now()
	reg.Add(NewParticipant(newConn("s1"), "Ada", RoleStudent, now))
	reg.Add(NewParticipant(newConn("s2"), "Bo", RoleStudent, now))

	reg.Add(NewParticipant(newConn("s1"), "Ada Lovelace", RoleStudent, now))

	students := reg.ListByRole(RoleStudent)
	assert.Equal(t, []ParticipantID{"s1", "s2"}, ids(students))
	assert.Equal(t, "Ada Lovelace", students[0].Name)
	assert.Equal(t, 2, reg.Len())
}

func TestRegistryListIsSnapshot(t *testing.T) {
	reg := NewRegistry()
	reg.Add(NewParticipant(newConn("s1"), "Ada", RoleStudent, time.Now()))

	students := reg.ListByRole(RoleStudent)
	reg.Remove("s1")

	require.Len(t, students, 1)
	assert.Equal(t, ParticipantID("s1"), students[0].ID)
}

func ids(ps []*Participant) []ParticipantID {
	result := make([]ParticipantID, 0, len(ps))
	for _, p := range ps {
		result = append(result, p.ID)
	}
	return result
}
