package classroom

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Inbound
		wantErr error
	}{
		{
			name: "join student with name",
			raw:  `{"type":"JOIN_STUDENT","name":"Ada"}`,
			want: JoinStudent{Name: "Ada"},
		},
		{
			name: "join student without name",
			raw:  `{"type":"JOIN_STUDENT"}`,
			want: JoinStudent{},
		},
		{
			name: "join teacher ignores extra fields",
			raw:  `{"type":"JOIN_TEACHER","name":"ignored"}`,
			want: JoinTeacher{},
		},
		{
			name: "grant control",
			raw:  `{"type":"GRANT_CONTROL","targetId":"abc"}`,
			want: GrantControl{TargetID: "abc"},
		},
		{
			name:    "grant control without target",
			raw:     `{"type":"GRANT_CONTROL"}`,
			wantErr: ErrMissingField,
		},
		{
			name:    "grant control with numeric target",
			raw:     `{"type":"GRANT_CONTROL","targetId":7}`,
			wantErr: ErrMalformedFrame,
		},
		{
			name: "revoke control",
			raw:  `{"type":"REVOKE_CONTROL"}`,
			want: RevokeControl{},
		},
		{
			name: "game state update keeps raw frame",
			raw:  `{"type":"GAME_STATE_UPDATE","targetId":"s1","board":[[1,2],[3,4]]}`,
			want: GameStateUpdate{
				TargetID: "s1",
				Raw:      []byte(`{"type":"GAME_STATE_UPDATE","targetId":"s1","board":[[1,2],[3,4]]}`),
			},
		},
		{
			name:    "game state update without target",
			raw:     `{"type":"GAME_STATE_UPDATE","board":[]}`,
			wantErr: ErrMissingField,
		},
		{
			name: "game action with arbitrary payload",
			raw:  `{"type":"GAME_ACTION","name":42,"key":"ArrowUp"}`,
			want: GameAction{Raw: []byte(`{"type":"GAME_ACTION","name":42,"key":"ArrowUp"}`)},
		},
		{
			name: "unknown tag",
			raw:  `{"type":"DANCE"}`,
			want: Unknown{Tag: "DANCE"},
		},
		{
			name: "missing tag",
			raw:  `{"targetId":"x"}`,
			want: Unknown{Tag: ""},
		},
		{
			name:    "not json",
			raw:     `hello`,
			wantErr: ErrMalformedFrame,
		},
		{
			name:    "json array",
			raw:     `[1,2,3]`,
			wantErr: ErrMalformedFrame,
		},
		{
			name: "upper-case type key is not the tag",
			raw:  `{"TYPE":"JOIN_TEACHER"}`,
			want: Unknown{Tag: ""},
		},
		{
			name: "differently cased duplicate does not override type",
			raw:  `{"type":"GAME_ACTION","Type":"JOIN_TEACHER"}`,
			want: GameAction{Raw: []byte(`{"type":"GAME_ACTION","Type":"JOIN_TEACHER"}`)},
		},
		{
			name:    "target key must match exactly",
			raw:     `{"type":"GRANT_CONTROL","TargetID":"abc"}`,
			wantErr: ErrMissingField,
		},
		{
			name: "name key must match exactly",
			raw:  `{"type":"JOIN_STUDENT","Name":"Ada"}`,
			want: JoinStudent{},
		},
		{
			name: "null name reads as empty",
			raw:  `{"type":"JOIN_STUDENT","name":null}`,
			want: JoinStudent{},
		},
		{
			name:    "non-string type",
			raw:     `{"type":7}`,
			wantErr: ErrMalformedFrame,
		},
		{
			name:    "non-string name",
			raw:     `{"type":"JOIN_STUDENT","name":{"first":"Ada"}}`,
			wantErr: ErrMalformedFrame,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeStudentList(t *testing.T) {
	t.Run("nil list encodes as empty array", func(t *testing.T) {
		data, err := EncodeStudentList(nil)
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"STUDENT_LIST","list":[]}`, string(data))
	})

	t.Run("entries use client field names", func(t *testing.T) {
		data, err := EncodeStudentList([]RosterEntry{
			{ID: "a", Name: "Ada", IsActive: true},
			{ID: "b", Name: "Bo"},
		})
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"STUDENT_LIST","list":[
			{"id":"a","name":"Ada","isActive":true},
			{"id":"b","name":"Bo","isActive":false}
		]}`, string(data))
	})
}

func TestControlNoticeFrames(t *testing.T) {
	var n notice
	require.NoError(t, json.Unmarshal(controlGrantedFrame, &n))
	assert.Equal(t, TypeControlGranted, n.Type)

	require.NoError(t, json.Unmarshal(controlRevokedFrame, &n))
	assert.Equal(t, TypeControlRevoked, n.Type)
}
