package classroom

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrMissingField   = errors.New("missing required field")
)

// MessageType is the "type" discriminator carried by every frame.
type MessageType string

// Inbound message types.
const (
	TypeJoinStudent     MessageType = "JOIN_STUDENT"
	TypeJoinTeacher     MessageType = "JOIN_TEACHER"
	TypeGrantControl    MessageType = "GRANT_CONTROL"
	TypeRevokeControl   MessageType = "REVOKE_CONTROL"
	TypeGameStateUpdate MessageType = "GAME_STATE_UPDATE"
	TypeGameAction      MessageType = "GAME_ACTION"
)

// Outbound message types.
const (
	TypeControlGranted MessageType = "CONTROL_GRANTED"
	TypeControlRevoked MessageType = "CONTROL_REVOKED"
	TypeStudentList    MessageType = "STUDENT_LIST"
)

// Inbound is a decoded client frame. The set of implementations is closed.
type Inbound interface {
	Type() MessageType
	inbound()
}

type JoinStudent struct {
	Name string
}

type JoinTeacher struct{}

type GrantControl struct {
	TargetID ParticipantID
}

type RevokeControl struct{}

// GameStateUpdate is relayed to TargetID exactly as received.
type GameStateUpdate struct {
	TargetID ParticipantID
	Raw      []byte
}

// GameAction is relayed to every teacher exactly as received.
type GameAction struct {
	Raw []byte
}

// Unknown carries a well-formed frame whose type this relay does not handle.
type Unknown struct {
	Tag string
}

func (JoinStudent) Type() MessageType     { return TypeJoinStudent }
func (JoinTeacher) Type() MessageType     { return TypeJoinTeacher }
func (GrantControl) Type() MessageType    { return TypeGrantControl }
func (RevokeControl) Type() MessageType   { return TypeRevokeControl }
func (GameStateUpdate) Type() MessageType { return TypeGameStateUpdate }
func (GameAction) Type() MessageType      { return TypeGameAction }
func (u Unknown) Type() MessageType       { return MessageType(u.Tag) }

func (JoinStudent) inbound()     {}
func (JoinTeacher) inbound()     {}
func (GrantControl) inbound()    {}
func (RevokeControl) inbound()   {}
func (GameStateUpdate) inbound() {}
func (GameAction) inbound()      {}
func (Unknown) inbound()         {}

// Decode parses a raw frame. Keys are case-sensitive: "TYPE" is not
// "type". Only the fields a message type needs are decoded, and opaque
// payload fields of any shape pass through untouched. Unrecognised tags
// decode to Unknown with a nil error.
func Decode(raw []byte) (Inbound, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	tag, err := stringField(fields, "type")
	if err != nil {
		return nil, err
	}

	switch MessageType(tag) {
	case TypeJoinStudent:
		name, err := stringField(fields, "name")
		if err != nil {
			return nil, err
		}
		return JoinStudent{Name: name}, nil

	case TypeJoinTeacher:
		return JoinTeacher{}, nil

	case TypeGrantControl:
		target, err := targetField(fields)
		if err != nil {
			return nil, err
		}
		return GrantControl{TargetID: target}, nil

	case TypeRevokeControl:
		return RevokeControl{}, nil

	case TypeGameStateUpdate:
		target, err := targetField(fields)
		if err != nil {
			return nil, err
		}
		return GameStateUpdate{TargetID: target, Raw: raw}, nil

	case TypeGameAction:
		return GameAction{Raw: raw}, nil

	default:
		return Unknown{Tag: tag}, nil
	}
}

// stringField reads fields[key] as a string. A missing key or null value
// reads as "".
func stringField(fields map[string]json.RawMessage, key string) (string, error) {
	v, ok := fields[key]
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrMalformedFrame, key, err)
	}
	return s, nil
}

func targetField(fields map[string]json.RawMessage) (ParticipantID, error) {
	target, err := stringField(fields, "targetId")
	if err != nil {
		return "", err
	}
	if target == "" {
		return "", fmt.Errorf("%w: targetId", ErrMissingField)
	}
	return ParticipantID(target), nil
}

// RosterEntry describes one student in a STUDENT_LIST frame.
type RosterEntry struct {
	ID       ParticipantID `json:"id"`
	Name     string        `json:"name"`
	IsActive bool          `json:"isActive"`
}

// StudentList is the STUDENT_LIST frame sent to teachers.
type StudentList struct {
	Type MessageType   `json:"type"`
	List []RosterEntry `json:"list"`
}

type notice struct {
	Type MessageType `json:"type"`
}

var (
	controlGrantedFrame = mustEncode(notice{Type: TypeControlGranted})
	controlRevokedFrame = mustEncode(notice{Type: TypeControlRevoked})
)

// EncodeStudentList builds a STUDENT_LIST frame. A nil list encodes as [].
func EncodeStudentList(list []RosterEntry) ([]byte, error) {
	if list == nil {
		list = []RosterEntry{}
	}
	return json.Marshal(StudentList{Type: TypeStudentList, List: list})
}

func mustEncode(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
