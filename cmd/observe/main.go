// Command observe joins a relay as a teacher and prints what the class is
// doing: roster changes, who holds control, and every relayed game action.
// With --grant it hands control to the first student whose name matches.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/controlrelay/classroom"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:  "observe",
		Usage: "Watch a classroom relay as a teacher",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "url",
				Value: "ws://localhost:3000/ws",
				Usage: "WebSocket URL of the relay",
			},
			&cli.StringFlag{
				Name:  "grant",
				Usage: "Grant control to the first student with this name",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return observe(ctx, cmd.String("url"), cmd.String("grant"), os.Stdout)
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// observe joins url as a teacher and writes one line per received frame to
// out until ctx is cancelled or the connection drops.
func observe(ctx context.Context, url, grantName string, out io.Writer) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	if err := conn.WriteJSON(map[string]string{"type": string(classroom.TypeJoinTeacher)}); err != nil {
		return fmt.Errorf("join: %w", err)
	}
	fmt.Fprintf(out, "=== Observing %s ===\n", url)

	granted := grantName == ""
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		fmt.Fprintln(out, describeFrame(data))

		if granted {
			continue
		}
		if id, ok := findStudent(data, grantName); ok {
			msg := map[string]string{"type": string(classroom.TypeGrantControl), "targetId": string(id)}
			if err := conn.WriteJSON(msg); err != nil {
				return fmt.Errorf("grant: %w", err)
			}
			fmt.Fprintf(out, "-> granted control to %s (%s)\n", grantName, id)
			granted = true
		}
	}
}

// frameType returns the exact "type" key of a frame.
func frameType(data []byte) (classroom.MessageType, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", false
	}
	var tag string
	if raw, ok := fields["type"]; ok {
		if err := json.Unmarshal(raw, &tag); err != nil {
			return "", false
		}
	}
	return classroom.MessageType(tag), true
}

// studentList decodes a STUDENT_LIST frame.
func studentList(data []byte) ([]classroom.RosterEntry, bool) {
	if t, ok := frameType(data); !ok || t != classroom.TypeStudentList {
		return nil, false
	}
	var f classroom.StudentList
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, false
	}
	return f.List, true
}

// describeFrame renders a frame as a single human-readable line.
func describeFrame(data []byte) string {
	t, ok := frameType(data)
	if !ok {
		return fmt.Sprintf("? unparseable frame (%d bytes)", len(data))
	}

	switch t {
	case classroom.TypeStudentList:
		list, ok := studentList(data)
		if !ok {
			return fmt.Sprintf("? unparseable frame (%d bytes)", len(data))
		}
		if len(list) == 0 {
			return "roster: no students"
		}
		parts := make([]string, 0, len(list))
		for _, s := range list {
			entry := fmt.Sprintf("%s [%s]", s.Name, shortID(s.ID))
			if s.IsActive {
				entry = "*" + entry
			}
			parts = append(parts, entry)
		}
		return fmt.Sprintf("roster (%d): %s", len(list), strings.Join(parts, ", "))

	case classroom.TypeGameAction:
		return "action: " + string(data)

	case "":
		return fmt.Sprintf("? untyped frame: %s", data)

	default:
		return fmt.Sprintf("%s: %s", t, data)
	}
}

// findStudent returns the id of the first student named name in a
// STUDENT_LIST frame.
func findStudent(data []byte, name string) (classroom.ParticipantID, bool) {
	list, ok := studentList(data)
	if !ok {
		return "", false
	}
	for _, s := range list {
		if s.Name == name {
			return s.ID, true
		}
	}
	return "", false
}

func shortID(id classroom.ParticipantID) string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}
