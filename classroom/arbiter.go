package classroom

import (
	"errors"

	"github.com/wricardo/mcp-training/controlrelay/metrics"
)

var (
	ErrUnknownTarget = errors.New("control target is not connected")
	ErrNotStudent    = errors.New("control target is not a student")
)

// Arbiter holds the single control token. At most one student holds it at
// any time.
type Arbiter struct {
	registry *Registry
	active   ParticipantID
}

// NewArbiter creates an arbiter that resolves participants through registry.
func NewArbiter(registry *Registry) *Arbiter {
	return &Arbiter{registry: registry}
}

// Active returns the current controller, if any.
func (a *Arbiter) Active() (ParticipantID, bool) {
	return a.active, a.active != ""
}

// IsActive reports whether id holds control.
func (a *Arbiter) IsActive(id ParticipantID) bool {
	return a.active != "" && a.active == id
}

// Grant hands control to target. The previous controller, if any, is
// revoked first. When target is not a connected student the previous
// controller is still revoked, control stays unset and an error is returned.
// The returned bool reports whether control state changed.
func (a *Arbiter) Grant(target ParticipantID) (bool, error) {
	changed := a.Revoke()

	p, ok := a.registry.Get(target)
	if !ok {
		return changed, ErrUnknownTarget
	}
	if p.Role != RoleStudent {
		return changed, ErrNotStudent
	}

	a.active = target
	metrics.RecordControlChange(metrics.ActionGranted)
	send(p, controlGrantedFrame)
	return true, nil
}

// Revoke clears control, notifying the controller if it is still
// connected. It reports false and sends nothing when no one holds control.
func (a *Arbiter) Revoke() bool {
	if a.active == "" {
		return false
	}
	if p, ok := a.registry.Get(a.active); ok {
		send(p, controlRevokedFrame)
	}
	a.active = ""
	metrics.RecordControlChange(metrics.ActionRevoked)
	return true
}

// OnDisconnect clears control without notification when id held it.
func (a *Arbiter) OnDisconnect(id ParticipantID) bool {
	if !a.IsActive(id) {
		return false
	}
	a.active = ""
	metrics.RecordControlChange(metrics.ActionDisconnected)
	return true
}
