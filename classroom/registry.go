package classroom

import "sort"

// Registry maps connection ids to joined participants. It is not safe for
// concurrent use; the owning event loop serializes access.
type Registry struct {
	participants map[ParticipantID]*Participant
	nextSeq      uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		participants: make(map[ParticipantID]*Participant),
	}
}

// Add registers p, replacing any entry with the same id. A replaced entry
// keeps its original position in join order.
func (r *Registry) Add(p *Participant) {
	if existing, ok := r.participants[p.ID]; ok {
		p.seq = existing.seq
	} else {
		r.nextSeq++
		p.seq = r.nextSeq
	}
	r.participants[p.ID] = p
}

// Get returns the participant registered under id.
func (r *Registry) Get(id ParticipantID) (*Participant, bool) {
	p, ok := r.participants[id]
	return p, ok
}

// Remove deletes the entry for id and reports whether one existed.
func (r *Registry) Remove(id ParticipantID) bool {
	if _, ok := r.participants[id]; !ok {
		return false
	}
	delete(r.participants, id)
	return true
}

// ListByRole returns a snapshot of the participants with role, in join order.
func (r *Registry) ListByRole(role Role) []*Participant {
	result := make([]*Participant, 0, len(r.participants))
	for _, p := range r.participants {
		if p.Role == role {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].seq < result[j].seq
	})
	return result
}

// Count returns the number of participants with role.
func (r *Registry) Count(role Role) int {
	n := 0
	for _, p := range r.participants {
		if p.Role == role {
			n++
		}
	}
	return n
}

// Len returns the number of registered participants.
func (r *Registry) Len() int {
	return len(r.participants)
}
