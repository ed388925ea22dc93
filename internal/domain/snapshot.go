package domain

import "time"

// PrioritySnapshot is the externally computed analysis artifact for a
// conversation, tagged with a monotonically increasing tick. Rows are
// immutable once published; a higher tick strictly supersedes a lower one.
type PrioritySnapshot struct {
	ConversationID int64
	Tick           int64
	Weights        map[int64]float64
	Clusters       map[int64]int
	Created        time.Time
}

// DefaultPriority is the weight assumed for statements the snapshot has no
// entry for, and for every statement when no snapshot exists yet.
const DefaultPriority = 1.0

// WeightFor returns the priority weight for a statement, defaulting when
// the snapshot is nil or has no entry. Non-positive stored weights also
// default, so a malformed artifact can never zero out the draw.
func (s *PrioritySnapshot) WeightFor(tid int64) float64 {
	if s == nil {
		return DefaultPriority
	}
	w, ok := s.Weights[tid]
	if !ok || w <= 0 {
		return DefaultPriority
	}
	return w
}

// ClusterFor returns the cluster bucket for a participant and whether the
// snapshot assigns one.
func (s *PrioritySnapshot) ClusterFor(pid int64) (int, bool) {
	if s == nil {
		return 0, false
	}
	c, ok := s.Clusters[pid]
	return c, ok
}
