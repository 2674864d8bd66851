package issues

import (
	"strings"

	"github.com/fixitnow/fixitnow-api/models"
)

// TransitionPolicy decides which status changes an admin may make
type TransitionPolicy int

const (
	// OpenTransitions lets an admin set any status on any issue
	OpenTransitions TransitionPolicy = iota
	// StrictTransitions only allows forward moves. Resolved and Rejected
	// are terminal, re-setting the current status is always allowed.
	StrictTransitions
)

var forward = map[models.Status][]models.Status{
	models.StatusPending:    {models.StatusInProgress, models.StatusResolved, models.StatusRejected},
	models.StatusInProgress: {models.StatusResolved, models.StatusRejected},
}

// ParseTransitionPolicy maps "strict" to StrictTransitions and anything
// else to OpenTransitions.
func ParseTransitionPolicy(s string) TransitionPolicy {
	if strings.EqualFold(strings.TrimSpace(s), "strict") {
		return StrictTransitions
	}
	return OpenTransitions
}

func (p TransitionPolicy) String() string {
	if p == StrictTransitions {
		return "strict"
	}
	return "open"
}

// Allowed reports whether an issue in status from may be moved to to
func (p TransitionPolicy) Allowed(from, to models.Status) bool {
	if p != StrictTransitions || from == to {
		return true
	}
	for _, s := range forward[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Sources lists the statuses an issue may currently hold to be moved to
// to. It returns nil when every status qualifies.
func (p TransitionPolicy) Sources(to models.Status) []models.Status {
	if p != StrictTransitions {
		return nil
	}
	from := []models.Status{to}
	for _, s := range []models.Status{models.StatusPending, models.StatusInProgress, models.StatusResolved, models.StatusRejected} {
		if s != to && p.Allowed(s, to) {
			from = append(from, s)
		}
	}
	return from
}
