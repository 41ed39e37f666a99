package match

import (
	"sort"
	"strings"
)

// adjacentOffsetMin is the window treated as "comparable working hours":
// same or adjacent UTC offset.
const adjacentOffsetMin = 60

// FilterPool narrows candidates to the routable set: online, accepting, and
// speaking the requested language. If no candidate speaks the language the
// pool widens to any language rather than failing the request outright.
func FilterPool(candidates []RoutingCandidate, req Request) []RoutingCandidate {
	base := make([]RoutingCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Online && c.Accepting {
			base = append(base, c)
		}
	}

	if req.Language == "" {
		return base
	}

	matching := make([]RoutingCandidate, 0, len(base))
	for _, c := range base {
		if speaks(c, req.Language) {
			matching = append(matching, c)
		}
	}
	if len(matching) > 0 {
		return matching
	}
	return base
}

// Rank orders candidates best-first: timezone proximity, then lighter in-flight
// load, then higher rating, then longest idle since last assignment.
func Rank(candidates []RoutingCandidate, req Request) []RoutingCandidate {
	ranked := make([]RoutingCandidate, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		return Less(ranked[i], ranked[j], req)
	})
	return ranked
}

func Less(a, b RoutingCandidate, req Request) bool {
	ap, bp := tzProximity(a, req), tzProximity(b, req)
	if ap != bp {
		return ap < bp
	}
	if a.InFlight != b.InFlight {
		return a.InFlight < b.InFlight
	}
	if a.Rating != b.Rating {
		return a.Rating > b.Rating
	}
	return a.LastAssignedAt.Before(b.LastAssignedAt)
}

// tzProximity buckets the offset distance: 0 for same/adjacent offset, else the
// absolute distance in minutes. Bucketing keeps nearby providers interchangeable
// so the load and fairness tie-breaks still apply within the bucket.
func tzProximity(c RoutingCandidate, req Request) int {
	d := c.TimezoneOffsetMin - req.PatientTimezoneOffsetMin
	if d < 0 {
		d = -d
	}
	if d <= adjacentOffsetMin {
		return 0
	}
	return d
}

func speaks(c RoutingCandidate, language string) bool {
	for _, l := range c.Languages {
		if strings.EqualFold(l, language) {
			return true
		}
	}
	return false
}
