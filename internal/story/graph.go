package story

import "sort"

// The dependency graph is not stored as its own structure: each story
// carries its outgoing edges in DependsOn. The helpers below derive the
// views the workflow needs from a slice of story records and never touch
// storage.

// Neighborhood is the set of stories directly connected to one story.
type Neighborhood struct {
	// DependsOn holds prerequisites of the story.
	DependsOn []string `json:"dependsOn"`
	// BlockedBy is the inverse view: stories whose DependsOn names this
	// story, i.e. the stories this story blocks.
	BlockedBy []string `json:"blockedBy"`
}

// Neighbors returns the direct prerequisites and dependents of id.
func Neighbors(stories []Story, id string) Neighborhood {
	var n Neighborhood
	for _, s := range stories {
		if s.ID == id {
			n.DependsOn = append(n.DependsOn, s.DependsOn...)
			continue
		}
		if s.HasDependency(id) {
			n.BlockedBy = append(n.BlockedBy, s.ID)
		}
	}
	return n
}

// Dependents returns the stories that depend on id, in input order.
func Dependents(stories []Story, id string) []Story {
	var out []Story
	for _, s := range stories {
		if s.ID != id && s.HasDependency(id) {
			out = append(out, s)
		}
	}
	return out
}

// DependencyChangeTargets returns the stories whose recommendation must be
// cleared when the edge from -> to is added or removed. Both endpoints are
// affected regardless of direction.
func DependencyChangeTargets(from, to string) []string {
	if from == to {
		return []string{from}
	}
	return []string{from, to}
}

// PriorityChangeTargets returns the stories whose recommendation must be
// cleared when the priority of id changes: its prerequisites and its
// dependents, but never id itself.
func PriorityChangeTargets(stories []Story, id string) []string {
	n := Neighbors(stories, id)
	seen := map[string]bool{id: true}
	var out []string
	for _, list := range [][]string{n.DependsOn, n.BlockedBy} {
		for _, other := range list {
			if seen[other] {
				continue
			}
			seen[other] = true
			out = append(out, other)
		}
	}
	sort.Strings(out)
	return out
}

// WouldCycle reports whether adding the edge from -> to would close a cycle,
// i.e. whether from is already reachable from to. A self edge is a cycle.
func WouldCycle(stories []Story, from, to string) bool {
	if from == to {
		return true
	}
	edges := make(map[string][]string, len(stories))
	for _, s := range stories {
		edges[s.ID] = s.DependsOn
	}

	visited := make(map[string]bool)
	var reaches func(id string) bool
	reaches = func(id string) bool {
		if id == from {
			return true
		}
		if visited[id] {
			return false
		}
		visited[id] = true
		for _, next := range edges[id] {
			if reaches(next) {
				return true
			}
		}
		return false
	}
	return reaches(to)
}

// RemoveEdgesTo strips every edge pointing at id and returns the ids of the
// stories that changed.
func RemoveEdgesTo(stories []Story, id string) []string {
	var changed []string
	for i := range stories {
		s := &stories[i]
		if !s.HasDependency(id) {
			continue
		}
		kept := s.DependsOn[:0:0]
		for _, d := range s.DependsOn {
			if d != id {
				kept = append(kept, d)
			}
		}
		s.DependsOn = kept
		delete(s.DependencyReasons, id)
		changed = append(changed, s.ID)
	}
	return changed
}

var priorityRank = map[Priority]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityLow:      3,
}

// NextReady picks the story an agent should work on next: not completed,
// every prerequisite completed, most urgent priority first, then sort
// order. It returns nil when nothing is ready.
func NextReady(stories []Story) *Story {
	done := make(map[string]bool, len(stories))
	for _, s := range stories {
		if s.Status == StatusCompleted {
			done[s.ID] = true
		}
	}

	var best *Story
	for i := range stories {
		s := &stories[i]
		if s.Status == StatusCompleted || s.Status == StatusDeleted {
			continue
		}
		ready := true
		for _, dep := range s.DependsOn {
			if !done[dep] {
				ready = false
				break
			}
		}
		if !ready {
			continue
		}
		if best == nil || priorityRank[s.Priority] < priorityRank[best.Priority] ||
			(s.Priority == best.Priority && s.SortOrder < best.SortOrder) {
			best = s
		}
	}
	return best
}
