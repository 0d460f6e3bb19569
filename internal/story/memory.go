package story

import "time"

// MemoryEntry is a free-text workspace convention used as prompt context.
type MemoryEntry struct {
	ID            string    `json:"id"`
	WorkspacePath string    `json:"workspacePath"`
	Category      string    `json:"category"`
	Key           string    `json:"key"`
	Content       string    `json:"content"`
	Confidence    float64   `json:"confidence"`
	CreatedAt     time.Time `json:"createdAt"`
}

// DefaultMemoryConfidence is the minimum confidence for a memory entry to
// be included in prompts.
const DefaultMemoryConfidence = 0.3

// FilterMemories keeps entries at or above min, preserving order.
func FilterMemories(entries []MemoryEntry, min float64) []MemoryEntry {
	out := make([]MemoryEntry, 0, len(entries))
	for _, e := range entries {
		if e.Confidence >= min {
			out = append(out, e)
		}
	}
	return out
}

// Siblings returns every story except the one with id exclude.
func Siblings(stories []Story, exclude string) []Story {
	out := make([]Story, 0, len(stories))
	for _, s := range stories {
		if s.ID != exclude {
			out = append(out, s)
		}
	}
	return out
}
