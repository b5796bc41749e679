// Package notes materializes the append-only agent.note.* event family into
// a flat list plus three indexes, generalized across all ten note
// categories instead of one handler per category.
package notes

import "time"

// Note is one append-only entry left by an agent.
type Note struct {
	Agent          string    `json:"agent"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Category       string    `json:"category"`
	Tags           []string  `json:"tags"`
	RelatedFile    string    `json:"related_file,omitempty"`
	RelatedFeature string    `json:"related_feature,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// State is the notes projection: the flat note list plus position indexes.
// Positions are stable: once assigned, an index into Notes never changes.
type State struct {
	Notes      []Note           `json:"notes"`
	ByCategory map[string][]int `json:"by_category"`
	ByAgent    map[string][]int `json:"by_agent"`
	ByTag      map[string][]int `json:"by_tag"`
}
