package stage

import "fmt"

// ID identifies one fixed position in the production sequence.
type ID string

const (
	TopicSelection ID = "topic_selection"
	Writing        ID = "writing"
	Recording      ID = "recording"
	Editing        ID = "editing"
	Thumbnail      ID = "thumbnail"
	Publish        ID = "publish"
)

var labels = map[ID]string{
	TopicSelection: "Topic selection",
	Writing:        "Writing",
	Recording:      "Recording",
	Editing:        "Editing",
	Thumbnail:      "Thumbnail",
	Publish:        "Publish",
}

// Label returns a human-readable name, falling back to the raw id.
func (id ID) Label() string {
	if l, ok := labels[id]; ok {
		return l
	}
	return string(id)
}

// Catalog is the ordered list of stages every pipeline is instantiated from.
// Order is significant: it defines both pipeline order and successor lookup.
type Catalog []ID

// Default is the production catalog. It is a global constant, not per-project.
var Default = Catalog{TopicSelection, Writing, Recording, Editing, Thumbnail, Publish}

// Len returns the number of stages.
func (c Catalog) Len() int { return len(c) }

// First returns the first stage, or false for an empty catalog.
func (c Catalog) First() (ID, bool) {
	if len(c) == 0 {
		return "", false
	}
	return c[0], true
}

// Index returns the position of id in the catalog, or -1.
func (c Catalog) Index(id ID) int {
	for i, s := range c {
		if s == id {
			return i
		}
	}
	return -1
}

// Contains reports whether id is part of the catalog.
func (c Catalog) Contains(id ID) bool { return c.Index(id) >= 0 }

// Next returns the stage that follows id. The second result is false when id
// is the last stage or not in the catalog.
func (c Catalog) Next(id ID) (ID, bool) {
	i := c.Index(id)
	if i < 0 || i+1 >= len(c) {
		return "", false
	}
	return c[i+1], true
}

// Parse validates a raw stage id against the catalog.
func (c Catalog) Parse(raw string) (ID, error) {
	id := ID(raw)
	if !c.Contains(id) {
		return "", fmt.Errorf("unknown stage %q", raw)
	}
	return id, nil
}

// Validate rejects empty catalogs and duplicate stages.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("stage catalog is empty")
	}
	seen := make(map[ID]bool, len(c))
	for _, id := range c {
		if id == "" {
			return fmt.Errorf("stage catalog contains an empty id")
		}
		if seen[id] {
			return fmt.Errorf("stage catalog contains duplicate stage %q", id)
		}
		seen[id] = true
	}
	return nil
}
