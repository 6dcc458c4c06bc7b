// Package entities contains core business entities.
// These are pure domain objects with no external dependencies.
package entities

import "time"

// UnknownSource is the source reference given to documents without a doc tag.
const UnknownSource = "UNKNOWN"

// Document is a unit of retrievable text paired with its provenance reference.
type Document struct {
	Source  string // Reference identifier or URL for citation
	Content string
}

// LoadStatus is the outcome of loading a single document source.
type LoadStatus string

const (
	StatusLoaded     LoadStatus = "loaded"
	StatusMissing    LoadStatus = "missing"
	StatusUnreadable LoadStatus = "unreadable"
	StatusInvalid    LoadStatus = "invalid"
)

// LoadEntry records what happened to one manifest entry or directory file.
type LoadEntry struct {
	Key    string // Manifest key, or file name in directory mode
	Path   string
	Status LoadStatus
	Reason string // Empty when loaded
}

// LoadReport is the ordered result of a load pass.
type LoadReport struct {
	Documents []Document
	Entries   []LoadEntry
}

// Loaded returns the number of documents that made it into the set.
func (r LoadReport) Loaded() int {
	return len(r.Documents)
}

// Skipped returns the entries that did not produce a document, in load order.
func (r LoadReport) Skipped() []LoadEntry {
	var skipped []LoadEntry
	for _, e := range r.Entries {
		if e.Status != StatusLoaded {
			skipped = append(skipped, e)
		}
	}
	return skipped
}

// AskResult is everything one pipeline run produced.
type AskResult struct {
	RunID    string
	Question string
	Report   LoadReport
	Selected []Document
	Prompt   string
	Answer   string
	Duration time.Duration
}

// RunRecord is a persisted summary of one pipeline run.
type RunRecord struct {
	ID        string
	Question  string
	Model     string
	Loaded    int
	Skipped   int
	Selected  int
	Answer    string
	Error     string // Empty on success
	CreatedAt time.Time
}
