package dedup

import "bibdup/internal/records"

// Confidence tiers attached to candidates and flagged duplicates.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
)

// ActionKeptExisting is the only merge action the engine performs: the
// pre-existing record is kept and the new record is deleted.
const ActionKeptExisting = "kept_existing"

// Candidate is a store record proposed as a duplicate of a new record.
type Candidate struct {
	Record     records.Record
	Score      int
	Reason     string
	Confidence string
}

// MergeAction describes one completed auto-merge. It is created only after
// the deletion succeeded.
type MergeAction struct {
	Action     string `json:"action"`
	KeptKey    string `json:"kept_key"`
	DeletedKey string `json:"deleted_key"`
	Reason     string `json:"reason"`
	Score      int    `json:"score"`
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
}

// FlaggedDuplicate surfaces a match that was not merged automatically,
// either because its score fell in the review tier or because an attempted
// auto-merge failed.
type FlaggedDuplicate struct {
	NewKey        string `json:"new_key"`
	NewTitle      string `json:"new_title"`
	ExistingKey   string `json:"existing_key"`
	ExistingTitle string `json:"existing_title"`
	Score         int    `json:"score"`
	Reason        string `json:"reason"`
	Confidence    string `json:"confidence"`
}

// ProcessingResult accumulates the outcome of one batch. It is always
// returned with whatever succeeded, even when individual records failed.
// Records holds the batch with each auto-merged record replaced by the
// record that was kept in its place; the caller's input slice is never
// modified.
type ProcessingResult struct {
	AutoMerged         []MergeAction      `json:"auto_merged"`
	PossibleDuplicates []FlaggedDuplicate `json:"possible_duplicates"`
	Processed          bool               `json:"processed"`
	Errors             []string           `json:"errors"`

	Records []records.Record `json:"-"`
}
