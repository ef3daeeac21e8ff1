package records

import "context"

// Field names accepted by Record.Field and search conditions.
const (
	FieldTitle    = "title"
	FieldDOI      = "doi"
	FieldISBN     = "isbn"
	FieldISSN     = "issn"
	FieldURL      = "url"
	FieldExtra    = "extra"
	FieldDate     = "date"
	FieldItemType = "itemType"
	// FieldCreator is a search-only pseudo field matching creator surnames
	// and full names. Record.Field does not serve it; use Creators.
	FieldCreator = "creator"
)

// Item types excluded from duplicate candidate searches.
const (
	ItemTypeAttachment = "attachment"
	ItemTypeNote       = "note"
)

// Creator is one author entry on a record.
type Creator struct {
	FirstName string
	LastName  string
	FullName  string
}

// Record is the read surface the dedup engine needs from a stored record.
type Record interface {
	Key() string
	Field(name string) string
	Creators() []Creator
	IsEditable() bool
	IsDeleted() bool
}

// Op selects the comparison a search condition applies.
type Op string

const (
	OpEquals   Op = "equals"
	OpContains Op = "contains"
)

// Condition is one field comparison in a search query.
type Condition struct {
	Field string
	Op    Op
	Value string
}

// Query describes a bounded record search. Attachments, notes, and deleted
// records are always excluded; ExcludeKey omits the record under evaluation.
type Query struct {
	Conditions []Condition
	ExcludeKey string
	Limit      int
}

// Library is the store capability consumed by the dedup engine.
type Library interface {
	Search(ctx context.Context, q Query) ([]Record, error)
	Get(ctx context.Context, key string) (Record, error)
	Delete(ctx context.Context, key string) error
}

// NewRecord carries the fields for record insertion.
type NewRecord struct {
	Key           string // generated when empty
	ItemType      string
	Title         string
	DOI           string
	ISBN          string
	ISSN          string
	URL           string
	Extra         string
	Date          string
	CollectionKey string
	Creators      []Creator
}
