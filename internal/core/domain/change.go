package domain

// ChangeType represents the kind of change a store observed.
type ChangeType int

const (
	// ChangeCreated indicates a new record.
	ChangeCreated ChangeType = iota

	// ChangeUpdated indicates a modified record.
	ChangeUpdated

	// ChangeDeleted indicates a removed record.
	ChangeDeleted
)

// String returns the lowercase name of the change.
func (c ChangeType) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// ChangeEvent is emitted by a store for every write to a watched collection.
type ChangeEvent struct {
	// Type is the kind of change.
	Type ChangeType `json:"type"`

	// Collection is the collection path that changed.
	Collection string `json:"collection"`

	// ID is the affected record.
	ID string `json:"id"`
}
