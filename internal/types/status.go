package types

// Status is the row lifecycle status used to exclude soft deleted rows from queries.
// It is unrelated to the invoice business status.
type Status string

const (
	StatusPublished Status = "published"
	StatusDeleted   Status = "deleted"
)
