package types

// Status is the lifecycle status of a stored resource. Rows are never hard
// deleted by the API layer; archival and deletion flip this column so list
// queries can exclude them.
type Status string

const (
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
	StatusDeleted   Status = "deleted"
)

func (s Status) String() string {
	return string(s)
}
