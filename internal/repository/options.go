package repository

// ProjectOrder names a project column usable as a sort key.
type ProjectOrder string

const (
	OrderProjectsByID          ProjectOrder = "id"
	OrderProjectsByName        ProjectOrder = "name"
	OrderProjectsByDescription ProjectOrder = "description"
	OrderProjectsByPrivate     ProjectOrder = "private"
)

// ListProjectsOptions controls ordering and size of a project listing.
type ListProjectsOptions struct {
	OrderBy   ProjectOrder
	Ascending bool
	Limit     int
}

// EntryOrder names a timeline entry column usable as a sort key.
type EntryOrder string

const (
	OrderEntriesByID        EntryOrder = "id"
	OrderEntriesByEventType EntryOrder = "event_type"

	// OrderEntriesByCreatedDate compares by calendar date only; sub-day
	// precision is not part of the sort key.
	OrderEntriesByCreatedDate EntryOrder = "created_date"
)

// ListEntriesOptions controls ordering and size of a timeline listing.
type ListEntriesOptions struct {
	OrderBy   EntryOrder
	Ascending bool
	Limit     int
}
