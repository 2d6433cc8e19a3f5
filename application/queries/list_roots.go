package queries

// ListRootsQuery fetches all root nodes without expanding their
// subtrees
type ListRootsQuery struct{}

// Validate validates the query
func (q ListRootsQuery) Validate() error {
	return nil
}
