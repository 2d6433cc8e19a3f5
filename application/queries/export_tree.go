package queries

// ExportTreeQuery produces a full snapshot of the hierarchy
type ExportTreeQuery struct{}

// Validate validates the query
func (q ExportTreeQuery) Validate() error {
	return nil
}
