package valueobjects

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MaxNodeNameLength is the maximum number of characters in a node name
const MaxNodeNameLength = 50

// NodeName is a validated node display name.
// Names must be non-empty and at most MaxNodeNameLength characters;
// uniqueness among siblings is enforced by the hierarchy service, not here.
type NodeName struct {
	value string
}

// NewNodeName creates a NodeName after validation
func NewNodeName(name string) (NodeName, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return NodeName{}, errors.New("node name cannot be empty")
	}
	if utf8.RuneCountInString(trimmed) > MaxNodeNameLength {
		return NodeName{}, errors.New("node name exceeds maximum length")
	}
	return NodeName{value: trimmed}, nil
}

// String returns the name
func (n NodeName) String() string {
	return n.value
}

// Equals checks if two names are equal
func (n NodeName) Equals(other NodeName) bool {
	return n.value == other.value
}

// IsZero checks if the name is the zero value
func (n NodeName) IsZero() bool {
	return n.value == ""
}
