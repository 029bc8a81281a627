// ABOUTME: Query input types for the orchestration pipeline
// ABOUTME: Defines user roles and boundary validation of incoming questions
package models

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ErrInvalidQuery is returned for input rejected before the pipeline runs
var ErrInvalidQuery = errors.New("invalid query")

// UserRole identifies who is asking
type UserRole string

const (
	RoleManager UserRole = "manager"
	RoleAnalyst UserRole = "analyst"
	RoleStaff   UserRole = "staff"
)

// IsValid reports whether the role is one of the known roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleManager, RoleAnalyst, RoleStaff:
		return true
	}
	return false
}

// ParseUserRole converts a string to a UserRole
func ParseUserRole(s string) (UserRole, error) {
	r := UserRole(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("%w: unknown user role %q", ErrInvalidQuery, s)
	}
	return r, nil
}

// Query is the immutable pipeline input
type Query struct {
	Text           string    `json:"query_text"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Role           UserRole  `json:"user_role"`
	// IntentHint is optional and only participates in cache keying
	IntentHint Intent `json:"intent_hint,omitempty"`
}

// NewQuery builds a query with a fresh conversation ID
func NewQuery(text string, role UserRole) Query {
	return Query{Text: text, ConversationID: uuid.New(), Role: role}
}

// Validate checks the boundary contract: non-empty UTF-8 text and a known role
func (q Query) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: query text is empty", ErrInvalidQuery)
	}
	if !utf8.ValidString(q.Text) {
		return fmt.Errorf("%w: query text is not valid UTF-8", ErrInvalidQuery)
	}
	if !q.Role.IsValid() {
		return fmt.Errorf("%w: unknown user role %q", ErrInvalidQuery, q.Role)
	}
	if q.IntentHint != "" && !q.IntentHint.IsValid() {
		return fmt.Errorf("%w: unknown intent hint %q", ErrInvalidQuery, q.IntentHint)
	}
	return nil
}
