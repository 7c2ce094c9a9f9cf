// Package models defines the committed identity records an IdP keeps.
package models

import (
	"slices"
	"time"
)

// Assurance modes.
const (
	Mode1 = 1
	Mode2 = 2
	Mode3 = 3
)

// Response policies.
const (
	ResponseAccept = "accept"
	ResponseReject = "reject"
)

// Subject is a registered identity. AccessorIDs keep creation order; the
// first entry is the one used to answer verification requests.
type Subject struct {
	Namespace   string    `json:"namespace"`
	Identifier  string    `json:"identifier"`
	GroupCode   string    `json:"reference_group_code,omitempty"`
	AccessorIDs []string  `json:"accessor_ids"`
	IAL         float64   `json:"ial"`
	AAL         float64   `json:"aal"`
	Response    string    `json:"response"`
	Delay       int       `json:"delay"`
	Mode        int       `json:"mode"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Key is the serialization key for per-subject transactions.
func (s *Subject) Key() string {
	return SubjectKey(s.Namespace, s.Identifier)
}

// SubjectKey builds the key used by Subject.Key without a Subject at hand.
func SubjectKey(namespace, identifier string) string {
	return namespace + ":" + identifier
}

// RequiresAccessor reports whether answering needs a signature.
func (s *Subject) RequiresAccessor() bool {
	return s.Mode >= Mode2
}

// FirstAccessorID returns the accessor used for responses.
func (s *Subject) FirstAccessorID() (string, bool) {
	if len(s.AccessorIDs) == 0 {
		return "", false
	}
	return s.AccessorIDs[0], true
}

// HasAccessor reports membership.
func (s *Subject) HasAccessor(id string) bool {
	return slices.Contains(s.AccessorIDs, id)
}

// AppendAccessor adds id at the end unless already present.
func (s *Subject) AppendAccessor(id string) {
	if id == "" || s.HasAccessor(id) {
		return
	}
	s.AccessorIDs = append(s.AccessorIDs, id)
}

// RemoveAccessor drops id keeping the order of the rest.
func (s *Subject) RemoveAccessor(id string) bool {
	i := slices.Index(s.AccessorIDs, id)
	if i < 0 {
		return false
	}
	s.AccessorIDs = slices.Delete(slices.Clone(s.AccessorIDs), i, i+1)
	return true
}

// ReplaceAccessor puts newID where oldID was. Returns false when oldID is
// not listed; the list is then unchanged.
func (s *Subject) ReplaceAccessor(oldID, newID string) bool {
	i := slices.Index(s.AccessorIDs, oldID)
	if i < 0 {
		return false
	}
	ids := slices.Clone(s.AccessorIDs)
	ids[i] = newID
	s.AccessorIDs = ids
	return true
}

// Clone returns a deep copy.
func (s *Subject) Clone() *Subject {
	c := *s
	c.AccessorIDs = slices.Clone(s.AccessorIDs)
	return &c
}

// Accessor is a key pair bound to a subject. GroupCode is a lookup
// relation, the Subject owns the accessor.
type Accessor struct {
	ID         string    `json:"accessor_id"`
	GroupCode  string    `json:"reference_group_code,omitempty"`
	PublicKey  string    `json:"accessor_public_key"`
	PrivateKey string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}
