// Package models holds the pending operation record shared by the
// correlation engine and its stores.
package models

import "time"

// Kind names the lifecycle flow that owns a pending operation.
type Kind string

const (
	KindCreateIdentity       Kind = "create_identity"
	KindUpgradeMode          Kind = "upgrade_mode"
	KindUpdateIAL            Kind = "update_ial"
	KindAddAccessor          Kind = "add_accessor"
	KindRevokeAccessor       Kind = "revoke_accessor"
	KindRevokeAndAddAccessor Kind = "revoke_and_add_accessor"
	KindRevokeAssociation    Kind = "revoke_association"
)

// IsValid reports whether k is a known flow.
func (k Kind) IsValid() bool {
	switch k {
	case KindCreateIdentity, KindUpgradeMode, KindUpdateIAL, KindAddAccessor,
		KindRevokeAccessor, KindRevokeAndAddAccessor, KindRevokeAssociation:
		return true
	}
	return false
}

// Payload is everything a completion step needs, captured at initiation.
// Callbacks may omit any of it.
type Payload struct {
	Namespace  string `json:"namespace"`
	Identifier string `json:"identifier"`
	GroupCode  string `json:"group_code,omitempty"`

	IAL      float64 `json:"ial,omitempty"`
	AAL      float64 `json:"aal,omitempty"`
	Response string  `json:"response,omitempty"`
	Delay    int     `json:"delay,omitempty"`
	Mode     int     `json:"mode,omitempty"`

	AccessorID         string `json:"accessor_id,omitempty"`
	RevokingAccessorID string `json:"revoking_accessor_id,omitempty"`
	AccessorPublicKey  string `json:"accessor_public_key,omitempty"`
	AccessorPrivateKey string `json:"accessor_private_key,omitempty"`

	RequestID string `json:"request_id,omitempty"`
	Exist     bool   `json:"exist,omitempty"`
}

// SubjectKey is the per-subject serialization key.
func (p Payload) SubjectKey() string {
	return p.Namespace + ":" + p.Identifier
}

// PendingOperation records an issued backend operation awaiting its
// terminal callback.
type PendingOperation struct {
	Token     string    `json:"token"`
	Kind      Kind      `json:"kind"`
	Payload   Payload   `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
