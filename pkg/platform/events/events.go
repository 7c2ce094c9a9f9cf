// Package events publishes lifecycle transitions (a pending operation
// committed or discarded) to an external sink. Publishing is best effort;
// a sink outage never blocks or fails a lifecycle flow.
package events

import (
	"context"
	"time"
)

// Outcome of a lifecycle transition.
type Outcome string

const (
	OutcomeCommitted Outcome = "committed"
	OutcomeDiscarded Outcome = "discarded"
)

// Type names the transition.
type Type string

const (
	TypeIdentityCreated    Type = "identity_created"
	TypeModeUpgraded       Type = "mode_upgraded"
	TypeIALUpdated         Type = "ial_updated"
	TypeAccessorAdded      Type = "accessor_added"
	TypeAccessorRevoked    Type = "accessor_revoked"
	TypeAccessorReplaced   Type = "accessor_replaced"
	TypeAssociationRevoked Type = "association_revoked"
	TypeResponseSubmitted  Type = "response_submitted"
	TypeRequestCreated     Type = "request_created"
	TypeRequestClosed      Type = "request_closed"
	TypeRequestDataRemoved Type = "request_data_removed"
	TypeMessagesRemoved    Type = "private_messages_removed"
	TypeServiceRegistered  Type = "service_registered"
	TypeServiceDataSent    Type = "service_data_sent"
)

// Event is one lifecycle transition.
type Event struct {
	Participant string    `json:"participant"`
	NodeID      string    `json:"node_id,omitempty"`
	Type        Type      `json:"type"`
	Outcome     Outcome   `json:"outcome"`
	ReferenceID string    `json:"reference_id,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
	Namespace   string    `json:"namespace,omitempty"`
	Identifier  string    `json:"identifier,omitempty"`
	AccessorID  string    `json:"accessor_id,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Key partitions events so one subject's transitions stay ordered.
func (e Event) Key() string {
	if e.Namespace != "" || e.Identifier != "" {
		return e.Namespace + ":" + e.Identifier
	}
	return e.RequestID
}

// Sink receives events from a Publisher.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Emitter is what services depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Nop discards everything.
type Nop struct{}

func (Nop) Emit(context.Context, Event) error { return nil }
