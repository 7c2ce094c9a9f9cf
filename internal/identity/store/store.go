// Package store persists subjects and accessors.
//
// Error Contract:
// - Find* return an error wrapping sentinel.ErrNotFound when absent
// - Save* upsert
// - Delete* of an absent record is not an error
package store

import (
	"context"

	"idsim/internal/identity/models"
)

// Store is implemented by the in-memory and Postgres backends and by the
// transaction-scoped Postgres store handed to RunInTx callbacks.
type Store interface {
	FindSubject(ctx context.Context, namespace, identifier string) (*models.Subject, error)
	FindSubjectByGroupCode(ctx context.Context, groupCode string) (*models.Subject, error)
	SaveSubject(ctx context.Context, subject *models.Subject) error
	DeleteSubject(ctx context.Context, namespace, identifier string) error

	FindAccessor(ctx context.Context, accessorID string) (*models.Accessor, error)
	SaveAccessor(ctx context.Context, accessor *models.Accessor) error
	DeleteAccessor(ctx context.Context, accessorID string) error
}
