package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: record does not exist in the store
//   - ErrConflict: a record with the same key already exists, or a
//     concurrent writer kept winning
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
