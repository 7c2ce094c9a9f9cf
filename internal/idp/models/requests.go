// Package models holds the IdP's local HTTP request and result shapes.
package models

import (
	"strings"

	idmodels "idsim/internal/identity/models"
	dErrors "idsim/pkg/domain-errors"
)

const maxFieldLen = 255

// CreateIdentityRequest registers a subject. Mode 1 is committed at once;
// modes 2 and 3 go through the backend.
type CreateIdentityRequest struct {
	Namespace    string  `json:"namespace"`
	Identifier   string  `json:"identifier"`
	ReferenceID  string  `json:"reference_id"`
	Mode         int     `json:"mode"`
	IAL          float64 `json:"ial"`
	AAL          float64 `json:"aal"`
	Response     string  `json:"response"`
	Delay        int     `json:"delay"`
	AccessorType string  `json:"accessor_type"`
}

func (r *CreateIdentityRequest) Normalize() {
	if r == nil {
		return
	}
	r.Namespace = strings.TrimSpace(r.Namespace)
	r.Identifier = strings.TrimSpace(r.Identifier)
	r.ReferenceID = strings.TrimSpace(r.ReferenceID)
	r.Response = strings.ToLower(strings.TrimSpace(r.Response))
	r.AccessorType = strings.TrimSpace(r.AccessorType)
	if r.Mode == 0 {
		r.Mode = idmodels.Mode1
	}
	if r.Response == "" {
		r.Response = idmodels.ResponseAccept
	}
}

// Follows validation order: Size -> Required -> Syntax -> Semantic.
func (r *CreateIdentityRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validateSubject(r.Namespace, r.Identifier); err != nil {
		return err
	}
	if len(r.ReferenceID) > maxFieldLen {
		return dErrors.New(dErrors.CodeValidation, "reference_id must be 255 characters or less")
	}
	if err := validateMode(r.Mode); err != nil {
		return err
	}
	if err := validateResponse(r.Response); err != nil {
		return err
	}
	if r.Delay < 0 {
		return dErrors.New(dErrors.CodeValidation, "delay must not be negative")
	}
	if r.IAL < 0 || r.AAL < 0 {
		return dErrors.New(dErrors.CodeValidation, "ial and aal must not be negative")
	}
	return nil
}

// UpdateModeRequest asks for a mode upgrade of an existing subject.
type UpdateModeRequest struct {
	Namespace   string `json:"namespace"`
	Identifier  string `json:"identifier"`
	ReferenceID string `json:"reference_id"`
	Mode        int    `json:"mode"`
}

func (r *UpdateModeRequest) Normalize() {
	if r == nil {
		return
	}
	r.Namespace = strings.TrimSpace(r.Namespace)
	r.Identifier = strings.TrimSpace(r.Identifier)
	r.ReferenceID = strings.TrimSpace(r.ReferenceID)
}

func (r *UpdateModeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validateSubject(r.Namespace, r.Identifier); err != nil {
		return err
	}
	if r.Mode != idmodels.Mode2 && r.Mode != idmodels.Mode3 {
		return dErrors.New(dErrors.CodeValidation, "mode must be 2 or 3")
	}
	return nil
}

// UpdateIALRequest changes a subject's identity assurance level.
type UpdateIALRequest struct {
	Namespace   string  `json:"namespace"`
	Identifier  string  `json:"identifier"`
	ReferenceID string  `json:"reference_id"`
	IAL         float64 `json:"ial"`
}

func (r *UpdateIALRequest) Normalize() {
	if r == nil {
		return
	}
	r.Namespace = strings.TrimSpace(r.Namespace)
	r.Identifier = strings.TrimSpace(r.Identifier)
	r.ReferenceID = strings.TrimSpace(r.ReferenceID)
}

func (r *UpdateIALRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validateSubject(r.Namespace, r.Identifier); err != nil {
		return err
	}
	if r.IAL <= 0 {
		return dErrors.New(dErrors.CodeValidation, "ial is required")
	}
	return nil
}

// UpdateIdentityRequest edits local answering settings. Nil fields are kept.
type UpdateIdentityRequest struct {
	Namespace  string   `json:"namespace"`
	Identifier string   `json:"identifier"`
	AAL        *float64 `json:"aal"`
	Response   *string  `json:"response"`
	Delay      *int     `json:"delay"`
}

func (r *UpdateIdentityRequest) Normalize() {
	if r == nil {
		return
	}
	r.Namespace = strings.TrimSpace(r.Namespace)
	r.Identifier = strings.TrimSpace(r.Identifier)
	if r.Response != nil {
		v := strings.ToLower(strings.TrimSpace(*r.Response))
		r.Response = &v
	}
}

func (r *UpdateIdentityRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validateSubject(r.Namespace, r.Identifier); err != nil {
		return err
	}
	if r.Response != nil {
		if err := validateResponse(*r.Response); err != nil {
			return err
		}
	}
	if r.Delay != nil && *r.Delay < 0 {
		return dErrors.New(dErrors.CodeValidation, "delay must not be negative")
	}
	if r.AAL != nil && *r.AAL < 0 {
		return dErrors.New(dErrors.CodeValidation, "aal must not be negative")
	}
	return nil
}

// AccessorRequest covers add, revoke, revoke-and-add and association
// revocation. Which fields are required depends on the operation.
type AccessorRequest struct {
	Namespace          string `json:"namespace"`
	Identifier         string `json:"identifier"`
	ReferenceID        string `json:"reference_id"`
	AccessorID         string `json:"accessor_id"`
	RevokingAccessorID string `json:"revoking_accessor_id"`
	AccessorType       string `json:"accessor_type"`
}

func (r *AccessorRequest) Normalize() {
	if r == nil {
		return
	}
	r.Namespace = strings.TrimSpace(r.Namespace)
	r.Identifier = strings.TrimSpace(r.Identifier)
	r.ReferenceID = strings.TrimSpace(r.ReferenceID)
	r.AccessorID = strings.TrimSpace(r.AccessorID)
	r.RevokingAccessorID = strings.TrimSpace(r.RevokingAccessorID)
	r.AccessorType = strings.TrimSpace(r.AccessorType)
}

func (r *AccessorRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.ReferenceID) > maxFieldLen || len(r.AccessorID) > maxFieldLen || len(r.RevokingAccessorID) > maxFieldLen {
		return dErrors.New(dErrors.CodeValidation, "ids must be 255 characters or less")
	}
	return validateSubject(r.Namespace, r.Identifier)
}

// OperationResult is returned by every initiate call. RequestID is empty
// for changes committed locally.
type OperationResult struct {
	ReferenceID string `json:"reference_id,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
	AccessorID  string `json:"accessor_id,omitempty"`
	Exist       bool   `json:"exist,omitempty"`
	Committed   bool   `json:"committed"`
}

func validateSubject(namespace, identifier string) error {
	if len(namespace) > maxFieldLen || len(identifier) > maxFieldLen {
		return dErrors.New(dErrors.CodeValidation, "namespace and identifier must be 255 characters or less")
	}
	if namespace == "" {
		return dErrors.New(dErrors.CodeValidation, "namespace is required")
	}
	if identifier == "" {
		return dErrors.New(dErrors.CodeValidation, "identifier is required")
	}
	return nil
}

func validateMode(mode int) error {
	switch mode {
	case idmodels.Mode1, idmodels.Mode2, idmodels.Mode3:
		return nil
	}
	return dErrors.New(dErrors.CodeValidation, "mode must be 1, 2 or 3")
}

func validateResponse(response string) error {
	switch response {
	case idmodels.ResponseAccept, idmodels.ResponseReject:
		return nil
	}
	return dErrors.New(dErrors.CodeValidation, "response must be 'accept' or 'reject'")
}
