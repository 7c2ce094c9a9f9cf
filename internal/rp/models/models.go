// Package models holds the relying party's request policies and local API
// shapes.
package models

import (
	"strings"
	"time"

	"idsim/internal/backend"
	dErrors "idsim/pkg/domain-errors"
	"idsim/pkg/platform/strutil"
)

const (
	maxFieldLen     = 255
	defaultMode     = 3
	defaultMinIdP   = 1
	maxDataRequests = 32
)

// RequestPolicy is what the RP decided to do automatically for one request
// when it was created. Keyed by the backend-assigned request id.
type RequestPolicy struct {
	RequestID                string    `json:"request_id"`
	ReferenceID              string    `json:"reference_id"`
	Mode                     int       `json:"mode"`
	MinIdP                   int       `json:"min_idp"`
	AutoClose                bool      `json:"auto_close"`
	AutoRemoveData           bool      `json:"auto_remove_data"`
	AutoRemovePrivateMessage bool      `json:"auto_remove_private_message"`
	CreatedAt                time.Time `json:"created_at"`
}

// CreateRequest opens a verification request for one subject. The three
// auto flags default to true when omitted.
type CreateRequest struct {
	Namespace                string                     `json:"namespace"`
	Identifier               string                     `json:"identifier"`
	Mode                     int                        `json:"mode"`
	ReferenceID              string                     `json:"reference_id"`
	RequestTimeout           int                        `json:"request_timeout"`
	RequestMessage           string                     `json:"request_message"`
	MinIdP                   int                        `json:"min_idp"`
	MinIAL                   float64                    `json:"min_ial"`
	MinAAL                   float64                    `json:"min_aal"`
	IdPIDList                []string                   `json:"idp_id_list"`
	DataRequestList          []backend.DataRequestEntry `json:"data_request_list"`
	BypassIdentityCheck      bool                       `json:"bypass_identity_check"`
	AutoClose                *bool                      `json:"auto_close"`
	AutoRemoveData           *bool                      `json:"auto_remove_data"`
	AutoRemovePrivateMessage *bool                      `json:"auto_remove_private_message"`
}

func (r *CreateRequest) Normalize() {
	if r == nil {
		return
	}
	r.Namespace = strings.TrimSpace(r.Namespace)
	r.Identifier = strings.TrimSpace(r.Identifier)
	r.ReferenceID = strings.TrimSpace(r.ReferenceID)
	if r.Mode == 0 {
		r.Mode = defaultMode
	}
	if r.MinIdP == 0 {
		r.MinIdP = defaultMinIdP
	}
	r.IdPIDList = strutil.Dedupe(r.IdPIDList)
	if r.IdPIDList == nil {
		r.IdPIDList = []string{}
	}
	if r.DataRequestList == nil {
		r.DataRequestList = []backend.DataRequestEntry{}
	}
	for i := range r.DataRequestList {
		r.DataRequestList[i].ServiceID = strings.TrimSpace(r.DataRequestList[i].ServiceID)
		r.DataRequestList[i].ASIDList = strutil.Dedupe(r.DataRequestList[i].ASIDList)
		if r.DataRequestList[i].ASIDList == nil {
			r.DataRequestList[i].ASIDList = []string{}
		}
	}
}

// Follows validation order: Size -> Required -> Syntax -> Semantic.
func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Namespace) > maxFieldLen || len(r.Identifier) > maxFieldLen || len(r.ReferenceID) > maxFieldLen {
		return dErrors.New(dErrors.CodeValidation, "namespace, identifier and reference_id must be 255 characters or less")
	}
	if len(r.DataRequestList) > maxDataRequests {
		return dErrors.New(dErrors.CodeValidation, "too many data requests")
	}
	if r.Namespace == "" || r.Identifier == "" {
		return dErrors.New(dErrors.CodeValidation, "namespace and identifier are required")
	}
	for _, dr := range r.DataRequestList {
		if dr.ServiceID == "" {
			return dErrors.New(dErrors.CodeValidation, "data request service_id is required")
		}
		if dr.MinAS < 0 {
			return dErrors.New(dErrors.CodeValidation, "data request min_as must not be negative")
		}
	}
	if r.Mode < 1 || r.Mode > 3 {
		return dErrors.New(dErrors.CodeValidation, "mode must be 1, 2 or 3")
	}
	if r.MinIdP < 0 || r.RequestTimeout < 0 {
		return dErrors.New(dErrors.CodeValidation, "min_idp and request_timeout must not be negative")
	}
	if r.MinIAL < 0 || r.MinAAL < 0 {
		return dErrors.New(dErrors.CodeValidation, "min_ial and min_aal must not be negative")
	}
	return nil
}

// Policy extracts the auto flags for a request the backend accepted.
func (r *CreateRequest) Policy(requestID, referenceID string, now time.Time) RequestPolicy {
	return RequestPolicy{
		RequestID:                requestID,
		ReferenceID:              referenceID,
		Mode:                     r.Mode,
		MinIdP:                   r.MinIdP,
		AutoClose:                flag(r.AutoClose),
		AutoRemoveData:           flag(r.AutoRemoveData),
		AutoRemovePrivateMessage: flag(r.AutoRemovePrivateMessage),
		CreatedAt:                now,
	}
}

func flag(v *bool) bool {
	return v == nil || *v
}

// CreateRequestResult is returned with 202 once the backend accepted the
// request.
type CreateRequestResult struct {
	RequestID   string `json:"request_id"`
	ReferenceID string `json:"reference_id"`
}

// CloseRequest closes an open request on demand.
type CloseRequest struct {
	RequestID   string `json:"request_id"`
	ReferenceID string `json:"reference_id"`
}

func (r *CloseRequest) Normalize() {
	if r == nil {
		return
	}
	r.RequestID = strings.TrimSpace(r.RequestID)
	r.ReferenceID = strings.TrimSpace(r.ReferenceID)
}

func (r *CloseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.RequestID) > maxFieldLen || len(r.ReferenceID) > maxFieldLen {
		return dErrors.New(dErrors.CodeValidation, "request_id and reference_id must be 255 characters or less")
	}
	if r.RequestID == "" {
		return dErrors.New(dErrors.CodeValidation, "request_id is required")
	}
	return nil
}

// CloseRequestResult carries the token the close_request_result callback
// will echo.
type CloseRequestResult struct {
	RequestID   string `json:"request_id"`
	ReferenceID string `json:"reference_id"`
}
