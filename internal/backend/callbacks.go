package backend

import "errors"

// Callback types delivered to result webhooks.
const (
	TypeCreateIdentityRequestResult = "create_identity_request_result"
	TypeCreateIdentityResult        = "create_identity_result"
	TypeUpgradeModeRequestResult    = "upgrade_identity_mode_request_result"
	TypeUpgradeModeResult           = "upgrade_identity_mode_result"
	TypeUpdateIALResult             = "update_ial_result"
	TypeAddAccessorResult           = "add_accessor_result"
	TypeRevokeAccessorResult        = "revoke_accessor_result"
	TypeRevokeAndAddAccessorResult  = "revoke_and_add_accessor_result"
	TypeRevokeAssociationResult     = "revoke_identity_association_result"
	TypeResponseResult              = "response_result"
	TypeIncomingRequest             = "incoming_request"
	TypeAccessorSign                = "accessor_sign"
	TypeCreateRequestResult         = "create_request_result"
	TypeRequestStatus               = "request_status"
	TypeCloseRequestResult          = "close_request_result"
	TypeError                       = "error"
	TypeDataRequest                 = "data_request"
	TypeAddOrUpdateServiceResult    = "add_or_update_service_result"
	TypeSendDataResult              = "send_data_result"
)

// Request status values reported in request_status events.
const (
	StatusPending     = "pending"
	StatusConfirmed   = "confirmed"
	StatusRejected    = "rejected"
	StatusComplicated = "complicated"
	StatusCompleted   = "completed"
)

// ErrUnknownCallbackType is returned by webhook processors for a type they
// do not own. It fails that one callback only.
var ErrUnknownCallbackType = errors.New("unknown callback type")

// CallbackError is the error object attached to failed results.
type CallbackError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Callback is the common envelope of every asynchronous result.
type Callback struct {
	NodeID             string         `json:"node_id,omitempty"`
	Type               string         `json:"type"`
	Success            bool           `json:"success"`
	ReferenceID        string         `json:"reference_id"`
	RequestID          string         `json:"request_id,omitempty"`
	Exist              bool           `json:"exist,omitempty"`
	ReferenceGroupCode string         `json:"reference_group_code,omitempty"`
	AccessorID         string         `json:"accessor_id,omitempty"`
	Error              *CallbackError `json:"error,omitempty"`
}

// IncomingRequest notifies an IdP that a relying party asks it to respond.
type IncomingRequest struct {
	NodeID             string  `json:"node_id,omitempty"`
	Type               string  `json:"type"`
	RequestID          string  `json:"request_id"`
	Mode               int     `json:"mode"`
	Namespace          string  `json:"namespace,omitempty"`
	Identifier         string  `json:"identifier,omitempty"`
	ReferenceGroupCode string  `json:"reference_group_code,omitempty"`
	RequestMessage     string  `json:"request_message,omitempty"`
	RequestMessageHash string  `json:"request_message_hash,omitempty"`
	RequesterNodeID    string  `json:"requester_node_id,omitempty"`
	MinIAL             float64 `json:"min_ial"`
	MinAAL             float64 `json:"min_aal"`
	RequestTimeout     int     `json:"request_timeout,omitempty"`
}

// SignRequest asks an IdP to sign a challenge with an accessor key.
// ReferenceID identifies an identity still being created; AccessorID a
// committed accessor.
type SignRequest struct {
	NodeID                   string `json:"node_id,omitempty"`
	Type                     string `json:"type,omitempty"`
	AccessorID               string `json:"accessor_id"`
	ReferenceID              string `json:"reference_id,omitempty"`
	RequestID                string `json:"request_id,omitempty"`
	RequestMessagePaddedHash string `json:"request_message_padded_hash,omitempty"`
	Message                  string `json:"message,omitempty"`
}

// SignResponse is the inline answer to SignRequest.
type SignResponse struct {
	Signature string `json:"signature"`
}

// ResponseValid is one IdP's validity report inside a request status event.
// Nil fields were not evaluated by the backend.
type ResponseValid struct {
	IdPID          string `json:"idp_id"`
	ValidSignature *bool  `json:"valid_signature"`
	ValidIAL       *bool  `json:"valid_ial"`
}

// ServiceStatus reports AS progress for one requested service.
type ServiceStatus struct {
	ServiceID         string `json:"service_id"`
	MinAS             int    `json:"min_as"`
	SignedDataCount   int    `json:"signed_data_count"`
	ReceivedDataCount int    `json:"received_data_count"`
}

// RequestStatus is the RP-side status update for one request.
type RequestStatus struct {
	NodeID            string          `json:"node_id,omitempty"`
	Type              string          `json:"type"`
	RequestID         string          `json:"request_id"`
	ReferenceID       string          `json:"reference_id,omitempty"`
	Mode              int             `json:"mode"`
	Status            string          `json:"status"`
	MinIdP            int             `json:"min_idp"`
	AnsweredIdPCount  int             `json:"answered_idp_count"`
	Closed            bool            `json:"closed"`
	TimedOut          bool            `json:"timed_out"`
	ResponseValidList []ResponseValid `json:"response_valid_list"`
	ServiceList       []ServiceStatus `json:"service_list,omitempty"`
	Success           bool            `json:"success"`
	Error             *CallbackError  `json:"error,omitempty"`
}

// DataRequest asks an AS to send data for a service.
type DataRequest struct {
	NodeID        string  `json:"node_id,omitempty"`
	Type          string  `json:"type"`
	RequestID     string  `json:"request_id"`
	ServiceID     string  `json:"service_id"`
	Namespace     string  `json:"namespace"`
	Identifier    string  `json:"identifier"`
	RequestParams string  `json:"request_params,omitempty"`
	MaxIAL        float64 `json:"max_ial,omitempty"`
	MaxAAL        float64 `json:"max_aal,omitempty"`
}
