package backend

import (
	"context"
	"net/url"
)

// IdPCallbacks are the webhook URLs an IdP registers with the backend.
type IdPCallbacks struct {
	IncomingRequestURL string `json:"incoming_request_url"`
	AccessorSignURL    string `json:"accessor_sign_url,omitempty"`
	ErrorURL           string `json:"error_url,omitempty"`
}

// IdentityEntry names one identity in a create request.
type IdentityEntry struct {
	Namespace  string `json:"namespace"`
	Identifier string `json:"identifier"`
}

// CreateIdentityRequest starts a two-phase identity creation.
type CreateIdentityRequest struct {
	ReferenceID       string          `json:"reference_id"`
	CallbackURL       string          `json:"callback_url"`
	IdentityList      []IdentityEntry `json:"identity_list"`
	AccessorType      string          `json:"accessor_type"`
	AccessorPublicKey string          `json:"accessor_public_key"`
	AccessorID        string          `json:"accessor_id,omitempty"`
	IAL               float64         `json:"ial"`
	Mode              int             `json:"mode"`
	RequestMessage    string          `json:"request_message,omitempty"`
}

// CreateIdentityResponse is the synchronous answer to CreateIdentity.
type CreateIdentityResponse struct {
	RequestID  string `json:"request_id"`
	AccessorID string `json:"accessor_id"`
	Exist      bool   `json:"exist"`
}

// UpgradeModeRequest raises an identity to mode 3.
type UpgradeModeRequest struct {
	ReferenceID    string `json:"reference_id"`
	CallbackURL    string `json:"callback_url"`
	RequestMessage string `json:"request_message,omitempty"`
}

// UpdateIALRequest changes the assurance level.
type UpdateIALRequest struct {
	ReferenceID string  `json:"reference_id"`
	CallbackURL string  `json:"callback_url"`
	IAL         float64 `json:"ial"`
}

// AddAccessorRequest registers a new accessor key.
type AddAccessorRequest struct {
	ReferenceID       string `json:"reference_id"`
	CallbackURL       string `json:"callback_url"`
	AccessorType      string `json:"accessor_type"`
	AccessorPublicKey string `json:"accessor_public_key"`
	AccessorID        string `json:"accessor_id,omitempty"`
	RequestMessage    string `json:"request_message,omitempty"`
}

// RevokeAccessorRequest revokes an accessor.
type RevokeAccessorRequest struct {
	ReferenceID    string `json:"reference_id"`
	CallbackURL    string `json:"callback_url"`
	AccessorID     string `json:"accessor_id"`
	RequestMessage string `json:"request_message,omitempty"`
}

// RevokeAndAddAccessorRequest replaces an accessor atomically.
type RevokeAndAddAccessorRequest struct {
	ReferenceID        string `json:"reference_id"`
	CallbackURL        string `json:"callback_url"`
	RevokingAccessorID string `json:"revoking_accessor_id"`
	AccessorType       string `json:"accessor_type"`
	AccessorPublicKey  string `json:"accessor_public_key"`
	AccessorID         string `json:"accessor_id,omitempty"`
	RequestMessage     string `json:"request_message,omitempty"`
}

// RevokeAssociationRequest ends this IdP's association with an identity.
type RevokeAssociationRequest struct {
	ReferenceID    string `json:"reference_id"`
	CallbackURL    string `json:"callback_url"`
	RequestMessage string `json:"request_message,omitempty"`
}

// RequestResponse carries the backend request id of an accepted operation.
type RequestResponse struct {
	RequestID string `json:"request_id"`
}

// AccessorResponse carries the accessor id the backend assigned.
type AccessorResponse struct {
	RequestID  string `json:"request_id"`
	AccessorID string `json:"accessor_id"`
}

// IdPResponse answers an incoming request.
type IdPResponse struct {
	ReferenceID string  `json:"reference_id"`
	CallbackURL string  `json:"callback_url"`
	RequestID   string  `json:"request_id"`
	AccessorID  string  `json:"accessor_id,omitempty"`
	IAL         float64 `json:"ial"`
	AAL         float64 `json:"aal"`
	Status      string  `json:"status"`
	Signature   string  `json:"signature"`
	ErrorCode   int     `json:"error_code,omitempty"`
}

type paddedHashResponse struct {
	RequestMessagePaddedHash string `json:"request_message_padded_hash"`
}

func (c *Client) SetIdPCallbacks(ctx context.Context, in IdPCallbacks) error {
	return c.post(ctx, "set_idp_callbacks", "/idp/callback", in, nil)
}

func (c *Client) CreateIdentity(ctx context.Context, in CreateIdentityRequest) (CreateIdentityResponse, error) {
	var out CreateIdentityResponse
	err := c.post(ctx, "create_identity", "/identity", in, &out)
	return out, err
}

func (c *Client) UpgradeIdentityMode(ctx context.Context, namespace, identifier string, in UpgradeModeRequest) (RequestResponse, error) {
	var out RequestResponse
	err := c.post(ctx, "upgrade_identity_mode", identityPath(namespace, identifier)+"/mode", in, &out)
	return out, err
}

func (c *Client) UpdateIAL(ctx context.Context, namespace, identifier string, in UpdateIALRequest) error {
	return c.post(ctx, "update_ial", identityPath(namespace, identifier)+"/ial", in, nil)
}

func (c *Client) AddAccessor(ctx context.Context, namespace, identifier string, in AddAccessorRequest) (AccessorResponse, error) {
	var out AccessorResponse
	err := c.post(ctx, "add_accessor", identityPath(namespace, identifier)+"/accessors", in, &out)
	return out, err
}

func (c *Client) RevokeAccessor(ctx context.Context, namespace, identifier string, in RevokeAccessorRequest) (RequestResponse, error) {
	var out RequestResponse
	err := c.post(ctx, "revoke_accessor", identityPath(namespace, identifier)+"/accessor_revoke", in, &out)
	return out, err
}

func (c *Client) RevokeAndAddAccessor(ctx context.Context, namespace, identifier string, in RevokeAndAddAccessorRequest) (AccessorResponse, error) {
	var out AccessorResponse
	err := c.post(ctx, "revoke_and_add_accessor", identityPath(namespace, identifier)+"/accessor_revoke_and_add", in, &out)
	return out, err
}

func (c *Client) RevokeAssociation(ctx context.Context, namespace, identifier string, in RevokeAssociationRequest) (RequestResponse, error) {
	var out RequestResponse
	err := c.post(ctx, "revoke_identity_association", identityPath(namespace, identifier)+"/association_revoke", in, &out)
	return out, err
}

// RequestMessagePaddedHash fetches the hash an accessor key must sign to
// answer requestID.
func (c *Client) RequestMessagePaddedHash(ctx context.Context, requestID, accessorID string) (string, error) {
	q := url.Values{}
	q.Set("request_id", requestID)
	q.Set("accessor_id", accessorID)
	var out paddedHashResponse
	if err := c.get(ctx, "request_message_padded_hash", "/idp/request_message_padded_hash?"+q.Encode(), &out); err != nil {
		return "", err
	}
	return out.RequestMessagePaddedHash, nil
}

func (c *Client) CreateIdPResponse(ctx context.Context, in IdPResponse) error {
	return c.post(ctx, "create_idp_response", "/idp/response", in, nil)
}
