package backend

import (
	"context"
	"encoding/json"
	"net/url"
)

// DataRequestEntry names one service an RP wants data from.
type DataRequestEntry struct {
	ServiceID     string   `json:"service_id"`
	ASIDList      []string `json:"as_id_list"`
	MinAS         int      `json:"min_as"`
	RequestParams string   `json:"request_params,omitempty"`
}

// CreateRequestBody opens an identity request from an RP.
type CreateRequestBody struct {
	Mode                int                `json:"mode"`
	ReferenceID         string             `json:"reference_id"`
	CallbackURL         string             `json:"callback_url"`
	IdPIDList           []string           `json:"idp_id_list"`
	DataRequestList     []DataRequestEntry `json:"data_request_list"`
	RequestMessage      string             `json:"request_message"`
	MinIAL              float64            `json:"min_ial"`
	MinAAL              float64            `json:"min_aal"`
	MinIdP              int                `json:"min_idp"`
	RequestTimeout      int                `json:"request_timeout"`
	BypassIdentityCheck bool               `json:"bypass_identity_check,omitempty"`
}

// CreateRequestResponse is the synchronous answer to CreateRequest.
type CreateRequestResponse struct {
	RequestID   string `json:"request_id"`
	InitialSalt string `json:"initial_salt,omitempty"`
}

// CloseRequestBody closes an open request.
type CloseRequestBody struct {
	ReferenceID string `json:"reference_id"`
	CallbackURL string `json:"callback_url"`
	RequestID   string `json:"request_id"`
}

func (c *Client) CreateRequest(ctx context.Context, namespace, identifier string, in CreateRequestBody) (CreateRequestResponse, error) {
	var out CreateRequestResponse
	path := "/rp/requests/" + url.PathEscape(namespace) + "/" + url.PathEscape(identifier)
	err := c.post(ctx, "create_request", path, in, &out)
	return out, err
}

func (c *Client) CloseRequest(ctx context.Context, in CloseRequestBody) error {
	return c.post(ctx, "close_request", "/rp/request_close", in, nil)
}

func (c *Client) RemoveRequestData(ctx context.Context, requestID string) error {
	return c.post(ctx, "remove_request_data", "/rp/request_data_removal/"+url.PathEscape(requestID), nil, nil)
}

func (c *Client) RemovePrivateMessages(ctx context.Context, requestID string) error {
	return c.post(ctx, "remove_private_messages", "/utility/private_message_removal/"+url.PathEscape(requestID), nil, nil)
}

func (c *Client) PrivateMessages(ctx context.Context, requestID string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.get(ctx, "private_messages", "/utility/private_messages/"+url.PathEscape(requestID), &out)
	return out, err
}

func (c *Client) RequestData(ctx context.Context, requestID string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.get(ctx, "request_data", "/rp/request_data/"+url.PathEscape(requestID), &out)
	return out, err
}
