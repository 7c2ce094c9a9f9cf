package backend

import (
	"context"
	"net/url"
)

// ErrCodeServiceAlreadyRegistered is the backend error code for a service
// this AS already offers.
const ErrCodeServiceAlreadyRegistered = 25005

// RegisterServiceRequest offers a service from this AS.
type RegisterServiceRequest struct {
	ReferenceID string  `json:"reference_id"`
	CallbackURL string  `json:"callback_url"`
	MinIAL      float64 `json:"min_ial"`
	MinAAL      float64 `json:"min_aal"`
	URL         string  `json:"url"`
}

// SendDataRequest returns service data for a request.
type SendDataRequest struct {
	ReferenceID string `json:"reference_id"`
	CallbackURL string `json:"callback_url"`
	Data        string `json:"data"`
}

func (c *Client) RegisterService(ctx context.Context, serviceID string, in RegisterServiceRequest) error {
	return c.post(ctx, "register_service", "/as/service/"+url.PathEscape(serviceID), in, nil)
}

func (c *Client) SendData(ctx context.Context, requestID, serviceID string, in SendDataRequest) error {
	path := "/as/data/" + url.PathEscape(requestID) + "/" + url.PathEscape(serviceID)
	return c.post(ctx, "send_data", path, in, nil)
}
