package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dmitrymomot/authkit/pkg/apierror"
)

// Response is the envelope every API response is wrapped in:
//
//	{"code": 200, "message": "ok", "data": {...}, "success": true}
//
// Pass a *Response as the out argument of Do to receive it whole.
type Response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
}

// parseEnvelope validates the envelope shape. Success is derived from the
// business code (0 or 200) and, when present, the success flag.
func parseEnvelope(body []byte) (Response, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return Response{}, fmt.Errorf("%w: %w", apierror.ErrInvalidEnvelope, err)
	}
	if fields == nil {
		return Response{}, fmt.Errorf("%w: body is not an object", apierror.ErrInvalidEnvelope)
	}

	rawCode, ok := fields["code"]
	if !ok {
		return Response{}, fmt.Errorf("%w: missing code", apierror.ErrInvalidEnvelope)
	}
	var resp Response
	if err := json.Unmarshal(rawCode, &resp.Code); err != nil {
		return Response{}, fmt.Errorf("%w: code: %w", apierror.ErrInvalidEnvelope, err)
	}

	if raw, ok := fields["message"]; ok {
		_ = json.Unmarshal(raw, &resp.Message)
	}
	resp.Data = fields["data"]
	resp.Success = resp.Code == 0 || resp.Code == 200
	if raw, ok := fields["success"]; ok {
		var flag bool
		if err := json.Unmarshal(raw, &flag); err == nil && !flag {
			resp.Success = false
		}
	}
	return resp, nil
}

// details decodes the payload of a failed envelope for Error.Details.
func (r Response) details() any {
	if isEmptyJSON(r.Data) {
		return nil
	}
	var v any
	if err := json.Unmarshal(r.Data, &v); err != nil {
		return string(r.Data)
	}
	return v
}

func (c *Client) decodeBody(body []byte, out any) *apierror.Error {
	resp, err := parseEnvelope(body)
	if err != nil {
		return c.classifier.Validation(err)
	}
	if !resp.Success {
		return c.classifier.Business(resp.Code, resp.Message, resp.details())
	}

	switch dst := out.(type) {
	case nil:
		return nil
	case *Response:
		*dst = resp
		return nil
	}
	if isEmptyJSON(resp.Data) {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return c.classifier.Validation(fmt.Errorf("%w: data: %w", apierror.ErrInvalidEnvelope, err))
	}
	return nil
}

func isEmptyJSON(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
