package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, NewRequest(http.MethodGet, path, opts...), out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, NewRequest(http.MethodPost, path, append([]RequestOption{WithBody(body)}, opts...)...), out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, NewRequest(http.MethodPut, path, append([]RequestOption{WithBody(body)}, opts...)...), out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, NewRequest(http.MethodPatch, path, append([]RequestOption{WithBody(body)}, opts...)...), out)
}

func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, NewRequest(http.MethodDelete, path, opts...), out)
}

// File is a multipart file part.
type File struct {
	Field   string
	Name    string
	Content io.Reader
}

// Upload posts file and fields as multipart/form-data. The form is encoded
// once up front so retries resend identical bytes.
func (c *Client) Upload(ctx context.Context, path string, file File, fields map[string]string, out any, opts ...RequestOption) error {
	payload, contentType, err := encodeMultipart(file, fields)
	if err != nil {
		return c.classifier.Config(err)
	}
	req := NewRequest(http.MethodPost, path, opts...)
	req.Body = nil
	req.payload = payload
	req.contentType = contentType
	return c.Do(ctx, req, out)
}

// Download streams the raw body of a successful GET into w. Failures are
// classified as usual. Transport errors are never retried because w may
// already hold part of the body.
func (c *Client) Download(ctx context.Context, path string, w io.Writer, opts ...RequestOption) error {
	if w == nil {
		return c.classifier.Config(fmt.Errorf("httpclient: nil download writer"))
	}
	req := NewRequest(http.MethodGet, path, opts...)
	req.sink = w
	return c.Do(ctx, req, nil)
}

func encodeJSON(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return b, nil
}

func encodeMultipart(file File, fields map[string]string) ([]byte, string, error) {
	if file.Content == nil {
		return nil, "", fmt.Errorf("httpclient: upload without content")
	}
	field := file.Field
	if field == "" {
		field = "file"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write form field %q: %w", k, err)
		}
	}
	part, err := mw.CreateFormFile(field, file.Name)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return nil, "", fmt.Errorf("read upload content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}
