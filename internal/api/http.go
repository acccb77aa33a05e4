package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// doGetJSON performs a GET request and unmarshals the JSON response into the
// result type. The endpoint is the path after the base API URL.
func doGetJSON[T any](ctx context.Context, c *Client, endpoint string) (*T, error) {
	return doRequestJSON[T](ctx, c, http.MethodGet, endpoint, nil)
}

// doPostJSON performs a POST request with a JSON body and unmarshals the
// JSON response.
func doPostJSON[T any](ctx context.Context, c *Client, endpoint string, requestBody any) (*T, error) {
	return doRequestJSON[T](ctx, c, http.MethodPost, endpoint, requestBody)
}

// doPutJSON performs a PUT request with a JSON body and unmarshals the
// JSON response.
func doPutJSON[T any](ctx context.Context, c *Client, endpoint string, requestBody any) (*T, error) {
	return doRequestJSON[T](ctx, c, http.MethodPut, endpoint, requestBody)
}

// doDeleteJSON performs a DELETE request and unmarshals the JSON response.
func doDeleteJSON[T any](ctx context.Context, c *Client, endpoint string) (*T, error) {
	return doRequestJSON[T](ctx, c, http.MethodDelete, endpoint, nil)
}

// doRequestJSON is the internal helper performing HTTP requests with a JSON
// body and response. Service rejections arrive as 4xx with a JSON body; those
// are converted to *APIError, a 401 on an authenticated call to
// ErrUnauthorized.
func doRequestJSON[T any](ctx context.Context, c *Client, method, endpoint string, requestBody any) (*T, error) {
	var bodyReader io.Reader
	if requestBody != nil {
		jsonBody, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("could not marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolveURL(endpoint), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return send[T](c, req)
}

// doMultipart performs a POST or PUT with a multipart form containing the
// given fields plus one image part.
func doMultipart[T any](ctx context.Context, c *Client, method, endpoint, imageField, imageName string, image []byte, fields map[string]string) (*T, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("could not write form field %s: %w", key, err)
		}
	}

	if image != nil {
		part, err := writer.CreateFormFile(imageField, imageName)
		if err != nil {
			return nil, fmt.Errorf("could not create form file: %w", err)
		}
		if _, err := part.Write(image); err != nil {
			return nil, fmt.Errorf("could not write image data: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("could not close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolveURL(endpoint), &body)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return send[T](c, req)
}

// buildFrameForm packages captured frames as a multipart form. Single-frame
// submissions use the field once ("image"), bursts repeat it ("images").
func buildFrameForm(field string, frames [][]byte) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for i, frame := range frames {
		name := "webcam.jpg"
		if len(frames) > 1 {
			name = fmt.Sprintf("frame_%d.jpg", i)
		}
		part, err := writer.CreateFormFile(field, name)
		if err != nil {
			return nil, "", fmt.Errorf("could not create form file: %w", err)
		}
		if _, err := part.Write(frame); err != nil {
			return nil, "", fmt.Errorf("could not write frame data: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("could not close writer: %w", err)
	}
	return &body, writer.FormDataContentType(), nil
}

// send executes the request with the bearer credential attached and decodes
// the JSON response. Accepts any 2xx; a 4xx/5xx with a JSON message becomes
// *APIError, a 401 on an authenticated call ErrUnauthorized.
func send[T any](c *Client, req *http.Request) (*T, error) {
	authenticated := c.token != ""
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && authenticated {
		return nil, ErrUnauthorized
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}

	if resp.StatusCode >= 300 {
		return nil, errorFromBody(resp.StatusCode, body)
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}

	return &result, nil
}

// errorFromBody converts a rejection body to *APIError, preferring the
// service's own message field.
func errorFromBody(status int, body []byte) error {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return &APIError{StatusCode: status, Message: payload.Message}
		}
		if payload.Error != "" {
			return &APIError{StatusCode: status, Message: payload.Error}
		}
	}
	return &APIError{StatusCode: status, Message: fmt.Sprintf("request failed with status %d: %s", status, bytes.TrimSpace(body))}
}
