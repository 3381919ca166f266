// Package docbot is a client for the external document-chat backend that
// answers questions over uploaded PDFs.
package docbot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// MaxFilesPerUpload is the most PDFs the backend accepts in one session
const MaxFilesPerUpload = 3

var (
	ErrSessionNameRequired = errors.New("session name is required")
	ErrUserInputRequired   = errors.New("query cannot be empty")
	ErrFileCount           = fmt.Errorf("upload between 1 and %d PDFs", MaxFilesPerUpload)
)

// AskRequest is the payload for POST /ask.
type AskRequest struct {
	UserInput   string `json:"user_input"`
	SessionName string `json:"session_name"`
}

// AskResponse is the backend's answer, an HTML fragment.
type AskResponse struct {
	Response string `json:"response"`
}

// UploadResponse is returned by POST /upload_pdfs.
type UploadResponse struct {
	Message string `json:"message,omitempty"`
}

// SessionsResponse lists the active session names.
type SessionsResponse struct {
	Sessions []string `json:"sessions"`
}

// DeleteResponse is returned by DELETE /delete_session.
type DeleteResponse struct {
	Message string `json:"message,omitempty"`
}

// File is one document to upload.
type File struct {
	Name    string
	Content io.Reader
}

// Client is the docbot backend client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new backend client.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Ask sends a question within an existing session.
func (c *Client) Ask(ctx context.Context, sessionName, userInput string) (*AskResponse, error) {
	if sessionName == "" {
		return nil, fmt.Errorf("docbot.Ask: %w", ErrSessionNameRequired)
	}
	if userInput == "" {
		return nil, fmt.Errorf("docbot.Ask: %w", ErrUserInputRequired)
	}

	body, err := json.Marshal(AskRequest{UserInput: userInput, SessionName: sessionName})
	if err != nil {
		return nil, fmt.Errorf("docbot.Ask: marshal: %w", err)
	}

	var out AskResponse
	if err := c.do(ctx, http.MethodPost, "/ask", "application/json", bytes.NewReader(body), &out); err != nil {
		return nil, fmt.Errorf("docbot.Ask: %w", err)
	}
	return &out, nil
}

// UploadPDFs creates a session from 1 to MaxFilesPerUpload documents.
func (c *Client) UploadPDFs(ctx context.Context, sessionName string, files []File) (*UploadResponse, error) {
	if sessionName == "" {
		return nil, fmt.Errorf("docbot.UploadPDFs: %w", ErrSessionNameRequired)
	}
	if len(files) == 0 || len(files) > MaxFilesPerUpload {
		return nil, fmt.Errorf("docbot.UploadPDFs: %w", ErrFileCount)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("session_name", sessionName); err != nil {
		return nil, fmt.Errorf("docbot.UploadPDFs: %w", err)
	}
	for _, f := range files {
		part, err := w.CreateFormFile("pdfs", f.Name)
		if err != nil {
			return nil, fmt.Errorf("docbot.UploadPDFs: %w", err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, fmt.Errorf("docbot.UploadPDFs: copy %s: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("docbot.UploadPDFs: %w", err)
	}

	var out UploadResponse
	if err := c.do(ctx, http.MethodPost, "/upload_pdfs", w.FormDataContentType(), &buf, &out); err != nil {
		return nil, fmt.Errorf("docbot.UploadPDFs: %w", err)
	}
	return &out, nil
}

// Sessions lists the sessions the backend knows about.
func (c *Client) Sessions(ctx context.Context) (*SessionsResponse, error) {
	var out SessionsResponse
	if err := c.do(ctx, http.MethodGet, "/sessions", "", nil, &out); err != nil {
		return nil, fmt.Errorf("docbot.Sessions: %w", err)
	}
	return &out, nil
}

// DeleteSession removes a session and its stored history.
func (c *Client) DeleteSession(ctx context.Context, sessionName string) (*DeleteResponse, error) {
	if sessionName == "" {
		return nil, fmt.Errorf("docbot.DeleteSession: %w", ErrSessionNameRequired)
	}

	path := "/delete_session?" + url.Values{"session_name": {sessionName}}.Encode()

	var out DeleteResponse
	if err := c.do(ctx, http.MethodDelete, path, "", nil, &out); err != nil {
		return nil, fmt.Errorf("docbot.DeleteSession: %w", err)
	}
	return &out, nil
}

// do sends a request to path and decodes a 2xx JSON response into out.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// errorMessage extracts the backend's {"error": "..."} text, falling back to the raw body.
func errorMessage(data []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(data))
}
