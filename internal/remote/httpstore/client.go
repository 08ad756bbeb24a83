// Package httpstore talks to a docstore server. It is both the remote.Store
// and the identity.Provider seen by the sync engine.
package httpstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mcoot/bankerscore/internal/api/apierr"
	"github.com/mcoot/bankerscore/internal/api/request"
	"github.com/mcoot/bankerscore/internal/api/response"
	"github.com/mcoot/bankerscore/internal/model"
	"github.com/mcoot/bankerscore/internal/remote"
	"github.com/mcoot/bankerscore/internal/services/identity"
)

// Client is an HTTP client for the docstore API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new docstore client
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/") + "/api/v1",
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Ensure Client serves both roles
var (
	_ remote.Store      = (*Client)(nil)
	_ identity.Provider = (*Client)(nil)
)

// StatusError is a non-2xx response from the server
type StatusError struct {
	Status int
	API    apierr.APIError
}

func (e *StatusError) Error() string {
	if e.API.Code != "" {
		return fmt.Sprintf("%s (%s)", e.API.Message, e.API.Code)
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// Unwrap maps the status onto an error kind
func (e *StatusError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return model.ErrAuthentication
	case e.Status == http.StatusForbidden:
		return model.ErrQuota
	case e.Status == http.StatusNotFound:
		return model.ErrNotFound
	case e.Status == http.StatusBadRequest:
		return model.ErrValidation
	case e.Status == http.StatusConflict:
		return model.ErrDuplicateName
	case e.Status >= http.StatusInternalServerError:
		return model.ErrConnectivity
	default:
		return nil
	}
}

// Health checks the server is reachable
func (c *Client) Health(ctx context.Context) error {
	var resp response.Health
	return c.do(ctx, http.MethodGet, "/health", "", nil, &resp)
}

// SignIn exchanges credentials for an ID token
func (c *Client) SignIn(ctx context.Context, creds identity.Credentials) (*identity.SignInResult, error) {
	var result identity.SignInResult
	req := request.SignInRequest{Username: creds.Username, Password: creds.Password}
	if err := c.do(ctx, http.MethodPost, "/auth/signin", "", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RequestAccessToken exchanges an ID token for an access token
func (c *Client) RequestAccessToken(ctx context.Context, idToken string) (*identity.AccessToken, error) {
	var result identity.AccessToken
	if err := c.do(ctx, http.MethodPost, "/auth/token", "", request.TokenRequest{IDToken: idToken}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Revoke invalidates a token server side
func (c *Client) Revoke(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/revoke", "", request.RevokeRequest{Token: token}, nil)
}

func (c *Client) FindByName(ctx context.Context, token, name, parentID string) ([]remote.FileRef, error) {
	q := url.Values{}
	q.Set("name", name)
	if parentID != "" {
		q.Set("parent", parentID)
	}

	var result response.FileList
	if err := c.do(ctx, http.MethodGet, "/files?"+q.Encode(), token, nil, &result); err != nil {
		return nil, err
	}
	return result.Files, nil
}

func (c *Client) CreateFolder(ctx context.Context, token, name string) (remote.FolderRef, error) {
	if err := remote.ValidateName(name); err != nil {
		return remote.FolderRef{}, err
	}
	var result remote.FolderRef
	err := c.do(ctx, http.MethodPost, "/folders", token, request.CreateFolderRequest{Name: name}, &result)
	return result, err
}

func (c *Client) CreateFile(ctx context.Context, token, name string, parent remote.FolderRef, content []byte) (remote.FileRef, error) {
	if err := remote.ValidateName(name); err != nil {
		return remote.FileRef{}, err
	}
	req := request.CreateFileRequest{Name: name, ParentID: parent.ID, Content: content}
	var result remote.FileRef
	err := c.do(ctx, http.MethodPost, "/files", token, req, &result)
	return result, err
}

func (c *Client) UpdateFile(ctx context.Context, token string, file remote.FileRef, content []byte) (remote.FileRef, error) {
	var result remote.FileRef
	err := c.do(ctx, http.MethodPut, "/files/"+url.PathEscape(file.ID), token, request.UpdateFileRequest{Content: content}, &result)
	return result, err
}

func (c *Client) GetFileContent(ctx context.Context, token string, file remote.FileRef) ([]byte, error) {
	var content []byte
	if err := c.do(ctx, http.MethodGet, "/files/"+url.PathEscape(file.ID)+"/content", token, nil, &content); err != nil {
		return nil, err
	}
	return content, nil
}

// do performs a request. A *[]byte result receives the raw body; any other
// non-nil result is decoded as JSON.
func (c *Client) do(ctx context.Context, method, path, token string, body, result any) error {
	if token == "" && requiresToken(path) {
		return model.ErrNotSignedIn
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", model.ErrConnectivity, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", model.ErrConnectivity, err)
	}

	// Check for error responses
	if resp.StatusCode >= 400 {
		statusErr := &StatusError{Status: resp.StatusCode}
		var errResp apierr.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil {
			statusErr.API = errResp.Error
		}
		return statusErr
	}

	switch out := result.(type) {
	case nil:
	case *[]byte:
		*out = respBody
	default:
		if len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
		}
	}
	return nil
}

func requiresToken(path string) bool {
	return strings.HasPrefix(path, "/files") || strings.HasPrefix(path, "/folders")
}
