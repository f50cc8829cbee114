package vault

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// apiError is a non-2xx response from the remote authority, carrying the
// error strings from the response body.
type apiError struct {
	Status int
	Path   string
	Errors []string
}

func (e *apiError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("remote authority %s: %d: %s", e.Path, e.Status, strings.Join(e.Errors, "; "))
	}
	return fmt.Sprintf("remote authority %s: %d", e.Path, e.Status)
}

// client is a minimal authenticated HTTP client for the remote PKI
// service. Every call is an independent request; the client holds no
// mutable session state, so it is safe for concurrent use.
type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func newClient(baseURL, token string) *client {
	return &client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    http.DefaultClient,
	}
}

// do performs one API exchange. A network-layer failure is returned
// as-is (the caller remaps it); an error status decodes into *apiError;
// a success status decodes the body into out when non-nil.
func (c *client) do(method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+"/v1/"+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("X-Vault-Token", c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &apiError{Status: resp.StatusCode, Path: path}
		var errBody struct {
			Errors []string `json:"errors"`
		}
		if json.Unmarshal(data, &errBody) == nil {
			apiErr.Errors = errBody.Errors
		}
		return apiErr
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}
	return nil
}

func (c *client) read(path string, out any) error {
	return c.do(http.MethodGet, path, nil, out)
}

func (c *client) write(path string, body map[string]any, out any) error {
	return c.do(http.MethodPut, path, body, out)
}

func (c *client) list(path string, out any) error {
	return c.do(http.MethodGet, path+"?list=true", nil, out)
}

// tokenValid probes the authentication endpoint. A definitive "not
// authenticated" answer returns (false, nil); transport failures are
// returned to the caller.
func (c *client) tokenValid() (bool, error) {
	err := c.read("auth/token/lookup-self", nil)
	if err == nil {
		return true, nil
	}
	if apiErr, ok := err.(*apiError); ok {
		if apiErr.Status == http.StatusForbidden || apiErr.Status == http.StatusUnauthorized {
			return false, nil
		}
	}
	return false, err
}

// listMounts returns the set of registered secret backends, keyed by
// mount path with trailing slash (for example "pki/"). Both the modern
// data-wrapped and the bare response layouts are accepted.
func (c *client) listMounts() (map[string]struct{}, error) {
	var raw map[string]json.RawMessage
	if err := c.read("sys/mounts", &raw); err != nil {
		return nil, err
	}

	source := raw
	if data, ok := raw["data"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(data, &inner); err == nil && inner != nil {
			source = inner
		}
	}

	mounts := make(map[string]struct{}, len(source))
	for key := range source {
		if strings.HasSuffix(key, "/") {
			mounts[key] = struct{}{}
		}
	}
	return mounts, nil
}

// health reads the service health endpoint. The endpoint reports state
// through its status code, so any decodable body counts as an answer.
func (c *client) health() (*healthResponse, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/v1/sys/health", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Vault-Token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}
	return &health, nil
}

// Response bodies, one type per endpoint family.

type certResponse struct {
	Data struct {
		Certificate string `json:"certificate"`
	} `json:"data"`
}

type issueResponse struct {
	Data struct {
		PrivateKey   string `json:"private_key"`
		Certificate  string `json:"certificate"`
		SerialNumber string `json:"serial_number"`
	} `json:"data"`
}

type revokeResponse struct {
	Data struct {
		RevocationTime int64 `json:"revocation_time"`
	} `json:"data"`
}

type listResponse struct {
	Data struct {
		Keys []string `json:"keys"`
	} `json:"data"`
}

type healthResponse struct {
	Version     string `json:"version"`
	Initialized bool   `json:"initialized"`
	Sealed      bool   `json:"sealed"`
}
