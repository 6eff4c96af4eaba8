package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Client is an HTTP client for the API. Authentication travels in
// cookies, so the client keeps a jar and persists it between runs.
type Client struct {
	baseURL    string
	serverURL  *url.URL
	cookieFile string
	jar        *cookiejar.Jar
	httpClient *http.Client
}

// storedCookie is the on-disk shape of a persisted cookie
type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewClient creates a new API client, loading any cookies saved by a
// previous run
func NewClient(baseURL, cookieFile string) (*Client, error) {
	trimmed := strings.TrimSuffix(baseURL, "/")
	serverURL, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:    trimmed,
		serverURL:  serverURL,
		cookieFile: cookieFile,
		jar:        jar,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
	}

	if err := c.loadCookies(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) loadCookies() error {
	data, err := os.ReadFile(c.cookieFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		// Corrupt cookie file; start fresh
		return nil
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, sc := range stored {
		cookies = append(cookies, &http.Cookie{Name: sc.Name, Value: sc.Value})
	}
	c.jar.SetCookies(c.serverURL, cookies)
	return nil
}

// SaveCookies writes the jar contents to the cookie file
func (c *Client) SaveCookies() error {
	cookies := c.jar.Cookies(c.serverURL)
	stored := make([]storedCookie, 0, len(cookies))
	for _, ck := range cookies {
		stored = append(stored, storedCookie{Name: ck.Name, Value: ck.Value})
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.cookieFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	return os.WriteFile(c.cookieFile, data, 0600)
}

// ClearCookies removes all saved session state
func (c *Client) ClearCookies() error {
	err := os.Remove(c.cookieFile)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// APIError represents an error response from the API
type APIError struct {
	Code    string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *APIError) String() string {
	if e.Field != "" {
		return fmt.Sprintf("%s [%s] (%s)", e.Message, e.Field, e.Code)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Do performs an HTTP request, updating and persisting cookies
func (c *Client) Do(method, path string, body, result any) error {
	reqURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	// Persist any session cookies the server set
	if err := c.SaveCookies(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	// Check for error responses
	if resp.StatusCode >= 400 {
		var apiErr APIError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Code != "" {
			return fmt.Errorf("%s", apiErr.String())
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	// Parse successful response
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// Get performs a GET request
func (c *Client) Get(path string, result any) error {
	return c.Do(http.MethodGet, path, nil, result)
}

// Post performs a POST request
func (c *Client) Post(path string, body, result any) error {
	return c.Do(http.MethodPost, path, body, result)
}

// Patch performs a PATCH request
func (c *Client) Patch(path string, body, result any) error {
	return c.Do(http.MethodPatch, path, body, result)
}
