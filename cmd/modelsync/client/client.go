package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// ModelRepositoryClient talks to a clinical model repository API: it lists
// the model packages of a project and downloads them as JSON.
type ModelRepositoryClient struct {
	BaseURI    string
	HTTPClient *http.Client
	token      string
}

type TokenResponse struct {
	User struct {
		Name   string   `json:"name"`
		Groups []string `json:"groups"`
	}
	Token   string `json:"token"`
	Issued  string `json:"issued"`
	Expires string `json:"expires"`
}

// ModelInfo describes one model package in the repository listing.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Project     string `json:"project"`
	Status      string `json:"status"`
	LastUpdated string `json:"lastUpdated"`
}

// NewModelRepositoryClient creates a client against MODEL_API_URL with
// retrying transport.
func NewModelRepositoryClient() *ModelRepositoryClient {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.HTTPClient = &http.Client{
		Timeout: 60 * time.Second,
	}

	return &ModelRepositoryClient{
		BaseURI:    os.Getenv("MODEL_API_URL"),
		HTTPClient: retryClient.StandardClient(),
	}
}

// Token authenticates with the repository and returns a session token.
func (c *ModelRepositoryClient) Token() (string, error) {
	loginBody := map[string]string{
		"username": os.Getenv("MODEL_API_USER"),
		"password": os.Getenv("MODEL_API_PASSWORD"),
	}

	req, err := c.prepareRequest(http.MethodPost, "/token", loginBody)
	if err != nil {
		return "", err
	}

	resp := new(TokenResponse)
	err = c.sendRequest(req, resp)
	return resp.Token, err
}

// SetToken installs the session token for subsequent requests.
func (c *ModelRepositoryClient) SetToken(token string) {
	if token == "" {
		return
	}
	c.token = token
}

// ListModels returns the model packages of a project.
func (c *ModelRepositoryClient) ListModels(project string) ([]ModelInfo, error) {
	endpoint := "/models"
	if project != "" {
		endpoint += "?project=" + url.QueryEscape(project)
	}

	var models []ModelInfo
	if err := c.get(endpoint, &models); err != nil {
		return nil, err
	}
	return models, nil
}

// DownloadModel fetches the full JSON of one model package.
func (c *ModelRepositoryClient) DownloadModel(id string) ([]byte, error) {
	endpoint, err := url.JoinPath("/models", id)
	if err != nil {
		return nil, err
	}

	req, err := c.prepareRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.signRequest(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("server returned status %d for %s", resp.StatusCode, req.URL.String())
	}
	return body, nil
}

// HTTP helper methods
func (c *ModelRepositoryClient) get(endpoint string, response any) error {
	req, err := c.prepareRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	c.signRequest(req)
	return c.sendRequest(req, response)
}

func (c *ModelRepositoryClient) prepareRequest(method, endpoint string, body any) (*http.Request, error) {
	uri, err := url.JoinPath(c.BaseURI, endpoint)
	if err != nil {
		return nil, err
	}

	var bodyReader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(b)
	} else {
		bodyReader = bytes.NewReader([]byte{})
	}

	uri, err = url.QueryUnescape(uri)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(method, uri, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "application/json; charset=utf-8")
	return req, nil
}

func (c *ModelRepositoryClient) signRequest(req *http.Request) {
	if c.token != "" {
		req.Header.Set("X-Auth-Token", c.token)
	}
}

func (c *ModelRepositoryClient) sendRequest(req *http.Request, response any) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if len(bodyBytes) == 0 {
		return fmt.Errorf("received empty response from server for URL: %s", req.URL.String())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if response == nil {
		return nil
	}
	return json.Unmarshal(bodyBytes, response)
}
