package client

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-retryablehttp"
)

// Client talks to the marketplace backend REST API. The base URL is
// injected at construction, nothing is read from ambient configuration.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	validate   *validator.Validate
}

func New(baseURL string) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = time.Second
	retryClient.Logger = nil
	retryClient.HTTPClient = &http.Client{
		Timeout: 30 * time.Second,
	}

	return &Client{
		BaseURL:    baseURL,
		HTTPClient: retryClient.StandardClient(),
		validate:   validator.New(),
	}
}

// StatusError is returned for non-2xx upstream responses. Callers must be
// able to tell a failed search apart from an empty one.
type StatusError struct {
	Code int
	Path string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d for %s", e.Code, e.Path)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
