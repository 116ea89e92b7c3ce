package utils

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

const (
	ApiBaseUrlEnv     = "TRACKER_API_URL"
	DefaultApiBaseUrl = "https://api.superblocks.com/v1"
)

// BaseURLResolver returns the base URL of the tracking service API
type BaseURLResolver func() (string, error)

// GetApiBaseUrl resolves the tracking service base URL from TRACKER_API_URL,
// falling back to the public endpoint. The result never ends with a slash.
func GetApiBaseUrl() (string, error) {
	baseUrl := os.Getenv(ApiBaseUrlEnv)
	if baseUrl == "" {
		return DefaultApiBaseUrl, nil
	}

	parsedUrl, err := url.Parse(baseUrl)
	if err != nil {
		return "", fmt.Errorf("invalid %s env var: %w", ApiBaseUrlEnv, err)
	}
	if (parsedUrl.Scheme != "http" && parsedUrl.Scheme != "https") || parsedUrl.Host == "" {
		return "", fmt.Errorf("invalid %s env var: %q is not an absolute http(s) URL", ApiBaseUrlEnv, baseUrl)
	}

	return strings.TrimRight(parsedUrl.String(), "/"), nil
}

// StaticBaseURL returns a resolver that always yields the given URL
func StaticBaseURL(baseUrl string) BaseURLResolver {
	return func() (string, error) {
		return strings.TrimRight(baseUrl, "/"), nil
	}
}
