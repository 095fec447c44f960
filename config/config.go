package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bitrise-io/go-utils/v2/env"
)

// APIURLEnvKey selects the compression service.
const APIURLEnvKey = "PDFCOMPRESS_API_URL"

// DefaultAPIURL is used when APIURLEnvKey is unset or empty.
const DefaultAPIURL = "http://localhost:8000"

// Config is resolved once at process start.
type Config struct {
	APIBaseURL string
}

// New reads the configuration from the environment.
func New(envRepo env.Repository) (Config, error) {
	return FromValue(envRepo.Get(APIURLEnvKey))
}

// FromValue builds a Config from an explicit base URL, falling back to the default.
func FromValue(apiURL string) (Config, error) {
	apiURL = strings.TrimSpace(apiURL)
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	parsed, err := url.Parse(apiURL)
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", APIURLEnvKey, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Config{}, fmt.Errorf("invalid %s: scheme must be http or https, got %q", APIURLEnvKey, apiURL)
	}
	if parsed.Host == "" {
		return Config{}, fmt.Errorf("invalid %s: missing host in %q", APIURLEnvKey, apiURL)
	}

	return Config{APIBaseURL: strings.TrimRight(apiURL, "/")}, nil
}
