package normalizer

import (
	"strings"

	"net/url"

	"github.com/lab007/webalert/internal/common"
)

// NormalizeURL takes a raw URL string and returns a normalized version.
// Normalization includes:
// - Adding a default scheme (http) if missing.
// - Lowercasing the scheme and host.
// - Removing the fragment.
// The normalized form is the identity key for monitored URLs.
func NormalizeURL(rawURL string) (string, error) {
	trimmedURL := strings.TrimSpace(rawURL)
	if trimmedURL == "" {
		return "", common.NewValidationError("url", rawURL, "input URL is empty")
	}

	parsedURL, err := url.Parse(trimmedURL)
	if err != nil {
		return "", common.WrapError(err, "failed to parse URL")
	}

	if parsedURL.Scheme == "" {
		// url.Parse("example.com/path") treats everything as Path, so
		// re-parse with a scheme prepended to get the Host populated.
		parsedURL, err = url.Parse("http://" + trimmedURL)
		if err != nil {
			return "", common.WrapError(err, "failed to parse URL")
		}
	}

	parsedURL.Scheme = strings.ToLower(parsedURL.Scheme)
	parsedURL.Host = strings.ToLower(parsedURL.Host)
	parsedURL.Fragment = ""

	if parsedURL.Host == "" {
		return "", common.NewValidationError("url", rawURL, "URL has no host")
	}

	return parsedURL.String(), nil
}
