package lookup

import (
	"fmt"
	"net"
	"net/mail"
	"net/url"
	"regexp"
	"strings"

	"github.com/threatscope/threatscope/internal/provider"
)

// maxQueryLength bounds raw indicator strings.
const maxQueryLength = 2048

var (
	// hostnamePattern matches dotted hostnames with valid label shapes.
	hostnamePattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)
	// hashPattern matches hex digests of MD5, SHA-1, or SHA-256 length.
	hashPattern = regexp.MustCompile(`^([a-fA-F0-9]{32}|[a-fA-F0-9]{40}|[a-fA-F0-9]{64})$`)
)

// ValidateQuery checks the indicator's syntactic shape for its type.
// The check is deliberately shallow; the provider is the authority on
// whether an indicator resolves to anything.
func ValidateQuery(query string, queryType provider.QueryType) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" || trimmed != query {
		return fmt.Errorf("%w: empty or padded query", ErrInvalidInput)
	}
	if len(query) > maxQueryLength {
		return fmt.Errorf("%w: query too long", ErrInvalidInput)
	}

	switch queryType {
	case provider.TypeIP:
		if net.ParseIP(query) == nil {
			return fmt.Errorf("%w: not an IP literal", ErrInvalidInput)
		}
	case provider.TypeDomain:
		if !hostnamePattern.MatchString(query) {
			return fmt.Errorf("%w: not a hostname", ErrInvalidInput)
		}
	case provider.TypeHash:
		if !hashPattern.MatchString(query) {
			return fmt.Errorf("%w: not a hex digest of length 32, 40, or 64", ErrInvalidInput)
		}
	case provider.TypeURL:
		parsed, errParse := url.Parse(query)
		if errParse != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return fmt.Errorf("%w: not an http(s) url", ErrInvalidInput)
		}
	case provider.TypeEmail:
		addr, errParse := mail.ParseAddress(query)
		if errParse != nil || addr.Address != query {
			return fmt.Errorf("%w: not an email address", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unsupported query type %q", ErrInvalidInput, queryType)
	}
	return nil
}
