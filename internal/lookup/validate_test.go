package lookup

import (
	"errors"
	"testing"

	"github.com/threatscope/threatscope/internal/provider"
)

func TestValidateQueryAccepts(t *testing.T) {
	cases := []struct {
		queryType provider.QueryType
		query     string
	}{
		{provider.TypeIP, "192.0.2.1"},
		{provider.TypeIP, "2001:db8::1"},
		{provider.TypeDomain, "example.com"},
		{provider.TypeDomain, "sub.domain.example.co.uk"},
		{provider.TypeHash, "d41d8cd98f00b204e9800998ecf8427e"},
		{provider.TypeHash, "da39a3ee5e6b4b0d3255bfef95601890afd80709"},
		{provider.TypeHash, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{provider.TypeURL, "https://example.com/path?x=1"},
		{provider.TypeURL, "http://example.com"},
		{provider.TypeEmail, "user@example.com"},
	}
	for _, tc := range cases {
		if errValidate := ValidateQuery(tc.query, tc.queryType); errValidate != nil {
			t.Fatalf("%s %q: unexpected error %v", tc.queryType, tc.query, errValidate)
		}
	}
}

func TestValidateQueryRejects(t *testing.T) {
	cases := []struct {
		queryType provider.QueryType
		query     string
	}{
		{provider.TypeIP, "999.0.2.1"},
		{provider.TypeIP, "example.com"},
		{provider.TypeDomain, "no-dots"},
		{provider.TypeDomain, "-leading.example.com"},
		{provider.TypeHash, "xyz"},
		{provider.TypeHash, "d41d8cd98f00b204e9800998ecf8427"},
		{provider.TypeURL, "ftp://example.com/file"},
		{provider.TypeURL, "not a url"},
		{provider.TypeEmail, "not-an-email"},
		{provider.TypeIP, ""},
		{provider.TypeIP, " 192.0.2.1"},
	}
	for _, tc := range cases {
		errValidate := ValidateQuery(tc.query, tc.queryType)
		if !errors.Is(errValidate, ErrInvalidInput) {
			t.Fatalf("%s %q: expected ErrInvalidInput, got %v", tc.queryType, tc.query, errValidate)
		}
	}
}
