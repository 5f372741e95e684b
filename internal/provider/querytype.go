package provider

// QueryType identifies the kind of indicator a lookup targets. The set is
// closed; each type owns its own provider protocol.
type QueryType string

// Supported indicator types.
const (
	TypeIP     QueryType = "ip"
	TypeDomain QueryType = "domain"
	TypeURL    QueryType = "url"
	TypeHash   QueryType = "hash"
	TypeEmail  QueryType = "email"
)

// AllQueryTypes lists every supported indicator type.
var AllQueryTypes = []QueryType{TypeIP, TypeDomain, TypeURL, TypeHash, TypeEmail}

// ParseQueryType validates a raw type string against the closed set.
func ParseQueryType(raw string) (QueryType, bool) {
	qt := QueryType(raw)
	switch qt {
	case TypeIP, TypeDomain, TypeURL, TypeHash, TypeEmail:
		return qt, true
	default:
		return "", false
	}
}
