package redaction

import "strings"

type maskKind int

const (
	maskKindIdentifier maskKind = iota
	maskKindEmail
	maskKindPhone
)

// sensitiveKeys is an allowlist: only keys named here are ever rewritten.
// Everything else passes through untouched, so payloads keep their shape.
var sensitiveKeys = map[string]maskKind{
	"email":          maskKindEmail,
	"payeremail":     maskKindEmail,
	"phone":          maskKindPhone,
	"phonenumber":    maskKindPhone,
	"owneruid":       maskKindIdentifier,
	"uid":            maskKindIdentifier,
	"userid":         maskKindIdentifier,
	"requestedby":    maskKindIdentifier,
	"approvedby":     maskKindIdentifier,
	"documentnumber": maskKindIdentifier,
	"identification": maskKindIdentifier,
}

// RedactObject walks the payload and masks values of allowlisted sensitive
// keys. Maps and slices are copied; other values are returned as-is.
func RedactObject(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}

	out := make(map[string]any, len(payload))
	for key, value := range payload {
		out[key] = redactValue(key, value)
	}
	return out
}

func redactValue(key string, value any) any {
	switch cast := value.(type) {
	case string:
		kind, ok := sensitiveKeys[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			return cast
		}
		switch kind {
		case maskKindEmail:
			return MaskEmail(cast)
		case maskKindPhone:
			return MaskPhone(cast)
		default:
			return MaskIdentifier(cast)
		}
	case map[string]any:
		return RedactObject(cast)
	case []any:
		out := make([]any, 0, len(cast))
		for _, item := range cast {
			out = append(out, redactValue(key, item))
		}
		return out
	default:
		return value
	}
}

// BuildRoleScopedOwnershipResponse returns the payload unmasked for global
// admins and with uid-like fields masked for tenant-scoped operators, so they
// can correlate identities without seeing raw cross-tenant UIDs.
func BuildRoleScopedOwnershipResponse(data map[string]any, isGlobalAdmin bool) map[string]any {
	if data == nil {
		return nil
	}
	if isGlobalAdmin {
		return data
	}

	out := make(map[string]any, len(data))
	for key, value := range data {
		out[key] = maskOwnership(key, value)
	}
	return out
}

func maskOwnership(key string, value any) any {
	switch cast := value.(type) {
	case string:
		if isUIDKey(key) {
			return MaskIdentifier(cast)
		}
		return cast
	case map[string]any:
		inner := make(map[string]any, len(cast))
		for k, v := range cast {
			inner[k] = maskOwnership(k, v)
		}
		return inner
	case []any:
		out := make([]any, 0, len(cast))
		for _, item := range cast {
			out = append(out, maskOwnership(key, item))
		}
		return out
	default:
		return value
	}
}

func isUIDKey(key string) bool {
	lower := strings.ToLower(strings.TrimSpace(key))
	return lower == "uid" || strings.HasSuffix(lower, "uid") || strings.HasSuffix(lower, "userid")
}
