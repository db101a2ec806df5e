package redaction

import "strings"

// Visibility describes how a field is rendered to a given role. It is
// descriptive metadata for response shaping; access control happens in the
// guard layer.
type Visibility string

const (
	VisibilityFull    Visibility = "full"
	VisibilityPartial Visibility = "partial"
	VisibilityMasked  Visibility = "masked"
)

type fieldPolicy struct {
	Default   Visibility
	Overrides map[string]Visibility
}

// policyTable maps domain -> field -> policy. PII fields default to masked;
// roles listed in Overrides see more. Fields absent from the table resolve to
// full on purpose: unknown fields carry no known sensitivity.
var policyTable = map[string]map[string]fieldPolicy{
	"customer": {
		"email": {
			Default: VisibilityPartial,
			Overrides: map[string]Visibility{
				"admin":      VisibilityFull,
				"owner":      VisibilityFull,
				"superadmin": VisibilityFull,
			},
		},
		"phone": {
			Default: VisibilityMasked,
			Overrides: map[string]Visibility{
				"owner":      VisibilityPartial,
				"superadmin": VisibilityFull,
			},
		},
		"documentNumber": {
			Default: VisibilityMasked,
			Overrides: map[string]Visibility{
				"superadmin": VisibilityFull,
			},
		},
	},
	"payment": {
		"payerEmail": {
			Default: VisibilityMasked,
			Overrides: map[string]Visibility{
				"owner":      VisibilityPartial,
				"superadmin": VisibilityFull,
			},
		},
		"payerPhone": {
			Default: VisibilityMasked,
			Overrides: map[string]Visibility{
				"superadmin": VisibilityFull,
			},
		},
	},
	"ownership": {
		"ownerUid": {
			Default: VisibilityMasked,
			Overrides: map[string]Visibility{
				"superadmin": VisibilityFull,
			},
		},
	},
}

// ResolveFieldVisibility looks up the visibility for (domain, field, role),
// falling back to the field default when the role has no override and to full
// when the field is not in the policy table.
func ResolveFieldVisibility(domain, field, role string) Visibility {
	fields, ok := policyTable[strings.TrimSpace(domain)]
	if !ok {
		return VisibilityFull
	}
	policy, ok := fields[strings.TrimSpace(field)]
	if !ok {
		return VisibilityFull
	}

	role = strings.ToLower(strings.TrimSpace(role))
	if override, ok := policy.Overrides[role]; ok {
		return override
	}
	return policy.Default
}
