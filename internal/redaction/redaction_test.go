package redaction

import (
	"reflect"
	"testing"
)

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"client@example.com": "cl***@example.com",
		"a@example.com":      "a***@example.com",
		"":                   "",
	}
	for input, want := range cases {
		if got := MaskEmail(input); got != want {
			t.Fatalf("MaskEmail(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestMaskPhone(t *testing.T) {
	cases := map[string]string{
		"+54 9 11 2222 3333": "***********33",
		"1155554444":         "********44",
		"":                   "",
	}
	for input, want := range cases {
		if got := MaskPhone(input); got != want {
			t.Fatalf("MaskPhone(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestMaskIdentifier(t *testing.T) {
	cases := map[string]string{
		"owner-uid-001": "ow***01",
		"abc":           "a***",
		"":              "",
	}
	for input, want := range cases {
		if got := MaskIdentifier(input); got != want {
			t.Fatalf("MaskIdentifier(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestRedactObjectMasksOnlySensitiveKeys(t *testing.T) {
	payload := map[string]any{
		"payer": map[string]any{
			"email": "client@example.com",
			"phone": "+54 9 11 2222 3333",
		},
		"metadata": map[string]any{
			"ownerUid": "owner-uid-001",
			"orderId":  "order-123",
		},
	}

	got := RedactObject(payload)

	want := map[string]any{
		"payer": map[string]any{
			"email": "cl***@example.com",
			"phone": "***********33",
		},
		"metadata": map[string]any{
			"ownerUid": "ow***01",
			"orderId":  "order-123",
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RedactObject = %#v, want %#v", got, want)
	}

	// input must not be mutated
	if payload["metadata"].(map[string]any)["ownerUid"] != "owner-uid-001" {
		t.Fatalf("RedactObject mutated its input")
	}
}

func TestResolveFieldVisibility(t *testing.T) {
	if got := ResolveFieldVisibility("customer", "documentNumber", "staff"); got != VisibilityMasked {
		t.Fatalf("documentNumber for staff = %s, want masked", got)
	}
	if got := ResolveFieldVisibility("customer", "phone", "staff"); got != VisibilityMasked {
		t.Fatalf("phone for staff = %s, want masked", got)
	}
	if got := ResolveFieldVisibility("customer", "email", "admin"); got != VisibilityFull {
		t.Fatalf("email for admin = %s, want full", got)
	}
	if got := ResolveFieldVisibility("customer", "email", " ADMIN "); got != VisibilityFull {
		t.Fatalf("role normalization failed: got %s", got)
	}
	// unknown fields carry no known sensitivity
	if got := ResolveFieldVisibility("customer", "nickname", "staff"); got != VisibilityFull {
		t.Fatalf("unknown field = %s, want full", got)
	}
	if got := ResolveFieldVisibility("unknown-domain", "email", "staff"); got != VisibilityFull {
		t.Fatalf("unknown domain = %s, want full", got)
	}
}

func TestBuildRoleScopedOwnershipResponse(t *testing.T) {
	data := map[string]any{
		"ownerUid": "owner-uid-001",
		"name":     "Main Store",
		"members": []any{
			map[string]any{"uid": "member-uid-002", "role": "admin"},
		},
	}

	unmasked := BuildRoleScopedOwnershipResponse(data, true)
	if unmasked["ownerUid"] != "owner-uid-001" {
		t.Fatalf("global admin response must be unmasked")
	}

	masked := BuildRoleScopedOwnershipResponse(data, false)
	if masked["ownerUid"] != "ow***01" {
		t.Fatalf("ownerUid = %v, want masked", masked["ownerUid"])
	}
	if masked["name"] != "Main Store" {
		t.Fatalf("non-uid field must pass through")
	}
	member := masked["members"].([]any)[0].(map[string]any)
	if member["uid"] != "me***02" {
		t.Fatalf("member uid = %v, want masked", member["uid"])
	}
	if member["role"] != "admin" {
		t.Fatalf("member role must pass through")
	}
}
