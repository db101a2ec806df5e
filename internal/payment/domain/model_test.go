package domain

import "testing"

func TestMapProviderStatusIsTotal(t *testing.T) {
	cases := []struct {
		raw  string
		want Status
	}{
		{raw: "approved", want: StatusApproved},
		{raw: "APPROVED", want: StatusApproved},
		{raw: " approved ", want: StatusApproved},
		{raw: "pending", want: StatusPending},
		{raw: "in_process", want: StatusPending},
		{raw: "rejected", want: StatusRejected},
		{raw: "cancelled", want: StatusRejected},
		{raw: "charged_back", want: StatusRejected},
		{raw: "refunded", want: StatusFailed},
		{raw: "garbage", want: StatusFailed},
		{raw: "", want: StatusFailed},
	}

	for _, tc := range cases {
		if got := MapProviderStatus(tc.raw); got != tc.want {
			t.Fatalf("MapProviderStatus(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if !StatusApproved.IsTerminal() {
		t.Fatalf("expected APPROVED to be terminal")
	}
	if !StatusRejected.IsTerminal() {
		t.Fatalf("expected REJECTED to be terminal")
	}
	if StatusPending.IsTerminal() {
		t.Fatalf("expected PENDING to be non-terminal")
	}
	if StatusFailed.IsTerminal() {
		t.Fatalf("expected FAILED to be non-terminal")
	}
}
