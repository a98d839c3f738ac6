package models

import (
	"encoding/json"
	"testing"
)

func TestTransferRequestAmount(t *testing.T) {
	cases := []struct {
		body string
		want Amount
	}{
		{`{"recipient":"111","amount":"200.00"}`, "200.00"},
		{`{"recipient":"111","amount":200.5}`, "200.5"},
		{`{"recipient":"111","amount":null}`, ""},
		{`{"recipient":"111"}`, ""},
		{`{"recipient":"111","amount":"abc"}`, "abc"},
	}
	for _, tc := range cases {
		var req TransferRequest
		if err := json.Unmarshal([]byte(tc.body), &req); err != nil {
			t.Fatalf("%s: %v", tc.body, err)
		}
		if req.Amount != tc.want {
			t.Errorf("%s: amount = %q, want %q", tc.body, req.Amount, tc.want)
		}
	}

	var req TransferRequest
	if err := json.Unmarshal([]byte(`{"amount":true}`), &req); err == nil {
		t.Fatal("boolean amount should be rejected")
	}
}
