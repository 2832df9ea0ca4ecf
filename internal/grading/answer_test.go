package grading

import (
	"errors"
	"testing"
)

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		kind    string
	}{
		{name: "mcq", raw: `{"kind":"mcq","optionId":"A"}`, kind: KindMCQ},
		{name: "msq", raw: `{"kind":"msq","optionIds":["A","B"]}`, kind: KindMSQ},
		{name: "nat with tolerance", raw: `{"kind":"nat","value":10,"tolerance":0.5}`, kind: KindNAT},
		{name: "kind normalized", raw: `{"kind":" MCQ ","optionId":"A"}`, kind: KindMCQ},
		{name: "invalid json", raw: `{"kind":`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := ParsePayload([]byte(tc.raw))
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidPayload) {
					t.Fatalf("expected ErrInvalidPayload, got=%v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Kind != tc.kind {
				t.Fatalf("expected kind=%s, got=%s", tc.kind, p.Kind)
			}
		})
	}
}

func TestPayloadValidate(t *testing.T) {
	tests := []struct {
		name         string
		payload      Payload
		questionType string
		wantErr      bool
	}{
		{name: "valid mcq", payload: Payload{Kind: KindMCQ, OptionID: "A"}, questionType: KindMCQ},
		{name: "valid msq", payload: Payload{Kind: KindMSQ, OptionIDs: []string{"A"}}, questionType: KindMSQ},
		{name: "valid nat", payload: Payload{Kind: KindNAT, Value: f64(1)}, questionType: KindNAT},
		{name: "kind mismatch", payload: Payload{Kind: KindMCQ, OptionID: "A"}, questionType: KindMSQ, wantErr: true},
		{name: "mcq missing option", payload: Payload{Kind: KindMCQ}, questionType: KindMCQ, wantErr: true},
		{name: "msq empty options", payload: Payload{Kind: KindMSQ}, questionType: KindMSQ, wantErr: true},
		{name: "msq blank option id", payload: Payload{Kind: KindMSQ, OptionIDs: []string{"A", " "}}, questionType: KindMSQ, wantErr: true},
		{name: "nat missing value", payload: Payload{Kind: KindNAT}, questionType: KindNAT, wantErr: true},
		{name: "nat negative tolerance", payload: Payload{Kind: KindNAT, Value: f64(1), Tolerance: f64(-1)}, questionType: KindNAT, wantErr: true},
		{name: "unknown kind", payload: Payload{Kind: "essay"}, questionType: "essay", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.payload.Validate(tc.questionType)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidPayload) {
					t.Fatalf("expected ErrInvalidPayload, got=%v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
