// internal/workers/loan/resolve-loan-documents/handler_test.go
package resolveloandocuments

import (
	"context"
	"testing"

	"staff-loans/internal/common/logger"
	"staff-loans/internal/loan/documents"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name        string
		input       *Input
		wantKeys    []string
		wantKnown   bool
		wantMissing []string
		wantUnknown []string
		wantReady   bool
	}{
		{
			name:        "general loan only has an optional quotation",
			input:       &Input{ProductType: "STAFF_GENERAL_LOAN"},
			wantKeys:    []string{"Quotation"},
			wantKnown:   true,
			wantMissing: []string{},
			wantReady:   true,
		},
		{
			name: "school fees without invoice",
			input: &Input{
				ProductType:         "STAFF_SCHOOL_FEES_FACILITY",
				SupportingDocuments: map[string]string{"Quotation": "q-1"},
			},
			wantKeys:    []string{"Invoice"},
			wantKnown:   true,
			wantMissing: []string{"Invoice"},
			wantUnknown: []string{"Quotation"},
		},
		{
			name: "mortgage with both documents",
			input: &Input{
				ProductType:         "STAFF_MORTGAGES",
				SupportingDocuments: map[string]string{"Title Deed": "t", "Agreement of Sale": "a"},
			},
			wantKeys:    []string{"Title Deed", "Agreement of Sale"},
			wantKnown:   true,
			wantMissing: []string{},
			wantReady:   true,
		},
		{
			name:        "unknown product type falls back",
			input:       &Input{ProductType: "STAFF_BOAT_LOAN"},
			wantKeys:    []string{"Police Clearance", "Agreement of Sale"},
			wantMissing: []string{"Police Clearance", "Agreement of Sale"},
		},
		{
			name:        "empty product type falls back",
			input:       &Input{},
			wantKeys:    []string{"Police Clearance", "Agreement of Sale"},
			wantMissing: []string{"Police Clearance", "Agreement of Sale"},
		},
	}

	h := NewHandler(LoadConfig(), nil, logger.NewTestLogger(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := h.Execute(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKeys, documents.Keys(out.Requirements))
			assert.Equal(t, tt.wantKnown, out.KnownProductType)
			assert.Equal(t, tt.wantMissing, out.MissingRequired)
			assert.Equal(t, tt.wantUnknown, out.UnknownKeys)
			assert.Equal(t, tt.wantReady, out.DocumentsReady)
		})
	}
}

func TestInputSchema(t *testing.T) {
	assert.True(t, inputSchema.Validate([]byte(`{"productType": "STAFF_MORTGAGES"}`)).Valid)
	assert.False(t, inputSchema.Validate([]byte(`{"supportingDocuments": {"Title Deed": 4}}`)).Valid)
}
