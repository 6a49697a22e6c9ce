package documents

import (
	"testing"

	"staff-loans/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_IsTotal(t *testing.T) {
	types := append(KnownProductTypes(), "CORPORATE_OVERDRAFT", "")
	for _, pt := range types {
		t.Run(string(pt), func(t *testing.T) {
			reqs := Resolve(pt)
			require.NotEmpty(t, reqs)
		})
	}
}

func TestResolve_Sets(t *testing.T) {
	tests := []struct {
		productType  models.ProductType
		wantKeys     []string
		wantRequired int
	}{
		{models.ProductPersonalLoan, []string{"Quotation"}, 0},
		{models.ProductStaffGeneralLoan, []string{"Quotation"}, 0},
		{models.ProductStaffSchoolFees, []string{"Invoice"}, 1},
		{models.ProductStaffMotorVehicle, []string{
			"Police Clearance", "Agreement of Sale", "Drivers Licence",
			"Valuation Report", "VSD Report", "Vehicle Registration",
		}, 6},
		{models.ProductStaffMortgages, []string{"Title Deed", "Agreement of Sale"}, 2},
		{models.ProductPensionMortgages, []string{"Title Deed", "Agreement of Sale"}, 2},
		{"UNLISTED", []string{"Police Clearance", "Agreement of Sale"}, 2},
	}

	for _, tt := range tests {
		t.Run(string(tt.productType), func(t *testing.T) {
			reqs := Resolve(tt.productType)
			assert.Equal(t, tt.wantKeys, Keys(reqs))

			required := 0
			for _, r := range reqs {
				if r.Required {
					required++
				}
			}
			assert.Equal(t, tt.wantRequired, required)
		})
	}
}

func TestResolve_ReturnsCopy(t *testing.T) {
	reqs := Resolve(models.ProductStaffMortgages)
	reqs[0].Required = false
	assert.True(t, Resolve(models.ProductStaffMortgages)[0].Required)
}

func TestIsKnown(t *testing.T) {
	assert.True(t, IsKnown(models.ProductStaffSchoolFees))
	assert.False(t, IsKnown("STAFF_BOAT_LOAN"))
}

func TestMissingRequiredAndFilter(t *testing.T) {
	reqs := Resolve(models.ProductStaffMortgages)
	docs := map[string]string{"Title Deed": "ref-1", "Agreement of Sale": "  ", "Bank Statement": "ref-9"}

	missing := MissingRequired(reqs, docs)
	require.Len(t, missing, 1)
	assert.Equal(t, "Agreement of Sale", missing[0].Key)

	filtered := Filter(reqs, docs)
	assert.Equal(t, map[string]string{"Title Deed": "ref-1", "Agreement of Sale": "  "}, filtered)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Quotation", DisplayName(quotation))
	assert.Equal(t, "Copy of Vehicle Registration Book", DisplayName(vehicleReg))
}

func TestLookup(t *testing.T) {
	r, ok := Lookup(Resolve(models.ProductStaffSchoolFees), "Invoice")
	assert.True(t, ok)
	assert.True(t, r.Required)
	_, ok = Lookup(Resolve(models.ProductStaffSchoolFees), "Quotation")
	assert.False(t, ok)
}
