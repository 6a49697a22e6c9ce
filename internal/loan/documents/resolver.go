// Package documents maps a loan product type to the supporting documents an
// application must carry. It is the only source of valid document keys.
package documents

import (
	"strings"

	"staff-loans/internal/models"
)

type Requirement struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

var (
	quotation      = Requirement{Key: "Quotation", Label: "Upload Quotation (Optional)"}
	invoice        = Requirement{Key: "Invoice", Label: "Upload Invoice with Banking Details", Required: true}
	policeClear    = Requirement{Key: "Police Clearance", Label: "Upload Police Clearance", Required: true}
	agreementSale  = Requirement{Key: "Agreement of Sale", Label: "Upload Copy of Agreement of Sale", Required: true}
	driversLicence = Requirement{Key: "Drivers Licence", Label: "Upload Copy of Drivers' Licence", Required: true}
	valuation      = Requirement{Key: "Valuation Report", Label: "Upload Valuation Report", Required: true}
	vsdReport      = Requirement{Key: "VSD Report", Label: "Upload VSD Report", Required: true}
	vehicleReg     = Requirement{Key: "Vehicle Registration", Label: "Upload Copy of Vehicle Registration Book", Required: true}
	titleDeed      = Requirement{Key: "Title Deed", Label: "Upload Title Deed", Required: true}
)

var byProductType = map[models.ProductType][]Requirement{
	models.ProductPersonalLoan:      {quotation},
	models.ProductStaffGeneralLoan:  {quotation},
	models.ProductStaffSchoolFees:   {invoice},
	models.ProductStaffMotorVehicle: {policeClear, agreementSale, driversLicence, valuation, vsdReport, vehicleReg},
	models.ProductStaffMortgages:    {titleDeed, agreementSale},
	models.ProductPensionMortgages:  {titleDeed, agreementSale},
}

var fallback = []Requirement{policeClear, agreementSale}

// Resolve never fails: unknown or empty product types get the fallback pair.
// The returned slice is a fresh copy.
func Resolve(productType models.ProductType) []Requirement {
	reqs, ok := byProductType[productType]
	if !ok {
		reqs = fallback
	}
	out := make([]Requirement, len(reqs))
	copy(out, reqs)
	return out
}

// IsKnown reports whether productType has its own requirement set.
func IsKnown(productType models.ProductType) bool {
	_, ok := byProductType[productType]
	return ok
}

func KnownProductTypes() []models.ProductType {
	return []models.ProductType{
		models.ProductPersonalLoan,
		models.ProductStaffGeneralLoan,
		models.ProductStaffSchoolFees,
		models.ProductStaffMotorVehicle,
		models.ProductStaffMortgages,
		models.ProductPensionMortgages,
	}
}

func Keys(reqs []Requirement) []string {
	keys := make([]string, len(reqs))
	for i, r := range reqs {
		keys[i] = r.Key
	}
	return keys
}

// Lookup finds the requirement with key.
func Lookup(reqs []Requirement, key string) (Requirement, bool) {
	for _, r := range reqs {
		if r.Key == key {
			return r, true
		}
	}
	return Requirement{}, false
}

// Present reports whether docs carries a non-blank reference for key.
func Present(docs map[string]string, key string) bool {
	return strings.TrimSpace(docs[key]) != ""
}

// MissingRequired lists required documents without a reference, in
// requirement order.
func MissingRequired(reqs []Requirement, docs map[string]string) []Requirement {
	var missing []Requirement
	for _, r := range reqs {
		if r.Required && !Present(docs, r.Key) {
			missing = append(missing, r)
		}
	}
	return missing
}

// Filter drops keys that reqs does not declare.
func Filter(reqs []Requirement, docs map[string]string) map[string]string {
	out := make(map[string]string, len(reqs))
	for _, r := range reqs {
		if v, ok := docs[r.Key]; ok {
			out[r.Key] = v
		}
	}
	return out
}

// DisplayName strips the upload wording from a label for use in messages.
func DisplayName(r Requirement) string {
	name := strings.Replace(r.Label, "Upload", "", 1)
	name = strings.Replace(name, "(Optional)", "", 1)
	return strings.TrimSpace(name)
}
