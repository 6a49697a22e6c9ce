package validation

// ApplicationSnapshot is the shape of a loan application carried in process
// variables. Money may arrive as a number or a decimal string.
var ApplicationSnapshot = MustCompile("application-snapshot", `{
	"type": "object",
	"definitions": {
		"money": {
			"oneOf": [
				{"type": "number"},
				{"type": "string", "pattern": "^-?[0-9]+(\\.[0-9]+)?$"}
			]
		}
	},
	"properties": {
		"applicationId":              {"type": "string"},
		"staffId":                    {"type": "string"},
		"loanProductId":              {"type": "string"},
		"loanProductName":            {"type": "string"},
		"productType":                {"type": "string"},
		"currencyId":                 {"type": "string"},
		"netSalary":                  {"$ref": "#/definitions/money"},
		"tenureDuration":             {"type": "integer", "minimum": 0},
		"loanAmount":                 {"$ref": "#/definitions/money"},
		"repaymentSchedule":          {"type": "string"},
		"repaymentAccount":           {"type": "string"},
		"disbursementAccount":        {"type": "string"},
		"purpose":                    {"type": "string"},
		"guarantorRequired":          {"type": "boolean"},
		"guarantorId":                {"type": "string"},
		"annualBasicSalary":          {"$ref": "#/definitions/money"},
		"approverId":                 {"type": "string"},
		"loanAgreementAccepted":      {"type": "boolean"},
		"currentOrSavingsAccount":    {"type": "string"},
		"supportingDocuments":        {"type": "object", "additionalProperties": {"type": "string"}},
		"securityDetails":            {"type": "string"},
		"termsAndConditionsAccepted": {"type": "boolean"},
		"status":                     {"type": "string"}
	}
}`)
