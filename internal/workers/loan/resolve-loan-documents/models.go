// internal/workers/loan/resolve-loan-documents/models.go
package resolveloandocuments

import "staff-loans/internal/loan/documents"

type Input struct {
	ProductType         string            `json:"productType"`
	SupportingDocuments map[string]string `json:"supportingDocuments,omitempty"`
}

type Output struct {
	Requirements     []documents.Requirement `json:"documentRequirements"`
	KnownProductType bool                    `json:"knownProductType"`
	MissingRequired  []string                `json:"missingDocuments"`
	UnknownKeys      []string                `json:"unknownDocuments,omitempty"`
	DocumentsReady   bool                    `json:"documentsReady"`
}

const inputSchemaJSON = `{
	"type": "object",
	"properties": {
		"productType": {"type": ["string", "null"]},
		"supportingDocuments": {
			"type": ["object", "null"],
			"additionalProperties": {"type": "string"}
		}
	}
}`
