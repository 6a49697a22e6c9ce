package pgstore

// Schema creates the tables the store reads and writes.
const Schema = `
CREATE TABLE IF NOT EXISTS staff (
	staff_id   TEXT PRIMARY KEY,
	first_name TEXT NOT NULL,
	last_name  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS loan_products (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	client_type   TEXT NOT NULL,
	product_type  TEXT NOT NULL,
	currency_code TEXT NOT NULL DEFAULT '',
	min_amount    NUMERIC(14,2) NOT NULL DEFAULT 0,
	max_amount    NUMERIC(14,2) NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS loan_applications (
	application_id             TEXT PRIMARY KEY,
	staff_id                   TEXT NOT NULL REFERENCES staff (staff_id),
	loan_product_id            TEXT NOT NULL REFERENCES loan_products (id),
	currency_id                TEXT NOT NULL,
	net_salary                 NUMERIC(14,2) NOT NULL,
	tenure_duration            INTEGER NOT NULL,
	loan_amount                NUMERIC(14,2) NOT NULL,
	repayment_schedule         TEXT NOT NULL,
	repayment_account          TEXT NOT NULL,
	disbursement_account       TEXT NOT NULL,
	purpose                    TEXT NOT NULL DEFAULT '',
	guarantor_required         BOOLEAN NOT NULL DEFAULT TRUE,
	guarantor_id               TEXT REFERENCES staff (staff_id),
	annual_basic_salary        NUMERIC(14,2) NOT NULL DEFAULT 0,
	approver_id                TEXT NOT NULL DEFAULT '',
	loan_agreement_accepted    BOOLEAN NOT NULL DEFAULT FALSE,
	current_or_savings_account TEXT NOT NULL DEFAULT '',
	supporting_documents       JSONB NOT NULL DEFAULT '{}',
	security_details           TEXT NOT NULL DEFAULT '',
	terms_accepted             BOOLEAN NOT NULL DEFAULT FALSE,
	guarantor_decision         TEXT,
	status                     TEXT NOT NULL DEFAULT 'SUBMITTED',
	created_at                 TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at                 TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_loan_applications_staff ON loan_applications (staff_id);
CREATE INDEX IF NOT EXISTS idx_loan_applications_guarantor ON loan_applications (guarantor_id);

CREATE TABLE IF NOT EXISTS audit_log (
	id         UUID PRIMARY KEY,
	entity_id  TEXT NOT NULL,
	action     TEXT NOT NULL,
	actor_id   TEXT NOT NULL,
	details    JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const (
	insertApplicationQuery = `
		INSERT INTO loan_applications (
			application_id, staff_id, loan_product_id, currency_id, net_salary,
			tenure_duration, loan_amount, repayment_schedule, repayment_account,
			disbursement_account, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'SUBMITTED')`

	updateStep2Query = `
		UPDATE loan_applications
		SET loan_product_id = $2, currency_id = $3, net_salary = $4, tenure_duration = $5,
		    loan_amount = $6, repayment_schedule = $7, repayment_account = $8,
		    disbursement_account = $9, updated_at = NOW()
		WHERE application_id = $1`

	updateStep3Query = `
		UPDATE loan_applications
		SET purpose = $2, guarantor_required = $3, guarantor_id = $4,
		    annual_basic_salary = $5, approver_id = $6, updated_at = NOW()
		WHERE application_id = $1`

	updateStep4Query = `
		UPDATE loan_applications
		SET loan_agreement_accepted = $2, current_or_savings_account = $3,
		    supporting_documents = $4, security_details = $5, updated_at = NOW()
		WHERE application_id = $1`

	acceptTermsQuery = `
		UPDATE loan_applications
		SET terms_accepted = TRUE, updated_at = NOW()
		WHERE application_id = $1`

	selectApplicationColumns = `
		SELECT a.application_id, a.staff_id, a.loan_product_id, p.name, p.product_type,
		       a.currency_id, a.net_salary, a.tenure_duration, a.loan_amount,
		       a.repayment_schedule, a.repayment_account, a.disbursement_account,
		       a.purpose, a.guarantor_required, COALESCE(a.guarantor_id, ''),
		       a.annual_basic_salary, a.approver_id, a.loan_agreement_accepted,
		       a.current_or_savings_account, a.supporting_documents, a.security_details,
		       a.terms_accepted, a.status, a.created_at
		FROM loan_applications a
		JOIN loan_products p ON p.id = a.loan_product_id`

	selectApplicationQuery = selectApplicationColumns + `
		WHERE a.application_id = $1`

	selectStaffApplicationsQuery = selectApplicationColumns + `
		WHERE a.staff_id = $1
		ORDER BY a.created_at DESC`

	selectProductsQuery = `
		SELECT id, name, description, client_type, product_type, currency_code, min_amount, max_amount
		FROM loan_products
		WHERE ($1 = '' OR client_type = $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		ORDER BY name`

	selectCandidatesQuery = `
		SELECT staff_id, first_name, last_name
		FROM staff
		WHERE staff_id <> $1
		ORDER BY last_name, first_name`

	decideGuarantorQuery = `
		UPDATE loan_applications
		SET guarantor_decision = $3, updated_at = NOW()
		WHERE application_id = $1 AND guarantor_id = $2 AND guarantor_decision IS NULL`

	selectDecisionStateQuery = `
		SELECT COALESCE(guarantor_id, ''), COALESCE(guarantor_decision, '')
		FROM loan_applications
		WHERE application_id = $1`

	selectGuarantorLoansQuery = `
		SELECT a.application_id, s.first_name, s.last_name, p.name, a.loan_amount,
		       a.purpose, COALESCE(a.guarantor_decision, '')
		FROM loan_applications a
		JOIN staff s ON s.staff_id = a.staff_id
		JOIN loan_products p ON p.id = a.loan_product_id
		WHERE a.guarantor_id = $1 AND a.guarantor_required
		ORDER BY a.created_at DESC`

	insertAuditQuery = `
		INSERT INTO audit_log (id, entity_id, action, actor_id, details)
		VALUES ($1, $2, $3, $4, $5)`
)
