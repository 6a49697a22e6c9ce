// Package pgstore keeps loan applications in PostgreSQL.
package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"staff-loans/internal/common/database"
	apperrors "staff-loans/internal/common/errors"
	"staff-loans/internal/common/logger"
	"staff-loans/internal/models"
	"staff-loans/internal/store"

	"github.com/google/uuid"
)

// Store implements store.ApplicationStore and store.ApplicationLister.
type Store struct {
	db     *sql.DB
	logger logger.Logger
	newID  func() string
}

var (
	_ store.ApplicationStore  = (*Store)(nil)
	_ store.ApplicationLister = (*Store)(nil)
)

func New(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "pgstore"}),
		newID:  uuid.NewString,
	}
}

// EnsureSchema creates missing tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return queryError(ctx, "ensure_schema", err)
	}
	return nil
}

func (s *Store) SubmitApplicationStep2(ctx context.Context, p store.Step2Payload) (string, error) {
	if p.ApplicationID != "" {
		res, err := s.db.ExecContext(ctx, updateStep2Query,
			p.ApplicationID, p.LoanProductID, p.CurrencyID, p.NetSalary, p.TenureDuration,
			p.LoanAmount, string(p.RepaymentSchedule), p.RepaymentAccount, p.DisbursementAccount)
		if err != nil {
			return "", queryError(ctx, "update_step2", err)
		}
		if err := expectRow(res, p.ApplicationID); err != nil {
			return "", err
		}
		return p.ApplicationID, nil
	}

	id := s.newID()
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertApplicationQuery,
			id, p.StaffID, p.LoanProductID, p.CurrencyID, p.NetSalary, p.TenureDuration,
			p.LoanAmount, string(p.RepaymentSchedule), p.RepaymentAccount, p.DisbursementAccount); err != nil {
			return queryError(ctx, "insert_application", err)
		}
		return s.audit(ctx, tx, id, "application.created", p.StaffID, map[string]interface{}{
			"loanProductId": p.LoanProductID,
			"loanAmount":    p.LoanAmount.String(),
		})
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("loan application created", map[string]interface{}{"applicationId": id, "staffId": p.StaffID})
	return id, nil
}

func (s *Store) SubmitApplicationStep3(ctx context.Context, applicationID string, p store.Step3Payload) error {
	var guarantor interface{}
	if p.GuarantorRequired && p.GuarantorID != "" {
		guarantor = p.GuarantorID
	}
	res, err := s.db.ExecContext(ctx, updateStep3Query,
		applicationID, p.Purpose, p.GuarantorRequired, guarantor, p.AnnualBasicSalary, p.ApproverID)
	if err != nil {
		return queryError(ctx, "update_step3", err)
	}
	return expectRow(res, applicationID)
}

func (s *Store) SubmitApplicationStep4(ctx context.Context, applicationID string, p store.Step4Payload) error {
	docs := p.SupportingDocuments
	if docs == nil {
		docs = map[string]string{}
	}
	raw, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode supporting documents: %w", err)
	}

	res, err := s.db.ExecContext(ctx, updateStep4Query,
		applicationID, p.LoanAgreementAccepted, p.CurrentOrSavingsAccount, raw, p.SecurityDetails)
	if err != nil {
		return queryError(ctx, "update_step4", err)
	}
	return expectRow(res, applicationID)
}

func (s *Store) AcceptTerms(ctx context.Context, applicationID string) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, acceptTermsQuery, applicationID)
		if err != nil {
			return queryError(ctx, "accept_terms", err)
		}
		if err := expectRow(res, applicationID); err != nil {
			return err
		}
		return s.audit(ctx, tx, applicationID, "application.terms_accepted", "", nil)
	})
}

func (s *Store) FetchApplicationDetails(ctx context.Context, applicationID string) (*models.LoanApplication, error) {
	app, err := scanApplication(s.db.QueryRowContext(ctx, selectApplicationQuery, applicationID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: application %s", store.ErrNotFound, applicationID)
	}
	if err != nil {
		return nil, queryError(ctx, "select_application", err)
	}
	return app, nil
}

func (s *Store) FetchStaffApplications(ctx context.Context, staffID string) ([]models.LoanApplication, error) {
	rows, err := s.db.QueryContext(ctx, selectStaffApplicationsQuery, staffID)
	if err != nil {
		return nil, queryError(ctx, "select_staff_applications", err)
	}
	defer rows.Close()

	apps := []models.LoanApplication{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, queryError(ctx, "scan_staff_applications", err)
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(ctx, "select_staff_applications", err)
	}
	return apps, nil
}

func (s *Store) FetchLoanProducts(ctx context.Context, filter store.ProductFilter) ([]models.LoanProduct, error) {
	rows, err := s.db.QueryContext(ctx, selectProductsQuery, string(filter.ClientType), filter.Query)
	if err != nil {
		return nil, queryError(ctx, "select_products", err)
	}
	defer rows.Close()

	products := []models.LoanProduct{}
	for rows.Next() {
		var p models.LoanProduct
		var clientType, productType string
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &clientType, &productType,
			&p.CurrencyCode, &p.MinAmount, &p.MaxAmount); err != nil {
			return nil, queryError(ctx, "scan_products", err)
		}
		p.ClientType = models.ClientType(clientType)
		p.ProductType = models.ProductType(productType)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(ctx, "select_products", err)
	}
	return products, nil
}

func (s *Store) FetchGuarantorCandidates(ctx context.Context, staffID string) ([]models.Person, error) {
	rows, err := s.db.QueryContext(ctx, selectCandidatesQuery, staffID)
	if err != nil {
		return nil, queryError(ctx, "select_candidates", err)
	}
	defer rows.Close()

	people := []models.Person{}
	for rows.Next() {
		var p models.Person
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName); err != nil {
			return nil, queryError(ctx, "scan_candidates", err)
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(ctx, "select_candidates", err)
	}
	return people, nil
}

// DecideGuarantor sets the decision only while it is still open, so a loan
// is decided exactly once however many callers race. The message is left
// empty for callers to fill in.
func (s *Store) DecideGuarantor(ctx context.Context, loanID, staffID string, decision models.GuarantorDecision) (string, error) {
	if !decision.Terminal() {
		return "", fmt.Errorf("%w: %q", store.ErrInvalidDecision, decision)
	}

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, decideGuarantorQuery, loanID, staffID, string(decision))
		if err != nil {
			return queryError(ctx, "decide_guarantor", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return queryError(ctx, "decide_guarantor", err)
		}
		if n == 0 {
			return s.explainNoDecision(ctx, tx, loanID, staffID)
		}
		return s.audit(ctx, tx, loanID, "guarantor."+string(decision), staffID, map[string]interface{}{
			"decision": string(decision),
		})
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("guarantor decision stored", map[string]interface{}{"loanId": loanID, "staffId": staffID, "decision": string(decision)})
	return "", nil
}

// explainNoDecision works out why the conditional update matched nothing.
func (s *Store) explainNoDecision(ctx context.Context, tx *sql.Tx, loanID, staffID string) error {
	var guarantorID, current string
	err := tx.QueryRowContext(ctx, selectDecisionStateQuery, loanID).Scan(&guarantorID, &current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: loan %s", store.ErrNotFound, loanID)
	case err != nil:
		return queryError(ctx, "select_decision_state", err)
	case guarantorID != staffID:
		return fmt.Errorf("%w: %s on loan %s", store.ErrNotGuarantor, staffID, loanID)
	default:
		return fmt.Errorf("%w: loan %s is %s", store.ErrAlreadyDecided, loanID, current)
	}
}

func (s *Store) FetchGuarantorLoans(ctx context.Context, staffID string) ([]models.GuarantorLoan, error) {
	rows, err := s.db.QueryContext(ctx, selectGuarantorLoansQuery, staffID)
	if err != nil {
		return nil, queryError(ctx, "select_guarantor_loans", err)
	}
	defer rows.Close()

	loans := []models.GuarantorLoan{}
	for rows.Next() {
		var loan models.GuarantorLoan
		var first, last, decision string
		if err := rows.Scan(&loan.LoanID, &first, &last, &loan.LoanProductName,
			&loan.LoanAmount, &loan.Purpose, &decision); err != nil {
			return nil, queryError(ctx, "scan_guarantor_loans", err)
		}
		loan.OwnerName = models.Person{FirstName: first, LastName: last}.FullName()
		loan.GuarantorDecision = models.GuarantorDecision(decision)
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(ctx, "select_guarantor_loans", err)
	}
	return loans, nil
}

func (s *Store) audit(ctx context.Context, tx *sql.Tx, entityID, action, actorID string, details map[string]interface{}) error {
	if details == nil {
		details = map[string]interface{}{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("encode audit details: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insertAuditQuery, s.newID(), entityID, action, actorID, raw); err != nil {
		return queryError(ctx, "insert_audit", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row rowScanner) (*models.LoanApplication, error) {
	var (
		app                           models.LoanApplication
		productType, schedule, status string
		docs                          []byte
		createdAt                     time.Time
	)
	err := row.Scan(
		&app.ApplicationID, &app.StaffID, &app.LoanProductID, &app.LoanProductName, &productType,
		&app.CurrencyID, &app.NetSalary, &app.TenureDuration, &app.LoanAmount,
		&schedule, &app.RepaymentAccount, &app.DisbursementAccount,
		&app.Purpose, &app.GuarantorRequired, &app.GuarantorID,
		&app.AnnualBasicSalary, &app.ApproverID, &app.LoanAgreementAccepted,
		&app.CurrentOrSavingsAccount, &docs, &app.SecurityDetails,
		&app.TermsAndConditionsAccepted, &status, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	app.ProductType = models.ProductType(productType)
	app.RepaymentSchedule = models.RepaymentSchedule(schedule)
	app.Status = models.ApplicationStatus(status)
	app.CreatedAt = &createdAt
	app.SupportingDocuments = map[string]string{}
	if len(docs) > 0 {
		if err := json.Unmarshal(docs, &app.SupportingDocuments); err != nil {
			return nil, fmt.Errorf("decode supporting documents: %w", err)
		}
	}
	return &app, nil
}

func expectRow(res sql.Result, applicationID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("rows_affected", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: application %s", store.ErrNotFound, applicationID)
	}
	return nil
}

func queryError(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewQueryTimeoutError(op)
	}
	return apperrors.NewQueryExecutionFailedError(op, err)
}
