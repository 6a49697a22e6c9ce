package httpstore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"staff-loans/internal/common/logger"
	"staff-loans/internal/models"
	"staff-loans/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]interface{}
}

func newServer(t *testing.T, status int, response string) (*Store, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.auth = r.Header.Get("Authorization")
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			require.NoError(t, json.Unmarshal(raw, &rec.body))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/v1/api", "token-1", 5*time.Second, logger.NewTestLogger(t)), rec
}

func TestStore_SubmitApplicationStep2(t *testing.T) {
	s, rec := newServer(t, http.StatusOK, `{"applicationId": 42}`)

	id, err := s.SubmitApplicationStep2(context.Background(), store.Step2Payload{
		StaffID:             "7",
		LoanProductID:       "3",
		CurrencyID:          "1",
		NetSalary:           decimal.RequireFromString("1500.50"),
		TenureDuration:      12,
		LoanAmount:          decimal.NewFromInt(5000),
		RepaymentSchedule:   models.RepaymentMonthly,
		RepaymentAccount:    "ACC-1",
		DisbursementAccount: "ACC-2",
	})
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	assert.Equal(t, http.MethodPut, rec.method)
	assert.Equal(t, "/v1/api/staff-loans/step1", rec.path)
	assert.Equal(t, "Bearer token-1", rec.auth)
	assert.Nil(t, rec.body["applicationId"])
	assert.Equal(t, 7.0, rec.body["staffId"])
	assert.Equal(t, 1500.5, rec.body["netSalary"])
	assert.Equal(t, 5000.0, rec.body["loanAmount"])
	assert.Equal(t, "MONTHLY", rec.body["repaymentSchedule"])
}

func TestStore_SubmitApplicationStep3(t *testing.T) {
	s, rec := newServer(t, http.StatusOK, ``)

	err := s.SubmitApplicationStep3(context.Background(), "42", store.Step3Payload{
		Purpose:           "Fees",
		GuarantorRequired: false,
		GuarantorID:       "9",
		AnnualBasicSalary: decimal.NewFromInt(18000),
		ApproverID:        "11",
	})
	require.NoError(t, err)
	assert.Equal(t, "/v1/api/staff-loans/42/step2", rec.path)
	assert.Nil(t, rec.body["guarantorId"])
	assert.Equal(t, 11.0, rec.body["approverId"])
	assert.Equal(t, false, rec.body["guarantorRequired"])
}

func TestStore_SubmitApplicationStep4AndTerms(t *testing.T) {
	s, rec := newServer(t, http.StatusOK, `{}`)
	ctx := context.Background()

	require.NoError(t, s.SubmitApplicationStep4(ctx, "42", store.Step4Payload{
		LoanAgreementAccepted:   true,
		CurrentOrSavingsAccount: "CUR",
		SecurityDetails:         "Payroll",
	}))
	assert.Equal(t, "/v1/api/staff-loans/42/step3", rec.path)
	assert.Equal(t, map[string]interface{}{}, rec.body["supportingDocuments"])

	require.NoError(t, s.AcceptTerms(ctx, "42"))
	assert.Equal(t, http.MethodPatch, rec.method)
	assert.Equal(t, "/v1/api/staff-loans/42/accept-terms", rec.path)
	assert.Equal(t, "accepted=true", rec.query)
}

func TestStore_NonSuccessStatus(t *testing.T) {
	s, _ := newServer(t, http.StatusBadGateway, `upstream down`)

	_, err := s.SubmitApplicationStep2(context.Background(), store.Step2Payload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")

	missing, _ := newServer(t, http.StatusNotFound, ``)
	_, err = missing.FetchApplicationDetails(context.Background(), "1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_FetchLoanProducts(t *testing.T) {
	s, rec := newServer(t, http.StatusOK, `[
		{"id": 1, "name": "Staff General Loan", "clientType": "STAFF", "productType": "STAFF_GENERAL_LOAN", "minAmount": 100, "maxAmount": 5000},
		{"id": 2, "name": "Retail Loan", "clientType": "RETAIL", "productType": "PERSONAL_LOAN"},
		{"id": "P-3", "name": "Staff Mortgages", "clientType": "STAFF", "productType": "STAFF_MORTGAGES", "maxAmount": "250000.00"}
	]`)

	products, err := s.FetchLoanProducts(context.Background(), store.ProductFilter{ClientType: models.ClientTypeStaff})
	require.NoError(t, err)
	assert.Equal(t, "/v1/api/loan-products", rec.path)
	require.Len(t, products, 2)
	assert.Equal(t, "1", products[0].ID)
	assert.True(t, products[0].MaxAmount.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, "P-3", products[1].ID)

	products, err = s.FetchLoanProducts(context.Background(), store.ProductFilter{ClientType: models.ClientTypeStaff, Query: "mort"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, models.ProductStaffMortgages, products[0].ProductType)
}

func TestStore_FetchGuarantorCandidates(t *testing.T) {
	s, rec := newServer(t, http.StatusOK, `[{"id": 9, "firstName": "Tendai", "lastName": "Moyo"}]`)

	people, err := s.FetchGuarantorCandidates(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "/v1/api/staff-loans/guarantors/7", rec.path)
	assert.Equal(t, []models.Person{{ID: "9", FirstName: "Tendai", LastName: "Moyo"}}, people)
}

func TestStore_DecideGuarantor(t *testing.T) {
	s, rec := newServer(t, http.StatusOK, `{"message": "Loan accepted"}`)

	msg, err := s.DecideGuarantor(context.Background(), "42", "9", models.DecisionAccepted)
	require.NoError(t, err)
	assert.Equal(t, "Loan accepted", msg)
	assert.Equal(t, http.MethodPatch, rec.method)
	assert.Equal(t, "/v1/api/staff-loans/42/guarantor/9/accept", rec.path)

	_, err = s.DecideGuarantor(context.Background(), "42", "9", models.DecisionPending)
	assert.ErrorIs(t, err, store.ErrInvalidDecision)

	conflict, _ := newServer(t, http.StatusConflict, `already decided`)
	_, err = conflict.DecideGuarantor(context.Background(), "42", "9", models.DecisionDeclined)
	assert.ErrorIs(t, err, store.ErrAlreadyDecided)
}

func TestStore_FetchGuarantorLoans(t *testing.T) {
	s, _ := newServer(t, http.StatusOK, `[
		{"loanId": 42, "staffFirstName": "Rudo", "staffLastName": "Ncube", "loanProductName": "Staff General Loan", "loanAmount": 3000, "purpose": "Fees", "guarantorDecision": null},
		{"loanId": 43, "staffFirstName": "Tendai", "staffLastName": "Moyo", "loanProductName": "Staff Mortgages", "loanAmount": 90000, "purpose": "House", "guarantorDecision": "DECLINED"}
	]`)

	loans, err := s.FetchGuarantorLoans(context.Background(), "9")
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, "42", loans[0].LoanID)
	assert.Equal(t, "Rudo Ncube", loans[0].OwnerName)
	assert.Equal(t, models.DecisionPending, loans[0].GuarantorDecision)
	assert.Equal(t, models.DecisionDeclined, loans[1].GuarantorDecision)
}

func TestStore_FetchStaffApplications(t *testing.T) {
	single, _ := newServer(t, http.StatusOK, `{"applicationId": 42, "staffId": 7, "status": "SUBMITTED", "loanAmount": 3000, "createdAt": "2026-03-01T09:00:00Z"}`)
	apps, err := single.FetchStaffApplications(context.Background(), "7")
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "42", apps[0].ApplicationID)
	assert.Equal(t, models.StatusSubmitted, apps[0].Status)
	require.NotNil(t, apps[0].CreatedAt)
	assert.Equal(t, 2026, apps[0].CreatedAt.Year())

	list, rec := newServer(t, http.StatusOK, `[{"applicationId": 1}, {"applicationId": 2, "supportingDocuments": {"Quotation": "q"}}]`)
	apps, err = list.FetchStaffApplications(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "/v1/api/staff-loans/staff/7/details", rec.path)
	require.Len(t, apps, 2)
	assert.Equal(t, "q", apps[1].SupportingDocuments["Quotation"])
}
