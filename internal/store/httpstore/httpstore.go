// Package httpstore talks to the staff-loans REST backend.
package httpstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	httpclient "staff-loans/internal/common/http"
	"staff-loans/internal/common/logger"
	"staff-loans/internal/models"
	"staff-loans/internal/store"
)

// Store implements store.ApplicationStore and store.ApplicationLister over
// the backend's REST API.
type Store struct {
	client *httpclient.Client
	logger logger.Logger
}

var (
	_ store.ApplicationStore  = (*Store)(nil)
	_ store.ApplicationLister = (*Store)(nil)
)

// New builds a store rooted at baseURL (for example http://host:8080/v1/api).
// token, when set, is sent as a bearer token.
func New(baseURL, token string, timeout time.Duration, log logger.Logger) *Store {
	client := httpclient.NewClient(baseURL, timeout)
	if token != "" {
		client = client.WithHeader("Authorization", "Bearer "+token)
	}
	return &Store{
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "httpstore"}),
	}
}

// WithToken returns a store sending a different bearer token.
func (s *Store) WithToken(token string) *Store {
	return &Store{client: s.client.WithHeader("Authorization", "Bearer "+token), logger: s.logger}
}

func (s *Store) SubmitApplicationStep2(ctx context.Context, payload store.Step2Payload) (string, error) {
	var resp step2Response
	if err := s.client.DoJSON(ctx, http.MethodPut, "staff-loans/step1", nil, newStep2Request(payload), &resp); err != nil {
		return "", translate(err)
	}
	return string(resp.ApplicationID), nil
}

func (s *Store) SubmitApplicationStep3(ctx context.Context, applicationID string, payload store.Step3Payload) error {
	path := fmt.Sprintf("staff-loans/%s/step2", url.PathEscape(applicationID))
	return translate(s.client.DoJSON(ctx, http.MethodPut, path, nil, newStep3Request(payload), nil))
}

func (s *Store) SubmitApplicationStep4(ctx context.Context, applicationID string, payload store.Step4Payload) error {
	path := fmt.Sprintf("staff-loans/%s/step3", url.PathEscape(applicationID))
	if payload.SupportingDocuments == nil {
		payload.SupportingDocuments = map[string]string{}
	}
	return translate(s.client.DoJSON(ctx, http.MethodPut, path, nil, payload, nil))
}

func (s *Store) AcceptTerms(ctx context.Context, applicationID string) error {
	path := fmt.Sprintf("staff-loans/%s/accept-terms", url.PathEscape(applicationID))
	query := url.Values{"accepted": []string{"true"}}
	return translate(s.client.DoJSON(ctx, http.MethodPatch, path, query, nil, nil))
}

func (s *Store) FetchApplicationDetails(ctx context.Context, applicationID string) (*models.LoanApplication, error) {
	var resp applicationResponse
	path := "staff-loans/loan-details/" + url.PathEscape(applicationID)
	if err := s.client.DoJSON(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, translate(err)
	}
	return resp.model(), nil
}

// FetchLoanProducts reads every product and filters client-side; the
// backend endpoint takes no filter.
func (s *Store) FetchLoanProducts(ctx context.Context, filter store.ProductFilter) ([]models.LoanProduct, error) {
	var resp []productResponse
	if err := s.client.DoJSON(ctx, http.MethodGet, "loan-products", nil, nil, &resp); err != nil {
		return nil, translate(err)
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]models.LoanProduct, 0, len(resp))
	for _, p := range resp {
		product := p.model()
		if filter.ClientType != "" && product.ClientType != filter.ClientType {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(product.Name), query) {
			continue
		}
		out = append(out, product)
	}
	return out, nil
}

func (s *Store) FetchGuarantorCandidates(ctx context.Context, staffID string) ([]models.Person, error) {
	var resp []personResponse
	path := "staff-loans/guarantors/" + url.PathEscape(staffID)
	if err := s.client.DoJSON(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, translate(err)
	}

	people := make([]models.Person, 0, len(resp))
	for _, p := range resp {
		people = append(people, models.Person{ID: string(p.ID), FirstName: p.FirstName, LastName: p.LastName})
	}
	return people, nil
}

func (s *Store) DecideGuarantor(ctx context.Context, loanID, staffID string, decision models.GuarantorDecision) (string, error) {
	var action string
	switch decision {
	case models.DecisionAccepted:
		action = "accept"
	case models.DecisionDeclined:
		action = "decline"
	default:
		return "", fmt.Errorf("%w: %q", store.ErrInvalidDecision, decision)
	}

	var resp decisionResponse
	path := fmt.Sprintf("staff-loans/%s/guarantor/%s/%s", url.PathEscape(loanID), url.PathEscape(staffID), action)
	if err := s.client.DoJSON(ctx, http.MethodPatch, path, nil, struct{}{}, &resp); err != nil {
		return "", translateDecision(err)
	}
	return resp.Message, nil
}

func (s *Store) FetchGuarantorLoans(ctx context.Context, staffID string) ([]models.GuarantorLoan, error) {
	var resp []guarantorLoanResponse
	path := "staff-loans/guarantor-loans/" + url.PathEscape(staffID)
	if err := s.client.DoJSON(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, translate(err)
	}

	loans := make([]models.GuarantorLoan, 0, len(resp))
	for _, g := range resp {
		loans = append(loans, g.model())
	}
	return loans, nil
}

// FetchStaffApplications accepts both a list and a single object, which the
// backend returns for staff with one loan.
func (s *Store) FetchStaffApplications(ctx context.Context, staffID string) ([]models.LoanApplication, error) {
	var raw json.RawMessage
	path := fmt.Sprintf("staff-loans/staff/%s/details", url.PathEscape(staffID))
	if err := s.client.DoJSON(ctx, http.MethodGet, path, nil, nil, &raw); err != nil {
		return nil, translate(err)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []models.LoanApplication{}, nil
	}

	var resp []applicationResponse
	if raw[0] == '{' {
		s.logger.Debug("staff details returned a single application", map[string]interface{}{"staffId": staffID})
		var one applicationResponse
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, fmt.Errorf("decode staff applications: %w", err)
		}
		resp = append(resp, one)
	} else if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode staff applications: %w", err)
	}

	apps := make([]models.LoanApplication, 0, len(resp))
	for _, a := range resp {
		apps = append(apps, *a.model())
	}
	return apps, nil
}

// translate maps a 404 onto store.ErrNotFound.
func translate(err error) error {
	if statusOf(err) == http.StatusNotFound {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}
	return err
}

func translateDecision(err error) error {
	switch statusOf(err) {
	case http.StatusConflict:
		return fmt.Errorf("%w: %v", store.ErrAlreadyDecided, err)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %v", store.ErrNotGuarantor, err)
	}
	return translate(err)
}

func statusOf(err error) int {
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}
