package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"

	apperrors "staff-loans/internal/common/errors"
	"staff-loans/internal/common/logger"
	"staff-loans/internal/models"
	"staff-loans/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) SubmitApplicationStep2(ctx context.Context, payload store.Step2Payload) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

func (m *MockStore) SubmitApplicationStep3(ctx context.Context, applicationID string, payload store.Step3Payload) error {
	return m.Called(ctx, applicationID, payload).Error(0)
}

func (m *MockStore) SubmitApplicationStep4(ctx context.Context, applicationID string, payload store.Step4Payload) error {
	return m.Called(ctx, applicationID, payload).Error(0)
}

func (m *MockStore) AcceptTerms(ctx context.Context, applicationID string) error {
	return m.Called(ctx, applicationID).Error(0)
}

func (m *MockStore) FetchGuarantorCandidates(ctx context.Context, staffID string) ([]models.Person, error) {
	args := m.Called(ctx, staffID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Person), args.Error(1)
}

var candidates = []models.Person{
	{ID: "G-1", FirstName: "Tendai", LastName: "Moyo"},
	{ID: "A-1", FirstName: "Rudo", LastName: "Ncube"},
}

func fillDetails(app *models.LoanApplication) {
	src := validApplication()
	app.CurrencyID = src.CurrencyID
	app.NetSalary = src.NetSalary
	app.TenureDuration = src.TenureDuration
	app.LoanAmount = src.LoanAmount
	app.RepaymentSchedule = src.RepaymentSchedule
	app.RepaymentAccount = src.RepaymentAccount
	app.DisbursementAccount = src.DisbursementAccount
}

func fillGuarantor(app *models.LoanApplication) {
	app.Purpose = "Home repairs"
	app.GuarantorID = "G-1"
	app.AnnualBasicSalary = dec("15000")
	app.ApproverID = "A-1"
}

func fillAccounts(app *models.LoanApplication) {
	app.CurrentOrSavingsAccount = "CUR-1"
	app.SecurityDetails = "Payroll deduction"
	app.LoanAgreementAccepted = true
}

func TestWorkflow_HappyPath(t *testing.T) {
	ctx := context.Background()
	st := new(MockStore)
	wf := New(st, "S-100", logger.NewTestLogger(t))

	require.NoError(t, wf.SelectProduct(*validApplication().SelectedProduct))
	require.NoError(t, wf.Submit(ctx))
	assert.Equal(t, StepApplicationDetails, wf.State().Current)

	st.On("SubmitApplicationStep2", ctx, mock.MatchedBy(func(p store.Step2Payload) bool {
		return p.ApplicationID == "" && p.StaffID == "S-100" && p.LoanProductID == "P-1"
	})).Return("APP-1", nil).Once()
	wf.Edit(fillDetails)
	require.NoError(t, wf.Submit(ctx))
	assert.Equal(t, "APP-1", wf.Snapshot().ApplicationID)
	assert.Equal(t, PhasePersisted, wf.State().Phase)

	st.On("FetchGuarantorCandidates", ctx, "S-100").Return(candidates, nil).Once()
	st.On("SubmitApplicationStep3", ctx, "APP-1", mock.MatchedBy(func(p store.Step3Payload) bool {
		return p.GuarantorID == "G-1" && p.ApproverID == "A-1"
	})).Return(nil).Once()
	wf.Edit(fillGuarantor)
	require.NoError(t, wf.Submit(ctx))

	st.On("SubmitApplicationStep4", ctx, "APP-1", mock.MatchedBy(func(p store.Step4Payload) bool {
		return len(p.SupportingDocuments) == 1 && p.SupportingDocuments["Quotation"] == "doc-q"
	})).Return(nil).Once()
	wf.Edit(fillAccounts)
	require.NoError(t, wf.AttachDocument("Quotation", "doc-q"))
	require.NoError(t, wf.Submit(ctx))

	st.On("AcceptTerms", ctx, "APP-1").Return(nil).Once()
	wf.Edit(func(a *models.LoanApplication) { a.TermsAndConditionsAccepted = true })
	require.NoError(t, wf.Submit(ctx))
	assert.Equal(t, StepReview, wf.State().Current)
	assert.Equal(t, 100, wf.Completeness().Percent())

	require.NoError(t, wf.Submit(ctx))
	assert.True(t, wf.State().Finalized)
	require.NoError(t, wf.Submit(ctx), "second submit is a no-op")
	assert.ErrorIs(t, wf.Back(), ErrFinalized)

	st.AssertExpectations(t)
}

func TestWorkflow_MotorVehicleMissingDocuments(t *testing.T) {
	ctx := context.Background()
	st := new(MockStore)

	snapshot := motorApplication()
	snapshot.ApplicationID = "APP-MV"
	snapshot.NetSalary = dec("2000")
	snapshot.TenureDuration = 24
	snapshot.LoanAmount = dec("20000")
	snapshot.SupportingDocuments = map[string]string{
		"Police Clearance":     "d1",
		"Agreement of Sale":    "d2",
		"Drivers Licence":      "d3",
		"Vehicle Registration": "d6",
	}

	wf, err := Resume(st, snapshot, logger.NewTestLogger(t))
	require.NoError(t, err)
	require.Equal(t, StepDocuments, wf.State().Current)

	ceiling, ok := wf.MaxLoanAmount()
	require.True(t, ok)
	assert.Equal(t, "28873.93", ceiling.StringFixed(2))

	err = wf.Submit(ctx)
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, []string{"Valuation Report", "VSD Report"}, verr.Field)
	assert.Equal(t, StepDocuments, wf.State().Current)
	assert.Len(t, wf.Snapshot().SupportingDocuments, 4)

	st.AssertNotCalled(t, "SubmitApplicationStep4", mock.Anything, mock.Anything, mock.Anything)
}

func TestWorkflow_LoanAmountClamped(t *testing.T) {
	wf := New(new(MockStore), "S-1", logger.NewNoOpLogger())
	wf.Edit(func(a *models.LoanApplication) {
		a.NetSalary = dec("1000")
		a.TenureDuration = 12
	})

	stored, clamped := wf.SetLoanAmount(dec("8255.52"))
	assert.True(t, clamped)
	assert.Equal(t, "7755.52", stored.StringFixed(2))

	stored, clamped = wf.SetLoanAmount(dec("5000"))
	assert.False(t, clamped)
	assert.Equal(t, "5000", stored.String())

	// lowering the tenure re-applies the cap to the stored amount
	wf.Edit(func(a *models.LoanApplication) { a.TenureDuration = 1 })
	assert.Equal(t, "691.36", wf.Snapshot().LoanAmount.StringFixed(2))
}

func TestWorkflow_EditProtectsServerFields(t *testing.T) {
	snapshot := validApplication()
	snapshot.ApplicationID = "APP-1"
	snapshot.Status = models.StatusSubmitted
	snapshot.TermsAndConditionsAccepted = false

	wf, err := Resume(new(MockStore), snapshot, logger.NewNoOpLogger())
	require.NoError(t, err)

	wf.Edit(func(a *models.LoanApplication) {
		a.ApplicationID = "forged"
		a.Status = models.StatusApproved
		a.StaffID = "other"
		a.ProductType = models.ProductStaffMortgages
		a.Purpose = "School fees"
	})

	got := wf.Snapshot()
	assert.Equal(t, "APP-1", got.ApplicationID)
	assert.Equal(t, models.StatusSubmitted, got.Status)
	assert.Equal(t, "S-100", got.StaffID)
	assert.Equal(t, models.ProductStaffGeneralLoan, got.ProductType)
	assert.Equal(t, "School fees", got.Purpose)
}

func TestWorkflow_PersistenceFailureKeepsData(t *testing.T) {
	ctx := context.Background()
	st := new(MockStore)
	wf := New(st, "S-100", logger.NewNoOpLogger())
	require.NoError(t, wf.SelectProduct(*validApplication().SelectedProduct))
	require.NoError(t, wf.Submit(ctx))

	st.On("SubmitApplicationStep2", ctx, mock.Anything).Return("", errors.New("502 bad gateway")).Once()
	wf.Edit(fillDetails)

	err := wf.Submit(ctx)
	var perr *apperrors.StepPersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2, perr.Step)
	assert.Equal(t, "Failed to submit application. Please try again.", perr.Message())
	assert.Equal(t, StepApplicationDetails, wf.State().Current)
	assert.Equal(t, PhaseDraft, wf.State().Phase)
	assert.Equal(t, "ACC-1", wf.Snapshot().RepaymentAccount)

	st.On("SubmitApplicationStep2", ctx, mock.Anything).Return("  ", nil).Once()
	err = wf.Submit(ctx)
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, ErrEmptyApplicationID)

	st.On("SubmitApplicationStep2", ctx, mock.Anything).Return("APP-7", nil).Once()
	require.NoError(t, wf.Submit(ctx))
	assert.Equal(t, StepGuarantorApprover, wf.State().Current)
	st.AssertExpectations(t)
}

func TestWorkflow_CandidateLoadFailure(t *testing.T) {
	ctx := context.Background()
	st := new(MockStore)
	snapshot := validApplication()
	snapshot.ApplicationID = "APP-1"
	snapshot.ApproverID = ""

	wf, err := Resume(st, snapshot, logger.NewNoOpLogger())
	require.NoError(t, err)
	require.Equal(t, StepGuarantorApprover, wf.State().Current)

	st.On("FetchGuarantorCandidates", ctx, "S-100").Return(nil, errors.New("timeout")).Once()
	wf.Edit(func(a *models.LoanApplication) { a.ApproverID = "A-1" })

	var perr *apperrors.StepPersistenceError
	require.ErrorAs(t, wf.Submit(ctx), &perr)
	assert.Equal(t, 3, perr.Step)
	assert.Equal(t, StepGuarantorApprover, wf.State().Current)
}

func TestWorkflow_GuarantorClearedWhenNotRequired(t *testing.T) {
	ctx := context.Background()
	st := new(MockStore)
	snapshot := validApplication()
	snapshot.ApplicationID = "APP-1"
	snapshot.GuarantorID = ""
	snapshot.ApproverID = ""

	wf, err := Resume(st, snapshot, logger.NewNoOpLogger())
	require.NoError(t, err)

	st.On("FetchGuarantorCandidates", ctx, "S-100").Return(candidates, nil).Once()
	st.On("SubmitApplicationStep3", ctx, "APP-1", mock.MatchedBy(func(p store.Step3Payload) bool {
		return !p.GuarantorRequired && p.GuarantorID == ""
	})).Return(nil).Once()

	wf.Edit(func(a *models.LoanApplication) {
		a.GuarantorRequired = false
		a.GuarantorID = "G-1"
		a.ApproverID = "A-1"
	})
	require.NoError(t, wf.Submit(ctx))
	assert.Empty(t, wf.Snapshot().GuarantorID)
	st.AssertExpectations(t)
}

func TestWorkflow_ResumeFloor(t *testing.T) {
	snapshot := validApplication()
	snapshot.ApplicationID = "APP-1"
	snapshot.TermsAndConditionsAccepted = false

	wf, err := Resume(new(MockStore), snapshot, logger.NewNoOpLogger())
	require.NoError(t, err)
	assert.Equal(t, StepTerms, wf.State().Current)

	assert.ErrorIs(t, wf.GoTo(StepApplicationDetails), ErrNavigationNotAllowed)
	require.NoError(t, wf.GoTo(StepGuarantorApprover))
	assert.ErrorIs(t, wf.Back(), ErrNavigationNotAllowed)
	assert.ErrorIs(t, wf.SelectProduct(models.LoanProduct{ID: "P-2"}), ErrProductLocked)

	_, err = Resume(new(MockStore), validApplication(), logger.NewNoOpLogger())
	assert.ErrorIs(t, err, ErrNotResumable)
}

func TestWorkflow_AttachUnknownDocument(t *testing.T) {
	wf := New(new(MockStore), "S-1", logger.NewNoOpLogger())
	require.NoError(t, wf.SelectProduct(models.LoanProduct{ID: "P", ProductType: models.ProductStaffSchoolFees}))

	var verr *apperrors.ValidationError
	require.ErrorAs(t, wf.AttachDocument("Title Deed", "x"), &verr)
	assert.Equal(t, "Title Deed", verr.Field)

	require.NoError(t, wf.AttachDocument("Invoice", "inv-1"))
	assert.Equal(t, "inv-1", wf.Snapshot().SupportingDocuments["Invoice"])
	wf.DetachDocument("Invoice")
	assert.Empty(t, wf.Snapshot().SupportingDocuments)
}

func TestWorkflow_EditCannotWriteDocumentsInPlace(t *testing.T) {
	wf := New(new(MockStore), "S-1", logger.NewNoOpLogger())
	require.NoError(t, wf.SelectProduct(models.LoanProduct{ID: "P", ProductType: models.ProductStaffSchoolFees}))
	require.NoError(t, wf.AttachDocument("Invoice", "inv-1"))

	wf.Edit(func(a *models.LoanApplication) {
		a.SupportingDocuments["Title Deed"] = "deed-1"
		a.SupportingDocuments["Invoice"] = "swapped"
		a.Purpose = "Fees"
	})

	got := wf.Snapshot()
	assert.Equal(t, map[string]string{"Invoice": "inv-1"}, got.SupportingDocuments)
	assert.Equal(t, "Fees", got.Purpose)
}

func TestWorkflow_ConcurrentSubmitRejected(t *testing.T) {
	ctx := context.Background()
	st := new(MockStore)
	snapshot := validApplication()
	snapshot.ApplicationID = "APP-1"
	snapshot.TermsAndConditionsAccepted = false

	wf, err := Resume(st, snapshot, logger.NewNoOpLogger())
	require.NoError(t, err)
	wf.Edit(func(a *models.LoanApplication) { a.TermsAndConditionsAccepted = true })

	entered := make(chan struct{})
	release := make(chan struct{})
	st.On("AcceptTerms", ctx, "APP-1").Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return(nil).Once()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, wf.Submit(ctx))
	}()

	<-entered
	assert.ErrorIs(t, wf.Submit(ctx), ErrSubmitInFlight)
	assert.Equal(t, StepTerms, wf.State().Current)
	close(release)
	wg.Wait()

	assert.Equal(t, StepReview, wf.State().Current)
	st.AssertExpectations(t)
}
