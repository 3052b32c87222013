/*
handlers_test.go - HTTP round trips through the router

Tests for:
- Schedule preview and reconciliation
- Asset registration, metrics, projection, usage and disposal
- Contracts, settlement outcomes and regeneration
- Error status mapping and tenant isolation
*/
package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/amortization-engine/factory"
	"github.com/warp/amortization-engine/generic"
	"github.com/warp/amortization-engine/service"
	"github.com/warp/amortization-engine/store/sqlite"
)

var testToday = generic.NewTimePoint(2024, time.June, 15)

type testAPI struct {
	t       *testing.T
	handler *Handler
	router  http.Handler
}

func setupTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ledger := service.NewLedger(store, zerolog.Nop())
	h := NewHandler(ledger, zerolog.Nop())
	h.Today = func() generic.TimePoint { return testToday }
	return &testAPI{t: t, handler: h, router: NewRouter(h, nil)}
}

// do sends body as JSON for the given tenant ("" means the default one).
func (a *testAPI) do(method, path, company string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if company != "" {
		req.Header.Set(CompanyHeader, company)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

// =============================================================================
// SCHEDULES
// =============================================================================

func TestPreviewSchedule_RemainderOnFirstRowAndMonthEnds(t *testing.T) {
	// GIVEN: 100.00 over 3 installments starting on January 31st
	api := setupTestAPI(t)

	// WHEN: Previewing the plan
	rec := api.do(http.MethodPost, "/api/schedules/preview", "", PreviewScheduleRequest{
		TotalValue: "100.00", InstallmentsCount: 3, StartDate: "2024-01-31",
	})

	// THEN: The first row absorbs the cent and due dates clamp to month end
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[ScheduleDTO](t, rec)
	require.Len(t, got.Installments, 3)

	assert.Equal(t, []string{"33.34", "33.33", "33.33"}, []string{
		got.Installments[0].Amount, got.Installments[1].Amount, got.Installments[2].Amount,
	})
	assert.Equal(t, []string{"2024-01-31", "2024-02-29", "2024-03-31"}, []string{
		got.Installments[0].DueDate, got.Installments[1].DueDate, got.Installments[2].DueDate,
	})
	assert.Equal(t, 0, got.Installments[0].SequenceIndex)
	assert.True(t, got.Reconciliation.IsBalanced)
	assert.Equal(t, "0.00", got.Reconciliation.Difference)
}

func TestPreviewSchedule_DefaultsStartToToday(t *testing.T) {
	api := setupTestAPI(t)

	rec := api.do(http.MethodPost, "/api/schedules/preview", "", PreviewScheduleRequest{
		TotalValue: "50", InstallmentsCount: 1,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[ScheduleDTO](t, rec)
	require.Len(t, got.Installments, 1)
	assert.Equal(t, "2024-06-15", got.Installments[0].DueDate)
	assert.Equal(t, "50.00", got.Installments[0].Amount)
}

func TestPreviewSchedule_InvalidConfiguration(t *testing.T) {
	api := setupTestAPI(t)

	tests := []struct {
		name string
		body any
	}{
		{"zero count", PreviewScheduleRequest{TotalValue: "100", InstallmentsCount: 0, StartDate: "2024-01-01"}},
		{"negative total", PreviewScheduleRequest{TotalValue: "-1", InstallmentsCount: 2, StartDate: "2024-01-01"}},
		{"too many installments", PreviewScheduleRequest{TotalValue: "100", InstallmentsCount: 1000000000, StartDate: "2024-01-01"}},
		{"bad amount", PreviewScheduleRequest{TotalValue: "ten", InstallmentsCount: 2, StartDate: "2024-01-01"}},
		{"bad date", PreviewScheduleRequest{TotalValue: "10", InstallmentsCount: 2, StartDate: "01/02/2024"}},
		{"malformed body", `{"total_value": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(http.MethodPost, "/api/schedules/preview", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[ErrorResponse](t, rec).Error)
		})
	}
}

func TestReconcileSchedule_ReportsDifference(t *testing.T) {
	api := setupTestAPI(t)

	// GIVEN: An edited plan 10.00 short of its total
	rec := api.do(http.MethodPost, "/api/schedules/reconcile", "", ReconcileScheduleRequest{
		TotalValue: "100.00",
		Installments: []factory.InstallmentJSON{
			{SequenceIndex: 0, DueDate: "2024-01-01", Amount: "50.00"},
			{SequenceIndex: 1, DueDate: "2024-02-01", Amount: "40.00"},
		},
	})

	// THEN: Unbalanced is an answer, not an error
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[ReconciliationDTO](t, rec)
	assert.False(t, got.IsBalanced)
	assert.Equal(t, "90.00", got.TotalAllocated)
	assert.Equal(t, "10.00", got.Difference)
}

// =============================================================================
// ASSETS
// =============================================================================

func createAsset(t *testing.T, api *testAPI, company string, body factory.AssetJSON) factory.AssetJSON {
	t.Helper()
	rec := api.do(http.MethodPost, "/api/assets", company, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	got := decode[factory.AssetJSON](t, rec)
	require.NotEmpty(t, got.ID)
	return got
}

func linearDesk() factory.AssetJSON {
	return factory.AssetJSON{
		Name: "Desk", InitialValue: "12000.00", ResidualValue: "0.00",
		AcquisitionDate: "2024-01-01", UsefulLifeMonths: 60, Method: "LINEAR",
	}
}

func TestAsset_MetricsAndProjection(t *testing.T) {
	api := setupTestAPI(t)
	asset := createAsset(t, api, "", linearDesk())
	assert.Equal(t, "ACTIVE", asset.Status)

	// WHEN: Evaluating one year in
	rec := api.do(http.MethodGet, "/api/assets/"+asset.ID+"/metrics?as_of=2025-01-01", "", nil)

	// THEN: A fifth of the depreciable amount is gone
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	m := decode[MetricsDTO](t, rec)
	assert.Equal(t, "2400.00", m.AccumulatedDepreciation)
	assert.Equal(t, "9600.00", m.CurrentValue)
	assert.Equal(t, "20.00", m.ProgressPercent)
	assert.Equal(t, 12, m.MonthsPassed)
	assert.Equal(t, 48, m.MonthsRemaining)

	// Without as_of the handler's today is used (2024-06-15 -> 5 months)
	rec = api.do(http.MethodGet, "/api/assets/"+asset.ID+"/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, decode[MetricsDTO](t, rec).MonthsPassed)

	rec = api.do(http.MethodGet, "/api/assets/"+asset.ID+"/projection", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p := decode[ProjectionDTO](t, rec)
	require.Len(t, p.Years, 5)
	for _, y := range p.Years {
		assert.Equal(t, "2400.00", y.Depreciation)
	}
	assert.Equal(t, "0.00", p.Years[4].ClosingValue)

	rec = api.do(http.MethodGet, "/api/assets", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]factory.AssetJSON](t, rec), 1)
}

func TestAsset_InvalidInputs(t *testing.T) {
	api := setupTestAPI(t)

	bad := linearDesk()
	bad.ResidualValue = "20000"
	rec := api.do(http.MethodPost, "/api/assets", "", bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	bad = linearDesk()
	bad.Method = "STRAIGHT"
	rec = api.do(http.MethodPost, "/api/assets", "", bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	asset := createAsset(t, api, "", linearDesk())
	rec = api.do(http.MethodGet, "/api/assets/"+asset.ID+"/metrics?as_of=yesterday", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAsset_TenantIsolation(t *testing.T) {
	api := setupTestAPI(t)
	asset := createAsset(t, api, "acme", linearDesk())

	rec := api.do(http.MethodGet, "/api/assets/"+asset.ID, "acme", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/api/assets/"+asset.ID, "globex", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodGet, "/api/assets", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]factory.AssetJSON](t, rec))
}

func TestAsset_UsageAndTimeIndependentProjection(t *testing.T) {
	api := setupTestAPI(t)
	total, current := "10000", "2500"
	press := createAsset(t, api, "", factory.AssetJSON{
		Name: "Press", InitialValue: "50000", ResidualValue: "10000",
		AcquisitionDate: "2024-01-01", UsefulLifeMonths: 60, Method: "UNITS_OF_PRODUCTION",
		UsageTotalEstimated: &total, UsageCurrent: &current,
	})

	rec := api.do(http.MethodGet, "/api/assets/"+press.ID+"/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "10000.00", decode[MetricsDTO](t, rec).AccumulatedDepreciation)

	// Usage moves forward
	rec = api.do(http.MethodPost, "/api/assets/"+press.ID+"/usage", "", UsageRequest{Usage: "5000"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = api.do(http.MethodGet, "/api/assets/"+press.ID+"/metrics", "", nil)
	assert.Equal(t, "20000.00", decode[MetricsDTO](t, rec).AccumulatedDepreciation)

	// ...never backwards
	rec = api.do(http.MethodPost, "/api/assets/"+press.ID+"/usage", "", UsageRequest{Usage: "4000"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// No calendar projection for usage-driven assets
	rec = api.do(http.MethodGet, "/api/assets/"+press.ID+"/projection", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Usage on a time-based asset is refused
	desk := createAsset(t, api, "", linearDesk())
	rec = api.do(http.MethodPost, "/api/assets/"+desk.ID+"/usage", "", UsageRequest{Usage: "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAsset_Dispose(t *testing.T) {
	api := setupTestAPI(t)
	asset := createAsset(t, api, "", linearDesk())

	// GIVEN: A sale above book value one year in
	rec := api.do(http.MethodPost, "/api/assets/"+asset.ID+"/dispose", "", DisposeRequest{
		Proceeds: "10000.00", Date: "2025-01-01",
	})

	// THEN: The gain is proceeds minus book value
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	d := decode[DisposalDTO](t, rec)
	assert.Equal(t, "SOLD", d.Status)
	assert.Equal(t, "9600.00", d.BookValue)
	assert.Equal(t, "400.00", d.GainOrLoss)

	// AND: The asset can't be disposed twice
	rec = api.do(http.MethodPost, "/api/assets/"+asset.ID+"/dispose", "", DisposeRequest{Date: "2025-02-01"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodGet, "/api/assets/"+asset.ID, "", nil)
	assert.Equal(t, "SOLD", decode[factory.AssetJSON](t, rec).Status)
}

func TestAsset_WriteOff(t *testing.T) {
	api := setupTestAPI(t)
	asset := createAsset(t, api, "", linearDesk())

	rec := api.do(http.MethodPost, "/api/assets/"+asset.ID+"/dispose", "", DisposeRequest{Date: "2025-01-01"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	d := decode[DisposalDTO](t, rec)
	assert.Equal(t, "WRITTEN_OFF", d.Status)
	assert.Equal(t, "-9600.00", d.GainOrLoss)
}

// =============================================================================
// CONTRACTS & SETTLEMENT
// =============================================================================

func createAccount(t *testing.T, api *testAPI, balance string) AccountDTO {
	t.Helper()
	rec := api.do(http.MethodPost, "/api/accounts", "", CreateAccountRequest{Name: "Cash", Balance: balance})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[AccountDTO](t, rec)
}

func createLoan(t *testing.T, api *testAPI) ContractDTO {
	t.Helper()
	rec := api.do(http.MethodPost, "/api/contracts", "", factory.ContractJSON{
		Name: "Loan", Type: "LOAN", TotalValue: "300.00",
		AcquisitionDate: "2024-01-10", InstallmentsCount: 3,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	c := decode[ContractDTO](t, rec)
	require.Len(t, c.Installments, 3)
	return c
}

func TestContract_CreateAndGet(t *testing.T) {
	api := setupTestAPI(t)
	c := createLoan(t, api)

	assert.Equal(t, "ACTIVE", c.Status)
	assert.True(t, c.Reconciliation.IsBalanced)
	for i, inst := range c.Installments {
		assert.Equal(t, i, inst.SequenceIndex)
		assert.Equal(t, "100.00", inst.Amount)
		assert.Equal(t, "PENDING", inst.Status)
	}
	assert.Equal(t, "2024-03-10", c.Installments[2].DueDate)

	rec := api.do(http.MethodGet, "/api/contracts/"+c.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, c.Installments[1].ID, decode[ContractDTO](t, rec).Installments[1].ID)

	rec = api.do(http.MethodGet, "/api/contracts/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContract_EditedPlanMustBalance(t *testing.T) {
	api := setupTestAPI(t)

	rec := api.do(http.MethodPost, "/api/contracts", "", factory.ContractJSON{
		Name: "License", Type: "LICENSE", TotalValue: "100.00", AcquisitionDate: "2024-01-01",
		Installments: []factory.InstallmentJSON{
			{SequenceIndex: 0, DueDate: "2024-01-01", Amount: "60.00"},
			{SequenceIndex: 1, DueDate: "2024-02-01", Amount: "30.00"},
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, "/api/contracts", "", factory.ContractJSON{
		Name: "License", Type: "LICENSE", TotalValue: "100.00", AcquisitionDate: "2024-01-01",
		Installments: []factory.InstallmentJSON{
			{SequenceIndex: 0, DueDate: "2024-01-01", Amount: "70.00"},
			{SequenceIndex: 1, DueDate: "2024-02-01", Amount: "30.00"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	c := decode[ContractDTO](t, rec)
	assert.Equal(t, 2, c.InstallmentsCount)
	assert.Equal(t, "70.00", c.Installments[0].Amount)
}

func TestSettle_InsufficientBalance(t *testing.T) {
	api := setupTestAPI(t)
	acc := createAccount(t, api, "50.00")
	c := createLoan(t, api)

	// WHEN: Paying 100 + 5 interest from an account holding 50
	rec := api.do(http.MethodPost, "/api/installments/"+c.Installments[0].ID+"/settle", "", SettleRequest{
		AccountID: acc.ID, PayDate: "2024-01-15", Interest: "5.00",
	})

	// THEN: Rejected with the reason and the effective amount
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	got := decode[SettlementDTO](t, rec)
	assert.False(t, got.Success)
	assert.Equal(t, "INSUFFICIENT_BALANCE", got.Reason)
	assert.Equal(t, "105.00", got.EffectiveAmount)
	assert.Nil(t, got.Installment)

	// AND: Nothing moved
	rec = api.do(http.MethodGet, "/api/accounts/"+acc.ID, "", nil)
	assert.Equal(t, "50.00", decode[AccountDTO](t, rec).Balance)
}

func TestSettle_SuccessThenAlreadySettled(t *testing.T) {
	api := setupTestAPI(t)
	acc := createAccount(t, api, "1000.00")
	c := createLoan(t, api)
	path := "/api/installments/" + c.Installments[0].ID + "/settle"

	rec := api.do(http.MethodPost, path, "", SettleRequest{
		AccountID: acc.ID, PayDate: "2024-01-20", Interest: "10.00", Discount: "5.00",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[SettlementDTO](t, rec)
	assert.True(t, got.Success)
	assert.Equal(t, "105.00", got.EffectiveAmount)
	assert.Equal(t, "105.00", got.DebitAmount)
	assert.Equal(t, "895.00", got.AccountBalance)
	require.NotNil(t, got.Installment)
	assert.Equal(t, "PAID", got.Installment.Status)
	assert.Equal(t, "2024-01-20", got.Installment.DueDate)
	assert.False(t, got.ContractPaid)

	rec = api.do(http.MethodPost, path, "", SettleRequest{AccountID: acc.ID})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodGet, "/api/accounts/"+acc.ID, "", nil)
	assert.Equal(t, "895.00", decode[AccountDTO](t, rec).Balance)
}

func TestSettle_RejectionReasons(t *testing.T) {
	api := setupTestAPI(t)
	acc := createAccount(t, api, "1000.00")
	c := createLoan(t, api)
	path := "/api/installments/" + c.Installments[0].ID + "/settle"

	tests := []struct {
		name   string
		req    SettleRequest
		reason string
	}{
		{"discount above base", SettleRequest{AccountID: acc.ID, Discount: "100.01"}, "INVALID_DISCOUNT"},
		{"negative interest", SettleRequest{AccountID: acc.ID, Interest: "-1"}, "INVALID_ADJUSTMENT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(http.MethodPost, path, "", tt.req)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			assert.Equal(t, tt.reason, decode[SettlementDTO](t, rec).Reason)
		})
	}

	rec := api.do(http.MethodPost, path, "", SettleRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "account_id is required")

	rec = api.do(http.MethodPost, path, "", SettleRequest{AccountID: "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSettle_AllInstallmentsClosesContract(t *testing.T) {
	api := setupTestAPI(t)
	acc := createAccount(t, api, "300.00")
	c := createLoan(t, api)

	var last SettlementDTO
	for _, inst := range c.Installments {
		rec := api.do(http.MethodPost, "/api/installments/"+inst.ID+"/settle", "", SettleRequest{AccountID: acc.ID})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		last = decode[SettlementDTO](t, rec)
	}
	assert.True(t, last.ContractPaid)
	assert.Equal(t, "0.00", last.AccountBalance)

	rec := api.do(http.MethodGet, "/api/contracts/"+c.ID, "", nil)
	assert.Equal(t, "PAID", decode[ContractDTO](t, rec).Status)
}

func TestRegenerate_KeepsPaidInstallments(t *testing.T) {
	api := setupTestAPI(t)
	acc := createAccount(t, api, "1000.00")
	c := createLoan(t, api)

	rec := api.do(http.MethodPost, "/api/installments/"+c.Installments[0].ID+"/settle", "", SettleRequest{AccountID: acc.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	// WHEN: Raising the total to 400 over 3 installments
	rec = api.do(http.MethodPost, "/api/contracts/"+c.ID+"/regenerate", "", RegenerateRequest{
		TotalValue: "400.00", InstallmentsCount: 3, StartDate: "2024-03-01",
	})

	// THEN: The paid 100 stays, the remaining 300 is spread over 2 new rows
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[ContractDTO](t, rec)
	require.Len(t, got.Installments, 3)
	assert.Equal(t, "PAID", got.Installments[0].Status)
	assert.Equal(t, c.Installments[0].ID, got.Installments[0].ID)
	assert.Equal(t, "150.00", got.Installments[1].Amount)
	assert.Equal(t, 1, got.Installments[1].SequenceIndex)
	assert.Equal(t, "2024-04-01", got.Installments[2].DueDate)
	assert.True(t, got.Reconciliation.IsBalanced)

	// A total below what was paid is refused
	rec = api.do(http.MethodPost, "/api/contracts/"+c.ID+"/regenerate", "", RegenerateRequest{
		TotalValue: "50.00", InstallmentsCount: 3, StartDate: "2024-03-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// ADMIN & METRICS
// =============================================================================

func TestTriggerSnapshot_WritesMonthStartFigures(t *testing.T) {
	api := setupTestAPI(t)
	asset := createAsset(t, api, "", linearDesk())

	rec := api.do(http.MethodPost, "/api/admin/snapshots", "", map[string]string{"as_of": "2025-01-20"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[map[string]any](t, rec)
	assert.Equal(t, "2025-01-01", got["as_of"])
	assert.EqualValues(t, 1, got["written"])

	rec = api.do(http.MethodGet, "/api/assets/"+asset.ID+"/snapshots", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snaps := decode[[]SnapshotDTO](t, rec)
	require.Len(t, snaps, 1)
	assert.Equal(t, "9600.00", snaps[0].BookValue)
}

func TestMetricsEndpoint_ExposesSettlementCounter(t *testing.T) {
	api := setupTestAPI(t)
	acc := createAccount(t, api, "10.00")
	c := createLoan(t, api)
	api.do(http.MethodPost, "/api/installments/"+c.Installments[0].ID+"/settle", "", SettleRequest{AccountID: acc.ID})

	rec := api.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `amortization_settlement_attempts_total{outcome="INSUFFICIENT_BALANCE"}`)
	assert.Contains(t, body, "amortization_http_request_duration_seconds")
}

func TestHealthz(t *testing.T) {
	api := setupTestAPI(t)
	rec := api.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
