/*
handlers.go - HTTP API handlers for the amortization and depreciation engine

PURPOSE:
  Exposes the engines and the ledger service via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Schedules (stateless):
    POST   /api/schedules/preview          Default plan for total/count/start
    POST   /api/schedules/reconcile        Check an edited plan against its total

  Assets:
    GET    /api/assets                     List assets
    POST   /api/assets                     Register asset
    GET    /api/assets/{id}                Asset details
    GET    /api/assets/{id}/metrics        Depreciation at ?as_of= (default today)
    GET    /api/assets/{id}/projection     Year-by-year schedule
    GET    /api/assets/{id}/snapshots      Monthly snapshot history
    POST   /api/assets/{id}/usage          Record cumulative usage
    POST   /api/assets/{id}/dispose        Sell or write off

  Accounts:
    POST   /api/accounts                   Open cash account
    GET    /api/accounts/{id}              Account balance

  Contracts:
    POST   /api/contracts                  Create contract (+ optional edited plan)
    GET    /api/contracts/{id}             Contract with installments
    POST   /api/contracts/{id}/regenerate  Replace pending installments

  Settlement:
    POST   /api/installments/{id}/settle   Pay an installment from an account

  Admin:
    POST   /api/admin/snapshots            Write depreciation snapshots now

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Ledger: persistence-backed service over the engines
  - Factory: JSON to domain conversion
  - Log: zerolog logger

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed input, invalid configuration
  - 404: Record not found for the tenant
  - 409: Concurrent modification, already settled, retired asset
  - 422: Well-formed request the engine refused (unbalanced plan,
         settlement rejection)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/warp/amortization-engine/amortization"
	"github.com/warp/amortization-engine/depreciation"
	"github.com/warp/amortization-engine/factory"
	"github.com/warp/amortization-engine/generic"
	"github.com/warp/amortization-engine/service"
)

// CompanyHeader selects the tenant for every /api request.
const CompanyHeader = "X-Company-ID"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger  *service.Ledger
	Factory *factory.Factory
	Log     zerolog.Logger

	// Today resolves default dates (metrics as_of, pay date). Tests pin it.
	Today func() generic.TimePoint
}

// NewHandler creates a new handler over the given ledger.
func NewHandler(ledger *service.Ledger, logger zerolog.Logger) *Handler {
	return &Handler{
		Ledger:  ledger,
		Factory: factory.NewFactory(),
		Log:     logger.With().Str("component", "api").Logger(),
		Today:   generic.Today,
	}
}

func companyID(r *http.Request) generic.CompanyID {
	if c := strings.TrimSpace(r.Header.Get(CompanyHeader)); c != "" {
		return generic.CompanyID(c)
	}
	return generic.DefaultCompany
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

// PreviewSchedule returns the default plan without persisting it.
// POST /api/schedules/preview
func (h *Handler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	var req PreviewScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, "Invalid request body", err)
		return
	}
	total, err := parseMoney("total_value", req.TotalValue)
	if err != nil {
		h.writeDomainError(w, "Invalid total", err)
		return
	}
	start, err := h.parseDateOrToday("start_date", req.StartDate)
	if err != nil {
		h.writeDomainError(w, "Invalid start date", err)
		return
	}

	rows, err := h.Ledger.PreviewSchedule(total, req.InstallmentsCount, start)
	if err != nil {
		h.writeDomainError(w, "Cannot generate schedule", err)
		return
	}
	schedulesGenerated.Inc()

	writeJSON(w, http.StatusOK, ScheduleDTO{
		Installments:   h.Factory.InstallmentsToJSON(rows),
		Reconciliation: toReconciliationDTO(amortization.Reconcile(total, rows)),
	})
}

// ReconcileSchedule reports whether an edited plan sums to its total.
// An unbalanced plan is a normal answer (200 with is_balanced=false).
// POST /api/schedules/reconcile
func (h *Handler) ReconcileSchedule(w http.ResponseWriter, r *http.Request) {
	var req ReconcileScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, "Invalid request body", err)
		return
	}
	total, err := parseMoney("total_value", req.TotalValue)
	if err != nil {
		h.writeDomainError(w, "Invalid total", err)
		return
	}
	rows, err := h.Factory.InstallmentsFromJSON(req.Installments)
	if err != nil {
		h.writeDomainError(w, "Invalid installments", err)
		return
	}
	writeJSON(w, http.StatusOK, toReconciliationDTO(amortization.Reconcile(total, rows)))
}

// =============================================================================
// ASSET HANDLERS
// =============================================================================

// ListAssets returns all assets of the tenant.
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.Ledger.ListAssets(r.Context(), companyID(r))
	if err != nil {
		h.writeDomainError(w, "Failed to list assets", err)
		return
	}
	dtos := make([]factory.AssetJSON, len(assets))
	for i, a := range assets {
		dtos[i] = h.Factory.AssetToJSON(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAsset registers a fixed asset.
func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var req factory.AssetJSON
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, "Invalid request body", err)
		return
	}
	asset, err := h.Factory.AssetFromJSON(req)
	if err != nil {
		h.writeDomainError(w, "Invalid asset", err)
		return
	}
	asset, err = h.Ledger.RegisterAsset(r.Context(), companyID(r), asset)
	if err != nil {
		h.writeDomainError(w, "Failed to register asset", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.Factory.AssetToJSON(asset))
}

func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	asset, err := h.Ledger.GetAsset(r.Context(), companyID(r), generic.AssetID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "Asset not available", err)
		return
	}
	writeJSON(w, http.StatusOK, h.Factory.AssetToJSON(asset))
}

// GetAssetMetrics evaluates an asset at ?as_of=YYYY-MM-DD (default today).
func (h *Handler) GetAssetMetrics(w http.ResponseWriter, r *http.Request) {
	id := generic.AssetID(chi.URLParam(r, "id"))
	asOf, err := h.parseDateOrToday("as_of", r.URL.Query().Get("as_of"))
	if err != nil {
		h.writeDomainError(w, "Invalid as_of", err)
		return
	}
	m, err := h.Ledger.AssetMetrics(r.Context(), companyID(r), id, asOf)
	if err != nil {
		h.writeDomainError(w, "Cannot compute depreciation", err)
		return
	}
	writeJSON(w, http.StatusOK, toMetricsDTO(id, m))
}

func (h *Handler) GetAssetProjection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := generic.AssetID(chi.URLParam(r, "id"))
	asset, err := h.Ledger.GetAsset(ctx, companyID(r), id)
	if err != nil {
		h.writeDomainError(w, "Asset not available", err)
		return
	}
	rows, err := h.Ledger.AssetProjection(ctx, companyID(r), id)
	if err != nil {
		h.writeDomainError(w, "Cannot project depreciation", err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectionDTO(asset, rows))
}

func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.Ledger.ListSnapshots(r.Context(), companyID(r), generic.AssetID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "Failed to list snapshots", err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotDTOs(snaps))
}

// RecordUsage sets the cumulative usage of a UNITS_OF_PRODUCTION asset.
func (h *Handler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	var req UsageRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, "Invalid request body", err)
		return
	}
	usage, err := parseMoney("usage", req.Usage)
	if err != nil {
		h.writeDomainError(w, "Invalid usage", err)
		return
	}
	asset, err := h.Ledger.RecordUsage(r.Context(), companyID(r), generic.AssetID(chi.URLParam(r, "id")), usage)
	if err != nil {
		h.writeDomainError(w, "Cannot record usage", err)
		return
	}
	writeJSON(w, http.StatusOK, h.Factory.AssetToJSON(asset))
}

// DisposeAsset sells or writes off an asset.
func (h *Handler) DisposeAsset(w http.ResponseWriter, r *http.Request) {
	var req DisposeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, "Invalid request body", err)
		return
	}
	proceeds, err := parseOptionalMoney("proceeds", req.Proceeds)
	if err != nil {
		h.writeDomainError(w, "Invalid proceeds", err)
		return
	}
	date, err := h.parseDateOrToday("date", req.Date)
	if err != nil {
		h.writeDomainError(w, "Invalid date", err)
		return
	}

	id := generic.AssetID(chi.URLParam(r, "id"))
	disposal, err := h.Ledger.DisposeAsset(r.Context(), companyID(r), id, proceeds, date)
	if err != nil {
		h.writeDomainError(w, "Cannot dispose asset", err)
		return
	}
	writeJSON(w, http.StatusOK, toDisposalDTO(id, disposal))
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, "Invalid request body", err)
		return
	}
	balance, err := parseOptionalMoney("balance", req.Balance)
	if err != nil {
		h.writeDomainError(w, "Invalid balance", err)
		return
	}
	acc, err := h.Ledger.CreateAccount(r.Context(), companyID(r), req.Name, balance)
	if err != nil {
		h.writeDomainError(w, "Failed to create account", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(*acc))
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	acc, err := h.Ledger.GetAccount(r.Context(), companyID(r), generic.AccountID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "Account not available", err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(*acc))
}

// =============================================================================
// CONTRACT HANDLERS
// =============================================================================

// CreateContract stores a long-term item. Without "installments" the
// default plan is generated; with them the plan must reconcile exactly.
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req factory.ContractJSON
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, "Invalid request body", err)
		return
	}
	item, rows, err := h.Factory.ContractFromJSON(req)
	if err != nil {
		h.writeDomainError(w, "Invalid contract", err)
		return
	}
	if len(req.Installments) == 0 {
		schedulesGenerated.Inc()
	}

	contract, err := h.Ledger.CreateContract(r.Context(), companyID(r), item, rows)
	if err != nil {
		h.writeDomainError(w, "Failed to create contract", err)
		return
	}
	writeJSON(w, http.StatusCreated, toContractDTO(contract))
}

func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	contract, err := h.Ledger.GetContract(r.Context(), companyID(r), generic.ItemID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "Contract not available", err)
		return
	}
	writeJSON(w, http.StatusOK, toContractDTO(contract))
}

// RegenerateSchedule replaces a contract's pending installments. Paid
// installments are kept and counted against the new total.
func (h *Handler) RegenerateSchedule(w http.ResponseWriter, r *http.Request) {
	var req RegenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, "Invalid request body", err)
		return
	}
	total, err := parseMoney("total_value", req.TotalValue)
	if err != nil {
		h.writeDomainError(w, "Invalid total", err)
		return
	}
	start, err := h.parseDateOrToday("start_date", req.StartDate)
	if err != nil {
		h.writeDomainError(w, "Invalid start date", err)
		return
	}

	contract, err := h.Ledger.RegenerateSchedule(r.Context(), companyID(r),
		generic.ItemID(chi.URLParam(r, "id")), total, req.InstallmentsCount, start)
	if err != nil {
		h.writeDomainError(w, "Cannot regenerate schedule", err)
		return
	}
	schedulesGenerated.Inc()
	writeJSON(w, http.StatusOK, toContractDTO(contract))
}

// =============================================================================
// SETTLEMENT HANDLERS
// =============================================================================

// SettleInstallment pays one installment. A settlement the engine refuses
// answers 422 with the result body so clients see the reason and amounts.
// POST /api/installments/{id}/settle
func (h *Handler) SettleInstallment(w http.ResponseWriter, r *http.Request) {
	var req SettleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, "Invalid request body", err)
		return
	}
	if req.AccountID == "" {
		h.writeDomainError(w, "Invalid settlement", fmt.Errorf("%w: account_id is required", generic.ErrInvalidInput))
		return
	}

	in := service.SettleInput{
		InstallmentID: generic.InstallmentID(chi.URLParam(r, "id")),
		AccountID:     generic.AccountID(req.AccountID),
	}
	var err error
	if in.PayDate, err = h.parseDateOrToday("pay_date", req.PayDate); err != nil {
		h.writeDomainError(w, "Invalid pay date", err)
		return
	}
	if req.BaseAmount != nil {
		base, err := parseMoney("base_amount", *req.BaseAmount)
		if err != nil {
			h.writeDomainError(w, "Invalid base amount", err)
			return
		}
		in.BaseAmount = &base
	}
	if in.Interest, err = parseOptionalMoney("interest", req.Interest); err != nil {
		h.writeDomainError(w, "Invalid interest", err)
		return
	}
	if in.Discount, err = parseOptionalMoney("discount", req.Discount); err != nil {
		h.writeDomainError(w, "Invalid discount", err)
		return
	}

	out, err := h.Ledger.SettleInstallment(r.Context(), companyID(r), in)
	if err != nil {
		if out != nil && !out.Result.Success {
			settlementsTotal.WithLabelValues(string(out.Result.Reason)).Inc()
			writeJSON(w, http.StatusUnprocessableEntity, toSettlementDTO(out))
			return
		}
		settlementsTotal.WithLabelValues("error").Inc()
		h.writeDomainError(w, "Settlement failed", err)
		return
	}
	settlementsTotal.WithLabelValues("settled").Inc()
	writeJSON(w, http.StatusOK, toSettlementDTO(out))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// TriggerSnapshot writes month-start depreciation snapshots for all active
// assets now, the same work the scheduler does on its tick.
// POST /api/admin/snapshots
func (h *Handler) TriggerSnapshot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AsOf string `json:"as_of"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.writeDomainError(w, "Invalid request body", err)
			return
		}
	}
	asOf, err := h.parseDateOrToday("as_of", req.AsOf)
	if err != nil {
		h.writeDomainError(w, "Invalid as_of", err)
		return
	}
	n, err := h.Ledger.SnapshotDepreciation(r.Context(), asOf)
	snapshotsWritten.Add(float64(n))
	if err != nil {
		snapshotRunFailures.Inc()
		h.writeDomainError(w, "Snapshot failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"as_of":   generic.StartOfMonth(asOf.Year(), asOf.Month()).String(),
		"written": n,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine and store errors to HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Log.Error().Err(err).Msg(message)
	}
	writeError(w, status, message, err)
}

func statusFor(err error) int {
	switch {
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case generic.IsRetryable(err),
		errors.Is(err, generic.ErrAlreadySettled),
		errors.Is(err, depreciation.ErrAssetRetired):
		return http.StatusConflict
	case errors.Is(err, generic.ErrScheduleNotBalanced),
		errors.Is(err, generic.ErrInsufficientBalance),
		errors.Is(err, generic.ErrInvalidDiscount),
		errors.Is(err, generic.ErrInvalidAdjustment),
		errors.Is(err, depreciation.ErrTimeIndependent):
		return http.StatusUnprocessableEntity
	case generic.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", generic.ErrInvalidInput, err)
	}
	return nil
}

func parseMoney(field, s string) (decimal.Decimal, error) {
	d, err := generic.ParseMoney(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %q is not an amount", generic.ErrInvalidInput, field, s)
	}
	return d, nil
}

// parseOptionalMoney treats an empty string as zero.
func parseOptionalMoney(field, s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return parseMoney(field, s)
}

func (h *Handler) parseDateOrToday(field, s string) (generic.TimePoint, error) {
	if strings.TrimSpace(s) == "" {
		return h.Today(), nil
	}
	tp, err := generic.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return generic.TimePoint{}, fmt.Errorf("%w: %s: %q is not a YYYY-MM-DD date", generic.ErrInvalidInput, field, s)
	}
	return tp, nil
}
