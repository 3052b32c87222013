/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

MONEY:
  Every amount crosses the wire as a decimal string with two places
  ("1234.50"), never as a JSON number.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Schedules:
    PreviewScheduleRequest, ReconcileScheduleRequest, ScheduleDTO, ReconciliationDTO

  Assets:
    factory.AssetJSON (request and response), MetricsDTO, ProjectionDTO,
    UsageRequest, DisposeRequest, DisposalDTO, SnapshotDTO

  Accounts:
    CreateAccountRequest, AccountDTO

  Contracts:
    factory.ContractJSON (request), ContractDTO, InstallmentDTO, RegenerateRequest

  Settlement:
    SettleRequest, SettlementDTO

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in the factory and the engines, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/factory.go: AssetJSON, ContractJSON, InstallmentJSON
*/
package api

import (
	"time"

	"github.com/warp/amortization-engine/amortization"
	"github.com/warp/amortization-engine/depreciation"
	"github.com/warp/amortization-engine/factory"
	"github.com/warp/amortization-engine/generic"
	"github.com/warp/amortization-engine/service"
)

// =============================================================================
// SCHEDULES
// =============================================================================

// PreviewScheduleRequest asks for the default plan of a contract.
type PreviewScheduleRequest struct {
	TotalValue        string `json:"total_value"`
	InstallmentsCount int    `json:"installments_count"`
	StartDate         string `json:"start_date"`
}

// ReconcileScheduleRequest checks a hand-edited plan against its total.
type ReconcileScheduleRequest struct {
	TotalValue   string                    `json:"total_value"`
	Installments []factory.InstallmentJSON `json:"installments"`
}

type ReconciliationDTO struct {
	TotalAllocated string `json:"total_allocated"`
	Difference     string `json:"difference"`
	IsBalanced     bool   `json:"is_balanced"`
}

type ScheduleDTO struct {
	Installments   []factory.InstallmentJSON `json:"installments"`
	Reconciliation ReconciliationDTO         `json:"reconciliation"`
}

func toReconciliationDTO(r amortization.Reconciliation) ReconciliationDTO {
	return ReconciliationDTO{
		TotalAllocated: factory.FormatMoney(r.TotalAllocated),
		Difference:     factory.FormatMoney(r.Difference),
		IsBalanced:     r.IsBalanced,
	}
}

// =============================================================================
// ASSETS
// =============================================================================

type MetricsDTO struct {
	AssetID                 string `json:"asset_id"`
	AsOf                    string `json:"as_of"`
	CurrentValue            string `json:"current_value"`
	AccumulatedDepreciation string `json:"accumulated_depreciation"`
	ProgressPercent         string `json:"progress_percent"`
	MonthsPassed            int    `json:"months_passed"`
	MonthsRemaining         int    `json:"months_remaining"`
}

func toMetricsDTO(id generic.AssetID, m depreciation.Metrics) MetricsDTO {
	return MetricsDTO{
		AssetID:                 string(id),
		AsOf:                    m.AsOf.String(),
		CurrentValue:            factory.FormatMoney(m.CurrentValue),
		AccumulatedDepreciation: factory.FormatMoney(m.AccumulatedDepreciation),
		ProgressPercent:         factory.FormatMoney(m.ProgressPercent),
		MonthsPassed:            m.MonthsPassed,
		MonthsRemaining:         m.MonthsRemaining,
	}
}

// YearRowDTO is one life-year of a projection.
type YearRowDTO struct {
	Year         int    `json:"year"`
	Start        string `json:"start"`
	End          string `json:"end"`
	OpeningValue string `json:"opening_value"`
	Depreciation string `json:"depreciation"`
	ClosingValue string `json:"closing_value"`
	Accumulated  string `json:"accumulated"`
}

type ProjectionDTO struct {
	AssetID string       `json:"asset_id"`
	Method  string       `json:"method"`
	Years   []YearRowDTO `json:"years"`
}

func toProjectionDTO(asset depreciation.Asset, rows []depreciation.YearRow) ProjectionDTO {
	years := make([]YearRowDTO, len(rows))
	for i, r := range rows {
		years[i] = YearRowDTO{
			Year:         r.Year,
			Start:        r.Period.Start.String(),
			End:          r.Period.End.String(),
			OpeningValue: factory.FormatMoney(r.OpeningValue),
			Depreciation: factory.FormatMoney(r.Depreciation),
			ClosingValue: factory.FormatMoney(r.ClosingValue),
			Accumulated:  factory.FormatMoney(r.Accumulated),
		}
	}
	return ProjectionDTO{AssetID: string(asset.ID), Method: string(asset.Method), Years: years}
}

// UsageRequest reports the new cumulative usage of a UNITS_OF_PRODUCTION asset.
type UsageRequest struct {
	Usage string `json:"usage"`
}

// DisposeRequest sells (proceeds > 0) or writes off (proceeds = 0 or empty) an asset.
type DisposeRequest struct {
	Proceeds string `json:"proceeds"`
	Date     string `json:"date"`
}

type DisposalDTO struct {
	AssetID     string `json:"asset_id"`
	AsOf        string `json:"as_of"`
	Status      string `json:"status"`
	BookValue   string `json:"book_value"`
	Accumulated string `json:"accumulated"`
	Proceeds    string `json:"proceeds"`
	GainOrLoss  string `json:"gain_or_loss"`
}

func toDisposalDTO(id generic.AssetID, d depreciation.Disposal) DisposalDTO {
	return DisposalDTO{
		AssetID:     string(id),
		AsOf:        d.AsOf.String(),
		Status:      string(d.Status),
		BookValue:   factory.FormatMoney(d.BookValue),
		Accumulated: factory.FormatMoney(d.Accumulated),
		Proceeds:    factory.FormatMoney(d.Proceeds),
		GainOrLoss:  factory.FormatMoney(d.GainOrLoss),
	}
}

type SnapshotDTO struct {
	AsOf            string `json:"as_of"`
	BookValue       string `json:"book_value"`
	Accumulated     string `json:"accumulated"`
	ProgressPercent string `json:"progress_percent"`
}

func toSnapshotDTOs(recs []generic.SnapshotRecord) []SnapshotDTO {
	out := make([]SnapshotDTO, len(recs))
	for i, r := range recs {
		out[i] = SnapshotDTO{
			AsOf:            r.AsOf.String(),
			BookValue:       factory.FormatMoney(r.BookValue),
			Accumulated:     factory.FormatMoney(r.Accumulated),
			ProgressPercent: factory.FormatMoney(r.ProgressPercent),
		}
	}
	return out
}

// =============================================================================
// ACCOUNTS
// =============================================================================

type CreateAccountRequest struct {
	Name    string `json:"name"`
	Balance string `json:"balance"`
}

type AccountDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Balance   string `json:"balance"`
	CreatedAt string `json:"created_at,omitempty"`
}

func toAccountDTO(a generic.AccountRecord) AccountDTO {
	dto := AccountDTO{
		ID:      string(a.ID),
		Name:    a.Name,
		Balance: factory.FormatMoney(a.Balance),
	}
	if !a.CreatedAt.IsZero() {
		dto.CreatedAt = a.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// CONTRACTS
// =============================================================================

type InstallmentDTO struct {
	ID            string `json:"id"`
	SequenceIndex int    `json:"sequence_index"`
	DueDate       string `json:"due_date"`
	Amount        string `json:"amount"`
	Status        string `json:"status"`
	AccountID     string `json:"account_id,omitempty"`
	Interest      string `json:"interest,omitempty"`
	Discount      string `json:"discount,omitempty"`
	PaidAt        string `json:"paid_at,omitempty"`
}

func toInstallmentDTO(r generic.InstallmentRecord) InstallmentDTO {
	dto := InstallmentDTO{
		ID:            string(r.ID),
		SequenceIndex: r.SequenceIndex,
		DueDate:       r.DueDate.String(),
		Amount:        factory.FormatMoney(r.Amount),
		Status:        string(r.Status),
		AccountID:     string(r.AccountID),
	}
	if r.Status == generic.InstallmentPaid {
		dto.Interest = factory.FormatMoney(r.Interest)
		dto.Discount = factory.FormatMoney(r.Discount)
	}
	if r.PaidAt != nil {
		dto.PaidAt = r.PaidAt.Format(time.RFC3339)
	}
	return dto
}

type ContractDTO struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Type              string            `json:"type"`
	TotalValue        string            `json:"total_value"`
	AcquisitionDate   string            `json:"acquisition_date"`
	InstallmentsCount int               `json:"installments_count"`
	Status            string            `json:"status"`
	Installments      []InstallmentDTO  `json:"installments"`
	Reconciliation    ReconciliationDTO `json:"reconciliation"`
}

func toContractDTO(c *service.Contract) ContractDTO {
	rows := make([]InstallmentDTO, len(c.Installments))
	for i, r := range c.Installments {
		rows[i] = toInstallmentDTO(r)
	}
	return ContractDTO{
		ID:                string(c.Item.ID),
		Name:              c.Item.Name,
		Type:              string(c.Item.Type),
		TotalValue:        factory.FormatMoney(c.Item.TotalValue),
		AcquisitionDate:   c.Item.AcquisitionDate.String(),
		InstallmentsCount: c.Item.InstallmentsCount,
		Status:            string(c.Item.Status),
		Installments:      rows,
		Reconciliation:    toReconciliationDTO(c.Reconciliation()),
	}
}

// RegenerateRequest replaces a contract's pending installments.
type RegenerateRequest struct {
	TotalValue        string `json:"total_value"`
	InstallmentsCount int    `json:"installments_count"`
	StartDate         string `json:"start_date"`
}

// =============================================================================
// SETTLEMENT
// =============================================================================

// SettleRequest pays an installment. BaseAmount defaults to the scheduled
// amount and PayDate to today.
type SettleRequest struct {
	AccountID  string  `json:"account_id"`
	PayDate    string  `json:"pay_date,omitempty"`
	BaseAmount *string `json:"base_amount,omitempty"`
	Interest   string  `json:"interest,omitempty"`
	Discount   string  `json:"discount,omitempty"`
}

type SettlementDTO struct {
	Success         bool            `json:"success"`
	Reason          string          `json:"reason,omitempty"`
	EffectiveAmount string          `json:"effective_amount"`
	DebitAmount     string          `json:"debit_amount"`
	Installment     *InstallmentDTO `json:"installment,omitempty"`
	AccountBalance  string          `json:"account_balance,omitempty"`
	ContractPaid    bool            `json:"contract_paid"`
}

func toSettlementDTO(s *service.Settlement) SettlementDTO {
	dto := SettlementDTO{
		Success:         s.Result.Success,
		Reason:          string(s.Result.Reason),
		EffectiveAmount: factory.FormatMoney(s.Result.EffectiveAmount),
		DebitAmount:     factory.FormatMoney(s.Result.DebitAmount),
		ContractPaid:    s.ContractPaid,
	}
	if s.Result.Success {
		inst := toInstallmentDTO(s.Installment)
		dto.Installment = &inst
		dto.AccountBalance = factory.FormatMoney(s.Account.Balance)
	}
	return dto
}

// =============================================================================
// SCENARIOS & ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ScenarioResultDTO lists the records a scenario created.
type ScenarioResultDTO struct {
	Scenario  string   `json:"scenario"`
	CompanyID string   `json:"company_id"`
	Accounts  []string `json:"accounts"`
	Assets    []string `json:"assets"`
	Contracts []string `json:"contracts"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
