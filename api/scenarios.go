/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	data for demos. Each scenario creates accounts, assets and contracts
	that exercise specific engine features.

AVAILABLE SCENARIOS:

	equipment-fleet:   One asset per depreciation method, acquired over the last years
	loan-settlement:   A loan, a well-funded account and an underfunded one
	edited-license:    A license contract with a hand-edited, balanced plan

HOW SCENARIOS WORK:
 1. Build records from JSON via the factory (same path as the API)
 2. Register them through the ledger service
 3. Return the IDs created so the caller can explore them

Dates are relative to the handler's Today, so metrics stay interesting
whenever the demo runs.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "loan-settlement"}

NOTE:

	Scenarios add records to the tenant selected by X-Company-ID; loading
	one twice creates a second copy.

SEE ALSO:
  - handlers.go: Handler dependencies
  - factory/factory.go: AssetJSON / ContractJSON
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/warp/amortization-engine/generic"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "equipment-fleet",
		Name:        "Equipment Fleet",
		Description: "Linear, sum-of-years, declining-balance and units-of-production assets",
	},
	{
		ID:          "loan-settlement",
		Name:        "Loan Settlement",
		Description: "A 12-installment loan with one funded and one underfunded cash account",
	},
	{
		ID:          "edited-license",
		Name:        "Edited License",
		Description: "Software license whose plan front-loads the first installment",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario loads a predefined scenario into the caller's tenant.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	company := companyID(r)
	result := ScenarioResultDTO{
		Scenario:  req.ScenarioID,
		CompanyID: string(company),
		Accounts:  []string{},
		Assets:    []string{},
		Contracts: []string{},
	}

	var err error
	switch req.ScenarioID {
	case "equipment-fleet":
		err = h.loadEquipmentFleetScenario(ctx, company, &result)
	case "loan-settlement":
		err = h.loadLoanSettlementScenario(ctx, company, &result)
	case "edited-license":
		err = h.loadEditedLicenseScenario(ctx, company, &result)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		h.writeDomainError(w, fmt.Sprintf("Failed to load scenario %s", req.ScenarioID), err)
		return
	}

	h.Log.Info().Str("company_id", string(company)).Str("scenario", req.ScenarioID).Msg("scenario loaded")
	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadEquipmentFleetScenario(ctx context.Context, company generic.CompanyID, out *ScenarioResultDTO) error {
	today := h.Today()
	assets := []string{
		fmt.Sprintf(`{"name": "Office furniture", "initial_value": "12000.00", "residual_value": "0.00",
			"acquisition_date": %q, "useful_life_months": 60, "method": "LINEAR"}`,
			today.AddMonths(-18).String()),
		fmt.Sprintf(`{"name": "Delivery van", "initial_value": "45000.00", "residual_value": "5000.00",
			"acquisition_date": %q, "useful_life_months": 48, "method": "SUM_OF_YEARS"}`,
			today.AddMonths(-24).String()),
		fmt.Sprintf(`{"name": "Laptops", "initial_value": "10000.00", "residual_value": "1000.00",
			"acquisition_date": %q, "useful_life_months": 60, "method": "DECLINING_BALANCE"}`,
			today.AddMonths(-30).String()),
		fmt.Sprintf(`{"name": "Stamping press", "initial_value": "80000.00", "residual_value": "8000.00",
			"acquisition_date": %q, "useful_life_months": 120, "method": "UNITS_OF_PRODUCTION",
			"usage_total_estimated": "500000", "usage_current": "135000"}`,
			today.AddMonths(-12).String()),
	}

	for _, js := range assets {
		asset, err := h.Factory.ParseAsset(js)
		if err != nil {
			return err
		}
		saved, err := h.Ledger.RegisterAsset(ctx, company, asset)
		if err != nil {
			return err
		}
		out.Assets = append(out.Assets, string(saved.ID))
	}
	return nil
}

func (h *Handler) loadLoanSettlementScenario(ctx context.Context, company generic.CompanyID, out *ScenarioResultDTO) error {
	for _, acc := range []struct {
		name    string
		balance string
	}{
		{"Operating account", "25000.00"},
		{"Petty cash", "50.00"},
	} {
		balance, err := generic.ParseMoney(acc.balance)
		if err != nil {
			return err
		}
		saved, err := h.Ledger.CreateAccount(ctx, company, acc.name, balance)
		if err != nil {
			return err
		}
		out.Accounts = append(out.Accounts, string(saved.ID))
	}

	// 10000 / 12 leaves a remainder on the first installment (833.37, then 833.33).
	item, rows, err := h.Factory.ParseContract(fmt.Sprintf(`{
		"name": "Equipment loan", "type": "LOAN", "total_value": "10000.00",
		"acquisition_date": %q, "installments_count": 12}`,
		h.Today().AddMonths(-1).String()))
	if err != nil {
		return err
	}
	contract, err := h.Ledger.CreateContract(ctx, company, item, rows)
	if err != nil {
		return err
	}
	out.Contracts = append(out.Contracts, string(contract.Item.ID))
	return nil
}

func (h *Handler) loadEditedLicenseScenario(ctx context.Context, company generic.CompanyID, out *ScenarioResultDTO) error {
	start := h.Today()
	item, rows, err := h.Factory.ParseContract(fmt.Sprintf(`{
		"name": "ERP license", "type": "LICENSE", "total_value": "3600.00",
		"acquisition_date": %q, "installments_count": 4,
		"installments": [
			{"sequence_index": 0, "due_date": %q, "amount": "1500.00"},
			{"sequence_index": 1, "due_date": %q, "amount": "700.00"},
			{"sequence_index": 2, "due_date": %q, "amount": "700.00"},
			{"sequence_index": 3, "due_date": %q, "amount": "700.00"}
		]}`,
		start.String(), start.String(), start.AddMonths(1).String(),
		start.AddMonths(2).String(), start.AddMonths(3).String()))
	if err != nil {
		return err
	}
	contract, err := h.Ledger.CreateContract(ctx, company, item, rows)
	if err != nil {
		return err
	}
	out.Contracts = append(out.Contracts, string(contract.Item.ID))
	return nil
}
