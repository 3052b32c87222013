/*
Package factory provides JSON to Go conversion for assets and contracts.

PURPOSE:
  Converts JSON asset and contract definitions into depreciation.Asset and
  amortization.LongTermItem values. The HTTP API, the demo scenarios and the
  amortctl CLI all accept the same JSON, and this package is the single
  place that validates it.

MONEY IN JSON:
  Money is always a decimal string ("1000.00"), never a JSON number, so no
  value passes through float64 on its way in or out.

ASSET SCHEMA:
  {
    "id": "forklift-01",
    "name": "Forklift",
    "initial_value": "50000.00",
    "residual_value": "5000.00",
    "acquisition_date": "2024-01-15",
    "useful_life_months": 60,
    "method": "DECLINING_BALANCE",
    "usage_total_estimated": "10000",   // UNITS_OF_PRODUCTION only
    "usage_current": "2500",            // UNITS_OF_PRODUCTION only
    "status": "ACTIVE"
  }

CONTRACT SCHEMA:
  {
    "id": "loan-2024",
    "name": "Equipment loan",
    "type": "LOAN",
    "total_value": "1000.00",
    "acquisition_date": "2024-01-01",
    "installments_count": 3,
    "installments": [                    // optional, hand-edited plan
      {"sequence_index": 0, "due_date": "2024-01-01", "amount": "400.00"},
      ...
    ]
  }

  Without "installments" the default plan is generated. With them, the plan
  is used as given and must reconcile to total_value.

DEFAULTS:
  - method: LINEAR
  - status: ACTIVE
  - id: left empty for the service to assign

SEE ALSO:
  - depreciation/types.go: Asset
  - amortization/types.go: LongTermItem, InstallmentPreview
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/amortization-engine/amortization"
	"github.com/warp/amortization-engine/depreciation"
	"github.com/warp/amortization-engine/generic"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// AssetJSON is the JSON representation of a fixed asset.
type AssetJSON struct {
	ID                  string  `json:"id,omitempty"`
	Name                string  `json:"name"`
	InitialValue        string  `json:"initial_value"`
	ResidualValue       string  `json:"residual_value"`
	AcquisitionDate     string  `json:"acquisition_date"`
	UsefulLifeMonths    int     `json:"useful_life_months"`
	Method              string  `json:"method,omitempty"`
	UsageTotalEstimated *string `json:"usage_total_estimated,omitempty"`
	UsageCurrent        *string `json:"usage_current,omitempty"`
	Status              string  `json:"status,omitempty"`
}

// ContractJSON is the JSON representation of a long-term item and,
// optionally, its edited installment plan.
type ContractJSON struct {
	ID                string            `json:"id,omitempty"`
	Name              string            `json:"name"`
	Type              string            `json:"type"`
	TotalValue        string            `json:"total_value"`
	AcquisitionDate   string            `json:"acquisition_date"`
	InstallmentsCount int               `json:"installments_count"`
	Status            string            `json:"status,omitempty"`
	Installments      []InstallmentJSON `json:"installments,omitempty"`
}

// InstallmentJSON is one schedule row.
type InstallmentJSON struct {
	SequenceIndex int    `json:"sequence_index"`
	DueDate       string `json:"due_date"`
	Amount        string `json:"amount"`
}

// =============================================================================
// FACTORY
// =============================================================================

// Factory converts JSON definitions to engine values.
type Factory struct{}

// NewFactory creates a new factory.
func NewFactory() *Factory {
	return &Factory{}
}

// ParseAsset parses a JSON string into an Asset.
func (f *Factory) ParseAsset(jsonStr string) (depreciation.Asset, error) {
	var aj AssetJSON
	if err := json.Unmarshal([]byte(jsonStr), &aj); err != nil {
		return depreciation.Asset{}, fmt.Errorf("%w: failed to parse asset JSON: %v", generic.ErrInvalidInput, err)
	}
	return f.AssetFromJSON(aj)
}

// AssetFromJSON converts AssetJSON to a validated depreciation.Asset.
// CompanyID is left for the caller to set.
func (f *Factory) AssetFromJSON(aj AssetJSON) (depreciation.Asset, error) {
	initial, err := parseMoneyField("initial_value", aj.InitialValue)
	if err != nil {
		return depreciation.Asset{}, err
	}
	residual, err := parseMoneyField("residual_value", aj.ResidualValue)
	if err != nil {
		return depreciation.Asset{}, err
	}
	acquired, err := parseDateField("acquisition_date", aj.AcquisitionDate)
	if err != nil {
		return depreciation.Asset{}, err
	}

	method := depreciation.MethodLinear
	if aj.Method != "" {
		if method, err = depreciation.ParseMethod(aj.Method); err != nil {
			return depreciation.Asset{}, err
		}
	}

	status := depreciation.StatusActive
	if aj.Status != "" {
		status = depreciation.Status(aj.Status)
		switch status {
		case depreciation.StatusActive, depreciation.StatusSold, depreciation.StatusWrittenOff:
		default:
			return depreciation.Asset{}, fmt.Errorf("%w: unknown status %q", generic.ErrInvalidAsset, aj.Status)
		}
	}

	asset := depreciation.Asset{
		ID:               generic.AssetID(aj.ID),
		Name:             aj.Name,
		InitialValue:     initial,
		ResidualValue:    residual,
		AcquisitionDate:  acquired,
		UsefulLifeMonths: aj.UsefulLifeMonths,
		Method:           method,
		Status:           status,
	}
	if asset.UsageTotalEstimated, err = parseOptionalMoney("usage_total_estimated", aj.UsageTotalEstimated); err != nil {
		return depreciation.Asset{}, err
	}
	if asset.UsageCurrent, err = parseOptionalMoney("usage_current", aj.UsageCurrent); err != nil {
		return depreciation.Asset{}, err
	}

	if err := asset.Validate(); err != nil {
		return depreciation.Asset{}, err
	}
	return asset, nil
}

// AssetToJSON converts an Asset back to its JSON form.
func (f *Factory) AssetToJSON(a depreciation.Asset) AssetJSON {
	aj := AssetJSON{
		ID:               string(a.ID),
		Name:             a.Name,
		InitialValue:     formatMoney(a.InitialValue),
		ResidualValue:    formatMoney(a.ResidualValue),
		AcquisitionDate:  a.AcquisitionDate.String(),
		UsefulLifeMonths: a.UsefulLifeMonths,
		Method:           string(a.Method),
		Status:           string(a.Status),
	}
	if a.UsageTotalEstimated != nil {
		s := a.UsageTotalEstimated.String()
		aj.UsageTotalEstimated = &s
	}
	if a.UsageCurrent != nil {
		s := a.UsageCurrent.String()
		aj.UsageCurrent = &s
	}
	return aj
}

// ParseContract parses a JSON string into a LongTermItem and its plan.
func (f *Factory) ParseContract(jsonStr string) (amortization.LongTermItem, []amortization.InstallmentPreview, error) {
	var cj ContractJSON
	if err := json.Unmarshal([]byte(jsonStr), &cj); err != nil {
		return amortization.LongTermItem{}, nil, fmt.Errorf("%w: failed to parse contract JSON: %v", generic.ErrInvalidInput, err)
	}
	return f.ContractFromJSON(cj)
}

// ContractFromJSON converts ContractJSON into a validated item plus its
// installment plan. A hand-edited plan must reconcile to the total.
func (f *Factory) ContractFromJSON(cj ContractJSON) (amortization.LongTermItem, []amortization.InstallmentPreview, error) {
	total, err := parseMoneyField("total_value", cj.TotalValue)
	if err != nil {
		return amortization.LongTermItem{}, nil, err
	}
	acquired, err := parseDateField("acquisition_date", cj.AcquisitionDate)
	if err != nil {
		return amortization.LongTermItem{}, nil, err
	}

	item := amortization.LongTermItem{
		ID:                generic.ItemID(cj.ID),
		Name:              cj.Name,
		Type:              amortization.ItemType(cj.Type),
		TotalValue:        total,
		AcquisitionDate:   acquired,
		InstallmentsCount: cj.InstallmentsCount,
		Status:            amortization.ItemActive,
	}
	if cj.Status != "" {
		item.Status = amortization.ItemStatus(cj.Status)
	}
	// An explicit plan defines the count when none was given.
	if item.InstallmentsCount == 0 && len(cj.Installments) > 0 {
		item.InstallmentsCount = len(cj.Installments)
	}

	if len(cj.Installments) == 0 {
		rows, err := amortization.GenerateFor(item)
		if err != nil {
			return amortization.LongTermItem{}, nil, err
		}
		return item, rows, nil
	}

	if err := item.Validate(); err != nil {
		return amortization.LongTermItem{}, nil, err
	}
	if len(cj.Installments) != item.InstallmentsCount {
		return amortization.LongTermItem{}, nil, fmt.Errorf("%w: %d installments given for a count of %d",
			generic.ErrInvalidScheduleConfiguration, len(cj.Installments), item.InstallmentsCount)
	}
	rows, err := f.InstallmentsFromJSON(cj.Installments)
	if err != nil {
		return amortization.LongTermItem{}, nil, err
	}
	confirmed, err := amortization.FromRows(total, rows).Confirm()
	if err != nil {
		return amortization.LongTermItem{}, nil, err
	}
	return item, confirmed, nil
}

// InstallmentsFromJSON converts plan rows, keeping their order.
func (f *Factory) InstallmentsFromJSON(rows []InstallmentJSON) ([]amortization.InstallmentPreview, error) {
	out := make([]amortization.InstallmentPreview, 0, len(rows))
	for i, r := range rows {
		amount, err := parseMoneyField(fmt.Sprintf("installments[%d].amount", i), r.Amount)
		if err != nil {
			return nil, err
		}
		due, err := parseDateField(fmt.Sprintf("installments[%d].due_date", i), r.DueDate)
		if err != nil {
			return nil, err
		}
		out = append(out, amortization.InstallmentPreview{
			SequenceIndex: r.SequenceIndex,
			DueDate:       due,
			Amount:        amount,
		})
	}
	return out, nil
}

// InstallmentsToJSON converts plan rows to their JSON form.
func (f *Factory) InstallmentsToJSON(rows []amortization.InstallmentPreview) []InstallmentJSON {
	out := make([]InstallmentJSON, len(rows))
	for i, r := range rows {
		out[i] = InstallmentJSON{
			SequenceIndex: r.SequenceIndex,
			DueDate:       r.DueDate.String(),
			Amount:        formatMoney(r.Amount),
		}
	}
	return out
}

// ContractToJSON converts an item and its plan back to JSON.
func (f *Factory) ContractToJSON(item amortization.LongTermItem, rows []amortization.InstallmentPreview) ContractJSON {
	return ContractJSON{
		ID:                string(item.ID),
		Name:              item.Name,
		Type:              string(item.Type),
		TotalValue:        formatMoney(item.TotalValue),
		AcquisitionDate:   item.AcquisitionDate.String(),
		InstallmentsCount: item.InstallmentsCount,
		Status:            string(item.Status),
		Installments:      f.InstallmentsToJSON(rows),
	}
}

// =============================================================================
// FIELD PARSING
// =============================================================================

func parseMoneyField(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: %s is required", generic.ErrInvalidInput, field)
	}
	d, err := generic.ParseMoney(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q: %v", generic.ErrInvalidInput, field, s, err)
	}
	return d, nil
}

func parseOptionalMoney(field string, s *string) (*decimal.Decimal, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := parseMoneyField(field, *s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseDateField(field, s string) (generic.TimePoint, error) {
	if s == "" {
		return generic.TimePoint{}, fmt.Errorf("%w: %s is required", generic.ErrInvalidInput, field)
	}
	tp, err := generic.ParseDate(s)
	if err != nil {
		return generic.TimePoint{}, fmt.Errorf("%w: %s %q: %v", generic.ErrInvalidInput, field, s, err)
	}
	return tp, nil
}

// FormatMoney renders money with exactly two decimals.
func FormatMoney(d decimal.Decimal) string { return formatMoney(d) }

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(generic.MoneyPlaces)
}
