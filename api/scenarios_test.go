/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario sets up the expected state through the same
	factory and ledger paths the API uses.
*/
package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/amortization-engine/generic"
)

func TestScenario_List(t *testing.T) {
	api := setupTestAPI(t)

	rec := api.do(http.MethodGet, "/api/scenarios", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]ScenarioDTO](t, rec)
	assert.Len(t, got, len(scenarios))
}

func TestScenario_EquipmentFleet(t *testing.T) {
	// GIVEN: The equipment fleet scenario
	// WHEN: Loading it for a tenant
	// THEN: One asset per method exists and every one evaluates

	api := setupTestAPI(t)
	rec := api.do(http.MethodPost, "/api/scenarios/load", "demo", LoadScenarioRequest{ScenarioID: "equipment-fleet"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[ScenarioResultDTO](t, rec)
	assert.Equal(t, "demo", res.CompanyID)
	require.Len(t, res.Assets, 4)

	ctx := context.Background()
	methods := map[string]bool{}
	for _, id := range res.Assets {
		asset, err := api.handler.Ledger.GetAsset(ctx, "demo", generic.AssetID(id))
		require.NoError(t, err)
		methods[string(asset.Method)] = true

		m, err := api.handler.Ledger.AssetMetrics(ctx, "demo", asset.ID, testToday)
		require.NoError(t, err)
		assert.True(t, m.AccumulatedDepreciation.IsPositive(), "%s should have depreciated", asset.Name)
	}
	assert.Len(t, methods, 4)
}

func TestScenario_LoanSettlement(t *testing.T) {
	api := setupTestAPI(t)
	ctx := context.Background()

	rec := api.do(http.MethodPost, "/api/scenarios/load", "", LoadScenarioRequest{ScenarioID: "loan-settlement"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[ScenarioResultDTO](t, rec)
	require.Len(t, res.Accounts, 2)
	require.Len(t, res.Contracts, 1)

	contract, err := api.handler.Ledger.GetContract(ctx, generic.DefaultCompany, generic.ItemID(res.Contracts[0]))
	require.NoError(t, err)
	require.Len(t, contract.Installments, 12)
	assert.Equal(t, "833.37", contract.Installments[0].Amount.StringFixed(2))
	assert.Equal(t, "833.33", contract.Installments[11].Amount.StringFixed(2))
	assert.True(t, contract.Reconciliation().IsBalanced)

	// The petty cash account can't cover an installment
	first := string(contract.Installments[0].ID)
	rec = api.do(http.MethodPost, "/api/installments/"+first+"/settle", "", SettleRequest{AccountID: res.Accounts[1]})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = api.do(http.MethodPost, "/api/installments/"+first+"/settle", "", SettleRequest{AccountID: res.Accounts[0]})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestScenario_EditedLicense(t *testing.T) {
	api := setupTestAPI(t)

	rec := api.do(http.MethodPost, "/api/scenarios/load", "", LoadScenarioRequest{ScenarioID: "edited-license"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[ScenarioResultDTO](t, rec)
	require.Len(t, res.Contracts, 1)

	rec = api.do(http.MethodGet, "/api/contracts/"+res.Contracts[0], "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	c := decode[ContractDTO](t, rec)
	assert.Equal(t, "1500.00", c.Installments[0].Amount)
	assert.True(t, c.Reconciliation.IsBalanced)
}

func TestScenario_Unknown(t *testing.T) {
	api := setupTestAPI(t)

	rec := api.do(http.MethodPost, "/api/scenarios/load", "", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
