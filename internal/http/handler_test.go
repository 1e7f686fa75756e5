package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/contracts-service/internal/config"
	"github.com/nurpe/contracts-service/internal/dbtest"
	"github.com/nurpe/contracts-service/internal/excel"
	"github.com/nurpe/contracts-service/internal/model"
	"github.com/nurpe/contracts-service/internal/pdf"
	"github.com/nurpe/contracts-service/internal/repository"
	"github.com/nurpe/contracts-service/internal/service"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	database := dbtest.NewTestDB(t)

	ledger := service.NewLedger(repository.NewLedgerRepository(database), config.LedgerConfig{
		Concurrency:     config.ConcurrencySerialized,
		NearExpiryRatio: 0.8,
	})
	exports := service.NewExportService(
		repository.NewExportRepository(database),
		excel.NewGenerator(),
		pdf.NewGenerator(),
		service.SystemClock{},
	)
	handler := NewHandler(ledger, exports, zerolog.Nop())
	return NewRouter(handler, zerolog.Nop(), "test", []string{"*"})
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func createContract(t *testing.T, router *gin.Engine, body gin.H) contractCreatedResponse {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/contracts", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[contractCreatedResponse](t, rec)
}

func addIntervention(t *testing.T, router *gin.Engine, contractID string, hours float64, billable bool) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/interventions", gin.H{
		"contractId":  contractID,
		"date":        "2026-03-02",
		"description": "Maintenance serveur",
		"hoursUsed":   hours,
		"technician":  "Julie",
		"isBillable":  billable,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[map[string]string](t, rec)["id"]
}

func getContract(t *testing.T, router *gin.Engine, id string) model.Contract {
	t.Helper()
	rec := doJSON(t, router, http.MethodGet, "/contracts/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[model.Contract](t, rec)
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCreateContract(t *testing.T) {
	router := newTestRouter(t)

	first := createContract(t, router, gin.H{"clientName": "Acme", "totalHours": 10})
	assert.Equal(t, int64(1), first.ContractNumber)
	assert.Equal(t, "Acme", first.ClientName)
	assert.Equal(t, model.ContractTypeQuote, first.ContractType)
	assert.Nil(t, first.SignedDate)

	second := createContract(t, router, gin.H{"clientName": "Globex", "totalHours": 0, "contractType": "signed"})
	assert.Equal(t, int64(2), second.ContractNumber)
	assert.Equal(t, model.ContractTypeSigned, second.ContractType)
	assert.NotNil(t, second.SignedDate)
}

func TestCreateContract_Validation(t *testing.T) {
	router := newTestRouter(t)

	cases := map[string]gin.H{
		"missing hours":  {"clientName": "Acme"},
		"negative hours": {"clientName": "Acme", "totalHours": -1},
		"missing client": {"totalHours": 4},
		"unknown type":   {"clientName": "Acme", "totalHours": 4, "contractType": "draft"},
		"bad client id":  {"clientId": "nope", "totalHours": 4},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/contracts", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestInterventionLifecycle(t *testing.T) {
	router := newTestRouter(t)
	contract := createContract(t, router, gin.H{"clientName": "Acme", "totalHours": 10})
	id := contract.ID.String()

	ivID := addIntervention(t, router, id, 3, true)
	addIntervention(t, router, id, 2, false)
	assert.Equal(t, 3.0, getContract(t, router, id).UsedHours)

	rec := doJSON(t, router, http.MethodPut, "/interventions/"+ivID, gin.H{
		"date":        "2026-03-03T10:00:00Z",
		"description": "Maintenance serveur",
		"hoursUsed":   9,
		"technician":  "Julie",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := getContract(t, router, id)
	assert.Equal(t, 9.0, updated.UsedHours)
	assert.Equal(t, model.ContractStatusNearExpiry, updated.Status)

	rec = doJSON(t, router, http.MethodGet, "/contracts/"+id+"/interventions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Intervention](t, rec), 2)

	rec = doJSON(t, router, http.MethodDelete, "/interventions/"+ivID+"?contractId="+id, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 0.0, getContract(t, router, id).UsedHours)

	rec = doJSON(t, router, http.MethodGet, "/interventions/"+ivID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateIntervention_Errors(t *testing.T) {
	router := newTestRouter(t)
	contract := createContract(t, router, gin.H{"clientName": "Acme", "totalHours": 10})

	rec := doJSON(t, router, http.MethodPost, "/interventions", gin.H{
		"contractId":  "0b7f3c52-7c36-4a8e-9a57-3d4f0a1d5e11",
		"date":        "2026-03-02",
		"description": "x",
		"hoursUsed":   1,
		"technician":  "Julie",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/interventions", gin.H{
		"contractId":  contract.ID.String(),
		"date":        "02/03/2026",
		"description": "x",
		"hoursUsed":   1,
		"technician":  "Julie",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/interventions", gin.H{
		"contractId":  contract.ID.String(),
		"date":        "2026-03-02",
		"description": "x",
		"hoursUsed":   1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteIntervention_WrongContract(t *testing.T) {
	router := newTestRouter(t)
	a := createContract(t, router, gin.H{"clientName": "Acme", "totalHours": 10})
	b := createContract(t, router, gin.H{"clientName": "Globex", "totalHours": 10})
	ivID := addIntervention(t, router, a.ID.String(), 4, true)

	rec := doJSON(t, router, http.MethodDelete, "/interventions/"+ivID+"?contractId="+b.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 4.0, getContract(t, router, a.ID.String()).UsedHours)
}

func TestArchiveAndSign(t *testing.T) {
	router := newTestRouter(t)
	contract := createContract(t, router, gin.H{"clientName": "Acme", "totalHours": 10})
	id := contract.ID.String()

	rec := doJSON(t, router, http.MethodPatch, "/contracts/"+id+"/sign", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	signed := decode[struct {
		Success    bool      `json:"success"`
		SignedDate time.Time `json:"signedDate"`
	}](t, rec)
	assert.True(t, signed.Success)
	assert.False(t, signed.SignedDate.IsZero())
	assert.Equal(t, model.ContractTypeSigned, getContract(t, router, id).ContractType)

	rec = doJSON(t, router, http.MethodPatch, "/contracts/"+id+"/archive", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/contracts?archived=false", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]model.Contract](t, rec))

	rec = doJSON(t, router, http.MethodGet, "/contracts?archived=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Contract](t, rec), 1)

	rec = doJSON(t, router, http.MethodPatch, "/contracts/"+id+"/unarchive", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, getContract(t, router, id).IsArchived)

	rec = doJSON(t, router, http.MethodGet, "/contracts?archived=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownContract(t *testing.T) {
	router := newTestRouter(t)
	missing := "/contracts/0b7f3c52-7c36-4a8e-9a57-3d4f0a1d5e11"

	assert.Equal(t, http.StatusNotFound, doJSON(t, router, http.MethodGet, missing, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, router, http.MethodPatch, missing+"/archive", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, router, http.MethodPatch, missing+"/sign", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, router, http.MethodPost, missing+"/renew", gin.H{"totalHours": 5}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, router, http.MethodGet, "/contracts/42", nil).Code)
}

func TestRenewCarriesOverage(t *testing.T) {
	router := newTestRouter(t)
	contract := createContract(t, router, gin.H{"clientName": "Acme", "totalHours": 10})
	id := contract.ID.String()
	addIntervention(t, router, id, 14, true)

	rec := doJSON(t, router, http.MethodPost, "/contracts/"+id+"/renew", gin.H{"totalHours": 20})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	renewed := decode[struct {
		ID         string  `json:"id"`
		ClientName string  `json:"clientName"`
		TotalHours float64 `json:"totalHours"`
	}](t, rec)
	assert.Equal(t, "Acme", renewed.ClientName)
	assert.Equal(t, 20.0, renewed.TotalHours)

	successor := getContract(t, router, renewed.ID)
	assert.Equal(t, 4.0, successor.UsedHours)
	require.Len(t, successor.Interventions, 1)
	assert.Equal(t, model.RolloverTechnician, successor.Interventions[0].Technician)
	assert.Equal(t, "Maintenance serveur (reporté)", successor.Interventions[0].Description)

	assert.True(t, getContract(t, router, id).IsArchived)

	rec = doJSON(t, router, http.MethodPost, "/contracts/"+id+"/renew", gin.H{"totalHours": 20})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/contracts/"+id+"/renew", gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndRecalculate(t *testing.T) {
	router := newTestRouter(t)
	contract := createContract(t, router, gin.H{"clientName": "Acme", "totalHours": 10})
	id := contract.ID.String()
	addIntervention(t, router, id, 6, true)

	rec := doJSON(t, router, http.MethodPatch, "/contracts/"+id, gin.H{"totalHours": 6, "internalNotes": "prioritaire"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[model.Contract](t, rec)
	assert.Equal(t, model.ContractStatusExpired, updated.Status)
	assert.Equal(t, "prioritaire", updated.InternalNotes)

	rec = doJSON(t, router, http.MethodPost, "/contracts/"+id+"/recalculate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"usedHours":6}`, rec.Body.String())
}

func TestClients(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/clients", gin.H{"name": "Initech"})
	require.Equal(t, http.StatusCreated, rec.Code)
	client := decode[model.Client](t, rec)

	rec = doJSON(t, router, http.MethodPost, "/clients", gin.H{"name": "Initech"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	contract := createContract(t, router, gin.H{"clientId": client.ID.String(), "totalHours": 3})
	assert.Equal(t, "Initech", contract.ClientName)

	rec = doJSON(t, router, http.MethodGet, "/clients", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Client](t, rec), 1)

	rec = doJSON(t, router, http.MethodDelete, "/clients/"+client.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, router, http.MethodGet, "/contracts/"+contract.ID.String(), nil).Code)
}

func TestExports(t *testing.T) {
	router := newTestRouter(t)
	contract := createContract(t, router, gin.H{"clientName": "Acme", "totalHours": 10})
	addIntervention(t, router, contract.ID.String(), 2, true)

	rec := doJSON(t, router, http.MethodGet, "/exports/contracts.xlsx?archived=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	rec = doJSON(t, router, http.MethodGet, "/contracts/"+contract.ID.String()+"/statement.pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "contrat-1.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

func TestParseDate(t *testing.T) {
	for _, raw := range []string{"2026-03-02", "2026-03-02T10:00:00Z", "2026-03-02T10:00:00", "2026-03-02T10:00"} {
		_, err := parseDate(raw)
		assert.NoError(t, err, raw)
	}
	_, err := parseDate("")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	_, err = parseDate("mars")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}
