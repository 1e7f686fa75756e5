package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/contracts-service/internal/model"
	"github.com/nurpe/contracts-service/internal/service"
)

type Handler struct {
	ledger  *service.Ledger
	exports *service.ExportService
	log     zerolog.Logger
}

func NewHandler(ledger *service.Ledger, exports *service.ExportService, log zerolog.Logger) *Handler {
	return &Handler{ledger: ledger, exports: exports, log: log}
}

func (h *Handler) Register(router *gin.Engine) {
	contracts := router.Group("/contracts")
	contracts.GET("", h.listContracts)
	contracts.POST("", h.createContract)
	contracts.GET("/:id", h.getContract)
	contracts.PATCH("/:id", h.updateContract)
	contracts.PATCH("/:id/archive", h.archiveContract)
	contracts.PATCH("/:id/unarchive", h.unarchiveContract)
	contracts.PATCH("/:id/sign", h.signContract)
	contracts.POST("/:id/renew", h.renewContract)
	contracts.POST("/:id/recalculate", h.recalculateContract)
	contracts.GET("/:id/interventions", h.listInterventions)
	contracts.GET("/:id/statement.pdf", h.contractStatement)

	interventions := router.Group("/interventions")
	interventions.POST("", h.createIntervention)
	interventions.GET("/:id", h.getIntervention)
	interventions.PUT("/:id", h.updateIntervention)
	interventions.DELETE("/:id", h.deleteIntervention)

	clients := router.Group("/clients")
	clients.GET("", h.listClients)
	clients.POST("", h.createClient)
	clients.DELETE("/:id", h.deleteClient)

	router.GET("/exports/contracts.xlsx", h.exportWorkbook)
}

type createContractRequest struct {
	ClientName    string   `json:"clientName"`
	ClientID      *string  `json:"clientId"`
	TotalHours    *float64 `json:"totalHours" binding:"required"`
	ContractType  string   `json:"contractType"`
	InternalNotes string   `json:"internalNotes"`
}

type contractCreatedResponse struct {
	ID             uuid.UUID          `json:"id"`
	ContractNumber int64              `json:"contractNumber"`
	ClientName     string             `json:"clientName"`
	TotalHours     float64            `json:"totalHours"`
	CreatedDate    time.Time          `json:"createdDate"`
	ContractType   model.ContractType `json:"contractType"`
	SignedDate     *time.Time         `json:"signedDate"`
}

func (h *Handler) createContract(c *gin.Context) {
	var req createContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.CreateContractInput{
		ClientName:    req.ClientName,
		TotalHours:    *req.TotalHours,
		ContractType:  model.ContractType(strings.ToLower(strings.TrimSpace(req.ContractType))),
		InternalNotes: req.InternalNotes,
	}
	if req.ClientID != nil && strings.TrimSpace(*req.ClientID) != "" {
		clientID, err := uuid.Parse(strings.TrimSpace(*req.ClientID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid clientId"})
			return
		}
		input.ClientID = &clientID
	}

	contract, err := h.ledger.CreateContract(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, contractCreatedResponse{
		ID:             contract.ID,
		ContractNumber: contract.ContractNumber,
		ClientName:     contract.ClientName,
		TotalHours:     contract.TotalHours,
		CreatedDate:    contract.CreatedDate,
		ContractType:   contract.ContractType,
		SignedDate:     contract.SignedDate,
	})
}

func (h *Handler) listContracts(c *gin.Context) {
	archived, err := parseOptionalBool(c.Query("archived"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid archived"})
		return
	}

	contracts, err := h.ledger.ListContracts(c.Request.Context(), archived)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contracts)
}

func (h *Handler) getContract(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	contract, err := h.ledger.GetContract(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

type updateContractRequest struct {
	ClientName    *string  `json:"clientName"`
	TotalHours    *float64 `json:"totalHours"`
	InternalNotes *string  `json:"internalNotes"`
}

func (h *Handler) updateContract(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contract, err := h.ledger.UpdateContract(c.Request.Context(), id, service.UpdateContractInput{
		ClientName:    req.ClientName,
		TotalHours:    req.TotalHours,
		InternalNotes: req.InternalNotes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) archiveContract(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.ledger.Archive(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) unarchiveContract(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.ledger.Unarchive(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) signContract(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	signedAt, err := h.ledger.Sign(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "signedDate": signedAt})
}

type renewContractRequest struct {
	TotalHours *float64 `json:"totalHours" binding:"required"`
}

func (h *Handler) renewContract(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req renewContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contract, err := h.ledger.Renew(c.Request.Context(), id, *req.TotalHours)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":          contract.ID,
		"clientName":  contract.ClientName,
		"totalHours":  contract.TotalHours,
		"createdDate": contract.CreatedDate,
	})
}

func (h *Handler) recalculateContract(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	used, err := h.ledger.RecalculateUsedHours(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"usedHours": used})
}

func (h *Handler) listInterventions(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	interventions, err := h.ledger.ListInterventions(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, interventions)
}

func (h *Handler) contractStatement(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	result, err := h.exports.Statement(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

type interventionRequest struct {
	ContractID  string   `json:"contractId"`
	Date        string   `json:"date"`
	Description string   `json:"description"`
	HoursUsed   *float64 `json:"hoursUsed" binding:"required"`
	Technician  string   `json:"technician"`
	IsBillable  *bool    `json:"isBillable"`
	Location    *string  `json:"location"`
}

func (r interventionRequest) toInput() (service.InterventionInput, error) {
	date, err := parseDate(r.Date)
	if err != nil {
		return service.InterventionInput{}, err
	}
	return service.InterventionInput{
		Date:        date,
		Description: r.Description,
		HoursUsed:   *r.HoursUsed,
		Technician:  r.Technician,
		IsBillable:  r.IsBillable,
		Location:    r.Location,
	}, nil
}

func (h *Handler) createIntervention(c *gin.Context) {
	var req interventionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contractID, err := uuid.Parse(strings.TrimSpace(req.ContractID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contractId"})
		return
	}
	input, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}

	intervention, err := h.ledger.AddIntervention(c.Request.Context(), contractID, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": intervention.ID})
}

func (h *Handler) getIntervention(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	intervention, err := h.ledger.GetIntervention(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, intervention)
}

func (h *Handler) updateIntervention(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req interventionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}

	if _, err := h.ledger.UpdateIntervention(c.Request.Context(), id, input); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) deleteIntervention(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var contractID *uuid.UUID
	if raw := strings.TrimSpace(c.Query("contractId")); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contractId"})
			return
		}
		contractID = &parsed
	}

	if err := h.ledger.DeleteIntervention(c.Request.Context(), id, contractID); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) listClients(c *gin.Context) {
	clients, err := h.ledger.ListClients(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, clients)
}

type createClientRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) createClient(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	client, err := h.ledger.CreateClient(c.Request.Context(), req.Name)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

func (h *Handler) deleteClient(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.ledger.DeleteClient(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) exportWorkbook(c *gin.Context) {
	archived, err := parseOptionalBool(c.Query("archived"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid archived"})
		return
	}
	includeArchived := archived != nil && *archived

	result, err := h.exports.Workbook(c.Request.Context(), includeArchived)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func parseOptionalBool(raw string) (*bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, service.ErrInvalidInput
	}
	return &v, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
