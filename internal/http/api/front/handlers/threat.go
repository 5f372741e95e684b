package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/threatscope/threatscope/internal/lookup"
	"github.com/threatscope/threatscope/internal/models"
	"github.com/threatscope/threatscope/internal/quota"
	"github.com/threatscope/threatscope/internal/store"
)

// ThreatHandler serves lookup submission and record retrieval.
type ThreatHandler struct {
	service *lookup.Service
	lookups store.LookupStore
}

// NewThreatHandler constructs a ThreatHandler.
func NewThreatHandler(service *lookup.Service, lookups store.LookupStore) *ThreatHandler {
	return &ThreatHandler{service: service, lookups: lookups}
}

// submitRequest defines the request body for a threat lookup.
type submitRequest struct {
	Query     string `json:"query"`
	QueryType string `json:"queryType"`
}

// Submit runs the full lookup pipeline for the authenticated user.
func (h *ThreatHandler) Submit(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body submitRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	result, errSubmit := h.service.Submit(c.Request.Context(), userID, body.Query, body.QueryType)
	if errSubmit != nil {
		switch {
		case errors.Is(errSubmit, lookup.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": errSubmit.Error()})
		case errors.Is(errSubmit, lookup.ErrQuotaExceeded):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "daily quota exceeded"})
		case errors.Is(errSubmit, quota.ErrStoreUnavailable):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "quota check failed"})
		case errors.Is(errSubmit, lookup.ErrUpstreamTimeout):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "threat intelligence provider timed out"})
		case errors.Is(errSubmit, lookup.ErrUpstream):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "threat intelligence provider failed"})
		case errors.Is(errSubmit, lookup.ErrPersistence):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save lookup"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

// lookupResponse is the wire shape for a stored lookup record.
type lookupResponse struct {
	ID           string    `json:"id"`
	Query        string    `json:"query"`
	QueryType    string    `json:"queryType"`
	Score        int       `json:"score"`
	ProviderData string    `json:"providerData"`
	Summary      string    `json:"summary"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Get returns one of the authenticated user's stored lookups by id.
// Records belonging to other users read as not found.
func (h *ThreatHandler) Get(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id := c.Param("id")
	record, errGet := h.lookups.GetByID(c.Request.Context(), id)
	if errGet != nil {
		if errors.Is(errGet, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "lookup not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if record.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "lookup not found"})
		return
	}
	c.JSON(http.StatusOK, toLookupResponse(record))
}

func toLookupResponse(record *models.Lookup) lookupResponse {
	return lookupResponse{
		ID:           record.ID,
		Query:        record.Query,
		QueryType:    record.QueryType,
		Score:        record.Score,
		ProviderData: string(record.ProviderData),
		Summary:      record.Summary,
		CreatedAt:    record.CreatedAt,
	}
}
