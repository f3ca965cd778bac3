package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/GTDGit/tariff_api/internal/models"
	"github.com/GTDGit/tariff_api/internal/service"
	"github.com/GTDGit/tariff_api/internal/utils"
)

// CantonHandler handles canton lookup HTTP requests
type CantonHandler struct {
	resolver *service.CantonResolver
}

// NewCantonHandler creates a new CantonHandler
func NewCantonHandler(resolver *service.CantonResolver) *CantonHandler {
	return &CantonHandler{resolver: resolver}
}

// CantonResponse is the standard response structure for canton endpoints
type CantonResponse struct {
	Success bool             `json:"success"`
	Code    int              `json:"code"`
	Message string           `json:"message"`
	Data    interface{}      `json:"data,omitempty"`
	Error   *utils.ErrorInfo `json:"error,omitempty"`
	Meta    CantonMeta       `json:"meta"`
}

// CantonMeta contains metadata for the response
type CantonMeta struct {
	Total     int    `json:"total"`
	Prefix    string `json:"prefix,omitempty"`
	RequestID string `json:"requestId"`
	Timestamp string `json:"timestamp"`
}

// GetCantons returns the postal code and canton candidates for a prefix
// GET /v1/cantons?prefix=80
func (h *CantonHandler) GetCantons(c *gin.Context) {
	prefix := strings.TrimSpace(c.Query("prefix"))

	entries, err := h.resolver.Resolve(prefix)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidPostalPrefix) {
			h.errorResponse(c, http.StatusBadRequest, "INVALID_POSTAL_PREFIX", "Postal code prefix must contain digits only")
			return
		}
		h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to resolve cantons")
		return
	}

	message := "Successfully retrieved cantons"
	if utf8.RuneCountInString(prefix) < service.MinPrefixLength {
		message = "Please enter at least two digits of the postal code"
	} else if len(entries) == 0 {
		message = "No canton found for postal code prefix '" + prefix + "'"
	}

	// Convert to response format
	response := make([]models.CantonCandidateResponse, 0, len(entries))
	for _, e := range entries {
		response = append(response, models.CantonCandidateResponse{
			PostalCode: e.PostalCode,
			CantonName: e.CantonName,
			CantonCode: string(e.CantonCode),
			Label:      e.PostalCode + " " + e.CantonName,
		})
	}

	c.JSON(http.StatusOK, CantonResponse{
		Success: true,
		Code:    http.StatusOK,
		Message: message,
		Data:    response,
		Meta: CantonMeta{
			Total:     len(response),
			Prefix:    prefix,
			RequestID: h.requestID(c),
			Timestamp: time.Now().Format(time.RFC3339),
		},
	})
}

// Helper functions

func (h *CantonHandler) requestID(c *gin.Context) string {
	if id := c.GetString(utils.RequestIDKey); id != "" {
		return id
	}
	return "req_ktn_" + uuid.New().String()[:8]
}

func (h *CantonHandler) errorResponse(c *gin.Context, statusCode int, errorType, details string) {
	c.JSON(statusCode, CantonResponse{
		Success: false,
		Code:    statusCode,
		Message: details,
		Error: &utils.ErrorInfo{
			Code:    errorType,
			Message: details,
		},
		Meta: CantonMeta{
			RequestID: h.requestID(c),
			Timestamp: time.Now().Format(time.RFC3339),
		},
	})
}
