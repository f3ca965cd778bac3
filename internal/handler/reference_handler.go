package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/tariff_api/internal/catalog"
	"github.com/GTDGit/tariff_api/internal/models"
	"github.com/GTDGit/tariff_api/internal/service"
	"github.com/GTDGit/tariff_api/internal/utils"
)

// ReferenceHandler serves the lookup lists the form is built from.
type ReferenceHandler struct {
	catalog *catalog.Catalog
	now     func() time.Time
}

// NewReferenceHandler creates a new ReferenceHandler.
func NewReferenceHandler(cat *catalog.Catalog) *ReferenceHandler {
	return &ReferenceHandler{catalog: cat, now: utils.NowSwiss}
}

// GetDeductibles returns the deductible tiers present in the tariff table.
// GET /v1/deductibles
func (h *ReferenceHandler) GetDeductibles(c *gin.Context) {
	tiers := h.catalog.Deductibles()

	response := make([]models.DeductibleResponse, 0, len(tiers))
	for _, d := range tiers {
		item := models.DeductibleResponse{Code: string(d), Label: string(d)}
		if amount := d.Amount(); amount >= 0 {
			item.Amount = &amount
			item.Label = "CHF " + strconv.Itoa(amount)
		}
		if label, ok := h.catalog.Label(string(d)); ok {
			item.Label = label
		}
		response = append(response, item)
	}

	utils.Success(c, http.StatusOK, "Successfully retrieved deductibles", response)
}

// GetAgeBracket computes age and bracket for a birth date.
// GET /v1/age-bracket?birthDate=2000-06-15[&asOf=2024-01-10]
func (h *ReferenceHandler) GetAgeBracket(c *gin.Context) {
	birth, err := time.Parse(time.DateOnly, c.Query("birthDate"))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "birthDate must be a date in YYYY-MM-DD format")
		return
	}

	asOf := h.now()
	if raw := c.Query("asOf"); raw != "" {
		if asOf, err = time.Parse(time.DateOnly, raw); err != nil {
			utils.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "asOf must be a date in YYYY-MM-DD format")
			return
		}
	}

	age := service.Age(birth, asOf)
	if age < 0 {
		utils.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "birthDate lies after asOf")
		return
	}
	bracket := service.BracketFor(birth, asOf)

	utils.Success(c, http.StatusOK, "Successfully calculated age bracket", models.AgeBracketResponse{
		BirthDate:  birth.Format(time.DateOnly),
		AsOf:       asOf.Format(time.DateOnly),
		Age:        age,
		AgeBracket: string(bracket),
		Label:      bracketLabel(h.catalog, bracket),
	})
}

// GetValueRanges lists the value-range metadata, optionally for one domain.
// GET /v1/value-ranges?domain=Franchise&page=1&limit=50
func (h *ReferenceHandler) GetValueRanges(c *gin.Context) {
	rows := h.catalog.ValueRanges(strings.TrimSpace(c.Query("domain")))

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	start := (page - 1) * limit
	if start > len(rows) {
		start = len(rows)
	}
	end := start + limit
	if end > len(rows) {
		end = len(rows)
	}

	utils.SuccessWithPagination(c, http.StatusOK, "Successfully retrieved value ranges", rows[start:end], page, limit, len(rows))
}

// bracketLabel prefers the label of the value-range table.
func bracketLabel(cat *catalog.Catalog, b models.AgeBracket) string {
	if label, ok := cat.Label(string(b)); ok {
		return label
	}
	return b.Label()
}
