package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/tariff_api/internal/catalog"
	"github.com/GTDGit/tariff_api/internal/models"
	"github.com/GTDGit/tariff_api/internal/service"
	"github.com/GTDGit/tariff_api/internal/utils"
)

// TariffHandler handles tariff search requests.
type TariffHandler struct {
	eligibility *service.EligibilityService
	catalog     *catalog.Catalog
}

// NewTariffHandler creates a new TariffHandler.
func NewTariffHandler(eligibility *service.EligibilityService, cat *catalog.Catalog) *TariffHandler {
	return &TariffHandler{eligibility: eligibility, catalog: cat}
}

// Search returns the tariffs offered for the submitted form.
// POST /v1/tariffs/search
func (h *TariffHandler) Search(c *gin.Context) {
	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}

	q := models.UserQuery{
		PostalCode: req.PostalCode,
		CantonName: req.CantonName,
		Canton:     req.Canton,
		Deductible: req.Deductible,
		Sex:        models.Sex(req.Sex),
	}
	if raw := strings.TrimSpace(req.BirthDate); raw != "" {
		birth, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			utils.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "birthDate must be a date in YYYY-MM-DD format")
			return
		}
		q.BirthDate = birth
	}

	res, err := h.eligibility.Search(c.Request.Context(), q)
	if err != nil {
		h.handleError(c, err)
		return
	}

	tariffs := make([]models.TariffResult, 0, len(res.Tariffs))
	for _, r := range res.Tariffs {
		tariffs = append(tariffs, r.Result())
	}
	message := "Successfully retrieved tariffs"
	if res.NoMatch {
		message = "NO_MATCH: no tariff is offered for this combination"
	}

	utils.Success(c, http.StatusOK, message, models.SearchResponse{
		Age:        res.Age,
		AgeBracket: string(res.AgeBracket),
		AgeLabel:   bracketLabel(h.catalog, res.AgeBracket),
		PostalCode: res.PostalCode,
		CantonName: res.CantonName,
		Canton:     string(res.Canton),
		Deductible: string(res.Deductible),
		Tariffs:    tariffs,
	})
}

func (h *TariffHandler) handleError(c *gin.Context, err error) {
	var ambiguous *service.AmbiguousCantonError
	var validation *utils.ValidationError

	switch {
	case errors.As(err, &validation):
		utils.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", validation.Error())
	case errors.As(err, &ambiguous):
		candidates := make([]models.CantonCandidateResponse, 0, len(ambiguous.Candidates))
		for _, e := range ambiguous.Candidates {
			candidates = append(candidates, models.CantonCandidateResponse{
				PostalCode: e.PostalCode,
				CantonName: e.CantonName,
				CantonCode: string(e.CantonCode),
				Label:      e.PostalCode + " " + e.CantonName,
			})
		}
		utils.DetailedError(c, http.StatusConflict, "AMBIGUOUS_CANTON", "Postal code belongs to several cantons, please select one", candidates)
	case errors.Is(err, utils.ErrUnresolvedCanton):
		utils.Error(c, http.StatusUnprocessableEntity, "UNRESOLVED_CANTON", "Canton could not be mapped to a canton code")
	default:
		log.Error().Err(err).Msg("tariff search failed")
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to search tariffs")
	}
}
