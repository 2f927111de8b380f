package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/aeturrell/deploy-api/internal/errors"
	"github.com/aeturrell/deploy-api/internal/services"
)

type yearKey struct{}

// YearsResponse lists the years that can be queried
type YearsResponse struct {
	Years   []int `json:"years"`
	MaxYear int   `json:"max_year,omitempty"`
}

// ReloadResponse reports the outcome of an admin reload
type ReloadResponse struct {
	Status       string `json:"status"`
	Observations int    `json:"observations"`
	Years        []int  `json:"years"`
}

// DeathsHandler serves lookups over the tidy deaths table
type DeathsHandler struct {
	service      DeathsServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDeathsHandler creates a new deaths handler
func NewDeathsHandler(service DeathsServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DeathsHandler {
	return &DeathsHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "deaths_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the public query routes
func (h *DeathsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/years", h.GetYears)
	r.Route("/year/{year}", func(r chi.Router) {
		r.Use(h.YearCtx)
		r.Get("/geo_code/{geo_code}", h.GetDeaths)
		r.Get("/summary", h.GetSummary)
	})

	return r
}

// YearCtx parses the year path parameter and rejects anything but an integer
func (h *DeathsHandler) YearCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "year")
		year, err := strconv.Atoi(raw)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.InvalidParameterError("year", raw, "year must be an integer"))
			return
		}

		ctx := context.WithValue(r.Context(), yearKey{}, year)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func yearFrom(ctx context.Context) int {
	year, _ := ctx.Value(yearKey{}).(int)
	return year
}

// GetDeaths handles GET /year/{year}/geo_code/{geo_code}
func (h *DeathsHandler) GetDeaths(w http.ResponseWriter, r *http.Request) {
	year := yearFrom(r.Context())
	geoCode := chi.URLParam(r, "geo_code")

	result, err := h.service.Lookup(r.Context(), year, geoCode)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

// GetYears handles GET /years
func (h *DeathsHandler) GetYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.service.Years()
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	response := YearsResponse{Years: years}
	if len(years) > 0 {
		response.MaxYear = years[len(years)-1]
	} else {
		response.Years = []int{}
	}

	render.JSON(w, r, response)
}

// GetSummary handles GET /year/{year}/summary
func (h *DeathsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), yearFrom(r.Context()))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, summary)
}

// Reload handles POST /admin/reload
func (h *DeathsHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reload(r.Context()); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.ReloadError(err))
		return
	}

	years, err := h.service.Years()
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Dataset reloaded on request",
		slog.Int("observations", h.service.Size()))

	render.JSON(w, r, ReloadResponse{
		Status:       "reloaded",
		Observations: h.service.Size(),
		Years:        years,
	})
}

// handleServiceError maps query service errors onto API errors
func (h *DeathsHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrDatasetNotLoaded):
		h.errorHandler.HandleError(w, r, apierrors.ErrDatasetUnavailable)
	case errors.Is(err, services.ErrYearNotFound):
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError("year "+chi.URLParam(r, "year")))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}
