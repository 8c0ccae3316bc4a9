package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/andresuchdata/platform-analytics/internal/domain"
	"github.com/andresuchdata/platform-analytics/internal/export"
	"github.com/andresuchdata/platform-analytics/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// AnalyticsProvider is the slice of the analytics service the handlers use.
type AnalyticsProvider interface {
	Result(ctx context.Context) (*domain.Result, error)
	Refresh(ctx context.Context) (*domain.Result, error)
	Status() service.Status
}

type AnalyticsHandler struct {
	service AnalyticsProvider
}

func NewAnalyticsHandler(service AnalyticsProvider) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

type dataResponse struct {
	State       service.State      `json:"state"`
	Metrics     *domain.Metrics    `json:"metrics"`
	Diagnostics domain.Diagnostics `json:"diagnostics"`
	Diff        []string           `json:"diff"`
}

func newDataResponse(result *domain.Result) dataResponse {
	return dataResponse{
		State:       service.StateReady,
		Metrics:     result.Metrics,
		Diagnostics: result.Diagnostics,
		Diff:        result.Diff,
	}
}

// GetData returns metrics, diagnostics and the latest diff lines.
func (h *AnalyticsHandler) GetData(c *gin.Context) {
	result, err := h.service.Result(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newDataResponse(result))
}

// Refresh reruns the pipeline.
func (h *AnalyticsHandler) Refresh(c *gin.Context) {
	result, err := h.service.Refresh(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newDataResponse(result))
}

type statusResponse struct {
	State     service.State `json:"state"`
	Error     string        `json:"error,omitempty"`
	UpdatedAt *time.Time    `json:"updated_at,omitempty"`
}

// GetStatus reports the outcome of the last run without triggering one.
func (h *AnalyticsHandler) GetStatus(c *gin.Context) {
	st := h.service.Status()
	resp := statusResponse{State: st.State}
	if st.Err != nil {
		resp.Error = st.Err.Error()
	}
	if !st.UpdatedAt.IsZero() {
		resp.UpdatedAt = &st.UpdatedAt
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AnalyticsHandler) ExportCustomers(c *gin.Context) {
	result, err := h.service.Result(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	writeCSV(c, export.CustomersFile, func() error {
		return export.WriteCustomers(c.Writer, result.Customers)
	})
}

func (h *AnalyticsHandler) ExportMerchants(c *gin.Context) {
	result, err := h.service.Result(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	writeCSV(c, export.MerchantsFile, func() error {
		return export.WriteMerchants(c.Writer, result.Merchants)
	})
}

func writeCSV(c *gin.Context, filename string, write func() error) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Status(http.StatusOK)
	if err := write(); err != nil {
		log.Error().Err(err).Str("file", filename).Msg("csv export interrupted")
	}
}

// fail surfaces a failed run as an explicit error state rather than an
// empty payload.
func (h *AnalyticsHandler) fail(c *gin.Context, err error) {
	state := service.StateOf(nil, err)
	log.Error().Err(err).Str("state", string(state)).Msg("analytics request failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": err.Error(),
		"state": state,
	})
}
