package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-dining-concierge/internal/domain"
	"github.com/tbourn/go-dining-concierge/internal/http/middleware"
	"github.com/tbourn/go-dining-concierge/internal/services"
	"github.com/tbourn/go-dining-concierge/internal/utils"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// IngestSourceRequest selects the location to ingest.
type IngestSourceRequest struct {
	Location string `json:"location" example:"New York"`
}

// IngestAccepted acknowledges a source ingestion started in the background.
type IngestAccepted struct {
	Status   string `json:"status" example:"accepted"`
	Location string `json:"location" example:"New York"`
	// Echo of X-Request-ID; the completion log line carries it too
	RequestID string `json:"request_id,omitempty"`
}

// IndexListResponse lists search index entries.
type IndexListResponse struct {
	Entries []domain.SearchIndexEntry `json:"entries"`
	Count   int                       `json:"count"`
}

// RebuildIndex godoc
// @ID          rebuildIndex
// @Summary     Rebuild the search index
// @Description Pages through the restaurant store and upserts one index entry per record.
// @Tags        Admin
// @Produce     json
// @Success     200  {object}  services.IndexStats
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /admin/ingest/index [post]
func (h *Handlers) RebuildIndex(c *gin.Context) {
	stats, err := h.Ingestion.RebuildIndex(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeIngestFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, stats)
}

// IngestSource godoc
// @ID          ingestSource
// @Summary     Ingest restaurants from the business API
// @Description Starts fetching every supported cuisine for the location in the background and
// @Description writes the records to the store. One run at a time; the outcome is logged.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.IngestSourceRequest  false  "Location (defaults to the configured one)"
// @Success     202   {object}  handlers.IngestAccepted
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     409   {object}  handlers.ErrorResponse
// @Router      /admin/ingest/source [post]
func (h *Handlers) IngestSource(c *gin.Context) {
	var req IngestSourceRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid body")
			return
		}
	}
	loc := strings.TrimSpace(req.Location)
	if loc == "" {
		loc = h.DefaultLocation
	}
	if !h.sourceRunning.CompareAndSwap(false, true) {
		fail(c, http.StatusConflict, ErrCodeIngestRunning, "source ingestion already running")
		return
	}

	// The run outlives the request; keep its logger and trace, drop its deadline.
	ctx := middleware.LoggerFrom(c).WithContext(context.WithoutCancel(c.Request.Context()))
	h.jobs.Add(1)
	go func() {
		defer h.jobs.Done()
		defer h.sourceRunning.Store(false)
		stats, err := h.Ingestion.IngestSource(ctx, loc)
		h.sourceFinished(ctx, loc, stats, err)
	}()

	ok(c, http.StatusAccepted, IngestAccepted{
		Status:    "accepted",
		Location:  loc,
		RequestID: c.Writer.Header().Get("X-Request-ID"),
	})
}

func (h *Handlers) sourceFinished(ctx context.Context, loc string, stats services.SourceStats, err error) {
	lg := zerolog.Ctx(ctx)
	if err != nil {
		lg.Error().Err(err).Str("location", loc).Msg("source ingestion failed")
	} else {
		lg.Info().Str("location", loc).Int("stored", stats.Stored).Msg("source ingestion finished")
	}
	if h.onSourceDone != nil {
		h.onSourceDone(stats, err)
	}
}

// Wait blocks until background ingestion runs have finished.
func (h *Handlers) Wait() { h.jobs.Wait() }

// ListIndex godoc
// @ID          listIndex
// @Summary     List search index entries
// @Tags        Admin
// @Produce     json
// @Param       limit  query     int  false  "Maximum entries (1-1000)"  default(100)
// @Success     200    {object}  handlers.IndexListResponse
// @Failure     500    {object}  handlers.ErrorResponse
// @Router      /admin/index [get]
func (h *Handlers) ListIndex(c *gin.Context) {
	limit := utils.Clamp(utils.AtoiDefault(c.Query("limit"), defaultListLimit), 1, maxListLimit)
	entries, err := h.Index.All(c.Request.Context(), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if entries == nil {
		entries = []domain.SearchIndexEntry{}
	}
	ok(c, http.StatusOK, IndexListResponse{Entries: entries, Count: len(entries)})
}
