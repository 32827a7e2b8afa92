package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"walletlens/internal/engine"
	"walletlens/internal/market"
	"walletlens/internal/repository"
	"walletlens/internal/service"
)

type ReportHandler struct {
	Service *service.ReportService
	Repo    repository.Repository
}

func (h *ReportHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/wallets")
	group.GET("/:address/report", h.report)
	group.GET("/:address/snapshots", h.listSnapshots)
	group.GET("/:address/snapshots/latest", h.latestSnapshot)
}

func (h *ReportHandler) report(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	address := strings.TrimSpace(c.Param("address"))
	if address == "" {
		Error(c, http.StatusBadRequest, "wallet address required", nil)
		return
	}
	chain := strings.TrimSpace(c.DefaultQuery("chain", "solana"))
	windowDays := intQuery(c, "window_days", 0)
	force := boolQuery(c, "force")

	report, cached, err := h.Service.GenerateReport(c.Request.Context(), address, chain, windowDays, force)
	if err != nil {
		status := http.StatusBadGateway
		var apiErr *market.APIError
		switch {
		case errors.Is(err, engine.ErrNoValidTransactions):
			status = http.StatusUnprocessableEntity
		case errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound:
			status = http.StatusNotFound
		}
		Error(c, status, err.Error(), nil)
		return
	}
	Ok(c, report, map[string]any{"cached": cached})
}

func (h *ReportHandler) listSnapshots(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	address := strings.TrimSpace(c.Param("address"))
	if address == "" {
		Error(c, http.StatusBadRequest, "wallet address required", nil)
		return
	}
	chain := strings.TrimSpace(c.Query("chain"))
	windowDays := intQuery(c, "window_days", 0)
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	params := repository.ListSnapshotsParams{
		WalletAddress: &address,
		Limit:         limit,
		Offset:        offset,
		OrderBy:       "generated_at",
		Asc:           boolPtr(false),
	}
	if chain != "" {
		params.Chain = &chain
	}
	if windowDays > 0 {
		params.WindowDays = &windowDays
	}
	if sinceHours := intQuery(c, "since_hours", 0); sinceHours > 0 {
		since := time.Now().UTC().Add(-time.Duration(sinceHours) * time.Hour)
		params.Since = &since
	}

	items, err := h.Repo.ListReportSnapshots(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountReportSnapshots(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

func (h *ReportHandler) latestSnapshot(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	address := strings.TrimSpace(c.Param("address"))
	if address == "" {
		Error(c, http.StatusBadRequest, "wallet address required", nil)
		return
	}
	chain := strings.TrimSpace(c.DefaultQuery("chain", "solana"))
	windowDays := intQuery(c, "window_days", 0)

	snap, err := h.Service.LatestSnapshot(c.Request.Context(), address, chain, windowDays)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if snap == nil {
		Error(c, http.StatusNotFound, "no snapshot for wallet", nil)
		return
	}
	Ok(c, snap, nil)
}
