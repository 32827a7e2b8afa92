package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"walletlens/internal/models"
	"walletlens/internal/repository"
)

type TrackedWalletHandler struct {
	Repo repository.Repository
}

func (h *TrackedWalletHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/tracked-wallets")
	group.GET("", h.list)
	group.POST("", h.upsert)
	group.DELETE("/:address", h.delete)
}

func (h *TrackedWalletHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	chain := strings.TrimSpace(c.Query("chain"))
	limit := intQuery(c, "limit", 200)
	offset := intQuery(c, "offset", 0)

	params := repository.ListTrackedWalletsParams{
		EnabledOnly: boolQuery(c, "enabled_only"),
		Limit:       limit,
		Offset:      offset,
	}
	if chain != "" {
		params.Chain = &chain
	}
	items, err := h.Repo.ListTrackedWallets(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, int64(len(items))))
}

type upsertTrackedWalletRequest struct {
	Address    string `json:"address"`
	Chain      string `json:"chain"`
	Label      string `json:"label"`
	WindowDays *int   `json:"window_days"`
	Enabled    *bool  `json:"enabled"`
}

func (h *TrackedWalletHandler) upsert(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	var req upsertTrackedWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	req.Address = strings.TrimSpace(req.Address)
	if req.Address == "" {
		Error(c, http.StatusBadRequest, "address required", nil)
		return
	}
	req.Chain = strings.TrimSpace(req.Chain)
	if req.Chain == "" {
		req.Chain = "solana"
	}

	item := &models.TrackedWallet{
		Address:    req.Address,
		Chain:      req.Chain,
		Label:      strings.TrimSpace(req.Label),
		WindowDays: 30,
		Enabled:    true,
	}
	if req.WindowDays != nil && *req.WindowDays > 0 {
		item.WindowDays = *req.WindowDays
	}
	if req.Enabled != nil {
		item.Enabled = *req.Enabled
	}
	if err := h.Repo.UpsertTrackedWallet(c.Request.Context(), item); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

func (h *TrackedWalletHandler) delete(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	address := strings.TrimSpace(c.Param("address"))
	if address == "" {
		Error(c, http.StatusBadRequest, "address required", nil)
		return
	}
	chain := strings.TrimSpace(c.DefaultQuery("chain", "solana"))
	if err := h.Repo.DeleteTrackedWallet(c.Request.Context(), address, chain); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, map[string]any{"address": address, "chain": chain}, nil)
}
