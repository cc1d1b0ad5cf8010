package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"airwave/internal/lineup"
	"airwave/internal/logger"
	"airwave/internal/models"
)

// CreateLineupRequest represents a request to create a new user channel lineup
type CreateLineupRequest struct {
	ProfileID string `json:"profile_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
}

// AppendItemRequest represents a request to append a catalog entry to a lineup
type AppendItemRequest struct {
	Kind      string `json:"kind" binding:"required,oneof=movie show ad"`
	CatalogID string `json:"catalog_id" binding:"required"`
	Season    int    `json:"season,omitempty"`
	Episode   int    `json:"episode,omitempty"`
}

// LineupResponse represents a user channel lineup in API responses
type LineupResponse struct {
	ID                   string                  `json:"id"`
	ProfileID            string                  `json:"profile_id"`
	Name                 string                  `json:"name"`
	Items                []ScheduledItemResponse `json:"items"`
	TotalDurationSeconds int64                   `json:"total_duration_seconds"`
	PublishedChannelID   *string                 `json:"published_channel_id,omitempty"`
	CreatedAt            time.Time               `json:"created_at"`
	UpdatedAt            time.Time               `json:"updated_at"`
}

// LineupListResponse represents a profile's lineups
type LineupListResponse struct {
	Lineups []*LineupResponse `json:"lineups"`
}

// PublishErrorResponse extends the error envelope with the remaining
// duration a lineup needs before it can go live.
type PublishErrorResponse struct {
	Error            string `json:"error"`
	Message          string `json:"message"`
	ShortfallSeconds int64  `json:"shortfall_seconds"`
	ThresholdSeconds int64  `json:"threshold_seconds"`
}

// LineupHandler handles user channel lineup API requests
type LineupHandler struct {
	lineupService *lineup.Service
}

// NewLineupHandler creates a new lineup handler instance
func NewLineupHandler(lineupService *lineup.Service) *LineupHandler {
	return &LineupHandler{lineupService: lineupService}
}

func (h *LineupHandler) toLineupResponse(uc *models.UserChannel) (*LineupResponse, error) {
	items, err := uc.Lineup()
	if err != nil {
		return nil, err
	}

	var publishedID *string
	if uc.PublishedChannelID != nil {
		s := uc.PublishedChannelID.String()
		publishedID = &s
	}

	return &LineupResponse{
		ID:                   uc.ID.String(),
		ProfileID:            uc.ProfileID,
		Name:                 uc.Name,
		Items:                toScheduledItemResponses(items),
		TotalDurationSeconds: int64(h.lineupService.TotalDuration(items).Seconds()),
		PublishedChannelID:   publishedID,
		CreatedAt:            uc.CreatedAt,
		UpdatedAt:            uc.UpdatedAt,
	}, nil
}

// CreateLineup handles POST /api/lineups
func (h *LineupHandler) CreateLineup(c *gin.Context) {
	var req CreateLineupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	uc, err := h.lineupService.Create(ctx, req.ProfileID, req.Name)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("profile_id", req.ProfileID).
			Msg("Failed to create lineup")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create lineup",
		})
		return
	}

	resp, err := h.toLineupResponse(uc)
	if err != nil {
		h.respondLineupError(c, uc.ID, err, "Failed to encode lineup")
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ListLineups handles GET /api/lineups?profile_id=...
func (h *LineupHandler) ListLineups(c *gin.Context) {
	profileID := c.Query("profile_id")
	if profileID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_profile",
			Message: "profile_id query parameter is required",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	lineups, err := h.lineupService.ListByProfile(ctx, profileID)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("profile_id", profileID).
			Msg("Failed to list lineups")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve lineups",
		})
		return
	}

	responses := make([]*LineupResponse, 0, len(lineups))
	for _, uc := range lineups {
		resp, err := h.toLineupResponse(uc)
		if err != nil {
			h.respondLineupError(c, uc.ID, err, "Failed to encode lineup")
			return
		}
		responses = append(responses, resp)
	}

	c.JSON(http.StatusOK, LineupListResponse{Lineups: responses})
}

// GetLineup handles GET /api/lineups/:id
func (h *LineupHandler) GetLineup(c *gin.Context) {
	id, ok := h.lineupID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	uc, err := h.lineupService.Get(ctx, id)
	if err != nil {
		h.respondLineupError(c, id, err, "Failed to get lineup")
		return
	}

	resp, err := h.toLineupResponse(uc)
	if err != nil {
		h.respondLineupError(c, id, err, "Failed to encode lineup")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// AppendItem handles POST /api/lineups/:id/items
func (h *LineupHandler) AppendItem(c *gin.Context) {
	id, ok := h.lineupID(c)
	if !ok {
		return
	}

	var req AppendItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	// Appends resolve the entry against the catalog before scheduling it
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	ref := models.ContentRef{
		Kind:      models.ContentKind(req.Kind),
		CatalogID: req.CatalogID,
		Season:    req.Season,
		Episode:   req.Episode,
	}

	items, err := h.lineupService.Append(ctx, id, ref)
	if err != nil {
		h.respondLineupError(c, id, err, "Failed to append lineup item")
		return
	}

	logger.Log.Info().
		Str("lineup_id", id.String()).
		Str("content", ref.Key()).
		Int("lineup_size", len(items)).
		Msg("Lineup item appended")

	c.JSON(http.StatusOK, gin.H{
		"items":                  toScheduledItemResponses(items),
		"total_duration_seconds": int64(h.lineupService.TotalDuration(items).Seconds()),
	})
}

// RemoveItem handles DELETE /api/lineups/:id/items/:index
func (h *LineupHandler) RemoveItem(c *gin.Context) {
	id, ok := h.lineupID(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_index",
			Message: "Lineup index must be a non-negative integer",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	items, err := h.lineupService.RemoveAt(ctx, id, index)
	if err != nil {
		if lineup.IsIndexOutOfRange(err) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "index_out_of_range",
				Message: "Lineup index is out of range",
			})
			return
		}
		h.respondLineupError(c, id, err, "Failed to remove lineup item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":                  toScheduledItemResponses(items),
		"total_duration_seconds": int64(h.lineupService.TotalDuration(items).Seconds()),
	})
}

// Publish handles POST /api/lineups/:id/publish
func (h *LineupHandler) Publish(c *gin.Context) {
	id, ok := h.lineupID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	ch, err := h.lineupService.Publish(ctx, id)
	if err != nil {
		if ide, isShort := lineup.AsInsufficientDuration(err); isShort {
			c.JSON(http.StatusConflict, PublishErrorResponse{
				Error:            "insufficient_duration",
				Message:          "Lineup does not cover the minimum broadcast duration",
				ShortfallSeconds: int64(ide.Shortfall.Seconds()),
				ThresholdSeconds: int64(lineup.PublishThreshold.Seconds()),
			})
			return
		}

		if errors.Is(err, lineup.ErrAlreadyPublished) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "already_published",
				Message: "Lineup has already been published",
			})
			return
		}

		h.respondLineupError(c, id, err, "Failed to publish lineup")
		return
	}

	logger.Log.Info().
		Str("lineup_id", id.String()).
		Str("channel_id", ch.ID.String()).
		Str("slug", ch.Slug).
		Msg("Lineup published as channel")

	c.JSON(http.StatusCreated, toChannelResponse(ch))
}

// DeleteLineup handles DELETE /api/lineups/:id
func (h *LineupHandler) DeleteLineup(c *gin.Context) {
	id, ok := h.lineupID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.lineupService.Delete(ctx, id); err != nil {
		h.respondLineupError(c, id, err, "Failed to delete lineup")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *LineupHandler) lineupID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid lineup ID format",
		})
		return uuid.Nil, false
	}
	return id, true
}

func (h *LineupHandler) respondLineupError(c *gin.Context, id uuid.UUID, err error, logMsg string) {
	if lineup.IsLineupNotFound(err) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Lineup not found",
		})
		return
	}

	logger.Log.Error().
		Err(err).
		Str("lineup_id", id.String()).
		Msg(logMsg)

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "request_failed",
		Message: "Failed to process lineup request",
	})
}

// SetupLineupRoutes registers user channel lineup routes
func SetupLineupRoutes(apiGroup *gin.RouterGroup, lineupService *lineup.Service) {
	handler := NewLineupHandler(lineupService)

	lineups := apiGroup.Group("/lineups")
	{
		lineups.POST("", handler.CreateLineup)
		lineups.GET("", handler.ListLineups)
		lineups.GET("/:id", handler.GetLineup)
		lineups.POST("/:id/items", handler.AppendItem)
		lineups.DELETE("/:id/items/:index", handler.RemoveItem)
		lineups.POST("/:id/publish", handler.Publish)
		lineups.DELETE("/:id", handler.DeleteLineup)
	}
}
