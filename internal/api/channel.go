package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"airwave/internal/channel"
	"airwave/internal/guide"
	"airwave/internal/live"
	"airwave/internal/logger"
	"airwave/internal/models"
)

// Request/Response DTOs

// ContentRefRequest represents a single pool entry in a channel request
type ContentRefRequest struct {
	Kind      string `json:"kind" binding:"required,oneof=movie show ad"`
	CatalogID string `json:"catalog_id" binding:"required"`
	Season    int    `json:"season,omitempty"`
	Episode   int    `json:"episode,omitempty"`
}

// CreateChannelRequest represents a request to create a new channel
type CreateChannelRequest struct {
	Slug        string              `json:"slug" binding:"required"`
	Name        string              `json:"name" binding:"required"`
	Description string              `json:"description,omitempty"`
	Shuffle     *bool               `json:"shuffle,omitempty"`
	Pool        []ContentRefRequest `json:"pool" binding:"required,min=1"`
}

// UpdatePoolRequest represents a request to replace a channel's content pool
type UpdatePoolRequest struct {
	Pool []ContentRefRequest `json:"pool" binding:"required,min=1"`
}

// ChannelResponse represents a channel in API responses
type ChannelResponse struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	ArtworkRef   string    `json:"artwork_ref,omitempty"`
	Shuffle      bool      `json:"shuffle"`
	UserAuthored bool      `json:"user_authored"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ChannelListResponse represents a list of channels
type ChannelListResponse struct {
	Channels []*ChannelResponse `json:"channels"`
}

// ScheduleResponse represents a channel's current timeline
type ScheduleResponse struct {
	ChannelID string                  `json:"channel_id"`
	Start     time.Time               `json:"start"`
	End       time.Time               `json:"end"`
	Items     []ScheduledItemResponse `json:"items"`
}

// PositionResponse represents the channel's live playback position.
// State is "playing" while an item is on air and "gap" when the
// schedule has lapsed and a rebuild is pending.
type PositionResponse struct {
	State         string                 `json:"state"`
	Item          *ScheduledItemResponse `json:"item,omitempty"`
	OffsetSeconds int64                  `json:"offset_seconds,omitempty"`
	StartedAt     *time.Time             `json:"started_at,omitempty"`
	EndsAt        *time.Time             `json:"ends_at,omitempty"`
}

// UpcomingResponse represents the active item and its successor
type UpcomingResponse struct {
	Active      *ScheduledItemResponse `json:"active"`
	Next        *ScheduledItemResponse `json:"next,omitempty"`
	LeadSeconds int64                  `json:"lead_seconds,omitempty"`
}

// ChannelHandler handles channel-related API requests
type ChannelHandler struct {
	channelService *channel.Service
	guideService   *guide.Service
}

// NewChannelHandler creates a new channel handler instance
func NewChannelHandler(channelService *channel.Service, guideService *guide.Service) *ChannelHandler {
	return &ChannelHandler{
		channelService: channelService,
		guideService:   guideService,
	}
}

// toChannelResponse converts a channel model to API response format
func toChannelResponse(ch *models.Channel) *ChannelResponse {
	return &ChannelResponse{
		ID:           ch.ID.String(),
		Slug:         ch.Slug,
		Name:         ch.Name,
		Description:  ch.Description,
		ArtworkRef:   ch.ArtworkRef,
		Shuffle:      ch.Shuffle,
		UserAuthored: ch.UserAuthored,
		CreatedAt:    ch.CreatedAt,
		UpdatedAt:    ch.UpdatedAt,
	}
}

func toContentRefs(reqs []ContentRefRequest) []models.ContentRef {
	refs := make([]models.ContentRef, len(reqs))
	for i, r := range reqs {
		refs[i] = models.ContentRef{
			Kind:      models.ContentKind(r.Kind),
			CatalogID: r.CatalogID,
			Season:    r.Season,
			Episode:   r.Episode,
		}
	}
	return refs
}

// CreateChannel handles POST /api/channels
func (h *ChannelHandler) CreateChannel(c *gin.Context) {
	var req CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	// Default shuffle to true if not specified
	shuffle := true
	if req.Shuffle != nil {
		shuffle = *req.Shuffle
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	newChannel, err := h.channelService.CreateChannel(ctx, req.Slug, req.Name, req.Description, shuffle, toContentRefs(req.Pool))
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("slug", req.Slug).
			Msg("Failed to create channel")

		if errors.Is(err, channel.ErrDuplicateSlug) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "duplicate_slug",
				Message: "A channel with this slug already exists",
			})
			return
		}

		if errors.Is(err, channel.ErrEmptyPool) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "empty_pool",
				Message: "Channel pool must contain at least one entry",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create channel",
		})
		return
	}

	logger.Log.Info().
		Str("channel_id", newChannel.ID.String()).
		Str("slug", newChannel.Slug).
		Msg("Channel created successfully")

	c.JSON(http.StatusCreated, toChannelResponse(newChannel))
}

// ListChannels handles GET /api/channels
func (h *ChannelHandler) ListChannels(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	channels, err := h.channelService.List(ctx)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to list channels")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve channel list",
		})
		return
	}

	responses := make([]*ChannelResponse, len(channels))
	for i, ch := range channels {
		responses[i] = toChannelResponse(ch)
	}

	c.JSON(http.StatusOK, ChannelListResponse{
		Channels: responses,
	})
}

// GetChannel handles GET /api/channels/:id
func (h *ChannelHandler) GetChannel(c *gin.Context) {
	id, ok := h.channelID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	ch, err := h.channelService.GetByID(ctx, id)
	if err != nil {
		h.respondChannelError(c, id, err, "Failed to get channel by ID")
		return
	}

	c.JSON(http.StatusOK, toChannelResponse(ch))
}

// UpdatePool handles PUT /api/channels/:id/pool
func (h *ChannelHandler) UpdatePool(c *gin.Context) {
	id, ok := h.channelID(c)
	if !ok {
		return
	}

	var req UpdatePoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.channelService.UpdatePool(ctx, id, toContentRefs(req.Pool)); err != nil {
		h.respondChannelError(c, id, err, "Failed to update channel pool")
		return
	}

	logger.Log.Info().
		Str("channel_id", id.String()).
		Int("pool_size", len(req.Pool)).
		Msg("Channel pool updated")

	c.Status(http.StatusNoContent)
}

// DeleteChannel handles DELETE /api/channels/:id
func (h *ChannelHandler) DeleteChannel(c *gin.Context) {
	id, ok := h.channelID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.channelService.DeleteChannel(ctx, id); err != nil {
		h.respondChannelError(c, id, err, "Failed to delete channel")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetSchedule handles GET /api/channels/:id/schedule
func (h *ChannelHandler) GetSchedule(c *gin.Context) {
	id, ok := h.channelID(c)
	if !ok {
		return
	}

	// Schedule rebuilds resolve the whole pool against the catalog, so
	// this gets a longer deadline than the metadata endpoints.
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	tl, err := h.guideService.ScheduleFor(ctx, id)
	if err != nil {
		h.respondChannelError(c, id, err, "Failed to produce channel schedule")
		return
	}

	c.JSON(http.StatusOK, ScheduleResponse{
		ChannelID: id.String(),
		Start:     tl.Start(),
		End:       tl.End(),
		Items:     toScheduledItemResponses(tl),
	})
}

// GetPosition handles GET /api/channels/:id/position
func (h *ChannelHandler) GetPosition(c *gin.Context) {
	id, ok := h.channelID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	pos, err := h.guideService.LivePosition(ctx, id)
	if err != nil {
		// A gap is a normal transient state, not a request failure
		if live.IsGap(err) {
			c.JSON(http.StatusOK, PositionResponse{State: "gap"})
			return
		}
		h.respondChannelError(c, id, err, "Failed to resolve live position")
		return
	}

	item := toScheduledItemResponse(pos.Item)
	c.JSON(http.StatusOK, PositionResponse{
		State:         "playing",
		Item:          &item,
		OffsetSeconds: pos.OffsetSeconds,
		StartedAt:     &pos.StartedAt,
		EndsAt:        &pos.EndsAt,
	})
}

// GetUpcoming handles GET /api/channels/:id/upcoming
func (h *ChannelHandler) GetUpcoming(c *gin.Context) {
	id, ok := h.channelID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	result, err := h.guideService.Upcoming(ctx, id)
	if err != nil {
		if live.IsGap(err) {
			c.JSON(http.StatusOK, UpcomingResponse{})
			return
		}
		h.respondChannelError(c, id, err, "Failed to resolve upcoming item")
		return
	}

	resp := UpcomingResponse{}
	if result.Active != nil {
		active := toScheduledItemResponse(*result.Active)
		resp.Active = &active
	}
	if result.Next != nil {
		next := toScheduledItemResponse(*result.Next)
		resp.Next = &next
		resp.LeadSeconds = int64(result.LeadTime.Seconds())
	}

	c.JSON(http.StatusOK, resp)
}

// channelID parses and validates the :id path parameter, writing the
// error response itself when the ID is malformed.
func (h *ChannelHandler) channelID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid channel ID format",
		})
		return uuid.Nil, false
	}
	return id, true
}

func (h *ChannelHandler) respondChannelError(c *gin.Context, id uuid.UUID, err error, logMsg string) {
	if errors.Is(err, channel.ErrChannelNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Channel not found",
		})
		return
	}

	logger.Log.Error().
		Err(err).
		Str("channel_id", id.String()).
		Msg(logMsg)

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "query_failed",
		Message: "Failed to process channel request",
	})
}

// SetupChannelRoutes registers channel routes
func SetupChannelRoutes(apiGroup *gin.RouterGroup, channelService *channel.Service, guideService *guide.Service) {
	handler := NewChannelHandler(channelService, guideService)

	channels := apiGroup.Group("/channels")
	{
		channels.POST("", handler.CreateChannel)
		channels.GET("", handler.ListChannels)
		channels.GET("/:id", handler.GetChannel)
		channels.PUT("/:id/pool", handler.UpdatePool)
		channels.DELETE("/:id", handler.DeleteChannel)
		channels.GET("/:id/schedule", handler.GetSchedule)
		channels.GET("/:id/position", handler.GetPosition)
		channels.GET("/:id/upcoming", handler.GetUpcoming)
	}
}
