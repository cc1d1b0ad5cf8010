package api

import (
	"time"

	"airwave/internal/models"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ScheduledItemResponse represents a single scheduled item in API responses
type ScheduledItemResponse struct {
	Kind            string    `json:"kind"`
	CatalogID       string    `json:"catalog_id"`
	Title           string    `json:"title"`
	ShowName        string    `json:"show_name,omitempty"`
	Season          int       `json:"season,omitempty"`
	Episode         int       `json:"episode,omitempty"`
	ArtworkRef      string    `json:"artwork_ref,omitempty"`
	DurationSeconds int64     `json:"duration_seconds"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
}

// toScheduledItemResponse converts a scheduled item to API response format
func toScheduledItemResponse(item models.ScheduledItem) ScheduledItemResponse {
	return ScheduledItemResponse{
		Kind:            string(item.Kind),
		CatalogID:       item.CatalogID,
		Title:           item.Title,
		ShowName:        item.ShowName,
		Season:          item.Season,
		Episode:         item.Episode,
		ArtworkRef:      item.ArtworkRef,
		DurationSeconds: item.DurationSeconds,
		StartTime:       item.StartTime,
		EndTime:         item.EndTime,
	}
}

func toScheduledItemResponses(items []models.ScheduledItem) []ScheduledItemResponse {
	responses := make([]ScheduledItemResponse, len(items))
	for i, item := range items {
		responses[i] = toScheduledItemResponse(item)
	}
	return responses
}
