package item

import (
	"time"

	"github.com/google/uuid"
)

// CreateItemRequest for POST /items
type CreateItemRequest struct {
	Title        string   `json:"title" validate:"required,min=3,max=150"`
	Description  string   `json:"description" validate:"required,min=10,max=2000"`
	CategorySlug string   `json:"category" validate:"required"`
	Size         string   `json:"size" validate:"required,max=20"`
	Condition    string   `json:"condition" validate:"required,condition"`
	Brand        string   `json:"brand" validate:"omitempty,max=100"`
	Color        string   `json:"color" validate:"omitempty,max=50"`
	Material     string   `json:"material" validate:"omitempty,max=100"`
	Points       int64    `json:"points" validate:"gte=0,lte=10000"`
	Images       []string `json:"images" validate:"required,min=1,max=8,dive,url"`
	Tags         []string `json:"tags" validate:"omitempty,max=10,dive,min=1,max=30"`
}

// UpdateItemRequest for PATCH /items/{id}
type UpdateItemRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=3,max=150"`
	Description *string  `json:"description" validate:"omitempty,min=10,max=2000"`
	Size        *string  `json:"size" validate:"omitempty,max=20"`
	Condition   *string  `json:"condition" validate:"omitempty,condition"`
	Brand       *string  `json:"brand" validate:"omitempty,max=100"`
	Color       *string  `json:"color" validate:"omitempty,max=50"`
	Material    *string  `json:"material" validate:"omitempty,max=100"`
	Points      *int64   `json:"points" validate:"omitempty,gte=0,lte=10000"`
	Images      []string `json:"images" validate:"omitempty,min=1,max=8,dive,url"`
	Tags        []string `json:"tags" validate:"omitempty,max=10,dive,min=1,max=30"`
}

// OwnerSummary is the joined owner info shown on catalog cards
type OwnerSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Location  string    `json:"location,omitempty"`
}

// ItemResponse represents an item in API responses
type ItemResponse struct {
	ID           uuid.UUID    `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Category     string       `json:"category"`
	CategorySlug string       `json:"category_slug"`
	Size         string       `json:"size"`
	Condition    string       `json:"condition"`
	Brand        string       `json:"brand,omitempty"`
	Color        string       `json:"color,omitempty"`
	Material     string       `json:"material,omitempty"`
	Points       int64        `json:"points"`
	Status       Status       `json:"status"`
	Images       []string     `json:"images"`
	Tags         []string     `json:"tags"`
	Views        int          `json:"views"`
	Owner        OwnerSummary `json:"owner"`
	CreatedAt    string       `json:"created_at"`
}

// NewItemResponse builds an ItemResponse from the entity
func NewItemResponse(i *Item) ItemResponse {
	resp := ItemResponse{
		ID:           i.ID,
		Title:        i.Title,
		Description:  i.Description,
		Category:     i.CategoryName,
		CategorySlug: i.CategorySlug,
		Size:         i.Size,
		Condition:    i.Condition,
		Points:       i.Points,
		Status:       i.Status,
		Images:       []string(i.Images),
		Tags:         []string(i.Tags),
		Views:        i.Views,
		Owner: OwnerSummary{
			ID:   i.OwnerID,
			Name: i.OwnerName,
		},
		CreatedAt: i.CreatedAt.Format(time.RFC3339),
	}
	if i.Brand.Valid {
		resp.Brand = i.Brand.String
	}
	if i.Color.Valid {
		resp.Color = i.Color.String
	}
	if i.Material.Valid {
		resp.Material = i.Material.String
	}
	if i.OwnerAvatar.Valid {
		resp.Owner.AvatarURL = i.OwnerAvatar.String
	}
	if i.OwnerLocation.Valid {
		resp.Owner.Location = i.OwnerLocation.String
	}
	if resp.Images == nil {
		resp.Images = []string{}
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	return resp
}

// NewItemResponses maps a slice of entities
func NewItemResponses(items []*Item) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, i := range items {
		out = append(out, NewItemResponse(i))
	}
	return out
}
