package category

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rewear/rewear-api/internal/pkg/response"
)

// Category represents a garment category (matches categories table)
type Category struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

var ErrCategoryNotFound = errors.New("category not found")

// Repository for categories
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates category repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// List returns all categories ordered by name
func (r *Repository) List(ctx context.Context) ([]*Category, error) {
	var categories []*Category
	err := r.db.SelectContext(ctx, &categories, `SELECT id, name, slug, created_at FROM categories ORDER BY name`)
	return categories, err
}

// GetBySlug returns a category by its slug
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	var c Category
	err := r.db.GetContext(ctx, &c, `SELECT id, name, slug, created_at FROM categories WHERE slug = $1`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Handler for category API
type Handler struct {
	repo *Repository
}

// NewHandler creates category handler
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /categories
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.List(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, categories)
}

// Routes returns category router
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	return r
}
