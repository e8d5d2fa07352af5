package item

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Filter represents catalog search filters
type Filter struct {
	CategorySlug *string
	Search       *string
	OwnerID      *uuid.UUID
	Status       *Status
}

// SortBy represents catalog sort options
type SortBy string

const (
	SortByNewest     SortBy = "newest"
	SortByPointsAsc  SortBy = "points_asc"
	SortByPointsDesc SortBy = "points_desc"
)

// Pagination for listing
type Pagination struct {
	Page  int
	Limit int
}

// Repository defines item data access interface
type Repository interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, item *Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	Update(ctx context.Context, item *Item) error
	SetStatus(ctx context.Context, id uuid.UUID, status Status) error
	MarkSwappedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error
	List(ctx context.Context, filter *Filter, sortBy SortBy, pagination *Pagination) ([]*Item, int, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Item, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Item, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new item repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const itemSelectColumns = `
	i.id, i.owner_id, i.category_id, i.title, i.description, i.size, i.condition,
	i.brand, i.color, i.material, i.points, i.status, i.images, i.tags, i.views,
	i.created_at, i.updated_at,
	c.name AS category_name, c.slug AS category_slug,
	p.name AS owner_name, p.avatar_url AS owner_avatar, p.location AS owner_location
`

const itemJoins = `
	FROM items i
	JOIN categories c ON c.id = i.category_id
	JOIN profiles p ON p.id = i.owner_id
`

func (r *repository) CreateTx(ctx context.Context, tx *sqlx.Tx, item *Item) error {
	query := `
		INSERT INTO items (
			id, owner_id, category_id, title, description, size, condition,
			brand, color, material, points, status, images, tags, views,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17
		)
	`

	_, err := tx.ExecContext(ctx, query,
		item.ID, item.OwnerID, item.CategoryID, item.Title, item.Description, item.Size, item.Condition,
		item.Brand, item.Color, item.Material, item.Points, item.Status, item.Images, item.Tags, item.Views,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return fmt.Errorf("%w: %w", ErrInvalidCategory, err)
		}
		return fmt.Errorf("item repository create: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	query := `SELECT ` + itemSelectColumns + itemJoins + ` WHERE i.id = $1`

	var item Item
	err := r.db.GetContext(ctx, &item, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &item, nil
}

func (r *repository) Update(ctx context.Context, item *Item) error {
	query := `
		UPDATE items SET
			title = $2, description = $3, size = $4, condition = $5,
			brand = $6, color = $7, material = $8, points = $9,
			images = $10, tags = $11,
			updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.Title, item.Description, item.Size, item.Condition,
		item.Brand, item.Color, item.Material, item.Points,
		item.Images, item.Tags,
	)
	return err
}

func (r *repository) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	query := `UPDATE items SET status = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrItemNotFound
	}
	return nil
}

// MarkSwappedTx flips an item from active to swapped inside the
// settlement transaction. The WHERE status = 'active' guard is what
// makes the second of two competing accepts fail instead of
// double-allocating the item.
func (r *repository) MarkSwappedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	query := `UPDATE items SET status = 'swapped', updated_at = NOW() WHERE id = $1 AND status = 'active'`
	res, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrItemNotActive
	}
	return nil
}

func (r *repository) List(ctx context.Context, filter *Filter, sortBy SortBy, pagination *Pagination) ([]*Item, int, error) {
	conditions := []string{}
	args := []interface{}{}
	argIndex := 1

	// Nil status means no filter; callers decide what they surface
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("i.status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.CategorySlug != nil && *filter.CategorySlug != "" && *filter.CategorySlug != "all" {
		conditions = append(conditions, fmt.Sprintf("c.slug = $%d", argIndex))
		args = append(args, *filter.CategorySlug)
		argIndex++
	}

	if filter.OwnerID != nil {
		conditions = append(conditions, fmt.Sprintf("i.owner_id = $%d", argIndex))
		args = append(args, *filter.OwnerID)
		argIndex++
	}

	if filter.Search != nil && *filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(i.title ILIKE $%d OR i.brand ILIKE $%d)",
			argIndex, argIndex,
		))
		args = append(args, "%"+*filter.Search+"%")
		argIndex++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) " + itemJoins + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	var orderBy string
	switch sortBy {
	case SortByPointsAsc:
		orderBy = "ORDER BY i.points ASC, i.created_at DESC"
	case SortByPointsDesc:
		orderBy = "ORDER BY i.points DESC, i.created_at DESC"
	default:
		orderBy = "ORDER BY i.created_at DESC"
	}

	offset := (pagination.Page - 1) * pagination.Limit
	query := fmt.Sprintf(`
		SELECT %s %s
		%s %s
		LIMIT $%d OFFSET $%d
	`, itemSelectColumns, itemJoins, where, orderBy, argIndex, argIndex+1)
	args = append(args, pagination.Limit, offset)

	var items []*Item
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Item, error) {
	query := `
		SELECT ` + itemSelectColumns + itemJoins + `
		WHERE i.owner_id = $1
		ORDER BY i.created_at DESC
	`

	var items []*Item
	err := r.db.SelectContext(ctx, &items, query, ownerID)
	return items, err
}

// ListByIDs returns the named items in the order the ids were given.
// Missing ids are skipped.
func (r *repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + itemSelectColumns + itemJoins + `
		WHERE i.id = ANY($1)
	`

	var items []*Item
	if err := r.db.SelectContext(ctx, &items, query, pq.Array(ids)); err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	ordered := make([]*Item, 0, len(items))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			ordered = append(ordered, it)
		}
	}
	return ordered, nil
}

func (r *repository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE items SET views = views + 1 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
