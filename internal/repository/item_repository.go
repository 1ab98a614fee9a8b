package repository

import (
	"context"
	"snaplens/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ItemRepository stores items in PostgreSQL.
type ItemRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewItemRepository(db *pgxpool.Pool, logger *zap.Logger) *ItemRepository {
	return &ItemRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the items table when it does not exist yet.
func (r *ItemRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, postgresItemsSchema)
	return err
}

// Create inserts item and sets its ID.
func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	query := squirrel.Insert(itemsTable).
		Columns("category", "title", "summary", "key_detail", "extracted_text", "suggested_action", "created_at").
		Values(item.Category, item.Title, item.Summary, item.KeyDetail, item.ExtractedText, item.SuggestedAction, item.CreatedAt).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	return r.db.QueryRow(ctx, sql, args...).Scan(&item.ID)
}

// List returns items newest first, only those of category when it is non-nil.
func (r *ItemRepository) List(ctx context.Context, category *models.Category) ([]*models.Item, error) {
	query := squirrel.Select(itemColumns...).
		From(itemsTable).
		OrderBy("created_at DESC", "id DESC").
		PlaceholderFormat(squirrel.Dollar)

	if category != nil {
		query = query.Where(squirrel.Eq{"category": *category})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*models.Item{}
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(
			&item.ID, &item.Category, &item.Title, &item.Summary, &item.KeyDetail, &item.ExtractedText, &item.SuggestedAction, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		item.CreatedAt = item.CreatedAt.UTC()
		items = append(items, &item)
	}

	return items, rows.Err()
}

// Delete removes the item with id and reports whether a row was removed.
func (r *ItemRepository) Delete(ctx context.Context, id int64) (bool, error) {
	query := squirrel.Delete(itemsTable).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return false, err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}
