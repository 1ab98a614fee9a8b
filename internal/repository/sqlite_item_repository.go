package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"snaplens/internal/models"

	"github.com/Masterminds/squirrel"
	"go.uber.org/zap"
)

// sqliteTimeLayout is fixed width so that text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteItemRepository stores items in a local SQLite file.
type SQLiteItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSQLiteItemRepository(db *sql.DB, logger *zap.Logger) *SQLiteItemRepository {
	return &SQLiteItemRepository{
		db:     db,
		logger: logger,
	}
}

func (r *SQLiteItemRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, sqliteItemsSchema)
	return err
}

func (r *SQLiteItemRepository) Create(ctx context.Context, item *models.Item) error {
	query := squirrel.Insert(itemsTable).
		Columns("category", "title", "summary", "key_detail", "extracted_text", "suggested_action", "created_at").
		Values(string(item.Category), item.Title, item.Summary, item.KeyDetail, item.ExtractedText, item.SuggestedAction,
			item.CreatedAt.UTC().Format(sqliteTimeLayout)).
		PlaceholderFormat(squirrel.Question)

	stmt, args, err := query.ToSql()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted id: %w", err)
	}
	item.ID = id

	return nil
}

func (r *SQLiteItemRepository) List(ctx context.Context, category *models.Category) ([]*models.Item, error) {
	query := squirrel.Select(itemColumns...).
		From(itemsTable).
		OrderBy("created_at DESC", "id DESC").
		PlaceholderFormat(squirrel.Question)

	if category != nil {
		query = query.Where(squirrel.Eq{"category": string(*category)})
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*models.Item{}
	for rows.Next() {
		var (
			item      models.Item
			category  string
			createdAt string
		)
		if err := rows.Scan(
			&item.ID, &category, &item.Title, &item.Summary, &item.KeyDetail, &item.ExtractedText, &item.SuggestedAction, &createdAt,
		); err != nil {
			return nil, err
		}

		item.Category = models.Category(category)
		item.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at of item %d: %w", item.ID, err)
		}
		items = append(items, &item)
	}

	return items, rows.Err()
}

func (r *SQLiteItemRepository) Delete(ctx context.Context, id int64) (bool, error) {
	stmt, args, err := squirrel.Delete(itemsTable).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Question).
		ToSql()
	if err != nil {
		return false, err
	}

	res, err := r.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}
