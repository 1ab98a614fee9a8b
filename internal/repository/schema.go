package repository

const itemsTable = "items"

var itemColumns = []string{
	"id", "category", "title", "summary", "key_detail", "extracted_text", "suggested_action", "created_at",
}

const postgresItemsSchema = `
CREATE TABLE IF NOT EXISTS items (
	id BIGSERIAL PRIMARY KEY,
	category TEXT NOT NULL CHECK (category IN ('task', 'reminder', 'expense', 'link', 'note')),
	title TEXT NOT NULL,
	summary TEXT,
	key_detail TEXT,
	extracted_text TEXT,
	suggested_action TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_items_category_created_at ON items (category, created_at DESC);
`

const sqliteItemsSchema = `
CREATE TABLE IF NOT EXISTS items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	category TEXT NOT NULL CHECK (category IN ('task', 'reminder', 'expense', 'link', 'note')),
	title TEXT NOT NULL,
	summary TEXT,
	key_detail TEXT,
	extracted_text TEXT,
	suggested_action TEXT,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_items_category_created_at ON items (category, created_at DESC);
`
