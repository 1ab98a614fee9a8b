package models

import "strings"

type Category string

const (
	CategoryTask     Category = "task"
	CategoryReminder Category = "reminder"
	CategoryExpense  Category = "expense"
	CategoryLink     Category = "link"
	CategoryNote     Category = "note"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryTask,
	CategoryReminder,
	CategoryExpense,
	CategoryLink,
	CategoryNote,
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryTask, CategoryReminder, CategoryExpense, CategoryLink, CategoryNote:
		return true
	}
	return false
}

// ParseCategory normalizes case and surrounding whitespace. ok is false for unknown values.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	return c, c.IsValid()
}

// CoerceCategory maps anything unrecognized to CategoryNote.
func CoerceCategory(s string) Category {
	if c, ok := ParseCategory(s); ok {
		return c
	}
	return CategoryNote
}
