package models

import "time"

// Category описывает категорию волонтёрских услуг.
// Имя уникально без учёта регистра.
type Category struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CategoryCount количество заявок в категории.
// CategoryID == nil означает корзину "без категории".
type CategoryCount struct {
	CategoryID *int64 `db:"category_id" json:"category_id"`
	Total      int    `db:"total" json:"total"`
}

// CategoryStatusBreakdown разбивка заявок категории по статусам.
type CategoryStatusBreakdown struct {
	Pending   int `json:"pending"`
	Active    int `json:"active"`
	Late      int `json:"late"`
	Completed int `json:"completed"`
	Total     int `json:"total"`
}
