package models

import "time"

// User represents a registered account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Category is a user-owned expense bucket.
type Category struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	UserID int64  `json:"user_id"`
}

// Expense is a single spending record. Date carries no time-of-day
// component; CreatedAt is the insertion timestamp.
type Expense struct {
	ID          int64     `json:"id"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	UserID      int64     `json:"user_id"`
	CategoryID  int64     `json:"category_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Session represents a user session.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CategoryTotal is a category's summed spending over some window.
type CategoryTotal struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
}

// MonthlyStats is the lightweight month-to-date summary.
type MonthlyStats struct {
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// MonthlyReport is the month-to-date dashboard data for one user.
type MonthlyReport struct {
	Total       float64         `json:"total"`
	ByCategory  []CategoryTotal `json:"by_category"`
	Recent      []Expense       `json:"recent"`
	TopCategory *CategoryTotal  `json:"top_category,omitempty"`
}
