package storage

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"spendtrack/internal/models"

	"modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// SQLITE_CONSTRAINT_UNIQUE, see https://sqlite.org/rescode.html
const sqliteConstraintUnique = 2067

// IsUniqueViolation reports whether err is a unique-constraint failure
// on the given column, e.g. "users.username".
func IsUniqueViolation(err error, column string) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqliteConstraintUnique && strings.Contains(se.Error(), column)
}

// DB wraps a sql.DB connection.
type DB struct {
	conn *sql.DB
}

// NewDB opens a database connection and runs migrations.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			amount REAL NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			date DATE NOT NULL,
			user_id INTEGER NOT NULL,
			category_id INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (category_id) REFERENCES categories(id)
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			expires_at DATETIME NOT NULL,
			last_activity DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_user_date ON expenses(user_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_categories_user ON categories(user_id)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}

	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// CreateUserWithCategories creates a user row and its seed categories in a
// single transaction; either all rows are created or none.
func (db *DB) CreateUserWithCategories(username, email, passwordHash string, categoryNames []string) (*models.User, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		"INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)",
		username, email, passwordHash,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	for _, name := range categoryNames {
		if _, err := tx.Exec(
			"INSERT INTO categories (name, user_id) VALUES (?, ?)",
			name, id,
		); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return db.GetUserByID(id)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(id int64) (*models.User, error) {
	return scanUser(db.conn.QueryRow(
		"SELECT id, username, email, password_hash, created_at FROM users WHERE id = ?",
		id,
	))
}

// GetUserByUsername retrieves a user by username.
func (db *DB) GetUserByUsername(username string) (*models.User, error) {
	return scanUser(db.conn.QueryRow(
		"SELECT id, username, email, password_hash, created_at FROM users WHERE username = ?",
		username,
	))
}

// GetUserByEmail retrieves a user by email.
func (db *DB) GetUserByEmail(email string) (*models.User, error) {
	return scanUser(db.conn.QueryRow(
		"SELECT id, username, email, password_hash, created_at FROM users WHERE email = ?",
		email,
	))
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// ListCategories retrieves a user's categories ordered by ID.
func (db *DB) ListCategories(userID int64) ([]models.Category, error) {
	rows, err := db.conn.Query(
		"SELECT id, name, user_id FROM categories WHERE user_id = ? ORDER BY id",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.UserID); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

// GetCategory retrieves a single category by ID.
func (db *DB) GetCategory(id int64) (*models.Category, error) {
	var c models.Category
	err := db.conn.QueryRow(
		"SELECT id, name, user_id FROM categories WHERE id = ?",
		id,
	).Scan(&c.ID, &c.Name, &c.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// CreateCategory inserts a new category for a user.
func (db *DB) CreateCategory(userID int64, name string) (int64, error) {
	result, err := db.conn.Exec(
		"INSERT INTO categories (name, user_id) VALUES (?, ?)",
		name, userID,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// DeleteCategory removes a category by ID.
func (db *DB) DeleteCategory(id int64) error {
	_, err := db.conn.Exec("DELETE FROM categories WHERE id = ?", id)
	return err
}

// CategoryExpenseCount returns the number of expenses referencing a category.
func (db *DB) CategoryExpenseCount(categoryID int64) (int, error) {
	var count int
	err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM expenses WHERE category_id = ?",
		categoryID,
	).Scan(&count)
	return count, err
}

// CreateExpense inserts a new expense and returns its ID.
func (db *DB) CreateExpense(e *models.Expense) (int64, error) {
	result, err := db.conn.Exec(
		"INSERT INTO expenses (amount, description, date, user_id, category_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		e.Amount, e.Description, e.Date, e.UserID, e.CategoryID, time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetExpense retrieves a single expense by ID.
func (db *DB) GetExpense(id int64) (*models.Expense, error) {
	var e models.Expense
	err := db.conn.QueryRow(
		"SELECT id, amount, description, date, user_id, category_id, created_at FROM expenses WHERE id = ?",
		id,
	).Scan(&e.ID, &e.Amount, &e.Description, &e.Date, &e.UserID, &e.CategoryID, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// UpdateExpense updates an existing expense in the database.
func (db *DB) UpdateExpense(e *models.Expense) error {
	_, err := db.conn.Exec(
		"UPDATE expenses SET amount = ?, description = ?, date = ?, category_id = ? WHERE id = ?",
		e.Amount, e.Description, e.Date, e.CategoryID, e.ID,
	)
	return err
}

// DeleteExpense removes an expense by ID.
func (db *DB) DeleteExpense(id int64) error {
	_, err := db.conn.Exec("DELETE FROM expenses WHERE id = ?", id)
	return err
}

func (db *DB) queryExpenses(query string, args ...any) ([]models.Expense, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.Amount, &e.Description, &e.Date, &e.UserID, &e.CategoryID, &e.CreatedAt); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}

	return expenses, rows.Err()
}

// ListExpenses retrieves all of a user's expenses, most recent date first.
func (db *DB) ListExpenses(userID int64) ([]models.Expense, error) {
	return db.queryExpenses(
		"SELECT id, amount, description, date, user_id, category_id, created_at FROM expenses WHERE user_id = ? ORDER BY date DESC, id DESC",
		userID,
	)
}

// RecentExpenses retrieves a user's most recently dated expenses, up to limit.
func (db *DB) RecentExpenses(userID int64, limit int) ([]models.Expense, error) {
	return db.queryExpenses(
		"SELECT id, amount, description, date, user_id, category_id, created_at FROM expenses WHERE user_id = ? ORDER BY date DESC, id DESC LIMIT ?",
		userID, limit,
	)
}

// SumExpenses returns the total amount of a user's expenses with
// from <= date <= to.
func (db *DB) SumExpenses(userID int64, from, to time.Time) (float64, error) {
	var total float64
	err := db.conn.QueryRow(
		"SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE user_id = ? AND date >= ? AND date <= ?",
		userID, from, to,
	).Scan(&total)
	return total, err
}

// CountAndSumExpenses returns the number and total amount of a user's
// expenses with from <= date <= to.
func (db *DB) CountAndSumExpenses(userID int64, from, to time.Time) (int, float64, error) {
	var count int
	var total float64
	err := db.conn.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM expenses WHERE user_id = ? AND date >= ? AND date <= ?",
		userID, from, to,
	).Scan(&count, &total)
	return count, total, err
}

// CategoryTotals returns per-category spending sums for a user within the
// window, ordered by category ID. Categories without expenses in the window
// are not returned.
func (db *DB) CategoryTotals(userID int64, from, to time.Time) ([]models.CategoryTotal, error) {
	rows, err := db.conn.Query(`
		SELECT c.name, SUM(e.amount)
		FROM categories c
		JOIN expenses e ON e.category_id = c.id
		WHERE c.user_id = ? AND e.date >= ? AND e.date <= ?
		GROUP BY c.id, c.name
		ORDER BY c.id
	`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []models.CategoryTotal
	for rows.Next() {
		var ct models.CategoryTotal
		if err := rows.Scan(&ct.Name, &ct.Total); err != nil {
			return nil, err
		}
		totals = append(totals, ct)
	}

	return totals, rows.Err()
}

// CreateSession creates a new session for a user.
func (db *DB) CreateSession(token string, userID int64, expiresAt time.Time) error {
	now := time.Now().UTC()
	_, err := db.conn.Exec(
		"INSERT INTO sessions (token, user_id, expires_at, last_activity) VALUES (?, ?, ?, ?)",
		token, userID, expiresAt.UTC(), now,
	)
	return err
}

// SessionInfo holds session validation data.
type SessionInfo struct {
	User         *models.User
	LastActivity time.Time
	ExpiresAt    time.Time
}

// ValidateSession checks if a session token is valid and returns the associated user.
func (db *DB) ValidateSession(token string) (*models.User, error) {
	info, err := db.ValidateSessionWithInfo(token)
	if err != nil {
		return nil, err
	}
	return info.User, nil
}

// ValidateSessionWithInfo checks if a session token is valid and returns session details.
func (db *DB) ValidateSessionWithInfo(token string) (*SessionInfo, error) {
	row := db.conn.QueryRow(`
		SELECT u.id, u.username, u.email, u.password_hash, u.created_at, s.last_activity, s.expires_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > ?
	`, token, time.Now().UTC())

	var u models.User
	var lastActivity, expiresAt time.Time
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &lastActivity, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &SessionInfo{
		User:         &u,
		LastActivity: lastActivity,
		ExpiresAt:    expiresAt,
	}, nil
}

// RenewSession updates the last_activity and expires_at for a session.
func (db *DB) RenewSession(token string, newExpiresAt time.Time) error {
	now := time.Now().UTC()
	_, err := db.conn.Exec(
		"UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?",
		now, newExpiresAt.UTC(), token,
	)
	return err
}

// DeleteSession removes a session by token.
func (db *DB) DeleteSession(token string) error {
	_, err := db.conn.Exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}

// CleanExpiredSessions removes all expired sessions.
func (db *DB) CleanExpiredSessions() error {
	_, err := db.conn.Exec("DELETE FROM sessions WHERE expires_at <= ?", time.Now().UTC())
	return err
}
