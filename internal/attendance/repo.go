package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresRepository persists attendance data in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// translate maps constraint violations onto the repository sentinels while
// keeping the driver error in the chain.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.Message)
		case "23503":
			return fmt.Errorf("%w: %s", ErrForeignKey, pgErr.Message)
		}
	}
	return err
}

const userColumns = `id, user_id, name, role, email, year, branch, department, password_hash, reset_token, reset_expiry, created_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.UserID, &u.Name, &u.Role, &u.Email, &u.Year, &u.Branch, &u.Department,
		&u.PasswordHash, &u.ResetToken, &u.ResetExpiry, &u.CreatedAt); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *PostgresRepository) CreateUser(ctx context.Context, u *User) error {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (user_id, name, role, email, year, branch, department, password_hash)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at
	`, u.UserID, u.Name, u.Role, u.Email, u.Year, u.Branch, u.Department, u.PasswordHash)
	return translate(row.Scan(&u.ID, &u.CreatedAt))
}

func (r *PostgresRepository) GetUser(ctx context.Context, userID string) (*User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID))
}

func (r *PostgresRepository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *PostgresRepository) UpdateUser(ctx context.Context, u *User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET name = $2, email = $3, year = $4, branch = $5, department = $6,
			password_hash = $7, reset_token = $8, reset_expiry = $9
		WHERE user_id = $1
	`, u.UserID, u.Name, u.Email, u.Year, u.Branch, u.Department, u.PasswordHash, u.ResetToken, u.ResetExpiry)
	if err != nil {
		return translate(err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) ListUsers(ctx context.Context, role string) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}
	if role != "" {
		query += ` WHERE role = $1`
		args = append(args, role)
	}
	query += ` ORDER BY user_id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *u)
	}
	return res, rows.Err()
}

func (r *PostgresRepository) LogActivity(ctx context.Context, userID, activity, details string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_activity (user_id, activity_type, details, created_at) VALUES ($1,$2,$3,$4)
	`, userID, activity, details, at)
	return translate(err)
}

const recordColumns = `id, user_id, check_in_time, check_out_time, block_name, period, wifi_name, duration, status`

func scanRecord(row interface{ Scan(...any) error }) (*Record, error) {
	var rec Record
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.CheckIn, &rec.CheckOut, &rec.BlockName, &rec.Period,
		&rec.WifiName, &rec.Duration, &rec.Status); err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

func (r *PostgresRepository) InsertRecord(ctx context.Context, rec *Record) error {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance (user_id, check_in_time, check_out_time, block_name, period, wifi_name, duration, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`, rec.UserID, rec.CheckIn, rec.CheckOut, rec.BlockName, rec.Period, rec.WifiName, rec.Duration, rec.Status)
	return translate(row.Scan(&rec.ID))
}

func (r *PostgresRepository) GetRecord(ctx context.Context, id int64) (*Record, error) {
	return scanRecord(r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM attendance WHERE id = $1`, id))
}

func (r *PostgresRepository) OpenRecord(ctx context.Context, userID string) (*Record, error) {
	return scanRecord(r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM attendance
		WHERE user_id = $1 AND check_out_time IS NULL
		ORDER BY check_in_time DESC
		LIMIT 1
	`, userID))
}

func (r *PostgresRepository) UpdateRecord(ctx context.Context, rec *Record) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE attendance
		SET check_out_time = $2, duration = $3, status = $4
		WHERE id = $1
	`, rec.ID, rec.CheckOut, rec.Duration, rec.Status)
	if err != nil {
		return translate(err)
	}
	return requireRow(res)
}

// ListRecords returns records with basic filters, newest first.
func (r *PostgresRepository) ListRecords(ctx context.Context, f RecordFilter) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM attendance`
	args := []any{}
	clauses := []string{}
	if f.UserID != "" {
		args = append(args, f.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		clauses = append(clauses, fmt.Sprintf("check_in_time >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		clauses = append(clauses, fmt.Sprintf("check_in_time <= $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY check_in_time DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *rec)
	}
	return res, rows.Err()
}

func (r *PostgresRepository) InsertTimetable(ctx context.Context, e *TimetableEntry) error {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO timetable (user_id, created_by, day, period, start_time, end_time, block_name, wifi_name)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`, e.UserID, e.CreatedBy, e.Day, e.Period, e.StartTime, e.EndTime, e.BlockName, e.WifiName)
	return translate(row.Scan(&e.ID))
}

func (r *PostgresRepository) ListTimetable(ctx context.Context, f TimetableFilter) ([]TimetableEntry, error) {
	query := `SELECT id, user_id, created_by, day, period, start_time, end_time, block_name, wifi_name FROM timetable`
	args := []any{}
	clauses := []string{}
	if f.UserID != "" {
		args = append(args, f.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.CreatedBy != "" {
		args = append(args, f.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("created_by = $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []TimetableEntry
	for rows.Next() {
		var e TimetableEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.CreatedBy, &e.Day, &e.Period, &e.StartTime, &e.EndTime, &e.BlockName, &e.WifiName); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	SortTimetable(res)
	return res, nil
}

func (r *PostgresRepository) InsertCorrection(ctx context.Context, c *CorrectionRequest) error {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO correction_requests (user_id, attendance_id, reason, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$5)
		RETURNING id
	`, c.UserID, c.AttendanceID, c.Reason, c.Status, c.CreatedAt)
	return translate(row.Scan(&c.ID))
}

func (r *PostgresRepository) ListCorrections(ctx context.Context, status string) ([]CorrectionRequest, error) {
	query := `SELECT id, user_id, attendance_id, reason, status, created_at, updated_at FROM correction_requests`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []CorrectionRequest
	for rows.Next() {
		var c CorrectionRequest
		if err := rows.Scan(&c.ID, &c.UserID, &c.AttendanceID, &c.Reason, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r *PostgresRepository) InsertNotification(ctx context.Context, n *Notification) error {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO notifications (recipient_id, student_id, message, created_at, is_read)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id
	`, n.RecipientID, n.StudentID, n.Message, n.CreatedAt, n.IsRead)
	return translate(row.Scan(&n.ID))
}

func (r *PostgresRepository) ListNotifications(ctx context.Context, recipientID string, unreadOnly bool) ([]Notification, error) {
	query := `SELECT id, recipient_id, student_id, message, created_at, is_read FROM notifications WHERE recipient_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.StudentID, &n.Message, &n.CreatedAt, &n.IsRead); err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	return res, rows.Err()
}

func (r *PostgresRepository) MarkNotificationRead(ctx context.Context, recipientID string, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient_id = $2`, id, recipientID)
	if err != nil {
		return translate(err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
