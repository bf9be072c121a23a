package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/study-hall-reservation/internal/model"
)

// EnsureSchema creates the tables used by the MySQL backend when they do
// not exist yet.  End times and message timestamps are stored as epoch
// milliseconds so comparisons are timezone-free and match the wire format.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS seats (
			number       INT          NOT NULL PRIMARY KEY,
			booked_by    VARCHAR(255) NULL,
			end_time     BIGINT       NULL,
			friend_label VARCHAR(255) NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id            CHAR(36)     NOT NULL PRIMARY KEY,
			sender        VARCHAR(255) NOT NULL,
			receiver      VARCHAR(255) NOT NULL,
			text          VARCHAR(500) NOT NULL,
			timestamp_ms  BIGINT       NOT NULL,
			INDEX idx_messages_pair (sender, receiver, timestamp_ms)
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			name          VARCHAR(255)    NOT NULL,
			email         VARCHAR(255)    NOT NULL UNIQUE,
			password_hash VARCHAR(255)    NOT NULL,
			created_at    TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// MySQLSeatStore provides seat rows backed by the seats table.
type MySQLSeatStore struct {
	db *sql.DB
}

// NewMySQLSeatStore constructs a MySQLSeatStore with the given DB handle.
func NewMySQLSeatStore(db *sql.DB) *MySQLSeatStore { return &MySQLSeatStore{db: db} }

func scanSeat(row interface{ Scan(...any) error }) (*model.Seat, error) {
	var s model.Seat
	var bookedBy, label sql.NullString
	var endMs sql.NullInt64
	if err := row.Scan(&s.Number, &bookedBy, &endMs, &label); err != nil {
		return nil, err
	}
	s.BookedBy = bookedBy.String
	s.FriendLabel = label.String
	if endMs.Valid {
		t := time.UnixMilli(endMs.Int64).UTC()
		s.EndTime = &t
	}
	return &s, nil
}

func (r *MySQLSeatStore) All(ctx context.Context) ([]model.Seat, error) {
	const q = `SELECT number, booked_by, end_time, friend_label
	           FROM seats ORDER BY number`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *MySQLSeatStore) Get(ctx context.Context, number int) (*model.Seat, error) {
	const q = `SELECT number, booked_by, end_time, friend_label
	           FROM seats WHERE number = ?`
	s, err := scanSeat(r.db.QueryRowContext(ctx, q, number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return s, nil
}

// seatExecutor is the subset of database/sql shared by *sql.DB and
// *sql.Tx, letting the same seat write run standalone or transactional.
type seatExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func saveSeat(ctx context.Context, ex seatExecutor, seat *model.Seat) error {
	const q = `UPDATE seats SET booked_by = ?, end_time = ?, friend_label = ?
	           WHERE number = ?`
	var bookedBy, label sql.NullString
	var endMs sql.NullInt64
	if seat.BookedBy != "" {
		bookedBy = sql.NullString{String: seat.BookedBy, Valid: true}
	}
	if seat.FriendLabel != "" {
		label = sql.NullString{String: seat.FriendLabel, Valid: true}
	}
	if seat.EndTime != nil {
		endMs = sql.NullInt64{Int64: seat.EndTime.UnixMilli(), Valid: true}
	}
	res, err := ex.ExecContext(ctx, q, bookedBy, endMs, label, seat.Number)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is also zero for a no-change update, so confirm
		// the row actually exists before reporting not found.
		var number int
		err := ex.QueryRowContext(ctx, `SELECT number FROM seats WHERE number = ?`, seat.Number).Scan(&number)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSeatNotFound
		}
		return err
	}
	return nil
}

func (r *MySQLSeatStore) Save(ctx context.Context, seat *model.Seat) error {
	return saveSeat(ctx, r.db, seat)
}

// SavePair writes both rows inside one transaction, so a failure partway
// rolls back and never leaves half the pair booked.
func (r *MySQLSeatStore) SavePair(ctx context.Context, a, b *model.Seat) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := saveSeat(ctx, tx, a); err != nil {
		return err
	}
	if err := saveSeat(ctx, tx, b); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *MySQLSeatStore) SweepExpired(ctx context.Context, now time.Time) error {
	const q = `UPDATE seats
	           SET booked_by = NULL, end_time = NULL, friend_label = NULL
	           WHERE end_time IS NOT NULL AND end_time <= ?`
	_, err := r.db.ExecContext(ctx, q, now.UnixMilli())
	return err
}

func (r *MySQLSeatStore) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM seats`).Scan(&n)
	return n, err
}

func (r *MySQLSeatStore) InsertMany(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	// Only the numbers are seeded; new seats are always free.
	query := `INSERT INTO seats (number, booked_by, end_time, friend_label) VALUES `
	args := make([]interface{}, 0, len(seats))
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, NULL, NULL, NULL)"
		args = append(args, s.Number)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// MySQLMessageStore provides conversation rows backed by the messages table.
type MySQLMessageStore struct {
	db *sql.DB
}

// NewMySQLMessageStore constructs a MySQLMessageStore with the given DB handle.
func NewMySQLMessageStore(db *sql.DB) *MySQLMessageStore { return &MySQLMessageStore{db: db} }

func (r *MySQLMessageStore) Conversation(ctx context.Context, a, b string, limit int) ([]model.Message, error) {
	const q = `SELECT id, sender, receiver, text, timestamp_ms
	           FROM messages
	           WHERE (sender = ? AND receiver = ?) OR (sender = ? AND receiver = ?)
	           ORDER BY timestamp_ms DESC
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, a, b, b, a, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var newestFirst []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.Sender, &m.Receiver, &m.Text, &m.Timestamp); err != nil {
			return nil, err
		}
		newestFirst = append(newestFirst, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Reverse into ascending timestamp order for delivery.
	out := make([]model.Message, len(newestFirst))
	for i, m := range newestFirst {
		out[len(newestFirst)-1-i] = m
	}
	return out, nil
}

func (r *MySQLMessageStore) Append(ctx context.Context, msg model.Message) error {
	const q = `INSERT INTO messages (id, sender, receiver, text, timestamp_ms)
	           VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, msg.ID, msg.Sender, msg.Receiver, msg.Text, msg.Timestamp)
	return err
}

// MySQLUserStore provides account rows backed by the users table.
type MySQLUserStore struct {
	db *sql.DB
}

// NewMySQLUserStore constructs a MySQLUserStore with the given DB handle.
func NewMySQLUserStore(db *sql.DB) *MySQLUserStore { return &MySQLUserStore{db: db} }

func (r *MySQLUserStore) Create(ctx context.Context, name, email, passwordHash string) (*model.User, error) {
	email = strings.ToLower(email)
	const q = `INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, name, email, passwordHash)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 { // duplicate key
			return nil, ErrEmailExists
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.User{
		ID:           uint64(id),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func (r *MySQLUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT id, name, email, password_hash, created_at
	           FROM users WHERE email = ?`
	var u model.User
	err := r.db.QueryRowContext(ctx, q, strings.ToLower(email)).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *MySQLUserStore) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	const q = `SELECT id, name, email, password_hash, created_at
	           FROM users WHERE id = ?`
	var u model.User
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
