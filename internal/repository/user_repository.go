package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/ticket-escrow/internal/model"
)

// UserRepo provides access to the users table.  Emails are stored
// lowercased and trimmed; every account carries the 32-byte address it
// acts as in the ticketing engine.
type UserRepo struct{ DB *sql.DB }

// NewUserRepo creates a new UserRepo with the given database handle.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// userColumns is the column list scanUser expects, in order.
const userColumns = "id,email,password_hash,role,address,is_active,created_at,updated_at"

// Create inserts a user with an already hashed password and returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, hash, role string, addr model.Address) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, address) VALUES (?,?,?,?)",
		email, hash, role, addr[:])
	if err != nil {
		var me *mysql.MySQLError
		// 1062 is ER_DUP_ENTRY, raised by the unique key on email.
		if errors.As(err, &me) && me.Number == 1062 {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// scanUser reads one users row.  sql.ErrNoRows becomes
// model.ErrUserNotFound so callers need not inspect driver errors.
func scanUser(row rowScanner) (model.User, error) {
	var (
		u    model.User
		addr []byte
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &addr, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, model.ErrUserNotFound
		}
		return model.User{}, err
	}
	a, err := model.AddressFromBytes(addr)
	if err != nil {
		return model.User{}, err
	}
	u.Address = a
	return u, nil
}
