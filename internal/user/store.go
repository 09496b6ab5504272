package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

type Store struct {
	db *sql.DB
	// RequireConfirmation rejects logins of users that have not confirmed
	// their email address.
	RequireConfirmation bool
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const userCols = `id, username, email, password_hash, role, confirmed, created_at, confirmed_at, last_login`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var (
		u                      User
		created                int64
		confirmedAt, lastLogin sql.NullInt64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Confirmed, &created, &confirmedAt, &lastLogin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	u.CreatedAt = time.Unix(created, 0).UTC()
	if confirmedAt.Valid {
		t := time.Unix(confirmedAt.Int64, 0).UTC()
		u.ConfirmedAt = &t
	}
	if lastLogin.Valid {
		t := time.Unix(lastLogin.Int64, 0).UTC()
		u.LastLogin = &t
	}
	return u, nil
}

func (s *Store) Create(ctx context.Context, nu NewUser) (User, error) {
	nu.Username = strings.TrimSpace(nu.Username)
	nu.Email = strings.ToLower(strings.TrimSpace(nu.Email))
	if nu.Role == "" {
		nu.Role = RoleStudent
	}
	if !ValidRole(nu.Role) {
		return User{}, ErrInvalidRole
	}
	if len(nu.Password) < 6 {
		return User{}, ErrPasswordTooWeak
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE username=$1`, nu.Username).Scan(&n); err != nil {
		return User{}, err
	}
	if n > 0 {
		return User{}, ErrUsernameTaken
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE email=$1`, nu.Email).Scan(&n); err != nil {
		return User{}, err
	}
	if n > 0 {
		return User{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcryptCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().Unix()
	var confirmedAt any
	if nu.Confirmed {
		confirmedAt = now
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, role, confirmed, created_at, confirmed_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		id, nu.Username, nu.Email, string(hash), nu.Role, boolInt(nu.Confirmed), now, confirmedAt)
	if err != nil {
		return User{}, err
	}
	return s.Get(ctx, id)
}

func (s *Store) Get(ctx context.Context, id string) (User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id))
}

// GetByLogin finds a user by username or email.
func (s *Store) GetByLogin(ctx context.Context, login string) (User, error) {
	login = strings.TrimSpace(login)
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE username=$1 OR email=$2`, login, strings.ToLower(login)))
}

// Authenticate checks the password and records the login time.
func (s *Store) Authenticate(ctx context.Context, login, password string) (User, error) {
	u, err := s.GetByLogin(ctx, login)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrBadCredentials
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrBadCredentials
	}
	if s.RequireConfirmation && !u.Confirmed {
		return User{}, ErrNotConfirmed
	}
	now, err := s.TouchLogin(ctx, u.ID)
	if err != nil {
		return User{}, err
	}
	u.LastLogin = &now
	return u, nil
}

func (s *Store) TouchLogin(ctx context.Context, id string) (time.Time, error) {
	now := time.Now().UTC().Truncate(time.Second)
	_, err := s.db.ExecContext(ctx, `UPDATE users SET last_login=$1 WHERE id=$2`, now.Unix(), id)
	return now, err
}

func (s *Store) List(ctx context.Context, role string) ([]User, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if role == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT `+userCols+` FROM users ORDER BY username`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT `+userCols+` FROM users WHERE role=$1 ORDER BY username`, role)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SetRole changes the role of the user identified by id or username and
// guards against demoting the last admin.
func (s *Store) SetRole(ctx context.Context, target, role string) error {
	role = strings.ToLower(strings.TrimSpace(role))
	if !ValidRole(role) {
		return ErrInvalidRole
	}
	var id, cur string
	err := s.db.QueryRowContext(ctx, `SELECT id, role FROM users WHERE id=$1 OR username=$1`, target).Scan(&id, &cur)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if cur == RoleAdmin && role != RoleAdmin {
		var admins int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE role='admin'`).Scan(&admins); err != nil {
			return err
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}
	_, err = s.db.ExecContext(ctx, `UPDATE users SET role=$1 WHERE id=$2`, role, id)
	return err
}

func (s *Store) MakeAdmin(ctx context.Context, username string) (User, error) {
	u, err := s.GetByLogin(ctx, username)
	if err != nil {
		return User{}, err
	}
	if err := s.SetRole(ctx, u.ID, RoleAdmin); err != nil {
		return User{}, err
	}
	u.Role = RoleAdmin
	return u, nil
}

func (s *Store) Confirm(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET confirmed=1, confirmed_at=$1 WHERE id=$2 AND confirmed=0`, time.Now().Unix(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// either unknown or already confirmed
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return ErrPasswordTooWeak
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)) != nil {
		return ErrWrongPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, string(hash), id)
	return err
}

// DeleteAll removes every result and then every user. It returns the number
// of users deleted.
func (s *Store) DeleteAll(ctx context.Context) (n int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM results`); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users`)
	if err != nil {
		return 0, err
	}
	n, err = res.RowsAffected()
	return n, err
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users`).Scan(&n)
	return n, err
}

// Role returns the stored role for an id; it satisfies the role lookup used
// by the auth middleware.
func (s *Store) Role(ctx context.Context, id string) (string, error) {
	var role string
	err := s.db.QueryRowContext(ctx, `SELECT role FROM users WHERE id=$1`, id).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return role, err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
