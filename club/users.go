package club

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// UserDirectory answers identity lookups for the club components.
type UserDirectory interface {
	UserExists(ctx context.Context, id int64) (bool, error)
	LoadUser(ctx context.Context, id int64) (*User, error)
}

// AddUser registers a user with a bcrypt-hashed password.
func (d *Database) AddUser(ctx context.Context, username, password string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return 0, invalidRequest("username cannot be empty")
	}
	if strings.TrimSpace(password) == "" {
		return 0, invalidRequest("password cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	res, err := d.db.ExecContext(ctx, `INSERT INTO users(username,password_hash,created_at) VALUES(?,?,?)`,
		username, string(hash), d.now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return 0, conflict("username %q is already taken", username)
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

// UserExists reports whether a user with id is registered.
func (d *Database) UserExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := d.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id=?)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return exists, nil
}

// LoadUser fetches a single user.
func (d *Database) LoadUser(ctx context.Context, id int64) (*User, error) {
	return d.scanUser(d.db.QueryRowContext(ctx,
		`SELECT id,username,password_hash,created_at FROM users WHERE id=?`, id), fmt.Sprint(id))
}

// UserByName fetches a user by username.
func (d *Database) UserByName(ctx context.Context, username string) (*User, error) {
	return d.scanUser(d.db.QueryRowContext(ctx,
		`SELECT id,username,password_hash,created_at FROM users WHERE username=?`, username), username)
}

func (d *Database) scanUser(row *sql.Row, key string) (*User, error) {
	var u User
	var created time.Time
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user not found: %s", key)
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	u.CreatedAt = created
	return &u, nil
}

// AuthenticateUser verifies a username/password pair and returns the user.
func (d *Database) AuthenticateUser(ctx context.Context, username, password string) (*User, error) {
	u, err := d.UserByName(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, forbidden("invalid username or password")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, forbidden("invalid username or password")
	}
	return u, nil
}

// requireUser fails with NotFound unless id names a registered user.
func requireUser(ctx context.Context, users UserDirectory, id int64, label string) error {
	ok, err := users.UserExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("%s not found: %d", label, id)
	}
	return nil
}
