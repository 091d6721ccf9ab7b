package club

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
)

// Registry owns Club rows: creation, metadata updates, deletion and
// public discovery.
type Registry struct {
	db    *Database
	users UserDirectory
	log   logrus.FieldLogger
}

func NewRegistry(db *Database, users UserDirectory, log logrus.FieldLogger) *Registry {
	return &Registry{db: db, users: users, log: log}
}

// CreateClub creates a club owned by ownerID. The club row and the founding
// Owner membership are written in the same transaction.
func (r *Registry) CreateClub(ctx context.Context, ownerID int64, in NewClub) (*Club, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalidRequest("club name cannot be empty")
	}
	if err := requireUser(ctx, r.users, ownerID, "user"); err != nil {
		return nil, err
	}

	c := &Club{
		Name:        name,
		Description: in.Description,
		CreatedOn:   r.db.today(),
	}
	if in.IsPrivate != nil {
		c.IsPrivate = *in.IsPrivate
	}

	err := r.db.inTx(ctx, func(tx *sql.Tx) error {
		if err := ensureNameFree(ctx, tx, name); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO clubs(name,description,is_private,created_on) VALUES(?,?,?,?)`,
			c.Name, c.Description, c.IsPrivate, formatDate(c.CreatedOn))
		if err != nil {
			if isUniqueViolation(err) {
				return conflict("a book club named %q already exists", name)
			}
			return fmt.Errorf("insert club: %w", err)
		}
		if c.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO club_members(club_id,user_id,role,joined_on) VALUES(?,?,?,?)`,
			c.ID, ownerID, RoleOwner.String(), formatDate(c.CreatedOn)); err != nil {
			return fmt.Errorf("insert owner membership: %w", err)
		}
		return nil
	})
	if err != nil {
		logRejected(r.log, err, "create club", logrus.Fields{"user_id": ownerID})
		return nil, err
	}

	r.log.WithFields(logrus.Fields{"club_id": c.ID, "user_id": ownerID}).Info("club created")
	return c, nil
}

// UpdateClub applies the non-nil fields of patch. Owner or Moderator only.
func (r *Registry) UpdateClub(ctx context.Context, callerID, clubID int64, patch ClubPatch) (*Club, error) {
	if err := requireUser(ctx, r.users, callerID, "user"); err != nil {
		return nil, err
	}

	var c *Club
	err := r.db.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		if c, err = loadClub(ctx, tx, clubID); err != nil {
			return err
		}
		m, err := findMembership(ctx, tx, clubID, callerID)
		if err != nil {
			return err
		}
		if err := requireRole(m, RoleModerator, "update this club"); err != nil {
			return err
		}

		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return invalidRequest("club name cannot be empty")
			}
			if name != c.Name {
				if err := ensureNameFree(ctx, tx, name); err != nil {
					return err
				}
				c.Name = name
			}
		}
		if patch.Description != nil {
			c.Description = *patch.Description
		}
		if patch.IsPrivate != nil {
			c.IsPrivate = *patch.IsPrivate
		}

		if _, err := tx.ExecContext(ctx, `UPDATE clubs SET name=?, description=?, is_private=? WHERE id=?`,
			c.Name, c.Description, c.IsPrivate, c.ID); err != nil {
			if isUniqueViolation(err) {
				return conflict("a book club named %q already exists", c.Name)
			}
			return fmt.Errorf("update club: %w", err)
		}
		return nil
	})
	if err != nil {
		logRejected(r.log, err, "update club", logrus.Fields{"club_id": clubID, "user_id": callerID})
		return nil, err
	}

	r.log.WithFields(logrus.Fields{"club_id": clubID, "user_id": callerID}).Info("club updated")
	return c, nil
}

// DeleteClub removes a club together with all its reading items and
// memberships. Owner only.
func (r *Registry) DeleteClub(ctx context.Context, callerID, clubID int64) error {
	if err := requireUser(ctx, r.users, callerID, "user"); err != nil {
		return err
	}

	err := r.db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := loadClub(ctx, tx, clubID); err != nil {
			return err
		}
		m, err := findMembership(ctx, tx, clubID, callerID)
		if err != nil {
			return err
		}
		if err := requireRole(m, RoleOwner, "delete a club"); err != nil {
			return err
		}

		// Children first; the foreign keys would reject the club delete otherwise.
		for _, stmt := range []string{
			`DELETE FROM club_items WHERE club_id=?`,
			`DELETE FROM club_members WHERE club_id=?`,
			`DELETE FROM clubs WHERE id=?`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, clubID); err != nil {
				return fmt.Errorf("delete club: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		logRejected(r.log, err, "delete club", logrus.Fields{"club_id": clubID, "user_id": callerID})
		return err
	}

	r.log.WithFields(logrus.Fields{"club_id": clubID, "user_id": callerID}).Info("club deleted")
	return nil
}

// GetClub returns a club. Private clubs are visible to members only; pass
// Anonymous for callers without an identity.
func (r *Registry) GetClub(ctx context.Context, callerID, clubID int64) (*Club, error) {
	return visibleClub(ctx, r.db.db, r.users, callerID, clubID)
}

// ListPublicClubs returns every public club.
func (r *Registry) ListPublicClubs(ctx context.Context) ([]*Club, error) {
	return queryClubs(ctx, r.db.db, `SELECT `+clubColumns+` FROM clubs WHERE is_private=0 ORDER BY id`)
}

// SearchPublicClubs returns public clubs whose name contains substr,
// ignoring case.
func (r *Registry) SearchPublicClubs(ctx context.Context, substr string) ([]*Club, error) {
	all, err := r.ListPublicClubs(ctx)
	if err != nil {
		return nil, err
	}
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(substr))
	matches := []*Club{}
	for _, c := range all {
		if strings.Contains(fold.String(c.Name), needle) {
			matches = append(matches, c)
		}
	}
	return matches, nil
}

// logRejected records typed failures at debug level. Internal failures are
// left to the caller, which sees them as errors.
func logRejected(log logrus.FieldLogger, err error, action string, fields logrus.Fields) {
	code := CodeOf(err)
	if code == CodeInternal {
		return
	}
	log.WithFields(fields).WithField("code", code).Debugf("%s rejected: %v", action, err)
}

func ensureNameFree(ctx context.Context, q querier, name string) error {
	var taken bool
	if err := q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM clubs WHERE name=?)`, name).Scan(&taken); err != nil {
		return fmt.Errorf("check club name: %w", err)
	}
	if taken {
		return conflict("a book club named %q already exists", name)
	}
	return nil
}

// visibleClub loads clubID and applies the private-club visibility rule for
// callerID. Shared by every read operation.
func visibleClub(ctx context.Context, q querier, users UserDirectory, callerID, clubID int64) (*Club, error) {
	if callerID != Anonymous {
		if err := requireUser(ctx, users, callerID, "user"); err != nil {
			return nil, err
		}
	}
	c, err := loadClub(ctx, q, clubID)
	if err != nil {
		return nil, err
	}
	m, err := findMembership(ctx, q, clubID, callerID)
	if err != nil {
		return nil, err
	}
	if err := canView(c, m); err != nil {
		return nil, err
	}
	return c, nil
}
