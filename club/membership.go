package club

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Ledger owns Membership rows: joining, leaving, removal and role changes.
// Every club has exactly one Owner; the ledger never writes a state with
// zero or two.
type Ledger struct {
	db    *Database
	users UserDirectory
	log   logrus.FieldLogger
}

func NewLedger(db *Database, users UserDirectory, log logrus.FieldLogger) *Ledger {
	return &Ledger{db: db, users: users, log: log}
}

// JoinClub adds userID to a public club as a Member.
func (l *Ledger) JoinClub(ctx context.Context, userID, clubID int64) (*Membership, error) {
	if err := requireUser(ctx, l.users, userID, "user"); err != nil {
		return nil, err
	}

	var joined *Membership
	err := l.db.inTx(ctx, func(tx *sql.Tx) error {
		c, err := loadClub(ctx, tx, clubID)
		if err != nil {
			return err
		}
		if c.IsPrivate {
			return forbidden("cannot self-join a private club")
		}
		existing, err := findMembership(ctx, tx, clubID, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			return conflict("user is already a member of this club")
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO club_members(club_id,user_id,role,joined_on) VALUES(?,?,?,?)`,
			clubID, userID, RoleMember.String(), formatDate(l.db.today())); err != nil {
			if isUniqueViolation(err) {
				return conflict("user is already a member of this club")
			}
			return fmt.Errorf("insert membership: %w", err)
		}
		joined, err = findMembership(ctx, tx, clubID, userID)
		return err
	})
	if err != nil {
		logRejected(l.log, err, "join club", logrus.Fields{"club_id": clubID, "user_id": userID})
		return nil, err
	}

	l.log.WithFields(logrus.Fields{"club_id": clubID, "user_id": userID}).Info("member joined")
	return joined, nil
}

// LeaveClub removes userID's own membership. The Owner must transfer
// ownership first.
func (l *Ledger) LeaveClub(ctx context.Context, userID, clubID int64) error {
	if err := requireUser(ctx, l.users, userID, "user"); err != nil {
		return err
	}

	err := l.db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := loadClub(ctx, tx, clubID); err != nil {
			return err
		}
		m, err := findMembership(ctx, tx, clubID, userID)
		if err != nil {
			return err
		}
		if m == nil {
			return notFound("user is not a member of this club")
		}
		if m.Role == RoleOwner {
			return invalidRequest("club owner cannot leave; transfer ownership to another member first")
		}
		return deleteMembership(ctx, tx, m.ID)
	})
	if err != nil {
		logRejected(l.log, err, "leave club", logrus.Fields{"club_id": clubID, "user_id": userID})
		return err
	}

	l.log.WithFields(logrus.Fields{"club_id": clubID, "user_id": userID}).Info("member left")
	return nil
}

// RemoveMember removes targetID from the club on behalf of callerID.
func (l *Ledger) RemoveMember(ctx context.Context, callerID, clubID, targetID int64) error {
	if err := requireUser(ctx, l.users, callerID, "user"); err != nil {
		return err
	}

	fields := logrus.Fields{"club_id": clubID, "user_id": callerID, "target_user_id": targetID}
	err := l.db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := loadClub(ctx, tx, clubID); err != nil {
			return err
		}
		actor, err := findMembership(ctx, tx, clubID, callerID)
		if err != nil {
			return err
		}
		if err := requireRole(actor, RoleModerator, "remove members from this club"); err != nil {
			return err
		}
		target, err := l.targetMembership(ctx, tx, clubID, targetID)
		if err != nil {
			return err
		}
		if err := canRemoveMember(actor.Role, target.Role); err != nil {
			return err
		}
		return deleteMembership(ctx, tx, target.ID)
	})
	if err != nil {
		logRejected(l.log, err, "remove member", fields)
		return err
	}

	l.log.WithFields(fields).Info("member removed")
	return nil
}

// UpdateRole sets targetID's role. Only the Owner may call it. Assigning
// RoleOwner transfers ownership: the caller is demoted to Moderator and the
// target promoted in the same transaction.
func (l *Ledger) UpdateRole(ctx context.Context, callerID, clubID, targetID int64, newRole Role) (*Membership, error) {
	if err := requireUser(ctx, l.users, callerID, "user"); err != nil {
		return nil, err
	}

	fields := logrus.Fields{"club_id": clubID, "user_id": callerID, "target_user_id": targetID, "role": newRole.String()}
	var updated *Membership
	err := l.db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := loadClub(ctx, tx, clubID); err != nil {
			return err
		}
		actor, err := findMembership(ctx, tx, clubID, callerID)
		if err != nil {
			return err
		}
		if err := canChangeRole(actor, targetID, newRole); err != nil {
			return err
		}
		target, err := l.targetMembership(ctx, tx, clubID, targetID)
		if err != nil {
			return err
		}

		if newRole == RoleOwner {
			// Demote first: the one-owner index is checked per statement.
			if err := setRole(ctx, tx, actor.ID, RoleModerator); err != nil {
				return err
			}
		}
		if err := setRole(ctx, tx, target.ID, newRole); err != nil {
			return err
		}
		updated, err = findMembership(ctx, tx, clubID, targetID)
		return err
	})
	if err != nil {
		logRejected(l.log, err, "update role", fields)
		return nil, err
	}

	if newRole == RoleOwner {
		l.log.WithFields(fields).Info("ownership transferred")
	} else {
		l.log.WithFields(fields).Info("member role updated")
	}
	return updated, nil
}

// GetMembersByClub lists a club's members, subject to private-club visibility.
func (l *Ledger) GetMembersByClub(ctx context.Context, callerID, clubID int64) ([]*Membership, error) {
	if _, err := visibleClub(ctx, l.db.db, l.users, callerID, clubID); err != nil {
		return nil, err
	}
	return queryMemberships(ctx, l.db.db, `m.club_id=?`, clubID)
}

// GetMembershipsByUser lists every club userID belongs to.
func (l *Ledger) GetMembershipsByUser(ctx context.Context, userID int64) ([]*Membership, error) {
	if err := requireUser(ctx, l.users, userID, "user"); err != nil {
		return nil, err
	}
	return queryMemberships(ctx, l.db.db, `m.user_id=?`, userID)
}

// targetMembership resolves the user a moderation action is aimed at.
func (l *Ledger) targetMembership(ctx context.Context, q querier, clubID, targetID int64) (*Membership, error) {
	if err := requireUser(ctx, l.users, targetID, "target user"); err != nil {
		return nil, err
	}
	target, err := findMembership(ctx, q, clubID, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, notFound("target user is not a member of this club")
	}
	return target, nil
}

func setRole(ctx context.Context, tx *sql.Tx, membershipID int64, role Role) error {
	if _, err := tx.ExecContext(ctx, `UPDATE club_members SET role=? WHERE id=?`, role.String(), membershipID); err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	return nil
}

func deleteMembership(ctx context.Context, tx *sql.Tx, membershipID int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM club_members WHERE id=?`, membershipID); err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	return nil
}
