package club

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Schedule owns ReadingItem rows. At most one item per club is Active;
// activating an item completes the previous one in the same transaction.
type Schedule struct {
	db    *Database
	users UserDirectory
	books BookCatalog
	log   logrus.FieldLogger
}

func NewSchedule(db *Database, users UserDirectory, books BookCatalog, log logrus.FieldLogger) *Schedule {
	return &Schedule{db: db, users: users, books: books, log: log}
}

// authorizeManager loads the club and checks that callerID is its Owner or a
// Moderator.
func authorizeManager(ctx context.Context, q querier, clubID, callerID int64, action string) (*Club, error) {
	c, err := loadClub(ctx, q, clubID)
	if err != nil {
		return nil, err
	}
	m, err := findMembership(ctx, q, clubID, callerID)
	if err != nil {
		return nil, err
	}
	if err := requireRole(m, RoleModerator, action); err != nil {
		return nil, err
	}
	return c, nil
}

// AddItem schedules a book in a club as Upcoming. The book is resolved
// through the catalogue first, so unknown books are cached on first use.
func (s *Schedule) AddItem(ctx context.Context, callerID, clubID int64, book BookRecord) (*ReadingItem, error) {
	if err := requireUser(ctx, s.users, callerID, "user"); err != nil {
		return nil, err
	}
	fields := logrus.Fields{"club_id": clubID, "user_id": callerID, "book_id": book.ID}

	// Authorize before touching the catalogue; repeated below under the write lock.
	if _, err := authorizeManager(ctx, s.db.db, clubID, callerID, "add items to this club"); err != nil {
		logRejected(s.log, err, "add item", fields)
		return nil, err
	}
	rec, err := s.books.EnsureBook(ctx, book)
	if err != nil {
		return nil, err
	}

	var item *ReadingItem
	err = s.db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := authorizeManager(ctx, tx, clubID, callerID, "add items to this club"); err != nil {
			return err
		}
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM club_items WHERE club_id=? AND book_id=?)`,
			clubID, rec.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check club item: %w", err)
		}
		if exists {
			return conflict("book is already a part of this club")
		}

		res, err := tx.ExecContext(ctx, `INSERT INTO club_items(club_id,book_id,status,added_on) VALUES(?,?,?,?)`,
			clubID, rec.ID, StatusUpcoming.String(), formatDate(s.db.today()))
		if err != nil {
			if isUniqueViolation(err) {
				return conflict("book is already a part of this club")
			}
			return fmt.Errorf("insert club item: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		item, err = loadItem(ctx, tx, id)
		return err
	})
	if err != nil {
		logRejected(s.log, err, "add item", fields)
		return nil, err
	}

	s.log.WithFields(fields).WithField("item_id", item.ID).Info("club item added")
	return item, nil
}

// UpdateItem applies patch to a reading item. Setting the status to Active
// completes any other Active item in the club and sets the start date to
// patch.StartDate, or today when absent. Explicit dates in the patch always
// win over the automatic one.
func (s *Schedule) UpdateItem(ctx context.Context, callerID, itemID int64, patch ItemPatch) (*ReadingItem, error) {
	if err := requireUser(ctx, s.users, callerID, "user"); err != nil {
		return nil, err
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, invalidRequest("invalid item status")
	}
	fields := logrus.Fields{"item_id": itemID, "user_id": callerID}

	var (
		item      *ReadingItem
		completed int64
	)
	err := s.db.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		if item, err = loadItem(ctx, tx, itemID); err != nil {
			return err
		}
		fields["club_id"] = item.ClubID
		if _, err := authorizeManager(ctx, tx, item.ClubID, callerID, "modify items in this club"); err != nil {
			return err
		}

		if patch.Status != nil {
			if *patch.Status == StatusActive {
				res, err := tx.ExecContext(ctx, `UPDATE club_items SET status=? WHERE club_id=? AND status=? AND id<>?`,
					StatusCompleted.String(), item.ClubID, StatusActive.String(), item.ID)
				if err != nil {
					return fmt.Errorf("complete active item: %w", err)
				}
				if completed, err = res.RowsAffected(); err != nil {
					return err
				}
				start := s.db.today()
				item.StartDate = &start
			}
			item.Status = *patch.Status
		}
		if patch.StartDate != nil {
			start := *patch.StartDate
			item.StartDate = &start
		}
		if patch.EndDate != nil {
			end := *patch.EndDate
			item.EndDate = &end
		}

		if _, err := tx.ExecContext(ctx, `UPDATE club_items SET status=?, start_date=?, end_date=? WHERE id=?`,
			item.Status.String(), nullDate(item.StartDate), nullDate(item.EndDate), item.ID); err != nil {
			if isUniqueViolation(err) {
				return conflict("another item in this club is already active")
			}
			return fmt.Errorf("update club item: %w", err)
		}
		item, err = loadItem(ctx, tx, item.ID)
		return err
	})
	if err != nil {
		logRejected(s.log, err, "update item", fields)
		return nil, err
	}

	entry := s.log.WithFields(fields).WithField("status", item.Status.String())
	if completed > 0 {
		entry = entry.WithField("auto_completed", completed)
	}
	entry.Info("club item updated")
	return item, nil
}

// RemoveItem deletes a reading item. Owner or Moderator only.
func (s *Schedule) RemoveItem(ctx context.Context, callerID, itemID int64) error {
	if err := requireUser(ctx, s.users, callerID, "user"); err != nil {
		return err
	}
	fields := logrus.Fields{"item_id": itemID, "user_id": callerID}

	err := s.db.inTx(ctx, func(tx *sql.Tx) error {
		item, err := loadItem(ctx, tx, itemID)
		if err != nil {
			return err
		}
		fields["club_id"] = item.ClubID
		if _, err := authorizeManager(ctx, tx, item.ClubID, callerID, "remove items from this club"); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM club_items WHERE id=?`, item.ID); err != nil {
			return fmt.Errorf("delete club item: %w", err)
		}
		return nil
	})
	if err != nil {
		logRejected(s.log, err, "remove item", fields)
		return err
	}

	s.log.WithFields(fields).Info("club item removed")
	return nil
}

// GetItemsByClub lists every item in a club across all statuses.
func (s *Schedule) GetItemsByClub(ctx context.Context, callerID, clubID int64) ([]*ReadingItem, error) {
	if _, err := visibleClub(ctx, s.db.db, s.users, callerID, clubID); err != nil {
		return nil, err
	}
	return queryItems(ctx, s.db.db, `i.club_id=?`, clubID)
}

// GetItemsByStatus lists a club's items with the given status.
func (s *Schedule) GetItemsByStatus(ctx context.Context, callerID, clubID int64, status ItemStatus) ([]*ReadingItem, error) {
	if !status.Valid() {
		return nil, invalidRequest("invalid item status")
	}
	if _, err := visibleClub(ctx, s.db.db, s.users, callerID, clubID); err != nil {
		return nil, err
	}
	return queryItems(ctx, s.db.db, `i.club_id=? AND i.status=?`, clubID, status.String())
}

// GetCurrentItem returns the club's Active item.
func (s *Schedule) GetCurrentItem(ctx context.Context, callerID, clubID int64) (*ReadingItem, error) {
	if _, err := visibleClub(ctx, s.db.db, s.users, callerID, clubID); err != nil {
		return nil, err
	}
	items, err := queryItems(ctx, s.db.db, `i.club_id=? AND i.status=?`, clubID, StatusActive.String())
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, notFound("no currently active book in the club")
	}
	return items[0], nil
}
