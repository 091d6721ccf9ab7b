package club

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Row loaders shared by the registry, ledger and schedule. Each takes a
// querier so it can run inside the caller's transaction.

const clubColumns = `id,name,description,is_private,created_on`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClub(s rowScanner) (*Club, error) {
	var c Club
	var created string
	if err := s.Scan(&c.ID, &c.Name, &c.Description, &c.IsPrivate, &created); err != nil {
		return nil, err
	}
	t, err := parseDate(created)
	if err != nil {
		return nil, err
	}
	c.CreatedOn = t
	return &c, nil
}

func loadClub(ctx context.Context, q querier, clubID int64) (*Club, error) {
	c, err := scanClub(q.QueryRowContext(ctx, `SELECT `+clubColumns+` FROM clubs WHERE id=?`, clubID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("book club not found: %d", clubID)
	}
	if err != nil {
		return nil, fmt.Errorf("load club: %w", err)
	}
	return c, nil
}

func queryClubs(ctx context.Context, q querier, query string, args ...any) ([]*Club, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query clubs: %w", err)
	}
	defer rows.Close()

	clubs := []*Club{}
	for rows.Next() {
		c, err := scanClub(rows)
		if err != nil {
			return nil, fmt.Errorf("scan club: %w", err)
		}
		clubs = append(clubs, c)
	}
	return clubs, rows.Err()
}

const membershipSelect = `SELECT m.id, m.club_id, c.name, m.user_id, u.username, m.role, m.joined_on
    FROM club_members m
    JOIN clubs c ON c.id = m.club_id
    JOIN users u ON u.id = m.user_id`

func scanMembership(s rowScanner) (*Membership, error) {
	var m Membership
	var role, joined string
	if err := s.Scan(&m.ID, &m.ClubID, &m.ClubName, &m.UserID, &m.Username, &role, &joined); err != nil {
		return nil, err
	}
	r, err := ParseRole(role)
	if err != nil {
		return nil, err
	}
	m.Role = r
	t, err := parseDate(joined)
	if err != nil {
		return nil, err
	}
	m.JoinedOn = t
	return &m, nil
}

// findMembership returns nil, nil when userID holds no membership in clubID.
func findMembership(ctx context.Context, q querier, clubID, userID int64) (*Membership, error) {
	if userID == Anonymous {
		return nil, nil
	}
	m, err := scanMembership(q.QueryRowContext(ctx,
		membershipSelect+` WHERE m.club_id=? AND m.user_id=?`, clubID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load membership: %w", err)
	}
	return m, nil
}

func queryMemberships(ctx context.Context, q querier, where string, args ...any) ([]*Membership, error) {
	rows, err := q.QueryContext(ctx, membershipSelect+` WHERE `+where+` ORDER BY m.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query memberships: %w", err)
	}
	defer rows.Close()

	members := []*Membership{}
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

const itemSelect = `SELECT i.id, i.club_id, i.book_id, b.title, b.author, b.cover_url,
        i.status, i.start_date, i.end_date, i.added_on
    FROM club_items i
    JOIN books b ON b.id = i.book_id`

func scanItem(s rowScanner) (*ReadingItem, error) {
	var it ReadingItem
	var status, added string
	var start, end sql.NullString
	if err := s.Scan(&it.ID, &it.ClubID, &it.BookID, &it.BookTitle, &it.BookAuthor, &it.CoverURL,
		&status, &start, &end, &added); err != nil {
		return nil, err
	}
	st, err := ParseItemStatus(status)
	if err != nil {
		return nil, err
	}
	it.Status = st
	if it.StartDate, err = parseNullDate(start); err != nil {
		return nil, err
	}
	if it.EndDate, err = parseNullDate(end); err != nil {
		return nil, err
	}
	if it.AddedOn, err = parseDate(added); err != nil {
		return nil, err
	}
	return &it, nil
}

func loadItem(ctx context.Context, q querier, itemID int64) (*ReadingItem, error) {
	it, err := scanItem(q.QueryRowContext(ctx, itemSelect+` WHERE i.id=?`, itemID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("club item not found: %d", itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("load item: %w", err)
	}
	return it, nil
}

func queryItems(ctx context.Context, q querier, where string, args ...any) ([]*ReadingItem, error) {
	rows, err := q.QueryContext(ctx, itemSelect+` WHERE `+where+` ORDER BY i.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []*ReadingItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
