package club

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// fixedNow is the clock used by every fixture database.
var fixedNow = time.Date(2026, time.March, 14, 15, 30, 0, 0, time.UTC)

func fixedToday() time.Time {
	return time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
}

func tempDB(t *testing.T) *Database {
	t.Helper()
	dir := t.TempDir()
	db, err := NewDatabase(filepath.Join(dir, "test.db"), 5*time.Second, WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testManager(t *testing.T) (*Manager, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	db := tempDB(t)
	return newManager(db, db, db, log), hook
}

func addUser(t *testing.T, mgr *Manager, name string) int64 {
	t.Helper()
	id, err := mgr.DB().AddUser(context.Background(), name, name+"-pw")
	require.NoError(t, err, "add user %s", name)
	return id
}

func createClub(t *testing.T, mgr *Manager, ownerID int64, name string, private bool) *Club {
	t.Helper()
	c, err := mgr.Clubs.CreateClub(context.Background(), ownerID, NewClub{Name: name, IsPrivate: &private})
	require.NoError(t, err, "create club %s", name)
	return c
}

func addBook(t *testing.T, mgr *Manager, callerID, clubID int64, bookID, title string) *ReadingItem {
	t.Helper()
	item, err := mgr.Schedule.AddItem(context.Background(), callerID, clubID, BookRecord{ID: bookID, Title: title, Author: "Author"})
	require.NoError(t, err, "add item %s", bookID)
	return item
}

func memberRole(t *testing.T, mgr *Manager, clubID, userID int64) Role {
	t.Helper()
	m, err := findMembership(context.Background(), mgr.DB().db, clubID, userID)
	require.NoError(t, err)
	if m == nil {
		return RoleUnspecified
	}
	return m.Role
}

func countOwners(t *testing.T, mgr *Manager, clubID int64) int {
	t.Helper()
	var n int
	require.NoError(t, mgr.DB().db.QueryRow(`SELECT COUNT(*) FROM club_members WHERE club_id=? AND role='OWNER'`, clubID).Scan(&n))
	return n
}

func countActive(t *testing.T, mgr *Manager, clubID int64) int {
	t.Helper()
	var n int
	require.NoError(t, mgr.DB().db.QueryRow(`SELECT COUNT(*) FROM club_items WHERE club_id=? AND status='ACTIVE'`, clubID).Scan(&n))
	return n
}

func statusPtr(s ItemStatus) *ItemStatus { return &s }

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func requireCode(t *testing.T, err error, code Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, CodeOf(err), "unexpected error: %v", err)
}
