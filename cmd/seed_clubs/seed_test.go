package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"bookclub/club"
	"bookclub/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryFixtureParses(t *testing.T) {
	f, err := LoadFixture(filepath.Join("..", "..", "fixtures", "clubs.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, f.Users)
	assert.NotEmpty(t, f.Clubs)
}

func TestParseFixtureValidation(t *testing.T) {
	tests := map[string]string{
		"unknown field":   "users:\n  - username: a\n    pasword: x\n",
		"unknown owner":   "users:\n  - username: a\n    password: x\nclubs:\n  - name: C\n    owner: b\n",
		"unknown member":  "users:\n  - username: a\n    password: x\nclubs:\n  - name: C\n    owner: a\n    members: [z]\n",
		"duplicate user":  "users:\n  - username: a\n    password: x\n  - username: a\n    password: y\n",
		"missing book id": "users:\n  - username: a\n    password: x\nclubs:\n  - name: C\n    owner: a\n    items:\n      - title: T\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFixture([]byte(doc))
			assert.Error(t, err)
		})
	}
}

const seedDoc = `
users:
  - username: ann
    password: ann-pw
  - username: ben
    password: ben-pw
  - username: cat
    password: cat-pw
clubs:
  - name: Hidden Gems
    private: true
    owner: ann
    moderators: [ben]
    members: [cat]
    items:
      - book_id: OL1W
        title: First
        status: COMPLETED
        start: "2026-01-01"
        end: "2026-01-31"
      - book_id: OL2W
        title: Second
        status: ACTIVE
      - book_id: OL3W
        title: Third
  - name: Hidden Gems
    owner: ben
`

func TestSeed(t *testing.T) {
	f, err := ParseFixture([]byte(seedDoc))
	require.NoError(t, err)

	today := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	mgr, err := club.NewManager(filepath.Join(t.TempDir(), "seed.db"), 0, logging.Discard(),
		club.WithClock(func() time.Time { return today }))
	require.NoError(t, err)
	defer mgr.Close()

	var out bytes.Buffer
	sum, err := Seed(context.Background(), mgr, f, &out)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Users)
	assert.Equal(t, 1, sum.Clubs)
	assert.Equal(t, 1, sum.Errors, "the duplicate club name is reported and skipped")
	assert.Equal(t, 3, sum.Members)
	assert.Equal(t, 3, sum.Items)
	assert.Contains(t, out.String(), "ERROR")

	ctx := context.Background()
	ann, err := mgr.DB().UserByName(ctx, "ann")
	require.NoError(t, err)

	c, err := mgr.Clubs.GetClub(ctx, ann.ID, 1)
	require.NoError(t, err)
	assert.True(t, c.IsPrivate)
	_, err = mgr.Clubs.GetClub(ctx, club.Anonymous, 1)
	assert.ErrorIs(t, err, club.ErrForbidden)

	members, err := mgr.Members.GetMembersByClub(ctx, ann.ID, c.ID)
	require.NoError(t, err)
	roles := map[string]club.Role{}
	for _, m := range members {
		roles[m.Username] = m.Role
	}
	assert.Equal(t, map[string]club.Role{"ann": club.RoleOwner, "ben": club.RoleModerator, "cat": club.RoleMember}, roles)

	current, err := mgr.Schedule.GetCurrentItem(ctx, ann.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "OL2W", current.BookID)
	assert.Equal(t, today, *current.StartDate)

	done, err := mgr.Schedule.GetItemsByStatus(ctx, ann.ID, c.ID, club.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC), *done[0].EndDate)
}

func TestSeedDeletesPartialClub(t *testing.T) {
	f, err := ParseFixture([]byte(`
users:
  - username: ann
    password: ann-pw
  - username: ben
    password: ben-pw
clubs:
  - name: Broken Shelf
    private: true
    owner: ann
    members: [ben]
    items:
      - book_id: OL1W
        title: First
      - book_id: OL2W
        title: Second
        status: PAUSED
`))
	require.NoError(t, err)

	mgr, err := club.NewManager(filepath.Join(t.TempDir(), "partial.db"), 0, logging.Discard())
	require.NoError(t, err)
	defer mgr.Close()

	var out bytes.Buffer
	sum, err := Seed(context.Background(), mgr, f, &out)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Clubs)
	assert.Equal(t, 1, sum.Errors)
	assert.Zero(t, sum.Members)
	assert.Zero(t, sum.Items)
	assert.Contains(t, out.String(), "ERROR")

	ctx := context.Background()
	ann, err := mgr.DB().UserByName(ctx, "ann")
	require.NoError(t, err)
	_, err = mgr.Clubs.GetClub(ctx, ann.ID, 1)
	assert.ErrorIs(t, err, club.ErrNotFound)

	public, err := mgr.Clubs.ListPublicClubs(ctx)
	require.NoError(t, err)
	assert.Empty(t, public)

	ben, err := mgr.DB().UserByName(ctx, "ben")
	require.NoError(t, err)
	mine, err := mgr.Members.GetMembershipsByUser(ctx, ben.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestResetDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reset.db")
	mgr, err := club.NewManager(path, 0, logging.Discard())
	require.NoError(t, err)
	_, err = mgr.DB().AddUser(context.Background(), "old", "pw")
	require.NoError(t, err)
	require.NoError(t, mgr.Close())

	var out bytes.Buffer
	resetDatabase(path, &out)
	assert.Empty(t, out.String())

	mgr, err = club.NewManager(path, 0, logging.Discard())
	require.NoError(t, err)
	defer mgr.Close()
	_, err = mgr.DB().UserByName(context.Background(), "old")
	assert.ErrorIs(t, err, club.ErrNotFound)
}
