package club

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinClub(t *testing.T) {
	mgr, _ := testManager(t)
	ctx := context.Background()
	alice := addUser(t, mgr, "alice")
	bob := addUser(t, mgr, "bob")
	c := createClub(t, mgr, alice, "Open Book", false)

	m, err := mgr.Members.JoinClub(ctx, bob, c.ID)
	require.NoError(t, err)
	assert.Equal(t, RoleMember, m.Role)
	assert.Equal(t, bob, m.UserID)
	assert.Equal(t, "bob", m.Username)
	assert.Equal(t, fixedToday(), m.JoinedOn)

	members, err := mgr.Members.GetMembersByClub(ctx, bob, c.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	_, err = mgr.Members.JoinClub(ctx, bob, c.ID)
	requireCode(t, err, CodeConflict)
	_, err = mgr.Members.JoinClub(ctx, alice, c.ID)
	requireCode(t, err, CodeConflict)
	_, err = mgr.Members.JoinClub(ctx, bob, 404)
	requireCode(t, err, CodeNotFound)
	_, err = mgr.Members.JoinClub(ctx, 999, c.ID)
	requireCode(t, err, CodeNotFound)
}

func TestJoinPrivateClubForbidden(t *testing.T) {
	mgr, _ := testManager(t)
	ctx := context.Background()
	alice := addUser(t, mgr, "alice")
	bob := addUser(t, mgr, "bob")
	c := createClub(t, mgr, alice, "Closed Book", true)

	_, err := mgr.Members.JoinClub(ctx, bob, c.ID)
	requireCode(t, err, CodeForbidden)

	_, err = mgr.Members.GetMembersByClub(ctx, bob, c.ID)
	requireCode(t, err, CodeForbidden)
}

func TestLeaveClub(t *testing.T) {
	mgr, _ := testManager(t)
	ctx := context.Background()
	alice := addUser(t, mgr, "alice")
	bob := addUser(t, mgr, "bob")
	c := createClub(t, mgr, alice, "Page Turners", false)
	_, err := mgr.Members.JoinClub(ctx, bob, c.ID)
	require.NoError(t, err)

	err = mgr.Members.LeaveClub(ctx, alice, c.ID)
	requireCode(t, err, CodeInvalidRequest)
	members, err := mgr.Members.GetMembersByClub(ctx, alice, c.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2, "owner leave must not change the roster")

	require.NoError(t, mgr.Members.LeaveClub(ctx, bob, c.ID))
	assert.Equal(t, RoleUnspecified, memberRole(t, mgr, c.ID, bob))

	requireCode(t, mgr.Members.LeaveClub(ctx, bob, c.ID), CodeNotFound)
	requireCode(t, mgr.Members.LeaveClub(ctx, bob, 404), CodeNotFound)
}

func TestRemoveMember(t *testing.T) {
	mgr, _ := testManager(t)
	ctx := context.Background()
	owner := addUser(t, mgr, "owner")
	mod1 := addUser(t, mgr, "mod1")
	mod2 := addUser(t, mgr, "mod2")
	member1 := addUser(t, mgr, "member1")
	member2 := addUser(t, mgr, "member2")
	outsider := addUser(t, mgr, "outsider")
	c := createClub(t, mgr, owner, "Moderated", false)

	for _, id := range []int64{mod1, mod2, member1, member2} {
		_, err := mgr.Members.JoinClub(ctx, id, c.ID)
		require.NoError(t, err)
	}
	for _, id := range []int64{mod1, mod2} {
		_, err := mgr.Members.UpdateRole(ctx, owner, c.ID, id, RoleModerator)
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		caller int64
		target int64
		code   Code
	}{
		{"owner cannot be removed by moderator", mod1, owner, CodeForbidden},
		{"owner cannot remove self", owner, owner, CodeForbidden},
		{"moderator cannot remove moderator", mod1, mod2, CodeForbidden},
		{"member cannot remove member", member1, member2, CodeForbidden},
		{"outsider cannot remove", outsider, member2, CodeForbidden},
		{"target not a member", mod1, outsider, CodeNotFound},
		{"target unknown", mod1, 999, CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mgr.Members.RemoveMember(ctx, tt.caller, c.ID, tt.target)
			requireCode(t, err, tt.code)
		})
	}
	assert.Equal(t, 1, countOwners(t, mgr, c.ID))

	require.NoError(t, mgr.Members.RemoveMember(ctx, mod1, c.ID, member1))
	assert.Equal(t, RoleUnspecified, memberRole(t, mgr, c.ID, member1))

	require.NoError(t, mgr.Members.RemoveMember(ctx, owner, c.ID, mod2))
	assert.Equal(t, RoleUnspecified, memberRole(t, mgr, c.ID, mod2))
}

func TestUpdateRole(t *testing.T) {
	mgr, _ := testManager(t)
	ctx := context.Background()
	alice := addUser(t, mgr, "alice")
	bob := addUser(t, mgr, "bob")
	carol := addUser(t, mgr, "carol")
	c := createClub(t, mgr, alice, "Roles", false)
	for _, id := range []int64{bob, carol} {
		_, err := mgr.Members.JoinClub(ctx, id, c.ID)
		require.NoError(t, err)
	}

	m, err := mgr.Members.UpdateRole(ctx, alice, c.ID, bob, RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, RoleModerator, m.Role)
	assert.Equal(t, bob, m.UserID)

	_, err = mgr.Members.UpdateRole(ctx, bob, c.ID, carol, RoleModerator)
	requireCode(t, err, CodeForbidden)

	_, err = mgr.Members.UpdateRole(ctx, alice, c.ID, alice, RoleMember)
	requireCode(t, err, CodeInvalidRequest)

	_, err = mgr.Members.UpdateRole(ctx, alice, c.ID, carol, RoleUnspecified)
	requireCode(t, err, CodeInvalidRequest)

	dave := addUser(t, mgr, "dave")
	_, err = mgr.Members.UpdateRole(ctx, alice, c.ID, dave, RoleModerator)
	requireCode(t, err, CodeNotFound)

	m, err = mgr.Members.UpdateRole(ctx, alice, c.ID, bob, RoleMember)
	require.NoError(t, err)
	assert.Equal(t, RoleMember, m.Role)
}

func TestOwnershipTransferThenLeave(t *testing.T) {
	mgr, hook := testManager(t)
	ctx := context.Background()
	alice := addUser(t, mgr, "alice")
	bob := addUser(t, mgr, "bob")
	c := createClub(t, mgr, alice, "Handover", false)
	_, err := mgr.Members.JoinClub(ctx, bob, c.ID)
	require.NoError(t, err)

	m, err := mgr.Members.UpdateRole(ctx, alice, c.ID, bob, RoleOwner)
	require.NoError(t, err)
	assert.Equal(t, RoleOwner, m.Role)
	assert.Equal(t, "ownership transferred", hook.LastEntry().Message)

	assert.Equal(t, RoleModerator, memberRole(t, mgr, c.ID, alice))
	assert.Equal(t, RoleOwner, memberRole(t, mgr, c.ID, bob))
	assert.Equal(t, 1, countOwners(t, mgr, c.ID))

	require.NoError(t, mgr.Members.LeaveClub(ctx, alice, c.ID))
	requireCode(t, mgr.Clubs.DeleteClub(ctx, alice, c.ID), CodeForbidden)
	require.NoError(t, mgr.Clubs.DeleteClub(ctx, bob, c.ID))
}

func TestConcurrentOwnershipTransfers(t *testing.T) {
	mgr, _ := testManager(t)
	ctx := context.Background()
	owner := addUser(t, mgr, "owner")
	c := createClub(t, mgr, owner, "Contested", false)

	var candidates []int64
	for _, name := range []string{"c1", "c2", "c3", "c4"} {
		id := addUser(t, mgr, name)
		_, err := mgr.Members.JoinClub(ctx, id, c.ID)
		require.NoError(t, err)
		candidates = append(candidates, id)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(candidates))
	for _, target := range candidates {
		wg.Add(1)
		go func(target int64) {
			defer wg.Done()
			_, err := mgr.Members.UpdateRole(ctx, owner, c.ID, target, RoleOwner)
			errs <- err
		}(target)
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		requireCode(t, err, CodeForbidden)
	}
	assert.Equal(t, 1, succeeded, "only the first transfer runs while the caller is still owner")
	assert.Equal(t, 1, countOwners(t, mgr, c.ID))
	assert.Equal(t, RoleModerator, memberRole(t, mgr, c.ID, owner))
}

func TestGetMembershipsByUser(t *testing.T) {
	mgr, _ := testManager(t)
	ctx := context.Background()
	alice := addUser(t, mgr, "alice")
	bob := addUser(t, mgr, "bob")
	c1 := createClub(t, mgr, alice, "First", false)
	c2 := createClub(t, mgr, bob, "Second", true)
	_, err := mgr.Members.JoinClub(ctx, bob, c1.ID)
	require.NoError(t, err)

	mine, err := mgr.Members.GetMembershipsByUser(ctx, bob)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, c2.ID, mine[0].ClubID)
	assert.Equal(t, RoleOwner, mine[0].Role)
	assert.Equal(t, c1.ID, mine[1].ClubID)
	assert.Equal(t, RoleMember, mine[1].Role)

	_, err = mgr.Members.GetMembershipsByUser(ctx, 999)
	requireCode(t, err, CodeNotFound)
}
