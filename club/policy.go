package club

// Authorization rules for every club operation live here so the role
// hierarchy is checked in one place.

// requireRole fails with Forbidden unless m exists and ranks at least min.
func requireRole(m *Membership, min Role, action string) error {
	if m == nil {
		return forbidden("user is not a member of this club")
	}
	if !m.Role.AtLeast(min) {
		switch min {
		case RoleOwner:
			return forbidden("only the club owner can %s", action)
		default:
			return forbidden("only the owner and club moderators can %s", action)
		}
	}
	return nil
}

// canRemoveMember: the owner cannot be removed, and moderators may only
// remove plain members.
func canRemoveMember(actor, target Role) error {
	if !actor.AtLeast(RoleModerator) {
		return forbidden("not authorized to remove members from this club")
	}
	if target == RoleOwner {
		return forbidden("cannot remove the club owner")
	}
	if actor == RoleModerator && target == RoleModerator {
		return forbidden("moderators cannot remove other moderators")
	}
	return nil
}

// canChangeRole guards updateRole before the target is loaded.
func canChangeRole(actor *Membership, targetUserID int64, newRole Role) error {
	if err := requireRole(actor, RoleOwner, "update member roles"); err != nil {
		return err
	}
	if actor.UserID == targetUserID {
		return invalidRequest("cannot update your own role; to transfer ownership, assign it to another member")
	}
	if !newRole.Valid() {
		return invalidRequest("invalid role")
	}
	return nil
}

// canView enforces private-club visibility: public clubs are readable by
// anyone, private ones only by members.
func canView(c *Club, m *Membership) error {
	if c.IsPrivate && m == nil {
		return forbidden("only members can view a private club")
	}
	return nil
}
