package main

import (
	"fmt"
	"io"

	"bookclub/club"

	"github.com/spf13/cobra"
)

func newMemberCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Join and leave clubs, manage members and roles",
	}
	cmd.AddCommand(newMemberJoinCommand(s))
	cmd.AddCommand(newMemberLeaveCommand(s))
	cmd.AddCommand(newMemberRemoveCommand(s))
	cmd.AddCommand(newMemberRoleCommand(s))
	cmd.AddCommand(newMemberListCommand(s))
	cmd.AddCommand(newMemberMineCommand(s))
	return cmd
}

func newMemberJoinCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "join <club-id>",
		Short: "Join a public club",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := s.authenticated()
			if err != nil {
				return err
			}
			clubID, err := parseID(args[0], "club id")
			if err != nil {
				return err
			}
			m, err := s.mgr.Members.JoinClub(cmd.Context(), caller, clubID)
			if err != nil {
				return err
			}
			return s.out.emit(m, func(w io.Writer) {
				fmt.Fprintf(w, "Joined %q as %s\n", m.ClubName, m.Role)
			})
		},
	}
}

func newMemberLeaveCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "leave <club-id>",
		Short: "Leave a club",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := s.authenticated()
			if err != nil {
				return err
			}
			clubID, err := parseID(args[0], "club id")
			if err != nil {
				return err
			}
			if err := s.mgr.Members.LeaveClub(cmd.Context(), caller, clubID); err != nil {
				return err
			}
			return s.out.emit(map[string]any{"club_id": clubID, "left": true}, func(w io.Writer) {
				fmt.Fprintf(w, "Left book club %d\n", clubID)
			})
		},
	}
}

func newMemberRemoveCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <club-id> <user-id>",
		Short: "Remove a member from a club",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := s.authenticated()
			if err != nil {
				return err
			}
			clubID, err := parseID(args[0], "club id")
			if err != nil {
				return err
			}
			userID, err := parseID(args[1], "user id")
			if err != nil {
				return err
			}
			if err := s.mgr.Members.RemoveMember(cmd.Context(), caller, clubID, userID); err != nil {
				return err
			}
			return s.out.emit(map[string]any{"club_id": clubID, "user_id": userID, "removed": true}, func(w io.Writer) {
				fmt.Fprintf(w, "User %d removed from book club %d\n", userID, clubID)
			})
		},
	}
}

func newMemberRoleCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "role <club-id> <user-id> <MEMBER|MODERATOR|OWNER>",
		Short: "Change a member's role; OWNER transfers ownership",
		Args:  exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := s.authenticated()
			if err != nil {
				return err
			}
			clubID, err := parseID(args[0], "club id")
			if err != nil {
				return err
			}
			userID, err := parseID(args[1], "user id")
			if err != nil {
				return err
			}
			role, err := club.ParseRole(args[2])
			if err != nil {
				return usageError("%v", err)
			}
			m, err := s.mgr.Members.UpdateRole(cmd.Context(), caller, clubID, userID, role)
			if err != nil {
				return err
			}
			return s.out.emit(m, func(w io.Writer) {
				fmt.Fprintf(w, "User %s is now %s of %q\n", m.Username, m.Role, m.ClubName)
			})
		},
	}
}

func newMemberListCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list <club-id>",
		Short: "List the members of a club",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clubID, err := parseID(args[0], "club id")
			if err != nil {
				return err
			}
			members, err := s.mgr.Members.GetMembersByClub(cmd.Context(), s.caller, clubID)
			if err != nil {
				return err
			}
			return s.out.emit(members, func(w io.Writer) {
				printMembers(w, members)
			})
		},
	}
}

func newMemberMineCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List the caller's memberships",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := s.authenticated()
			if err != nil {
				return err
			}
			members, err := s.mgr.Members.GetMembershipsByUser(cmd.Context(), caller)
			if err != nil {
				return err
			}
			return s.out.emit(members, func(w io.Writer) {
				printMembers(w, members)
			})
		},
	}
}
