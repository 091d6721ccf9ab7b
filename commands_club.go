package main

import (
	"fmt"
	"io"

	"bookclub/club"

	"github.com/spf13/cobra"
)

func newClubCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "club",
		Short: "Create, update and browse book clubs",
	}
	cmd.AddCommand(newClubCreateCommand(s))
	cmd.AddCommand(newClubUpdateCommand(s))
	cmd.AddCommand(newClubDeleteCommand(s))
	cmd.AddCommand(newClubGetCommand(s))
	cmd.AddCommand(newClubListCommand(s))
	cmd.AddCommand(newClubSearchCommand(s))
	return cmd
}

func newClubCreateCommand(s *session) *cobra.Command {
	var (
		description string
		private     bool
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a club owned by the caller",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := s.authenticated()
			if err != nil {
				return err
			}
			c, err := s.mgr.Clubs.CreateClub(cmd.Context(), caller, club.NewClub{
				Name:        args[0],
				Description: description,
				IsPrivate:   &private,
			})
			if err != nil {
				return err
			}
			return s.out.emit(c, func(w io.Writer) {
				fmt.Fprintf(w, "Book club %q created with ID %d\n", c.Name, c.ID)
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "club description")
	cmd.Flags().BoolVar(&private, "private", false, "hide the club from listings and close it to joins")
	return cmd
}

func newClubUpdateCommand(s *session) *cobra.Command {
	var (
		name        string
		description string
		private     bool
	)
	cmd := &cobra.Command{
		Use:   "update <club-id>",
		Short: "Change a club's name, description or visibility",
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
			var patch club.ClubPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("private") {
				patch.IsPrivate = &private
			}
			c, err := s.mgr.Clubs.UpdateClub(cmd.Context(), caller, clubID, patch)
			if err != nil {
				return err
			}
			return s.out.emit(c, func(w io.Writer) {
				fmt.Fprintf(w, "Book club %d updated\n", c.ID)
				printClubs(w, []*club.Club{c})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new club name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().BoolVar(&private, "private", false, "set visibility (--private=false to make public)")
	return cmd
}

func newClubDeleteCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <club-id>",
		Short: "Delete a club with its memberships and reading list",
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
			if err := s.mgr.Clubs.DeleteClub(cmd.Context(), caller, clubID); err != nil {
				return err
			}
			return s.out.emit(map[string]any{"id": clubID, "deleted": true}, func(w io.Writer) {
				fmt.Fprintf(w, "Book club %d deleted\n", clubID)
			})
		},
	}
}

func newClubGetCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "get <club-id>",
		Short: "Show one club",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clubID, err := parseID(args[0], "club id")
			if err != nil {
				return err
			}
			c, err := s.mgr.Clubs.GetClub(cmd.Context(), s.caller, clubID)
			if err != nil {
				return err
			}
			return s.out.emit(c, func(w io.Writer) {
				printClubs(w, []*club.Club{c})
			})
		},
	}
}

func newClubListCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List public clubs",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			clubs, err := s.mgr.Clubs.ListPublicClubs(cmd.Context())
			if err != nil {
				return err
			}
			return s.out.emit(clubs, func(w io.Writer) {
				printClubs(w, clubs)
			})
		},
	}
}

func newClubSearchCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "search <text>",
		Short: "Find public clubs whose name contains text, ignoring case",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clubs, err := s.mgr.Clubs.SearchPublicClubs(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return s.out.emit(clubs, func(w io.Writer) {
				printClubs(w, clubs)
			})
		},
	}
}
