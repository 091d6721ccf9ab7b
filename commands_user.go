package main

import (
	"fmt"
	"io"

	"bookclub/identity"

	"github.com/spf13/cobra"
)

func newUserCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Register users and issue tokens",
	}
	cmd.AddCommand(newUserAddCommand(s))
	cmd.AddCommand(newUserLoginCommand(s))
	return cmd
}

func newUserAddCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "add <username>",
		Short: "Register a user; the password is read from the terminal or stdin",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, "Enter a password: ")
			if err != nil {
				return err
			}
			id, err := s.mgr.DB().AddUser(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			data := map[string]any{"id": id, "username": args[0]}
			return s.out.emit(data, func(w io.Writer) {
				fmt.Fprintf(w, "User %q registered with ID %d\n", args[0], id)
			})
		},
	}
}

func newUserLoginCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username>",
		Short: "Check a password and print a bearer token",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issuer, err := identity.NewIssuer(s.cfg.JWTSecret, s.cfg.TokenTTL)
			if err != nil {
				return usageError("BOOKCLUB_JWT_SECRET is required to issue tokens")
			}
			password, err := readPassword(cmd, "Enter your password: ")
			if err != nil {
				return err
			}
			user, err := s.mgr.DB().AuthenticateUser(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			token, err := issuer.Issue(user.ID)
			if err != nil {
				return err
			}
			s.log.WithField("user_id", user.ID).Info("token issued")
			data := map[string]any{"user_id": user.ID, "token": token}
			return s.out.emit(data, func(w io.Writer) {
				fmt.Fprintln(w, token)
			})
		},
	}
}
