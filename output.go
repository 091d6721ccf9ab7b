package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"bookclub/club"
)

// Exit codes for CLI commands.
const (
	ExitSuccess        = 0
	ExitInternal       = 1
	ExitInvalidRequest = 2
	ExitNotFound       = 3
	ExitForbidden      = 4
	ExitConflict       = 5
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

func usageError(format string, args ...any) error {
	return &ExitError{Code: ExitInvalidRequest, Err: fmt.Errorf(format, args...)}
}

// exitCode maps a command error to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	switch club.CodeOf(err) {
	case club.CodeInvalidRequest:
		return ExitInvalidRequest
	case club.CodeNotFound:
		return ExitNotFound
	case club.CodeForbidden:
		return ExitForbidden
	case club.CodeConflict:
		return ExitConflict
	default:
		return ExitInternal
	}
}

// errorLabel is the code printed next to a failure.
func errorLabel(err error) string {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		switch exitErr.Code {
		case ExitInvalidRequest:
			return string(club.CodeInvalidRequest)
		case ExitForbidden:
			return string(club.CodeForbidden)
		}
	}
	return string(club.CodeOf(err))
}

type cliResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *cliError `json:"error,omitempty"`
}

type cliError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// printer renders results as text tables or JSON envelopes.
type printer struct {
	format string
	w      io.Writer
}

func (p printer) emit(data any, text func(w io.Writer)) error {
	if p.format == "json" {
		return json.NewEncoder(p.w).Encode(cliResponse{Status: "ok", Data: data})
	}
	text(p.w)
	return nil
}

func (p printer) fail(err error) {
	if p.format == "json" {
		_ = json.NewEncoder(p.w).Encode(cliResponse{
			Status: "error",
			Error:  &cliError{Code: errorLabel(err), Message: err.Error()},
		})
		return
	}
	fmt.Fprintf(p.w, "Error [%s]: %v\n", errorLabel(err), err)
}

// ------------------ Text renderers ------------------

func printClubs(w io.Writer, clubs []*club.Club) {
	if len(clubs) == 0 {
		fmt.Fprintln(w, "No book clubs found.")
		return
	}
	fmt.Fprintf(w, "%-5s %-30s %-8s %-11s %s\n", "ID", "Name", "Private", "Created", "Description")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, c := range clubs {
		fmt.Fprintf(w, "%-5d %-30s %-8t %-11s %s\n",
			c.ID, truncateString(c.Name, 30), c.IsPrivate, c.CreatedOn.Format(time.DateOnly), truncateString(c.Description, 40))
	}
}

func printMembers(w io.Writer, members []*club.Membership) {
	if len(members) == 0 {
		fmt.Fprintln(w, "No memberships found.")
		return
	}
	fmt.Fprintf(w, "%-5s %-25s %-8s %-20s %-10s %s\n", "Club", "Club Name", "User", "Username", "Role", "Joined")
	fmt.Fprintln(w, strings.Repeat("-", 85))
	for _, m := range members {
		fmt.Fprintf(w, "%-5d %-25s %-8d %-20s %-10s %s\n",
			m.ClubID, truncateString(m.ClubName, 25), m.UserID, truncateString(m.Username, 20), m.Role, m.JoinedOn.Format(time.DateOnly))
	}
}

func printItems(w io.Writer, items []*club.ReadingItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No reading items found.")
		return
	}
	fmt.Fprintf(w, "%-5s %-30s %-20s %-10s %-11s %-11s\n", "ID", "Title", "Author", "Status", "Start", "End")
	fmt.Fprintln(w, strings.Repeat("-", 92))
	for _, it := range items {
		fmt.Fprintf(w, "%-5d %-30s %-20s %-10s %-11s %-11s\n",
			it.ID, truncateString(it.BookTitle, 30), truncateString(it.BookAuthor, 20), it.Status, dateOrDash(it.StartDate), dateOrDash(it.EndDate))
	}
}

func dateOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.DateOnly)
}

func truncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	return string(r[:maxLength-3]) + "..."
}
