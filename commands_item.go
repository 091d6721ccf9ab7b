package main

import (
	"fmt"
	"io"
	"time"

	"bookclub/club"

	"github.com/spf13/cobra"
)

func newItemCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage a club's reading list",
	}
	cmd.AddCommand(newItemAddCommand(s))
	cmd.AddCommand(newItemUpdateCommand(s))
	cmd.AddCommand(newItemRemoveCommand(s))
	cmd.AddCommand(newItemListCommand(s))
	cmd.AddCommand(newItemCurrentCommand(s))
	return cmd
}

func newItemAddCommand(s *session) *cobra.Command {
	var title, author, cover string
	cmd := &cobra.Command{
		Use:   "add <club-id> <book-id>",
		Short: "Add a book to a club's reading list as UPCOMING",
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
			item, err := s.mgr.Schedule.AddItem(cmd.Context(), caller, clubID, club.BookRecord{
				ID:       args[1],
				Title:    title,
				Author:   author,
				CoverURL: cover,
			})
			if err != nil {
				return err
			}
			return s.out.emit(item, func(w io.Writer) {
				fmt.Fprintf(w, "Added %q to book club %d as item %d\n", item.BookTitle, clubID, item.ID)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "book title, required the first time a book is seen")
	cmd.Flags().StringVar(&author, "author", "", "book author")
	cmd.Flags().StringVar(&cover, "cover", "", "cover image URL")
	return cmd
}

func newItemUpdateCommand(s *session) *cobra.Command {
	var status, start, end string
	cmd := &cobra.Command{
		Use:   "update <item-id>",
		Short: "Change an item's status or reading dates",
		Long: "Change an item's status or reading dates. Making an item ACTIVE completes\n" +
			"the club's current book and starts the new one today unless --start is given.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := s.authenticated()
			if err != nil {
				return err
			}
			itemID, err := parseID(args[0], "item id")
			if err != nil {
				return err
			}
			var patch club.ItemPatch
			if cmd.Flags().Changed("status") {
				st, err := club.ParseItemStatus(status)
				if err != nil {
					return usageError("%v", err)
				}
				patch.Status = &st
			}
			if patch.StartDate, err = dateFlag(cmd, "start", start); err != nil {
				return err
			}
			if patch.EndDate, err = dateFlag(cmd, "end", end); err != nil {
				return err
			}
			item, err := s.mgr.Schedule.UpdateItem(cmd.Context(), caller, itemID, patch)
			if err != nil {
				return err
			}
			return s.out.emit(item, func(w io.Writer) {
				printItems(w, []*club.ReadingItem{item})
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "UPCOMING, ACTIVE or COMPLETED")
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYY-MM-DD)")
	return cmd
}

func dateFlag(cmd *cobra.Command, name, value string) (*time.Time, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	t, err := club.ParseDate(value)
	if err != nil {
		return nil, usageError("invalid --%s date %q: want YYYY-MM-DD", name, value)
	}
	return &t, nil
}

func newItemRemoveCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <item-id>",
		Short: "Remove an item from its club's reading list",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := s.authenticated()
			if err != nil {
				return err
			}
			itemID, err := parseID(args[0], "item id")
			if err != nil {
				return err
			}
			if err := s.mgr.Schedule.RemoveItem(cmd.Context(), caller, itemID); err != nil {
				return err
			}
			return s.out.emit(map[string]any{"id": itemID, "removed": true}, func(w io.Writer) {
				fmt.Fprintf(w, "Item %d removed\n", itemID)
			})
		},
	}
}

func newItemListCommand(s *session) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list <club-id>",
		Short: "List a club's reading items",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clubID, err := parseID(args[0], "club id")
			if err != nil {
				return err
			}
			var items []*club.ReadingItem
			if cmd.Flags().Changed("status") {
				st, perr := club.ParseItemStatus(status)
				if perr != nil {
					return usageError("%v", perr)
				}
				items, err = s.mgr.Schedule.GetItemsByStatus(cmd.Context(), s.caller, clubID, st)
			} else {
				items, err = s.mgr.Schedule.GetItemsByClub(cmd.Context(), s.caller, clubID)
			}
			if err != nil {
				return err
			}
			return s.out.emit(items, func(w io.Writer) {
				printItems(w, items)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only items with this status")
	return cmd
}

func newItemCurrentCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "current <club-id>",
		Short: "Show the book a club is reading now",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clubID, err := parseID(args[0], "club id")
			if err != nil {
				return err
			}
			item, err := s.mgr.Schedule.GetCurrentItem(cmd.Context(), s.caller, clubID)
			if err != nil {
				return err
			}
			return s.out.emit(item, func(w io.Writer) {
				printItems(w, []*club.ReadingItem{item})
			})
		},
	}
}
