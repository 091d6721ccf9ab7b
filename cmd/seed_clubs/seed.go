package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"bookclub/club"
)

// Summary counts what a seed run created.
type Summary struct {
	Users   int
	Clubs   int
	Members int
	Items   int
	Errors  int
}

// resetDatabase removes the database file and its WAL side files.
func resetDatabase(path string, out io.Writer) {
	for _, file := range []string{path, path + "-shm", path + "-wal"} {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(out, "Warning: Could not remove %s: %v\n", file, err)
		}
	}
}

// Seed imports f through the manager's public operations. A failing club is
// reported and skipped; users are required, so a failing user aborts.
func Seed(ctx context.Context, mgr *club.Manager, f *Fixture, out io.Writer) (Summary, error) {
	var sum Summary
	ids := make(map[string]int64, len(f.Users))

	for _, u := range f.Users {
		id, err := mgr.DB().AddUser(ctx, u.Username, u.Password)
		if err != nil {
			return sum, fmt.Errorf("add user %q: %w", u.Username, err)
		}
		ids[u.Username] = id
		sum.Users++
		fmt.Fprintf(out, "User %-20s SUCCESS (ID: %d)\n", u.Username, id)
	}

	for _, fc := range f.Clubs {
		fmt.Fprintf(out, "Importing: %s... ", fc.Name)
		members, items, err := seedClub(ctx, mgr, fc, ids)
		sum.Members += members
		sum.Items += items
		if err != nil {
			fmt.Fprintf(out, "ERROR - %v\n", err)
			sum.Errors++
			continue
		}
		fmt.Fprintf(out, "SUCCESS (%d members, %d items)\n", members, items)
		sum.Clubs++
	}
	return sum, nil
}

// seedClub creates the club public so members can join, assigns roles,
// schedules items and finally applies the requested visibility. A club that
// fails partway is deleted, so no half-built or wrongly public club remains.
func seedClub(ctx context.Context, mgr *club.Manager, fc FixtureClub, ids map[string]int64) (members, items int, err error) {
	ownerID := ids[fc.Owner]
	public := false
	c, err := mgr.Clubs.CreateClub(ctx, ownerID, club.NewClub{
		Name:        fc.Name,
		Description: fc.Description,
		IsPrivate:   &public,
	})
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if err == nil {
			return
		}
		members, items = 0, 0
		if derr := mgr.Clubs.DeleteClub(ctx, ownerID, c.ID); derr != nil {
			err = fmt.Errorf("%w (cleanup: %v)", err, derr)
		}
	}()
	members = 1

	for _, name := range fc.Moderators {
		if _, err := mgr.Members.JoinClub(ctx, ids[name], c.ID); err != nil {
			return members, items, fmt.Errorf("join %s: %w", name, err)
		}
		if _, err := mgr.Members.UpdateRole(ctx, ownerID, c.ID, ids[name], club.RoleModerator); err != nil {
			return members, items, fmt.Errorf("promote %s: %w", name, err)
		}
		members++
	}
	for _, name := range fc.Members {
		if _, err := mgr.Members.JoinClub(ctx, ids[name], c.ID); err != nil {
			return members, items, fmt.Errorf("join %s: %w", name, err)
		}
		members++
	}

	for _, fi := range fc.Items {
		if err := seedItem(ctx, mgr, ownerID, c.ID, fi); err != nil {
			return members, items, fmt.Errorf("item %s: %w", fi.BookID, err)
		}
		items++
	}

	if fc.Private {
		private := true
		if _, err := mgr.Clubs.UpdateClub(ctx, ownerID, c.ID, club.ClubPatch{IsPrivate: &private}); err != nil {
			return members, items, fmt.Errorf("make private: %w", err)
		}
	}
	return members, items, nil
}

func seedItem(ctx context.Context, mgr *club.Manager, ownerID, clubID int64, fi FixtureItem) error {
	item, err := mgr.Schedule.AddItem(ctx, ownerID, clubID, club.BookRecord{
		ID:       fi.BookID,
		Title:    fi.Title,
		Author:   fi.Author,
		CoverURL: fi.CoverURL,
	})
	if err != nil {
		return err
	}

	var patch club.ItemPatch
	if fi.Status != "" {
		st, err := club.ParseItemStatus(fi.Status)
		if err != nil {
			return err
		}
		if st != club.StatusUpcoming {
			patch.Status = &st
		}
	}
	if fi.Start != "" {
		t, err := club.ParseDate(fi.Start)
		if err != nil {
			return fmt.Errorf("start: %w", err)
		}
		patch.StartDate = &t
	}
	if fi.End != "" {
		t, err := club.ParseDate(fi.End)
		if err != nil {
			return fmt.Errorf("end: %w", err)
		}
		patch.EndDate = &t
	}
	if patch.Status == nil && patch.StartDate == nil && patch.EndDate == nil {
		return nil
	}
	_, err = mgr.Schedule.UpdateItem(ctx, ownerID, item.ID, patch)
	return err
}
