package club

import "time"

// Anonymous is the caller id used for requests that carry no identity.
// Row ids start at 1, so it never collides with a stored user.
const Anonymous int64 = 0

// Club is a named group with a reading schedule and a member roster.
type Club struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsPrivate   bool      `json:"is_private"`
	CreatedOn   time.Time `json:"created_on"`
}

// Membership is the role a user holds within a club.
type Membership struct {
	ID       int64     `json:"id"`
	ClubID   int64     `json:"club_id"`
	ClubName string    `json:"club_name"`
	UserID   int64     `json:"user_id"`
	Username string    `json:"username"`
	Role     Role      `json:"role"`
	JoinedOn time.Time `json:"joined_on"`
}

// ReadingItem is a book scheduled, being read, or finished within a club.
type ReadingItem struct {
	ID         int64      `json:"id"`
	ClubID     int64      `json:"club_id"`
	BookID     string     `json:"book_id"`
	BookTitle  string     `json:"book_title"`
	BookAuthor string     `json:"book_author"`
	CoverURL   string     `json:"cover_url,omitempty"`
	Status     ItemStatus `json:"status"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	AddedOn    time.Time  `json:"added_on"`
}

// BookRecord is the cached metadata for a book referenced by a schedule.
// ID is the external catalogue key (for example an Open Library work id).
type BookRecord struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	CoverURL string `json:"cover_url,omitempty"`
}

// User is a registered account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Don't serialize password hash
	CreatedAt    time.Time `json:"created_at"`
}

// NewClub holds the fields accepted by CreateClub.
// A nil IsPrivate means public.
type NewClub struct {
	Name        string
	Description string
	IsPrivate   *bool
}

// ClubPatch is a partial update; nil fields are left unchanged.
type ClubPatch struct {
	Name        *string
	Description *string
	IsPrivate   *bool
}

// ItemPatch is a partial update of a reading item; nil fields are left unchanged.
type ItemPatch struct {
	Status    *ItemStatus
	StartDate *time.Time
	EndDate   *time.Time
}
