package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// User represents a registered user
type User struct {
	Avatar   *string `json:"avatar"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Tours    []int   `json:"tours"`
	ID       int     `json:"id"`
}

// PublicUser is the part of a user that is returned to clients
type PublicUser struct {
	Avatar   *string `json:"avatar"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	ID       int     `json:"id"`
}

// RecordID returns the user ID
func (u User) RecordID() int { return u.ID }

// WithID returns a copy of the user with the given ID
func (u User) WithID(id int) User {
	u.ID = id
	return u
}

// Public strips the password and saved tours
func (u User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Avatar:   u.Avatar,
	}
}

// HasTour reports whether the tour is in the user's saved list
func (u User) HasTour(tourID int) bool {
	for _, id := range u.Tours {
		if id == tourID {
			return true
		}
	}
	return false
}

// PopularTour represents a curated tour seeded outside the application
type PopularTour struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Tags        []string `json:"tags"`
	ID          int      `json:"id"`
}

// RecordID returns the tour ID
func (t PopularTour) RecordID() int { return t.ID }

// WithID returns a copy of the tour with the given ID
func (t PopularTour) WithID(id int) PopularTour {
	t.ID = id
	return t
}

// Travel represents a custom travel created by a user
type Travel struct {
	Title       string `json:"title"`
	City        string `json:"city"`
	Description string `json:"description"`
	Date        string `json:"date"`
	ID          int    `json:"id"`
}

// RecordID returns the travel ID
func (t Travel) RecordID() int { return t.ID }

// WithID returns a copy of the travel with the given ID
func (t Travel) WithID(id int) Travel {
	t.ID = id
	return t
}

// Tip represents a travel tip
type Tip struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	ID    int    `json:"id"`
}

// RecordID returns the tip ID
func (t Tip) RecordID() int { return t.ID }

// WithID returns a copy of the tip with the given ID
func (t Tip) WithID(id int) Tip {
	t.ID = id
	return t
}

// TravelImage is a photo shown on a travel detail page
type TravelImage struct {
	Photo  string `json:"photo"`
	Author string `json:"autor"`
}

// Place is a point of interest of a travel detail
type Place struct {
	Name        string `json:"name"`
	Photo       string `json:"photo"`
	Description string `json:"description"`
	Link        string `json:"link"`
	ID          int    `json:"id"`
}

// TravelDetail holds the extended description of a popular tour.
// Its ID matches the ID of the popular tour it describes.
type TravelDetail struct {
	Name              string        `json:"name"`
	FirstDescription  string        `json:"firstDescription"`
	SecondDescription string        `json:"secondDescription"`
	ThirdDescription  string        `json:"thirdDescription"`
	Hotels            string        `json:"hotels"`
	Flights           string        `json:"flights"`
	Images            []TravelImage `json:"images"`
	Places            []Place       `json:"places"`
	Comments          []Comment     `json:"comments"`
	ID                int           `json:"id"`
}

// RecordID returns the travel detail ID
func (d TravelDetail) RecordID() int { return d.ID }

// WithID returns a copy of the travel detail with the given ID
func (d TravelDetail) WithID(id int) TravelDetail {
	d.ID = id
	return d
}

// Comment is a user review attached to a travel detail
type Comment struct {
	Date     time.Time `json:"date"`
	UserID   *int      `json:"userId"`
	Rating   *int      `json:"rating"`
	Username string    `json:"username"`
	Text     string    `json:"text"`
	ID       int64     `json:"id"`
}

// commentDateLayouts are tried in order when decoding a comment date
var commentDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON decodes a comment with a lenient date: RFC 3339, a date or
// date-time without zone (read as UTC), or Unix milliseconds. A date in any
// other format decodes as the zero time instead of failing the document.
func (c *Comment) UnmarshalJSON(data []byte) error {
	type plain Comment
	var raw struct {
		plain
		Date json.RawMessage `json:"date"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Comment(raw.plain)
	c.Date = parseCommentDate(raw.Date)
	return nil
}

func parseCommentDate(raw json.RawMessage) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}
	}

	var millis int64
	if err := json.Unmarshal(raw, &millis); err == nil {
		return time.UnixMilli(millis).UTC()
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}
	}
	s = strings.TrimSpace(s)
	for _, layout := range commentDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// OwnedBy reports whether the comment was written by the given user.
// Anonymous comments are owned by nobody.
func (c Comment) OwnedBy(userID *int) bool {
	return c.UserID != nil && userID != nil && *c.UserID == *userID
}

// CommentInput carries the fields a client may set on a new comment
type CommentInput struct {
	UserID   *int
	Rating   *int
	Username string
	Text     string
}
