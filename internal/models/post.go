package models

import "time"

// Post is the blog document the surrounding CRUD application owns.
// The search core only ever reads it.
type Post struct {
	ID        string
	Slug      string
	Title     string
	Content   string
	Published bool
	CreatedAt time.Time
}
