package domain

import (
	"time"

	"github.com/google/uuid"
)

// ArticlesPerPage is the number of articles returned by the public feed.
const ArticlesPerPage = 6

// DefaultLanguage is the language used when a request names none.
const DefaultLanguage = "ar"

// Article is an editorial post published by an administrator.
type Article struct {
	ID        uuid.UUID
	Title     string
	Summary   string
	Content   string
	ImageURL  string
	Language  string
	CreatedAt time.Time
}

// Sponsor is an advertising placement.
type Sponsor struct {
	ID        uuid.UUID
	Name      string
	ImageURL  string
	LinkURL   string
	Location  string
	Active    bool
	CreatedAt time.Time
}

// ArticleParams is an article as submitted by an administrator.
type ArticleParams struct {
	Title    string
	Summary  string
	Content  string
	ImageURL string
	Language string
}

// SponsorParams is a sponsor placement as submitted by an administrator.
type SponsorParams struct {
	Name     string
	ImageURL string
	LinkURL  string
	Location string
	Active   bool
}

// DefaultSponsorLocation is the placement used when a request names none.
const DefaultSponsorLocation = "main"
