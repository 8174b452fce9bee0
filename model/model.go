// Package model holds the community board entities as they are persisted.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// Category is the board a post belongs to.
type Category string

const (
	CategoryInfo     Category = "info"
	CategoryHotplace Category = "hotplace"
	CategoryHumor    Category = "humor"
	CategoryGallery  Category = "gallery"
)

// Categories lists every known category in display order.
var Categories = []Category{CategoryInfo, CategoryHotplace, CategoryHumor, CategoryGallery}

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// Role is a user's permission level.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Validation errors returned by constructors.
var (
	ErrUnknownCategory  = errors.New("unknown category")
	ErrAuthorConflict   = errors.New("author must be either an authenticated user or an anonymous fingerprint")
	ErrAuthorMissing    = errors.New("author has neither user id nor ip prefix")
	ErrEmptyTitle       = errors.New("title is required")
	ErrEmptyContent     = errors.New("content is required")
	ErrEmptyComment     = errors.New("please enter a comment")
	ErrGalleryRequired  = errors.New("gallery posts require a gallery id")
	ErrLocationCategory = errors.New("location is only allowed on hotplace posts")
)

// Author identifies who wrote a post or comment. An authenticated author
// carries only UserID; an anonymous one carries IPPrefix and an optional
// Nickname.
type Author struct {
	UserID   string `json:"userId,omitempty"`
	Nickname string `json:"nickname,omitempty"`
	IPPrefix string `json:"ipPrefix,omitempty"`
}

// UserAuthor returns an authenticated author.
func UserAuthor(userID string) Author {
	return Author{UserID: userID}
}

// AnonymousAuthor returns an anonymous author with a trimmed nickname.
func AnonymousAuthor(nickname, ipPrefix string) Author {
	return Author{Nickname: strings.TrimSpace(nickname), IPPrefix: ipPrefix}
}

// Anonymous reports whether the author is not a logged-in user.
func (a Author) Anonymous() bool {
	return a.UserID == ""
}

// Validate enforces mutually exclusive authorship.
func (a Author) Validate() error {
	if a.UserID != "" {
		if a.Nickname != "" || a.IPPrefix != "" {
			return ErrAuthorConflict
		}
		return nil
	}
	if a.IPPrefix == "" {
		return ErrAuthorMissing
	}
	return nil
}

// Location is an optional place attached to hotplace posts. Coordinates are
// absent when the address was entered by hand.
type Location struct {
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	Address string   `json:"address"`
}

// Post is a board entry.
type Post struct {
	ID        string    `json:"id"`
	Category  Category  `json:"category"`
	GalleryID string    `json:"galleryId,omitempty"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author
	Video     string    `json:"video,omitempty"`
	Images    []string  `json:"images,omitempty"`
	Location  *Location `json:"location,omitempty"`
	Views     int       `json:"views"`
	Likes     int       `json:"likes"`
	Comments  int       `json:"comments"`
	CreatedAt Timestamp `json:"createdAt"`
	Deleted   bool      `json:"deleted,omitempty"`
}

// PostDraft carries the caller-supplied fields of a new post.
type PostDraft struct {
	Category  Category
	GalleryID string
	Title     string
	Content   string
	Video     string
	Images    []string
	Location  *Location
}

// NewPost validates a draft and returns a post with zeroed counters.
func NewPost(id string, draft PostDraft, author Author, createdAt Timestamp) (Post, error) {
	if _, err := ParseCategory(string(draft.Category)); err != nil {
		return Post{}, err
	}
	if err := author.Validate(); err != nil {
		return Post{}, err
	}

	title := strings.TrimSpace(draft.Title)
	content := strings.TrimSpace(draft.Content)
	if title == "" {
		return Post{}, ErrEmptyTitle
	}
	if content == "" {
		return Post{}, ErrEmptyContent
	}
	if draft.Category == CategoryGallery && draft.GalleryID == "" {
		return Post{}, ErrGalleryRequired
	}
	if draft.Location != nil && draft.Category != CategoryHotplace {
		return Post{}, ErrLocationCategory
	}

	return Post{
		ID:        id,
		Category:  draft.Category,
		GalleryID: draft.GalleryID,
		Title:     title,
		Content:   content,
		Author:    author,
		Video:     strings.TrimSpace(draft.Video),
		Images:    draft.Images,
		Location:  draft.Location,
		CreatedAt: createdAt,
	}, nil
}

// Comment is a reply to a post.
type Comment struct {
	ID      string `json:"id"`
	PostID  string `json:"postId"`
	Content string `json:"content"`
	Author
	Likes     int       `json:"likes"`
	CreatedAt Timestamp `json:"createdAt"`
	Deleted   bool      `json:"deleted,omitempty"`
}

// NewComment validates content and authorship.
func NewComment(id, postID, content string, author Author, createdAt Timestamp) (Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Comment{}, ErrEmptyComment
	}
	if err := author.Validate(); err != nil {
		return Comment{}, err
	}
	return Comment{
		ID:        id,
		PostID:    postID,
		Content:   content,
		Author:    author,
		CreatedAt: createdAt,
	}, nil
}

// LikeRecord is one accepted like. Exactly one of UserID or IPPrefix is set.
type LikeRecord struct {
	UserID    string    `json:"userId,omitempty"`
	IPPrefix  string    `json:"ipPrefix,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
}

// LikeBook records who liked which post or comment.
type LikeBook struct {
	Posts    map[string][]LikeRecord `json:"posts"`
	Comments map[string][]LikeRecord `json:"comments"`
}

// NewLikeBook returns an empty book with both maps allocated.
func NewLikeBook() LikeBook {
	return LikeBook{
		Posts:    make(map[string][]LikeRecord),
		Comments: make(map[string][]LikeRecord),
	}
}

// Has reports whether the actor already appears among records.
func Has(records []LikeRecord, userID, ipPrefix string) bool {
	for _, r := range records {
		if userID != "" {
			if r.UserID == userID {
				return true
			}
			continue
		}
		if r.UserID == "" && r.IPPrefix == ipPrefix {
			return true
		}
	}
	return false
}

// User is a registered member.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Country   string    `json:"country"`
	Role      Role      `json:"role"`
	CreatedAt Timestamp `json:"createdAt"`
}

// IsAdmin reports whether the user may moderate.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Status of galleries and gallery applications.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// MaxGalleryAdmins is how many users may administer one gallery.
const MaxGalleryAdmins = 2

// Gallery is a per-country community board.
type Gallery struct {
	ID          string    `json:"id"`
	Country     string    `json:"country"`
	CountryCode string    `json:"countryCode,omitempty"`
	Flag        string    `json:"flag,omitempty"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Admins      []string  `json:"admins"`
	CreatedAt   Timestamp `json:"createdAt"`
}

// GalleryApplication is a request to open a new gallery.
type GalleryApplication struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Country     string    `json:"country"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   Timestamp `json:"createdAt"`
	ApprovedAt  Timestamp `json:"approvedAt"`
	RejectedAt  Timestamp `json:"rejectedAt"`
}

// Session binds an opaque token to a logged-in user.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	CreatedAt Timestamp `json:"createdAt"`
	ExpiresAt Timestamp `json:"expiresAt"`
}
