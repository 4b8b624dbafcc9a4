package api

import (
	"strings"
	"time"
)

// Kind names a stored entity collection.
type Kind string

const (
	KindDesigners  Kind = "designers"
	KindEvents     Kind = "events"
	KindPosts      Kind = "posts"
	KindCategories Kind = "categories"
)

// Kinds lists every entity collection in creation order.
var Kinds = []Kind{KindDesigners, KindEvents, KindPosts, KindCategories}

// Valid reports whether k names a known collection.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Meta carries the identity and timestamps shared by every entity.
type Meta struct {
	// ID is an opaque unique identifier (uuid v4).
	ID string `json:"id"`
	// Slug is the URL-safe identifier, unique within the collection.
	// Derived from the display name at creation time.
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Base returns the embedded metadata. Embedding types inherit it.
func (m *Meta) Base() *Meta { return m }

// Entity is implemented by every stored record type.
type Entity interface {
	Base() *Meta
	// DisplayName is the human-readable title the slug is derived from.
	DisplayName() string
}

// Designer is a fashion designer or label listed in the directory.
type Designer struct {
	Meta
	Name        string   `json:"name"`
	Bio         string   `json:"bio,omitempty"`
	Category    []string `json:"category,omitempty"`
	Subcategory []string `json:"subcategory,omitempty"`
	// Location holds country names as entered by editors.
	Location    []string `json:"location,omitempty"`
	Featured    bool     `json:"featured"`
	Sustainable bool     `json:"sustainable"`
	Website     string   `json:"website,omitempty"`
	Instagram   string   `json:"instagram,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
}

func (d *Designer) DisplayName() string { return d.Name }

func (d *Designer) Text(field string) (string, bool) {
	switch field {
	case "name":
		return present(d.Name)
	case "bio":
		return present(d.Bio)
	case "website":
		return present(d.Website)
	case "instagram":
		return present(d.Instagram)
	}
	return "", false
}

func (d *Designer) Values(field string) []string {
	switch field {
	case "category":
		return d.Category
	case "subcategory":
		return d.Subcategory
	case "location":
		return d.Location
	}
	return nil
}

func (d *Designer) Flag(field string) bool {
	switch field {
	case "featured":
		return d.Featured
	case "sustainable":
		return d.Sustainable
	}
	return false
}

// Event is a dated happening: a show, fair, talk or pop-up.
type Event struct {
	Meta
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Category        []string  `json:"category,omitempty"`
	Location        []string  `json:"location,omitempty"`
	Venue           string    `json:"venue,omitempty"`
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at,omitzero"`
	Featured        bool      `json:"featured"`
	Virtual         bool      `json:"virtual"`
	RegistrationURL string    `json:"registration_url,omitempty"`
	ImageURL        string    `json:"image_url,omitempty"`
}

func (e *Event) DisplayName() string { return e.Title }

func (e *Event) Text(field string) (string, bool) {
	switch field {
	case "title":
		return present(e.Title)
	case "description":
		return present(e.Description)
	case "venue":
		return present(e.Venue)
	}
	return "", false
}

func (e *Event) Values(field string) []string {
	switch field {
	case "category":
		return e.Category
	case "location":
		return e.Location
	}
	return nil
}

func (e *Event) Flag(field string) bool {
	switch field {
	case "featured":
		return e.Featured
	case "virtual":
		return e.Virtual
	}
	return false
}

// Upcoming reports whether the event has not finished at now.
func (e *Event) Upcoming(now time.Time) bool {
	end := e.EndsAt
	if end.IsZero() {
		end = e.StartsAt
	}
	return !end.Before(now)
}

// BlogPost is an editorial article.
type BlogPost struct {
	Meta
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt,omitempty"`
	Body        string     `json:"body,omitempty"`
	Author      string     `json:"author,omitempty"`
	Category    []string   `json:"category,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Featured    bool       `json:"featured"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

func (p *BlogPost) DisplayName() string { return p.Title }

func (p *BlogPost) Text(field string) (string, bool) {
	switch field {
	case "title":
		return present(p.Title)
	case "excerpt":
		return present(p.Excerpt)
	case "body":
		return present(p.Body)
	case "author":
		return present(p.Author)
	}
	return "", false
}

func (p *BlogPost) Values(field string) []string {
	switch field {
	case "category":
		return p.Category
	case "tags":
		return p.Tags
	}
	return nil
}

func (p *BlogPost) Flag(field string) bool {
	switch field {
	case "featured":
		return p.Featured
	case "published":
		return p.Published
	}
	return false
}

// CategoryScope restricts which collection a category applies to.
type CategoryScope string

const (
	ScopeDesigner CategoryScope = "designer"
	ScopeEvent    CategoryScope = "event"
	ScopePost     CategoryScope = "post"
)

// Category is an editor-managed taxonomy term.
type Category struct {
	Meta
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Scope       CategoryScope `json:"scope"`
	// Parent is the slug of the parent category. Empty for top-level terms.
	Parent string `json:"parent,omitempty"`
}

func (c *Category) DisplayName() string { return c.Name }

func (c *Category) Text(field string) (string, bool) {
	switch field {
	case "name":
		return present(c.Name)
	case "description":
		return present(c.Description)
	}
	return "", false
}

func (c *Category) Values(field string) []string {
	switch field {
	case "scope":
		return []string{string(c.Scope)}
	case "parent":
		if c.Parent == "" {
			return nil
		}
		return []string{c.Parent}
	}
	return nil
}

func (c *Category) Flag(string) bool { return false }

// Page is a named, schema-free block of structured site content
// (hero copy, about sections, footer links).
type Page struct {
	Name      string    `json:"name"`
	Content   any       `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

func present(s string) (string, bool) {
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}
