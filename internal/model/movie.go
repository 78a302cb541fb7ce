package model

import "time"

// Category is one of the four fixed catalog types.  The value is what the
// admin console submits and what is stored in `movies.category`.
type Category string

const (
    CategoryBollywood        Category = "bollywood-movies"
    CategorySouthHindiDubbed Category = "south-hindi-dubbed"
    CategoryHollywood        Category = "hollywood-movies"
    CategoryWebSeries        Category = "web-series"
)

// Categories lists every category in display order.
var Categories = []Category{
    CategoryBollywood,
    CategorySouthHindiDubbed,
    CategoryHollywood,
    CategoryWebSeries,
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
    for _, k := range Categories {
        if c == k {
            return true
        }
    }
    return false
}

// IsSeries reports whether items of this category carry episodes instead of
// a single playable link.
func (c Category) IsSeries() bool { return c == CategoryWebSeries }

// Label is the short category name used on catalog cards.
func (c Category) Label() string {
    switch c {
    case CategoryBollywood:
        return "bollywood"
    case CategorySouthHindiDubbed:
        return "southindian-dubbed"
    case CategoryHollywood:
        return "hollywood"
    case CategoryWebSeries:
        return "web-series"
    }
    return "movie"
}

// Content status values.  Only Active items appear in favorites and in the
// default catalog buckets.
const (
    StatusActive   = "Active"
    StatusInactive = "Inactive"
)

// ValidStatus reports whether s is a known content status.
func ValidStatus(s string) bool { return s == StatusActive || s == StatusInactive }

// Episode is one playable entry of a web series.
type Episode struct {
    Title string `json:"title"`
    Link  string `json:"link"`
}

// Image is a stored poster: its public URL and the storage id needed to
// delete it later.
type Image struct {
    URL string
    ID  string
}

// Empty reports whether no image is stored in this slot.
func (i Image) Empty() bool { return i.URL == "" && i.ID == "" }

// PosterSlot names one of the three poster variants.
type PosterSlot string

const (
    PosterMain       PosterSlot = "main"
    PosterBackground PosterSlot = "background"
    PosterMobile     PosterSlot = "mobile"
)

// PosterSlots lists the slots in upload order.
var PosterSlots = []PosterSlot{PosterMain, PosterBackground, PosterMobile}

// FormField is the multipart field name that carries this slot's file.
func (s PosterSlot) FormField() string { return string(s) + "Poster" }

// Folder is the storage folder for this slot.
func (s PosterSlot) Folder() string { return string(s) + "-posters" }

// Posters groups the up to three image variants of a content item.
type Posters struct {
    Main       Image
    Background Image
    Mobile     Image
}

// Get returns the image stored in slot.
func (p Posters) Get(slot PosterSlot) Image {
    switch slot {
    case PosterBackground:
        return p.Background
    case PosterMobile:
        return p.Mobile
    }
    return p.Main
}

// Set stores img in slot.
func (p *Posters) Set(slot PosterSlot, img Image) {
    switch slot {
    case PosterBackground:
        p.Background = img
    case PosterMobile:
        p.Mobile = img
    default:
        p.Main = img
    }
}

// IDs returns the storage ids of all stored posters.
func (p Posters) IDs() []string {
    out := make([]string, 0, 3)
    for _, slot := range PosterSlots {
        if id := p.Get(slot).ID; id != "" {
            out = append(out, id)
        }
    }
    return out
}

// Movie represents a content item in the `movies` table: a film or a web
// series.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – display title.
//  Description – synopsis.
//  Category    – one of the four fixed categories.
//  Genre       – free-form genre label.
//  TrailerLink – optional trailer URL.
//  MovieLink   – playable URL; only for non-series categories.
//  Episodes    – ordered episodes; only for the web-series category.
//  Posters     – main, background and mobile images.
//  Status      – Active or Inactive.
//  CreatedAt   – creation timestamp, the default sort key.
//  UpdatedAt   – last update timestamp.
type Movie struct {
    ID          uint64
    Name        string
    Description string
    Category    Category
    Genre       string
    TrailerLink string
    MovieLink   string
    Episodes    []Episode
    Posters     Posters
    Status      string
    CreatedAt   time.Time
    UpdatedAt   time.Time
}

// Normalize enforces the single-link / episodes exclusivity implied by the
// category and fills in the default status.
func (m *Movie) Normalize() {
    if m.Category.IsSeries() {
        m.MovieLink = ""
        if m.Episodes == nil {
            m.Episodes = []Episode{}
        }
    } else {
        m.Episodes = nil
    }
    if m.Status == "" {
        m.Status = StatusActive
    }
}
