package handler // handler defines http handlers

import (
    "context"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/streaming-catalog/internal/errs"
    "github.com/iliyamo/streaming-catalog/internal/middleware"
    "github.com/iliyamo/streaming-catalog/internal/model"
    "github.com/iliyamo/streaming-catalog/internal/service"
)

// dbTimeout bounds the storage work of a single request.
const dbTimeout = 5 * time.Second

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// queryInt parses an integer query parameter.  Missing or unparsable values
// yield def.
func queryInt(c echo.Context, name string, def int) int {
    raw := strings.TrimSpace(c.QueryParam(name))
    if raw == "" {
        return def
    }
    n, err := strconv.Atoi(raw)
    if err != nil {
        return def
    }
    return n
}

// queryStatus returns the status filter.  An absent parameter means def; an
// explicitly empty one means no filter.
func queryStatus(c echo.Context, def string) string {
    if _, ok := c.QueryParams()["status"]; !ok {
        return def
    }
    return strings.TrimSpace(c.QueryParam("status"))
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name, msg string) (uint64, error) {
    id, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
    if err != nil || id == 0 {
        return 0, errs.Validation(msg)
    }
    return id, nil
}

// currentIdentity returns the identity bound by RequireSession.
func currentIdentity(c echo.Context) (model.Identity, error) {
    id, ok := middleware.IdentityFrom(c)
    if !ok {
        return model.Identity{}, errs.ErrUnauthenticated
    }
    return id, nil
}

func bind(c echo.Context, dst interface{}) error {
    if err := c.Bind(dst); err != nil {
        return errs.Validation("Invalid body")
    }
    return nil
}

// ----- response shapes -----

type userPart struct {
    ID        uint64    `json:"id"`
    FirstName string    `json:"firstName"`
    LastName  string    `json:"lastName"`
    Email     string    `json:"email"`
    Role      string    `json:"role"`
    CreatedAt time.Time `json:"createdAt"`
}

func toUser(a model.Account) userPart {
    return userPart{
        ID:        a.ID,
        FirstName: a.FirstName,
        LastName:  a.LastName,
        Email:     a.Email,
        Role:      string(a.Role),
        CreatedAt: a.CreatedAt,
    }
}

type imagePart struct {
    URL      string `json:"url"`
    PublicID string `json:"publicId"`
}

type posterPart struct {
    Main       *imagePart `json:"main,omitempty"`
    Background *imagePart `json:"background,omitempty"`
    Mobile     *imagePart `json:"mobile,omitempty"`
}

func toImage(img model.Image) *imagePart {
    if img.Empty() {
        return nil
    }
    return &imagePart{URL: img.URL, PublicID: img.ID}
}

// moviePart is the full representation of a content item.
type moviePart struct {
    ID          uint64          `json:"id,string"`
    Name        string          `json:"name"`
    Description string          `json:"description"`
    Type        string          `json:"type"`
    Genre       string          `json:"genre"`
    TrailerLink string          `json:"trailerLink"`
    MovieLink   string          `json:"movieLink,omitempty"`
    Episodes    []model.Episode `json:"episodes"`
    Posters     posterPart      `json:"posters"`
    Status      string          `json:"status"`
    CreatedAt   time.Time       `json:"createdAt"`
    UpdatedAt   time.Time       `json:"updatedAt"`
}

func toMovie(m model.Movie) moviePart {
    eps := m.Episodes
    if eps == nil {
        eps = []model.Episode{}
    }
    return moviePart{
        ID:          m.ID,
        Name:        m.Name,
        Description: m.Description,
        Type:        string(m.Category),
        Genre:       m.Genre,
        TrailerLink: m.TrailerLink,
        MovieLink:   m.MovieLink,
        Episodes:    eps,
        Posters: posterPart{
            Main:       toImage(m.Posters.Main),
            Background: toImage(m.Posters.Background),
            Mobile:     toImage(m.Posters.Mobile),
        },
        Status:    m.Status,
        CreatedAt: m.CreatedAt,
        UpdatedAt: m.UpdatedAt,
    }
}

// cardPart is the thin shape used by sliders, category rows and favorites.
// Fields the catalog does not track are sent with fixed placeholders.
type cardPart struct {
    ID               uint64 `json:"id,string"`
    Title            string `json:"title"`
    Description      string `json:"description"`
    MainPoster       string `json:"mainPoster"`
    BackgroundPoster string `json:"backgroundPoster"`
    MobilePoster     string `json:"mobilePoster"`
    Genre            string `json:"genre"`
    Rating           int    `json:"rating"`
    Duration         string `json:"duration"`
    Cast             string `json:"cast"`
    Director         string `json:"director"`
    Category         string `json:"category"`
    MovieLink        string `json:"movieLink"`
    TrailerLink      string `json:"trailerLink"`
}

func toCard(m model.Movie) cardPart {
    main := m.Posters.Main.URL
    bg, mobile := m.Posters.Background.URL, m.Posters.Mobile.URL
    if bg == "" {
        bg = main
    }
    if mobile == "" {
        mobile = main
    }
    genre := m.Genre
    if genre == "" {
        genre = "drama"
    }
    return cardPart{
        ID:               m.ID,
        Title:            m.Name,
        Description:      m.Description,
        MainPoster:       main,
        BackgroundPoster: bg,
        MobilePoster:     mobile,
        Genre:            genre,
        Duration:         "120",
        Category:         m.Category.Label(),
        MovieLink:        m.MovieLink,
        TrailerLink:      m.TrailerLink,
    }
}

func toCards(items []model.Movie) []cardPart {
    out := make([]cardPart, 0, len(items))
    for _, m := range items {
        out = append(out, toCard(m))
    }
    return out
}

// mapPage converts the items of a page while keeping its counters.
func mapPage[T, U any](p service.Page[T], fn func(T) U) service.Page[U] {
    items := make([]U, 0, len(p.Items))
    for _, it := range p.Items {
        items = append(items, fn(it))
    }
    return service.Page[U]{Items: items, Total: p.Total, Page: p.Page, Limit: p.Limit, PageCount: p.PageCount}
}
