package handler

import (
    "bytes"
    "encoding/json"
    "errors"
    "io"
    "mime/multipart"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/streaming-catalog/internal/errs"
    "github.com/iliyamo/streaming-catalog/internal/model"
    "github.com/iliyamo/streaming-catalog/internal/service"
)

// MaxPosterBytes caps a single uploaded poster.
const MaxPosterBytes = 8 << 20

// imageExt maps sniffed content types to stored file extensions.
var imageExt = map[string]string{
    "image/jpeg": ".jpg",
    "image/png":  ".png",
    "image/gif":  ".gif",
    "image/webp": ".webp",
}

// MovieHandler serves the public catalog and the admin content endpoints.
type MovieHandler struct {
    Catalog *service.CatalogService
    Movies  *service.MovieService
}

func NewMovieHandler(catalog *service.CatalogService, movies *service.MovieService) *MovieHandler {
    return &MovieHandler{Catalog: catalog, Movies: movies}
}

// List: GET /movies?q&type&status&page&limit&sort
func (h *MovieHandler) List(c echo.Context) error {
    ctx, cancel := requestCtx(c)
    defer cancel()

    p, err := h.Catalog.List(ctx, service.MovieFilter{
        Category: model.Category(strings.TrimSpace(c.QueryParam("type"))),
        Text:     strings.TrimSpace(c.QueryParam("q")),
        Status:   strings.TrimSpace(c.QueryParam("status")),
    },
        queryInt(c, "page", 1),
        queryInt(c, "limit", service.DefaultPageLimit),
        service.ParseSort(c.QueryParam("sort"), service.MovieSortFields, service.DefaultSort),
    )
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, mapPage(p, toMovie))
}

// Latest feeds the home slider.  Status defaults to Active.
func (h *MovieHandler) Latest(c echo.Context) error {
    limit := service.ClampLimit(queryInt(c, "limit", 5))
    ctx, cancel := requestCtx(c)
    defer cancel()

    items, err := h.Catalog.Latest(ctx,
        model.Category(strings.TrimSpace(c.QueryParam("type"))),
        queryStatus(c, model.StatusActive),
        limit,
    )
    if err != nil {
        return err
    }
    data := toCards(items)
    c.Response().Header().Set("Cache-Control", "public, max-age=60")
    return c.JSON(http.StatusOK, echo.Map{
        "data": data,
        "meta": echo.Map{"count": len(data), "limit": limit},
    })
}

// Categories returns the newest items of every category at once.
func (h *MovieHandler) Categories(c echo.Context) error {
    limits := service.BucketLimits{
        Bollywood:        service.ClampLimit(queryInt(c, "bLimit", 10)),
        SouthHindiDubbed: service.ClampLimit(queryInt(c, "sLimit", 10)),
        Hollywood:        service.ClampLimit(queryInt(c, "hLimit", 10)),
        WebSeries:        service.ClampLimit(queryInt(c, "wLimit", 10)),
    }
    status := queryStatus(c, model.StatusActive)
    ctx, cancel := requestCtx(c)
    defer cancel()

    b, err := h.Catalog.Categories(ctx, limits, status)
    if err != nil {
        return err
    }
    var statusMeta interface{}
    if status != "" {
        statusMeta = status
    }
    c.Response().Header().Set("Cache-Control", "public, max-age=60")
    return c.JSON(http.StatusOK, echo.Map{
        "data": echo.Map{
            "bollywood":        toCards(b.Bollywood),
            "southHindiDubbed": toCards(b.SouthHindiDubbed),
            "hollywood":        toCards(b.Hollywood),
            "webSeries":        toCards(b.WebSeries),
        },
        "meta": echo.Map{
            "limits": echo.Map{
                "bollywood":        limits.Bollywood,
                "southHindiDubbed": limits.SouthHindiDubbed,
                "hollywood":        limits.Hollywood,
                "webSeries":        limits.WebSeries,
            },
            "status": statusMeta,
        },
    })
}

// Get returns one item in any status.
func (h *MovieHandler) Get(c echo.Context) error {
    id, err := pathID(c, "id", "Invalid id")
    if err != nil {
        return err
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    m, err := h.Catalog.Get(ctx, id)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, toMovie(m))
}

// Create: multipart form with text fields and up to three posters.
func (h *MovieHandler) Create(c echo.Context) error {
    values, files, err := readForm(c)
    if err != nil {
        return err
    }
    episodes, err := parseEpisodes(values)
    if err != nil {
        return err
    }
    uploads, closeAll, err := posterUploads(files)
    if err != nil {
        return err
    }
    defer closeAll()

    in := service.MovieInput{
        Name:        first(values, "name"),
        Description: first(values, "description"),
        Category:    model.Category(strings.TrimSpace(first(values, "type"))),
        Genre:       first(values, "genre"),
        TrailerLink: first(values, "trailerLink"),
        MovieLink:   first(values, "movieLink"),
        Status:      strings.TrimSpace(first(values, "status")),
    }
    if episodes != nil {
        in.Episodes = *episodes
    }

    ctx, cancel := requestCtx(c)
    defer cancel()
    m, err := h.Movies.Create(ctx, in, uploads)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusCreated, toMovie(m))
}

// Update: only fields present in the form change; a new poster replaces the
// old one in its slot.
func (h *MovieHandler) Update(c echo.Context) error {
    id, err := pathID(c, "id", "Invalid id")
    if err != nil {
        return err
    }
    values, files, err := readForm(c)
    if err != nil {
        return err
    }
    episodes, err := parseEpisodes(values)
    if err != nil {
        return err
    }
    uploads, closeAll, err := posterUploads(files)
    if err != nil {
        return err
    }
    defer closeAll()

    upd := service.MovieUpdate{
        Name:        optional(values, "name"),
        Description: optional(values, "description"),
        Genre:       optional(values, "genre"),
        TrailerLink: optional(values, "trailerLink"),
        MovieLink:   optional(values, "movieLink"),
        Status:      optional(values, "status"),
        Episodes:    episodes,
    }
    if t := optional(values, "type"); t != nil {
        cat := model.Category(strings.TrimSpace(*t))
        upd.Category = &cat
    }

    ctx, cancel := requestCtx(c)
    defer cancel()
    m, err := h.Movies.Update(ctx, id, upd, uploads)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, toMovie(m))
}

// Delete removes the item and its posters.
func (h *MovieHandler) Delete(c echo.Context) error {
    id, err := pathID(c, "id", "Invalid id")
    if err != nil {
        return err
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    if err := h.Movies.Delete(ctx, id); err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Deleted"})
}

// ----- form helpers -----

// readForm accepts multipart and url-encoded bodies alike.
func readForm(c echo.Context) (map[string][]string, map[string][]*multipart.FileHeader, error) {
    if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
        form, err := c.MultipartForm()
        if err != nil {
            return nil, nil, errs.Validation("Invalid form")
        }
        return form.Value, form.File, nil
    }
    values, err := c.FormParams()
    if err != nil {
        return nil, nil, errs.Validation("Invalid form")
    }
    return values, nil, nil
}

func first(values map[string][]string, key string) string {
    if v := values[key]; len(v) > 0 {
        return v[0]
    }
    return ""
}

func optional(values map[string][]string, key string) *string {
    v, ok := values[key]
    if !ok || len(v) == 0 {
        return nil
    }
    s := v[0]
    return &s
}

// parseEpisodes decodes the JSON-encoded episodes field.  nil when absent.
func parseEpisodes(values map[string][]string) (*[]model.Episode, error) {
    raw := optional(values, "episodes")
    if raw == nil {
        return nil, nil
    }
    eps := []model.Episode{}
    if s := strings.TrimSpace(*raw); s != "" {
        if err := json.Unmarshal([]byte(s), &eps); err != nil {
            return nil, errs.Validation("Invalid episodes JSON")
        }
    }
    return &eps, nil
}

// posterUploads opens the poster files, checks size and sniffs the content
// type.  The returned func closes every opened file.
func posterUploads(files map[string][]*multipart.FileHeader) ([]service.PosterUpload, func(), error) {
    var (
        uploads []service.PosterUpload
        opened  []io.Closer
    )
    closeAll := func() {
        for _, f := range opened {
            _ = f.Close()
        }
    }
    for _, slot := range model.PosterSlots {
        fhs := files[slot.FormField()]
        if len(fhs) == 0 {
            continue
        }
        fh := fhs[0]
        if fh.Size > MaxPosterBytes {
            closeAll()
            return nil, func() {}, errs.Validation("Poster exceeds 8 MB")
        }
        f, err := fh.Open()
        if err != nil {
            closeAll()
            return nil, func() {}, errs.Validation("Invalid poster upload")
        }
        opened = append(opened, f)

        head := make([]byte, 512)
        n, err := io.ReadFull(f, head)
        if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
            closeAll()
            return nil, func() {}, errs.Validation("Invalid poster upload")
        }
        head = head[:n]
        ext, ok := imageExt[http.DetectContentType(head)]
        if !ok {
            closeAll()
            return nil, func() {}, errs.Validation("Only image files are allowed")
        }
        uploads = append(uploads, service.PosterUpload{
            Slot: slot,
            Body: io.MultiReader(bytes.NewReader(head), f),
            Ext:  ext,
        })
    }
    return uploads, closeAll, nil
}
