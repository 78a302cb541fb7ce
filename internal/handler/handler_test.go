package handler

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "mime/multipart"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "github.com/iliyamo/streaming-catalog/internal/middleware"
    "github.com/iliyamo/streaming-catalog/internal/model"
    "github.com/iliyamo/streaming-catalog/internal/service"
    "github.com/iliyamo/streaming-catalog/internal/storetest"
)

const (
    testSecret    = "handler-test-secret-0123456789"
    testClientURL = "http://client.test"
)

type testEnv struct {
    e        *echo.Echo
    accounts *storetest.Accounts
    movies   *storetest.Movies
    favs     *storetest.Favorites
    images   *storetest.Images
    notifier *storetest.Notifier
    reset    *service.PasswordResetService
    tokens   *service.TokenService
    auth     *service.AuthService
}

func newEnv(t *testing.T, production bool) *testEnv {
    t.Helper()
    env := &testEnv{
        accounts: storetest.NewAccounts(),
        movies:   storetest.NewMovies(),
        images:   storetest.NewImages(),
        notifier: &storetest.Notifier{},
        tokens:   service.NewTokenService(testSecret, 15*time.Minute, 7*24*time.Hour),
    }
    env.favs = storetest.NewFavorites(env.movies)
    env.auth = service.NewAuthService(env.accounts, env.tokens, 4, nil)
    env.reset = service.NewPasswordResetService(env.accounts, env.notifier, 15*time.Minute, testClientURL, 4, nil)
    catalog := service.NewCatalogService(env.movies, env.accounts)

    e := echo.New()
    e.HTTPErrorHandler = NewErrorHandler(zap.NewNop(), production)
    cookie := CookieSettings{Name: "token"}
    sess := middleware.RequireSession(env.tokens, cookie.Name)
    admin := middleware.RestrictTo(model.RoleAdmin)

    a := NewAuthHandler(env.auth, env.reset, cookie)
    e.POST("/auth/register", a.Register)
    e.POST("/auth/login", a.Login)
    e.POST("/auth/logout", a.Logout)
    e.GET("/auth/me", a.Me, sess)
    e.POST("/auth/forgot-password", a.ForgotPassword)
    e.POST("/auth/reset-password/:token", a.ResetPassword)

    ad := NewAdminHandler(env.auth, cookie)
    e.POST("/admin/login", ad.Login)
    e.POST("/admin/register", ad.Register, sess, admin)

    m := NewMovieHandler(catalog, service.NewMovieService(env.movies, env.images, nil))
    e.GET("/movies", m.List)
    e.GET("/movies/latest", m.Latest)
    e.GET("/movies/categories", m.Categories)
    e.GET("/movies/:id", m.Get)
    e.POST("/movies", m.Create, sess, admin)
    e.PUT("/movies/:id", m.Update, sess, admin)
    e.DELETE("/movies/:id", m.Delete, sess, admin)

    f := NewFavoriteHandler(service.NewFavoritesService(env.favs, env.movies))
    e.GET("/favorites", f.List, sess)
    e.GET("/favorites/ids", f.IDs, sess)
    e.POST("/favorites/:movieId", f.Add, sess)
    e.DELETE("/favorites/:movieId", f.Remove, sess)

    u := NewUserHandler(catalog)
    e.GET("/users", u.List, sess, admin)
    e.GET("/users/recent", u.Recent, sess, admin)

    e.GET("/boom", func(echo.Context) error { return errors.New("dial tcp: refused") })

    env.e = e
    return env
}

func (env *testEnv) do(method, path, body, token string) *httptest.ResponseRecorder {
    var r *http.Request
    if body != "" {
        r = httptest.NewRequest(method, path, strings.NewReader(body))
        r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    } else {
        r = httptest.NewRequest(method, path, nil)
    }
    if token != "" {
        r.Header.Set("Authorization", "Bearer "+token)
    }
    rec := httptest.NewRecorder()
    env.e.ServeHTTP(rec, r)
    return rec
}

func (env *testEnv) adminToken(t *testing.T) string {
    t.Helper()
    a, err := env.auth.CreateAdmin(context.Background(), service.RegisterInput{Email: "root@example.com", Password: "secret-pw"})
    require.NoError(t, err)
    tok, err := env.tokens.Issue(a.ID, model.RoleAdmin, false)
    require.NoError(t, err)
    return tok.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
    t.Helper()
    var out map[string]interface{}
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
    return out
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
    for _, ck := range rec.Result().Cookies() {
        if ck.Name == name {
            return ck
        }
    }
    return nil
}

func TestAuth_RegisterLoginMe(t *testing.T) {
    env := newEnv(t, false)

    rec := env.do(http.MethodPost, "/auth/register", `{"firstName":"Ann","email":"Ann@Example.com","password":"hunter22"}`, "")
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    body := decode(t, rec)
    require.NotEmpty(t, body["token"])
    require.Equal(t, "ann@example.com", body["user"].(map[string]interface{})["email"])
    ck := cookieNamed(rec, "token")
    require.NotNil(t, ck)
    require.True(t, ck.HttpOnly)
    require.Equal(t, 900, ck.MaxAge)

    rec = env.do(http.MethodPost, "/auth/login", `{"email":"ann@example.com","password":"hunter22","rememberMe":true}`, "")
    require.Equal(t, http.StatusOK, rec.Code)
    require.Equal(t, 7*24*3600, cookieNamed(rec, "token").MaxAge)
    token := decode(t, rec)["token"].(string)

    rec = env.do(http.MethodGet, "/auth/me", "", token)
    require.Equal(t, http.StatusOK, rec.Code)
    require.Equal(t, "Ann", decode(t, rec)["user"].(map[string]interface{})["firstName"])

    rec = env.do(http.MethodPost, "/auth/login", `{"email":"ann@example.com","password":"wrong-pw"}`, "")
    require.Equal(t, http.StatusUnauthorized, rec.Code)
    require.Equal(t, "Invalid credentials", decode(t, rec)["message"])
}

func TestAuth_DuplicateEmailConflict(t *testing.T) {
    env := newEnv(t, false)
    payload := `{"email":"dup@example.com","password":"hunter22"}`
    require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/auth/register", payload, "").Code)

    rec := env.do(http.MethodPost, "/auth/register", `{"email":"DUP@example.com","password":"other-pw"}`, "")
    require.Equal(t, http.StatusConflict, rec.Code)
    require.Equal(t, "Email already registered", decode(t, rec)["message"])

    // the original password still works
    require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/auth/login", payload, "").Code)
}

func TestAuth_MeRequiresSession(t *testing.T) {
    env := newEnv(t, false)
    rec := env.do(http.MethodGet, "/auth/me", "", "")
    require.Equal(t, http.StatusUnauthorized, rec.Code)
    require.Equal(t, "Not authenticated", decode(t, rec)["message"])

    rec = env.do(http.MethodGet, "/auth/me", "", "not-a-jwt")
    require.Equal(t, http.StatusUnauthorized, rec.Code)
    require.Equal(t, "Invalid or expired token", decode(t, rec)["message"])
}

func TestAuth_LogoutClearsCookie(t *testing.T) {
    env := newEnv(t, false)
    rec := env.do(http.MethodPost, "/auth/logout", "", "")
    require.Equal(t, http.StatusOK, rec.Code)
    ck := cookieNamed(rec, "token")
    require.NotNil(t, ck)
    require.Empty(t, ck.Value)
    require.Less(t, ck.MaxAge, 0)
}

func TestAuth_PasswordResetFlow(t *testing.T) {
    env := newEnv(t, false)
    require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/auth/register", `{"email":"r@example.com","password":"old-pass"}`, "").Code)

    known := env.do(http.MethodPost, "/auth/forgot-password", `{"email":"r@example.com"}`, "")
    unknown := env.do(http.MethodPost, "/auth/forgot-password", `{"email":"ghost@example.com"}`, "")
    require.Equal(t, http.StatusOK, known.Code)
    require.Equal(t, known.Code, unknown.Code)
    require.Equal(t, known.Body.Bytes(), unknown.Body.Bytes())

    env.reset.Wait()
    notice, ok := env.notifier.Last()
    require.True(t, ok)
    require.Len(t, env.notifier.Notices, 1)
    secret := strings.TrimPrefix(notice.ResetURL, testClientURL+"/reset-password/")
    require.NotEqual(t, notice.ResetURL, secret)

    rec := env.do(http.MethodPost, "/auth/reset-password/"+secret, `{"password":"abc"}`, "")
    require.Equal(t, http.StatusBadRequest, rec.Code)

    rec = env.do(http.MethodPost, "/auth/reset-password/"+secret, `{"password":"new-pass"}`, "")
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

    rec = env.do(http.MethodPost, "/auth/reset-password/"+secret, `{"password":"newer-pass"}`, "")
    require.Equal(t, http.StatusBadRequest, rec.Code)
    require.Equal(t, "Token invalid or expired", decode(t, rec)["message"])

    require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/auth/login", `{"email":"r@example.com","password":"new-pass"}`, "").Code)
}

func TestAuth_OverlongPasswordIsValidation(t *testing.T) {
    env := newEnv(t, false)
    long := strings.Repeat("p", 80)

    rec := env.do(http.MethodPost, "/auth/register", `{"email":"long@example.com","password":"`+long+`"}`, "")
    require.Equal(t, http.StatusBadRequest, rec.Code)
    require.Equal(t, "Password must be at most 72 bytes", decode(t, rec)["message"])

    require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/auth/register", `{"email":"long@example.com","password":"short-pass"}`, "").Code)
    rec = env.do(http.MethodPost, "/auth/reset-password/anything", `{"password":"`+long+`"}`, "")
    require.Equal(t, http.StatusBadRequest, rec.Code)
    require.Equal(t, "Password must be at most 72 bytes", decode(t, rec)["message"])
}

func TestAdmin_LoginAndRegister(t *testing.T) {
    env := newEnv(t, false)
    require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/auth/register", `{"email":"u@example.com","password":"user-pass"}`, "").Code)

    // a plain user cannot use the admin login
    rec := env.do(http.MethodPost, "/admin/login", `{"email":"u@example.com","password":"user-pass"}`, "")
    require.Equal(t, http.StatusUnauthorized, rec.Code)

    adminTok := env.adminToken(t)
    rec = env.do(http.MethodPost, "/admin/login", `{"email":"root@example.com","password":"secret-pw"}`, "")
    require.Equal(t, http.StatusOK, rec.Code)

    rec = env.do(http.MethodPost, "/admin/register", `{"email":"second@example.com","password":"admin-pass"}`, adminTok)
    require.Equal(t, http.StatusCreated, rec.Code)
    require.Equal(t, "admin", decode(t, rec)["user"].(map[string]interface{})["role"])

    userTok := decode(t, env.do(http.MethodPost, "/auth/login", `{"email":"u@example.com","password":"user-pass"}`, ""))["token"].(string)
    rec = env.do(http.MethodPost, "/admin/register", `{"email":"third@example.com","password":"admin-pass"}`, userTok)
    require.Equal(t, http.StatusForbidden, rec.Code)
    require.Equal(t, "Forbidden", decode(t, rec)["message"])
}

func TestErrorHandler(t *testing.T) {
    dev := newEnv(t, false)
    rec := dev.do(http.MethodGet, "/nope", "", "")
    require.Equal(t, http.StatusNotFound, rec.Code)
    require.Equal(t, "Route not found", decode(t, rec)["message"])

    rec = dev.do(http.MethodGet, "/boom", "", "")
    require.Equal(t, http.StatusInternalServerError, rec.Code)
    body := decode(t, rec)
    require.Equal(t, "Server error", body["message"])
    require.Equal(t, "dial tcp: refused", body["detail"])

    prod := newEnv(t, true)
    body = decode(t, prod.do(http.MethodGet, "/boom", "", ""))
    require.Equal(t, "Server error", body["message"])
    require.NotContains(t, body, "detail")
}

// pngBytes is a minimal PNG signature followed by padding; enough for
// content sniffing.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
    t.Helper()
    var buf bytes.Buffer
    w := multipart.NewWriter(&buf)
    for k, v := range fields {
        require.NoError(t, w.WriteField(k, v))
    }
    for k, data := range files {
        fw, err := w.CreateFormFile(k, k+".bin")
        require.NoError(t, err)
        _, err = fw.Write(data)
        require.NoError(t, err)
    }
    require.NoError(t, w.Close())
    return &buf, w.FormDataContentType()
}

func (env *testEnv) upload(t *testing.T, method, path, token string, fields map[string]string, files map[string][]byte) *httptest.ResponseRecorder {
    t.Helper()
    body, ctype := multipartBody(t, fields, files)
    r := httptest.NewRequest(method, path, body)
    r.Header.Set(echo.HeaderContentType, ctype)
    r.Header.Set("Authorization", "Bearer "+token)
    rec := httptest.NewRecorder()
    env.e.ServeHTTP(rec, r)
    return rec
}

func TestMovies_EmptyCatalogPage(t *testing.T) {
    env := newEnv(t, false)
    rec := env.do(http.MethodGet, "/movies?page=0&limit=abc", "", "")
    require.Equal(t, http.StatusOK, rec.Code)
    body := decode(t, rec)
    require.Equal(t, []interface{}{}, body["items"])
    require.EqualValues(t, 0, body["total"])
    require.EqualValues(t, 1, body["page"])
    require.EqualValues(t, 20, body["limit"])
    require.EqualValues(t, 1, body["pageCount"])

    rec = env.do(http.MethodGet, "/movies?type=anime", "", "")
    require.Equal(t, http.StatusBadRequest, rec.Code)
    require.Equal(t, "Invalid type", decode(t, rec)["message"])
}

func TestMovies_CreateUpdateDelete(t *testing.T) {
    env := newEnv(t, false)
    admin := env.adminToken(t)

    rec := env.upload(t, http.MethodPost, "/movies", admin, map[string]string{
        "name": "Dune", "description": "Sand", "type": "hollywood-movies", "genre": "sci-fi",
        "movieLink": "https://play/dune",
    }, map[string][]byte{"mainPoster": pngBytes})
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    created := decode(t, rec)
    require.Equal(t, "1", created["id"])
    require.Equal(t, "Active", created["status"])
    require.Len(t, env.images.Files, 1)

    rec = env.do(http.MethodGet, "/movies/categories", "", "")
    require.Equal(t, http.StatusOK, rec.Code)
    require.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))
    data := decode(t, rec)["data"].(map[string]interface{})
    holly := data["hollywood"].([]interface{})
    require.Len(t, holly, 1)
    card := holly[0].(map[string]interface{})
    require.Equal(t, "Dune", card["title"])
    require.Equal(t, "hollywood", card["category"])
    require.Equal(t, card["mainPoster"], card["backgroundPoster"])
    require.Equal(t, card["mainPoster"], card["mobilePoster"])
    require.Equal(t, []interface{}{}, data["webSeries"])

    rec = env.upload(t, http.MethodPut, "/movies/1", admin, map[string]string{"status": "Inactive"},
        map[string][]byte{"mainPoster": pngBytes})
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    require.Equal(t, "Inactive", decode(t, rec)["status"])
    require.Len(t, env.images.Deleted, 1)

    // inactive items leave the default slider
    rec = env.do(http.MethodGet, "/movies/latest", "", "")
    require.EqualValues(t, 0, decode(t, rec)["meta"].(map[string]interface{})["count"])
    rec = env.do(http.MethodGet, "/movies/latest?status=", "", "")
    require.EqualValues(t, 1, decode(t, rec)["meta"].(map[string]interface{})["count"])

    rec = env.do(http.MethodDelete, "/movies/1", "", admin)
    require.Equal(t, http.StatusOK, rec.Code)
    require.Empty(t, env.images.Files)

    rec = env.do(http.MethodGet, "/movies/1", "", "")
    require.Equal(t, http.StatusNotFound, rec.Code)
    require.Equal(t, "Not found", decode(t, rec)["message"])
}

func TestMovies_RejectsBadUploads(t *testing.T) {
    env := newEnv(t, false)
    admin := env.adminToken(t)
    fields := map[string]string{"name": "S", "description": "d", "type": "web-series", "genre": "drama"}

    bad := map[string]string{"episodes": "[not json"}
    for k, v := range fields {
        bad[k] = v
    }
    rec := env.upload(t, http.MethodPost, "/movies", admin, bad, nil)
    require.Equal(t, http.StatusBadRequest, rec.Code)
    require.Equal(t, "Invalid episodes JSON", decode(t, rec)["message"])

    rec = env.upload(t, http.MethodPost, "/movies", admin, fields, map[string][]byte{"mainPoster": []byte("plain text, not an image")})
    require.Equal(t, http.StatusBadRequest, rec.Code)
    require.Equal(t, "Only image files are allowed", decode(t, rec)["message"])
    require.Empty(t, env.images.Files)

    rec = env.upload(t, http.MethodPost, "/movies", admin, map[string]string{"name": "x"}, nil)
    require.Equal(t, http.StatusBadRequest, rec.Code)
    require.Equal(t, "Missing required fields", decode(t, rec)["message"])
}

func TestMovies_WritesRequireAdmin(t *testing.T) {
    env := newEnv(t, false)
    rec := env.do(http.MethodDelete, "/movies/1", "", "")
    require.Equal(t, http.StatusUnauthorized, rec.Code)

    userTok := decode(t, env.do(http.MethodPost, "/auth/register", `{"email":"v@example.com","password":"viewer-pw"}`, ""))["token"].(string)
    rec = env.do(http.MethodDelete, "/movies/1", "", userTok)
    require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestFavorites(t *testing.T) {
    env := newEnv(t, false)
    m := model.Movie{Name: "Pathaan", Category: model.CategoryBollywood, Genre: "action", Status: model.StatusActive}
    require.NoError(t, env.movies.Create(context.Background(), &m))
    tok := decode(t, env.do(http.MethodPost, "/auth/register", `{"email":"f@example.com","password":"fav-pass"}`, ""))["token"].(string)

    rec := env.do(http.MethodGet, "/favorites/ids", "", tok)
    require.Equal(t, http.StatusOK, rec.Code)
    require.JSONEq(t, `{"data":[]}`, rec.Body.String())

    for i := 0; i < 2; i++ {
        rec = env.do(http.MethodPost, "/favorites/1", "", tok)
        require.Equal(t, http.StatusCreated, rec.Code)
    }
    require.Equal(t, 1, env.favs.Count())
    require.Equal(t, "Already in favorites", decode(t, rec)["message"])

    rec = env.do(http.MethodGet, "/favorites/ids", "", tok)
    require.JSONEq(t, `{"data":["1"]}`, rec.Body.String())

    rec = env.do(http.MethodGet, "/favorites", "", tok)
    body := decode(t, rec)
    require.EqualValues(t, 1, body["meta"].(map[string]interface{})["count"])
    require.Equal(t, "bollywood", body["data"].([]interface{})[0].(map[string]interface{})["category"])

    rec = env.do(http.MethodPost, "/favorites/99", "", tok)
    require.Equal(t, http.StatusNotFound, rec.Code)
    require.Equal(t, "Movie not found", decode(t, rec)["message"])

    rec = env.do(http.MethodPost, "/favorites/abc", "", tok)
    require.Equal(t, http.StatusBadRequest, rec.Code)
    require.Equal(t, "Invalid movieId", decode(t, rec)["message"])

    require.Equal(t, http.StatusOK, env.do(http.MethodDelete, "/favorites/42", "", tok).Code)
    require.Equal(t, http.StatusOK, env.do(http.MethodDelete, "/favorites/1", "", tok).Code)
    require.Equal(t, 0, env.favs.Count())

    require.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/favorites", "", "").Code)
}

func TestUsers_AdminListing(t *testing.T) {
    env := newEnv(t, false)
    admin := env.adminToken(t)
    for _, email := range []string{"a1@example.com", "a2@example.com", "zed@example.com"} {
        require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/auth/register", `{"email":"`+email+`","password":"pw-123456"}`, "").Code)
    }

    rec := env.do(http.MethodGet, "/users?q=a&role=user&limit=2", "", admin)
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    body := decode(t, rec)
    require.EqualValues(t, 2, body["limit"])
    require.Len(t, body["items"], 2)

    rec = env.do(http.MethodGet, "/users/recent?limit=2", "", admin)
    require.Equal(t, http.StatusOK, rec.Code)
    require.EqualValues(t, 2, decode(t, rec)["total"])

    rec = env.do(http.MethodGet, "/users?role=owner", "", admin)
    require.Equal(t, http.StatusBadRequest, rec.Code)
}
