// Package client is a Go client for the catalog API.  Credentials are read
// from a SessionStore on every request; nothing is baked into shared
// default headers.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == status
}

// Client talks to one API base URL, e.g. http://localhost:5000/api.
type Client struct {
	base    string
	http    *http.Client
	session SessionStore
}

func New(baseURL string, session SessionStore, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	if session == nil {
		session = NewMemorySession()
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: hc, session: session}
}

// Session exposes the store the client reads credentials from.
func (c *Client) Session() SessionStore { return c.session }

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.session.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &msg)
		if msg.Message == "" {
			msg.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg.Message}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// ----- wire types -----

type User struct {
	ID        uint64    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type sessionResp struct {
	User      User      `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Episode struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

type Image struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

type Movie struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Genre       string    `json:"genre"`
	TrailerLink string    `json:"trailerLink"`
	MovieLink   string    `json:"movieLink"`
	Episodes    []Episode `json:"episodes"`
	Posters     struct {
		Main       *Image `json:"main"`
		Background *Image `json:"background"`
		Mobile     *Image `json:"mobile"`
	} `json:"posters"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Card struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	MainPoster       string `json:"mainPoster"`
	BackgroundPoster string `json:"backgroundPoster"`
	MobilePoster     string `json:"mobilePoster"`
	Genre            string `json:"genre"`
	Category         string `json:"category"`
	MovieLink        string `json:"movieLink"`
	TrailerLink      string `json:"trailerLink"`
}

type MoviePage struct {
	Items     []Movie `json:"items"`
	Total     int64   `json:"total"`
	Page      int     `json:"page"`
	Limit     int     `json:"limit"`
	PageCount int     `json:"pageCount"`
}

// MovieQuery mirrors the list endpoint's query parameters.  Zero values
// are omitted.
type MovieQuery struct {
	Q      string
	Type   string
	Status string
	Page   int
	Limit  int
	Sort   string
}

func (q MovieQuery) encode() string {
	v := url.Values{}
	set := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	set("q", q.Q)
	set("type", q.Type)
	set("status", q.Status)
	set("sort", q.Sort)
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// ----- auth -----

type RegisterRequest struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Register creates an account and stores the returned session.
func (c *Client) Register(ctx context.Context, in RegisterRequest) (User, error) {
	var out sessionResp
	if err := c.do(ctx, http.MethodPost, "/auth/register", in, &out); err != nil {
		return User{}, err
	}
	return out.User, c.session.Save(out.Token, out.ExpiresAt)
}

// Login stores the returned session.
func (c *Client) Login(ctx context.Context, email, password string, rememberMe bool) (User, error) {
	in := map[string]interface{}{"email": email, "password": password, "rememberMe": rememberMe}
	var out sessionResp
	if err := c.do(ctx, http.MethodPost, "/auth/login", in, &out); err != nil {
		return User{}, err
	}
	return out.User, c.session.Save(out.Token, out.ExpiresAt)
}

// Logout tells the server and forgets the local session even if the call
// fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	if cerr := c.session.Clear(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func (c *Client) Me(ctx context.Context) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out)
	return out.User, err
}

// ForgotPassword returns the server's generic message.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, &out)
	return out.Message, err
}

func (c *Client) ResetPassword(ctx context.Context, secret, password string) error {
	return c.do(ctx, http.MethodPost, "/auth/reset-password/"+url.PathEscape(secret),
		map[string]string{"password": password}, nil)
}

// ----- catalog -----

func (c *Client) Movies(ctx context.Context, q MovieQuery) (MoviePage, error) {
	var out MoviePage
	err := c.do(ctx, http.MethodGet, "/movies"+q.encode(), nil, &out)
	return out, err
}

func (c *Client) Movie(ctx context.Context, id string) (Movie, error) {
	var out Movie
	err := c.do(ctx, http.MethodGet, "/movies/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) Latest(ctx context.Context, limit int) ([]Card, error) {
	var out struct {
		Data []Card `json:"data"`
	}
	err := c.do(ctx, http.MethodGet, "/movies/latest?limit="+strconv.Itoa(limit), nil, &out)
	return out.Data, err
}

// ----- favorites -----

func (c *Client) FavoriteIDs(ctx context.Context) ([]string, error) {
	var out struct {
		Data []string `json:"data"`
	}
	err := c.do(ctx, http.MethodGet, "/favorites/ids", nil, &out)
	return out.Data, err
}

func (c *Client) Favorites(ctx context.Context) ([]Card, error) {
	var out struct {
		Data []Card `json:"data"`
	}
	err := c.do(ctx, http.MethodGet, "/favorites", nil, &out)
	return out.Data, err
}

func (c *Client) AddFavorite(ctx context.Context, movieID string) error {
	return c.do(ctx, http.MethodPost, "/favorites/"+url.PathEscape(movieID), nil, nil)
}

func (c *Client) RemoveFavorite(ctx context.Context, movieID string) error {
	return c.do(ctx, http.MethodDelete, "/favorites/"+url.PathEscape(movieID), nil, nil)
}
