// Command catalogctl is a command-line client for the streaming catalog API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/iliyamo/streaming-catalog/internal/client"
)

func usage() {
	fmt.Fprintf(os.Stderr, `catalogctl
Usage:
  catalogctl [-api URL] [-session FILE] <cmd> [args]

Commands:
  register  -e <email> -p <password> [-first <name>] [-last <name>]
  login     -e <email> -p <password> [-remember]      (saves token)
  logout
  me
  forgot    -e <email>
  reset     -token <secret> -p <password>
  movies    [-q text] [-type category] [-page n] [-limit n] [-sort field]
  movie     -id <id>
  favs                                                  (detailed list)
  fav-ids
  toggle    -id <id>
`)
	os.Exit(2)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func main() {
	api := flag.String("api", envOr("CATALOG_API", "http://localhost:5000/api"), "API base URL")
	sessionPath := flag.String("session", "", "token file (default: user config dir)")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
	}

	path := *sessionPath
	if path == "" {
		p, err := client.DefaultSessionPath()
		if err != nil {
			fail(err)
		}
		path = p
	}
	c := client.New(*api, client.NewFileSession(path), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, c, flag.Arg(0), flag.Args()[1:], os.Stdout); err != nil {
		fail(err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// run executes one subcommand.  Output goes to w.
func run(ctx context.Context, c *client.Client, cmd string, args []string, w io.Writer) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	email := fs.String("e", "", "email")
	password := fs.String("p", "", "password")

	switch cmd {
	case "register":
		first := fs.String("first", "", "first name")
		last := fs.String("last", "", "last name")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *email == "" || *password == "" {
			return errors.New("need -e and -p")
		}
		u, err := c.Register(ctx, client.RegisterRequest{FirstName: *first, LastName: *last, Email: *email, Password: *password})
		if err != nil {
			return err
		}
		printJSON(w, u)

	case "login":
		remember := fs.Bool("remember", false, "long-lived session")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *email == "" || *password == "" {
			return errors.New("need -e and -p")
		}
		if _, err := c.Login(ctx, *email, *password, *remember); err != nil {
			return err
		}
		fmt.Fprintln(w, "ok")

	case "logout":
		if err := c.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(w, "ok")

	case "me":
		u, err := c.Me(ctx)
		if err != nil {
			return err
		}
		printJSON(w, u)

	case "forgot":
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *email == "" {
			return errors.New("need -e")
		}
		msg, err := c.ForgotPassword(ctx, *email)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, msg)

	case "reset":
		token := fs.String("token", "", "secret from the reset link")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *token == "" || *password == "" {
			return errors.New("need -token and -p")
		}
		if err := c.ResetPassword(ctx, *token, *password); err != nil {
			return err
		}
		fmt.Fprintln(w, "ok")

	case "movies":
		var q client.MovieQuery
		fs.StringVar(&q.Q, "q", "", "name contains")
		fs.StringVar(&q.Type, "type", "", "category")
		fs.StringVar(&q.Status, "status", "", "Active or Inactive")
		fs.IntVar(&q.Page, "page", 0, "page")
		fs.IntVar(&q.Limit, "limit", 0, "page size")
		fs.StringVar(&q.Sort, "sort", "", "sort field, - prefix for descending")
		if err := fs.Parse(args); err != nil {
			return err
		}
		page, err := c.Movies(ctx, q)
		if err != nil {
			return err
		}
		printJSON(w, page)

	case "movie":
		id := fs.String("id", "", "movie id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		m, err := c.Movie(ctx, *id)
		if err != nil {
			return err
		}
		printJSON(w, m)

	case "favs":
		cards, err := c.Favorites(ctx)
		if err != nil {
			return err
		}
		printJSON(w, cards)

	case "fav-ids":
		ids, err := c.FavoriteIDs(ctx)
		if err != nil {
			return err
		}
		printJSON(w, ids)

	case "toggle":
		id := fs.String("id", "", "movie id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id == "" {
			return errors.New("need -id")
		}
		ids, err := c.FavoriteIDs(ctx)
		if err != nil {
			return err
		}
		on, err := client.NewFavoriteToggler(c, client.NewFavoriteSet(ids...)).Toggle(ctx, *id)
		if err != nil {
			return err
		}
		if on {
			fmt.Fprintln(w, "added")
		} else {
			fmt.Fprintln(w, "removed")
		}

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}
