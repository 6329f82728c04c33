package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"bookshelf/internal/book"
	"bookshelf/internal/client"
	"bookshelf/internal/shelf"
)

const defaultAPIURL = "http://localhost:8080/api/v1"

func newApp() *cli.App {
	return &cli.App{
		Name:  "shelf",
		Usage: "track the books you read",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api-url", Value: defaultAPIURL, EnvVars: []string{"SHELF_API_URL"}, Usage: "API base URL"},
			&cli.StringFlag{Name: "token", EnvVars: []string{"SHELF_TOKEN"}, Usage: "bearer token"},
		},
		Commands: []*cli.Command{
			listCommand(),
			categoriesCommand(),
			addCommand(),
			editCommand(),
			rmCommand(),
			statsCommand(),
			recommendCommand(),
		},
	}
}

func apiClient(c *cli.Context) *client.Client {
	return client.New(c.String("api-url"), client.WithToken(c.String("token")))
}

func newSession(c *cli.Context) *client.Session {
	return client.NewSession(apiClient(c), shelf.New())
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "show your books",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "match title or author"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "exact category"},
			&cli.StringFlag{Name: "status", Usage: "to-read, reading or finished"},
			&cli.StringFlag{Name: "view", Value: string(shelf.ViewList), Usage: "grid or list"},
		},
		Action: func(c *cli.Context) error {
			sess := newSession(c)
			if err := sess.Sync(c.Context); err != nil {
				return err
			}
			st := sess.Store()
			st.SetSearchQuery(c.String("search"))
			st.SetCategoryFilter(c.String("category"))
			if s := c.String("status"); s != "" {
				status, err := book.ParseStatus(s)
				if err != nil {
					return err
				}
				st.SetStatusFilter(status)
			}
			view, ok := shelf.ParseViewMode(c.String("view"))
			if !ok {
				return fmt.Errorf("unknown view %q", c.String("view"))
			}
			st.SetViewMode(view)
			return renderBooks(c.App.Writer, st)
		},
	}
}

func categoriesCommand() *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "list the categories in use",
		Action: func(c *cli.Context) error {
			sess := newSession(c)
			if err := sess.Sync(c.Context); err != nil {
				return err
			}
			for _, cat := range sess.Store().Categories() {
				fmt.Fprintln(c.App.Writer, cat)
			}
			return nil
		},
	}
}

func bookFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Required: required},
		&cli.StringFlag{Name: "author", Required: required},
		&cli.StringFlag{Name: "category", Required: required},
		&cli.StringFlag{Name: "status", Usage: "to-read, reading or finished"},
		&cli.IntFlag{Name: "progress", Usage: "percentage read, 0-100"},
		&cli.StringFlag{Name: "cover-url"},
		&cli.StringFlag{Name: "started", Usage: "YYYY-MM-DD"},
		&cli.StringFlag{Name: "finished", Usage: "YYYY-MM-DD"},
		&cli.StringFlag{Name: "notes"},
	}
}

func optionalString(c *cli.Context, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	v := c.String(name)
	return &v
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "add a book",
		Flags: bookFlags(true),
		Action: func(c *cli.Context) error {
			d := book.Draft{
				Title:              c.String("title"),
				Author:             c.String("author"),
				Category:           c.String("category"),
				ReadingStatus:      book.StatusToRead,
				ProgressPercentage: c.Int("progress"),
				CoverURL:           optionalString(c, "cover-url"),
				DateStarted:        optionalString(c, "started"),
				DateFinished:       optionalString(c, "finished"),
				ReadingNotes:       optionalString(c, "notes"),
			}
			if s := c.String("status"); s != "" {
				status, err := book.ParseStatus(s)
				if err != nil {
					return err
				}
				d.ReadingStatus = status
			}
			b, err := newSession(c).Add(c.Context, d)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(c.App.Writer, "Added %q (%s)\n", b.Title, b.ID)
			return nil
		},
	}
}

func editCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "change fields of a book",
		ArgsUsage: "<id>",
		Flags:     bookFlags(false),
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return errors.New("book id is required")
			}
			p := book.Patch{
				Title:        optionalString(c, "title"),
				Author:       optionalString(c, "author"),
				Category:     optionalString(c, "category"),
				CoverURL:     optionalString(c, "cover-url"),
				DateStarted:  optionalString(c, "started"),
				DateFinished: optionalString(c, "finished"),
				ReadingNotes: optionalString(c, "notes"),
			}
			if c.IsSet("status") {
				status, err := book.ParseStatus(c.String("status"))
				if err != nil {
					return err
				}
				p.ReadingStatus = &status
			}
			if c.IsSet("progress") {
				n := c.Int("progress")
				p.ProgressPercentage = &n
			}
			if p.IsEmpty() {
				return errors.New("nothing to change")
			}
			b, err := newSession(c).Edit(c.Context, id, p)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(c.App.Writer, "Updated %q: %s, %d%%\n", b.Title, b.ReadingStatus, b.ProgressPercentage)
			return nil
		},
	}
}

func rmCommand() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "delete a book",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return errors.New("book id is required")
			}
			if err := newSession(c).Delete(c.Context, id); err != nil {
				return describe(err)
			}
			fmt.Fprintln(c.App.Writer, "Book deleted")
			return nil
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "summarise your reading",
		Action: func(c *cli.Context) error {
			s, err := apiClient(c).Stats(c.Context)
			if err != nil {
				return err
			}
			return renderStats(c.App.Writer, s)
		},
	}
}

func recommendCommand() *cli.Command {
	return &cli.Command{
		Name:  "recommend",
		Usage: "suggest what to read next",
		Action: func(c *cli.Context) error {
			res, err := apiClient(c).Recommend(c.Context)
			if err != nil {
				return err
			}
			return renderSuggestions(c.App.Writer, res)
		},
	}
}

// describe turns API errors into messages a reader can act on.
func describe(err error) error {
	var verr *book.ValidationError
	switch {
	case errors.As(err, &verr):
		msgs := make([]string, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			msgs = append(msgs, f.Message)
		}
		return fmt.Errorf("rejected: %s", strings.Join(msgs, "; "))
	case errors.Is(err, book.ErrNotFound):
		return errors.New("no book with that id")
	default:
		return err
	}
}
