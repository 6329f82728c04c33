package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"bookshelf/internal/book"
	"bookshelf/internal/recommend"
	"bookshelf/internal/shelf"
)

func renderBooks(w io.Writer, st *shelf.Store) error {
	books := st.FilteredBooks()
	if len(books) == 0 {
		if st.Filters().Active() {
			_, err := fmt.Fprintln(w, "No books match these filters.")
			return err
		}
		_, err := fmt.Fprintln(w, "Your shelf is empty. Add a book with `shelf add`.")
		return err
	}

	if st.ViewMode() == shelf.ViewGrid {
		for _, b := range books {
			fmt.Fprintf(w, "┌ %s\n│ %s · %s\n└ %s\n", b.Title, b.Author, b.Category, progress(b))
		}
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tCATEGORY\tSTATUS")
		for _, b := range books {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", b.ID, b.Title, b.Author, b.Category, progress(b))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d of %d books\n", len(books), st.Len())
	return err
}

func progress(b book.Book) string {
	if b.ReadingStatus == book.StatusReading {
		return fmt.Sprintf("reading %d%%", b.ProgressPercentage)
	}
	return string(b.ReadingStatus)
}

func renderStats(w io.Writer, s book.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Books\t%d\n", s.Total)
	fmt.Fprintf(tw, "To read\t%d\n", s.ToRead)
	fmt.Fprintf(tw, "Reading\t%d\n", s.Reading)
	fmt.Fprintf(tw, "Finished\t%d\n", s.Finished)
	fmt.Fprintf(tw, "Finished this year\t%d\n", s.FinishedThisYear)
	fmt.Fprintf(tw, "Average progress\t%.0f%%\n", s.AverageProgress)
	if s.LastFinished != nil {
		fmt.Fprintf(tw, "Last finished\t%s by %s\n", s.LastFinished.Title, s.LastFinished.Author)
	}
	if len(s.Categories) > 0 {
		parts := make([]string, len(s.Categories))
		for i, c := range s.Categories {
			parts[i] = fmt.Sprintf("%s (%d)", c.Category, c.Count)
		}
		fmt.Fprintf(tw, "Categories\t%s\n", strings.Join(parts, ", "))
	}
	return tw.Flush()
}

func renderSuggestions(w io.Writer, res recommend.Result) error {
	if res.Genre != "" {
		fmt.Fprintf(w, "Because you read a lot of %s:\n", res.Genre)
	}
	for i, s := range res.Suggestions {
		fmt.Fprintf(w, "%d. %s by %s (%d/10)\n", i+1, s.Title, s.Author, s.Confidence)
		if s.Reason != "" {
			fmt.Fprintf(w, "   %s\n", s.Reason)
		}
	}
	_, err := fmt.Fprintf(w, "source: %s\n", res.Source)
	return err
}
