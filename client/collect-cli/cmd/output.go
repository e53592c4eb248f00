package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/models"
)

func printListView(w io.Writer, v models.ListView) {
	if v.Err != "" {
		fmt.Fprintf(w, "Error: %s\n", v.Err)
	}
	if v.Empty() {
		fmt.Fprintln(w, "No collected items.")
	} else {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTATUS\tPLATFORM\tCREATED\tTITLE")
		for _, item := range v.Items {
			title := item.Title
			if item.Status == models.ItemStatusFailed {
				title = item.Failure()
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", item.ID, item.Status, item.SourcePlatform, createdAt(item), title)
		}
		tw.Flush()
	}

	prev, next := "prev", "next"
	if v.PrevDisabled() {
		prev = "-"
	}
	if v.NextDisabled() {
		next = "-"
	}
	fmt.Fprintf(w, "Page %d of %d (%d items)  [%s|%s]\n", v.Page, models.LastPage(v.Total, v.PageSize), v.Total, prev, next)
}

func printItem(w io.Writer, item *models.CollectionItem) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%d\n", item.ID)
	fmt.Fprintf(tw, "Status:\t%s\n", item.Status)
	if msg := item.Failure(); msg != "" {
		fmt.Fprintf(tw, "Error:\t%s\n", msg)
	}
	fmt.Fprintf(tw, "Title:\t%s\n", item.Title)
	fmt.Fprintf(tw, "Platform:\t%s\n", item.SourcePlatform)
	fmt.Fprintf(tw, "Tags:\t%s\n", strings.Join(item.Tags, ", "))
	fmt.Fprintf(tw, "Video:\t%s\n", item.VideoURL)
	fmt.Fprintf(tw, "Cover:\t%s\n", item.CoverURL)
	fmt.Fprintf(tw, "Created:\t%s\n", createdAt(*item))
	tw.Flush()
	if item.Script != "" {
		fmt.Fprintf(w, "\n%s\n", item.Script)
	}
}

func createdAt(item models.CollectionItem) string {
	if t, ok := item.Created(); ok {
		return t.Format("2006-01-02 15:04")
	}
	return item.CreatedAt
}
