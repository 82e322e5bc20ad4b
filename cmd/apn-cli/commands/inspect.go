package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/cvdnnn/clark-county-apn-scraper/lib/htmlutil"
	"github.com/cvdnnn/clark-county-apn-scraper/lib/serviceutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

// the webforms state fields a search postback needs, when one goes
// missing the county has changed something
var webformsFields = []string{"__VIEWSTATE", "__VIEWSTATEGENERATOR", "__EVENTVALIDATION"}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Fetches the parcel search page and prints the form state the county is serving.",
	Run: func(cmd *cobra.Command, args []string) {
		client := createClient(nil)
		defer client.Close()

		doc, err := client.FetchDetail(cmd.Context(), client.SearchURL())
		if err != nil {
			serviceutil.Fatal("failed to fetch search page", err)
		}

		fmt.Printf("title: %s\n", htmlutil.CleanText(doc.Find("title").Text()))

		doc.Find("form").Each(func(_ int, form *goquery.Selection) {
			fmt.Printf(
				"form id=%q method=%q action=%q\n",
				form.AttrOr("id", ""),
				form.AttrOr("method", ""),
				form.AttrOr("action", ""),
			)

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Input", "Type", "Value"})
			form.Find("input").Each(func(_ int, input *goquery.Selection) {
				value := htmlutil.CleanText(input.AttrOr("value", ""))
				if len(value) > 48 {
					value = value[:48] + "..."
				}
				t.AppendRow(table.Row{
					input.AttrOr("name", ""),
					input.AttrOr("type", ""),
					value,
				})
			})
			t.SetStyle(table.StyleRounded)
			t.Render()
		})

		for _, name := range webformsFields {
			if doc.Find(fmt.Sprintf("input[name='%s']", name)).Length() == 0 {
				slog.Warn("search page is missing a state field", "name", name)
			}
		}
	},
}
