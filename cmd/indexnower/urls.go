package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/indexnow-service/internal/entity"
	"github.com/user/indexnow-service/pkg/utils"
)

func (c *cli) urlsCmd() *cobra.Command {
	urls := &cobra.Command{
		Use:   "urls",
		Short: "Manage the tracked URLs of a site",
	}

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List tracked URLs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter entity.Status
			if status != "" {
				parsed, err := entity.ParseStatus(status)
				if err != nil {
					return err
				}
				filter = parsed
			}
			entries, err := c.app.Sites.URLEntries(cmd.Context(), c.siteID)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out(cmd), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STATUS\tURL\tLAST SUBMITTED")
			for _, e := range entries {
				if filter != entity.StatusUnknown && e.Status != filter {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Status, e.URL, formatTime(e.LastSubmitted))
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&status, "status", "", "only show entries with this status (pending, submitted, changed, error)")
	urls.AddCommand(list)

	var file, sitemapURL string
	add := &cobra.Command{
		Use:   "add [URL...]",
		Short: "Add URLs and check their content",
		Long: "Add URLs given as arguments, read one per line from --file (- for stdin), " +
			"or taken from a sitemap, then fetch and fingerprint each of them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var entries []entity.URLEntry
			var err error

			switch {
			case sitemapURL != "":
				if len(args) > 0 || file != "" {
					return errors.New("--sitemap cannot be combined with URL arguments or --file")
				}
				entries, err = c.app.Reconciler.ReconcileSitemap(ctx, c.siteID, sitemapURL)
			default:
				candidates := args
				if file != "" {
					text, readErr := readInput(cmd, file)
					if readErr != nil {
						return readErr
					}
					candidates = append(candidates, utils.ExtractURLsFromText(text)...)
				}
				var discovered []entity.DiscoveredURL
				for _, u := range candidates {
					if !utils.IsValidURL(u) {
						c.log.Warn("skipping invalid URL", zap.String("url", u))
						continue
					}
					discovered = append(discovered, entity.DiscoveredURL{URL: u})
				}
				if len(discovered) == 0 {
					return errors.New("no valid URLs given")
				}
				entries, err = c.app.Reconciler.Reconcile(ctx, c.siteID, discovered)
			}
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(out(cmd), 0, 4, 2, ' ', 0)
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\n", e.Status, e.URL)
			}
			c.log.Info("urls checked", zap.Int("count", len(entries)))
			return tw.Flush()
		},
	}
	add.Flags().StringVar(&file, "file", "", "file with one URL per line, - for stdin")
	add.Flags().StringVar(&sitemapURL, "sitemap", "", "sitemap URL to take URLs from")
	urls.AddCommand(add)

	urls.AddCommand(&cobra.Command{
		Use:   "remove URL",
		Short: "Stop tracking a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Sites.RemoveURLEntry(cmd.Context(), c.siteID, args[0])
		},
	})

	urls.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all tracked URLs of a site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Sites.ClearHistory(cmd.Context(), c.siteID)
		},
	})

	return urls
}

func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		return string(b), err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(b), nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}
