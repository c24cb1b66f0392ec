package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (c *cli) sitesCmd() *cobra.Command {
	sites := &cobra.Command{
		Use:   "sites",
		Short: "Manage tracked sites",
	}

	sites.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List sites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			list, err := c.app.Sites.ListSites(ctx)
			if err != nil {
				return err
			}
			activeID := ""
			if active, err := c.app.Sites.ActiveSite(ctx); err == nil {
				activeID = active.ID
			}
			tw := tabwriter.NewWriter(out(cmd), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ACTIVE\tID\tNAME\tHOST\tURLS")
			for _, s := range list {
				marker := ""
				if s.ID == activeID {
					marker = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", marker, s.ID, s.Name, s.Settings.Host, len(s.URLs))
			}
			return tw.Flush()
		},
	})

	sites.AddCommand(&cobra.Command{
		Use:   "create NAME",
		Short: "Create a site and make it active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			site, err := c.app.Sites.CreateSite(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c.log.Info("site created", zap.String("id", site.ID), zap.String("name", site.Name))
			fmt.Fprintln(out(cmd), site.ID)
			return nil
		},
	})

	sites.AddCommand(&cobra.Command{
		Use:   "delete ID",
		Short: "Delete a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Sites.DeleteSite(cmd.Context(), args[0]); err != nil {
				return err
			}
			c.log.Info("site deleted", zap.String("id", args[0]))
			return nil
		},
	})

	sites.AddCommand(&cobra.Command{
		Use:   "select ID",
		Short: "Make a site the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Sites.SelectSite(cmd.Context(), args[0])
		},
	})

	sites.AddCommand(&cobra.Command{
		Use:   "rename ID NAME",
		Short: "Rename a site",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := c.app.Sites.RenameSite(cmd.Context(), args[0], args[1])
			return err
		},
	})

	return sites
}
