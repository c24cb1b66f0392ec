package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/indexnow-service/internal/usecase"
)

func (c *cli) settingsCmd() *cobra.Command {
	settings := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the IndexNow settings of a site",
	}

	settings.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.app.Sites.GetSettings(cmd.Context(), c.siteID)
			if err != nil {
				return err
			}
			w := out(cmd)
			fmt.Fprintf(w, "host:         %s\n", s.Host)
			fmt.Fprintf(w, "api key:      %s\n", s.APIKey)
			fmt.Fprintf(w, "key location: %s\n", s.ResolvedKeyLocation())
			return nil
		},
	})

	var apiKey, host, keyLocation string
	set := &cobra.Command{
		Use:   "set",
		Short: "Change settings; only the given flags are updated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch usecase.SettingsPatch
			if cmd.Flags().Changed("api-key") {
				patch.APIKey = &apiKey
			}
			if cmd.Flags().Changed("host") {
				patch.Host = &host
			}
			if cmd.Flags().Changed("key-location") {
				patch.KeyLocation = &keyLocation
			}
			_, err := c.app.Sites.UpdateSettings(cmd.Context(), c.siteID, patch)
			return err
		},
	}
	set.Flags().StringVar(&apiKey, "api-key", "", "IndexNow API key")
	set.Flags().StringVar(&host, "host", "", "site host, e.g. example.com")
	set.Flags().StringVar(&keyLocation, "key-location", "", "key file URL (default https://{host}/{api-key}.txt)")
	settings.AddCommand(set)

	return settings
}
