package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (c *cli) submitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit [URL...]",
		Short: "Submit pending and changed URLs to IndexNow",
		Long:  "Submit all pending and changed URLs of the site, or only those among the given URLs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.app.Submitter.SubmitPending(cmd.Context(), c.siteID, args)
			if err != nil {
				return err
			}
			c.log.Info("submission finished",
				zap.Bool("success", result.Success),
				zap.Int("submitted", result.SubmittedCount),
			)
			fmt.Fprintln(out(cmd), result.Message)
			if !result.Success {
				return errors.New(result.Message)
			}
			return nil
		},
	}
}
