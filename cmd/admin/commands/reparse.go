package commands

import (
	"context"
	"fmt"

	"github.com/abcode/codelens/internal/database"
	"github.com/abcode/codelens/internal/queue"
	"github.com/spf13/cobra"
)

// NewReparseCmd creates the reparse command
func NewReparseCmd() *cobra.Command {
	var userArg string

	cmd := &cobra.Command{
		Use:   "reparse",
		Short: "Re-parse stored analyses for a user",
		Long:  "Enqueue a re-parse job for every stored analysis of a user. Workers re-run the response parser against the stored raw AI response and update the structured fields.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userArg == "" {
				return fmt.Errorf("required flag: --user (user ID or email)")
			}

			d, err := connect()
			if err != nil {
				return err
			}
			defer d.close()

			ctx := context.Background()

			userID, err := resolveUser(ctx, d.db, userArg)
			if err != nil {
				return err
			}

			analyses := database.NewAnalysisRepository(d.db)
			ids, err := analyses.ListIDsByUserID(ctx, userID)
			if err != nil {
				return fmt.Errorf("failed to list analyses: %w", err)
			}

			if len(ids) == 0 {
				fmt.Printf("No analyses found for user %s\n", userID)
				return nil
			}

			enqueued := 0
			for _, id := range ids {
				analysisID := id
				job := queue.NewJob(queue.JobTypeReparseAnalysis, userID, &analysisID)
				if err := d.jobQueue.Enqueue(ctx, job); err != nil {
					return fmt.Errorf("failed to enqueue reparse job for analysis %s: %w", analysisID, err)
				}
				enqueued++
			}

			fmt.Printf("Enqueued %d reparse jobs for user %s\n", enqueued, userID)
			return nil
		},
	}

	cmd.Flags().StringVar(&userArg, "user", "", "User ID or email address (required)")

	return cmd
}
