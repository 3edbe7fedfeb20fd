package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/abcode/codelens/internal/queue"
	"github.com/spf13/cobra"
)

// NewPurgeCmd creates the purge command
func NewPurgeCmd() *cobra.Command {
	var userArg string
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Purge all stored data for a user",
		Long:  "Enqueue a purge job that deletes all analyses and chat history for a user. The deletion itself runs in the worker.",
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

			if !yes {
				fmt.Printf("This will delete all analyses and chat history for user %s. Continue? [y/N]: ", userID)
				reader := bufio.NewReader(os.Stdin)
				answer, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("failed to read confirmation: %w", err)
				}
				if strings.TrimSpace(strings.ToLower(answer)) != "y" {
					fmt.Println("Aborted")
					return nil
				}
			}

			job := queue.NewJob(queue.JobTypePurgeUser, userID, nil)
			if err := d.jobQueue.Enqueue(ctx, job); err != nil {
				return fmt.Errorf("failed to enqueue purge job: %w", err)
			}

			fmt.Printf("Enqueued purge job for user %s\n", userID)
			return nil
		},
	}

	cmd.Flags().StringVar(&userArg, "user", "", "User ID or email address (required)")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip confirmation prompt")

	return cmd
}
