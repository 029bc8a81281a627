// ABOUTME: CLI command to rate a previous answer
// ABOUTME: Stores a 1-5 rating and optional comment against a logged request
package commands

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harper/retail-nlp/internal/models"
)

var (
	feedbackComment string
)

// NewFeedbackCmd creates the feedback command
func NewFeedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback [request-id] [rating]",
		Short: "Rate a previous answer from 1 to 5",
		Long: `Rate a previous answer from 1 (poor) to 5 (excellent).

The request ID is printed by 'retail ask --verbose' and listed by
'retail logs list'.`,
		Example: `  retail feedback 0b6f3d2e-7c1a-4c0f-9a57-2f1b5e8d9c41 4 --comment "spot on"`,
		Args:    cobra.ExactArgs(2),
		RunE:    runFeedback,
	}

	cmd.Flags().StringVarP(&feedbackComment, "comment", "c", "", "Optional comment (max 1000 characters)")

	return cmd
}

func runFeedback(cmd *cobra.Command, args []string) error {
	queryID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid request id: %w", err)
	}
	rating, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("rating must be a whole number from 1 to 5, got %q", args[1])
	}

	fb := &models.Feedback{QueryID: queryID, Rating: rating, Comment: feedbackComment}
	if err := fb.Validate(); err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Feedback.Save(cmd.Context(), fb); err != nil {
		return fmt.Errorf("saving feedback: %w", err)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Feedback saved (%s)\n", fb.ID)
	}
	return nil
}
