// ABOUTME: CLI command to ask a retail analytics question
// ABOUTME: Runs one query through the full pipeline and prints the answer
package commands

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harper/retail-nlp/internal/models"
	"github.com/harper/retail-nlp/internal/pipeline"
)

var (
	askRole         string
	askConversation string
	askIntentHint   string
)

// NewAskCmd creates the ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a retail analytics question",
		Long: `Ask a question in plain language and get a guarded answer.

The answer includes the detected intent, the backend endpoint the
question maps to, and the knowledge base collections it drew on.

Examples:
  retail ask "How busy was branch A yesterday?"
  retail ask --role manager "Show overdue tasks for John"
  retail ask --offline --format json "Any promotions on snacks?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().StringVar(&askRole, "role", string(models.RoleAnalyst), "User role (manager, analyst, staff)")
	cmd.Flags().StringVar(&askConversation, "conversation", "", "Conversation ID to continue")
	cmd.Flags().StringVar(&askIntentHint, "intent-hint", "", "Optional intent hint")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	q, err := buildQuery(strings.Join(args, " "))
	if err != nil {
		return err
	}

	svc, _, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	out, err := svc.Orchestrator.Process(cmd.Context(), q)
	if err != nil {
		return err
	}

	if wantJSON() {
		return printOutcomeJSON(cmd, q, out)
	}
	printOutcome(cmd, q, out)
	return nil
}

func buildQuery(text string) (models.Query, error) {
	role, err := models.ParseUserRole(askRole)
	if err != nil {
		return models.Query{}, err
	}

	q := models.NewQuery(text, role)
	if askConversation != "" {
		id, err := uuid.Parse(askConversation)
		if err != nil {
			return models.Query{}, fmt.Errorf("invalid --conversation: %w", err)
		}
		q.ConversationID = id
	}
	if askIntentHint != "" {
		q.IntentHint = models.Intent(askIntentHint)
	}
	return q, q.Validate()
}

func printOutcome(cmd *cobra.Command, q models.Query, out *pipeline.Outcome) {
	w := cmd.OutOrStdout()
	res := out.Result

	fmt.Fprintln(w, res.ResponseText)
	if quiet {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Intent:     %s (confidence %.2f)\n", res.Intent, res.Confidence)
	if res.RoutedEndpoint != "" {
		fmt.Fprintf(w, "Endpoint:   %s\n", res.RoutedEndpoint)
	}
	if res.Blocked {
		fmt.Fprintf(w, "Blocked:    %s\n", res.BlockReason)
	}
	if len(res.Sources) > 0 {
		fmt.Fprintf(w, "Sources:    %s\n", strings.Join(res.Sources, ", "))
	}

	if verbose {
		names := make([]string, 0, len(res.Slots))
		for name := range res.Slots {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "Slot:       %s=%s\n", name, res.Slots[name])
		}
		fmt.Fprintf(w, "State:      %s\n", out.State)
		fmt.Fprintf(w, "Cached:     %t\n", out.Cached)
		fmt.Fprintf(w, "Latency:    %s\n", out.Latency)
		fmt.Fprintf(w, "Request:    %s\n", out.RequestID)
		fmt.Fprintf(w, "Conversation: %s\n", q.ConversationID)
	}
}

func printOutcomeJSON(cmd *cobra.Command, q models.Query, out *pipeline.Outcome) error {
	payload := map[string]interface{}{
		"request_id":      out.RequestID,
		"conversation_id": q.ConversationID,
		"state":           out.State,
		"cached":          out.Cached,
		"latency_ms":      out.Latency.Milliseconds(),
		"result":          out.Result,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
	return nil
}
