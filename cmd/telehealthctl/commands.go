// cmd/telehealthctl/commands.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"telehealth-agent/internal/bootstrap"
	"telehealth-agent/internal/common/camunda"
	"telehealth-agent/internal/common/config"
	"telehealth-agent/internal/common/validation"
	"telehealth-agent/internal/models"
	evaluateresponse "telehealth-agent/internal/workers/telehealth/evaluate-response"
	processturn "telehealth-agent/internal/workers/telehealth/process-turn"
	searchfaq "telehealth-agent/internal/workers/telehealth/search-faq"
	synccuratedfaqs "telehealth-agent/internal/workers/telehealth/sync-curated-faqs"
	"telehealth-agent/pkg/registry"
)

var (
	profileFile  string
	messages     []string
	responseText string
	maxResults   int
	faqSource    string
	registryPath string
	taskType     string
	field        string
	value        string
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer the latest user message of a conversation",
	Long: `Runs the full turn: profile parsing, query extraction, PubMed retrieval,
relevance filtering, synthesis, evaluation and the optional retry.

Messages default to the user role; prefix with "assistant:" or "user:" to set it.`,
	Example: `  telehealthctl ask --profile profile.txt -m "I am 7 months pregnant and get headaches"`,
	RunE:    runAsk,
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score a response on the four quality criteria",
	RunE:  runEvaluate,
}

var faqCmd = &cobra.Command{
	Use:   "faq <query>",
	Short: "Search medical FAQs",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFAQ,
}

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "List registered worker activities",
	RunE:  runRegistry,
}

var registryValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the registry and compile every input schema",
	RunE:  runRegistryValidate,
}

var registryUpdateCmd = &cobra.Command{
	Use:     "update",
	Short:   "Set one field of an activity and write the registry back",
	Example: `  telehealthctl registry update --registry pkg/registry/activities.json --task-type telehealth-search-faq --field status --value verified`,
	RunE:    runRegistryUpdate,
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a telehealth-turn process instance on Zeebe",
	RunE:  runStart,
}

var syncFAQsCmd = &cobra.Command{
	Use:   "sync-faqs",
	Short: "Index the curated FAQ sheet into Elasticsearch",
	RunE:  runSyncFAQs,
}

func init() {
	for _, c := range []*cobra.Command{askCmd, evaluateCmd, startCmd} {
		c.Flags().StringVar(&profileFile, "profile", "", "File containing the patient profile text")
		c.Flags().StringArrayVarP(&messages, "message", "m", nil, "Conversation message (repeatable)")
	}
	evaluateCmd.Flags().StringVar(&responseText, "response", "", "Response text to score")
	faqCmd.Flags().IntVar(&maxResults, "max-results", searchfaq.DefaultMaxResults, "Maximum results (1-10)")
	faqCmd.Flags().StringVar(&faqSource, "source", string(searchfaq.SourcePubMed), "Backend: pubmed, raw or curated")
	registryCmd.PersistentFlags().StringVar(&registryPath, "registry", "", "Activity registry JSON (default: embedded)")
	registryUpdateCmd.Flags().StringVar(&taskType, "task-type", "", "Task type of the activity to update")
	registryUpdateCmd.Flags().StringVar(&field, "field", "", "Field to update (status, version, displayName, description, category, timeout, retries)")
	registryUpdateCmd.Flags().StringVar(&value, "value", "", "New value for the field")
	registryCmd.AddCommand(registryValidateCmd)
	registryCmd.AddCommand(registryUpdateCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	turns, profile, err := conversation()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	components := bootstrap.New(ctx, cfg, log, bootstrap.Offline())
	defer components.Close()

	result, err := components.ProcessTurn.Execute(ctx, &processturn.Input{
		TurnID:   uuid.NewString(),
		Messages: turns,
		Profile:  profile,
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	if strings.TrimSpace(responseText) == "" {
		return fmt.Errorf("--response is required")
	}
	turns, profile, err := conversation()
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), evaluateresponse.Evaluate(responseText, turns, profile))
}

func runFAQ(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	components := bootstrap.New(ctx, cfg, log, bootstrap.Offline())
	defer components.Close()

	out, err := components.SearchFAQ.Execute(ctx, &searchfaq.Input{
		Query:      strings.Join(args, " "),
		MaxResults: maxResults,
		Source:     searchfaq.Source(faqSource),
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func runRegistry(cmd *cobra.Command, args []string) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TASK TYPE\tNAME\tSTATUS\tTIMEOUT")
	for _, a := range reg.Activities {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.TaskType, a.DisplayName, a.ImplementationStatus, a.Timeout)
	}
	return w.Flush()
}

func runRegistryValidate(cmd *cobra.Command, args []string) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if len(reg.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}
	for _, a := range reg.Activities {
		if a.ID == "" || a.DisplayName == "" || a.Category == "" {
			return fmt.Errorf("activity %s missing id, displayName or category", a.TaskType)
		}
	}
	if _, err := validation.NewValidator(reg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities.\n", len(reg.Activities))
	return nil
}

func runRegistryUpdate(cmd *cobra.Command, args []string) error {
	if registryPath == "" || taskType == "" || field == "" || value == "" {
		return fmt.Errorf("--registry, --task-type, --field and --value are required")
	}
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Update(taskType, field, value); err != nil {
		return err
	}
	if err := reg.Save(registryPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s, field %s to %s\n", taskType, field, value)
	return nil
}

func runStart(cmd *cobra.Command, args []string) error {
	turns, profile, err := conversation()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	zeebe, err := camunda.NewClientWithConfig(&camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      10 * time.Second,
		RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
	})
	if err != nil {
		return err
	}
	defer zeebe.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	turnID := uuid.NewString()
	key, err := zeebe.StartTelehealthTurn(ctx, processturn.Input{
		TurnID:   turnID,
		Messages: turns,
		Profile:  profile,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "started process instance %d (turn %s)\n", key, turnID)
	return nil
}

func runSyncFAQs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	components := bootstrap.New(ctx, cfg, log)
	defer components.Close()

	if components.SyncCuratedFAQs == nil {
		return fmt.Errorf("elasticsearch is not reachable at %s", cfg.Database.Elasticsearch.GetURL())
	}
	out, err := components.SyncCuratedFAQs.Execute(ctx, &synccuratedfaqs.Input{})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "indexed %d curated FAQs\n", out.Indexed)
	return nil
}

// conversation builds turns from --message flags and reads --profile.
func conversation() ([]models.ConversationTurn, string, error) {
	turns := make([]models.ConversationTurn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, parseMessage(m))
	}

	if profileFile == "" {
		return turns, "", nil
	}
	data, err := os.ReadFile(profileFile)
	if err != nil {
		return nil, "", fmt.Errorf("read profile: %w", err)
	}
	return turns, string(data), nil
}

func parseMessage(raw string) models.ConversationTurn {
	for _, role := range []models.Role{models.RoleUser, models.RoleAssistant} {
		prefix := string(role) + ":"
		if len(raw) >= len(prefix) && strings.EqualFold(raw[:len(prefix)], prefix) {
			return models.ConversationTurn{Role: role, Content: strings.TrimSpace(raw[len(prefix):])}
		}
	}
	return models.ConversationTurn{Role: models.RoleUser, Content: raw}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
