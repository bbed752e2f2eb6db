package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/baikal-ai/baikalctl/internal/config"
	"github.com/baikal-ai/baikalctl/internal/gateway"
	"github.com/baikal-ai/baikalctl/internal/platform"
	"github.com/baikal-ai/baikalctl/internal/runview"
)

// --- auth ---

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		reader := bufio.NewReader(cmd.InOrStdin())
		if email == "" {
			fmt.Fprint(os.Stderr, "Email: ")
			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("reading email: %w", err)
			}
			email = strings.TrimSpace(line)
		}
		if password == "" {
			fmt.Fprint(os.Stderr, "Password: ")
			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}
			password = strings.TrimSpace(line)
		}

		c, err := newConsole()
		if err != nil {
			return err
		}

		if err := c.auth.Login(cmd.Context(), email, password); err != nil {
			if gateway.IsUnauthorized(err) {
				printError("Invalid credentials")
				return err
			}
			return err
		}

		user, err := c.auth.Me(cmd.Context())
		if err != nil {
			// Token is stored; the profile fetch is cosmetic.
			printSuccess("Logged in")
			return nil
		}
		printSuccess("Logged in as %s <%s>", user.Name, user.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		if err := c.auth.Logout(); err != nil {
			return err
		}
		printSuccess("Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		if !c.sessions.IsAuthenticated() {
			printWarning("Not logged in. Run 'baikalctl login' first.")
			return nil
		}

		user, err := c.auth.Me(cmd.Context())
		if err != nil {
			return err
		}
		printStatus("Name", "%s", user.Name)
		printStatus("Email", "%s", user.Email)
		return nil
	},
}

func init() {
	loginCmd.Flags().String("email", "", "account email")
	loginCmd.Flags().String("password", "", "account password (prompted when omitted)")
}

// --- dashboard ---

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show an overview of documents, automations, and recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}

		var (
			user  platform.UserInfo
			docs  []platform.DocumentRecord
			autos []platform.AutomationDefinition
		)

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			var err error
			user, err = c.auth.Me(ctx)
			return err
		})
		g.Go(func() error {
			var err error
			docs, err = c.docs.List(ctx)
			return err
		})
		g.Go(func() error {
			var err error
			autos, err = c.automations.List(ctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		fmt.Printf("%s\n\n", colorize(colorBold, fmt.Sprintf("Baikal console — %s", user.Email)))
		printStatus("Documents", "%d", len(docs))
		printStatus("Automations", "%d", len(autos))

		if len(autos) == 0 {
			return nil
		}
		fmt.Println()
		for _, a := range autos {
			runs, err := c.automations.Runs(cmd.Context(), a.ID)
			if err != nil {
				printError("Failed to load runs for %s: %v", a.Name, err)
				continue
			}
			stats := runview.ComputeStatistics(runs)
			line := fmt.Sprintf("%s  %s  %d runs, %d%% success",
				colorize(colorCyan, shortID(a.ID)), a.Name, stats.Total, stats.SuccessRate)
			if len(runs) > 0 {
				style := runview.StyleFor(runs[0].Status)
				line += fmt.Sprintf("  last: %s %s", colorize(style.Color, style.Symbol), style.Label)
			}
			fmt.Println(line)
		}
		return nil
	},
}

// --- docs ---

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage generated documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List generated documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}

		docs, err := c.docs.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Println("No documents found.")
			return nil
		}

		for _, d := range docs {
			fmt.Printf("%s  %-8s  %s\n",
				colorize(colorCyan, shortID(d.ID)),
				d.DocType,
				truncate(d.Title, 60),
			)
		}
		return nil
	},
}

var docsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one document's generated content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}

		docs, err := c.docs.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, d := range docs {
			if d.ID == args[0] || shortID(d.ID) == args[0] {
				fmt.Printf("%s\n\n", colorize(colorBold, d.Title))
				fmt.Println(d.OutputContent)
				return nil
			}
		}
		return fmt.Errorf("document %s not found", args[0])
	},
}

var docsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a document from a prompt",
	Long: `Generate a document from a prompt.

Examples:
  baikalctl docs generate --type report --title "Q3 summary" --prompt "Summarize Q3 automation outcomes"
  baikalctl docs generate --type email --title "Renewal notice" --prompt "Draft a renewal email" --from-pdf ./contract.pdf`,
	RunE: func(cmd *cobra.Command, args []string) error {
		docType, _ := cmd.Flags().GetString("type")
		title, _ := cmd.Flags().GetString("title")
		prompt, _ := cmd.Flags().GetString("prompt")
		fromPDF, _ := cmd.Flags().GetString("from-pdf")

		if title == "" || prompt == "" {
			return fmt.Errorf("--title and --prompt are required")
		}

		if fromPDF != "" {
			text, err := pdfText(fromPDF)
			if err != nil {
				return err
			}
			prompt = prompt + "\n\nSource material:\n" + text
		}

		c, err := newConsole()
		if err != nil {
			return err
		}

		printStep("Generating %s document...", docType)
		doc, err := c.docs.Generate(cmd.Context(), platform.DocType(docType), title, prompt)
		if err != nil {
			return err
		}

		printSuccess("Generated document %s", doc.ID)
		fmt.Println(doc.OutputContent)
		return nil
	},
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		if err := c.docs.Delete(cmd.Context(), args[0]); err != nil {
			if gateway.IsNotFound(err) {
				printError("Document %s not found", args[0])
			}
			return err
		}
		printSuccess("Deleted document %s", args[0])
		return nil
	},
}

func init() {
	docsGenerateCmd.Flags().String("type", "report", "document type: report, official, or email")
	docsGenerateCmd.Flags().String("title", "", "document title")
	docsGenerateCmd.Flags().String("prompt", "", "what the document should contain")
	docsGenerateCmd.Flags().String("from-pdf", "", "PDF file whose text is appended to the prompt")

	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsShowCmd)
	docsCmd.AddCommand(docsGenerateCmd)
	docsCmd.AddCommand(docsDeleteCmd)
}

// --- automations ---

var automationsCmd = &cobra.Command{
	Use:     "automations",
	Aliases: []string{"auto"},
	Short:   "Manage automations and their runs",
}

var automationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List automations",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		c, err := newConsole()
		if err != nil {
			return err
		}

		autos, err := c.automations.List(cmd.Context())
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(autos)
		}

		if len(autos) == 0 {
			fmt.Println("No automations found.")
			return nil
		}
		for _, a := range autos {
			schedule := "manual"
			if a.ScheduleEnabled && a.ScheduleCron != nil {
				schedule = *a.ScheduleCron
			}
			fmt.Printf("%s  %-14s  %-16s  %s\n",
				colorize(colorCyan, shortID(a.ID)),
				a.Type,
				schedule,
				a.Name,
			)
		}
		return nil
	},
}

var automationsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an automation from a JSON definition file",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			return fmt.Errorf("--file is required")
		}

		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading definition: %w", err)
		}
		var def platform.AutomationDefinition
		if err := json.Unmarshal(data, &def); err != nil {
			return fmt.Errorf("parsing definition: %w", err)
		}

		c, err := newConsole()
		if err != nil {
			return err
		}

		created, err := c.automations.Create(cmd.Context(), def)
		if err != nil {
			return err
		}
		printSuccess("Created automation %s (%s)", created.Name, created.ID)
		return nil
	},
}

var automationsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an automation, its run history, and statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		expandRun, _ := cmd.Flags().GetString("expand")
		maxRuns, _ := cmd.Flags().GetInt("runs")

		c, err := newConsole()
		if err != nil {
			return err
		}

		view := runview.New(c.automations, args[0], nil)
		if err := view.LoadDefinition(cmd.Context()); err != nil {
			if gateway.IsNotFound(err) {
				printError("Automation %s not found", args[0])
			}
			return err
		}
		view.LoadRuns(cmd.Context())
		if expandRun != "" {
			view.ToggleExpanded(expandRun)
		}

		def, _ := view.Definition()
		renderAutomation(def, view, maxRuns)
		return nil
	},
}

var automationsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an automation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		if err := c.automations.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		printSuccess("Deleted automation %s", args[0])
		return nil
	},
}

var automationsRunCmd = &cobra.Command{
	Use:   "run <id>",
	Short: "Trigger a run, then refresh the run history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wait, _ := cmd.Flags().GetBool("wait")

		c, err := newConsole()
		if err != nil {
			return err
		}

		view := runview.New(c.automations, args[0], nil)
		view.SetPollPolicy(pollPolicyFrom(c.cfg))

		if err := view.TriggerRun(cmd.Context()); err != nil {
			return err
		}
		printSuccess("Run queued for automation %s", args[0])

		if !wait {
			printStep("Refreshing run history...")
			if err := view.Refresh(cmd.Context()); err != nil {
				return err
			}
			if runs := view.Runs(); len(runs) > 0 {
				style := runview.StyleFor(runs[0].Status)
				printStatus("Latest run", "%s %s", style.Symbol, style.Label)
			}
			return nil
		}

		printStep("Waiting for the run to settle...")
		run, err := view.AwaitSettled(cmd.Context())
		if err != nil {
			if err == runview.ErrNotSettled {
				printWarning("Run has not settled yet; check back with 'baikalctl automations show %s'", args[0])
				return nil
			}
			return err
		}

		style := runview.StyleFor(run.Status)
		if run.Status == platform.RunSuccess {
			printSuccess("Run %s settled: %s", shortID(run.ID), style.Label)
		} else {
			printError("Run %s settled: %s", shortID(run.ID), style.Label)
		}
		if d, ok := run.Duration(); ok {
			printStatus("Duration", "%s", d.Round(time.Millisecond))
		}
		return nil
	},
}

func init() {
	automationsListCmd.Flags().Bool("json", false, "print raw JSON")
	automationsCreateCmd.Flags().String("file", "", "path to a JSON automation definition")
	automationsShowCmd.Flags().String("expand", "", "run id to show in detail")
	automationsShowCmd.Flags().Int("runs", 10, "maximum runs to list")
	automationsRunCmd.Flags().Bool("wait", false, "poll until the run reaches a terminal status")

	automationsCmd.AddCommand(automationsListCmd)
	automationsCmd.AddCommand(automationsCreateCmd)
	automationsCmd.AddCommand(automationsShowCmd)
	automationsCmd.AddCommand(automationsDeleteCmd)
	automationsCmd.AddCommand(automationsRunCmd)
}

func renderAutomation(def platform.AutomationDefinition, view *runview.Model, maxRuns int) {
	fmt.Printf("%s  (%s)\n", colorize(colorBold, def.Name), def.Type)
	if def.ScheduleEnabled && def.ScheduleCron != nil {
		printStatus("Schedule", "%s", *def.ScheduleCron)
	} else {
		printStatus("Schedule", "manual")
	}

	stats := view.Statistics()
	printStatus("Runs", "%d total, %d success, %d failed (%d%%)",
		stats.Total, stats.SuccessCount, stats.FailedCount, stats.SuccessRate)

	runs := view.Runs()
	if maxRuns > 0 && len(runs) > maxRuns {
		runs = runs[:maxRuns]
	}
	for _, r := range runs {
		style := runview.StyleFor(r.Status)
		line := fmt.Sprintf("%s %-8s %s", colorize(style.Color, style.Symbol), style.Label, colorize(colorCyan, shortID(r.ID)))
		if r.StartedAt != nil {
			line += fmt.Sprintf("  %s", r.StartedAt.Format("2006-01-02 15:04:05"))
		}
		if d, ok := r.Duration(); ok {
			line += fmt.Sprintf("  %s", d.Round(time.Millisecond))
		}
		fmt.Println(line)

		if !view.IsExpanded(r.ID) {
			continue
		}
		if r.Log != nil && *r.Log != "" {
			fmt.Printf("  log: %s\n", *r.Log)
		}
		if len(r.ResultPayload) > 0 {
			fmt.Printf("  result:\n%s\n", indent(renderResult(def, r.ResultPayload), "    "))
		}
	}
}

// renderResult decodes a run's result payload for the terminal. Scrape
// results carrying markup are flattened to text.
func renderResult(def platform.AutomationDefinition, payload json.RawMessage) string {
	var text string
	if err := json.Unmarshal(payload, &text); err == nil {
		if ws := def.Config.WebScrape; ws != nil && (ws.Extract == platform.ExtractHTML || ws.Extract == platform.ExtractTable) {
			return htmlToText(text)
		}
		return text
	}

	var pretty json.RawMessage = payload
	if out, err := json.MarshalIndent(pretty, "", "  "); err == nil {
		return string(out)
	}
	return string(payload)
}

func pollPolicyFrom(cfg config.Config) runview.PollPolicy {
	policy := runview.DefaultPollPolicy()
	if d, err := time.ParseDuration(cfg.Poll.InitialDelay); err == nil && d > 0 {
		policy.InitialDelay = d
	}
	if cfg.Poll.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.Poll.MaxAttempts
	}
	return policy
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = prefix + lines[i]
	}
	return strings.Join(lines, "\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := config.SetKey(key, value); err != nil {
			return err
		}
		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
