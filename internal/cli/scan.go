package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/chatguard/internal/config"
	"github.com/ppiankov/chatguard/internal/detect"
	"github.com/ppiankov/chatguard/internal/engine"
	"github.com/ppiankov/chatguard/internal/model"
	"github.com/ppiankov/chatguard/internal/verdict"
)

const (
	scanChannel = "cli"
	scanSender  = "cli"
)

var (
	scanHistory    []string
	scanRestricted bool
	scanBypass     bool
	scanFormat     string
	scanExplain    bool
)

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringArrayVar(&scanHistory, "history", nil, "Earlier message from the same sender, oldest first (repeatable)")
	scanCmd.Flags().BoolVar(&scanRestricted, "restricted", false, "Sender is the party not allowed to share contact details")
	scanCmd.Flags().BoolVar(&scanBypass, "bypass", false, "Skip filtering (paid tier)")
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "text", "Output format (text|json)")
	scanCmd.Flags().BoolVar(&scanExplain, "explain", false, "List every evidence rule that matches")
}

var scanCmd = &cobra.Command{
	Use:   "scan [text]",
	Short: "Evaluate one message",
	Long: "Runs a message through the filter and prints the verdict.\n" +
		"Reads the message from stdin when no argument is given.\n\n" +
		"Exit code 0 if allowed, 2 if blocked.",
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	text, err := scanInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cat, err := cfg.BuildCatalog()
	if err != nil {
		return err
	}

	e := engine.New(engine.WithCatalog(cat), engine.WithComposer(verdict.NewComposer(cfg.Reasons)))
	if len(scanHistory) > 0 {
		e.RecordForAnalysis(scanChannel, scanSender, scanHistory)
	}
	res := e.Evaluate(text, scanChannel, scanSender, model.RoleContext{
		SenderRestricted: scanRestricted,
		Bypass:           scanBypass,
	})

	var rules []string
	if scanExplain {
		rules = detect.NewScanner(cat).Explain(text)
	}

	out := cmd.OutOrStdout()
	switch scanFormat {
	case "json":
		payload := struct {
			model.FilterResult
			Rules []string `json:"rules,omitempty"`
		}{res, rules}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	default:
		fmt.Fprint(out, formatVerdict(res, rules))
	}

	if res.IsBlocked {
		os.Exit(2)
	}
	return nil
}

func scanInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func formatVerdict(res model.FilterResult, rules []string) string {
	var b strings.Builder
	outcome := "ALLOW"
	if res.IsBlocked {
		outcome = "BLOCK"
	}
	fmt.Fprintf(&b, "%s  risk=%d", outcome, res.RiskScore)
	if len(res.Patterns) > 0 {
		fmt.Fprintf(&b, "  patterns=%s", strings.Join(res.PatternStrings(), ","))
	}
	b.WriteString("\n")
	if res.Reason != "" {
		fmt.Fprintf(&b, "  %s\n", res.Reason)
	}
	if len(rules) > 0 {
		fmt.Fprintf(&b, "  rules: %s\n", strings.Join(rules, ", "))
	}
	return b.String()
}
