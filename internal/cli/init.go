package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/chatguard/internal/config"
)

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default config.yaml with comments",
	Long:  "Writes the default configuration to --config, $CHATGUARD_CONFIG or\n~/.chatguard/config.yaml. Edit it to add rules or change reason wording.",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	path := config.ResolvePath(configPath)
	if path == "" {
		return fmt.Errorf("cannot determine config path; pass --config")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	}

	if err := os.WriteFile(path, []byte(config.DefaultYAML()), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	return nil
}
