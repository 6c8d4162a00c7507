package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/hitclient/packages/core/config"
	"github.com/spf13/cobra"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter .hitclient.yaml",
	Long: `Create a .hitclient.yaml in the current directory with the default
transport settings, a User-Agent header and request IDs turned on.

Examples:
  hitclient init
  hitclient init --force`,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing config file")
}

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	path, err := writeStarterConfig(cwd, forceInit)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", path)
	fmt.Fprintln(cmd.OutOrStdout(), "\nNext steps:")
	fmt.Fprintln(cmd.OutOrStdout(), "  1. Set baseURL in .hitclient.yaml")
	fmt.Fprintln(cmd.OutOrStdout(), "  2. Run: hitclient request /health")
	return nil
}

func writeStarterConfig(dir string, force bool) (string, error) {
	path := filepath.Join(dir, config.ConfigFilenames[0])
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("file already exists: %s (use --force to overwrite)", path)
		}
	}

	cfg := config.DefaultConfig()
	cfg.BaseURL = "http://localhost:3000"
	cfg.Headers = map[string]string{"User-Agent": "hitclient/" + version}
	cfg.RequestID = config.BoolPtr(true)

	if err := cfg.SaveConfig(path); err != nil {
		return "", fmt.Errorf("failed to create config file: %w", err)
	}
	return path, nil
}
