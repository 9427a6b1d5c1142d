package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rfpdesk/rfpdesk/internal/tui"
)

const envPrefix = "RFPDESK"

// version is stamped by the release build.
var version = "dev"

func Execute() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "rfpdesk",
		Short:        "Interactive RFP response workbench",
		Long:         "rfpdesk analyzes an RFP against your company profile, lets you refine the extracted requirements, watches the inbox for related mail, and drafts the proposal.",
		SilenceUsage: true,
		RunE:         runTUI,
	}

	cobra.OnInitialize(initConfig)

	cmd.PersistentFlags().String("project-dir", "", "Project directory (defaults to the working directory).")
	_ = viper.BindPFlag("project_dir", cmd.PersistentFlags().Lookup("project-dir"))

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the rfpdesk version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func initConfig() {
	// A local .env is the usual place for the API key during development.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("anthropic_api_key", "ANTHROPIC_API_KEY", "RFPDESK_ANTHROPIC_API_KEY")
}

func runTUI(_ *cobra.Command, _ []string) error {
	projectDir := strings.TrimSpace(viper.GetString("project_dir"))
	if projectDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		projectDir = cwd
	}

	apiKey := strings.TrimSpace(viper.GetString("anthropic_api_key"))
	if apiKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is not set (flag, environment, or .env)")
	}

	app, err := tui.NewApp(projectDir, apiKey)
	if err != nil {
		return err
	}
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}
