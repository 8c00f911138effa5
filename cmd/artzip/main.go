package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"artzip/internal/client"
)

var (
	// Global flags
	verbose    bool
	configPath string
	endpoint   string
	timeout    time.Duration

	logger  *zap.Logger
	session *Profile
)

var rootCmd = &cobra.Command{
	Use:   "artzip",
	Short: "ArtZip command line client",
	Long: `artzip talks to an ArtZip API server: write and edit exhibition reviews,
browse the community feed and page through profile activity.

The endpoint and access token are kept in a YAML profile (default ~/.artzip.yaml).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		session, err = LoadProfile(configPath)
		if err != nil {
			return err
		}
		if endpoint != "" {
			session.Endpoint = endpoint
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".artzip.yaml"
	}
	return filepath.Join(home, ".artzip.yaml")
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "Profile file")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "API base URL, overrides the profile")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Per-command timeout")

	rootCmd.AddCommand(loginCmd, reviewCmd, profileCmd, feedCmd, exhibitionsCmd)
}

// apiClient builds a client from the loaded profile.
func apiClient() *client.Client {
	return client.New(session.Endpoint, client.WithToken(session.Token))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
