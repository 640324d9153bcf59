package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kozaktomas/photo-grouper/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "photo-grouper",
	Short: "Group photos of the same person into folders",
	Long: `Photo Grouper walks a directory of photos, compares the most prominent
face in each photo using face embeddings and copies photos of the same
person into numbered folders. Uncertain matches are confirmed by a human
(terminal or browser) or a vision model.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format: console or json")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// newLogger builds the logger from the persistent logging flags.
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	logger, err := logging.New(logging.Config{
		Level:  mustGetString(cmd, "log-level"),
		Format: mustGetString(cmd, "log-format"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
