package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/cratedig/internal/shared"
	"github.com/desertthunder/cratedig/internal/ui"
	"github.com/urfave/cli/v3"
)

// Setup writes config.toml from the embedded template when missing, then initializes the database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load created config: %w", err)
		}
		r.config = config
		r.writePlain("%s Config written to %s\n", ui.Styles.OK("✓"), configPath)
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)
	if _, err := r.database(ctx); err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	r.writePlain("%s Database ready at %s\n", ui.Styles.OK("✓"), r.config.Database.Path)

	if r.config.Credentials.Spotify.ClientID == "" || r.config.Credentials.Spotify.ClientID == "your_spotify_client_id" {
		r.writePlainln("Next steps:")
		r.writePlain("1. Set credentials.spotify.client_id and client_secret in %s\n", configPath)
		r.writePlain("2. Change session.secret before running 'cratedig serve'\n")
		r.writePlain("3. Run 'cratedig login'\n")
	}
	return nil
}
