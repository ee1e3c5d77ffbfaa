package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/cratedig/internal/formatter"
	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/recommend"
	"github.com/desertthunder/cratedig/internal/shared"
	"github.com/desertthunder/cratedig/internal/ui"
	"github.com/urfave/cli/v3"
)

// criteria reads the filter flags shared by recommend and playlist create.
func criteria(cmd *cli.Command) (models.SearchCriteria, error) {
	c := models.SearchCriteria{
		Genre:    cmd.String("genre"),
		Language: cmd.String("language"),
		Offset:   cmd.Int("offset"),
	}

	if era := cmd.String("era"); era != "" {
		i := slices.IndexFunc(models.Eras, func(e models.Era) bool { return strings.EqualFold(string(e), era) })
		if i < 0 {
			return c, fmt.Errorf("%w: unknown era %q", shared.ErrInvalidArgument, era)
		}
		c.Era = models.Eras[i]
	}
	if c.Offset < 0 {
		return c, fmt.Errorf("%w: offset must not be negative", shared.ErrInvalidArgument)
	}
	return c, nil
}

// search runs one recommendation search for the current session and writes any credential change back.
func (r *Runner) search(ctx context.Context, spotify Spotify, c models.SearchCriteria) (recommend.Outcome, error) {
	session, repo, err := r.currentSession(ctx)
	if err != nil {
		return recommend.Outcome{}, err
	}

	outcome, err := r.engine(spotify).Search(ctx, c, session.Credential)
	r.persist(ctx, repo, session, outcome.Auth)
	return outcome, err
}

// Recommend prints one page of tracks matching the filter flags.
func (r *Runner) Recommend(ctx context.Context, cmd *cli.Command) error {
	c, err := criteria(cmd)
	if err != nil {
		return err
	}

	spotify, err := r.provider()
	if err != nil {
		return err
	}

	outcome, err := r.search(ctx, spotify, c)
	if err != nil {
		return fmt.Errorf("recommendation failed: %w", err)
	}

	format := cmd.String("format")
	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(path, format, c, outcome.Page); err != nil {
			return err
		}
		return r.writePlain("%s Wrote %d tracks to %s\n", ui.Styles.OK("✓"), len(outcome.Page.Tracks), path)
	}

	if format != "" {
		data, err := formatter.Render(format, c, outcome.Page)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	}

	r.writePlainHeader(formatter.Title(c))
	if len(outcome.Page.Tracks) == 0 {
		r.writePlain("%s\n", ui.Styles.Warn("No tracks found"))
		return nil
	}

	items := make([]ui.Item, 0, len(outcome.Page.Tracks))
	for _, track := range outcome.Page.Tracks {
		items = append(items, ui.TrackItem{Track: track})
	}
	r.writePlain("%s", ui.RenderList(ui.Styles, items))
	r.writePlainln("%s", ui.Styles.Help(fmt.Sprintf("More: --offset %d", outcome.Page.NextOffset)))
	return nil
}

// Genres prints the filter catalog. Provider genre seeds are used when signed in, the fixed list otherwise.
func (r *Runner) Genres(ctx context.Context, cmd *cli.Command) error {
	var token string
	spotify, err := r.provider()
	if err != nil {
		r.logger.Debug("provider unavailable, using fallback genres", "error", err)
	} else if session, _, err := r.ensureSession(ctx, spotify); err != nil {
		r.logger.Debug("no usable session, using fallback genres", "error", err)
	} else {
		token = session.Credential.AccessToken
	}

	catalog := recommend.NewCatalog(ctx, spotify, token)

	if cmd.Bool("json") {
		return r.writeJSON(catalog, true)
	}

	r.writePlainHeader("Genres")
	r.writePlain("%s\n", strings.Join(catalog.Genres, ", "))
	if catalog.Fallback {
		r.writePlain("%s\n", ui.Styles.Help("(built-in list; sign in for the provider's genre seeds)"))
	}

	eras := make([]string, 0, len(catalog.Eras))
	for _, era := range catalog.Eras {
		eras = append(eras, string(era))
	}
	r.writePlainln("%s", ui.Styles.Title("Eras"))
	r.writePlain("%s\n", strings.Join(eras, ", "))
	r.writePlainln("%s", ui.Styles.Title("Languages"))
	r.writePlain("%s\n", strings.Join(catalog.Languages, ", "))
	return nil
}
