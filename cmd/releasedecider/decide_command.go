package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/slipstream/releasedecider/internal/database"
	"github.com/slipstream/releasedecider/internal/decisioning"
	"github.com/slipstream/releasedecider/internal/library/snapshotfile"
	"github.com/slipstream/releasedecider/internal/library/store"
	"github.com/slipstream/releasedecider/internal/logger"
)

func newDecideCommand(ctx *commandContext) *cobra.Command {
	var releasesPath string
	var snapshotPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Evaluate and rank a batch of releases",
		Long: "Evaluate and rank a batch of releases against a snapshot file, " +
			"or against the configured database when no snapshot is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log := ctx.newLogger(cfg)
			defer log.Close()

			releases, err := snapshotfile.LoadReleases(releasesPath)
			if err != nil {
				return err
			}

			snap, err := loadSnapshot(cmd, ctx, snapshotPath)
			if err != nil {
				return err
			}
			if snap.Now.IsZero() {
				snap.Now = time.Now()
			}

			opts, err := cfg.Engine.Options()
			if err != nil {
				return err
			}
			engine := decisioning.NewEngine(opts, log.Logger)

			decisions, err := engine.Decide(cmd.Context(), releases, snap)
			if err != nil {
				return fmt.Errorf("decide: %w", err)
			}

			if asJSON {
				return writeJSON(cmd, decisions)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderDecisions(decisions, snap.Now))
			return nil
		},
	}

	cmd.Flags().StringVarP(&releasesPath, "releases", "r", "", "Release batch file (YAML or JSON)")
	cmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "Snapshot file (defaults to the database)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	_ = cmd.MarkFlagRequired("releases")
	return cmd
}

func loadSnapshot(cmd *cobra.Command, cc *commandContext, path string) (decisioning.Snapshot, error) {
	if path != "" {
		file, err := snapshotfile.Load(path)
		if err != nil {
			return decisioning.Snapshot{}, err
		}
		return file.Snapshot(), nil
	}

	var snap decisioning.Snapshot
	err := cc.withDatabase(cmd, true, func(db *database.DB, log *logger.Logger) error {
		var err error
		snap, err = store.New(db.Conn(), log.Logger).LoadSnapshot(cmd.Context())
		return err
	})
	return snap, err
}

func renderDecisions(decisions []decisioning.Decision, now time.Time) string {
	headers := []string{"#", "Title", "Outcome", "Quality", "Score", "Size", "Age", "Rejections"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft}

	rows := make([][]string, 0, len(decisions))
	for i := range decisions {
		d := &decisions[i]
		rel := &d.Candidate.Release

		reasons := make([]string, 0, len(d.Rejections))
		for _, r := range d.Rejections {
			reasons = append(reasons, r.Message)
		}
		age := ""
		if !rel.PublishDate.IsZero() {
			age = humanize.RelTime(rel.PublishDate, now, "ago", "from now")
		}

		rows = append(rows, []string{
			strconv.Itoa(d.ReleaseWeight + 1),
			rel.Title,
			d.Outcome.String(),
			d.Candidate.Parsed.Quality.String(),
			strconv.Itoa(d.CustomFormatScore),
			humanize.IBytes(uint64(max(rel.Size, 0))),
			age,
			strings.Join(reasons, "; "),
		})
	}
	return renderTable(headers, rows, aligns)
}
