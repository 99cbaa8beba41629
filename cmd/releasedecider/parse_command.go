package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/slipstream/releasedecider/internal/parser"
)

func newParseCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <title>...",
		Short: "Parse release titles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]parser.ParsedInfo, 0, len(args))
			for _, title := range args {
				results = append(results, parser.Parse(title))
			}
			if asJSON {
				return writeJSON(cmd, results)
			}

			rows := make([][]string, 0, len(results))
			for i := range results {
				rows = append(rows, parsedRow(&results[i]))
			}
			headers := []string{"Title", "Series", "Mode", "Season", "Episodes", "Quality", "Group", "Languages"}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func parsedRow(p *parser.ParsedInfo) []string {
	season := ""
	if !p.IsDaily && !p.IsUnnumbered() {
		season = strconv.Itoa(p.SeasonNumber)
	}

	var episodes string
	switch {
	case p.IsDaily:
		episodes = p.AirDate.Format("2006-01-02")
	case p.IsSeasonPack:
		episodes = "season pack"
	case len(p.AbsoluteEpisodeNumbers) > 0:
		episodes = joinInts(p.AbsoluteEpisodeNumbers)
	default:
		episodes = joinInts(p.EpisodeNumbers)
	}

	langs := make([]string, 0, len(p.Languages))
	for _, tag := range p.Languages {
		langs = append(langs, tag.String())
	}

	return []string{
		p.ReleaseTitle,
		p.SeriesTitle,
		p.Mode.String(),
		season,
		episodes,
		p.Quality.String(),
		p.ReleaseGroup,
		strings.Join(langs, ","),
	}
}

func joinInts(values []int) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, strconv.Itoa(v))
	}
	return strings.Join(parts, ",")
}
