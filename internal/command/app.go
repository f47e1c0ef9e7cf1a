package command

import (
	"github.com/urfave/cli/v2"
)

// NewApp builds the sentiscope command tree around a.
func NewApp(a *Actions) *cli.App {
	serviceURL := &cli.StringFlag{
		Name:    "service-url",
		Usage:   "analysis service base URL (overrides SENTISCOPE_ANALYSIS_BASE_URL)",
		EnvVars: []string{"SENTISCOPE_SERVICE_URL"},
	}

	return &cli.App{
		Name:      "sentiscope",
		Usage:     "analyze social media screenshots for sentiment",
		Writer:    a.Out,
		ErrWriter: a.Err,
		Commands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "validate screenshots locally without analyzing them",
				ArgsUsage: "FILE...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "mode", Value: "multi", Usage: "selection mode: single or multi"},
					serviceURL,
				},
				Action: a.Check,
			},
			{
				Name:      "analyze",
				Usage:     "submit screenshots and print the sentiment report",
				ArgsUsage: "FILE...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "keyword", Aliases: []string{"k"}, Usage: "optional search keyword"},
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: FormatText, Usage: "output format: text, json or yaml"},
					&cli.StringFlag{Name: "xlsx", Usage: "also write the report workbook to this path"},
					&cli.StringFlag{Name: "csv", Usage: "also write the report posts as CSV to this path"},
					&cli.StringFlag{Name: "locale", Usage: "timestamp locale, e.g. zh-CN or en-US"},
					serviceURL,
				},
				Action: a.Analyze,
			},
			{
				Name:   "health",
				Usage:  "check that the analysis service is reachable",
				Flags:  []cli.Flag{serviceURL},
				Action: a.Health,
			},
		},
	}
}
