// Package command implements the sentiscope command-line actions.
package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"sentiscope/internal/analysis"
	"sentiscope/internal/config"
	"sentiscope/internal/csvexport"
	"sentiscope/internal/domain"
	"sentiscope/internal/export"
	"sentiscope/internal/intake"
	"sentiscope/internal/logging"
	"sentiscope/internal/port"
	"sentiscope/internal/render"
	"sentiscope/internal/report"
	"sentiscope/internal/session"
	"sentiscope/internal/workflow"
)

// Output formats accepted by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ServiceFactory builds the analysis service from configuration. Tests swap
// it for a fake.
type ServiceFactory func(cfg *config.AnalysisConfig) port.AnalysisService

// Actions holds the dependencies shared by every command.
type Actions struct {
	Load       func() (*config.Config, error)
	NewService ServiceFactory
	Out        io.Writer
	Err        io.Writer
}

// NewActions wires the actions to the real configuration and HTTP client.
func NewActions() *Actions {
	return &Actions{
		Load:       config.Load,
		NewService: analysis.NewService,
		Out:        os.Stdout,
		Err:        os.Stderr,
	}
}

func (a *Actions) loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := a.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logging.SetLevel(cfg.Log.Level); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if url := c.String("service-url"); url != "" {
		cfg.Analysis.BaseURL = url
	}
	return cfg, nil
}

func readFiles(paths []string) ([]domain.FileCandidate, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no screenshot files given")
	}
	out := make([]domain.FileCandidate, 0, len(paths))
	for _, p := range paths {
		f, err := intake.FromPath(p)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Check validates screenshots without contacting the analysis service.
func (a *Actions) Check(c *cli.Context) error {
	cfg, err := a.loadConfig(c)
	if err != nil {
		return err
	}
	files, err := readFiles(c.Args().Slice())
	if err != nil {
		return err
	}
	mode := domain.ParseSelectionMode(c.String("mode"))
	policy := intake.PolicyFromConfig(&cfg.Intake, mode)
	res := intake.Validate(files, nil, policy)
	notice := intake.NoticeFor(res, len(files), 0, policy.MaxCount)
	fmt.Fprint(a.Out, render.Intake(res, notice))
	if len(res.Accepted) == 0 {
		return errors.New("no valid screenshots")
	}
	return nil
}

// Analyze submits screenshots and prints the report.
func (a *Actions) Analyze(c *cli.Context) error {
	format := strings.ToLower(c.String("format"))
	switch format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	cfg, err := a.loadConfig(c)
	if err != nil {
		return err
	}
	files, err := readFiles(c.Args().Slice())
	if err != nil {
		return err
	}

	mode := domain.SelectionModeMulti
	s := session.New("cli", mode, intake.PolicyFromConfig(&cfg.Intake, mode), a.NewService(&cfg.Analysis), nil,
		workflow.WithStageDelay(0))
	defer s.Close(context.Background())

	added, err := s.AddFiles(c.Context, files)
	if err != nil {
		return err
	}
	if len(added.Rejected) > 0 || added.Notice.Message != "" {
		fmt.Fprint(a.Err, render.Intake(intake.Result{Accepted: added.Accepted, Rejected: added.Rejected}, added.Notice))
	}

	updates, unsubscribe := s.Subscribe(8)
	progress := make(chan struct{})
	go func() {
		defer close(progress)
		for st := range updates {
			if st.Status.Busy() {
				fmt.Fprintf(a.Err, "%s...\n", st.Status)
			}
		}
	}()

	st, err := s.Submit(c.Context, c.String("keyword"))
	unsubscribe()
	<-progress
	if err != nil {
		return err
	}
	if st.Status != domain.StatusComplete {
		return fmt.Errorf("analysis failed: %s", st.Message)
	}

	r := st.Report
	for _, target := range []struct {
		path  string
		write func(io.Writer, *domain.Report) error
	}{
		{c.String("xlsx"), export.Write},
		{c.String("csv"), csvexport.Write},
	} {
		if target.path == "" {
			continue
		}
		if err := writeFile(target.path, r, target.write); err != nil {
			return err
		}
		fmt.Fprintf(a.Err, "wrote %s\n", target.path)
	}

	locale := c.String("locale")
	if locale == "" {
		locale = cfg.Server.Locale
	}
	return a.printReport(report.BuildView(r, locale), format)
}

func (a *Actions) printReport(v report.View, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(a.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(a.Out)
		enc.SetIndent(2)
		defer func() { _ = enc.Close() }()
		return enc.Encode(v)
	default:
		_, err := fmt.Fprint(a.Out, render.Report(v))
		return err
	}
}

func writeFile(path string, r *domain.Report, write func(io.Writer, *domain.Report) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// Health reports whether the analysis service is reachable.
func (a *Actions) Health(c *cli.Context) error {
	cfg, err := a.loadConfig(c)
	if err != nil {
		return err
	}
	if !a.NewService(&cfg.Analysis).CheckAvailability(c.Context) {
		return fmt.Errorf("analysis service at %s is unavailable", cfg.Analysis.BaseURL)
	}
	fmt.Fprintf(a.Out, "analysis service at %s is available\n", cfg.Analysis.BaseURL)
	return nil
}
