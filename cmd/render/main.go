// Command render exports a résumé JSON file in one or more formats without
// running the server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	repo "resume-builder/internal/adapter/repository"
	"resume-builder/internal/bootstrap"
	"resume-builder/internal/config"
	"resume-builder/internal/domain"
	"resume-builder/internal/usecase"
)

type flags struct {
	input   string
	formats string
	out     string
	config  string
	verbose bool
}

func parseFlags(args []string) (*flags, error) {
	fs := pflag.NewFlagSet("render", pflag.ContinueOnError)
	f := &flags{}
	fs.StringVarP(&f.input, "input", "i", "", "résumé JSON file (required)")
	fs.StringVarP(&f.formats, "format", "f", "md,docx,pdf", "comma-separated export formats")
	fs.StringVarP(&f.out, "out", "o", ".", "output directory")
	fs.StringVarP(&f.config, "config", "c", "", "path to a YAML config file")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log progress to stderr")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if f.input == "" {
		return nil, fmt.Errorf("--input is required")
	}
	return f, nil
}

func parseFormats(s string) ([]domain.Format, error) {
	var out []domain.Format
	seen := map[domain.Format]bool{}
	for _, tok := range strings.Split(s, ",") {
		if strings.TrimSpace(tok) == "" {
			continue
		}
		f, err := domain.ParseFormat(tok)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no formats given", domain.ErrUnknownFormat)
	}
	return out, nil
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load(f.config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg.Log.Format = "text"
	var logOut io.Writer = io.Discard
	if f.verbose {
		logOut = os.Stderr
	}
	log := bootstrap.NewLogger(cfg.Log, logOut)

	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	factories, err := bootstrap.Encoders(cfg.Render)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	exporter := usecase.NewExporter(factories, repo.NewMemoryJobs(), log)

	if err := run(context.Background(), f, exporter, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type exportAller interface {
	ExportAll(ctx context.Context, content, name string, formats []domain.Format) []usecase.ExportResult
}

// run writes one file per requested format and reports every failure; the
// returned error says how many formats failed.
func run(ctx context.Context, f *flags, exporter exportAller, stdout io.Writer) error {
	formats, err := parseFormats(f.formats)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(f.input)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	doc, err := usecase.Decode(raw)
	if err != nil {
		return err
	}
	content, err := usecase.RenderMarkdown(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(f.out, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	failed := 0
	for _, res := range exporter.ExportAll(ctx, content, doc.Name, formats) {
		if res.Err != nil {
			failed++
			fmt.Fprintf(stdout, "%-4s failed: %v\n", res.Format, res.Err)
			continue
		}
		path := filepath.Join(f.out, res.Artifact.FileName)
		if err := os.WriteFile(path, res.Artifact.Data, 0o644); err != nil {
			failed++
			fmt.Fprintf(stdout, "%-4s failed: %v\n", res.Format, err)
			continue
		}
		fmt.Fprintf(stdout, "%-4s %s\n", res.Format, path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d formats failed", failed, len(formats))
	}
	return nil
}
