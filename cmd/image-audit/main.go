package main

import (
	"fmt"
	"io"
	"os"

	"github.com/Sternrassler/northwest-bus-cache/pkg/imageaudit"
	"github.com/Sternrassler/northwest-bus-cache/pkg/logging"
	"github.com/caarlos0/env/v11"
	"github.com/spf13/afero"
)

type config struct {
	SiteRoot   string           `env:"SITE_ROOT" envDefault:"."`
	ReportPath string           `env:"REPORT_PATH" envDefault:"image-optimization-report.md"`
	LogLevel   logging.LogLevel `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty  bool             `env:"LOG_PRETTY" envDefault:"true"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Output: os.Stderr})
	logger := logging.NewLogger("image-audit")

	fs := afero.NewBasePathFs(afero.NewOsFs(), cfg.SiteRoot)
	if err := run(fs, cfg.ReportPath, os.Stdout); err != nil {
		logger.Fatal().Err(err).Msg("Image audit failed")
	}
}

// run checks the default images on fs, prints markup for the existing ones
// to out and writes the report to reportPath.
func run(fs afero.Fs, reportPath string, out io.Writer) error {
	a := imageaudit.New(fs, imageaudit.DefaultSettings())

	result, err := a.Check(imageaudit.DefaultImages())
	if err != nil {
		return err
	}

	for _, img := range result.Existing {
		if _, err := fmt.Fprintf(out, "%s\n\n---\n\n", a.PictureHTML(img)); err != nil {
			return err
		}
	}

	return a.WriteReport(result, reportPath)
}
