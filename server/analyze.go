package server

import (
	"encoding/json"
	"fmt"
	"github.com/rs/zerolog"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"worker-analysis/config"
	"worker-analysis/constant"
	"worker-analysis/entities"
	"worker-analysis/service"
)

type AnalyzeOptions struct {
	File      string
	UserId    string
	Target    string
	MimeType  string
	Transcode bool
}

// RunAnalyze runs the pipeline once on a local file and writes the result
// as JSON to out.
func RunAnalyze(cfg *config.Config, opts AnalyzeOptions, out io.Writer) error {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	data, err := os.ReadFile(opts.File)
	if err != nil {
		return err
	}
	mimeType := opts.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	deps, err := buildDependencies(ctx, cfg)
	if err != nil {
		return err
	}

	result, runErr := deps.pipeline.Run(ctx, service.Submission{
		UserId:    opts.UserId,
		FileName:  filepath.Base(opts.File),
		Asset:     entities.NewVideoAsset(data, mimeType),
		Target:    constant.TargetAudience(opts.Target),
		Transcode: opts.Transcode,
	})

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return err
	}
	if runErr != nil {
		zerolog.Ctx(ctx).Error().Err(runErr).Msg("analysis failed")
		return fmt.Errorf("analysis failed: %w", runErr)
	}
	return nil
}
