package main

import (
	"context"
	"time"

	httpexporter "github.com/supporttools/klipper-doctor/pkg/exporters/http"
	promexporter "github.com/supporttools/klipper-doctor/pkg/exporters/prometheus"
	"github.com/supporttools/klipper-doctor/pkg/logger"
	"github.com/supporttools/klipper-doctor/pkg/types"
	"github.com/supporttools/klipper-doctor/pkg/watch"
)

// watchLog starts the file watcher and republishes a fresh analysis after
// each debounced change. Every pass re-reads the whole file; a pass that
// fails (truncated or momentarily empty log) keeps the previous results
// serving.
func watchLog(ctx context.Context, logPath string, debounce time.Duration, config *types.Config, promExp *promexporter.Exporter, server *httpexporter.Server) (*watch.LogWatcher, error) {
	watcher, err := watch.NewLogWatcher(logPath, debounce)
	if err != nil {
		return nil, err
	}

	changeCh, err := watcher.Start(ctx)
	if err != nil {
		return nil, err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changeCh:
				if !ok {
					return
				}
				logger.WithField("log", logPath).Info("log changed, re-analyzing")
				result, assessment, rpt, err := analyzeOnce(logPath, config)
				if err != nil {
					logger.WithError(err).Warn("re-analysis failed, keeping previous results")
					continue
				}
				promExp.Publish(result, assessment)
				server.SetReport(rpt)
			}
		}
	}()

	return watcher, nil
}
