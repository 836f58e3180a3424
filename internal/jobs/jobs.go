package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	log "github.com/sirupsen/logrus"
)

const (
	PluginScanJobID       = "plugin-scan"
	PruneDiagnosticsJobID = "prune-diagnostics"
)

// RegisterDefaultJobs registers the jobs the scheduler and the API trigger.
func RegisterDefaultJobs(jm *JobManager) {
	jm.Register(PluginScanJobID, "Plugin Scan", RunPluginScan)
	jm.Register(PruneDiagnosticsJobID, "Prune Diagnostics", RunPruneDiagnostics)
}

// RunPluginScan rescans the plugins directory.
func RunPluginScan(ctx JobContext) error {
	report, err := ctx.Registry().Scan(context.Background())
	if err != nil {
		return fmt.Errorf("plugin scan failed: %w", err)
	}
	log.Infof("Scheduled scan %s: %d active, %d rejected", report.ScanID, report.Active, report.Rejected)
	return nil
}

// RunPruneDiagnostics deletes diagnostics older than the configured retention.
func RunPruneDiagnostics(ctx JobContext) error {
	days := ctx.Config().Diagnostics.RetentionDays
	if days <= 0 {
		log.Debug("Diagnostics retention is 0, nothing to prune.")
		return nil
	}
	removed, err := ctx.Store().PruneDiagnostics(time.Now().AddDate(0, 0, -days))
	if err != nil {
		return fmt.Errorf("failed to prune diagnostics: %w", err)
	}
	log.Infof("Pruned %d diagnostic(s) older than %d day(s)", removed, days)
	return nil
}

// StartJobs starts the background job scheduler. The caller stops it.
func StartJobs(app JobContext) *gocron.Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	schedulePluginScan(s, app)
	schedulePrune(s, app)

	log.Info("Starting background job scheduler...")
	s.StartAsync()
	return s
}

func schedulePluginScan(s *gocron.Scheduler, app JobContext) {
	interval := app.Config().Plugins.ScanInterval
	if interval == 0 {
		log.Info("Plugin scan interval is 0, scheduled scans are disabled.")
		return
	}

	log.Infof("Scheduling job: '%s' to run every %d minutes.", PluginScanJobID, interval)
	// The watcher and the startup scan cover the first run.
	_, err := s.Every(interval).Minutes().WaitForSchedule().Do(func() {
		submit(app, PluginScanJobID)
	})
	if err != nil {
		log.Errorf("Error scheduling '%s' job: %v", PluginScanJobID, err)
	}
}

func schedulePrune(s *gocron.Scheduler, app JobContext) {
	if app.Config().Diagnostics.RetentionDays == 0 {
		return
	}
	_, err := s.Every(1).Day().At("03:00").Do(func() {
		submit(app, PruneDiagnosticsJobID)
	})
	if err != nil {
		log.Errorf("Error scheduling '%s' job: %v", PruneDiagnosticsJobID, err)
	}
}

// submit goes through the manager so scheduled runs never overlap manual ones.
func submit(app JobContext, id string) {
	log.Debugf("Scheduler is triggering job: %s", id)
	if err := app.JobManager().RunJob(id, app); err != nil {
		log.Warnf("Scheduled job '%s' could not start: %v", id, err)
	}
}
