package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/robfig/cron/v3"

	"options-signal-bot/internal/engine"
	"options-signal-bot/internal/eod"
	"options-signal-bot/internal/interfaces"
	"options-signal-bot/internal/logger"
	"options-signal-bot/internal/tradelog"
)

// Jobs are the collaborators the scheduled jobs drive. Eod, Journal and
// Alerter are optional.
type Jobs struct {
	Engine        interfaces.Engine
	Eod           interfaces.EodSummarizer
	Journal       *tradelog.Journal
	Alerter       interfaces.Alerter
	RetentionDays int
}

const panicAlertTimeout = 10 * time.Second

// Scheduler runs the strategy cycle and the daily report on cron schedules
// in the market timezone. Schedules use six fields, seconds first.
type Scheduler struct {
	cron *cron.Cron
	jobs Jobs
	ctx  context.Context
}

func New(ctx context.Context, loc *time.Location, jobs Jobs) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	l := cronLogger{ctx: ctx}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
		jobs: jobs,
		ctx:  ctx,
	}
}

// Register adds the strategy and report jobs.
func (s *Scheduler) Register(strategySpec, reportSpec string) error {
	if _, err := s.cron.AddFunc(strategySpec, s.guarded("strategy", s.RunStrategy)); err != nil {
		return fmt.Errorf("register strategy job %q: %w", strategySpec, err)
	}
	if _, err := s.cron.AddFunc(reportSpec, s.guarded("report", s.RunReport)); err != nil {
		return fmt.Errorf("register report job %q: %w", reportSpec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	entries := s.cron.Entries()
	fields := []any{"jobs", len(entries)}
	if len(entries) > 0 {
		fields = append(fields, "next_run", entries[0].Next)
	}
	logger.Info(s.ctx, "Scheduler started", fields...)
}

// Stop stops scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		logger.Info(ctx, "Scheduler stopped")
	case <-ctx.Done():
		logger.Warn(ctx, "Scheduler stopped with jobs still running", "error", ctx.Err())
	}
}

// RunStrategy runs one strategy cycle. An overlapping cycle is skipped.
func (s *Scheduler) RunStrategy() {
	res, err := s.jobs.Engine.ExecuteTradingStrategy(s.ctx)
	switch {
	case errors.Is(err, engine.ErrCycleInProgress):
		logger.Warn(s.ctx, "Previous cycle still running, skipping tick")
	case err != nil:
		logger.ErrorWithErr(s.ctx, "Strategy cycle failed", err)
	case res != nil && res.Skipped != "":
		logger.Debug(s.ctx, "Strategy cycle skipped", "reason", res.Skipped)
	}
}

// RunReport sends the daily report, writes the end-of-day CSV and compresses
// old journal files. Each step runs even if an earlier one fails.
func (s *Scheduler) RunReport() {
	if err := s.jobs.Engine.SendDailyReport(s.ctx); err != nil {
		logger.ErrorWithErr(s.ctx, "Daily report failed", err)
	}
	if s.jobs.Eod != nil {
		if p, err := s.jobs.Eod.SummarizeToday(s.ctx); err != nil {
			logger.ErrorWithErr(s.ctx, "EOD summary failed", err)
		} else if p != "" {
			logger.Info(s.ctx, "EOD CSV written", "path", p)
		}
	}
	if s.jobs.Journal != nil {
		if pnl, err := eod.Realized(s.jobs.Journal, s.jobs.Journal.Now()); err != nil {
			logger.Warn(s.ctx, "Journal P&L unavailable", "error", err)
		} else {
			logger.Info(s.ctx, "Journal realized P&L", "realized", pnl)
		}
		if err := s.jobs.Journal.CompressOlder(s.jobs.RetentionDays); err != nil {
			logger.Warn(s.ctx, "Journal compression failed", "error", err)
		}
	}
}

// guarded recovers a panicking job and sends an emergency alert. The
// scheduler keeps running so later ticks still fire.
func (s *Scheduler) guarded(name string, job func()) func() {
	return func() {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			err := fmt.Errorf("%s job panicked: %v", name, r)
			logger.ErrorWithErr(s.ctx, "Scheduled job panicked", err, "job", name, "stack", string(debug.Stack()))
			if s.jobs.Alerter == nil {
				return
			}
			actx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), panicAlertTimeout)
			defer cancel()
			if aerr := s.jobs.Alerter.SendEmergencyAlert(actx,
				"Scheduled Job Crashed - "+name,
				"A scheduled "+name+" job panicked and was recovered. The bot keeps running.",
				err,
			); aerr != nil {
				logger.Warn(s.ctx, "Emergency alert failed", "job", name, "error", aerr)
			}
		}()
		job()
	}
}

// cronLogger routes cron's own messages through the structured logger.
type cronLogger struct {
	ctx context.Context
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug(l.ctx, "cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.ErrorWithErr(l.ctx, "cron: "+msg, err, keysAndValues...)
}
