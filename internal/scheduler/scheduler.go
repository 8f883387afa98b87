// Package scheduler runs the daily digest: recompute today's balance,
// list the coming week's scheduled events, and warn when the 90-day
// projection crosses below zero.
package scheduler

import (
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/mwootten/easie/internal/service"
	"github.com/mwootten/easie/internal/utils/email"
)

const upcomingDays = 7

// DigestScheduler owns the cron engine and the digest job.
type DigestScheduler struct {
	cronEngine *cron.Cron
	svc        *service.Service
	mailer     *email.Sender
	log        *logrus.Logger
	spec       string
	mailTo     string // empty means log-only
}

// NewDigestScheduler wires the digest job. mailer may be nil when SMTP
// is not configured; the digest then only logs.
func NewDigestScheduler(svc *service.Service, mailer *email.Sender, log *logrus.Logger, spec, mailTo string) *DigestScheduler {
	return &DigestScheduler{
		cronEngine: cron.New(),
		svc:        svc,
		mailer:     mailer,
		log:        log,
		spec:       spec,
		mailTo:     mailTo,
	}
}

// Start registers the digest job and starts the cron engine.
func (s *DigestScheduler) Start() error {
	if _, err := s.cronEngine.AddFunc(s.spec, s.runDigest); err != nil {
		return err
	}
	s.cronEngine.Start()
	s.log.Infof("Digest scheduler started with spec %q", s.spec)
	return nil
}

// Stop halts the cron engine and waits for a running job to finish.
func (s *DigestScheduler) Stop() {
	<-s.cronEngine.Stop().Done()
	s.log.Info("Digest scheduler stopped")
}

func (s *DigestScheduler) runDigest() {
	balance, err := s.svc.CurrentBalance()
	if err != nil {
		s.log.Errorf("Digest: current balance: %v", err)
		return
	}
	upcoming, err := s.svc.UpcomingOccurrences(upcomingDays)
	if err != nil {
		s.log.Errorf("Digest: upcoming occurrences: %v", err)
		return
	}
	s.log.Infof("Digest: balance %s, %d scheduled events in next %d days",
		balance.StringFixed(2), len(upcoming), upcomingDays)

	// Price-zero forecast: does the projection go negative on its own?
	report, err := s.svc.Forecast(decimal.Zero, "", "")
	if err != nil {
		s.log.Errorf("Digest: forecast: %v", err)
		return
	}
	if report.GoesNegative && report.FirstNegativeDay != nil {
		s.log.Warnf("Digest: projected balance goes negative on %s (min %s on %s)",
			report.FirstNegativeDay.Format("2006-01-02"),
			report.MinBalance.StringFixed(2),
			report.MinBalanceDay.Format("2006-01-02"))
	}

	if s.mailer == nil || s.mailTo == "" {
		return
	}
	// Delivery failures are logged by the sender and never fatal.
	if err := s.mailer.SendDailyDigest(s.mailTo, balance, upcoming); err != nil {
		return
	}
	if report.GoesNegative && report.FirstNegativeDay != nil {
		_ = s.mailer.SendNegativeBalanceWarning(
			s.mailTo, *report.FirstNegativeDay, report.MinBalance, report.MinBalanceDay)
	}
}
