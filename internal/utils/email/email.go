package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/mwootten/easie/internal/config"
	"github.com/mwootten/easie/internal/models"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendDailyDigest mails today's balance and the upcoming scheduled
// occurrences.
func (s *Sender) SendDailyDigest(to string, balance decimal.Decimal, upcoming []models.Occurrence) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = fmt.Sprintf("EASIE digest for %s", time.Now().Format("2006-01-02"))

	body := fmt.Sprintf("Today's balance: %s\n\n", balance.StringFixed(2))
	if len(upcoming) == 0 {
		body += "No scheduled events in the next 7 days.\n"
	} else {
		body += "Scheduled in the next 7 days:\n"
		for _, o := range upcoming {
			sign := "+"
			if o.Kind == models.KindExpense {
				sign = "-"
			}
			body += fmt.Sprintf("  %s  %s%s  %s (%s)\n",
				o.Date.Format("2006-01-02"), sign, o.Amount.StringFixed(2), o.Name, o.Category)
		}
	}
	e.Text = []byte(body)

	return s.send(e, to)
}

// SendNegativeBalanceWarning mails a heads-up that the projected balance
// crosses below zero within the forecast window.
func (s *Sender) SendNegativeBalanceWarning(to string, firstNegative time.Time, minBalance decimal.Decimal, minBalanceDay time.Time) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "EASIE warning: projected balance goes negative"

	body := fmt.Sprintf(
		"Your projected balance first goes negative on %s.\n"+
			"Lowest projected point: %s on %s.\n\n"+
			"Review upcoming schedules or adjust spending to stay above zero.\n",
		firstNegative.Format("2006-01-02"),
		minBalance.StringFixed(2), minBalanceDay.Format("2006-01-02"),
	)
	e.Text = []byte(body)

	return s.send(e, to)
}

func (s *Sender) send(e *email.Email, to string) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
