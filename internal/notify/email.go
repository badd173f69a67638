// Package notify sends ledger alerts by email.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"

	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/report"
)

// Config holds SMTP settings and the alert addresses.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// Mailer handles sending alerts via SMTP
type Mailer struct {
	cfg  Config
	send func(*email.Email) error
}

// NewMailer creates a mailer that authenticates with PLAIN auth when a
// username is set.
func NewMailer(cfg Config) *Mailer {
	m := &Mailer{cfg: cfg}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	m.send = func(e *email.Email) error { return e.Send(addr, auth) }
	return m
}

// NotifyRenewals sends one reminder listing every upcoming renewal.
func (m *Mailer) NotifyRenewals(ctx context.Context, owner string, due []core.FixedExpense) error {
	if len(due) == 0 {
		return nil
	}
	e := m.newEmail()
	if len(due) == 1 {
		e.Subject = fmt.Sprintf("Renovación próxima: %s", due[0].Service)
	} else {
		e.Subject = fmt.Sprintf("%d renovaciones próximas", len(due))
	}
	e.Text = []byte(renewalBody(due))
	return m.deliver(ctx, owner, e)
}

// NotifyOverBudget alerts that spending exceeded the latest salary.
func (m *Mailer) NotifyOverBudget(ctx context.Context, owner string, h *report.HealthReport) error {
	if h == nil || !h.OverBudget {
		return nil
	}
	e := m.newEmail()
	e.Subject = "Alerta: gastos por encima del salario"
	e.Text = []byte(overBudgetBody(h))
	return m.deliver(ctx, owner, e)
}

func (m *Mailer) newEmail() *email.Email {
	e := email.NewEmail()
	e.From = m.cfg.From
	e.To = []string{m.cfg.To}
	return e
}

func (m *Mailer) deliver(ctx context.Context, owner string, e *email.Email) error {
	if err := m.send(e); err != nil {
		slog.ErrorContext(ctx, "Failed to send email",
			log.FieldComponent, log.ComponentNotify,
			log.FieldOperation, log.OpNotify,
			log.FieldOwner, owner,
			"subject", e.Subject,
			log.FieldError, err)
		return fmt.Errorf("send email: %w", err)
	}
	slog.InfoContext(ctx, "Email sent",
		log.FieldComponent, log.ComponentNotify,
		log.FieldOperation, log.OpNotify,
		log.FieldOwner, owner,
		"subject", e.Subject)
	return nil
}

func renewalBody(due []core.FixedExpense) string {
	var b strings.Builder
	b.WriteString("Estos gastos fijos se renuevan pronto:\n\n")
	for _, e := range due {
		when := fmt.Sprintf("en %d días", e.DaysRemaining)
		switch e.DaysRemaining {
		case 0:
			when = "hoy"
		case 1:
			when = "mañana"
		}
		fmt.Fprintf(&b, "- %s: $%s el %s (%s)\n", e.Service, e.Price.StringFixed(core.AmountPlaces), e.NextRenewal, when)
	}
	return b.String()
}

func overBudgetBody(h *report.HealthReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Salario del %s: $%s\n", h.PayDate, h.Salary.StringFixed(core.AmountPlaces))
	fmt.Fprintf(&b, "Gastos fijos mensuales: $%s\n", h.FixedTotal.StringFixed(core.AmountPlaces))
	fmt.Fprintf(&b, "Gastos generales del mes: $%s\n", h.GeneralMonthTotal.StringFixed(core.AmountPlaces))
	fmt.Fprintf(&b, "Total gastado: $%s (%s%%)\n", h.TotalSpent.StringFixed(core.AmountPlaces), h.PercentSpent.StringFixed(core.AmountPlaces))
	fmt.Fprintf(&b, "\nExcedes tu salario por $%s.\n", h.Overspend.StringFixed(core.AmountPlaces))
	return b.String()
}
