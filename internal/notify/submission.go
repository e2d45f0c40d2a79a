package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/contact-intake/internal/contacts"
	"github.com/wolfman30/contact-intake/pkg/logging"
)

const submissionSubject = "New Contact Form Submission - AllSafe"

// SubmissionNotifier emails the site owner about accepted contact submissions.
type SubmissionNotifier struct {
	sender EmailSender
	to     string
	now    func() time.Time
	logger *logging.Logger
}

// NewSubmissionNotifier returns a notifier that sends to the given address.
// With no recipient configured it only logs.
func NewSubmissionNotifier(sender EmailSender, to string, logger *logging.Logger) *SubmissionNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	if sender == nil {
		sender = NewStubEmailSender(logger)
	}
	return &SubmissionNotifier{
		sender: sender,
		to:     strings.TrimSpace(to),
		now:    time.Now,
		logger: logger,
	}
}

// SubmissionReceived implements contacts.Notifier.
func (n *SubmissionNotifier) SubmissionReceived(ctx context.Context, sub *contacts.Submission) error {
	if sub == nil {
		return nil
	}
	if n.to == "" {
		n.logger.Debug("no notification recipient configured", "id", sub.ID)
		return nil
	}
	msg := EmailMessage{
		To:      n.to,
		ReplyTo: sub.Email,
		Subject: submissionSubject,
		Body:    FormatSubmission(sub, n.now()),
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: submission %d: %w", sub.ID, err)
	}
	return nil
}

// FormatSubmission renders the plain-text notification body.
func FormatSubmission(sub *contacts.Submission, at time.Time) string {
	company := sub.Company
	if company == "" {
		company = "Not provided"
	}

	var b strings.Builder
	b.WriteString("New Contact Form Submission from AllSafe Website\n\n")
	fmt.Fprintf(&b, "Name: %s\n", sub.Name)
	fmt.Fprintf(&b, "Email: %s\n", sub.Email)
	fmt.Fprintf(&b, "Company: %s\n", company)
	fmt.Fprintf(&b, "Service: %s\n\n", sub.Service)
	b.WriteString("Message:\n")
	b.WriteString(sub.Message)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Submitted on: %s\n", at.Format(time.RFC1123))
	if !sub.Persisted {
		b.WriteString("\nNote: the contact store was unavailable; this submission was not saved.\n")
	}
	return b.String()
}
