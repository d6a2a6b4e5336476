package orchestrators

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"requisitions/internal/adapters/email"
	"requisitions/internal/domain/requisition"
)

// SubmissionNotifier is told about every committed create or edit.
type SubmissionNotifier interface {
	NotifySubmitted(ctx context.Context, mode requisition.Mode, r requisition.Requisition) error
}

// EmailNotifier mails a short summary of a committed requisition to a fixed inbox.
type EmailNotifier struct {
	Sender email.Sender
	From   string
	To     []string
}

var _ SubmissionNotifier = (*EmailNotifier)(nil)

// NotifySubmitted sends one summary message.
// PRE: r was just committed
// POST: no-op when To is empty
func (n *EmailNotifier) NotifySubmitted(ctx context.Context, mode requisition.Mode, r requisition.Requisition) error {
	if n == nil || n.Sender == nil || len(n.To) == 0 {
		return nil
	}
	_, err := n.Sender.Send(ctx, submissionMessage(n.From, n.To, mode, r))
	return err
}

func submissionMessage(from string, to []string, mode requisition.Mode, r requisition.Requisition) email.Message {
	verb := "submitted"
	if mode == requisition.ModeEdit {
		verb = "updated"
	}

	var text, body strings.Builder
	fmt.Fprintf(&text, "Requisition %s was %s.\n\n", r.RequisitionID, verb)
	fmt.Fprintf(&text, "Date: %s\nDepartment: %s\nEmployee: %s\nRequirement: %s\nCategory: %s\nQuantity: %d\n\nItems:\n",
		requisition.FormatDisplayDate(r.Date), r.Department, r.Employee, r.Requirement, r.Category, r.Quantity)

	fmt.Fprintf(&body, "<p>Requisition <strong>%s</strong> was %s.</p><ul>", html.EscapeString(r.RequisitionID), verb)
	for _, it := range r.Items {
		fmt.Fprintf(&text, "- %s x%d\n", it.Name, it.Quantity)
		fmt.Fprintf(&body, "<li>%s &times; %d</li>", html.EscapeString(it.Name), it.Quantity)
	}
	body.WriteString("</ul>")

	return email.Message{
		To:      to,
		From:    from,
		Subject: fmt.Sprintf("Purchase requisition %s %s", r.RequisitionID, verb),
		HTML:    body.String(),
		Text:    text.String(),
	}
}

// notifyBestEffort never fails the caller; delivery problems are logged.
func notifyBestEffort(ctx context.Context, n SubmissionNotifier, mode requisition.Mode, r requisition.Requisition) {
	if n == nil {
		return
	}
	if err := n.NotifySubmitted(ctx, mode, r); err != nil {
		slog.Warn("requisition_notify_failed", "requisition_id", r.RequisitionID, "id", r.ID, "error", err)
	}
}
