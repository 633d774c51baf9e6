package registrar

import (
	"context"
	"fmt"
	"strings"

	"github.com/dskm-project/dskm/model"
	"github.com/dskm-project/dskm/notify"
)

// MailTrackingID is the tracking id of DS changes handed over by mail
const MailTrackingID = "E-Mail sent"

// ByHand asks people to maintain the DS at the parent: the requested DS and DNSKEY records are
// mailed to the recipients.
type ByHand struct {
	name       string
	sender     notify.Sender
	recipients []string
}

// NewByHand creates an adapter mailing to the recipients
func NewByHand(name string, sender notify.Sender, recipients []string) *ByHand {
	return &ByHand{name: name, sender: sender, recipients: recipients}
}

// Name implements `Registrar`.
func (r *ByHand) Name() string {
	return r.name
}

// SubmitDS implements `Registrar`.
func (r *ByHand) SubmitDS(ctx context.Context, zone string, args []model.DSArg) (*Result, error) {
	if err := model.ValidateDSArgs(args); err != nil {
		return nil, err
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "Please ask the parent zone operator to adjust (delete/add) DS-RR / DNSKEY-RR for zone\n\t%s\n\n",
		zone)
	sb.WriteString("Inspect the following list of DS-RR / DNSKEY-RR pairs carefully.\n" +
		"Any pairs existing at the parent and not in the following list must be deleted.\n" +
		"Any pairs missing at the parent must be added.\n")

	for i, arg := range args {
		fmt.Fprintf(&sb, "\n\nDS-RR / DNSKEY-RR %d -------------------------------------\n", i+1)
		fmt.Fprintf(&sb, "DS\t%s\n", arg)
		fmt.Fprintf(&sb, "DNSKEY\t%d 3 %d %s\n", arg.Flags, arg.Algorithm, arg.PublicKey)
	}

	return r.send(ctx, fmt.Sprintf("DS-RR handover to parent of zone %s required", zone), sb.String())
}

// RemoveAllDS implements `Registrar`.
func (r *ByHand) RemoveAllDS(ctx context.Context, zone string) (*Result, error) {
	body := fmt.Sprintf("Please ask the parent zone operator to remove all DS-RR for zone\n\t%s\nfrom the parent zone.\n",
		zone)

	return r.send(ctx, fmt.Sprintf("Deletion of DS-RR of zone %s required", zone), body)
}

func (r *ByHand) send(ctx context.Context, subject, body string) (*Result, error) {
	body += "\nEnd of message ----------------------------------\n"

	if err := r.sender.Send(ctx, r.recipients, subject, body); err != nil {
		return nil, fmt.Errorf("can't hand over DS by mail: %w", err)
	}

	return &Result{TrackingID: MailTrackingID, Success: true}, nil
}

// ListPending implements `Registrar`.
func (r *ByHand) ListPending(context.Context, string) (*Result, error) {
	return nil, ErrNotSupported
}

// DeleteResult implements `Registrar`.
func (r *ByHand) DeleteResult(context.Context, string) error {
	return ErrNotSupported
}
