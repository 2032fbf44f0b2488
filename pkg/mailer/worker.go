package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mailtpl "github.com/oksasatya/offer-marketplace/pkg/mailer/templates"
)

// Sender delivers one rendered email.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Outcome tells the consumer what to do with the delivery.
type Outcome int

const (
	Ack     Outcome = iota // sent
	Drop                   // malformed, never retry
	Requeue                // transient send failure
)

var ErrInvalidJob = errors.New("invalid email job")

// Prepare validates a job and renders its template, if any, into Subject/Text/HTML.
func Prepare(job *EmailJob) error {
	job.To = strings.TrimSpace(job.To)
	if job.To == "" {
		return fmt.Errorf("%w: missing recipient", ErrInvalidJob)
	}
	if job.Template != "" {
		s, t, h, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidJob, err)
		}
		job.Subject, job.Text, job.HTML = s, t, h
	}
	if job.Subject == "" || (job.Text == "" && job.HTML == "") {
		return fmt.Errorf("%w: subject and body required", ErrInvalidJob)
	}
	return nil
}

// Handle decodes, renders and sends one queued message.
func Handle(ctx context.Context, s Sender, body []byte) (Outcome, error) {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return Drop, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	if err := Prepare(&job); err != nil {
		return Drop, err
	}
	if err := s.Send(ctx, job.To, job.Subject, job.Text, job.HTML); err != nil {
		return Requeue, err
	}
	return Ack, nil
}
