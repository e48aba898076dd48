package mailer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mailtpl "github.com/oksasatya/go-task-manager/pkg/mailer/templates"
)

// ErrMalformedJob marks a job that can never be delivered; it should be dropped, not retried.
var ErrMalformedJob = errors.New("malformed email job")

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Template (with Data) or a literal Subject/Text/HTML is used.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // "welcome" or "cancellation"
	Data     map[string]any `json:"data,omitempty"`
}

// DecodeJob parses a queued job and checks it has a recipient.
func DecodeJob(body []byte) (*EmailJob, error) {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJob, err)
	}
	if strings.TrimSpace(job.To) == "" {
		return nil, fmt.Errorf("%w: missing recipient", ErrMalformedJob)
	}
	return &job, nil
}

// Content resolves the subject, text and html of a job, rendering its template if it names one.
func (j *EmailJob) Content() (subject, text, html string, err error) {
	if j.Template == "" {
		if j.Subject == "" || (j.Text == "" && j.HTML == "") {
			return "", "", "", fmt.Errorf("%w: no template and no body", ErrMalformedJob)
		}
		return j.Subject, j.Text, j.HTML, nil
	}
	subject, text, html, err = mailtpl.Render(j.Template, j.Data)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: render %s: %v", ErrMalformedJob, j.Template, err)
	}
	return subject, text, html, nil
}
