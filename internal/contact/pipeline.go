// Package contact implements the submission admission pipeline: the
// ordered sequence of checks between an inbound form post and the relay
// of its message to the recipient mailbox.
package contact

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/textbridge/contact-backend/internal/attachment"
	"github.com/textbridge/contact-backend/internal/audit"
	"github.com/textbridge/contact-backend/internal/csrf"
	"github.com/textbridge/contact-backend/internal/logger"
	"github.com/textbridge/contact-backend/internal/mailer"
	"github.com/textbridge/contact-backend/internal/metrics"
	"github.com/textbridge/contact-backend/internal/sanitizer"
	"github.com/textbridge/contact-backend/internal/validation"
)

// User-facing messages. Rejections other than field validation stay
// deliberately generic: they must not reveal which defense fired or any
// server internals.
const (
	msgInvalidMethod     = "Invalid request method."
	msgRateLimited       = "Too many attempts. Please try again later."
	msgInvalidSubmission = "Invalid submission."
	msgSecurityFailed    = "Security validation failed. Please refresh the page and try again."
	msgDeliveryFailed    = "Failed to send message. Please try again later or contact us directly via email."
	msgSuccess           = "Thank you for your message! We will get back to you soon."
)

// Mailer relays a validated message; the transport behind it is an
// external concern
type Mailer interface {
	Send(ctx context.Context, msg *mailer.Message) error
}

// RateAdmitter decides whether a client may submit another attempt
type RateAdmitter interface {
	Admit(ctx context.Context, clientID string) bool
}

// AttachmentGuard validates and stores an optional upload
type AttachmentGuard interface {
	Accept(f *attachment.RawFile) (*attachment.Record, error)
}

// AuditLog records terminal outcomes
type AuditLog interface {
	Record(e audit.Entry)
}

// FailureStore persists undelivered messages for manual recovery
type FailureStore interface {
	Record(rec audit.FailedSubmission)
}

// rejection is a terminal non-success outcome of a single check
type rejection struct {
	status  int
	message string
}

// runState accumulates per-request results as the checks execute
type runState struct {
	req *SubmissionRequest

	// sanitized field values
	name    string
	email   string
	subject string
	message string

	// violation messages gathered by the field and attachment checks
	violations []string

	attachmentPath string
}

// check is one named step of the admission sequence
type check struct {
	name string
	run  func(ctx context.Context, st *runState) *rejection
}

// Pipeline runs the fixed admission sequence over one submission and
// drives delivery plus fallback persistence
type Pipeline struct {
	limiter  RateAdmitter
	guard    AttachmentGuard
	mailer   Mailer
	auditLog AuditLog
	failures FailureStore
	logger   *slog.Logger

	checks []check

	// now is injectable for tests
	now func() time.Time
}

// NewPipeline wires the admission checks in their fixed order: method,
// rate limit, honeypot, CSRF, fields, attachment. Abuse checks run before
// any content is inspected.
func NewPipeline(limiter RateAdmitter, guard AttachmentGuard, m Mailer, auditLog AuditLog, failures FailureStore, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		limiter:  limiter,
		guard:    guard,
		mailer:   m,
		auditLog: auditLog,
		failures: failures,
		logger:   logger,
		now:      time.Now,
	}
	p.checks = []check{
		{"method", p.checkMethod},
		{"rate_limit", p.checkRateLimit},
		{"honeypot", p.checkHoneypot},
		{"csrf", p.checkCSRF},
		{"fields", p.checkFields},
		{"attachment", p.checkAttachment},
	}
	return p
}

// CheckOrder returns the names of the admission checks in execution
// order; the sequence is part of the pipeline's contract
func (p *Pipeline) CheckOrder() []string {
	names := make([]string, len(p.checks))
	for i, c := range p.checks {
		names[i] = c.name
	}
	return names
}

// Run executes the admission sequence and, if every check passes, builds
// the validated message and attempts delivery. It returns the HTTP status
// and the response payload for the terminal outcome.
func (p *Pipeline) Run(ctx context.Context, req *SubmissionRequest) (int, Response) {
	st := &runState{req: req}

	log := logger.WithCorrelationID(ctx, p.logger)

	for _, c := range p.checks {
		if rej := c.run(ctx, st); rej != nil {
			metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
			metrics.RejectionsTotal.WithLabelValues(c.name).Inc()
			log.Info("submission rejected",
				"check", c.name,
				"client_ip", sanitizer.LogSafe(req.ClientIP),
			)
			return rej.status, Response{Success: false, Message: rej.message}
		}
	}

	return p.deliver(ctx, st)
}

// checkMethod rejects anything but POST before any side effect
func (p *Pipeline) checkMethod(ctx context.Context, st *runState) *rejection {
	if st.req.Method != http.MethodPost {
		return &rejection{http.StatusMethodNotAllowed, msgInvalidMethod}
	}
	return nil
}

// checkRateLimit consults the shared window; a rejected attempt is not
// recorded, so hammering the endpoint cannot extend the lockout
func (p *Pipeline) checkRateLimit(ctx context.Context, st *runState) *rejection {
	if !p.limiter.Admit(ctx, st.req.ClientIP) {
		return &rejection{http.StatusTooManyRequests, msgRateLimited}
	}
	return nil
}

// checkHoneypot treats any value in the hidden field as a bot. The
// response is generic so the sender learns nothing about the defense.
func (p *Pipeline) checkHoneypot(ctx context.Context, st *runState) *rejection {
	if st.req.Honeypot != "" {
		return &rejection{http.StatusBadRequest, msgInvalidSubmission}
	}
	return nil
}

// checkCSRF compares the submitted token with the session token in
// constant time; it runs before any field content is inspected
func (p *Pipeline) checkCSRF(ctx context.Context, st *runState) *rejection {
	if !csrf.Match(st.req.CSRFToken, st.req.SessionToken) {
		return &rejection{http.StatusBadRequest, msgSecurityFailed}
	}
	return nil
}

// checkFields sanitizes the free-text fields and collects per-field
// violations. It never rejects on its own: the attachment check appends
// its own violation first so the submitter sees the combined list.
func (p *Pipeline) checkFields(ctx context.Context, st *runState) *rejection {
	st.name = sanitizer.Sanitize(st.req.Name)
	st.email = sanitizer.Sanitize(st.req.Email)
	st.subject = sanitizer.Sanitize(st.req.Subject)
	st.message = sanitizer.Sanitize(st.req.Message)

	st.violations = validation.Validate(st.name, st.email, st.subject, st.message)
	return nil
}

// checkAttachment validates and stores the optional upload, appends any
// rejection reason to the violation list, and turns a non-empty list into
// the terminal validation rejection
func (p *Pipeline) checkAttachment(ctx context.Context, st *runState) *rejection {
	if st.req.Attachment != nil {
		rec, err := p.guard.Accept(st.req.Attachment)
		if err != nil {
			st.violations = append(st.violations, err.Error())
		} else {
			st.attachmentPath = rec.StoredPath
			metrics.AttachmentsStored.Inc()
		}
	}

	if len(st.violations) > 0 {
		return &rejection{http.StatusBadRequest, strings.Join(st.violations, " ")}
	}
	return nil
}

// deliver builds the validated message, invokes the mailer once and
// records the outcome. A failed delivery persists the full sanitized
// content so the message is never silently lost.
func (p *Pipeline) deliver(ctx context.Context, st *runState) (int, Response) {
	now := p.now()
	msg := &mailer.Message{
		Name:           st.name,
		Email:          st.email,
		Subject:        st.subject,
		Body:           st.message,
		AttachmentPath: st.attachmentPath,
		ClientIP:       st.req.ClientIP,
		SubmittedAt:    now,
	}

	start := time.Now()
	err := p.mailer.Send(ctx, msg)
	metrics.DeliveryDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		logger.WithCorrelationID(ctx, p.logger).Error("mail delivery failed",
			"error", err,
			"client_ip", sanitizer.LogSafe(st.req.ClientIP),
		)
		p.auditLog.Record(audit.Entry{Timestamp: now, Status: audit.StatusFailed, ClientIP: st.req.ClientIP})
		p.failures.Record(audit.FailedSubmission{
			Timestamp: now,
			ClientIP:  st.req.ClientIP,
			Name:      st.name,
			Email:     st.email,
			Subject:   st.subject,
			Message:   st.message,
		})
		metrics.SubmissionsTotal.WithLabelValues("delivery_failed").Inc()
		metrics.FailedSubmissionsPersisted.Inc()
		return http.StatusInternalServerError, Response{Success: false, Message: msgDeliveryFailed}
	}

	p.auditLog.Record(audit.Entry{Timestamp: now, Status: audit.StatusSuccess, ClientIP: st.req.ClientIP})
	metrics.SubmissionsTotal.WithLabelValues("delivered").Inc()
	return http.StatusOK, Response{Success: true, Message: msgSuccess}
}
