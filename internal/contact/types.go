package contact

import (
	"github.com/textbridge/contact-backend/internal/attachment"
)

// SubmissionRequest carries one raw form submission through the pipeline.
// Field values are as received; sanitization happens inside the pipeline.
type SubmissionRequest struct {
	Method   string
	ClientIP string

	Name    string
	Email   string
	Subject string
	Message string

	// CSRFToken is the token submitted with the form; SessionToken is the
	// one stored in the submitter's session
	CSRFToken    string
	SessionToken string

	// Honeypot is the hidden "website" field; any non-empty value marks
	// the submission as automated
	Honeypot string

	Attachment *attachment.RawFile
}

// Response is the JSON payload returned for every terminal outcome
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TokenResponse is the payload of the CSRF token endpoint
type TokenResponse struct {
	CSRFToken string `json:"csrf_token"`
}
