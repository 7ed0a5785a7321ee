package contact

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/textbridge/contact-backend/internal/attachment"
	"github.com/textbridge/contact-backend/internal/csrf"
	"github.com/textbridge/contact-backend/internal/logger"
)

// maxFormMemory bounds the in-memory portion of multipart parsing;
// larger parts spill to temporary files
const maxFormMemory = 4 << 20

// Handler exposes the contact form endpoints over HTTP
type Handler struct {
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewHandler creates a Handler running submissions through pipeline
func NewHandler(pipeline *Pipeline, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{pipeline: pipeline, logger: logger}
}

// Submit handles the contact form post. The method check belongs to the
// pipeline, so the route accepts all verbs and non-POST requests receive
// the pipeline's 405 response.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	req, ok := h.buildRequest(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: msgInvalidSubmission})
		return
	}

	status, resp := h.pipeline.Run(r.Context(), req)
	writeJSON(w, status, resp)
}

// CSRFToken handles the token endpoint: it returns the session's token,
// generating one on first access
func (h *Handler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := csrf.Token(r)
	if err != nil {
		h.log(r).Error("failed to issue csrf token", "error", err)
		writeJSON(w, http.StatusInternalServerError, Response{Success: false, Message: msgSecurityFailed})
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{CSRFToken: token})
}

// buildRequest assembles a SubmissionRequest from the HTTP request. Form
// parsing happens here so the pipeline itself never touches net/http
// request internals.
func (h *Handler) buildRequest(r *http.Request) (*SubmissionRequest, bool) {
	if r.Method == http.MethodPost {
		if err := parseForm(r); err != nil {
			h.log(r).Warn("unparseable form body", "error", err)
			return nil, false
		}
	}

	req := &SubmissionRequest{
		Method:       r.Method,
		ClientIP:     clientIP(r),
		Name:         r.FormValue("name"),
		Email:        r.FormValue("email"),
		Subject:      r.FormValue("subject"),
		Message:      r.FormValue("message"),
		CSRFToken:    r.FormValue("csrf_token"),
		SessionToken: csrf.SessionToken(r),
		Honeypot:     r.FormValue("website"),
		Attachment:   extractAttachment(r),
	}
	return req, true
}

// log returns the handler logger tagged with the request's correlation ID
func (h *Handler) log(r *http.Request) *slog.Logger {
	return logger.WithCorrelationID(r.Context(), h.logger)
}

// parseForm parses either a multipart or a urlencoded body
func parseForm(r *http.Request) error {
	ct := r.Header.Get("Content-Type")
	if ct != "" && len(ct) >= 19 && ct[:19] == "multipart/form-data" {
		return r.ParseMultipartForm(maxFormMemory)
	}
	return r.ParseForm()
}

// extractAttachment pulls the optional logo file out of the multipart
// form. A missing file is not an error; any other FormFile failure is a
// transport error the guard rejects with its generic upload message.
func extractAttachment(r *http.Request) *attachment.RawFile {
	if r.MultipartForm == nil {
		return nil
	}

	file, header, err := r.FormFile("logo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil
		}
		return &attachment.RawFile{TransportErr: err}
	}
	file.Close()

	return &attachment.RawFile{
		Filename:     header.Filename,
		DeclaredType: header.Header.Get("Content-Type"),
		Size:         header.Size,
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}
}

// clientIP returns the request's client identifier. The RealIP middleware
// has already folded proxy headers into RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeJSON writes a JSON response body with the given status
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
