package handler

import (
	"log"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sentiscope/internal/domain"
	"sentiscope/internal/intake"
	"sentiscope/internal/session"
)

// SessionRegistry is the session lookup the handlers need.
type SessionRegistry interface {
	Create(mode domain.SelectionMode) *session.Session
	Get(id string) (*session.Session, error)
	Delete(id string) error
}

// SessionHandler handles session and selection endpoints.
type SessionHandler struct {
	sessions SessionRegistry
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions SessionRegistry) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// CreateSessionRequest is the body of POST /api/v1/sessions.
type CreateSessionRequest struct {
	Mode string `json:"mode"`
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	var req CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "body must be JSON with an optional mode")
			return
		}
	}
	s := h.sessions.Create(domain.ParseSelectionMode(req.Mode))
	RespondCreated(c, s.Snapshot())
}

// Get handles GET /api/v1/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	RespondOK(c, s.Snapshot())
}

// Delete handles DELETE /api/v1/sessions/:id
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "session closed"})
}

// AddFiles handles POST /api/v1/sessions/:id/files
func (h *SessionHandler) AddFiles(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILES", "multipart field files is required")
		return
	}
	headers := append(form.File["files"], form.File["files[]"]...)
	if len(headers) == 0 {
		RespondError(c, http.StatusBadRequest, "MISSING_FILES", "multipart field files is required")
		return
	}

	candidates, err := readCandidates(headers)
	if err != nil {
		log.Printf("sessionHandler.AddFiles: reading upload for %s: %v", s.ID, err)
		RespondError(c, http.StatusBadRequest, "INVALID_UPLOAD", "could not read uploaded files")
		return
	}

	res, err := s.AddFiles(c.Request.Context(), candidates)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, AddFilesResponse{
		Accepted: res.Accepted,
		Rejected: rejectionViews(res.Rejected),
		Notice:   res.Notice,
		Session:  s.Snapshot(),
	})
}

// RemoveFile handles DELETE /api/v1/sessions/:id/files/:index
func (h *SessionHandler) RemoveFile(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_INDEX", "index must be an integer")
		return
	}
	if err := s.RemoveFile(c.Request.Context(), index); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, s.Snapshot())
}

// ClearFiles handles DELETE /api/v1/sessions/:id/files
func (h *SessionHandler) ClearFiles(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	if err := s.ClearFiles(c.Request.Context()); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, s.Snapshot())
}

func (h *SessionHandler) lookup(c *gin.Context) (*session.Session, bool) {
	return lookupSession(c, h.sessions)
}

func lookupSession(c *gin.Context, sessions SessionRegistry) (*session.Session, bool) {
	s, err := sessions.Get(c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return nil, false
	}
	return s, true
}

// AddFilesResponse is the payload of POST /api/v1/sessions/:id/files.
type AddFilesResponse struct {
	Accepted []domain.FileCandidate `json:"accepted"`
	Rejected []RejectionView        `json:"rejected"`
	Notice   intake.Notice          `json:"notice"`
	Session  session.Snapshot       `json:"session"`
}

// RejectionView is a refused file with a readable reason.
type RejectionView struct {
	Name    string                 `json:"name"`
	Size    int64                  `json:"size"`
	Reason  domain.RejectionReason `json:"reason"`
	Message string                 `json:"message"`
}

func rejectionViews(rejected []domain.Rejection) []RejectionView {
	out := make([]RejectionView, 0, len(rejected))
	for _, r := range rejected {
		out = append(out, RejectionView{
			Name:    r.Candidate.Name,
			Size:    r.Candidate.Size,
			Reason:  r.Reason,
			Message: intake.ReasonText(r.Reason),
		})
	}
	return out
}

func readCandidates(headers []*multipart.FileHeader) ([]domain.FileCandidate, error) {
	out := make([]domain.FileCandidate, 0, len(headers))
	for _, fh := range headers {
		f, err := intake.FromMultipart(fh)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
