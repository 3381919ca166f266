package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docbot-auth-service/pkg/docbot"
	"docbot-auth-service/pkg/logger"
)

const msgBackendUnavailable = "Chat backend unavailable"

// ChatBackend is the remote document-chat service
type ChatBackend interface {
	Ask(ctx context.Context, sessionName, userInput string) (*docbot.AskResponse, error)
	UploadPDFs(ctx context.Context, sessionName string, files []docbot.File) (*docbot.UploadResponse, error)
	Sessions(ctx context.Context) (*docbot.SessionsResponse, error)
	DeleteSession(ctx context.Context, sessionName string) (*docbot.DeleteResponse, error)
}

// ChatHandler forwards authenticated chat requests to the backend
type ChatHandler struct {
	backend        ChatBackend
	log            *zap.Logger
	maxUploadBytes int64
}

// NewChatHandler creates a new ChatHandler. maxUploadBytes caps the
// multipart body of an upload.
func NewChatHandler(backend ChatBackend, log *zap.Logger, maxUploadBytes int64) *ChatHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 32 << 20
	}
	return &ChatHandler{backend: backend, log: log, maxUploadBytes: maxUploadBytes}
}

// AskRequest represents the body of /chat/ask
type AskRequest struct {
	UserInput   string `json:"user_input"`
	SessionName string `json:"session_name"`
}

// Ask handles POST /chat/ask
func (h *ChatHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.SessionName == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Session name is required"})
		return
	}
	if req.UserInput == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Query cannot be empty"})
		return
	}

	resp, err := h.backend.Ask(c.Request.Context(), req.SessionName, req.UserInput)
	if err != nil {
		h.relayError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UploadPDFs handles POST /chat/upload_pdfs (multipart: session_name, pdfs)
func (h *ChatHandler) UploadPDFs(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Upload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid upload"})
		return
	}

	sessionName := c.PostForm("session_name")
	if sessionName == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Session name is required"})
		return
	}

	headers := form.File["pdfs"]
	if len(headers) == 0 || len(headers) > docbot.MaxFilesPerUpload {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Upload between 1 and 3 PDFs"})
		return
	}

	files := make([]docbot.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid upload"})
			return
		}
		defer func(f multipart.File) { _ = f.Close() }(f)
		files = append(files, docbot.File{Name: fh.Filename, Content: f})
	}

	resp, err := h.backend.UploadPDFs(c.Request.Context(), sessionName, files)
	if err != nil {
		h.relayError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Sessions handles GET /chat/sessions
func (h *ChatHandler) Sessions(c *gin.Context) {
	resp, err := h.backend.Sessions(c.Request.Context())
	if err != nil {
		h.relayError(c, err)
		return
	}
	if resp.Sessions == nil {
		resp.Sessions = []string{}
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteSession handles DELETE /chat/sessions/:name
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	resp, err := h.backend.DeleteSession(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.relayError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// relayError passes backend 4xx answers through unchanged and turns
// everything else into 502.
func (h *ChatHandler) relayError(c *gin.Context, err error) {
	var httpErr *docbot.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 {
		c.JSON(httpErr.StatusCode, ErrorResponse{Error: httpErr.Message})
		return
	}

	logger.WithContext(c.Request.Context(), h.log).Error("chat backend call failed", zap.Error(err))
	_ = c.Error(err)
	c.JSON(http.StatusBadGateway, ErrorResponse{Error: msgBackendUnavailable})
}
