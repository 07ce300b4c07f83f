// Package handler exposes the clearance service over HTTP with Gin.
package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GangaMannan/CustomsClearnace/internal/clearance"
	"github.com/GangaMannan/CustomsClearnace/internal/docindex"
	"github.com/GangaMannan/CustomsClearnace/internal/fingerprint"
	"github.com/GangaMannan/CustomsClearnace/internal/identity"
	"github.com/GangaMannan/CustomsClearnace/internal/ledger"
)

// DocumentHandler handles document anchoring and verification requests.
type DocumentHandler struct {
	svc    *clearance.Service
	tokens *identity.TokenIssuer // nil = no auth enforcement (dev mode)
	logger *zap.Logger
}

// NewDocumentHandler creates a DocumentHandler. tokens may be nil to
// disable submitter auth on the anchoring route.
func NewDocumentHandler(svc *clearance.Service, tokens *identity.TokenIssuer, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{svc: svc, tokens: tokens, logger: logger}
}

func (h *DocumentHandler) requireToken() gin.HandlerFunc {
	if h.tokens == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return identity.RequireToken(h.tokens)
}

// Register registers document routes on the given router group.
func (h *DocumentHandler) Register(rg *gin.RouterGroup) {
	docs := rg.Group("/documents")
	{
		docs.POST("", h.requireToken(), h.SubmitDocument)
		docs.GET("/:fingerprint", h.VerifyDocument)
		docs.GET("/:fingerprint/content", h.GetContent)
	}
}

// SubmitDocument handles POST /documents. The document travels as the
// "document" file field of a multipart form, alongside the required
// declared_value integer field. The market reference is service
// configuration and never read from the request.
func (h *DocumentHandler) SubmitDocument(c *gin.Context) {
	file, _, err := c.Request.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'document' is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read document: " + err.Error()})
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document is empty"})
		return
	}

	declared, err := strconv.ParseInt(c.PostForm("declared_value"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "declared_value must be an integer"})
		return
	}

	res, err := h.svc.Submit(c.Request.Context(), &clearance.SubmitRequest{
		Document:      data,
		DeclaredValue: declared,
		Submitter:     identity.SubmitterFromCtx(c),
	})
	if err != nil {
		h.writeSubmitError(c, err)
		return
	}

	RecordSubmission(string(res.Channel), len(data), res.Receipt.Reused)

	status := http.StatusCreated
	if res.Receipt.Reused {
		status = http.StatusOK
	}
	c.JSON(status, res)
}

func (h *DocumentHandler) writeSubmitError(c *gin.Context, err error) {
	var stageErr *clearance.StageError
	if !errors.As(err, &stageErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.logger.Error("submission failed",
		zap.String("stage", string(stageErr.Stage)),
		zap.Error(stageErr.Err),
	)

	// A conflicting commit is the caller's problem; everything else is
	// infrastructure and retryable.
	switch {
	case errors.Is(err, ledger.ErrRejected), errors.Is(err, docindex.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error": "fingerprint already anchored with different values",
			"stage": stageErr.Stage,
		})
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": stageErr.Error(),
			"stage": stageErr.Stage,
		})
	}
}

// VerifyDocument handles GET /documents/:fingerprint. An optional
// ?locator= query supplies a manual locator when the local index has no
// entry for the fingerprint.
func (h *DocumentHandler) VerifyDocument(c *gin.Context) {
	res, ok := h.verify(c)
	if !ok {
		return
	}

	RecordVerification(string(res.Outcome))

	status := http.StatusOK
	if res.Outcome == clearance.OutcomeNotFound {
		status = http.StatusNotFound
	}
	c.JSON(status, res)
}

// GetContent handles GET /documents/:fingerprint/content, streaming the
// original bytes when verification succeeds end to end.
func (h *DocumentHandler) GetContent(c *gin.Context) {
	res, ok := h.verify(c)
	if !ok {
		return
	}

	if res.Outcome != clearance.OutcomeVerified {
		status := http.StatusConflict
		if res.Outcome == clearance.OutcomeNotFound {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "document not retrievable", "outcome": res.Outcome})
		return
	}

	c.Header("X-Clearance-Channel", string(res.Channel))
	c.Data(http.StatusOK, "application/octet-stream", res.Document)
}

func (h *DocumentHandler) verify(c *gin.Context) (*clearance.VerifyResult, bool) {
	fp, err := fingerprint.Parse(c.Param("fingerprint"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fingerprint: " + err.Error()})
		return nil, false
	}

	res, err := h.svc.Verify(c.Request.Context(), fp, c.Query("locator"))
	if err != nil {
		var stageErr *clearance.StageError
		if errors.As(err, &stageErr) {
			h.logger.Error("verification failed",
				zap.String("stage", string(stageErr.Stage)),
				zap.Error(stageErr.Err),
			)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": stageErr.Error(),
				"stage": stageErr.Stage,
			})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		return nil, false
	}
	return res, true
}
