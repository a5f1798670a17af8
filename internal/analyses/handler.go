package analyses

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"ats-backend/internal/shared/server/respond"
	"ats-backend/internal/shared/telemetry"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/analyze", h.analyze)
	r.GET("/analyses", h.list)
}

func (h *Handler) analyze(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("resume")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "Resume file missing")
		return
	}

	jobDescription := strings.TrimSpace(c.PostForm("job_description"))
	if jobDescription == "" {
		respond.Error(c, http.StatusBadRequest, "Job description required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		telemetry.Error("analyses.open_upload_failed", map[string]any{
			"err":        err.Error(),
			"request_id": c.GetString("requestId"),
		})
		respond.Error(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	defer file.Close()

	result, err := h.Svc.Analyze(c.Request.Context(), fileHeader.Filename, file, jobDescription)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoExtractableText):
			respond.Error(c, http.StatusBadRequest, "Could not extract text from the uploaded PDF")
		default:
			telemetry.Error("analyses.analyze_failed", map[string]any{
				"err":        err.Error(),
				"request_id": c.GetString("requestId"),
			})
			respond.Error(c, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	respond.OK(c, result)
}

func (h *Handler) list(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			respond.Error(c, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	records, err := h.Svc.Repo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		telemetry.Error("analyses.list_failed", map[string]any{
			"err":        err.Error(),
			"request_id": c.GetString("requestId"),
		})
		respond.Error(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	out := make([]analysisResponse, 0, len(records))
	for _, a := range records {
		out = append(out, toResponse(a))
	}
	respond.OK(c, gin.H{"analyses": out})
}
