package buyer

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"buyerleads/internal/pkg/csvutil"
	"buyerleads/internal/pkg/response"
)

const maxImportBytes = 5 << 20

// Handler handles buyer HTTP requests
type Handler struct {
	service     *Service
	hub         *Hub
	log         *zap.Logger
	maxFailures int
}

// NewHandler creates buyer handler. hub may be nil to disable /ws.
func NewHandler(service *Service, hub *Hub, log *zap.Logger, maxImportFailures int) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		service:     service,
		hub:         hub,
		log:         log.Named("buyer.http"),
		maxFailures: maxImportFailures,
	}
}

// ownerID is set by the auth middleware and is the only source of tenancy.
func ownerID(c *gin.Context) string {
	return c.GetString("user_id")
}

// List handles GET /api/v1/buyers
func (h *Handler) List(c *gin.Context) {
	spec := BuildFilter(c.Request.URL.Query())

	page, err := h.service.List(c.Request.Context(), spec, ownerID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Paginated(c, http.StatusOK, page.Data, page.Pagination)
}

// Create handles POST /api/v1/buyers
func (h *Handler) Create(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	b, err := h.service.Create(c.Request.Context(), in, ownerID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, b)
}

// Get handles GET /api/v1/buyers/:id
func (h *Handler) Get(c *gin.Context) {
	b, err := h.service.GetDetail(c.Request.Context(), c.Param("id"), ownerID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if b == nil {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Buyer not found")
		return
	}

	response.Success(c, http.StatusOK, b)
}

// Update handles PUT /api/v1/buyers/:id
func (h *Handler) Update(c *gin.Context) {
	var in UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	b, err := h.service.Update(c.Request.Context(), c.Param("id"), &in, ownerID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, b)
}

// Delete handles DELETE /api/v1/buyers/:id
func (h *Handler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.Delete(c.Request.Context(), id, ownerID(c)); err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

// History handles GET /api/v1/buyers/:id/history
func (h *Handler) History(c *gin.Context) {
	entries, err := h.service.GetHistory(c.Request.Context(), c.Param("id"), ownerID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, entries)
}

// Stats handles GET /api/v1/buyers/stats
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context(), ownerID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// Activity handles GET /api/v1/buyers/activity
func (h *Handler) Activity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	entries, err := h.service.RecentActivity(c.Request.Context(), ownerID(c), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, entries)
}

// Export handles GET /api/v1/buyers/export
func (h *Handler) Export(c *gin.Context) {
	spec := BuildFilter(c.Request.URL.Query())
	filename := fmt.Sprintf("buyers-export-%s.csv", time.Now().UTC().Format("2006-01-02"))

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Status(http.StatusOK)

	n, err := h.service.Export(c.Request.Context(), spec, ownerID(c), c.Writer)
	if err != nil {
		// Headers are already sent; all we can do is log and cut the stream.
		h.log.Error("export failed", zap.String("owner_id", ownerID(c)), zap.Int("rows", n), zap.Error(err))
		_ = c.Error(err)
		return
	}
}

type importRequest struct {
	Data       []map[string]any `json:"data"`
	SkipErrors bool             `json:"skipErrors"`
}

// Import handles POST /api/v1/buyers/import. It accepts either a JSON body
// of pre-parsed rows or a multipart "file" upload.
func (h *Handler) Import(c *gin.Context) {
	var (
		rows       []map[string]string
		skipErrors bool
	)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
		fh, err := c.FormFile("file")
		if err != nil {
			response.Error(c, http.StatusBadRequest, "MISSING_FILE", "CSV file is required")
			return
		}
		f, err := fh.Open()
		if err != nil {
			response.Error(c, http.StatusBadRequest, "INVALID_FILE", "Could not read uploaded file")
			return
		}
		defer f.Close()

		rows, err = csvutil.Parse(f)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "INVALID_CSV", err.Error())
			return
		}
		skipErrors, _ = strconv.ParseBool(c.PostForm("skipErrors"))
	} else {
		var req importRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
			return
		}
		rows = make([]map[string]string, 0, len(req.Data))
		for _, r := range req.Data {
			rows = append(rows, stringifyRow(r))
		}
		skipErrors = req.SkipErrors
	}

	if len(rows) == 0 {
		response.Error(c, http.StatusBadRequest, "EMPTY_IMPORT", "No rows to import")
		return
	}

	res, err := h.service.Import(c.Request.Context(), rows, ownerID(c), ImportOptions{
		SkipErrors:  skipErrors,
		MaxFailures: h.maxFailures,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}

// Live handles GET /api/v1/buyers/ws
func (h *Handler) Live(c *gin.Context) {
	if h.hub == nil {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Live updates are disabled")
		return
	}
	if err := h.hub.ServeWS(c.Writer, c.Request, ownerID(c)); err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid buyer data", verr.Fields)
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Buyer not found")
	case errors.Is(err, ErrNoOwner):
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	case errors.Is(err, ErrUnauthorized):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You don't own this buyer")
	case errors.Is(err, ErrConflict):
		response.Error(c, http.StatusConflict, "CONFLICT", "Buyer was modified by another request, reload and retry")
	case errors.Is(err, ErrConstraintViolation):
		response.Error(c, http.StatusUnprocessableEntity, "CONSTRAINT_VIOLATION", "Buyer data violates storage constraints")
	default:
		h.log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("owner_id", ownerID(c)),
			zap.Error(err),
		)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

// stringifyRow flattens a JSON import row to CSV-like cells. Arrays are
// joined with commas so tags can be sent either way.
func stringifyRow(r map[string]any) map[string]string {
	out := make(map[string]string, len(r))
	for k, v := range r {
		out[k] = cell(v)
	}
	return out
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, cell(p))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}
