package http

import (
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/pointage/internal/attachment"
	"github.com/nurpe/pointage/internal/http/middleware"
	"github.com/nurpe/pointage/internal/model"
	"github.com/nurpe/pointage/internal/service"
)

type Handler struct {
	timesheets *service.TimesheetService
	status     *service.StatusService
	log        zerolog.Logger
}

func NewHandler(timesheets *service.TimesheetService, status *service.StatusService, log zerolog.Logger) *Handler {
	return &Handler{timesheets: timesheets, status: status, log: log}
}

// Register mounts the routes. authMiddleware may be nil, in which case the
// timesheet routes are open and share one owner.
func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.GET("/", h.root)
	router.GET("/api/health", h.health)
	router.GET("/api/test/users", h.countUsers)

	api := router.Group("/api")
	if authMiddleware != nil {
		api.Use(authMiddleware)
	}

	pointages := api.Group("/pointages/:year/:month")
	pointages.GET("", h.getPeriod)
	pointages.POST("/entries", h.addEntry)
	pointages.PATCH("/entries/:id", h.updateEntry)
	pointages.DELETE("/entries/:id", h.deleteEntry)
	pointages.POST("/entries/:id/attachment", h.uploadAttachment)
	pointages.GET("/entries/:id/attachment", h.downloadAttachment)
	pointages.DELETE("/entries/:id/attachment", h.removeAttachment)
	pointages.GET("/export", h.exportExcel)
	pointages.GET("/export/pdf", h.exportPDF)

	api.GET("/settings/daily-rate", h.getDailyRate)
	api.PUT("/settings/daily-rate", h.setDailyRate)
}

func (h *Handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "Pointage API is online",
		"version":   h.status.Version(),
		"status":    "running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) health(c *gin.Context) {
	result, err := h.status.Health(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("health check failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":   "ERROR",
			"message":  "database connection failed",
			"database": "disconnected",
			"error":    err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "OK",
		"message":      "server and database operational",
		"database":     "connected",
		"serverTime":   result.ServerTime.Format(time.RFC3339),
		"databaseTime": result.DatabaseTime,
	})
}

func (h *Handler) countUsers(c *gin.Context) {
	total, err := h.status.CountUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "query failed",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "users table reachable",
		"totalUsers": total,
	})
}

func (h *Handler) getPeriod(c *gin.Context) {
	period, ok := h.period(c)
	if !ok {
		return
	}
	state, err := h.timesheets.LoadPeriod(c.Request.Context(), middleware.Owner(c), period)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handler) addEntry(c *gin.Context) {
	period, ok := h.period(c)
	if !ok {
		return
	}
	entry, err := h.timesheets.AddEntry(c.Request.Context(), middleware.Owner(c), period)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

type updateEntryRequest struct {
	Date        *string `json:"date"`
	RouteNumber *string `json:"routeNumber"`
	PointCount  *string `json:"pointCount"`
	WorkerName  *string `json:"workerName"`
	StartTime   *string `json:"startTime"`
	EndTime     *string `json:"endTime"`
}

func (h *Handler) updateEntry(c *gin.Context) {
	period, ok := h.period(c)
	if !ok {
		return
	}
	id, ok := h.entryID(c)
	if !ok {
		return
	}

	var req updateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.timesheets.UpdateEntry(c.Request.Context(), middleware.Owner(c), period, id, model.EntryPatch{
		Date:        req.Date,
		RouteNumber: req.RouteNumber,
		PointCount:  req.PointCount,
		WorkerName:  req.WorkerName,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) deleteEntry(c *gin.Context) {
	period, ok := h.period(c)
	if !ok {
		return
	}
	id, ok := h.entryID(c)
	if !ok {
		return
	}
	if err := h.timesheets.DeleteEntry(c.Request.Context(), middleware.Owner(c), period, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) uploadAttachment(c *gin.Context) {
	period, ok := h.period(c)
	if !ok {
		return
	}
	id, ok := h.entryID(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": attachment.ErrTooLarge.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer file.Close()

	entry, err := h.timesheets.AttachFile(c.Request.Context(), middleware.Owner(c), period, id, attachment.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) downloadAttachment(c *gin.Context) {
	period, ok := h.period(c)
	if !ok {
		return
	}
	id, ok := h.entryID(c)
	if !ok {
		return
	}
	file, err := h.timesheets.Attachment(c.Request.Context(), middleware.Owner(c), period, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", contentDisposition("inline", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

func (h *Handler) removeAttachment(c *gin.Context) {
	period, ok := h.period(c)
	if !ok {
		return
	}
	id, ok := h.entryID(c)
	if !ok {
		return
	}
	entry, err := h.timesheets.RemoveAttachment(c.Request.Context(), middleware.Owner(c), period, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) exportExcel(c *gin.Context) {
	period, ok := h.period(c)
	if !ok {
		return
	}
	result, err := h.timesheets.Export(c.Request.Context(), middleware.Owner(c), period)
	if err != nil {
		h.handleError(c, err)
		return
	}
	sendFile(c, result)
}

func (h *Handler) exportPDF(c *gin.Context) {
	period, ok := h.period(c)
	if !ok {
		return
	}
	result, err := h.timesheets.ExportPDF(c.Request.Context(), middleware.Owner(c), period)
	if err != nil {
		h.handleError(c, err)
		return
	}
	sendFile(c, result)
}

func (h *Handler) getDailyRate(c *gin.Context) {
	rate := h.timesheets.DailyRate(c.Request.Context(), middleware.Owner(c))
	c.JSON(http.StatusOK, gin.H{"dailyRate": rate})
}

type dailyRateRequest struct {
	DailyRate string `json:"dailyRate" binding:"required"`
}

func (h *Handler) setDailyRate(c *gin.Context) {
	var req dailyRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rate, err := h.timesheets.SetDailyRate(c.Request.Context(), middleware.Owner(c), req.DailyRate)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dailyRate": rate})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNoEntries):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, attachment.ErrUnsupportedType):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
	case errors.Is(err, attachment.ErrTooLarge), isBodyTooLarge(err):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": attachment.ErrTooLarge.Error()})
	case errors.Is(err, attachment.ErrEmpty), errors.Is(err, attachment.ErrMalformed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handler) period(c *gin.Context) (model.Period, bool) {
	year, errYear := strconv.Atoi(strings.TrimSpace(c.Param("year")))
	month, errMonth := strconv.Atoi(strings.TrimSpace(c.Param("month")))
	if errYear != nil || errMonth != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period"})
		return model.Period{}, false
	}
	period, err := model.NewPeriod(year, month)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period: " + err.Error()})
		return model.Period{}, false
	}
	return period, true
}

func (h *Handler) entryID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return uuid.Nil, false
	}
	return id, true
}

func sendFile(c *gin.Context, file *model.ExportFile) {
	c.Header("Content-Disposition", contentDisposition("attachment", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

// contentDisposition quotes the file name and adds the RFC 2231 form when
// it is not plain ASCII.
func contentDisposition(disposition, fileName string) string {
	if value := mime.FormatMediaType(disposition, map[string]string{"filename": fileName}); value != "" {
		return value
	}
	return disposition
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
