package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flybeeper/gps-filter/internal/service"
	"github.com/flybeeper/gps-filter/internal/split"
	"github.com/flybeeper/gps-filter/pkg/utils"
)

// RESTHandler обработчик REST API треков и фильтров
type RESTHandler struct {
	store          *service.TrackStore
	helper         *service.FilterHelper
	splits         split.Registry
	logger         *utils.Logger
	timeout        time.Duration
	joinSegments   bool
	cancelPrevious bool
}

// NewRESTHandler создает новый REST handler. joinSegments и cancelPrevious
// задают значения по умолчанию для запросов
func NewRESTHandler(store *service.TrackStore, helper *service.FilterHelper, splits split.Registry,
	logger *utils.Logger, joinSegments, cancelPrevious bool) *RESTHandler {
	return &RESTHandler{
		store:          store,
		helper:         helper,
		splits:         splits,
		logger:         logger,
		timeout:        10 * time.Second,
		joinSegments:   joinSegments,
		cancelPrevious: cancelPrevious,
	}
}

// CreateTrack регистрирует трек и запускает его фильтрацию
// POST /api/v1/tracks
func (h *RESTHandler) CreateTrack(c *gin.Context) {
	var req GpxFileDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "invalid_track",
			"message": err.Error(),
		})
		return
	}

	id, track, err := h.store.Add(convertFileFromDTO(&req))
	if err != nil {
		status, code := http.StatusBadRequest, "invalid_track"
		if errors.Is(err, service.ErrTooManyTracks) {
			status, code = http.StatusServiceUnavailable, "too_many_tracks"
		}
		c.JSON(status, gin.H{
			"code":    code,
			"message": err.Error(),
		})
		return
	}
	track.SetJoinSegments(h.joinSegments)

	if !h.requestFilter(c, track, h.cancelPrevious) {
		return
	}

	h.logger.WithField("track_id", id).
		WithField("path", track.Source().Path).
		WithField("points", track.Source().PointsCount()).
		Info("Track registered")

	c.JSON(http.StatusCreated, convertTrackToResponse(id, track))
}

// GetTrack возвращает исходный трек и состояние фильтров
// GET /api/v1/tracks/:id
func (h *RESTHandler) GetTrack(c *gin.Context) {
	id, track, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, convertTrackToResponse(id, track))
}

// UpdateFilters меняет пороги и перезапускает фильтрацию
// PUT /api/v1/tracks/:id/filters
func (h *RESTHandler) UpdateFilters(c *gin.Context) {
	id, track, ok := h.lookup(c)
	if !ok {
		return
	}

	var req FiltersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "invalid_filters",
			"message": err.Error(),
		})
		return
	}

	applyFiltersRequest(track.Filters(), &req)
	if req.JoinSegments != nil {
		track.SetJoinSegments(*req.JoinSegments)
	}

	cancelPrevious := h.cancelPrevious
	if req.CancelPrevious != nil {
		cancelPrevious = *req.CancelPrevious
	}
	if !h.requestFilter(c, track, cancelPrevious) {
		return
	}

	c.JSON(http.StatusAccepted, convertTrackToResponse(id, track))
}

// ResetFilters сбрасывает фильтры и перезапускает фильтрацию
// POST /api/v1/tracks/:id/filters/reset
func (h *RESTHandler) ResetFilters(c *gin.Context) {
	id, track, ok := h.lookup(c)
	if !ok {
		return
	}

	track.Filters().Reset()
	if !h.requestFilter(c, track, true) {
		return
	}

	c.JSON(http.StatusAccepted, convertTrackToResponse(id, track))
}

// GetFiltered возвращает последний опубликованный результат
// GET /api/v1/tracks/:id/filtered
func (h *RESTHandler) GetFiltered(c *gin.Context) {
	id, track, ok := h.lookup(c)
	if !ok {
		return
	}

	result, ok := track.Result()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "not_filtered",
			"message": "Filtering result is not available yet",
		})
		return
	}

	c.JSON(http.StatusOK, convertResultToResponse(id, result))
}

// GetExtensions возвращает расширения файла с текущими порогами
// GET /api/v1/tracks/:id/extensions
func (h *RESTHandler) GetExtensions(c *gin.Context) {
	id, track, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         id,
		"extensions": track.Extensions(),
	})
}

// SetSplit регистрирует автоматическое разбиение трека
// PUT /api/v1/tracks/:id/split
func (h *RESTHandler) SetSplit(c *gin.Context) {
	_, track, ok := h.lookup(c)
	if !ok {
		return
	}

	var req SplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "invalid_split",
			"message": err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	cfg := &split.Config{Type: split.Type(req.Type), Interval: req.Interval}
	if err := h.splits.Register(ctx, track.Source().Path, cfg); err != nil {
		h.logger.WithField("error", err).Error("Failed to register split config")
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "Failed to save split config",
		})
		return
	}

	if !h.requestFilter(c, track, true) {
		return
	}
	c.JSON(http.StatusAccepted, cfg)
}

// DeleteSplit удаляет разбиение трека
// DELETE /api/v1/tracks/:id/split
func (h *RESTHandler) DeleteSplit(c *gin.Context) {
	_, track, ok := h.lookup(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.splits.Unregister(ctx, track.Source().Path); err != nil {
		h.logger.WithField("error", err).Error("Failed to delete split config")
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "Failed to delete split config",
		})
		return
	}

	if !h.requestFilter(c, track, true) {
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteTrack удаляет трек
// DELETE /api/v1/tracks/:id
func (h *RESTHandler) DeleteTrack(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.Remove(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "track_not_found",
			"message": err.Error(),
		})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetStats возвращает счетчики обработчика фильтрации
// GET /api/v1/stats
func (h *RESTHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"tracks":    h.store.Len(),
		"listeners": h.helper.ListenersCount(),
		"running":   h.helper.IsRunning(),
		"jobs":      h.helper.GetMetrics(),
	})
}

func (h *RESTHandler) lookup(c *gin.Context) (string, *service.FilteredTrack, bool) {
	id := c.Param("id")
	track, err := h.store.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "track_not_found",
			"message": err.Error(),
		})
		return "", nil, false
	}
	return id, track, true
}

func (h *RESTHandler) requestFilter(c *gin.Context, track *service.FilteredTrack, cancelPrevious bool) bool {
	if _, err := h.helper.RequestFilter(track, cancelPrevious); err != nil {
		h.logger.WithField("error", err).Error("Failed to request filtering")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"code":    "filtering_unavailable",
			"message": err.Error(),
		})
		return false
	}
	return true
}
