package renewal

import (
	"net/http"
	"strconv"

	renewalerrors "go-elms/internal/renewal/errors"
	"go-elms/internal/shared/apperror"
	"go-elms/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("renewal.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("renewal.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("renewal request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func yearParam(c *gin.Context) (int, error) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year <= 0 {
		return 0, renewalerrors.ErrInvalidYear
	}
	return year, nil
}

func (h *Handler) Initialize(c *gin.Context) {
	year, err := yearParam(c)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	summary, err := h.service.InitializeForYear(c.Request.Context(), year)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary, nil)
}

func (h *Handler) Renew(c *gin.Context) {
	year, err := yearParam(c)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	summary, err := h.service.RenewCasualLeave(c.Request.Context(), year)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary, nil)
}
