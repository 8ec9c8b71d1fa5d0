package handler

import (
	stdErrors "errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/lecture-assistant/errors"
	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
	httpmw "github.com/johnquangdev/lecture-assistant/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/lecture-assistant/internal/usecase/lecture"
	"github.com/johnquangdev/lecture-assistant/internal/usecase/llm"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    interface{}       `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

// currentUser returns the user id set by the auth middleware
func currentUser(c echo.Context) (uuid.UUID, error) {
	id, ok := httpmw.UserID(c)
	if !ok {
		return uuid.Nil, errors.ErrUnauthenticated()
	}
	return id, nil
}

// ToAppError maps domain and usecase errors onto API errors
func ToAppError(err error, id string) errors.AppError {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}

	var out errors.AppError
	switch {
	case stdErrors.Is(err, entities.ErrLectureNotFound):
		out = errors.ErrLectureNotFound(id)
	case stdErrors.Is(err, entities.ErrForbidden):
		out = errors.ErrForbidden("Access denied")
	case stdErrors.Is(err, entities.ErrUnauthorized):
		out = errors.ErrUnauthenticated()
	case stdErrors.Is(err, entities.ErrLectureNotReady):
		out = errors.ErrLectureNotReady(id)
	case stdErrors.Is(err, entities.ErrLectureAlreadyQueued):
		out = errors.ErrLectureAlreadyQueued(id)
	case stdErrors.Is(err, entities.ErrUnsupportedAudio):
		ext, _ := strconv.Unquote(strings.TrimPrefix(err.Error(), entities.ErrUnsupportedAudio.Error()+": "))
		out = errors.ErrUnsupportedAudio(ext, strings.Join(lecture.AllowedExtensions, ", "))
	case stdErrors.Is(err, entities.ErrUploadNotFound):
		out = errors.ErrUploadNotFound(id)
	case stdErrors.Is(err, entities.ErrNoUploadChunks):
		out = errors.ErrNoUploadChunks(id)
	case stdErrors.Is(err, entities.ErrTranscriptNotFound):
		out = errors.ErrTranscriptNotFound(id)
	case stdErrors.Is(err, entities.ErrAudioMissing):
		out = errors.ErrNotFound("Audio file")
	case stdErrors.Is(err, entities.ErrInvalidRequest):
		out = errors.ErrInvalidArgument(err.Error())
	case stdErrors.Is(err, llm.ErrNoProvider):
		out = errors.ErrAIServiceUnavailable("llm")
	case stdErrors.Is(err, entities.ErrIndexFailed):
		out = errors.ErrIndexFailed(id, err)
	case stdErrors.Is(err, entities.ErrStorageFailed):
		out = errors.ErrStorageFailed("blob", err)
	default:
		return errors.ErrInternal(err)
	}
	out.Raw = err
	return out
}

// HandleSuccess writes a standardized success response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	return respond(logger, c, http.StatusOK, data)
}

// HandleCreated is HandleSuccess with 201
func HandleCreated(logger *zap.Logger, c echo.Context, data interface{}) error {
	return respond(logger, c, http.StatusCreated, data)
}

func respond(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	resp := success{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
		)
	}

	return c.JSON(status, resp)
}

// HandleError centralizes error handling and logging using provided logger
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	reqID := getRequestID(c)
	id := c.Param("id")
	if id == "" {
		id = c.Param("upload_id")
	}
	appErr := ToAppError(err, id)

	if logger != nil {
		fields := []zap.Field{
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.String("app_code", appErr.Code.String()),
			zap.Error(err),
		}
		if appErr.HTTPCode >= http.StatusInternalServerError {
			logger.Error("http.response.error", fields...)
		} else {
			logger.Warn("http.response.error", fields...)
		}
	}

	body := errs{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
	// Raw causes of server errors stay in the logs
	if appErr.Raw != nil && appErr.HTTPCode < http.StatusInternalServerError {
		body.Info = appErr.Raw.Error()
	}

	return c.JSON(appErr.HTTPCode, body)
}

// bindAndValidate binds the request into v and runs the registered validator
func bindAndValidate(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return errors.ErrInvalidPayload()
	}
	if err := c.Validate(v); err != nil {
		appErr := errors.ErrInvalidArgument("Validation failed")
		appErr.Raw = err
		return appErr
	}
	return nil
}
