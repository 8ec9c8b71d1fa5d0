package handler

import (
	stdErrors "errors"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/lecture-assistant/errors"
	dto "github.com/johnquangdev/lecture-assistant/internal/adapter/dto/chat"
	"github.com/johnquangdev/lecture-assistant/internal/adapter/presenter"
	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
	"github.com/johnquangdev/lecture-assistant/internal/domain/repositories"
	chatUsecase "github.com/johnquangdev/lecture-assistant/internal/usecase/chat"
	"github.com/johnquangdev/lecture-assistant/internal/usecase/llm"
	summaryUsecase "github.com/johnquangdev/lecture-assistant/internal/usecase/summary"
)

// Chat handles questions about lectures
type Chat struct {
	service *chatUsecase.Service
	logger  *zap.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(service *chatUsecase.Service, logger *zap.Logger) *Chat {
	return &Chat{service: service, logger: logger}
}

// Ask handles POST /lectures/:id/chat
// @Summary      Ask about a lecture
// @Description  Answers a question from the lecture transcript with cited fragments
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Lecture ID"
// @Param        request  body  chat.AskRequest  true  "Question and history"
// @Success      200  {object}  chat.Answer  "Answer with sources"
// @Failure      400  {object}  map[string]interface{}  "Invalid request or validation failed"
// @Failure      401  {object}  map[string]interface{}  "User not authenticated"
// @Failure      403  {object}  map[string]interface{}  "Access denied"
// @Failure      404  {object}  map[string]interface{}  "Lecture not found"
// @Failure      502  {object}  map[string]interface{}  "Model call failed"
// @Failure      503  {object}  map[string]interface{}  "No LLM provider configured"
// @Router       /lectures/{id}/chat [post]
func (h *Chat) Ask(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req dto.AskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	answer, err := h.service.Ask(c.Request().Context(), userID, c.Param("id"), req.Question, presenter.ToHistory(req.History))
	if err != nil {
		return HandleError(h.logger, c, generationError(err, errors.ErrAIChatFailed))
	}
	return HandleSuccess(h.logger, c, answer)
}

// AskGlobal handles POST /chat/global
// @Summary      Ask across lectures
// @Description  Answers a question from all of the user's completed lectures
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  chat.GlobalAskRequest  true  "Question, history and filters"
// @Success      200  {object}  chat.Answer  "Answer with sources"
// @Failure      400  {object}  map[string]interface{}  "Invalid request or validation failed"
// @Failure      401  {object}  map[string]interface{}  "User not authenticated"
// @Failure      502  {object}  map[string]interface{}  "Model call failed"
// @Failure      503  {object}  map[string]interface{}  "No LLM provider configured"
// @Router       /chat/global [post]
func (h *Chat) AskGlobal(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req dto.GlobalAskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	answer, err := h.service.AskGlobal(c.Request().Context(), userID, req.Question, presenter.ToHistory(req.History), repositories.LectureFilters{
		Subject:   req.Subject,
		GroupName: req.GroupName,
	})
	if err != nil {
		return HandleError(h.logger, c, generationError(err, errors.ErrAIChatFailed))
	}
	return HandleSuccess(h.logger, c, answer)
}

// Summary handles lecture summaries
type Summary struct {
	service *summaryUsecase.Service
	logger  *zap.Logger
}

// NewSummaryHandler creates a new summary handler
func NewSummaryHandler(service *summaryUsecase.Service, logger *zap.Logger) *Summary {
	return &Summary{service: service, logger: logger}
}

// Get handles GET /lectures/:id/summary?regenerate=true
// @Summary      Get lecture summary
// @Description  Returns the cached summary or generates it; regenerate=true forces a new one
// @Tags         Summary
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Lecture ID"
// @Param        regenerate  query  bool  false  "Regenerate the summary"
// @Success      200  {object}  entities.Summary  "Summary"
// @Failure      400  {object}  map[string]interface{}  "Lecture is not processed yet"
// @Failure      401  {object}  map[string]interface{}  "User not authenticated"
// @Failure      403  {object}  map[string]interface{}  "Access denied"
// @Failure      404  {object}  map[string]interface{}  "Lecture not found"
// @Failure      500  {object}  map[string]interface{}  "Failed to generate summary"
// @Failure      503  {object}  map[string]interface{}  "No LLM provider configured"
// @Router       /lectures/{id}/summary [get]
func (h *Summary) Get(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	regenerate := c.QueryParam("regenerate") == "true" || c.QueryParam("regenerate") == "1"

	summary, err := h.service.Get(c.Request().Context(), userID, c.Param("id"), regenerate)
	if err != nil {
		return HandleError(h.logger, c, generationError(err, errors.ErrAISummaryFailed))
	}
	return HandleSuccess(h.logger, c, summary)
}

// generationError keeps domain errors as they are and wraps model failures
func generationError(err error, wrap func(error) errors.AppError) error {
	domain := []error{
		entities.ErrLectureNotFound,
		entities.ErrForbidden,
		entities.ErrLectureNotReady,
		entities.ErrTranscriptNotFound,
		entities.ErrStorageFailed,
		llm.ErrNoProvider,
	}
	for _, d := range domain {
		if stdErrors.Is(err, d) {
			return err
		}
	}
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return err
	}
	return wrap(err)
}
