package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/lecture-assistant/errors"
	dto "github.com/johnquangdev/lecture-assistant/internal/adapter/dto/lecture"
	"github.com/johnquangdev/lecture-assistant/internal/adapter/presenter"
	"github.com/johnquangdev/lecture-assistant/internal/domain/repositories"
	lectureUsecase "github.com/johnquangdev/lecture-assistant/internal/usecase/lecture"
)

// Lecture handles lecture upload, listing and management requests
type Lecture struct {
	service *lectureUsecase.Service
	logger  *zap.Logger
}

// NewLectureHandler creates a new lecture handler
func NewLectureHandler(service *lectureUsecase.Service, logger *zap.Logger) *Lecture {
	return &Lecture{service: service, logger: logger}
}

// Upload handles POST /lectures/upload (multipart: file, title, language, subject, group_name)
// @Summary      Upload a lecture
// @Description  Uploads an audio file and queues it for transcription
// @Tags         Lectures
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file        formData  file    true   "Audio file (mp3, wav, m4a, ogg, flac, webm)"
// @Param        title       formData  string  false  "Lecture title (defaults to file name)"
// @Param        language    formData  string  false  "Language hint (ru/kz/en)"
// @Param        subject     formData  string  false  "Subject"
// @Param        group_name  formData  string  false  "Student group"
// @Success      201  {object}  lecture.LectureResponse  "Lecture created"
// @Failure      400  {object}  map[string]interface{}  "Invalid request or validation failed"
// @Failure      401  {object}  map[string]interface{}  "User not authenticated"
// @Failure      500  {object}  map[string]interface{}  "Internal error"
// @Router       /lectures/upload [post]
func (h *Lecture) Upload(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var form dto.UploadForm
	if err := bindAndValidate(c, &form); err != nil {
		return HandleError(h.logger, c, err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("file is required"))
	}
	if _, err := lectureUsecase.ValidateExtension(fileHeader.Filename); err != nil {
		return HandleError(h.logger, c, err)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	defer file.Close()

	lecture, err := h.service.Upload(c.Request().Context(), lectureUsecase.UploadInput{
		UserID:    userID,
		Filename:  fileHeader.Filename,
		Title:     form.Title,
		Language:  form.Language,
		Subject:   form.Subject,
		GroupName: form.GroupName,
		Body:      file,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, presenter.ToLectureResponse(lecture))
}

// InitUpload handles POST /lectures/upload/init
// @Summary      Start a chunked upload
// @Description  Creates an upload session for sending a large file in chunks
// @Tags         Lectures
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  lecture.UploadInitResponse  "Upload session created"
// @Failure      401  {object}  map[string]interface{}  "User not authenticated"
// @Failure      500  {object}  map[string]interface{}  "Internal error"
// @Router       /lectures/upload/init [post]
func (h *Lecture) InitUpload(c echo.Context) error {
	if _, err := currentUser(c); err != nil {
		return HandleError(h.logger, c, err)
	}
	uploadID, err := h.service.InitUpload(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, dto.UploadInitResponse{UploadID: uploadID})
}

// UploadChunk handles POST /lectures/upload/:upload_id/chunk/:index (multipart: file)
// @Summary      Upload one chunk
// @Description  Stores one chunk of a chunked upload
// @Tags         Lectures
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        upload_id  path      string  true  "Upload session ID"
// @Param        index      path      int     true  "Chunk index (0-based)"
// @Param        file       formData  file    true  "Chunk bytes"
// @Success      200  {object}  lecture.ChunkResponse  "Chunk stored"
// @Failure      400  {object}  map[string]interface{}  "Invalid chunk index or missing file"
// @Failure      401  {object}  map[string]interface{}  "User not authenticated"
// @Failure      404  {object}  map[string]interface{}  "Upload session not found"
// @Router       /lectures/upload/{upload_id}/chunk/{index} [post]
func (h *Lecture) UploadChunk(c echo.Context) error {
	if _, err := currentUser(c); err != nil {
		return HandleError(h.logger, c, err)
	}
	uploadID := c.Param("upload_id")
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("chunk index must be an integer"))
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("file is required"))
	}
	file, err := fileHeader.Open()
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	defer file.Close()

	if err := h.service.UploadChunk(c.Request().Context(), uploadID, index, file); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, dto.ChunkResponse{UploadID: uploadID, Index: index})
}

// CompleteUpload handles POST /lectures/upload/:upload_id/complete
// @Summary      Complete a chunked upload
// @Description  Assembles the chunks into one audio file and queues the lecture
// @Tags         Lectures
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        upload_id  path  string                        true  "Upload session ID"
// @Param        request    body  lecture.CompleteUploadRequest  true  "Lecture metadata"
// @Success      201  {object}  lecture.LectureResponse  "Lecture created"
// @Failure      400  {object}  map[string]interface{}  "No chunks or unsupported format"
// @Failure      401  {object}  map[string]interface{}  "User not authenticated"
// @Failure      404  {object}  map[string]interface{}  "Upload session not found"
// @Router       /lectures/upload/{upload_id}/complete [post]
func (h *Lecture) CompleteUpload(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req dto.CompleteUploadRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	lecture, err := h.service.CompleteUpload(c.Request().Context(), c.Param("upload_id"), lectureUsecase.UploadInput{
		UserID:    userID,
		Filename:  req.Filename,
		Title:     req.Title,
		Language:  req.Language,
		Subject:   req.Subject,
		GroupName: req.GroupName,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, presenter.ToLectureResponse(lecture))
}

// List handles GET /lectures?subject=&group=
// @Summary      List lectures
// @Description  Lists the user's lectures, newest first
// @Tags         Lectures
// @Produce      json
// @Security     BearerAuth
// @Param        subject  query  string  false  "Subject filter"
// @Param        group    query  string  false  "Group filter"
// @Success      200  {array}   lecture.LectureResponse  "List of lectures"
// @Failure      401  {object}  map[string]interface{}  "User not authenticated"
// @Failure      500  {object}  map[string]interface{}  "Internal error"
// @Router       /lectures [get]
func (h *Lecture) List(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req dto.ListLecturesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	lectures, err := h.service.List(c.Request().Context(), userID, repositories.LectureFilters{
		Subject:   req.Subject,
		GroupName: req.GroupName,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToLectureListResponse(lectures))
}

// Subjects handles GET /lectures/subjects
// @Summary      List subjects
// @Description  Lists distinct subjects of the user's lectures
// @Tags         Lectures
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   string  "Subjects"
// @Failure      401  {object}  map[string]interface{}  "User not authenticated"
// @Failure      500  {object}  map[string]interface{}  "Internal error"
// @Router       /lectures/subjects [get]
func (h *Lecture) Subjects(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	subjects, err := h.service.Subjects(c.Request().Context(), userID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, nonNil(subjects))
}

// Groups handles GET /lectures/groups
// @Summary      List groups
// @Description  Lists distinct student groups of the user's lectures
// @Tags         Lectures
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   string  "Groups"
// @Failure      401  {object}  map[string]interface{}  "User not authenticated"
// @Failure      500  {object}  map[string]interface{}  "Internal error"
// @Router       /lectures/groups [get]
func (h *Lecture) Groups(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	groups, err := h.service.Groups(c.Request().Context(), userID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, nonNil(groups))
}

// Search handles GET /lectures/search?q=
// @Summary      Search lectures
// @Description  Searches lecture titles and transcripts
// @Tags         Lectures
// @Produce      json
// @Security     BearerAuth
// @Param        q        query  string  false  "Search text"
// @Param        subject  query  string  false  "Subject filter"
// @Param        group    query  string  false  "Group filter"
// @Param        limit    query  int     false  "Max results (default: 50)"
// @Success      200  {array}   lecture.SearchResultResponse  "Matching lectures"
// @Failure      400  {object}  map[string]interface{}  "Invalid request or validation failed"
// @Failure      401  {object}  map[string]interface{}  "User not authenticated"
// @Failure      500  {object}  map[string]interface{}  "Internal error"
// @Router       /lectures/search [get]
func (h *Lecture) Search(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req dto.SearchLecturesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	results, err := h.service.Search(c.Request().Context(), userID, req.Query, repositories.LectureFilters{
		Subject:   req.Subject,
		GroupName: req.GroupName,
	}, req.Limit)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToSearchResponse(results))
}

// Get handles GET /lectures/:id
// @Summary      Get lecture
// @Description  Gets a lecture with its processing status and progress
// @Tags         Lectures
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Lecture ID"
// @Success      200  {object}  lecture.LectureResponse  "Lecture details"
// @Failure      401  {object}  map[string]interface{}  "User not authenticated"
// @Failure      403  {object}  map[string]interface{}  "Access denied"
// @Failure      404  {object}  map[string]interface{}  "Lecture not found"
// @Router       /lectures/{id} [get]
func (h *Lecture) Get(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	lecture, err := h.service.Get(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToLectureResponse(lecture))
}

// Update handles PATCH /lectures/:id
// @Summary      Update lecture
// @Description  Edits title, subject or group
// @Tags         Lectures
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Lecture ID"
// @Param        request  body  lecture.UpdateLectureRequest  true  "Fields to change"
// @Success      200  {object}  lecture.LectureResponse  "Updated lecture"
// @Failure      400  {object}  map[string]interface{}  "Invalid request or validation failed"
// @Failure      401  {object}  map[string]interface{}  "User not authenticated"
// @Failure      403  {object}  map[string]interface{}  "Access denied"
// @Failure      404  {object}  map[string]interface{}  "Lecture not found"
// @Router       /lectures/{id} [patch]
func (h *Lecture) Update(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req dto.UpdateLectureRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	lecture, err := h.service.Update(c.Request().Context(), userID, c.Param("id"), repositories.LectureUpdate{
		Title:     req.Title,
		Subject:   req.Subject,
		GroupName: req.GroupName,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToLectureResponse(lecture))
}

// Delete handles DELETE /lectures/:id
// @Summary      Delete lecture
// @Description  Deletes the lecture with its audio, transcript, summary and search index
// @Tags         Lectures
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Lecture ID"
// @Success      200  {object}  map[string]interface{}  "Lecture deleted"
// @Failure      401  {object}  map[string]interface{}  "User not authenticated"
// @Failure      403  {object}  map[string]interface{}  "Access denied"
// @Failure      404  {object}  map[string]interface{}  "Lecture not found"
// @Router       /lectures/{id} [delete]
func (h *Lecture) Delete(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if err := h.service.Delete(c.Request().Context(), userID, c.Param("id")); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, map[string]string{"id": c.Param("id")})
}

// Transcript handles GET /lectures/:id/transcript
// @Summary      Get transcript
// @Description  Returns the timestamped transcript of a completed lecture
// @Tags         Lectures
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Lecture ID"
// @Success      200  {object}  entities.Transcript  "Transcript"
// @Failure      400  {object}  map[string]interface{}  "Lecture is not processed yet"
// @Failure      401  {object}  map[string]interface{}  "User not authenticated"
// @Failure      403  {object}  map[string]interface{}  "Access denied"
// @Failure      404  {object}  map[string]interface{}  "Lecture not found"
// @Router       /lectures/{id}/transcript [get]
func (h *Lecture) Transcript(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	transcript, err := h.service.Transcript(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, transcript)
}

// Audio handles GET /lectures/:id/audio and streams the file with range support
// @Summary      Stream lecture audio
// @Description  Streams the audio file with range support; download=1 sends it as an attachment
// @Tags         Lectures
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        id  path  string  true  "Lecture ID"
// @Param        download  query  string  false  "Send as attachment when 1"
// @Param        token     query  string  false  "Access token for audio players"
// @Success      200  {file}    binary  "Audio"
// @Failure      401  {object}  map[string]interface{}  "User not authenticated"
// @Failure      403  {object}  map[string]interface{}  "Access denied"
// @Failure      404  {object}  map[string]interface{}  "Lecture not found"
// @Router       /lectures/{id}/audio [get]
func (h *Lecture) Audio(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	lecture, path, err := h.service.AudioPath(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if c.QueryParam("download") == "1" {
		return c.Attachment(path, lecture.Filename)
	}
	return c.File(path)
}

// Reindex handles POST /admin/lectures/:id/reindex
// @Summary      Reindex lecture
// @Description  Rebuilds the search index of a lecture from its stored transcript
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Lecture ID"
// @Success      200  {object}  lecture.ReindexResponse  "Lecture reindexed"
// @Failure      400  {object}  map[string]interface{}  "Lecture is not processed yet"
// @Failure      401  {object}  map[string]interface{}  "User not authenticated"
// @Failure      403  {object}  map[string]interface{}  "Admin role required"
// @Failure      404  {object}  map[string]interface{}  "Lecture not found"
// @Failure      500  {object}  map[string]interface{}  "Indexing failed"
// @Router       /admin/lectures/{id}/reindex [post]
func (h *Lecture) Reindex(c echo.Context) error {
	id := c.Param("id")
	n, err := h.service.Reindex(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if h.logger != nil {
		h.logger.Info("🔁 Lecture reindexed", zap.String("lecture_id", id), zap.Int("chunks", n))
	}
	return HandleSuccess(h.logger, c, dto.ReindexResponse{LectureID: id, Chunks: n})
}

// Languages handles GET /languages
// @Summary      List languages
// @Description  Lists the languages offered for transcription
// @Tags         Lectures
// @Produce      json
// @Success      200  {array}   lecture.LanguageResponse  "Languages"
// @Router       /languages [get]
func (h *Lecture) Languages(c echo.Context) error {
	return c.JSON(http.StatusOK, success{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data: []dto.LanguageResponse{
			{Code: "ru", Name: "Русский"},
			{Code: "kz", Name: "Қазақша"},
			{Code: "en", Name: "English"},
		},
	})
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
