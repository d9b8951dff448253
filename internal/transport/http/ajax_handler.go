package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"philosophers-service/internal/app"
	"philosophers-service/internal/domain"

	"github.com/gin-gonic/gin"
)

type ajaxRequest struct {
	Index      int             `json:"index"`
	MethodName string          `json:"methodname"`
	Args       json.RawMessage `json:"args"`
}

type ajaxResponse struct {
	Error     bool       `json:"error"`
	Data      any        `json:"data,omitempty"`
	Exception *exception `json:"exception,omitempty"`
}

// AjaxHandler serves batched method calls. Calls run in order; a failing call does
// not stop the ones after it.
type AjaxHandler struct {
	dispatcher *Dispatcher
}

func NewAjaxHandler(dispatcher *Dispatcher) *AjaxHandler {
	return &AjaxHandler{dispatcher: dispatcher}
}

func (h *AjaxHandler) Serve(c *gin.Context) {
	var batch []ajaxRequest
	if err := c.ShouldBindJSON(&batch); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request batch")
		return
	}

	viewer := viewerFrom(c)
	ctx := c.Request.Context()
	out := make([]ajaxResponse, len(batch))
	for i, req := range batch {
		data, err := h.dispatcher.Call(ctx, viewer, req.MethodName, req.Args)
		if err != nil {
			ex := newException(err)
			out[i] = ajaxResponse{Error: true, Exception: &ex}
			continue
		}
		out[i] = ajaxResponse{Data: data}
	}
	c.JSON(http.StatusOK, out)
}

// FileHandler streams level images stored under levels/<level id>/<name>.
type FileHandler struct {
	service *app.GameService
}

func NewFileHandler(service *app.GameService) *FileHandler {
	return &FileHandler{service: service}
}

func (h *FileHandler) Serve(c *gin.Context) {
	parts := strings.Split(strings.TrimPrefix(c.Param("key"), "/"), "/")
	if len(parts) != 3 || parts[0] != "levels" {
		_ = c.Error(domain.ErrFileNotFound)
		return
	}
	levelID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		_ = c.Error(domain.ErrFileNotFound)
		return
	}
	data, contentType, err := h.service.LevelImage(c.Request.Context(), viewerFrom(c), levelID, parts[2])
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Header("Cache-Control", "private, max-age=86400")
	c.Data(http.StatusOK, contentType, data)
}
