package handler

import (
	"net/http"
	"strconv"

	"studyverse/internal/service"
	"studyverse/pkg/response"

	"github.com/gin-gonic/gin"
)

// ListNotes 独立笔记
// GET /api/v1/notes
func (h *Handler) ListNotes(c *gin.Context) {
	notes, err := h.noteService.ListStandalone(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, notes)
}

// GetNote GET /api/v1/notes/:id
func (h *Handler) GetNote(c *gin.Context) {
	noteID, ok := pathID(c, "id")
	if !ok {
		return
	}

	note, err := h.noteService.Get(c.Request.Context(), noteID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, note)
}

// UploadNote 上传笔记（multipart/form-data）
// POST /api/v1/notes
//
// 字段：noteFile（必填）、previewImage、title、description、price、course_id
func (h *Handler) UploadNote(c *gin.Context) {
	req := service.UploadNoteRequest{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
	}

	if v := c.PostForm("price"); v != "" {
		price, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.ParamError(c, "price 参数错误")
			return
		}
		req.Price = price
	}

	if v := c.PostForm("course_id"); v != "" {
		courseID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.ParamError(c, "course_id 参数错误")
			return
		}
		req.CourseID = &courseID
	}

	if fh, err := c.FormFile("noteFile"); err == nil {
		req.NoteFile = fh
	} else if err != http.ErrMissingFile {
		response.ParamError(c, "noteFile 读取失败: "+err.Error())
		return
	}

	if fh, err := c.FormFile("previewImage"); err == nil {
		req.PreviewImage = fh
	}

	note, err := h.noteService.Upload(c.Request.Context(), identity(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, note)
}

// DownloadNote 下载笔记文件，只有上传者、管理员和买家可以下载
// GET /api/v1/notes/:id/file
func (h *Handler) DownloadNote(c *gin.Context) {
	noteID, ok := pathID(c, "id")
	if !ok {
		return
	}

	file, err := h.noteService.Download(c.Request.Context(), identity(c), noteID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.FileAttachment(file.Path, file.Name)
}
