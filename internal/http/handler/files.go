package handler

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"filevault/internal/http/middleware"
	"filevault/internal/model"
	"filevault/internal/service"
)

// ListFiles returns the caller's files in upload order.
//
// @Summary  List files
// @Tags     files
// @Produce  json
// @Security BearerAuth
// @Success  200 {array} model.File
// @Failure  401 {object} errorPayload
// @Router   /files/list [get]
func ListFiles(files service.FileService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := files.List(c.UserContext(), middleware.UserFrom(c).ID)
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(res)
	}
}

// UploadFile stores a multipart upload (field name: file).
//
// @Summary  Upload file
// @Tags     files
// @Accept   mpfd
// @Produce  json
// @Security BearerAuth
// @Param    file formData file true "content"
// @Success  201 {object} model.File
// @Failure  400 {object} errorPayload
// @Failure  413 {object} errorPayload
// @Failure  503 {object} errorPayload
// @Router   /files/upload [post]
func UploadFile(files service.FileService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return respondError(c, log, service.ErrFileRequired)
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		stored, err := files.Store(c.UserContext(), middleware.UserFrom(c).ID, fh.Filename, f, fh.Size, fh.Header.Get(fiber.HeaderContentType))
		if err != nil {
			return respondError(c, log, err)
		}
		return c.Status(fiber.StatusCreated).JSON(stored)
	}
}

// DownloadFile streams one of the caller's files, addressed by locator (filePath) or id.
//
// @Summary  Download own file
// @Tags     files
// @Produce  octet-stream
// @Security BearerAuth
// @Param    path path string true "filePath or file id"
// @Success  200 {file} binary
// @Failure  404 {object} errorPayload
// @Router   /files/download/{path} [get]
func DownloadFile(files service.FileService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		owner := middleware.UserFrom(c).ID
		ref := c.Params("path")

		f, rc, err := files.FetchByLocator(ctx, owner, ref)
		if errors.Is(err, service.ErrNotFound) && uuid.Validate(ref) == nil {
			f, rc, err = files.Fetch(ctx, owner, ref)
		}
		if err != nil {
			return respondError(c, log, err)
		}
		return sendFile(c, f, rc)
	}
}

// DeleteFile removes one of the caller's files and revokes its share links.
//
// @Summary  Delete file
// @Tags     files
// @Produce  json
// @Security BearerAuth
// @Param    id path string true "file id"
// @Success  200 {object} map[string]string
// @Failure  404 {object} errorPayload
// @Router   /files/delete/{id} [delete]
func DeleteFile(files service.FileService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := files.Delete(c.UserContext(), middleware.UserFrom(c).ID, c.Params("id")); err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(fiber.Map{"message": "File deleted successfully"})
	}
}

// sendFile streams rc as an attachment. fasthttp closes rc once the body is written,
// which also releases the request context held open for the stream.
func sendFile(c *fiber.Ctx, f *model.File, rc io.ReadCloser) error {
	ct := f.ContentType
	if ct == "" {
		ct = fiber.MIMEOctetStream
	}
	c.Set(fiber.HeaderContentType, ct)
	c.Set(fiber.HeaderContentDisposition, contentDisposition(f.Name))
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	c.Set(fiber.HeaderCacheControl, "private, no-store")

	size := -1
	if f.Size > 0 {
		size = int(f.Size)
	}
	return c.SendStream(middleware.ReleaseOnClose(c, rc), size)
}
