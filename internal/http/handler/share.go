package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"filevault/internal/http/middleware"
	"filevault/internal/service"
)

// maxShareDays only guards the duration arithmetic; the service enforces the real limit.
const maxShareDays = 3650

type createShareRequest struct {
	FileID string `json:"fileId"`
	// ExpiresInDays defaults to the configured lifetime when omitted.
	ExpiresInDays *int `json:"expiresInDays"`
}

// CreateShare issues a share link for one of the caller's files.
//
// @Summary  Create share link
// @Tags     share
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body createShareRequest true "file and lifetime"
// @Success  200 {object} service.IssuedShareToken
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /share/shared-files/create [post]
func CreateShare(shares service.ShareService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createShareRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		}
		if req.FileID == "" {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "fileId is required")
		}

		var ttl time.Duration
		if req.ExpiresInDays != nil {
			if *req.ExpiresInDays <= 0 || *req.ExpiresInDays > maxShareDays {
				return respondError(c, log, service.ErrInvalidTTL)
			}
			ttl = time.Duration(*req.ExpiresInDays) * 24 * time.Hour
		}

		issued, err := shares.Create(c.UserContext(), middleware.UserFrom(c).ID, req.FileID, ttl)
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(issued)
	}
}

// GenerateShare issues a share link with the default lifetime for the file in the path.
//
// @Summary  Generate share link
// @Tags     share
// @Produce  json
// @Security BearerAuth
// @Param    fileId path string true "file id"
// @Success  200 {object} service.IssuedShareToken
// @Failure  404 {object} errorPayload
// @Router   /share/generate/{fileId} [post]
func GenerateShare(shares service.ShareService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		issued, err := shares.Create(c.UserContext(), middleware.UserFrom(c).ID, c.Params("fileId"), 0)
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(issued)
	}
}

// DownloadShared streams the file bound to a share token. No session is consulted.
//
// @Summary  Download shared file
// @Tags     share
// @Produce  octet-stream
// @Param    token path string true "share token"
// @Success  200 {file} binary
// @Failure  404 {object} errorPayload
// @Router   /share/download/shared/{token} [get]
func DownloadShared(shares service.ShareService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, rc, err := shares.Redeem(c.UserContext(), c.Params(middleware.ShareTokenParam))
		if err != nil {
			return respondError(c, log, err)
		}
		c.Set(fiber.HeaderReferrerPolicy, "no-referrer")
		return sendFile(c, f, rc)
	}
}
