package middleware

import (
	"context"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
)

const streamReleaseLocalKey = "stream_release"

// Timeout bounds the work a handler does through c.UserContext() to d.
// A streamed response body is read after the handler returns, so in that case only the
// handler phase is bounded and the context is released when the stream is closed
// (see ReleaseOnClose).
func Timeout(d time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if d <= 0 {
			return c.Next()
		}

		ctx, cancel := context.WithCancelCause(c.UserContext())
		timer := time.AfterFunc(d, func() { cancel(context.DeadlineExceeded) })
		c.SetUserContext(ctx)
		c.Locals(streamReleaseLocalKey, func() { cancel(nil) })

		err := c.Next()

		timer.Stop()
		if !c.Response().IsBodyStream() {
			cancel(nil)
		}
		return err
	}
}

// ReleaseOnClose wraps a response body stream so closing it also releases the request
// context opened by Timeout. Without Timeout in the chain rc is returned unchanged.
func ReleaseOnClose(c *fiber.Ctx, rc io.ReadCloser) io.ReadCloser {
	release, ok := c.Locals(streamReleaseLocalKey).(func())
	if !ok {
		return rc
	}
	return &releasingStream{ReadCloser: rc, release: release}
}

type releasingStream struct {
	io.ReadCloser
	release func()
}

func (s *releasingStream) Close() error {
	err := s.ReadCloser.Close()
	s.release()
	return err
}
