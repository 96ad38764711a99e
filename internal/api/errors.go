package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/littup/forge/internal/controller"
	"github.com/littup/forge/internal/storage"
	"github.com/littup/forge/internal/workspace"
	"go.uber.org/zap"
)

// statusFor는 도메인 에러를 HTTP 상태 코드로 변환합니다.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrProjectNotFound), errors.Is(err, storage.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrProjectNameTaken):
		return http.StatusConflict
	case errors.Is(err, controller.ErrInvalidInput), errors.Is(err, workspace.ErrInvalidPath):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// detailFor는 클라이언트에 노출할 에러 문구입니다. 500은 내부 정보를 숨깁니다.
func detailFor(status int, err error) string {
	switch {
	case errors.Is(err, storage.ErrProjectNotFound):
		return "Project not found"
	case errors.Is(err, storage.ErrSnapshotNotFound):
		return "Snapshot not found"
	case status == http.StatusInternalServerError:
		return "Internal server error"
	default:
		return err.Error()
	}
}

// abortWithError는 에러를 로그로 남기고 {"detail": ...} 응답을 보냅니다.
func (s *Server) abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Detail: detailFor(status, err)})
}

// badRequest는 요청 형식 오류 응답입니다.
func badRequest(c *gin.Context, detail string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Detail: detail})
}
