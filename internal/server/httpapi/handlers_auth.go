package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
	"github.com/dmitrijs2005/itemkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (s *HTTPServer) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, bindError(err))
		return
	}

	resp, err := s.svc.Auth.Login(c.Request.Context(), req.Username, req.Password)
	// storage failures count as 5xx requests, not as rejected logins
	if err == nil || common.IsKind(err, common.KindUnauthenticated) {
		s.metrics.LoginAttempt(err == nil)
	}
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "Logged in", "user_id", resp.ID)
	c.JSON(http.StatusOK, toTokenResponse(resp))
}

func (s *HTTPServer) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, bindError(err))
		return
	}

	resp, err := s.svc.Auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTokenResponse(resp))
}

func (s *HTTPServer) me(c *gin.Context) {
	c.JSON(http.StatusOK, toUserResponse(identity(c).User))
}

func (s *HTTPServer) logout(c *gin.Context) {
	token := services.BearerToken(c.GetHeader(common.AuthorizationHeaderName))

	msg, err := s.svc.Auth.Logout(c.Request.Context(), identity(c), token)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusResponse{Detail: msg})
}
