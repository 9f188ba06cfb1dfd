package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
	"github.com/dmitrijs2005/itemkeeper/internal/logging"
	"github.com/dmitrijs2005/itemkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const identityKey = "identity"

// requestID echoes X-Request-ID or generates one, and tags the request
// context with it for logging.
func (s *HTTPServer) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(common.RequestIDHeaderName)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(common.RequestIDHeaderName, id)
		c.Request = c.Request.WithContext(logging.ContextWithAttrs(c.Request.Context(), "request_id", id))
		c.Next()
	}
}

func (s *HTTPServer) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		took := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		s.metrics.ObserveRequest(c.Request.Method, route, status, took)

		s.logger.Info(c.Request.Context(), "request",
			"status", status,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"duration", took.String(),
			"x_version", c.GetHeader(common.VersionHeaderName),
			"user_agent", c.Request.UserAgent(),
		)
	}
}

func (s *HTTPServer) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		s.logger.Error(c.Request.Context(), "panic while serving request", "panic", fmt.Sprint(rec))
		c.AbortWithStatusJSON(http.StatusInternalServerError, statusResponse{Detail: common.MsgInternalServerError})
	})
}

func (s *HTTPServer) versionGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.svc.Versions.Check(c.Request.Context(), c.GetHeader(common.VersionHeaderName)); err != nil {
			s.abortWithError(c, err)
			return
		}
		c.Next()
	}
}

// authenticated resolves the bearer token and stores the caller's identity.
func (s *HTTPServer) authenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := services.BearerToken(c.GetHeader(common.AuthorizationHeaderName))
		id, err := s.svc.Authz.Authenticate(c.Request.Context(), token)
		if err != nil {
			s.abortWithError(c, err)
			return
		}
		c.Set(identityKey, id)
		c.Request = c.Request.WithContext(logging.ContextWithAttrs(c.Request.Context(), "user_id", id.User.ID))
		c.Next()
	}
}

// adminOnly must follow authenticated.
func (s *HTTPServer) adminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.svc.Authz.RequireAdmin(identity(c)); err != nil {
			s.abortWithError(c, err)
			return
		}
		c.Next()
	}
}

// ownerOrAdmin must follow authenticated. param names the path parameter
// holding the resource id.
func (s *HTTPServer) ownerOrAdmin(kind services.ResourceKind, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		resourceID, err := pathID(c, param)
		if err != nil {
			s.abortWithError(c, err)
			return
		}
		if err := s.svc.Authz.RequireOwnerOrAdmin(c.Request.Context(), identity(c), kind, resourceID); err != nil {
			s.abortWithError(c, err)
			return
		}
		c.Next()
	}
}

func identity(c *gin.Context) *services.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*services.Identity)
	return id
}

func pathID(c *gin.Context, param string) (int64, error) {
	raw := c.Param(param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, common.Validation(fmt.Sprintf("%s must be an integer", param), "bad path parameter %s=%q", param, raw)
	}
	return id, nil
}
