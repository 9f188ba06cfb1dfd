package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *HTTPServer) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *HTTPServer) listVersions(c *gin.Context) {
	list, err := s.svc.Versions.List(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	resp := make([]versionResponse, 0, len(list))
	for _, v := range list {
		resp = append(resp, versionResponse{ID: v.ID, Version: v.Version, Supported: v.Supported})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) listRoles(c *gin.Context) {
	list, err := s.svc.Roles.List(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	resp := make([]roleResponse, 0, len(list))
	for _, r := range list {
		resp = append(resp, roleResponse{ID: r.ID, Name: r.Name})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) getRole(c *gin.Context) {
	id, err := pathID(c, "role_id")
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	r, err := s.svc.Roles.Get(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, roleResponse{ID: r.ID, Name: r.Name})
}
