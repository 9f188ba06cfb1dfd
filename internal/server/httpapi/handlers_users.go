package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
	"github.com/gin-gonic/gin"
)

func (s *HTTPServer) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, bindError(err))
		return
	}

	created, err := s.svc.Users.Create(c.Request.Context(), req.Username, req.RoleID)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "User created", "created_user_id", created.ID)
	c.JSON(http.StatusCreated, createdUserResponse{
		userResponse: toUserResponse(created.User),
		Password:     created.Password,
	})
}

func (s *HTTPServer) getUser(c *gin.Context) {
	id, err := pathID(c, "user_id")
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	u, err := s.svc.Users.Get(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}

// listUsers shows activated users unless ?activated=false is given.
func (s *HTTPServer) listUsers(c *gin.Context) {
	var q listUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.abortWithError(c, bindError(err))
		return
	}
	activated := true
	if q.Activated != nil {
		activated = *q.Activated
	}

	page, err := s.svc.Users.List(c.Request.Context(), models.UserFilter{
		Username:  q.Username,
		Activated: &activated,
		Page:      q.Page,
		Limit:     q.Limit,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	resp := userListResponse{Page: page.Page, Limit: page.Limit, Total: page.Total, Users: make([]userResponse, 0, len(page.Users))}
	for _, u := range page.Users {
		resp.Users = append(resp.Users, toUserResponse(u))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) updateUser(c *gin.Context) {
	id, err := pathID(c, "user_id")
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, bindError(err))
		return
	}

	u, err := s.svc.Users.Update(c.Request.Context(), identity(c), id, models.UserUpdate{
		Username:  req.Username,
		Password:  req.Password,
		RoleID:    req.RoleID,
		Activated: req.Activated,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}

func (s *HTTPServer) disableUser(c *gin.Context) {
	id, err := pathID(c, "user_id")
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	msg, err := s.svc.Users.Disable(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "User disabled", "disabled_user_id", id)
	c.JSON(http.StatusOK, statusResponse{Detail: msg})
}
