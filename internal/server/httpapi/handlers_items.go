package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
	"github.com/gin-gonic/gin"
)

func (s *HTTPServer) createItem(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, bindError(err))
		return
	}

	it, err := s.svc.Items.Create(c.Request.Context(), identity(c).User.ID, req.Name, req.Description)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toItemResponse(it))
}

func (s *HTTPServer) getItem(c *gin.Context) {
	id, err := pathID(c, "item_id")
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	it, err := s.svc.Items.Get(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toItemResponse(it))
}

func (s *HTTPServer) listItems(c *gin.Context) {
	var q listItemsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.abortWithError(c, bindError(err))
		return
	}

	page, err := s.svc.Items.List(c.Request.Context(), models.ItemFilter{
		Name:        q.Name,
		Description: q.Description,
		Page:        q.Page,
		Limit:       q.Limit,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	resp := itemListResponse{Page: page.Page, Limit: page.Limit, Total: page.Total, Items: make([]itemResponse, 0, len(page.Items))}
	for _, it := range page.Items {
		resp.Items = append(resp.Items, toItemResponse(it))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) updateItem(c *gin.Context) {
	id, err := pathID(c, "item_id")
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, bindError(err))
		return
	}

	it, err := s.svc.Items.Update(c.Request.Context(), id, models.ItemUpdate{Name: req.Name, Description: req.Description})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toItemResponse(it))
}

func (s *HTTPServer) deleteItem(c *gin.Context) {
	id, err := pathID(c, "item_id")
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	msg, err := s.svc.Items.Delete(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusResponse{Detail: msg})
}
