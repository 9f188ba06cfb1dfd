package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type statusResponse struct {
	Detail string `json:"detail"`
}

// abortWithError writes err as {"detail": ...}. The fault's internal info is
// logged, never returned.
func (s *HTTPServer) abortWithError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	fault, ok := common.AsFault(err)
	if !ok {
		s.logger.Error(ctx, "unhandled error", "error", err.Error())
		c.AbortWithStatusJSON(http.StatusInternalServerError, statusResponse{Detail: common.MsgInternalServerError})
		return
	}

	status := fault.Status()
	if status >= http.StatusInternalServerError {
		s.logger.Error(ctx, fault.Detail, "info", fault.Error(), "status", status)
	} else {
		s.logger.Warn(ctx, fault.Detail, "info", fault.Info, "status", status)
	}
	c.AbortWithStatusJSON(status, statusResponse{Detail: fault.Detail})
}

// bindError turns a gin binding failure into a 422 fault.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return common.Validation(fmt.Sprintf("field %s failed on the '%s' rule", fe.Field(), fe.Tag()), "binding: %v", err)
	}
	return common.Validation(common.MsgCannotParseRequest, "binding: %v", err)
}
