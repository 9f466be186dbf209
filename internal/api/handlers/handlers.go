package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/credihub/fgts-api/internal/models"
)

// pagination reads page/per_page from the query string with sane bounds
func pagination(c *gin.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}

func respondSuccess(c *gin.Context, start time.Time, message string, data interface{}) {
	resp := models.NewSuccessResponse(message, data)
	resp.SetExecutionTime(time.Since(start))
	resp.SetRequestID(c.GetString("request_id"))
	c.JSON(http.StatusOK, resp)
}

func respondError(c *gin.Context, status int, code, message string, details interface{}) {
	resp := models.NewErrorResponse(code, message, details)
	resp.SetRequestID(c.GetString("request_id"))
	c.JSON(status, resp)
}
