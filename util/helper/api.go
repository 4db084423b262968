package helper_util

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetPageParams reads page/limit query parameters the way the TVMS
// backend does. Used by the in-process test backend.
func GetPageParams(c *gin.Context) (page int, limit int, err error) {
	page, err = strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		return 0, 0, err
	}
	limit, err = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}
