package handlers

import "github.com/gin-gonic/gin"

func getUserID(c *gin.Context) (int, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	userID, ok := value.(int)
	return userID, ok
}
