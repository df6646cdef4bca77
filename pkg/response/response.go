package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Body struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Body{Code: 0, Message: message, Data: data})
}

func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Body{Code: 0, Message: message, Data: data})
}

func Fail(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusBadRequest, Body{Code: 1, Message: message, Data: data})
}

func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, Body{Code: 1, Message: message})
}

func Error(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, Body{Code: 1, Message: message})
}
