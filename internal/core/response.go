// Package core holds the gateway's response envelope helpers shared by
// every HTTP handler.
package core

import (
	"github.com/gin-gonic/gin"

	"github.com/agentrelay/agentrelay/pkg/errorx"
)

// ErrorBody is the OpenAI-shaped error envelope every error response uses.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the message/type/param/code fields OpenAI clients
// expect to find under "error".
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// WriteResponse writes err's mapped status and OpenAI-shaped error body if
// err is non-nil, otherwise writes data at 200 OK.
func WriteResponse(c *gin.Context, err error, data interface{}) {
	if err == nil {
		c.JSON(200, data)
		return
	}

	coder := errorx.ParseCoder(err)
	c.JSON(coder.HTTPStatus(), ErrorBody{
		Error: ErrorDetail{
			Message: err.Error(),
			Type:    "invalid_request_error",
			Code:    coder.Code(),
		},
	})
}
