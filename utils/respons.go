package utils

import (
	"github.com/gin-gonic/gin"
)

// JSONResponse envelope semua endpoint. RequestID diisi dari LoggerMiddleware
// supaya error di terminal bisa dicocokkan dengan log server.
type JSONResponse struct {
	Status    bool        `json:"status"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

func newResponse(c *gin.Context, ok bool, message string, data interface{}) JSONResponse {
	return JSONResponse{
		Status:    ok,
		Message:   message,
		Data:      data,
		RequestID: c.GetString("request_id"),
	}
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, newResponse(c, code >= 200 && code < 300, message, data))
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, newResponse(c, false, err.Error(), nil))
}

// RespondErrorData sama dengan RespondError tapi menyertakan detail (mis. error validasi per field)
func RespondErrorData(c *gin.Context, code int, err error, data interface{}) {
	c.JSON(code, newResponse(c, false, err.Error(), data))
}
