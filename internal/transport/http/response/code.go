package response

import "net/http"

// 错误响应统一使用 HTTP 状态码，消息集中在这里
const (
	MsgBadRequest   = "Bad Request"
	MsgInvalidJSON  = "Invalid JSON body"
	MsgBodyTooLarge = "Request body too large"
	MsgUnauthorized = "Authentication required"
	MsgNotFound     = "Not Found"
	MsgUnavailable  = "service temporarily unavailable"
	MsgServerError  = "internal server error"
)

// CodeMsgMap 状态码的默认消息
var CodeMsgMap = map[int]string{
	http.StatusBadRequest:          MsgBadRequest,
	http.StatusUnauthorized:        MsgUnauthorized,
	http.StatusNotFound:            MsgNotFound,
	http.StatusConflict:            "Conflict",
	http.StatusServiceUnavailable:  MsgUnavailable,
	http.StatusInternalServerError: MsgServerError,
}
