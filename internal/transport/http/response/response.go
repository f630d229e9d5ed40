package response

// Message is the body of every error response, and of a few success
// responses such as logout.
type Message struct {
	Message string `json:"message"`
}

// Error 失败响应（可以传自定义 msg 覆盖默认）
func Error(code int, customMsg string) Message {
	if customMsg != "" {
		return Message{Message: customMsg}
	}
	if msg, ok := CodeMsgMap[code]; ok {
		return Message{Message: msg}
	}
	return Message{Message: MsgServerError}
}

func Msg(msg string) Message { return Message{Message: msg} }
