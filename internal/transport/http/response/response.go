package response

import "go-gin-auth-service/internal/domain"

// Body 统一响应体：message 必有；token/user 只在登录注册时返回；error 只在 500 且非生产环境返回
type Body struct {
	Message string             `json:"message"`
	Token   string             `json:"token,omitempty"`
	User    *domain.PublicUser `json:"user,omitempty"`
	Error   string             `json:"error,omitempty"`
}

func OK(msg string) Body { return Body{Message: msg} }

// WithSession 带令牌和用户的成功响应
func WithSession(msg, token string, u *domain.User) Body {
	pu := u.Public()
	return Body{Message: msg, Token: token, User: &pu}
}

// Error 失败响应（customMsg 为空时用状态默认文案）
func Error(status int, customMsg string) Body {
	msg := StatusMsgMap[status]
	if customMsg != "" {
		msg = customMsg
	}
	return Body{Message: msg}
}

// ServerError 500；verbose 时附带原因
func ServerError(cause error, verbose bool) Body {
	b := Body{Message: StatusMsgMap[500]}
	if verbose && cause != nil {
		b.Error = cause.Error()
	}
	return b
}
