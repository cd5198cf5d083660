package apierror

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Outcome describes how a failed call ended.
type Outcome struct {
	// Dispatched is true once the request left the client.
	Dispatched bool
	// StatusCode is the HTTP status of the received response, 0 if none.
	StatusCode int
	// Body is the response body, used to recover a server supplied message.
	Body []byte
	// Err is the transport or preparation failure, if any.
	Err error
}

// Messages holds the display strings used by a Classifier.
type Messages struct {
	Unauthorized       string
	Forbidden          string
	NotFound           string
	TooManyRequests    string
	ServerError        string
	ServiceUnavailable string
	RequestFailed      string
	Network            string
	ClientConfig       string
	InvalidResponse    string
}

// DefaultMessages are the English display strings.
var DefaultMessages = Messages{
	Unauthorized:       "Your session has expired, please sign in again",
	Forbidden:          "You do not have permission to access this resource",
	NotFound:           "The requested resource does not exist",
	TooManyRequests:    "Too many requests, please try again later",
	ServerError:        "Internal server error",
	ServiceUnavailable: "Service is temporarily unavailable, please try again later",
	RequestFailed:      "Request failed",
	Network:            "Network connection failed, please check your network settings",
	ClientConfig:       "Request configuration error",
	InvalidResponse:    "Invalid response format",
}

// ChineseMessages mirror the wording of the web frontend.
var ChineseMessages = Messages{
	Unauthorized:       "登录已过期，请重新登录",
	Forbidden:          "没有权限访问该资源",
	NotFound:           "请求的资源不存在",
	TooManyRequests:    "请求过于频繁，请稍后再试",
	ServerError:        "服务器内部错误",
	ServiceUnavailable: "服务暂时不可用，请稍后再试",
	RequestFailed:      "请求失败",
	Network:            "网络连接失败，请检查网络设置",
	ClientConfig:       "请求配置错误",
	InvalidResponse:    "响应格式错误",
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithMessages replaces the display strings. Empty fields keep their default.
func WithMessages(m Messages) Option {
	return func(c *Classifier) {
		c.messages = mergeMessages(c.messages, m)
	}
}

// Classifier maps call outcomes to classified errors. It holds no mutable
// state and is safe for concurrent use.
type Classifier struct {
	messages Messages
}

// NewClassifier creates a classifier with DefaultMessages unless overridden.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{messages: DefaultMessages}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultClassifier = NewClassifier()

// Classify maps an outcome with the default message table.
func Classify(o Outcome) *Error {
	return defaultClassifier.Classify(o)
}

// Messages returns the display strings in use.
func (c *Classifier) Messages() Messages {
	return c.messages
}

// Classify maps an outcome to exactly one classified error.
func (c *Classifier) Classify(o Outcome) *Error {
	switch {
	case o.StatusCode != 0 && (o.StatusCode < 200 || o.StatusCode > 299):
		return c.Status(o.StatusCode, o.Body)
	case o.StatusCode != 0:
		return c.Validation(o.Err)
	case o.Dispatched:
		return c.Network(o.Err)
	default:
		return c.Config(o.Err)
	}
}

// Status classifies a received non-2xx response.
func (c *Classifier) Status(status int, body []byte) *Error {
	e := &Error{Kind: KindHTTPStatus, Code: status}
	switch status {
	case http.StatusUnauthorized:
		e.Kind = KindAuthExpired
		e.Message = c.messages.Unauthorized
	case http.StatusForbidden:
		e.Message = c.messages.Forbidden
	case http.StatusNotFound:
		e.Message = c.messages.NotFound
	case http.StatusTooManyRequests:
		e.Message = c.messages.TooManyRequests
	case http.StatusInternalServerError:
		e.Message = c.messages.ServerError
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		e.Message = c.messages.ServiceUnavailable
	default:
		e.Message = serverMessage(body)
		if e.Message == "" {
			e.Message = c.messages.RequestFailed
		}
	}
	return e
}

// Network classifies a dispatched call that produced no response.
func (c *Classifier) Network(cause error) *Error {
	return &Error{Kind: KindTransport, Code: CodeNetwork, Message: c.messages.Network, Cause: cause}
}

// Config classifies a call that was never dispatched.
func (c *Classifier) Config(cause error) *Error {
	e := &Error{Kind: KindConfig, Code: CodeClientConfig, Message: c.messages.ClientConfig, Cause: cause}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// Validation classifies a response that arrived but does not have the
// expected envelope shape.
func (c *Classifier) Validation(cause error) *Error {
	if cause == nil {
		cause = ErrInvalidEnvelope
	}
	return &Error{Kind: KindValidation, Code: CodeInvalidResponse, Message: c.messages.InvalidResponse, Cause: cause}
}

// Business classifies an envelope whose business code reports failure.
func (c *Classifier) Business(code int, message string, details any) *Error {
	if strings.TrimSpace(message) == "" {
		message = c.messages.RequestFailed
	}
	return &Error{Kind: KindBusiness, Code: code, Message: message, Details: details}
}

// serverMessage extracts a human readable message from an error body. Both
// the envelope shape ({"message": ...}) and the bare {"error": ...} shape are
// recognised.
func serverMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(payload.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(payload.Error)
}

func mergeMessages(base, override Messages) Messages {
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&base.Unauthorized, override.Unauthorized)
	pick(&base.Forbidden, override.Forbidden)
	pick(&base.NotFound, override.NotFound)
	pick(&base.TooManyRequests, override.TooManyRequests)
	pick(&base.ServerError, override.ServerError)
	pick(&base.ServiceUnavailable, override.ServiceUnavailable)
	pick(&base.RequestFailed, override.RequestFailed)
	pick(&base.Network, override.Network)
	pick(&base.ClientConfig, override.ClientConfig)
	pick(&base.InvalidResponse, override.InvalidResponse)
	return base
}
