package ratelimit

import (
	"time"

	"github.com/pkg/errors"
)

// Policy names a class of throttled operations.
type Policy string

const (
	APIDefault Policy = "api_default"
	AuthLogin  Policy = "auth_login"
	FileUpload Policy = "file_upload"
	EmailSend  Policy = "email_send"
	AIAPI      Policy = "ai_api"

	anonymous = "anonymous"
)

var (
	ErrUnknownPolicy = errors.New("unknown rate limit policy")

	policies = map[Policy]Config{
		APIDefault: {Window: 15 * time.Minute, MaxRequests: 100},
		AuthLogin:  {Window: 15 * time.Minute, MaxRequests: 5},
		FileUpload: {Window: time.Hour, MaxRequests: 10},
		EmailSend:  {Window: time.Hour, MaxRequests: 20},
		AIAPI:      {Window: time.Hour, MaxRequests: 50},
	}
)

func (p Policy) Config() (Config, error) {
	cfg, ok := policies[p]
	if !ok {
		return Config{}, ErrUnknownPolicy
	}
	return cfg, nil
}

// Key is the limiter key of `identifier` for this policy.
func (p Policy) Key(identifier string) string {
	return string(p) + ":" + identifier
}

// Identifier picks who a request is counted against: the user when known, else the client IP.
func Identifier(userID, ip string) string {
	if userID != "" {
		return "user:" + userID
	}
	if ip != "" {
		return "ip:" + ip
	}
	return anonymous
}
