package utils

import (
	"context"

	"github.com/gin-gonic/gin"
)

type CustomContext struct {
	AppSource string
	UserId    string
}

// UserIdHeaders are checked in order when resolving the calling user.
var UserIdHeaders = []string{"X-Blastpipe-User-Id", "X-User-Id"}

type contextKey string

var customContextKey contextKey = "CUSTOM_CONTEXT"

func WithCustomContext(ctx context.Context, customContext *CustomContext) context.Context {
	return context.WithValue(ctx, customContextKey, customContext)
}

func WithCustomContextFromGinRequest(c *gin.Context, appSource string) context.Context {
	customContext := &CustomContext{
		AppSource: appSource,
		UserId:    c.GetString("UserId"),
	}
	return WithCustomContext(c.Request.Context(), customContext)
}

func GetContext(ctx context.Context) *CustomContext {
	customContext, ok := ctx.Value(customContextKey).(*CustomContext)
	if !ok {
		return new(CustomContext)
	}
	return customContext
}

func GetUserIdFromContext(ctx context.Context) string {
	return GetContext(ctx).UserId
}
