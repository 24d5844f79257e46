package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Actor headers are set by the authenticating gateway in front of this service.
const (
	ActorTypeHeader = "X-Actor-Type"
	ActorIDHeader   = "X-Actor-ID"
)

// Actor identifies who triggered a request, for the status audit log.
type Actor struct {
	Type string
	ID   string
}

// GetActor reads the actor headers. Missing type defaults to "unknown".
func GetActor(c *gin.Context) Actor {
	actorType := strings.ToLower(strings.TrimSpace(c.GetHeader(ActorTypeHeader)))
	if actorType == "" {
		actorType = "unknown"
	}
	return Actor{
		Type: actorType,
		ID:   strings.TrimSpace(c.GetHeader(ActorIDHeader)),
	}
}
