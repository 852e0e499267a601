package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/pulse/internal/logger"
	"github.com/MrSnakeDoc/pulse/internal/mutation"
	"github.com/MrSnakeDoc/pulse/internal/notify"
	"github.com/MrSnakeDoc/pulse/internal/prefs"
	"github.com/MrSnakeDoc/pulse/internal/query"
)

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time      // for testing, defaults to time.Now
	AllowedOrigins []string              // CORS origins, empty = "*"
	RequestTimeout time.Duration         // per-request timeout (default: 30s)
	Queries        *query.Coordinator    // cache + in-flight fetches
	Services       *query.Services       // list/detail/poll queries
	Feeds          *query.Feeds          // per-service event feeds
	Mutations      *mutation.Coordinator // optimistic create/update/delete
	Notifications  *notify.Center        // toast feed
	Preferences    *prefs.Service        // theme and layout
	RedisClient    *redis.Client         // nil when preferences live in memory
	PollTrigger    chan struct{}         // Channel to trigger a manual status poll
}

// Now returns d.TimeNow() or time.Now().
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
