package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marque-app/marque/internal/auth"
	"github.com/marque-app/marque/internal/logger"
	"github.com/marque-app/marque/internal/session"
	"github.com/marque-app/marque/internal/store"
)

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time // for testing, defaults to time.Now
	Resolver       auth.Resolver    // identity behind each session token
	Store          store.Store      // authoritative bookmark store
	Sessions       *session.Manager // live per-token sessions
	StoreBackend   string           // "supabase" | "redis", for the infra report
	RedisClient    *redis.Client    // nil unless the redis backend is active
	AllowedOrigins []string         // CORS allow-list for the browser client
	TrustProxy     bool             // true if running behind a trusted reverse proxy
}
