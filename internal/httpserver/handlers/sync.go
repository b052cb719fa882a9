package handlers

import (
	"net/http"

	"github.com/marque-app/marque/internal/httpserver/deps"
	"github.com/marque-app/marque/internal/logger"
)

// TriggerSync forces an immediate reconciliation pass for the calling
// session instead of waiting for the next tick. The trigger never
// blocks; a pass already pending absorbs it.
func TriggerSync(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := acquire(d, r)
		s.Reconciler.Trigger()

		d.Logger.Debug("manual sync triggered",
			logger.String("remote_ip", r.RemoteAddr))
		writeData(w, http.StatusAccepted, map[string]bool{"triggered": true})
	}
}
