package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/custodia-labs/charterbook/internal/logger"
)

// stream writes one "snapshot" event per value received until the channel
// closes. Watches close their channel when the request context ends.
func stream[S any](w http.ResponseWriter, snapshots <-chan S, payload func(S) any) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for snap := range snapshots {
		data, err := json.Marshal(payload(snap))
		if err != nil {
			logger.L().Warn("encode snapshot", zap.Error(err))
			continue
		}
		if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
			drain(snapshots)
			return
		}
		if err := rc.Flush(); err != nil {
			drain(snapshots)
			return
		}
	}
}

// drain discards snapshots until the watch shuts down.
func drain[S any](snapshots <-chan S) {
	for range snapshots {
	}
}
