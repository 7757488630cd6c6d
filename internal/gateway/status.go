package gateway

import (
	"net/http"
	"time"
)

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	Uptime      int64          `json:"uptime_seconds"`
	Timezone    string         `json:"timezone"`
	Armed       int            `json:"armed"`
	States      map[string]int `json:"states"`
	Subscribers int            `json:"subscribers"`
}

// handleStatus returns an http.HandlerFunc for GET /status.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := StatusResponse{
			Uptime: int64(time.Since(g.startedAt).Truncate(time.Second) / time.Second),
			States: map[string]int{},
		}
		if g.scheduler != nil {
			resp.Timezone = g.scheduler.Location().String()
			resp.Armed = g.scheduler.Armed()
		}
		if g.jobs != nil {
			for _, j := range g.jobs.List() {
				resp.States[j.State.String()]++
			}
		}
		if g.events != nil {
			resp.Subscribers = g.events.Subscribers()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
