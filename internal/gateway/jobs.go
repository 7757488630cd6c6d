package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flemzord/cronbot/internal/action"
	"github.com/flemzord/cronbot/internal/command"
	"github.com/flemzord/cronbot/internal/cron"
	"github.com/flemzord/cronbot/internal/job"
)

const (
	defaultPreview = 5
	maxPreview     = 100
	maxBodyBytes   = 64 << 10
)

// jobJSON is a serializable job snapshot.
type jobJSON struct {
	Name      string     `json:"name"`
	Pattern   string     `json:"pattern"`
	Canonical string     `json:"canonical"`
	State     string     `json:"state"`
	Command   string     `json:"command"`
	Args      []string   `json:"args"`
	Channel   string     `json:"channel,omitempty"`
	Chat      string     `json:"chat,omitempty"`
	CreatedBy string     `json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	NextRun   *time.Time `json:"next_run,omitempty"`
}

func (g *Gateway) toJSON(j job.Job) jobJSON {
	out := jobJSON{
		Name:      j.Name,
		Pattern:   j.Pattern.Source(),
		Canonical: j.Pattern.String(),
		State:     j.State.String(),
		Command:   j.Action.Command,
		Args:      j.Action.Args,
		Channel:   j.Target.Channel,
		Chat:      j.Target.Chat,
		CreatedBy: j.CreatedBy,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
	if out.Args == nil {
		out.Args = []string{}
	}
	if j.State == job.Scheduled && g.scheduler != nil {
		if next, ok := g.scheduler.NextRun(j.Name); ok {
			out.NextRun = &next
		}
	}
	return out
}

// handleListJobs returns every job in registration order.
func (g *Gateway) handleListJobs() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		jobs := g.jobs.List()
		out := make([]jobJSON, 0, len(jobs))
		for _, j := range jobs {
			out = append(out, g.toJSON(j))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// handleGetJob returns one job by name.
func (g *Gateway) handleGetJob() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		j, err := g.jobs.Get(name)
		if err != nil {
			http.Error(w, "job not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, g.toJSON(j))
	}
}

// commandRequest is the body of POST /api/commands.
type commandRequest struct {
	Text    string `json:"text"`
	Channel string `json:"channel"`
	Chat    string `json:"chat"`
	User    string `json:"user"`
}

// commandResponse is the result of POST /api/commands.
type commandResponse struct {
	OK     bool     `json:"ok"`
	Reply  string   `json:"reply,omitempty"`
	Job    *jobJSON `json:"job,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// handleCommand runs a cron command. Rejected commands get 422 with every
// violation; internal failures get 500.
func (g *Gateway) handleCommand() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req commandRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			http.Error(w, "missing command text", http.StatusBadRequest)
			return
		}

		reply, err := g.commands.Run(r.Context(), req.Text, command.Origin{
			Channel: req.Channel,
			Chat:    req.Chat,
			User:    req.User,
		})
		if err != nil {
			status := http.StatusUnprocessableEntity
			if !isUserError(err) {
				status = http.StatusInternalServerError
				g.logger.Error("gateway: command failed", "text", req.Text, "error", err)
			}
			writeJSON(w, status, commandResponse{Errors: command.Messages(err)})
			return
		}

		resp := commandResponse{OK: true, Reply: reply.Text}
		if reply.Job != nil {
			jj := g.toJSON(*reply.Job)
			resp.Job = &jj
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// isUserError reports whether err was caused by the command itself rather
// than by the server.
func isUserError(err error) bool {
	var (
		ve *command.ValidationError
		ie *action.InvocationError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &ie):
		return true
	case errors.Is(err, job.ErrNotFound),
		errors.Is(err, job.ErrDuplicateName),
		errors.Is(err, job.ErrInvalidTransition),
		errors.Is(err, cron.ErrUnsatisfiable):
		return true
	}
	return false
}

// nextResponse is the result of GET /api/next.
type nextResponse struct {
	Pattern   string      `json:"pattern"`
	Canonical string      `json:"canonical"`
	Timezone  string      `json:"timezone"`
	Next      []time.Time `json:"next"`
}

// handleNext previews the next occurrences of ?pattern=, n at a time.
func (g *Gateway) handleNext() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		fields := strings.Fields(q.Get("pattern"))
		if errs := cron.ValidateFields(fields); len(errs) > 0 {
			msgs := make([]string, len(errs))
			for i, e := range errs {
				msgs[i] = e.Error()
			}
			writeJSON(w, http.StatusUnprocessableEntity, commandResponse{Errors: msgs})
			return
		}

		n := defaultPreview
		if raw := q.Get("n"); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil || v < 1 || v > maxPreview {
				http.Error(w, "n must be between 1 and 100", http.StatusBadRequest)
				return
			}
			n = v
		}

		p, _ := cron.ParseFields(fields)
		loc := time.Local
		if g.scheduler != nil {
			loc = g.scheduler.Location()
		}
		next, err := p.NextN(g.now().In(loc), n)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, commandResponse{Errors: []string{err.Error()}})
			return
		}
		writeJSON(w, http.StatusOK, nextResponse{
			Pattern:   p.Source(),
			Canonical: p.String(),
			Timezone:  loc.String(),
			Next:      next,
		})
	}
}
