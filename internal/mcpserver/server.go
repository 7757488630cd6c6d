// Package mcpserver exposes the cron interpreter as Model Context Protocol
// tools over stdio, so an assistant can create, inspect and preview jobs.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flemzord/cronbot/internal/command"
	"github.com/flemzord/cronbot/internal/cron"
	"github.com/flemzord/cronbot/internal/job"
)

// Preview bounds for cron_next.
const (
	defaultCount = 5
	maxCount     = 50
)

// Runner executes cron commands.
type Runner interface {
	Run(ctx context.Context, text string, from command.Origin) (command.Reply, error)
}

// Scheduler reports next runs of armed jobs.
type Scheduler interface {
	NextRun(name string) (time.Time, bool)
	Location() *time.Location
}

// Deps are the server's collaborators.
type Deps struct {
	Commands  Runner
	Jobs      *job.Registry
	Scheduler Scheduler
	// User is recorded as the sender of every command. Defaults to "mcp".
	User    string
	Version string
	Logger  *slog.Logger
}

// Server wraps an MCP server bound to one interpreter.
type Server struct {
	commands  Runner
	jobs      *job.Registry
	scheduler Scheduler
	user      string
	logger    *slog.Logger
	now       func() time.Time

	server *server.MCPServer
}

// New creates a server with every tool registered.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	user := deps.User
	if user == "" {
		user = "mcp"
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		commands:  deps.Commands,
		jobs:      deps.Jobs,
		scheduler: deps.Scheduler,
		user:      user,
		logger:    logger.With("component", "mcp"),
		now:       time.Now,
	}
	s.server = server.NewMCPServer(
		"cronbot",
		version,
		server.WithToolCapabilities(true),
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.server.AddTool(mcp.NewTool("cron_command",
		mcp.WithDescription("Run a cron command such as 'job NAME SEC MIN HOUR MDAY MONTH WDAY COMMAND [ARGS...]', 'test', 'save', 'load NAME', 'stop NAME', 'delete NAME', 'list' or 'help'. Months are 0-11 and weekdays 0-6 (Sunday=0)."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The command, with or without the leading 'cron'"),
		),
	), s.handleCommand)

	s.server.AddTool(mcp.NewTool("cron_list",
		mcp.WithDescription("List every cron job with its pattern, state, command and next run, as JSON"),
	), s.handleList)

	s.server.AddTool(mcp.NewTool("cron_next",
		mcp.WithDescription("Preview the next occurrences of a six-field cron pattern without creating a job"),
		mcp.WithString("pattern",
			mcp.Required(),
			mcp.Description("Six space-separated fields: second minute hour day-of-month month(0-11) weekday(0-6)"),
		),
		mcp.WithNumber("count",
			mcp.Description("Number of occurrences to return (default 5, max 50)"),
		),
	), s.handleNext)
}

// Serve speaks MCP over stdin/stdout until the client disconnects.
func (s *Server) Serve() error {
	s.logger.Info("mcp: serving on stdio")
	return server.ServeStdio(s.server)
}

// handleCommand handles cron_command tool calls.
func (s *Server) handleCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	reply, err := s.commands.Run(ctx, text, command.Origin{User: s.user})
	if err != nil {
		return mcp.NewToolResultError(strings.Join(command.Messages(err), "\n")), nil
	}
	return mcp.NewToolResultText(reply.Text), nil
}

// jobView is the cron_list representation of a job.
type jobView struct {
	Name    string     `json:"name"`
	Pattern string     `json:"pattern"`
	State   string     `json:"state"`
	Command string     `json:"command"`
	NextRun *time.Time `json:"next_run,omitempty"`
}

// handleList handles cron_list tool calls.
func (s *Server) handleList(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobs := s.jobs.List()
	out := make([]jobView, 0, len(jobs))
	for _, j := range jobs {
		v := jobView{
			Name:    j.Name,
			Pattern: j.Pattern.Source(),
			State:   j.State.String(),
			Command: j.Action.String(),
		}
		if s.scheduler != nil {
			if next, ok := s.scheduler.NextRun(j.Name); ok {
				v.NextRun = &next
			}
		}
		out = append(out, v)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode jobs: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// handleNext handles cron_next tool calls.
func (s *Server) handleNext(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pattern, err := request.RequireString("pattern")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	count := request.GetInt("count", defaultCount)
	if count < 1 || count > maxCount {
		return mcp.NewToolResultError(fmt.Sprintf("count must be between 1 and %d", maxCount)), nil
	}

	fields := strings.Fields(pattern)
	if errs := cron.ValidateFields(fields); len(errs) > 0 {
		return mcp.NewToolResultError(errors.Join(errs...).Error()), nil
	}
	p, err := cron.ParseFields(fields)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	loc := time.Local
	if s.scheduler != nil {
		loc = s.scheduler.Location()
	}
	next, err := p.NextN(s.now().In(loc), count)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Pattern %s (%s) next runs in %s:\n", p.Source(), p.String(), loc)
	for _, t := range next {
		fmt.Fprintf(&b, "  %s\n", t.Format(time.RFC3339))
	}
	return mcp.NewToolResultText(b.String()), nil
}
