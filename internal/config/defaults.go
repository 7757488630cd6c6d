package config

import "time"

// Default values applied by ApplyDefaults.
const (
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultActionTimeout  = time.Minute
	DefaultChannel        = "log"
	DefaultBind           = "127.0.0.1:8080"
	DefaultReadTimeout    = 10 * time.Second
	DefaultWriteTimeout   = 30 * time.Second
	DefaultShutdown       = 5 * time.Second
	DefaultServiceName    = "cronbot"
	DefaultWebhookTimeout = 10 * time.Second
)

// ApplyDefaults fills zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Scheduler.ActionTimeout <= 0 {
		c.Scheduler.ActionTimeout = DefaultActionTimeout
	}
	if c.Store.Driver == "" {
		c.Store.Driver = StoreSQLite
	}
	if c.Channels.Default == "" {
		c.Channels.Default = DefaultChannel
	}
	for name, a := range c.Actions {
		if a.Kind == ActionWebhook && a.Timeout <= 0 {
			a.Timeout = DefaultWebhookTimeout
			c.Actions[name] = a
		}
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = DefaultServiceName
	}
	if c.Tracing.SampleRatio == 0 {
		c.Tracing.SampleRatio = 1
	}
	if g := c.Gateway; g != nil {
		if g.Bind == "" {
			g.Bind = DefaultBind
		}
		if g.ReadTimeout <= 0 {
			g.ReadTimeout = DefaultReadTimeout
		}
		if g.WriteTimeout <= 0 {
			g.WriteTimeout = DefaultWriteTimeout
		}
		if g.ShutdownTimeout <= 0 {
			g.ShutdownTimeout = DefaultShutdown
		}
	}
}
