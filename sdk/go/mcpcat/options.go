package mcpcat

// Option configures a Tracker at creation time.
type Option func(*trackerConfig)

type trackerConfig struct {
	eventLogPath string
	queueSize    int
	identify     IdentifyFunc
	serverName   string
	serverVer    string
}

// WithEventLogPath sets where processed events are appended. Defaults
// to ~/.mcpcat/events.jsonl.
func WithEventLogPath(path string) Option {
	return func(c *trackerConfig) { c.eventLogPath = path }
}

// WithQueueSize bounds the in-flight event queue. Events beyond the
// bound are dropped, never blocked on.
func WithQueueSize(n int) Option {
	return func(c *trackerConfig) { c.queueSize = n }
}

// WithIdentify sets the callback that resolves the acting user from a
// tools/call request.
func WithIdentify(fn IdentifyFunc) Option {
	return func(c *trackerConfig) { c.identify = fn }
}

// WithServerInfo records the embedding server's name and version on
// every event.
func WithServerInfo(name, version string) Option {
	return func(c *trackerConfig) {
		c.serverName = name
		c.serverVer = version
	}
}
