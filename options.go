package acp

// Option configures an AgentSideConnection or ClientSideConnection at
// construction time.
type Option func(*connOptions)

// WithSpawn overrides how handler invocations are scheduled off the reader
// goroutine. The default spawns a plain goroutine per call; tests often
// pass a synchronous spawn (func(f func()) { f() }) to make dispatch
// deterministic.
func WithSpawn(spawn SpawnFunc) Option {
	return func(o *connOptions) { o.spawn = spawn }
}

// WithTap attaches an observer that sees every envelope sent or received,
// ahead of typed decoding.
func WithTap(tap Tap) Option {
	return func(o *connOptions) { o.tap = tap }
}

// WithRateLimit throttles incoming requests via an IncomingLimiter.
func WithRateLimit(limiter *IncomingLimiter) Option {
	return func(o *connOptions) { o.limiter = limiter }
}

// WithMetrics instruments the connection with a metricsCollector built by
// NewMetricsCollector.
func WithMetrics(m *metricsCollector) Option {
	return func(o *connOptions) { o.metrics = m }
}

// WithParseErrorHandler overrides how malformed incoming lines are
// reported. The default logs via the standard library logger and drops the
// line.
func WithParseErrorHandler(f func(line []byte, err error)) Option {
	return func(o *connOptions) { o.onParseError = f }
}

func buildOptions(opts []Option) connOptions {
	var o connOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
