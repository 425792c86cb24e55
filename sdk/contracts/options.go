package contracts

// ClientConfig holds naming used when a backend registers an OS-level client.
type ClientConfig struct {
	ClientName string // Name of the MIDI client as seen by the OS.
	PortName   string // Name of the port the client opens.
}

// ClientOptions defines the configuration options for an engine connection.
type ClientOptions struct {
	Logger         Logger         // Logger for engine and backend events.
	LogLevel       LogLevel       // Level of logging to use.
	QueueCapacity  *int           // Delivery queue slots; 0 disables polling mode; nil picks the default.
	OutputRingSize int            // Output byte ring size for asynchronous backends.
	Ingestion      IngestionFlags // Initial ignore flags, applied before capture starts.
	ClientConfig   *ClientConfig  // Backend client naming.
}

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger for the connection.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level for the connection.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = level
	}
}

// WithQueueCapacity sets the number of delivery queue slots. A capacity of
// zero leaves the connection callback-only.
func WithQueueCapacity(n int) Option {
	return func(opts *ClientOptions) {
		opts.QueueCapacity = &n
	}
}

// WithOutputRingSize sets the byte capacity of the asynchronous output ring.
func WithOutputRingSize(n int) Option {
	return func(opts *ClientOptions) {
		opts.OutputRingSize = n
	}
}

// WithIngestionFlags sets the initial ignore flags for the connection.
func WithIngestionFlags(flags IngestionFlags) Option {
	return func(opts *ClientOptions) {
		opts.Ingestion = flags
	}
}

// WithClientConfig sets the backend client naming for the connection.
func WithClientConfig(config ClientConfig) Option {
	return func(opts *ClientOptions) {
		opts.ClientConfig = &config
	}
}
