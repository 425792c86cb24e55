package stream

import (
	"github.com/leandrodaf/midistream/internal/logger"
	"github.com/leandrodaf/midistream/sdk/contracts"
)

// Defaults applied when options are not explicitly provided.
const (
	// DefaultQueueCapacity is the delivery queue size used when none is
	// configured. Polling consumers that fall behind by more than this many
	// messages start dropping.
	DefaultQueueCapacity = 100

	// DefaultOutputRingSize is the byte capacity of the asynchronous output
	// ring when the ring strategy is selected without an explicit size.
	DefaultOutputRingSize = 16384
)

// applyDefaultOptions sets default values for ClientOptions if not
// explicitly provided.
func applyDefaultOptions(opts ...contracts.Option) (contracts.ClientOptions, error) {
	options := &contracts.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.ClientConfig == nil {
		options.ClientConfig = &contracts.ClientConfig{
			ClientName: "midistream client",
			PortName:   "midistream port",
		}
	}

	options.Logger.SetLevel(options.LogLevel)
	return *options, nil
}

// queueCapacity resolves the configured delivery queue size.
func queueCapacity(options *contracts.ClientOptions) int {
	if options.QueueCapacity == nil {
		return DefaultQueueCapacity
	}
	return *options.QueueCapacity
}
