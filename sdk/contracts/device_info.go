package contracts

// DeviceInfo describes one enumerable MIDI endpoint.
type DeviceInfo struct {
	Name         string // Port name as reported by the OS.
	Manufacturer string // Device manufacturer, when the API exposes it.
	EntityName   string // Name of the entity the port belongs to.
}
