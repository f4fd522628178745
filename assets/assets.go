package assets

const (
	// ServiceName is used as tracer and logger identity across all commands.
	ServiceName = "munggah"

	// Version is the service version baked into this binary.
	Version = "1.0.0"

	// DBVersion is the catalog schema version this binary requires.
	// The upgrade coordinator walks the step table in assets/upgrades
	// until the running database reaches this version.
	DBVersion = "0.0.6"
)
