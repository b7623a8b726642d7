package transport

// Transport defines a generic interface for sending telemetry frames.
// Implementations should be thread-safe; Send may be called from the audio
// callback thread and must never block on slow consumers.
type Transport interface {
	Send(data any) error
	Close() error
}

// StatusFrame carries the per-block gate state for monitoring clients.
// Levels are reported in dB and the spectrum as FFT magnitudes; no audio
// samples ever leave the process.
type StatusFrame struct {
	Type     string    `json:"type"` // "status"
	RMSDB    float64   `json:"rms_db"`
	GainDB   float64   `json:"gain_db"`
	GateOpen bool      `json:"gate_open"`
	Spectrum []float64 `json:"spectrum,omitempty"`
}

// SpectrumFrame carries standalone FFT magnitudes for clients that only
// consume the spectrum view.
type SpectrumFrame struct {
	Type       string    `json:"type"` // "spectrum"
	Magnitudes []float64 `json:"magnitudes"`
}
