// conf/consts.go hard coded constants
package conf

const (
	SampleRate  = 44100 // Sample rate of the audio fed to the detection engine
	BitDepth    = 16    // Bit depth of captured audio
	NumChannels = 1     // Number of channels of captured audio

	// FFTSize is the number of time-domain samples per analysis frame.
	// The resulting spectrum has FFTSize/2 frequency bins. Classifier
	// band thresholds are calibrated against this resolution, changing
	// it invalidates them.
	FFTSize = 16384
)
