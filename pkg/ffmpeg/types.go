package ffmpeg

// AudioMetadata represents metadata extracted from a media file
type AudioMetadata struct {
	Duration   float64 `json:"duration"`    // Duration in seconds
	SampleRate int     `json:"sample_rate"` // Sample rate in Hz
	Channels   int     `json:"channels"`    // Number of audio channels
	Bitrate    int     `json:"bitrate"`     // Bitrate in bits per second
	Format     string  `json:"format"`      // Container format (wav, mov, mp4, ...)
	Codec      string  `json:"codec"`       // Audio codec
	Size       int64   `json:"size"`        // File size in bytes
}

// WAVProfile describes the PCM encoding produced by ConvertToWAV
type WAVProfile struct {
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Codec      string `json:"codec"` // ffmpeg encoder name, e.g. pcm_s16le
}

// SpeechProfile is 16 kHz mono signed 16-bit PCM, the format speech-to-text
// providers expect.
func SpeechProfile() WAVProfile {
	return WAVProfile{
		SampleRate: 16000,
		Channels:   1,
		Codec:      "pcm_s16le",
	}
}
