package media

import "fmt"

// UnreachableMediaMessage is shown to users when the upload cannot be fetched
const UnreachableMediaMessage = "Unable to access the uploaded file. Please try uploading again."

// UnreachableMediaError reports that an uploaded file failed the existence check
type UnreachableMediaError struct {
	URL        string
	StatusCode int // 0 when the request never completed
	Err        error
}

func (e *UnreachableMediaError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("media %s unreachable: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("media %s unreachable: %v", e.URL, e.Err)
}

func (e *UnreachableMediaError) Unwrap() error {
	return e.Err
}

// Normalization stages
const (
	StagePrepare  = "prepare"
	StageDownload = "download"
	StageConvert  = "convert"
	StageVerify   = "verify"
)

// NormalizationError reports a failure turning an upload into speech WAV
type NormalizationError struct {
	Stage string
	URL   string
	Err   error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s (%s): %v", e.URL, e.Stage, e.Err)
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}
