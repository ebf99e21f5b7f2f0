package extract

import "context"

// Contact is the structured information pulled out of a finished call
// transcript. Unset fields stay empty rather than erroring.
type Contact struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Organization string `json:"organization"`
	Summary      string `json:"summary"`
	Department   string `json:"department"`
}

// Extractor turns a raw transcript into a Contact.
type Extractor interface {
	Extract(ctx context.Context, transcript string) (Contact, error)
}

// Fallback is what callers should record when extraction fails outright.
// Unrouted calls land in voicemail.
func Fallback() Contact {
	return Contact{Department: "voicemail"}
}
