package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"
)

// Minimal TwiML builders for the scripts this service actually issues.
// Hand-rolled on encoding/xml; no provider SDK.
//
// Every helper renders a complete <Response> document.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Text    string   `xml:",chardata"`
}

type twimlPause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

type twimlDial struct {
	XMLName    xml.Name         `xml:"Dial"`
	CallerID   string           `xml:"callerId,attr,omitempty"`
	Number     string           `xml:"Number,omitempty"`
	Conference *twimlConference `xml:"Conference,omitempty"`
}

type twimlConference struct {
	StartOnEnter bool   `xml:"startConferenceOnEnter,attr"`
	EndOnExit    bool   `xml:"endConferenceOnExit,attr"`
	Name         string `xml:",chardata"`
}

type twimlConnect struct {
	XMLName xml.Name     `xml:"Connect"`
	Stream  *twimlStream `xml:"Stream,omitempty"`
}

type twimlStream struct {
	URL  string `xml:"url,attr"`
	Name string `xml:"name,attr,omitempty"`
}

// HoldScript keeps an answered leg on silent hold so a human who picks up
// a probe hears nothing alarming before being bridged.
func HoldScript(seconds int) (string, error) {
	if seconds <= 0 {
		seconds = 60
	}
	return render(twimlPause{Length: seconds})
}

// DialNumberScript redirects a leg to dial a PSTN number directly.
func DialNumberScript(number, callerID string) (string, error) {
	if strings.TrimSpace(number) == "" {
		return "", errors.New("telephony: dial target required")
	}
	return render(twimlDial{CallerID: callerID, Number: number})
}

// DialConferenceScript routes a leg into a named conference room. Both
// parties of a merge issue the same name, so the room must be unique per
// transfer. The room tears down when either party leaves.
func DialConferenceScript(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", errors.New("telephony: conference name required")
	}
	return render(twimlDial{Conference: &twimlConference{
		StartOnEnter: true,
		EndOnExit:    true,
		Name:         name,
	}})
}

// ConnectStreamScript bridges the caller's audio to the voice-agent
// runtime's media websocket.
func ConnectStreamScript(joinURL, streamName string) (string, error) {
	if strings.TrimSpace(joinURL) == "" {
		return "", errors.New("telephony: stream url required")
	}
	return render(twimlConnect{Stream: &twimlStream{URL: joinURL, Name: streamName}})
}

// SayScript speaks one sentence and hangs up. Used when agent setup fails.
func SayScript(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("telephony: say text required")
	}
	return render(twimlSay{Text: text}, twimlHangup{})
}

func render(verbs ...any) (string, error) {
	r := twimlResponse{Verbs: verbs}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
