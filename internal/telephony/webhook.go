package telephony

import (
	"net/http"
	"strings"
)

// InboundVoiceForm captures the subset of Twilio's voice webhook fields
// the receptionist uses. Twilio sends application/x-www-form-urlencoded
// by default.
//
// Adapter-only: no routing or business decisions are made here.
type InboundVoiceForm struct {
	CallSid    string
	AccountSid string
	From       string
	To         string
	Direction  string
	CallStatus string
	CallerName string
}

func ParseInboundVoice(r *http.Request) (InboundVoiceForm, error) {
	if err := r.ParseForm(); err != nil {
		return InboundVoiceForm{}, err
	}
	f := InboundVoiceForm{
		CallSid:    r.PostFormValue("CallSid"),
		AccountSid: r.PostFormValue("AccountSid"),
		From:       normalizePhone(r.PostFormValue("From")),
		To:         normalizePhone(r.PostFormValue("To")),
		Direction:  r.PostFormValue("Direction"),
		CallStatus: r.PostFormValue("CallStatus"),
		CallerName: r.PostFormValue("CallerName"),
	}
	return f, nil
}

func normalizePhone(s string) string {
	// Twilio sometimes sends "anonymous" or empty; keep as-is.
	return strings.TrimSpace(s)
}
