package reporting

import (
	"strings"
	"time"
)

// Transfer column values in call records. A caller whose transfer never
// completed, or who never asked for one, reads as not answered.
const (
	TransferAnswered    = "Answered"
	TransferNotAnswered = "Not answered"
)

// CallRecord is one finished reception call with whatever contact
// details the agent captured.
type CallRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	CallSID        string    `json:"call_sid"`
	DepartmentCode string    `json:"department_code"`
	DepartmentName string    `json:"department_name"`
	CallerPhone    string    `json:"caller_phone"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email"`
	Organization   string    `json:"organization"`
	Summary        string    `json:"summary"`
	Transfer       string    `json:"transfer"`
}

var departmentNames = map[string]string{
	"1": "¡VIVA! Audio Bible",
	"2": "Casting & Talent",
	"3": "Press & Media Relations",
	"4": "Tech Support",
	"5": "Sales & Partnerships",
	"6": "Management Team",
	"0": "General Voicemail",

	"viva":       "¡VIVA! Audio Bible",
	"casting":    "Casting & Talent",
	"press":      "Press & Media Relations",
	"support":    "Tech Support",
	"sales":      "Sales & Partnerships",
	"management": "Management Team",
	"voicemail":  "General Voicemail",
}

// DepartmentName maps what the caller said (a menu digit or a department
// word) to the display name used in reports.
func DepartmentName(code string) string {
	if name, ok := departmentNames[strings.ToLower(strings.TrimSpace(code))]; ok {
		return name
	}
	return "Unknown Department"
}
