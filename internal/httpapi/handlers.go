package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/meshahzad92/Inbound-Calling/internal/agent"
	"github.com/meshahzad92/Inbound-Calling/internal/auth"
	"github.com/meshahzad92/Inbound-Calling/internal/reporting"
	"github.com/meshahzad92/Inbound-Calling/internal/telephony"
	"github.com/meshahzad92/Inbound-Calling/internal/transfer"
	"github.com/meshahzad92/Inbound-Calling/pkg/logger"
)

// Destination aliases the agent may send instead of a real number. They
// all resolve to the configured management fallback.
var destinationAliases = map[string]struct{}{
	"management_redirect_number": {},
	"management_number":          {},
	"MANAGEMENT_REDIRECT_NUMBER": {},
	"MANAGEMENT_NUMBER":          {},
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Agent     *agent.Client
	Sessions  *agent.SessionRegistry
	Monitor   *agent.Monitor
	Transfers *transfer.Orchestrator
	Outcomes  transfer.OutcomeStore
	Reports   *reporting.Service
	Auth      *auth.Manager

	AgentVoice      string
	TransferToolURL string
	AdminUser       string
	AdminPassword   string
}

// --- Voice webhook ---

// HandleInboundVoice answers the provider's inbound-call webhook. It
// spins up an agent session, starts its monitor, and returns TwiML that
// streams the caller's audio to the agent.
func (h Handlers) HandleInboundVoice(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := telephony.ParseInboundVoice(c.Request)
	if err != nil {
		log.Error("inbound webhook parse failed", "err", err)
		h.answerApology(c)
		return
	}
	log.Info("inbound call", "call_sid", form.CallSid, "from", form.From)

	sess, err := h.Agent.CreateCall(c.Request.Context(), agent.CallParams{
		SystemPrompt:    agent.ReceptionistPrompt,
		Voice:           h.AgentVoice,
		TransferToolURL: h.TransferToolURL,
	})
	if err != nil {
		log.Error("agent call creation failed", "call_sid", form.CallSid, "err", err)
		h.answerApology(c)
		return
	}

	script, err := telephony.ConnectStreamScript(sess.JoinURL, "ultravox")
	if err != nil {
		log.Error("stream script render failed", "call_sid", form.CallSid, "err", err)
		h.answerApology(c)
		return
	}

	h.Sessions.Register(sess.CallID, form.CallSid, form.From)
	go h.Monitor.Watch(context.Background(), sess.CallID, form.CallSid, form.From)

	log.Info("agent session started", "call_sid", form.CallSid, "agent_call_id", sess.CallID)
	h.answerTwiML(c, script)
}

func (h Handlers) answerApology(c *gin.Context) {
	script, err := telephony.SayScript("We're experiencing technical difficulties. Please try again later.")
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	h.answerTwiML(c, script)
}

func (h Handlers) answerTwiML(c *gin.Context, script string) {
	c.Data(http.StatusOK, "text/xml; charset=utf-8", []byte(script))
}

// --- Transfer tool ---

type transferToolRequest struct {
	CallSid           string `json:"callSid"`
	DestinationNumber string `json:"destinationNumber"`
	TransferReason    string `json:"transferReason"`
}

// HandleTransferTool serves the agent's transferCall tool. It runs the
// quick transfer synchronously so the agent can tell the caller whether
// anyone picked up.
func (h Handlers) HandleTransferTool(c *gin.Context) {
	log := logger.FromGin(c)

	var req transferToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json", "status": "failed"})
		return
	}

	out := h.Transfers.Transfer(c.Request.Context(), h.toTransferRequest(req))
	log.Info("transfer tool served",
		"call_sid", out.CallerLegID,
		"status", out.Status,
		"message", out.Message,
	)
	if out.Status == transfer.StatusFailed && out.Message == transfer.NoActiveCallMessage {
		c.JSON(http.StatusOK, gin.H{"status": out.Status, "error": out.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": out.Status, "message": out.Message})
}

// HandleTransferBackground accepts a transfer and runs it without
// holding the request open.
func (h Handlers) HandleTransferBackground(c *gin.Context) {
	var req transferToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json", "status": "failed"})
		return
	}

	h.Transfers.TransferBackground(h.toTransferRequest(req))
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (h Handlers) toTransferRequest(req transferToolRequest) transfer.Request {
	dest := req.DestinationNumber
	if _, isAlias := destinationAliases[dest]; isAlias {
		dest = ""
	}
	reason := req.TransferReason
	if reason == "" {
		reason = "Caller requested transfer"
	}
	return transfer.Request{
		CallerLegID:       req.CallSid,
		DestinationNumber: dest,
		Reason:            reason,
		RequestedAt:       time.Now(),
	}
}

// --- Auth ---

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login issues a JWT token pair against the configured admin account.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.AdminUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.AdminPassword)) == 1
	if !userOK || !passOK {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.Username, auth.RoleAdmin)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Reports ---

// ListReports returns call records, optionally bounded by from/to
// query params in RFC 3339.
func (h Handlers) ListReports(c *gin.Context) {
	var from, to time.Time
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC 3339"})
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC 3339"})
			return
		}
		to = t
	}

	recs, err := h.Reports.List(c.Request.Context(), from, to)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": recs})
}

// GetTransferOutcome exposes the recorded outcome for one caller leg.
func (h Handlers) GetTransferOutcome(c *gin.Context) {
	callSID := c.Param("call_sid")
	out, ok, err := h.Outcomes.Lookup(c.Request.Context(), callSID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "outcome lookup failed"})
		return
	}
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no outcome for call"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// Health reports process liveness.
func (h Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "inbound-calling"})
}
