// Package web serves the chat front end: a transcript page and a form
// endpoint that answers one question per request.
package web

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/finchat-ai/finchat/chat"
	"github.com/finchat-ai/finchat/log"
)

const sessionCookie = "finchat_session"

// GenericFailureMessage is shown when answer generation fails.
const GenericFailureMessage = "Sorry, something went wrong answering that. Please try again."

// Asker answers one question within a session.
type Asker interface {
	Ask(ctx context.Context, session *chat.Session, question string) (string, error)
}

// Server is the HTTP front end. Each browser session maps to one
// conversation session; turns within a session are serialized.
type Server struct {
	asker    Asker
	logger   log.Logger
	policy   *bluemonday.Policy
	page     *template.Template
	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	mu      sync.Mutex
	session *chat.Session
}

// NewServer creates the front end over the given turn pipeline.
func NewServer(asker Asker, logger log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		asker:    asker,
		logger:   logger,
		policy:   bluemonday.UGCPolicy(),
		page:     template.Must(template.New("chat").Parse(chatPageTemplate)),
		sessions: make(map[string]*sessionEntry),
	}
}

// Router builds the gin handler.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/", s.handleIndex)
	r.POST("/chat", s.handleChat)
	return r
}

// handleIndex renders the transcript page for the caller's session.
func (s *Server) handleIndex(c *gin.Context) {
	entry := s.sessionFor(c)
	entry.mu.Lock()
	history := entry.session.History()
	entry.mu.Unlock()

	type message struct {
		Role string
		HTML template.HTML
	}
	messages := make([]message, 0, len(history))
	for _, turn := range history {
		messages = append(messages, message{
			Role: string(turn.Role),
			HTML: s.renderMarkdown(turn.Content),
		})
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, gin.H{"Messages": messages}); err != nil {
		s.logger.Error("render transcript: %v", err)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// handleChat answers one question. The response body is the raw answer
// text; errors surface as a generic failure message rather than a 5xx
// page so the front end stays usable.
func (s *Server) handleChat(c *gin.Context) {
	question := strings.TrimSpace(c.PostForm("msg"))
	if question == "" {
		c.String(http.StatusBadRequest, "missing msg")
		return
	}

	entry := s.sessionFor(c)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	answer, err := s.asker.Ask(c.Request.Context(), entry.session, question)
	if err != nil {
		s.logger.Error("session %s: turn failed: %v", entry.session.ID, err)
		c.String(http.StatusOK, GenericFailureMessage)
		return
	}
	c.String(http.StatusOK, answer)
}

// sessionFor finds or creates the conversation session for the request,
// keyed by cookie.
func (s *Server) sessionFor(c *gin.Context) *sessionEntry {
	id, err := c.Cookie(sessionCookie)
	if err != nil || id == "" {
		id = uuid.NewString()
		c.SetCookie(sessionCookie, id, 86400, "/", "", false, true)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[id]
	if !ok {
		entry = &sessionEntry{session: chat.NewSession(id)}
		s.sessions[id] = entry
	}
	return entry
}

// renderMarkdown converts an answer to sanitized HTML.
func (s *Server) renderMarkdown(text string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	raw := markdown.ToHTML([]byte(text), p, renderer)
	return template.HTML(s.policy.SanitizeBytes(raw))
}

const chatPageTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>FinChat</title>
  <style>
    body { font-family: sans-serif; max-width: 720px; margin: 2rem auto; }
    .user { color: #1a4f8b; margin-top: 1rem; }
    .assistant { color: #222; }
    form { margin-top: 2rem; }
    input[name=msg] { width: 80%; padding: 0.5rem; }
  </style>
</head>
<body>
  <h1>FinChat</h1>
  <div id="transcript">
    {{range .Messages}}<div class="{{.Role}}">{{.HTML}}</div>{{end}}
  </div>
  <form method="post" action="/chat">
    <input name="msg" placeholder="Ask about the indexed documents" autofocus>
    <button type="submit">Send</button>
  </form>
</body>
</html>`
