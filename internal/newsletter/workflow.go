// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package newsletter drives the two-step generate-then-send workflow. The
// generated artifact lives only in memory.
package newsletter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/olegiv/newsdesk-go/internal/apierror"
	"github.com/olegiv/newsdesk-go/internal/model"
	"github.com/olegiv/newsdesk-go/internal/service"
	"github.com/olegiv/newsdesk-go/internal/util"
)

// State is a workflow state.
type State int

// Workflow states.
const (
	Idle State = iota
	Generating
	Generated
	Sending
	Sent
	GenerateFailed
	SendFailed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Generating:
		return "generating"
	case Generated:
		return "generated"
	case Sending:
		return "sending"
	case Sent:
		return "sent"
	case GenerateFailed:
		return "generate-failed"
	case SendFailed:
		return "send-failed"
	default:
		return "unknown"
	}
}

// Busy reports whether a request is in flight.
func (s State) Busy() bool {
	return s == Generating || s == Sending
}

// Errors returned by the workflow.
var (
	ErrBusy         = errors.New("a newsletter request is already in progress")
	ErrSendNotReady = errors.New("generate a newsletter before sending")
	ErrNoArtifact   = errors.New("no generated newsletter")
)

// DefaultTitle is used when the generated HTML has no heading.
const DefaultTitle = "Newsletter"

// htmlSanitizer keeps the formatting tags of generated issues and strips
// scripts and event handlers before the HTML is previewed or exported.
var htmlSanitizer = bluemonday.UGCPolicy()

// blockElements end a line in PlainText.
var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true, atom.Tr: true,
	atom.Table: true, atom.Ul: true, atom.Ol: true, atom.Blockquote: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

// hiddenElements never contribute text.
var hiddenElements = map[atom.Atom]bool{
	atom.Head: true, atom.Script: true, atom.Style: true, atom.Template: true, atom.Noscript: true,
}

// Backend generates and sends issues. *service.Newsletters satisfies it.
type Backend interface {
	Generate(ctx context.Context) (model.GeneratedNewsletter, error)
	Send(ctx context.Context, req service.SendRequest) (model.SendResult, error)
}

// Snapshot is a copy of the workflow state.
type Snapshot struct {
	State         State
	Message       string // backend status message of the last step
	HTML          string // raw generated HTML
	GeneratedAt   time.Time
	Error         string
	LastRecipient string
	Sends         int
}

// HasArtifact reports whether generated content is held.
func (s Snapshot) HasArtifact() bool {
	return !s.GeneratedAt.IsZero()
}

// Workflow is the generate/send state machine. It is safe for concurrent
// use; overlapping requests are rejected with ErrBusy.
type Workflow struct {
	backend Backend
	logger  *slog.Logger
	now     func() time.Time

	mu    sync.Mutex
	state Snapshot
}

// New creates an idle workflow.
func New(backend Backend, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{backend: backend, logger: logger, now: time.Now}
}

// Snapshot returns the current state.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Reset discards the artifact. It fails while a request is in flight.
func (w *Workflow) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.State.Busy() {
		return ErrBusy
	}
	w.state = Snapshot{}
	return nil
}

// Generate requests a new issue, replacing any held artifact.
func (w *Workflow) Generate(ctx context.Context) (Snapshot, error) {
	w.mu.Lock()
	if w.state.State.Busy() {
		w.mu.Unlock()
		return w.Snapshot(), ErrBusy
	}
	w.state.State = Generating
	w.state.Error = ""
	w.mu.Unlock()

	result, err := w.backend.Generate(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.failLocked(GenerateFailed, err)
		w.state.HTML = ""
		w.state.GeneratedAt = time.Time{}
		return w.state, err
	}

	w.state = Snapshot{
		State:       Generated,
		Message:     result.Message,
		HTML:        result.HTML,
		GeneratedAt: w.now(),
	}
	w.logger.Info("newsletter generated", "bytes", len(result.HTML))
	return w.state, nil
}

// Send mails the held artifact. recipient, when set, overrides the user's
// address. Repeated sends of the same artifact are allowed; a failed send
// keeps the artifact for a retry.
func (w *Workflow) Send(ctx context.Context, recipient string) (Snapshot, error) {
	w.mu.Lock()
	switch {
	case w.state.State.Busy():
		w.mu.Unlock()
		return w.Snapshot(), ErrBusy
	case !w.state.HasArtifact():
		w.mu.Unlock()
		return w.Snapshot(), ErrSendNotReady
	}
	switch w.state.State {
	case Generated, Sent, SendFailed:
	default:
		w.mu.Unlock()
		return w.Snapshot(), ErrSendNotReady
	}
	w.state.State = Sending
	w.state.Error = ""
	content := w.state.HTML
	w.mu.Unlock()

	result, err := w.backend.Send(ctx, service.SendRequest{Content: content, Recipient: recipient})

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.failLocked(SendFailed, err)
		return w.state, err
	}

	w.state.State = Sent
	w.state.Message = result.Message
	w.state.LastRecipient = result.Recipient
	w.state.Sends++
	w.logger.Info("newsletter sent", "override_recipient", recipient != "", "sends", w.state.Sends)
	return w.state, nil
}

// failLocked records a failed step. An expired session drops everything.
func (w *Workflow) failLocked(to State, err error) {
	if errors.Is(err, apierror.ErrSessionExpired) {
		w.state = Snapshot{}
		return
	}
	w.state.State = to
	w.state.Error = apierror.Normalize(err)
	w.logger.Warn("newsletter step failed", "state", to.String(), "error", err)
}

// Preview returns the sanitized artifact HTML.
func (w *Workflow) Preview() (string, error) {
	s := w.Snapshot()
	if !s.HasArtifact() {
		return "", ErrNoArtifact
	}
	return htmlSanitizer.Sanitize(s.HTML), nil
}

// Title returns the text of the artifact's first <h1>.
func (w *Workflow) Title() string {
	return TitleOf(w.Snapshot().HTML)
}

// TitleOf extracts the text of the first <h1> in content.
func TitleOf(content string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return DefaultTitle
	}
	h1 := firstElement(doc, atom.H1)
	if h1 == nil {
		return DefaultTitle
	}
	var b strings.Builder
	writeText(&b, h1)
	title := strings.Join(strings.Fields(b.String()), " ")
	if title == "" {
		return DefaultTitle
	}
	return title
}

// PlainText renders content as text for terminals: tags are dropped and
// block elements end a line.
func PlainText(content string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return ""
	}
	var b strings.Builder
	writeText(&b, doc)

	var lines []string
	for line := range strings.SplitSeq(b.String(), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		// at most one blank line in a row
		if line == "" && (len(lines) == 0 || lines[len(lines)-1] == "") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func firstElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := firstElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// writeText appends the visible text below n. Comments are skipped.
func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if hiddenElements[n.DataAtom] {
			return
		}
	case html.CommentNode, html.DoctypeNode:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if n.Type == html.ElementNode && blockElements[n.DataAtom] {
		b.WriteByte('\n')
	}
}

// Export writes the sanitized artifact to dir as <date>-<slug>.html and
// returns the file path.
func (w *Workflow) Export(dir string) (string, error) {
	s := w.Snapshot()
	if !s.HasArtifact() {
		return "", ErrNoArtifact
	}

	slug := util.Slugify(TitleOf(s.HTML))
	if slug == "" {
		slug = util.Slugify(DefaultTitle)
	}
	name, err := util.SanitizeFilename(fmt.Sprintf("%s-%s.html", s.GeneratedAt.Format(service.DateLayout), slug))
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	path, err := util.SafeJoinPath(dir, name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(htmlSanitizer.Sanitize(s.HTML)), 0o644); err != nil {
		return "", fmt.Errorf("writing newsletter: %w", err)
	}
	w.logger.Info("newsletter exported", "path", path)
	return path, nil
}
