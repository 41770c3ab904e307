// Package engine is the entry point of the contact filter. It wires the
// scanner, analyzer, buffer store and composer into one call per message.
//
// The engine performs no I/O, starts no goroutines and never returns an
// error: a degenerate input yields an allowed verdict.
package engine

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/chatguard/internal/buffer"
	"github.com/ppiankov/chatguard/internal/catalog"
	"github.com/ppiankov/chatguard/internal/detect"
	"github.com/ppiankov/chatguard/internal/metrics"
	"github.com/ppiankov/chatguard/internal/model"
	"github.com/ppiankov/chatguard/internal/verdict"
)

// Engine evaluates chat messages for contact leaks. Safe for concurrent use.
type Engine struct {
	cat      *catalog.Catalog
	scanner  *detect.Scanner
	analyzer *detect.Analyzer
	store    *buffer.Store
	composer *verdict.Composer
	log      *zap.Logger
	metrics  *metrics.Recorder
}

// Option configures an Engine.
type Option func(*Engine)

// WithCatalog replaces the built-in pattern catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(e *Engine) { e.cat = c }
}

// WithStore supplies the buffer store, e.g. to share it with another host.
func WithStore(s *buffer.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithComposer supplies the verdict composer.
func WithComposer(c *verdict.Composer) Option {
	return func(e *Engine) { e.composer = c }
}

// WithLogger sets the logger. Blocked verdicts are logged at debug level
// without message content.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an engine. Unset collaborators get defaults.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, o := range opts {
		o(e)
	}
	if e.cat == nil {
		e.cat = catalog.Default()
	}
	if e.store == nil {
		e.store = buffer.NewStore()
	}
	if e.composer == nil {
		e.composer = verdict.NewComposer(verdict.DefaultCopy())
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	e.scanner = detect.NewScanner(e.cat)
	e.analyzer = detect.NewAnalyzer(e.cat)
	return e
}

// Composer returns the engine's composer so hosts can swap wording on reload.
func (e *Engine) Composer() *verdict.Composer { return e.composer }

// Store returns the engine's buffer store.
func (e *Engine) Store() *buffer.Store { return e.store }

// Evaluate decides whether text may be delivered. Evaluation order:
//  1. Bypass: allowed, nothing else is consulted
//  2. Empty text: allowed
//  3. Single-message scan: blocked with score 100 on any evidence
//  4. Conversation analysis over the sender's buffered history, which does
//     not yet include text; the resulting score is stored on the buffer
//  5. Reason phrased for the sender's role
//
// Keys with an empty channel or sender are analysed with no history and
// nothing is stored for them.
func (e *Engine) Evaluate(text, channelID, senderID string, role model.RoleContext) model.FilterResult {
	return e.evaluate(text, model.BufferKey{ChannelID: channelID, SenderID: senderID}, role, nil, false)
}

// EvaluateWithHistory records history for the sender and evaluates text
// against it under a single lock, so no other writer can interleave.
func (e *Engine) EvaluateWithHistory(text, channelID, senderID string, history []string, role model.RoleContext) model.FilterResult {
	return e.evaluate(text, model.BufferKey{ChannelID: channelID, SenderID: senderID}, role, history, true)
}

// RecordForAnalysis replaces the sender's buffered history with the most
// recent messages of history. history must contain only that sender's
// messages, oldest first.
func (e *Engine) RecordForAnalysis(channelID, senderID string, history []string) {
	key := model.BufferKey{ChannelID: channelID, SenderID: senderID}
	if !key.Valid() {
		return
	}
	e.store.Update(key, history)
	e.metrics.SetBuffers(e.store.Len())
}

// Commit appends an accepted message to the sender's history. Hosts that do
// not resend history call it after delivering an allowed message.
func (e *Engine) Commit(channelID, senderID, text string) {
	key := model.BufferKey{ChannelID: channelID, SenderID: senderID}
	if !key.Valid() || strings.TrimSpace(text) == "" {
		return
	}
	e.store.Append(key, text)
	e.metrics.SetBuffers(e.store.Len())
}

// Reset drops the sender's buffer, e.g. when the chat session ends.
func (e *Engine) Reset(channelID, senderID string) {
	e.store.Delete(model.BufferKey{ChannelID: channelID, SenderID: senderID})
	e.metrics.SetBuffers(e.store.Len())
}

// Buffer returns a copy of the sender's buffer.
func (e *Engine) Buffer(channelID, senderID string) (buffer.Buffer, bool) {
	return e.store.Get(model.BufferKey{ChannelID: channelID, SenderID: senderID})
}

func (e *Engine) evaluate(text string, key model.BufferKey, role model.RoleContext, history []string, replace bool) model.FilterResult {
	start := time.Now()

	if role.Bypass {
		res := model.Allowed()
		e.metrics.Observe(res, metrics.StageBypass, time.Since(start))
		return res
	}

	empty := strings.TrimSpace(text) == ""
	var (
		raw   detect.Result
		stage = metrics.StageAnalyzer
	)
	if empty {
		stage = metrics.StageEmpty
	} else if hit, ok := e.scanner.Scan(text); ok {
		raw, stage = hit, metrics.StageScanner
	}

	switch {
	case key.Valid() && (replace || stage == metrics.StageAnalyzer):
		e.store.Exclusive(key, func(b *buffer.Buffer) {
			if replace {
				b.Messages = append([]string(nil), history...)
				b.LastAnalysisAt = e.store.Now()
			}
			if stage != metrics.StageAnalyzer {
				return
			}
			raw = e.analyzer.Analyze(text, b.Messages)
			b.RiskScore = raw.RiskScore
			b.LastAnalysisAt = e.store.Now()
		})
		e.metrics.SetBuffers(e.store.Len())
	case stage == metrics.StageAnalyzer:
		raw = e.analyzer.Analyze(text, nil)
	}

	if empty {
		res := model.Allowed()
		e.metrics.Observe(res, stage, time.Since(start))
		return res
	}
	return e.finish(raw, key, role, stage, start)
}

func (e *Engine) finish(raw detect.Result, key model.BufferKey, role model.RoleContext, stage metrics.Stage, start time.Time) model.FilterResult {
	res := e.composer.Compose(raw, role)
	if res.IsBlocked {
		e.log.Debug("message blocked",
			zap.String("key", key.String()),
			zap.String("stage", string(stage)),
			zap.Int("risk_score", res.RiskScore),
			zap.Strings("patterns", res.PatternStrings()),
			zap.Bool("sender_restricted", role.SenderRestricted),
		)
	}
	e.metrics.Observe(res, stage, time.Since(start))
	return res
}
