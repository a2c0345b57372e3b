package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"

	"github.com/easeread/easeread/internal/cache"
	"github.com/easeread/easeread/internal/llm"
)

// summarizeInputLimit truncates summary input; feeding the whole page into
// the model wastes quota without improving the result.
const summarizeInputLimit = 5000

// quotaRotateThreshold is the used/quota fraction past which a fresh
// session is acquired transparently instead of surfacing a quota error.
const quotaRotateThreshold = 0.95

type session struct {
	id   uuid.UUID
	used int
}

// Model is the model-backed Service. Calls run sequentially from the
// pipelines; the session mutex only guards against the serve-mode case of
// two engines sharing one service.
type Model struct {
	Client llm.Client
	Name   string
	Cache  *cache.PromptCache
	// QuotaUnits caps units per session; zero means unmetered.
	QuotaUnits int
	// RetryDelay before the single transient retry. Defaults to 100ms.
	RetryDelay time.Duration

	mu   sync.Mutex
	sess *session
}

var _ Service = (*Model)(nil)

// Probe reports Ready when the backend answers a model listing, Unavailable
// otherwise. Backends without the listing capability are trusted as Ready.
func (m *Model) Probe(ctx context.Context) Availability {
	if m == nil || m.Client == nil || strings.TrimSpace(m.Name) == "" {
		return Unavailable
	}
	lister, ok := m.Client.(llm.ModelLister)
	if !ok {
		return Ready
	}
	if _, err := lister.ListModels(ctx); err != nil {
		log.Debug().Err(err).Msg("assist probe failed")
		return Unavailable
	}
	return Ready
}

func (m *Model) Summarize(ctx context.Context, text string, opts SummarizeOpts) (string, error) {
	if len(text) > summarizeInputLimit {
		text = text[:summarizeInputLimit]
	}
	return m.rewrite(ctx, userPrompt(summarizeInstruction(opts), text))
}

func (m *Model) Simplify(ctx context.Context, text, level string) (string, error) {
	return m.rewrite(ctx, userPrompt(simplifyInstruction(level), text))
}

func (m *Model) Expand(ctx context.Context, text string) (string, error) {
	return m.rewrite(ctx, userPrompt("Expand this text with helpful context and examples so it is easier to understand. Do not change its meaning.", text))
}

func (m *Model) RewriteTone(ctx context.Context, text, tone string) (string, error) {
	return m.rewrite(ctx, userPrompt(toneInstruction(tone), text))
}

func (m *Model) Restructure(ctx context.Context, text string) (string, error) {
	return m.rewrite(ctx, userPrompt("Restructure this text into short sentences, one idea per sentence, in a logical order.", text))
}

func (m *Model) ActiveVoice(ctx context.Context, text string) (string, error) {
	return m.rewrite(ctx, userPrompt("Rewrite this text in the active voice wherever possible.", text))
}

func (m *Model) PlainLanguage(ctx context.Context, text, domain string) (string, error) {
	instr := "Rewrite this text in plain language, replacing jargon with everyday words."
	if strings.TrimSpace(domain) != "" {
		instr = fmt.Sprintf("Rewrite this %s text in plain language, replacing %s jargon with everyday words.", domain, domain)
	}
	return m.rewrite(ctx, userPrompt(instr, text))
}

func (m *Model) ExplainTerm(ctx context.Context, term, sentenceContext string) (string, error) {
	return m.rewrite(ctx, explainTermPrompt(term, sentenceContext))
}

func (m *Model) ExplainIdiom(ctx context.Context, idiom string) (string, error) {
	return m.rewrite(ctx, explainIdiomPrompt(idiom))
}

// DetectIdiom asks for the fixed JSON shape and parses it tolerantly:
// models occasionally pad the payload with prose, so the first balanced
// object is extracted before parsing.
func (m *Model) DetectIdiom(ctx context.Context, sentence string) (IdiomResult, error) {
	raw, err := m.complete(ctx, detectSystem, "Sentence: "+sentence)
	if err != nil {
		return IdiomResult{}, err
	}
	payload := extractJSONObject(raw)
	if payload == "" || !gjson.Valid(payload) {
		return IdiomResult{}, fmt.Errorf("malformed idiom detection output: %q", truncateForLog(raw))
	}
	res := IdiomResult{
		HasIdiom: gjson.Get(payload, "hasIdiom").Bool(),
		Idiom:    strings.TrimSpace(gjson.Get(payload, "idiom").String()),
		Literal:  strings.TrimSpace(gjson.Get(payload, "literal").String()),
	}
	if res.HasIdiom && res.Idiom == "" {
		return IdiomResult{}, errors.New("idiom detection: hasIdiom set without a phrase")
	}
	return res, nil
}

// rewrite runs a plain text-in/text-out completion with caching.
func (m *Model) rewrite(ctx context.Context, user string) (string, error) {
	return m.complete(ctx, rewriteSystem, user)
}

func (m *Model) complete(ctx context.Context, system, user string) (string, error) {
	if m == nil || m.Client == nil || strings.TrimSpace(m.Name) == "" {
		return "", ErrUnavailable
	}
	key := cache.KeyFrom(m.Name, system+"\n\n"+user)
	if m.Cache != nil {
		if cached, ok := m.Cache.Get(ctx, key); ok {
			return cached, nil
		}
	}
	m.charge()

	req := openai.ChatCompletionRequest{
		Model: m.Name,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.1,
		N:           1,
	}
	resp, err := m.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		delay := m.RetryDelay
		if delay <= 0 {
			delay = 100 * time.Millisecond
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		resp, err = m.Client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", fmt.Errorf("assist call (after retry): %w", err)
		}
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("assist call: no choices")
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", errors.New("assist call: empty completion")
	}
	if m.Cache != nil {
		_ = m.Cache.Save(ctx, key, out)
	}
	return out, nil
}

// charge accounts one unit against the current session and rotates to a
// fresh one before the quota is exhausted, so callers never see a quota
// error.
func (m *Model) charge() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		m.sess = &session{id: uuid.New()}
	}
	m.sess.used++
	if m.QuotaUnits > 0 && float64(m.sess.used) >= quotaRotateThreshold*float64(m.QuotaUnits) {
		old := m.sess.id
		m.sess = &session{id: uuid.New()}
		log.Debug().Str("old", old.String()).Str("new", m.sess.id.String()).Msg("rotated assist session near quota")
	}
}

// SessionID exposes the current session identifier for logs and tests.
func (m *Model) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return ""
	}
	return m.sess.id.String()
}

// extractJSONObject returns the first balanced {...} block of s.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inStr := false
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '"':
			if i == 0 || s[i-1] != '\\' {
				inStr = !inStr
			}
		case '{':
			if !inStr {
				depth++
			}
		case '}':
			if !inStr {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}

func truncateForLog(s string) string {
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
