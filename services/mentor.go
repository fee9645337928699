package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bustanapp/bustan/utils"
)

const (
	tipPrompt      = "أعطني نصيحة سريعة ومحفزة لطلاب المدارس عن الزراعة المنزلية في جملة واحدة باللغة العربية."
	tipSystem      = "You are a friendly gardening mentor for kids. Keep responses brief, encouraging, and in Arabic."
	tipFallback    = "الزراعة حياة، حافظ على نبتتك!"
	tipDefault     = "ازرع نبتتك اليوم لتشاهد جمال الطبيعة غداً!"
	mentorSystem   = "أنت مرشد زراعي خبير وصديق للطلاب. اسمك 'زراعي'. تساعدهم في حل مشاكل نباتاتهم وتشجعهم على الزراعة المنزلية. كن مرحاً وبسيطاً في لغتك."
	mentorFallback = "عذراً، لدي مشكلة في الاتصال بجذوري الآن. حاول مجدداً لاحقاً!"

	historyLimit = 20
	historyTTL   = 24 * time.Hour
)

// ChatMessage is one turn of a mentor conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatHistory persists per-user mentor conversations between requests.
type ChatHistory interface {
	Load(ctx context.Context, userID string) []ChatMessage
	Save(ctx context.Context, userID string, msgs []ChatMessage)
}

// Mentor answers gardening questions through an OpenAI-compatible
// chat-completions endpoint. Every public method degrades to a canned
// fallback string on transport or quota failure; callers always get text.
type Mentor struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	history ChatHistory
	log     *zap.SugaredLogger
}

// NewMentor builds a mentor client. baseURL points at the API root
// (e.g. https://api.example.com/v1).
func NewMentor(baseURL, apiKey, model string, history ChatHistory, log *zap.SugaredLogger) *Mentor {
	return &Mentor{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
		history: history,
		log:     log,
	}
}

// Tip returns a one-shot gardening tip for the home screen.
func (m *Mentor) Tip(ctx context.Context) string {
	text, err := m.Complete(ctx, []ChatMessage{
		{Role: "system", Content: tipSystem},
		{Role: "user", Content: tipPrompt},
	}, 0.7)
	if err != nil {
		m.log.Warnw("gardening tip request failed", "err", err)
		return tipFallback
	}
	if text == "" {
		return tipDefault
	}
	return text
}

// Chat continues the user's conversation with the mentor. History is loaded,
// extended with this exchange and saved back; failures yield the fallback
// reply without touching stored history.
func (m *Mentor) Chat(ctx context.Context, userID, message string) string {
	history := m.history.Load(ctx, userID)

	msgs := make([]ChatMessage, 0, len(history)+2)
	msgs = append(msgs, ChatMessage{Role: "system", Content: mentorSystem})
	msgs = append(msgs, history...)
	msgs = append(msgs, ChatMessage{Role: "user", Content: message})

	reply, err := m.Complete(ctx, msgs, 0)
	if err != nil || reply == "" {
		m.log.Warnw("mentor chat request failed", "user", userID, "err", err)
		return mentorFallback
	}

	history = append(history, ChatMessage{Role: "user", Content: message}, ChatMessage{Role: "assistant", Content: reply})
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	m.history.Save(ctx, userID, history)

	return reply
}

// Complete performs one chat-completions call and returns the first choice.
func (m *Mentor) Complete(ctx context.Context, msgs []ChatMessage, temperature float64) (string, error) {
	payload := map[string]interface{}{
		"model":    m.model,
		"messages": msgs,
	}
	if temperature > 0 {
		payload["temperature"] = temperature
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion API returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("completion API returned no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// RedisChatHistory stores conversations in Redis with a bounded length and a
// TTL so stale conversations age out on their own.
type RedisChatHistory struct{}

func (RedisChatHistory) Load(ctx context.Context, userID string) []ChatMessage {
	b, ok := utils.CacheGetBytes("mentor:history:" + userID)
	if !ok {
		return nil
	}
	var msgs []ChatMessage
	if err := json.Unmarshal(b, &msgs); err != nil {
		return nil
	}
	return msgs
}

func (RedisChatHistory) Save(ctx context.Context, userID string, msgs []ChatMessage) {
	utils.CacheSetJSON("mentor:history:"+userID, msgs, historyTTL)
}
