// Package gateway implements the OpenAI-compatible chat-completions HTTP
// surface: fingerprint/cache lookup, conversation resolution and context
// trimming, session acquisition from the process pool, and both the
// non-streaming and SSE-streaming response paths.
package gateway

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	hoststat "github.com/likexian/host-stat-go"

	"github.com/agentrelay/agentrelay/internal/budget"
	"github.com/agentrelay/agentrelay/internal/cache"
	"github.com/agentrelay/agentrelay/internal/chunker"
	"github.com/agentrelay/agentrelay/internal/client"
	"github.com/agentrelay/agentrelay/internal/conversation"
	"github.com/agentrelay/agentrelay/internal/core"
	"github.com/agentrelay/agentrelay/internal/options"
	"github.com/agentrelay/agentrelay/internal/pool"
	"github.com/agentrelay/agentrelay/internal/protocol"
	"github.com/agentrelay/agentrelay/internal/retry"
	"github.com/agentrelay/agentrelay/pkg/errorx"
	"github.com/agentrelay/agentrelay/pkg/logger"
)

// Handler wires the gateway's dependent components into the HTTP
// surface: pool, cache, conversation store, budget limit, and the
// retry/circuit-breaker policy guarding session acquisition.
type Handler struct {
	gwOpts    *options.GatewayOptions
	convOpts  *options.ConversationOptions
	cacheOpts *options.CacheOptions

	pool  *pool.Pool
	cache *cache.Cache
	store *conversation.Store

	budgetLimit  budget.Limit
	retryPolicy  retry.Policy
	breaker      *retry.CircuitBreaker

	mu       sync.Mutex
	inflight map[string]*client.Client
}

// New builds a Handler bound to the given components.
func New(
	gwOpts *options.GatewayOptions,
	convOpts *options.ConversationOptions,
	budgetOpts *options.BudgetOptions,
	retryOpts *options.RetryOptions,
	cacheOpts *options.CacheOptions,
	p *pool.Pool,
	c *cache.Cache,
	store *conversation.Store,
) *Handler {
	return &Handler{
		gwOpts:    gwOpts,
		convOpts:  convOpts,
		cacheOpts: cacheOpts,
		pool:      p,
		cache:     c,
		store:     store,
		budgetLimit: budget.Limit{
			MaxTokens:    budgetOpts.MaxTokens,
			MaxCostUSD:   budgetOpts.MaxCostUSD,
			WarnFraction: budgetOpts.WarnFraction,
		},
		retryPolicy: retry.NewPolicy(retryOpts),
		breaker:     retry.NewCircuitBreaker(retryOpts.CircuitFailureThreshold, retryOpts.CircuitRecoveryTimeout),
		inflight:    make(map[string]*client.Client),
	}
}

// Health answers the plain-text liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.String(200, "OK")
}

// Models lists the single agent-backed model the gateway exposes.
func (h *Handler) Models(c *gin.Context) {
	c.JSON(200, ModelListResponse{
		Object: "list",
		Data: []ModelObject{
			{ID: h.gwOpts.DefaultModel, Object: "model", OwnedBy: "agentrelay"},
		},
	})
}

// Stats reports cache and pool counters.
func (h *Handler) Stats(c *gin.Context) {
	h.mu.Lock()
	inflightCount := len(h.inflight)
	h.mu.Unlock()

	poolStats := h.pool.Stats()
	cacheStats := h.cache.Stats()

	body := gin.H{
		"inflight_sessions": inflightCount,
		"pool": gin.H{
			"idle":       poolStats.Idle,
			"active":     poolStats.Active,
			"max_idle":   poolStats.MaxIdle,
			"max_active": poolStats.MaxActive,
		},
		"cache": gin.H{
			"entries":     cacheStats.Entries,
			"max_entries": cacheStats.MaxEntries,
		},
	}
	if host := hostSnapshot(); host != nil {
		body["host"] = host
	}

	c.JSON(200, body)
}

// hostSnapshot reports a best-effort CPU/memory/uptime snapshot of the
// machine gatewayd runs on, alongside the service counters above. Errors
// reading host stats are logged and the block is simply omitted rather
// than failing the whole /stats response.
func hostSnapshot() gin.H {
	stat, err := hoststat.Stat()
	if err != nil {
		logger.WarnX("gateway", "host stat snapshot unavailable: %v", err)
		return nil
	}
	return gin.H{
		"cpu_used_percent": stat.CPUUsed,
		"mem_total_mb":     stat.MemTotal,
		"mem_used_mb":      stat.MemUsed,
		"uptime_seconds":   stat.Uptime,
	}
}

// cachedCopy deep-copies resp before it enters the cache, so a later
// mutation of the response this request is about to serialize (or of a
// subsequent cache hit handed back to another request) can never bleed
// into the stored entry.
func cachedCopy(resp ChatCompletionResponse) ChatCompletionResponse {
	var clone ChatCompletionResponse
	if err := copier.CopyWithOption(&clone, &resp, copier.Option{DeepCopy: true}); err != nil {
		logger.WarnX("gateway", "cache copy fallback to shared reference: %v", err)
		return resp
	}
	return clone
}

func requestID(c *gin.Context) string {
	if id := c.GetHeader("x-request-id"); id != "" {
		return id
	}
	return client.NewSessionID()
}

// ChatCompletions implements POST /v1/chat/completions, both the
// non-streaming and streaming paths of spec.md §4.I.
func (h *Handler) ChatCompletions(c *gin.Context) {
	rid := requestID(c)
	c.Header("x-request-id", rid)

	var req ChatCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		core.WriteResponse(c, errorx.WithCode(errorx.CodeBadRequest, "invalid request body: %v", err), nil)
		return
	}
	if len(req.Messages) == 0 {
		core.WriteResponse(c, errorx.WithCode(errorx.CodeBadRequest, "messages must not be empty"), nil)
		return
	}
	model := req.Model
	if model == "" {
		model = h.gwOpts.DefaultModel
	}

	fp := cache.Fingerprint(cache.FingerprintInput{Model: model, Messages: toFingerprintMessages(req.Messages)})

	if !req.Stream {
		if cached, ok := h.cache.Get(fp); ok {
			c.JSON(200, cached)
			return
		}
	}

	conv := h.store.GetOrCreate(req.ConversationID)
	h.store.Append(conv.ID, toConversationMessages(req.Messages)...)

	ctxMsgs := conversation.DeriveContext(conv.Messages, h.convOpts.MaxContextTokens)
	prompt := serializePrompt(ctxMsgs)

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.gwOpts.TurnTimeout)
	defer cancel()

	if req.Stream {
		slot, err := h.acquireSlot(ctx, model)
		if err != nil {
			core.WriteResponse(c, err, nil)
			return
		}
		defer h.pool.Release(slot)

		h.bindInflight(conv.ID, slot.Client)
		defer h.unbindInflight(conv.ID)

		if err := slot.Client.SendUserMessage(prompt, conv.ID); err != nil {
			core.WriteResponse(c, err, nil)
			return
		}
		h.streamResponse(c, ctx, slot, conv, rid, model, req.Tools)
		return
	}

	h.nonStreamResponse(c, ctx, conv, fp, rid, model, prompt, req.Tools)
}

func toFingerprintMessages(msgs []ChatMessage) []cache.FingerprintMessage {
	out := make([]cache.FingerprintMessage, 0, len(msgs))
	for _, m := range msgs {
		var textParts []string
		if m.Content != "" {
			textParts = []string{m.Content}
		}
		out = append(out, cache.FingerprintMessage{Role: m.Role, TextParts: textParts, ImageURLs: m.ImageURLs})
	}
	return out
}

func (h *Handler) acquireSlot(ctx context.Context, model string) (*pool.Slot, error) {
	var slot *pool.Slot
	err := retry.Do(ctx, h.retryPolicy, h.breaker, func() error {
		s, err := h.pool.Acquire(ctx, model)
		if err != nil {
			return err
		}
		slot = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return slot, nil
}

func (h *Handler) bindInflight(conversationID string, c *client.Client) {
	h.mu.Lock()
	h.inflight[conversationID] = c
	h.mu.Unlock()
}

func (h *Handler) unbindInflight(conversationID string) {
	h.mu.Lock()
	delete(h.inflight, conversationID)
	h.mu.Unlock()
}

// agentTurnResult holds the caller-independent part of an agent round
// trip: the assistant text and usage produced for a given prompt. It is
// the unit shared by Coalesce, since it carries nothing tying it to one
// particular request ID or conversation.
type agentTurnResult struct {
	Text  string
	Usage *ChatCompletionUsage
}

// runAgentTurn acquires a pool slot, sends prompt, and drains the agent's
// reply into an agentTurnResult. It is the expensive, duplicable part of
// a non-streaming completion, and is the function shared across
// concurrent identical requests when cache coalescing is enabled.
func (h *Handler) runAgentTurn(ctx context.Context, conv *conversation.Conversation, model, prompt string) (agentTurnResult, error) {
	slot, err := h.acquireSlot(ctx, model)
	if err != nil {
		return agentTurnResult{}, err
	}
	defer h.pool.Release(slot)

	h.bindInflight(conv.ID, slot.Client)
	defer h.unbindInflight(conv.ID)

	if err := slot.Client.SendUserMessage(prompt, conv.ID); err != nil {
		return agentTurnResult{}, err
	}

	envelopes, err := slot.Client.ReceiveResponse(ctx)
	if err != nil {
		return agentTurnResult{}, err
	}

	if status := slot.Client.BudgetStatus(h.budgetLimit); status == budget.Exceeded {
		logger.WarnX("gateway", "conversation %s exceeded its configured budget", conv.ID)
	}

	return agentTurnResult{Text: extractAssistantText(envelopes), Usage: extractUsage(envelopes)}, nil
}

// nonStreamResponse runs (or, when another identical request is already
// in flight and coalescing is enabled, joins) one agent turn, assembles
// the OpenAI-shaped response, detects tool calls if applicable, then
// stores the body in the cache and appends the exchange to conversation
// history. Coalescing only shares the agent turn itself: every caller
// stamps its own request ID and conversation ID, and appends to its own
// conversation's history, so joiners never see another request's
// identity in their response.
func (h *Handler) nonStreamResponse(c *gin.Context, ctx context.Context, conv *conversation.Conversation, fp, rid, model, prompt string, tools []Tool) {
	build := func() (any, error) {
		return h.runAgentTurn(ctx, conv, model, prompt)
	}

	var (
		raw any
		err error
	)
	if h.cacheOpts.Coalesce {
		raw, err = h.cache.Coalesce(fp, build)
	} else {
		raw, err = build()
	}
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = errorx.WrapC(err, errorx.CodeTimeout, "turn exceeded %s", h.gwOpts.TurnTimeout)
		}
		core.WriteResponse(c, err, nil)
		return
	}
	turn := raw.(agentTurnResult)

	finishReason := "stop"
	message := &ChatMessage{Role: "assistant", Content: turn.Text}
	if call := detectToolCall(turn.Text, tools, !h.gwOpts.EnableToolCallDetection); call != nil {
		call.ID = "call_" + rid
		message.ToolCalls = []ToolCallChunk{*call}
		message.Content = ""
		finishReason = "tool_calls"
	}

	resp := ChatCompletionResponse{
		ID:             "chatcmpl-" + rid,
		Object:         "chat.completion",
		Model:          model,
		Choices:        []ChatCompletionChoice{{Index: 0, Message: message, FinishReason: finishReason}},
		Usage:          turn.Usage,
		ConversationID: conv.ID,
	}

	h.cache.Put(fp, cachedCopy(resp))
	h.store.Append(conv.ID, conversation.Message{Role: "assistant", TextParts: []string{turn.Text}})

	c.JSON(200, resp)
}

// streamResponse establishes the SSE response and forwards assistant text
// through the word-boundary chunker as it arrives, closing with a final
// empty-delta chunk and the [DONE] sentinel.
func (h *Handler) streamResponse(c *gin.Context, ctx context.Context, slot *pool.Slot, conv *conversation.Conversation, rid, model string, tools []Tool) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	framer := chunker.NewFramer(c.Writer)
	chunkID := "chatcmpl-" + rid

	_ = framer.WriteChunk(ChatCompletionChunk{
		ID: chunkID, Object: "chat.completion.chunk", Model: model,
		Choices: []ChatCompletionChunkChoice{{Index: 0, Delta: &ChatMessageDelta{Role: "assistant"}}},
	})
	c.Writer.Flush()

	msgs, err := slot.Client.ReceiveMessages()
	if err != nil {
		_ = framer.WriteDone()
		return
	}

	var fullText strings.Builder
	chunkOpts := chunker.DefaultOptions()

	for {
		select {
		case <-ctx.Done():
			_ = framer.WriteDone()
			return
		case env, ok := <-msgs:
			if !ok {
				_ = framer.WriteDone()
				return
			}
			if env.Type == protocol.TypeAssistant && env.Message != nil {
				for _, block := range env.Message.Content {
					if block.Type != protocol.BlockText || block.Text == "" {
						continue
					}
					fullText.WriteString(block.Text)
					for _, frag := range chunker.Split(block.Text, chunkOpts) {
						_ = framer.WriteChunk(ChatCompletionChunk{
							ID: chunkID, Object: "chat.completion.chunk", Model: model,
							Choices: []ChatCompletionChunkChoice{{Index: 0, Delta: &ChatMessageDelta{Content: frag}}},
						})
						c.Writer.Flush()
						time.Sleep(chunkOpts.InterChunkDelay)
					}
				}
			}
			if env.Type == protocol.TypeResult {
				finish := "stop"
				_ = framer.WriteChunk(ChatCompletionChunk{
					ID: chunkID, Object: "chat.completion.chunk", Model: model,
					Choices: []ChatCompletionChunkChoice{{Index: 0, Delta: &ChatMessageDelta{}, FinishReason: &finish}},
				})
				_ = framer.WriteDone()
				c.Writer.Flush()

				h.store.Append(conv.ID, conversation.Message{Role: "assistant", TextParts: []string{fullText.String()}})
				return
			}
		}
	}
}

func extractAssistantText(envelopes []*protocol.Envelope) string {
	var b strings.Builder
	for _, env := range envelopes {
		if env.Type != protocol.TypeAssistant || env.Message == nil {
			continue
		}
		for _, block := range env.Message.Content {
			if block.Type == protocol.BlockText {
				b.WriteString(block.Text)
			}
		}
	}
	return b.String()
}

func extractUsage(envelopes []*protocol.Envelope) *ChatCompletionUsage {
	for _, env := range envelopes {
		if env.Type == protocol.TypeResult && env.Usage != nil {
			return &ChatCompletionUsage{
				PromptTokens:     env.Usage.InputTokens,
				CompletionTokens: env.Usage.OutputTokens,
				TotalTokens:      env.Usage.InputTokens + env.Usage.OutputTokens,
			}
		}
	}
	return nil
}

// Interrupt implements POST /v1/sessions/{conversation_id}/interrupt.
func (h *Handler) Interrupt(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	h.mu.Lock()
	cl, ok := h.inflight[conversationID]
	h.mu.Unlock()

	if !ok {
		core.WriteResponse(c, errorx.WithCode(errorx.CodeNotFound, "no live session bound to conversation %q", conversationID), nil)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	if err := cl.Interrupt(ctx); err != nil {
		core.WriteResponse(c, err, nil)
		return
	}
	c.Status(204)
}

// ListConversations answers with an empty conversation list; it does not
// enumerate the store. Peripheral surface, kept only to pin the route.
func (h *Handler) ListConversations(c *gin.Context) {
	c.JSON(200, gin.H{"conversations": []string{}})
}

// CreateConversation allocates a fresh, empty conversation id.
func (h *Handler) CreateConversation(c *gin.Context) {
	conv := h.store.GetOrCreate("")
	c.JSON(200, gin.H{"id": conv.ID, "created_at": conv.CreatedAt})
}

// GetConversation returns one conversation's metadata and turn count.
func (h *Handler) GetConversation(c *gin.Context) {
	id := c.Param("id")
	conv, ok := h.store.Get(id)
	if !ok {
		core.WriteResponse(c, errorx.WithCode(errorx.CodeNotFound, "conversation %q not found", id), nil)
		return
	}
	c.JSON(200, gin.H{
		"id":         conv.ID,
		"created_at": conv.CreatedAt,
		"updated_at": conv.UpdatedAt,
		"turn_count": conv.Metadata.TurnCount,
	})
}
