// Package analyzer is the language-model boundary: it turns an invoice plus
// a reimbursement policy into a structured core.AnalysisResult, and turns a
// user query plus retrieved analyses into a conversational answer.
package analyzer

import (
	"context"
	"fmt"
	"log"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ledgerlens/ledgerlens/core"
	"github.com/ledgerlens/ledgerlens/store"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-20250514"

// Analyzer wraps an Anthropic client for invoice analysis and chat
// response generation.
type Analyzer struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

// Option configures the analyzer.
type Option func(*Analyzer)

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(a *Analyzer) {
		if model != "" {
			a.model = model
		}
	}
}

// WithMaxTokens overrides the response token cap.
func WithMaxTokens(n int64) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxTokens = n
		}
	}
}

// New creates an Analyzer around the given client.
func New(client *anthropic.Client, opts ...Option) *Analyzer {
	a := &Analyzer{
		client:    client,
		model:     DefaultModel,
		maxTokens: 4096,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeInvoice asks the model to assess one invoice against the policy
// and returns the structured result.
//
// Model output handling is lenient: the JSON object is extracted
// from wherever it sits in the reply, missing fields take documented
// defaults, an invalid status degrades to Declined, and a reply with no
// JSON at all goes through a plain-text fallback parser. A record is always
// produced; only transport failures return an error.
func (a *Analyzer) AnalyzeInvoice(ctx context.Context, invoiceContent, policyContent, employeeName, invoiceFilename string) (core.AnalysisResult, error) {
	prompt := buildAnalysisPrompt(invoiceContent, policyContent, employeeName, invoiceFilename)

	text, err := a.complete(ctx, analysisSystemPrompt, prompt)
	if err != nil {
		return core.AnalysisResult{}, fmt.Errorf("analyze invoice %s: %w", invoiceFilename, err)
	}

	res := ParseAnalysisResponse(text)
	res.EmployeeName = employeeName
	res.InvoiceFilename = invoiceFilename
	res.InvoiceContent = invoiceContent

	log.Printf("[ANALYZER] Analyzed %s: %s", invoiceFilename, res.Status)
	return res, nil
}

// GenerateChatResponse produces a markdown answer to the user's query,
// grounded in the retrieved analyses and the recent conversation history.
func (a *Analyzer) GenerateChatResponse(ctx context.Context, query string, results []store.Result, history []core.Message) (string, error) {
	prompt := buildChatPrompt(query, results, history)

	text, err := a.complete(ctx, chatSystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("generate chat response: %w", err)
	}
	return text, nil
}

// complete runs a single user-message completion and concatenates the text
// blocks of the reply.
func (a *Analyzer) complete(ctx context.Context, system, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude API error: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}
