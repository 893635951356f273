package composer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/aerocl/aerobot/internal/catalog"
	"github.com/aerocl/aerobot/internal/config"
)

// Gemini rephrases skeleton replies through the Gemini API. The system
// instruction pins the catalog and the channel rules so the model cannot
// invent products or prices.
type Gemini struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
}

func NewGemini(ctx context.Context, cfg config.AIConfig, cat *catalog.Catalog) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("composer: create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(0.4)
	model.SetTopK(20)
	model.SetTopP(0.9)
	model.SetMaxOutputTokens(512)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPreamble(cat))},
	}

	return &Gemini{
		client:  client,
		model:   model,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}, nil
}

// Compose asks the model to rephrase the skeleton. The call is bounded by the
// configured timeout; any failure or empty candidate is returned as an error
// so the caller falls back to the skeleton.
func (g *Gemini) Compose(ctx context.Context, p Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt := fmt.Sprintf(
		"Estado de la conversación: %s\nMensaje del cliente: %s\n\nMensaje base a reformular (conserva datos, precios y enlaces EXACTOS):\n%s",
		p.State, p.UserText, p.Skeleton)

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("composer: generate: %w", err)
	}
	text := extractText(resp)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("composer: empty response")
	}
	return text, nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}

func extractText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			b.WriteString(fmt.Sprintf("%v", part))
		}
	}
	return b.String()
}

// systemPreamble renders the fixed instruction: identity, tone, hard rules,
// and the full price list.
func systemPreamble(cat *catalog.Catalog) string {
	var b strings.Builder
	b.WriteString("Eres el asesor de ventas de Aerocámaras Plegables en Chile. Atiendes por chat ")
	b.WriteString("(Web, WhatsApp, Instagram y Telegram) con tono técnico y empático, en español de Chile.\n\n")
	b.WriteString("REGLAS ESTRICTAS:\n")
	b.WriteString("1. Reformula el mensaje base que se te entrega; no agregues productos, precios ni promesas que no estén en él.\n")
	b.WriteString("2. Los precios son en CLP con IVA incluido; cópialos EXACTOS del catálogo o del mensaje base.\n")
	b.WriteString("3. No uses botones, quick replies ni formato interactivo: solo texto plano.\n")
	b.WriteString("4. Conserva intactos los enlaces, SKUs y datos de cliente del mensaje base.\n")
	b.WriteString("5. Responde breve: máximo un par de párrafos.\n\n")
	b.WriteString("CATÁLOGO:\n")
	for _, e := range cat.Entries() {
		fmt.Fprintf(&b, "- %s (SKU %s, %s): %s\n", e.Name, e.SKU, e.Audience, catalog.FormatCLP(e.PriceCLP))
	}
	return b.String()
}
