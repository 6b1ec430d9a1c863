// Package keyword builds catalog search phrases for line items that
// carry no manufacturer part number.
package keyword

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"bompick/internal"
	"bompick/internal/config"
	"bompick/internal/util"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

type Generator struct {
	cfg        config.Config
	httpClient *http.Client
	log        *zap.Logger
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func NewGenerator(cfg config.Config, log *zap.Logger) *Generator {
	return &Generator{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.GeminiTimeout) * time.Millisecond},
		log:        log,
	}
}

// SearchTerm returns a best-effort search phrase for the line item. When
// the model is unavailable or unconfigured it falls back to the
// deterministic heuristic, so a search term is always produced.
func (g *Generator) SearchTerm(ctx context.Context, item internal.LineItem) string {
	if strings.TrimSpace(g.cfg.GeminiAPIKey) == "" {
		return Suggest(item)
	}

	term, err := g.generate(ctx, item)
	if err != nil || term == "" {
		g.log.Warn("keyword generation failed, using heuristic", zap.Int("lineItem", item.ID), zap.Error(err))
		return Suggest(item)
	}
	g.log.Debug("generated search term", zap.Int("lineItem", item.ID), zap.String("term", term))
	return term
}

func (g *Generator) generate(ctx context.Context, item internal.LineItem) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: buildPrompt(item)}}}},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", geminiBaseURL, g.cfg.GeminiModel, g.cfg.GeminiAPIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("gemini status %d", resp.StatusCode)
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	term := strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text)
	term = strings.Trim(term, `"'`)
	return term, nil
}

// buildPrompt feeds every populated field to the model so no BOM column
// is lost, and calls out the chip package code when one is embedded in a
// footprint string like "Resistor_SMD:R_0603_1608Metric".
func buildPrompt(item internal.LineItem) string {
	keys := make([]internal.FieldKey, 0, len(item.Fields))
	for key := range item.Fields {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	parts := make([]string, 0, len(keys))
	pkgCode := ""
	for _, key := range keys {
		value := item.Fields[key]
		label := string(key)
		if key.IsOther() {
			label = key.OtherName()
		}
		if key == internal.FieldPackage {
			if code := util.PackageCode(value); code != "" {
				pkgCode = code
				parts = append(parts, fmt.Sprintf("%s: %s [PACKAGE_SIZE: %s]", label, value, code))
				continue
			}
		}
		parts = append(parts, fmt.Sprintf("%s: %s", label, value))
	}

	prompt := "Create a concise search phrase for an electronic parts catalog.\n" +
		"Component data: " + strings.Join(parts, ", ") + "\n"
	if pkgCode != "" {
		prompt += fmt.Sprintf("IMPORTANT: the package size is %s; use it verbatim.\n", pkgCode)
	}
	prompt += "Rules:\n" +
		"1. Format as \"[value] [type] [package]\", e.g. \"0.1uF capacitor 0402\" or \"10k resistor 0603\".\n" +
		"2. Identify the component type from the description or reference designator.\n" +
		"3. Ignore library paths and symbol names.\n" +
		"4. Keep it under 40 characters.\n" +
		"5. Return ONLY the search phrase, no quotes or extra text."
	return prompt
}

// Suggest is the deterministic fallback: value, package code, then the
// leading description words, capped at five tokens.
func Suggest(item internal.LineItem) string {
	tokens := make([]string, 0, 5)
	if v := item.Field(internal.FieldValue); v != "" {
		tokens = append(tokens, v)
	}
	if pkg := item.Field(internal.FieldPackage); pkg != "" {
		if code := util.PackageCode(pkg); code != "" {
			tokens = append(tokens, code)
		} else {
			tokens = append(tokens, pkg)
		}
	}
	if desc := item.Field(internal.FieldDescription); desc != "" {
		words := strings.Fields(desc)
		if len(words) > 3 {
			words = words[:3]
		}
		tokens = append(tokens, words...)
	}
	if len(tokens) > 5 {
		tokens = tokens[:5]
	}
	return strings.Join(tokens, " ")
}
