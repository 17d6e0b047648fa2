package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/beanflow/beanflow/internal/common"
	"github.com/beanflow/beanflow/internal/model"
)

// parseResult extracts the structured classification from a provider
// response. Providers are asked for bare JSON but frequently wrap it in
// markdown fences or surrounding prose, so the parser locates the first JSON
// object in the text before decoding. A response with no usable account is a
// schema violation, never silently accepted.
func parseResult(content string) (Result, error) {
	content = cleanMarkdownWrapper(content)
	content = extractJSONObject(content)

	var jsonResp struct {
		Account    string  `json:"account"`
		Rationale  string  `json:"rationale"`
		Reasoning  string  `json:"reasoning"`
		Confidence float64 `json:"confidence"`
	}

	if err := json.Unmarshal([]byte(content), &jsonResp); err != nil {
		return Result{}, fmt.Errorf("%w: unparsable response: %v", common.ErrSchemaViolation, err)
	}

	if jsonResp.Account == "" {
		return Result{}, fmt.Errorf("%w: no account in response", common.ErrSchemaViolation)
	}

	rationale := jsonResp.Rationale
	if rationale == "" {
		// Some providers call the field "reasoning" regardless of the prompt.
		rationale = jsonResp.Reasoning
	}

	return Result{
		Account:    jsonResp.Account,
		Confidence: model.ClampConfidence(jsonResp.Confidence),
		Rationale:  rationale,
	}, nil
}

// cleanMarkdownWrapper strips markdown code fences from a response.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		if idx := strings.Index(content, "\n"); idx != -1 {
			content = content[idx+1:]
		}
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}

	return strings.TrimSpace(content)
}

// extractJSONObject returns the first balanced JSON object in the text, or
// the text unchanged if none is found.
func extractJSONObject(content string) string {
	start := strings.Index(content, "{")
	if start == -1 {
		return content
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case !inString && c == '{':
			depth++
		case !inString && c == '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}

	return content[start:]
}
