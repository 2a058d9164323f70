// Package normalizer turns provider payloads of varying shape into chat text.
package normalizer

import (
	"encoding/json"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"mentichat/internal/models"
	"mentichat/internal/providers"
	"mentichat/pkg/logger"
)

const generatedTextKey = "generated_text"

// alternateKeys are checked, in order, on object payloads that lack
// generated_text.
var alternateKeys = []string{"response", "result"}

// Extractor is a compiled expression that pulls text out of a payload. The
// payload is exposed to the expression as the variable "payload".
type Extractor struct {
	Source  string
	program *vm.Program
}

// Normalizer extracts human-readable text from a RawPayload. It is safe for
// concurrent use once built.
type Normalizer struct {
	extractors []Extractor
}

// New compiles the given extractor expressions. Expressions that fail to
// compile are logged and skipped.
func New(expressions []string) *Normalizer {
	n := &Normalizer{}
	for _, src := range expressions {
		program, err := expr.Compile(src, expr.AllowUndefinedVariables())
		if err != nil {
			logger.Warn("Normalizer failed to compile extractor", "expression", src, "error", err)
			continue
		}
		n.extractors = append(n.extractors, Extractor{Source: src, program: program})
	}
	return n
}

// Extractors returns the successfully compiled extractor sources.
func (n *Normalizer) Extractors() []string {
	out := make([]string, 0, len(n.extractors))
	for _, e := range n.extractors {
		out = append(out, e.Source)
	}
	return out
}

// Extract returns the text carried by raw, or a diagnostic naming the
// payload's shape when nothing recognizable is found. It never panics.
func (n *Normalizer) Extract(raw providers.RawPayload) string {
	text, ok := n.extract(raw)
	if !ok {
		return Diagnostic(raw)
	}
	return text
}

// Normalize is Extract with the diagnostic case flagged as an error.
func (n *Normalizer) Normalize(raw providers.RawPayload) models.NormalizedResult {
	text, ok := n.extract(raw)
	if !ok {
		return models.NormalizedResult{Text: Diagnostic(raw), IsError: true}
	}
	return models.NormalizedResult{Text: text}
}

// Diagnostic is the message shown for payloads no rule recognizes.
func Diagnostic(raw providers.RawPayload) string {
	return fmt.Sprintf("Error: Unexpected response type: %s. Please check your API integration.", raw.TypeTag())
}

func (n *Normalizer) extract(raw providers.RawPayload) (text string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Normalizer recovered from panic", "panic", r, "shape", raw.TypeTag())
			text, ok = "", false
		}
	}()

	switch raw.Kind {
	case providers.PayloadList:
		if len(raw.List) > 0 {
			if first, isObj := raw.List[0].(map[string]any); isObj {
				if v, found := first[generatedTextKey]; found {
					return stringify(v), true
				}
			}
		}
	case providers.PayloadObject:
		if v, found := raw.Object[generatedTextKey]; found {
			return stringify(v), true
		}
	case providers.PayloadString:
		return raw.String, true
	}

	if raw.Kind == providers.PayloadObject {
		for _, key := range alternateKeys {
			if v, found := raw.Object[key]; found && v != nil {
				return stringify(v), true
			}
		}
	}
	return n.runExtractors(raw)
}

func (n *Normalizer) runExtractors(raw providers.RawPayload) (string, bool) {
	if len(n.extractors) == 0 {
		return "", false
	}
	env := map[string]any{"payload": raw.Value()}
	for _, e := range n.extractors {
		out, err := expr.Run(e.program, env)
		if err != nil {
			logger.Debug("Normalizer extractor did not match", "expression", e.Source, "error", err)
			continue
		}
		if s, isStr := out.(string); isStr && s != "" {
			return s, true
		}
	}
	return "", false
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case nil:
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
