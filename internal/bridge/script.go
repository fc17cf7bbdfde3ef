package bridge

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mentora-ai/mentora/internal/errors"
	"github.com/mentora-ai/mentora/pkg/protocol"
)

var callbackRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)*$`)

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\u2028", `\u2028`,
	"\u2029", `\u2029`,
)

// ValidCallback reports whether name is a plain or dotted identifier.
func ValidCallback(name string) bool { return callbackRe.MatchString(name) }

// Quote returns s as a single-quoted script string literal.
func Quote(s string) string {
	return "'" + literalEscaper.Replace(s) + "'"
}

// Script builds the expression callback(arg, ...). Strings become quoted
// literals, booleans and numbers are written as is, nil is null, and any
// other value is passed as a quoted JSON string.
func Script(callback string, args ...any) (string, error) {
	if !ValidCallback(callback) {
		return "", errors.NewBuilder(errors.CodeBridgeBadRequest, "invalid callback name").
			User().
			WithContext("callback", callback).
			Build()
	}
	parts := make([]string, 0, len(args))
	for _, a := range args {
		lit, err := literal(a)
		if err != nil {
			return "", err
		}
		parts = append(parts, lit)
	}
	return callback + "(" + strings.Join(parts, ", ") + ")", nil
}

func literal(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "null", nil
	case string:
		return Quote(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return "null", nil
		}
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case json.RawMessage:
		return Quote(string(x)), nil
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return "", errors.Wrap(err, errors.CodeBridgeBadRequest, fmt.Sprintf("cannot encode %T", v), errors.CategoryPermanent)
		}
		return Quote(string(data)), nil
	}
}

// Evaluator runs a script in the web view.
type Evaluator interface {
	Eval(script string)
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(script string)

// Eval calls f.
func (f EvaluatorFunc) Eval(script string) { f(script) }

// ScriptSink delivers events by invoking their callback in the web view.
// Events without a callback are dropped.
type ScriptSink struct {
	eval Evaluator
}

// NewScriptSink returns a sink over eval.
func NewScriptSink(eval Evaluator) *ScriptSink {
	return &ScriptSink{eval: eval}
}

// Emit evaluates callback(payload).
func (s *ScriptSink) Emit(ev protocol.Event) error {
	if ev.Callback == "" {
		return nil
	}
	script, err := Script(ev.Callback, ev.Payload)
	if err != nil {
		return err
	}
	s.eval.Eval(script)
	return nil
}
