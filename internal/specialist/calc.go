package specialist

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ShayCichocki/relay/internal/protocol"
)

// CalculatorCard describes the calculator specialist.
func CalculatorCard(baseURL, version string) protocol.AgentCard {
	return protocol.AgentCard{
		Name:        "Calculator Agent",
		Description: "Evaluates arithmetic expressions.",
		URL:         baseURL,
		Version:     version,
		Capabilities: protocol.AgentCapabilities{
			Streaming: true,
		},
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text"},
		Skills: []protocol.AgentSkill{{
			ID:          "calculator",
			Name:        "Calculator",
			Description: "Evaluates +, -, *, / and parentheses over decimal numbers.",
			Tags:        []string{"math", "arithmetic"},
			Examples:    []string{"Calculate 25 * 4 + 16", "(3 + 5) / 2"},
			InputModes:  []string{"text"},
			OutputModes: []string{"text"},
		}},
	}
}

// Calculator answers arithmetic requests with "<expression> = <result>".
type Calculator struct{}

// Handle implements Handler.
func (Calculator) Handle(_ context.Context, turn *Turn) error {
	expr := extractExpression(turn.Text)
	if expr == "" {
		turn.Fail("I could not find an arithmetic expression in that request.")
		return nil
	}

	value, err := evaluate(expr)
	if err != nil {
		turn.Fail(fmt.Sprintf("I could not evaluate %q: %v", expr, err))
		return nil
	}

	turn.Complete(fmt.Sprintf("%s = %s", expr, formatNumber(value)), protocol.Citation{
		ID:        protocol.NewID(),
		Label:     "arithmetic evaluator",
		Kind:      protocol.CitationKindAPI,
		Tool:      "calculator",
		Note:      fmt.Sprintf("evaluated %q", expr),
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// extractExpression pulls the longest arithmetic substring out of free text,
// preserving its spacing so the answer echoes the caller's expression.
func extractExpression(text string) string {
	isExprByte := func(c byte) bool {
		switch {
		case c >= '0' && c <= '9':
			return true
		case c == '+' || c == '-' || c == '*' || c == '/' || c == '(' || c == ')' || c == '.' || c == ' ':
			return true
		}
		return false
	}

	best := ""
	for i := 0; i < len(text); {
		if !isExprByte(text[i]) {
			i++
			continue
		}
		j := i
		for j < len(text) && isExprByte(text[j]) {
			j++
		}
		candidate := strings.Trim(text[i:j], " .")
		if strings.ContainsAny(candidate, "0123456789") && len(candidate) > len(best) {
			best = candidate
		}
		i = j
	}
	return best
}

// evaluate parses and computes an infix expression with the usual
// precedence. Division by zero is an error, not an infinity.
func evaluate(expr string) (float64, error) {
	p := &exprParser{input: expr}
	value, err := p.parseSum()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.pos != len(p.input) {
		return 0, fmt.Errorf("unexpected %q at position %d", p.input[p.pos], p.pos)
	}
	return value, nil
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *exprParser) peek() (byte, bool) {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

func (p *exprParser) parseSum() (float64, error) {
	left, err := p.parseProduct()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.peek()
		if !ok || (op != '+' && op != '-') {
			return left, nil
		}
		p.pos++
		right, err := p.parseProduct()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *exprParser) parseProduct() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.peek()
		if !ok || (op != '*' && op != '/') {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			left *= right
		} else {
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		}
	}
}

func (p *exprParser) parseUnary() (float64, error) {
	if c, ok := p.peek(); ok && c == '-' {
		p.pos++
		value, err := p.parseUnary()
		return -value, err
	}
	return p.parseAtom()
}

func (p *exprParser) parseAtom() (float64, error) {
	c, ok := p.peek()
	if !ok {
		return 0, fmt.Errorf("unexpected end of expression")
	}
	if c == '(' {
		p.pos++
		value, err := p.parseSum()
		if err != nil {
			return 0, err
		}
		if c, ok := p.peek(); !ok || c != ')' {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return value, nil
	}

	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c >= '0' && c <= '9') || c == '.' {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return 0, fmt.Errorf("expected number at position %d", start)
	}
	value, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", p.input[start:p.pos])
	}
	return value, nil
}

// formatNumber renders whole results without a decimal point.
func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
