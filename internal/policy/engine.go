// Package policy evaluates dataset sources against an OPA policy before they
// are loaded.
package policy

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/open-policy-agent/opa/rego"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

// Decisions returned by the policy.
const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content. The
// module must declare package dataset_policy with a decision rule and may
// define a reasons set.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.dataset_policy"),
		rego.Module("dataset_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// LoadPolicy returns the content of path, or DefaultPolicy when path is empty.
func LoadPolicy(path string) (string, error) {
	if path == "" {
		return DefaultPolicy, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read policy file: %w", err)
	}
	return string(data), nil
}

// SourceInput is the policy input describing a dataset source.
type SourceInput struct {
	Source    string `json:"source"`
	Scheme    string `json:"scheme"`
	Host      string `json:"host"`
	Remote    bool   `json:"remote"`
	Extension string `json:"extension"`
}

// NewSourceInput describes source. Only "scheme://" prefixes count as a
// scheme, so local paths never carry one.
func NewSourceInput(source string) SourceInput {
	source = strings.TrimSpace(source)
	in := SourceInput{Source: source}
	p := source
	if strings.Contains(source, "://") {
		if u, err := url.Parse(source); err == nil {
			in.Scheme = strings.ToLower(u.Scheme)
			in.Host = strings.ToLower(u.Hostname())
			p = u.Path
		}
	}
	in.Remote = in.Scheme == "http" || in.Scheme == "https"
	in.Extension = strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
	return in
}

// Evaluate checks the policy.
// Returns: decision (allow, block), reason (optional), error
func (e *Engine) Evaluate(ctx context.Context, input interface{}) (string, string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionAllow, "default", nil
	}

	doc, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return DecisionAllow, "unexpected return type", nil
	}
	decision, ok := doc["decision"].(string)
	if !ok {
		return DecisionAllow, "default", nil
	}

	var reasons []string
	if set, ok := doc["reasons"].([]interface{}); ok {
		for _, r := range set {
			if s, ok := r.(string); ok {
				reasons = append(reasons, s)
			}
		}
	}
	sort.Strings(reasons)
	return decision, strings.Join(reasons, "; "), nil
}

// CheckSource returns a SOURCE_BLOCKED error when the policy blocks source.
func (e *Engine) CheckSource(ctx context.Context, source string) error {
	decision, reason, err := e.Evaluate(ctx, NewSourceInput(source))
	if err != nil {
		return err
	}
	if decision == DecisionBlock {
		msg := fmt.Sprintf("dataset source %s is blocked by policy", source)
		if reason != "" {
			msg += ": " + reason
		}
		return domain.NewError(domain.KindSourceBlocked, msg, nil)
	}
	return nil
}

// DefaultPolicy is the default policy content.
const DefaultPolicy = `
package dataset_policy

import rego.v1

default decision := "allow"

decision := "block" if {
	count(reasons) > 0
}

allowed_schemes := {"http", "https"}

blocked_hosts := {"169.254.169.254", "metadata.google.internal"}

# Local paths have no scheme.
reasons contains "scheme not allowed" if {
	input.scheme != ""
	not input.scheme in allowed_schemes
}

reasons contains "host not allowed" if {
	input.host in blocked_hosts
}
`
