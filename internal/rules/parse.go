// Package rules parses user-supplied rule lines (the extra-rules option) into
// model.Rule values the compiler can prepend to the fixed chain.
package rules

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/John-Robertt/clash-override/internal/model"
)

type RuleError struct {
	Code    string
	Message string
	Hint    string
	Cause   error
}

func (e *RuleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *RuleError) Unwrap() error { return e.Cause }

type ParseError struct {
	AppError model.AppError
	Cause    error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// ParseExtraRules parses the configured extra rule lines. Blank lines and
// '#' comments are skipped. MATCH is rejected: the fixed chain already ends
// with one.
//
// source names where the lines came from (a config path or "query") and is
// reported in the error's Path.
func ParseExtraRules(source string, lines []string) ([]model.Rule, error) {
	out := make([]model.Rule, 0, len(lines))
	for i, raw := range lines {
		line := strings.TrimSpace(strings.TrimSuffix(raw, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		r, err := parseRuleLine(line, ruleParseOptions{AllowMatch: false})
		if err != nil {
			app := model.AppError{
				Code:    "RULE_PARSE_ERROR",
				Message: "invalid rule line",
				Stage:   "parse_rules",
				Path:    source,
				Line:    i + 1,
				Snippet: truncateSnippet(raw, 200),
			}
			var rerr *RuleError
			if errors.As(err, &rerr) {
				app.Code = rerr.Code
				app.Message = rerr.Message
				app.Hint = rerr.Hint
				err = rerr.Cause
			}
			return nil, &ParseError{AppError: app, Cause: err}
		}
		out = append(out, r)
	}
	return out, nil
}

// ParseInlineRule parses a single rule line, MATCH included.
// Caller is expected to attach proper stage/path/line if needed.
func ParseInlineRule(line string) (model.Rule, error) {
	line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
	if line == "" {
		return model.Rule{}, &RuleError{Code: "RULE_PARSE_ERROR", Message: "rule line is empty"}
	}
	if strings.HasPrefix(line, "#") {
		return model.Rule{}, &RuleError{Code: "RULE_PARSE_ERROR", Message: "rule line is comment"}
	}
	return parseRuleLine(line, ruleParseOptions{AllowMatch: true})
}

// CIDRRuleType validates cidr and returns the rule type that carries it:
// IP-CIDR for IPv4 prefixes, IP-CIDR6 for IPv6 ones.
func CIDRRuleType(cidr string) (string, error) {
	p, err := netip.ParsePrefix(strings.TrimSpace(cidr))
	if err != nil {
		return "", &RuleError{
			Code:    "RULE_PARSE_ERROR",
			Message: fmt.Sprintf("CIDR 不合法：%s", cidr),
			Hint:    "expected: 10.0.0.0/8 or fd00::/8",
			Cause:   err,
		}
	}
	if p.Addr().Is4() {
		return "IP-CIDR", nil
	}
	return "IP-CIDR6", nil
}

type ruleParseOptions struct {
	AllowMatch bool
}

func parseRuleLine(line string, opt ruleParseOptions) (model.Rule, error) {
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) == 0 || parts[0] == "" {
		return model.Rule{}, &RuleError{Code: "RULE_PARSE_ERROR", Message: "规则类型不能为空"}
	}

	typ := strings.ToUpper(parts[0])
	switch typ {
	case "DOMAIN", "DOMAIN-SUFFIX", "DOMAIN-KEYWORD", "GEOIP", "PROCESS-NAME", "DST-PORT":
		return parseSimple3(typ, parts)
	case "RULE-SET", "IP-CIDR", "IP-CIDR6":
		return parseWithNoResolve(typ, parts)
	case "MATCH":
		if !opt.AllowMatch {
			return model.Rule{}, &RuleError{
				Code:    "RULE_VALIDATE_ERROR",
				Message: "附加规则不允许包含 MATCH",
				Hint:    "the generated rule chain already ends with MATCH",
			}
		}
		if len(parts) != 2 || parts[1] == "" {
			return model.Rule{}, &RuleError{
				Code:    "RULE_PARSE_ERROR",
				Message: "MATCH 规则必须是 MATCH,<ACTION>",
			}
		}
		return model.Rule{Type: "MATCH", Action: parts[1]}, nil
	default:
		return model.Rule{}, &RuleError{
			Code:    "UNSUPPORTED_RULE_TYPE",
			Message: fmt.Sprintf("不支持的规则类型：%s", typ),
		}
	}
}

func parseSimple3(typ string, parts []string) (model.Rule, error) {
	if len(parts) != 3 {
		return model.Rule{}, &RuleError{
			Code:    "RULE_PARSE_ERROR",
			Message: "规则字段数量不合法",
			Hint:    "expected: TYPE,VALUE,ACTION",
		}
	}
	if parts[1] == "" || parts[2] == "" {
		return model.Rule{}, &RuleError{Code: "RULE_PARSE_ERROR", Message: "规则 VALUE/ACTION 不能为空"}
	}
	return model.Rule{Type: typ, Value: parts[1], Action: parts[2]}, nil
}

// parseWithNoResolve handles the types that accept a trailing no-resolve.
func parseWithNoResolve(typ string, parts []string) (model.Rule, error) {
	hint := fmt.Sprintf("expected: %s,VALUE,ACTION[,no-resolve]", typ)
	if len(parts) != 3 && len(parts) != 4 {
		return model.Rule{}, &RuleError{
			Code:    "RULE_PARSE_ERROR",
			Message: fmt.Sprintf("%s 规则字段数量不合法", typ),
			Hint:    hint,
		}
	}
	if parts[1] == "" || parts[2] == "" {
		return model.Rule{}, &RuleError{Code: "RULE_PARSE_ERROR", Message: fmt.Sprintf("%s 的 VALUE/ACTION 不能为空", typ)}
	}
	if strings.EqualFold(parts[2], "no-resolve") {
		// Ambiguous: missing action but has option.
		return model.Rule{}, &RuleError{
			Code:    "RULE_PARSE_ERROR",
			Message: fmt.Sprintf("%s 缺少 ACTION（不允许仅写 no-resolve）", typ),
			Hint:    hint,
		}
	}
	noResolve := false
	if len(parts) == 4 {
		if !strings.EqualFold(parts[3], "no-resolve") {
			return model.Rule{}, &RuleError{
				Code:    "RULE_PARSE_ERROR",
				Message: fmt.Sprintf("%s 的可选项仅支持 no-resolve", typ),
				Hint:    hint,
			}
		}
		noResolve = true
	}

	if typ != "RULE-SET" {
		family, err := CIDRRuleType(parts[1])
		if err != nil {
			return model.Rule{}, err
		}
		if family != typ {
			return model.Rule{}, &RuleError{
				Code:    "RULE_PARSE_ERROR",
				Message: fmt.Sprintf("%s 的 CIDR 地址族不匹配：%s", typ, parts[1]),
				Hint:    fmt.Sprintf("use %s for this prefix", family),
			}
		}
	}
	return model.Rule{Type: typ, Value: parts[1], Action: parts[2], NoResolve: noResolve}, nil
}

func truncateSnippet(s string, max int) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	return s[:max]
}
