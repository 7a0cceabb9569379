package revision

import (
	"strconv"
	"strings"
)

type stepKind int

const (
	// stepAncestor is ~N: N first-parent hops.
	stepAncestor stepKind = iota
	// stepParent is ^N: the N-th parent, ^0 being the commit itself.
	stepParent
	// stepPeel is ^{type}.
	stepPeel
)

type step struct {
	kind stepKind
	n    int
	peel string
}

// expr is a single-object expression such as "main~2^2" or "HEAD@{1}^{tree}".
type expr struct {
	text string
	base string

	// reflog is N for NAME@{N}, -1 otherwise.
	reflog int
	steps  []step
}

// query is a parsed revision text. A query with a single include, no
// excludes and no range operator names one object; anything else is a set.
type query struct {
	include   []expr
	exclude   []expr
	symmetric bool
	isSet     bool
}

func parseQuery(text string) (query, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return query{}, newSyntaxError(text, "empty revision")
	}

	if len(fields) == 1 && !strings.HasPrefix(fields[0], "^") {
		tok := fields[0]
		if left, right, ok := strings.Cut(tok, "..."); ok {
			return parseRange(tok, left, right, true)
		}
		if left, right, ok := strings.Cut(tok, ".."); ok {
			return parseRange(tok, left, right, false)
		}
		e, err := parseExpr(tok)
		if err != nil {
			return query{}, err
		}
		return query{include: []expr{e}}, nil
	}

	q := query{isSet: true}
	for _, tok := range fields {
		if strings.Contains(tok, "..") {
			return query{}, newSyntaxError(text, "ranges cannot be combined with other revisions")
		}
		negated := strings.HasPrefix(tok, "^")
		e, err := parseExpr(strings.TrimPrefix(tok, "^"))
		if err != nil {
			return query{}, err
		}
		if negated {
			q.exclude = append(q.exclude, e)
		} else {
			q.include = append(q.include, e)
		}
	}
	return q, nil
}

// parseRange handles A..B and A...B. An empty side means HEAD.
func parseRange(text, left, right string, symmetric bool) (query, error) {
	if left == "" {
		left = "HEAD"
	}
	if right == "" {
		right = "HEAD"
	}
	if strings.Contains(right, "..") {
		return query{}, newSyntaxError(text, "more than one range operator")
	}

	a, err := parseExpr(left)
	if err != nil {
		return query{}, err
	}
	b, err := parseExpr(right)
	if err != nil {
		return query{}, err
	}

	if symmetric {
		return query{include: []expr{a, b}, symmetric: true, isSet: true}, nil
	}
	return query{include: []expr{b}, exclude: []expr{a}, isSet: true}, nil
}

func parseExpr(text string) (expr, error) {
	if text == "" {
		return expr{}, newSyntaxError(text, "empty revision")
	}

	cut := strings.IndexAny(text, "~^")
	base, rest := text, ""
	if cut >= 0 {
		base, rest = text[:cut], text[cut:]
	}

	e := expr{text: text, base: base, reflog: -1}
	if i := strings.Index(base, "@{"); i >= 0 {
		if !strings.HasSuffix(base, "}") {
			return expr{}, newSyntaxError(text, "unterminated @{")
		}
		n, err := strconv.Atoi(base[i+2 : len(base)-1])
		if err != nil || n < 0 {
			return expr{}, newSyntaxError(text, "@{} needs a non-negative entry number")
		}
		e.base = base[:i]
		e.reflog = n
	}
	if e.base == "" || e.base == "@" {
		e.base = "HEAD"
	}

	for rest != "" {
		op := rest[0]
		rest = rest[1:]
		if op != '~' && op != '^' {
			return expr{}, newSyntaxError(text, "unexpected "+strconv.QuoteRune(rune(op)))
		}

		if op == '^' && strings.HasPrefix(rest, "{") {
			end := strings.IndexByte(rest, '}')
			if end < 0 {
				return expr{}, newSyntaxError(text, "unterminated ^{")
			}
			e.steps = append(e.steps, step{kind: stepPeel, peel: rest[1:end]})
			rest = rest[end+1:]
			continue
		}

		digits := 0
		for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
			digits++
		}
		n := 1
		if digits > 0 {
			var err error
			if n, err = strconv.Atoi(rest[:digits]); err != nil {
				return expr{}, newSyntaxError(text, "step count out of range")
			}
		}
		rest = rest[digits:]

		kind := stepAncestor
		if op == '^' {
			kind = stepParent
		}
		e.steps = append(e.steps, step{kind: kind, n: n})
	}
	return e, nil
}
