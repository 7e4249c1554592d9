// Package rating extracts 1-10 cross-ratings from free-form advisor replies.
package rating

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	MinScore = 1
	MaxScore = 10
)

// Method records how a score was obtained.
type Method string

const (
	MethodJSON     Method = "json"
	MethodFraction Method = "fraction"
	MethodLabel    Method = "label"
)

// Result 是一次评分解析的结果。
type Result struct {
	Score  int
	Reason string
	Method Method
}

var errMissingObject = errors.New("missing json object")

var (
	fractionPattern = regexp.MustCompile(`(?i)(\d{1,2}(?:\.\d+)?)\s*(?:/|out\s+of)\s*10\b`)
	labelPattern    = regexp.MustCompile(`(?i)\b(?:score|rating)\s*(?::|=|\bis\b|\bof\b)\s*(\d{1,2}(?:\.\d+)?)\b`)
)

// Extract finds an explicit score in text: a JSON object, "n/10", or "score: n".
// ok is false when the reply states no score; the caller keeps the raw reply instead.
func Extract(text string) (Result, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Result{}, false
	}

	if payload, err := parseJSON(trimmed); err == nil {
		if score, ok := payload.score(); ok {
			reason := strings.TrimSpace(payload.Reason)
			if reason == "" {
				reason = strings.TrimSpace(payload.Justification)
			}
			return Result{Score: clamp(score), Reason: reason, Method: MethodJSON}, true
		}
	}

	if m := fractionPattern.FindStringSubmatch(trimmed); m != nil {
		if score, err := strconv.ParseFloat(m[1], 64); err == nil {
			return Result{Score: clamp(score), Reason: trimmed, Method: MethodFraction}, true
		}
	}

	if m := labelPattern.FindStringSubmatch(trimmed); m != nil {
		if score, err := strconv.ParseFloat(m[1], 64); err == nil {
			return Result{Score: clamp(score), Reason: trimmed, Method: MethodLabel}, true
		}
	}

	return Result{}, false
}

type payload struct {
	Score         *float64 `json:"score"`
	Rating        *float64 `json:"rating"`
	Reason        string   `json:"reason"`
	Justification string   `json:"justification"`
}

func (p payload) score() (float64, bool) {
	switch {
	case p.Score != nil:
		return *p.Score, true
	case p.Rating != nil:
		return *p.Rating, true
	default:
		return 0, false
	}
}

func parseJSON(content string) (*payload, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, errMissingObject
	}

	p := &payload{}
	if err := json.Unmarshal([]byte(content[start:end+1]), p); err != nil {
		return nil, err
	}
	return p, nil
}

func clamp(val float64) int {
	score := int(math.Round(val))
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
