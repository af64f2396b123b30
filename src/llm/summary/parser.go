// Package summary holds the prompt and output parser for questionnaire summaries.
package summary

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	CompletionDelimiter = "<|COMPLETE|>"
	MaxBulletLength     = 300
)

var bulletPrefixes = []string{"- ", "* ", "• ", "– "}

// ParseSummary turns raw model output into at most MaxBullets "- " lines.
// Code fences, the completion delimiter and blank lines are dropped; numbered
// or starred bullets are normalized. Text without any bullet becomes one bullet.
func ParseSummary(content string) (string, error) {
	if !utf8.ValidString(content) {
		return "", fmt.Errorf("summary is not valid UTF-8")
	}

	content = strings.ReplaceAll(content, CompletionDelimiter, "")

	var bullets []string
	var loose []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		if text, ok := bulletText(line); ok {
			if text != "" {
				bullets = append(bullets, clip(text))
			}
			continue
		}
		loose = append(loose, line)
	}

	if len(bullets) == 0 {
		if len(loose) == 0 {
			return "", fmt.Errorf("summary is empty")
		}
		bullets = []string{clip(strings.Join(loose, " "))}
	}
	if len(bullets) > MaxBullets {
		bullets = bullets[:MaxBullets]
	}

	for i, b := range bullets {
		bullets[i] = "- " + b
	}
	return strings.Join(bullets, "\n"), nil
}

func bulletText(line string) (string, bool) {
	for _, prefix := range bulletPrefixes {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):]), true
		}
	}

	// "1. text" or "1) text"
	digits := 0
	for digits < len(line) && line[digits] >= '0' && line[digits] <= '9' {
		digits++
	}
	if digits > 0 && digits+1 < len(line) && (line[digits] == '.' || line[digits] == ')') && line[digits+1] == ' ' {
		return strings.TrimSpace(line[digits+2:]), true
	}
	return "", false
}

func clip(s string) string {
	if utf8.RuneCountInString(s) <= MaxBulletLength {
		return s
	}
	r := []rune(s)
	return string(r[:MaxBulletLength-1]) + "…"
}
