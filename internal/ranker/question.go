package ranker

import (
	"math"
	"regexp"
)

// questionPatterns detect text that is asking for something: a literal
// question, a help request, or a first-timer looking for advice.
var questionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\?\s*$`),
	regexp.MustCompile(`(?i)\bhow\s+(do|can|should|would)\s+i\b`),
	regexp.MustCompile(`(?i)\bhow\s+to\b`),
	regexp.MustCompile(`(?i)\bany\s+(tips|advice|recommendations|suggestions)\b`),
	regexp.MustCompile(`(?i)\blooking\s+for\s+(help|advice|recommendations)\b`),
	regexp.MustCompile(`(?i)\bfirst\s+(triathlon|ironman|marathon|race|time)\b`),
	regexp.MustCompile(`(?i)\bwhat\s+(should|would|do)\b`),
	regexp.MustCompile(`(?i)\bshould\s+i\b`),
	regexp.MustCompile(`(?i)\bdoes\s+any(one|body)\b`),
	regexp.MustCompile(`(?i)\bcan\s+(someone|anyone)\b`),
	regexp.MustCompile(`(?i)\brecommend\b`),
	regexp.MustCompile(`(?i)\bhelp\s+me\b`),
	regexp.MustCompile(`(?i)\bis\s+it\s+worth\b`),
	regexp.MustCompile(`(?i)\banyone\s+else\b`),
}

// questionMatches counts how many question patterns the text matches.
func questionMatches(text string) int {
	matches := 0
	for _, pattern := range questionPatterns {
		if pattern.MatchString(text) {
			matches++
		}
	}
	return matches
}

// IsQuestion reports whether the text matches at least one question or
// help-seeking pattern.
func IsQuestion(text string) bool {
	return questionMatches(text) > 0
}

// questionScore caps at three matches for the full score; one clear ask is
// most of the signal.
func questionScore(text string) float64 {
	return math.Min(float64(questionMatches(text)), 3) / 3 * 100
}
