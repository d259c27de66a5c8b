package adapter

import "strings"

// blockMarkers are lower-case fragments that only appear on anti-automation
// or challenge pages.
var blockMarkers = []string{
	"captcha",
	"verify you are human",
	"are you a robot",
	"unusual traffic",
	"access denied",
	"just a moment",
	"cf-browser-verification",
	"challenge-platform",
	"too many requests",
	"자동입력 방지",
}

// DetectBlock returns the first block marker found in content
// (case-insensitive), or "" when the page looks legitimate.
func DetectBlock(content string) string {
	lower := strings.ToLower(content)
	for _, m := range blockMarkers {
		if strings.Contains(lower, m) {
			return m
		}
	}
	return ""
}
