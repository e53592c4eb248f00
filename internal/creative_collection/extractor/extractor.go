// Package extractor pulls a video URL out of free-form text such as a share message.
package extractor

import (
	"regexp"
	"strings"
)

// urlPattern matches http(s) URLs with an optional www prefix, a dotted host and an optional
// path, query or fragment.
var urlPattern = regexp.MustCompile(`https?://(www\.)?[-a-zA-Z0-9@:%._+~#=]{1,256}\.[a-zA-Z0-9()]{1,6}\b([-a-zA-Z0-9()@:%_+.~#?&/=]*)`)

// Extract returns the first URL found in input, or input unchanged when there is none.
func Extract(input string) string {
	if match := urlPattern.FindString(input); match != "" {
		return match
	}
	return input
}

// Platform is the source platform label used by the collection service.
type Platform string

const (
	PlatformDouyin  Platform = "抖音"
	PlatformToutiao Platform = "头条"
	PlatformUnknown Platform = "未知"
)

// DetectPlatform guesses the platform from the URL host.
func DetectPlatform(videoURL string) Platform {
	switch {
	case strings.Contains(videoURL, "douyin.com"):
		return PlatformDouyin
	case strings.Contains(videoURL, "toutiao.com"):
		return PlatformToutiao
	}
	return PlatformUnknown
}
