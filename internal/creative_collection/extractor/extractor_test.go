package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "url inside text", input: "check this https://douyin.com/video/123 now", want: "https://douyin.com/video/123"},
		{name: "no url", input: "no link here", want: "no link here"},
		{name: "bare url", input: "https://v.douyin.com/abc", want: "https://v.douyin.com/abc"},
		{name: "first of several", input: "a http://www.toutiao.com/x b https://douyin.com/y", want: "http://www.toutiao.com/x"},
		{name: "share message", input: "7.43 复制打开抖音，看看【作品】 https://v.douyin.com/ie1oNqK8/ abc:/ 12/30", want: "https://v.douyin.com/ie1oNqK8/"},
		{name: "query string", input: "see https://www.toutiao.com/video/1?source=share&t=9 ok", want: "https://www.toutiao.com/video/1?source=share&t=9"},
		{name: "scheme required", input: "www.douyin.com/video/1", want: "www.douyin.com/video/1"},
		{name: "empty", input: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.input))
		})
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	inputs := []string{
		"check this https://douyin.com/video/123 now",
		"https://v.douyin.com/abc",
		"no link here",
	}
	for _, in := range inputs {
		once := Extract(in)
		assert.Equal(t, once, Extract(once), "input %q", in)
	}
}

func TestDetectPlatform(t *testing.T) {
	assert.Equal(t, PlatformDouyin, DetectPlatform("https://v.douyin.com/abc"))
	assert.Equal(t, PlatformToutiao, DetectPlatform("https://www.toutiao.com/video/1"))
	assert.Equal(t, PlatformUnknown, DetectPlatform("https://example.com/v"))
}
