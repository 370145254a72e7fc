package posts

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitTitleBody(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantTitle string
		wantBody  string
	}{
		{
			name:      "heading title",
			input:     "# My Title\n\nBody text...",
			wantTitle: "My Title",
			wantBody:  "Body text...",
		},
		{
			name:      "plain title with sections",
			input:     "Going Serverless\n\nIntro paragraph.\n\n## Why\n\n- fast\n- cheap",
			wantTitle: "Going Serverless",
			wantBody:  "Intro paragraph.\n\n## Why\n\n- fast\n- cheap",
		},
		{
			name:      "crlf line endings",
			input:     "## Title\r\n\r\nBody",
			wantTitle: "Title",
			wantBody:  "Body",
		},
		{
			name:      "extra head lines stay in body",
			input:     "# Title\nsubtitle\n\nBody",
			wantTitle: "Title",
			wantBody:  "subtitle\n\nBody",
		},
		{
			name:      "no blank line",
			input:     "# Title\nBody on next line",
			wantTitle: "Title",
			wantBody:  "Body on next line",
		},
		{
			name:      "title only",
			input:     "# Lonely",
			wantTitle: "Lonely",
			wantBody:  "",
		},
		{
			name:  "empty",
			input: "   ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body := SplitTitleBody(tt.input)
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestSplitTitleBodyIsStable(t *testing.T) {
	input := "# Ten Tips\n\nIntro.\n\n## First\n\nDetails."
	title, body := SplitTitleBody(input)

	again, againBody := SplitTitleBody("# " + title + "\n\n" + body)
	assert.Equal(t, title, again)
	assert.Equal(t, body, againBody)
	assert.False(t, strings.HasPrefix(body, "#"), "body must not start with another title line")
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"My Title":                    "my-title",
		"  Hello,   World!  ":         "hello-world",
		"Go 1.22: What's New?":        "go-122-whats-new",
		"already-slugged_title":       "already-slugged_title",
		"Tabs\tand\nnewlines":         "tabs-and-newlines",
		"Émigré café":                 "migr-caf",
		"Hello\u00a0World\u202fAgain": "hello-world-again",
		"Line\u2028Break\vHere":       "line-break-here",
		"":                            "",
	}

	valid := regexp.MustCompile(`^[a-z0-9_-]*$`)
	for in, want := range tests {
		got := Slugify(in)
		assert.Equal(t, want, got, "Slugify(%q)", in)
		assert.Regexp(t, valid, got)
		assert.Equal(t, got, Slugify(in), "deterministic")
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héllo", Truncate("héllo wörld", 5))
	assert.Equal(t, "short", Truncate("short", 150))
	assert.Equal(t, "", Truncate("anything", 0))
}

func TestNewGeneratedPost(t *testing.T) {
	body := strings.Repeat("a", 200)
	post := NewGeneratedPost("My Title", body, "u1")

	assert.NotEmpty(t, post.ID)
	assert.Equal(t, "my-title", post.Slug)
	assert.Len(t, post.SmallDescription, SmallDescriptionLength)
	assert.Len(t, post.MetaDescription, MetaDescriptionLength)
	assert.Equal(t, body, post.ArticleContent.Content)
	assert.Equal(t, "default-image-url.jpg", post.Image)
	assert.Equal(t, "draft", string(post.Status))
	assert.Zero(t, post.Likes)
	assert.Zero(t, post.Views)
	assert.NotNil(t, post.Tags)
	assert.Empty(t, post.Tags)
	assert.Nil(t, post.FeaturedImage)
}
