package posts

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/killallgit/blog-api/internal/models"
)

// Lengths of the generated post summaries, in runes
const (
	SmallDescriptionLength = 150
	MetaDescriptionLength  = 160
)

var (
	// ASCII and Unicode spaces, including NBSP and the BOM
	whitespaceRun = regexp.MustCompile(`[\s\v\p{Z}\x{FEFF}]+`)
	nonSlugChars  = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
)

// SplitTitleBody splits generated Markdown at the first blank line. The
// title is the first line of the head with heading markers removed; any
// other head lines stay with the body.
func SplitTitleBody(markdown string) (string, string) {
	text := strings.TrimSpace(strings.ReplaceAll(markdown, "\r\n", "\n"))
	if text == "" {
		return "", ""
	}

	head, rest, found := strings.Cut(text, "\n\n")
	firstLine, headRest, _ := strings.Cut(head, "\n")

	title := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(firstLine), "#"))

	var body string
	switch {
	case !found:
		body = headRest
	case strings.TrimSpace(headRest) != "":
		body = headRest + "\n\n" + rest
	default:
		body = rest
	}
	return title, strings.TrimSpace(body)
}

// Slugify lowercases title, joins words with hyphens and drops
// everything that is not a word character or hyphen.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = whitespaceRun.ReplaceAllString(s, "-")
	return nonSlugChars.ReplaceAllString(s, "")
}

// Truncate returns at most n runes of s
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// NewGeneratedPost builds the draft post stored for generated content
func NewGeneratedPost(title, body, userID string) *models.Post {
	post := &models.Post{
		Title:            title,
		Slug:             Slugify(title),
		SmallDescription: Truncate(body, SmallDescriptionLength),
		MetaDescription:  Truncate(body, MetaDescriptionLength),
		ArticleContent:   models.ArticleContent{Content: body},
		Image:            models.DefaultPostImage,
		Tags:             models.StringList{},
		Status:           models.PostStatusDraft,
		UserID:           userID,
	}
	post.ID = uuid.NewString()
	return post
}
