package generator

import "strings"

const systemInstruction = "You are a skilled content writer that converts audio transcriptions into well-structured, engaging blog posts in Markdown format. Create a comprehensive blog post with a catchy title, introduction, main body with multiple sections, and a conclusion. Keep the tone casual and professional."

const promptTemplate = `Please convert the following transcription into a well-structured blog post using Markdown formatting. Follow this structure:

1. Start with a SEO friendly catchy title on the first line.
2. Add two newlines after the title.
3. Write an engaging introduction paragraph.
4. Create multiple sections for the main content, using appropriate headings (##, ###).
5. Include relevant subheadings within sections if needed.
6. Use bullet points or numbered lists where appropriate.
7. Add a conclusion paragraph at the end.
8. Ensure the content is informative, well-organized, and easy to read.

Here's the transcription to convert: {{transcription}}`

// BuildPrompt returns the full prompt for a transcription
func BuildPrompt(transcription string) string {
	return systemInstruction + "\n\n" + strings.Replace(promptTemplate, "{{transcription}}", transcription, 1)
}
