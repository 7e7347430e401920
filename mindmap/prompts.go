package mindmap

import "fmt"

const topicsPromptTemplate = `Extract the main topics and headings from this text.

IMPORTANT: Return ONLY a JSON array, no explanations or markdown.

Format: ["Topic 1", "Topic 2", "Topic 3"]

Text to analyze:
%s

Return only the JSON array:`

const filterPromptTemplate = `From this text, extract ONLY the content related to the topic: "%s".
Keep it clean and structured.

Text:
%s`

const mindMapPromptTemplate = `Create a mind map in JSON format from the following text.

Format:
{
  "topic": "Main Topic",
  "nodes": [
    {"id": 1, "parent": 0, "text": "Subtopic"},
    {"id": 2, "parent": 1, "text": "Details"}
  ]
}

Rules:
- The "topic" field should contain the main topic
- Each node must have "id" (unique integer), "parent" (integer, 0 for root children), and "text" (string)
- Support at least 4 levels of hierarchy
- All parent IDs must reference valid node IDs or be 0
- Return ONLY the JSON object, no explanations or markdown

Text:
%s`

// BuildTopicsPrompt returns the topic detection prompt for already truncated text.
func BuildTopicsPrompt(text string) string {
	return fmt.Sprintf(topicsPromptTemplate, text)
}

// BuildFilterPrompt returns the topic filter prompt.
func BuildFilterPrompt(text, topic string) string {
	return fmt.Sprintf(filterPromptTemplate, topic, text)
}

// BuildMindMapPrompt returns the mind map generation prompt.
func BuildMindMapPrompt(topicText string) string {
	return fmt.Sprintf(mindMapPromptTemplate, topicText)
}
