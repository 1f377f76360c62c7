package chat

import "fmt"

// Response formats accepted by Reply. Unknown names fall back to FormatDefault.
const (
	FormatDefault  = "default"
	FormatBullets  = "bullets"
	FormatNumbered = "numbered"
	FormatTable    = "table"
	FormatBrief    = "brief"
	FormatDetailed = "detailed"
	FormatCode     = "code"
)

const summarizeRequest = "Please summarize this document."

var formatInstructions = map[string]string{
	FormatDefault: "Format your response appropriately using markdown. " +
		"Use headings, lists, tables, or code blocks as needed.",
	FormatBullets: "FORMAT REQUIREMENT: Present your response as bullet points (unordered list). " +
		"Use - or * for each point. Make each point clear and concise.",
	FormatNumbered: "FORMAT REQUIREMENT: Present your response as a numbered list. " +
		"Start each main point with a number (1., 2., 3., etc.). Use sub-numbers for nested points.",
	FormatTable: "FORMAT REQUIREMENT: Present your response in a markdown table format where possible. " +
		"Use | for columns and - for header separators. Include headers.",
	FormatBrief: "FORMAT REQUIREMENT: Be very brief and concise. " +
		"Give only the essential information in 2-3 sentences maximum. No lengthy explanations.",
	FormatDetailed: "FORMAT REQUIREMENT: Provide a comprehensive, detailed explanation. " +
		"Include examples, context, and thorough coverage of the topic. Use headings to organize sections.",
	FormatCode: "FORMAT REQUIREMENT: Focus on code and technical details. " +
		"Use code blocks with proper syntax highlighting (```language). " +
		"Include comments and explanations within code.",
}

// FormatInstruction returns the model instruction for format.
func FormatInstruction(format string) string {
	if s, ok := formatInstructions[format]; ok {
		return s
	}
	return formatInstructions[FormatDefault]
}

const documentTemplate = `You are a helpful AI assistant. A user has provided a document and asked a question about it.

USER QUESTION: %s

DOCUMENT CONTENT:
%s

%s

Please provide a helpful, accurate answer based on the document content above. ` +
	`If the answer cannot be found in the document, say so clearly.`

const questionTemplate = `You are a helpful AI assistant. Please answer the following question accurately and helpfully.

USER QUESTION: %s

%s

Please provide a clear and informative response.`

// BuildPrompt composes the model prompt. document must already be truncated.
func BuildPrompt(message, document, format string) string {
	instruction := FormatInstruction(format)
	if document == "" {
		return fmt.Sprintf(questionTemplate, message, instruction)
	}
	if message == "" {
		message = summarizeRequest
	}
	return fmt.Sprintf(documentTemplate, message, document, instruction)
}
