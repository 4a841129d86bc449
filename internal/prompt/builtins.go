package prompt

import "docanalyst/internal/domain"

// DefaultPrompt is used when no analysis type is given.
const DefaultPrompt = `Analyze the following text in detail.

Analysis rules:
1. State the main topic
2. Highlight the important points
3. Divide the text into sections
4. Evaluate each section separately
5. Write an overall conclusion

Text to analyze:
`

var builtins = []domain.AnalysisType{
	{
		Name:        "Summary",
		Description: "Comprehensive summary that keeps the main ideas and chronology",
		PromptTemplate: `Summarize the following text comprehensively.

Summary rules:
1. Keep the main ideas
2. Remove unnecessary details
3. Preserve the chronological order
4. Use professional language
5. Write in paragraphs

Text to summarize:
`,
	},
	{
		Name:        "Q&A Generation",
		Description: "Distinct, non-repeating question/answer pairs as JSON for fine-tuning",
		PromptTemplate: `Analyze the following text and produce distinct, non-repeating question-answer pairs that summarize it, suitable for fine-tuning a language model.
Important: never repeat the same question-answer pair.

Return JSON in this format:
{
  "soru-cevaplar": [
    {
      "soru": "example question",
      "cevap": "example answer"
    }
  ]
}

Text to analyze:
`,
	},
	{
		Name:        "Key Points",
		Description: "Key points ordered by importance, each with a short heading",
		PromptTemplate: `Extract the key points from the following text.

Presentation format:
1. Each important point in its own paragraph
2. Ordered by importance
3. Each point starts with a short heading
4. Detailed explanation under each heading

Text to review:
`,
	},
	{
		Name:        "Translation",
		Description: "Faithful English translation that keeps the paragraph structure",
		PromptTemplate: `Translate the following text into English.

Translation rules:
1. Convey the meaning completely
2. Use natural English
3. Give technical terms in their original form in parentheses
4. Explain cultural references as footnotes
5. Keep the paragraph structure

Text to translate:
`,
	},
	{
		Name:        "Analysis",
		Description: "Detailed report on themes, arguments and the author's perspective",
		PromptTemplate: `Analyze the following text in detail.

Report format:
1. Introduction
2. Main themes
3. Arguments and examples used
4. The author's perspective
5. Strengths and weaknesses
6. Conclusion and evaluation

Text to analyze:
`,
	},
	{
		Name:        "Technical Analysis",
		Description: "Technical report with glossary, requirements and risks",
		PromptTemplate: `Analyze the text from a technical perspective.

Technical report format:
1. Technical summary
2. Technologies used
3. Glossary of technical terms
4. Implementation steps
5. Technical requirements
6. Potential problems and proposed solutions
7. Technical evaluation

Text to review:
`,
	},
	{
		Name:        "Summary Report",
		Description: "Professional executive report with findings and recommendations",
		PromptTemplate: `Prepare a professional summary report from the text.

Report format:
1. Executive summary
2. Main findings
3. Detailed analysis
   a. Current state
   b. Findings
   c. Evaluation
4. Conclusions
5. Recommendations and action items

Text to review:
`,
	},
}
