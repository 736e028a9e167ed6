package model

// ================ Config ================

// GeneratorModelConfig tunes the narration model.
type GeneratorModelConfig struct {
	Model       string  `envconfig:"GENERATOR_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"GENERATOR_MAX_TOKENS" default:"1024"`
	Temperature float32 `envconfig:"GENERATOR_TEMPERATURE" default:"0.7"`
}

// InsightModelConfig tunes the web-insight model used by the search agent.
type InsightModelConfig struct {
	Model       string  `envconfig:"INSIGHT_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"INSIGHT_MAX_TOKENS" default:"512"`
	Temperature float32 `envconfig:"INSIGHT_TEMPERATURE" default:"0.2"`
}

// PipelineConfig bounds how much evidence each stage consumes.
type PipelineConfig struct {
	TopK        int `envconfig:"PIPELINE_TOP_K" default:"3"`
	MaxSnippets int `envconfig:"PIPELINE_MAX_SNIPPETS" default:"2"`
}

// StoryPromptConfig carries the product-voice constraints rendered into the
// generation prompt.
type StoryPromptConfig struct {
	StyleNote string `envconfig:"STORY_STYLE_NOTE" default:"Simple English. Kind and calm. At most 2 gentle emojis. No medical or legal advice."`
}

// RetrievalConfig selects the embedding model backing vector search.
type RetrievalConfig struct {
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"gemini-embedding-001"`
}
