package prompt

type SystemPromptData struct {
	ConferenceName string
	Timezone       string
}

// Turn is one earlier question/answer pair of a conversation.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// PlaceLine is a venue or recommendation flattened for the prompt.
type PlaceLine struct {
	Name     string
	Kind     string
	Location string
	Address  string
	URL      string
}

type AssistantPromptData struct {
	System   string
	Now      string
	Agenda   []string
	Speakers string
	Sponsors string
	Places   []PlaceLine
	History  []Turn
	Question string
}
