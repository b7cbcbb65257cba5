package model

// QuestionKind defines how a question is answered
type QuestionKind string

const (
	QuestionKindSingle   QuestionKind = "SINGLE"    // one choice
	QuestionKindMulti    QuestionKind = "MULTI"     // any number of choices
	QuestionKindFreeText QuestionKind = "FREE_TEXT" // unconstrained farmer statement
)

// Pool groups questions for selection
type Pool string

const (
	PoolDisease     Pool = "disease"
	PoolGrowth      Pool = "growth"
	PoolEnvironment Pool = "environment"
	PoolSlot0       Pool = "slot0"   // one-shot precision probes
	PoolOpinion     Pool = "opinion" // the mandatory free-text check-in
	PoolClarify     Pool = "clarify" // asked when the photo read failed
)

// Choice is a selectable option, optionally mapped to signals
type Choice struct {
	Label   string   `json:"label" yaml:"label"`
	Signals []Signal `json:"signals,omitempty" yaml:"signals,omitempty"`
}

// Question is static configuration; never created at runtime
type Question struct {
	ID          string       `json:"id" yaml:"id"`
	Pool        Pool         `json:"pool" yaml:"pool"`
	Kind        QuestionKind `json:"kind" yaml:"kind"`
	Text        string       `json:"text" yaml:"text"`
	Placeholder string       `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Probe       Hint         `json:"probe,omitempty" yaml:"probe,omitempty"` // slot0 only
	Choices     []Choice     `json:"choices,omitempty" yaml:"choices,omitempty"`
}

// IsFreeText reports whether the question takes unconstrained text
func (q *Question) IsFreeText() bool {
	return q.Kind == QuestionKindFreeText
}

// ChoiceLabels returns the labels shown to the farmer
func (q *Question) ChoiceLabels() []string {
	labels := make([]string, 0, len(q.Choices))
	for _, c := range q.Choices {
		labels = append(labels, c.Label)
	}
	return labels
}

// View converts the question into its wire shape
func (q *Question) View() QuestionView {
	return QuestionView{
		ID:          q.ID,
		Text:        q.Text,
		Choices:     q.ChoiceLabels(),
		FreeText:    q.IsFreeText(),
		Multi:       q.Kind == QuestionKindMulti,
		Placeholder: q.Placeholder,
	}
}

// QuestionView is what the presentation layer receives
type QuestionView struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	Choices     []string `json:"choices"`
	FreeText    bool     `json:"free_text,omitempty"`
	Multi       bool     `json:"multi,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
}
