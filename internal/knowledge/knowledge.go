package knowledge

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"text/template"

	"gopkg.in/yaml.v3"

	"photodoctor/internal/model"
)

//go:embed data
var embedded embed.FS

// Prompt template names
const (
	PromptVisionSystem = "vision_system.tmpl"
	PromptVisionUser   = "vision_user.tmpl"
)

var promptNames = []string{PromptVisionSystem, PromptVisionUser}

// KeywordFamily maps a set of free-text terms to a hint and its signals
type KeywordFamily struct {
	Hint    model.Hint     `yaml:"hint"`
	Signals []model.Signal `yaml:"signals"`
	Terms   []string       `yaml:"terms"`
}

// Policy holds the decision rules that guard every final result
type Policy struct {
	NeverConfirm               []string   `yaml:"never_confirm"`
	ForceDialogue              []string   `yaml:"force_dialogue"`
	NeverConfirmMaxProbability int        `yaml:"never_confirm_max_probability"`
	ExtendedMinQuestions       int        `yaml:"extended_min_questions"`
	MaxQuestions               int        `yaml:"max_questions"`
	Need119Probability         int        `yaml:"need_119_probability"`
	CropRules                  []CropRule `yaml:"crop_rules"`
}

// CropRule is an extra check for one crop. Either Signs or Block is set.
type CropRule struct {
	Crop      string                     `yaml:"crop"`
	Disease   string                     `yaml:"disease"`
	Signs     []CropSign                 `yaml:"signs,omitempty"`
	MidSigns  int                        `yaml:"mid_signs,omitempty"`
	HighSigns int                        `yaml:"high_signs,omitempty"`
	Block     []string                   `yaml:"block,omitempty"`
	Messages  map[model.RiskLevel]string `yaml:"messages"`
}

// CropSign is one named symptom and the terms that report it
type CropSign struct {
	Name  string   `yaml:"name"`
	Terms []string `yaml:"terms"`
}

// WhyRule picks a justification when its signal is active.
// A rule without a signal is the category default.
type WhyRule struct {
	When model.Signal `yaml:"when,omitempty"`
	Text string       `yaml:"text"`
}

// CategoryGuidance is the fixed advice attached to a category
type CategoryGuidance struct {
	Name            string    `yaml:"name"`
	Why             []WhyRule `yaml:"why"`
	MustCheck       []string  `yaml:"must_check"`
	DoNot           []string  `yaml:"do_not"`
	NextSteps       []string  `yaml:"next_steps"`
	Need119If       []string  `yaml:"need_119_if"`
	FollowupMessage string    `yaml:"followup_message,omitempty"`
}

// GenericGuidance is used when no category carries weight
type GenericGuidance struct {
	Name      string   `yaml:"name"`
	Why       string   `yaml:"why"`
	MustCheck []string `yaml:"must_check"`
	DoNot     []string `yaml:"do_not"`
	NextSteps []string `yaml:"next_steps"`
	Need119If []string `yaml:"need_119_if"`
}

// Label is a name and justification pair
type Label struct {
	Name string `yaml:"name"`
	Why  string `yaml:"why"`
}

// Strength wording for product reasons
type Strength struct {
	Strong string `yaml:"strong"`
	Some   string `yaml:"some"`
	Early  string `yaml:"early"`
}

// Guidance holds every fixed text of a final response
type Guidance struct {
	FollowupMessage string                              `yaml:"followup_message"`
	Categories      map[model.Category]CategoryGuidance `yaml:"categories"`
	Generic         GenericGuidance                     `yaml:"generic"`
	Unconfirmable   Label                               `yaml:"unconfirmable"`
	ProductReasons  map[string]string                   `yaml:"product_reasons"`
	Strength        Strength                            `yaml:"strength"`
}

// Bundle is the versioned static knowledge the engine runs on.
// It is immutable after Load and safe to share across goroutines.
type Bundle struct {
	Questions     []model.Question
	Pools         map[model.Category]model.Pool
	FallbackOrder []model.Pool
	Keywords      []KeywordFamily
	Catalog       []model.Product
	Policy        Policy
	Guidance      Guidance

	prompts map[string]*template.Template
	byID    map[string]*model.Question
	byPool  map[model.Pool][]*model.Question
	byProbe map[model.Hint]*model.Question
}

type questionsFile struct {
	Version       int                           `yaml:"version"`
	Pools         map[model.Category]model.Pool `yaml:"pools"`
	FallbackOrder []model.Pool                  `yaml:"fallback_order"`
	Questions     []model.Question              `yaml:"questions"`
}

type keywordsFile struct {
	Version  int             `yaml:"version"`
	Families []KeywordFamily `yaml:"families"`
}

type catalogFile struct {
	Version  int             `yaml:"version"`
	Products []model.Product `yaml:"products"`
}

// Embedded returns the knowledge files compiled into the binary
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		panic(err)
	}
	return sub
}

// Load reads the bundle. Files present in dir replace the embedded ones;
// an empty dir means embedded data only.
func Load(dir string) (*Bundle, error) {
	var override fs.FS
	if dir != "" {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("knowledge dir: %w", err)
		}
		override = os.DirFS(dir)
	}
	return LoadFS(Embedded(), override)
}

// MustDefault loads the embedded bundle and panics if it is invalid
func MustDefault() *Bundle {
	b, err := LoadFS(Embedded(), nil)
	if err != nil {
		panic(err)
	}
	return b
}

// LoadFS reads the bundle from base, preferring files found in override
func LoadFS(base, override fs.FS) (*Bundle, error) {
	read := func(name string) ([]byte, error) {
		if override != nil {
			data, err := fs.ReadFile(override, name)
			if err == nil {
				return data, nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read %s: %w", name, err)
			}
		}
		data, err := fs.ReadFile(base, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	decode := func(name string, out any) error {
		data, err := read(name)
		if err != nil {
			return err
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(out); err != nil {
			return fmt.Errorf("decode %s: %w", name, err)
		}
		return nil
	}

	var qf questionsFile
	if err := decode("questions.yaml", &qf); err != nil {
		return nil, err
	}
	var kf keywordsFile
	if err := decode("keywords.yaml", &kf); err != nil {
		return nil, err
	}
	var cf catalogFile
	if err := decode("catalog.yaml", &cf); err != nil {
		return nil, err
	}
	var policy struct {
		Version int `yaml:"version"`
		Policy  `yaml:",inline"`
	}
	if err := decode("policy.yaml", &policy); err != nil {
		return nil, err
	}
	var guidance struct {
		Version  int `yaml:"version"`
		Guidance `yaml:",inline"`
	}
	if err := decode("guidance.yaml", &guidance); err != nil {
		return nil, err
	}

	prompts := make(map[string]*template.Template, len(promptNames))
	for _, name := range promptNames {
		data, err := read(path.Join("prompts", name))
		if err != nil {
			return nil, err
		}
		tmpl, err := template.New(name).Option("missingkey=error").Parse(string(data))
		if err != nil {
			return nil, fmt.Errorf("parse prompt %s: %w", name, err)
		}
		prompts[name] = tmpl
	}

	b := &Bundle{
		Questions:     qf.Questions,
		Pools:         qf.Pools,
		FallbackOrder: qf.FallbackOrder,
		Keywords:      kf.Families,
		Catalog:       cf.Products,
		Policy:        policy.Policy,
		Guidance:      guidance.Guidance,
		prompts:       prompts,
	}
	b.index()

	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("invalid knowledge bundle: %w", err)
	}
	return b, nil
}

func (b *Bundle) index() {
	b.byID = make(map[string]*model.Question, len(b.Questions))
	b.byPool = make(map[model.Pool][]*model.Question)
	b.byProbe = make(map[model.Hint]*model.Question)
	for i := range b.Questions {
		q := &b.Questions[i]
		if _, dup := b.byID[q.ID]; !dup {
			b.byID[q.ID] = q
		}
		b.byPool[q.Pool] = append(b.byPool[q.Pool], q)
		if q.Probe != "" {
			if _, dup := b.byProbe[q.Probe]; !dup {
				b.byProbe[q.Probe] = q
			}
		}
	}
}

// WithCatalog returns a copy of the bundle using products as the catalog
func (b *Bundle) WithCatalog(products []model.Product) (*Bundle, error) {
	if err := validateCatalog(products); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	clone := *b
	clone.Catalog = append([]model.Product(nil), products...)
	return &clone, nil
}

// Question looks up a question by id
func (b *Bundle) Question(id string) (*model.Question, bool) {
	q, ok := b.byID[id]
	return q, ok
}

// PoolQuestions returns the questions of a pool in declared order
func (b *Bundle) PoolQuestions(pool model.Pool) []*model.Question {
	return b.byPool[pool]
}

// PoolFor returns the pool that serves a category
func (b *Bundle) PoolFor(c model.Category) model.Pool {
	return b.Pools[c]
}

// Probe returns the slot-0 question for a hint, or nil
func (b *Bundle) Probe(h model.Hint) *model.Question {
	return b.byProbe[h]
}

// Opinion returns the mandatory free-text question
func (b *Bundle) Opinion() *model.Question {
	if qs := b.byPool[model.PoolOpinion]; len(qs) > 0 {
		return qs[0]
	}
	return nil
}

// Clarify returns the crop clarification question
func (b *Bundle) Clarify() *model.Question {
	if qs := b.byPool[model.PoolClarify]; len(qs) > 0 {
		return qs[0]
	}
	return nil
}

// RenderPrompt executes a prompt template
func (b *Bundle) RenderPrompt(name string, data any) (string, error) {
	tmpl, ok := b.prompts[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return buf.String(), nil
}
