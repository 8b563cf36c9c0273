package catalog

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// ModelID identifies a voice model on the inference service.
type ModelID string

const (
	Kanye          ModelID = "kanye"
	JuiceWrld      ModelID = "juiceWrld"
	Doom           ModelID = "doom"
	Biggie         ModelID = "biggie"
	McCartney      ModelID = "mccartney"
	Drake          ModelID = "drake"
	Weeknd         ModelID = "weeknd"
	Rihanna        ModelID = "rihanna"
	MichaelJackson ModelID = "michaelJackson"
	FreddyMercury  ModelID = "freddyMercury"
	Ariana         ModelID = "ariana"
)

type Model struct {
	DisplayName   string
	Creator       string
	TrainingSteps string
	ID            ModelID
}

// models is kept in presentation order.
var models = []Model{
	{DisplayName: "Kanye", Creator: "Pyeon Yeongsun", TrainingSteps: "200k", ID: Kanye},
	{DisplayName: "Drake", Creator: "Snoop Dogg", TrainingSteps: "106k", ID: Drake},
	{DisplayName: "Juice Wrld", Creator: "ryyyy", TrainingSteps: "160k", ID: JuiceWrld},
	{DisplayName: "Rihanna", Creator: "Seif and Provindo", TrainingSteps: "98k", ID: Rihanna},
	{DisplayName: "DOOM", Creator: "Mellon", TrainingSteps: "45k", ID: Doom},
	{DisplayName: "Biggie", Creator: "justinjohn-03", TrainingSteps: "112k", ID: Biggie},
	{DisplayName: "Paul McCartney", Creator: "Albinator", TrainingSteps: "208k", ID: McCartney},
	{DisplayName: "Weeknd", Creator: "Maki Ligon", TrainingSteps: "94k", ID: Weeknd},
	{DisplayName: "Michael Jackson", Creator: "clubbedsam", TrainingSteps: "83k", ID: MichaelJackson},
	{DisplayName: "Freddy Mercury", Creator: "jev217", TrainingSteps: "125k", ID: FreddyMercury},
	{DisplayName: "Ariana Grande", Creator: "unnamed", TrainingSteps: "53k", ID: Ariana},
}

// Models returns a copy of the catalog in presentation order.
func Models() []Model {
	out := make([]Model, len(models))
	copy(out, models)
	return out
}

func IDs() []ModelID {
	return lo.Map(models, func(m Model, _ int) ModelID { return m.ID })
}

func Lookup(id ModelID) (Model, bool) {
	return lo.Find(models, func(m Model) bool { return m.ID == id })
}

// Resolve matches ref against model IDs and display names, ignoring case
// and surrounding whitespace.
func Resolve(ref string) (Model, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return Model{}, fmt.Errorf("artist is required (known artists: %s)", knownIDs())
	}

	model, ok := lo.Find(models, func(m Model) bool {
		return strings.EqualFold(string(m.ID), trimmed) || strings.EqualFold(m.DisplayName, trimmed)
	})
	if !ok {
		return Model{}, fmt.Errorf("unknown artist %q (known artists: %s)", ref, knownIDs())
	}
	return model, nil
}

func knownIDs() string {
	return strings.Join(lo.Map(models, func(m Model, _ int) string { return string(m.ID) }), ", ")
}
