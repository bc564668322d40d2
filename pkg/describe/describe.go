// Package describe maps detector labels to spoken descriptions.
//
// The table is built once at startup and read-only afterwards; lookups are
// pure and synchronous.
package describe

import (
	"fmt"
	"strings"
)

// Table resolves detector labels to short spoken phrases.
type Table struct {
	phrases map[string]string
}

// phrases for the COCO labels the detector emits most often around a
// household user. Anything missing falls back to a generic article form.
var defaults = map[string]string{
	"person":       "a person",
	"bicycle":      "a bicycle",
	"car":          "a car",
	"motorcycle":   "a motorcycle",
	"bus":          "a bus",
	"truck":        "a truck",
	"traffic light": "a traffic light",
	"stop sign":    "a stop sign",
	"bench":        "a bench",
	"bird":         "a bird",
	"cat":          "a cat",
	"dog":          "a dog",
	"backpack":     "a backpack",
	"umbrella":     "an umbrella",
	"handbag":      "a handbag",
	"suitcase":     "a suitcase",
	"bottle":       "a bottle",
	"wine glass":   "a wine glass",
	"cup":          "a cup",
	"fork":         "a fork",
	"knife":        "a knife",
	"spoon":        "a spoon",
	"bowl":         "a bowl",
	"banana":       "a banana",
	"apple":        "an apple",
	"orange":       "an orange",
	"chair":        "a chair",
	"couch":        "a couch",
	"potted plant": "a potted plant",
	"bed":          "a bed",
	"dining table": "a dining table",
	"toilet":       "a toilet",
	"tv":           "a television",
	"laptop":       "a laptop",
	"mouse":        "a computer mouse",
	"remote":       "a remote control",
	"keyboard":     "a keyboard",
	"cell phone":   "a cell phone",
	"microwave":    "a microwave",
	"oven":         "an oven",
	"toaster":      "a toaster",
	"sink":         "a sink",
	"refrigerator": "a refrigerator",
	"book":         "a book",
	"clock":        "a clock",
	"vase":         "a vase",
	"scissors":     "a pair of scissors",
}

// New creates a table with the built-in phrases.
func New() *Table {
	return &Table{phrases: defaults}
}

// NewWithPhrases creates a table with the built-in phrases plus overrides.
func NewWithPhrases(overrides map[string]string) *Table {
	phrases := make(map[string]string, len(defaults)+len(overrides))
	for k, v := range defaults {
		phrases[k] = v
	}
	for k, v := range overrides {
		phrases[k] = v
	}
	return &Table{phrases: phrases}
}

// Describe returns the spoken phrase for a label, with a templated
// fallback for labels the table does not know.
func (t *Table) Describe(label string) string {
	if phrase, ok := t.phrases[label]; ok {
		return phrase
	}
	return fmt.Sprintf("a %s", label)
}

// Compose builds the announcement sentence for one or more labels.
// One label yields a single sentence; several yield one enumerated
// sentence so the speech channel gets exactly one utterance.
func (t *Table) Compose(labels []string) string {
	switch len(labels) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("I can see %s.", t.Describe(labels[0]))
	}

	phrases := make([]string, len(labels))
	for i, label := range labels {
		phrases[i] = t.Describe(label)
	}

	last := phrases[len(phrases)-1]
	rest := strings.Join(phrases[:len(phrases)-1], ", ")
	return fmt.Sprintf("I can see %s and %s.", rest, last)
}
