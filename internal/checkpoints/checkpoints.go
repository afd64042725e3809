package checkpoints

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// catalog maps released checkpoint aliases to canonical identifiers.
// It is fixed at build time and never modified at runtime.
var catalog = map[string]string{
	"bart-xsum":         "facebook/bart-large-xsum",
	"bart-cnndm":        "facebook/bart-large-cnn",
	"pegasus-xsum":      "google/pegasus-xsum",
	"pegasus-cnndm":     "google/pegasus-cnn_dailymail",
	"pegasus-newsroom":  "google/pegasus-newsroom",
	"pegasus-multinews": "google/pegasus-multi_news",
}

// Selection is the resolved model choice: the identifier handed to the
// inference engine and the label used to name the predictions file.
type Selection struct {
	ModelID string
	Label   string
}

// Select resolves exactly one of alias or nameOrPath into a Selection.
func Select(alias, nameOrPath string) (Selection, error) {
	alias = strings.TrimSpace(alias)
	nameOrPath = strings.TrimSpace(nameOrPath)

	switch {
	case alias == "" && nameOrPath == "":
		return Selection{}, errors.New("model is required")
	case alias != "" && nameOrPath != "":
		return Selection{}, errors.New("specify model or model_name_or_path but not both")
	case alias != "":
		modelID, ok := catalog[alias]
		if !ok {
			return Selection{}, fmt.Errorf("unknown model alias %q (known: %s)", alias, strings.Join(Aliases(), ", "))
		}

		return Selection{ModelID: modelID, Label: alias}, nil
	default:
		return Selection{
			ModelID: nameOrPath,
			Label:   strings.ReplaceAll(nameOrPath, "/", "-"),
		}, nil
	}
}

// Aliases returns the known aliases in sorted order.
func Aliases() []string {
	return slices.Sorted(maps.Keys(catalog))
}
