package oem

import (
	"fmt"
	"sort"
	"strings"
)

// transformers maps every accepted source identifier, synonyms included, to
// its transformer. The set is closed: new vendors are added here, not
// registered at runtime, so lookups are read-only and safe for concurrent
// use.
var transformers = map[string]Transformer{
	"huawei":       huaweiTransformer{},
	"enphase":      enphaseTransformer{},
	"solarman":     solarmanTransformer{},
	"switch":       switchTransformer{},
	"solaxcloud":   solaxTransformer{},
	"solax":        solaxTransformer{},
	"fimer":        fimerTransformer{},
	"auroravision": fimerTransformer{},
	"solaredge":    solarEdgeTransformer{},
	"fronius":      froniusTransformer{},
	"sma":          smaTransformer{},
	"solis":        solisTransformer{},
	"soliscloud":   solisTransformer{},
}

// canonicalSources is the primary identifier per vendor, synonyms excluded.
var canonicalSources = []string{
	"huawei",
	"enphase",
	"solarman",
	"switch",
	"solaxcloud",
	"fimer",
	"solaredge",
	"fronius",
	"sma",
	"solis",
}

// UnknownSourceError reports a source identifier outside the registry.
type UnknownSourceError struct {
	Source string
	Known  []string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown source %q, supported sources: %s",
		e.Source, strings.Join(e.Known, ", "))
}

// Lookup resolves a source identifier case-insensitively. Unknown
// identifiers yield an *UnknownSourceError carrying the full supported set;
// no fuzzy matching is attempted.
func Lookup(source string) (Transformer, error) {
	t, ok := transformers[strings.ToLower(source)]
	if !ok {
		return nil, &UnknownSourceError{Source: source, Known: Identifiers()}
	}
	return t, nil
}

// Identifiers returns every accepted source identifier, synonyms included,
// sorted.
func Identifiers() []string {
	ids := make([]string, 0, len(transformers))
	for id := range transformers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Sources returns the canonical identifier of every supported vendor, in
// registry order.
func Sources() []string {
	out := make([]string, len(canonicalSources))
	copy(out, canonicalSources)
	return out
}
