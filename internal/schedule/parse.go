package schedule

import (
	"fmt"
	"regexp"
	"strings"
)

// Vocabulary holds the literal phrases the upstream markup uses. Matching is
// case- and literal-sensitive; any drift in the published wording shows up
// as Result.Found == false rather than as a parse error.
type Vocabulary struct {
	Name          string
	GroupWord     string // "Group" in "Group 4.1. ..."
	PowerOnPhrase string // run text meaning no outages at all
	From, To      string // "from HH:MM to HH:MM"
	DateWord      string // precedes the document date, "for dd.mm.yyyy"
	UpdatedWord   string // precedes the update stamp, "as of HH:MM dd.mm.yyyy"
}

var (
	English = Vocabulary{
		Name:          "en",
		GroupWord:     "Group",
		PowerOnPhrase: "Electricity is available",
		From:          "from",
		To:            "to",
		DateWord:      "for",
		UpdatedWord:   "as of",
	}
	Ukrainian = Vocabulary{
		Name:          "uk",
		GroupWord:     "Група",
		PowerOnPhrase: "Електроенергія є",
		From:          "з",
		To:            "до",
		DateWord:      "на",
		UpdatedWord:   "станом на",
	}
)

// VocabularyFor maps a locale name to its vocabulary.
func VocabularyFor(locale string) (Vocabulary, error) {
	switch strings.ToLower(strings.TrimSpace(locale)) {
	case "", "en":
		return English, nil
	case "uk", "ua":
		return Ukrainian, nil
	default:
		return Vocabulary{}, fmt.Errorf("unknown schedule locale %q", locale)
	}
}

// Result is the outcome of parsing one group out of a document.
type Result struct {
	Intervals      []Interval
	PowerAvailable bool
	// Found is false when the group marker was not located at all. The
	// result then fails open (no outages, power available) and Note says why.
	Found     bool
	Note      string
	GroupText string
	// Dropped counts "from .. to .." occurrences rejected as malformed.
	Dropped int
}

// Parser extracts per-group outage intervals from raw schedule markup.
type Parser struct {
	vocab      Vocabulary
	intervalRe *regexp.Regexp
	dateRe     *regexp.Regexp
	updatedRe  *regexp.Regexp
}

func NewParser(v Vocabulary) *Parser {
	return &Parser{
		vocab: v,
		intervalRe: regexp.MustCompile(regexp.QuoteMeta(v.From) + ` (\d{2}:\d{2}) ` +
			regexp.QuoteMeta(v.To) + ` (\d{2}:\d{2})`),
		dateRe:    regexp.MustCompile(regexp.QuoteMeta(v.DateWord) + ` (\d{2}\.\d{2}\.\d{4})`),
		updatedRe: regexp.MustCompile(regexp.QuoteMeta(v.UpdatedWord) + ` (\d{2}:\d{2} \d{2}\.\d{2}\.\d{4})`),
	}
}

// Vocabulary returns the phrases this parser matches against.
func (p *Parser) Vocabulary() Vocabulary { return p.vocab }

var defaultParser = NewParser(English)

// Parse extracts group's intervals using the English vocabulary.
func Parse(rawMarkup string, group GroupCode) Result {
	return defaultParser.Parse(rawMarkup, group)
}

var markupReplacer = strings.NewReplacer(
	`\u003C`, "<",
	`\u003c`, "<",
	`\u003E`, ">",
	`\u003e`, ">",
	`\/`, "/",
	`\n`, "\n",
)

// NormalizeMarkup undoes the JSON-style escapes the upstream leaves in its
// HTML payload.
func NormalizeMarkup(raw string) string {
	return markupReplacer.Replace(raw)
}

// Parse locates the first "<GroupWord> <dotted>." text run and collects every
// "from HH:MM to HH:MM" occurrence in it, in document order.
func (p *Parser) Parse(rawMarkup string, group GroupCode) Result {
	if rawMarkup == "" || group == "" {
		return Result{PowerAvailable: true, Note: "no schedule data"}
	}
	decoded := NormalizeMarkup(rawMarkup)
	dotted := group.Dotted()

	marker := p.vocab.GroupWord + " " + dotted + "."
	runRe, err := regexp.Compile(regexp.QuoteMeta(marker) + `[^<]*`)
	if err != nil {
		return Result{PowerAvailable: true, Note: fmt.Sprintf("%s %s: bad group pattern", p.vocab.GroupWord, dotted)}
	}
	run := firstRun(decoded, runRe, len(marker))
	if run == "" {
		return Result{
			PowerAvailable: true,
			Note:           fmt.Sprintf("%s %s: no data found", p.vocab.GroupWord, dotted),
		}
	}

	res := Result{Found: true, GroupText: strings.TrimSpace(run)}
	if strings.Contains(run, p.vocab.PowerOnPhrase) {
		res.PowerAvailable = true
		return res
	}

	for _, m := range p.intervalRe.FindAllStringSubmatch(run, -1) {
		start, err1 := ParseTimeOfDay(m[1])
		end, err2 := ParseTimeOfDay(m[2])
		iv := Interval{Start: start, End: end}
		if err1 != nil || err2 != nil || !iv.Valid() {
			res.Dropped++
			continue
		}
		res.Intervals = append(res.Intervals, iv)
	}
	res.PowerAvailable = len(res.Intervals) == 0
	return res
}

// firstRun returns the first match of runRe whose marker is not followed by
// a digit, so "Group 4." never claims the "Group 4.1." run.
func firstRun(decoded string, runRe *regexp.Regexp, markerLen int) string {
	for _, idx := range runRe.FindAllStringIndex(decoded, -1) {
		next := idx[0] + markerLen
		if next < len(decoded) && decoded[next] >= '0' && decoded[next] <= '9' {
			continue
		}
		return decoded[idx[0]:idx[1]]
	}
	return ""
}

// ExtractDate returns the "dd.mm.yyyy" date label printed in the markup, or "".
func (p *Parser) ExtractDate(rawMarkup string) string {
	if rawMarkup == "" {
		return ""
	}
	decoded := NormalizeMarkup(rawMarkup)
	// The update stamp also carries a date; blank it out so it cannot match first.
	decoded = p.updatedRe.ReplaceAllString(decoded, "")
	if m := p.dateRe.FindStringSubmatch(decoded); m != nil {
		return m[1]
	}
	return ""
}

// ExtractUpdatedAt returns the "HH:MM dd.mm.yyyy" update stamp, or "".
func (p *Parser) ExtractUpdatedAt(rawMarkup string) string {
	if rawMarkup == "" {
		return ""
	}
	if m := p.updatedRe.FindStringSubmatch(NormalizeMarkup(rawMarkup)); m != nil {
		return m[1]
	}
	return ""
}
