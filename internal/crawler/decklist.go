package crawler

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"

	"github.com/Mvlo566/POKETL/internal/metrics"
	"github.com/Mvlo566/POKETL/internal/model"
)

// DefaultCardURLPattern matches links to card detail pages.
const DefaultCardURLPattern = `pocket\.limitlesstcg\.com/cards/.*`

var defaultCardURL = regexp.MustCompile(DefaultCardURLPattern)

// DecklistParser extracts the cards of a decklist page.
type DecklistParser struct {
	cardURL *regexp.Regexp
	logger  *slog.Logger
	metrics *metrics.Collector
}

// DecklistOption configures a DecklistParser.
type DecklistOption func(*DecklistParser)

// WithCardURLPattern overrides which links count as cards.
func WithCardURLPattern(re *regexp.Regexp) DecklistOption {
	return func(p *DecklistParser) {
		p.cardURL = re
	}
}

// WithDecklistLogger sets the logger.
func WithDecklistLogger(logger *slog.Logger) DecklistOption {
	return func(p *DecklistParser) {
		p.logger = logger
	}
}

// WithDecklistMetrics sets the metrics collector.
func WithDecklistMetrics(c *metrics.Collector) DecklistOption {
	return func(p *DecklistParser) {
		p.metrics = c
	}
}

// NewDecklistParser creates a DecklistParser.
func NewDecklistParser(opts ...DecklistOption) *DecklistParser {
	p := &DecklistParser{
		cardURL: defaultCardURL,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseDecklist parses doc with the default card URL pattern.
func ParseDecklist(doc *goquery.Document) ([]model.DeckListItem, error) {
	return NewDecklistParser().Parse(doc)
}

// Parse returns the decklist items of doc in page order.
// A page without a decklist block yields an empty list.
//
// Each card link reads "<count><sep><name>": the count is the first
// character and the name starts at the third. Counts of ten or more are
// therefore misread; such entries are logged at debug level.
func (p *DecklistParser) Parse(doc *goquery.Document) ([]model.DeckListItem, error) {
	items := make([]model.DeckListItem, 0)

	block := doc.Find("div.decklist").First()
	if block.Length() == 0 {
		return items, nil
	}

	var parseErr error
	block.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := a.AttrOr("href", "")
		if !p.cardURL.MatchString(href) {
			return true
		}

		item, err := p.parseCard(a, href)
		if err != nil {
			parseErr = err
			return false
		}
		items = append(items, item)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	p.metrics.DecklistParsed(len(items))
	return items, nil
}

func (p *DecklistParser) parseCard(a *goquery.Selection, href string) (model.DeckListItem, error) {
	text := a.Text()

	first, size := utf8.DecodeRuneInString(text)
	if size == 0 || !unicode.IsDigit(first) || first > unicode.MaxASCII {
		return model.DeckListItem{}, fmt.Errorf("%w: %q", ErrBadCardCount, text)
	}
	count := int(first - '0')

	name := ""
	if runes := []rune(text); len(runes) > 2 {
		name = string(runes[2:])
	}
	if r, _ := utf8.DecodeRuneInString(name); unicode.IsDigit(r) || unicode.IsSpace(r) {
		p.logger.Debug("decklist entry may have a multi-digit count", "text", text, "href", href)
	}

	typ := cardType(a.Parent().Parent().Find("div.heading").First().Text())

	return model.NewDeckListItem(typ, href, name, count)
}

// cardType returns the category word of a decklist heading such as
// "Pokémon (8)".
func cardType(heading string) string {
	heading = norm.NFC.String(strings.TrimSpace(heading))
	typ, _, _ := strings.Cut(heading, " ")
	return typ
}
