package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/cornwall-collections/internal/collection"
	"github.com/pfrederiksen/cornwall-collections/internal/logger"
)

const (
	UPRNSearchURL       = "https://www.cornwall.gov.uk/my-area/"
	CollectionSearchURL = "https://www.cornwall.gov.uk/umbraco/Surface/Waste/MyCollectionDays?subscribe=False"
	UserAgent           = "Cornwall-Waste-Calendar-Generator/1.0"
	Timeout             = 10 * time.Second
)

// ErrNoProperty is returned when neither a UPRN nor a postcode is given
var ErrNoProperty = errors.New("either UPRN or POSTCODE must be provided")

// ErrBlankUPRN is returned when the matching address carries no UPRN
var ErrBlankUPRN = errors.New("matching address has no UPRN")

// Property identifies the address to fetch collections for. UPRN wins when set.
type Property struct {
	UPRN              string
	Postcode          string
	HouseNumberOrName string
}

// Scraper handles fetching and parsing Cornwall Council collection days
type Scraper struct {
	client         *http.Client
	uprnURL        string
	collectionsURL string
	now            func() time.Time
}

// New creates a new Scraper instance
func New() *Scraper {
	return &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		uprnURL:        UPRNSearchURL,
		collectionsURL: CollectionSearchURL,
		now:            time.Now,
	}
}

// Fetch resolves the property's UPRN if needed and returns its collections,
// deduplicated and sorted by date
func (s *Scraper) Fetch(ctx context.Context, p Property) ([]*collection.Collection, error) {
	uprn := strings.TrimSpace(p.UPRN)
	if uprn == "" {
		if strings.TrimSpace(p.Postcode) == "" {
			return nil, ErrNoProperty
		}

		var err error
		uprn, err = s.LookupUPRN(ctx, p.Postcode, p.HouseNumberOrName)
		if err != nil {
			return nil, err
		}
	}

	return s.FetchCollections(ctx, uprn)
}

// LookupUPRN finds the UPRN of the first address at postcode whose text
// starts with house. An empty house matches the first address.
func (s *Scraper) LookupUPRN(ctx context.Context, postcode, house string) (string, error) {
	logger.Info("Looking up UPRN", logger.Fields{
		"postcode": postcode,
		"house":    house,
	})

	start := time.Now()
	body, err := s.get(ctx, s.uprnURL, url.Values{"Postcode": {postcode}})
	logger.RecordTiming("fetch.uprn_lookup", time.Since(start))
	if err != nil {
		return "", err
	}
	defer body.Close()

	uprn, err := parseUPRN(body, postcode, house)
	if err != nil {
		return "", err
	}

	logger.Info("Found UPRN", logger.Fields{"uprn": uprn})
	return uprn, nil
}

// FetchCollections fetches and parses the collection days for a UPRN
func (s *Scraper) FetchCollections(ctx context.Context, uprn string) ([]*collection.Collection, error) {
	logger.Info("Fetching collection dates", logger.Fields{"uprn": uprn})

	start := time.Now()
	body, err := s.get(ctx, s.collectionsURL, url.Values{"uprn": {uprn}})
	logger.RecordTiming("fetch.collections", time.Since(start))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	collections, err := parseCollections(body, s.now())
	if err != nil {
		return nil, err
	}

	logger.Info("Found collection entries", logger.Fields{"count": len(collections)})
	return collections, nil
}

// get issues a GET with params merged into rawURL's existing query
func (s *Scraper) get(ctx context.Context, rawURL string, params url.Values) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	logger.Debug("HTTP request", logger.Fields{"url": u.String()})

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &StatusError{URL: u.String(), StatusCode: resp.StatusCode}
	}

	return resp.Body, nil
}

// parseUPRN extracts the matching UPRN from the "my area" address select
func parseUPRN(r io.Reader, postcode, house string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	sel := doc.Find("#Uprn")
	if sel.Length() == 0 {
		return "", &ArgumentNotFoundError{Argument: "postcode", Value: postcode}
	}

	options := sel.First().Find("option")
	if options.Length() == 0 {
		return "", &ArgumentNotFoundError{Argument: "postcode", Value: postcode}
	}

	var (
		uprn    string
		address string
		found   bool
	)
	options.EachWithBreak(func(i int, opt *goquery.Selection) bool {
		text := strings.TrimSpace(opt.Text())
		if strings.HasPrefix(text, house) {
			uprn, _ = opt.Attr("value")
			uprn = strings.TrimSpace(uprn)
			address = text
			found = true
			return false
		}
		return true
	})
	if found {
		if uprn == "" {
			return "", fmt.Errorf("%w: %q", ErrBlankUPRN, address)
		}
		return uprn, nil
	}

	suggestions := make([]string, 0, options.Length())
	options.Each(func(i int, opt *goquery.Selection) {
		suggestions = append(suggestions, strings.TrimSpace(opt.Text()))
	})
	return "", &ArgumentNotFoundWithSuggestionsError{
		Argument:    "housenumberorname",
		Value:       house,
		Suggestions: suggestions,
	}
}

// parseCollections extracts collections from the collection days page.
// Each div.collection holds the shorthand type in its first span and the
// "DD Mon" date in its last span.
func parseCollections(r io.Reader, today time.Time) ([]*collection.Collection, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	collections := make([]*collection.Collection, 0)

	doc.Find("div.collection").Each(func(i int, div *goquery.Selection) {
		spans := div.Find("span")
		if spans.Length() == 0 {
			return
		}

		shortName := strings.TrimSpace(spans.First().Text())
		dateText := strings.TrimSpace(spans.Last().Text())

		date, err := collection.ParseCollectionDate(dateText, today)
		if err != nil {
			logger.Warn("Failed to parse collection date", logger.Fields{
				"date":       dateText,
				"collection": shortName,
				"reason":     err.Error(),
			})
			logger.IncrCounter("collections.skipped")
			return
		}

		collections = append(collections, collection.New(date, shortName))
		logger.IncrCounter("collections.parsed")
	})

	collections = collection.Dedupe(collections)
	collection.Sort(collections, collection.SortByDate)
	return collections, nil
}
