package collector

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/moltpulse/moltpulse/internal/domain"
	"github.com/moltpulse/moltpulse/internal/httpx"
	"github.com/moltpulse/moltpulse/internal/model"
)

const alphaVantageBaseURL = "https://www.alphavantage.co/query"

// AlphaVantage collects stock quotes for every tracked entity that
// carries a ticker symbol.
type AlphaVantage struct {
	cfg    *model.Config
	client *httpx.Client
}

func NewAlphaVantage(cfg *model.Config, client *httpx.Client) *AlphaVantage {
	return &AlphaVantage{cfg: cfg, client: client}
}

func (a *AlphaVantage) Type() model.Category   { return model.CategoryFinancial }
func (a *AlphaVantage) Name() string           { return "Alpha Vantage" }
func (a *AlphaVantage) RequiredKeys() []string { return []string{"ALPHA_VANTAGE_API_KEY"} }
func (a *AlphaVantage) RequiresAnyKey() bool   { return false }

func (a *AlphaVantage) IsAvailable(cfg *model.Config) bool {
	return KeysSatisfied(cfg, a.RequiredKeys(), false)
}

type trackedSymbol struct {
	symbol string
	name   string
}

// trackedSymbols walks every entity type in deterministic order and
// returns the tickers of the focused entities.
func trackedSymbols(profile *domain.Profile) []trackedSymbol {
	types := make([]string, 0, len(profile.Domain.EntityTypes))
	for t := range profile.Domain.EntityTypes {
		types = append(types, t)
	}
	sort.Strings(types)

	var tracked []trackedSymbol
	seen := make(map[string]bool)
	for _, t := range types {
		for _, e := range profile.FocusedEntities(t) {
			if e.Symbol == "" || seen[e.Symbol] {
				continue
			}
			seen[e.Symbol] = true
			tracked = append(tracked, trackedSymbol{symbol: e.Symbol, name: e.Name})
		}
	}
	return tracked
}

func (a *AlphaVantage) Collect(ctx context.Context, profile *domain.Profile, fromDate, toDate string, depth Depth) *Result {
	apiKey := a.cfg.Key("ALPHA_VANTAGE_API_KEY")
	tracked := trackedSymbols(profile)
	if len(tracked) == 0 {
		return Fail("no symbols to track in profile")
	}

	maxSymbols := ConfigForDepth(depth).MaxItems
	if len(tracked) > maxSymbols {
		tracked = tracked[:maxSymbols]
	}

	res := &Result{}
	var errs []string
	for _, t := range tracked {
		item, err := a.fetchQuote(ctx, apiKey, t.symbol, t.name)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", t.symbol, err))
			continue
		}
		if item == nil {
			continue
		}
		res.Items = append(res.Items, item)
		res.Sources = append(res.Sources, model.Source{Name: "Alpha Vantage", URL: item.URL})
	}

	// Partial success keeps the items; a total failure reports why.
	if len(res.Items) == 0 && len(errs) > 0 {
		res.Err = strings.Join(errs, "; ")
	}
	return res
}

type globalQuoteResponse struct {
	GlobalQuote map[string]string `json:"Global Quote"`
}

func (a *AlphaVantage) fetchQuote(ctx context.Context, apiKey, symbol, entityName string) (*model.FinancialItem, error) {
	u := fmt.Sprintf("%s?function=GLOBAL_QUOTE&symbol=%s&apikey=%s", alphaVantageBaseURL, symbol, apiKey)

	var resp globalQuoteResponse
	if err := a.client.GetJSON(ctx, u, nil, &resp); err != nil {
		return nil, err
	}

	// Alpha Vantage prefixes quote fields with ordinals.
	q := resp.GlobalQuote
	price := q["05. price"]
	if price == "" {
		return nil, nil
	}

	value, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return nil, fmt.Errorf("bad price %q: %w", price, err)
	}

	var changePct *float64
	if raw := strings.TrimSuffix(q["10. change percent"], "%"); raw != "" {
		if pct, err := strconv.ParseFloat(raw, 64); err == nil {
			changePct = &pct
		}
	}

	latestDay := q["07. latest trading day"]
	citeURL := fmt.Sprintf("%s?function=GLOBAL_QUOTE&symbol=%s", alphaVantageBaseURL, symbol)

	return &model.FinancialItem{
		ID:         itemID(symbol + ":" + latestDay),
		EntityName: entityName,
		Symbol:     symbol,
		MetricType: "stock_price",
		Value:      value,
		ChangePct:  changePct,
		URL:        citeURL,
		Provider:   "Alpha Vantage",
		Date:       latestDay,
		Confidence: model.ConfidenceHigh,
		Relevance:  0.8,
	}, nil
}
