package domain

import (
	"time"
)

// millisLayout is ISO-8601 UTC with millisecond precision.
const millisLayout = "2006-01-02T15:04:05.000Z"

// Timestamp serializes as ISO-8601 UTC with millisecond precision.
type Timestamp struct {
	time.Time
}

// Now returns the current instant as a Timestamp.
func Now() Timestamp {
	return Timestamp{time.Now().UTC()}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format(millisLayout) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	t.Time = parsed.UTC()
	return nil
}

// Listing is one element of the symbol universe as returned by the
// provider. Immutable after decoding.
type Listing struct {
	Currency      string `json:"currency"`
	Description   string `json:"description"`
	DisplaySymbol string `json:"displaySymbol"`
	Figi          string `json:"figi"`
	Mic           string `json:"mic"`
	Symbol        string `json:"symbol"`
	Type          string `json:"type"`
}

// Profile is the company profile for a single symbol. Every field may
// be absent; the provider returns {} for illiquid or unknown symbols.
type Profile struct {
	Country              string   `json:"country"`
	Currency             string   `json:"currency"`
	Exchange             string   `json:"exchange"`
	IPO                  string   `json:"ipo"`
	MarketCapitalization *float64 `json:"marketCapitalization"`
	Name                 string   `json:"name"`
	Phone                string   `json:"phone"`
	ShareOutstanding     *float64 `json:"shareOutstanding"`
	Ticker               string   `json:"ticker"`
	WebURL               string   `json:"weburl"`
	Logo                 string   `json:"logo"`
	Industry             string   `json:"finnhubIndustry"`
}

// Empty reports whether the profile carries no data at all, which is
// how the provider answers for symbols it has no coverage for.
func (p Profile) Empty() bool {
	return p == Profile{}
}

// Stock is the enriched record held by a cell. Symbol is always the
// cell's canonical key; LastUpdated is non-decreasing across writes.
type Stock struct {
	Symbol               string    `json:"symbol"`
	Name                 string    `json:"name"`
	Exchange             string    `json:"exchange"`
	AssetType            string    `json:"assetType"`
	IPODate              string    `json:"ipoDate"`
	Country              string    `json:"country"`
	Currency             string    `json:"currency"`
	IPO                  string    `json:"ipo"`
	MarketCapitalization *float64  `json:"marketCapitalization"`
	Phone                string    `json:"phone"`
	ShareOutstanding     *float64  `json:"shareOutstanding"`
	Ticker               string    `json:"ticker"`
	WebURL               string    `json:"weburl"`
	Logo                 string    `json:"logo"`
	Industry             string    `json:"finnhubIndustry"`
	LastUpdated          Timestamp `json:"lastUpdated"`
}

// Combine assembles the enriched record from a listing and a profile.
// Pure function: no I/O beyond reading the clock. An empty profile
// yields best-effort fields from the listing only.
func Combine(listing Listing, profile Profile) Stock {
	stock := Stock{
		Symbol:               Canonicalize(listing.Symbol),
		Name:                 profile.Name,
		Exchange:             profile.Exchange,
		AssetType:            listing.Type,
		Country:              profile.Country,
		Currency:             profile.Currency,
		IPO:                  profile.IPO,
		MarketCapitalization: profile.MarketCapitalization,
		Phone:                profile.Phone,
		ShareOutstanding:     profile.ShareOutstanding,
		Ticker:               profile.Ticker,
		WebURL:               profile.WebURL,
		Logo:                 profile.Logo,
		Industry:             profile.Industry,
		LastUpdated:          Now(),
	}
	if stock.Name == "" {
		stock.Name = listing.Description
	}
	if stock.Currency == "" {
		stock.Currency = listing.Currency
	}
	if stock.Ticker == "" {
		stock.Ticker = stock.Symbol
	}
	return stock
}

// MinimumViable synthesizes the availability-tradeoff Stock an
// uninitialized cell answers reads with: symbol and timestamp only.
func MinimumViable(symbol string) Stock {
	return Stock{
		Symbol:      Canonicalize(symbol),
		LastUpdated: Now(),
	}
}
