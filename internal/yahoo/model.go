package yahoo

import "time"

// Response represents the raw JSON response structure from the Yahoo Finance chart API.
//
// The structure includes:
//   - Chart.Result: Array of result objects (typically contains one element)
//   - Chart.Result[].Meta: Symbol metadata and the latest market price
//   - Chart.Result[].Timestamp: Unix timestamps for each data point
//   - Chart.Result[].Indicators: Close prices; entries are null on days without a trade
//   - Chart.Result[].Events: Dividend events, present when requested with events=div
//   - Chart.Error: Error object from the Yahoo API
type Response struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string   `json:"currency"`
				Symbol             string   `json:"symbol"`
				ExchangeName       string   `json:"exchangeName"`
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
			Events struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
			} `json:"events"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// PriceChart is a parsed chart: symbol metadata plus the daily closes that
// actually traded, in ascending date order.
type PriceChart struct {
	Currency     string
	Symbol       string
	ExchangeName string
	MarketPrice  *float64
	Closes       []Close
	Dividends    []Dividend
}

// Close is a single day's closing price.
type Close struct {
	Date  time.Time
	Price float64
}

// Dividend is a dividend paid per share on Date.
type Dividend struct {
	Date   time.Time
	Amount float64
}
