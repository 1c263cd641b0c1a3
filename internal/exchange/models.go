package exchange

import (
	"encoding/json"
	"time"
)

// Currency codes used by the TRMI provider.
const (
	CodeUSD = "USD"
	CodeEUR = "ECU"
	CodeMLC = "MLC"
)

// TRMIPayload is the typed view of an El Toque response.
// Rates for codes other than USD/ECU/MLC are kept in Tasas untouched.
type TRMIPayload struct {
	Tasas   map[string]float64 `json:"tasas"`
	Date    string             `json:"date"`
	Hour    int                `json:"hour"`
	Minutes int                `json:"minutes"`
	Seconds int                `json:"seconds"`
}

// Quote is the flat, normalized view of one TRMI fetch.
// Raw is the provider body byte for byte, unknown fields included.
type Quote struct {
	USD     float64         `json:"usd"`
	EUR     float64         `json:"eur"`
	MLC     float64         `json:"mlc"`
	Date    string          `json:"date"`
	Time    string          `json:"time"`
	Raw     json.RawMessage `json:"raw"`
	Payload TRMIPayload     `json:"-"`
}

// Coordinates are map positions expressed as percentages (0-100) of the map viewBox.
type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ProvinceRate is the estimated USD rate for a single province.
type ProvinceRate struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	USDRate     float64     `json:"usdRate"`
	Variance    float64     `json:"variance"` // signed percentage against the national rate
	Coordinates Coordinates `json:"coordinates"`
}

// ProvinceData is the per-province breakdown for one national rate.
type ProvinceData struct {
	Provinces    []ProvinceRate `json:"provinces"`
	NationalRate float64        `json:"nationalRate"`
	LastUpdated  time.Time      `json:"lastUpdated"` // always UTC
}

// Summary is everything the landing page needs in one payload.
type Summary struct {
	Quote     Quote        `json:"quote"`
	Provinces ProvinceData `json:"provinces"`
}
