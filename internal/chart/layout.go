// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chart

import "github.com/pdiddy/edinet-facts/pkg/types"

// Bar is one rectangle in data coordinates: x is the bar centre, y runs
// from Bottom to Bottom+Height in yen.
type Bar struct {
	Concept   string
	Label     string
	X         float64
	Width     float64
	Bottom    float64
	Height    float64
	Color     string
	TextColor string
	FontSize  float64
}

// Top returns the upper edge of the bar.
func (b Bar) Top() float64 { return b.Bottom + b.Height }

// Segment is a straight connector in data coordinates.
type Segment struct {
	X1, Y1, X2, Y2 float64
	Color          string
}

// Layout is everything drawn inside the plot area.
type Layout struct {
	Title string
	Bars  []Bar
	Lines []Segment
}

// colors by concept, without the IFRS prefix.
var colors = map[string]string{
	"Assets":                                "#1f77b4",
	"NonCurrentAssets":                      "#468cb3",
	"CurrentAssets":                         "#aec7e8",
	"NetAssets":                             "#2ca02c",
	"Liabilities":                           "#d62728",
	"NonCurrentLiabilities":                 "#b41028",
	"CurrentLiabilities":                    "#ff9896",
	"Interest-bearingNonCurrentLiabilities": "#9467bd",
	"Interest-bearingCurrentLiabilities":    "#c5b0d5",
	"Sales":                                 "#ff7f0e",
	"OperatingProfits":                      "#d874ea",
	"NetIncome":                             "#f63ad6",
}

const (
	connectorColor = "#751d1f"
	textLight      = "#ffffff"
	textDark       = "#000000"
)

// Plan lays out the balance sheet and income statement of rec. Concepts
// are read under the IFRS names when isIFRS is set. Facts that are unset
// or not integers are left out; a missing base is treated as zero.
func Plan(rec *types.CompanyRecord, isIFRS bool) Layout {
	prefix := ""
	if isIFRS {
		prefix = "IFRS"
	}
	get := func(name string) (types.FactValue, float64, bool) {
		f := rec.Fact(prefix + name)
		n, ok := f.Value.Int()
		return f, float64(n), ok
	}

	l := Layout{Title: rec.Fact(types.ConceptCompanyName).Value.String() + " 決算締日: " + rec.Fact(types.ConceptEndDate).Value.String()}
	add := func(name string, x, width, bottom float64, textColor string, size float64) (Bar, bool) {
		f, v, ok := get(name)
		if !ok {
			return Bar{}, false
		}
		b := Bar{
			Concept:   prefix + name,
			Label:     f.Name,
			X:         x,
			Width:     width,
			Bottom:    bottom,
			Height:    v,
			Color:     colors[name],
			TextColor: textColor,
			FontSize:  size,
		}
		l.Bars = append(l.Bars, b)
		return b, true
	}

	_, netAssets, _ := get("NetAssets")
	_, nonCurrentAssets, _ := get("NonCurrentAssets")
	_, nonCurrentLiabilities, _ := get("NonCurrentLiabilities")
	currentLiabilitiesBottom := nonCurrentLiabilities + netAssets

	// Debit side.
	add("Assets", 1, 1, 0, textLight, 12)
	add("NonCurrentAssets", 1.25, 0.5, 0, textDark, 10)
	add("CurrentAssets", 1.25, 0.5, nonCurrentAssets, textDark, 10)

	// Credit side.
	add("NetAssets", 2, 1, 0, textLight, 12)
	liabilities, hasLiabilities := add("Liabilities", 2, 1, netAssets, textLight, 12)
	add("NonCurrentLiabilities", 1.75, 0.5, netAssets, textDark, 10)
	add("CurrentLiabilities", 1.75, 0.5, currentLiabilitiesBottom, textDark, 10)

	// Interest-bearing debt hangs below and above the current liabilities base.
	if _, v, ok := get("Interest-bearingNonCurrentLiabilities"); ok {
		add("Interest-bearingNonCurrentLiabilities", 2.75, 0.5, currentLiabilitiesBottom-v, textDark, 10)
	}
	add("Interest-bearingCurrentLiabilities", 2.75, 0.5, currentLiabilitiesBottom, textDark, 10)

	// Income statement.
	sales, hasSales := add("Sales", 4, 1, 0, textLight, 12)
	add("OperatingProfits", 3.75, 0.5, 0, textDark, 10)
	add("NetIncome", 4.25, 0.5, 0, textDark, 10)

	if hasLiabilities && hasSales {
		l.Lines = append(l.Lines, Segment{
			X1: liabilities.X + liabilities.Width/2, Y1: liabilities.Top(),
			X2: sales.X - sales.Width/2, Y2: sales.Top(),
			Color: connectorColor,
		})
	}
	return l
}

// Extent returns the lowest and highest y reached by the layout, always
// including zero.
func (l Layout) Extent() (lo, hi float64) {
	for _, b := range l.Bars {
		for _, y := range []float64{b.Bottom, b.Top()} {
			if y < lo {
				lo = y
			}
			if y > hi {
				hi = y
			}
		}
	}
	return lo, hi
}
