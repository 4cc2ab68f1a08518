package export

import (
	"fmt"
	"time"

	"github.com/beevik/etree"

	"fxvolbridge/internal/model"
	"fxvolbridge/internal/ticker"
)

// Namespace URIs of the downstream document schema.
const (
	nsCache      = "XmlCache"
	nsParams     = "mx.MarketParameters"
	nsForex      = "mx.MarketParameters.Forex"
	nsVols       = "mx.MarketParameters.Forex.Volatilities"
	nsRates      = "mx.MarketParameters.Rates"
	nsSmile      = "mx.MarketParameters.Rates.Smile"
	nickNameFO   = "FO"
	exportDateFm = "20060102"
)

// Formatter serializes a volatility grid into the two downstream payloads.
type Formatter struct {
	mapper *ticker.Mapper
	now    func() time.Time
}

// NewFormatter builds a formatter. A nil clock selects time.Now.
func NewFormatter(mapper *ticker.Mapper, now func() time.Time) *Formatter {
	if now == nil {
		now = time.Now
	}
	return &Formatter{mapper: mapper, now: now}
}

// envelope creates the shared XmlCache > XmlCacheArea > nickName > date >
// forex nesting and returns the forex element.
func (f *Formatter) envelope(doc *etree.Document, forexNS string, extraNS map[string]string) *etree.Element {
	root := doc.CreateElement("xc:XmlCache")
	root.CreateAttr("xmlns:xc", nsCache)
	root.CreateAttr("xmlns:mp", nsParams)
	root.CreateAttr("xmlns:fx", forexNS)
	for prefix, uri := range extraNS {
		root.CreateAttr("xmlns:"+prefix, uri)
	}
	root.CreateAttr("xc:action", "Update")

	area := root.CreateElement("xc:XmlCacheArea")
	area.CreateAttr("xc:value", "MarketParameters")

	nick := area.CreateElement("mp:nickName")
	nick.CreateAttr("xc:value", nickNameFO)

	date := nick.CreateElement("mp:date")
	date.CreateAttr("xc:value", f.now().Format(exportDateFm))

	return date.CreateElement("fx:forex")
}

// BuildAtm renders the ATM document: one pair container per pair in order of
// first appearance, one maturity leaf per tenor in input order, bid and ask
// formatted to three decimals.
func (f *Formatter) BuildAtm(points []model.VolatilityPoint) *etree.Document {
	doc := etree.NewDocument()
	forex := f.envelope(doc, nsForex, map[string]string{"fxvl": nsVols})
	volatility := forex.CreateElement("fxvl:volatility")

	containers := make(map[string]*etree.Element)
	for _, point := range points {
		container, ok := containers[point.Pair]
		if !ok {
			container = volatility.CreateElement("fxvl:pair")
			container.CreateAttr("xc:value", f.mapper.ToExternalFormat(point.Pair))
			containers[point.Pair] = container
		}

		maturity := container.CreateElement("fxvl:maturity")
		maturity.CreateAttr("xc:value", model.DisplayTenor(point.Tenor))

		maturity.CreateElement("mp:bid").SetText(formatRate(point.AtmBid))
		maturity.CreateElement("mp:ask").SetText(formatRate(point.AtmAsk))
	}

	return doc
}

// BuildSmile renders the smile document: per pair and tenor, two ordinate
// blocks (10-delta first, then 25-delta), each carrying the risk-reversal
// and butterfly mid written to both the ask and bid fields.
func (f *Formatter) BuildSmile(points []model.VolatilityPoint) *etree.Document {
	doc := etree.NewDocument()
	forex := f.envelope(doc, nsRates, map[string]string{"fxsm": nsSmile})
	smile := forex.CreateElement("fxsm:smile")

	containers := make(map[string]*etree.Element)
	for _, point := range points {
		container, ok := containers[point.Pair]
		if !ok {
			container = smile.CreateElement("fxsm:pair")
			container.CreateAttr("xc:value", f.mapper.ToExternalFormat(point.Pair))
			containers[point.Pair] = container
		}

		maturity := container.CreateElement("fxsm:maturity")
		maturity.CreateAttr("xc:value", model.DisplayTenor(point.Tenor))

		addOrdinate(maturity, "10.000000000", point.RR10, point.BF10)
		addOrdinate(maturity, "25.000000000", point.RR25, point.BF25)
	}

	return doc
}

func addOrdinate(maturity *etree.Element, delta string, rr, bf float64) {
	ordinate := maturity.CreateElement("fxsm:ordinate")
	ordinate.CreateAttr("xc:value", delta)
	ordinate.CreateAttr("xc:type", "Fields")

	// The feed carries no separate bid/ask for smile points; the mid fills both.
	addSmileField(ordinate, "mp:fxrrAsk", rr)
	addSmileField(ordinate, "mp:fxrrBid", rr)
	addSmileField(ordinate, "mp:fxstrAsk", bf)
	addSmileField(ordinate, "mp:fxstrBid", bf)
}

func addSmileField(ordinate *etree.Element, name string, value float64) {
	field := ordinate.CreateElement(name)
	field.CreateAttr("xc:keyFormat", "N")
	field.CreateAttr("xc:userID", "13")
	field.CreateAttr("xc:type", "Field")
	field.SetText(formatRate(value))
}

func formatRate(value float64) string {
	return fmt.Sprintf("%.3f", value)
}
