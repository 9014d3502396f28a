package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/price-monitor/internal/models"
)

const (
	sellersSelector   = "div.sellers-group"
	offerSelector     = `div.item-table-wrap[itemprop="offers"]`
	storeCellSelector = "td.col-7"
	storeInfoSelector = "div.tablet-show"
	priceSelector     = "div.price"
)

// HindParser extracts offers from hind.ee product pages.
type HindParser struct {
	storeNamePattern *regexp.Regexp
}

func NewHindParser() *HindParser {
	return &HindParser{
		storeNamePattern: regexp.MustCompile(`'eventCategory':\s*'([^']+)'`),
	}
}

func (p *HindParser) ExtractOffers(html string, url string, maxOffers int) (*models.ProductResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return p.ExtractFromDocument(doc, url, maxOffers), nil
}

// ExtractFromDocument never fails: missing elements degrade to sentinel
// values or to fewer offers. Offers keep page order and their position is
// the rank of the offer block on the page.
func (p *HindParser) ExtractFromDocument(doc *goquery.Document, url string, maxOffers int) *models.ProductResult {
	if maxOffers <= 0 {
		maxOffers = DefaultMaxOffers
	}

	result := &models.ProductResult{
		ProductName: p.extractTitle(doc),
		ProductURL:  url,
		Offers:      make([]models.Offer, 0, maxOffers),
	}

	sellers := doc.Find(sellersSelector).First()
	if sellers.Length() == 0 {
		return result
	}

	sellers.Find(offerSelector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= maxOffers {
			return false
		}
		if offer, ok := p.extractOffer(s, i+1); ok {
			result.Offers = append(result.Offers, offer)
		}
		return true
	})

	return result
}

// extractTitle returns NotFound only when the page has no h1. A present but
// blank heading yields "".
func (p *HindParser) extractTitle(doc *goquery.Document) string {
	h1 := doc.Find("h1").First()
	if h1.Length() == 0 {
		return models.NotFound
	}
	return strings.TrimSpace(h1.Text())
}

func (p *HindParser) extractOffer(s *goquery.Selection, position int) (models.Offer, bool) {
	cell := s.Find(storeCellSelector).First()
	if cell.Length() == 0 {
		return models.Offer{}, false
	}

	info := cell.Find(storeInfoSelector).First()
	if info.Length() == 0 {
		return models.Offer{}, false
	}

	link := info.Find("a").First()
	if link.Length() == 0 {
		return models.Offer{}, false
	}

	offer := models.Offer{
		Position:  position,
		StoreName: p.extractStoreName(link),
		StoreLink: models.NoLink,
		PriceText: models.NotFound,
	}

	if href, ok := link.Attr("href"); ok {
		offer.StoreLink = href
	}

	if price := link.Find(priceSelector).First(); price.Length() > 0 {
		offer.PriceText = strings.TrimSpace(price.Text())
	}
	offer.PriceValue = ParsePrice(offer.PriceText)

	return offer, true
}

func (p *HindParser) extractStoreName(link *goquery.Selection) string {
	onclick, ok := link.Attr("onclick")
	if !ok {
		return models.UnknownStore
	}

	matches := p.storeNamePattern.FindStringSubmatch(onclick)
	if len(matches) < 2 {
		return models.UnknownStore
	}
	return matches[1]
}
