package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/price-monitor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productURL = "https://www.hind.ee/p/lenovo-thinkpad-t14-gen-4"

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func TestExtractOffers_TakesFirstThreeInPageOrder(t *testing.T) {
	p := NewHindParser()

	result, err := p.ExtractOffers(loadFixture(t, "product_five_offers.html"), productURL, DefaultMaxOffers)
	require.NoError(t, err)

	assert.Equal(t, "Lenovo ThinkPad T14 Gen 4", result.ProductName)
	assert.Equal(t, productURL, result.ProductURL)
	require.Len(t, result.Offers, 3)

	expected := []struct {
		store string
		link  string
		text  string
		value float64
	}{
		{"Itsupply.ee", "https://www.hind.ee/go/1", "725.00 €", 725},
		{"Klick.ee", "https://www.hind.ee/go/2", "749.90 €", 749.9},
		{"Euronics", "https://www.hind.ee/go/3", "1.099,00 €", 1099},
	}

	for i, want := range expected {
		got := result.Offers[i]
		assert.Equal(t, i+1, got.Position)
		assert.Equal(t, want.store, got.StoreName)
		assert.Equal(t, want.link, got.StoreLink)
		assert.Equal(t, want.text, got.PriceText)
		assert.Equal(t, want.value, got.PriceValue.InexactFloat64())
	}
}

func TestExtractOffers_MaxOffers(t *testing.T) {
	p := NewHindParser()
	html := loadFixture(t, "product_five_offers.html")

	result, err := p.ExtractOffers(html, productURL, 5)
	require.NoError(t, err)
	require.Len(t, result.Offers, 5)
	assert.Equal(t, "Photopoint", result.Offers[4].StoreName)
	assert.Equal(t, 1149.0, result.Offers[3].PriceValue.InexactFloat64())

	result, err = p.ExtractOffers(html, productURL, 0)
	require.NoError(t, err)
	assert.Len(t, result.Offers, DefaultMaxOffers)
}

func TestExtractOffers_NoSellersContainer(t *testing.T) {
	p := NewHindParser()

	result, err := p.ExtractOffers(loadFixture(t, "product_no_sellers.html"), productURL, DefaultMaxOffers)
	require.NoError(t, err)

	assert.Equal(t, "Lenovo ThinkPad Z13", result.ProductName)
	assert.NotNil(t, result.Offers)
	assert.Empty(t, result.Offers)
}

func TestExtractOffers_MissingElements(t *testing.T) {
	p := NewHindParser()

	tests := []struct {
		name     string
		html     string
		expected []models.Offer
	}{
		{
			name: "block without store cell is skipped",
			html: `<div class="sellers-group">
				<div class="item-table-wrap" itemprop="offers"><table><tr><td class="col-1">x</td></tr></table></div>
				<div class="item-table-wrap" itemprop="offers"><table><tr><td class="col-7"><div class="tablet-show">
					<a href="/go/2" onclick="track({'eventCategory': 'Klick.ee'})"><div class="price">749 €</div></a>
				</div></td></tr></table></div>
			</div>`,
			expected: []models.Offer{
				{Position: 2, StoreName: "Klick.ee", StoreLink: "/go/2", PriceText: "749 €"},
			},
		},
		{
			name: "block without tablet-show is skipped",
			html: `<div class="sellers-group">
				<div class="item-table-wrap" itemprop="offers"><table><tr><td class="col-7"><a href="/go/1">x</a></td></tr></table></div>
			</div>`,
			expected: []models.Offer{},
		},
		{
			name: "block without link is skipped",
			html: `<div class="sellers-group">
				<div class="item-table-wrap" itemprop="offers"><table><tr><td class="col-7"><div class="tablet-show">no link</div></td></tr></table></div>
			</div>`,
			expected: []models.Offer{},
		},
		{
			name: "missing onclick, href and price fall back to sentinels",
			html: `<div class="sellers-group">
				<div class="item-table-wrap" itemprop="offers"><table><tr><td class="col-7"><div class="tablet-show">
					<a>shop</a>
				</div></td></tr></table></div>
			</div>`,
			expected: []models.Offer{
				{Position: 1, StoreName: models.UnknownStore, StoreLink: models.NoLink, PriceText: models.NotFound},
			},
		},
		{
			name: "onclick without eventCategory",
			html: `<div class="sellers-group">
				<div class="item-table-wrap" itemprop="offers"><table><tr><td class="col-7"><div class="tablet-show">
					<a href="/go/1" onclick="track({'eventAction': 'click'})"><div class="price">n/a</div></a>
				</div></td></tr></table></div>
			</div>`,
			expected: []models.Offer{
				{Position: 1, StoreName: models.UnknownStore, StoreLink: "/go/1", PriceText: "n/a"},
			},
		},
		{
			name: "blocks without itemprop are ignored",
			html: `<div class="sellers-group">
				<div class="item-table-wrap"><table><tr><td class="col-7"><div class="tablet-show">
					<a href="/go/1" onclick="track({'eventCategory': 'Ad'})"><div class="price">1 €</div></a>
				</div></td></tr></table></div>
			</div>`,
			expected: []models.Offer{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := p.ExtractOffers(tt.html, productURL, DefaultMaxOffers)
			require.NoError(t, err)
			assert.Equal(t, models.NotFound, result.ProductName)
			require.Len(t, result.Offers, len(tt.expected))

			for i, want := range tt.expected {
				got := result.Offers[i]
				assert.Equal(t, want.Position, got.Position)
				assert.Equal(t, want.StoreName, got.StoreName)
				assert.Equal(t, want.StoreLink, got.StoreLink)
				assert.Equal(t, want.PriceText, got.PriceText)
			}
		})
	}
}

func TestExtractOffers_Title(t *testing.T) {
	p := NewHindParser()

	tests := []struct {
		name string
		html string
		want string
	}{
		{"missing heading", `<div class="sellers-group"></div>`, models.NotFound},
		{"blank heading", `<h1>  </h1><div class="sellers-group"></div>`, ""},
		{"first heading wins", `<h1> ThinkPad X1 </h1><h1>Other</h1>`, "ThinkPad X1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := p.ExtractOffers(tt.html, productURL, DefaultMaxOffers)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.ProductName)
		})
	}
}

func TestExtractFromDocument_Idempotent(t *testing.T) {
	p := NewHindParser()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(loadFixture(t, "product_five_offers.html")))
	require.NoError(t, err)

	first := p.ExtractFromDocument(doc, productURL, DefaultMaxOffers)
	second := p.ExtractFromDocument(doc, productURL, DefaultMaxOffers)

	assert.Equal(t, first, second)
}
