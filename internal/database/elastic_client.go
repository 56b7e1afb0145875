package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/locvowork/offer_funnel/internal/domain"
	"github.com/olivere/elastic/v7"
)

// OfferDoc is the search-index shape of an offer. Money is kept as text so
// the index never rounds it.
type OfferDoc struct {
	SalesPerson    string   `json:"sales_person"`
	SLNumber       int      `json:"sl_number"`
	Zone           string   `json:"zone"`
	Status         string   `json:"status"`
	RegDate        string   `json:"reg_date"`
	Company        string   `json:"company"`
	Location       string   `json:"location"`
	ContactName    string   `json:"contact_name"`
	Email          string   `json:"email"`
	ProductType    string   `json:"product_type"`
	OfferReference string   `json:"offer_reference"`
	OfferValue     string   `json:"offer_value,omitempty"`
	PONumber       string   `json:"po_number"`
	POValue        string   `json:"po_value,omitempty"`
	Remarks        string   `json:"remarks"`
	MachineSerials []string `json:"machine_serials"`
	AssetCount     int      `json:"asset_count"`
}

// searchFields are matched by SearchOffers.
var searchFields = []string{
	"company", "location", "contact_name", "product_type",
	"offer_reference", "machine_serials", "remarks",
}

// NewOfferDoc converts an offer for indexing.
func NewOfferDoc(o domain.Offer) OfferDoc {
	doc := OfferDoc{
		SalesPerson:    o.SalesPersonName,
		SLNumber:       o.SLNumber,
		Zone:           string(o.Zone),
		Status:         string(o.Status),
		RegDate:        o.RegDate,
		Company:        o.Company,
		Location:       o.Location,
		ContactName:    o.ContactName,
		Email:          o.Email,
		ProductType:    o.ProductType,
		OfferReference: o.OfferReference,
		PONumber:       o.PONumber,
		Remarks:        o.Remarks,
		MachineSerials: o.MachineSerials,
		AssetCount:     o.AssetCount,
	}
	if o.OfferValue.Valid {
		doc.OfferValue = o.OfferValue.Decimal.String()
	}
	if o.POValue.Valid {
		doc.POValue = o.POValue.Decimal.String()
	}
	return doc
}

// ID is the document id: the offer key.
func (d OfferDoc) ID() string {
	return fmt.Sprintf("%s-%d", d.SalesPerson, d.SLNumber)
}

// ToOffer converts a hit back. Fields the index does not carry stay empty.
func (d OfferDoc) ToOffer() domain.Offer {
	o := domain.Offer{
		SLNumber:        d.SLNumber,
		SalesPersonName: d.SalesPerson,
		Zone:            domain.Zone(d.Zone),
		Status:          domain.Status(d.Status),
		RegDate:         d.RegDate,
		Company:         d.Company,
		Location:        d.Location,
		ContactName:     d.ContactName,
		Email:           d.Email,
		ProductType:     d.ProductType,
		OfferReference:  d.OfferReference,
		PONumber:        d.PONumber,
		Remarks:         d.Remarks,
		MachineSerials:  d.MachineSerials,
		AssetCount:      d.AssetCount,
	}
	if o.MachineSerials == nil {
		o.MachineSerials = []string{}
	}
	o.OfferValue = parseAmount(d.OfferValue)
	o.POValue = parseAmount(d.POValue)
	return o
}

// ElasticSearchClient wraps olivere/elastic client.
type ElasticSearchClient struct {
	client *elastic.Client
	index  string
}

// NewElasticSearchClient creates a new client for Elasticsearch 7.x.
func NewElasticSearchClient(url, index string) (*ElasticSearchClient, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(url),
		elastic.SetSniff(false), // Essential when using Docker or cloud
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	return &ElasticSearchClient{client: client, index: index}, nil
}

// BulkIndexOffers indexes offers keyed by salesperson and SL number, so a
// re-run replaces earlier documents.
func (es *ElasticSearchClient) BulkIndexOffers(ctx context.Context, offers []domain.Offer) error {
	bulkRequest := es.client.Bulk()

	for _, o := range offers {
		doc := NewOfferDoc(o)
		req := elastic.NewBulkIndexRequest().
			Index(es.index).
			Id(doc.ID()).
			Doc(doc)
		bulkRequest = bulkRequest.Add(req)
	}

	if bulkRequest.NumberOfActions() == 0 {
		return nil
	}

	bulkResponse, err := bulkRequest.Refresh("true").Do(ctx)
	if err != nil {
		return fmt.Errorf("bulk index failed: %w", err)
	}

	if bulkResponse.Errors {
		for _, item := range bulkResponse.Failed() {
			if item.Error != nil {
				return fmt.Errorf("bulk item %s failed: %s", item.Id, item.Error.Reason)
			}
		}
	}

	return nil
}

// SearchOffers runs a full-text match over the descriptive offer fields.
func (es *ElasticSearchClient) SearchOffers(ctx context.Context, text string, size int) ([]domain.Offer, error) {
	if size <= 0 {
		size = 20
	}
	query := elastic.NewMultiMatchQuery(text, searchFields...)

	searchResult, err := es.client.Search().
		Index(es.index).
		Query(query).
		Size(size).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	offers := make([]domain.Offer, 0, len(searchResult.Hits.Hits))
	for _, item := range searchResult.Hits.Hits {
		var doc OfferDoc
		if err := json.Unmarshal(item.Source, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode hit %s: %w", item.Id, err)
		}
		offers = append(offers, doc.ToOffer())
	}

	return offers, nil
}
