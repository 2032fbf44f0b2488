package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/offer-marketplace/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

// OfferIndex stores offers in a single Elasticsearch index.
type OfferIndex struct {
	ES    *elasticsearch.Client
	Name  string
}

func NewOfferIndex(es *elasticsearch.Client, name string) *OfferIndex {
	return &OfferIndex{ES: es, Name: name}
}

type offerDoc struct {
	ID          string  `json:"id"`
	AuthorID    string  `json:"author_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func toDoc(o entity.Offer) offerDoc {
	return offerDoc{
		ID:          o.ID,
		AuthorID:    o.AuthorID,
		Title:       o.Title,
		Description: o.Description,
		Price:       o.Price,
		Category:    o.Category,
		Image:       o.Image,
		CreatedAt:   o.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:   o.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func (d offerDoc) offer() entity.Offer {
	o := entity.Offer{
		ID:          d.ID,
		AuthorID:    d.AuthorID,
		Title:       d.Title,
		Description: d.Description,
		Price:       d.Price,
		Category:    d.Category,
		Image:       d.Image,
	}
	o.CreatedAt, _ = time.Parse(time.RFC3339Nano, d.CreatedAt)
	o.UpdatedAt, _ = time.Parse(time.RFC3339Nano, d.UpdatedAt)
	return o
}

func responseError(op string, res *esapi.Response) error {
	if res.IsError() {
		return fmt.Errorf("es %s: %s", op, res.Status())
	}
	return nil
}

func (x *OfferIndex) Index(ctx context.Context, o entity.Offer) error {
	b, err := json.Marshal(toDoc(o))
	if err != nil {
		return err
	}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req := esapi.IndexRequest{Index: x.Name, DocumentID: o.ID, Body: bytes.NewReader(b), Refresh: "false"}
	res, err := req.Do(c, x.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	return responseError("index", res)
}

// Delete removes the document. A missing document is not an error.
func (x *OfferIndex) Delete(ctx context.Context, id string) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req := esapi.DeleteRequest{Index: x.Name, DocumentID: id}
	res, err := req.Do(c, x.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	return responseError("delete", res)
}

// Search runs a multi_match over title, description and category.
func (x *OfferIndex) Search(ctx context.Context, q string, size int) ([]entity.Offer, error) {
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"title^3", "category^2", "description"},
			},
		},
		"size": size,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := x.ES.Search(
		x.ES.Search.WithContext(c),
		x.ES.Search.WithIndex(x.Name),
		x.ES.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if err := responseError("search", res); err != nil {
		return nil, err
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string   `json:"_id"`
				Source offerDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]entity.Offer, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		o := h.Source.offer()
		if o.ID == "" {
			o.ID = h.ID
		}
		out = append(out, o)
	}
	return out, nil
}
