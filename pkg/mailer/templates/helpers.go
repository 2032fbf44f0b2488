package templates

import (
	"sort"
	"time"
)

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) { d.Time = t.UTC().Format("02 January 2006, 15:04 MST") }
}

func WithChanges(ch []string) Option {
	return func(d *EmailData) {
		sorted := append([]string(nil), ch...)
		sort.Strings(sorted)
		d.Changes = sorted
	}
}

func WithOffer(id, title string) Option {
	return func(d *EmailData) { d.OfferID, d.OfferTitle = id, title }
}

// Brand carries the links and names shared by every email.
type Brand struct {
	AppName     string
	CompanyName string
	AppURL      string
	SupportURL  string
}

// NewData fills the shared fields and applies the options.
func NewData(b Brand, name, email string, opts ...Option) map[string]any {
	d := EmailData{
		Name:        name,
		Email:       email,
		AppName:     b.AppName,
		CompanyName: b.CompanyName,
		AppURL:      b.AppURL,
		SupportURL:  b.SupportURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return ToMap(d)
}
