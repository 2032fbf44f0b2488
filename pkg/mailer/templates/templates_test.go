package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var brand = Brand{AppName: "Market", AppURL: "https://market.test"}

func TestRender_ProfileUpdated(t *testing.T) {
	data := NewData(brand, "Ana", "ana@market.test",
		WithTime(time.Date(2026, 1, 2, 15, 4, 0, 0, time.UTC)),
		WithChanges([]string{"jobTitle", "bio"}),
	)

	subject, text, html, err := Render(ProfileUpdated, data)
	require.NoError(t, err)

	assert.Equal(t, "Market: your profile was updated", subject)
	assert.Contains(t, text, "Hi Ana,")
	assert.Contains(t, text, "  - bio\n  - jobTitle")
	assert.Contains(t, html, "<li>bio</li><li>jobTitle</li>")
}

func TestRender_OfferPublishedEscapesHTML(t *testing.T) {
	data := NewData(brand, "", "ana@market.test", WithOffer("o1", "<b>Logo</b>"))

	subject, text, html, err := Render(OfferPublished, data)
	require.NoError(t, err)

	assert.Contains(t, subject, `"<b>Logo</b>" is live`)
	assert.Contains(t, text, "Hi there,")
	assert.Contains(t, text, "https://market.test/offers/o1")
	assert.Contains(t, html, "&lt;b&gt;Logo&lt;/b&gt;")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, _, _, err := Render("nope", nil)
	assert.Error(t, err)
}
