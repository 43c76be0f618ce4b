package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown_EmptyInput(t *testing.T) {
	assert.Equal(t, "", RenderMarkdown(""))
}

func TestRenderMarkdown_PlainText(t *testing.T) {
	result := RenderMarkdown("Sow after the first monsoon rain.")
	assert.Contains(t, result, "Sow after the first monsoon rain.")
}

func TestRenderMarkdown_GuideSections(t *testing.T) {
	input := "## Soil Preparation\n\nPlough **twice** and add compost.\n\n- 10 t/acre FYM\n- 50 kg DAP"
	result := RenderMarkdown(input)

	assert.Contains(t, result, "<h2")
	assert.Contains(t, result, "Soil Preparation</h2>")
	assert.Contains(t, result, "<strong>twice</strong>")
	assert.Contains(t, result, "<li>10 t/acre FYM</li>")
}

func TestRenderMarkdown_Table(t *testing.T) {
	input := "| Stage | Days |\n|---|---|\n| Tillering | 25 |"
	result := RenderMarkdown(input)

	assert.Contains(t, result, "<table>")
	assert.Contains(t, result, "<td>Tillering</td>")
}

func TestRenderMarkdown_Link(t *testing.T) {
	result := RenderMarkdown("[Soil Health Card](https://soilhealth.dac.gov.in)")
	assert.Contains(t, result, `<a href="https://soilhealth.dac.gov.in"`)
	assert.Contains(t, result, "Soil Health Card</a>")
}

func TestRenderMarkdown_SanitizesScript(t *testing.T) {
	result := RenderMarkdown(`<script>alert("xss")</script>`)
	assert.NotContains(t, result, "<script>")
}

func TestRenderMarkdown_SanitizesEventHandlers(t *testing.T) {
	result := RenderMarkdown(`<img src="x.png" onerror="alert(1)">`)
	assert.NotContains(t, result, "onerror")
}

func TestRenderMarkdown_GFMStrikethrough(t *testing.T) {
	result := RenderMarkdown("~~urea~~ neem-coated urea")
	assert.Contains(t, result, "<del>urea</del>")
}
