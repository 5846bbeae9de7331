package core

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCSV_Empty(t *testing.T) {
	assert.Equal(t, "", ExportCSV(nil))
	assert.Equal(t, "", ExportCSV([]Product{}))
}

func TestExportCSV_SingleRecord(t *testing.T) {
	p := Product{
		ID:        "id-1",
		Product:   "Widget",
		Brand:     "Acme",
		Account:   "Amazon US",
		Status:    "pending",
		Module:    "selection",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	out := ExportCSV([]Product{p})
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "product,brand,account,status,module", lines[0])
	assert.Equal(t, "Widget,Acme,Amazon US,pending,selection", lines[1])
	assert.NotContains(t, out, "id-1")
}

func TestExportCSV_UnionOfColumns(t *testing.T) {
	products := []Product{
		{Product: "A", Module: "selection"},
		{Product: "B", Brand: "Acme", Module: "catalog", Attributes: map[string]string{"notes": "x"}},
	}

	lines := strings.Split(ExportCSV(products), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "product,module,brand,notes", lines[0])
	assert.Equal(t, "A,selection,,", lines[1])
	assert.Equal(t, "B,catalog,Acme,x", lines[2])
}

func TestExportCSV_Quoting(t *testing.T) {
	p := Product{Product: `Widget, "Deluxe"`, Module: "selection"}
	lines := strings.Split(ExportCSV([]Product{p}), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"Widget, ""Deluxe""",selection`, lines[1])
}

func TestExportCSV_Variations(t *testing.T) {
	p := Product{
		Product:        "Widget",
		Module:         "catalog",
		Variations:     []string{"8oz", "16oz"},
		VariationsData: map[string]VariantData{"8oz": {Size: "8oz"}, "16oz": {Size: "16oz"}},
	}

	lines := strings.Split(ExportCSV([]Product{p}), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "product,module,variations,variationsData", lines[0])

	fields := ParseLine(lines[1])
	require.Len(t, fields, 4)
	assert.Equal(t, "8oz,16oz", fields[2])
	assert.Contains(t, fields[3], `"size":"16oz"`)
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "42", formatCell(42))
	assert.Equal(t, "1.5", formatCell(1.5))
	assert.Equal(t, "", formatCell(nil))
	assert.Equal(t, `"a,b"`, formatCell("a,b"))
}

// A value holding a comma and a quote survives export then simple import.
func TestExportImport_RoundTrip(t *testing.T) {
	original := `Widget, the "best" one`
	products := []Product{{
		Product: original,
		Brand:   `Acme "Co", Ltd`,
		Account: "Amazon US",
		Status:  "pending",
		Module:  "selection",
	}}

	imported, err := ImportSimple(ExportCSV(products))
	require.NoError(t, err)
	require.Len(t, imported, 1)
	assert.Equal(t, original, imported[0].Product)
	assert.Equal(t, `Acme "Co", Ltd`, imported[0].Brand)
	assert.Equal(t, "Amazon US", imported[0].Account)
}

func TestExportImport_AttributeKeysLowerCased(t *testing.T) {
	products := []Product{{
		Product:    "Widget",
		Attributes: map[string]string{"parentAsin": "P1", "labelCopy": "x", "notes": "n"},
	}}

	imported, err := ImportSimple(ExportCSV(products))
	require.NoError(t, err)
	require.Len(t, imported, 1)
	assert.Equal(t, map[string]string{"parentasin": "P1", "labelcopy": "x", "notes": "n"}, imported[0].Attributes)
}

func TestExportXLSX_RoundTrip(t *testing.T) {
	products := []Product{
		{Product: "Widget, large", Brand: "Acme", Module: "selection"},
		{Product: "Gadget", Module: "catalog", Attributes: map[string]string{"notes": "n"}},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportXLSX(&buf, products))

	text, err := XLSXToCSV(&buf)
	require.NoError(t, err)

	imported, err := ImportSimple(text)
	require.NoError(t, err)
	require.Len(t, imported, 2)
	assert.Equal(t, "Widget, large", imported[0].Product)
	assert.Equal(t, "Acme", imported[0].Brand)
	assert.Equal(t, "catalog", imported[1].Module)
	assert.Equal(t, "n", imported[1].Attribute("notes"))
}
