package agmarknet

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "secret", q.Get("api-key"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "Amreli", q.Get("filters[district]"))
		assert.Equal(t, "1000", q.Get("limit"))
		_, _ = w.Write([]byte(`{"records":[
			{"district":"Amreli","market":"Amreli","commodity":"Cotton","variety":"Shanker 6","min_price":"6500","max_price":7200,"modal_price":"7000"},
			{"district":"Amreli","market":"Savarkundla","commodity":"Groundnut","variety":"","min_price":null,"max_price":"5800","modal_price":"5600"}
		]}`))
	}))
	defer srv.Close()

	c := New("secret", func(o *Options) { o.BaseURL = srv.URL })
	records, err := c.Fetch(context.Background(), "Amreli")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, Price("7200"), records[0].MaxPrice)
	assert.Equal(t, "N/A", records[1].MinPrice.String())
}

func TestFetch_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New("bad", func(o *Options) { o.BaseURL = srv.URL }).Fetch(context.Background(), "Amreli")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestFormat(t *testing.T) {
	records := []Record{
		{Market: "Amreli", Commodity: "Cotton", Variety: "Shanker 6", MinPrice: "6500", MaxPrice: "7200", ModalPrice: "7000"},
		{Market: "Savarkundla", Commodity: "Groundnut", MinPrice: "5000", MaxPrice: "5800", ModalPrice: "5600"},
	}

	want := "Agriculture Prices in Amreli:\n" +
		"Found 2 records\n\n" +
		"1. Cotton (Shanker 6)\n   Market: Amreli\n   Min: ₹6500, Max: ₹7200, Modal: ₹7000\n\n" +
		"2. Groundnut\n   Market: Savarkundla\n   Min: ₹5000, Max: ₹5800, Modal: ₹5600\n\n"
	assert.Equal(t, want, Format("Amreli", records))
}

func TestFormat_TruncatesAfterFive(t *testing.T) {
	records := make([]Record, 8)
	for i := range records {
		records[i] = Record{Market: "M", Commodity: fmt.Sprintf("C%d", i)}
	}

	out := Format("Rajkot", records)
	assert.Contains(t, out, "Found 8 records")
	assert.Contains(t, out, "5. C4")
	assert.NotContains(t, out, "6. C5")
	assert.True(t, strings.HasSuffix(out, "... and 3 more records"))
}

func TestFormat_Empty(t *testing.T) {
	assert.Equal(t, "No agriculture price data found for Surat", Format("Surat", nil))
}
