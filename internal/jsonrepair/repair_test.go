package jsonrepair_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zuma-group/bill-integration-platform/internal/jsonrepair"
)

const invoicesDoc = `{
  "documentType": "multiple",
  "invoiceCount": 2,
  "invoices": [
    {
      "invoiceNumber": "INV-001",
      "customerPoNumber": null,
      "vendor": {"name": "Acme \"West\" Ltd", "address": "12 Café Rd\nSuite 4"},
      "lineItems": [
        {"description": "Bolts", "quantity": 10, "unitPrice": 1.25, "amount": 12.5, "tax": 0.63},
        {"description": "Nuts", "quantity": 2.5e1, "unitPrice": -0.5, "amount": 0}
      ],
      "taxable": true,
      "pageNumbers": [1]
    },
    {
      "invoiceNumber": "INV-002",
      "lineItems": [],
      "paid": false,
      "pageNumbers": [2, 3]
    }
  ]
}`

func TestRepair_ValidInputIsUnchanged(t *testing.T) {
	inputs := []string{
		invoicesDoc,
		`{}`,
		`[]`,
		`{"documentType":"none","invoiceCount":0,"invoices":[]}`,
		`"plain string"`,
		`42`,
		`[1,[2,[3,{"a":[]}]]]`,
	}
	for _, in := range inputs {
		out := jsonrepair.Repair(in)

		var want, got interface{}
		require.NoError(t, json.Unmarshal([]byte(in), &want))
		require.NoError(t, json.Unmarshal([]byte(out), &got), "repair of %q", in)
		assert.Equal(t, want, got)
	}
}

func TestRepair_SurroundingWhitespaceTrimmed(t *testing.T) {
	assert.Equal(t, `{"a":1}`, jsonrepair.Repair("  \n{\"a\":1}\t "))
}

func TestRepair_EveryPrefixParses(t *testing.T) {
	for i := 1; i <= len(invoicesDoc); i++ {
		prefix := invoicesDoc[:i]
		out := jsonrepair.Repair(prefix)
		if !json.Valid([]byte(out)) {
			t.Fatalf("prefix of length %d did not repair\nprefix: %s\nrepaired: %s", i, prefix, out)
		}
	}
}

func TestRepair_TruncatedInsideString(t *testing.T) {
	out := jsonrepair.Repair(`{"invoices":[{"invoiceNumber":"INV-0`)
	assert.Equal(t, `{"invoices":[{"invoiceNumber":"INV-0"}]}`, out)
}

func TestRepair_TruncatedInsideKey(t *testing.T) {
	out := jsonrepair.Repair(`{"invoices":[{"invoiceNumber":"A","vend`)
	assert.Equal(t, `{"invoices":[{"invoiceNumber":"A","vend":null}]}`, out)
}

func TestRepair_TruncatedAfterComma(t *testing.T) {
	out := jsonrepair.Repair(`{"invoices":[{"invoiceNumber":"A"},`)
	assert.Equal(t, `{"invoices":[{"invoiceNumber":"A"}]}`, out)

	out = jsonrepair.Repair(`{"invoiceCount":1, `)
	assert.Equal(t, `{"invoiceCount":1}`, out)
}

func TestRepair_TruncatedAfterColon(t *testing.T) {
	out := jsonrepair.Repair(`{"invoiceCount":`)
	assert.Equal(t, `{"invoiceCount":null}`, out)
}

func TestRepair_ClosesLineItemsThenInvoice(t *testing.T) {
	out := jsonrepair.Repair(`{"invoices":[{"invoiceNumber":"A","lineItems":[{"description":"x","quantity":1`)
	assert.Equal(t, `{"invoices":[{"invoiceNumber":"A","lineItems":[{"description":"x","quantity":1}]}]}`, out)
}

func TestRepair_CompletesPartialScalars(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"paid":tr`, `{"paid":true}`},
		{`{"paid":fals`, `{"paid":false}`},
		{`{"po":n`, `{"po":null}`},
		{`{"amount":12.`, `{"amount":12.0}`},
		{`{"amount":-`, `{"amount":-0}`},
		{`{"amount":1e`, `{"amount":1e0}`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, jsonrepair.Repair(tt.in))
		})
	}
}

func TestRepair_DropsHalfWrittenEscape(t *testing.T) {
	assert.Equal(t, `{"name":"Acme "}`, jsonrepair.Repair(`{"name":"Acme \`))
	assert.Equal(t, `{"name":"Caf"}`, jsonrepair.Repair(`{"name":"Caf\u00`))
}

func TestRepair_ZeroInvoices(t *testing.T) {
	out := jsonrepair.Repair(`{"documentType":"none","invoiceCount":0,"invoices":[`)
	assert.Equal(t, `{"documentType":"none","invoiceCount":0,"invoices":[]}`, out)
}

func TestRepair_TruncatedAfterFirstInvoice(t *testing.T) {
	truncated := `{"documentType":"multiple","invoiceCount":2,"invoices":[` +
		`{"invoiceNumber":"A","pageNumbers":[1]}`

	var doc struct {
		InvoiceCount int `json:"invoiceCount"`
		Invoices     []struct {
			InvoiceNumber string `json:"invoiceNumber"`
			PageNumbers   []int  `json:"pageNumbers"`
		} `json:"invoices"`
	}
	require.NoError(t, json.Unmarshal([]byte(jsonrepair.Repair(truncated)), &doc))
	assert.Equal(t, 2, doc.InvoiceCount)
	require.Len(t, doc.Invoices, 1)
	assert.Equal(t, "A", doc.Invoices[0].InvoiceNumber)
	assert.Equal(t, []int{1}, doc.Invoices[0].PageNumbers)
}

func TestRepair_EmptyInput(t *testing.T) {
	assert.Equal(t, "", jsonrepair.Repair("   "))
}
