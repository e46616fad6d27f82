package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageList(t *testing.T) {
	got, err := parsePageList("1, 3-5,7")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 4, 5, 7}, got)

	for _, bad := range []string{"", "0", "a", "5-3", ","} {
		_, err := parsePageList(bad)
		assert.Error(t, err, bad)
	}
}

func run(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	root := newRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return out.String()
}

func TestRepairCommand(t *testing.T) {
	out := run(t, `{"documentType":"single","invoices":[{"invoiceNumber":"A"`, "repair")
	assert.Equal(t, `{"documentType":"single","invoices":[{"invoiceNumber":"A"}]}`+"\n", out)
}

func TestNormalizeDateCommand(t *testing.T) {
	out := run(t, "", "normalize-date", "2024-03-07", "25/12/2024", "not a date")
	assert.Equal(t, "2024/03/07\n2024/12/25\nnot a date\n", out)
}

func TestReconcileCommand(t *testing.T) {
	out := run(t, `{"taxAmount": 12, "taxType": "GST/PST", "lineItems": [{"quantity": 2, "unitPrice": 50, "amount": 100}]}`, "reconcile")
	assert.Contains(t, out, `"Subtotal": 100`)
	assert.Contains(t, out, `"tax_type": "GST"`)
	assert.Contains(t, out, `"tax_type": "PST"`)
}
