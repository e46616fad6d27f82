package gemini_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zuma-group/bill-integration-platform/internal/config"
	"github.com/zuma-group/bill-integration-platform/internal/domain"
	"github.com/zuma-group/bill-integration-platform/internal/parser"
	"github.com/zuma-group/bill-integration-platform/internal/parser/gemini"
	"github.com/zuma-group/bill-integration-platform/internal/port"
)

func newTestParser(serverURL string) *gemini.Parser {
	cfg := &config.ParserProviderConfig{
		Provider:     "gemini",
		APIKey:       "test-gemini-key",
		DefaultModel: "gemini-2.5-flash",
		TimeoutSecs:  30,
	}
	return gemini.NewParserWithEndpoint(cfg, serverURL)
}

func successResponse(text, finishReason string) map[string]interface{} {
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"role":  "model",
					"parts": []map[string]interface{}{{"text": text}},
				},
				"finishReason": finishReason,
			},
		},
	}
}

func serve(t *testing.T, status int, body interface{}, header map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		for k, v := range header {
			w.Header().Set(k, v)
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)
	return server
}

const singleInvoice = `{"documentType":"single","invoiceCount":1,"invoices":[{"invoiceNumber":"INV-001","invoiceDate":"2024-01-15","total":42.5,"lineItems":[]}]}`

func TestParser_Extract_PDF_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-gemini-key", r.Header.Get("x-goog-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))

		contents := reqBody["contents"].([]interface{})
		require.Len(t, contents, 1)
		msg := contents[0].(map[string]interface{})
		assert.Equal(t, "user", msg["role"])

		parts := msg["parts"].([]interface{})
		require.Len(t, parts, 2)
		assert.NotEmpty(t, parts[0].(map[string]interface{})["text"])
		inline := parts[1].(map[string]interface{})["inline_data"].(map[string]interface{})
		assert.Equal(t, "application/pdf", inline["mime_type"])
		assert.NotEmpty(t, inline["data"])

		gen := reqBody["generationConfig"].(map[string]interface{})
		assert.Equal(t, "application/json", gen["responseMimeType"])

		_ = json.NewEncoder(w).Encode(successResponse(singleInvoice, "STOP"))
	}))
	defer server.Close()

	result, err := newTestParser(server.URL).Extract(context.Background(), port.ExtractInput{
		FileBytes:   []byte("%PDF-1.4 test content"),
		ContentType: "application/pdf",
	})

	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", result.ModelUsed)
	assert.Equal(t, domain.DocumentTypeSingle, result.DocumentType)
	require.Len(t, result.Invoices, 1)
	assert.Equal(t, "INV-001", result.Invoices[0].InvoiceNumber)
	assert.Equal(t, 42.5, result.Invoices[0].Total)
}

func TestParser_Extract_JPGAlias(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&reqBody)
		parts := reqBody["contents"].([]interface{})[0].(map[string]interface{})["parts"].([]interface{})
		inline := parts[1].(map[string]interface{})["inline_data"].(map[string]interface{})
		assert.Equal(t, "image/jpeg", inline["mime_type"])
		_ = json.NewEncoder(w).Encode(successResponse(singleInvoice, "STOP"))
	}))
	defer server.Close()

	_, err := newTestParser(server.URL).Extract(context.Background(), port.ExtractInput{
		FileBytes:   []byte{0xFF, 0xD8},
		ContentType: "image/jpg",
	})
	require.NoError(t, err)
}

func TestParser_Extract_UnsupportedType(t *testing.T) {
	p := newTestParser("http://127.0.0.1:0")

	_, err := p.Extract(context.Background(), port.ExtractInput{FileBytes: []byte("x"), ContentType: "text/plain"})

	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}

func TestParser_Extract_RateLimited(t *testing.T) {
	server := serve(t, http.StatusTooManyRequests,
		map[string]interface{}{"error": map[string]interface{}{"message": "quota exceeded"}},
		map[string]string{"Retry-After": "17"})

	_, err := newTestParser(server.URL).Extract(context.Background(), port.ExtractInput{
		FileBytes: []byte("x"), ContentType: "application/pdf",
	})

	var rlErr *parser.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "gemini", rlErr.Provider)
	assert.Equal(t, 17.0, rlErr.RetryAfter.Seconds())
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestParser_Extract_ServerError(t *testing.T) {
	server := serve(t, http.StatusServiceUnavailable, map[string]interface{}{}, nil)

	_, err := newTestParser(server.URL).Extract(context.Background(), port.ExtractInput{
		FileBytes: []byte("x"), ContentType: "application/pdf",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "service unavailable")
}

func TestParser_Extract_NoCandidates(t *testing.T) {
	server := serve(t, http.StatusOK, map[string]interface{}{"candidates": []interface{}{}}, nil)

	_, err := newTestParser(server.URL).Extract(context.Background(), port.ExtractInput{
		FileBytes: []byte("x"), ContentType: "image/png",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}

func TestParser_Extract_TruncatedIsRepaired(t *testing.T) {
	cut := `{"documentType":"multiple","invoiceCount":3,"invoices":[{"invoiceNumber":"A-1","total":10},{"invoiceNumber":"A-2","tot`
	server := serve(t, http.StatusOK, successResponse(cut, "MAX_TOKENS"), nil)

	result, err := newTestParser(server.URL).Extract(context.Background(), port.ExtractInput{
		FileBytes: []byte("x"), ContentType: "application/pdf",
	})

	require.NoError(t, err)
	assert.True(t, result.Repaired)
	assert.Equal(t, 3, result.InvoiceCount)
	require.Len(t, result.Invoices, 2)
	assert.Equal(t, "A-2", result.Invoices[1].InvoiceNumber)
}

func TestParser_Extract_GarbageIsTruncationError(t *testing.T) {
	server := serve(t, http.StatusOK, successResponse(`I could not read "invoiceCount": 5 invoices`, "STOP"), nil)

	_, err := newTestParser(server.URL).Extract(context.Background(), port.ExtractInput{
		FileBytes: []byte("x"), ContentType: "application/pdf",
	})

	var truncErr *parser.TruncatedResponseError
	require.True(t, errors.As(err, &truncErr))
	assert.Equal(t, "5", truncErr.ClaimedCount)
	assert.Contains(t, err.Error(), "STOP")
}

func TestProviderRegistered(t *testing.T) {
	_, err := parser.NewExtractor(&config.ParserProviderConfig{Provider: "gemini"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")

	p, err := parser.NewExtractor(&config.ParserProviderConfig{Provider: "gemini", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &gemini.Parser{}, p)
}
