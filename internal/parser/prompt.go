package parser

// BuildInvoicePrompt returns the extraction prompt for invoice documents.
func BuildInvoicePrompt() string {
	return `Extract invoice data from this document.

Extract ALL invoices found in the document, regardless of count.

IMPORTANT: Pay special attention to:
- Customer PO Number (also called Purchase Order Number, PO #, Reference Number, or Customer Reference)
- Part Numbers for each line item (also called Item Number, SKU, Product Code, Part #, or Item Code)
- The 1-indexed page numbers of the source document that each invoice appears on
- The tax label printed on the invoice (for example GST, PST, GST/PST, HST, VAT)

Return ONLY valid JSON with this EXACT structure:
{
  "documentType": "single" or "multiple",
  "invoiceCount": number (total count found),
  "invoices": [
    {
      "invoiceNumber": "string",
      "customerPoNumber": "string" or null,
      "invoiceDate": "string (KEEP the EXACT date format as shown on the invoice - do NOT convert)",
      "dueDate": "string" or null (KEEP the EXACT date format as shown on the invoice - do NOT convert),
      "vendor": {
        "name": "string",
        "address": "string",
        "taxId": "string" or null,
        "email": "string" or null,
        "phone": "string" or null
      },
      "customer": {
        "name": "string",
        "address": "string"
      },
      "lineItems": [
        {
          "description": "string",
          "partNumber": "string" or null,
          "quantity": number,
          "unitPrice": number,
          "amount": number,
          "tax": number
        }
      ],
      "subtotal": number,
      "taxAmount": number,
      "taxType": "string" or null,
      "total": number,
      "currency": "string",
      "paymentTerms": "string" or null,
      "pageNumber": number,
      "pageNumbers": [number]
    }
  ]
}

For fields that are not present, use null. Extract ALL invoices found in the document.`
}
