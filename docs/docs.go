// Package docs holds the OpenAPI document served by the swagger UI. The
// handler annotations in internal/handler describe the same routes; running
// swag init regenerates this file from them.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/ocr": {
            "post": {
                "tags": ["ocr"],
                "summary": "Extract invoices from a document",
                "consumes": ["multipart/form-data", "application/json"],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "Extraction result"},
                    "400": {"description": "Missing or unsupported document"},
                    "413": {"description": "File too large"},
                    "429": {"description": "Rate limited"},
                    "502": {"description": "OCR response truncated"}
                }
            }
        },
        "/push-to-odoo": {
            "get": {
                "tags": ["sync"],
                "summary": "Describe a push task",
                "parameters": [{"type": "string", "name": "taskId", "in": "query", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Missing taskId"}}
            },
            "post": {
                "tags": ["sync"],
                "summary": "Push invoices to Odoo",
                "consumes": ["multipart/form-data", "application/json"],
                "responses": {
                    "200": {"description": "Push result"},
                    "400": {"description": "No invoices or invalid PDF"},
                    "500": {"description": "Webhook not configured"}
                }
            }
        },
        "/invoices": {
            "get": {
                "tags": ["invoices"],
                "summary": "List invoices",
                "parameters": [
                    {"type": "integer", "default": 50, "name": "take", "in": "query"},
                    {"type": "integer", "default": 0, "name": "skip", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad paging"}}
            },
            "post": {
                "tags": ["invoices"],
                "summary": "Store invoices",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Invalid body"}}
            }
        },
        "/invoices/{id}": {
            "get": {
                "tags": ["invoices"],
                "summary": "Get invoice",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "patch": {
                "tags": ["invoices"],
                "summary": "Update invoice",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "delete": {
                "tags": ["invoices"],
                "summary": "Delete invoice",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/invoices/export": {
            "get": {
                "tags": ["invoices"],
                "summary": "Export invoices",
                "parameters": [{"type": "string", "default": "csv", "name": "format", "in": "query"}],
                "responses": {"200": {"description": "File"}, "400": {"description": "Unknown format"}}
            }
        },
        "/invoices/pending": {
            "get": {
                "tags": ["invoices"],
                "summary": "Drain pending invoices",
                "parameters": [{"type": "integer", "name": "max", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/invoices/upload-to-s3": {
            "post": {
                "tags": ["attachments"],
                "summary": "Upload a document to object storage",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Missing file"}, "413": {"description": "File too large"}}
            }
        },
        "/attachments/{filename}": {
            "get": {
                "tags": ["attachments"],
                "summary": "Download an attachment",
                "produces": ["application/pdf"],
                "parameters": [
                    {"type": "string", "name": "filename", "in": "path", "required": true},
                    {"type": "string", "name": "token", "in": "query"}
                ],
                "responses": {"200": {"description": "File"}, "403": {"description": "Invalid link"}, "404": {"description": "Not found"}}
            }
        },
        "/gmail/poll": {
            "get": {
                "tags": ["gmail"],
                "summary": "Poll the mailbox",
                "parameters": [{"type": "integer", "default": 10, "name": "max", "in": "query"}],
                "responses": {"200": {"description": "OK"}, "503": {"description": "Gmail disabled"}}
            },
            "post": {
                "tags": ["gmail"],
                "summary": "Poll the mailbox",
                "parameters": [{"type": "integer", "default": 10, "name": "max", "in": "query"}],
                "responses": {"200": {"description": "OK"}, "503": {"description": "Gmail disabled"}}
            }
        },
        "/gmail/notifications": {
            "post": {
                "tags": ["gmail"],
                "summary": "Receive a Pub/Sub push",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid envelope"}}
            }
        },
        "/gmail/watch": {
            "post": {
                "tags": ["gmail"],
                "summary": "Subscribe the mailbox to Pub/Sub",
                "responses": {"200": {"description": "OK"}, "400": {"description": "No topic configured"}}
            }
        },
        "/gmail/auth": {
            "get": {"tags": ["gmail"], "summary": "Start mailbox OAuth consent", "responses": {"302": {"description": "Redirect"}}}
        },
        "/gmail/callback": {
            "get": {
                "tags": ["gmail"],
                "summary": "Finish mailbox OAuth consent",
                "parameters": [{"type": "string", "name": "code", "in": "query", "required": true}],
                "responses": {"200": {"description": "Refresh token"}, "400": {"description": "Missing code"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Bill Integration Platform API",
	Description:      "Invoice OCR, PDF splitting and Odoo synchronisation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
