// Package swagger registers the OpenAPI document served at /swagger.
// Keep it in step with the swag annotations on the handlers.
package swagger

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
        "/api/tax/vat-rates": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tax"],
                "summary": "List country VAT rates",
                "parameters": [
                    {"type": "boolean", "description": "Include inactive rates (admin only)", "name": "all", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/tax/vat-rate": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tax"],
                "summary": "Get VAT rate for a country",
                "parameters": [
                    {"type": "string", "description": "Country name, case-insensitive", "name": "country", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/tax/calculate": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tax"],
                "summary": "Calculate VAT",
                "parameters": [
                    {"description": "Amount, country and product ids", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.CalculateVATRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/tax/products/lookup": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tax"],
                "summary": "Look up product tax flags",
                "parameters": [
                    {"description": "Product ids", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.ProductTaxLookupRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/admin/tax/vat-rates": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tax-admin"],
                "summary": "Create country VAT rate",
                "parameters": [
                    {"description": "Country VAT rate", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.SaveCountryVATRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/admin/tax/vat-rates/{id}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tax-admin"],
                "summary": "Update country VAT rate",
                "parameters": [
                    {"type": "string", "description": "Country VAT rate ID", "name": "id", "in": "path", "required": true},
                    {"description": "Country VAT rate", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.SaveCountryVATRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["tax-admin"],
                "summary": "Delete country VAT rate",
                "parameters": [
                    {"type": "string", "description": "Country VAT rate ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/admin/tax/vat-rates/import": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["text/csv"],
                "produces": ["application/json"],
                "tags": ["tax-admin"],
                "summary": "Import country VAT rates",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/admin/tax/vat-rates/export": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv"],
                "tags": ["tax-admin"],
                "summary": "Export country VAT rates",
                "responses": {"200": {"description": "CSV file", "schema": {"type": "string"}}}
            }
        },
        "/api/admin/tax/product-cache": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["tax-admin"],
                "summary": "Clear product tax cache",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/admin/products/{id}/tax-exemption": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tax-admin"],
                "summary": "Update product tax exemption",
                "parameters": [
                    {"type": "string", "description": "Product ID", "name": "id", "in": "path", "required": true},
                    {"description": "Exemption flag", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.UpdateTaxExemptionRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/admin/products/{id}/tax-inclusivity": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tax-admin"],
                "summary": "Update product tax inclusivity",
                "parameters": [
                    {"type": "string", "description": "Product ID", "name": "id", "in": "path", "required": true},
                    {"description": "Inclusivity flag", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.UpdateTaxInclusivityRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/exchange-rates": {
            "get": {
                "produces": ["application/json"],
                "tags": ["exchange-rates"],
                "summary": "List exchange rates",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/exchange-rates/convert": {
            "get": {
                "produces": ["application/json"],
                "tags": ["exchange-rates"],
                "summary": "Convert currency",
                "parameters": [
                    {"type": "string", "description": "Decimal amount", "name": "amount", "in": "query", "required": true},
                    {"type": "string", "description": "Source currency (default base)", "name": "from", "in": "query"},
                    {"type": "string", "description": "Target currency (default base)", "name": "to", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/admin/exchange-rates/{currency}/manual": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["exchange-rates-admin"],
                "summary": "Set manual exchange rate",
                "parameters": [
                    {"type": "string", "description": "Currency code", "name": "currency", "in": "path", "required": true},
                    {"description": "Manual rate", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.SetManualRateRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["exchange-rates-admin"],
                "summary": "Clear manual exchange rate",
                "parameters": [
                    {"type": "string", "description": "Currency code", "name": "currency", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/admin/exchange-rates/{currency}/markup": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["exchange-rates-admin"],
                "summary": "Set exchange rate markup",
                "parameters": [
                    {"type": "string", "description": "Currency code", "name": "currency", "in": "path", "required": true},
                    {"description": "Markup percent", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.SetMarkupRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/admin/exchange-rates/refresh": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["exchange-rates-admin"],
                "summary": "Refresh exchange rates from provider",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/checkout/quote": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["checkout"],
                "summary": "Quote a cart",
                "parameters": [
                    {"description": "Cart items", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.QuoteRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/audit-logs": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["audit"],
                "summary": "Get audit logs",
                "parameters": [
                    {"type": "integer", "description": "Page number (default 1)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Number of items per page (default 20)", "name": "limit", "in": "query"},
                    {"type": "string", "description": "Filter by action, e.g. UPDATE_VAT_RATE", "name": "action", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        }
    },
    "definitions": {
        "response.Response": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"type": "string"},
                "status": {"type": "string"},
                "status_code": {"type": "integer"}
            }
        },
        "service.CalculateVATRequest": {
            "type": "object",
            "required": ["base_amount"],
            "properties": {
                "base_amount": {"type": "string"},
                "country": {"type": "string"},
                "product_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "service.ProductTaxLookupRequest": {
            "type": "object",
            "required": ["product_ids"],
            "properties": {
                "product_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "service.SaveCountryVATRequest": {
            "type": "object",
            "required": ["country", "vat_rate"],
            "properties": {
                "country": {"type": "string"},
                "is_active": {"type": "boolean"},
                "vat_rate": {"type": "string"}
            }
        },
        "service.UpdateTaxExemptionRequest": {
            "type": "object",
            "required": ["tax_exempt"],
            "properties": {
                "tax_exempt": {"type": "boolean"}
            }
        },
        "service.UpdateTaxInclusivityRequest": {
            "type": "object",
            "required": ["tax_inclusive"],
            "properties": {
                "tax_inclusive": {"type": "boolean"}
            }
        },
        "service.SetManualRateRequest": {
            "type": "object",
            "required": ["rate"],
            "properties": {
                "rate": {"type": "string"}
            }
        },
        "service.SetMarkupRequest": {
            "type": "object",
            "required": ["markup_percent"],
            "properties": {
                "markup_percent": {"type": "string"}
            }
        },
        "service.QuoteItemRequest": {
            "type": "object",
            "required": ["product_id", "quantity"],
            "properties": {
                "product_id": {"type": "string"},
                "quantity": {"type": "integer"}
            }
        },
        "service.QuoteRequest": {
            "type": "object",
            "required": ["items"],
            "properties": {
                "country": {"type": "string"},
                "currency": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/service.QuoteItemRequest"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Marketplace Tax API",
	Description:      "VAT rates, product tax flags, VAT calculation, exchange rates and checkout quotes.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
