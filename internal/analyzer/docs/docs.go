// Package docs holds the swagger document served by the analyzer API.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/analyses": {
            "post": {
                "description": "Put one pair x strategy job on the analysis stream",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["analyses"],
                "summary": "Request an analysis",
                "parameters": [
                    {
                        "description": "Analysis to run",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.EnqueueAnalysisRequest"}
                    }
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/dto.EnqueueAnalysisResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/decisions/{pair}/{strategy}": {
            "get": {
                "description": "Latest decision for a pair and strategy, from the cache or the report table",
                "produces": ["application/json"],
                "tags": ["decisions"],
                "summary": "Get the latest decision",
                "parameters": [
                    {"type": "string", "description": "Pair, e.g. EURUSD", "name": "pair", "in": "path", "required": true},
                    {"type": "string", "description": "swing or scalping", "name": "strategy", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.CombinedDecision"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.ZoneCandidate": {
            "type": "object",
            "properties": {
                "price_high": {"type": "number"},
                "price_low": {"type": "number"},
                "pattern_kind": {"type": "string"},
                "zone_kind": {"type": "string", "enum": ["support", "resistance", "breakout", "none"]},
                "confidence": {"type": "number"}
            }
        },
        "dto.ValidationOutcome": {
            "type": "object",
            "properties": {
                "valid": {"type": "boolean"},
                "errors": {"type": "array", "items": {"type": "string"}},
                "warnings": {"type": "array", "items": {"type": "string"}}
            }
        },
        "dto.DecisionValidation": {
            "type": "object",
            "properties": {
                "primary": {"$ref": "#/definitions/dto.ValidationOutcome"},
                "entry": {"$ref": "#/definitions/dto.ValidationOutcome"}
            }
        },
        "dto.CombinedDecision": {
            "type": "object",
            "properties": {
                "run_id": {"type": "string"},
                "pair": {"type": "string"},
                "strategy": {"type": "string", "enum": ["swing", "scalping"]},
                "status": {"type": "string", "enum": ["CONFIRMED", "WAIT_BREAKOUT", "FORMING"]},
                "valid": {"type": "boolean"},
                "signal": {"type": "string", "enum": ["buy", "sell", "wait"]},
                "confidence": {"type": "number"},
                "primary_timeframe": {"type": "string"},
                "entry_timeframe": {"type": "string"},
                "primary_zone": {"$ref": "#/definitions/dto.ZoneCandidate"},
                "entry_zone": {"$ref": "#/definitions/dto.ZoneCandidate"},
                "validation": {"$ref": "#/definitions/dto.DecisionValidation"},
                "entry_failure": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "dto.EnqueueAnalysisRequest": {
            "type": "object",
            "required": ["pair", "strategy"],
            "properties": {
                "pair": {"type": "string"},
                "strategy": {"type": "string", "enum": ["swing", "scalping"]},
                "notify_user": {"type": "boolean"},
                "telegram_id": {"type": "integer"}
            }
        },
        "dto.EnqueueAnalysisResponse": {
            "type": "object",
            "properties": {
                "message_id": {"type": "string"},
                "pair": {"type": "string"},
                "strategy": {"type": "string"}
            }
        },
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Zone Analyzer API",
	Description:      "Latest multi-timeframe zone decisions and on-demand analysis requests.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
