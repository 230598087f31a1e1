// Package docs holds the swagger document served by the scheduler API.
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
        "/schedules": {
            "get": {
                "description": "List configured schedules with their next and previous run",
                "produces": ["application/json"],
                "tags": ["schedules"],
                "summary": "Get all schedules",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.ScheduleResponse"}}
                    }
                }
            }
        },
        "/schedules/{name}/trigger": {
            "post": {
                "description": "Enqueue every pair x strategy job of the schedule immediately",
                "produces": ["application/json"],
                "tags": ["schedules"],
                "summary": "Run a schedule now",
                "parameters": [
                    {"type": "string", "description": "Schedule name", "name": "name", "in": "path", "required": true}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/dto.TriggerResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/analyzerdto.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/analyzerdto.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.ScheduleResponse": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "cron": {"type": "string"},
                "pairs": {"type": "array", "items": {"type": "string"}},
                "strategies": {"type": "array", "items": {"type": "string"}},
                "next_run": {"type": "string"},
                "prev_run": {"type": "string"}
            }
        },
        "dto.TriggerResponse": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "enqueued": {"type": "integer"},
                "message_ids": {"type": "array", "items": {"type": "string"}},
                "errors": {"type": "array", "items": {"type": "string"}}
            }
        },
        "analyzerdto.ErrorResponse": {
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
	Title:            "Zone Analyzer Scheduler API",
	Description:      "Cron schedules that enqueue zone analysis jobs.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
