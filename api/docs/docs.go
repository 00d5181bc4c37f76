// Package docs serves the swagger description of the REST API at /docs
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
        "/servers": {
            "get": {
                "description": "List the servers that answered the status query, most recently probed first",
                "produces": ["application/json"],
                "tags": ["servers"],
                "summary": "List servers",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Hide servers with fewer players online",
                        "name": "min_players",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "Version name or slug (1.20.4, paper-1-20-4, etc)",
                        "name": "version",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {"$ref": "#/definitions/model.Server"}
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {"$ref": "#/definitions/api.Error"}
                    }
                }
            }
        },
        "/servers/{address}": {
            "get": {
                "description": "Return the latest status of a specific server along with its player sample",
                "produces": ["application/json"],
                "tags": ["servers"],
                "summary": "View server detail",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Server address (host or host:port)",
                        "name": "address",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/model.ServerDetail"}
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {"$ref": "#/definitions/api.Error"}
                    },
                    "404": {
                        "description": "Not Found"
                    }
                }
            }
        }
    },
    "definitions": {
        "api.Error": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "model.Server": {
            "type": "object",
            "properties": {
                "address": {"type": "string"},
                "version_name": {"type": "string"},
                "version_slug": {"type": "string"},
                "protocol": {"type": "integer"},
                "motd": {"type": "string"},
                "motd_plain": {"type": "string"},
                "motd_html": {"type": "string"},
                "max_players": {"type": "integer"},
                "online_players": {"type": "integer"},
                "discovered_at": {"type": "string"},
                "probed_at": {"type": "string"}
            }
        },
        "model.ServerPlayer": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "id": {"type": "string"}
            }
        },
        "model.ServerDetail": {
            "type": "object",
            "properties": {
                "info": {"$ref": "#/definitions/model.Server"},
                "players": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/model.ServerPlayer"}
                }
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "mcscan API",
	Description:      "Statuses of the Minecraft servers found by the scanner",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
