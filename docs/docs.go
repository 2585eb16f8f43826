// Package docs holds the OpenAPI document served at /swagger/.
// Regenerate with: swag init -g server/http.go -o docs
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
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Service status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.statusResponse"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "Ready", "schema": {"$ref": "#/definitions/server.statusResponse"}},
                    "503": {"description": "Not ready", "schema": {"$ref": "#/definitions/server.statusResponse"}}
                }
            }
        },
        "/text": {
            "post": {
                "description": "Runs the agent on a typed question, localizes the answer and synthesizes speech.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "Answer a text question",
                "parameters": [
                    {"description": "Question", "name": "query", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.textQuery"}},
                    {"type": "string", "description": "Conversation key", "name": "session_id", "in": "query"},
                    {"type": "number", "description": "Latitude", "name": "lat", "in": "query"},
                    {"type": "number", "description": "Longitude", "name": "lon", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Answer", "schema": {"$ref": "#/definitions/server.chatResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/server.errorResponse"}},
                    "500": {"description": "Processing error", "schema": {"$ref": "#/definitions/server.errorResponse"}}
                }
            }
        },
        "/audio": {
            "post": {
                "description": "Validates and transcribes an uploaded clip, then answers it like /text.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "Answer a spoken question",
                "parameters": [
                    {"type": "file", "description": "Recorded question (.mp3 or .wav)", "name": "audio_file", "in": "formData", "required": true},
                    {"type": "string", "description": "Conversation key", "name": "session_id", "in": "query"},
                    {"type": "number", "description": "Latitude", "name": "lat", "in": "query"},
                    {"type": "number", "description": "Longitude", "name": "lon", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Answer", "schema": {"$ref": "#/definitions/server.chatResponse"}},
                    "400": {"description": "Invalid upload", "schema": {"$ref": "#/definitions/server.errorResponse"}},
                    "500": {"description": "Processing error", "schema": {"$ref": "#/definitions/server.errorResponse"}}
                }
            }
        },
        "/get-audio/{filename}": {
            "get": {
                "produces": ["audio/mpeg", "audio/wav"],
                "tags": ["chat"],
                "summary": "Download synthesized audio",
                "parameters": [
                    {"type": "string", "description": "Audio file name", "name": "filename", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Audio file", "schema": {"type": "file"}},
                    "404": {"description": "Audio file not found", "schema": {"$ref": "#/definitions/server.errorResponse"}}
                }
            }
        },
        "/sessions/{id}/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Conversation history",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Messages in insertion order", "schema": {"$ref": "#/definitions/server.historyResponse"}}
                }
            }
        },
        "/sessions/{id}": {
            "delete": {
                "tags": ["sessions"],
                "summary": "Clear a conversation",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "Cleared"}
                }
            }
        }
    },
    "definitions": {
        "core.Message": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "role": {"type": "string", "enum": ["human", "agent"]},
                "content": {"type": "string"},
                "ordinal": {"type": "integer"},
                "created": {"type": "string", "format": "date-time"}
            }
        },
        "server.chatResponse": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "audio_url": {"type": "string"},
                "language": {"type": "string"},
                "audio_filename": {"type": "string"},
                "session_id": {"type": "string"},
                "transcript": {"type": "string"}
            }
        },
        "server.errorResponse": {
            "type": "object",
            "properties": {
                "detail": {"type": "string"}
            }
        },
        "server.historyResponse": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"},
                "messages": {"type": "array", "items": {"$ref": "#/definitions/core.Message"}}
            }
        },
        "server.statusResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "message": {"type": "string"},
                "version": {"type": "string"}
            }
        },
        "server.textQuery": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "langs": {"type": "array", "items": {"type": "string"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Weather & Agriculture Chatbot API",
	Description:      "Handles voice and text queries for weather, mandi prices, crop diseases and crop suggestions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
