// Package docs registers the OpenAPI description served by the Swagger UI
// (SWAGGER_ENABLED=true). Regenerate with `swag init -g cmd/server/main.go`.
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
        "/documents": {
            "post": {
                "description": "Adds a document to the in-memory index. An existing id is replaced.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "Index a document",
                "operationId": "addDocument",
                "parameters": [
                    {"type": "string", "description": "Caller identity scoping idempotency and rate limits", "name": "X-Client-ID", "in": "header"},
                    {"type": "string", "description": "Idempotency key for safe retries", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Document", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.AddDocumentRequest"}}
                ],
                "responses": {
                    "200": {"description": "Replayed", "schema": {"$ref": "#/definitions/handlers.AddDocumentResponse"}},
                    "201": {"description": "Indexed", "schema": {"$ref": "#/definitions/handlers.AddDocumentResponse"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/documents/count": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "Count indexed documents",
                "operationId": "documentCount",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.CountResponse"}}
                }
            }
        },
        "/documents/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "Get a document",
                "operationId": "getDocument",
                "parameters": [
                    {"minimum": 0, "type": "integer", "description": "Document ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.DocumentResponse"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Document not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/documents/{id}/match": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "Match a query against a document",
                "operationId": "matchDocument",
                "parameters": [
                    {"minimum": 0, "type": "integer", "description": "Document ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Query", "name": "query", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.MatchResponse"}},
                    "400": {"description": "Bad request or malformed query", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Document not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/search": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Search"],
                "summary": "Search documents",
                "operationId": "search",
                "parameters": [
                    {"type": "string", "description": "Query", "name": "query", "in": "query", "required": true},
                    {"enum": ["ACTUAL", "IRRELEVANT", "BANNED", "REMOVED"], "type": "string", "default": "ACTUAL", "description": "Document status", "name": "status", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SearchResponse"}},
                    "400": {"description": "Bad request, malformed query or invalid status", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Search"],
                "summary": "Search documents with a filter",
                "operationId": "searchWithFilter",
                "parameters": [
                    {"description": "Query and filter", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SearchBody"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SearchResponse"}},
                    "400": {"description": "Bad request, malformed query or invalid status", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/stop-words": {
            "get": {
                "produces": ["application/json"],
                "tags": ["StopWords"],
                "summary": "List stop words",
                "operationId": "getStopWords",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.StopWordsResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "tags": ["StopWords"],
                "summary": "Replace stop words",
                "operationId": "putStopWords",
                "parameters": [
                    {"description": "Stop words", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.StopWordsRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/queries": {
            "get": {
                "produces": ["application/json"],
                "tags": ["History"],
                "summary": "List past searches (paginated)",
                "operationId": "listQueries",
                "parameters": [
                    {"type": "string", "description": "Return 304 if ETag matches", "name": "If-None-Match", "in": "header"},
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 20, "description": "Items per page", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListQueriesResponse"}, "headers": {"ETag": {"type": "string", "description": "Weak ETag for current result"}}},
                    "304": {"description": "Not Modified"},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/queries/top": {
            "get": {
                "produces": ["application/json"],
                "tags": ["History"],
                "summary": "Most frequent queries",
                "operationId": "topQueries",
                "parameters": [
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 10, "description": "Number of queries", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.TopQueriesResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.QueryCount": {
            "type": "object",
            "properties": {
                "query": {"type": "string"},
                "count": {"type": "integer"},
                "last_seen": {"type": "string"}
            }
        },
        "domain.QueryLog": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "query": {"type": "string"},
                "filter": {"type": "string"},
                "results": {"type": "integer"},
                "top_document_id": {"type": "integer"},
                "duration_micros": {"type": "integer"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "handlers.AddDocumentRequest": {
            "type": "object",
            "required": ["id"],
            "properties": {
                "id": {"type": "integer", "example": 7},
                "content": {"type": "string", "example": "cat in the big city"},
                "status": {"type": "string", "enum": ["ACTUAL", "IRRELEVANT", "BANNED", "REMOVED"], "example": "ACTUAL"},
                "ratings": {"type": "array", "items": {"type": "integer"}, "example": [1, 2, 3]}
            }
        },
        "handlers.AddDocumentResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer", "example": 7},
                "status": {"type": "string", "example": "ACTUAL"},
                "rating": {"type": "integer", "example": 2},
                "document_count": {"type": "integer", "example": 12}
            }
        },
        "handlers.CountResponse": {
            "type": "object",
            "properties": {"count": {"type": "integer", "example": 12}}
        },
        "handlers.DocumentResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer", "example": 7},
                "status": {"type": "string", "example": "ACTUAL"},
                "rating": {"type": "integer", "example": 2}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"},
                "code": {"type": "string", "example": "not_found"},
                "message": {"type": "string", "example": "document not found: 7"}
            }
        },
        "handlers.ListQueriesResponse": {
            "type": "object",
            "properties": {
                "queries": {"type": "array", "items": {"$ref": "#/definitions/domain.QueryLog"}},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"}
            }
        },
        "handlers.MatchResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer", "example": 7},
                "words": {"type": "array", "items": {"type": "string"}, "example": ["cat", "city"]},
                "status": {"type": "string", "example": "ACTUAL"}
            }
        },
        "handlers.Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"},
                "has_next": {"type": "boolean"}
            }
        },
        "handlers.SearchBody": {
            "type": "object",
            "properties": {
                "query": {"type": "string", "example": "fluffy cat -collar"},
                "status": {"type": "string", "enum": ["ACTUAL", "IRRELEVANT", "BANNED", "REMOVED"]},
                "min_rating": {"type": "integer"},
                "max_rating": {"type": "integer"},
                "ids": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "handlers.SearchResponse": {
            "type": "object",
            "properties": {
                "query": {"type": "string", "example": "fluffy cat -collar"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/search.Result"}}
            }
        },
        "handlers.StopWordsRequest": {
            "type": "object",
            "properties": {"words": {"type": "string", "example": "a an in the with"}}
        },
        "handlers.StopWordsResponse": {
            "type": "object",
            "properties": {"words": {"type": "array", "items": {"type": "string"}}}
        },
        "handlers.TopQueriesResponse": {
            "type": "object",
            "properties": {
                "queries": {"type": "array", "items": {"$ref": "#/definitions/domain.QueryCount"}}
            }
        },
        "search.Result": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "relevance": {"type": "number"},
                "rating": {"type": "integer"}
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
	Title:            "Search Server API",
	Description:      "In-memory TF-IDF document search with stop words, minus words and status filters.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
