package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Canopy API",
        "description": "Hierarchical content backend with inherited permissions",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and token issuance"},
        {"name": "Items", "description": "Item tree management"},
        {"name": "Shares", "description": "Subtree permission grants"},
        {"name": "Bulk", "description": "Multi-target operations"},
        {"name": "Exports", "description": "Subtree inventory downloads"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/items": {
            "post": {
                "tags": ["Items"],
                "summary": "Create item",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateItemRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Write access required on parent"}
                }
            }
        },
        "/items/{id}": {
            "get": {
                "tags": ["Items"],
                "summary": "Get item",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "patch": {
                "tags": ["Items"],
                "summary": "Update item metadata or publication status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateItemRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Items"],
                "summary": "Delete item subtree",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "403": {"description": "Admin access required"}
                }
            }
        },
        "/items/{id}/children": {
            "get": {
                "tags": ["Items"],
                "summary": "List readable direct children",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "keyword", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/items/{id}/descendants": {
            "get": {
                "tags": ["Items"],
                "summary": "List readable subtree items",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "keyword", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/items/{id}/move": {
            "post": {
                "tags": ["Items"],
                "summary": "Move item to a new parent",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DestinationRequest"}}
                ],
                "responses": {
                    "200": {"description": "Moved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Item changed concurrently"}
                }
            }
        },
        "/items/{id}/copy": {
            "post": {
                "tags": ["Items"],
                "summary": "Copy item subtree",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DestinationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Copied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/items/{id}/reorder": {
            "post": {
                "tags": ["Items"],
                "summary": "Reorder item among siblings",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReorderItemRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/items/{id}/like": {
            "post": {
                "tags": ["Items"],
                "summary": "Like item",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Liked"}
                }
            },
            "delete": {
                "tags": ["Items"],
                "summary": "Remove like",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Removed"}
                }
            }
        },
        "/items/{id}/audit": {
            "get": {
                "tags": ["Items"],
                "summary": "Get item audit trail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Admin required"}
                }
            }
        },
        "/items/{id}/shares": {
            "get": {
                "tags": ["Shares"],
                "summary": "List grants on item",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Shares"],
                "summary": "Grant subtree access",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ShareItemRequest"}}
                ],
                "responses": {
                    "204": {"description": "Granted"},
                    "400": {"description": "Redundant grant"}
                }
            }
        },
        "/items/{id}/shares/{subject}": {
            "delete": {
                "tags": ["Shares"],
                "summary": "Revoke explicit grant",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "subject", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Revoked"},
                    "404": {"description": "Grant not found"}
                }
            }
        },
        "/items/{id}/export": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export subtree inventory",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/items/bulk/move": {
            "post": {
                "tags": ["Bulk"],
                "summary": "Bulk move items",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkItemRequest"}}
                ],
                "responses": {
                    "200": {"description": "Completed report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Accepted for async processing"}
                }
            }
        },
        "/items/bulk/copy": {
            "post": {
                "tags": ["Bulk"],
                "summary": "Bulk copy items",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkItemRequest"}}
                ],
                "responses": {
                    "200": {"description": "Completed report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Accepted for async processing"}
                }
            }
        },
        "/items/bulk/delete": {
            "post": {
                "tags": ["Bulk"],
                "summary": "Bulk delete items",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkItemRequest"}}
                ],
                "responses": {
                    "200": {"description": "Completed report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Accepted for async processing"}
                }
            }
        },
        "/bulk/operations/{id}": {
            "get": {
                "tags": ["Bulk"],
                "summary": "Get bulk operation report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown operation"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreateItemRequest": {
            "type": "object",
            "required": ["name", "type"],
            "properties": {
                "name": {"type": "string"},
                "type": {"type": "string", "enum": ["folder", "document", "link"]},
                "parent_id": {"type": "string"},
                "previous_sibling_id": {"type": "string"},
                "is_public": {"type": "boolean"}
            }
        },
        "UpdateItemRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "status": {"type": "string", "enum": ["draft", "published", "archived"]},
                "is_public": {"type": "boolean"}
            }
        },
        "ReorderItemRequest": {
            "type": "object",
            "properties": {
                "previous_sibling_id": {"type": "string"}
            }
        },
        "DestinationRequest": {
            "type": "object",
            "properties": {
                "destination_id": {"type": "string"}
            }
        },
        "ShareItemRequest": {
            "type": "object",
            "required": ["subject", "level"],
            "properties": {
                "subject": {"type": "string"},
                "level": {"type": "string", "enum": ["read", "write", "admin"]}
            }
        },
        "BulkItemRequest": {
            "type": "object",
            "required": ["item_ids"],
            "properties": {
                "item_ids": {"type": "array", "items": {"type": "string"}},
                "destination_id": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
