// Package docs registers the OpenAPI document served under /swagger.
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/api/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Create an account",
                "parameters": [{"in": "body", "name": "user", "required": true, "schema": {"$ref": "#/definitions/RegisterInput"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/AuthResult"}}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Exchange credentials for a token",
                "parameters": [{"in": "body", "name": "credentials", "required": true, "schema": {"$ref": "#/definitions/LoginInput"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/AuthResult"}}, "401": {"description": "Unauthorized"}}
            }
        },
        "/api/orders": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["orders"],
                "summary": "List every order (admin)",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["orders"],
                "summary": "Place an order",
                "parameters": [{"in": "body", "name": "order", "required": true, "schema": {"$ref": "#/definitions/CreateOrderInput"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/orders/myorders": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["orders"],
                "summary": "List the caller's orders",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/orders/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["orders"],
                "summary": "Get an order",
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["orders"],
                "summary": "Delete an order (admin)",
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/orders/{id}/status": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["orders"],
                "summary": "Change an order's status (admin)",
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}
            }
        },
        "/api/orders/{id}/pay": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["orders"],
                "summary": "Mark an order paid",
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/gems": {
            "get": {"tags": ["catalog"], "summary": "List gems visible to the caller", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["catalog"], "summary": "Submit a gem", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/api/gems/bulk/approve": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["catalog"], "summary": "Approve every pending gem (admin)", "responses": {"200": {"description": "OK"}}}
        },
        "/api/instruments": {
            "get": {"tags": ["catalog"], "summary": "List instruments visible to the caller", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["catalog"], "summary": "Submit an instrument", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/api/news": {
            "get": {"tags": ["news"], "summary": "List news posts", "parameters": [{"in": "query", "name": "status", "type": "string"}], "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["news"], "summary": "Create a news post", "responses": {"201": {"description": "Created"}}}
        },
        "/api/chat": {
            "post": {
                "tags": ["chat"],
                "summary": "Ask the gem assistant",
                "parameters": [{"in": "body", "name": "message", "required": true, "schema": {"type": "object", "properties": {"message": {"type": "string"}}}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "429": {"description": "Too Many Requests"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/api/uploads": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["uploads"], "summary": "Upload a file", "consumes": ["multipart/form-data"], "parameters": [{"in": "formData", "name": "file", "type": "file", "required": true}], "responses": {"201": {"description": "Created"}}}
        }
    },
    "definitions": {
        "RegisterInput": {
            "type": "object",
            "properties": {"name": {"type": "string"}, "email": {"type": "string"}, "password": {"type": "string"}}
        },
        "LoginInput": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "AuthResult": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "user": {"type": "object", "properties": {"id": {"type": "string"}, "name": {"type": "string"}, "email": {"type": "string"}, "role": {"type": "string"}}}
            }
        },
        "CreateOrderInput": {
            "type": "object",
            "properties": {
                "orderItems": {"type": "array", "items": {"type": "object", "properties": {"productId": {"type": "string"}, "productType": {"type": "string"}, "quantity": {"type": "integer"}, "price": {"type": "number"}}}},
                "shippingAddress": {"type": "object", "properties": {"address": {"type": "string"}, "city": {"type": "string"}, "postalCode": {"type": "string"}, "country": {"type": "string"}}},
                "paymentMethod": {"type": "string"},
                "itemsPrice": {"type": "number"},
                "taxPrice": {"type": "number"},
                "shippingPrice": {"type": "number"},
                "totalPrice": {"type": "number"}
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Gemora API",
	Description:      "Gem and gemological instrument marketplace.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
