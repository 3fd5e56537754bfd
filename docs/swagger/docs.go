// Package swagger registers the OpenAPI document served at /swagger/doc.json.
// It follows the swag output layout; keep it in step with the handler annotations.
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
        "/auth/login": {
            "post": {
                "description": "Verify credentials, set the session cookie and return the same token for Bearer use.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [
                    {
                        "description": "Username and password",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/auth.credentialsRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "description": "Clear the session cookie. Bearer tokens stay valid until they expire.",
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log out",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/auth/register": {
            "post": {
                "description": "Create an account. The password is stored as a salted argon2id hash.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register",
                "parameters": [
                    {
                        "description": "Username and password",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/auth.credentialsRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/files": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Catalog of every stored file, newest first.",
                "produces": ["application/json"],
                "tags": ["files"],
                "summary": "List files",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Validate and store a file under a timestamped key.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["files"],
                "summary": "Upload a file",
                "parameters": [
                    {"type": "file", "description": "File to upload", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/files/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "File count, total size and the active storage location.",
                "produces": ["application/json"],
                "tags": ["files"],
                "summary": "Storage statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/files/{key}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Remove a stored file. Deleting a missing key succeeds.",
                "produces": ["application/json"],
                "tags": ["files"],
                "summary": "Delete a file",
                "parameters": [
                    {"type": "string", "description": "Storage key", "name": "key", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/files/{key}/download": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Redirect to a short-lived signed URL, or stream the file when the backend cannot sign.",
                "produces": ["application/octet-stream"],
                "tags": ["files"],
                "summary": "Download a file",
                "parameters": [
                    {"type": "string", "description": "Storage key", "name": "key", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "302": {"description": "Found", "schema": {"type": "string"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/files/{key}/share": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Create a signed URL valid for seven days.",
                "produces": ["application/json"],
                "tags": ["files"],
                "summary": "Share a file",
                "parameters": [
                    {"type": "string", "description": "Storage key", "name": "key", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "501": {"description": "Not Implemented", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/users/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the account of the currently logged-in user.",
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        }
    },
    "definitions": {
        "auth.credentialsRequest": {
            "type": "object",
            "properties": {
                "password": {"type": "string", "example": "correct horse battery"},
                "username": {"type": "string", "example": "alice"}
            }
        },
        "response.Envelope": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"type": "string"},
                "success": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Session token from /auth/login. Browsers may send the filegate_session cookie instead. Format: **Bearer {token}**",
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
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Filegate API",
	Description:      "Authenticated file storage gateway over S3-compatible object storage with a local fallback.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
