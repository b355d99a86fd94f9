// Package docs registers the OpenAPI description of the quizroom API.
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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"},
        "GuestToken": {"type": "apiKey", "name": "X-Guest-Token", "in": "header"}
    },
    "paths": {
        "/register": {"post": {"tags": ["auth"], "summary": "Create an account and email a signup code", "responses": {"201": {"description": "Created"}, "409": {"description": "Email already registered"}, "429": {"description": "Rate limited"}}}},
        "/login": {"post": {"tags": ["auth"], "summary": "Sign in and receive a session token", "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid credentials"}, "403": {"description": "Email not verified"}}}},
        "/logout": {"post": {"tags": ["auth"], "summary": "Clear the session cookie", "responses": {"200": {"description": "OK"}}}},
        "/profile": {
            "get": {"tags": ["auth"], "summary": "Current user", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}},
            "put": {"tags": ["auth"], "summary": "Update name or password", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Validation error"}}}
        },
        "/send-otp": {"post": {"tags": ["auth"], "summary": "Email a one-time code (signup or reset)", "responses": {"200": {"description": "OK"}, "404": {"description": "Unknown email"}}}},
        "/verify": {"post": {"tags": ["auth"], "summary": "Verify a one-time code", "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid or expired code"}}}},
        "/reset-password": {"post": {"tags": ["auth"], "summary": "Set a new password after a verified reset code", "responses": {"200": {"description": "OK"}, "403": {"description": "Reset not verified"}}}},
        "/contact": {"post": {"tags": ["contact"], "summary": "Send a message to the administrators", "responses": {"200": {"description": "OK"}, "400": {"description": "Validation error"}}}},
        "/rooms": {
            "get": {"tags": ["rooms"], "summary": "List rooms", "parameters": [
                {"name": "type", "in": "query", "type": "string", "enum": ["public", "my", "joined", "all"]},
                {"name": "page", "in": "query", "type": "integer"},
                {"name": "limit", "in": "query", "type": "integer"},
                {"name": "search", "in": "query", "type": "string"},
                {"name": "status", "in": "query", "type": "string"},
                {"name": "category", "in": "query", "type": "string"},
                {"name": "difficulty", "in": "query", "type": "string"}
            ], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["rooms"], "summary": "Create a room", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "400": {"description": "Validation error"}}}
        },
        "/rooms/join": {"post": {"tags": ["participation"], "summary": "Join a room by code", "responses": {"200": {"description": "OK"}, "409": {"description": "Full or already joined"}}}},
        "/rooms/code/{code}": {"get": {"tags": ["rooms"], "summary": "Find a room by code", "parameters": [{"name": "code", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}},
        "/rooms/{id}": {
            "get": {"tags": ["rooms"], "summary": "Get a room", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "put": {"tags": ["rooms"], "summary": "Update room settings", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "403": {"description": "Room locked"}}},
            "delete": {"tags": ["rooms"], "summary": "Delete a room and its records", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "403": {"description": "Room in progress"}}}
        },
        "/rooms/{id}/status": {"post": {"tags": ["rooms"], "summary": "Change room status", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid transition"}}}},
        "/rooms/{id}/activities": {"get": {"tags": ["rooms"], "summary": "Room activity log", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/rooms/{id}/questions": {
            "get": {"tags": ["rooms"], "summary": "Questions of a room", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["rooms"], "summary": "Attach a question", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "409": {"description": "Already attached"}}}
        },
        "/rooms/{id}/questions/{questionId}": {"delete": {"tags": ["rooms"], "summary": "Detach a question", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/rooms/{id}/leave": {"post": {"tags": ["participation"], "summary": "Leave a room", "security": [{"BearerAuth": []}, {"GuestToken": []}], "responses": {"200": {"description": "OK"}}}},
        "/rooms/{id}/answers": {"post": {"tags": ["participation"], "summary": "Answer a question", "security": [{"BearerAuth": []}, {"GuestToken": []}], "responses": {"201": {"description": "Created"}, "409": {"description": "Already answered"}}}},
        "/rooms/{id}/results": {"get": {"tags": ["results"], "summary": "Room results", "responses": {"200": {"description": "OK"}, "403": {"description": "Not available yet"}}}},
        "/rooms/{id}/results/export": {"get": {"tags": ["results"], "summary": "Export results", "parameters": [{"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "excel"]}], "responses": {"501": {"description": "Not available"}}}},
        "/rooms/{id}/leaderboard": {"get": {"tags": ["results"], "summary": "Ranked participants and the caller's rank", "parameters": [{"name": "top", "in": "query", "type": "integer"}], "responses": {"200": {"description": "OK"}}}},
        "/rooms/{id}/rating": {"post": {"tags": ["results"], "summary": "Rate a room", "responses": {"201": {"description": "Created"}, "409": {"description": "Already rated"}}}},
        "/rooms/{id}/ratings": {"get": {"tags": ["results"], "summary": "Ratings of a room", "responses": {"200": {"description": "OK"}}}},
        "/questions": {
            "get": {"tags": ["questions"], "summary": "List questions", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["questions"], "summary": "Create a question", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/questions/{id}": {
            "get": {"tags": ["questions"], "summary": "Get a question", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "put": {"tags": ["questions"], "summary": "Update a question", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["questions"], "summary": "Delete a question", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "409": {"description": "In use"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Quizroom API",
	Description:      "Multiplayer quiz rooms with a shared question bank.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
