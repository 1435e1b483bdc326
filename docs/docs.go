// Package docs registers the OpenAPI document served at /swagger.
// Regenerate with `swag init -g cmd/api/main.go` after changing handler annotations.
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
        "ActorID": {
            "type": "apiKey",
            "name": "X-Actor-ID",
            "in": "header"
        }
    },
    "paths": {
        "/students/{id}/enroll": {
            "post": {
                "security": [{"ActorID": []}],
                "tags": ["students"],
                "summary": "Enroll a student and generate enrollment charges",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Already enrolled"}}
            }
        },
        "/charges": {
            "get": {
                "tags": ["charges"],
                "summary": "List charges",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/payments/charges/{chargeId}/approve": {
            "post": {
                "security": [{"ActorID": []}],
                "tags": ["payments"],
                "summary": "Approve a submitted payment",
                "parameters": [{"type": "string", "name": "chargeId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Invalid transition"}}
            }
        },
        "/payables/{id}/pay": {
            "post": {
                "security": [{"ActorID": []}],
                "tags": ["payables"],
                "summary": "Pay a payable",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "422": {"description": "Insufficient school balance"}}
            }
        },
        "/closings/{period}": {
            "post": {
                "security": [{"ActorID": []}],
                "tags": ["closing"],
                "summary": "Close a month",
                "parameters": [{"type": "string", "name": "period", "in": "path", "required": true}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Already closed"}}
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
	Title:            "School Finance API",
	Description:      "Billing, credit ledger, payables and monthly closing for a school.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
