// Package docs registers the OpenAPI document of the mpijobd REST API with
// swag. Regenerate with `swag init -g cmd/mpijobd/docs.go -o internal/httpapi/docs`.
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
        "/api/v1/mpijobs": {
            "get": {"tags": ["mpijobs"], "summary": "List MPIJobs in every namespace",
                "parameters": [
                    {"type": "string", "name": "labelSelector", "in": "query"},
                    {"type": "string", "name": "status", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.JobListResponse"}}}}
        },
        "/api/v1/namespaces/{namespace}/mpijobs": {
            "get": {"tags": ["mpijobs"], "summary": "List MPIJobs",
                "parameters": [
                    {"type": "string", "name": "namespace", "in": "path", "required": true},
                    {"type": "string", "name": "labelSelector", "in": "query"},
                    {"type": "string", "name": "status", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.JobListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}}},
            "post": {"tags": ["mpijobs"], "summary": "Create an MPIJob",
                "consumes": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "namespace", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.CreateJobRequest"}}
                ],
                "responses": {"201": {"description": "Created"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}}}
        },
        "/api/v1/namespaces/{namespace}/mpijobs/{name}": {
            "get": {"tags": ["mpijobs"], "summary": "Get an MPIJob document",
                "parameters": [
                    {"type": "string", "name": "namespace", "in": "path", "required": true},
                    {"type": "string", "name": "name", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}}},
            "delete": {"tags": ["mpijobs"], "summary": "Delete an MPIJob",
                "parameters": [
                    {"type": "string", "name": "namespace", "in": "path", "required": true},
                    {"type": "string", "name": "name", "in": "path", "required": true},
                    {"type": "boolean", "name": "wait", "in": "query"},
                    {"type": "integer", "name": "timeoutSeconds", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.DeleteResponse"}}}}
        },
        "/api/v1/namespaces/{namespace}/mpijobs/{name}/status": {
            "get": {"tags": ["mpijobs"], "summary": "Get the derived status of an MPIJob",
                "parameters": [
                    {"type": "string", "name": "namespace", "in": "path", "required": true},
                    {"type": "string", "name": "name", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.JobStatusResponse"}}}}
        },
        "/api/v1/namespaces/{namespace}/mpijobs/{name}/events": {
            "get": {"tags": ["mpijobs"], "summary": "Stream phase changes of an MPIJob",
                "produces": ["application/x-ndjson"],
                "parameters": [
                    {"type": "string", "name": "namespace", "in": "path", "required": true},
                    {"type": "string", "name": "name", "in": "path", "required": true},
                    {"type": "integer", "name": "pollSeconds", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.PhaseEvent"}}}}
        },
        "/api/v1/namespaces/{namespace}/mpijobs/{name}/logs": {
            "get": {"tags": ["mpijobs"], "summary": "Read pod logs of an MPIJob",
                "parameters": [
                    {"type": "string", "name": "namespace", "in": "path", "required": true},
                    {"type": "string", "name": "name", "in": "path", "required": true},
                    {"type": "string", "name": "worker", "in": "query"},
                    {"type": "string", "name": "container", "in": "query"},
                    {"type": "integer", "name": "tailLines", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.LogsResponse"}}}}
        }
    },
    "definitions": {
        "types.ErrorResponse": {"type": "object", "properties": {
            "error": {"type": "string"}, "code": {"type": "integer"}}},
        "types.CreateJobRequest": {"type": "object", "properties": {
            "name": {"type": "string"}, "worker": {"type": "object"}, "launcher": {"type": "object"},
            "mpiImplementation": {"type": "string"}, "slotsPerWorker": {"type": "integer"},
            "runPolicy": {"type": "object"}, "networkPolicy": {"type": "object"},
            "document": {"type": "object"}, "dryRun": {"type": "boolean"}}},
        "types.JobSummary": {"type": "object", "properties": {
            "name": {"type": "string"}, "namespace": {"type": "string"}, "phase": {"type": "string"},
            "workers": {"type": "integer"}, "created": {"type": "string"}}},
        "types.JobListResponse": {"type": "object", "properties": {
            "items": {"type": "array", "items": {"$ref": "#/definitions/types.JobSummary"}}}},
        "types.JobStatusResponse": {"type": "object", "properties": {
            "name": {"type": "string"}, "namespace": {"type": "string"}, "phase": {"type": "string"},
            "replicas": {"type": "object"}, "conditions": {"type": "array", "items": {"type": "object"}},
            "startTime": {"type": "string"}, "completionTime": {"type": "string"},
            "workerResources": {"type": "string"}, "totalResources": {"type": "string"}}},
        "types.DeleteResponse": {"type": "object", "properties": {
            "deleted": {"type": "boolean"}, "message": {"type": "string"}}},
        "types.LogsResponse": {"type": "object", "properties": {
            "logs": {"type": "object", "additionalProperties": {"type": "string"}}}},
        "types.PhaseEvent": {"type": "object", "properties": {
            "name": {"type": "string"}, "phase": {"type": "string"}, "status": {"type": "object"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "mpijobd API",
	Description:      "REST API for creating, monitoring and deleting MPIJobs.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
