// Package docs holds the OpenAPI description served under /api/swagger.
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
        "/health": {
            "get": {"tags": ["health"], "summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}
        },
        "/projects": {
            "get": {
                "tags": ["projects"], "summary": "List projects", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Project"}}}}
            },
            "post": {
                "tags": ["projects"], "summary": "Create a project",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "project", "required": true, "schema": {"$ref": "#/definitions/handlers.createProjectRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Project"}},
                    "400": {"description": "Invalid request format", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "422": {"description": "Validation failed", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/projects/{projectId}": {
            "get": {
                "tags": ["projects"], "summary": "Get a project", "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/projectId"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Project"}},
                    "400": {"description": "Invalid UUID", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/projects/{projectId}/ifc_models": {
            "get": {
                "tags": ["ifc_models"], "summary": "List IFC models", "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/projectId"}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.IFCModel"}}}}
            },
            "post": {
                "tags": ["ifc_models"], "summary": "Upload an IFC model",
                "consumes": ["multipart/form-data"], "produces": ["application/json"],
                "parameters": [
                    {"$ref": "#/parameters/projectId"},
                    {"in": "formData", "name": "title", "type": "string", "required": true},
                    {"in": "formData", "name": "ifc_attachment", "type": "file", "required": true},
                    {"in": "formData", "name": "is_default", "type": "boolean"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.IFCModel"}},
                    "422": {"description": "Validation failed", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/projects/{projectId}/ifc_models/defaults": {
            "get": {
                "tags": ["ifc_models"], "summary": "Provision the default models", "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/projectId"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ProvisioningPayload"}},
                    "302": {"description": "Project has no models"}
                }
            }
        },
        "/projects/{projectId}/ifc_models/{id}": {
            "get": {
                "tags": ["ifc_models"], "summary": "Provision one model", "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/projectId"}, {"$ref": "#/parameters/id"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ProvisioningPayload"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            },
            "put": {
                "tags": ["ifc_models"], "summary": "Update an IFC model",
                "consumes": ["multipart/form-data"], "produces": ["application/json"],
                "parameters": [
                    {"$ref": "#/parameters/projectId"}, {"$ref": "#/parameters/id"},
                    {"in": "formData", "name": "title", "type": "string"},
                    {"in": "formData", "name": "ifc_attachment", "type": "file"},
                    {"in": "formData", "name": "is_default", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.IFCModel"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "422": {"description": "Validation failed", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            },
            "delete": {
                "tags": ["ifc_models"], "summary": "Delete an IFC model",
                "parameters": [{"$ref": "#/parameters/projectId"}, {"$ref": "#/parameters/id"}],
                "responses": {"204": {"description": "Deleted or already gone"}}
            }
        },
        "/projects/{projectId}/ifc_models/{id}/reconvert": {
            "post": {
                "tags": ["ifc_models"], "summary": "Reconvert an IFC model", "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/projectId"}, {"$ref": "#/parameters/id"}],
                "responses": {"202": {"description": "Accepted", "schema": {"$ref": "#/definitions/models.IFCModel"}}}
            }
        },
        "/projects/{projectId}/ifc_models/{id}/conversion": {
            "post": {
                "tags": ["ifc_models"], "summary": "Report a finished conversion",
                "description": "Both artifacts must already be stored as attachments. Results for a superseded generation are accepted and dropped.",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [
                    {"$ref": "#/parameters/projectId"}, {"$ref": "#/parameters/id"},
                    {"in": "body", "name": "result", "required": true, "schema": {"$ref": "#/definitions/handlers.conversionCallback"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.IFCModel"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "422": {"description": "Validation failed", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/attachments": {
            "post": {
                "tags": ["attachments"], "summary": "Upload an attachment",
                "consumes": ["multipart/form-data"], "produces": ["application/json"],
                "parameters": [{"in": "formData", "name": "file", "type": "file", "required": true}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Attachment"}}}
            }
        },
        "/attachments/{id}/download": {
            "get": {
                "tags": ["attachments"], "summary": "Download an attachment", "produces": ["application/octet-stream"],
                "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/cache/stats": {
            "get": {"tags": ["cache"], "summary": "Get cache statistics", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/cache": {
            "delete": {"tags": ["cache"], "summary": "Clear the artifact cache", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        }
    },
    "parameters": {
        "projectId": {"in": "path", "name": "projectId", "type": "string", "format": "uuid", "required": true},
        "id": {"in": "path", "name": "id", "type": "string", "format": "uuid", "required": true}
    },
    "definitions": {
        "handlers.errorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "boolean"},
                "message": {"type": "string"},
                "errors": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}}
            }
        },
        "handlers.createProjectRequest": {
            "type": "object",
            "properties": {"identifier": {"type": "string"}, "name": {"type": "string"}}
        },
        "handlers.conversionCallback": {
            "type": "object",
            "properties": {
                "generation": {"type": "integer"},
                "geometry_attachment_id": {"type": "string", "format": "uuid"},
                "metadata_attachment_id": {"type": "string", "format": "uuid"}
            }
        },
        "models.Project": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "format": "uuid"},
                "identifier": {"type": "string"},
                "name": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "models.Attachment": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "format": "uuid"},
                "filename": {"type": "string"},
                "content_type": {"type": "string"},
                "size": {"type": "integer"},
                "storage_key": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "models.IFCModel": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "format": "uuid"},
                "project_id": {"type": "string", "format": "uuid"},
                "title": {"type": "string"},
                "raw_attachment_id": {"type": "string", "format": "uuid"},
                "geometry_attachment_id": {"type": "string", "format": "uuid"},
                "metadata_attachment_id": {"type": "string", "format": "uuid"},
                "is_default": {"type": "boolean"},
                "generation": {"type": "integer"},
                "conversion_queued": {"type": "boolean"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "models.ViewerModel": {
            "type": "object",
            "properties": {"id": {"type": "string", "format": "uuid"}, "name": {"type": "string"}, "default": {"type": "boolean"}}
        },
        "models.ViewerProject": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "name": {"type": "string"}}
        },
        "models.ProvisioningPayload": {
            "type": "object",
            "properties": {
                "models": {"type": "array", "items": {"$ref": "#/definitions/models.ViewerModel"}},
                "projects": {"type": "array", "items": {"$ref": "#/definitions/models.ViewerProject"}},
                "geometryArtifactIds": {"type": "object", "additionalProperties": {"type": "string", "format": "uuid"}},
                "metadataArtifactIds": {"type": "object", "additionalProperties": {"type": "string", "format": "uuid"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "IFC Model Service",
	Description:      "Uploads IFC models, converts them to viewer artifacts and provisions viewer payloads.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
