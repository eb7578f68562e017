package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timify Bridge API",
        "description": "Links course blocks to timed assessments on timify.me",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Blocks", "description": "Student view and studio configuration"},
        {"name": "Roster", "description": "Instructor score roster"}
    ],
    "paths": {
        "/courses/{courseId}/blocks/{blockId}/view": {
            "get": {
                "tags": ["Blocks"],
                "summary": "Render context of a block for the caller",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "blockId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/StudentViewEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{courseId}/blocks/{blockId}/settings": {
            "get": {
                "tags": ["Blocks"],
                "summary": "Get block settings (staff)",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "blockId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{courseId}/blocks/{blockId}/studio_submit": {
            "post": {
                "tags": ["Blocks"],
                "summary": "Save block configuration (staff)",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "blockId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateBlockSettingsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ActionResult"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{courseId}/blocks/{blockId}/show_score": {
            "post": {
                "tags": ["Roster"],
                "summary": "Aggregate scores and lateness of every enrolled student (staff)",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "blockId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ShowScoreResponse"}}
                }
            }
        },
        "/courses/{courseId}/blocks/{blockId}/roster/export": {
            "get": {
                "tags": ["Roster"],
                "summary": "Download the roster (staff)",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "blockId", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Document", "schema": {"type": "file"}},
                    "412": {"description": "Form has no links yet", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Assessment service unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{courseId}/forms": {
            "get": {
                "tags": ["Blocks"],
                "summary": "List assessment forms for the studio picker (staff)",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "StudentView": {
            "type": "object",
            "properties": {
                "display_name": {"type": "string"},
                "is_course_staff": {"type": "boolean"},
                "configured": {"type": "boolean"},
                "id_form": {"type": "string"},
                "degraded": {"type": "boolean"},
                "timify": {"type": "boolean"},
                "expired": {"type": "boolean"},
                "done": {"type": "boolean"},
                "link": {"type": "string"},
                "name_link": {"type": "string"},
                "score": {"type": "string"},
                "late": {"type": "string", "enum": ["Yes", "No", "Sin Registros"]}
            }
        },
        "StudentViewEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/StudentView"},
                "meta": {"type": "object"}
            }
        },
        "UpdateBlockSettingsRequest": {
            "type": "object",
            "properties": {
                "display_name": {"type": "string"},
                "duration": {"type": "string", "description": "Link lifetime in seconds; numbers are accepted too"},
                "autoclose": {"type": "string", "enum": ["Si", "No"]},
                "idform": {"type": "string"},
                "due": {"type": "string", "format": "date-time", "description": "omit to keep, null to clear"},
                "grace_period_seconds": {"type": "integer", "description": "omit to keep, null to clear"}
            }
        },
        "ActionResult": {
            "type": "object",
            "properties": {
                "result": {"type": "string"}
            }
        },
        "ShowScoreResponse": {
            "type": "object",
            "properties": {
                "result": {"type": "string", "enum": ["success", "error", "error2"]},
                "list_student": {
                    "type": "array",
                    "description": "Rows of [user_id, username, email, label, score, late]",
                    "items": {"type": "array", "items": {"type": "string"}}
                }
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
