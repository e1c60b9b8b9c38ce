package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "University Portal API",
        "description": "Admissions lifecycle, credential issuance and appointment workflows",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Portal login and account self-service"},
        {"name": "Admissions", "description": "Application lifecycle and staff review"},
        {"name": "Provisioning", "description": "Student credential issuance"},
        {"name": "Hiring", "description": "Office head and lecturer appointments"},
        {"name": "Catalogs", "description": "Office, module and program catalogs"},
        {"name": "Users", "description": "Admin account directory"}
    ],
    "paths": {
        "/auth/{portal}/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Portal login",
                "parameters": [
                    {"name": "portal", "in": "path", "required": true, "type": "string", "enum": ["student", "lecturer", "staff", "admin"]},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"},
                    "403": {"description": "Wrong portal for this account"}
                }
            }
        },
        "/auth/signup": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Applicant signup",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SignupRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Username taken"}
                }
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Change own password",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admissions/apply": {
            "post": {
                "tags": ["Admissions"],
                "summary": "Start an application",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApplyRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created, one-time reference credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Allocation failed, retry"}
                }
            }
        },
        "/admissions": {
            "get": {
                "tags": ["Admissions"],
                "summary": "List applications",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "program", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admissions/stats": {
            "get": {
                "tags": ["Admissions"],
                "summary": "Queue counts by status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admissions/export": {
            "get": {
                "tags": ["Admissions"],
                "summary": "CSV export of the review queue",
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV payload"}
                }
            }
        },
        "/admissions/{id}": {
            "get": {
                "tags": ["Admissions"],
                "summary": "Get application",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/admissions/{id}/documents": {
            "put": {
                "tags": ["Admissions"],
                "summary": "Update document flags",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DocumentUpdateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Locked after submission"}
                }
            }
        },
        "/admissions/{id}/submit": {
            "post": {
                "tags": ["Admissions"],
                "summary": "Finalize application",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Documents incomplete"}
                }
            }
        },
        "/admissions/{id}/review": {
            "post": {
                "tags": ["Admissions"],
                "summary": "Move into review",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Invalid transition"}
                }
            }
        },
        "/admissions/{id}/decision": {
            "post": {
                "tags": ["Admissions"],
                "summary": "Approve or reject",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DecisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Invalid transition"},
                    "503": {"description": "Allocation failed, retry"}
                }
            }
        },
        "/admissions/{id}/issue-access": {
            "post": {
                "tags": ["Provisioning"],
                "summary": "Issue portal access",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/IssueAccessRequest"}}
                ],
                "responses": {
                    "200": {"description": "One-time credential payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Not approved or account mismatched"},
                    "503": {"description": "Issuance failed, retry"}
                }
            }
        },
        "/admissions/{id}/offer-letter": {
            "get": {
                "tags": ["Provisioning"],
                "summary": "Download offer letter",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF payload"}
                }
            }
        },
        "/hiring/staff": {
            "post": {
                "tags": ["Hiring"],
                "summary": "Appoint office head",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/HireStaffRequest"}}
                ],
                "responses": {
                    "201": {"description": "One-time credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Active holder exists"}
                }
            }
        },
        "/hiring/lecturers": {
            "post": {
                "tags": ["Hiring"],
                "summary": "Appoint lecturer",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/HireLecturerRequest"}}
                ],
                "responses": {
                    "201": {"description": "One-time credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Active holder exists"}
                }
            }
        },
        "/hiring/staff/{office}/deactivate": {
            "post": {
                "tags": ["Hiring"],
                "summary": "Stop office head access",
                "parameters": [
                    {"name": "office", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Nothing active"}
                }
            }
        },
        "/hiring/lecturers/{module}/deactivate": {
            "post": {
                "tags": ["Hiring"],
                "summary": "Stop lecturer access",
                "parameters": [
                    {"name": "module", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Nothing active"}
                }
            }
        },
        "/catalogs/offices": {
            "get": {
                "tags": ["Catalogs"],
                "summary": "Office catalog",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/catalogs/modules": {
            "get": {
                "tags": ["Catalogs"],
                "summary": "Module catalog",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/catalogs/programs": {
            "get": {
                "tags": ["Catalogs"],
                "summary": "Program catalog",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List accounts",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["username", "password"]
        },
        "SignupRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"},
                "email": {"type": "string"},
                "full_name": {"type": "string"}
            },
            "required": ["username", "password", "email", "full_name"]
        },
        "ApplyRequest": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "program": {"type": "string"}
            },
            "required": ["full_name", "email", "phone", "program"]
        },
        "DocumentUpdateRequest": {
            "type": "object",
            "properties": {
                "doc_id_verified": {"type": "boolean"},
                "doc_transcript_verified": {"type": "boolean"},
                "doc_recommendation_verified": {"type": "boolean"}
            }
        },
        "DecisionRequest": {
            "type": "object",
            "properties": {
                "decision": {"type": "string", "enum": ["approve", "reject"]},
                "auto_provision": {"type": "boolean"}
            },
            "required": ["decision"]
        },
        "IssueAccessRequest": {
            "type": "object",
            "properties": {
                "reset_secret": {"type": "boolean"}
            }
        },
        "HireStaffRequest": {
            "type": "object",
            "properties": {
                "office_code": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "surname": {"type": "string"},
                "allow_replace": {"type": "boolean"}
            },
            "required": ["office_code", "first_name", "last_name"]
        },
        "HireLecturerRequest": {
            "type": "object",
            "properties": {
                "module_code": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "surname": {"type": "string"},
                "allow_replace": {"type": "boolean"}
            },
            "required": ["module_code", "first_name", "last_name"]
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
