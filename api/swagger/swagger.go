package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Impact Track API",
        "description": "Impact report ingestion with asynchronous bulk imports",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Reports", "description": "Synchronous report submission"},
        {"name": "Imports", "description": "Asynchronous bulk CSV imports"},
        {"name": "Dashboard", "description": "Aggregate period statistics"},
        {"name": "Exports", "description": "Period report downloads"}
    ],
    "paths": {
        "/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Submit a single impact report",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitReportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate (organizationId, period)", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/imports": {
            "post": {
                "tags": ["Imports"],
                "summary": "Accept a bulk CSV import",
                "consumes": ["text/plain", "multipart/form-data"],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Empty payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "Payload exceeds the import size limit", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Imports"],
                "summary": "List recent import jobs",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/imports/{id}": {
            "get": {
                "tags": ["Imports"],
                "summary": "Poll an import job snapshot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/stats": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Aggregate stats for one period",
                "parameters": [
                    {"name": "period", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/monthly": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download one period's reports as CSV or PDF",
                "parameters": [
                    {"name": "period", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        }
    },
    "definitions": {
        "SubmitReportRequest": {
            "type": "object",
            "properties": {
                "organizationId": {"type": "string"},
                "period": {"type": "string", "example": "2024-03"},
                "peopleHelped": {"type": "integer"},
                "eventsConducted": {"type": "integer"},
                "fundsUtilized": {"type": "number"}
            },
            "required": ["organizationId", "period"]
        },
        "ImportStatus": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "processing", "completed", "failed"]},
                "totalRows": {"type": "integer"},
                "processedRows": {"type": "integer"},
                "successfulRows": {"type": "integer"},
                "failedRows": {"type": "integer"},
                "errors": {"type": "array", "items": {"type": "string"}},
                "createdAt": {"type": "string"},
                "finishedAt": {"type": "string"}
            }
        },
        "PeriodStats": {
            "type": "object",
            "properties": {
                "period": {"type": "string"},
                "organizationCount": {"type": "integer"},
                "totalPeopleHelped": {"type": "integer"},
                "totalEvents": {"type": "integer"},
                "totalFunds": {"type": "number"},
                "reportCount": {"type": "integer"}
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
