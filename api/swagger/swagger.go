package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Class Registration API",
        "description": "Enrollment, waitlist and suspension engine for recurring class sessions",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Enrollments", "description": "Seats, waitlist and cancellations"},
        {"name": "Attendance", "description": "Staff-entered presence and absence"},
        {"name": "Suspensions", "description": "Penalty ledger administration"}
    ],
    "paths": {
        "/classes/{classId}/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Class roster: confirmed seats and ordered waitlist",
                "parameters": [
                    {"name": "classId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll a student into a class session",
                "parameters": [
                    {"name": "classId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/EnrollBody"}}
                ],
                "responses": {
                    "201": {"description": "Created (confirmed or waitlisted)"},
                    "403": {"description": "Student suspended"},
                    "409": {"description": "Duplicate enrollment or concurrent conflict"},
                    "412": {"description": "Enrollment window closed"}
                }
            }
        },
        "/enrollments/{id}": {
            "delete": {
                "tags": ["Enrollments"],
                "summary": "Self-service cancellation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Cancelled; includes suspension and promotion outcome"},
                    "409": {"description": "Already cancelled"}
                }
            }
        },
        "/enrollments/{id}/review-cancel": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Staff cancel with explicit notice review",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewCancelRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/enrollments/{id}/attendance": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark presence or absence for a confirmed enrollment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AttendanceBody"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "412": {"description": "Not a confirmed enrollment or attendance already recorded"}
                }
            }
        },
        "/students/{studentId}/suspensions": {
            "get": {
                "tags": ["Suspensions"],
                "summary": "Suspension history for a student",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/suspensions/{id}/revoke": {
            "post": {
                "tags": ["Suspensions"],
                "summary": "Revoke a suspension early",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/suspensions/{id}/period": {
            "put": {
                "tags": ["Suspensions"],
                "summary": "Edit a suspension's end timestamp",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EditPeriodBody"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "EnrollBody": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string", "description": "Staff-only override; students always enroll themselves"}
            }
        },
        "ReviewCancelRequest": {
            "type": "object",
            "required": ["reason"],
            "properties": {
                "reason": {"type": "string", "enum": ["LATE_CANCEL", "SHORT_NOTICE_CANCEL", "NO_SHOW", "NONE"]}
            }
        },
        "AttendanceBody": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["present", "absent"]}
            }
        },
        "EditPeriodBody": {
            "type": "object",
            "required": ["end_at"],
            "properties": {
                "end_at": {"type": "string", "format": "date-time"}
            }
        }
    }
}`

// SwaggerInfo holds exported swagger registration metadata.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "Class Registration API",
	Description:      "Enrollment, waitlist and suspension engine for recurring class sessions",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
