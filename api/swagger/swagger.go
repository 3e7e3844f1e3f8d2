package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Scolendar API",
        "description": "Academic calendar occupancy scheduling",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Occupancies", "description": "Bookings of classrooms, classes, groups and teachers"},
        {"name": "Classrooms", "description": "Bookable rooms"},
        {"name": "Classes", "description": "Student cohorts"},
        {"name": "Teachers", "description": "Teaching staff directory"},
        {"name": "Subjects", "description": "Subjects, their teachers and their bookings"},
        {"name": "Students", "description": "Student enrolment in classes and groups"}
    ],
    "paths": {
        "/occupancies": {
            "get": {
                "tags": ["Occupancies"],
                "summary": "List occupancies grouped by day",
                "parameters": [
                    {"$ref": "#/parameters/start"},
                    {"$ref": "#/parameters/end"},
                    {"$ref": "#/parameters/perDay"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Occupancies"],
                "summary": "Book a standalone occupancy",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateOccupancyRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Conflict or invalid booking", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Occupancies"],
                "summary": "Delete several occupancies, all or none",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BatchIDsRequest"}}
                ],
                "responses": {"204": {"description": "Deleted"}, "404": {"description": "Unknown occupancy"}}
            }
        },
        "/occupancies/export": {
            "get": {
                "tags": ["Occupancies"],
                "summary": "Export occupancies as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"$ref": "#/parameters/start"},
                    {"$ref": "#/parameters/end"}
                ],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/occupancies/check": {
            "post": {
                "tags": ["Occupancies"],
                "summary": "Preview a booking without saving it",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateOccupancyRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/occupancies/check/batch": {
            "post": {
                "tags": ["Occupancies"],
                "summary": "Preview several bookings against storage and each other",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CheckBatchRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/occupancies/{id}": {
            "put": {
                "tags": ["Occupancies"],
                "summary": "Move, resize or rename an occupancy",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateOccupancyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Modified concurrently"},
                    "422": {"description": "Conflict"}
                }
            },
            "delete": {
                "tags": ["Occupancies"],
                "summary": "Delete an occupancy",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/classrooms": {
            "get": {
                "tags": ["Classrooms"],
                "summary": "List classrooms",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Classrooms"],
                "summary": "Create classroom",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateClassroomRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Name taken"}}
            },
            "delete": {
                "tags": ["Classrooms"],
                "summary": "Delete classrooms not used by any occupancy",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BatchIDsRequest"}}
                ],
                "responses": {"204": {"description": "Deleted"}, "422": {"description": "ClassroomUsed"}}
            }
        },
        "/classrooms/{id}": {
            "get": {
                "tags": ["Classrooms"],
                "summary": "Get classroom",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Classrooms"],
                "summary": "Rename classroom",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateClassroomRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/classrooms/{id}/occupancies": {
            "get": {
                "tags": ["Classrooms"],
                "summary": "List the occupancies of a classroom",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"$ref": "#/parameters/start"},
                    {"$ref": "#/parameters/end"},
                    {"$ref": "#/parameters/perDay"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/classes": {
            "get": {
                "tags": ["Classes"],
                "summary": "List classes",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Classes"],
                "summary": "Create class",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/classes/{id}/occupancies": {
            "get": {
                "tags": ["Classes"],
                "summary": "List the occupancies of a class",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"$ref": "#/parameters/start"},
                    {"$ref": "#/parameters/end"},
                    {"$ref": "#/parameters/perDay"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/teachers": {
            "get": {
                "tags": ["Teachers"],
                "summary": "List teachers",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Teachers"],
                "summary": "Create teacher",
                "responses": {"201": {"description": "Created"}, "409": {"description": "Email taken"}}
            }
        },
        "/teachers/{id}/occupancies": {
            "get": {
                "tags": ["Teachers"],
                "summary": "List the occupancies of a teacher",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"$ref": "#/parameters/start"},
                    {"$ref": "#/parameters/end"},
                    {"$ref": "#/parameters/perDay"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/subjects": {
            "get": {
                "tags": ["Subjects"],
                "summary": "List subjects",
                "parameters": [
                    {"name": "class_id", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Subjects"],
                "summary": "Create subject",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/subjects/{id}/teachers": {
            "post": {
                "tags": ["Subjects"],
                "summary": "Add teachers to a subject",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Added"}}
            },
            "delete": {
                "tags": ["Subjects"],
                "summary": "Remove teachers from a subject, all or none",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Removed"}, "422": {"description": "TeacherInCharge or InsufficientTeachers"}}
            }
        },
        "/subjects/{id}/occupancies": {
            "get": {
                "tags": ["Subjects"],
                "summary": "List the occupancies of a subject",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"$ref": "#/parameters/start"},
                    {"$ref": "#/parameters/end"},
                    {"$ref": "#/parameters/perDay"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Teacher not assigned to the subject"}}
            },
            "post": {
                "tags": ["Subjects"],
                "summary": "Book a whole-class occupancy of a subject",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateOccupancyRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "422": {"description": "Conflict"}}
            }
        },
        "/subjects/{id}/groups/{group}/occupancies": {
            "post": {
                "tags": ["Subjects"],
                "summary": "Book a group occupancy of a subject",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "group", "in": "path", "required": true, "type": "integer", "minimum": 1},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateOccupancyRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "422": {"description": "Conflict"}}
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "class_id", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Students"],
                "summary": "Enrol student",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Email taken"}}
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Delete students, all or none",
                "responses": {"204": {"description": "Deleted"}, "404": {"description": "InvalidID"}}
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student with subjects and hours",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Students"],
                "summary": "Update student names, class or group",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "InvalidID"}}
            }
        },
        "/students/{id}/subjects": {
            "get": {
                "tags": ["Students"],
                "summary": "List the subjects of a student's class",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/students/{id}/occupancies": {
            "get": {
                "tags": ["Students"],
                "summary": "List the whole-class and group occupancies a student attends",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"$ref": "#/parameters/start"},
                    {"$ref": "#/parameters/end"},
                    {"$ref": "#/parameters/perDay"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "parameters": {
        "start": {"name": "start", "in": "query", "type": "integer", "description": "Lower bound on start, unix seconds"},
        "end": {"name": "end", "in": "query", "type": "integer", "description": "Upper bound on end, unix seconds"},
        "perDay": {"name": "occupancies_per_day", "in": "query", "type": "integer", "description": "Cap per day, 0 for unlimited"}
    },
    "definitions": {
        "CreateStudentRequest": {
            "type": "object",
            "required": ["first_name", "last_name", "email", "class_id"],
            "properties": {
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "email": {"type": "string"},
                "class_id": {"type": "string"},
                "group_number": {"type": "integer", "minimum": 0}
            }
        },
        "CreateOccupancyRequest": {
            "type": "object",
            "required": ["classroom_id", "name", "occupancy_type"],
            "properties": {
                "subject_id": {"type": "string"},
                "classroom_id": {"type": "string"},
                "teacher_id": {"type": "string"},
                "group_number": {"type": "integer"},
                "start": {"type": "integer"},
                "end": {"type": "integer"},
                "name": {"type": "string"},
                "occupancy_type": {"type": "string"}
            }
        },
        "UpdateOccupancyRequest": {
            "type": "object",
            "properties": {
                "classroom_id": {"type": "string"},
                "start": {"type": "integer"},
                "end": {"type": "integer"},
                "name": {"type": "string"}
            }
        },
        "CheckBatchRequest": {
            "type": "object",
            "properties": {
                "occupancies": {"type": "array", "items": {"$ref": "#/definitions/CreateOccupancyRequest"}}
            }
        },
        "BatchIDsRequest": {
            "type": "object",
            "properties": {
                "ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "CreateClassroomRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "capacity": {"type": "integer"}
            }
        },
        "UpdateClassroomRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"}
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
                "status": {"type": "string"},
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
