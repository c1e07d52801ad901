// Package docs registers the OpenAPI description served at /swagger.
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
        "/component-types": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["component-types"],
                "summary": "Типы компонентов",
                "responses": {
                    "200": {"description": "Справочник", "schema": {"$ref": "#/definitions/http.successResponse"}},
                    "500": {"description": "Внутренняя ошибка сервера", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/bikes/{bikeId}/components": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["components"],
                "summary": "Список компонентов",
                "parameters": [
                    {"type": "string", "name": "bikeId", "in": "path", "required": true},
                    {"type": "boolean", "name": "activeOnly", "in": "query"},
                    {"type": "number", "name": "currentDistance", "in": "query"},
                    {"type": "integer", "name": "warnAt", "in": "query"},
                    {"type": "integer", "name": "criticalAt", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Список компонентов", "schema": {"$ref": "#/definitions/http.successResponse"}},
                    "404": {"description": "Байк не найден", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["components"],
                "summary": "Установить компонент",
                "parameters": [
                    {"type": "string", "name": "bikeId", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.InstallComponentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Компонент установлен", "schema": {"$ref": "#/definitions/http.successResponse"}},
                    "400": {"description": "Неверный запрос", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "404": {"description": "Байк или тип не найден", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/bikes/{bikeId}/components/page": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["components"],
                "summary": "Постраничный список компонентов",
                "parameters": [
                    {"type": "string", "name": "bikeId", "in": "path", "required": true},
                    {"type": "boolean", "name": "activeOnly", "in": "query"},
                    {"type": "string", "name": "typeKey", "in": "query"},
                    {"type": "string", "name": "position", "in": "query"},
                    {"type": "string", "name": "labelLike", "in": "query"},
                    {"type": "string", "name": "sort", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Страница компонентов", "schema": {"$ref": "#/definitions/http.successResponse"}},
                    "400": {"description": "Неверный запрос", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/bikes/{bikeId}/components/metrics": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["components"],
                "summary": "Износ компонентов",
                "parameters": [
                    {"type": "string", "name": "bikeId", "in": "path", "required": true},
                    {"type": "boolean", "name": "activeOnly", "in": "query"},
                    {"type": "integer", "name": "warnAt", "in": "query"},
                    {"type": "integer", "name": "criticalAt", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Метрики", "schema": {"$ref": "#/definitions/http.successResponse"}},
                    "404": {"description": "Байк не найден", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/bikes/{bikeId}/components/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["components"],
                "summary": "Получить компонент",
                "parameters": [
                    {"type": "string", "name": "bikeId", "in": "path", "required": true},
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "number", "name": "currentDistance", "in": "query"},
                    {"type": "integer", "name": "warnAt", "in": "query"},
                    {"type": "integer", "name": "criticalAt", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Компонент найден", "schema": {"$ref": "#/definitions/http.successResponse"}},
                    "404": {"description": "Компонент не найден", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["components"],
                "summary": "Обновить компонент",
                "parameters": [
                    {"type": "string", "name": "bikeId", "in": "path", "required": true},
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.UpdateComponentRequest"}}
                ],
                "responses": {
                    "200": {"description": "Компонент обновлен", "schema": {"$ref": "#/definitions/http.successResponse"}},
                    "404": {"description": "Компонент не найден", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["lifecycle"],
                "summary": "Снять компонент",
                "parameters": [
                    {"type": "string", "name": "bikeId", "in": "path", "required": true},
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "schema": {"$ref": "#/definitions/http.RemoveRequest"}}
                ],
                "responses": {
                    "200": {"description": "Компонент снят", "schema": {"$ref": "#/definitions/http.successResponse"}},
                    "404": {"description": "Компонент не найден", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/bikes/{bikeId}/components/{id}/installation": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["lifecycle"],
                "summary": "Изменить данные установки",
                "parameters": [
                    {"type": "string", "name": "bikeId", "in": "path", "required": true},
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.InstallationRequest"}}
                ],
                "responses": {
                    "200": {"description": "Данные обновлены", "schema": {"$ref": "#/definitions/http.successResponse"}},
                    "404": {"description": "Компонент не найден", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/bikes/{bikeId}/components/{id}/restore": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["lifecycle"],
                "summary": "Вернуть компонент",
                "parameters": [
                    {"type": "string", "name": "bikeId", "in": "path", "required": true},
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "schema": {"$ref": "#/definitions/http.RestoreRequest"}}
                ],
                "responses": {
                    "200": {"description": "Компонент возвращен", "schema": {"$ref": "#/definitions/http.successResponse"}},
                    "404": {"description": "Компонент не найден", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/bikes/{bikeId}/components/{id}/hard": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["lifecycle"],
                "summary": "Удалить компонент навсегда",
                "parameters": [
                    {"type": "string", "name": "bikeId", "in": "path", "required": true},
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Компонент удален", "schema": {"$ref": "#/definitions/http.successResponse"}},
                    "404": {"description": "Компонент не найден", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "409": {"description": "Компонент еще установлен", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/bikes/{bikeId}/components/{id}/replace": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["lifecycle"],
                "summary": "Заменить компонент",
                "parameters": [
                    {"type": "string", "name": "bikeId", "in": "path", "required": true},
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "schema": {"$ref": "#/definitions/http.ReplaceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Новый компонент", "schema": {"$ref": "#/definitions/http.successResponse"}},
                    "404": {"description": "Компонент не найден", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/bikes/{bikeId}/components/{id}/history": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["components"],
                "summary": "История компонента",
                "parameters": [
                    {"type": "string", "name": "bikeId", "in": "path", "required": true},
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "История", "schema": {"$ref": "#/definitions/http.successResponse"}},
                    "404": {"description": "Компонент не найден", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "http.errorResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": false},
                "message": {"type": "string", "example": "Component not found"}
            }
        },
        "http.successResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true},
                "message": {"type": "string", "example": "Success"},
                "data": {}
            }
        },
        "http.InstallComponentRequest": {
            "type": "object",
            "required": ["type_key"],
            "properties": {
                "type_key": {"type": "string", "example": "chain"},
                "label": {"type": "string", "example": "KMC X11"},
                "position": {"type": "string", "example": "REAR"},
                "installed_at": {"type": "string", "example": "2025-04-01T10:00:00Z"},
                "installed_distance": {"type": "number", "example": 1200},
                "lifespan_override": {"type": "number", "example": 2500},
                "price": {"type": "number", "example": 39.9},
                "currency": {"type": "string", "example": "EUR"},
                "shop": {"type": "string", "example": "Bike Shop"},
                "receipt_ref": {"type": "string", "example": "INV-2025-001"}
            }
        },
        "http.UpdateComponentRequest": {
            "type": "object",
            "properties": {
                "label": {"type": "string"},
                "position": {"type": "string"},
                "lifespan_override": {"type": "number"},
                "price": {"type": "number"},
                "currency": {"type": "string"},
                "shop": {"type": "string"},
                "receipt_ref": {"type": "string"}
            }
        },
        "http.InstallationRequest": {
            "type": "object",
            "properties": {
                "installed_at": {"type": "string"},
                "installed_distance": {"type": "number"}
            }
        },
        "http.RemoveRequest": {
            "type": "object",
            "properties": {
                "at": {"type": "string"},
                "distance": {"type": "number"}
            }
        },
        "http.RestoreRequest": {
            "type": "object",
            "properties": {
                "at": {"type": "string"}
            }
        },
        "http.ReplaceRequest": {
            "type": "object",
            "properties": {
                "at": {"type": "string"},
                "distance": {"type": "number"},
                "label": {"type": "string"},
                "price": {"type": "number"},
                "currency": {"type": "string"},
                "lifespan_override": {"type": "number"},
                "shop": {"type": "string"},
                "receipt_ref": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8082",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Component Microservice API",
	Description:      "API для учета компонентов байка и их износа",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
