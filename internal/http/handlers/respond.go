package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// FieldError is one violated constraint, named by JSON field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Every response body uses the same envelope:
// {success, message?, data?, errors?} plus count on list payloads.

func RespondData(ctx *gin.Context, status int, message string, data interface{}) {
	body := gin.H{"success": true}

	if message != "" {
		body["message"] = message
	}

	if data != nil {
		body["data"] = data
	}

	ctx.JSON(status, body)
}

func RespondList(ctx *gin.Context, count int, data interface{}) {
	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   count,
		"data":    data,
	})
}

func RespondError(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

func RespondValidation(ctx *gin.Context, errors []FieldError) {
	ctx.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": "Validation error",
		"errors":  errors,
	})
}

func RespondBadRequest(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusBadRequest, message)
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, message)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, message)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, message)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, message)
}
