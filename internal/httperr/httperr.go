package httperr

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HTTPError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

// ======================================================
// BUSINESS ERRORS → HTTP
// ======================================================

var kindStatus = map[Kind]int{
	KindValidation:  http.StatusBadRequest,
	KindConflict:    http.StatusConflict,
	KindReferential: http.StatusConflict,
	KindTransport:   http.StatusServiceUnavailable,
	KindPermission:  http.StatusUnauthorized,
	KindNotFound:    http.StatusNotFound,
}

var kindMessage = map[Kind]string{
	KindValidation:  "Dados inválidos.",
	KindConflict:    "Conflito de horário.",
	KindReferential: "Registro em uso por outros dados.",
	KindTransport:   "Serviço temporariamente indisponível. Tente novamente.",
	KindPermission:  "Acesso não autorizado.",
	KindNotFound:    "Registro não encontrado.",
}

func StatusOf(err error) int {
	if be, ok := As(err); ok {
		if st, ok := kindStatus[be.Kind]; ok {
			return st
		}
	}
	return http.StatusInternalServerError
}

// Respond writes err using its business kind, or a generic 500 with
// fallbackCode when err is not a BusinessError.
func Respond(c *gin.Context, err error, fallbackCode string) {
	be, ok := As(err)
	if !ok {
		Internal(c, fallbackCode, "Erro interno.")
		return
	}

	c.JSON(StatusOf(err), HTTPError{
		Code:       be.Code,
		Message:    kindMessage[be.Kind],
		Suggestion: be.Suggestion,
	})
}
