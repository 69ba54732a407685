package http

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/frontandrew/flighthub/internal/delivery/http/middleware"
	"github.com/frontandrew/flighthub/internal/pkg/jwt"
	"github.com/google/uuid"
)

// CreateAuthContext создает контекст с user_id для тестирования
func CreateAuthContext(t *testing.T, userID uuid.UUID) context.Context {
	t.Helper()
	return middleware.WithClaims(context.Background(), &jwt.Claims{UserID: userID})
}

// decodeResponse разбирает тело ответа в map
func decodeResponse(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatalf("invalid JSON response: %v: %s", err, body)
	}
	return response
}

// AssertSuccess проверяет успешный ответ API
func AssertSuccess(t *testing.T, response map[string]interface{}) {
	t.Helper()
	success, ok := response["success"].(bool)
	if !ok || !success {
		t.Errorf("Expected success=true, got %v", response)
	}
}

// AssertError проверяет ошибочный ответ API с кодом code
func AssertError(t *testing.T, response map[string]interface{}, code string) {
	t.Helper()
	success, ok := response["success"].(bool)
	if !ok || success {
		t.Errorf("Expected success=false, got %v", response)
	}
	if got, _ := response["code"].(string); got != code {
		t.Errorf("Expected code=%s, got %v", code, response["code"])
	}
}
