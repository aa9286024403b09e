package serverutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errGone = errors.New("gone")

type sampleRequest struct {
	Name  string `json:"name" validate:"required"`
	Count int    `json:"count" validate:"gte=1"`
	Kind  string `query:"kind" validate:"omitempty,oneof=a b"`
}

func call(t *testing.T, app *fiber.App, req *http.Request) (int, ErrorBody) {
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body ErrorBody
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &body)
	return resp.StatusCode, body
}

func TestValidateRequest_UsesWireNames(t *testing.T) {
	err := ValidateRequest(sampleRequest{Kind: "c"})
	require.Error(t, err)

	code, msg, details := classify(err, nil)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "3 fields failed validation", msg)

	fields := details.([]FieldError)
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Field)
	}
	assert.ElementsMatch(t, []string{"name", "count", "kind"}, names)
}

func TestValidateRequest_SingleFailureMessage(t *testing.T) {
	err := ValidateRequest(sampleRequest{Count: 1})
	_, msg, _ := classify(err, nil)
	assert.Equal(t, "name failed on required", msg)

	assert.NoError(t, ValidateRequest(sampleRequest{Name: "x", Count: 1, Kind: "b"}))
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware(ErrorStatus{Err: errGone, Code: fiber.StatusGone}))
	app.Get("/fiber", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })
	app.Get("/sentinel", func(c *fiber.Ctx) error { return fmt.Errorf("loading: %w", errGone) })
	app.Get("/other", func(c *fiber.Ctx) error { return errors.New("boom") })
	app.Get("/ok", func(c *fiber.Ctx) error { return c.JSON(SuccessResponse("fine", 1)) })

	code, body := call(t, app, httptest.NewRequest(http.MethodGet, "/fiber", nil))
	assert.Equal(t, fiber.StatusTeapot, code)
	assert.Equal(t, "short and stout", body.Message)
	assert.False(t, body.Success)

	code, body = call(t, app, httptest.NewRequest(http.MethodGet, "/sentinel", nil))
	assert.Equal(t, fiber.StatusGone, code)
	assert.Equal(t, "loading: gone", body.Message)
	assert.Equal(t, fiber.StatusGone, body.Code)

	code, _ = call(t, app, httptest.NewRequest(http.MethodGet, "/other", nil))
	assert.Equal(t, fiber.StatusInternalServerError, code)

	code, _ = call(t, app, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, fiber.StatusOK, code)
}

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return tok
}

func TestJwtMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/me", NewJwtMiddleware("secret"), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user_id").(string))
	})

	user := uuid.NewString()
	valid := sign(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{"user_id": user})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+valid)
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, user, string(raw))

	code, _ := call(t, app, httptest.NewRequest(http.MethodGet, "/me?token="+valid, nil))
	assert.Equal(t, fiber.StatusOK, code, "query token is accepted for websocket upgrades")

	cases := map[string]string{
		"missing":      "",
		"wrong secret": sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"user_id": user}),
		"expired": sign(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{
			"user_id": user,
			"exp":     time.Now().Add(-time.Minute).Unix(),
		}),
		"not a uuid":   sign(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{"user_id": "bob"}),
		"no user":      sign(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{"sub": user}),
		"other method": sign(t, jwt.SigningMethodHS512, []byte("secret"), jwt.MapClaims{"user_id": user}),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tok != "" {
				req.Header.Set("Authorization", "Bearer "+tok)
			}
			code, body := call(t, app, req)
			assert.Equal(t, fiber.StatusUnauthorized, code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestTabSessionMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/tab", TabSessionMiddleware, func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("tab_session").(uuid.UUID).String())
	})

	tab := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/tab", nil)
	req.Header.Set(TabSessionHeader, tab)
	code, _ := call(t, app, req)
	assert.Equal(t, fiber.StatusOK, code)

	code, _ = call(t, app, httptest.NewRequest(http.MethodGet, "/tab?tab="+tab, nil))
	assert.Equal(t, fiber.StatusOK, code)

	code, body := call(t, app, httptest.NewRequest(http.MethodGet, "/tab", nil))
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Missing tab session", body.Message)

	code, body = call(t, app, httptest.NewRequest(http.MethodGet, "/tab?tab=nope", nil))
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Invalid tab session", body.Message)
}
