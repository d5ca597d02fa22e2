package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/meditrack/internal/db"
	"github.com/terraincognita07/meditrack/internal/security"
	"github.com/terraincognita07/meditrack/internal/storage"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecretKey = "test-secret-key-0123456789abcdef"

type testApp struct {
	app        *fiber.App
	database   *gorm.DB
	uploadsDir string
}

func newTestApp(t *testing.T, adminToken string) testApp {
	t.Helper()

	databasePath := filepath.Join(t.TempDir(), "meditrack-api-test.db")
	database, err := db.OpenSQLite(databasePath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close(database)
	})

	uploadsDir := filepath.Join(t.TempDir(), "uploads")
	images, err := storage.NewFilesystemStore(uploadsDir, storage.UploadsURLPrefix)
	if err != nil {
		t.Fatalf("init image store: %v", err)
	}

	handler, err := NewHandler(Options{
		Database:       database,
		SecretKey:      testSecretKey,
		Location:       time.UTC,
		Images:         images,
		PasswordHasher: security.NewPasswordHasherWithCost("pepper", bcrypt.MinCost),
		AdminToken:     adminToken,
	})
	if err != nil {
		t.Fatalf("init handler: %v", err)
	}

	app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler})
	RegisterRoutes(app, handler)
	app.Use(handler.NotFound)
	return testApp{app: app, database: database, uploadsDir: uploadsDir}
}

func (env testApp) do(t *testing.T, method string, path string, token string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	request := httptest.NewRequest(method, path, reader)
	if body != nil {
		request.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	return env.send(t, request)
}

func (env testApp) send(t *testing.T, request *http.Request) (int, []byte) {
	t.Helper()

	response, err := env.app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", request.Method, request.URL.Path, err)
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return response.StatusCode, payload
}

func (env testApp) register(t *testing.T, email string) string {
	t.Helper()

	status, body := env.do(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"name":     "Test User",
		"email":    email,
		"password": "correct-horse-9",
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s expected 201, got %d: %s", email, status, body)
	}
	var response authResponse
	decodeJSON(t, body, &response)
	if response.Token == "" {
		t.Fatalf("register %s returned an empty token", email)
	}
	return response.Token
}

func (env testApp) createMedicine(t *testing.T, token string, name string) uint {
	t.Helper()

	status, body := env.do(t, http.MethodPost, "/api/medicines", token, fiber.Map{"name": name, "dosage": "500mg"})
	if status != http.StatusCreated {
		t.Fatalf("create medicine expected 201, got %d: %s", status, body)
	}
	var created struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, body, &created)
	return created.ID
}

func (env testApp) createSchedule(t *testing.T, token string, medicineID uint, times ...string) uint {
	t.Helper()

	status, body := env.do(t, http.MethodPost, "/api/schedules", token, fiber.Map{"medicineId": medicineID, "times": times})
	if status != http.StatusCreated {
		t.Fatalf("create schedule expected 201, got %d: %s", status, body)
	}
	var created struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, body, &created)
	return created.ID
}

func decodeJSON(t *testing.T, body []byte, target any) {
	t.Helper()
	if err := json.Unmarshal(body, target); err != nil {
		t.Fatalf("decode response %s: %v", body, err)
	}
}

func readAPIError(t *testing.T, body []byte) string {
	t.Helper()

	payload := map[string]any{}
	decodeJSON(t, body, &payload)
	message, _ := payload["error"].(string)
	return message
}

func multipartMedicineRequest(t *testing.T, method string, path string, token string, fields map[string]string, filename string, contentType string, content []byte) *http.Request {
	t.Helper()

	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	if filename != "" {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, imageFormField, filename))
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("create image part: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("write image part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	request := httptest.NewRequest(method, path, &buffer)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	request.Header.Set("Authorization", "Bearer "+token)
	return request
}
