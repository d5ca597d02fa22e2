package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/meditrack/internal/models"
	"github.com/terraincognita07/meditrack/internal/services"
)

func TestMedicineCRUDFlow(t *testing.T) {
	env := newTestApp(t, "")
	token := env.register(t, "meds@example.com")

	id := env.createMedicine(t, token, "Aspirin")

	status, body := env.do(t, http.MethodGet, "/api/medicines", token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected list status 200, got %d: %s", status, body)
	}
	var listed []models.Medicine
	decodeJSON(t, body, &listed)
	if len(listed) != 1 || listed[0].ID != id || listed[0].Type != models.MedicineTablet {
		t.Fatalf("unexpected medicine list %#v", listed)
	}

	status, body = env.do(t, http.MethodPut, "/api/medicines/"+itoa(id), token, fiber.Map{"dosage": "250mg"})
	if status != http.StatusOK {
		t.Fatalf("expected update status 200, got %d: %s", status, body)
	}
	var updated models.Medicine
	decodeJSON(t, body, &updated)
	if updated.Name != "Aspirin" || updated.Dosage != "250mg" {
		t.Fatalf("expected partial update, got %#v", updated)
	}

	status, body = env.do(t, http.MethodDelete, "/api/medicines/"+itoa(id), token, nil)
	if status != http.StatusOK || !strings.Contains(string(body), "Medicine deleted successfully") {
		t.Fatalf("unexpected delete response %d: %s", status, body)
	}

	status, body = env.do(t, http.MethodGet, "/api/medicines/"+itoa(id), token, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected status 404 after delete, got %d: %s", status, body)
	}
}

func TestMedicinesAreScopedToOwner(t *testing.T) {
	env := newTestApp(t, "")
	owner := env.register(t, "owner@example.com")
	other := env.register(t, "other@example.com")

	id := env.createMedicine(t, owner, "Private")

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		status, body := env.do(t, method, "/api/medicines/"+itoa(id), other, nil)
		if status != http.StatusNotFound {
			t.Fatalf("%s: expected status 404, got %d: %s", method, status, body)
		}
	}

	status, body := env.do(t, http.MethodGet, "/api/medicines", other, nil)
	if status != http.StatusOK || strings.TrimSpace(string(body)) != "[]" {
		t.Fatalf("expected an empty list for another user, got %d: %s", status, body)
	}
}

func TestListMedicinesPaginated(t *testing.T) {
	env := newTestApp(t, "")
	token := env.register(t, "pages@example.com")
	for _, name := range []string{"A", "B", "C"} {
		env.createMedicine(t, token, name)
	}

	status, body := env.do(t, http.MethodGet, "/api/medicines?page=2&limit=2&sortField=name&sortDirection=asc", token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", status, body)
	}
	var page services.MedicinePage
	decodeJSON(t, body, &page)
	if page.Total != 3 || page.Page != 2 || page.Pages != 2 {
		t.Fatalf("unexpected page metadata %#v", page)
	}
	if len(page.Items) != 1 || page.Items[0].Name != "C" {
		t.Fatalf("unexpected page items %#v", page.Items)
	}

	status, body = env.do(t, http.MethodGet, "/api/medicines?sortField=color", token, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown sort field, got %d: %s", status, body)
	}
}

func TestCreateMedicineRejectsMissingFields(t *testing.T) {
	env := newTestApp(t, "")
	token := env.register(t, "invalid@example.com")

	status, body := env.do(t, http.MethodPost, "/api/medicines", token, fiber.Map{"name": "NoDose"})
	if status != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", status, body)
	}
}

func TestCreateMedicineWithImageUpload(t *testing.T) {
	env := newTestApp(t, "")
	token := env.register(t, "images@example.com")

	request := multipartMedicineRequest(t, http.MethodPost, "/api/medicines", token,
		map[string]string{"name": "Vitamin D", "dosage": "1000IU", "frequency": "2"},
		"pill.png", "image/png", []byte("\x89PNG\r\n\x1a\nimage-bytes"),
	)
	status, body := env.send(t, request)
	if status != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", status, body)
	}

	var created models.Medicine
	decodeJSON(t, body, &created)
	if created.Frequency != 2 {
		t.Fatalf("expected frequency 2, got %d", created.Frequency)
	}
	if !strings.HasPrefix(created.Image, "/uploads/") || !strings.HasSuffix(created.Image, ".png") {
		t.Fatalf("unexpected image url %q", created.Image)
	}

	stored := filepath.Join(env.uploadsDir, filepath.FromSlash(strings.TrimPrefix(created.Image, "/uploads/")))
	if _, err := os.Stat(stored); err != nil {
		t.Fatalf("expected stored image at %s: %v", stored, err)
	}

	status, body = env.do(t, http.MethodDelete, "/api/medicines/"+itoa(created.ID), token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected delete status 200, got %d: %s", status, body)
	}
	if _, err := os.Stat(stored); !os.IsNotExist(err) {
		t.Fatalf("expected image removed with its medicine, stat err = %v", err)
	}
}

func TestCreateMedicineRejectsNonImageUpload(t *testing.T) {
	env := newTestApp(t, "")
	token := env.register(t, "badimage@example.com")

	request := multipartMedicineRequest(t, http.MethodPost, "/api/medicines", token,
		map[string]string{"name": "Syrup", "dosage": "5ml"},
		"notes.txt", "text/plain", []byte("hello"),
	)
	status, body := env.send(t, request)
	if status != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", status, body)
	}

	status, body = env.do(t, http.MethodGet, "/api/medicines", token, nil)
	if status != http.StatusOK || strings.TrimSpace(string(body)) != "[]" {
		t.Fatalf("expected no medicine after rejected upload, got %d: %s", status, body)
	}
}
