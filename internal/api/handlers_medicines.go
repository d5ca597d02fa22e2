package api

import (
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/meditrack/internal/services"
	"github.com/terraincognita07/meditrack/internal/storage"
)

const imageFormField = "image"

func (handler *Handler) ListMedicines(c *fiber.Ctx) error {
	user := currentUser(c)

	query := services.MedicineListQuery{
		Paginate:      c.Query("page") != "" || c.Query("limit") != "",
		Page:          c.QueryInt("page", 1),
		Limit:         c.QueryInt("limit", 0),
		Search:        c.Query("search"),
		SortField:     c.Query("sortField"),
		SortDirection: c.Query("sortDirection"),
	}
	page, err := handler.medicineService.ListMedicines(user.ID, query)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	if !query.Paginate {
		return c.JSON(page.Items)
	}
	return c.JSON(page)
}

func (handler *Handler) GetMedicine(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid medicine id")
	}

	medicine, err := handler.medicineService.GetMedicine(currentUser(c).ID, id)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(medicine)
}

func (handler *Handler) CreateMedicine(c *fiber.Ctx) error {
	input, image, err := parseMedicineRequest(c)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	if image != nil {
		defer image.close()
	}

	medicine, err := handler.medicineService.CreateMedicine(c.UserContext(), currentUser(c).ID, input, image.upload())
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(medicine)
}

func (handler *Handler) UpdateMedicine(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid medicine id")
	}

	input, image, err := parseMedicineRequest(c)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	if image != nil {
		defer image.close()
	}

	medicine, err := handler.medicineService.UpdateMedicine(c.UserContext(), currentUser(c).ID, id, input, image.upload())
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(medicine)
}

func (handler *Handler) DeleteMedicine(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid medicine id")
	}

	if err := handler.medicineService.DeleteMedicine(c.UserContext(), currentUser(c).ID, id); err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Medicine deleted successfully"})
}

type openedImage struct {
	file   multipart.File
	header *multipart.FileHeader
}

func (image *openedImage) upload() *storage.Upload {
	if image == nil {
		return nil
	}
	return &storage.Upload{
		Filename:    image.header.Filename,
		ContentType: image.header.Header.Get(fiber.HeaderContentType),
		Size:        image.header.Size,
		Body:        image.file,
	}
}

func (image *openedImage) close() {
	_ = image.file.Close()
}

// parseMedicineRequest reads either a multipart form with an optional image
// or a JSON body. Absent fields stay nil.
func parseMedicineRequest(c *fiber.Ctx) (services.MedicineInput, *openedImage, error) {
	if !isMultipart(c) {
		var payload medicinePayload
		if err := c.BodyParser(&payload); err != nil {
			return services.MedicineInput{}, nil, fmt.Errorf("%w: %v", services.ErrInvalidMedicineInput, err)
		}
		return services.MedicineInput(payload), nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return services.MedicineInput{}, nil, fmt.Errorf("%w: %v", services.ErrInvalidMedicineInput, err)
	}

	var input services.MedicineInput
	input.Name = formValue(form, "name")
	input.Dosage = formValue(form, "dosage")
	input.Type = formValue(form, "type")
	input.Description = formValue(form, "description")
	if raw := formValue(form, "frequency"); raw != nil && strings.TrimSpace(*raw) != "" {
		frequency, err := strconv.Atoi(strings.TrimSpace(*raw))
		if err != nil {
			return services.MedicineInput{}, nil, fmt.Errorf("%w: frequency must be a number", services.ErrInvalidMedicineInput)
		}
		input.Frequency = &frequency
	}

	files := form.File[imageFormField]
	if len(files) == 0 {
		return input, nil, nil
	}
	header := files[0]
	if header.Size > storage.MaxImageSize {
		return services.MedicineInput{}, nil, storage.ErrImageTooLarge
	}
	file, err := header.Open()
	if err != nil {
		return services.MedicineInput{}, nil, fmt.Errorf("%w: %v", storage.ErrInvalidImage, err)
	}
	return input, &openedImage{file: file, header: header}, nil
}

func formValue(form *multipart.Form, key string) *string {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	value := values[0]
	return &value
}
