package api

import (
	"github.com/terraincognita07/meditrack/internal/models"
	"github.com/terraincognita07/meditrack/internal/services"
)

type userView struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type authResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

type medicineSummary struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Dosage string `json:"dosage"`
	Type   string `json:"type"`
	Image  string `json:"image,omitempty"`
}

// scheduleView adds the legacy single time and the populated medicine.
type scheduleView struct {
	models.Schedule
	Time     *string          `json:"time"`
	Medicine *medicineSummary `json:"medicine"`
}

type intakeView struct {
	models.Intake
	Medicine *medicineSummary `json:"medicine"`
}

func newUserView(user models.User) userView {
	return userView{ID: user.ID, Name: user.Name, Email: user.Email}
}

func newMedicineSummary(medicine *models.Medicine) *medicineSummary {
	if medicine == nil {
		return nil
	}
	return &medicineSummary{
		ID:     medicine.ID,
		Name:   medicine.Name,
		Dosage: medicine.Dosage,
		Type:   medicine.Type,
		Image:  medicine.Image,
	}
}

func newScheduleView(details services.ScheduleDetails) scheduleView {
	view := scheduleView{Schedule: details.Schedule, Medicine: newMedicineSummary(details.Medicine)}
	if view.Schedule.Times == nil {
		view.Schedule.Times = []string{}
	}
	if view.Schedule.Days == nil {
		view.Schedule.Days = []string{}
	}
	if len(details.Schedule.Times) > 0 {
		first := details.Schedule.Times[0]
		view.Time = &first
	}
	return view
}

func newScheduleViews(details []services.ScheduleDetails) []scheduleView {
	views := make([]scheduleView, 0, len(details))
	for _, entry := range details {
		views = append(views, newScheduleView(entry))
	}
	return views
}

func newIntakeView(details services.IntakeDetails) intakeView {
	return intakeView{Intake: details.Intake, Medicine: newMedicineSummary(details.Medicine)}
}

func newIntakeViews(details []services.IntakeDetails) []intakeView {
	views := make([]intakeView, 0, len(details))
	for _, entry := range details {
		views = append(views, newIntakeView(entry))
	}
	return views
}
