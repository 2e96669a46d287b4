package notify

import (
	"fmt"

	"github.com/crewplanhq/crewplan/internal/models"
)

// crTypeLabels maps change request type tags to display labels.
var crTypeLabels = map[string]string{
	models.CRStandard:   "Standard",
	models.CRScope:      "Scope",
	models.CRStageGate:  "Stage Gate",
	models.CRActivation: "Activation",
}

// TypeLabel returns the display label for a change request type tag.
func TypeLabel(crType string) string {
	if l, ok := crTypeLabels[crType]; ok {
		return l
	}
	return crType
}

// ChangeRequestCreated builds the event announcing a new change request.
func ChangeRequestCreated(cr *models.ChangeRequest, submitter *models.User, wbsNumber string) Event {
	return Event{
		Title:    fmt.Sprintf("New %s change request %s", TypeLabel(cr.Type), cr.ID),
		Body:     fmt.Sprintf("%s %s submitted a change request for %s.", submitter.FirstName, submitter.LastName, wbsNumber),
		Severity: SeverityInfo,
		Fields: []Field{
			{Name: "Type", Value: TypeLabel(cr.Type)},
			{Name: "WBS", Value: wbsNumber},
		},
	}
}

// ChangeRequestReviewed builds the event informing the submitter of the
// review outcome.
func ChangeRequestReviewed(cr *models.ChangeRequest, reviewer *models.User, accepted bool) Event {
	outcome, severity := "accepted", SeveritySuccess
	if !accepted {
		outcome, severity = "rejected", SeverityWarning
	}
	evt := Event{
		Title:    fmt.Sprintf("Change request %s %s", cr.ID, outcome),
		Body:     fmt.Sprintf("%s %s %s your change request.", reviewer.FirstName, reviewer.LastName, outcome),
		Severity: severity,
		Fields: []Field{
			{Name: "Type", Value: TypeLabel(cr.Type)},
		},
	}
	if cr.ReviewNotes != "" {
		evt.Fields = append(evt.Fields, Field{Name: "Notes", Value: cr.ReviewNotes})
	}
	return evt
}
