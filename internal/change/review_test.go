package change

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/crewplanhq/crewplan/internal/errs"
	"github.com/crewplanhq/crewplan/internal/models"
	"github.com/crewplanhq/crewplan/internal/notify"
	"gorm.io/gorm"
)

// reviewFixture seeds the common cast: a member submitter, a leadership
// reviewer, and a project with one work package.
type reviewFixture struct {
	submitter *models.User
	reviewer  *models.User
	projElem  *models.WBSElement
	project   *models.Project
	wpElem    *models.WBSElement
	wp        *models.WorkPackage
}

func setupReview(t *testing.T) (db *gorm.DB, f reviewFixture) {
	t.Helper()
	gdb := openTestDB(t)
	f.submitter = seedUser(t, gdb, "usr-sub", models.RoleMember)
	f.reviewer = seedUser(t, gdb, "usr-rev", models.RoleLeadership)
	f.projElem, f.project = seedProject(t, gdb, "wbs-proj", "1.1.0", 50000)
	f.wpElem, f.wp = seedWorkPackage(t, gdb, "wbs-wp", "1.1.1", f.project.ID, 3)
	return gdb, f
}

func TestReview_NotFound(t *testing.T) {
	db, _ := setupReview(t)
	_, err := Review(db, nil, "cr-nope", ReviewOpts{ReviewerID: "usr-rev", Accepted: true})
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestReview_ReviewerBelowLeadership(t *testing.T) {
	db, f := setupReview(t)
	seedUser(t, db, "usr-mem", models.RoleMember)
	seedPendingCR(t, db, "cr-1", f.submitter.ID, f.projElem.ID, models.CRStandard)

	_, err := Review(db, nil, "cr-1", ReviewOpts{ReviewerID: "usr-mem", Accepted: true})
	if !errors.Is(err, errs.ErrAccessDenied) {
		t.Errorf("err = %v, want ErrAccessDenied", err)
	}
}

func TestReview_SelfReview(t *testing.T) {
	db, f := setupReview(t)
	lead := seedUser(t, db, "usr-lead2", models.RoleLeadership)
	seedPendingCR(t, db, "cr-1", lead.ID, f.projElem.ID, models.CRStandard)

	_, err := Review(db, nil, "cr-1", ReviewOpts{ReviewerID: lead.ID, Accepted: true})
	if !errors.Is(err, errs.ErrAccessDenied) {
		t.Errorf("err = %v, want ErrAccessDenied", err)
	}
	if got := countRecords(t, db, "cr-1"); got != 0 {
		t.Errorf("records = %d, want 0", got)
	}
}

func TestReview_SecondReviewFails(t *testing.T) {
	db, f := setupReview(t)
	seedPendingCR(t, db, "cr-1", f.submitter.ID, f.projElem.ID, models.CRStandard)
	seedSolution(t, db, "sol-1", "cr-1", f.submitter.ID, 100, 0)

	if _, err := Review(db, nil, "cr-1", ReviewOpts{ReviewerID: f.reviewer.ID, Accepted: true, ProposedSolutionID: "sol-1"}); err != nil {
		t.Fatalf("first review: %v", err)
	}
	before := countRecords(t, db, "cr-1")

	_, err := Review(db, nil, "cr-1", ReviewOpts{ReviewerID: f.reviewer.ID, Accepted: false})
	if !errors.Is(err, errs.ErrAlreadyReviewed) {
		t.Errorf("err = %v, want ErrAlreadyReviewed", err)
	}
	if got := countRecords(t, db, "cr-1"); got != before {
		t.Errorf("second review added records: %d -> %d", before, got)
	}
}

func TestReview_Reject(t *testing.T) {
	db, f := setupReview(t)
	seedPendingCR(t, db, "cr-1", f.submitter.ID, f.projElem.ID, models.CRStandard)

	id, err := Review(db, nil, "cr-1", ReviewOpts{ReviewerID: f.reviewer.ID, Notes: "not yet", Accepted: false})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if id != "cr-1" {
		t.Errorf("id = %q, want cr-1", id)
	}

	cr, err := Get(db, "cr-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cr.Accepted == nil || *cr.Accepted {
		t.Errorf("accepted = %v, want false", cr.Accepted)
	}
	if cr.ReviewerID == nil || *cr.ReviewerID != f.reviewer.ID {
		t.Errorf("reviewer = %v, want %s", cr.ReviewerID, f.reviewer.ID)
	}
	if cr.DateReviewed == nil {
		t.Error("date reviewed not set")
	}
	if cr.ReviewNotes != "not yet" {
		t.Errorf("notes = %q", cr.ReviewNotes)
	}
	if got := countRecords(t, db, "cr-1"); got != 0 {
		t.Errorf("rejection produced %d records, want 0", got)
	}

	var project models.Project
	db.Where("id = ?", f.project.ID).First(&project)
	if project.Budget != 50000 {
		t.Errorf("budget = %d, rejection must not mutate", project.Budget)
	}
}

func TestReview_ScopeAccept_Project(t *testing.T) {
	db, f := setupReview(t)
	seedPendingCR(t, db, "cr-1", f.submitter.ID, f.projElem.ID, models.CRScope)
	seedSolution(t, db, "sol-1", "cr-1", f.submitter.ID, 2500, 0)

	if _, err := Review(db, nil, "cr-1", ReviewOpts{ReviewerID: f.reviewer.ID, Accepted: true, ProposedSolutionID: "sol-1"}); err != nil {
		t.Fatalf("review: %v", err)
	}

	var project models.Project
	db.Where("id = ?", f.project.ID).First(&project)
	if project.Budget != 52500 {
		t.Errorf("budget = %d, want 52500", project.Budget)
	}

	details := recordDetails(t, db, "cr-1")
	want := []string{`Changed Budget from "50000" to "52500"`}
	if len(details) != 1 || details[0] != want[0] {
		t.Errorf("details = %v, want %v", details, want)
	}

	var sol models.ProposedSolution
	db.Where("id = ?", "sol-1").First(&sol)
	if !sol.Approved {
		t.Error("solution not marked approved")
	}
}

func TestReview_ScopeAccept_WorkPackage(t *testing.T) {
	db, f := setupReview(t)
	seedPendingCR(t, db, "cr-1", f.submitter.ID, f.wpElem.ID, models.CRScope)
	seedSolution(t, db, "sol-1", "cr-1", f.submitter.ID, 1000, 2)

	if _, err := Review(db, nil, "cr-1", ReviewOpts{ReviewerID: f.reviewer.ID, Accepted: true, ProposedSolutionID: "sol-1"}); err != nil {
		t.Fatalf("review: %v", err)
	}

	// Budget lands on the parent project, duration on the work package.
	var project models.Project
	db.Where("id = ?", f.project.ID).First(&project)
	if project.Budget != 51000 {
		t.Errorf("budget = %d, want 51000", project.Budget)
	}
	var wp models.WorkPackage
	db.Where("id = ?", f.wp.ID).First(&wp)
	if wp.Duration != 5 {
		t.Errorf("duration = %d, want 5", wp.Duration)
	}

	details := recordDetails(t, db, "cr-1")
	if len(details) != 2 {
		t.Fatalf("details = %v, want 2 entries", details)
	}
	if details[0] != `Changed Budget from "50000" to "51000"` {
		t.Errorf("details[0] = %q", details[0])
	}
	if details[1] != `Changed Duration from "3" to "5"` {
		t.Errorf("details[1] = %q", details[1])
	}
}

func TestReview_ScopeAccept_ZeroImpacts(t *testing.T) {
	db, f := setupReview(t)
	seedPendingCR(t, db, "cr-1", f.submitter.ID, f.wpElem.ID, models.CRScope)
	seedSolution(t, db, "sol-1", "cr-1", f.submitter.ID, 0, 0)

	if _, err := Review(db, nil, "cr-1", ReviewOpts{ReviewerID: f.reviewer.ID, Accepted: true, ProposedSolutionID: "sol-1"}); err != nil {
		t.Fatalf("review: %v", err)
	}
	if got := countRecords(t, db, "cr-1"); got != 0 {
		t.Errorf("zero-impact acceptance produced %d records, want 0", got)
	}
}

func TestReview_ScopeAccept_MissingSolution(t *testing.T) {
	db, f := setupReview(t)
	seedPendingCR(t, db, "cr-1", f.submitter.ID, f.projElem.ID, models.CRScope)

	_, err := Review(db, nil, "cr-1", ReviewOpts{ReviewerID: f.reviewer.ID, Accepted: true})
	if !errors.Is(err, errs.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
	assertStillPending(t, db, "cr-1")
}

func TestReview_ScopeAccept_ForeignSolution(t *testing.T) {
	db, f := setupReview(t)
	seedPendingCR(t, db, "cr-1", f.submitter.ID, f.projElem.ID, models.CRScope)
	seedPendingCR(t, db, "cr-2", f.submitter.ID, f.projElem.ID, models.CRScope)
	seedSolution(t, db, "sol-other", "cr-2", f.submitter.ID, 100, 0)

	_, err := Review(db, nil, "cr-1", ReviewOpts{ReviewerID: f.reviewer.ID, Accepted: true, ProposedSolutionID: "sol-other"})
	if !errors.Is(err, errs.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
	assertStillPending(t, db, "cr-1")

	var project models.Project
	db.Where("id = ?", f.project.ID).First(&project)
	if project.Budget != 50000 {
		t.Errorf("budget mutated to %d on failed review", project.Budget)
	}
}

func TestReview_StageGate_UncheckedAborts(t *testing.T) {
	db, f := setupReview(t)
	seedBullet(t, db, f.wp.ID, models.BulletExpectedActivity, "machine the bracket", true)
	seedBullet(t, db, f.wp.ID, models.BulletDeliverable, "test report", false)
	seedPendingCR(t, db, "cr-1", f.submitter.ID, f.wpElem.ID, models.CRStageGate)

	_, err := Review(db, nil, "cr-1", ReviewOpts{ReviewerID: f.reviewer.ID, Accepted: true})
	if !errors.Is(err, errs.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}

	// The whole transition aborts: no status change, request still pending.
	var elem models.WBSElement
	db.Where("id = ?", f.wpElem.ID).First(&elem)
	if elem.Status != models.WBSInactive {
		t.Errorf("status = %s, want unchanged INACTIVE", elem.Status)
	}
	assertStillPending(t, db, "cr-1")
	if got := countRecords(t, db, "cr-1"); got != 0 {
		t.Errorf("aborted review left %d records", got)
	}
}

func TestReview_StageGate_AllChecked(t *testing.T) {
	db, f := setupReview(t)
	seedBullet(t, db, f.wp.ID, models.BulletExpectedActivity, "machine the bracket", true)
	seedBullet(t, db, f.wp.ID, models.BulletDeliverable, "test report", true)
	seedPendingCR(t, db, "cr-1", f.submitter.ID, f.wpElem.ID, models.CRStageGate)

	if _, err := Review(db, nil, "cr-1", ReviewOpts{ReviewerID: f.reviewer.ID, Accepted: true}); err != nil {
		t.Fatalf("review: %v", err)
	}

	var elem models.WBSElement
	db.Where("id = ?", f.wpElem.ID).First(&elem)
	if elem.Status != models.WBSComplete {
		t.Errorf("status = %s, want COMPLETE", elem.Status)
	}
	details := recordDetails(t, db, "cr-1")
	want := `Changed Status from "INACTIVE" to "COMPLETE"`
	if len(details) != 1 || details[0] != want {
		t.Errorf("details = %v, want [%q]", details, want)
	}
}

func TestReview_StageGate_AlreadyComplete(t *testing.T) {
	db, f := setupReview(t)
	db.Model(&models.WBSElement{}).Where("id = ?", f.wpElem.ID).Update("status", models.WBSComplete)
	seedPendingCR(t, db, "cr-1", f.submitter.ID, f.wpElem.ID, models.CRStageGate)

	if _, err := Review(db, nil, "cr-1", ReviewOpts{ReviewerID: f.reviewer.ID, Accepted: true}); err != nil {
		t.Fatalf("review: %v", err)
	}
	if got := countRecords(t, db, "cr-1"); got != 0 {
		t.Errorf("no-op status change produced %d records", got)
	}
}

func TestReview_Activation(t *testing.T) {
	db, f := setupReview(t)
	lead := seedUser(t, db, "usr-newlead", models.RoleLeadership)
	mgr := seedUser(t, db, "usr-newmgr", models.RoleLeadership)
	start := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	seedPendingCR(t, db, "cr-1", f.submitter.ID, f.wpElem.ID, models.CRActivation)
	seedActivationDetail(t, db, "cr-1", lead.ID, mgr.ID, start)

	if _, err := Review(db, nil, "cr-1", ReviewOpts{ReviewerID: f.reviewer.ID, Accepted: true}); err != nil {
		t.Fatalf("review: %v", err)
	}

	var elem models.WBSElement
	db.Where("id = ?", f.wpElem.ID).First(&elem)
	if elem.Status != models.WBSActive {
		t.Errorf("status = %s, want ACTIVE", elem.Status)
	}
	if elem.LeadID == nil || *elem.LeadID != lead.ID {
		t.Errorf("lead = %v, want %s", elem.LeadID, lead.ID)
	}
	if elem.ManagerID == nil || *elem.ManagerID != mgr.ID {
		t.Errorf("manager = %v, want %s", elem.ManagerID, mgr.ID)
	}
	var wp models.WorkPackage
	db.Where("id = ?", f.wp.ID).First(&wp)
	if !wp.StartDate.Equal(start) {
		t.Errorf("start date = %v, want %v", wp.StartDate, start)
	}

	details := recordDetails(t, db, "cr-1")
	want := []string{
		`Added Lead "usr-newlead"`,
		`Added Manager "usr-newmgr"`,
		`Changed Start Date from "2026-01-12" to "2026-02-02"`,
		`Changed Status from "INACTIVE" to "ACTIVE"`,
	}
	if fmt.Sprint(details) != fmt.Sprint(want) {
		t.Errorf("details = %v, want %v", details, want)
	}
}

func TestReview_Activation_NoDifferences(t *testing.T) {
	db, f := setupReview(t)
	lead := seedUser(t, db, "usr-newlead", models.RoleLeadership)
	mgr := seedUser(t, db, "usr-newmgr", models.RoleLeadership)
	db.Model(&models.WBSElement{}).Where("id = ?", f.wpElem.ID).Updates(map[string]interface{}{
		"status":     models.WBSActive,
		"lead_id":    lead.ID,
		"manager_id": mgr.ID,
	})
	seedPendingCR(t, db, "cr-1", f.submitter.ID, f.wpElem.ID, models.CRActivation)
	seedActivationDetail(t, db, "cr-1", lead.ID, mgr.ID, f.wp.StartDate)

	if _, err := Review(db, nil, "cr-1", ReviewOpts{ReviewerID: f.reviewer.ID, Accepted: true}); err != nil {
		t.Fatalf("review: %v", err)
	}

	var elem models.WBSElement
	db.Where("id = ?", f.wpElem.ID).First(&elem)
	if elem.Status != models.WBSActive {
		t.Errorf("status = %s, want ACTIVE", elem.Status)
	}
	if got := countRecords(t, db, "cr-1"); got != 0 {
		t.Errorf("no-difference activation produced %d records", got)
	}
}

func TestReview_NotifiesSubmitter(t *testing.T) {
	db, f := setupReview(t)
	db.Model(&models.User{}).Where("id = ?", f.submitter.ID).Update("slack_id", "U123")
	seedPendingCR(t, db, "cr-1", f.submitter.ID, f.projElem.ID, models.CRStandard)

	mock := notify.NewMockAdapter("slack")
	dispatcher := notify.NewDispatcher(mock)

	if _, err := Review(db, dispatcher, "cr-1", ReviewOpts{ReviewerID: f.reviewer.ID, Accepted: false}); err != nil {
		t.Fatalf("review: %v", err)
	}
	sent := mock.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent = %d messages, want 1", len(sent))
	}
	if sent[0].UserID != "U123" {
		t.Errorf("target = %q, want U123", sent[0].UserID)
	}
}

func TestReview_NotificationFailureSuppressed(t *testing.T) {
	db, f := setupReview(t)
	db.Model(&models.User{}).Where("id = ?", f.submitter.ID).Update("slack_id", "U123")
	seedPendingCR(t, db, "cr-1", f.submitter.ID, f.projElem.ID, models.CRStandard)

	mock := notify.NewMockAdapter("slack")
	mock.FailWith(errors.New("rate limited"))

	if _, err := Review(db, notify.NewDispatcher(mock), "cr-1", ReviewOpts{ReviewerID: f.reviewer.ID, Accepted: false}); err != nil {
		t.Fatalf("review failed on notification error: %v", err)
	}

	cr, _ := Get(db, "cr-1")
	if cr.Accepted == nil {
		t.Error("review did not commit despite notification failure")
	}
}

func TestReview_NoAddressSkipsNotification(t *testing.T) {
	db, f := setupReview(t)
	seedPendingCR(t, db, "cr-1", f.submitter.ID, f.projElem.ID, models.CRStandard)

	mock := notify.NewMockAdapter("slack")
	if _, err := Review(db, notify.NewDispatcher(mock), "cr-1", ReviewOpts{ReviewerID: f.reviewer.ID, Accepted: false}); err != nil {
		t.Fatalf("review: %v", err)
	}
	if got := len(mock.Sent()); got != 0 {
		t.Errorf("sent = %d messages, want 0 for submitter without address", got)
	}
}

func assertStillPending(t *testing.T, db *gorm.DB, crID string) {
	t.Helper()
	cr, err := Get(db, crID)
	if err != nil {
		t.Fatalf("get %s: %v", crID, err)
	}
	if cr.Accepted != nil {
		t.Errorf("request %s no longer pending after failed review", crID)
	}
}
