package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/regkeeper/internal/client/client"
	"github.com/dmitrijs2005/regkeeper/internal/client/models"
	"github.com/dmitrijs2005/regkeeper/internal/common"
	"github.com/dmitrijs2005/regkeeper/internal/logging"
)

var (
	ErrNoForm         = errors.New("no student form loaded")
	ErrStepNotSaved   = errors.New("current step has not been saved")
	ErrStepOutOfRange = errors.New("step cannot be reached from here")
	ErrNoStudent      = errors.New("no student id yet, save the general step first")
)

// RegistryAPI is the part of the registry the wizard writes to. Calls fail
// with common.ErrAuthRequired, without touching the network, when there is
// no usable registry token. Authorized reports whether one is available.
type RegistryAPI interface {
	Authorized() bool
	SaveGeneralInformation(ctx context.Context, p models.GeneralInformation) (*client.APIResponse, error)
	SaveContactDetails(ctx context.Context, p models.ContactInformation) (*client.APIResponse, error)
	SaveAcademicInformation(ctx context.Context, p models.AcademicInformation) (*client.APIResponse, error)
	UpdateApproval(ctx context.Context, p models.StudentApproval) (*client.APIResponse, error)
	BankBranchesByIFSC(ctx context.Context, ifsc string) ([]models.BankBranch, error)
}

// Wizard holds the progress of one student's registration.
type Wizard struct {
	mu sync.Mutex

	api         RegistryAPI
	archive     Archiver
	instituteID int64
	log         logging.Logger
	clock       func() time.Time

	form        *StudentForm
	step        Step
	saved       map[Step]bool
	studentID   int64
	application string
}

// New returns a wizard. archive may be nil.
func New(api RegistryAPI, archive Archiver, instituteID int64, log logging.Logger) *Wizard {
	return &Wizard{
		api:         api,
		archive:     archive,
		instituteID: instituteID,
		log:         log,
		clock:       time.Now,
		saved:       map[Step]bool{},
	}
}

// WithClock overrides clock for testing.
func (w *Wizard) WithClock(clock func() time.Time) *Wizard {
	w.clock = clock
	return w
}

// Start begins a new registration for form, discarding previous progress.
func (w *Wizard) Start(form *StudentForm) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.form = form
	w.step = StepGeneral
	w.saved = map[Step]bool{}
	w.studentID = 0
	w.application = ""
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Saved reports whether s has been saved since Start.
func (w *Wizard) Saved(s Step) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.saved[s]
}

func (w *Wizard) StudentID() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.studentID
}

// SetStudentID continues the registration of an already created student.
func (w *Wizard) SetStudentID(id int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.studentID = id
}

// ApplicationNumber is set once the registration is submitted.
func (w *Wizard) ApplicationNumber() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.application
}

// Next moves forward. The current step must have been saved.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step == StepCompleted {
		return ErrStepOutOfRange
	}
	if !w.saved[w.step] {
		return fmt.Errorf("%w: %s", ErrStepNotSaved, w.step)
	}
	w.step++
	return nil
}

func (w *Wizard) Previous() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step == StepGeneral {
		return ErrStepOutOfRange
	}
	w.step--
	return nil
}

// Goto jumps to s, which may be at most one step past the current one.
func (w *Wizard) Goto(s Step) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if s < StepGeneral || s > StepCompleted || s > w.step+1 {
		return fmt.Errorf("%w: %s", ErrStepOutOfRange, s)
	}
	w.step = s
	return nil
}

// Save sends the current step to the registry, or stages it locally for
// steps the registry has no endpoint for. On the completed step it submits
// the registration for approval.
func (w *Wizard) Save(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.form == nil {
		return ErrNoForm
	}
	if !w.api.Authorized() {
		return common.ErrAuthRequired
	}
	step := w.step
	if err := w.form.Validate(step); err != nil {
		return err
	}

	if step.Local() {
		w.saved[step] = true
		w.log.Info(ctx, "step staged", "step", step.String())
		return nil
	}

	var (
		payload any
		resp    *client.APIResponse
		err     error
	)
	switch step {
	case StepGeneral:
		p := GeneralPayload(w.form, w.studentID, w.instituteID)
		payload = p
		resp, err = w.api.SaveGeneralInformation(ctx, p)
	case StepContact:
		p := ContactPayload(w.form, w.studentID)
		payload = p
		resp, err = w.api.SaveContactDetails(ctx, p)
	case StepAcademic:
		p := AcademicPayload(w.form, w.studentID, w.instituteID)
		payload = p
		resp, err = w.api.SaveAcademicInformation(ctx, p)
	case StepCompleted:
		if w.studentID == 0 {
			return ErrNoStudent
		}
		p := models.StudentApproval{StudentApprovedType: models.ApprovalApproved, ID: w.studentID}
		payload = p
		resp, err = w.api.UpdateApproval(ctx, p)
	}
	if err == nil {
		err = resp.Err()
	}
	if err != nil {
		w.log.Warn(ctx, "step save failed", "step", step.String(), "error", err)
		return fmt.Errorf("save %s: %w", step, err)
	}

	if step == StepGeneral {
		if id := studentIDFrom(resp.Value); id != 0 {
			w.studentID = id
		}
	}
	if step == StepCompleted {
		w.application = fmt.Sprintf("UMIS%d", w.studentID)
	}
	w.saved[step] = true
	w.log.Info(ctx, "step saved", "step", step.String(), "student_id", w.studentID)

	w.archivePayload(ctx, step, payload)
	return nil
}

func (w *Wizard) archivePayload(ctx context.Context, step Step, payload any) {
	if w.archive == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		w.log.Error(ctx, "encode archived payload", "error", err)
		return
	}
	key := fmt.Sprintf("%d/%s-%s.json", w.studentID, step, w.clock().UTC().Format("20060102T150405Z"))
	if err := w.archive.Archive(ctx, key, data); err != nil {
		w.log.Error(ctx, "archive payload failed", "key", key, "error", err)
	}
}

// studentIDFrom reads the id the registry returns for a new student, either
// as a bare number or as an object with id or studentId.
func studentIDFrom(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var obj struct {
		ID        int64 `json:"id"`
		StudentID int64 `json:"studentId"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return 0
	}
	if obj.ID != 0 {
		return obj.ID
	}
	return obj.StudentID
}

// LookupIFSC finds the branch for code and, when it is unambiguous, copies
// it into the bank step of the loaded form.
func (w *Wizard) LookupIFSC(ctx context.Context, code string) ([]models.BankBranch, error) {
	branches, err := w.api.BankBranchesByIFSC(ctx, code)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.form != nil && len(branches) == 1 {
		b := branches[0]
		w.form.Bank.IFSC = b.IFSC
		w.form.Bank.BankName = b.BankName
		w.form.Bank.BranchName = b.Name
		w.form.Bank.CityName = b.CityName
		w.form.Bank.BankBranchID = b.ID
	}
	return branches, nil
}

// Review approves or rejects an already registered student.
func Review(ctx context.Context, api RegistryAPI, studentID int64, approve bool, remarkID *int64) error {
	p := models.StudentApproval{ID: studentID, StudentApprovedType: models.ApprovalApproved}
	if !approve {
		p.StudentApprovedType = models.ApprovalRejected
		p.RejectedRemarkID = remarkID
	}
	resp, err := api.UpdateApproval(ctx, p)
	if err != nil {
		return err
	}
	return resp.Err()
}
