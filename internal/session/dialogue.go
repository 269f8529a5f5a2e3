// Package session keeps per-user dialogue state between messages.
package session

// Kind names a dialogue.
type Kind string

// Dialogue kinds.
const (
	KindProfile   Kind = "profile_completion"
	KindCourse    Kind = "course_creation"
	KindSelection Kind = "course_selection"
)

// Dialogue is one of ProfileDialogue, CourseDialogue or SelectionDialogue.
// Each variant carries only the fields its own steps collect.
type Dialogue interface {
	Kind() Kind
	StepName() string
}

// ProfileStep is a step of profile completion.
type ProfileStep string

// Profile completion steps.
const (
	ProfileFirstName    ProfileStep = "first_name"
	ProfileLastName     ProfileStep = "last_name"
	ProfileUniversityID ProfileStep = "university_id"
)

// ProfileDialogue collects the three profile fields.
type ProfileDialogue struct {
	Step      ProfileStep `json:"step"`
	FirstName string      `json:"first_name,omitempty"`
	LastName  string      `json:"last_name,omitempty"`
}

// Kind implements Dialogue.
func (ProfileDialogue) Kind() Kind { return KindProfile }

// StepName implements Dialogue.
func (d ProfileDialogue) StepName() string { return string(d.Step) }

// CourseStep is a step of course creation.
type CourseStep string

// Course creation steps.
const (
	CourseName       CourseStep = "course_name"
	CourseUniversity CourseStep = "university_name"
	CourseSemester   CourseStep = "semester"
)

// CourseDialogue collects a new course for the teacher who started it.
type CourseDialogue struct {
	Step       CourseStep `json:"step"`
	TeacherID  int64      `json:"teacher_id"`
	Name       string     `json:"name,omitempty"`
	University string     `json:"university,omitempty"`
}

// Kind implements Dialogue.
func (CourseDialogue) Kind() Kind { return KindCourse }

// StepName implements Dialogue.
func (d CourseDialogue) StepName() string { return string(d.Step) }

// SelectStep is the only step of course selection.
const SelectStep = "select_course"

// SelectionDialogue waits for the student to pick one of Options.
type SelectionDialogue struct {
	UserID  int64    `json:"user_id"`
	Options []string `json:"options"`
}

// Kind implements Dialogue.
func (SelectionDialogue) Kind() Kind { return KindSelection }

// StepName implements Dialogue.
func (SelectionDialogue) StepName() string { return SelectStep }

func cloneDialogue(d Dialogue) Dialogue {
	if sel, ok := d.(SelectionDialogue); ok {
		sel.Options = append([]string(nil), sel.Options...)
		return sel
	}
	return d
}
