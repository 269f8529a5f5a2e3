package dialogue

import (
	"github.com/m3rciful/coursebot/core/telegram/keyboard"
	"github.com/m3rciful/coursebot/internal/models"
)

// coursesPerRow is the number of course buttons per keyboard row.
const coursesPerRow = 2

// Entry triggers and static labels shown on reply keyboards.
const (
	TriggerTeacher         = "I am Teacher"
	TriggerStudent         = "I am Student"
	TriggerAddCourse       = "Add a Course"
	TriggerAllCourses      = "All Courses"
	TriggerCompleteProfile = "Complete Profile"
	LabelMyCourses         = "My Courses"
	LabelHelp              = "Help"
	LabelCancel            = "❌ Cancel"
)

// Reply is what the bot sends back for one inbound message.
type Reply struct {
	Text string
	// Options are keyboard rows; nil keeps whatever keyboard is shown.
	Options [][]string
	// RemoveOptions hides the current keyboard.
	RemoveOptions bool
}

var (
	roleMenu       = [][]string{{TriggerTeacher, TriggerStudent}}
	teacherMenu    = [][]string{{TriggerAddCourse, TriggerAllCourses}, {LabelMyCourses, LabelHelp}}
	studentMenu    = [][]string{{TriggerAllCourses, LabelMyCourses}, {LabelHelp}}
	incompleteMenu = [][]string{{TriggerCompleteProfile}, {LabelHelp}}
	cancelMenu     = [][]string{{LabelCancel}}
)

// RoleMenu returns the role selection keyboard.
func RoleMenu() [][]string { return copyRows(roleMenu) }

// MenuFor returns the keyboard matching the user's registration state.
func MenuFor(u *models.User) [][]string {
	switch {
	case u == nil:
		return copyRows(roleMenu)
	case !u.ProfileComplete():
		return copyRows(incompleteMenu)
	case u.IsTeacher:
		return copyRows(teacherMenu)
	default:
		return copyRows(studentMenu)
	}
}

// CancelMenu is shown during every dialogue step.
func CancelMenu() [][]string { return copyRows(cancelMenu) }

func selectionMenu(options []string) [][]string {
	rows := keyboard.ChunkLabels(options, coursesPerRow)
	return append(copyRows(rows), []string{LabelCancel})
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
