package dialogue

// Reply texts.
const (
	msgChooseRole        = "Welcome! Please choose your role."
	msgAlreadyRegistered = "You are already registered."
	msgAskFirstName      = "Please enter your first name."
	msgAskLastName       = "Please enter your last name."
	msgAskUniversityID   = "Please enter your university ID (digits only)."
	msgBadUniversityID   = "University ID must contain digits only. Please try again."
	msgEmptyValue        = "The value cannot be empty. Please try again."
	msgUniversityIDRange = "That University ID is too large. Please check it and try again."
	msgProfileSaved      = "Thank you, %s! Your profile is complete."
	msgProfileDone       = "Your profile is already complete."

	msgOnlyTeachers     = "Only teachers can add courses."
	msgAskCourseName    = "Please enter the course name."
	msgAskUniversity    = "Please enter the university name."
	msgAskSemester      = "Please enter the semester (e.g. Fall-2024)."
	msgCourseCreated    = "Course %q has been created."
	msgNoCourses        = "No courses available yet."
	msgChooseCourse     = "Choose a course to enroll in:"
	msgAllCourses       = "All courses:\n%s"
	msgUnknownCourse    = "There is no such course. Please choose one from the list."
	msgEnrolled         = "You have been enrolled in %q."
	msgAlreadyEnrolled  = "You are already enrolled in %q."
	msgMyCoursesNone    = "You have no courses yet."
	msgMyCoursesTeacher = "Courses you teach:\n%s"
	msgMyCoursesStudent = "Your courses:\n%s"

	msgCancelled     = "Cancelled. Nothing was saved."
	msgNothingCancel = "There is nothing to cancel."
	msgGreetTeacher  = "Welcome back, %s! What would you like to do?"
	msgGreetStudent  = "Welcome back, %s! Browse the courses or check your enrollments."
	msgIncomplete    = "Your profile is incomplete. Tap \"Complete Profile\" to finish it."
	msgUnrecognized  = "Sorry, I did not understand that. Please use the menu."
	msgAnomaly       = "Something went wrong. Please start again with /start."
	msgTryAgain      = "Something went wrong on our side. Please try again in a moment."
	msgStats         = "Users: %d (teachers: %d)\nCourses: %d\nEnrollments: %d"
	msgForbidden     = "This command is not available."
	msgHelp          = "I help teachers publish courses and students enroll in them.\n\n" +
		"/start - show your menu\n" +
		"/help - show this message\n" +
		"/cancel - stop the current step\n\n" +
		"Teachers: \"Add a Course\" creates a course.\n" +
		"Students: \"All Courses\" lists courses to enroll in.\n" +
		"\"My Courses\" shows your courses."
)
