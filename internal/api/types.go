package api

import "net/url"

// StudentProfile is the student record as returned by the service.
type StudentProfile struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	RollNumber string `json:"roll_number"`
	Course     string `json:"course"`
	PhotoURL   string `json:"photo_url,omitempty"`
	Active     bool   `json:"active,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// AdminProfile is the administrator record as returned by the service.
type AdminProfile struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at,omitempty"`
}

// AttendanceRecord is one server-owned attendance entry. The service
// guarantees at most one record per student per calendar date.
type AttendanceRecord struct {
	ID         int     `json:"id,omitempty"`
	Date       string  `json:"date"` // YYYY-MM-DD
	Time       string  `json:"time"` // HH:MM:SS
	Confidence float64 `json:"confidence"`
}

// Report is one row of the admin attendance report, an attendance record
// joined with its student.
type Report struct {
	ID         int            `json:"id"`
	Date       string         `json:"date"`
	Time       string         `json:"time"`
	Confidence float64        `json:"confidence"`
	Student    StudentProfile `json:"student"`
}

// ReportFilter narrows the admin attendance report query. Empty fields
// are not applied.
type ReportFilter struct {
	StudentName string
	RollNumber  string
	Date        string // YYYY-MM-DD
	Course      string
}

// query renders the filter as a URL query string, empty when no filter
// is set.
func (f ReportFilter) query() string {
	values := make(url.Values)
	if f.StudentName != "" {
		values.Set("student_name", f.StudentName)
	}
	if f.RollNumber != "" {
		values.Set("roll_number", f.RollNumber)
	}
	if f.Date != "" {
		values.Set("date", f.Date)
	}
	if f.Course != "" {
		values.Set("course", f.Course)
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// EnrollmentDraft collects everything needed to create a student: the
// profile fields plus the captured reference frame. The draft is submitted
// atomically as one multipart request and never partially reused.
type EnrollmentDraft struct {
	Name       string
	Email      string
	RollNumber string
	Course     string
	Password   string
	Frame      []byte // JPEG bytes from the capture unit
}

// RegistrationDraft is the self-service student registration payload.
// No frame is attached; the reference face is enrolled later by an admin.
type RegistrationDraft struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	RollNumber string `json:"roll_number"`
	Course     string `json:"course"`
	Password   string `json:"password"`
}

// AdminRegistration is the self-service administrator registration payload.
type AdminRegistration struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// StudentUpdate holds the mutable profile fields for an admin-side update.
// Nil fields are left unchanged.
type StudentUpdate struct {
	Name       *string
	Email      *string
	RollNumber *string
	Course     *string
	Password   *string
	Frame      []byte // optional replacement reference photo
}

// LoginResult is the credential issued at login together with the
// authenticated identity.
type LoginResult struct {
	Token   string
	Student *StudentProfile // set for student logins
	Admin   *AdminProfile   // set for admin logins
}
