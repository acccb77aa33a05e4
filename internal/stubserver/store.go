package stubserver

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/api"
)

var (
	ErrDuplicateEmail      = errors.New("a student with this email already exists")
	ErrDuplicateRoll       = errors.New("a student with this roll number already exists")
	ErrDuplicateAdminEmail = errors.New("Email already registered")
	ErrDuplicateUsername   = errors.New("Username already taken")
	ErrNotFound            = errors.New("student not found")
	ErrAlreadyMarked       = errors.New("Attendance already marked today")
)

// Student is the stored record: the public profile plus credentials.
type Student struct {
	Profile      api.StudentProfile
	PasswordHash string
}

// Admin is a stored administrator account.
type Admin struct {
	Profile      api.AdminProfile
	PasswordHash string
}

// StudentChange holds the mutable profile fields; nil means unchanged.
type StudentChange struct {
	Name       *string
	Email      *string
	RollNumber *string
	Course     *string
	Password   *string
}

// Store keeps students and attendance in memory. The development server
// has no database; everything resets on restart except the face gallery,
// which can be snapshotted separately.
type Store struct {
	mu            sync.Mutex
	nextStudentID int
	nextRecordID  int
	nextAdminID   int
	students      map[int]*Student
	attendance    map[int][]api.AttendanceRecord
	admins        map[int]*Admin

	now func() time.Time
}

func NewStore(adminEmail, adminPassword string) *Store {
	s := &Store{
		nextStudentID: 1,
		nextRecordID:  1,
		nextAdminID:   1,
		students:      make(map[int]*Student),
		attendance:    make(map[int][]api.AttendanceRecord),
		admins:        make(map[int]*Admin),
		now:           time.Now,
	}
	// The seeded administrator can always log in; further admins register
	// themselves through the API.
	_, _ = s.CreateAdmin("Administrator", "admin", adminEmail, adminPassword)
	return s
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func checkPassword(hash, password string) bool {
	candidate := hashPassword(password)
	return subtle.ConstantTimeCompare([]byte(hash), []byte(candidate)) == 1
}

// CreateStudent registers a new student, rejecting duplicate emails and
// roll numbers.
func (s *Store) CreateStudent(name, email, roll, course, password string) (*api.StudentProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.students {
		if existing.Profile.Email == email {
			return nil, ErrDuplicateEmail
		}
		if existing.Profile.RollNumber == roll {
			return nil, ErrDuplicateRoll
		}
	}

	now := s.now().Format(time.RFC3339)
	student := &Student{
		Profile: api.StudentProfile{
			ID:         s.nextStudentID,
			Name:       name,
			Email:      email,
			RollNumber: roll,
			Course:     course,
			Active:     true,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		PasswordHash: hashPassword(password),
	}
	s.nextStudentID++
	s.students[student.Profile.ID] = student

	profile := student.Profile
	return &profile, nil
}

// Authenticate checks student credentials by email.
func (s *Store) Authenticate(email, password string) (*api.StudentProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, student := range s.students {
		if student.Profile.Email == email && checkPassword(student.PasswordHash, password) {
			profile := student.Profile
			return &profile, true
		}
	}
	return nil, false
}

// CreateAdmin registers an administrator account, rejecting duplicate
// emails and usernames.
func (s *Store) CreateAdmin(name, username, email, password string) (*api.AdminProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.admins {
		if existing.Profile.Email == email {
			return nil, ErrDuplicateAdminEmail
		}
		if existing.Profile.Username == username {
			return nil, ErrDuplicateUsername
		}
	}

	admin := &Admin{
		Profile: api.AdminProfile{
			ID:        s.nextAdminID,
			Name:      name,
			Username:  username,
			Email:     email,
			CreatedAt: s.now().Format(time.RFC3339),
		},
		PasswordHash: hashPassword(password),
	}
	s.nextAdminID++
	s.admins[admin.Profile.ID] = admin

	profile := admin.Profile
	return &profile, nil
}

// AuthenticateAdmin checks administrator credentials by email.
func (s *Store) AuthenticateAdmin(email, password string) (*api.AdminProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, admin := range s.admins {
		if admin.Profile.Email == email && checkPassword(admin.PasswordHash, password) {
			profile := admin.Profile
			return &profile, true
		}
	}
	return nil, false
}

// AdminByEmail looks up an administrator profile.
func (s *Store) AdminByEmail(email string) (*api.AdminProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, admin := range s.admins {
		if admin.Profile.Email == email {
			profile := admin.Profile
			return &profile, nil
		}
	}
	return nil, ErrNotFound
}

// GetStudent looks up one student by ID.
func (s *Store) GetStudent(id int) (*api.StudentProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	student, ok := s.students[id]
	if !ok {
		return nil, ErrNotFound
	}
	profile := student.Profile
	return &profile, nil
}

// ListStudents returns all students ordered by ID.
func (s *Store) ListStudents() []api.StudentProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	profiles := make([]api.StudentProfile, 0, len(s.students))
	for _, student := range s.students {
		profiles = append(profiles, student.Profile)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
	return profiles
}

// UpdateStudent applies the non-nil fields of the change, rejecting
// duplicates the same way CreateStudent does.
func (s *Store) UpdateStudent(id int, change StudentChange) (*api.StudentProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	student, ok := s.students[id]
	if !ok {
		return nil, ErrNotFound
	}

	for otherID, other := range s.students {
		if otherID == id {
			continue
		}
		if change.Email != nil && other.Profile.Email == *change.Email {
			return nil, ErrDuplicateEmail
		}
		if change.RollNumber != nil && other.Profile.RollNumber == *change.RollNumber {
			return nil, ErrDuplicateRoll
		}
	}

	if change.Name != nil {
		student.Profile.Name = *change.Name
	}
	if change.Email != nil {
		student.Profile.Email = *change.Email
	}
	if change.RollNumber != nil {
		student.Profile.RollNumber = *change.RollNumber
	}
	if change.Course != nil {
		student.Profile.Course = *change.Course
	}
	if change.Password != nil {
		student.PasswordHash = hashPassword(*change.Password)
	}
	student.Profile.UpdatedAt = s.now().Format(time.RFC3339)

	profile := student.Profile
	return &profile, nil
}

// DeleteStudent removes a student and their attendance history.
func (s *Store) DeleteStudent(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[id]; !ok {
		return ErrNotFound
	}
	delete(s.students, id)
	delete(s.attendance, id)
	return nil
}

// MarkAttendance records attendance for today. At most one record per
// student per calendar date; a second attempt fails with ErrAlreadyMarked.
func (s *Store) MarkAttendance(studentID int, confidence float64) (*api.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.students[studentID]; !ok {
		return nil, ErrNotFound
	}

	now := s.now()
	date := now.Format("2006-01-02")
	for _, record := range s.attendance[studentID] {
		if record.Date == date {
			return nil, ErrAlreadyMarked
		}
	}

	record := api.AttendanceRecord{
		ID:         s.nextRecordID,
		Date:       date,
		Time:       now.Format("15:04:05"),
		Confidence: confidence,
	}
	s.nextRecordID++
	s.attendance[studentID] = append(s.attendance[studentID], record)
	return &record, nil
}

// TodayAttendance returns today's record for a student, nil when none.
func (s *Store) TodayAttendance(studentID int) *api.AttendanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	date := s.now().Format("2006-01-02")
	for _, record := range s.attendance[studentID] {
		if record.Date == date {
			r := record
			return &r
		}
	}
	return nil
}

// History returns a student's attendance newest first.
func (s *Store) History(studentID int) []api.AttendanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]api.AttendanceRecord, len(s.attendance[studentID]))
	copy(records, s.attendance[studentID])
	sort.Slice(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date > records[j].Date
		}
		return records[i].Time > records[j].Time
	})
	return records
}

// Reports joins attendance with student profiles, applying the filter.
// Name and course match case- and diacritic-insensitively on substrings.
func (s *Store) Reports(filter api.ReportFilter) []api.Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reports []api.Report
	for studentID, records := range s.attendance {
		student, ok := s.students[studentID]
		if !ok {
			continue
		}
		if !matchesFilter(student.Profile, filter) {
			continue
		}
		for _, record := range records {
			if filter.Date != "" && record.Date != filter.Date {
				continue
			}
			reports = append(reports, api.Report{
				ID:         record.ID,
				Date:       record.Date,
				Time:       record.Time,
				Confidence: record.Confidence,
				Student:    student.Profile,
			})
		}
	}
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].Date != reports[j].Date {
			return reports[i].Date > reports[j].Date
		}
		return reports[i].ID > reports[j].ID
	})
	return reports
}

func matchesFilter(student api.StudentProfile, filter api.ReportFilter) bool {
	if filter.StudentName != "" && !containsNormalized(student.Name, filter.StudentName) {
		return false
	}
	if filter.RollNumber != "" && student.RollNumber != filter.RollNumber {
		return false
	}
	if filter.Course != "" && !containsNormalized(student.Course, filter.Course) {
		return false
	}
	return true
}
