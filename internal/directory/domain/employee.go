package domain

import "strconv"

// Level is an employee's position in the supervisory hierarchy
type Level string

const (
	LevelManager   Level = "Manager"
	LevelDeveloper Level = "Developer"
	LevelTester    Level = "Tester"
	LevelIntern    Level = "Intern"
)

// Levels lists every valid level in declaration order
var Levels = []Level{LevelManager, LevelDeveloper, LevelTester, LevelIntern}

// NoSupervisor marks a Manager record as having no supervisor.
// It is stored but never shown to clients.
const NoSupervisor = "na"

// Gender values accepted in personal details
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// Marital status values accepted in personal details
const (
	MaritalSingle   = "Single"
	MaritalMarried  = "Married"
	MaritalDivorced = "Divorced"
	MaritalWidowed  = "Widowed"
)

// Employee is a directory record. Supervisor holds another employee's id in
// decimal form, the NoSupervisor sentinel, or nothing.
type Employee struct {
	ID         int64  `db:"id" json:"id"`
	FirstName  string `db:"first_name" json:"first_name"`
	LastName   string `db:"last_name" json:"last_name"`
	Email      string `db:"email" json:"email"`
	PhoneNo    string `db:"phone_no" json:"phone_no"`
	Level      Level  `db:"level" json:"level"`
	Supervisor string `db:"supervisor" json:"supervisor,omitempty"`
}

// HasSupervisor reports whether the record points at a superior
func (e Employee) HasSupervisor() bool {
	return e.Supervisor != "" && e.Supervisor != NoSupervisor
}

// SupervisorID parses the supervisor reference
func (e Employee) SupervisorID() (int64, bool) {
	if !e.HasSupervisor() {
		return 0, false
	}
	id, err := strconv.ParseInt(e.Supervisor, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Visible returns the record as clients should see it, without the sentinel
func (e Employee) Visible() Employee {
	if e.Supervisor == NoSupervisor {
		e.Supervisor = ""
	}
	return e
}

// VisibleAll applies Visible to every record
func VisibleAll(employees []Employee) []Employee {
	out := make([]Employee, len(employees))
	for i, e := range employees {
		out[i] = e.Visible()
	}
	return out
}

// EmployeePatch carries the fields of a partial update. Nil means "not provided".
type EmployeePatch struct {
	FirstName  *string
	LastName   *string
	Email      *string
	PhoneNo    *string
	Level      *Level
	Supervisor *string
}

// Apply shallow-merges the provided fields over e
func (p EmployeePatch) Apply(e Employee) Employee {
	if p.FirstName != nil {
		e.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		e.LastName = *p.LastName
	}
	if p.Email != nil {
		e.Email = *p.Email
	}
	if p.PhoneNo != nil {
		e.PhoneNo = *p.PhoneNo
	}
	if p.Level != nil {
		e.Level = *p.Level
	}
	if p.Supervisor != nil {
		e.Supervisor = *p.Supervisor
	}
	return e
}

// PersonalDetails is the optional personal side-table entry of an employee
type PersonalDetails struct {
	Gender              string `db:"gender" json:"gender"`
	BloodGroup          string `db:"blood_group" json:"blood_group"`
	MaritalStatus       string `db:"marital_status" json:"marital_status"`
	InternationalWorker bool   `db:"international_worker" json:"international_worker"`
	DOB                 string `db:"dob" json:"dob"`
	PhysicallyDisabled  bool   `db:"physically_disabled" json:"physically_disabled"`
}

// EmploymentDetails is the optional employment side-table entry of an employee.
// ReportingManager is free text and is not checked against Supervisor.
type EmploymentDetails struct {
	Employer         string `db:"employer" json:"employer"`
	Designation      Level  `db:"designation" json:"designation"`
	Location         string `db:"location" json:"location"`
	Department       string `db:"department" json:"department"`
	ReportingManager string `db:"reporting_manager" json:"reporting_manager"`
	DOJ              string `db:"doj" json:"doj"`
}

// CombinedDetails holds both side-table entries for one employee; nil means no data
type CombinedDetails struct {
	Personal   *PersonalDetails
	Employment *EmploymentDetails
}
