// Package validation checks JSON payloads against the four record schemas
// (create employee, update employee, personal details, employment details)
// and renders violations as human-readable text.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/staffdir/staffdir-backend/internal/directory/domain"
)

// Kind selects the schema a payload is checked against
type Kind int

const (
	CreateEmployee Kind = iota
	UpdateEmployee
	PersonalDetails
	EmploymentDetails
)

func (k Kind) String() string {
	switch k {
	case CreateEmployee:
		return "create-employee"
	case UpdateEmployee:
		return "update-employee"
	case PersonalDetails:
		return "personal-details"
	case EmploymentDetails:
		return "employment-details"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Rule names, following JSON-schema keyword vocabulary
const (
	RuleRequired             = "required"
	RuleAdditionalProperties = "additionalProperties"
	RuleType                 = "type"
	RulePattern              = "pattern"
	RuleFormat               = "format"
	RuleEnum                 = "enum"
	RuleMinLength            = "minLength"
	RuleMaxLength            = "maxLength"
	RuleNot                  = "not"
)

// patterns backs the custom pattern tags; alpha is built into validator
var patterns = map[string]string{
	"alpha":    "^[a-zA-Z]+$",
	"phone_no": "^[0-9]{10}$",
	"digits":   "^[0-9]+$",
}

// PatternMessages replaces the generic pattern text for these fields
var PatternMessages = map[string]string{
	"first_name": "first name should be a string containing only alphabets.",
	"last_name":  "last name should be a string containing only alphabets.",
	"email":      "email should be a valid email address.",
	"phone_no":   "phone number should be a 10 digit number.",
	"level":      "level should be one of the following values: 'manager', 'developer', 'tester', 'intern'.",
	"supervisor": "supervisor should be a string containing only numbers.",
}

// FieldError is a single schema violation
type FieldError struct {
	Field   string
	Rule    string
	Message string
}

// objectLevel reports whether the violation belongs to the enclosing object
// rather than to the field itself.
func (e FieldError) objectLevel() bool {
	return e.Rule == RuleRequired || e.Rule == RuleAdditionalProperties || e.Rule == RuleNot
}

// Text renders the violation with its location, e.g. "data/email must match format \"email\""
func (e FieldError) Text() string {
	if e.objectLevel() || e.Field == "" {
		return "data " + e.Message
	}
	return "data/" + e.Field + " " + e.Message
}

// Readable returns the fixed field message for pattern failures and the
// located engine text for everything else.
func (e FieldError) Readable() string {
	if e.Rule == RulePattern {
		if msg, ok := PatternMessages[e.Field]; ok {
			return msg
		}
	}
	return e.Text()
}

// Combined joins every violation into one string. Empty means valid.
func Combined(errs []FieldError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Readable()
	}
	return strings.Join(parts, ", ")
}

// First returns the message of the first violation. Empty means valid.
func First(errs []FieldError) string {
	if len(errs) == 0 {
		return ""
	}
	e := errs[0]
	if e.Rule == RulePattern {
		if msg, ok := PatternMessages[e.Field]; ok {
			return msg
		}
	}
	return e.Message
}

type createEmployeeSchema struct {
	FirstName  *string `json:"first_name" validate:"required,min=1,alpha"`
	LastName   *string `json:"last_name" validate:"required,min=1,alpha"`
	Email      *string `json:"email" validate:"required,email"`
	PhoneNo    *string `json:"phone_no" validate:"required,phone_no"`
	Level      *string `json:"level" validate:"required,oneof=Manager Developer Tester Intern"`
	Supervisor *string `json:"supervisor" validate:"omitnil,digits"`
}

type updateEmployeeSchema struct {
	FirstName  *string `json:"first_name" validate:"omitnil,min=1,max=50,alpha"`
	LastName   *string `json:"last_name" validate:"omitnil,min=1,max=50,alpha"`
	Email      *string `json:"email" validate:"omitnil,max=255,email"`
	PhoneNo    *string `json:"phone_no" validate:"omitnil,phone_no"`
	Level      *string `json:"level" validate:"omitnil,oneof=Manager Developer Tester Intern"`
	Supervisor *string `json:"supervisor" validate:"omitnil,min=10,max=50,digits"`
}

type personalDetailsSchema struct {
	Gender              *string `json:"gender" validate:"required,oneof=Male Female"`
	BloodGroup          *string `json:"blood_group" validate:"required,min=1,max=3"`
	MaritalStatus       *string `json:"marital_status" validate:"required,oneof=Single Married Divorced Widowed"`
	InternationalWorker *bool   `json:"international_worker" validate:"required"`
	DOB                 *string `json:"dob" validate:"required,datetime=2006-01-02"`
	PhysicallyDisabled  *bool   `json:"physically_disabled" validate:"required"`
}

type employmentDetailsSchema struct {
	Employer         *string `json:"employer" validate:"required,min=1,alpha"`
	Designation      *string `json:"designation" validate:"required,oneof=Manager Developer Tester Intern"`
	Location         *string `json:"location" validate:"required,min=1,alpha"`
	Department       *string `json:"department" validate:"required,min=1,alpha"`
	ReportingManager *string `json:"reporting_manager" validate:"required,min=1,alpha"`
	DOJ              *string `json:"doj" validate:"required,datetime=2006-01-02"`
}

// Validator checks payloads against the fixed schemas. It holds no mutable
// state after construction and is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

// New builds a Validator with the schema rules registered
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	for tag, pattern := range patterns {
		if tag == "alpha" {
			continue
		}
		re := regexp.MustCompile(pattern)
		// Registration only fails for empty tags or nil funcs.
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return re.MatchString(fl.Field().String())
		})
	}

	v.RegisterStructValidation(createEmployeeRules, createEmployeeSchema{})
	v.RegisterStructValidation(updateEmployeeRules, updateEmployeeSchema{})

	return &Validator{validate: v}
}

// A non-Manager (or a record whose level is still missing) must name a supervisor.
func createEmployeeRules(sl validator.StructLevel) {
	in := sl.Current().Interface().(createEmployeeSchema)
	if in.Supervisor != nil {
		return
	}
	if in.Level == nil || (isLevel(*in.Level) && domain.Level(*in.Level) != domain.LevelManager) {
		sl.ReportError(in.Supervisor, "supervisor", "Supervisor", RuleRequired, "")
	}
}

// Only a level change constrains supervisor: Managers must not carry one,
// every other level must.
func updateEmployeeRules(sl validator.StructLevel) {
	in := sl.Current().Interface().(updateEmployeeSchema)
	if in.Level == nil {
		return
	}
	if domain.Level(*in.Level) == domain.LevelManager {
		if in.Supervisor != nil {
			sl.ReportError(in.Supervisor, "supervisor", "Supervisor", RuleNot, "")
		}
		return
	}
	if in.Supervisor == nil {
		sl.ReportError(in.Supervisor, "supervisor", "Supervisor", RuleRequired, "")
	}
}

func isLevel(s string) bool {
	for _, l := range domain.Levels {
		if string(l) == s {
			return true
		}
	}
	return false
}

// Validate checks payload against the schema for kind and returns every
// violation found. An empty result means the payload is valid.
func (v *Validator) Validate(kind Kind, payload map[string]any) []FieldError {
	_, errs := v.check(kind, payload)
	return errs
}

func (v *Validator) check(kind Kind, payload map[string]any) (any, []FieldError) {
	var schema any
	switch kind {
	case CreateEmployee:
		schema = &createEmployeeSchema{}
	case UpdateEmployee:
		schema = &updateEmployeeSchema{}
	case PersonalDetails:
		schema = &personalDetailsSchema{}
	case EmploymentDetails:
		schema = &employmentDetailsSchema{}
	default:
		panic("validation: unknown schema kind " + kind.String())
	}

	errs, mistyped := bind(schema, payload)

	err := v.validate.Struct(schema)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		rv := reflect.ValueOf(schema).Elem()
		for _, fe := range verrs {
			if mistyped[fe.Field()] {
				continue
			}
			errs = append(errs, translate(fe.Field(), fe))
			errs = append(errs, v.remaining(rv, fe)...)
		}
	}

	return schema, errs
}

// bind copies correctly typed payload values into the schema struct and
// reports unknown properties and type mismatches.
func bind(schema any, payload map[string]any) ([]FieldError, map[string]bool) {
	rv := reflect.ValueOf(schema).Elem()
	rt := rv.Type()

	known := make(map[string]bool, rt.NumField())
	mistyped := make(map[string]bool)
	var errs []FieldError

	var unknown []string
	for i := 0; i < rt.NumField(); i++ {
		known[jsonName(rt.Field(i))] = true
	}
	for key := range payload {
		if !known[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		errs = append(errs, FieldError{
			Field:   key,
			Rule:    RuleAdditionalProperties,
			Message: fmt.Sprintf("must NOT have additional properties ('%s')", key),
		})
	}

	for i := 0; i < rt.NumField(); i++ {
		name := jsonName(rt.Field(i))
		raw, ok := payload[name]
		if !ok {
			continue
		}

		field := rv.Field(i)
		switch field.Type().Elem().Kind() {
		case reflect.String:
			s, ok := raw.(string)
			if !ok {
				mistyped[name] = true
				errs = append(errs, FieldError{Field: name, Rule: RuleType, Message: "must be string"})
				continue
			}
			field.Set(reflect.ValueOf(&s))
		case reflect.Bool:
			b, ok := raw.(bool)
			if !ok {
				mistyped[name] = true
				errs = append(errs, FieldError{Field: name, Rule: RuleType, Message: "must be boolean"})
				continue
			}
			field.Set(reflect.ValueOf(&b))
		}
	}

	return errs, mistyped
}

// remaining evaluates the tags after a failed one on the same field.
// validator stops at the first failing tag, but every failing rule is reported.
func (v *Validator) remaining(rv reflect.Value, fe validator.FieldError) []FieldError {
	sf, ok := rv.Type().FieldByName(fe.StructField())
	if !ok {
		return nil
	}
	field := rv.FieldByIndex(sf.Index)
	if field.Kind() != reflect.Pointer || field.IsNil() {
		return nil
	}

	tags := strings.Split(sf.Tag.Get("validate"), ",")
	idx := -1
	for i, t := range tags {
		if strings.SplitN(t, "=", 2)[0] == fe.Tag() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	var out []FieldError
	for _, tag := range tags[idx+1:] {
		var verrs validator.ValidationErrors
		if errors.As(v.validate.Var(field.Elem().Interface(), tag), &verrs) {
			out = append(out, translate(fe.Field(), verrs[0]))
		}
	}
	return out
}

func jsonName(f reflect.StructField) string {
	return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
}

func translate(name string, fe validator.FieldError) FieldError {
	switch fe.Tag() {
	case "required":
		return FieldError{Field: name, Rule: RuleRequired, Message: fmt.Sprintf("must have required property '%s'", name)}
	case RuleNot:
		return FieldError{Field: name, Rule: RuleNot, Message: fmt.Sprintf("must NOT have property '%s' when level is Manager", name)}
	case "alpha", "phone_no", "digits":
		return FieldError{Field: name, Rule: RulePattern, Message: fmt.Sprintf("must match pattern \"%s\"", patterns[fe.Tag()])}
	case "email":
		return FieldError{Field: name, Rule: RuleFormat, Message: "must match format \"email\""}
	case "datetime":
		return FieldError{Field: name, Rule: RuleFormat, Message: "must match format \"date\""}
	case "oneof":
		return FieldError{Field: name, Rule: RuleEnum, Message: "must be equal to one of the allowed values"}
	case "min":
		return FieldError{Field: name, Rule: RuleMinLength, Message: fmt.Sprintf("must NOT have fewer than %s characters", fe.Param())}
	case "max":
		return FieldError{Field: name, Rule: RuleMaxLength, Message: fmt.Sprintf("must NOT have more than %s characters", fe.Param())}
	default:
		return FieldError{Field: name, Rule: fe.Tag(), Message: "is invalid"}
	}
}

// NewEmployee validates a create payload and returns the record it describes
func (v *Validator) NewEmployee(payload map[string]any) (domain.Employee, []FieldError) {
	schema, errs := v.check(CreateEmployee, payload)
	if len(errs) > 0 {
		return domain.Employee{}, errs
	}
	in := schema.(*createEmployeeSchema)
	return domain.Employee{
		FirstName:  *in.FirstName,
		LastName:   *in.LastName,
		Email:      *in.Email,
		PhoneNo:    *in.PhoneNo,
		Level:      domain.Level(*in.Level),
		Supervisor: deref(in.Supervisor),
	}, nil
}

// EmployeeUpdate validates an update payload and returns the patch it describes
func (v *Validator) EmployeeUpdate(payload map[string]any) (domain.EmployeePatch, []FieldError) {
	schema, errs := v.check(UpdateEmployee, payload)
	if len(errs) > 0 {
		return domain.EmployeePatch{}, errs
	}
	in := schema.(*updateEmployeeSchema)
	patch := domain.EmployeePatch{
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Email:      in.Email,
		PhoneNo:    in.PhoneNo,
		Supervisor: in.Supervisor,
	}
	if in.Level != nil {
		level := domain.Level(*in.Level)
		patch.Level = &level
	}
	return patch, nil
}

// Personal validates a personal details payload
func (v *Validator) Personal(payload map[string]any) (domain.PersonalDetails, []FieldError) {
	schema, errs := v.check(PersonalDetails, payload)
	if len(errs) > 0 {
		return domain.PersonalDetails{}, errs
	}
	in := schema.(*personalDetailsSchema)
	return domain.PersonalDetails{
		Gender:              *in.Gender,
		BloodGroup:          *in.BloodGroup,
		MaritalStatus:       *in.MaritalStatus,
		InternationalWorker: *in.InternationalWorker,
		DOB:                 *in.DOB,
		PhysicallyDisabled:  *in.PhysicallyDisabled,
	}, nil
}

// Employment validates an employment details payload
func (v *Validator) Employment(payload map[string]any) (domain.EmploymentDetails, []FieldError) {
	schema, errs := v.check(EmploymentDetails, payload)
	if len(errs) > 0 {
		return domain.EmploymentDetails{}, errs
	}
	in := schema.(*employmentDetailsSchema)
	return domain.EmploymentDetails{
		Employer:         *in.Employer,
		Designation:      domain.Level(*in.Designation),
		Location:         *in.Location,
		Department:       *in.Department,
		ReportingManager: *in.ReportingManager,
		DOJ:              *in.DOJ,
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
