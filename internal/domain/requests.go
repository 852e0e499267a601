package domain

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CreateServiceRequest carries the operator-supplied fields of a new
// service. The store fills in id, status and timestamps.
type CreateServiceRequest struct {
	Name        string      `json:"name" yaml:"name" validate:"required,max=200"`
	Type        ServiceType `json:"type" yaml:"type" validate:"required,oneof=API Database Microservice Infrastructure Monitoring Cache"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty" validate:"omitempty,max=1000"`
	Endpoint    string      `json:"endpoint,omitempty" yaml:"endpoint,omitempty" validate:"omitempty,url"`
}

// UpdateServiceRequest is a partial update: nil fields are left untouched.
// An empty endpoint clears it.
type UpdateServiceRequest struct {
	Name        *string        `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Type        *ServiceType   `json:"type,omitempty" validate:"omitempty,oneof=API Database Microservice Infrastructure Monitoring Cache"`
	Status      *ServiceStatus `json:"status,omitempty" validate:"omitempty,oneof=Online Offline Degraded Maintenance Unknown"`
	Description *string        `json:"description,omitempty" validate:"omitempty,max=1000"`
	Endpoint    *string        `json:"endpoint,omitempty" validate:"omitempty,url|len=0"`
}

// Empty reports whether the update would change nothing.
func (r UpdateServiceRequest) Empty() bool {
	return r.Name == nil && r.Type == nil && r.Status == nil && r.Description == nil && r.Endpoint == nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON name, which is what the operator typed.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationError lists the offending fields and the rule each one broke.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, f := range names {
		parts = append(parts, f+" ("+e.Fields[f]+")")
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Validate checks a request struct against its tags.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return &ValidationError{Fields: map[string]string{"request": err.Error()}}
	}

	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}
	return &ValidationError{Fields: fields}
}

// Validate checks the request before it is sent anywhere.
func (r CreateServiceRequest) Validate() error { return Validate(r) }

// Validate checks the request before it is sent anywhere.
func (r UpdateServiceRequest) Validate() error { return Validate(r) }
