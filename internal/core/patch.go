package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	amountDecimalPlaces = 2
	amountWholeDigits   = 8

	msgInvalidString  = "Not a valid string."
	msgInvalidNumber  = "A valid number is required."
	msgInvalidInteger = "A valid integer is required."
	msgDecimalPlaces  = "Ensure that there are no more than 2 decimal places."
	msgWholeDigits    = "Ensure that there are no more than 8 digits before the decimal point."
)

// Field is a request value that is either absent, explicitly null, or set.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a present, non-null field.
func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// Null returns a present field carrying JSON null.
func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

// Present reports whether a non-null value was supplied.
func (f Field[T]) Present() bool {
	return f.Set && !f.Null
}

// EMIPatch holds the EMI fields supplied in a request body. Fields that
// could not be decoded are kept as problems and reported on validation.
type EMIPatch struct {
	Name          Field[string]
	MonthlyAmount Field[decimal.Decimal]
	DueDate       Field[int]
	LoanType      Field[string]
	Tenure        Field[int]

	problems *ValidationError
}

func (p *EMIPatch) UnmarshalJSON(data []byte) error {
	raw, err := decodeObject(data)
	if err != nil {
		return err
	}

	p.problems = NewValidationError()
	for key, msg := range raw {
		switch key {
		case "name":
			p.Name = decodeString(p.problems, key, msg, false)
		case "monthlyAmount":
			p.MonthlyAmount = decodeAmount(p.problems, key, msg)
		case "dueDate":
			p.DueDate = decodeInt(p.problems, key, msg, false)
		case "loanType":
			p.LoanType = decodeString(p.problems, key, msg, true)
		case "tenure":
			p.Tenure = decodeInt(p.problems, key, msg, true)
		}
	}
	return nil
}

// Apply merges the supplied fields onto e. Absent fields keep their value,
// null clears the optional ones. A blank loanType is kept as "".
func (p EMIPatch) Apply(e EMI) EMI {
	if p.Name.Present() {
		e.Name = p.Name.Value
	}
	if p.MonthlyAmount.Present() {
		e.MonthlyAmount = p.MonthlyAmount.Value
	}
	if p.DueDate.Present() {
		e.DueDate = p.DueDate.Value
	}
	if p.LoanType.Set {
		if p.LoanType.Null {
			e.LoanType = nil
		} else {
			v := p.LoanType.Value
			e.LoanType = &v
		}
	}
	if p.Tenure.Set {
		if p.Tenure.Null {
			e.Tenure = nil
		} else {
			v := p.Tenure.Value
			e.Tenure = &v
		}
	}
	return e
}

// NewEMI builds a complete record from the patch. name, monthlyAmount and
// dueDate must be present.
func (p EMIPatch) NewEMI(createdAt time.Time) (EMI, error) {
	verr := p.Problems()
	requireField(verr, "name", p.Name.Set)
	requireField(verr, "monthlyAmount", p.MonthlyAmount.Set)
	requireField(verr, "dueDate", p.DueDate.Set)

	e := p.Apply(EMI{CreatedAt: createdAt})
	if err := mergeValidation(verr, e.Validate()); err != nil {
		return EMI{}, err
	}
	return e, verr.OrNil()
}

// ApplyTo merges the patch onto an existing record and validates the result.
func (p EMIPatch) ApplyTo(e EMI) (EMI, error) {
	verr := p.Problems()
	updated := p.Apply(e)
	if err := mergeValidation(verr, updated.Validate()); err != nil {
		return EMI{}, err
	}
	return updated, verr.OrNil()
}

// Problems returns a copy of the decode errors collected for the patch.
func (p EMIPatch) Problems() *ValidationError {
	verr := NewValidationError()
	verr.Merge(p.problems)
	return verr
}

// IncomePatch holds the income fields supplied in a request body.
type IncomePatch struct {
	MonthlyIncome Field[decimal.Decimal]

	problems *ValidationError
}

func (p *IncomePatch) UnmarshalJSON(data []byte) error {
	raw, err := decodeObject(data)
	if err != nil {
		return err
	}

	p.problems = NewValidationError()
	if msg, ok := raw["monthlyIncome"]; ok {
		p.MonthlyIncome = decodeAmount(p.problems, "monthlyIncome", msg)
	}
	return nil
}

// NewIncome builds the first income row for instance; monthlyIncome is required.
func (p IncomePatch) NewIncome(instance string, now time.Time) (Income, error) {
	verr := p.Problems()
	requireField(verr, "monthlyIncome", p.MonthlyIncome.Set)

	inc := p.apply(NewIncome(instance, now))
	if err := mergeValidation(verr, inc.Validate()); err != nil {
		return Income{}, err
	}
	return inc, verr.OrNil()
}

// ApplyTo merges the patch onto the stored row and refreshes UpdatedAt.
func (p IncomePatch) ApplyTo(inc Income, now time.Time) (Income, error) {
	verr := p.Problems()
	updated := p.apply(inc)
	updated.UpdatedAt = now
	if err := mergeValidation(verr, updated.Validate()); err != nil {
		return Income{}, err
	}
	return updated, verr.OrNil()
}

func (p IncomePatch) Problems() *ValidationError {
	verr := NewValidationError()
	verr.Merge(p.problems)
	return verr
}

func (p IncomePatch) apply(inc Income) Income {
	if p.MonthlyIncome.Present() {
		inc.MonthlyIncome = p.MonthlyIncome.Value
	}
	return inc
}

func requireField(verr *ValidationError, field string, set bool) {
	if !set && !verr.Has(field) {
		verr.Add(field, MsgRequired)
	}
}

// mergeValidation folds a Validate result into verr. Errors that are not
// field errors are returned unchanged.
func mergeValidation(verr *ValidationError, err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs *ValidationError
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr.Merge(fieldErrs)
	return nil
}

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrInvalidBody
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, errors.Join(ErrInvalidBody, err)
	}
	return raw, nil
}

func isNull(msg json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(msg), []byte("null"))
}

func decodeString(verr *ValidationError, key string, msg json.RawMessage, nullable bool) Field[string] {
	if isNull(msg) {
		if !nullable {
			verr.Add(key, MsgNull)
		}
		return Null[string]()
	}

	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return Some(strings.TrimSpace(s))
	}
	// Numbers are accepted and kept as their literal text.
	var n json.Number
	if err := json.Unmarshal(msg, &n); err == nil {
		return Some(n.String())
	}
	verr.Add(key, msgInvalidString)
	return Field[string]{}
}

func decodeNumber(msg json.RawMessage) (decimal.Decimal, bool) {
	var n json.Number
	if err := json.Unmarshal(msg, &n); err != nil {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(n.String()))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func decodeAmount(verr *ValidationError, key string, msg json.RawMessage) Field[decimal.Decimal] {
	if isNull(msg) {
		verr.Add(key, MsgNull)
		return Null[decimal.Decimal]()
	}

	d, ok := decodeNumber(msg)
	if !ok {
		verr.Add(key, msgInvalidNumber)
		return Field[decimal.Decimal]{}
	}
	if !d.Equal(d.Truncate(amountDecimalPlaces)) {
		verr.Add(key, msgDecimalPlaces)
		return Field[decimal.Decimal]{}
	}
	if d.Abs().GreaterThanOrEqual(decimal.New(1, amountWholeDigits)) {
		verr.Add(key, msgWholeDigits)
		return Field[decimal.Decimal]{}
	}
	return Some(d)
}

func decodeInt(verr *ValidationError, key string, msg json.RawMessage, nullable bool) Field[int] {
	if isNull(msg) {
		if !nullable {
			verr.Add(key, MsgNull)
		}
		return Null[int]()
	}

	d, ok := decodeNumber(msg)
	if !ok || !d.IsInteger() || d.Abs().GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		verr.Add(key, msgInvalidInteger)
		return Field[int]{}
	}
	return Some(int(d.IntPart()))
}
